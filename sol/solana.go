package sol

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/meme-bots/go-roundtrip/amm"
	"github.com/meme-bots/go-roundtrip/logger"
	"github.com/meme-bots/go-roundtrip/sol/common"
	"github.com/meme-bots/go-roundtrip/sol/jupiter"
	"github.com/meme-bots/go-roundtrip/sol/raydium"
	"github.com/meme-bots/go-roundtrip/sol/roundtrip"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/meme-bots/go-roundtrip/utils"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const poolKeysTTL = 10 * time.Minute

var addressRegexp = regexp.MustCompile("^[1-9A-HJ-NP-Za-km-z]{32,44}$")

var _ types.NetworkInterface = (*Solana)(nil)

type (
	Solana struct {
		cfg      *types.Config
		client   *rpc.Client
		jito     *rpc.Client
		watcher  *Watcher
		cache    *cache.Cache[[]byte]
		jupiter  *jupiter.Client
		dex      *DexScreener
		wallet   solana.PrivateKey
		amm      solana.PublicKey
		program  solana.PublicKey
		dexAPI   string
		priceSrc PriceSource
	}

	Option func(*Solana)
)

func WithWallet(pk solana.PrivateKey) Option {
	return func(s *Solana) { s.wallet = pk }
}

func WithDexScreenerAPI(api string) Option {
	return func(s *Solana) { s.dexAPI = api }
}

func WithPriceSource(src PriceSource) Option {
	return func(s *Solana) { s.priceSrc = src }
}

func NewSolana(cfg *types.Config, opts ...Option) (*Solana, error) {
	if cfg.RPC == "" {
		return nil, errors.New("rpc url not configured")
	}

	c, err := utils.NewCache()
	if err != nil {
		return nil, err
	}

	s := &Solana{
		cfg:    cfg,
		client: rpc.New(cfg.RPC),
		cache:  c,
		amm:    raydium.ProgramID,
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.AmmProgramID != "" {
		if s.amm, err = solana.PublicKeyFromBase58(cfg.AmmProgramID); err != nil {
			return nil, fmt.Errorf("amm program id: %w", err)
		}
	}
	if cfg.RoundTripProgramID != "" {
		if s.program, err = solana.PublicKeyFromBase58(cfg.RoundTripProgramID); err != nil {
			return nil, fmt.Errorf("round trip program id: %w", err)
		}
	}
	switch {
	case cfg.JitoRPC != "":
		s.jito = rpc.New(cfg.JitoRPC)
	case cfg.JitoTip != 0 && cfg.Cluster == "mainnet-beta":
		s.jito = rpc.New(common.JitoRpc)
	}

	s.jupiter = jupiter.NewClient(cfg.JupiterAPI, c)
	s.dex = NewDexScreener(s.dexAPI, c)

	// the vault price source only exists on mainnet
	if s.priceSrc == nil && cfg.Cluster != "" && cfg.Cluster != "mainnet-beta" {
		s.priceSrc = s.dex.SolPrice
	}
	s.watcher = NewWatcher(s.client, cfg.WatchBlockHash, cfg.WatchSolPrice, s.priceSrc)
	return s, nil
}

func (s *Solana) Start() error {
	return s.watcher.Start()
}

func (s *Solana) Close() error {
	return s.watcher.Close()
}

func (s *Solana) GetType() int {
	return types.NetworkTypeSol
}

func (s *Solana) GetNativeTokenSymbol() string {
	return lo.Ternary(s.cfg.NativeTokenSymbol == "", "SOL", s.cfg.NativeTokenSymbol)
}

func (s *Solana) GetNativeTokenDecimals() uint8 {
	return lo.Ternary(s.cfg.NativeTokenDecimals == 0, uint8(9), s.cfg.NativeTokenDecimals)
}

func (s *Solana) GetNativeTokenPrice() decimal.Decimal {
	return s.watcher.GetSolPrice()
}

func (s *Solana) Client() *rpc.Client {
	return s.client
}

func (s *Solana) Config() *types.Config {
	return s.cfg
}

// Wallet returns the configured signer's public key, or the zero key.
func (s *Solana) Wallet() solana.PublicKey {
	if s.wallet == nil {
		return solana.PublicKey{}
	}
	return s.wallet.PublicKey()
}

func (s *Solana) AmmProgram() solana.PublicKey {
	return s.amm
}

func (s *Solana) GetBalance(ctx context.Context, req *types.GetBalanceRequest) (*big.Int, error) {
	address, err := solana.PublicKeyFromBase58(req.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}
	balance, err := s.client.GetBalance(ctx, address, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(balance.Value), nil
}

func (s *Solana) GetTokenBalance(ctx context.Context, req *types.GetTokenBalanceRequest) (*big.Int, error) {
	owner, err := solana.PublicKeyFromBase58(req.Owner)
	if err != nil {
		return nil, fmt.Errorf("invalid owner: %w", err)
	}
	mint, err := solana.PublicKeyFromBase58(req.Token)
	if err != nil {
		return nil, fmt.Errorf("invalid mint: %w", err)
	}

	ret, err := s.client.GetTokenAccountsByOwner(ctx, owner, &rpc.GetTokenAccountsConfig{Mint: &mint}, &rpc.GetTokenAccountsOpts{Commitment: rpc.CommitmentConfirmed})
	if err != nil {
		return nil, err
	}

	total := big.NewInt(0)
	for _, v := range ret.Value {
		var account token.Account
		if err := account.UnmarshalWithDecoder(bin.NewBinDecoder(v.Account.Data.GetBinary())); err != nil {
			return nil, err
		}
		total.Add(total, new(big.Int).SetUint64(account.Amount))
	}
	return total, nil
}

func (s *Solana) GetPool(ctx context.Context, address string) (*types.PoolInfo, error) {
	addr, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidPool, err)
	}
	state, err := raydium.GetPoolState(ctx, s.client, addr)
	if err != nil {
		return nil, err
	}

	info := poolInfo(&state.PoolAccount)
	info.BaseReserve = new(big.Int).SetUint64(state.BaseReserve)
	info.QuoteReserve = new(big.Int).SetUint64(state.QuoteReserve)
	info.PriceInQuote = amm.SpotPrice(state.BaseReserve, state.QuoteReserve, info.BaseDecimal, info.QuoteDecimal)

	if info.TokenMint != "" {
		meta, err := common.GetTokenInfo(ctx, s.client, solana.MPK(info.TokenMint))
		if err != nil {
			logger.Debugf("[Solana] token info for %s: %v", info.TokenMint, err)
		} else {
			info.TokenName, info.TokenSymbol = meta.Name, meta.Symbol
		}
	}
	return info, nil
}

func poolInfo(pa *raydium.PoolAccount) *types.PoolInfo {
	p := pa.Pool
	info := &types.PoolInfo{
		AmmPublicKey:    pa.Address.String(),
		AmmProgramID:    pa.ProgramID.String(),
		OpenOrders:      p.OpenOrders.String(),
		TargetOrders:    p.TargetOrders.String(),
		MarketPublicKey: p.MarketId.String(),
		MarketProgramID: p.MarketProgramId.String(),
		BaseMint:        p.BaseMint.String(),
		BaseVault:       p.BaseVault.String(),
		BaseDecimal:     uint8(p.BaseDecimal),
		QuoteMint:       p.QuoteMint.String(),
		QuoteVault:      p.QuoteVault.String(),
		QuoteDecimal:    uint8(p.QuoteDecimal),
		LpMint:          p.LpMint.String(),
		OpenTime:        int64(p.PoolOpenTime),
		Status:          p.PoolStatus(),
		FeeNumerator:    p.Fee().Numerator,
		FeeDenominator:  p.Fee().Denominator,
	}
	if authority, err := raydium.FindAmmAuthority(pa.ProgramID); err == nil {
		info.Authority = authority.String()
	}
	if mint, tokenIsBase, err := p.TokenSide(); err == nil {
		info.TokenMint = mint.String()
		info.TokenIsBase = tokenIsBase
	}
	return info
}

// FindPools looks up pools for a mint in both orientations. On mainnet an
// empty result falls back to DexScreener pairs.
func (s *Solana) FindPools(ctx context.Context, req *types.FindPoolsRequest) ([]*types.PoolInfo, error) {
	mint, err := solana.PublicKeyFromBase58(req.Mint)
	if err != nil {
		return nil, fmt.Errorf("invalid mint: %w", err)
	}
	quote := solana.SolMint
	if req.Quote != "" {
		if quote, err = solana.PublicKeyFromBase58(req.Quote); err != nil {
			return nil, fmt.Errorf("invalid quote mint: %w", err)
		}
	}

	var asBase, asQuote []*raydium.PoolAccount
	var errBase, errQuote error
	sub := utils.Subprocesses{}
	sub.Go(func() {
		asBase, errBase = raydium.FindPoolsByMint(ctx, s.client, s.amm, mint, quote)
	})
	sub.Go(func() {
		asQuote, errQuote = raydium.FindPoolsByMint(ctx, s.client, s.amm, quote, mint)
	})
	sub.Wait()

	if errBase != nil && errQuote != nil {
		return s.findPoolsDexScreener(ctx, req.Mint, errors.Join(errBase, errQuote))
	}
	if errBase != nil {
		logger.Debugf("[Solana] pool search with %s as base failed: %v", mint, errBase)
	}
	if errQuote != nil {
		logger.Debugf("[Solana] pool search with %s as quote failed: %v", mint, errQuote)
	}

	pools := lo.Map(append(asBase, asQuote...), func(pa *raydium.PoolAccount, _ int) *types.PoolInfo {
		return poolInfo(pa)
	})
	if len(pools) == 0 {
		return s.findPoolsDexScreener(ctx, req.Mint, types.ErrNotFound)
	}
	return pools, nil
}

func (s *Solana) findPoolsDexScreener(ctx context.Context, mint string, cause error) ([]*types.PoolInfo, error) {
	if s.cfg.Cluster != "" && s.cfg.Cluster != "mainnet-beta" {
		return nil, cause
	}
	logger.Debugf("[Solana] on-chain pool search failed (%v), trying dexscreener", cause)

	pairs, err := s.dex.RaydiumPairs(ctx, mint)
	if err != nil {
		return nil, errors.Join(cause, err)
	}
	var pools []*types.PoolInfo
	for _, pair := range pairs {
		addr, err := solana.PublicKeyFromBase58(pair)
		if err != nil {
			continue
		}
		pa, err := raydium.GetPool(ctx, s.client, addr)
		if err != nil {
			logger.Debugf("[Solana] dexscreener pair %s: %v", pair, err)
			continue
		}
		pools = append(pools, poolInfo(pa))
	}
	if len(pools) == 0 {
		return nil, types.ErrNotFound
	}
	return pools, nil
}

func (s *Solana) ProbePools(ctx context.Context, addresses []string) ([]*types.ProbeResult, error) {
	results := make([]*types.ProbeResult, len(addresses))
	var keys []solana.PublicKey
	var slots []int
	for i, a := range addresses {
		key, err := solana.PublicKeyFromBase58(a)
		if err != nil {
			results[i] = &types.ProbeResult{Address: a, Error: "invalid address: " + err.Error()}
			continue
		}
		keys = append(keys, key)
		slots = append(slots, i)
	}
	if len(keys) == 0 {
		return results, nil
	}

	probed, err := raydium.Probe(ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	for j, r := range probed {
		results[slots[j]] = r
	}
	return results, nil
}

func (s *Solana) QuoteRoundTrip(ctx context.Context, req *types.QuoteRoundTripRequest) (*types.QuoteRoundTripResponse, error) {
	addr, err := solana.PublicKeyFromBase58(req.Pool)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidPool, err)
	}
	state, err := raydium.GetPoolState(ctx, s.client, addr)
	if err != nil {
		return nil, err
	}
	reserveSol, reserveToken, err := state.Orient()
	if err != nil {
		return nil, err
	}

	bps := lo.Ternary(req.SlippageBps == 0, uint64(types.DefaultSlippageBps), req.SlippageBps)
	args, q, err := roundtrip.ArgsFromQuote(req.AmountIn, reserveSol, reserveToken, state.Pool.Fee(), bps)
	if err != nil {
		return nil, err
	}

	info := poolInfo(&state.PoolAccount)
	info.BaseReserve = new(big.Int).SetUint64(state.BaseReserve)
	info.QuoteReserve = new(big.Int).SetUint64(state.QuoteReserve)
	info.PriceInQuote = amm.SpotPrice(state.BaseReserve, state.QuoteReserve, info.BaseDecimal, info.QuoteDecimal)

	return &types.QuoteRoundTripResponse{
		Pool:           info,
		TokenIsBase:    info.TokenIsBase,
		Quote:          q,
		MinimumOutBuy:  args.MinimumAmountOutBuy,
		MinimumOutSell: args.MinimumAmountOutSell,
	}, nil
}

// JupiterQuote quotes SOL -> mint -> SOL through the aggregator.
func (s *Solana) JupiterQuote(ctx context.Context, mint string, amount, slippageBps uint64) (*jupiter.RoundTrip, error) {
	bps := lo.Ternary(slippageBps == 0, uint64(types.DefaultSlippageBps), slippageBps)
	return s.jupiter.QuoteRoundTrip(ctx, solana.SolMint.String(), mint, amount, bps)
}

func (s *Solana) poolKeys(ctx context.Context, ammID solana.PublicKey) (*raydium.PoolKeys, error) {
	key := "PoolKeys:" + ammID.String()
	if keys, ok := utils.CacheGet[raydium.PoolKeys](ctx, s.cache, key); ok {
		return keys, nil
	}
	keys, _, err := raydium.GetPoolKeys(ctx, s.client, ammID)
	if err != nil {
		return nil, err
	}
	utils.CacheSet(ctx, s.cache, key, keys, poolKeysTTL)
	return keys, nil
}

func (s *Solana) CheckAddress(text string) bool {
	if !addressRegexp.MatchString(text) {
		return false
	}
	_, err := solana.PublicKeyFromBase58(text)
	return err == nil
}
