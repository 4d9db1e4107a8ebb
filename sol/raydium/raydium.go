package raydium

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/meme-bots/go-roundtrip/amm"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/near/borsh-go"
	"github.com/samber/lo"
)

const (
	InstructionSwapBaseIn Instruction = 9

	PoolSize = 752

	BaseVaultOffset = 336
	BaseMintOffset  = 400
	QuoteMintOffset = 432
	MarketIDOffset  = 528
)

var (
	ProgramID             = solana.MPK("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	DevnetProgramID       = solana.MPK("HWy1jotHpo6UqeQxx49dpYYdQB8wj9Qk9MdxwjLvDHB8")
	LegacyDevnetProgramID = solana.MPK("DRaya7Kj3aMWQSy19kSjvmuwq9docCHofyP9kanQGaav")
	AuthorityV4           = solana.MPK("5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1")

	KnownProgramIDs = []solana.PublicKey{ProgramID, DevnetProgramID, LegacyDevnetProgramID}
)

type (
	Instruction uint8

	// Pool is LIQUIDITY_STATE_LAYOUT_V4.
	Pool struct {
		Status                 uint64
		Nonce                  uint64
		MaxOrder               uint64
		Depth                  uint64
		BaseDecimal            uint64
		QuoteDecimal           uint64
		State                  uint64
		ResetFlag              uint64
		MinSize                uint64
		VolMaxCutRatio         uint64
		AmountWaveRatio        uint64
		BaseLotSize            uint64
		QuoteLotSize           uint64
		MinPriceMultiplier     uint64
		MaxPriceMultiplier     uint64
		SystemDecimalValue     uint64
		MinSeparateNumerator   uint64
		MinSeparateDenominator uint64
		TradeFeeNumerator      uint64
		TradeFeeDenominator    uint64
		PnlNumerator           uint64
		PnlDenominator         uint64
		SwapFeeNumerator       uint64
		SwapFeeDenominator     uint64
		BaseNeedTakePnl        uint64
		QuoteNeedTakePnl       uint64
		QuoteTotalPnl          uint64
		BaseTotalPnl           uint64
		PoolOpenTime           uint64
		PunishPcAmount         uint64
		PunishCoinAmount       uint64
		OrderbookToInitTime    uint64

		// u128 counters, low half first
		SwapBaseInAmount1   uint64
		SwapBaseInAmount2   uint64
		SwapQuoteOutAmount1 uint64
		SwapQuoteOutAmount2 uint64

		SwapBase2QuoteFee  uint64
		SwapQuoteInAmount1 uint64
		SwapQuoteInAmount2 uint64
		SwapBaseOutAmount1 uint64
		SwapBaseOutAmount2 uint64
		SwapQuote2BaseFee  uint64
		// amm vault
		BaseVault  solana.PublicKey
		QuoteVault solana.PublicKey
		// mint
		BaseMint  solana.PublicKey
		QuoteMint solana.PublicKey
		LpMint    solana.PublicKey
		// Market
		OpenOrders      solana.PublicKey
		MarketId        solana.PublicKey
		MarketProgramId solana.PublicKey
		TargetOrders    solana.PublicKey
		WithdrawQueue   solana.PublicKey
		LpVault         solana.PublicKey
		Owner           solana.PublicKey
		// true circulating supply without lock up
		LpReserve uint64

		Padding [3]uint64
	}

	// PoolAccount is a decoded pool together with its address and owner.
	PoolAccount struct {
		Address   solana.PublicKey
		ProgramID solana.PublicKey
		Pool      *Pool
	}

	// PoolState adds vault balances to a pool.
	PoolState struct {
		PoolAccount
		BaseReserve  uint64
		QuoteReserve uint64
	}
)

func DecodePool(data []byte) (*Pool, error) {
	if len(data) != PoolSize {
		return nil, fmt.Errorf("%w: account data is %d bytes, want %d", types.ErrInvalidPool, len(data), PoolSize)
	}
	var p Pool
	if err := borsh.Deserialize(&p, data); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidPool, err)
	}
	return &p, nil
}

func (p *Pool) PoolStatus() types.PoolStatus {
	return types.PoolStatus(p.Status)
}

func (p *Pool) Tradable() bool {
	return p.PoolStatus() == types.PoolStatusSwapOnly
}

func (p *Pool) Fee() amm.Fee {
	if p.TradeFeeDenominator == 0 {
		return amm.DefaultFee
	}
	return amm.Fee{Numerator: p.TradeFeeNumerator, Denominator: p.TradeFeeDenominator}
}

// TokenSide reports which side of a WSOL pool holds the other token.
func (p *Pool) TokenSide() (mint solana.PublicKey, tokenIsBase bool, err error) {
	switch {
	case p.QuoteMint.Equals(solana.SolMint) && !p.BaseMint.Equals(solana.SolMint):
		return p.BaseMint, true, nil
	case p.BaseMint.Equals(solana.SolMint) && !p.QuoteMint.Equals(solana.SolMint):
		return p.QuoteMint, false, nil
	}
	return solana.PublicKey{}, false, fmt.Errorf("%w: pool %s/%s is not paired with WSOL", types.ErrInvalidPool, p.BaseMint, p.QuoteMint)
}

// Reserves subtracts the pnl the pool owes from the vault balances.
func (p *Pool) Reserves(baseVaultAmount, quoteVaultAmount uint64) (base, quote uint64) {
	base = lo.Ternary(baseVaultAmount > p.BaseNeedTakePnl, baseVaultAmount-p.BaseNeedTakePnl, 0)
	quote = lo.Ternary(quoteVaultAmount > p.QuoteNeedTakePnl, quoteVaultAmount-p.QuoteNeedTakePnl, 0)
	return base, quote
}

// Orient returns reserves as (WSOL, token).
func (s *PoolState) Orient() (reserveSol, reserveToken uint64, err error) {
	_, tokenIsBase, err := s.Pool.TokenSide()
	if err != nil {
		return 0, 0, err
	}
	if tokenIsBase {
		return s.QuoteReserve, s.BaseReserve, nil
	}
	return s.BaseReserve, s.QuoteReserve, nil
}

func IsKnownProgram(id solana.PublicKey) bool {
	return lo.ContainsBy(KnownProgramIDs, func(p solana.PublicKey) bool { return p.Equals(id) })
}

func GetPool(ctx context.Context, client *rpc.Client, address solana.PublicKey) (*PoolAccount, error) {
	info, err := client.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{Commitment: rpc.CommitmentConfirmed})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("pool %s: %w", address, types.ErrNotFound)
		}
		return nil, err
	}
	if info == nil || info.Value == nil {
		return nil, fmt.Errorf("pool %s: %w", address, types.ErrNotFound)
	}

	p, err := DecodePool(info.Value.Data.GetBinary())
	if err != nil {
		return nil, err
	}
	return &PoolAccount{Address: address, ProgramID: info.Value.Owner, Pool: p}, nil
}

func GetPoolState(ctx context.Context, client *rpc.Client, address solana.PublicKey) (*PoolState, error) {
	pa, err := GetPool(ctx, client, address)
	if err != nil {
		return nil, err
	}

	accounts, err := client.GetMultipleAccountsWithOpts(
		ctx,
		[]solana.PublicKey{pa.Pool.BaseVault, pa.Pool.QuoteVault},
		&rpc.GetMultipleAccountsOpts{Commitment: rpc.CommitmentConfirmed},
	)
	if err != nil {
		return nil, err
	}

	amounts := make([]uint64, 2)
	for i, acc := range accounts.Value {
		if acc == nil {
			return nil, fmt.Errorf("%w: vault %d missing", types.ErrPoolEmpty, i)
		}
		var ta token.Account
		if err := ta.UnmarshalWithDecoder(bin.NewBinDecoder(acc.Data.GetBinary())); err != nil {
			return nil, err
		}
		amounts[i] = ta.Amount
	}

	base, quote := pa.Pool.Reserves(amounts[0], amounts[1])
	return &PoolState{PoolAccount: *pa, BaseReserve: base, QuoteReserve: quote}, nil
}

// FindPoolsByMint lists AMM v4 pools with the given base and quote mints.
func FindPoolsByMint(ctx context.Context, client *rpc.Client, programID, baseMint, quoteMint solana.PublicKey) ([]*PoolAccount, error) {
	result, err := client.GetProgramAccountsWithOpts(ctx, programID, &rpc.GetProgramAccountsOpts{
		Commitment: rpc.CommitmentConfirmed,
		Encoding:   solana.EncodingBase64,
		Filters: []rpc.RPCFilter{
			{DataSize: PoolSize},
			{Memcmp: &rpc.RPCFilterMemcmp{Offset: BaseMintOffset, Bytes: baseMint.Bytes()}},
			{Memcmp: &rpc.RPCFilterMemcmp{Offset: QuoteMintOffset, Bytes: quoteMint.Bytes()}},
		},
	})
	if err != nil {
		return nil, err
	}

	pools := make([]*PoolAccount, 0, len(result))
	for _, r := range result {
		p, err := DecodePool(r.Account.Data.GetBinary())
		if err != nil {
			continue
		}
		pools = append(pools, &PoolAccount{Address: r.Pubkey, ProgramID: r.Account.Owner, Pool: p})
	}
	return pools, nil
}

// Probe checks candidate pool addresses in a single getMultipleAccounts call.
func Probe(ctx context.Context, client *rpc.Client, addresses []solana.PublicKey) ([]*types.ProbeResult, error) {
	accounts, err := client.GetMultipleAccountsWithOpts(ctx, addresses, &rpc.GetMultipleAccountsOpts{Commitment: rpc.CommitmentConfirmed})
	if err != nil {
		return nil, err
	}

	results := make([]*types.ProbeResult, len(addresses))
	for i, address := range addresses {
		var acc *rpc.Account
		if i < len(accounts.Value) {
			acc = accounts.Value[i]
		}
		results[i] = ProbeAccount(address, acc)
	}
	return results, nil
}

func ProbeAccount(address solana.PublicKey, acc *rpc.Account) *types.ProbeResult {
	r := &types.ProbeResult{Address: address.String()}
	if acc == nil {
		r.Error = types.ErrNotFound.Error()
		return r
	}

	data := acc.Data.GetBinary()
	r.Exists = true
	r.Owner = acc.Owner.String()
	r.IsRaydium = IsKnownProgram(acc.Owner)
	r.DataLen = len(data)

	p, err := DecodePool(data)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Decoded = true
	r.Status = p.PoolStatus()
	r.Tradable = r.IsRaydium && p.Tradable()
	r.BaseMint = p.BaseMint.String()
	r.QuoteMint = p.QuoteMint.String()
	if ammID, err := FindAmmId(acc.Owner, p.MarketId); err == nil {
		r.Associated = ammID.Equals(address)
	}
	if !r.IsRaydium {
		r.Error = fmt.Sprintf("owner %s is not a raydium amm program", acc.Owner)
	}
	return r
}

// CreateSwapInstruction builds SwapBaseIn with the 18 account layout that
// includes the OpenBook market accounts.
func CreateSwapInstruction(keys *PoolKeys, amountIn, minAmountOut uint64, source, dest, owner solana.PublicKey) solana.Instruction {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	_ = enc.WriteUint8(uint8(InstructionSwapBaseIn))
	_ = enc.WriteUint64(amountIn, bin.LE)
	_ = enc.WriteUint64(minAmountOut, bin.LE)

	return &solana.GenericInstruction{
		ProgID: keys.ProgramID,
		AccountValues: solana.AccountMetaSlice{
			{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
			{PublicKey: keys.ID, IsSigner: false, IsWritable: true},
			{PublicKey: keys.Authority, IsSigner: false, IsWritable: false},
			{PublicKey: keys.OpenOrders, IsSigner: false, IsWritable: true},
			{PublicKey: keys.TargetOrders, IsSigner: false, IsWritable: true},
			{PublicKey: keys.BaseVault, IsSigner: false, IsWritable: true},
			{PublicKey: keys.QuoteVault, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketProgramID, IsSigner: false, IsWritable: false},
			{PublicKey: keys.MarketID, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketBids, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketAsks, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketEventQueue, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketBaseVault, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketQuoteVault, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketAuthority, IsSigner: false, IsWritable: false},
			{PublicKey: source, IsSigner: false, IsWritable: true},
			{PublicKey: dest, IsSigner: false, IsWritable: true},
			{PublicKey: owner, IsSigner: true, IsWritable: true},
		},
		DataBytes: buf.Bytes(),
	}
}

// CreateIdempotentInstruction creates the associated token account unless it
// already exists.
func CreateIdempotentInstruction(mint, wallet solana.PublicKey) solana.Instruction {
	ata, _, _ := solana.FindAssociatedTokenAddress(wallet, mint)

	return &solana.GenericInstruction{
		ProgID: solana.SPLAssociatedTokenAccountProgramID,
		AccountValues: solana.AccountMetaSlice{
			{PublicKey: wallet, IsSigner: true, IsWritable: true},
			{PublicKey: ata, IsSigner: false, IsWritable: true},
			{PublicKey: wallet, IsSigner: false, IsWritable: false},
			{PublicKey: mint, IsSigner: false, IsWritable: false},
			{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
			{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		},
		DataBytes: []byte{1},
	}
}
