package raydium

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/meme-bots/go-roundtrip/types"
)

// PoolKeys holds every account a SwapBaseIn touches.
type PoolKeys struct {
	ID            solana.PublicKey `json:"id"`
	ProgramID     solana.PublicKey `json:"programId"`
	Authority     solana.PublicKey `json:"authority"`
	OpenOrders    solana.PublicKey `json:"openOrders"`
	TargetOrders  solana.PublicKey `json:"targetOrders"`
	BaseVault     solana.PublicKey `json:"baseVault"`
	QuoteVault    solana.PublicKey `json:"quoteVault"`
	BaseMint      solana.PublicKey `json:"baseMint"`
	QuoteMint     solana.PublicKey `json:"quoteMint"`
	LpMint        solana.PublicKey `json:"lpMint"`
	BaseDecimals  uint8            `json:"baseDecimals"`
	QuoteDecimals uint8            `json:"quoteDecimals"`

	MarketProgramID  solana.PublicKey `json:"marketProgramId"`
	MarketID         solana.PublicKey `json:"marketId"`
	MarketAuthority  solana.PublicKey `json:"marketAuthority"`
	MarketBaseVault  solana.PublicKey `json:"marketBaseVault"`
	MarketQuoteVault solana.PublicKey `json:"marketQuoteVault"`
	MarketBids       solana.PublicKey `json:"marketBids"`
	MarketAsks       solana.PublicKey `json:"marketAsks"`
	MarketEventQueue solana.PublicKey `json:"marketEventQueue"`
}

func NewPoolKeys(ammID, programID solana.PublicKey, pool *Pool, market *Market) (*PoolKeys, error) {
	authority, err := FindAmmAuthority(programID)
	if err != nil {
		return nil, err
	}
	vaultSigner, err := FindVaultSigner(market.VaultSignerNonce, pool.MarketId, pool.MarketProgramId)
	if err != nil {
		return nil, fmt.Errorf("vault signer: %w", err)
	}

	return &PoolKeys{
		ID:               ammID,
		ProgramID:        programID,
		Authority:        authority,
		OpenOrders:       pool.OpenOrders,
		TargetOrders:     pool.TargetOrders,
		BaseVault:        pool.BaseVault,
		QuoteVault:       pool.QuoteVault,
		BaseMint:         pool.BaseMint,
		QuoteMint:        pool.QuoteMint,
		LpMint:           pool.LpMint,
		BaseDecimals:     uint8(pool.BaseDecimal),
		QuoteDecimals:    uint8(pool.QuoteDecimal),
		MarketProgramID:  pool.MarketProgramId,
		MarketID:         pool.MarketId,
		MarketAuthority:  vaultSigner,
		MarketBaseVault:  market.BaseVault,
		MarketQuoteVault: market.QuoteVault,
		MarketBids:       market.Bids,
		MarketAsks:       market.Asks,
		MarketEventQueue: market.EventQueue,
	}, nil
}

// GetPoolKeys loads the pool and its market and assembles the swap keys.
func GetPoolKeys(ctx context.Context, client *rpc.Client, ammID solana.PublicKey) (*PoolKeys, *PoolAccount, error) {
	pa, err := GetPool(ctx, client, ammID)
	if err != nil {
		return nil, nil, err
	}

	info, err := client.GetAccountInfoWithOpts(ctx, pa.Pool.MarketId, &rpc.GetAccountInfoOpts{Commitment: rpc.CommitmentConfirmed})
	if err != nil {
		return nil, pa, fmt.Errorf("market %s: %w", pa.Pool.MarketId, err)
	}
	if info == nil || info.Value == nil {
		return nil, pa, fmt.Errorf("market %s: %w", pa.Pool.MarketId, types.ErrNotFound)
	}

	market, err := MarketDeserialize(info.Value.Data.GetBinary())
	if err != nil {
		return nil, pa, err
	}

	keys, err := NewPoolKeys(ammID, pa.ProgramID, pa.Pool, &market)
	if err != nil {
		return nil, pa, err
	}
	return keys, pa, nil
}

// TokenSide reports which side of a WSOL pool holds the other token.
func (k *PoolKeys) TokenSide() (mint solana.PublicKey, tokenIsBase bool, err error) {
	p := Pool{BaseMint: k.BaseMint, QuoteMint: k.QuoteMint}
	return p.TokenSide()
}

func (k *PoolKeys) TokenDecimals() uint8 {
	if _, base, _ := k.TokenSide(); base {
		return k.BaseDecimals
	}
	return k.QuoteDecimals
}
