package common

import (
	"context"
	"math/big"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

type (
	// TokenInfo is what a pool view needs to know about its non-SOL mint.
	TokenInfo struct {
		Mint                  solana.PublicKey
		Name                  string
		Symbol                string
		Uri                   string
		Decimals              uint8
		TotalSupply           decimal.Decimal
		FreezeDisabled        bool
		MintAuthorityDisabled bool
	}

	Balance struct {
		NativeBalance *big.Int
		TokenBalance  *big.Int
	}
)

// GetTokenInfo loads a mint and its metaplex metadata. A missing metadata
// account leaves the name and symbol empty.
func GetTokenInfo(ctx context.Context, client *rpc.Client, mint solana.PublicKey) (*TokenInfo, error) {
	metaAddress, _, _ := solana.FindTokenMetadataAddress(mint)
	accounts, err := client.GetMultipleAccountsWithOpts(
		ctx,
		[]solana.PublicKey{mint, metaAddress},
		&rpc.GetMultipleAccountsOpts{Commitment: rpc.CommitmentConfirmed},
	)
	if err != nil {
		return nil, err
	}
	if len(accounts.Value) < 2 || accounts.Value[0] == nil {
		return nil, rpc.ErrNotFound
	}

	var mintAccount token.Mint
	if err := mintAccount.UnmarshalWithDecoder(bin.NewBinDecoder(accounts.Value[0].Data.GetBinary())); err != nil {
		return nil, err
	}

	info := &TokenInfo{
		Mint:                  mint,
		Decimals:              mintAccount.Decimals,
		TotalSupply:           decimal.NewFromUint64(mintAccount.Supply).Shift(-int32(mintAccount.Decimals)),
		FreezeDisabled:        mintAccount.FreezeAuthority == nil,
		MintAuthorityDisabled: mintAccount.MintAuthority == nil,
	}

	if v := accounts.Value[1]; v != nil && v.Data != nil {
		if meta, err := DecodeTokenMetadata(v.Data.GetBinary()); err == nil && meta.Mint.Equals(mint) {
			info.Name, info.Symbol, info.Uri = meta.Name, meta.Symbol, meta.Uri
		}
	}
	return info, nil
}

// GetBalances returns the lamports of owner and its associated token balance for mint.
func GetBalances(ctx context.Context, client *rpc.Client, owner, mint solana.PublicKey) (*Balance, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, err
	}
	accounts, err := client.GetMultipleAccountsWithOpts(
		ctx,
		[]solana.PublicKey{owner, ata},
		&rpc.GetMultipleAccountsOpts{Commitment: rpc.CommitmentConfirmed},
	)
	if err != nil {
		return nil, err
	}

	balance := &Balance{NativeBalance: big.NewInt(0), TokenBalance: big.NewInt(0)}
	if len(accounts.Value) > 0 && accounts.Value[0] != nil {
		balance.NativeBalance = new(big.Int).SetUint64(accounts.Value[0].Lamports)
	}
	if len(accounts.Value) > 1 && accounts.Value[1] != nil {
		var tokenAccount token.Account
		if err := tokenAccount.UnmarshalWithDecoder(bin.NewBinDecoder(accounts.Value[1].Data.GetBinary())); err != nil {
			return nil, err
		}
		balance.TokenBalance = new(big.Int).SetUint64(tokenAccount.Amount)
	}
	return balance, nil
}
