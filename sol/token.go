package sol

import (
	"context"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/meme-bots/go-roundtrip/logger"
	"github.com/meme-bots/go-roundtrip/sol/common"
	"github.com/meme-bots/go-roundtrip/types"
)

const (
	MinTokenCreationBalance = 50_000_000 // 0.05 SOL
	DefaultTokenDecimals    = 9
)

// CreateTokenInstructions creates a mint owned by payer, its associated token
// account, and mints supply (raw units) into it.
func CreateTokenInstructions(payer, mint solana.PublicKey, decimals uint8, supply, mintRent uint64) ([]solana.Instruction, solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(payer, mint)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}

	return []solana.Instruction{
		system.NewCreateAccountInstruction(mintRent, common.MintAccountSize, solana.TokenProgramID, payer, mint).Build(),
		token.NewInitializeMintInstruction(decimals, payer, payer, mint, solana.SysVarRentPubkey).Build(),
		associatedtokenaccount.NewCreateInstruction(payer, payer, mint).Build(),
		token.NewMintToInstruction(supply, mint, ata, payer, nil).Build(),
	}, ata, nil
}

// RawSupply scales a whole-token supply by the mint decimals.
func RawSupply(supply uint64, decimals uint8) (uint64, error) {
	raw := new(big.Int).Mul(new(big.Int).SetUint64(supply), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	if !raw.IsUint64() {
		return 0, fmt.Errorf("supply %d with %d decimals overflows u64", supply, decimals)
	}
	return raw.Uint64(), nil
}

func (s *Solana) CreateToken(ctx context.Context, req *types.CreateTokenRequest) (*types.CreateTokenResponse, error) {
	if s.wallet == nil {
		return nil, types.ErrMissingWallet
	}
	if req.Supply == 0 {
		return nil, types.ErrInvalidAmount
	}
	payer := s.wallet.PublicKey()

	balance, err := s.client.GetBalance(ctx, payer, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, err
	}
	if balance.Value < MinTokenCreationBalance {
		return nil, fmt.Errorf("%w: need at least 0.05 SOL, have %d lamports", types.ErrInsufficientBalance, balance.Value)
	}

	rent, err := s.client.GetMinimumBalanceForRentExemption(ctx, common.MintAccountSize, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, err
	}
	raw, err := RawSupply(req.Supply, req.Decimals)
	if err != nil {
		return nil, err
	}

	mint := solana.NewWallet().PrivateKey
	ixs, ata, err := CreateTokenInstructions(payer, mint.PublicKey(), req.Decimals, raw, rent)
	if err != nil {
		return nil, err
	}

	tx, err := s.BuildTransaction(ctx, ixs, s.wallet, mint)
	if err != nil {
		return nil, err
	}
	logger.Infof("[Token] creating %s mint=%s supply=%d", req.Name, mint.PublicKey(), req.Supply)

	sig, err := s.SendAndConfirm(ctx, tx)
	if err != nil {
		return nil, err
	}

	return &types.CreateTokenResponse{
		Name:         req.Name,
		Mint:         mint.PublicKey().String(),
		TokenAccount: ata.String(),
		Decimals:     req.Decimals,
		Supply:       req.Supply,
		TxHash:       sig.String(),
		ExplorerURL:  ExplorerTxURL(sig.String(), s.cfg.Cluster, s.cfg.RPC),
	}, nil
}
