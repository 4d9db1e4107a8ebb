package raydium

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/meme-bots/go-roundtrip/sol/common"
)

// CreateAndInitWsolTokenAccount funds a throwaway WSOL account derived from
// the wallet with a random seed.
func CreateAndInitWsolTokenAccount(wallet solana.PublicKey, amount uint64) ([]solana.Instruction, solana.PublicKey) {
	randomKey, _ := solana.NewRandomPrivateKey()
	seed := randomKey.PublicKey().String()[0:32]
	return CreateAndInitWsolTokenAccountWithSeed(wallet, seed, amount)
}

func CreateAndInitWsolTokenAccountWithSeed(wallet solana.PublicKey, seed string, amount uint64) ([]solana.Instruction, solana.PublicKey) {
	wsolTokenAccount, _ := solana.CreateWithSeed(wallet, seed, solana.TokenProgramID)
	createWithSeedInst := system.NewCreateAccountWithSeedInstruction(
		wallet,
		seed,
		common.RentATA+amount,
		common.TokenAccountSize,
		solana.TokenProgramID,
		wallet,
		wsolTokenAccount,
		wallet,
	).Build()

	initializeAccountInst := token.NewInitializeAccountInstruction(
		wsolTokenAccount,
		solana.SolMint,
		wallet,
		solana.SysVarRentPubkey,
	).Build()
	return []solana.Instruction{createWithSeedInst, initializeAccountInst}, wsolTokenAccount
}

func CloseAccountInstruction(account, owner solana.PublicKey) solana.Instruction {
	return token.NewCloseAccountInstruction(
		account,
		owner,
		owner,
		[]solana.PublicKey{},
	).Build()
}

// ParseSwapInstruction reads the two inner SPL token transfers of a swap: the
// user paying in, then the pool paying out.
func ParseSwapInstruction(meta *rpc.TransactionMeta, instructionIndex uint16) (amountIn, amountOut uint64, ok bool) {
	if meta == nil {
		return 0, 0, false
	}
	for _, inner := range meta.InnerInstructions {
		if inner.Index != instructionIndex {
			continue
		}
		var amounts []uint64
		for _, ix := range inner.Instructions {
			if v, isTransfer := TransferAmount(ix.Data); isTransfer {
				amounts = append(amounts, v)
			}
		}
		if len(amounts) < 2 {
			return 0, 0, false
		}
		return amounts[0], amounts[len(amounts)-1], true
	}
	return 0, 0, false
}

// TransferAmount decodes SPL token Transfer and TransferChecked data.
func TransferAmount(data []byte) (uint64, bool) {
	switch {
	case len(data) == 9 && data[0] == token.Instruction_Transfer:
		return binary.LittleEndian.Uint64(data[1:]), true
	case len(data) == 10 && data[0] == token.Instruction_TransferChecked:
		return binary.LittleEndian.Uint64(data[1:9]), true
	}
	return 0, false
}
