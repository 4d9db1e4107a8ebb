package roundtrip

import (
	"github.com/gagliardetto/solana-go"
	"github.com/meme-bots/go-roundtrip/sol/raydium"
)

// AccountCount is the number of accounts the round-trip program expects.
const AccountCount = 19

// NewAtomicRoundTripInstruction calls the round-trip program, which performs
// both swaps by CPI into the AMM.
func NewAtomicRoundTripInstruction(
	programID solana.PublicKey,
	keys *raydium.PoolKeys,
	userSource, userDest, owner solana.PublicKey,
	args Args,
) (solana.Instruction, error) {
	if err := args.Validate(); err != nil {
		return nil, err
	}
	data, err := args.Encode()
	if err != nil {
		return nil, err
	}

	return &solana.GenericInstruction{
		ProgID: programID,
		AccountValues: solana.AccountMetaSlice{
			{PublicKey: keys.ProgramID, IsSigner: false, IsWritable: false},
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
			{PublicKey: userSource, IsSigner: false, IsWritable: true},
			{PublicKey: userDest, IsSigner: false, IsWritable: true},
			{PublicKey: owner, IsSigner: true, IsWritable: true},
			{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		},
		DataBytes: data,
	}, nil
}
