package raydium

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/near/borsh-go"
)

const MarketSize = 388

var (
	OpenBookProgramID = solana.MPK("srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX")
	SerumProgramID    = solana.MPK("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")
)

// Market is the OpenBook/Serum market state v3 including its 5 byte head and
// 7 byte tail padding.
type Market struct {
	X [5]uint8
	Y [8]uint8

	OwnerAddress     solana.PublicKey
	VaultSignerNonce uint64

	BaseMint  solana.PublicKey
	QuoteMint solana.PublicKey

	BaseVault         solana.PublicKey
	BaseDepositsTotal uint64
	BaseFeesAccrued   uint64

	QuoteVault         solana.PublicKey
	QuoteDepositsTotal uint64
	QuoteFeesAccrued   uint64

	QuoteDustThreshold uint64

	RequestQueue solana.PublicKey
	EventQueue   solana.PublicKey

	Bids solana.PublicKey
	Asks solana.PublicKey

	BaseLotSize  uint64
	QuoteLotSize uint64

	FeeRateBps uint64

	ReferrerRebatesAccrued uint64

	Z [7]uint8
}

func MarketDeserialize(data []byte) (Market, error) {
	var market Market
	if len(data) < MarketSize {
		return market, fmt.Errorf("%w: market data is %d bytes, want %d", types.ErrInvalidPool, len(data), MarketSize)
	}
	err := borsh.Deserialize(&market, data[:MarketSize])
	return market, err
}

// FindAmmAuthority derives the pool authority PDA of an AMM v4 deployment.
func FindAmmAuthority(programID solana.PublicKey) (solana.PublicKey, error) {
	authority, _, err := solana.FindProgramAddress([][]byte{[]byte("amm authority")}, programID)
	return authority, err
}

func FindVaultSigner(nonce uint64, marketID, marketProgramID solana.PublicKey) (solana.PublicKey, error) {
	seed := make([]byte, 8)
	binary.LittleEndian.PutUint64(seed, nonce)

	return solana.CreateProgramAddress(
		[][]byte{marketID.Bytes(), seed},
		marketProgramID,
	)
}

func findAssociated(programID, market solana.PublicKey, seed string) (solana.PublicKey, error) {
	key, _, err := solana.FindProgramAddress(
		[][]byte{
			programID.Bytes(),
			market.Bytes(),
			[]byte(seed),
		},
		programID,
	)
	return key, err
}

// FindAmmId derives the pool address that the permissioned creation path
// assigns to a market.
func FindAmmId(programID, market solana.PublicKey) (solana.PublicKey, error) {
	return findAssociated(programID, market, "amm_associated_seed")
}
