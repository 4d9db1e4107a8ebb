package common

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/meme-bots/go-roundtrip/utils"
	"github.com/near/borsh-go"
)

// Metadata account key for a v1 token metadata record.
const metadataKeyV1 = 4

// TokenMetadata is the leading part of a Metaplex metadata account. The
// optional trailer (editions, collections, uses) is never read.
type TokenMetadata struct {
	Key             uint8
	UpdateAuthority solana.PublicKey
	Mint            solana.PublicKey
	Name            string
	Symbol          string
	Uri             string
	SellerFeeBps    uint16
}

// DecodeTokenMetadata reads a metadata account and strips the NUL padding
// Metaplex stores in its fixed-width strings.
func DecodeTokenMetadata(data []byte) (*TokenMetadata, error) {
	var m TokenMetadata
	if err := borsh.Deserialize(&m, data); err != nil {
		return nil, err
	}
	if m.Key != metadataKeyV1 {
		return nil, fmt.Errorf("unexpected metadata key %d", m.Key)
	}
	m.Name = utils.TrimSpace(m.Name)
	m.Symbol = utils.TrimSpace(m.Symbol)
	m.Uri = utils.TrimSpace(m.Uri)
	return &m, nil
}
