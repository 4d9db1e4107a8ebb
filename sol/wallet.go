package sol

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/meme-bots/go-roundtrip/utils"
)

// LoadWallet resolves the signing key from a base58 private key or, when that
// is empty, from a Solana CLI keypair file.
func LoadWallet(privateKey, keypairPath string) (solana.PrivateKey, error) {
	privateKey = utils.TrimSpace(privateKey)
	if privateKey != "" {
		pk, err := solana.PrivateKeyFromBase58(privateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		return pk, nil
	}
	if keypairPath != "" {
		return WalletFromFile(keypairPath)
	}
	return nil, types.ErrMissingWallet
}

// WalletFromFile reads a JSON keypair file (Solana CLI format).
func WalletFromFile(path string) (solana.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keypair file: %w", err)
	}

	var keypair []byte
	if err := json.Unmarshal(data, &keypair); err != nil {
		return nil, fmt.Errorf("failed to parse keypair: %w", err)
	}
	if len(keypair) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid keypair size: expected %d, got %d", ed25519.PrivateKeySize, len(keypair))
	}
	return solana.PrivateKey(keypair), nil
}

// SaveWallet writes the keypair in Solana CLI format.
func SaveWallet(pk solana.PrivateKey, path string) error {
	data, err := json.Marshal([]byte(pk))
	if err != nil {
		return fmt.Errorf("failed to marshal keypair: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write keypair file: %w", err)
	}
	return nil
}
