package roundtrip

import (
	"github.com/gagliardetto/solana-go"
	"github.com/meme-bots/go-roundtrip/sol"
	"github.com/meme-bots/go-roundtrip/types"
)

// NewNetwork returns the network client for cfg.Type. The wallet may be nil
// for read-only use.
func NewNetwork(cfg types.Config, wallet solana.PrivateKey) (types.NetworkInterface, error) {
	if cfg.Type == types.NetworkTypeSol {
		var opts []sol.Option
		if wallet != nil {
			opts = append(opts, sol.WithWallet(wallet))
		}
		return sol.NewSolana(&cfg, opts...)
	}
	return nil, types.ErrNotImplemented
}
