package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/meme-bots/go-roundtrip/config"
	"github.com/meme-bots/go-roundtrip/logger"
	"github.com/meme-bots/go-roundtrip/sol"
	"github.com/meme-bots/go-roundtrip/utils"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	v       = viper.New()
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "roundtrip",
	Short: "Raydium round-trip swap toolkit",
	Long: `roundtrip builds atomic buy-then-sell transactions against Raydium AMM v4 pools.

It provides commands for:
- Transaction inspection
- Pool decoding, lookup and probing
- Round-trip quotes, simulation and submission
- A sequential volume bot
- Wallet and test token utilities`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		return logger.Init(cfg.Log.ToLogOption())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.roundtrip.yaml)")
	rootCmd.PersistentFlags().String("rpc", "", "Solana RPC endpoint")
	rootCmd.PersistentFlags().String("ws", "", "Solana websocket endpoint")
	rootCmd.PersistentFlags().String("cluster", "", "explorer cluster (mainnet-beta, devnet, testnet, custom)")
	rootCmd.PersistentFlags().String("log-level", "", "log level")
	rootCmd.PersistentFlags().String("log-format", "", "log format (console, json)")
	rootCmd.PersistentFlags().Bool("json", false, "print results as JSON")

	bindFlags(rootCmd, map[string]string{
		"network.rpc":     "rpc",
		"network.ws_rpc":  "ws",
		"network.cluster": "cluster",
		"log.level":       "log-level",
		"log.format":      "log-format",
		"output.json":     "json",
	}, true)
}

func bindFlags(cmd *cobra.Command, keys map[string]string, persistent bool) {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding flag: %v\n", err)
		}
	}
}

// newSolana connects the network client. A wallet is loaded when configured
// and required only when needWallet is set.
func newSolana(needWallet bool) (*sol.Solana, error) {
	var opts []sol.Option
	wallet, err := sol.LoadWallet(cfg.Wallet.PrivateKey, cfg.Wallet.KeypairPath)
	switch {
	case err == nil:
		opts = append(opts, sol.WithWallet(wallet))
	case needWallet:
		return nil, err
	}
	return sol.NewSolana(&cfg.Network, opts...)
}

func printJSON(val interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(val)
}

func jsonOutput() bool {
	return v.GetBool("output.json")
}

// parseSol converts a decimal SOL amount into lamports.
func parseSol(text string) (uint64, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, fmt.Errorf("invalid SOL amount %q: %w", text, err)
	}
	lamports, err := utils.FromUiAmount(d, 9)
	if err != nil {
		return 0, err
	}
	if lamports == 0 {
		return 0, fmt.Errorf("amount %s SOL is below one lamport", text)
	}
	return lamports, nil
}

func parsePublicKey(text string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(text)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid address %q: %w", text, err)
	}
	return key, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
