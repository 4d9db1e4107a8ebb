package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meme-bots/go-roundtrip/ledger"
	"github.com/meme-bots/go-roundtrip/logger"
	"github.com/meme-bots/go-roundtrip/sol/volume"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var botCmd = &cobra.Command{
	Use:   "bot [pool]",
	Short: "Run round trips back to back",
	Long: `Run a fixed number of round trips against one pool, one at a time with a fixed delay
between attempts, then print a success summary. Ctrl-C stops the run after the current attempt.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pool := v.GetString("bot.pool")
		if len(args) == 1 {
			pool = args[0]
		}
		if pool == "" {
			return fmt.Errorf("pool address required")
		}
		amount, err := parseSol(decimal.NewFromFloat(v.GetFloat64("bot.amount_sol")).String())
		if err != nil {
			return err
		}
		simulate, _ := cmd.Flags().GetBool("simulate")

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		n, err := newSolana(true)
		if err != nil {
			return err
		}
		if err := n.Start(); err != nil {
			return err
		}
		defer n.Close()

		store, err := ledger.New(ctx, ledgerOptions())
		if err != nil {
			return err
		}
		defer store.Close()

		fmt.Printf("Starting volume bot\n")
		fmt.Printf("  Pool:   %s\n", pool)
		fmt.Printf("  Amount: %s SOL\n", decimal.NewFromFloat(v.GetFloat64("bot.amount_sol")))
		fmt.Printf("  Swaps:  %d\n", v.GetInt("bot.count"))
		fmt.Printf("  Wallet: %s\n", n.Wallet())

		sum, err := volume.NewBot(n, volume.WithLedger(store)).Run(ctx, volume.Options{
			Pool:        pool,
			Mode:        types.RoundTripMode(v.GetString("bot.mode")),
			AmountIn:    amount,
			SlippageBps: v.GetUint64("bot.slippage_bps"),
			Count:       v.GetInt("bot.count"),
			Delay:       time.Duration(v.GetInt("bot.delay_ms")) * time.Millisecond,
			Simulate:    simulate,
		})
		if err != nil {
			return err
		}

		if jsonOutput() {
			return printJSON(sum)
		}
		for _, a := range sum.Attempts {
			status := "ok"
			if !a.Success {
				status = "failed: " + a.Error
			}
			fmt.Printf("  #%d %s %s (%s)\n", a.Index+1, a.Signature, status, a.Elapsed.Round(time.Millisecond))
		}
		fmt.Print(sum.String())
		return nil
	},
}

var botHistoryCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded bot attempts",
	Args:  cobra.MaximumNArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		bindLedgerFlags()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		opt := ledgerOptions()
		store, err := ledger.New(ctx, opt)
		if err != nil {
			return err
		}
		defer store.Close()

		var entries []*ledger.Entry
		if len(args) == 1 {
			entries, err = store.Run(ctx, args[0])
		} else {
			limit, _ := cmd.Flags().GetInt("limit")
			entries, err = store.Recent(ctx, limit)
		}
		if err != nil {
			return err
		}
		if opt.Driver == "" || opt.Driver == ledger.DriverMemory {
			logger.Warnf("[Ledger] memory ledger only holds attempts of the current process")
		}
		if jsonOutput() {
			return printJSON(entries)
		}
		for _, e := range entries {
			fmt.Printf("%s %s #%d %s success=%v %s\n", e.Time.Format(time.RFC3339), e.RunID, e.Index+1, e.Signature, e.Success, e.Error)
		}
		return nil
	},
}

// bindLedgerFlags binds the ledger flags shared by bot and its subcommands.
func bindLedgerFlags() {
	bindFlags(botCmd, map[string]string{
		"ledger.driver":     "ledger",
		"ledger.redis_addr": "redis-addr",
	}, true)
}

// ledgerOptions applies flag and env overrides on top of the loaded config.
func ledgerOptions() ledger.Options {
	opt := cfg.Ledger.ToOptions()
	opt.Driver = v.GetString("ledger.driver")
	opt.Addr = v.GetString("ledger.redis_addr")
	return opt
}

func init() {
	// Assigned here rather than in the literal: bindLedgerFlags refers to botCmd.
	botCmd.PreRun = func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, map[string]string{
			"bot.mode":         "mode",
			"bot.count":        "count",
			"bot.delay_ms":     "delay-ms",
			"bot.amount_sol":   "amount",
			"bot.slippage_bps": "slippage-bps",
		}, false)
		bindLedgerFlags()
	}
	botCmd.Flags().String("mode", string(types.RoundTripDirect), "round trip mode (direct, program)")
	botCmd.Flags().Int("count", 3, "number of round trips")
	botCmd.Flags().Int("delay-ms", 2000, "delay between round trips in milliseconds")
	botCmd.Flags().Float64("amount", 0.01, "SOL amount per round trip")
	botCmd.Flags().Uint64("slippage-bps", types.DefaultSlippageBps, "slippage tolerance in basis points")
	botCmd.Flags().Bool("simulate", false, "simulate each round trip instead of sending")
	botCmd.PersistentFlags().String("ledger", ledger.DriverMemory, "attempt ledger (memory, redis)")
	botCmd.PersistentFlags().String("redis-addr", "localhost:6379", "redis address for the redis ledger")

	botHistoryCmd.Flags().Int("limit", 20, "number of entries")

	rootCmd.AddCommand(botCmd)
	botCmd.AddCommand(botHistoryCmd)
}
