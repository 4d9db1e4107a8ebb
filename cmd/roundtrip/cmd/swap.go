package cmd

import (
	"fmt"

	"github.com/meme-bots/go-roundtrip/types"
	"github.com/meme-bots/go-roundtrip/utils"
	"github.com/spf13/cobra"
)

var swapCmd = &cobra.Command{
	Use:   "swap <pool>",
	Short: "Build, simulate or send one round trip",
	Long: `Buy the pool token with SOL and sell it back in a single atomic transaction.

Modes:
  direct   two Raydium SwapBaseIn instructions in one transaction
  program  one instruction to the atomic round-trip program

A failed simulation is printed with its logs and the command still succeeds.`,
	Args: cobra.MaximumNArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, map[string]string{
			"bot.mode":         "mode",
			"bot.slippage_bps": "slippage-bps",
		}, false)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		pool := v.GetString("bot.pool")
		if len(args) == 1 {
			pool = args[0]
		}
		if pool == "" {
			return fmt.Errorf("pool address required")
		}

		amountText, _ := cmd.Flags().GetString("amount")
		amount, err := parseSol(amountText)
		if err != nil {
			return err
		}
		minBuy, _ := cmd.Flags().GetUint64("min-buy")
		minSell, _ := cmd.Flags().GetUint64("min-sell")
		simulate, _ := cmd.Flags().GetBool("simulate")
		planOnly, _ := cmd.Flags().GetBool("plan")

		req := &types.RoundTripRequest{
			Pool:           pool,
			Mode:           types.RoundTripMode(v.GetString("bot.mode")),
			AmountIn:       amount,
			SlippageBps:    v.GetUint64("bot.slippage_bps"),
			Simulate:       simulate,
			MinimumOutBuy:  minBuy,
			MinimumOutSell: minSell,
		}

		n, err := newSolana(true)
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)

		if planOnly {
			prep, err := n.PrepareRoundTrip(ctx, req)
			if err != nil {
				return err
			}
			fmt.Print(prep.Plan.Render())
			return nil
		}

		if err := n.Start(); err != nil {
			return err
		}
		defer n.Close()

		resp, err := n.RoundTrip(ctx, req)
		if resp != nil {
			if jsonOutput() {
				if perr := printJSON(resp); perr != nil {
					return perr
				}
			} else {
				printRoundTrip(resp)
			}
		}
		return err
	},
}

func printRoundTrip(r *types.RoundTripResponse) {
	verb := "Sent"
	if r.Simulated {
		verb = "Simulated"
	}
	status := "success"
	if !r.Success {
		status = "FAILED"
	}
	fmt.Printf("%s %s round trip: %s\n", verb, r.Mode, status)
	fmt.Printf("  amount in:      %s\n", utils.FormatLamports(r.AmountIn))
	fmt.Printf("  min out buy:    %d\n", r.MinimumOutBuy)
	fmt.Printf("  min out sell:   %d\n", r.MinimumOutSell)
	if r.ExpectedOut != 0 {
		fmt.Printf("  expected out:   %s\n", utils.FormatLamports(r.ExpectedOut))
	}
	if r.UnitsConsumed != 0 {
		fmt.Printf("  compute units:  %d\n", r.UnitsConsumed)
	}
	fmt.Printf("  signature:      %s\n", r.TxHash)
	if r.ExplorerURL != "" {
		fmt.Printf("  explorer:       %s\n", r.ExplorerURL)
	}
	if r.Error != "" {
		fmt.Printf("  error:          %s\n", r.Error)
	}
	if len(r.Logs) > 0 {
		fmt.Println("  logs:")
		for _, l := range r.Logs {
			fmt.Printf("    %s\n", l)
		}
	}
}

func init() {
	swapCmd.Flags().String("amount", "0.01", "SOL amount in")
	swapCmd.Flags().String("mode", string(types.RoundTripDirect), "round trip mode (direct, program)")
	swapCmd.Flags().Uint64("slippage-bps", types.DefaultSlippageBps, "slippage tolerance in basis points")
	swapCmd.Flags().Uint64("min-buy", 0, "minimum token out of the buy leg (0 derives it from the reserves)")
	swapCmd.Flags().Uint64("min-sell", 0, "minimum SOL out of the sell leg (0 derives it from the reserves)")
	swapCmd.Flags().Bool("simulate", false, "simulate instead of sending")
	swapCmd.Flags().Bool("plan", false, "print the instruction plan and exit")
	rootCmd.AddCommand(swapCmd)
}
