package cmd

import (
	"fmt"

	"github.com/meme-bots/go-roundtrip/sol/jupiter"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/meme-bots/go-roundtrip/utils"
	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <pool>",
	Short: "Quote a SOL -> token -> SOL round trip",
	Long:  `Quote a round trip from the pool reserves with constant-product math and the pool fee. With --jupiter an aggregator quote is fetched too.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amountText, _ := cmd.Flags().GetString("amount")
		amount, err := parseSol(amountText)
		if err != nil {
			return err
		}
		bps, _ := cmd.Flags().GetUint64("slippage-bps")

		n, err := newSolana(false)
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)

		resp, err := n.QuoteRoundTrip(ctx, &types.QuoteRoundTripRequest{Pool: args[0], AmountIn: amount, SlippageBps: bps})
		if err != nil {
			return err
		}

		withJupiter, _ := cmd.Flags().GetBool("jupiter")
		var jup *jupiter.RoundTrip
		if withJupiter {
			rt, err := n.JupiterQuote(ctx, resp.Pool.TokenMint, amount, bps)
			if err != nil {
				fmt.Printf("jupiter quote failed: %v\n", err)
			} else {
				jup = rt
			}
		}

		if jsonOutput() {
			return printJSON(map[string]interface{}{"pool": resp, "jupiter": jup})
		}

		q := resp.Quote
		solDecimals, tokenDecimals := resp.Pool.QuoteDecimal, resp.Pool.BaseDecimal
		if !resp.TokenIsBase {
			solDecimals, tokenDecimals = tokenDecimals, solDecimals
		}

		fmt.Printf("Pool %s (token %s)\n", resp.Pool.AmmPublicKey, resp.Pool.TokenMint)
		fmt.Printf("Buy:   %s SOL -> %s token (fee %d, impact %s%%)\n",
			utils.ToUiAmount(q.Buy.AmountIn, solDecimals), utils.ToUiAmount(q.Buy.AmountOut, tokenDecimals), q.Buy.Fee, q.Buy.PriceImpact.StringFixed(4))
		fmt.Printf("Sell:  %s token -> %s SOL (fee %d, impact %s%%)\n",
			utils.ToUiAmount(q.Sell.AmountIn, tokenDecimals), utils.ToUiAmount(q.Sell.AmountOut, solDecimals), q.Sell.Fee, q.Sell.PriceImpact.StringFixed(4))
		fmt.Printf("Loss:  %s (%s bps)\n", utils.FormatLamports(q.Loss), q.LossBps.StringFixed(2))
		fmt.Printf("Min out: buy %d, sell %d\n", resp.MinimumOutBuy, resp.MinimumOutSell)
		if jup != nil {
			fmt.Printf("Jupiter: buy via %v, sell via %v, loss %s\n",
				jup.Buy.Labels(), jup.Sell.Labels(), utils.FormatSignedLamports(-jup.Loss))
		}
		return nil
	},
}

func init() {
	quoteCmd.Flags().String("amount", "0.01", "SOL amount in")
	quoteCmd.Flags().Uint64("slippage-bps", types.DefaultSlippageBps, "slippage tolerance in basis points")
	quoteCmd.Flags().Bool("jupiter", false, "also quote through Jupiter")
	rootCmd.AddCommand(quoteCmd)
}
