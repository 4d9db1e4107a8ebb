package cmd

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/meme-bots/go-roundtrip/sol/raydium"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/meme-bots/go-roundtrip/utils"
	"github.com/spf13/cobra"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Raydium AMM v4 pool commands",
	Long:  `Commands for decoding, finding and probing Raydium AMM v4 pools.`,
}

var poolDecodeCmd = &cobra.Command{
	Use:   "decode <pool>",
	Short: "Decode a pool account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := newSolana(false)
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)

		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			address, err := parsePublicKey(args[0])
			if err != nil {
				return err
			}
			pa, err := raydium.GetPool(ctx, n.Client(), address)
			if err != nil {
				return err
			}
			fmt.Printf("owner: %s\n", pa.ProgramID)
			spew.Dump(pa.Pool)
			return nil
		}

		info, err := n.GetPool(ctx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(info)
		}
		printPool(info)
		return nil
	},
}

var poolKeysCmd = &cobra.Command{
	Use:   "keys <pool>",
	Short: "Print the accounts a swap on the pool needs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := newSolana(false)
		if err != nil {
			return err
		}
		address, err := parsePublicKey(args[0])
		if err != nil {
			return err
		}
		keys, _, err := raydium.GetPoolKeys(commandContext(cmd), n.Client(), address)
		if err != nil {
			return err
		}
		return printJSON(keys)
	},
}

var poolFindCmd = &cobra.Command{
	Use:   "find <mint>",
	Short: "Find pools that trade a mint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := newSolana(false)
		if err != nil {
			return err
		}
		quote, _ := cmd.Flags().GetString("quote")
		pools, err := n.FindPools(commandContext(cmd), &types.FindPoolsRequest{Mint: args[0], Quote: quote})
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(pools)
		}
		fmt.Printf("Found %d pool(s) on %s\n", len(pools), n.AmmProgram())
		for _, p := range pools {
			fmt.Printf("  %s  status=%s  base=%s  quote=%s\n", p.AmmPublicKey, p.Status, p.BaseMint, p.QuoteMint)
		}
		return nil
	},
}

var poolProbeCmd = &cobra.Command{
	Use:   "probe <pool>...",
	Short: "Check candidate pool addresses",
	Long:  `Check that each address exists, is owned by a Raydium AMM program, decodes as a pool and is open for swaps.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := newSolana(false)
		if err != nil {
			return err
		}
		results, err := n.ProbePools(commandContext(cmd), args)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(results)
		}
		for _, r := range results {
			verdict := "NOT USABLE"
			if r.Tradable {
				verdict = "OK"
			}
			fmt.Printf("%s  %s\n", r.Address, verdict)
			if r.Exists {
				fmt.Printf("    owner=%s raydium=%v size=%d\n", r.Owner, r.IsRaydium, r.DataLen)
			}
			if r.Decoded {
				fmt.Printf("    status=%s base=%s quote=%s associated=%v\n", r.Status, r.BaseMint, r.QuoteMint, r.Associated)
			}
			if r.Error != "" {
				fmt.Printf("    error: %s\n", r.Error)
			}
		}
		return nil
	},
}

func printPool(p *types.PoolInfo) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Pool:          %s\n", p.AmmPublicKey)
	fmt.Fprintf(&sb, "Program:       %s\n", p.AmmProgramID)
	fmt.Fprintf(&sb, "Authority:     %s\n", p.Authority)
	fmt.Fprintf(&sb, "Status:        %s (%d)\n", p.Status, uint64(p.Status))
	fmt.Fprintf(&sb, "Base mint:     %s (%d decimals)\n", p.BaseMint, p.BaseDecimal)
	fmt.Fprintf(&sb, "Quote mint:    %s (%d decimals)\n", p.QuoteMint, p.QuoteDecimal)
	fmt.Fprintf(&sb, "Base vault:    %s\n", p.BaseVault)
	fmt.Fprintf(&sb, "Quote vault:   %s\n", p.QuoteVault)
	fmt.Fprintf(&sb, "LP mint:       %s\n", p.LpMint)
	fmt.Fprintf(&sb, "Open orders:   %s\n", p.OpenOrders)
	fmt.Fprintf(&sb, "Target orders: %s\n", p.TargetOrders)
	fmt.Fprintf(&sb, "Market:        %s (%s)\n", p.MarketPublicKey, p.MarketProgramID)
	fmt.Fprintf(&sb, "Fee:           %d/%d\n", p.FeeNumerator, p.FeeDenominator)
	if p.BaseReserve != nil && p.QuoteReserve != nil {
		fmt.Fprintf(&sb, "Reserves:      %s base / %s quote\n",
			utils.ToUiAmount(p.BaseReserve.Uint64(), p.BaseDecimal), utils.ToUiAmount(p.QuoteReserve.Uint64(), p.QuoteDecimal))
		fmt.Fprintf(&sb, "Price:         %s quote per base\n", utils.AbbreviateDecimal(p.PriceInQuote))
	}
	if p.TokenMint != "" {
		fmt.Fprintf(&sb, "Token:         %s %s (%s)\n", p.TokenMint, p.TokenSymbol, p.TokenName)
	}
	fmt.Print(sb.String())
}

func init() {
	poolDecodeCmd.Flags().Bool("raw", false, "dump every decoded layout field")
	poolFindCmd.Flags().String("quote", "", "quote mint (default WSOL)")

	rootCmd.AddCommand(poolCmd)
	poolCmd.AddCommand(poolDecodeCmd, poolKeysCmd, poolFindCmd, poolProbeCmd)
}
