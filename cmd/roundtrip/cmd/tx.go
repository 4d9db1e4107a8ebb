package cmd

import (
	"fmt"

	"github.com/gagliardetto/treeout"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/meme-bots/go-roundtrip/utils"
	"github.com/spf13/cobra"
)

var txCmd = &cobra.Command{
	Use:   "tx <signature>",
	Short: "Inspect a transaction",
	Long:  `Fetch a transaction and print its fee, status, compute units, balance changes, instructions and logs.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := newSolana(false)
		if err != nil {
			return err
		}
		report, err := n.InspectTransaction(commandContext(cmd), args[0])
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(report)
		}

		showLogs, _ := cmd.Flags().GetBool("logs")
		fmt.Print(renderReport(report, showLogs))
		return nil
	},
}

func renderReport(r *types.TransactionReport, showLogs bool) string {
	status := "success"
	if !r.Success {
		status = "failed: " + r.Error
	}
	tree := treeout.New(fmt.Sprintf("transaction %s", r.Signature))
	tree.Child(fmt.Sprintf("status: %s", status))
	tree.Child(fmt.Sprintf("slot: %d", r.Slot))
	if r.BlockTime != nil {
		tree.Child(fmt.Sprintf("time: %s", r.BlockTime.UTC().Format("2006-01-02 15:04:05 MST")))
	}
	tree.Child(fmt.Sprintf("fee: %s", utils.FormatLamports(r.Fee)))
	if r.ComputeUnits != nil {
		tree.Child(fmt.Sprintf("compute units: %d", *r.ComputeUnits))
	}

	sol := tree.Child(fmt.Sprintf("SOL balance changes (%d)", len(r.BalanceChanges)))
	for _, c := range r.BalanceChanges {
		sol.Child(fmt.Sprintf("%s %s", c.Account, utils.FormatSignedLamports(c.Delta)))
	}
	tokens := tree.Child(fmt.Sprintf("token balance changes (%d)", len(r.TokenBalanceChanges)))
	for _, c := range r.TokenBalanceChanges {
		tokens.Child(fmt.Sprintf("%s mint=%s owner=%s %s", c.Account, c.Mint, c.Owner, c.Delta.String()))
	}

	ixs := tree.Child(fmt.Sprintf("instructions (%d)", len(r.Instructions)))
	for _, ix := range r.Instructions {
		branch := ixs.Child(fmt.Sprintf("#%d %s accounts=%d inner=%d", ix.Index, ix.ProgramID, ix.Accounts, ix.Inner))
		branch.Child("data: " + ix.Data)
		if ix.Swap != nil {
			branch.Child(fmt.Sprintf("raydium swap: in=%d out=%d", ix.Swap.AmountIn, ix.Swap.AmountOut))
		}
	}

	if showLogs {
		logs := tree.Child(fmt.Sprintf("logs (%d)", len(r.Logs)))
		for _, l := range r.Logs {
			logs.Child(l)
		}
	}
	tree.Child("explorer: " + r.ExplorerURL)
	tree.Child("solscan: " + r.SolscanURL)
	return tree.String()
}

func init() {
	txCmd.Flags().Bool("logs", true, "print program logs")
	rootCmd.AddCommand(txCmd)
}
