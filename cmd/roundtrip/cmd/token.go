package cmd

import (
	"fmt"

	"github.com/meme-bots/go-roundtrip/sol"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Test token commands",
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a test token",
	Long:  `Create a mint owned by the wallet, its associated token account, and mint the full supply into it. Needs at least 0.05 SOL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		decimals, _ := cmd.Flags().GetUint8("decimals")
		supply, _ := cmd.Flags().GetUint64("supply")

		n, err := newSolana(true)
		if err != nil {
			return err
		}
		fmt.Printf("Creating %s token...\n", name)
		resp, err := n.CreateToken(commandContext(cmd), &types.CreateTokenRequest{Name: name, Decimals: decimals, Supply: supply})
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", name, err)
		}
		if jsonOutput() {
			return printJSON(resp)
		}

		fmt.Printf("%s created successfully!\n", resp.Name)
		fmt.Printf("   Mint:          %s\n", resp.Mint)
		fmt.Printf("   Token Account: %s\n", resp.TokenAccount)
		fmt.Printf("   Supply:        %d\n", resp.Supply)
		fmt.Printf("   Transaction:   %s\n", resp.TxHash)
		fmt.Printf("   Explorer:      %s\n", resp.ExplorerURL)
		return nil
	},
}

func init() {
	tokenCreateCmd.Flags().String("name", "TEST", "token name (display only)")
	tokenCreateCmd.Flags().Uint8("decimals", sol.DefaultTokenDecimals, "mint decimals")
	tokenCreateCmd.Flags().Uint64("supply", 1_000_000, "supply in whole tokens")

	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenCreateCmd)
}
