package cmd

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/meme-bots/go-roundtrip/sol"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/meme-bots/go-roundtrip/utils"
	"github.com/spf13/cobra"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Wallet management commands",
	Long:  `Commands for managing Solana wallets including generation and balance checks.`,
}

var walletNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new wallet",
	Long:  `Generate a new Solana wallet keypair.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		account := solana.NewWallet()

		if out, _ := cmd.Flags().GetString("out"); out != "" {
			if err := sol.SaveWallet(account.PrivateKey, out); err != nil {
				return err
			}
			fmt.Printf("Keypair written to %s\n", out)
		}

		fmt.Println("New wallet generated!")
		fmt.Printf("  Public Key:  %s\n", account.PublicKey().String())
		fmt.Printf("  Private Key: %s\n", account.PrivateKey.String())
		fmt.Println("\nWARNING: Save your private key securely. Never share it with anyone!")
		return nil
	},
}

var walletBalanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Check wallet balance",
	Long:  `Check the SOL balance of an address, the configured wallet by default. With --mint the token balance is printed too.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := newSolana(len(args) == 0)
		if err != nil {
			return err
		}

		address := n.Wallet().String()
		if len(args) == 1 {
			if !n.CheckAddress(args[0]) {
				return fmt.Errorf("invalid address: %s", args[0])
			}
			address = args[0]
		}
		ctx := commandContext(cmd)

		balance, err := n.GetBalance(ctx, &types.GetBalanceRequest{Address: address})
		if err != nil {
			return err
		}
		fmt.Printf("Address: %s\n", address)
		fmt.Printf("Balance: %s\n", utils.FormatLamports(balance.Uint64()))

		if mint, _ := cmd.Flags().GetString("mint"); mint != "" {
			amount, err := n.GetTokenBalance(ctx, &types.GetTokenBalanceRequest{Owner: address, Token: mint})
			if err != nil {
				return err
			}
			fmt.Printf("Token %s: %s (raw)\n", mint, amount.String())
		}
		return nil
	},
}

func init() {
	walletNewCmd.Flags().String("out", "", "write the keypair to this file (Solana CLI format)")
	walletBalanceCmd.Flags().String("mint", "", "also print the balance of this token")

	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletNewCmd)
	walletCmd.AddCommand(walletBalanceCmd)
}
