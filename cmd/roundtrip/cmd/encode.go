package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/meme-bots/go-roundtrip/sol/roundtrip"
	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode or decode the round-trip program payload",
	Long: `Encode {amount_in, minimum_amount_out_buy, minimum_amount_out_sell} into the 24 byte
instruction payload, or decode a payload given as hex or base58 with --decode.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if text, _ := cmd.Flags().GetString("decode"); text != "" {
			data, err := decodePayload(text)
			if err != nil {
				return err
			}
			a, err := roundtrip.DecodeArgs(data)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return printJSON(a)
			}
			fmt.Printf("amount_in:               %d\n", a.AmountIn)
			fmt.Printf("minimum_amount_out_buy:  %d\n", a.MinimumAmountOutBuy)
			fmt.Printf("minimum_amount_out_sell: %d\n", a.MinimumAmountOutSell)
			if err := a.Validate(); err != nil {
				fmt.Printf("warning: %v\n", err)
			}
			return nil
		}

		var a roundtrip.Args
		a.AmountIn, _ = cmd.Flags().GetUint64("amount-in")
		a.MinimumAmountOutBuy, _ = cmd.Flags().GetUint64("min-buy")
		a.MinimumAmountOutSell, _ = cmd.Flags().GetUint64("min-sell")
		if err := a.Validate(); err != nil {
			return err
		}
		data, err := a.Encode()
		if err != nil {
			return err
		}
		fmt.Printf("hex:    %s\n", hex.EncodeToString(data))
		fmt.Printf("base58: %s\n", base58.Encode(data))
		return nil
	},
}

func decodePayload(text string) ([]byte, error) {
	text = strings.TrimPrefix(strings.TrimSpace(text), "0x")
	if data, err := hex.DecodeString(text); err == nil && len(data) == roundtrip.ArgsSize {
		return data, nil
	}
	data, err := base58.Decode(text)
	if err != nil {
		return nil, fmt.Errorf("payload is neither %d byte hex nor base58: %w", roundtrip.ArgsSize, err)
	}
	return data, nil
}

func init() {
	encodeCmd.Flags().Uint64("amount-in", 0, "lamports in")
	encodeCmd.Flags().Uint64("min-buy", 0, "minimum token out of the buy")
	encodeCmd.Flags().Uint64("min-sell", 0, "minimum lamports out of the sell")
	encodeCmd.Flags().String("decode", "", "payload to decode (hex or base58)")
	rootCmd.AddCommand(encodeCmd)
}
