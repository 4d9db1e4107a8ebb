// Package roundtrip builds atomic buy-then-sell transactions against a
// Raydium AMM v4 pool, either as two direct swaps or through the round-trip
// program.
package roundtrip

import (
	"fmt"

	"github.com/meme-bots/go-roundtrip/amm"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/near/borsh-go"
)

// ArgsSize is the encoded payload size. The program has no discriminator.
const ArgsSize = 24

type Args struct {
	AmountIn             uint64
	MinimumAmountOutBuy  uint64
	MinimumAmountOutSell uint64
}

func (a Args) Validate() error {
	if a.AmountIn == 0 {
		return types.ErrInvalidAmount
	}
	if a.MinimumAmountOutBuy == 0 || a.MinimumAmountOutSell == 0 {
		return types.ErrInvalidMinimumOut
	}
	return nil
}

func (a Args) Encode() ([]byte, error) {
	return borsh.Serialize(a)
}

func DecodeArgs(data []byte) (Args, error) {
	var a Args
	if len(data) != ArgsSize {
		return a, fmt.Errorf("round trip payload is %d bytes, want %d", len(data), ArgsSize)
	}
	err := borsh.Deserialize(&a, data)
	return a, err
}

// ArgsFromQuote derives minimum outputs from a quote. The sell leg spends the
// buy minimum, so its expected output is requoted for that smaller input.
func ArgsFromQuote(amountIn uint64, reserveSol, reserveToken uint64, fee amm.Fee, slippageBps uint64) (Args, amm.RoundTripQuote, error) {
	q, err := amm.RoundTrip(amountIn, reserveSol, reserveToken, fee)
	if err != nil {
		return Args{}, q, err
	}

	minBuy, err := amm.MinimumOut(q.Buy.AmountOut, slippageBps)
	if err != nil {
		return Args{}, q, err
	}

	sellExpected := q.Sell.AmountOut
	if minBuy > 0 && minBuy != q.Buy.AmountOut {
		if sell, err := amm.SwapBaseIn(minBuy, q.Buy.NewReserveOut, q.Buy.NewReserveIn, fee); err == nil {
			sellExpected = sell.AmountOut
		}
	}
	minSell, err := amm.MinimumOut(sellExpected, slippageBps)
	if err != nil {
		return Args{}, q, err
	}

	args := Args{AmountIn: amountIn, MinimumAmountOutBuy: minBuy, MinimumAmountOutSell: minSell}
	return args, q, args.Validate()
}
