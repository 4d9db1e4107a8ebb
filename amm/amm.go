// Package amm implements the constant-product math used by Raydium AMM v4
// SwapBaseIn, including the pool trade fee.
package amm

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

const BasisPoints = 10_000

var (
	ErrZeroAmount  = errors.New("amm: zero amount in")
	ErrZeroReserve = errors.New("amm: zero reserve")
	ErrInvalidFee  = errors.New("amm: invalid fee")
	ErrSlippageBps = errors.New("amm: slippage must be at most 10000 bps")
	ErrOutOfRange  = errors.New("amm: amount out of range")
	ErrNoLiquidity = errors.New("amm: output rounds to zero")
)

type Fee struct {
	Numerator   uint64
	Denominator uint64
}

// DefaultFee is the 0.25% trade fee Raydium AMM v4 pools are created with.
var DefaultFee = Fee{Numerator: 25, Denominator: 10_000}

func (f Fee) Valid() bool {
	return f.Denominator != 0 && f.Numerator < f.Denominator
}

type (
	Quote struct {
		AmountIn      uint64
		Fee           uint64
		AmountOut     uint64
		ReserveIn     uint64
		ReserveOut    uint64
		NewReserveIn  uint64
		NewReserveOut uint64
		PriceImpact   decimal.Decimal // percent
	}

	RoundTripQuote struct {
		Buy  Quote
		Sell Quote
		// Loss is AmountIn minus what the sell leg returns.
		Loss    uint64
		LossBps decimal.Decimal
	}
)

// SwapBaseIn quotes an exact-input swap. The fee is taken from the input with
// ceiling division and stays in the pool.
func SwapBaseIn(amountIn, reserveIn, reserveOut uint64, fee Fee) (Quote, error) {
	if amountIn == 0 {
		return Quote{}, ErrZeroAmount
	}
	if reserveIn == 0 || reserveOut == 0 {
		return Quote{}, ErrZeroReserve
	}
	if !fee.Valid() {
		return Quote{}, ErrInvalidFee
	}

	in := new(big.Int).SetUint64(amountIn)
	feeAmount := ceilDiv(new(big.Int).Mul(in, new(big.Int).SetUint64(fee.Numerator)), new(big.Int).SetUint64(fee.Denominator))
	inAfterFee := new(big.Int).Sub(in, feeAmount)

	rIn := new(big.Int).SetUint64(reserveIn)
	rOut := new(big.Int).SetUint64(reserveOut)
	out := new(big.Int).Div(
		new(big.Int).Mul(rOut, inAfterFee),
		new(big.Int).Add(rIn, inAfterFee),
	)
	if out.Sign() == 0 {
		return Quote{}, ErrNoLiquidity
	}

	newIn := new(big.Int).Add(rIn, in)
	if !newIn.IsUint64() {
		return Quote{}, ErrOutOfRange
	}

	q := Quote{
		AmountIn:      amountIn,
		Fee:           feeAmount.Uint64(),
		AmountOut:     out.Uint64(),
		ReserveIn:     reserveIn,
		ReserveOut:    reserveOut,
		NewReserveIn:  newIn.Uint64(),
		NewReserveOut: reserveOut - out.Uint64(),
	}
	q.PriceImpact = PriceImpact(q)
	return q, nil
}

// RoundTrip quotes a buy of the token with amountIn of the quote asset,
// followed by selling everything received back into the post-buy pool.
func RoundTrip(amountIn, reserveQuote, reserveToken uint64, fee Fee) (RoundTripQuote, error) {
	buy, err := SwapBaseIn(amountIn, reserveQuote, reserveToken, fee)
	if err != nil {
		return RoundTripQuote{}, err
	}
	sell, err := SwapBaseIn(buy.AmountOut, buy.NewReserveOut, buy.NewReserveIn, fee)
	if err != nil {
		return RoundTripQuote{}, err
	}

	var loss uint64
	if sell.AmountOut < amountIn {
		loss = amountIn - sell.AmountOut
	}

	return RoundTripQuote{
		Buy:     buy,
		Sell:    sell,
		Loss:    loss,
		LossBps: decimal.NewFromUint64(loss).Mul(decimal.NewFromInt(BasisPoints)).Div(decimal.NewFromUint64(amountIn)),
	}, nil
}

// MinimumOut applies a slippage tolerance, rounding down.
func MinimumOut(amount, slippageBps uint64) (uint64, error) {
	if slippageBps > BasisPoints {
		return 0, ErrSlippageBps
	}
	v := new(big.Int).Mul(new(big.Int).SetUint64(amount), new(big.Int).SetUint64(BasisPoints-slippageBps))
	return v.Div(v, big.NewInt(BasisPoints)).Uint64(), nil
}

// PriceImpact compares the execution price with the spot price before the
// trade, in percent.
func PriceImpact(q Quote) decimal.Decimal {
	if q.AmountIn == 0 || q.ReserveIn == 0 {
		return decimal.Zero
	}
	spot := decimal.NewFromUint64(q.ReserveOut).Div(decimal.NewFromUint64(q.ReserveIn))
	exec := decimal.NewFromUint64(q.AmountOut).Div(decimal.NewFromUint64(q.AmountIn))
	if spot.IsZero() {
		return decimal.Zero
	}
	return spot.Sub(exec).Div(spot).Mul(decimal.NewFromInt(100))
}

// SpotPrice returns the price of one base unit in quote units, adjusted for decimals.
func SpotPrice(reserveBase, reserveQuote uint64, baseDecimals, quoteDecimals uint8) decimal.Decimal {
	if reserveBase == 0 {
		return decimal.Zero
	}
	base := decimal.NewFromBigInt(new(big.Int).SetUint64(reserveBase), -int32(baseDecimals))
	quote := decimal.NewFromBigInt(new(big.Int).SetUint64(reserveQuote), -int32(quoteDecimals))
	return quote.Div(base)
}

func ceilDiv(a, b *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
