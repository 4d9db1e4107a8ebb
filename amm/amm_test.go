package amm

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapBaseIn(t *testing.T) {
	q, err := SwapBaseIn(1_000_000, 10_000_000, 20_000_000, DefaultFee)
	require.NoError(t, err)

	assert.Equal(t, uint64(2500), q.Fee)
	assert.Equal(t, uint64(1_814_048), q.AmountOut)
	assert.Equal(t, uint64(11_000_000), q.NewReserveIn)
	assert.Equal(t, uint64(18_185_952), q.NewReserveOut)
	assert.True(t, q.PriceImpact.GreaterThan(decimal.Zero))
}

func TestSwapBaseIn_FeeRoundsUp(t *testing.T) {
	q, err := SwapBaseIn(3, 1_000_000, 1_000_000, DefaultFee)
	if err != nil {
		assert.ErrorIs(t, err, ErrNoLiquidity)
		return
	}
	assert.Equal(t, uint64(1), q.Fee)
}

func TestSwapBaseIn_Errors(t *testing.T) {
	_, err := SwapBaseIn(0, 1, 1, DefaultFee)
	assert.ErrorIs(t, err, ErrZeroAmount)

	_, err = SwapBaseIn(1, 0, 1, DefaultFee)
	assert.ErrorIs(t, err, ErrZeroReserve)

	_, err = SwapBaseIn(1, 1, 1, Fee{Numerator: 1, Denominator: 0})
	assert.ErrorIs(t, err, ErrInvalidFee)

	_, err = SwapBaseIn(1, 1_000_000_000, 1, DefaultFee)
	assert.ErrorIs(t, err, ErrNoLiquidity)
}

func TestRoundTrip(t *testing.T) {
	q, err := RoundTrip(1_000_000, 10_000_000, 20_000_000, DefaultFee)
	require.NoError(t, err)

	assert.Equal(t, uint64(1_814_048), q.Buy.AmountOut)
	assert.Equal(t, q.Buy.AmountOut, q.Sell.AmountIn)
	assert.Equal(t, uint64(4536), q.Sell.Fee)
	assert.Equal(t, uint64(995_457), q.Sell.AmountOut)
	assert.Equal(t, uint64(4543), q.Loss)
	assert.True(t, q.LossBps.Equal(decimal.NewFromFloat(45.43)))
}

func TestRoundTrip_NeverProfitable(t *testing.T) {
	for _, in := range []uint64{1_000, 50_000, 10_000_000, 999_999_999} {
		q, err := RoundTrip(in, 5_000_000_000, 123_456_789_000, DefaultFee)
		require.NoError(t, err)
		assert.LessOrEqual(t, q.Sell.AmountOut, in)
	}
}

func TestMinimumOut(t *testing.T) {
	v, err := MinimumOut(1_234_567, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_172_838), v)

	v, err = MinimumOut(100, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), v)

	v, err = MinimumOut(100, BasisPoints)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)

	_, err = MinimumOut(100, BasisPoints+1)
	assert.ErrorIs(t, err, ErrSlippageBps)
}

func TestSpotPrice(t *testing.T) {
	// 2000 tokens (6 decimals) against 10 SOL (9 decimals)
	p := SpotPrice(2_000_000_000, 10_000_000_000, 6, 9)
	assert.True(t, p.Equal(decimal.RequireFromString("0.005")), p.String())
	assert.True(t, SpotPrice(0, 1, 6, 9).IsZero())
}
