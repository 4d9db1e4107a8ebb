package types

type RoundTripMode string

const (
	// RoundTripDirect puts a buy and a sell SwapBaseIn instruction in one transaction.
	RoundTripDirect RoundTripMode = "direct"
	// RoundTripProgram calls the atomic round-trip program, which performs both legs by CPI.
	RoundTripProgram RoundTripMode = "program"
)

func (m RoundTripMode) Valid() bool {
	return m == RoundTripDirect || m == RoundTripProgram
}

type PoolStatus uint64

// Raydium AMM v4 pool status values.
const (
	PoolStatusUninitialized PoolStatus = 0
	PoolStatusInitialized   PoolStatus = 1
	PoolStatusDisabled      PoolStatus = 2
	PoolStatusWithdrawOnly  PoolStatus = 3
	PoolStatusLiquidityOnly PoolStatus = 4
	PoolStatusOrderBookOnly PoolStatus = 5
	PoolStatusSwapOnly      PoolStatus = 6
	PoolStatusWaitingTrade  PoolStatus = 7
)

func (s PoolStatus) String() string {
	switch s {
	case PoolStatusUninitialized:
		return "uninitialized"
	case PoolStatusInitialized:
		return "initialized"
	case PoolStatusDisabled:
		return "disabled"
	case PoolStatusWithdrawOnly:
		return "withdraw-only"
	case PoolStatusLiquidityOnly:
		return "liquidity-only"
	case PoolStatusOrderBookOnly:
		return "orderbook-only"
	case PoolStatusSwapOnly:
		return "swap"
	case PoolStatusWaitingTrade:
		return "waiting-trade"
	}
	return "unknown"
}

const (
	LamportsPerSol     = 1_000_000_000
	DefaultSlippageBps = 500
	BasisPoints        = 10_000
)
