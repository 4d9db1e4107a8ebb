package types

import (
	"context"
	"math/big"
	"time"

	"github.com/meme-bots/go-roundtrip/amm"
	"github.com/shopspring/decimal"
)

type (
	GetBalanceRequest struct {
		Address string
	}

	GetTokenBalanceRequest struct {
		Owner string
		Token string
	}

	PoolInfo struct {
		AmmPublicKey    string
		AmmProgramID    string
		Authority       string
		OpenOrders      string
		TargetOrders    string
		MarketPublicKey string
		MarketProgramID string
		BaseMint        string
		BaseVault       string
		BaseDecimal     uint8
		QuoteMint       string
		QuoteVault      string
		QuoteDecimal    uint8
		LpMint          string
		OpenTime        int64
		Status          PoolStatus
		BaseReserve     *big.Int
		QuoteReserve    *big.Int
		FeeNumerator    uint64
		FeeDenominator  uint64
		PriceInQuote    decimal.Decimal
		TokenMint       string
		TokenName       string
		TokenSymbol     string
		TokenIsBase     bool
	}

	FindPoolsRequest struct {
		Mint  string
		Quote string
	}

	ProbeResult struct {
		Address   string
		Exists    bool
		Owner     string
		IsRaydium bool
		Decoded   bool
		DataLen   int
		Status    PoolStatus
		Tradable  bool
		// Associated is set when the address is the market's amm_associated_seed PDA.
		Associated bool
		BaseMint   string
		QuoteMint  string
		Error      string
	}

	QuoteRoundTripRequest struct {
		Pool        string
		AmountIn    uint64
		SlippageBps uint64
	}

	QuoteRoundTripResponse struct {
		Pool           *PoolInfo
		TokenIsBase    bool
		Quote          amm.RoundTripQuote
		MinimumOutBuy  uint64
		MinimumOutSell uint64
	}

	RoundTripRequest struct {
		Pool        string
		Mode        RoundTripMode
		AmountIn    uint64
		SlippageBps uint64
		Simulate    bool

		// Zero means derive from the pool reserves.
		MinimumOutBuy  uint64
		MinimumOutSell uint64
	}

	RoundTripResponse struct {
		TxHash         string
		Mode           RoundTripMode
		Simulated      bool
		Success        bool
		Error          string
		AmountIn       uint64
		MinimumOutBuy  uint64
		MinimumOutSell uint64
		ExpectedOut    uint64
		UnitsConsumed  uint64
		Logs           []string
		ExplorerURL    string
	}

	BalanceChange struct {
		Account string
		Pre     uint64
		Post    uint64
		Delta   int64
	}

	TokenBalanceChange struct {
		Account string
		Owner   string
		Mint    string
		Pre     decimal.Decimal
		Post    decimal.Decimal
		Delta   decimal.Decimal
	}

	SwapSummary struct {
		AmountIn  uint64
		AmountOut uint64
	}

	InstructionSummary struct {
		Index      int
		ProgramID  string
		Data       string // hex
		DataBase58 string
		Accounts   int
		Inner      int
		Swap       *SwapSummary
	}

	TransactionReport struct {
		Signature           string
		Slot                uint64
		BlockTime           *time.Time
		Fee                 uint64
		Success             bool
		Error               string
		ComputeUnits        *uint64
		BalanceChanges      []BalanceChange
		TokenBalanceChanges []TokenBalanceChange
		Instructions        []InstructionSummary
		Logs                []string
		ExplorerURL         string
		SolscanURL          string
	}

	CreateTokenRequest struct {
		Name     string
		Decimals uint8
		Supply   uint64 // whole tokens
	}

	CreateTokenResponse struct {
		Name         string
		Mint         string
		TokenAccount string
		Decimals     uint8
		Supply       uint64
		TxHash       string
		ExplorerURL  string
	}

	NetworkInterface interface {
		Start() error
		Close() error
		GetType() int
		GetNativeTokenSymbol() string
		GetNativeTokenDecimals() uint8
		GetNativeTokenPrice() decimal.Decimal
		GetBalance(ctx context.Context, req *GetBalanceRequest) (*big.Int, error)
		GetTokenBalance(ctx context.Context, req *GetTokenBalanceRequest) (*big.Int, error)
		GetPool(ctx context.Context, address string) (*PoolInfo, error)
		FindPools(ctx context.Context, req *FindPoolsRequest) ([]*PoolInfo, error)
		ProbePools(ctx context.Context, addresses []string) ([]*ProbeResult, error)
		QuoteRoundTrip(ctx context.Context, req *QuoteRoundTripRequest) (*QuoteRoundTripResponse, error)
		RoundTrip(ctx context.Context, req *RoundTripRequest) (*RoundTripResponse, error)
		InspectTransaction(ctx context.Context, signature string) (*TransactionReport, error)
		CreateToken(ctx context.Context, req *CreateTokenRequest) (*CreateTokenResponse, error)
		CheckAddress(text string) bool
	}
)

const (
	NetworkTypeSol int = iota
	NetworkTypeEVM
)
