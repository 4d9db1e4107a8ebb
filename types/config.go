package types

type (
	Config struct {
		Type                int    `mapstructure:"type"`
		Name                string `mapstructure:"name"`
		RPC                 string `mapstructure:"rpc"`
		WSRPC               string `mapstructure:"ws_rpc"`
		Commitment          string `mapstructure:"commitment"`
		NativeTokenSymbol   string `mapstructure:"native_token_symbol"`
		NativeTokenDecimals uint8  `mapstructure:"native_token_decimals"`

		WatchBlockHash bool `mapstructure:"watch_block_hash"`
		WatchSolPrice  bool `mapstructure:"watch_sol_price"`

		AmmProgramID       string `mapstructure:"amm_program_id"`
		RoundTripProgramID string `mapstructure:"round_trip_program_id"`
		JupiterAPI         string `mapstructure:"jupiter_api"`
		JitoRPC            string `mapstructure:"jito_rpc"`
		Cluster            string `mapstructure:"cluster"` // mainnet-beta, devnet, testnet or custom

		ComputeUnitLimit uint32 `mapstructure:"compute_unit_limit"`
		PriorityFee      uint64 `mapstructure:"priority_fee"` // lamports spread over the compute unit limit
		JitoTip          uint64 `mapstructure:"jito_tip"`
		ConfirmTimeoutS  int    `mapstructure:"confirm_timeout_s"`
	}
)
