// Package config loads settings from .env, an optional YAML file, the
// environment and bound CLI flags, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/meme-bots/go-roundtrip/ledger"
	"github.com/meme-bots/go-roundtrip/logger"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/spf13/viper"
)

const EnvPrefix = "ROUNDTRIP"

const (
	ClusterMainnet = "mainnet-beta"
	ClusterDevnet  = "devnet"
	ClusterTestnet = "testnet"
	ClusterCustom  = "custom"
)

// Raydium AMM v4 deployments.
const (
	AmmProgramMainnet = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	AmmProgramDevnet  = "HWy1jotHpo6UqeQxx49dpYYdQB8wj9Qk9MdxwjLvDHB8"

	DefaultRoundTripProgram = "c6yDi5Z8AjensVGtu7WrsoL4T2XLVChLQo9t7MbYahg"
)

type (
	Config struct {
		Network types.Config `mapstructure:"network"`
		Log     LogConfig    `mapstructure:"log"`
		Wallet  WalletConfig `mapstructure:"wallet"`
		Bot     BotConfig    `mapstructure:"bot"`
		Ledger  LedgerConfig `mapstructure:"ledger"`
	}

	LogConfig struct {
		Format   string `mapstructure:"format"`
		LogDir   string `mapstructure:"dir"`
		Level    string `mapstructure:"level"`
		Compress bool   `mapstructure:"compress"`
	}

	WalletConfig struct {
		PrivateKey  string `mapstructure:"private_key"` // base58
		KeypairPath string `mapstructure:"keypair_path"`
	}

	BotConfig struct {
		Pool        string  `mapstructure:"pool"`
		Mode        string  `mapstructure:"mode"`
		Count       int     `mapstructure:"count"`
		DelayMs     int     `mapstructure:"delay_ms"`
		AmountSol   float64 `mapstructure:"amount_sol"`
		SlippageBps uint64  `mapstructure:"slippage_bps"`
	}

	LedgerConfig struct {
		Driver        string `mapstructure:"driver"` // memory or redis
		RedisAddr     string `mapstructure:"redis_addr"`
		RedisPassword string `mapstructure:"redis_password"`
		RedisDB       int    `mapstructure:"redis_db"`
		Key           string `mapstructure:"key"`
	}
)

func (c *LedgerConfig) ToOptions() ledger.Options {
	return ledger.Options{
		Driver:   c.Driver,
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		Key:      c.Key,
	}
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// SetDefaults registers every key so AutomaticEnv can override it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("network.type", types.NetworkTypeSol)
	v.SetDefault("network.name", "solana")
	v.SetDefault("network.rpc", "https://api.devnet.solana.com")
	v.SetDefault("network.ws_rpc", "")
	v.SetDefault("network.commitment", "confirmed")
	v.SetDefault("network.native_token_symbol", "SOL")
	v.SetDefault("network.native_token_decimals", 9)
	v.SetDefault("network.watch_block_hash", false)
	v.SetDefault("network.watch_sol_price", false)
	v.SetDefault("network.amm_program_id", "")
	v.SetDefault("network.round_trip_program_id", DefaultRoundTripProgram)
	v.SetDefault("network.jupiter_api", "https://quote-api.jup.ag/v6")
	v.SetDefault("network.jito_rpc", "")
	v.SetDefault("network.cluster", "")
	v.SetDefault("network.compute_unit_limit", 400_000)
	v.SetDefault("network.priority_fee", 0)
	v.SetDefault("network.jito_tip", 0)
	v.SetDefault("network.confirm_timeout_s", 60)

	v.SetDefault("log.format", "console")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.compress", false)

	v.SetDefault("wallet.private_key", "")
	v.SetDefault("wallet.keypair_path", "")

	v.SetDefault("bot.pool", "")
	v.SetDefault("bot.mode", string(types.RoundTripDirect))
	v.SetDefault("bot.count", 3)
	v.SetDefault("bot.delay_ms", 2000)
	v.SetDefault("bot.amount_sol", 0.01)
	v.SetDefault("bot.slippage_bps", types.DefaultSlippageBps)

	v.SetDefault("ledger.driver", ledger.DriverMemory)
	v.SetDefault("ledger.redis_addr", "localhost:6379")
	v.SetDefault("ledger.redis_password", "")
	v.SetDefault("ledger.redis_db", 0)
	v.SetDefault("ledger.key", ledger.DefaultKey)
}

// Load reads configuration into a Config. A missing .env or config file is
// not an error.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".roundtrip")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// plain variable names used by the scripts this tool replaces
	for key, env := range map[string]string{
		"network.rpc":         "RPC_URL",
		"network.ws_rpc":      "WS_URL",
		"wallet.private_key":  "PRIVATE_KEY",
		"wallet.keypair_path": "KEYPAIR_PATH",
	} {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(configPath == "" && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Resolve()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve fills values derived from the RPC endpoint.
func (c *Config) Resolve() {
	n := &c.Network
	if n.Cluster == "" {
		n.Cluster = ClusterFromRPC(n.RPC)
	}
	if n.WSRPC == "" {
		n.WSRPC = WebsocketURL(n.RPC)
	}
	if n.AmmProgramID == "" {
		if n.Cluster == ClusterMainnet {
			n.AmmProgramID = AmmProgramMainnet
		} else {
			n.AmmProgramID = AmmProgramDevnet
		}
	}
}

func (c *Config) Validate() error {
	if c.Network.RPC == "" {
		return errors.New("network.rpc must be set")
	}
	if !types.RoundTripMode(c.Bot.Mode).Valid() {
		return fmt.Errorf("bot.mode must be %q or %q, got %q", types.RoundTripDirect, types.RoundTripProgram, c.Bot.Mode)
	}
	if c.Bot.Count < 0 {
		return errors.New("bot.count must not be negative")
	}
	if c.Bot.DelayMs < 0 {
		return errors.New("bot.delay_ms must not be negative")
	}
	if c.Bot.SlippageBps > types.BasisPoints {
		return fmt.Errorf("bot.slippage_bps must be at most %d", types.BasisPoints)
	}
	switch c.Ledger.Driver {
	case ledger.DriverMemory, ledger.DriverRedis:
	default:
		return fmt.Errorf("ledger.driver must be memory or redis, got %q", c.Ledger.Driver)
	}
	return nil
}

func ClusterFromRPC(rpc string) string {
	switch {
	case strings.Contains(rpc, "devnet"):
		return ClusterDevnet
	case strings.Contains(rpc, "testnet"):
		return ClusterTestnet
	case strings.Contains(rpc, "mainnet"):
		return ClusterMainnet
	}
	return ClusterCustom
}

// WebsocketURL maps an http(s) RPC endpoint to its ws(s) pubsub endpoint.
// Local validators serve pubsub on the RPC port plus one.
func WebsocketURL(rpc string) string {
	switch {
	case strings.HasPrefix(rpc, "https://"):
		return "wss://" + strings.TrimPrefix(rpc, "https://")
	case strings.HasPrefix(rpc, "http://localhost:8899"), strings.HasPrefix(rpc, "http://127.0.0.1:8899"):
		return strings.Replace(strings.Replace(rpc, "http://", "ws://", 1), ":8899", ":8900", 1)
	case strings.HasPrefix(rpc, "http://"):
		return "ws://" + strings.TrimPrefix(rpc, "http://")
	}
	return rpc
}
