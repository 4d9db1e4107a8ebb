package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/meme-bots/go-roundtrip/types"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "https://api.devnet.solana.com", cfg.Network.RPC)
	assert.Equal(t, "wss://api.devnet.solana.com", cfg.Network.WSRPC)
	assert.Equal(t, ClusterDevnet, cfg.Network.Cluster)
	assert.Equal(t, AmmProgramDevnet, cfg.Network.AmmProgramID)
	assert.Equal(t, DefaultRoundTripProgram, cfg.Network.RoundTripProgramID)
	assert.Equal(t, 3, cfg.Bot.Count)
	assert.Equal(t, 2000, cfg.Bot.DelayMs)
	assert.Equal(t, 0.01, cfg.Bot.AmountSol)
	assert.Equal(t, string(types.RoundTripDirect), cfg.Bot.Mode)
	assert.Equal(t, "memory", cfg.Ledger.Driver)
}

func TestLoad_PlainEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("RPC_URL", "https://api.mainnet-beta.solana.com")
	t.Setenv("PRIVATE_KEY", "abc")
	t.Setenv("ROUNDTRIP_BOT_COUNT", "7")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.Network.RPC)
	assert.Equal(t, ClusterMainnet, cfg.Network.Cluster)
	assert.Equal(t, AmmProgramMainnet, cfg.Network.AmmProgramID)
	assert.Equal(t, "abc", cfg.Wallet.PrivateKey)
	assert.Equal(t, 7, cfg.Bot.Count)
}

func TestLoad_PrefixedEnvWins(t *testing.T) {
	chdirTemp(t)
	t.Setenv("RPC_URL", "http://plain")
	t.Setenv("ROUNDTRIP_NETWORK_RPC", "http://prefixed")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "http://prefixed", cfg.Network.RPC)
}

func TestLoad_DotEnvAndFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("KEYPAIR_PATH=/tmp/id.json\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("KEYPAIR_PATH") })

	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network:\n  rpc: http://localhost:8899\nbot:\n  mode: program\n  delay_ms: 10\n"), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/id.json", cfg.Wallet.KeypairPath)
	assert.Equal(t, "ws://localhost:8900", cfg.Network.WSRPC)
	assert.Equal(t, ClusterCustom, cfg.Network.Cluster)
	assert.Equal(t, string(types.RoundTripProgram), cfg.Bot.Mode)
	assert.Equal(t, 10, cfg.Bot.DelayMs)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	chdirTemp(t)
	_, err := Load(viper.New(), "/nonexistent/cfg.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ROUNDTRIP_BOT_MODE", "sideways")
	_, err := Load(viper.New(), "")
	assert.ErrorContains(t, err, "bot.mode")
}

func TestWebsocketURL(t *testing.T) {
	assert.Equal(t, "wss://rpc.example.com/abc", WebsocketURL("https://rpc.example.com/abc"))
	assert.Equal(t, "ws://127.0.0.1:8900", WebsocketURL("http://127.0.0.1:8899"))
	assert.Equal(t, "ws://node:80", WebsocketURL("http://node:80"))
}
