package sol

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/meme-bots/go-roundtrip/amm"
	"github.com/meme-bots/go-roundtrip/logger"
	"github.com/meme-bots/go-roundtrip/sol/raydium"
	"github.com/meme-bots/go-roundtrip/sol/roundtrip"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/near/borsh-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testMint = solana.MPK("7yPDSToUbixNUmvRuEFFW4Q9omaqSUR192Xo4zuqGDSR")

type fakeAccount struct {
	owner solana.PublicKey
	data  []byte
}

// fakeRPC answers the handful of JSON-RPC methods the network uses.
type fakeRPC struct {
	mu        sync.Mutex
	accounts  map[string]fakeAccount
	balance   uint64
	simErr    interface{}
	simLogs   []string
	simulated int

	// sendTransaction fails preflight with sendLogs when sendFail is set
	sendFail bool
	sendLogs []string
	sent     []solana.Signature

	// status is the single getSignatureStatuses entry, nil while pending
	status      interface{}
	statusCalls int

	// programPools maps a base mint to the pool getProgramAccounts returns
	programPools map[string]string
}

func writeRPCError(w http.ResponseWriter, id json.RawMessage, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   map[string]interface{}{"code": code, "message": message, "data": data},
	})
}

func (f *fakeRPC) account(address string) interface{} {
	acc, ok := f.accounts[address]
	if !ok {
		return nil
	}
	return map[string]interface{}{
		"lamports":   2_039_280,
		"owner":      acc.owner.String(),
		"data":       []string{base64.StdEncoding.EncodeToString(acc.data), "base64"},
		"executable": false,
		"rentEpoch":  0,
	}
}

func (f *fakeRPC) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	var req struct {
		ID     json.RawMessage   `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	_ = json.Unmarshal(body, &req)

	ctx := map[string]interface{}{"slot": 1}
	var result interface{}
	switch req.Method {
	case "getAccountInfo":
		var address string
		_ = json.Unmarshal(req.Params[0], &address)
		result = map[string]interface{}{"context": ctx, "value": f.account(address)}
	case "getMultipleAccounts":
		var addresses []string
		_ = json.Unmarshal(req.Params[0], &addresses)
		values := make([]interface{}, len(addresses))
		for i, a := range addresses {
			values[i] = f.account(a)
		}
		result = map[string]interface{}{"context": ctx, "value": values}
	case "getBalance":
		result = map[string]interface{}{"context": ctx, "value": f.balance}
	case "getLatestBlockhash":
		result = map[string]interface{}{"context": ctx, "value": map[string]interface{}{
			"blockhash":            solana.Hash{7}.String(),
			"lastValidBlockHeight": 100,
		}}
	case "simulateTransaction":
		f.simulated++
		result = map[string]interface{}{"context": ctx, "value": map[string]interface{}{
			"err":           f.simErr,
			"logs":          f.simLogs,
			"unitsConsumed": 42_000,
		}}
	case "sendTransaction":
		var encoded string
		_ = json.Unmarshal(req.Params[0], &encoded)
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.sent = append(f.sent, tx.Signatures[0])
		if f.sendFail {
			writeRPCError(w, req.ID, -32002, "Transaction simulation failed: Error processing Instruction 3: custom program error: 0x1e",
				map[string]interface{}{"err": map[string]interface{}{"InstructionError": []interface{}{3, map[string]interface{}{"Custom": 30}}}, "logs": f.sendLogs})
			return
		}
		result = tx.Signatures[0].String()
	case "getSignatureStatuses":
		f.statusCalls++
		result = map[string]interface{}{"context": ctx, "value": []interface{}{f.status}}
	case "getProgramAccounts":
		var opts struct {
			Filters []struct {
				Memcmp *struct {
					Offset uint64 `json:"offset"`
					Bytes  string `json:"bytes"`
				} `json:"memcmp"`
			} `json:"filters"`
		}
		_ = json.Unmarshal(req.Params[1], &opts)
		for _, flt := range opts.Filters {
			if flt.Memcmp == nil || flt.Memcmp.Offset != uint64(raydium.BaseMintOffset) {
				continue
			}
			if addr, ok := f.programPools[flt.Memcmp.Bytes]; ok {
				result = []interface{}{map[string]interface{}{"pubkey": addr, "account": f.account(addr)}}
			}
		}
		if result == nil {
			writeRPCError(w, req.ID, -32010, "excluded from account secondary indexes", nil)
			return
		}
	default:
		http.Error(w, "unexpected method "+req.Method, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result})
}

func tokenAccountData(amount uint64) []byte {
	data := make([]byte, 165)
	binary.LittleEndian.PutUint64(data[64:], amount)
	return data
}

type testPool struct {
	address solana.PublicKey
	pool    raydium.Pool
}

// newTestNetwork serves a WSOL/token pool with its vaults and market.
func newTestNetwork(t *testing.T, status types.PoolStatus, owner solana.PublicKey) (*Solana, *fakeRPC, *testPool) {
	t.Helper()

	marketID := solana.NewWallet().PublicKey()
	var nonce uint64
	for ; nonce < 256; nonce++ {
		if _, err := raydium.FindVaultSigner(nonce, marketID, raydium.OpenBookProgramID); err == nil {
			break
		}
	}

	tp := &testPool{
		address: solana.NewWallet().PublicKey(),
		pool: raydium.Pool{
			Status:              uint64(status),
			BaseDecimal:         6,
			QuoteDecimal:        9,
			TradeFeeNumerator:   25,
			TradeFeeDenominator: 10000,
			BaseVault:           solana.NewWallet().PublicKey(),
			QuoteVault:          solana.NewWallet().PublicKey(),
			BaseMint:            testMint,
			QuoteMint:           solana.SolMint,
			LpMint:              solana.NewWallet().PublicKey(),
			OpenOrders:          solana.NewWallet().PublicKey(),
			MarketId:            marketID,
			MarketProgramId:     raydium.OpenBookProgramID,
			TargetOrders:        solana.NewWallet().PublicKey(),
		},
	}
	poolData, err := borsh.Serialize(tp.pool)
	require.NoError(t, err)
	marketData, err := borsh.Serialize(raydium.Market{
		VaultSignerNonce: nonce,
		BaseVault:        solana.NewWallet().PublicKey(),
		QuoteVault:       solana.NewWallet().PublicKey(),
		Bids:             solana.NewWallet().PublicKey(),
		Asks:             solana.NewWallet().PublicKey(),
		EventQueue:       solana.NewWallet().PublicKey(),
	})
	require.NoError(t, err)

	fake := &fakeRPC{
		balance: 10 * solana.LAMPORTS_PER_SOL,
		accounts: map[string]fakeAccount{
			tp.address.String():         {owner: owner, data: poolData},
			marketID.String():           {owner: raydium.OpenBookProgramID, data: marketData},
			tp.pool.BaseVault.String():  {owner: solana.TokenProgramID, data: tokenAccountData(20_000_000_000)},
			tp.pool.QuoteVault.String(): {owner: solana.TokenProgramID, data: tokenAccountData(10_000_000_000)},
		},
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewSolana(&types.Config{
		RPC:                srv.URL,
		Cluster:            "custom",
		AmmProgramID:       raydium.DevnetProgramID.String(),
		RoundTripProgramID: "c6yDi5Z8AjensVGtu7WrsoL4T2XLVChLQo9t7MbYahg",
	}, WithWallet(solana.NewWallet().PrivateKey))
	require.NoError(t, err)
	return s, fake, tp
}

func TestSolana_GetPool(t *testing.T) {
	s, _, tp := newTestNetwork(t, types.PoolStatusSwapOnly, raydium.DevnetProgramID)

	info, err := s.GetPool(context.Background(), tp.address.String())
	require.NoError(t, err)

	assert.Equal(t, tp.address.String(), info.AmmPublicKey)
	assert.Equal(t, testMint.String(), info.TokenMint)
	assert.True(t, info.TokenIsBase)
	assert.Equal(t, types.PoolStatusSwapOnly, info.Status)
	assert.Equal(t, uint64(20_000_000_000), info.BaseReserve.Uint64())
	assert.Equal(t, uint64(10_000_000_000), info.QuoteReserve.Uint64())
	// 20000 tokens against 10 SOL
	assert.Equal(t, "0.0005", info.PriceInQuote.String())
	assert.Empty(t, info.TokenName)

	_, err = s.GetPool(context.Background(), solana.NewWallet().PublicKey().String())
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSolana_QuoteRoundTrip(t *testing.T) {
	s, _, tp := newTestNetwork(t, types.PoolStatusSwapOnly, raydium.DevnetProgramID)

	resp, err := s.QuoteRoundTrip(context.Background(), &types.QuoteRoundTripRequest{
		Pool:     tp.address.String(),
		AmountIn: 10_000_000,
	})
	require.NoError(t, err)

	args, q, err := roundtrip.ArgsFromQuote(10_000_000, 10_000_000_000, 20_000_000_000, amm.DefaultFee, types.DefaultSlippageBps)
	require.NoError(t, err)
	assert.Equal(t, q, resp.Quote)
	assert.Equal(t, args.MinimumAmountOutBuy, resp.MinimumOutBuy)
	assert.Equal(t, args.MinimumAmountOutSell, resp.MinimumOutSell)
	assert.True(t, resp.TokenIsBase)
	assert.Less(t, resp.Quote.Sell.AmountOut, uint64(10_000_000))
}

func TestSolana_ProbePools(t *testing.T) {
	s, _, tp := newTestNetwork(t, types.PoolStatusSwapOnly, raydium.DevnetProgramID)

	results, err := s.ProbePools(context.Background(), []string{"bogus", tp.address.String(), solana.NewWallet().PublicKey().String()})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Contains(t, results[0].Error, "invalid address")
	assert.True(t, results[1].Tradable)
	assert.True(t, results[1].IsRaydium)
	assert.False(t, results[2].Exists)
}

func TestSolana_RoundTripSimulate(t *testing.T) {
	s, fake, tp := newTestNetwork(t, types.PoolStatusSwapOnly, raydium.DevnetProgramID)
	fake.simLogs = []string{"Program log: ok"}

	resp, err := s.RoundTrip(context.Background(), &types.RoundTripRequest{
		Pool:     tp.address.String(),
		Mode:     types.RoundTripProgram,
		AmountIn: 10_000_000,
		Simulate: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, fake.simulated)
	assert.True(t, resp.Success)
	assert.True(t, resp.Simulated)
	assert.Equal(t, types.RoundTripProgram, resp.Mode)
	assert.Equal(t, uint64(42_000), resp.UnitsConsumed)
	assert.Equal(t, []string{"Program log: ok"}, resp.Logs)
	assert.NotZero(t, resp.MinimumOutBuy)
	assert.NotZero(t, resp.ExpectedOut)
	assert.NotEmpty(t, resp.TxHash)
}

func TestSolana_RoundTripSimulate_PlaceholderPool(t *testing.T) {
	placeholder := solana.NewWallet().PublicKey()
	s, fake, tp := newTestNetwork(t, types.PoolStatusUninitialized, placeholder)
	fake.simErr = map[string]interface{}{"InstructionError": []interface{}{3, "IncorrectProgramId"}}
	fake.simLogs = []string{"Program failed: incorrect program id for instruction"}

	resp, err := s.RoundTrip(context.Background(), &types.RoundTripRequest{
		Pool:           tp.address.String(),
		AmountIn:       10_000_000,
		MinimumOutBuy:  1,
		MinimumOutSell: 1,
		Simulate:       true,
	})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, types.RoundTripDirect, resp.Mode)
	assert.Contains(t, resp.Error, types.ErrExpectedFailure.Error())
	assert.Equal(t, fake.simLogs, resp.Logs)
}

func confirmedStatus(err interface{}) map[string]interface{} {
	return map[string]interface{}{
		"slot":               1,
		"confirmations":      nil,
		"err":                err,
		"confirmationStatus": "confirmed",
	}
}

func TestSolana_RoundTrip_Confirmed(t *testing.T) {
	s, fake, tp := newTestNetwork(t, types.PoolStatusSwapOnly, raydium.DevnetProgramID)
	fake.status = confirmedStatus(nil)

	resp, err := s.RoundTrip(context.Background(), &types.RoundTripRequest{
		Pool:     tp.address.String(),
		AmountIn: 10_000_000,
	})
	require.NoError(t, err)

	require.Len(t, fake.sent, 1)
	assert.Zero(t, fake.simulated)
	assert.Equal(t, 1, fake.statusCalls)
	assert.True(t, resp.Success)
	assert.False(t, resp.Simulated)
	assert.Equal(t, fake.sent[0].String(), resp.TxHash)
	assert.Contains(t, resp.ExplorerURL, resp.TxHash)
	assert.Empty(t, resp.Error)
}

func TestSolana_RoundTrip_PreflightFailureKeepsSignature(t *testing.T) {
	s, fake, tp := newTestNetwork(t, types.PoolStatusSwapOnly, raydium.DevnetProgramID)
	fake.sendFail = true
	fake.sendLogs = []string{
		"Program 675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8 invoke [1]",
		"Program log: Error: exceeds desired slippage limit",
	}

	resp, err := s.RoundTrip(context.Background(), &types.RoundTripRequest{
		Pool:     tp.address.String(),
		AmountIn: 10_000_000,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSlippage)

	var txErr *types.TxError
	require.ErrorAs(t, err, &txErr)
	require.NotNil(t, resp)
	require.Len(t, fake.sent, 1)

	assert.Equal(t, fake.sent[0].String(), resp.TxHash)
	assert.NotEqual(t, solana.Signature{}.String(), resp.TxHash)
	assert.Equal(t, resp.TxHash, txErr.Signature)
	assert.Contains(t, resp.ExplorerURL, resp.TxHash)
	assert.Equal(t, fake.sendLogs, resp.Logs)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
	assert.Zero(t, fake.statusCalls)
}

func TestSolana_RoundTrip_InstructionError(t *testing.T) {
	s, fake, tp := newTestNetwork(t, types.PoolStatusSwapOnly, raydium.DevnetProgramID)
	fake.status = confirmedStatus(map[string]interface{}{
		"InstructionError": []interface{}{2, map[string]interface{}{"Custom": 30}},
	})

	resp, err := s.RoundTrip(context.Background(), &types.RoundTripRequest{
		Pool:     tp.address.String(),
		AmountIn: 10_000_000,
	})
	assert.ErrorIs(t, err, types.ErrInstructionFailed)
	require.NotNil(t, resp)
	require.Len(t, fake.sent, 1)
	assert.Equal(t, fake.sent[0].String(), resp.TxHash)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "instruction failed")
}

func TestSolana_Confirm_Timeout(t *testing.T) {
	s, fake, _ := newTestNetwork(t, types.PoolStatusSwapOnly, raydium.DevnetProgramID)
	s.cfg.ConfirmTimeoutS = 1

	sig := solana.Signature{9}
	err := s.Confirm(context.Background(), sig)
	assert.ErrorIs(t, err, types.ErrTxNotLand)

	var txErr *types.TxError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, sig.String(), txErr.Signature)
	assert.GreaterOrEqual(t, fake.statusCalls, 1)
}

func TestStatusError(t *testing.T) {
	sig := solana.Signature{1}
	assert.NoError(t, statusError(sig, nil))
	assert.ErrorIs(t, statusError(sig, map[string]interface{}{"InstructionError": []interface{}{0, "InvalidAccountData"}}), types.ErrInstructionFailed)

	err := statusError(sig, "AccountInUse")
	assert.ErrorIs(t, err, types.ErrTransactionFailed)
	assert.NotErrorIs(t, err, types.ErrInstructionFailed)
}

func TestSolana_FindPools_OneOrientationFails(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger.Replace(zap.New(core))
	t.Cleanup(func() { logger.Replace(zap.NewNop()) })

	s, fake, tp := newTestNetwork(t, types.PoolStatusSwapOnly, raydium.DevnetProgramID)
	fake.programPools = map[string]string{testMint.String(): tp.address.String()}

	pools, err := s.FindPools(context.Background(), &types.FindPoolsRequest{Mint: testMint.String()})
	require.NoError(t, err)
	require.Len(t, pools, 1)
	assert.Equal(t, tp.address.String(), pools[0].AmmPublicKey)
	assert.Equal(t, 1, logs.FilterMessageSnippet("as quote failed").Len())
}

func TestSolana_RoundTrip_InsufficientBalance(t *testing.T) {
	s, fake, tp := newTestNetwork(t, types.PoolStatusSwapOnly, raydium.DevnetProgramID)
	fake.balance = 1_000

	_, err := s.RoundTrip(context.Background(), &types.RoundTripRequest{
		Pool:     tp.address.String(),
		AmountIn: 10_000_000,
		Simulate: true,
	})
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)
	assert.Zero(t, fake.simulated)
}

func TestSolana_RoundTrip_NoWallet(t *testing.T) {
	s, err := NewSolana(&types.Config{RPC: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = s.RoundTrip(context.Background(), &types.RoundTripRequest{Pool: testMint.String(), AmountIn: 1})
	assert.ErrorIs(t, err, types.ErrMissingWallet)
}

func TestSolana_CheckAddress(t *testing.T) {
	s, err := NewSolana(&types.Config{RPC: "http://127.0.0.1:1"})
	require.NoError(t, err)

	assert.True(t, s.CheckAddress(testMint.String()))
	assert.False(t, s.CheckAddress("0OIl"))
	assert.False(t, s.CheckAddress(""))
}

func TestRequiredBalance(t *testing.T) {
	assert.Greater(t, RequiredBalance(1_000, 0), uint64(1_000))
	assert.Equal(t, RequiredBalance(1_000, 0)+500, RequiredBalance(1_000, 500))
}
