package raydium

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/meme-bots/go-roundtrip/amm"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/near/borsh-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testMint   = solana.MPK("7yPDSToUbixNUmvRuEFFW4Q9omaqSUR192Xo4zuqGDSR")
	testPoolID = solana.MPK("58oQChx4yWmvKdwLLZzBi4ChoCc2fqCUWBkwMihLYQo2")
)

func samplePool(t *testing.T) (Pool, []byte) {
	t.Helper()
	p := Pool{
		Status:              uint64(types.PoolStatusSwapOnly),
		BaseDecimal:         6,
		QuoteDecimal:        9,
		TradeFeeNumerator:   25,
		TradeFeeDenominator: 10000,
		BaseNeedTakePnl:     10,
		QuoteNeedTakePnl:    20,
		BaseVault:           solana.NewWallet().PublicKey(),
		QuoteVault:          solana.NewWallet().PublicKey(),
		BaseMint:            testMint,
		QuoteMint:           solana.SolMint,
		LpMint:              solana.NewWallet().PublicKey(),
		OpenOrders:          solana.NewWallet().PublicKey(),
		MarketId:            solana.NewWallet().PublicKey(),
		MarketProgramId:     OpenBookProgramID,
		TargetOrders:        solana.NewWallet().PublicKey(),
		LpReserve:           42,
	}
	data, err := borsh.Serialize(p)
	require.NoError(t, err)
	return p, data
}

func TestPoolLayout(t *testing.T) {
	p, data := samplePool(t)
	require.Len(t, data, PoolSize)

	assert.Equal(t, p.BaseVault.Bytes(), data[BaseVaultOffset:BaseVaultOffset+32])
	assert.Equal(t, testMint.Bytes(), data[BaseMintOffset:BaseMintOffset+32])
	assert.Equal(t, solana.SolMint.Bytes(), data[QuoteMintOffset:QuoteMintOffset+32])
	assert.Equal(t, p.MarketId.Bytes(), data[MarketIDOffset:MarketIDOffset+32])
	assert.Equal(t, uint64(6), binary.LittleEndian.Uint64(data[0:8]))

	decoded, err := DecodePool(data)
	require.NoError(t, err)
	assert.Equal(t, p, *decoded)
	assert.True(t, decoded.Tradable())
	assert.Equal(t, amm.Fee{Numerator: 25, Denominator: 10000}, decoded.Fee())
}

func TestDecodePool_WrongSize(t *testing.T) {
	_, data := samplePool(t)

	_, err := DecodePool(data[:PoolSize-1])
	assert.ErrorIs(t, err, types.ErrInvalidPool)

	_, err = DecodePool(append(data, 0))
	assert.ErrorIs(t, err, types.ErrInvalidPool)
}

func TestMarketLayout(t *testing.T) {
	data, err := borsh.Serialize(Market{VaultSignerNonce: 3})
	require.NoError(t, err)
	assert.Len(t, data, MarketSize)

	m, err := MarketDeserialize(append(data, make([]byte, 12)...))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), m.VaultSignerNonce)

	_, err = MarketDeserialize(data[:100])
	assert.ErrorIs(t, err, types.ErrInvalidPool)
}

func TestPool_TokenSideAndReserves(t *testing.T) {
	p, _ := samplePool(t)

	mint, tokenIsBase, err := p.TokenSide()
	require.NoError(t, err)
	assert.True(t, tokenIsBase)
	assert.Equal(t, testMint, mint)

	base, quote := p.Reserves(1000, 5)
	assert.Equal(t, uint64(990), base)
	assert.Equal(t, uint64(0), quote)

	s := PoolState{PoolAccount: PoolAccount{Pool: &p}, BaseReserve: 7, QuoteReserve: 9}
	sol, tok, err := s.Orient()
	require.NoError(t, err)
	assert.Equal(t, uint64(9), sol)
	assert.Equal(t, uint64(7), tok)

	p.QuoteMint = solana.NewWallet().PublicKey()
	_, _, err = p.TokenSide()
	assert.ErrorIs(t, err, types.ErrInvalidPool)
}

func sampleKeys(t *testing.T) *PoolKeys {
	t.Helper()
	p, _ := samplePool(t)

	var (
		keys *PoolKeys
		err  error
	)
	for nonce := uint64(0); nonce < 256; nonce++ {
		keys, err = NewPoolKeys(testPoolID, ProgramID, &p, &Market{
			VaultSignerNonce: nonce,
			BaseVault:        solana.NewWallet().PublicKey(),
			QuoteVault:       solana.NewWallet().PublicKey(),
			Bids:             solana.NewWallet().PublicKey(),
			Asks:             solana.NewWallet().PublicKey(),
			EventQueue:       solana.NewWallet().PublicKey(),
		})
		if err == nil {
			break
		}
	}
	require.NoError(t, err)
	return keys
}

func TestNewPoolKeys(t *testing.T) {
	keys := sampleKeys(t)

	authority, err := FindAmmAuthority(ProgramID)
	require.NoError(t, err)
	assert.Equal(t, AuthorityV4, authority)
	assert.Equal(t, authority, keys.Authority)
	assert.Equal(t, uint8(6), keys.TokenDecimals())
}

func TestCreateSwapInstruction(t *testing.T) {
	keys := sampleKeys(t)
	owner := solana.NewWallet().PublicKey()
	source := solana.NewWallet().PublicKey()
	dest := solana.NewWallet().PublicKey()

	ix := CreateSwapInstruction(keys, 10_000_000, 1234, source, dest, owner)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 17)
	assert.Equal(t, byte(9), data[0])
	assert.Equal(t, uint64(10_000_000), binary.LittleEndian.Uint64(data[1:9]))
	assert.Equal(t, uint64(1234), binary.LittleEndian.Uint64(data[9:17]))

	accounts := ix.Accounts()
	require.Len(t, accounts, 18)
	assert.Equal(t, ProgramID, ix.ProgramID())
	assert.Equal(t, solana.TokenProgramID, accounts[0].PublicKey)
	assert.Equal(t, keys.ID, accounts[1].PublicKey)
	assert.Equal(t, keys.Authority, accounts[2].PublicKey)
	assert.Equal(t, keys.MarketProgramID, accounts[7].PublicKey)
	assert.Equal(t, keys.MarketAuthority, accounts[14].PublicKey)
	assert.Equal(t, source, accounts[15].PublicKey)
	assert.Equal(t, dest, accounts[16].PublicKey)
	assert.Equal(t, owner, accounts[17].PublicKey)

	for i, a := range accounts {
		assert.Equal(t, i == 17, a.IsSigner, "account %d", i)
	}
}

func TestCreateIdempotentInstruction(t *testing.T) {
	wallet := solana.NewWallet().PublicKey()
	ix := CreateIdempotentInstruction(testMint, wallet)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, data)

	ata, _, err := solana.FindAssociatedTokenAddress(wallet, testMint)
	require.NoError(t, err)
	assert.Equal(t, ata, ix.Accounts()[1].PublicKey)
}

func TestParseSwapInstruction(t *testing.T) {
	transfer := func(amount uint64) solana.Base58 {
		d := make([]byte, 9)
		d[0] = 3
		binary.LittleEndian.PutUint64(d[1:], amount)
		return d
	}
	meta := &rpc.TransactionMeta{
		InnerInstructions: []rpc.InnerInstruction{
			{Index: 1, Instructions: []solana.CompiledInstruction{{Data: transfer(5)}, {Data: transfer(6)}}},
			{Index: 4, Instructions: []solana.CompiledInstruction{{Data: transfer(100)}, {Data: transfer(181)}}},
		},
	}

	in, out, ok := ParseSwapInstruction(meta, 4)
	require.True(t, ok)
	assert.Equal(t, uint64(100), in)
	assert.Equal(t, uint64(181), out)

	_, _, ok = ParseSwapInstruction(meta, 2)
	assert.False(t, ok)
}

func TestProbeAccount(t *testing.T) {
	p, data := samplePool(t)

	r := ProbeAccount(testPoolID, nil)
	assert.False(t, r.Exists)
	assert.NotEmpty(t, r.Error)

	r = ProbeAccount(testPoolID, &rpc.Account{Owner: solana.SystemProgramID, Data: rpc.DataBytesOrJSONFromBytes([]byte{1, 2})})
	assert.True(t, r.Exists)
	assert.False(t, r.IsRaydium)
	assert.False(t, r.Decoded)
	assert.Equal(t, 2, r.DataLen)

	r = ProbeAccount(testPoolID, &rpc.Account{Owner: DevnetProgramID, Data: rpc.DataBytesOrJSONFromBytes(data)})
	assert.True(t, r.IsRaydium)
	assert.True(t, r.Decoded)
	assert.True(t, r.Tradable)
	assert.Equal(t, types.PoolStatusSwapOnly, r.Status)
	assert.Equal(t, testMint.String(), r.BaseMint)
	assert.False(t, r.Associated)
	assert.Empty(t, r.Error)

	ammID, err := FindAmmId(DevnetProgramID, p.MarketId)
	require.NoError(t, err)
	r = ProbeAccount(ammID, &rpc.Account{Owner: DevnetProgramID, Data: rpc.DataBytesOrJSONFromBytes(data)})
	assert.True(t, r.Associated)
}

func TestProbe_RPC(t *testing.T) {
	_, data := samplePool(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		_ = json.Unmarshal(body, &req)
		assert.Equal(t, "getMultipleAccounts", req.Method)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value": []interface{}{
					nil,
					map[string]interface{}{
						"lamports":   1,
						"owner":      ProgramID.String(),
						"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
						"executable": false,
						"rentEpoch":  0,
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	results, err := Probe(context.Background(), rpc.New(srv.URL), []solana.PublicKey{solana.NewWallet().PublicKey(), testPoolID})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].Exists)
	assert.True(t, results[1].Tradable)
	assert.Equal(t, testPoolID.String(), results[1].Address)
}
