// Package jupiter is a small client for the Jupiter v6 quote and swap API.
package jupiter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/meme-bots/go-roundtrip/logger"
	"github.com/meme-bots/go-roundtrip/utils"
	"github.com/shopspring/decimal"
)

const (
	DefaultAPI = "https://quote-api.jup.ag/v6"

	quoteTTL = 5 * time.Second
)

type (
	SwapInfo struct {
		AmmKey     string `json:"ammKey"`
		Label      string `json:"label"`
		InputMint  string `json:"inputMint"`
		OutputMint string `json:"outputMint"`
		InAmount   string `json:"inAmount"`
		OutAmount  string `json:"outAmount"`
		FeeAmount  string `json:"feeAmount"`
		FeeMint    string `json:"feeMint"`
	}

	RoutePlan struct {
		SwapInfo SwapInfo `json:"swapInfo"`
		Percent  int      `json:"percent"`
	}

	QuoteRequest struct {
		InputMint   string
		OutputMint  string
		Amount      uint64
		SlippageBps uint64
	}

	QuoteResponse struct {
		InputMint            string          `json:"inputMint"`
		InAmount             string          `json:"inAmount"`
		OutputMint           string          `json:"outputMint"`
		OutAmount            string          `json:"outAmount"`
		OtherAmountThreshold string          `json:"otherAmountThreshold"`
		SwapMode             string          `json:"swapMode"`
		SlippageBps          int             `json:"slippageBps"`
		PlatformFee          json.RawMessage `json:"platformFee"`
		PriceImpactPct       string          `json:"priceImpactPct"`
		RoutePlan            []RoutePlan     `json:"routePlan"`
		ContextSlot          uint64          `json:"contextSlot"`
		TimeTaken            float64         `json:"timeTaken"`
	}

	SwapRequest struct {
		QuoteResponse    *QuoteResponse `json:"quoteResponse"`
		UserPublicKey    string         `json:"userPublicKey"`
		WrapAndUnwrapSol bool           `json:"wrapAndUnwrapSol"`
	}

	SwapResponse struct {
		SwapTransaction      string `json:"swapTransaction"`
		LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
	}

	RoundTrip struct {
		Buy  *QuoteResponse
		Sell *QuoteResponse
		// AmountIn minus the sell output; negative means profit.
		Loss int64
	}

	apiError struct {
		Error     string `json:"error"`
		ErrorCode string `json:"errorCode"`
	}
)

func (q *QuoteResponse) OutAmountUint() (uint64, error) {
	return strconv.ParseUint(q.OutAmount, 10, 64)
}

func (q *QuoteResponse) PriceImpact() decimal.Decimal {
	d, err := decimal.NewFromString(q.PriceImpactPct)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (q *QuoteResponse) Labels() []string {
	labels := make([]string, 0, len(q.RoutePlan))
	for _, r := range q.RoutePlan {
		labels = append(labels, r.SwapInfo.Label)
	}
	return labels
}

type Client struct {
	api   string
	http  *http.Client
	cache *cache.Cache[[]byte]
}

func NewClient(api string, c *cache.Cache[[]byte]) *Client {
	if api == "" {
		api = DefaultAPI
	}
	return &Client{
		api:   api,
		http:  &http.Client{Timeout: 15 * time.Second},
		cache: c,
	}
}

func (c *Client) Quote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	key := fmt.Sprintf("jup:%s:%s:%d:%d", req.InputMint, req.OutputMint, req.Amount, req.SlippageBps)
	if q, ok := utils.CacheGet[QuoteResponse](ctx, c.cache, key); ok {
		return q, nil
	}

	params := url.Values{}
	params.Set("inputMint", req.InputMint)
	params.Set("outputMint", req.OutputMint)
	params.Set("amount", strconv.FormatUint(req.Amount, 10))
	params.Set("slippageBps", strconv.FormatUint(req.SlippageBps, 10))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.api+"/quote?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var q QuoteResponse
	if err := c.do(httpReq, &q); err != nil {
		return nil, fmt.Errorf("jupiter quote: %w", err)
	}

	utils.CacheSet(ctx, c.cache, key, &q, quoteTTL)
	return &q, nil
}

// QuoteRoundTrip quotes SOL to token and then the buy output back to SOL.
func (c *Client) QuoteRoundTrip(ctx context.Context, inputMint, tokenMint string, amount, slippageBps uint64) (*RoundTrip, error) {
	buy, err := c.Quote(ctx, &QuoteRequest{InputMint: inputMint, OutputMint: tokenMint, Amount: amount, SlippageBps: slippageBps})
	if err != nil {
		return nil, err
	}
	buyOut, err := buy.OutAmountUint()
	if err != nil {
		return nil, fmt.Errorf("jupiter buy outAmount %q: %w", buy.OutAmount, err)
	}

	sell, err := c.Quote(ctx, &QuoteRequest{InputMint: tokenMint, OutputMint: inputMint, Amount: buyOut, SlippageBps: slippageBps})
	if err != nil {
		return nil, err
	}
	sellOut, err := sell.OutAmountUint()
	if err != nil {
		return nil, fmt.Errorf("jupiter sell outAmount %q: %w", sell.OutAmount, err)
	}

	logger.Debugf("[Jupiter] round trip %d -> %d -> %d", amount, buyOut, sellOut)
	return &RoundTrip{Buy: buy, Sell: sell, Loss: int64(amount) - int64(sellOut)}, nil
}

func (c *Client) Swap(ctx context.Context, quote *QuoteResponse, user solana.PublicKey) (*SwapResponse, error) {
	body, err := json.Marshal(&SwapRequest{QuoteResponse: quote, UserPublicKey: user.String(), WrapAndUnwrapSol: true})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.api+"/swap", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var resp SwapResponse
	if err := c.do(httpReq, &resp); err != nil {
		return nil, fmt.Errorf("jupiter swap: %w", err)
	}
	return &resp, nil
}

// DecodeTransaction parses the base64 transaction returned by Swap.
func DecodeTransaction(encoded string) (*solana.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	return solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var e apiError
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}
