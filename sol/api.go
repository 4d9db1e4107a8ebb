package sol

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/gagliardetto/solana-go"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/meme-bots/go-roundtrip/utils"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type (
	Token struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	}

	PriceChanged struct {
		M5  decimal.Decimal `json:"m5"`
		H1  decimal.Decimal `json:"h1"`
		H6  decimal.Decimal `json:"h6"`
		H24 decimal.Decimal `json:"h24"`
	}

	Liquidity struct {
		USD   decimal.Decimal `json:"usd"`
		Base  decimal.Decimal `json:"base"`
		Quote decimal.Decimal `json:"quote"`
	}

	DexScreenerPair struct {
		ChainID     string       `json:"chainId"`
		DexID       string       `json:"dexId"`
		PairAddress string       `json:"pairAddress"`
		Labels      []string     `json:"labels"`
		BaseToken   Token        `json:"baseToken"`
		QuoteToken  Token        `json:"quoteToken"`
		PriceNative string       `json:"priceNative"`
		PriceUSD    string       `json:"priceUsd"`
		PriceChange PriceChanged `json:"priceChange"`
		Liquidity   *Liquidity   `json:"liquidity"`
	}

	QueryDexScreenerResponse struct {
		Pairs []DexScreenerPair `json:"pairs"`
	}

	DexScreener struct {
		api   string
		http  *http.Client
		cache *cache.Cache[[]byte]
	}
)

const (
	DexScreenerAPI = "https://api.dexscreener.com"

	MaxDuration = 5 * time.Minute
)

func NewDexScreener(api string, c *cache.Cache[[]byte]) *DexScreener {
	return &DexScreener{
		api:   lo.Ternary(api == "", DexScreenerAPI, api),
		http:  &http.Client{Timeout: 10 * time.Second},
		cache: c,
	}
}

func (d *DexScreener) Search(ctx context.Context, query string) ([]DexScreenerPair, error) {
	key := "QueryDexScreener:" + query
	if resp, ok := utils.CacheGet[QueryDexScreenerResponse](ctx, d.cache, key); ok {
		return resp.Pairs, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.api+"/latest/dex/search?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}
	ret, err := d.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer ret.Body.Close()

	body, err := io.ReadAll(ret.Body)
	if err != nil {
		return nil, err
	}
	if ret.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dexscreener: status %d", ret.StatusCode)
	}

	var resp QueryDexScreenerResponse
	if err = json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	utils.CacheSet(ctx, d.cache, key, &resp, MaxDuration)
	return resp.Pairs, nil
}

// RaydiumPairs returns Solana Raydium pair addresses that trade mint against WSOL.
func (d *DexScreener) RaydiumPairs(ctx context.Context, mint string) ([]string, error) {
	pairs, err := d.Search(ctx, mint)
	if err != nil {
		return nil, err
	}

	sol := solana.SolMint.String()
	matched := lo.Filter(pairs, func(p DexScreenerPair, _ int) bool {
		if p.ChainID != "solana" || !strings.HasPrefix(p.DexID, "raydium") {
			return false
		}
		return (p.BaseToken.Address == mint && p.QuoteToken.Address == sol) ||
			(p.QuoteToken.Address == mint && p.BaseToken.Address == sol)
	})
	if len(matched) == 0 {
		return nil, types.ErrNotFound
	}
	return lo.Uniq(lo.Map(matched, func(p DexScreenerPair, _ int) string { return p.PairAddress })), nil
}

// SolPrice returns the USD price of SOL from its most liquid USD-quoted pair.
func (d *DexScreener) SolPrice(ctx context.Context) (decimal.Decimal, error) {
	pairs, err := d.Search(ctx, solana.SolMint.String())
	if err != nil {
		return decimal.Zero, err
	}

	best := decimal.Zero
	price := decimal.Zero
	for _, p := range pairs {
		if p.ChainID != "solana" || p.BaseToken.Address != solana.SolMint.String() || p.Liquidity == nil {
			continue
		}
		v, err := decimal.NewFromString(p.PriceUSD)
		if err != nil {
			continue
		}
		if p.Liquidity.USD.GreaterThan(best) {
			best, price = p.Liquidity.USD, v
		}
	}
	if price.IsZero() {
		return decimal.Zero, types.ErrNotFound
	}
	return price, nil
}
