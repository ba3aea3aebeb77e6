package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"solana-mm-brain/internal/domain"
)

// DefaultDexScreenerURL is the public DexScreener API.
const DefaultDexScreenerURL = "https://api.dexscreener.com"

// pumpFunDexID marks pairs still trading on the bonding curve.
const pumpFunDexID = "pumpfun"

// DexScreenerSource reads price, volume and market cap from DexScreener.
type DexScreenerSource struct {
	baseURL string
	client  *http.Client
}

// DexOption configures DexScreenerSource.
type DexOption func(*DexScreenerSource)

// WithDexHTTPClient sets a custom http.Client.
func WithDexHTTPClient(client *http.Client) DexOption {
	return func(s *DexScreenerSource) {
		s.client = client
	}
}

// WithDexTimeout sets the request timeout.
func WithDexTimeout(d time.Duration) DexOption {
	return func(s *DexScreenerSource) {
		s.client.Timeout = d
	}
}

// NewDexScreenerSource creates a DexScreener source.
func NewDexScreenerSource(baseURL string, opts ...DexOption) *DexScreenerSource {
	if baseURL == "" {
		baseURL = DefaultDexScreenerURL
	}
	s := &DexScreenerSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the source name.
func (s *DexScreenerSource) Name() string { return "dexscreener" }

type dexResponse struct {
	Pairs []dexPair `json:"pairs"`
}

type dexPair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
	} `json:"baseToken"`
	PriceNative string             `json:"priceNative"`
	PriceUSD    string             `json:"priceUsd"`
	Volume      map[string]float64 `json:"volume"`
	Liquidity   *struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	FDV       float64 `json:"fdv"`
	MarketCap float64 `json:"marketCap"`
}

func (p dexPair) liquidityUSD() float64 {
	if p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.USD
}

// Fetch queries the pairs of mint and reports the most liquid Solana pair.
// Rate limiting is reported as unavailable; the caller retries next tick.
func (s *DexScreenerSource) Fetch(ctx context.Context, mint string) (*Quote, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/tokens/%s", s.baseURL, url.PathEscape(mint))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: dexscreener: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: dexscreener rate limited (429)", domain.ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: dexscreener status %d: %s", domain.ErrUnavailable, resp.StatusCode, string(body))
	}

	var parsed dexResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	var best *dexPair
	for i := range parsed.Pairs {
		p := &parsed.Pairs[i]
		if p.ChainID != "solana" || p.BaseToken.Address != mint {
			continue
		}
		if best == nil || p.liquidityUSD() > best.liquidityUSD() {
			best = p
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no solana pair for %s", domain.ErrUnavailable, mint)
	}

	q := &Quote{Source: s.Name()}
	if v, ok := parseDecimal(best.PriceNative); ok {
		q.PriceSOL = float(v)
	}
	if v, ok := parseDecimal(best.PriceUSD); ok {
		q.PriceUSD = float(v)
	}
	switch {
	case best.MarketCap > 0:
		q.MarketCapUSD = float(best.MarketCap)
	case best.FDV > 0:
		q.MarketCapUSD = float(best.FDV)
	}
	if v, ok := best.Volume["h24"]; ok {
		q.Volume24hUSD = float(v)
	}
	if v, ok := best.Volume["m5"]; ok {
		q.Volume5mUSD = float(v)
	}
	graduated := best.DexID != pumpFunDexID
	q.BondingComplete = &graduated
	return q, nil
}

func parseDecimal(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}
