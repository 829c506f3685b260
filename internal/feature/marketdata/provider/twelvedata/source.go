package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marketdata_backend/internal/feature/marketdata/domain"
	"marketdata_backend/internal/feature/marketdata/domain/entity"
	"marketdata_backend/internal/feature/marketdata/provider"
	"marketdata_backend/internal/feature/marketdata/provider/standardize"
	"marketdata_backend/internal/feature/marketdata/provider/twelvedata/dto"
)

// ProviderName identifies this variant in audit logs and bar sources.
const ProviderName = "twelvedata"

// intervals maps canonical timeframes onto Twelve Data interval strings.
var intervals = map[entity.Timeframe]string{
	entity.Timeframe1Min:  "1min",
	entity.Timeframe5Min:  "5min",
	entity.Timeframe15Min: "15min",
	entity.Timeframe30Min: "30min",
	entity.Timeframe1H:    "1h",
	entity.Timeframe4H:    "4h",
	entity.Timeframe1D:    "1day",
	entity.Timeframe1W:    "1week",
	entity.Timeframe1Mo:   "1month",
}

// instrumentTypes maps Twelve Data instrument types onto asset types.
var instrumentTypes = map[string]entity.AssetType{
	"common stock":      entity.AssetTypeStock,
	"etf":               entity.AssetTypeETF,
	"digital currency":  entity.AssetTypeCrypto,
	"physical currency": entity.AssetTypeForex,
	"index":             entity.AssetTypeIndex,
}

// Source fetches historical bars from the Twelve Data API. It implements
// provider.HistoricalSource plus the optional SymbolDescriber and
// SymbolSearcher capabilities.
type Source struct {
	cfg    Config
	client *http.Client
}

var (
	_ provider.HistoricalSource = (*Source)(nil)
	_ provider.SymbolDescriber  = (*Source)(nil)
	_ provider.SymbolSearcher   = (*Source)(nil)
)

// NewSource creates a Twelve Data source with the given configuration and
// HTTP client.
func NewSource(cfg Config, client *http.Client) *Source {
	return &Source{cfg: cfg, client: client}
}

// Name returns the provider name.
func (s *Source) Name() string { return ProviderName }

// Capabilities describes what the Twelve Data API supports.
func (s *Source) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportedTimeframes: []entity.Timeframe{
			entity.Timeframe1Min, entity.Timeframe5Min, entity.Timeframe15Min,
			entity.Timeframe30Min, entity.Timeframe1H, entity.Timeframe4H,
			entity.Timeframe1D, entity.Timeframe1W, entity.Timeframe1Mo,
		},
		SupportedAssetTypes: []entity.AssetType{
			entity.AssetTypeStock, entity.AssetTypeETF, entity.AssetTypeCrypto,
			entity.AssetTypeForex, entity.AssetTypeIndex,
		},
		HasRealTime:        false,
		HasHistorical:      true,
		MaxBarsPerRequest:  5000,
		RateLimitPerMinute: 8,
		RequiresAuth:       true,
		Cost:               "freemium",
	}
}

// FetchHistorical fetches the time series for [start, end) and normalizes it
// into canonical bars. An empty range yields an empty slice, not an error.
func (s *Source) FetchHistorical(ctx context.Context, symbol string, start, end time.Time, tf entity.Timeframe) ([]entity.OHLCVBar, error) {
	interval, ok := intervals[tf]
	if !ok {
		return nil, domain.NewProviderError(ProviderName, domain.ProviderErrUnsupportedTimeframe,
			fmt.Errorf("timeframe %s", tf))
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("start_date", start.UTC().Format("2006-01-02 15:04:05"))
	q.Set("end_date", end.UTC().Format("2006-01-02 15:04:05"))
	q.Set("apikey", s.cfg.APIKey)

	var body dto.TimeSeriesResponse
	if err := s.getJSON(ctx, "/time_series", q, &body); err != nil {
		return nil, err
	}

	if body.Status == "error" {
		// The API reports "no data in the requested range" as an error
		// object. That is an empty-but-valid result for callers.
		if body.Code == 400 && strings.Contains(strings.ToLower(body.Message), "no data") {
			return []entity.OHLCVBar{}, nil
		}
		kind := domain.ProviderErrNetwork
		switch body.Code {
		case 401, 403:
			kind = domain.ProviderErrAuth
		case 429:
			kind = domain.ProviderErrRateLimit
		}
		return nil, domain.NewProviderError(ProviderName, kind, fmt.Errorf("%s", body.Message))
	}

	// Twelve Data returns rows newest-first with string-typed cells;
	// normalization re-sorts, coerces and deduplicates.
	frame := standardize.Frame{
		Columns: []string{"datetime", "open", "high", "low", "close", "volume"},
		Rows:    make([][]any, 0, len(body.Values)),
	}
	for _, v := range body.Values {
		frame.Rows = append(frame.Rows, []any{v.Datetime, v.Open, v.High, v.Low, v.Close, v.Volume})
	}
	bars, err := standardize.Normalize(frame)
	if err != nil {
		return nil, err
	}
	slog.Info("fetched time series", "provider", ProviderName, "symbol", symbol, "interval", interval, "bars", len(bars))
	return bars, nil
}

// DescribeSymbol looks the symbol up via the symbol_search endpoint and
// returns metadata for an exact match, or nil when none exists.
func (s *Source) DescribeSymbol(ctx context.Context, symbol string) (*entity.SymbolMetadata, error) {
	body, err := s.symbolSearch(ctx, symbol)
	if err != nil {
		return nil, err
	}
	for _, d := range body.Data {
		if !strings.EqualFold(d.Symbol, symbol) {
			continue
		}
		assetType, ok := instrumentTypes[strings.ToLower(d.InstrumentType)]
		if !ok {
			assetType = entity.AssetTypeStock
		}
		currency := d.Currency
		if currency == "" {
			currency = "USD"
		}
		return &entity.SymbolMetadata{
			Symbol:    d.Symbol,
			Name:      d.InstrumentName,
			Exchange:  d.Exchange,
			AssetType: assetType,
			Currency:  currency,
			Active:    true,
			Extra:     map[string]any{"country": d.Country},
		}, nil
	}
	return nil, nil
}

// SearchSymbols returns symbols matching the query. Failures are swallowed:
// search is a best-effort lookup and degrades to an empty result.
func (s *Source) SearchSymbols(ctx context.Context, query string, assetType entity.AssetType) []string {
	body, err := s.symbolSearch(ctx, query)
	if err != nil {
		slog.Warn("symbol search failed", "provider", ProviderName, "query", query, "error", err)
		return nil
	}
	var out []string
	for _, d := range body.Data {
		if assetType != "" {
			if t, ok := instrumentTypes[strings.ToLower(d.InstrumentType)]; !ok || t != assetType {
				continue
			}
		}
		out = append(out, d.Symbol)
	}
	return out
}

func (s *Source) symbolSearch(ctx context.Context, query string) (*dto.SymbolSearchResponse, error) {
	q := url.Values{}
	q.Set("symbol", query)
	q.Set("apikey", s.cfg.APIKey)

	var body dto.SymbolSearchResponse
	if err := s.getJSON(ctx, "/symbol_search", q, &body); err != nil {
		return nil, err
	}
	return &body, nil
}

// getJSON performs one GET request and decodes the JSON response, mapping
// transport-level failures onto the provider error taxonomy.
func (s *Source) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := fmt.Sprintf("%s%s?%s", s.cfg.BaseURL, path, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.NewProviderError(ProviderName, domain.ProviderErrBadRequest, err)
	}
	res, err := s.client.Do(req)
	if err != nil {
		return domain.NewProviderError(ProviderName, domain.ProviderErrNetwork, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		return domain.NewProviderError(ProviderName, domain.ProviderErrRateLimit,
			fmt.Errorf("http %d", res.StatusCode))
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return domain.NewProviderError(ProviderName, domain.ProviderErrAuth,
			fmt.Errorf("http %d", res.StatusCode))
	case res.StatusCode >= 400:
		return domain.NewProviderError(ProviderName, domain.ProviderErrNetwork,
			fmt.Errorf("http %d", res.StatusCode))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return domain.NewProviderError(ProviderName, domain.ProviderErrNetwork, err)
	}
	return nil
}
