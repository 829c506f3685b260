// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"marketdata_backend/internal/feature/marketdata/provider"
	"marketdata_backend/internal/feature/marketdata/provider/twelvedata"
	infrahttp "marketdata_backend/internal/platform/http"
	"marketdata_backend/internal/shared/ratelimiter"
)

// NewProvider creates the fully configured market-data provider adapter.
func NewProvider() *provider.Adapter {
	cfg := twelvedata.LoadConfig()
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return provider.NewAdapter(twelvedata.NewSource(cfg, httpClient))
}

// NewProviderRateLimiter creates a rate limiter matched to the provider's
// declared per-minute limit.
func NewProviderRateLimiter(p *provider.Adapter) *ratelimiter.RateLimiter {
	limit := p.Capabilities().RateLimitPerMinute
	if limit <= 0 {
		limit = 60
	}
	return ratelimiter.NewRateLimiter(limit, time.Minute)
}
