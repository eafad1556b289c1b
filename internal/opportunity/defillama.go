package opportunity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"superyield/internal/cache"
)

const defaultDefiLlamaURL = "https://yields.llama.fi"

// Pool is the subset of a DefiLlama yields pool we use.
type Pool struct {
	Pool    string  `json:"pool"`
	Chain   string  `json:"chain"`
	Project string  `json:"project"`
	Symbol  string  `json:"symbol"`
	TVLUsd  float64 `json:"tvlUsd"`
	APY     float64 `json:"apy"`
}

type poolsResponse struct {
	Status string `json:"status"`
	Data   []Pool `json:"data"`
}

// PoolSource looks up pools by id.
type PoolSource interface {
	Pools(ctx context.Context, ids []string) (map[string]Pool, error)
}

// DefiLlama fetches pool yields. Each requested pool is cached separately so
// the large /pools payload is only downloaded on a miss.
type DefiLlama struct {
	BaseURL string
	HTTP    *http.Client
	Cache   cache.Store
	TTL     time.Duration
	Logger  *zap.Logger
}

func (c *DefiLlama) Pools(ctx context.Context, ids []string) (map[string]Pool, error) {
	out := make(map[string]Pool, len(ids))
	var missing []string
	for _, id := range ids {
		if p, ok := c.cached(ctx, id); ok {
			out[id] = p
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	all, err := c.fetch(ctx)
	if err != nil {
		return out, err
	}
	want := make(map[string]struct{}, len(missing))
	for _, id := range missing {
		want[id] = struct{}{}
	}
	for _, p := range all {
		if _, ok := want[p.Pool]; !ok {
			continue
		}
		out[p.Pool] = p
		c.store(ctx, p)
	}
	return out, nil
}

func (c *DefiLlama) fetch(ctx context.Context) ([]Pool, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultDefiLlamaURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/pools", nil)
	if err != nil {
		return nil, fmt.Errorf("defillama: create request: %w", err)
	}
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("defillama: fetch pools: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("defillama: fetch pools: status %d", resp.StatusCode)
	}

	var body poolsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("defillama: decode pools: %w", err)
	}
	return body.Data, nil
}

func (c *DefiLlama) cached(ctx context.Context, id string) (Pool, bool) {
	if c.Cache == nil {
		return Pool{}, false
	}
	raw, ok, err := c.Cache.Get(ctx, cacheKey(id))
	if err != nil || !ok {
		if err != nil && c.Logger != nil {
			c.Logger.Warn("defillama: cache get failed", zap.String("pool", id), zap.Error(err))
		}
		return Pool{}, false
	}
	var p Pool
	if err := json.Unmarshal(raw, &p); err != nil {
		return Pool{}, false
	}
	return p, true
}

func (c *DefiLlama) store(ctx context.Context, p Pool) {
	if c.Cache == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.Cache.Set(ctx, cacheKey(p.Pool), raw, c.TTL); err != nil && c.Logger != nil {
		c.Logger.Warn("defillama: cache set failed", zap.String("pool", p.Pool), zap.Error(err))
	}
}

func cacheKey(id string) string { return "defillama:pool:" + id }
