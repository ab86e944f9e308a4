package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

var (
	ErrUpstream  = errors.New("weather upstream request failed")
	ErrMalformed = errors.New("weather upstream returned a malformed payload")
)

// Config configures the National Weather Service client
type Config struct {
	BaseURL           string
	UserAgent         string // api.weather.gov rejects requests without one
	RequestsPerSecond float64
	Burst             int
	CacheSize         int
	CacheTTL          time.Duration
}

// DefaultConfig points at api.weather.gov
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://api.weather.gov",
		UserAgent:         "urban-twin-go",
		RequestsPerSecond: 10,
		Burst:             20,
		CacheSize:         4096,
		CacheTTL:          6 * time.Hour,
	}
}

// Client looks up gridded forecasts and active alerts by position. Point
// metadata rarely changes, so the /points lookup is cached.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	points    *expirable.LRU[string, string]
}

// NewClient creates a client. A nil httpClient uses http.DefaultClient;
// per-request deadlines come from the caller's context.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	size := cfg.CacheSize
	if size < 1 {
		size = 1
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      httpClient,
		limiter:   rate.NewLimiter(limit, burst),
		points:    expirable.NewLRU[string, string](size, nil, cfg.CacheTTL),
	}
}

type pointResponse struct {
	Properties struct {
		ForecastGridData string `json:"forecastGridData"`
	} `json:"properties"`
}

// gridDataURL resolves the forecastGridData URL for a position
func (c *Client) gridDataURL(ctx context.Context, lat, lon float64) (string, error) {
	key := pointKey(lat, lon)
	if u, ok := c.points.Get(key); ok {
		return u, nil
	}

	var resp pointResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/points/%s", c.baseURL, key), &resp); err != nil {
		return "", err
	}
	if resp.Properties.ForecastGridData == "" {
		return "", fmt.Errorf("%w: point %s has no forecastGridData", ErrMalformed, key)
	}

	c.points.Add(key, resp.Properties.ForecastGridData)
	return resp.Properties.ForecastGridData, nil
}

// CachedPoints returns the number of cached point lookups
func (c *Client) CachedPoints() int {
	return c.points.Len()
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, url, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	log.WithFields(log.Fields{
		"url":     url,
		"status":  resp.StatusCode,
		"latency": time.Since(start).String(),
	}).Debug("nws request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrUpstream, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrUpstream, url, err)
	}
	return body, nil
}

// pointKey rounds to the 4 decimal places api.weather.gov accepts
func pointKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}
