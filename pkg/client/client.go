// Package client provides the CMDB ESB gateway client with response
// caching, error classification, and structured logging.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Sternrassler/cmdb-inventory-client/pkg/cache"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for CMDB client operations.
var (
	cmdbRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmdb_requests_total",
		Help: "Total CMDB requests by API and status",
	}, []string{"api", "status"})

	cmdbRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cmdb_request_duration_seconds",
		Help:    "CMDB request duration in seconds by API",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"api"})

	cmdbErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmdb_errors_total",
		Help: "Total CMDB errors by class",
	}, []string{"class"})
)

// Client is the CMDB ESB gateway client.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the ESB gateway, e.g. "https://paas.example.com".
	BaseURL string `validate:"required,url"`

	// AppCode and AppSecret are the ESB application credentials, merged
	// into every request body as bk_app_code / bk_app_secret.
	AppCode   string `validate:"required"`
	AppSecret string `validate:"required"`

	// User is the bk_username requests are issued as.
	User string `validate:"required"`

	// Redis enables response caching. A nil client disables caching;
	// every call then goes to the gateway.
	Redis *redis.Client

	// CacheTTL is how long responses stay cached.
	CacheTTL time.Duration

	// Timeout per HTTP request.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, appCode, appSecret, user string) Config {
	return Config{
		BaseURL:   baseURL,
		AppCode:   appCode,
		AppSecret: appSecret,
		User:      user,
		CacheTTL:  60 * time.Second,
		Timeout:   30 * time.Second,
	}
}

// New creates a new CMDB client.
func New(cfg Config) (*Client, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 60 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "cmdb-client").Logger()

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager = cache.NewManager(cfg.Redis)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:  cacheManager,
		config: cfg,
		logger: logger,
	}, nil
}

// apiURL returns the ESB path for a CMDB method name.
func (c *Client) apiURL(api string) string {
	return fmt.Sprintf("%s/api/c/compapi/v2/cc/%s/", strings.TrimRight(c.config.BaseURL, "/"), api)
}

// Call performs one CMDB API request and decodes the response envelope into
// out. The ESB credentials are merged into the request body; params must not
// use the reserved bk_app_code, bk_app_secret, or bk_username keys.
//
// Call reports transport and HTTP-level failures as errors. Application-level
// failures (envelope with result=false) decode successfully; interpreting the
// result flag is the caller's job.
func (c *Client) Call(ctx context.Context, api string, params map[string]any, out any) error {
	startTime := time.Now()
	defer func() {
		cmdbRequestDuration.WithLabelValues(api).Observe(time.Since(startTime).Seconds())
	}()

	body := make(map[string]any, len(params)+3)
	for k, v := range params {
		body[k] = v
	}
	body["bk_app_code"] = c.config.AppCode
	body["bk_app_secret"] = c.config.AppSecret
	body["bk_username"] = c.config.User

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	// Step 1: Check Cache
	key := cache.Key{API: api, Body: payload}
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("api", api).Msg("Cache get error")
		}
		if entry != nil {
			c.logger.Debug().
				Str("api", api).
				Dur("age", time.Since(entry.CachedAt)).
				Msg("Serving response from cache")
			cmdbRequestsTotal.WithLabelValues(api, "cache").Inc()
			return json.Unmarshal(entry.Data, out)
		}
	}

	// Step 2: Execute HTTP request
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL(api), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("api", api).
		Msg("Executing CMDB request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cmdbErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		cmdbRequestsTotal.WithLabelValues(api, "network_error").Inc()
		c.logger.Error().Err(err).Str("api", api).Msg("HTTP request failed")
		return &APIError{API: api, ErrorClass: ErrorClassNetwork, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		cmdbErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return fmt.Errorf("read %s response: %w", api, err)
	}

	cmdbRequestsTotal.WithLabelValues(api, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		errClass := classifyStatus(resp.StatusCode)
		cmdbErrorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("api", api).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("CMDB request error")
		return &APIError{
			API:        api,
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
	}

	// Step 3: Update cache on success
	if c.cache != nil {
		if err := c.cache.Set(ctx, key, cache.NewEntry(data, c.config.CacheTTL)); err != nil {
			c.logger.Warn().Err(err).Str("api", api).Msg("Failed to cache response")
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", api, err)
	}
	return nil
}

// Close closes the client and releases resources. The Redis client is owned
// by the caller and is not closed here.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
