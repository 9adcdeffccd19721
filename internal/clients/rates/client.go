package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/deepedumate/loan-aggregator-sub000/internal/domain"
	"github.com/deepedumate/loan-aggregator-sub000/internal/pkg/httpx"
	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/envutil"
	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/logger"
)

// Client fetches an exchange-rate table relative to a base currency. Rates
// are used for display only; stored cost values never change currency.
type Client interface {
	Fetch(ctx context.Context, baseCurrency string) (*domain.RateTable, error)
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL:    strings.TrimSpace(os.Getenv("EXCHANGE_API_BASE_URL")),
		Timeout:    envutil.Seconds("EXCHANGE_API_TIMEOUT_SECONDS", 10*time.Second),
		MaxRetries: envutil.Int("EXCHANGE_API_MAX_RETRIES", 2),
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("missing EXCHANGE_API_BASE_URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:        log.With("client", "RateClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func (c *client) Fetch(ctx context.Context, baseCurrency string) (*domain.RateTable, error) {
	base := strings.ToUpper(strings.TrimSpace(baseCurrency))
	if base == "" {
		return nil, fmt.Errorf("base currency required")
	}
	endpoint := c.cfg.BaseURL + "/v1/latest?base=" + base

	var lastErr error
	attempts := c.cfg.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(httpx.JitterSleep(time.Duration(attempt) * 400 * time.Millisecond)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if !httpx.IsRetryableError(err) {
				return nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			serr := &httpx.StatusError{Status: resp.StatusCode, Body: string(body)}
			lastErr = serr
			if !httpx.IsRetryableHTTPStatus(resp.StatusCode) {
				return nil, serr
			}
			continue
		}

		var parsed ratesResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("decode exchange-rate response: %w", err)
		}
		if len(parsed.Rates) == 0 {
			return nil, fmt.Errorf("empty rate table for base %s", base)
		}
		table := &domain.RateTable{Base: base, Rates: make(map[string]float64, len(parsed.Rates))}
		for code, rate := range parsed.Rates {
			table.Rates[strings.ToUpper(strings.TrimSpace(code))] = rate
		}
		return table, nil
	}
	return nil, lastErr
}
