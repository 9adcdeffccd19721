package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/deepedumate/loan-aggregator-sub000/internal/pkg/httpx"
	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/envutil"
	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/logger"
)

// Client resolves partial university names to ordered suggestion lists.
// An empty list is a normal outcome, not an error.
type Client interface {
	Suggest(ctx context.Context, query string) ([]string, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL: strings.TrimSpace(os.Getenv("PLACES_API_BASE_URL")),
		APIKey:  strings.TrimSpace(os.Getenv("PLACES_API_KEY")),
		Timeout: envutil.Seconds("PLACES_API_TIMEOUT_SECONDS", 10*time.Second),
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
		return nil, fmt.Errorf("missing PLACES_API_BASE_URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &client{
		log:        log.With("client", "PlacesClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type suggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

func (c *client) Suggest(ctx context.Context, query string) ([]string, error) {
	q := url.Values{}
	q.Set("q", strings.TrimSpace(query))
	q.Set("type", "university")
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/suggest?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &httpx.StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed suggestResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode suggestion response: %w", err)
	}
	out := make([]string, 0, len(parsed.Suggestions))
	for _, s := range parsed.Suggestions {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
