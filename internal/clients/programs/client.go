package programs

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

	"github.com/deepedumate/loan-aggregator-sub000/internal/domain"
	"github.com/deepedumate/loan-aggregator-sub000/internal/pkg/httpx"
	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/envutil"
	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/logger"
)

// Client wraps the program-discovery API. Search covers the standard
// university+level lookup; Lookup resolves a free-text program name when the
// student's program is not in the discovered list.
type Client interface {
	Search(ctx context.Context, university, studyLevel string) ([]domain.ProgramOption, error)
	Lookup(ctx context.Context, university, programName string) (*domain.ProgramOption, error)
}

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL:    strings.TrimSpace(os.Getenv("PROGRAM_API_BASE_URL")),
		APIKey:     strings.TrimSpace(os.Getenv("PROGRAM_API_KEY")),
		Timeout:    envutil.Seconds("PROGRAM_API_TIMEOUT_SECONDS", 15*time.Second),
		MaxRetries: envutil.Int("PROGRAM_API_MAX_RETRIES", 2),
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
		return nil, fmt.Errorf("missing PROGRAM_API_BASE_URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:        log.With("client", "ProgramClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type programDTO struct {
	Name          string  `json:"name"`
	DurationYears int     `json:"duration_years"`
	TotalCost     float64 `json:"total_cost"`
	TuitionCost   float64 `json:"tuition_cost"`
	LivingCost    float64 `json:"living_cost"`
}

type searchResponse struct {
	Programs []programDTO `json:"programs"`
	Currency string       `json:"currency"`
}

type lookupResponse struct {
	Program  *programDTO `json:"program"`
	Currency string      `json:"currency"`
}

func (c *client) Search(ctx context.Context, university, studyLevel string) ([]domain.ProgramOption, error) {
	q := url.Values{}
	q.Set("university", strings.TrimSpace(university))
	q.Set("study_level", strings.TrimSpace(studyLevel))

	var resp searchResponse
	if err := c.getJSON(ctx, "/v1/programs/search", q, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.ProgramOption, 0, len(resp.Programs))
	for _, p := range resp.Programs {
		out = append(out, toOption(p, resp.Currency))
	}
	return out, nil
}

func (c *client) Lookup(ctx context.Context, university, programName string) (*domain.ProgramOption, error) {
	q := url.Values{}
	q.Set("university", strings.TrimSpace(university))
	q.Set("program", strings.TrimSpace(programName))

	var resp lookupResponse
	if err := c.getJSON(ctx, "/v1/programs/lookup", q, &resp); err != nil {
		return nil, err
	}
	if resp.Program == nil {
		return nil, fmt.Errorf("program %q not found at %q", programName, university)
	}
	opt := toOption(*resp.Program, resp.Currency)
	return &opt, nil
}

func toOption(p programDTO, currency string) domain.ProgramOption {
	return domain.ProgramOption{
		Name:          p.Name,
		DurationYears: p.DurationYears,
		TotalCost:     p.TotalCost,
		TuitionCost:   p.TuitionCost,
		LivingCost:    p.LivingCost,
		Currency:      strings.ToUpper(strings.TrimSpace(currency)),
	}
}

func (c *client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	endpoint := c.cfg.BaseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var lastErr error
	attempts := c.cfg.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(httpx.JitterSleep(time.Duration(attempt) * 500 * time.Millisecond)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if !httpx.IsRetryableError(err) {
				return err
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
				return serr
			}
			c.log.Warn("program API returned retryable status", "status", resp.StatusCode, "path", path, "attempt", attempt)
			continue
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode program API response: %w", err)
		}
		return nil
	}
	return lastErr
}
