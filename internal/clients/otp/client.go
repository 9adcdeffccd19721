package otp

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

// Client talks to the SMS OTP gateway. Failures are surfaced as errors with
// user-presentable messages; the controller decides how to re-prompt.
type Client interface {
	Send(ctx context.Context, phone string) (*SendAck, error)
	Verify(ctx context.Context, phone, code string) (*VerifyResult, error)
}

type SendAck struct {
	RequestID string `json:"request_id"`
}

type VerifyResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

type Config struct {
	BaseURL   string
	AccountID string
	AuthToken string
	Timeout   time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL:   strings.TrimSpace(os.Getenv("OTP_GATEWAY_BASE_URL")),
		AccountID: strings.TrimSpace(os.Getenv("OTP_GATEWAY_ACCOUNT_ID")),
		AuthToken: strings.TrimSpace(os.Getenv("OTP_GATEWAY_AUTH_TOKEN")),
		Timeout:   envutil.Seconds("OTP_GATEWAY_TIMEOUT_SECONDS", 15*time.Second),
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
		return nil, fmt.Errorf("missing OTP_GATEWAY_BASE_URL")
	}
	if cfg.AccountID == "" {
		return nil, fmt.Errorf("missing OTP_GATEWAY_ACCOUNT_ID")
	}
	if cfg.AuthToken == "" {
		return nil, fmt.Errorf("missing OTP_GATEWAY_AUTH_TOKEN")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &client{
		log:        log.With("client", "OTPClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func (c *client) Send(ctx context.Context, phone string) (*SendAck, error) {
	form := url.Values{}
	form.Set("to", phone)

	var ack SendAck
	if err := c.postForm(ctx, "/v1/otp/send", form, &ack); err != nil {
		return nil, err
	}
	c.log.Debug("OTP sent", "phone", phone, "request_id", ack.RequestID)
	return &ack, nil
}

func (c *client) Verify(ctx context.Context, phone, code string) (*VerifyResult, error) {
	form := url.Values{}
	form.Set("to", phone)
	form.Set("code", code)

	var result VerifyResult
	if err := c.postForm(ctx, "/v1/otp/verify", form, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// postForm issues a single authenticated request. OTP operations are not
// retried; the UI disables re-submission while a call is in flight and a
// duplicate send would burn the resend cooldown.
func (c *client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.cfg.AccountID, c.cfg.AuthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &httpx.StatusError{Status: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode OTP gateway response: %w", err)
	}
	return nil
}
