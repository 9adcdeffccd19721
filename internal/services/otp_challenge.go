package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"

	otpclient "github.com/deepedumate/loan-aggregator-sub000/internal/clients/otp"
	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/logger"
)

// OTPChallenge is the per-conversation verification state. The resend
// countdown is a local monotonic clock comparison, independent of network
// latency: it starts when a send succeeds and can only be restarted by the
// next successful send.
type OTPChallenge struct {
	Phone             string    `json:"-"`
	SentAt            time.Time `json:"sent_at"`
	ResendAvailableAt time.Time `json:"resend_available_at"`
	Verified          bool      `json:"verified"`
}

func (c *OTPChallenge) CanResend(now time.Time) bool {
	return !now.Before(c.ResendAvailableAt)
}

// ResendInSeconds reports the whole seconds left on the cooldown, for the UI
// countdown. Zero means resend is available.
func (c *OTPChallenge) ResendInSeconds(now time.Time) int {
	remaining := c.ResendAvailableAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Seconds()))
}

// OTPService wraps the SMS gateway with the flow's cooldown policy and mints
// the verification token handed out at the end of a successful challenge.
type OTPService interface {
	Send(ctx context.Context, phone string) error
	Verify(ctx context.Context, phone, code string) (*otpclient.VerifyResult, error)
	MintVerificationToken(phone string) (string, error)
	Cooldown() time.Duration
}

type otpService struct {
	log       *logger.Logger
	client    otpclient.Client
	jwtSecret string
	tokenTTL  time.Duration
	cooldown  time.Duration
}

func NewOTPService(log *logger.Logger, client otpclient.Client, jwtSecret string, tokenTTL, cooldown time.Duration) OTPService {
	if tokenTTL <= 0 {
		tokenTTL = 15 * time.Minute
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &otpService{
		log:       log.With("service", "OTPService"),
		client:    client,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		cooldown:  cooldown,
	}
}

func (s *otpService) Cooldown() time.Duration { return s.cooldown }

func (s *otpService) Send(ctx context.Context, phone string) error {
	ack, err := s.client.Send(ctx, phone)
	if err != nil {
		s.log.Warn("OTP send failed", "phone", phone, "error", err)
		return err
	}
	s.log.Info("OTP challenge sent", "phone", phone, "request_id", ack.RequestID)
	return nil
}

func (s *otpService) Verify(ctx context.Context, phone, code string) (*otpclient.VerifyResult, error) {
	result, err := s.client.Verify(ctx, phone, code)
	if err != nil {
		s.log.Warn("OTP verify call failed", "phone", phone, "error", err)
		return nil, err
	}
	return result, nil
}

func (s *otpService) MintVerificationToken(phone string) (string, error) {
	if s.jwtSecret == "" {
		return "", fmt.Errorf("verification token secret not configured")
	}
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":     phone,
		"purpose": "loan_discovery_verified",
		"iat":     now.Unix(),
		"exp":     now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("sign verification token: %w", err)
	}
	return signed, nil
}
