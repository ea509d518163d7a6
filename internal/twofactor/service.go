// Package twofactor issues SMS one-time codes and the opaque tokens that
// prove a user completed the code challenge.
package twofactor

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/will-chou/capstone-community/internal/sms"
	"github.com/will-chou/capstone-community/internal/tokens"
	"github.com/will-chou/capstone-community/pkg/metrics"
)

var (
	ErrInvalidIdentity = errors.New("identity has no email")
	ErrNoPhone         = errors.New("no phone number on record")
	ErrDelivery        = errors.New("code delivery failed")
	ErrNoSession       = errors.New("no session found")
	ErrIncorrectCode   = errors.New("incorrect code")
	ErrUnauthorized    = errors.New("two-factor token rejected")
)

// PhoneLookup resolves the registered phone number of a user.
type PhoneLookup interface {
	PhoneFor(ctx context.Context, email string) (string, error)
}

// Config holds session lifetimes and the brute-force limit.
type Config struct {
	CodeTTL     time.Duration
	SessionTTL  time.Duration
	MaxAttempts int
}

// Service implements init, completion and validation of two-factor sessions.
type Service struct {
	repo   Repository
	phones PhoneLookup
	sender sms.Sender
	cfg    Config
	now    func() time.Time
}

func NewService(repo Repository, phones PhoneLookup, sender sms.Sender, cfg Config) *Service {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 10 * time.Minute
	}
	if cfg.SessionTTL < cfg.CodeTTL {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Service{repo: repo, phones: phones, sender: sender, cfg: cfg, now: time.Now}
}

func codeMessage(code string) string {
	return "Your community login code: " + code
}

// Init replaces the session of email with a fresh one and texts its code to
// the registered phone. It returns the new session id.
func (s *Service) Init(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", ErrInvalidIdentity
	}
	code, err := tokens.NewCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	token, err := tokens.NewAuthToken()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	now := s.now().UTC()
	sess := &Session{
		Email:         email,
		SessionID:     tokens.NewSessionID(),
		Code:          code,
		Token:         token,
		CreatedAt:     now,
		CodeExpiresAt: now.Add(s.cfg.CodeTTL),
		ExpiresAt:     now.Add(s.cfg.SessionTTL),
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		metrics.TwoFactorOutcomes.WithLabelValues("init", "store_error").Inc()
		return "", fmt.Errorf("save session: %w", err)
	}

	phone, err := s.phones.PhoneFor(ctx, email)
	if err != nil {
		metrics.TwoFactorOutcomes.WithLabelValues("init", "no_phone").Inc()
		return "", fmt.Errorf("%w: %v", ErrNoPhone, err)
	}
	to, err := sms.E164US(phone)
	if err != nil {
		metrics.TwoFactorOutcomes.WithLabelValues("init", "no_phone").Inc()
		return "", fmt.Errorf("%w: %v", ErrNoPhone, err)
	}
	if _, err := s.sender.Send(ctx, to, codeMessage(code)); err != nil {
		metrics.TwoFactorOutcomes.WithLabelValues("init", "delivery_error").Inc()
		return "", fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	metrics.TwoFactorOutcomes.WithLabelValues("init", "ok").Inc()
	return sess.SessionID, nil
}

// Complete checks code against the session sessionID of email and, on a
// match, consumes the code and returns the session token.
func (s *Service) Complete(ctx context.Context, email, sessionID, code string) (string, error) {
	token, err := s.complete(ctx, email, sessionID, code)
	result := "ok"
	switch {
	case errors.Is(err, ErrNoSession):
		result = "no_session"
	case errors.Is(err, ErrIncorrectCode):
		result = "incorrect_code"
	case err != nil:
		result = "error"
	}
	metrics.TwoFactorOutcomes.WithLabelValues("complete", result).Inc()
	return token, err
}

func (s *Service) complete(ctx context.Context, email, sessionID, code string) (string, error) {
	sess, err := s.repo.Get(ctx, email)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	now := s.now()
	if sess == nil || !now.Before(sess.ExpiresAt) {
		return "", ErrNoSession
	}
	if sess.SessionID != sessionID || sess.CodeUsed || !now.Before(sess.CodeExpiresAt) {
		return "", ErrIncorrectCode
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(sess.Code)) != 1 {
		n, err := s.repo.IncrementAttempts(ctx, email, sessionID)
		if err != nil {
			return "", fmt.Errorf("record attempt: %w", err)
		}
		if n >= s.cfg.MaxAttempts {
			if err := s.repo.Delete(ctx, email, sessionID); err != nil {
				return "", fmt.Errorf("drop session: %w", err)
			}
		}
		return "", ErrIncorrectCode
	}
	ok, err := s.repo.ConsumeCode(ctx, email, sessionID)
	if err != nil {
		return "", fmt.Errorf("consume code: %w", err)
	}
	if !ok {
		return "", ErrIncorrectCode
	}
	return sess.Token, nil
}

// Validate accepts token when it is the current token of email's live session.
func (s *Service) Validate(ctx context.Context, email, token string) error {
	if email == "" || token == "" {
		return ErrUnauthorized
	}
	sess, err := s.repo.Get(ctx, email)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if sess == nil || !s.now().Before(sess.ExpiresAt) {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(sess.Token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}
