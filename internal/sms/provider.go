package sms

import (
	"context"
	"fmt"

	"github.com/will-chou/capstone-community/internal/config"
)

// New builds the configured provider wrapped in a Guarded sender.
func New(ctx context.Context, cfg config.SMSConfig) (*Guarded, error) {
	var next Sender
	switch cfg.Provider {
	case "twilio":
		next = NewTwilio(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.FromNumber)
	case "sns":
		s, err := NewSNS(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		next = s
	case "log":
		next = Log{}
	default:
		return nil, fmt.Errorf("unsupported sms provider %q", cfg.Provider)
	}
	guard := DefaultGuardConfig()
	if cfg.RatePerSecond > 0 {
		guard.RatePerSecond = cfg.RatePerSecond
	}
	if cfg.Burst > 0 {
		guard.Burst = cfg.Burst
	}
	return NewGuarded(cfg.Provider, next, guard), nil
}
