// Package sms delivers text messages through a configured provider.
package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sender delivers one message and returns the provider's delivery id.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

var ErrInvalidNumber = errors.New("invalid phone number")

// E164US formats a ten digit US number as +1XXXXXXXXXX.
func E164US(phone string) (string, error) {
	if len(phone) != 10 || strings.Trim(phone, "0123456789") != "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, phone)
	}
	return "+1" + phone, nil
}
