package sms

import (
	"context"

	"github.com/google/uuid"
	"github.com/will-chou/capstone-community/pkg/logger"
	"go.uber.org/zap"
)

// Log writes messages to the service log instead of delivering them.
// Development only; config rejects it in production.
type Log struct{}

func (Log) Send(ctx context.Context, to, body string) (string, error) {
	id := "log-" + uuid.NewString()
	logger.L().Info("sms not delivered (log provider)", zap.String("to", to), zap.String("body", body), zap.String("id", id))
	return id, nil
}
