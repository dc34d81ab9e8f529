package notify

import (
	"context"

	"go.uber.org/zap"

	"foodline-bot/internal/logger"
)

// Notifier delivers out-of-band messages: order confirmations to the
// buyer and new-order alerts to the operator channel. Failures are
// reported to the caller but must never abort the operation that
// triggered them.
type Notifier interface {
	SendToUser(ctx context.Context, userID int64, text string) error
	SendToOperators(ctx context.Context, text string) error
}

// LogNotifier writes notifications to the structured log. It stands in
// for a chat delivery adapter in environments without one and doubles
// as an audit trail.
type LogNotifier struct {
	operatorIDs []int64
}

func NewLogNotifier(operatorIDs []int64) *LogNotifier {
	return &LogNotifier{operatorIDs: operatorIDs}
}

func (n *LogNotifier) SendToUser(ctx context.Context, userID int64, text string) error {
	logger.FromCtx(ctx).Info("notify user",
		zap.Int64("recipient_id", userID),
		zap.String("text", text),
	)
	return nil
}

func (n *LogNotifier) SendToOperators(ctx context.Context, text string) error {
	log := logger.FromCtx(ctx)
	for _, id := range n.operatorIDs {
		log.Info("notify operator",
			zap.Int64("recipient_id", id),
			zap.String("text", text),
		)
	}
	return nil
}
