package notification

import (
	"context"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	logMsgNotificationSent   = "reader notified"
	logMsgNotificationFailed = "reader notification failed"
	logAttrReaderID          = "reader_id"
	logAttrMessage           = "message"
	logAttrNotificationID    = "notification_id"
	logAttrError             = "error"
)

// LogNotifier delivers notifications as info log lines.
type LogNotifier struct {
	logger lending.ContextualLogger
}

// NewLogNotifier creates a LogNotifier writing to logger.
func NewLogNotifier(logger lending.ContextualLogger) (*LogNotifier, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &LogNotifier{logger: logger}, nil
}

// Notify implements lending.Notifier.
func (n *LogNotifier) Notify(ctx context.Context, readerID string, message string) {
	n.logger.InfoContext(ctx, logMsgNotificationSent, logAttrReaderID, readerID, logAttrMessage, message)
}

var _ lending.Notifier = (*LogNotifier)(nil)
