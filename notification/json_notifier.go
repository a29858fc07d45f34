package notification

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// Envelope is the JSON document written for each notification.
type Envelope struct {
	NotificationID string    `json:"notification_id"`
	ReaderID       string    `json:"reader_id"`
	Message        string    `json:"message"`
	SentAt         time.Time `json:"sent_at"`
}

// ErrorHandler receives every delivery failure a notifier swallowed.
type ErrorHandler func(ctx context.Context, readerID string, err error)

// JSONNotifier writes one JSON envelope per line. Concurrent Notify calls never interleave lines.
type JSONNotifier struct {
	mu           sync.Mutex
	writer       io.Writer
	clock        func() time.Time
	newID        func() string
	logger       lending.ContextualLogger
	errorHandler ErrorHandler
}

// Option defines a functional option for configuring a JSONNotifier.
type Option func(*JSONNotifier) error

// WithClock sets the time source for SentAt.
func WithClock(clock func() time.Time) Option {
	return func(n *JSONNotifier) error {
		if clock == nil {
			return ErrNilClock
		}

		n.clock = clock

		return nil
	}
}

// WithLogger sets the logger that reports failed writes at error level.
func WithLogger(logger lending.ContextualLogger) Option {
	return func(n *JSONNotifier) error {
		n.logger = logger
		return nil
	}
}

// WithErrorHandler sets the handler that receives failed writes.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(n *JSONNotifier) error {
		n.errorHandler = handler
		return nil
	}
}

// NewJSONNotifier creates a JSONNotifier appending to writer.
func NewJSONNotifier(writer io.Writer, options ...Option) (*JSONNotifier, error) {
	if writer == nil {
		return nil, ErrNilWriter
	}

	n := &JSONNotifier{
		writer: writer,
		clock:  time.Now,
		newID:  newNotificationID,
	}

	for _, option := range options {
		if err := option(n); err != nil {
			return nil, err
		}
	}

	return n, nil
}

// Notify implements lending.Notifier.
func (n *JSONNotifier) Notify(ctx context.Context, readerID string, message string) {
	envelope := Envelope{
		NotificationID: n.newID(),
		ReaderID:       readerID,
		Message:        message,
		SentAt:         n.clock().UTC(),
	}

	line, err := jsoniter.ConfigFastest.Marshal(envelope)
	if err != nil {
		n.fail(ctx, envelope, fmt.Errorf("encode notification: %w", err))
		return
	}

	line = append(line, '\n')

	n.mu.Lock()
	_, err = n.writer.Write(line)
	n.mu.Unlock()

	if err != nil {
		n.fail(ctx, envelope, fmt.Errorf("write notification: %w", err))
	}
}

func (n *JSONNotifier) fail(ctx context.Context, envelope Envelope, err error) {
	if n.logger != nil {
		n.logger.ErrorContext(ctx, logMsgNotificationFailed,
			logAttrNotificationID, envelope.NotificationID,
			logAttrReaderID, envelope.ReaderID,
			logAttrError, err.Error(),
		)
	}

	if n.errorHandler != nil {
		n.errorHandler(ctx, envelope.ReaderID, err)
	}
}

// newNotificationID returns a time-ordered UUIDv7 and falls back to a random UUIDv4.
func newNotificationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

var _ lending.Notifier = (*JSONNotifier)(nil)
