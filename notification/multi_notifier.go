package notification

import (
	"context"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// MultiNotifier delivers every notification to each of its notifiers, in order.
type MultiNotifier struct {
	notifiers []lending.Notifier
}

// NewMultiNotifier creates a MultiNotifier. Nil notifiers are rejected.
func NewMultiNotifier(notifiers ...lending.Notifier) (*MultiNotifier, error) {
	for _, n := range notifiers {
		if n == nil {
			return nil, ErrNilNotifier
		}
	}

	return &MultiNotifier{notifiers: append([]lending.Notifier(nil), notifiers...)}, nil
}

// Notify implements lending.Notifier.
func (m *MultiNotifier) Notify(ctx context.Context, readerID string, message string) {
	for _, n := range m.notifiers {
		n.Notify(ctx, readerID, message)
	}
}

var _ lending.Notifier = (*MultiNotifier)(nil)
