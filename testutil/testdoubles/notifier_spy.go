package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// SpyNotification represents a recorded Notify call.
type SpyNotification struct {
	ReaderID string
	Message  string
}

// NotifierSpy is a Notifier implementation that captures notifications for testing.
type NotifierSpy struct {
	notifications []SpyNotification
	mu            sync.Mutex
}

// NewNotifierSpy creates a new NotifierSpy.
func NewNotifierSpy() *NotifierSpy {
	return &NotifierSpy{notifications: make([]SpyNotification, 0)}
}

// Notify implements lending.Notifier.
func (s *NotifierSpy) Notify(_ context.Context, readerID string, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, SpyNotification{ReaderID: readerID, Message: message})
}

// Notifications returns a copy of all recorded notifications in call order.
func (s *NotifierSpy) Notifications() []SpyNotification {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpyNotification(nil), s.notifications...)
}

// Count returns the number of recorded notifications.
func (s *NotifierSpy) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.notifications)
}

// CountOf returns how often readerID was sent exactly message.
func (s *NotifierSpy) CountOf(readerID string, message string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, notification := range s.notifications {
		if notification.ReaderID == readerID && notification.Message == message {
			n++
		}
	}

	return n
}

// Reset clears all recorded notifications.
func (s *NotifierSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = s.notifications[:0]
}

var _ lending.Notifier = (*NotifierSpy)(nil)
