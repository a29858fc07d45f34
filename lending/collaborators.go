package lending

import "context"

const (
	// MsgAccountNotActive is sent to a reader whose borrow attempt was rejected because the account is inactive.
	MsgAccountNotActive = "Your account is not active."

	// MsgBookBorrowedPrefix prefixes the book ID in the notification sent after a successful borrow.
	MsgBookBorrowedPrefix = "You have borrowed the book: "

	// MsgBookReturnedPrefix prefixes the book ID in the notification sent after a successful return.
	MsgBookReturnedPrefix = "You have returned the book: "
)

// ActivityChecker tells whether a reader is currently allowed to transact.
// Implementations report their own failures through their own channels and answer false
// when they cannot decide.
type ActivityChecker interface {
	IsActive(ctx context.Context, readerID string) bool
}

// Notifier delivers a message to a reader. The Manager does not inspect the outcome.
type Notifier interface {
	Notify(ctx context.Context, readerID string, message string)
}

// ActivityCheckerFunc adapts a plain function to the ActivityChecker interface.
type ActivityCheckerFunc func(ctx context.Context, readerID string) bool

// IsActive calls f(ctx, readerID).
func (f ActivityCheckerFunc) IsActive(ctx context.Context, readerID string) bool {
	return f(ctx, readerID)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(ctx context.Context, readerID string, message string)

// Notify calls f(ctx, readerID, message).
func (f NotifierFunc) Notify(ctx context.Context, readerID string, message string) {
	f(ctx, readerID, message)
}

func borrowedMessage(bookID string) string {
	return MsgBookBorrowedPrefix + bookID
}

func returnedMessage(bookID string) string {
	return MsgBookReturnedPrefix + bookID
}
