package lending

import (
	"context"
	"sync"
	"time"
)

const (
	logMsgNegativeAmountIgnored = "copy reduction below zero ignored"
)

// Manager tracks book inventory and outstanding loans and enforces the borrow/return rules.
// A single mutex guards the catalog and the loans, so a Manager is safe for concurrent use.
// The collaborators are called without holding the lock.
type Manager struct {
	mu      sync.Mutex
	catalog map[string]int
	loans   map[string]string

	activityChecker ActivityChecker
	notifier        Notifier

	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// NewManager creates a Manager with an empty catalog and the given collaborators.
func NewManager(activityChecker ActivityChecker, notifier Notifier, opts ...Option) (*Manager, error) {
	if activityChecker == nil {
		return nil, ErrNilActivityChecker
	}

	if notifier == nil {
		return nil, ErrNilNotifier
	}

	m := &Manager{
		catalog:         make(map[string]int),
		loans:           make(map[string]string),
		activityChecker: activityChecker,
		notifier:        notifier,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// AddBook adds copies of a book to the catalog, creating the entry on first use.
// Adding zero copies still creates the entry. A negative amount reduces the count,
// unless it would drop the available copies below zero: then it is ignored.
func (m *Manager) AddBook(bookID string, copies int) {
	ctx := context.Background()
	o := observation{operation: OperationAddBook, bookID: bookID, started: time.Now()}

	m.mu.Lock()

	if m.catalog[bookID]+copies < 0 {
		if _, known := m.catalog[bookID]; !known {
			m.catalog[bookID] = 0
		}
		o.copies = m.catalog[bookID]
		m.mu.Unlock()

		m.warn(ctx, logMsgNegativeAmountIgnored, LogAttrBookID, bookID, LogAttrCopies, copies)
		o.outcome = OutcomeIgnoredNegativeAmount
		m.observe(ctx, o, false)

		return
	}

	m.catalog[bookID] += copies
	o.copies = m.catalog[bookID]
	m.mu.Unlock()

	o.outcome = OutcomeAdded
	m.observe(ctx, o, true)
}

// AvailableCopies returns the number of copies currently available for bookID.
// Unknown books report 0, the same as cataloged books without stock; use HasBook to tell them apart.
func (m *Manager) AvailableCopies(bookID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.catalog[bookID]
}

// HasBook reports whether bookID was ever added to the catalog.
func (m *Manager) HasBook(bookID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, known := m.catalog[bookID]

	return known
}

// Borrower returns the reader holding the loan slot of bookID, if any.
func (m *Manager) Borrower(bookID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	readerID, lent := m.loans[bookID]

	return readerID, lent
}

// BorrowBook lends one copy of bookID to readerID.
//
// Business Rules (checked in this order, the first failing rule wins):
//
//	REJECT: the book is not in the catalog (no collaborator is called)
//	REJECT: the reader is not active (the reader is notified that the account is not active)
//	REJECT: no copies are available (no notification)
//	SUCCESS: one copy is taken, the loan slot is assigned to the reader and the reader is notified
func (m *Manager) BorrowBook(ctx context.Context, bookID string, readerID string) bool {
	ctx, span := m.startSpan(ctx, SpanNameBorrowBook, bookID, readerID)
	o := observation{operation: OperationBorrowBook, bookID: bookID, readerID: readerID, started: time.Now(), span: span}

	// Catalog entries are never removed, so a positive answer stays valid while the reader is checked.
	if !m.HasBook(bookID) {
		o.outcome = OutcomeBookUnknown
		m.observe(ctx, o, false)

		return false
	}

	if !m.activityChecker.IsActive(ctx, readerID) {
		m.notifier.Notify(ctx, readerID, MsgAccountNotActive)

		o.outcome = OutcomeReaderInactive
		o.copies = m.AvailableCopies(bookID)
		m.observe(ctx, o, false)

		return false
	}

	m.mu.Lock()

	if m.catalog[bookID] == 0 {
		m.mu.Unlock()

		o.outcome = OutcomeNoCopiesAvailable
		m.observe(ctx, o, false)

		return false
	}

	m.catalog[bookID]--
	m.loans[bookID] = readerID
	o.copies = m.catalog[bookID]
	m.mu.Unlock()

	m.notifier.Notify(ctx, readerID, borrowedMessage(bookID))

	o.outcome = OutcomeBorrowed
	m.observe(ctx, o, true)

	return true
}

// ReturnBook takes back the copy of bookID lent to readerID.
//
// Business Rules:
//
//	REJECT: there is no outstanding loan for the book (no notification)
//	REJECT: the outstanding loan belongs to another reader (nobody is notified)
//	SUCCESS: the copy is available again, the loan slot is freed and the reader is notified
func (m *Manager) ReturnBook(ctx context.Context, bookID string, readerID string) bool {
	ctx, span := m.startSpan(ctx, SpanNameReturnBook, bookID, readerID)
	o := observation{operation: OperationReturnBook, bookID: bookID, readerID: readerID, started: time.Now(), span: span}

	m.mu.Lock()

	borrower, lent := m.loans[bookID]
	if !lent || borrower != readerID {
		o.copies = m.catalog[bookID]
		m.mu.Unlock()

		o.outcome = OutcomeNoLoan
		if lent {
			o.outcome = OutcomeWrongReader
		}
		m.observe(ctx, o, false)

		return false
	}

	m.catalog[bookID]++
	delete(m.loans, bookID)
	o.copies = m.catalog[bookID]
	m.mu.Unlock()

	m.notifier.Notify(ctx, readerID, returnedMessage(bookID))

	o.outcome = OutcomeReturned
	m.observe(ctx, o, true)

	return true
}

// CalculateDynamicLateFee delegates to the package-level CalculateDynamicLateFee.
// It does not touch the Manager state.
func (m *Manager) CalculateDynamicLateFee(overdueDays int, isBestseller bool, isPremiumMember bool) (float64, error) {
	return CalculateDynamicLateFee(overdueDays, isBestseller, isPremiumMember)
}
