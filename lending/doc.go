// Package lending provides an in-memory lending manager for a public library:
// book inventory, borrow/return eligibility and the dynamic late fee.
//
// The Manager owns two pieces of state, the catalog (book ID -> available copies) and
// the loans (book ID -> reader ID). It depends on two narrow collaborators that callers
// supply: an ActivityChecker that tells whether a reader may transact, and a Notifier that
// delivers messages to readers. Business rejections (unknown book, inactive reader,
// no copies left, foreign return) are reported as false, not as errors.
//
// Common usage pattern:
//
//	manager, err := lending.NewManager(checker, notifier,
//		lending.WithContextualLogger(logger),
//		lending.WithMetrics(collector),
//	)
//	if err != nil {
//		// handle error
//	}
//
//	manager.AddBook("1984", 10)
//
//	if manager.BorrowBook(ctx, "1984", "777") {
//		// the reader holds the loan slot for "1984" now
//	}
//
//	fee, err := lending.CalculateDynamicLateFee(12, false, false) // 6
//
// The loan model keeps one loan slot per book ID. A second successful borrow of the same
// book ID replaces the slot, so only the latest borrower can return it.
package lending
