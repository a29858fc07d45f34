package main

import (
	"context"
	"fmt"
	"io"
	"time"
)

const (
	bookOrwell     = "1984"
	bookCatalog    = "9999"
	bookOutOfStock = "5252"
	readerAlice    = "777"
	readerBob      = "123"
)

var now = time.Now

type feeCase struct {
	overdueDays     int
	isBestseller    bool
	isPremiumMember bool
}

// runScenario seeds the catalog and walks through the lending rules, printing each outcome to out.
func runScenario(ctx context.Context, a *app, out io.Writer) error {
	for _, readerID := range []string{readerAlice, readerBob} {
		if err := a.readers.register(ctx, readerID); err != nil {
			return fmt.Errorf("register reader %s: %w", readerID, err)
		}
	}

	a.manager.AddBook(bookOrwell, 10)
	a.manager.AddBook(bookCatalog, 15)
	a.manager.AddBook(bookOutOfStock, 0)

	printCopies(a, out, bookOrwell, bookCatalog, bookOutOfStock)

	borrow(ctx, a, out, bookOrwell, readerAlice)
	borrow(ctx, a, out, bookCatalog, readerBob)
	borrow(ctx, a, out, bookOutOfStock, readerAlice)
	borrow(ctx, a, out, "0000", readerAlice)

	giveBack(ctx, a, out, bookOrwell, readerBob)
	giveBack(ctx, a, out, bookOrwell, readerAlice)
	giveBack(ctx, a, out, bookOrwell, readerAlice)

	if err := a.readers.cancel(ctx, readerBob); err != nil {
		return fmt.Errorf("cancel reader %s: %w", readerBob, err)
	}

	borrow(ctx, a, out, bookOrwell, readerBob)

	printCopies(a, out, bookOrwell, bookCatalog, bookOutOfStock)

	for _, c := range []feeCase{
		{overdueDays: 12},
		{overdueDays: 20, isBestseller: true},
		{overdueDays: 20, isPremiumMember: true},
		{overdueDays: 100, isBestseller: true, isPremiumMember: true},
		{overdueDays: -1},
	} {
		fee, err := a.manager.CalculateDynamicLateFee(c.overdueDays, c.isBestseller, c.isPremiumMember)
		if err != nil {
			_, _ = fmt.Fprintf(out, "late fee days=%d bestseller=%t premium=%t: %v\n",
				c.overdueDays, c.isBestseller, c.isPremiumMember, err)
			continue
		}

		_, _ = fmt.Fprintf(out, "late fee days=%d bestseller=%t premium=%t: %.2f\n",
			c.overdueDays, c.isBestseller, c.isPremiumMember, fee)
	}

	return reportMetrics(a, out)
}

func borrow(ctx context.Context, a *app, out io.Writer, bookID, readerID string) {
	ok := a.manager.BorrowBook(ctx, bookID, readerID)
	_, _ = fmt.Fprintf(out, "borrow %s by %s: %t (available %d)\n", bookID, readerID, ok, a.manager.AvailableCopies(bookID))
}

func giveBack(ctx context.Context, a *app, out io.Writer, bookID, readerID string) {
	ok := a.manager.ReturnBook(ctx, bookID, readerID)
	_, _ = fmt.Fprintf(out, "return %s by %s: %t (available %d)\n", bookID, readerID, ok, a.manager.AvailableCopies(bookID))
}

func printCopies(a *app, out io.Writer, bookIDs ...string) {
	for _, bookID := range bookIDs {
		_, _ = fmt.Fprintf(out, "copies of %s: %d\n", bookID, a.manager.AvailableCopies(bookID))
	}
}

func reportMetrics(a *app, out io.Writer) error {
	if a.promRegistry == nil {
		return nil
	}

	families, err := a.promRegistry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	for _, family := range families {
		_, _ = fmt.Fprintf(out, "metric %s: %d series\n", family.GetName(), len(family.GetMetric()))
	}

	return nil
}
