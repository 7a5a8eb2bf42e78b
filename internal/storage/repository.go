// Package storage holds the process-lifetime state of the receipts app: the
// invoice book and the rate store. Nothing is persisted; every mutation swaps
// in a fresh value under a mutex so readers always see a complete snapshot.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"receipts/internal/core"
)

// InvoiceBook is the ordered invoice list, newest first.
type InvoiceBook struct {
	mu       sync.RWMutex
	invoices []core.Invoice
	newID    func() string
}

func NewInvoiceBook() *InvoiceBook {
	return &InvoiceBook{newID: uuid.NewString}
}

// Create validates the fields, assigns a fresh ID and the next invoice number
// and prepends the invoice to the list.
func (b *InvoiceBook) Create(ctx context.Context, f core.InvoiceFields) (core.Invoice, error) {
	if err := f.Validate(); err != nil {
		return core.Invoice{}, fmt.Errorf("validate invoice: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	inv := core.Invoice{
		ID:            b.newID(),
		InvoiceNumber: fmt.Sprintf("INV-%04d", len(b.invoices)+1),
		Date:          f.Date,
		Amount:        f.Amount,
		Currency:      f.Currency,
		Category:      f.Category,
		Merchant:      f.Merchant,
		ImageURL:      f.ImageURL,
		FileName:      f.FileName,
	}

	next := make([]core.Invoice, 0, len(b.invoices)+1)
	next = append(next, inv)
	next = append(next, b.invoices...)
	b.invoices = next

	slog.DebugContext(ctx, "Invoice stored",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"count", len(next))

	return inv, nil
}

// Delete removes the invoice with the given ID, keeping the order of the rest.
func (b *InvoiceBook) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("delete %s: %w", id, core.ErrInvoiceNotFound)
	}

	next := make([]core.Invoice, 0, len(b.invoices)-1)
	next = append(next, b.invoices[:idx]...)
	next = append(next, b.invoices[idx+1:]...)
	b.invoices = next

	slog.DebugContext(ctx, "Invoice deleted", "invoice_id", id, "count", len(next))
	return nil
}

// SetCategory replaces the category of one invoice.
func (b *InvoiceBook) SetCategory(ctx context.Context, id string, c core.Category) (core.Invoice, error) {
	if !c.Valid() {
		return core.Invoice{}, fmt.Errorf("set category %q: %w", c, core.ErrUnknownCategory)
	}
	return b.update(ctx, id, func(inv *core.Invoice) { inv.Category = c })
}

// SetCurrency relabels the currency of one invoice. The amount is kept as is
// and is from now on read in the new currency.
func (b *InvoiceBook) SetCurrency(ctx context.Context, id string, c core.Currency) (core.Invoice, error) {
	if !c.Valid() {
		return core.Invoice{}, fmt.Errorf("set currency %q: %w", c, core.ErrUnknownCurrency)
	}
	return b.update(ctx, id, func(inv *core.Invoice) { inv.Currency = c })
}

func (b *InvoiceBook) update(ctx context.Context, id string, apply func(*core.Invoice)) (core.Invoice, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.indexOf(id)
	if idx < 0 {
		return core.Invoice{}, fmt.Errorf("update %s: %w", id, core.ErrInvoiceNotFound)
	}

	next := append([]core.Invoice(nil), b.invoices...)
	apply(&next[idx])
	b.invoices = next

	slog.DebugContext(ctx, "Invoice updated", "invoice_id", id)
	return next[idx], nil
}

// Get returns one invoice by ID.
func (b *InvoiceBook) Get(id string) (core.Invoice, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	idx := b.indexOf(id)
	if idx < 0 {
		return core.Invoice{}, false
	}
	return b.invoices[idx], true
}

// Snapshot returns a copy of the list in display order.
func (b *InvoiceBook) Snapshot() []core.Invoice {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Invoice(nil), b.invoices...)
}

// Len returns the number of stored invoices.
func (b *InvoiceBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.invoices)
}

func (b *InvoiceBook) indexOf(id string) int {
	for i, inv := range b.invoices {
		if inv.ID == id {
			return i
		}
	}
	return -1
}
