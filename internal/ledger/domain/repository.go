package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the row-level access layer over the booking ledger
// tables. Lookups return (nil, nil) when no row matches; only real
// store failures surface as errors.
type Repository interface {
	FindLead(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Lead, error)
	FindQuoteSelectionByLead(ctx context.Context, db *gorm.DB, leadID snowflake.ID) (*QuoteSelection, error)
	FindContactSubmission(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ContactSubmission, error)

	// FindPaymentByReference is the idempotency lookup: it matches the
	// dedicated reference column first, then the two historical note
	// forms (exact template and embedded substring).
	FindPaymentByReference(ctx context.Context, db *gorm.DB, reference string) (*Payment, error)

	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	UpdatePayment(ctx context.Context, db *gorm.DB, payment *Payment) error

	UpdateQuoteSelection(ctx context.Context, db *gorm.DB, selection *QuoteSelection) error

	// FindInvoiceForUpdate locks the invoice row for the duration of the
	// surrounding transaction.
	FindInvoiceForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	UpdateInvoiceAggregates(ctx context.Context, db *gorm.DB, invoice *Invoice) error

	// SumPaidPayments totals the Paid payment rows linked to an invoice.
	SumPaidPayments(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (int64, error)
}
