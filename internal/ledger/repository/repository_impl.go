package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/m10djcompany/ledgerlink/internal/ledger/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindLead(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Lead, error) {
	var item domain.Lead
	err := db.WithContext(ctx).Raw(
		`SELECT id, first_name, last_name, email, phone, created_at
		 FROM leads
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindQuoteSelectionByLead(ctx context.Context, db *gorm.DB, leadID snowflake.ID) (*domain.QuoteSelection, error) {
	var item domain.QuoteSelection
	err := db.WithContext(ctx).Raw(
		`SELECT id, lead_id, contact_submission_id, invoice_id, payment_status,
			payment_intent_id, payment_type, deposit_amount, paid_at, created_at, updated_at
		 FROM quote_selections
		 WHERE lead_id = ?
		 LIMIT 1`,
		leadID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindContactSubmission(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ContactSubmission, error) {
	var item domain.ContactSubmission
	err := db.WithContext(ctx).Raw(
		`SELECT id, lead_id, contact_id, created_at
		 FROM contact_submissions
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

// likeEscaper neutralizes LIKE wildcards in references so a "_" in an
// id matches literally.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (r *repo) FindPaymentByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.Payment, error) {
	var item domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT id, contact_id, invoice_id, payment_name, total_amount, payment_status,
			payment_method, transaction_date, payment_notes, payment_intent_id,
			created_at, updated_at
		 FROM payments
		 WHERE payment_intent_id = ?
		    OR payment_notes = ?
		    OR payment_notes LIKE ? ESCAPE '!'
		 ORDER BY created_at DESC
		 LIMIT 1`,
		reference,
		domain.NoteForReference(reference),
		"%"+likeEscaper.Replace(reference)+"%",
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) UpdatePayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET contact_id = ?, invoice_id = ?, payment_name = ?, total_amount = ?,
			payment_status = ?, payment_notes = ?, payment_intent_id = ?, updated_at = ?
		 WHERE id = ?`,
		payment.ContactID,
		payment.InvoiceID,
		payment.PaymentName,
		payment.TotalAmount,
		payment.PaymentStatus,
		payment.PaymentNotes,
		payment.PaymentIntentID,
		payment.UpdatedAt,
		payment.ID,
	).Error
}

func (r *repo) UpdateQuoteSelection(ctx context.Context, db *gorm.DB, selection *domain.QuoteSelection) error {
	return db.WithContext(ctx).Exec(
		`UPDATE quote_selections
		 SET payment_status = ?, payment_intent_id = ?, payment_type = ?,
			deposit_amount = ?, paid_at = ?, updated_at = ?
		 WHERE id = ?`,
		selection.PaymentStatus,
		selection.PaymentIntentID,
		selection.PaymentType,
		selection.DepositAmount,
		selection.PaidAt,
		selection.UpdatedAt,
		selection.ID,
	).Error
}

func (r *repo) FindInvoiceForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	tx := db.WithContext(ctx)
	// sqlite has no row locks; its single-writer model covers the transaction.
	if tx.Dialector.Name() != "sqlite" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var item domain.Invoice
	err := tx.Table("invoices").Where("id = ?", id).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repo) UpdateInvoiceAggregates(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET amount_paid = ?, balance_due = ?, invoice_status = ?, paid_date = ?, updated_at = ?
		 WHERE id = ?`,
		invoice.AmountPaid,
		invoice.BalanceDue,
		invoice.InvoiceStatus,
		invoice.PaidDate,
		invoice.UpdatedAt,
		invoice.ID,
	).Error
}

func (r *repo) SumPaidPayments(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(total_amount), 0)
		 FROM payments
		 WHERE invoice_id = ? AND payment_status = ?`,
		invoiceID,
		domain.PaymentStatusPaid,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
