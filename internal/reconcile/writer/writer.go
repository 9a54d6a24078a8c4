// Package writer applies a resolved confirmation to the ledger. All
// writes for one confirmation happen inside a single transaction.
package writer

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/m10djcompany/ledgerlink/internal/clock"
	ledgerdomain "github.com/m10djcompany/ledgerlink/internal/ledger/domain"
	"github.com/m10djcompany/ledgerlink/internal/ledger/format"
	stripedomain "github.com/m10djcompany/ledgerlink/internal/providers/stripe/domain"
	"github.com/m10djcompany/ledgerlink/internal/reconcile/domain"
	pkgdb "github.com/m10djcompany/ledgerlink/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// errDuplicateReference aborts the transaction when a concurrent
// writer inserted the same reference first. Handled in Link.
var errDuplicateReference = errors.New("duplicate_reference")

type Params struct {
	fx.In

	Repo  ledgerdomain.Repository
	Node  *snowflake.Node
	Clock clock.Clock
	Log   *zap.Logger
}

type Writer struct {
	repo  ledgerdomain.Repository
	node  *snowflake.Node
	clock clock.Clock
	log   *zap.Logger
}

func New(p Params) *Writer {
	return &Writer{
		repo:  p.Repo,
		node:  p.Node,
		clock: p.Clock,
		log:   p.Log.Named("reconcile.writer"),
	}
}

// Link records the confirmation as a payment row, advances the quote
// selection, and folds the amount into the invoice aggregates. A
// reference that is already recorded is a no-op.
func (w *Writer) Link(ctx context.Context, db *gorm.DB, conf *stripedomain.Confirmation, res *domain.Resolution) (*domain.Result, error) {
	var result *domain.Result

	err := db.Transaction(func(tx *gorm.DB) error {
		existing, err := w.repo.FindPaymentByReference(ctx, tx, conf.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = alreadyLinked(existing, conf.ID, res)
			return nil
		}

		now := w.clock.Now()
		ptype := paymentTypeOf(conf)

		payment := &ledgerdomain.Payment{
			ID:              w.node.Generate(),
			ContactID:       res.ContactID,
			PaymentName:     ledgerdomain.NameForPaymentType(ptype),
			TotalAmount:     conf.Amount,
			PaymentStatus:   ledgerdomain.PaymentStatusPaid,
			PaymentMethod:   ledgerdomain.PaymentMethodCard,
			TransactionDate: datatypes.Date(conf.Created),
			PaymentNotes:    ledgerdomain.NoteForReference(conf.ID),
			PaymentIntentID: conf.ID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if res.Selection != nil {
			payment.InvoiceID = res.Selection.InvoiceID
		}

		if err := w.repo.InsertPayment(ctx, tx, payment); err != nil {
			if pkgdb.IsDuplicateKeyErr(err) {
				return errDuplicateReference
			}
			return err
		}

		if res.Selection != nil {
			if err := w.advanceSelection(ctx, tx, res.Selection, conf, ptype, now); err != nil {
				return err
			}
			if res.Selection.InvoiceID != nil {
				if err := w.applyToInvoice(ctx, tx, *res.Selection.InvoiceID, conf.Amount, now); err != nil {
					return err
				}
			}
		}

		result = &domain.Result{
			Outcome:       domain.OutcomeCreated,
			Reference:     conf.ID,
			PaymentID:     payment.ID,
			LeadID:        res.LeadID,
			ContactID:     res.ContactID,
			InvoiceID:     payment.InvoiceID,
			Amount:        payment.TotalAmount,
			AmountDisplay: format.Amount(payment.TotalAmount),
			Confidence:    res.Confidence,
		}
		return nil
	})

	// Lost the insert race: another writer linked this reference while
	// we held the transaction. Surface it as already linked.
	if errors.Is(err, errDuplicateReference) {
		existing, ferr := w.repo.FindPaymentByReference(ctx, db, conf.ID)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, err
		}
		w.log.Info("reference linked concurrently",
			zap.String("reference", conf.ID))
		return alreadyLinked(existing, conf.ID, res), nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Repair reconciles an already-linked payment row against the current
// provider record. It fixes amount drift, restores the Paid status,
// backfills the reference column on legacy rows, and re-derives the
// invoice aggregates from the payment rows whenever row and aggregates
// disagree. A clean payment row still gets its invoice verified: a
// crash between the payment insert and the invoice update leaves
// exactly that kind of drift behind.
func (w *Writer) Repair(ctx context.Context, db *gorm.DB, payment *ledgerdomain.Payment, conf *stripedomain.Confirmation) (*domain.Result, error) {
	changed := false
	if payment.TotalAmount != conf.Amount {
		w.log.Warn("payment amount drifted from provider record",
			zap.String("reference", conf.ID),
			zap.Int64("stored", payment.TotalAmount),
			zap.Int64("provider", conf.Amount))
		payment.TotalAmount = conf.Amount
		changed = true
	}
	if payment.PaymentStatus != ledgerdomain.PaymentStatusPaid {
		payment.PaymentStatus = ledgerdomain.PaymentStatusPaid
		changed = true
	}
	if payment.PaymentIntentID == "" {
		payment.PaymentIntentID = conf.ID
		changed = true
	}

	if !changed {
		repaired, err := w.verifyInvoice(ctx, db, payment)
		if err != nil {
			return nil, err
		}
		if !repaired {
			return alreadyLinked(payment, conf.ID, nil), nil
		}
	} else {
		err := db.Transaction(func(tx *gorm.DB) error {
			payment.UpdatedAt = w.clock.Now()
			if err := w.repo.UpdatePayment(ctx, tx, payment); err != nil {
				return err
			}
			if payment.InvoiceID != nil {
				return w.rederiveInvoice(ctx, tx, *payment.InvoiceID)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return &domain.Result{
		Outcome:       domain.OutcomeUpdated,
		Reference:     conf.ID,
		PaymentID:     payment.ID,
		ContactID:     payment.ContactID,
		InvoiceID:     payment.InvoiceID,
		Amount:        payment.TotalAmount,
		AmountDisplay: format.Amount(payment.TotalAmount),
	}, nil
}

func (w *Writer) advanceSelection(ctx context.Context, tx *gorm.DB, selection *ledgerdomain.QuoteSelection, conf *stripedomain.Confirmation, ptype ledgerdomain.PaymentType, now time.Time) error {
	// The status reflects the most recently reconciled confirmation:
	// paid only when it was a full payment.
	selection.PaymentStatus = ledgerdomain.QuotePaymentStatusPartial
	if ptype == ledgerdomain.PaymentTypeFull {
		selection.PaymentStatus = ledgerdomain.QuotePaymentStatusPaid
	}

	selection.PaymentIntentID = conf.ID
	selection.PaymentType = ptype
	if ptype == ledgerdomain.PaymentTypeDeposit {
		amount := conf.Amount
		selection.DepositAmount = &amount
	}
	if selection.PaidAt == nil {
		paidAt := now
		selection.PaidAt = &paidAt
	}
	selection.UpdatedAt = now

	return w.repo.UpdateQuoteSelection(ctx, tx, selection)
}

func (w *Writer) applyToInvoice(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID, amount int64, now time.Time) error {
	invoice, err := w.repo.FindInvoiceForUpdate(ctx, tx, invoiceID)
	if err != nil {
		return err
	}
	if invoice == nil {
		// Dangling invoice reference. Record the payment anyway.
		w.log.Warn("selection references missing invoice",
			zap.Int64("invoice_id", int64(invoiceID)))
		return nil
	}

	invoice.AmountPaid += amount
	w.deriveInvoiceStatus(invoice, now)
	return w.repo.UpdateInvoiceAggregates(ctx, tx, invoice)
}

// verifyInvoice compares the invoice aggregates against the payment
// rows and rewrites them on mismatch. Reports whether a repair
// happened.
func (w *Writer) verifyInvoice(ctx context.Context, db *gorm.DB, payment *ledgerdomain.Payment) (bool, error) {
	if payment.InvoiceID == nil {
		return false, nil
	}

	repaired := false
	err := db.Transaction(func(tx *gorm.DB) error {
		invoice, err := w.repo.FindInvoiceForUpdate(ctx, tx, *payment.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return nil
		}

		paid, err := w.repo.SumPaidPayments(ctx, tx, invoice.ID)
		if err != nil {
			return err
		}
		balance := invoice.TotalAmount - paid
		if balance < 0 {
			balance = 0
		}
		if invoice.AmountPaid == paid && invoice.BalanceDue == balance {
			return nil
		}

		w.log.Warn("invoice aggregates drifted from payment rows",
			zap.Int64("invoice_id", int64(invoice.ID)),
			zap.Int64("stored", invoice.AmountPaid),
			zap.Int64("derived", paid))
		invoice.AmountPaid = paid
		w.deriveInvoiceStatus(invoice, w.clock.Now())
		repaired = true
		return w.repo.UpdateInvoiceAggregates(ctx, tx, invoice)
	})
	return repaired, err
}

func (w *Writer) rederiveInvoice(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) error {
	invoice, err := w.repo.FindInvoiceForUpdate(ctx, tx, invoiceID)
	if err != nil {
		return err
	}
	if invoice == nil {
		return nil
	}

	paid, err := w.repo.SumPaidPayments(ctx, tx, invoiceID)
	if err != nil {
		return err
	}

	invoice.AmountPaid = paid
	w.deriveInvoiceStatus(invoice, w.clock.Now())
	return w.repo.UpdateInvoiceAggregates(ctx, tx, invoice)
}

// deriveInvoiceStatus recomputes balance and status from AmountPaid.
// A Paid invoice never reverts and PaidDate is set only on the
// transition into Paid.
func (w *Writer) deriveInvoiceStatus(invoice *ledgerdomain.Invoice, now time.Time) {
	balance := invoice.TotalAmount - invoice.AmountPaid
	if balance < 0 {
		balance = 0
	}
	invoice.BalanceDue = balance

	settled := invoice.TotalAmount > 0 && invoice.AmountPaid >= invoice.TotalAmount
	switch {
	case invoice.InvoiceStatus == ledgerdomain.InvoiceStatusPaid:
		// terminal
	case settled:
		invoice.InvoiceStatus = ledgerdomain.InvoiceStatusPaid
		paidDate := now
		invoice.PaidDate = &paidDate
	case invoice.AmountPaid > 0:
		invoice.InvoiceStatus = ledgerdomain.InvoiceStatusPartial
	}
	invoice.UpdatedAt = now
}

func paymentTypeOf(conf *stripedomain.Confirmation) ledgerdomain.PaymentType {
	if conf.PaymentType() == string(ledgerdomain.PaymentTypeDeposit) {
		return ledgerdomain.PaymentTypeDeposit
	}
	return ledgerdomain.PaymentTypeFull
}

func alreadyLinked(payment *ledgerdomain.Payment, reference string, res *domain.Resolution) *domain.Result {
	result := &domain.Result{
		Outcome:       domain.OutcomeAlreadyLinked,
		Reference:     reference,
		PaymentID:     payment.ID,
		ContactID:     payment.ContactID,
		InvoiceID:     payment.InvoiceID,
		Amount:        payment.TotalAmount,
		AmountDisplay: format.Amount(payment.TotalAmount),
	}
	if res != nil {
		result.LeadID = res.LeadID
		result.Confidence = res.Confidence
	}
	return result
}
