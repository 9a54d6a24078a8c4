package service

import (
	"context"

	ledgerdomain "github.com/m10djcompany/ledgerlink/internal/ledger/domain"
	"github.com/m10djcompany/ledgerlink/internal/ledger/format"
	"github.com/m10djcompany/ledgerlink/internal/reconcile/domain"
	"gorm.io/gorm"
)

// guard answers "was this reference reconciled before" without opening
// a transaction. It lets the fast path skip the provider call and the
// write lock entirely. The writer repeats the check inside its
// transaction, so a miss here is never a correctness problem.
type guard struct {
	repo ledgerdomain.Repository
}

func (g guard) existing(ctx context.Context, db *gorm.DB, reference string) (*ledgerdomain.Payment, error) {
	return g.repo.FindPaymentByReference(ctx, db, reference)
}

func (g guard) result(payment *ledgerdomain.Payment, reference string) *domain.Result {
	return &domain.Result{
		Outcome:       domain.OutcomeAlreadyLinked,
		Reference:     reference,
		PaymentID:     payment.ID,
		ContactID:     payment.ContactID,
		InvoiceID:     payment.InvoiceID,
		Amount:        payment.TotalAmount,
		AmountDisplay: format.Amount(payment.TotalAmount),
	}
}
