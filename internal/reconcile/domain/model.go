// Package domain holds the reconciliation contracts: what a
// reconciliation run produces and the errors it can surface.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/m10djcompany/ledgerlink/internal/ledger/domain"
)

// Outcome classifies what a single reconciliation did.
type Outcome string

const (
	// OutcomeCreated means a new payment row was written and linked.
	OutcomeCreated Outcome = "created"

	// OutcomeAlreadyLinked means the confirmation was reconciled before
	// and nothing was changed.
	OutcomeAlreadyLinked Outcome = "already_linked"

	// OutcomeUpdated means an existing payment row had drifted from the
	// provider record and was repaired.
	OutcomeUpdated Outcome = "updated"

	// OutcomeSkipped is batch-only: the confirmation was not eligible.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeFailed is batch-only: the item errored and was isolated.
	OutcomeFailed Outcome = "failed"
)

// Confidence tags how the contact identity was derived.
type Confidence string

const (
	// ConfidenceExact means the full submission chain resolved a
	// distinct contact record.
	ConfidenceExact Confidence = "exact"

	// ConfidenceFallback means no chain existed and the lead id was
	// used as the contact id.
	ConfidenceFallback Confidence = "fallback"
)

// Resolution is the identity set a confirmation reconciles against.
type Resolution struct {
	LeadID     snowflake.ID
	ContactID  snowflake.ID
	Confidence Confidence

	// Selection is nil when the lead never accepted a quote. The
	// payment is still recorded against the contact.
	Selection *ledgerdomain.QuoteSelection
}

// Result describes one reconciled confirmation.
type Result struct {
	Outcome       Outcome       `json:"outcome"`
	Reference     string        `json:"reference"`
	PaymentID     snowflake.ID  `json:"payment_id"`
	LeadID        snowflake.ID  `json:"lead_id,omitempty"`
	ContactID     snowflake.ID  `json:"contact_id,omitempty"`
	InvoiceID     *snowflake.ID `json:"invoice_id,omitempty"`
	Amount        int64         `json:"amount"`
	AmountDisplay string        `json:"amount_display"`
	Confidence    Confidence    `json:"confidence,omitempty"`
}

// BatchItem is the per-confirmation record of a batch run.
type BatchItem struct {
	Reference string  `json:"reference"`
	Outcome   Outcome `json:"outcome"`
	Reason    string  `json:"reason,omitempty"`
}

// BatchSummary aggregates a window sweep.
type BatchSummary struct {
	Processed     int         `json:"processed"`
	Created       int         `json:"created"`
	Updated       int         `json:"updated"`
	AlreadyLinked int         `json:"already_linked"`
	Skipped       int         `json:"skipped"`
	Failed        int         `json:"failed"`
	Items         []BatchItem `json:"items"`
}

var (
	// ErrMissingLeadIdentifier: the confirmation carries no usable lead
	// reference in its metadata.
	ErrMissingLeadIdentifier = errors.New("missing_lead_identifier")

	// ErrLeadNotFound: the metadata names a lead the ledger does not have.
	ErrLeadNotFound = errors.New("lead_not_found")

	// ErrNotSucceeded: the confirmation exists but is not in a payable state.
	ErrNotSucceeded = errors.New("confirmation_not_succeeded")

	// ErrNoConfirmationFound: the provider has nothing to reconcile.
	ErrNoConfirmationFound = errors.New("no_confirmation_found")
)

// Service is the reconciliation entry surface.
type Service interface {
	// ReconcileByReference links one confirmation by its external id.
	ReconcileByReference(ctx context.Context, reference string) (*Result, error)

	// ReconcileByLead links a confirmation against a known lead. With a
	// non-empty reference that exact confirmation is fetched, letting
	// callers reconcile records whose metadata lacks a lead id.
	// Otherwise the provider is searched for the lead's succeeded
	// confirmations and the best candidate is linked.
	ReconcileByLead(ctx context.Context, leadID snowflake.ID, reference string) (*Result, error)

	// ReconcileBatch sweeps the recent provider window, linking what is
	// missing and repairing what has drifted. Zero windowDays or limit
	// fall back to the configured defaults.
	ReconcileBatch(ctx context.Context, windowDays, limit int) (*BatchSummary, error)
}
