// Package domain defines the provider-side view of a payment
// confirmation and the client contract for retrieving them.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Confirmation statuses as reported by the provider. Only succeeded
// confirmations are reconcilable.
const (
	StatusSucceeded = "succeeded"
)

// Metadata keys the checkout flow stamps onto payment intents.
const (
	MetadataLeadID      = "lead_id"
	MetadataPaymentType = "payment_type"
)

// Confirmation is an immutable provider record of a payment attempt
// that reached a terminal state. Amount is in minor currency units.
type Confirmation struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Created  time.Time         `json:"created"`
	Metadata map[string]string `json:"metadata"`
}

// LeadID returns the lead reference embedded in metadata, if any.
// Absence is expected, not corrupt data.
func (c *Confirmation) LeadID() string {
	if c == nil || c.Metadata == nil {
		return ""
	}
	return strings.TrimSpace(c.Metadata[MetadataLeadID])
}

// PaymentType returns the payment-type tag ("deposit" or "full"), or
// empty when the checkout flow did not set one.
func (c *Confirmation) PaymentType() string {
	if c == nil || c.Metadata == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(c.Metadata[MetadataPaymentType]))
}

func (c *Confirmation) Succeeded() bool {
	return c != nil && c.Status == StatusSucceeded
}

// Client retrieves confirmations from the payment provider.
type Client interface {
	// GetConfirmation fetches one confirmation by its external
	// identifier. Returns ErrNotFound when the provider has no record.
	GetConfirmation(ctx context.Context, id string) (*Confirmation, error)

	// SearchSucceeded returns succeeded confirmations whose metadata
	// references the given lead, most recent first.
	SearchSucceeded(ctx context.Context, leadID string, limit int) ([]Confirmation, error)

	// ListRecent returns confirmations created at or after since, most
	// recent first, regardless of status.
	ListRecent(ctx context.Context, since time.Time, limit int) ([]Confirmation, error)
}

var (
	ErrNotFound      = errors.New("confirmation_not_found")
	ErrUnavailable   = errors.New("provider_unavailable")
	ErrNotConfigured = errors.New("provider_not_configured")
)
