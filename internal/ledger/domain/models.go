// Package domain contains persistence models for the booking ledger.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Lead is the prospective-customer record. Leads and contacts share an
// identifier space: when no submission chain exists, the lead id doubles
// as the contact id.
type Lead struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	FirstName string       `json:"first_name" gorm:"type:text"`
	LastName  string       `json:"last_name" gorm:"type:text"`
	Email     string       `json:"email" gorm:"type:text"`
	Phone     string       `json:"phone" gorm:"type:text"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Lead) TableName() string { return "leads" }

// ContactSubmission links a lead's intake form to a full contact record.
type ContactSubmission struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey"`
	LeadID    snowflake.ID  `json:"lead_id" gorm:"not null;index"`
	ContactID *snowflake.ID `json:"contact_id" gorm:"index"`
	CreatedAt time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ContactSubmission) TableName() string { return "contact_submissions" }

// QuotePaymentStatus tracks how far a selected quote has been paid.
type QuotePaymentStatus string

const (
	QuotePaymentStatusPending QuotePaymentStatus = "pending"
	QuotePaymentStatusPartial QuotePaymentStatus = "partial"
	QuotePaymentStatusPaid    QuotePaymentStatus = "paid"
)

// PaymentType tags what a confirmation was for.
type PaymentType string

const (
	PaymentTypeDeposit PaymentType = "deposit"
	PaymentTypeFull    PaymentType = "full"
)

// QuoteSelection records which priced offer a lead accepted and its
// payment progress. Created elsewhere; this subsystem only mutates it.
type QuoteSelection struct {
	ID                  snowflake.ID       `json:"id" gorm:"primaryKey"`
	LeadID              snowflake.ID       `json:"lead_id" gorm:"not null;uniqueIndex:ux_quote_selections_lead"`
	ContactSubmissionID *snowflake.ID      `json:"contact_submission_id" gorm:"index"`
	InvoiceID           *snowflake.ID      `json:"invoice_id" gorm:"index"`
	PaymentStatus       QuotePaymentStatus `json:"payment_status" gorm:"type:text;not null;default:'pending'"`
	PaymentIntentID     string             `json:"payment_intent_id" gorm:"type:text"`
	PaymentType         PaymentType        `json:"payment_type" gorm:"type:text"`
	DepositAmount       *int64             `json:"deposit_amount"`
	PaidAt              *time.Time         `json:"paid_at"`
	CreatedAt           time.Time          `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time          `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (QuoteSelection) TableName() string { return "quote_selections" }

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "Draft"
	InvoiceStatusPartial InvoiceStatus = "Partial"
	InvoiceStatusPaid    InvoiceStatus = "Paid"
)

// Invoice carries the running payment aggregates. All amounts are in
// minor currency units.
type Invoice struct {
	ID            snowflake.ID  `json:"id" gorm:"primaryKey"`
	ContactID     snowflake.ID  `json:"contact_id" gorm:"not null;index"`
	InvoiceNumber string        `json:"invoice_number" gorm:"type:text;not null"`
	TotalAmount   int64         `json:"total_amount" gorm:"not null;default:0"`
	AmountPaid    int64         `json:"amount_paid" gorm:"not null;default:0"`
	BalanceDue    int64         `json:"balance_due" gorm:"not null;default:0"`
	InvoiceStatus InvoiceStatus `json:"invoice_status" gorm:"type:text;not null;default:'Draft'"`
	PaidDate      *time.Time    `json:"paid_date"`
	CreatedAt     time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time     `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Invoice) TableName() string { return "invoices" }

const (
	PaymentStatusPaid = "Paid"

	// The provider in use is card-based, so every reconciled payment
	// carries the same method label.
	PaymentMethodCard = "Credit Card"

	PaymentNameDeposit = "Deposit"
	PaymentNameFull    = "Full Payment"
)

// Payment is the durable record of one reconciled confirmation.
// PaymentIntentID is unique at the store level; the note embeds the same
// reference because historical rows carried it only there.
type Payment struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	ContactID       snowflake.ID   `json:"contact_id" gorm:"not null;index"`
	InvoiceID       *snowflake.ID  `json:"invoice_id" gorm:"index"`
	PaymentName     string         `json:"payment_name" gorm:"type:text;not null"`
	TotalAmount     int64          `json:"total_amount" gorm:"not null"`
	PaymentStatus   string         `json:"payment_status" gorm:"type:text;not null"`
	PaymentMethod   string         `json:"payment_method" gorm:"type:text;not null"`
	TransactionDate datatypes.Date `json:"transaction_date" gorm:"not null"`
	PaymentNotes    string         `json:"payment_notes" gorm:"type:text"`
	PaymentIntentID string         `json:"payment_intent_id" gorm:"type:text;uniqueIndex:ux_payments_payment_intent"`
	CreatedAt       time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Payment) TableName() string { return "payments" }

// NoteForReference renders the historical note template. Kept verbatim:
// older rows are only findable through this text.
func NoteForReference(reference string) string {
	return fmt.Sprintf("Stripe Payment Intent: %s", reference)
}

// NameForPaymentType maps a confirmation's payment-type tag to the
// display name stored on the payment row.
func NameForPaymentType(t PaymentType) string {
	if t == PaymentTypeDeposit {
		return PaymentNameDeposit
	}
	return PaymentNameFull
}
