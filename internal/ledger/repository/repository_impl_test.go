package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/m10djcompany/ledgerlink/internal/ledger/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Payment{}))
	return db
}

func TestFindPaymentByReferenceColumn(t *testing.T) {
	db := setupDB(t)
	repo := Provide()

	require.NoError(t, db.Create(&domain.Payment{
		ID:              1,
		ContactID:       100,
		PaymentName:     domain.PaymentNameDeposit,
		TotalAmount:     50000,
		PaymentStatus:   domain.PaymentStatusPaid,
		PaymentMethod:   domain.PaymentMethodCard,
		PaymentNotes:    domain.NoteForReference("pi_abc"),
		PaymentIntentID: "pi_abc",
	}).Error)

	found, err := repo.FindPaymentByReference(context.Background(), db, "pi_abc")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, int64(1), int64(found.ID))
}

func TestFindPaymentByReferenceLegacyNote(t *testing.T) {
	db := setupDB(t)
	repo := Provide()

	require.NoError(t, db.Create(&domain.Payment{
		ID:            2,
		ContactID:     100,
		PaymentName:   domain.PaymentNameDeposit,
		TotalAmount:   50000,
		PaymentStatus: domain.PaymentStatusPaid,
		PaymentMethod: domain.PaymentMethodCard,
		PaymentNotes:  "deposit received, Stripe Payment Intent: pi_legacy, via phone",
	}).Error)

	found, err := repo.FindPaymentByReference(context.Background(), db, "pi_legacy")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, int64(2), int64(found.ID))
}

func TestFindPaymentByReferenceEscapesWildcards(t *testing.T) {
	db := setupDB(t)
	repo := Provide()

	// "_" in the lookup must match literally, not any character
	require.NoError(t, db.Create(&domain.Payment{
		ID:            3,
		ContactID:     100,
		PaymentName:   domain.PaymentNameDeposit,
		TotalAmount:   50000,
		PaymentStatus: domain.PaymentStatusPaid,
		PaymentMethod: domain.PaymentMethodCard,
		PaymentNotes:  "Stripe Payment Intent: piXabc",
	}).Error)

	found, err := repo.FindPaymentByReference(context.Background(), db, "pi_abc")
	require.NoError(t, err)
	require.Nil(t, found)
}
