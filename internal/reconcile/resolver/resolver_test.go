package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	ledgerdomain "github.com/m10djcompany/ledgerlink/internal/ledger/domain"
	"github.com/m10djcompany/ledgerlink/internal/ledger/repository"
	"github.com/m10djcompany/ledgerlink/internal/reconcile/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&ledgerdomain.Lead{},
		&ledgerdomain.ContactSubmission{},
		&ledgerdomain.QuoteSelection{},
		&ledgerdomain.Invoice{},
		&ledgerdomain.Payment{},
	))
	return db
}

func newResolver() *Resolver {
	return New(Params{Repo: repository.Provide(), Log: zap.NewNop()})
}

func TestResolveUnknownLead(t *testing.T) {
	db := setupDB(t)
	r := newResolver()

	_, err := r.Resolve(context.Background(), db, snowflake.ID(404))
	require.True(t, errors.Is(err, domain.ErrLeadNotFound))
}

func TestResolveLeadWithoutSelection(t *testing.T) {
	db := setupDB(t)
	r := newResolver()

	require.NoError(t, db.Create(&ledgerdomain.Lead{ID: 100, FirstName: "Ada"}).Error)

	res, err := r.Resolve(context.Background(), db, snowflake.ID(100))
	require.NoError(t, err)
	require.Equal(t, snowflake.ID(100), res.LeadID)
	require.Equal(t, snowflake.ID(100), res.ContactID)
	require.Equal(t, domain.ConfidenceFallback, res.Confidence)
	require.Nil(t, res.Selection)
}

func TestResolveBrokenSubmissionChain(t *testing.T) {
	db := setupDB(t)
	r := newResolver()

	require.NoError(t, db.Create(&ledgerdomain.Lead{ID: 100}).Error)
	subID := snowflake.ID(200)
	require.NoError(t, db.Create(&ledgerdomain.QuoteSelection{
		ID:                  300,
		LeadID:              100,
		ContactSubmissionID: &subID,
		PaymentStatus:       ledgerdomain.QuotePaymentStatusPending,
	}).Error)
	// submission row 200 intentionally absent

	res, err := r.Resolve(context.Background(), db, snowflake.ID(100))
	require.NoError(t, err)
	require.Equal(t, snowflake.ID(100), res.ContactID)
	require.Equal(t, domain.ConfidenceFallback, res.Confidence)
	require.NotNil(t, res.Selection)
	require.Equal(t, snowflake.ID(300), res.Selection.ID)
}

func TestResolveFullChain(t *testing.T) {
	db := setupDB(t)
	r := newResolver()

	contactID := snowflake.ID(900)
	subID := snowflake.ID(200)

	require.NoError(t, db.Create(&ledgerdomain.Lead{ID: 100}).Error)
	require.NoError(t, db.Create(&ledgerdomain.ContactSubmission{
		ID:        subID,
		LeadID:    100,
		ContactID: &contactID,
	}).Error)
	require.NoError(t, db.Create(&ledgerdomain.QuoteSelection{
		ID:                  300,
		LeadID:              100,
		ContactSubmissionID: &subID,
		PaymentStatus:       ledgerdomain.QuotePaymentStatusPending,
	}).Error)

	res, err := r.Resolve(context.Background(), db, snowflake.ID(100))
	require.NoError(t, err)
	require.Equal(t, contactID, res.ContactID)
	require.Equal(t, domain.ConfidenceExact, res.Confidence)
}
