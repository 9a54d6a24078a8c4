// Package resolver derives the ledger identities a confirmation
// belongs to, starting from the lead reference in its metadata.
package resolver

import (
	"context"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/m10djcompany/ledgerlink/internal/ledger/domain"
	"github.com/m10djcompany/ledgerlink/internal/reconcile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Repo ledgerdomain.Repository
	Log  *zap.Logger
}

type Resolver struct {
	repo ledgerdomain.Repository
	log  *zap.Logger
}

func New(p Params) *Resolver {
	return &Resolver{
		repo: p.Repo,
		log:  p.Log.Named("reconcile.resolver"),
	}
}

// Resolve walks lead -> quote selection -> contact submission -> contact.
// When any link in the chain is missing the lead id stands in for the
// contact id, tagged with fallback confidence.
func (r *Resolver) Resolve(ctx context.Context, db *gorm.DB, leadID snowflake.ID) (*domain.Resolution, error) {
	lead, err := r.repo.FindLead(ctx, db, leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, domain.ErrLeadNotFound
	}

	res := &domain.Resolution{
		LeadID:     leadID,
		ContactID:  leadID,
		Confidence: domain.ConfidenceFallback,
	}

	selection, err := r.repo.FindQuoteSelectionByLead(ctx, db, leadID)
	if err != nil {
		return nil, err
	}
	if selection == nil {
		return res, nil
	}
	res.Selection = selection

	if selection.ContactSubmissionID == nil {
		return res, nil
	}

	submission, err := r.repo.FindContactSubmission(ctx, db, *selection.ContactSubmissionID)
	if err != nil {
		return nil, err
	}
	if submission == nil || submission.ContactID == nil {
		r.log.Debug("submission chain broken, falling back to lead id",
			zap.Int64("lead_id", int64(leadID)))
		return res, nil
	}

	res.ContactID = *submission.ContactID
	res.Confidence = domain.ConfidenceExact
	return res, nil
}
