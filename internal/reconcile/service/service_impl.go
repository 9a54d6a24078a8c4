// Package service orchestrates the three reconciliation entry modes.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/m10djcompany/ledgerlink/internal/audit/domain"
	"github.com/m10djcompany/ledgerlink/internal/clock"
	"github.com/m10djcompany/ledgerlink/internal/config"
	ledgerdomain "github.com/m10djcompany/ledgerlink/internal/ledger/domain"
	"github.com/m10djcompany/ledgerlink/internal/observability/metrics"
	stripedomain "github.com/m10djcompany/ledgerlink/internal/providers/stripe/domain"
	"github.com/m10djcompany/ledgerlink/internal/reconcile/domain"
	"github.com/m10djcompany/ledgerlink/internal/reconcile/resolver"
	"github.com/m10djcompany/ledgerlink/internal/reconcile/writer"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Entry mode labels used on metrics and audit entries.
const (
	ModeReference = "reference"
	ModeLead      = "lead"
	ModeBatch     = "batch"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Repo     ledgerdomain.Repository
	Provider stripedomain.Client
	Resolver *resolver.Resolver
	Writer   *writer.Writer
	Audit    auditdomain.Service
	Holder   *config.ReconcileConfigHolder
	Clock    clock.Clock
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

type service struct {
	db       *gorm.DB
	guard    guard
	provider stripedomain.Client
	resolver *resolver.Resolver
	writer   *writer.Writer
	audit    auditdomain.Service
	holder   *config.ReconcileConfigHolder
	clock    clock.Clock
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func New(p Params) domain.Service {
	return &service{
		db:       p.DB,
		guard:    guard{repo: p.Repo},
		provider: p.Provider,
		resolver: p.Resolver,
		writer:   p.Writer,
		audit:    p.Audit,
		holder:   p.Holder,
		clock:    p.Clock,
		metrics:  p.Metrics,
		log:      p.Log.Named("reconcile.service"),
	}
}

func (s *service) ReconcileByReference(ctx context.Context, reference string) (*domain.Result, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordDuration(ctx, ModeReference, time.Since(start).Seconds())
	}()

	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, domain.ErrNoConfirmationFound
	}

	existing, err := s.guard.existing(ctx, s.db, reference)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.metrics.RecordOutcome(ctx, ModeReference, string(domain.OutcomeAlreadyLinked))
		s.log.Info("reference already reconciled", zap.String("reference", reference))
		return s.guard.result(existing, reference), nil
	}

	conf, err := s.provider.GetConfirmation(ctx, reference)
	if err != nil {
		if errors.Is(err, stripedomain.ErrNotFound) {
			return nil, domain.ErrNoConfirmationFound
		}
		return nil, err
	}
	if !conf.Succeeded() {
		return nil, fmt.Errorf("%w: status %s", domain.ErrNotSucceeded, conf.Status)
	}

	return s.link(ctx, conf, ModeReference)
}

func (s *service) ReconcileByLead(ctx context.Context, leadID snowflake.ID, reference string) (*domain.Result, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordDuration(ctx, ModeLead, time.Since(start).Seconds())
	}()

	// Resolve first so an unknown lead fails before the provider call.
	res, err := s.resolver.Resolve(ctx, s.db, leadID)
	if err != nil {
		return nil, err
	}

	// An explicit reference skips the search: the caller is vouching
	// for the lead, so the confirmation needs no lead metadata.
	if reference = strings.TrimSpace(reference); reference != "" {
		existing, err := s.guard.existing(ctx, s.db, reference)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.metrics.RecordOutcome(ctx, ModeLead, string(domain.OutcomeAlreadyLinked))
			result := s.guard.result(existing, reference)
			result.LeadID = leadID
			result.Confidence = res.Confidence
			return result, nil
		}

		conf, err := s.provider.GetConfirmation(ctx, reference)
		if err != nil {
			if errors.Is(err, stripedomain.ErrNotFound) {
				return nil, domain.ErrNoConfirmationFound
			}
			return nil, err
		}
		if !conf.Succeeded() {
			return nil, fmt.Errorf("%w: status %s", domain.ErrNotSucceeded, conf.Status)
		}

		result, err := s.writer.Link(ctx, s.db, conf, res)
		if err != nil {
			return nil, err
		}
		s.record(ctx, ModeLead, result)
		return result, nil
	}

	cfg := s.holder.Get()
	confs, err := s.provider.SearchSucceeded(ctx, leadID.String(), cfg.SearchCandidates)
	if err != nil {
		return nil, err
	}
	if len(confs) == 0 {
		return nil, domain.ErrNoConfirmationFound
	}

	sort.SliceStable(confs, func(i, j int) bool {
		return confs[i].Created.After(confs[j].Created)
	})

	// Link the most recent confirmation the ledger has not seen yet.
	for i := range confs {
		conf := &confs[i]
		existing, err := s.guard.existing(ctx, s.db, conf.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}

		result, err := s.writer.Link(ctx, s.db, conf, res)
		if err != nil {
			return nil, err
		}
		s.record(ctx, ModeLead, result)
		return result, nil
	}

	// Every candidate is already on the ledger. Report the most recent.
	existing, err := s.guard.existing(ctx, s.db, confs[0].ID)
	if err != nil {
		return nil, err
	}
	result := s.guard.result(existing, confs[0].ID)
	result.LeadID = leadID
	result.Confidence = res.Confidence
	s.metrics.RecordOutcome(ctx, ModeLead, string(domain.OutcomeAlreadyLinked))
	return result, nil
}

func (s *service) ReconcileBatch(ctx context.Context, windowDays, limit int) (*domain.BatchSummary, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordDuration(ctx, ModeBatch, time.Since(start).Seconds())
	}()

	cfg := s.holder.Get()
	if windowDays <= 0 {
		windowDays = cfg.WindowDays
	}
	if limit <= 0 {
		limit = cfg.BatchLimit
	}
	since := s.clock.Now().AddDate(0, 0, -windowDays)

	confs, err := s.provider.ListRecent(ctx, since, cfg.ProviderPageLimit)
	if err != nil {
		return nil, err
	}
	if len(confs) > limit {
		confs = confs[:limit]
	}

	summary := &domain.BatchSummary{}
	for i := range confs {
		item := s.processBatchItem(ctx, &confs[i])
		summary.Processed++
		switch item.Outcome {
		case domain.OutcomeCreated:
			summary.Created++
		case domain.OutcomeUpdated:
			summary.Updated++
		case domain.OutcomeAlreadyLinked:
			summary.AlreadyLinked++
		case domain.OutcomeSkipped:
			summary.Skipped++
		case domain.OutcomeFailed:
			summary.Failed++
		}
		summary.Items = append(summary.Items, item)
	}

	s.audit.Record(ctx, auditdomain.Entry{
		Action:     "reconcile.batch",
		EntityType: "batch",
		EntityID:   since.Format(time.RFC3339),
		Metadata: map[string]any{
			"processed":      summary.Processed,
			"created":        summary.Created,
			"updated":        summary.Updated,
			"already_linked": summary.AlreadyLinked,
			"skipped":        summary.Skipped,
			"failed":         summary.Failed,
		},
	})
	s.log.Info("batch reconciliation finished",
		zap.Int("processed", summary.Processed),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("failed", summary.Failed))

	return summary, nil
}

// processBatchItem isolates one confirmation. A failure here never
// aborts the sweep.
func (s *service) processBatchItem(ctx context.Context, conf *stripedomain.Confirmation) domain.BatchItem {
	item := domain.BatchItem{Reference: conf.ID}

	if !conf.Succeeded() {
		item.Outcome = domain.OutcomeSkipped
		item.Reason = "status " + conf.Status
		return item
	}

	existing, err := s.guard.existing(ctx, s.db, conf.ID)
	if err != nil {
		item.Outcome = domain.OutcomeFailed
		item.Reason = err.Error()
		return item
	}
	if existing != nil {
		result, err := s.writer.Repair(ctx, s.db, existing, conf)
		if err != nil {
			item.Outcome = domain.OutcomeFailed
			item.Reason = err.Error()
			return item
		}
		s.metrics.RecordOutcome(ctx, ModeBatch, string(result.Outcome))
		if result.Outcome == domain.OutcomeUpdated {
			s.audit.Record(ctx, auditdomain.Entry{
				Action:     "reconcile.updated",
				EntityType: "payment",
				EntityID:   conf.ID,
				Metadata: map[string]any{
					"mode":       ModeBatch,
					"payment_id": result.PaymentID.String(),
					"amount":     result.AmountDisplay,
				},
			})
		}
		item.Outcome = result.Outcome
		return item
	}

	if conf.LeadID() == "" {
		item.Outcome = domain.OutcomeSkipped
		item.Reason = "missing lead identifier"
		return item
	}

	result, err := s.link(ctx, conf, ModeBatch)
	if err != nil {
		s.log.Warn("batch item failed",
			zap.String("reference", conf.ID),
			zap.Error(err))
		item.Outcome = domain.OutcomeFailed
		item.Reason = err.Error()
		return item
	}
	item.Outcome = result.Outcome
	return item
}

// link resolves identities and hands the confirmation to the writer.
func (s *service) link(ctx context.Context, conf *stripedomain.Confirmation, mode string) (*domain.Result, error) {
	leadID, err := leadIDOf(conf)
	if err != nil {
		return nil, err
	}

	res, err := s.resolver.Resolve(ctx, s.db, leadID)
	if err != nil {
		return nil, err
	}

	result, err := s.writer.Link(ctx, s.db, conf, res)
	if err != nil {
		return nil, err
	}
	s.record(ctx, mode, result)
	return result, nil
}

func (s *service) record(ctx context.Context, mode string, result *domain.Result) {
	s.metrics.RecordOutcome(ctx, mode, string(result.Outcome))
	s.audit.Record(ctx, auditdomain.Entry{
		Action:     "reconcile." + string(result.Outcome),
		EntityType: "payment",
		EntityID:   result.Reference,
		Metadata: map[string]any{
			"mode":       mode,
			"lead_id":    result.LeadID.String(),
			"payment_id": result.PaymentID.String(),
			"amount":     result.AmountDisplay,
			"confidence": string(result.Confidence),
		},
	})
	s.log.Info("confirmation reconciled",
		zap.String("mode", mode),
		zap.String("reference", result.Reference),
		zap.String("outcome", string(result.Outcome)),
		zap.String("amount", result.AmountDisplay))
}

func leadIDOf(conf *stripedomain.Confirmation) (snowflake.ID, error) {
	raw := conf.LeadID()
	if raw == "" {
		return 0, domain.ErrMissingLeadIdentifier
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrMissingLeadIdentifier, raw)
	}
	return id, nil
}
