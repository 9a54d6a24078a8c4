package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/m10djcompany/ledgerlink/internal/config"
	"github.com/m10djcompany/ledgerlink/internal/reconcile/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeService struct {
	result  *domain.Result
	summary *domain.BatchSummary
	err     error

	gotReference  string
	gotWindowDays int
	gotLimit      int
}

func (f *fakeService) ReconcileByReference(_ context.Context, reference string) (*domain.Result, error) {
	f.gotReference = reference
	return f.result, f.err
}

func (f *fakeService) ReconcileByLead(_ context.Context, _ snowflake.ID, reference string) (*domain.Result, error) {
	f.gotReference = reference
	return f.result, f.err
}

func (f *fakeService) ReconcileBatch(_ context.Context, windowDays, limit int) (*domain.BatchSummary, error) {
	f.gotWindowDays = windowDays
	f.gotLimit = limit
	return f.summary, f.err
}

func newTestEngine(t *testing.T, svc domain.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := NewEngine(config.Config{AppName: "ledgerlink"}, zap.NewNop())
	handler := NewReconcileHandler(ReconcileHandlerParams{Service: svc, Log: zap.NewNop()})
	handler.Register(engine)
	return engine
}

func perform(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	return performBody(engine, method, path, "")
}

func performBody(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	engine.ServeHTTP(rec, req)
	return rec
}

func TestByReferenceCreated(t *testing.T) {
	svc := &fakeService{result: &domain.Result{
		Outcome:       domain.OutcomeCreated,
		Reference:     "pi_abc",
		Amount:        50000,
		AmountDisplay: "500.00",
	}}
	engine := newTestEngine(t, svc)

	rec := perform(engine, http.MethodPost, "/api/v1/reconcile/payments/pi_abc")
	require.Equal(t, http.StatusCreated, rec.Code)

	var body domain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, domain.OutcomeCreated, body.Outcome)
	require.Equal(t, "500.00", body.AmountDisplay)
}

func TestByReferenceAlreadyLinked(t *testing.T) {
	svc := &fakeService{result: &domain.Result{Outcome: domain.OutcomeAlreadyLinked, Reference: "pi_abc"}}
	engine := newTestEngine(t, svc)

	rec := perform(engine, http.MethodPost, "/api/v1/reconcile/payments/pi_abc")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestByReferenceErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrNoConfirmationFound, http.StatusNotFound},
		{domain.ErrLeadNotFound, http.StatusNotFound},
		{domain.ErrMissingLeadIdentifier, http.StatusUnprocessableEntity},
		{domain.ErrNotSucceeded, http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		engine := newTestEngine(t, &fakeService{err: tc.err})
		rec := perform(engine, http.MethodPost, "/api/v1/reconcile/payments/pi_abc")
		require.Equal(t, tc.want, rec.Code, "error %v", tc.err)
	}
}

func TestByLeadInvalidID(t *testing.T) {
	engine := newTestEngine(t, &fakeService{})

	rec := perform(engine, http.MethodPost, "/api/v1/reconcile/leads/not-a-number")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestByLeadExplicitReferenceBody(t *testing.T) {
	svc := &fakeService{result: &domain.Result{Outcome: domain.OutcomeCreated, Reference: "pi_manual"}}
	engine := newTestEngine(t, svc)

	rec := performBody(engine, http.MethodPost, "/api/v1/reconcile/leads/100",
		`{"payment_intent_id": "pi_manual"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "pi_manual", svc.gotReference)
}

func TestByLeadMalformedBody(t *testing.T) {
	engine := newTestEngine(t, &fakeService{})

	rec := performBody(engine, http.MethodPost, "/api/v1/reconcile/leads/100", `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatch(t *testing.T) {
	svc := &fakeService{summary: &domain.BatchSummary{
		Processed: 3,
		Created:   1,
		Skipped:   2,
	}}
	engine := newTestEngine(t, svc)

	rec := perform(engine, http.MethodPost, "/api/v1/reconcile/batch")
	require.Equal(t, http.StatusOK, rec.Code)

	var body domain.BatchSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 3, body.Processed)
}

func TestBatchWithWindowOverrides(t *testing.T) {
	svc := &fakeService{summary: &domain.BatchSummary{}}
	engine := newTestEngine(t, svc)

	rec := performBody(engine, http.MethodPost, "/api/v1/reconcile/batch",
		`{"window_days": 3, "limit": 25}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3, svc.gotWindowDays)
	require.Equal(t, 25, svc.gotLimit)
}

func TestHealth(t *testing.T) {
	engine := newTestEngine(t, &fakeService{})

	rec := perform(engine, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
}
