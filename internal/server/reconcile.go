package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/m10djcompany/ledgerlink/internal/reconcile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ReconcileHandlerParams struct {
	fx.In

	Service domain.Service
	Log     *zap.Logger
}

type ReconcileHandler struct {
	svc domain.Service
	log *zap.Logger
}

func NewReconcileHandler(p ReconcileHandlerParams) *ReconcileHandler {
	return &ReconcileHandler{
		svc: p.Service,
		log: p.Log.Named("server.reconcile"),
	}
}

func (h *ReconcileHandler) Register(engine *gin.Engine) {
	group := engine.Group("/api/v1/reconcile")
	group.POST("/payments/:reference", h.byReference)
	group.POST("/leads/:lead_id", h.byLead)
	group.POST("/batch", h.batch)
}

func (h *ReconcileHandler) byReference(c *gin.Context) {
	result, err := h.svc.ReconcileByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(statusFor(result.Outcome), result)
}

type byLeadRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

func (h *ReconcileHandler) byLead(c *gin.Context) {
	leadID, err := snowflake.ParseString(c.Param("lead_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_lead_id"})
		return
	}

	// The body is optional; without it the provider is searched by
	// lead metadata.
	var req byLeadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
			return
		}
	}

	result, err := h.svc.ReconcileByLead(c.Request.Context(), leadID, req.PaymentIntentID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(statusFor(result.Outcome), result)
}

type batchRequest struct {
	WindowDays int `json:"window_days"`
	Limit      int `json:"limit"`
}

func (h *ReconcileHandler) batch(c *gin.Context) {
	var req batchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
			return
		}
	}

	summary, err := h.svc.ReconcileBatch(c.Request.Context(), req.WindowDays, req.Limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// A fresh link is a 201; replays and repairs report 200.
func statusFor(outcome domain.Outcome) int {
	if outcome == domain.OutcomeCreated {
		return http.StatusCreated
	}
	return http.StatusOK
}
