package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	stripedomain "github.com/m10djcompany/ledgerlink/internal/providers/stripe/domain"
	"github.com/m10djcompany/ledgerlink/internal/reconcile/domain"
	"go.uber.org/zap"
)

// respondError maps domain errors onto the HTTP surface. Anything
// unmapped is a 500 with the detail kept out of the response body.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNoConfirmationFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no_confirmation_found"})
	case errors.Is(err, domain.ErrLeadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "lead_not_found"})
	case errors.Is(err, domain.ErrMissingLeadIdentifier):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "missing_lead_identifier"})
	case errors.Is(err, domain.ErrNotSucceeded):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "confirmation_not_succeeded"})
	case errors.Is(err, stripedomain.ErrUnavailable),
		errors.Is(err, stripedomain.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "provider_unavailable"})
	default:
		log.Error("request failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
