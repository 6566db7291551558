package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/meddor/scribe/internal/payment/domain"
)

type createCheckoutRequest struct {
	AccountEmail string `json:"account_email"`
}

func (s *Server) CreateCheckoutSession(c *gin.Context) {
	if s.checkout == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	// The webhook grant targets an existing account row, so make sure the
	// buyer has one (and a seeded prompt template) before they pay.
	ctx := c.Request.Context()
	if err := s.creditSvc.EnsureAccount(ctx, req.AccountEmail); err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.promptSvc.EnsureDefault(ctx, req.AccountEmail); err != nil {
		AbortWithError(c, err)
		return
	}

	session, err := s.checkout.CreateSession(ctx, req.AccountEmail)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err = s.webhookSvc.IngestWebhook(c.Request.Context(), provider, payload, c.Request.Header)
	if err != nil {
		// Redelivered events were already applied; acknowledge so the
		// provider stops retrying.
		if errors.Is(err, paymentdomain.ErrEventAlreadyProcessed) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
