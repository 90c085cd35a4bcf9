package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "focustimer/internal/errors"
	"focustimer/internal/middleware"
	"focustimer/internal/model"
	"focustimer/internal/service"
)

type BillingHandler struct {
	billingService *service.BillingService
	webhookSecret  string
}

type checkoutRequest struct {
	Plan string `json:"plan"`
}

type webhookRequest struct {
	UserID string `json:"userId"`
	Tier   string `json:"tier"`
}

func NewBillingHandler(billingService *service.BillingService, webhookSecret string) *BillingHandler {
	return &BillingHandler{billingService: billingService, webhookSecret: webhookSecret}
}

func (h *BillingHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	userID := middleware.UserID(c)
	url, apiErr := h.billingService.CheckoutURL(userID, req.Plan)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *BillingHandler) Portal(c *gin.Context) {
	userID := middleware.UserID(c)
	c.JSON(http.StatusOK, gin.H{"url": h.billingService.PortalURL(userID)})
}

// Webhook is the billing provider's tier-change callback, authenticated by
// a shared secret rather than a user token.
func (h *BillingHandler) Webhook(c *gin.Context) {
	secret := c.GetHeader("X-Webhook-Secret")
	if h.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.webhookSecret)) != 1 {
		writeError(c, apperrors.Unauthorized("invalid webhook secret"))
		return
	}

	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	if apiErr := h.billingService.ApplyTier(c.Request.Context(), req.UserID, model.Tier(req.Tier)); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
