package service

import (
	"context"
	"fmt"
	"net/url"

	apperrors "focustimer/internal/errors"
	"focustimer/internal/model"
	"focustimer/internal/repository"
)

// BillingService maps plan identifiers to redirect URLs on the external
// billing provider. The provider's webhook processor, not this service,
// performs the actual tier change; ApplyTier exists for that processor.
type BillingService struct {
	userRepo    *repository.UserRepository
	checkoutURL string
	portalURL   string
}

var planTiers = map[string]model.Tier{
	"standard": model.TierStandard,
	"pro":      model.TierPro,
}

func NewBillingService(userRepo *repository.UserRepository, checkoutURL, portalURL string) *BillingService {
	return &BillingService{
		userRepo:    userRepo,
		checkoutURL: checkoutURL,
		portalURL:   portalURL,
	}
}

func (s *BillingService) CheckoutURL(userID, plan string) (string, *apperrors.APIError) {
	if _, ok := planTiers[plan]; !ok {
		return "", apperrors.BadRequest("invalid_plan", "plan must be one of standard, pro")
	}
	return fmt.Sprintf("%s?plan=%s&client_reference_id=%s",
		s.checkoutURL, url.QueryEscape(plan), url.QueryEscape(userID)), nil
}

func (s *BillingService) PortalURL(userID string) string {
	return fmt.Sprintf("%s?client_reference_id=%s", s.portalURL, url.QueryEscape(userID))
}

// ApplyTier records a tier change reported by the billing webhook.
func (s *BillingService) ApplyTier(ctx context.Context, userID string, tier model.Tier) *apperrors.APIError {
	if !model.ValidTier(tier) {
		return apperrors.BadRequest("invalid_tier", "tier must be one of free, standard, pro")
	}
	err := s.userRepo.UpdateTier(ctx, userID, tier)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("user_not_found", "user not found")
	}
	if err != nil {
		return apperrors.Internal("failed to update tier")
	}
	return nil
}
