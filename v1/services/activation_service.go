package services

import (
	"context"
	"log/slog"

	apierrors "github.com/enrollhub/enrollment-backend/pkg/errors"
	"github.com/enrollhub/enrollment-backend/v1/models"
)

// ActivationService flips a member's activation flag. Activation never reverts.
type ActivationService struct {
	store *MemberStore
}

// NewActivationService creates a new activation service
func NewActivationService(store *MemberStore) *ActivationService {
	return &ActivationService{store: store}
}

// Activate sets is_active on the member keyed by email. Activating an already
// active member succeeds silently.
func (s *ActivationService) Activate(ctx context.Context, email string) error {
	if email == "" {
		return apierrors.InvalidInput("email is required")
	}

	_, err := s.store.UpdateByKey(ctx, email, func(m *models.Member) {
		m.IsActive = true
	})
	if err != nil {
		return err
	}

	slog.Info("Member activated", "email", email)
	return nil
}
