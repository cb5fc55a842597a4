package services

import (
	"context"
	"errors"

	apierrors "github.com/enrollhub/enrollment-backend/pkg/errors"
	"github.com/enrollhub/enrollment-backend/roster"
	"github.com/enrollhub/enrollment-backend/v1/models"
)

// EntitlementService answers read-only projections over the member store and
// the roster. No method has side effects.
type EntitlementService struct {
	store  *MemberStore
	roster RosterIndex
	// activeOverrides always resolve as active regardless of stored state
	activeOverrides map[string]struct{}
}

// NewEntitlementService creates a new entitlement service
func NewEntitlementService(store *MemberStore, idx RosterIndex, activeOverrides map[string]struct{}) *EntitlementService {
	if activeOverrides == nil {
		activeOverrides = map[string]struct{}{}
	}
	return &EntitlementService{store: store, roster: idx, activeOverrides: activeOverrides}
}

// IsActive reports whether the member is activated. Emails on the operational
// override list resolve true without a store lookup.
func (s *EntitlementService) IsActive(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, apierrors.InvalidInput("email is required")
	}
	if _, ok := s.activeOverrides[email]; ok {
		return true, nil
	}

	member, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return member.IsActive, nil
}

// IsPaid reports whether the member has a confirmed payment
func (s *EntitlementService) IsPaid(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, apierrors.InvalidInput("email is required")
	}

	member, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return member.IsPaid, nil
}

// GetDisplayInfo returns the roster-derived display projection for a member.
// A member whose stored pair has no combined roster row yields NameNotResolved,
// which is distinct from the member not existing.
func (s *EntitlementService) GetDisplayInfo(ctx context.Context, email string) (*models.MemberInfoResponse, error) {
	if email == "" {
		return nil, apierrors.InvalidInput("email is required")
	}

	member, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	displayName, err := s.roster.ResolveDisplayName(member.OrganizationID, member.SponsorID)
	if errors.Is(err, roster.ErrDisplayNameNotFound) {
		return nil, apierrors.NameNotResolved(member.OrganizationID, member.SponsorID)
	}
	if err != nil {
		return nil, err
	}

	return &models.MemberInfoResponse{
		OrganizationID: member.OrganizationID,
		SponsorID:      member.SponsorID,
		DisplayName:    displayName,
		SponsorName:    member.SponsorName,
	}, nil
}
