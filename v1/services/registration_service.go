package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	apierrors "github.com/enrollhub/enrollment-backend/pkg/errors"
	"github.com/enrollhub/enrollment-backend/v1/models"
)

// RosterIndex answers membership queries against the reference dataset
type RosterIndex interface {
	ExistsPair(organizationID, sponsorID string) (bool, error)
	ResolveDisplayName(organizationID, sponsorID string) (string, error)
}

// RegistrationService validates registration requests against the roster and
// the uniqueness/capacity rules, then creates member records.
type RegistrationService struct {
	store  *MemberStore
	roster RosterIndex
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(store *MemberStore, roster RosterIndex) *RegistrationService {
	return &RegistrationService{store: store, roster: roster}
}

// Register checks the request against the roster and creates the member.
// A roster miss is a normal negative outcome (false, nil), not an error.
func (s *RegistrationService) Register(ctx context.Context, req *models.ValidateRequest) (bool, error) {
	if req.OrganizationID == "" || req.SponsorID == "" || req.Email == "" {
		return false, apierrors.InvalidInput("organizationId, sponsorId and email are required")
	}
	if len(req.Email) > models.MaxEmailLength {
		return false, apierrors.InvalidInput("email exceeds maximum length")
	}
	if len(req.OrganizationID) > models.MaxNameLength || len(req.SponsorID) > models.MaxNameLength {
		return false, apierrors.InvalidInput("organizationId or sponsorId exceeds maximum length")
	}
	if req.Phone != nil && len(*req.Phone) > models.MaxPhoneLength {
		return false, apierrors.InvalidInput("phone exceeds maximum length")
	}

	found, err := s.roster.ExistsPair(req.OrganizationID, req.SponsorID)
	if err != nil {
		return false, err
	}
	if !found {
		slog.Info("Registration pair not found in roster", "organizationId", req.OrganizationID, "sponsorId", req.SponsorID)
		return false, nil
	}

	member := &models.Member{
		MemberID:       "mem_" + uuid.New().String(),
		Email:          req.Email,
		OrganizationID: req.OrganizationID,
		SponsorID:      req.SponsorID,
		SponsorName:    req.SponsorName,
		Phone:          req.Phone,
		IsActive:       false,
		IsPaid:         false,
		PlanType:       models.PlanUnset,
	}

	if err := s.store.AppendWithOrganizationCap(ctx, member, models.OrganizationMemberCap); err != nil {
		return false, err
	}

	slog.Info("Member registered", "memberId", member.MemberID, "organizationId", member.OrganizationID)
	return true, nil
}
