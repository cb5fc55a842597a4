// Package services implements the member lifecycle: registration, activation,
// payment reconciliation, and entitlement queries.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	apierrors "github.com/enrollhub/enrollment-backend/pkg/errors"
	"github.com/enrollhub/enrollment-backend/v1/models"
)

// casMaxAttempts bounds optimistic-update retries before giving up
const casMaxAttempts = 3

// MemberStore is the keyed record store for members. Reads go straight to the
// database; mutations either append under the organization capacity rule or
// update by email with optimistic versioning.
type MemberStore struct {
	db *gorm.DB
	// orgLocks serializes the read-count-append sequence per organization ID
	// so two concurrent registrations cannot both pass the capacity check
	orgLocks sync.Map
}

// NewMemberStore creates a member store over the given database
func NewMemberStore(db *gorm.DB) *MemberStore {
	return &MemberStore{db: db}
}

func (s *MemberStore) lockOrganization(organizationID string) *sync.Mutex {
	mu, _ := s.orgLocks.LoadOrStore(organizationID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// GetByEmail loads the member keyed by email
func (s *MemberStore) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	var member models.Member
	err := s.db.WithContext(ctx).First(&member, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.NotFound("member")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	return &member, nil
}

// AppendWithOrganizationCap creates the member if and only if the organization
// has capacity left and the email is not already registered. The
// count-then-append sequence runs inside a transaction and is serialized per
// organization ID.
func (s *MemberStore) AppendWithOrganizationCap(ctx context.Context, member *models.Member, maxMembers int64) error {
	mu := s.lockOrganization(member.OrganizationID)
	mu.Lock()
	defer mu.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orgCount int64
		if err := tx.Model(&models.Member{}).
			Where("organization_id = ?", member.OrganizationID).
			Count(&orgCount).Error; err != nil {
			return fmt.Errorf("failed to count organization members: %w", err)
		}
		if orgCount >= maxMembers {
			return apierrors.CapacityExceeded(member.OrganizationID)
		}

		var emailCount int64
		if err := tx.Model(&models.Member{}).
			Where("email = ?", member.Email).
			Count(&emailCount).Error; err != nil {
			return fmt.Errorf("failed to check email uniqueness: %w", err)
		}
		if emailCount > 0 {
			return apierrors.DuplicateEmail(member.Email)
		}

		if err := tx.Create(member).Error; err != nil {
			// The pre-check above is only serialized per organization, so two
			// registrations of the same email under different organizations can
			// both pass it. The unique index is the backstop.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierrors.DuplicateEmail(member.Email)
			}
			return fmt.Errorf("failed to create member: %w", err)
		}
		return nil
	})
}

// UpdateByKey applies mutate to the member keyed by email and persists the
// result under a compare-and-swap on the version column. Concurrent writers
// that lose the race are retried against fresh state.
func (s *MemberStore) UpdateByKey(ctx context.Context, email string, mutate func(*models.Member)) (*models.Member, error) {
	for attempt := 0; attempt < casMaxAttempts; attempt++ {
		member, err := s.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}

		expectedVersion := member.Version
		mutate(member)
		member.Version = expectedVersion + 1
		member.UpdatedAt = time.Now()

		res := s.db.WithContext(ctx).Model(&models.Member{}).
			Where("email = ? AND version = ?", email, expectedVersion).
			Updates(map[string]interface{}{
				"is_active":  member.IsActive,
				"is_paid":    member.IsPaid,
				"plan_type":  member.PlanType,
				"paid_at":    member.PaidAt,
				"version":    member.Version,
				"updated_at": member.UpdatedAt,
			})
		if res.Error != nil {
			// A failure mid-persist leaves state undefined for this record
			return nil, fmt.Errorf("failed to persist member update, state needs manual inspection: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			return member, nil
		}
		// Lost the version race, reload and retry
	}
	return nil, apierrors.Internal(fmt.Sprintf("member update contention exceeded %d attempts", casMaxAttempts), nil)
}
