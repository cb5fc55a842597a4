package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	apierrors "github.com/enrollhub/enrollment-backend/pkg/errors"
	"github.com/enrollhub/enrollment-backend/v1/models"
)

// MockRoster is a fake roster index for testing
type MockRoster struct {
	ExistsPairFunc         func(organizationID, sponsorID string) (bool, error)
	ResolveDisplayNameFunc func(organizationID, sponsorID string) (string, error)
}

func (m *MockRoster) ExistsPair(organizationID, sponsorID string) (bool, error) {
	if m.ExistsPairFunc != nil {
		return m.ExistsPairFunc(organizationID, sponsorID)
	}
	return true, nil
}

func (m *MockRoster) ResolveDisplayName(organizationID, sponsorID string) (string, error) {
	if m.ResolveDisplayNameFunc != nil {
		return m.ResolveDisplayNameFunc(organizationID, sponsorID)
	}
	return "Jane Doe", nil
}

func validRequest(email string) *models.ValidateRequest {
	return &models.ValidateRequest{
		OrganizationID: "ORG1",
		SponsorID:      "SP1",
		Email:          email,
	}
}

func TestRegister_Success(t *testing.T) {
	// Arrange
	db := SetupSQLiteTestDB(t)
	service := NewRegistrationService(NewMemberStore(db), &MockRoster{})
	ctx := context.Background()

	// Act
	found, err := service.Register(ctx, validRequest("a@example.com"))

	// Assert
	assert.NoError(t, err)
	assert.True(t, found)

	var member models.Member
	assert.NoError(t, db.First(&member, "email = ?", "a@example.com").Error)
	assert.Contains(t, member.MemberID, "mem_")
	assert.Equal(t, "ORG1", member.OrganizationID)
	assert.Equal(t, "SP1", member.SponsorID)
	assert.False(t, member.IsActive)
	assert.False(t, member.IsPaid)
	assert.Equal(t, models.PlanUnset, member.PlanType)
}

func TestRegister_RosterMissIsNotAnError(t *testing.T) {
	// Arrange
	db := SetupSQLiteTestDB(t)
	mockRoster := &MockRoster{
		ExistsPairFunc: func(organizationID, sponsorID string) (bool, error) {
			return false, nil
		},
	}
	service := NewRegistrationService(NewMemberStore(db), mockRoster)
	ctx := context.Background()

	// Act
	found, err := service.Register(ctx, validRequest("a@example.com"))

	// Assert
	assert.NoError(t, err)
	assert.False(t, found)

	var count int64
	db.Model(&models.Member{}).Count(&count)
	assert.Equal(t, int64(0), count, "a roster miss must not create a record")
}

func TestRegister_MissingFields(t *testing.T) {
	// Arrange
	db := SetupSQLiteTestDB(t)
	service := NewRegistrationService(NewMemberStore(db), &MockRoster{})
	ctx := context.Background()

	// Act
	found, err := service.Register(ctx, &models.ValidateRequest{
		OrganizationID: "ORG1",
		SponsorID:      "",
		Email:          "a@example.com",
	})

	// Assert
	assert.Error(t, err)
	assert.False(t, found)
	apiErr := apierrors.AsAPIError(err)
	assert.NotNil(t, apiErr)
	assert.Equal(t, "INVALID_INPUT", apiErr.Code)
}

func TestRegister_OrganizationCapacityExceeded(t *testing.T) {
	// Arrange
	db := SetupSQLiteTestDB(t)
	service := NewRegistrationService(NewMemberStore(db), &MockRoster{})
	ctx := context.Background()

	// Two members fit under the cap
	for i, email := range []string{"a@x.com", "b@x.com"} {
		found, err := service.Register(ctx, validRequest(email))
		assert.NoError(t, err, "registration %d should succeed", i+1)
		assert.True(t, found)
	}

	// Act: the third registration against the same organization
	found, err := service.Register(ctx, validRequest("c@x.com"))

	// Assert
	assert.Error(t, err)
	assert.False(t, found)
	apiErr := apierrors.AsAPIError(err)
	assert.NotNil(t, apiErr)
	assert.Equal(t, "CAPACITY_EXCEEDED", apiErr.Code)

	var count int64
	db.Model(&models.Member{}).Where("organization_id = ?", "ORG1").Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestRegister_ConcurrentRegistrationsRespectCap(t *testing.T) {
	// Arrange
	db := SetupFileTestDB(t)
	service := NewRegistrationService(NewMemberStore(db), &MockRoster{})

	// Act: many registrations race against the same organization
	const attempts = 10
	results := make(chan bool, attempts)
	failures := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			found, err := service.Register(context.Background(), validRequest(fmt.Sprintf("user%d@x.com", i)))
			if err != nil {
				failures <- err
				return
			}
			results <- found
		}(i)
	}
	wg.Wait()
	close(results)
	close(failures)

	// Assert: exactly two acceptances, everything else rejected on capacity
	acceptedCount := 0
	for found := range results {
		if found {
			acceptedCount++
		}
	}
	assert.Equal(t, 2, acceptedCount)

	rejectedCount := 0
	for err := range failures {
		rejectedCount++
		apiErr := apierrors.AsAPIError(err)
		if assert.NotNil(t, apiErr, "unexpected error kind: %v", err) {
			assert.Equal(t, "CAPACITY_EXCEEDED", apiErr.Code)
		}
	}
	assert.Equal(t, attempts-2, rejectedCount)

	var count int64
	db.Model(&models.Member{}).Where("organization_id = ?", "ORG1").Count(&count)
	assert.Equal(t, int64(2), count, "the cap must hold under concurrent registrations")
}

func TestRegister_CapIsPerOrganization(t *testing.T) {
	// Arrange
	db := SetupSQLiteTestDB(t)
	service := NewRegistrationService(NewMemberStore(db), &MockRoster{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := service.Register(ctx, validRequest(fmt.Sprintf("org1-%d@x.com", i)))
		assert.NoError(t, err)
	}

	// Act: a different organization is unaffected by ORG1 being full
	found, err := service.Register(ctx, &models.ValidateRequest{
		OrganizationID: "ORG2",
		SponsorID:      "SP9",
		Email:          "other@x.com",
	})

	// Assert
	assert.NoError(t, err)
	assert.True(t, found)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	// Arrange
	db := SetupSQLiteTestDB(t)
	service := NewRegistrationService(NewMemberStore(db), &MockRoster{})
	ctx := context.Background()

	_, err := service.Register(ctx, validRequest("a@example.com"))
	assert.NoError(t, err)

	// Act
	found, err := service.Register(ctx, validRequest("a@example.com"))

	// Assert
	assert.Error(t, err)
	assert.False(t, found)
	apiErr := apierrors.AsAPIError(err)
	assert.NotNil(t, apiErr)
	assert.Equal(t, "DUPLICATE_EMAIL", apiErr.Code)

	var count int64
	db.Model(&models.Member{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRegister_RosterUnavailable(t *testing.T) {
	// Arrange
	db := SetupSQLiteTestDB(t)
	mockRoster := &MockRoster{
		ExistsPairFunc: func(organizationID, sponsorID string) (bool, error) {
			return false, apierrors.SourceUnavailable(fmt.Errorf("open roster.csv: no such file or directory"))
		},
	}
	service := NewRegistrationService(NewMemberStore(db), mockRoster)
	ctx := context.Background()

	// Act
	found, err := service.Register(ctx, validRequest("a@example.com"))

	// Assert
	assert.Error(t, err)
	assert.False(t, found)
	apiErr := apierrors.AsAPIError(err)
	assert.NotNil(t, apiErr)
	assert.Equal(t, "SOURCE_UNAVAILABLE", apiErr.Code)

	var count int64
	db.Model(&models.Member{}).Count(&count)
	assert.Equal(t, int64(0), count, "a roster failure must not create a record")
}

func TestRegister_OptionalFieldsStored(t *testing.T) {
	// Arrange
	db := SetupSQLiteTestDB(t)
	service := NewRegistrationService(NewMemberStore(db), &MockRoster{})
	ctx := context.Background()

	sponsorName := "Acme Sponsorships"
	phone := "+14155550123"
	req := validRequest("a@example.com")
	req.SponsorName = &sponsorName
	req.Phone = &phone

	// Act
	found, err := service.Register(ctx, req)

	// Assert
	assert.NoError(t, err)
	assert.True(t, found)

	var member models.Member
	assert.NoError(t, db.First(&member, "email = ?", "a@example.com").Error)
	if assert.NotNil(t, member.SponsorName) {
		assert.Equal(t, sponsorName, *member.SponsorName)
	}
	if assert.NotNil(t, member.Phone) {
		assert.Equal(t, phone, *member.Phone)
	}
}
