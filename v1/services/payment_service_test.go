package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	apierrors "github.com/enrollhub/enrollment-backend/pkg/errors"
	"github.com/enrollhub/enrollment-backend/v1/models"
)

// MockCheckoutProvider is a fake payment provider for testing
type MockCheckoutProvider struct {
	CreateSessionFunc func(req *CheckoutSessionRequest) (*CheckoutSession, error)
	GetSessionFunc    func(sessionID string) (*CheckoutSession, error)
}

func (m *MockCheckoutProvider) CreateSession(req *CheckoutSessionRequest) (*CheckoutSession, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(req)
	}
	return &CheckoutSession{
		SessionID:   "cs_test",
		RedirectURL: "https://checkout.example.com/cs_test",
		Status:      models.SessionStatusUnpaid,
	}, nil
}

func (m *MockCheckoutProvider) GetSession(sessionID string) (*CheckoutSession, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(sessionID)
	}
	return &CheckoutSession{SessionID: sessionID, Status: models.SessionStatusPaid}, nil
}

func setupPaymentService(t *testing.T, provider CheckoutProvider) (*gorm.DB, *PaymentService) {
	t.Helper()
	db := SetupSQLiteTestDB(t)
	store := NewMemberStore(db)
	seedMember(t, NewRegistrationService(store, &MockRoster{}), "a@example.com")

	pricing := NewPricingService(db)
	monthly := int64(2000)
	yearly := int64(20000)
	assert.NoError(t, pricing.SetPrices(context.Background(), &models.PriceTable{Monthly: &monthly, Yearly: &yearly}))

	return db, NewPaymentService(store, pricing, provider, "usd")
}

func TestCreateSession_Success(t *testing.T) {
	// Arrange
	var captured *CheckoutSessionRequest
	provider := &MockCheckoutProvider{
		CreateSessionFunc: func(req *CheckoutSessionRequest) (*CheckoutSession, error) {
			captured = req
			return &CheckoutSession{
				SessionID:   "cs_123",
				RedirectURL: "https://checkout.example.com/cs_123",
				Status:      models.SessionStatusUnpaid,
			}, nil
		},
	}
	db, service := setupPaymentService(t, provider)
	ctx := context.Background()

	// Act
	redirectURL, err := service.CreateSession(ctx, "a@example.com", models.PlanMonthly)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/cs_123", redirectURL)
	if assert.NotNil(t, captured) {
		assert.Equal(t, int64(2000), captured.AmountMinor)
		assert.Equal(t, "usd", captured.Currency)
		assert.Equal(t, "a@example.com", captured.Metadata["email"])
		assert.Equal(t, "monthly", captured.Metadata["plan"])
	}

	// Creating a session must not flip any member state
	var member models.Member
	assert.NoError(t, db.First(&member, "email = ?", "a@example.com").Error)
	assert.False(t, member.IsPaid)
	assert.Nil(t, member.PaidAt)
}

func TestCreateSession_MemberNotFound(t *testing.T) {
	// Arrange
	_, service := setupPaymentService(t, &MockCheckoutProvider{})

	// Act
	redirectURL, err := service.CreateSession(context.Background(), "nobody@example.com", models.PlanMonthly)

	// Assert
	assert.Error(t, err)
	assert.Empty(t, redirectURL)
	apiErr := apierrors.AsAPIError(err)
	assert.NotNil(t, apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestCreateSession_InvalidPlan(t *testing.T) {
	// Arrange
	_, service := setupPaymentService(t, &MockCheckoutProvider{})

	// Act
	_, err := service.CreateSession(context.Background(), "a@example.com", models.PlanType("weekly"))

	// Assert
	assert.Error(t, err)
	apiErr := apierrors.AsAPIError(err)
	assert.NotNil(t, apiErr)
	assert.Equal(t, "INVALID_INPUT", apiErr.Code)
}

func TestCreateSession_PricingNotConfigured(t *testing.T) {
	// Arrange: member exists but no prices were ever set
	db := SetupSQLiteTestDB(t)
	store := NewMemberStore(db)
	seedMember(t, NewRegistrationService(store, &MockRoster{}), "a@example.com")
	service := NewPaymentService(store, NewPricingService(db), &MockCheckoutProvider{}, "usd")

	// Act
	_, err := service.CreateSession(context.Background(), "a@example.com", models.PlanYearly)

	// Assert
	assert.Error(t, err)
	apiErr := apierrors.AsAPIError(err)
	assert.NotNil(t, apiErr)
	assert.Equal(t, "PRICING_NOT_CONFIGURED", apiErr.Code)
}

func TestConfirmPayment_Success(t *testing.T) {
	// Arrange
	db, service := setupPaymentService(t, &MockCheckoutProvider{
		GetSessionFunc: func(sessionID string) (*CheckoutSession, error) {
			return &CheckoutSession{SessionID: sessionID, Status: models.SessionStatusPaid}, nil
		},
	})
	ctx := context.Background()

	// Act
	err := service.ConfirmPayment(ctx, "cs_123", "a@example.com", models.PlanMonthly)

	// Assert
	assert.NoError(t, err)
	var member models.Member
	assert.NoError(t, db.First(&member, "email = ?", "a@example.com").Error)
	assert.True(t, member.IsPaid)
	assert.Equal(t, models.PlanMonthly, member.PlanType)
	assert.NotNil(t, member.PaidAt)
}

func TestConfirmPayment_SessionNotPaid(t *testing.T) {
	// Arrange
	db, service := setupPaymentService(t, &MockCheckoutProvider{
		GetSessionFunc: func(sessionID string) (*CheckoutSession, error) {
			return &CheckoutSession{SessionID: sessionID, Status: models.SessionStatusUnpaid}, nil
		},
	})

	// Act
	err := service.ConfirmPayment(context.Background(), "cs_123", "a@example.com", models.PlanMonthly)

	// Assert
	assert.Error(t, err)
	apiErr := apierrors.AsAPIError(err)
	assert.NotNil(t, apiErr)
	assert.Equal(t, "PAYMENT_NOT_CONFIRMED", apiErr.Code)

	var member models.Member
	assert.NoError(t, db.First(&member, "email = ?", "a@example.com").Error)
	assert.False(t, member.IsPaid)
	assert.Nil(t, member.PaidAt)
}

func TestConfirmPayment_ReplayLeavesTimestampStable(t *testing.T) {
	// Arrange
	db, service := setupPaymentService(t, &MockCheckoutProvider{})
	ctx := context.Background()

	assert.NoError(t, service.ConfirmPayment(ctx, "cs_123", "a@example.com", models.PlanMonthly))

	var first models.Member
	assert.NoError(t, db.First(&first, "email = ?", "a@example.com").Error)
	assert.NotNil(t, first.PaidAt)
	firstPaidAt := *first.PaidAt

	time.Sleep(10 * time.Millisecond)

	// Act: the provider redelivers the same confirmation
	err := service.ConfirmPayment(ctx, "cs_123", "a@example.com", models.PlanMonthly)

	// Assert
	assert.NoError(t, err)
	var second models.Member
	assert.NoError(t, db.First(&second, "email = ?", "a@example.com").Error)
	assert.True(t, second.IsPaid)
	if assert.NotNil(t, second.PaidAt) {
		assert.Equal(t, firstPaidAt.UnixNano(), second.PaidAt.UnixNano(), "replay must not move the payment timestamp")
	}
}

func TestConfirmPayment_UnknownMemberCreatesNothing(t *testing.T) {
	// Arrange
	db, service := setupPaymentService(t, &MockCheckoutProvider{})

	// Act
	err := service.ConfirmPayment(context.Background(), "cs_123", "nobody@example.com", models.PlanMonthly)

	// Assert
	assert.Error(t, err)
	apiErr := apierrors.AsAPIError(err)
	assert.NotNil(t, apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)

	var count int64
	db.Model(&models.Member{}).Where("email = ?", "nobody@example.com").Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestConfirmPayment_MissingParameters(t *testing.T) {
	// Arrange
	_, service := setupPaymentService(t, &MockCheckoutProvider{})
	ctx := context.Background()

	cases := []struct {
		name      string
		sessionID string
		email     string
		plan      models.PlanType
	}{
		{"missing session", "", "a@example.com", models.PlanMonthly},
		{"missing email", "cs_123", "", models.PlanMonthly},
		{"missing plan", "cs_123", "a@example.com", models.PlanUnset},
		{"unknown plan", "cs_123", "a@example.com", models.PlanType("weekly")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := service.ConfirmPayment(ctx, tc.sessionID, tc.email, tc.plan)
			assert.Error(t, err)
			apiErr := apierrors.AsAPIError(err)
			assert.NotNil(t, apiErr)
			assert.Equal(t, "INVALID_INPUT", apiErr.Code)
		})
	}
}

func TestConfirmPayment_ProviderUnavailable(t *testing.T) {
	// Arrange
	db, service := setupPaymentService(t, &MockCheckoutProvider{
		GetSessionFunc: func(sessionID string) (*CheckoutSession, error) {
			return nil, apierrors.ProviderUnavailable(assert.AnError)
		},
	})

	// Act
	err := service.ConfirmPayment(context.Background(), "cs_123", "a@example.com", models.PlanMonthly)

	// Assert
	assert.Error(t, err)
	apiErr := apierrors.AsAPIError(err)
	assert.NotNil(t, apiErr)
	assert.Equal(t, "PROVIDER_UNAVAILABLE", apiErr.Code)

	var member models.Member
	assert.NoError(t, db.First(&member, "email = ?", "a@example.com").Error)
	assert.False(t, member.IsPaid)
}
