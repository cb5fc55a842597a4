package services

import (
	"context"
	"log/slog"
	"time"

	apierrors "github.com/enrollhub/enrollment-backend/pkg/errors"
	"github.com/enrollhub/enrollment-backend/v1/models"
)

// PaymentService creates external checkout sessions and reconciles confirmed
// payments into the member record.
type PaymentService struct {
	store    *MemberStore
	pricing  *PricingService
	provider CheckoutProvider
	currency string
}

// NewPaymentService creates a new payment service
func NewPaymentService(store *MemberStore, pricing *PricingService, provider CheckoutProvider, currency string) *PaymentService {
	return &PaymentService{store: store, pricing: pricing, provider: provider, currency: currency}
}

// CreateSession opens a checkout session for the member's chosen plan and
// returns the provider redirect URL. No local state is mutated; payment is not
// presumed successful until confirmed.
func (s *PaymentService) CreateSession(ctx context.Context, email string, plan models.PlanType) (string, error) {
	if email == "" {
		return "", apierrors.InvalidInput("email is required")
	}
	if !plan.IsValid() {
		return "", apierrors.InvalidInput("plan must be monthly or yearly")
	}

	if _, err := s.store.GetByEmail(ctx, email); err != nil {
		return "", err
	}

	amount, err := s.pricing.GetPrice(ctx, plan)
	if err != nil {
		return "", err
	}

	session, err := s.provider.CreateSession(&CheckoutSessionRequest{
		AmountMinor: amount,
		Currency:    s.currency,
		Metadata: map[string]string{
			"email": email,
			"plan":  string(plan),
		},
	})
	if err != nil {
		return "", err
	}

	slog.Info("Payment session created", "email", email, "plan", plan, "sessionId", session.SessionID)
	return session.RedirectURL, nil
}

// ConfirmPayment reconciles an asynchronous payment confirmation. The provider
// session status is authoritative. Replaying a confirmed session is safe: an
// already-paid member is left untouched, including the payment timestamp.
func (s *PaymentService) ConfirmPayment(ctx context.Context, sessionID, email string, plan models.PlanType) error {
	if sessionID == "" || email == "" || plan == models.PlanUnset {
		return apierrors.InvalidInput("sessionId, email and plan are required")
	}
	if !plan.IsValid() {
		return apierrors.InvalidInput("plan must be monthly or yearly")
	}

	session, err := s.provider.GetSession(sessionID)
	if err != nil {
		return err
	}
	if session.Status != models.SessionStatusPaid {
		slog.Warn("Payment callback for unpaid session", "sessionId", sessionID, "status", session.Status)
		return apierrors.PaymentNotConfirmed(sessionID)
	}

	// A confirmation for an unknown member must not create a record
	member, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if member.IsPaid {
		slog.Info("Payment confirmation replayed, member already paid", "email", email, "sessionId", sessionID)
		return nil
	}

	now := time.Now()
	if _, err := s.store.UpdateByKey(ctx, email, func(m *models.Member) {
		m.IsPaid = true
		m.PlanType = plan
		m.PaidAt = &now
	}); err != nil {
		return err
	}

	slog.Info("Payment confirmed", "email", email, "plan", plan, "sessionId", sessionID)
	return nil
}
