package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apierrors "github.com/enrollhub/enrollment-backend/pkg/errors"
	"github.com/enrollhub/enrollment-backend/v1/models"
)

// PricingService manages the configured price table for plan tiers
type PricingService struct {
	db *gorm.DB
}

// NewPricingService creates a new pricing service
func NewPricingService(db *gorm.DB) *PricingService {
	return &PricingService{db: db}
}

// SetPrices upserts the provided amounts. Nil fields are left unchanged.
func (s *PricingService) SetPrices(ctx context.Context, table *models.PriceTable) error {
	if table.Monthly == nil && table.Yearly == nil {
		return apierrors.InvalidInput("at least one of monthly or yearly must be provided")
	}

	var rows []models.PlanPrice
	if table.Monthly != nil {
		if *table.Monthly <= 0 {
			return apierrors.InvalidInput("monthly amount must be a positive integer of minor currency units")
		}
		rows = append(rows, models.PlanPrice{Plan: models.PlanMonthly, AmountMinor: *table.Monthly})
	}
	if table.Yearly != nil {
		if *table.Yearly <= 0 {
			return apierrors.InvalidInput("yearly amount must be a positive integer of minor currency units")
		}
		rows = append(rows, models.PlanPrice{Plan: models.PlanYearly, AmountMinor: *table.Yearly})
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "plan"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount_minor", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to store plan prices: %w", err)
	}
	return nil
}

// GetPrices returns the currently configured price table
func (s *PricingService) GetPrices(ctx context.Context) (*models.PriceTable, error) {
	var rows []models.PlanPrice
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load plan prices: %w", err)
	}

	table := &models.PriceTable{}
	for _, row := range rows {
		amount := row.AmountMinor
		switch row.Plan {
		case models.PlanMonthly:
			table.Monthly = &amount
		case models.PlanYearly:
			table.Yearly = &amount
		}
	}
	return table, nil
}

// GetPrice returns the configured amount for one plan, or PricingNotConfigured
func (s *PricingService) GetPrice(ctx context.Context, plan models.PlanType) (int64, error) {
	var row models.PlanPrice
	err := s.db.WithContext(ctx).First(&row, "plan = ?", plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apierrors.PricingNotConfigured(string(plan))
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load plan price: %w", err)
	}
	return row.AmountMinor, nil
}
