package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	apierrors "github.com/enrollhub/enrollment-backend/pkg/errors"
	"github.com/enrollhub/enrollment-backend/v1/models"
)

func int64Ptr(v int64) *int64 { return &v }

func TestSetPrices_BothPlans(t *testing.T) {
	// Arrange
	db := SetupSQLiteTestDB(t)
	service := NewPricingService(db)
	ctx := context.Background()

	// Act
	err := service.SetPrices(ctx, &models.PriceTable{Monthly: int64Ptr(2000), Yearly: int64Ptr(20000)})

	// Assert
	assert.NoError(t, err)
	table, err := service.GetPrices(ctx)
	assert.NoError(t, err)
	if assert.NotNil(t, table.Monthly) {
		assert.Equal(t, int64(2000), *table.Monthly)
	}
	if assert.NotNil(t, table.Yearly) {
		assert.Equal(t, int64(20000), *table.Yearly)
	}
}

func TestSetPrices_PartialUpdatePreservesOtherPlan(t *testing.T) {
	// Arrange
	db := SetupSQLiteTestDB(t)
	service := NewPricingService(db)
	ctx := context.Background()
	assert.NoError(t, service.SetPrices(ctx, &models.PriceTable{Monthly: int64Ptr(2000), Yearly: int64Ptr(20000)}))

	// Act: only the monthly amount changes
	err := service.SetPrices(ctx, &models.PriceTable{Monthly: int64Ptr(2500)})

	// Assert
	assert.NoError(t, err)
	table, err := service.GetPrices(ctx)
	assert.NoError(t, err)
	if assert.NotNil(t, table.Monthly) {
		assert.Equal(t, int64(2500), *table.Monthly)
	}
	if assert.NotNil(t, table.Yearly) {
		assert.Equal(t, int64(20000), *table.Yearly)
	}
}

func TestSetPrices_NoFieldsProvided(t *testing.T) {
	// Arrange
	db := SetupSQLiteTestDB(t)
	service := NewPricingService(db)

	// Act
	err := service.SetPrices(context.Background(), &models.PriceTable{})

	// Assert
	assert.Error(t, err)
	apiErr := apierrors.AsAPIError(err)
	assert.NotNil(t, apiErr)
	assert.Equal(t, "INVALID_INPUT", apiErr.Code)
}

func TestSetPrices_NonPositiveAmount(t *testing.T) {
	// Arrange
	db := SetupSQLiteTestDB(t)
	service := NewPricingService(db)
	ctx := context.Background()

	cases := []struct {
		name  string
		table *models.PriceTable
	}{
		{"zero monthly", &models.PriceTable{Monthly: int64Ptr(0)}},
		{"negative yearly", &models.PriceTable{Yearly: int64Ptr(-100)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := service.SetPrices(ctx, tc.table)
			assert.Error(t, err)
			apiErr := apierrors.AsAPIError(err)
			assert.NotNil(t, apiErr)
			assert.Equal(t, "INVALID_INPUT", apiErr.Code)
		})
	}
}

func TestGetPrices_EmptyTable(t *testing.T) {
	// Arrange
	db := SetupSQLiteTestDB(t)
	service := NewPricingService(db)

	// Act
	table, err := service.GetPrices(context.Background())

	// Assert
	assert.NoError(t, err)
	assert.Nil(t, table.Monthly)
	assert.Nil(t, table.Yearly)
}

func TestGetPrice_NotConfigured(t *testing.T) {
	// Arrange
	db := SetupSQLiteTestDB(t)
	service := NewPricingService(db)

	// Act
	_, err := service.GetPrice(context.Background(), models.PlanMonthly)

	// Assert
	assert.Error(t, err)
	apiErr := apierrors.AsAPIError(err)
	assert.NotNil(t, apiErr)
	assert.Equal(t, "PRICING_NOT_CONFIGURED", apiErr.Code)
}

func TestGetPrice_Configured(t *testing.T) {
	// Arrange
	db := SetupSQLiteTestDB(t)
	service := NewPricingService(db)
	ctx := context.Background()
	assert.NoError(t, service.SetPrices(ctx, &models.PriceTable{Yearly: int64Ptr(20000)}))

	// Act
	amount, err := service.GetPrice(ctx, models.PlanYearly)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(20000), amount)
}
