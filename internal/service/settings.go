package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/freelanceflow/flow/internal/models"
)

func (s *BillingService) TaxSettings(ctx context.Context) (*models.TaxSettings, error) {
	return s.store.GetTaxSettings(ctx)
}

type UpdateTaxSettingsInput struct {
	Rate             decimal.Decimal
	Inclusive        bool
	InternalCostRate decimal.Decimal
}

func (s *BillingService) UpdateTaxSettings(ctx context.Context, in UpdateTaxSettingsInput) (*models.TaxSettings, error) {
	if in.Rate.IsNegative() || in.Rate.GreaterThan(hundred) {
		return nil, &ValidationError{Field: "Rate", Reason: "must be between 0 and 100"}
	}
	if in.InternalCostRate.IsNegative() || in.InternalCostRate.GreaterThan(hundred) {
		return nil, &ValidationError{Field: "InternalCostRate", Reason: "must be between 0 and 100"}
	}
	settings := &models.TaxSettings{
		Rate:             in.Rate,
		Inclusive:        in.Inclusive,
		InternalCostRate: in.InternalCostRate,
	}
	if err := s.store.SaveTaxSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save tax settings: %w", err)
	}
	return settings, nil
}

func (s *BillingService) CurrencySettings(ctx context.Context) (*models.CurrencySettings, error) {
	return s.store.GetCurrencySettings(ctx)
}

type UpdateCurrencySettingsInput struct {
	Default         string `validate:"required,len=3,uppercase"`
	InvoiceLanguage string `validate:"required,oneof=en de"`
}

func (s *BillingService) UpdateCurrencySettings(ctx context.Context, in UpdateCurrencySettingsInput) (*models.CurrencySettings, error) {
	if err := s.checkInput(in); err != nil {
		return nil, err
	}
	settings := &models.CurrencySettings{
		Default:         in.Default,
		InvoiceLanguage: in.InvoiceLanguage,
	}
	if err := s.store.SaveCurrencySettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save currency settings: %w", err)
	}
	return settings, nil
}
