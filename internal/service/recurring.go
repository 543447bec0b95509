package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/freelanceflow/flow/internal/database"
	"github.com/freelanceflow/flow/internal/models"
)

// AddMonthsClamped advances a date by whole months, clamping the day to the
// last day of the target month. Jan 31 plus one month lands on Feb 28, or
// Feb 29 in a leap year, never on Mar 2 like the stdlib's normalizing
// AddDate would give.
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	month += time.Month(months)

	firstOfTarget := time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}

	hour, minute, sec := t.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

type CreateRecurringProfileInput struct {
	ClientName  string           `validate:"required"`
	Frequency   models.Frequency `validate:"required"`
	NextDueDate time.Time        `validate:"required"`
	Currency    string           `validate:"required,len=3,uppercase"`
	Items       []models.ProfileItem
}

func (s *BillingService) CreateRecurringProfile(ctx context.Context, in CreateRecurringProfileInput) (*models.RecurringProfile, error) {
	if err := s.checkInput(in); err != nil {
		return nil, err
	}
	if !in.Frequency.Valid() {
		return nil, &ValidationError{Field: "Frequency", Reason: "must be Monthly, Quarterly or Annually"}
	}
	if len(in.Items) == 0 {
		return nil, &ValidationError{Field: "Items", Reason: "at least one item is required"}
	}
	for _, item := range in.Items {
		if !item.Amount.IsPositive() {
			return nil, &ValidationError{Field: "Items", Reason: "item amounts must be positive"}
		}
	}

	now := time.Now().UTC()
	profile := &models.RecurringProfile{
		ID:          models.NewUUID(),
		ClientName:  in.ClientName,
		Frequency:   in.Frequency,
		NextDueDate: in.NextDueDate,
		Currency:    in.Currency,
		Status:      models.RecurringActive,
		Items:       in.Items,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateRecurringProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create recurring profile: %w", err)
	}
	s.log.Info().Str("profile", profile.ID).Str("client", profile.ClientName).
		Str("frequency", string(profile.Frequency)).Msg("recurring profile created")
	return profile, nil
}

func (s *BillingService) GetRecurringProfile(ctx context.Context, id string) (*models.RecurringProfile, error) {
	profile, err := s.store.GetRecurringProfile(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, &NotFoundError{Entity: "recurring profile", ID: id}
	}
	return profile, err
}

func (s *BillingService) ListRecurringProfiles(ctx context.Context) ([]*models.RecurringProfile, error) {
	return s.store.ListRecurringProfiles(ctx)
}

func (s *BillingService) DeleteRecurringProfile(ctx context.Context, id string) error {
	err := s.store.DeleteRecurringProfile(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return &NotFoundError{Entity: "recurring profile", ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to delete recurring profile: %w", err)
	}
	return nil
}

// MarkRecurringPaid records the current cycle as settled and rolls the due
// date forward one billing interval. The profile returns to Active so the
// next cycle is immediately pending.
func (s *BillingService) MarkRecurringPaid(ctx context.Context, id string) (*models.RecurringProfile, error) {
	profile, err := s.GetRecurringProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	profile.NextDueDate = AddMonthsClamped(profile.NextDueDate, profile.Frequency.Months())
	profile.Status = models.RecurringActive
	profile.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateRecurringProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update recurring profile: %w", err)
	}
	s.log.Info().Str("profile", profile.ID).
		Time("nextDue", profile.NextDueDate).Msg("recurring cycle settled")
	return profile, nil
}

// ToggleRecurringStatus pauses or resumes a profile without touching its
// schedule.
func (s *BillingService) ToggleRecurringStatus(ctx context.Context, id string) (*models.RecurringProfile, error) {
	profile, err := s.GetRecurringProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile.Status == models.RecurringActive {
		profile.Status = models.RecurringPaid
	} else {
		profile.Status = models.RecurringActive
	}
	profile.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateRecurringProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update recurring profile: %w", err)
	}
	return profile, nil
}

// DueRecurringProfiles lists active profiles whose next due date is on or
// before the given day.
func (s *BillingService) DueRecurringProfiles(ctx context.Context, now time.Time) ([]*models.RecurringProfile, error) {
	profiles, err := s.store.ListRecurringProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring profiles: %w", err)
	}
	var out []*models.RecurringProfile
	for _, profile := range profiles {
		if profile.Status != models.RecurringActive {
			continue
		}
		if profile.NextDueDate.After(now) {
			continue
		}
		out = append(out, profile)
	}
	return out, nil
}

// RecurringAnnualValue sums the yearly value of active profiles per
// currency.
func (s *BillingService) RecurringAnnualValue(ctx context.Context) (map[string]decimal.Decimal, error) {
	profiles, err := s.store.ListRecurringProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring profiles: %w", err)
	}
	out := make(map[string]decimal.Decimal)
	for _, profile := range profiles {
		if profile.Status != models.RecurringActive {
			continue
		}
		cyclesPerYear := decimal.NewFromInt(int64(12 / profile.Frequency.Months()))
		annual := profile.Amount().Mul(cyclesPerYear)
		out[profile.Currency] = out[profile.Currency].Add(annual)
	}
	return out, nil
}
