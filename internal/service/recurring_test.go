package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelanceflow/flow/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{"plain month", date(2025, time.March, 15), 1, date(2025, time.April, 15)},
		{"jan 31 clamps to feb 28", date(2025, time.January, 31), 1, date(2025, time.February, 28)},
		{"jan 31 leap year clamps to feb 29", date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{"may 31 clamps to jun 30", date(2025, time.May, 31), 1, date(2025, time.June, 30)},
		{"quarter across year end", date(2025, time.November, 30), 3, date(2026, time.February, 28)},
		{"annual keeps day", date(2025, time.June, 15), 12, date(2026, time.June, 15)},
		{"feb 29 annual clamps to feb 28", date(2024, time.February, 29), 12, date(2025, time.February, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonthsClamped(tt.start, tt.months)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func seedProfile(t *testing.T, svc *BillingService, frequency models.Frequency, due time.Time) *models.RecurringProfile {
	t.Helper()
	profile, err := svc.CreateRecurringProfile(context.Background(), CreateRecurringProfileInput{
		ClientName:  "Acme",
		Frequency:   frequency,
		NextDueDate: due,
		Currency:    "USD",
		Items: []models.ProfileItem{
			{Description: "Retainer", Amount: decimal.NewFromInt(500)},
			{Description: "Hosting", Amount: decimal.NewFromInt(50)},
		},
	})
	require.NoError(t, err)
	return profile
}

func TestCreateRecurringProfileValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateRecurringProfile(ctx, CreateRecurringProfileInput{
		ClientName:  "Acme",
		Frequency:   "Weekly",
		NextDueDate: date(2025, time.April, 1),
		Currency:    "USD",
		Items:       []models.ProfileItem{{Description: "x", Amount: decimal.NewFromInt(1)}},
	})
	require.True(t, IsValidation(err))

	_, err = svc.CreateRecurringProfile(ctx, CreateRecurringProfileInput{
		ClientName:  "Acme",
		Frequency:   models.FrequencyMonthly,
		NextDueDate: date(2025, time.April, 1),
		Currency:    "USD",
	})
	require.True(t, IsValidation(err))
}

func TestMarkRecurringPaidAdvancesByFrequency(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		frequency models.Frequency
		due       time.Time
		want      time.Time
	}{
		{models.FrequencyMonthly, date(2025, time.January, 31), date(2025, time.February, 28)},
		{models.FrequencyQuarterly, date(2025, time.January, 15), date(2025, time.April, 15)},
		{models.FrequencyAnnually, date(2025, time.March, 1), date(2026, time.March, 1)},
	}

	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			profile := seedProfile(t, svc, tt.frequency, tt.due)

			updated, err := svc.MarkRecurringPaid(ctx, profile.ID)
			require.NoError(t, err)
			assert.True(t, updated.NextDueDate.Equal(tt.want), "got %s want %s", updated.NextDueDate, tt.want)
			assert.Equal(t, models.RecurringActive, updated.Status)
		})
	}
}

func TestToggleRecurringStatus(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	profile := seedProfile(t, svc, models.FrequencyMonthly, date(2025, time.April, 1))

	paused, err := svc.ToggleRecurringStatus(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecurringPaid, paused.Status)

	resumed, err := svc.ToggleRecurringStatus(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecurringActive, resumed.Status)
}

func TestDueRecurringProfiles(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	overdue := seedProfile(t, svc, models.FrequencyMonthly, date(2025, time.March, 1))
	seedProfile(t, svc, models.FrequencyMonthly, date(2025, time.June, 1))
	paused := seedProfile(t, svc, models.FrequencyMonthly, date(2025, time.February, 1))
	_, err := svc.ToggleRecurringStatus(ctx, paused.ID)
	require.NoError(t, err)

	due, err := svc.DueRecurringProfiles(ctx, date(2025, time.April, 1))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, overdue.ID, due[0].ID)
}

func TestRecurringAnnualValue(t *testing.T) {
	svc := newTestService(t)
	seedProfile(t, svc, models.FrequencyMonthly, date(2025, time.April, 1))   // 550 * 12
	seedProfile(t, svc, models.FrequencyQuarterly, date(2025, time.April, 1)) // 550 * 4

	value, err := svc.RecurringAnnualValue(context.Background())
	require.NoError(t, err)
	assert.True(t, value["USD"].Equal(decimal.NewFromInt(8800)), "got %s", value["USD"])
}
