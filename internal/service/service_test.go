package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/freelanceflow/flow/internal/database"
	"github.com/freelanceflow/flow/internal/models"
)

func newTestService(t *testing.T) *BillingService {
	t.Helper()
	return NewBillingService(database.NewMemoryStore(), zerolog.Nop())
}

// seedClientProject creates a client with one project and returns both.
func seedClientProject(t *testing.T, svc *BillingService, clientName, rate, currency string) (*models.Client, *models.Project) {
	t.Helper()
	ctx := context.Background()
	client, err := svc.CreateClient(ctx, CreateClientInput{Name: clientName})
	require.NoError(t, err)
	project, err := svc.CreateProject(ctx, CreateProjectInput{
		Name:     clientName + " Work",
		ClientID: client.ID,
		Rate:     decimal.RequireFromString(rate),
		Currency: currency,
	})
	require.NoError(t, err)
	return client, project
}

// seedEntry logs a finished entry of the given length.
func seedEntry(t *testing.T, svc *BillingService, projectID string, hours float64) *models.TimeEntry {
	t.Helper()
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	entry, err := svc.LogEntry(context.Background(), LogEntryInput{
		ProjectID: projectID,
		StartTime: start,
		EndTime:   start.Add(time.Duration(hours * float64(time.Hour))),
	})
	require.NoError(t, err)
	return entry
}

func TestCreateClientRejectsDuplicateName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateClient(ctx, CreateClientInput{Name: "Acme"})
	require.NoError(t, err)

	_, err = svc.CreateClient(ctx, CreateClientInput{Name: "Acme"})
	require.True(t, IsConflict(err))
}

func TestCreateClientValidatesEmail(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateClient(context.Background(), CreateClientInput{Name: "Acme", Email: "not-an-email"})
	require.True(t, IsValidation(err))
}

func TestCreateProjectRequiresClient(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateProject(context.Background(), CreateProjectInput{
		Name:     "Orphan",
		ClientID: "missing",
		Rate:     decimal.NewFromInt(100),
		Currency: "USD",
	})
	require.True(t, IsNotFound(err))
}

func TestStartWorkStopsPreviousEntry(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, project := seedClientProject(t, svc, "Acme", "100", "USD")

	first, err := svc.StartWork(ctx, project.ID, nil)
	require.NoError(t, err)

	second, err := svc.StartWork(ctx, project.ID, nil)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	active, err := svc.ActiveEntry(ctx)
	require.NoError(t, err)
	require.Equal(t, second.ID, active.ID)

	stopped, err := svc.StopWork(ctx)
	require.NoError(t, err)
	require.Equal(t, second.ID, stopped.ID)
	require.NotNil(t, stopped.EndTime)

	active, err = svc.ActiveEntry(ctx)
	require.NoError(t, err)
	require.Nil(t, active)
}

func TestStopWorkWithoutActiveEntry(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.StopWork(context.Background())
	require.True(t, IsNotFound(err))
}

func TestLogEntryRejectsInvertedTimes(t *testing.T) {
	svc := newTestService(t)
	_, project := seedClientProject(t, svc, "Acme", "100", "USD")

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	_, err := svc.LogEntry(context.Background(), LogEntryInput{
		ProjectID: project.ID,
		StartTime: start,
		EndTime:   start.Add(-time.Hour),
	})
	require.True(t, IsValidation(err))
}

func TestLogEntryKeepsDescription(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, project := seedClientProject(t, svc, "Acme", "100", "USD")

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	_, err := svc.LogEntry(ctx, LogEntryInput{
		ProjectID:   project.ID,
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		Description: models.Ptr("homepage build"),
	})
	require.NoError(t, err)

	entries, err := svc.ListTimeEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "homepage build", models.Deref(entries[0].Description))
	require.Equal(t, "Acme Work", entries[0].ProjectName)
	require.True(t, entries[0].Rate.Equal(decimal.NewFromInt(100)))
}

func TestCreateExpenseRejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(t)
	_, project := seedClientProject(t, svc, "Acme", "100", "USD")

	_, err := svc.CreateExpense(context.Background(), CreateExpenseInput{
		ProjectID:   project.ID,
		Amount:      decimal.NewFromInt(-5),
		Date:        time.Now(),
		Description: "refund",
	})
	require.True(t, IsValidation(err))
}

func TestDeleteTimeEntryRefusesBilled(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")
	entry := seedEntry(t, svc, project.ID, 2)

	_, err := svc.CreateInvoice(ctx, client.ID, []string{entry.ID}, nil)
	require.NoError(t, err)

	err = svc.DeleteTimeEntry(ctx, entry.ID)
	require.True(t, IsPrecondition(err))
}
