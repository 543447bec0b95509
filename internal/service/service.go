package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/freelanceflow/flow/internal/database"
	"github.com/freelanceflow/flow/internal/models"
)

// BillingService owns every billing workflow: tracked work, expenses,
// invoice lifecycle, archiving, recurring profiles and settings. All writes
// go through the store; the service holds no state of its own.
type BillingService struct {
	store    database.Store
	validate *validator.Validate
	log      zerolog.Logger
}

func NewBillingService(store database.Store, log zerolog.Logger) *BillingService {
	return &BillingService{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

func (s *BillingService) checkInput(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ValidationError{Field: verrs[0].Field(), Reason: verrs[0].Tag()}
	}
	return err
}

type CreateClientInput struct {
	Name  string `validate:"required"`
	Email string `validate:"omitempty,email"`
}

func (s *BillingService) CreateClient(ctx context.Context, in CreateClientInput) (*models.Client, error) {
	if err := s.checkInput(in); err != nil {
		return nil, err
	}
	if _, err := s.store.GetClientByName(ctx, in.Name); err == nil {
		return nil, &ConflictError{EntityID: in.Name, Reason: "client name already exists"}
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to check client name: %w", err)
	}

	now := time.Now().UTC()
	client := &models.Client{
		ID:        models.NewUUID(),
		Name:      in.Name,
		Email:     in.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateClient(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	s.log.Info().Str("client", client.Name).Msg("client created")
	return client, nil
}

func (s *BillingService) GetClient(ctx context.Context, id string) (*models.Client, error) {
	client, err := s.store.GetClient(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, &NotFoundError{Entity: "client", ID: id}
	}
	return client, err
}

func (s *BillingService) GetClientByName(ctx context.Context, name string) (*models.Client, error) {
	client, err := s.store.GetClientByName(ctx, name)
	if errors.Is(err, database.ErrNotFound) {
		return nil, &NotFoundError{Entity: "client", ID: name}
	}
	return client, err
}

func (s *BillingService) ListClients(ctx context.Context, includeArchived bool) ([]*models.Client, error) {
	return s.store.ListClients(ctx, includeArchived)
}

type CreateProjectInput struct {
	Name     string          `validate:"required"`
	ClientID string          `validate:"required"`
	Rate     decimal.Decimal `validate:"required"`
	Currency string          `validate:"required,len=3,uppercase"`
}

func (s *BillingService) CreateProject(ctx context.Context, in CreateProjectInput) (*models.Project, error) {
	if err := s.checkInput(in); err != nil {
		return nil, err
	}
	if in.Rate.IsNegative() {
		return nil, &ValidationError{Field: "Rate", Reason: "must not be negative"}
	}
	if _, err := s.GetClient(ctx, in.ClientID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	project := &models.Project{
		ID:        models.NewUUID(),
		Name:      in.Name,
		ClientID:  in.ClientID,
		Rate:      in.Rate,
		Currency:  in.Currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	s.log.Info().Str("project", project.Name).Str("currency", project.Currency).Msg("project created")
	return project, nil
}

func (s *BillingService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, &NotFoundError{Entity: "project", ID: id}
	}
	return project, err
}

func (s *BillingService) ListProjects(ctx context.Context, includeArchived bool) ([]*models.Project, error) {
	return s.store.ListProjects(ctx, includeArchived)
}

func (s *BillingService) ListProjectsByClient(ctx context.Context, clientID string, includeArchived bool) ([]*models.Project, error) {
	return s.store.ListProjectsByClient(ctx, clientID, includeArchived)
}

// StartWork opens a running time entry on the project. Any entry still
// running is stopped first so there is at most one open entry.
func (s *BillingService) StartWork(ctx context.Context, projectID string, description *string) (*models.TimeEntry, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if active, err := s.store.GetActiveTimeEntry(ctx); err == nil {
		if _, err := s.StopWork(ctx); err != nil {
			return nil, fmt.Errorf("failed to stop active entry: %w", err)
		}
		s.log.Info().Str("entry", active.ID).Msg("stopped previous entry")
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for active entry: %w", err)
	}

	now := time.Now().UTC()
	entry := &models.TimeEntry{
		ID:          models.NewUUID(),
		ProjectID:   project.ID,
		StartTime:   now,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateTimeEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create time entry: %w", err)
	}
	entry.ProjectName = project.Name
	entry.Rate = project.Rate
	return entry, nil
}

func (s *BillingService) StopWork(ctx context.Context) (*models.TimeEntry, error) {
	active, err := s.store.GetActiveTimeEntry(ctx)
	if errors.Is(err, database.ErrNotFound) {
		return nil, &NotFoundError{Entity: "active time entry", ID: "current"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check for active entry: %w", err)
	}

	now := time.Now().UTC()
	active.EndTime = &now
	active.UpdatedAt = now
	if err := s.store.UpdateTimeEntry(ctx, active); err != nil {
		return nil, fmt.Errorf("failed to stop time entry: %w", err)
	}
	return active, nil
}

func (s *BillingService) ActiveEntry(ctx context.Context) (*models.TimeEntry, error) {
	entry, err := s.store.GetActiveTimeEntry(ctx)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return entry, err
}

type LogEntryInput struct {
	ProjectID   string    `validate:"required"`
	StartTime   time.Time `validate:"required"`
	EndTime     time.Time `validate:"required"`
	Description *string
}

// LogEntry records a finished block of work with explicit times.
func (s *BillingService) LogEntry(ctx context.Context, in LogEntryInput) (*models.TimeEntry, error) {
	if err := s.checkInput(in); err != nil {
		return nil, err
	}
	if !in.EndTime.After(in.StartTime) {
		return nil, &ValidationError{Field: "EndTime", Reason: "must be after start time"}
	}
	project, err := s.GetProject(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := &models.TimeEntry{
		ID:          models.NewUUID(),
		ProjectID:   project.ID,
		StartTime:   in.StartTime,
		EndTime:     &in.EndTime,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateTimeEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create time entry: %w", err)
	}
	entry.ProjectName = project.Name
	entry.Rate = project.Rate
	return entry, nil
}

func (s *BillingService) ListTimeEntries(ctx context.Context) ([]*models.TimeEntry, error) {
	return s.store.ListTimeEntries(ctx)
}

// DeleteTimeEntry removes an entry outright. Billed entries belong to an
// invoice and are refused.
func (s *BillingService) DeleteTimeEntry(ctx context.Context, id string) error {
	entry, err := s.store.GetTimeEntry(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return &NotFoundError{Entity: "time entry", ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to load time entry: %w", err)
	}
	if entry.IsBilled {
		return &PreconditionError{EntityID: id, Reason: "entry is billed, delete its invoice first"}
	}
	if err := s.store.DeleteTimeEntry(ctx, id); err != nil {
		return fmt.Errorf("failed to delete time entry: %w", err)
	}
	return nil
}

type CreateExpenseInput struct {
	ProjectID   string          `validate:"required"`
	Amount      decimal.Decimal `validate:"required"`
	Date        time.Time       `validate:"required"`
	Description string          `validate:"required"`
	IsBillable  bool
}

func (s *BillingService) CreateExpense(ctx context.Context, in CreateExpenseInput) (*models.Expense, error) {
	if err := s.checkInput(in); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, &ValidationError{Field: "Amount", Reason: "must be positive"}
	}
	project, err := s.GetProject(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expense := &models.Expense{
		ID:          models.NewUUID(),
		ProjectID:   project.ID,
		Amount:      in.Amount,
		Date:        in.Date,
		Description: in.Description,
		IsBillable:  in.IsBillable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	expense.ProjectName = project.Name
	return expense, nil
}

func (s *BillingService) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	return s.store.ListExpenses(ctx)
}

func (s *BillingService) DeleteExpense(ctx context.Context, id string) error {
	expense, err := s.store.GetExpense(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return &NotFoundError{Entity: "expense", ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to load expense: %w", err)
	}
	if expense.IsBilled {
		return &PreconditionError{EntityID: id, Reason: "expense is billed, delete its invoice first"}
	}
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

func (s *BillingService) Close() error {
	return s.store.Close()
}
