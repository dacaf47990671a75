package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sistema-ministerial-api/internal/dto"
	"github.com/noah-isme/sistema-ministerial-api/internal/models"
	"github.com/noah-isme/sistema-ministerial-api/internal/repository"
	"github.com/noah-isme/sistema-ministerial-api/internal/rules"
	appErrors "github.com/noah-isme/sistema-ministerial-api/pkg/errors"
)

type meetingPartRepository interface {
	ListByWeek(ctx context.Context, congregationID string, week models.Week) ([]models.MeetingPart, error)
	FindByID(ctx context.Context, congregationID, id string) (*models.MeetingPart, error)
	CreateBatch(ctx context.Context, exec sqlx.ExtContext, parts []models.MeetingPart) error
	Publish(ctx context.Context, congregationID string, week models.Week) (int64, error)
	DeleteUnpublished(ctx context.Context, congregationID string, week models.Week) (int64, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ProgramService manages the weekly list of meeting parts.
type ProgramService struct {
	db        txProvider
	repo      meetingPartRepository
	template  *ProgramTemplate
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramService constructs the program service. A nil template disables
// template-based creation.
func NewProgramService(db txProvider, repo meetingPartRepository, template *ProgramTemplate, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{db: db, repo: repo, template: template, validator: validate, logger: logger}
}

// BuildProgram turns part inputs into catalog-normalised meeting parts for a week.
func BuildProgram(congregationID string, week models.Week, inputs []dto.ProgramPartInput) ([]models.MeetingPart, error) {
	parts := make([]models.MeetingPart, 0, len(inputs))
	ordinals := make(map[int]struct{}, len(inputs))
	for _, in := range inputs {
		if _, dup := ordinals[in.Ordinal]; dup {
			return nil, fmt.Errorf("duplicate ordinal %d", in.Ordinal)
		}
		ordinals[in.Ordinal] = struct{}{}
		partType, err := models.ParsePartType(in.Type)
		if err != nil {
			return nil, err
		}
		part, err := rules.NormalizePart(models.MeetingPart{
			CongregationID:  congregationID,
			Week:            week,
			Ordinal:         in.Ordinal,
			Section:         models.Section(in.Section),
			Type:            partType,
			Title:           in.Title,
			DurationMinutes: in.DurationMinutes,
		}, in.NeedsAssistant)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return rules.SortParts(parts), nil
}

// Parts lists the week's program.
func (s *ProgramService) Parts(ctx context.Context, congregationID string, week models.Week) ([]models.MeetingPart, error) {
	parts, err := s.repo.ListByWeek(ctx, congregationID, week)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	if parts == nil {
		parts = []models.MeetingPart{}
	}
	return parts, nil
}

// Create stores a program from explicit parts. A week holds at most one program.
func (s *ProgramService) Create(ctx context.Context, congregationID string, week models.Week, req dto.CreateProgramRequest) ([]models.MeetingPart, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	return s.create(ctx, congregationID, week, req.Parts)
}

// CreateFromTemplate stores the configured default program for the week.
func (s *ProgramService) CreateFromTemplate(ctx context.Context, congregationID string, week models.Week) ([]models.MeetingPart, error) {
	if s.template == nil {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "program template not configured")
	}
	return s.create(ctx, congregationID, week, s.template.Parts)
}

func (s *ProgramService) create(ctx context.Context, congregationID string, week models.Week, inputs []dto.ProgramPartInput) (parts []models.MeetingPart, err error) {
	parts, err = BuildProgram(congregationID, week, inputs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	existing, err := s.repo.ListByWeek(ctx, congregationID, week)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	if len(existing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "program already exists for week "+week.String())
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.repo.CreateBatch(ctx, tx, parts); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "program already exists for week "+week.String())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit program")
	}
	s.logger.Info("program created", zap.String("congregation_id", congregationID), zap.String("week", week.String()), zap.Int("parts", len(parts)))
	return parts, nil
}

// Publish freezes the week's program. Publishing twice is a no-op.
func (s *ProgramService) Publish(ctx context.Context, congregationID string, week models.Week) ([]models.MeetingPart, error) {
	parts, err := s.Parts(ctx, congregationID, week)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found for week "+week.String())
	}
	if _, err := s.repo.Publish(ctx, congregationID, week); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish program")
	}
	for i := range parts {
		parts[i].Published = true
	}
	return parts, nil
}

// Delete removes an unpublished program.
func (s *ProgramService) Delete(ctx context.Context, congregationID string, week models.Week) error {
	parts, err := s.Parts(ctx, congregationID, week)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "program not found for week "+week.String())
	}
	for _, part := range parts {
		if part.Published {
			return appErrors.Clone(appErrors.ErrPublished, "program is published and cannot be changed")
		}
	}
	if _, err := s.repo.DeleteUnpublished(ctx, congregationID, week); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete program")
	}
	return nil
}

// Part returns one meeting part.
func (s *ProgramService) Part(ctx context.Context, congregationID, id string) (*models.MeetingPart, error) {
	part, err := s.repo.FindByID(ctx, congregationID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "meeting part not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting part")
	}
	return part, nil
}
