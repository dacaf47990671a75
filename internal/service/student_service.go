package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sistema-ministerial-api/internal/dto"
	"github.com/noah-isme/sistema-ministerial-api/internal/models"
	"github.com/noah-isme/sistema-ministerial-api/internal/repository"
	"github.com/noah-isme/sistema-ministerial-api/internal/rules"
	appErrors "github.com/noah-isme/sistema-ministerial-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	ListByCongregation(ctx context.Context, congregationID string) ([]models.Student, error)
	FindByID(ctx context.Context, congregationID, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, congregationID, id string) error
}

type familyGroupReader interface {
	FindByID(ctx context.Context, congregationID, id string) (*models.FamilyGroup, error)
}

// StudentService handles student registry use-cases. Qualifications are derived
// from the rules table on every read and never stored.
type StudentService struct {
	repo      studentRepository
	families  familyGroupReader
	cache     *CacheService
	table     rules.Table
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, families familyGroupReader, cache *CacheService, table rules.Table, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, families: families, cache: cache, table: table, validator: validate, logger: logger}
}

func (s *StudentService) detail(student models.Student) models.StudentDetail {
	return models.StudentDetail{Student: student, Qualifications: s.table.For(student).Types()}
}

// List returns students with their qualifications and pagination metadata.
func (s *StudentService) List(ctx context.Context, congregationID string, query dto.StudentQuery) ([]models.StudentDetail, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student query")
	}
	filter := models.StudentFilter{
		CongregationID: congregationID,
		Search:         query.Search,
		Cargo:          models.Cargo(query.Cargo),
		Gender:         models.Gender(query.Gender),
		Active:         query.Active,
		Page:           query.Page,
		PageSize:       query.Limit,
		SortBy:         query.SortBy,
		SortOrder:      query.SortOrder,
	}
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	details := make([]models.StudentDetail, 0, len(students))
	for _, student := range students {
		details = append(details, s.detail(student))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return details, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one student with qualifications.
func (s *StudentService) Get(ctx context.Context, congregationID, id string) (*models.StudentDetail, error) {
	student, err := s.find(ctx, congregationID, id)
	if err != nil {
		return nil, err
	}
	detail := s.detail(*student)
	return &detail, nil
}

// Qualifications returns the derived set of part types a student may receive.
func (s *StudentService) Qualifications(ctx context.Context, congregationID, id string) ([]models.PartType, error) {
	detail, err := s.Get(ctx, congregationID, id)
	if err != nil {
		return nil, err
	}
	return detail.Qualifications, nil
}

// Roster returns every student of the congregation through the snapshot cache.
func (s *StudentService) Roster(ctx context.Context, congregationID string) ([]models.Student, error) {
	students, err := s.cache.Students(ctx, congregationID, func(ctx context.Context) ([]models.Student, error) {
		return s.repo.ListByCongregation(ctx, congregationID)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	return students, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, congregationID string, req dto.CreateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	student := &models.Student{
		CongregationID: congregationID,
		FullName:       req.FullName,
		Gender:         models.Gender(req.Gender),
		Cargo:          models.Cargo(req.Cargo),
		Age:            req.Age,
		Active:         active,
		FamilyGroupID:  req.FamilyGroupID,
		GuardianID:     req.GuardianID,
		Notes:          req.Notes,
	}
	if err := s.checkRelations(ctx, student); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "student already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.cache.InvalidateStudents(ctx, congregationID)
	s.logger.Info("student created", zap.String("student_id", student.ID), zap.String("cargo", string(student.Cargo)))
	detail := s.detail(*student)
	return &detail, nil
}

// Update changes a student's data. A cargo change takes effect on the next generation run.
func (s *StudentService) Update(ctx context.Context, congregationID, id string, req dto.UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.find(ctx, congregationID, id)
	if err != nil {
		return nil, err
	}
	previousCargo := student.Cargo
	student.FullName = req.FullName
	student.Gender = models.Gender(req.Gender)
	student.Cargo = models.Cargo(req.Cargo)
	student.Age = req.Age
	student.Active = req.Active
	student.FamilyGroupID = req.FamilyGroupID
	student.GuardianID = req.GuardianID
	student.Notes = req.Notes
	if err := s.checkRelations(ctx, student); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.cache.InvalidateStudents(ctx, congregationID)
	if previousCargo != student.Cargo {
		s.logger.Info("student cargo changed", zap.String("student_id", id), zap.String("from", string(previousCargo)), zap.String("to", string(student.Cargo)))
	}
	detail := s.detail(*student)
	return &detail, nil
}

// Deactivate soft deletes a student. Past assignments keep referencing it.
func (s *StudentService) Deactivate(ctx context.Context, congregationID, id string) error {
	if err := s.repo.Deactivate(ctx, congregationID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	s.cache.InvalidateStudents(ctx, congregationID)
	return nil
}

func (s *StudentService) find(ctx context.Context, congregationID, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, congregationID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// checkRelations verifies guardian and family references stay inside the congregation.
func (s *StudentService) checkRelations(ctx context.Context, student *models.Student) error {
	if guardian := student.Guardian(); guardian != "" {
		if guardian == student.ID {
			return appErrors.Clone(appErrors.ErrValidation, "a student cannot be their own guardian")
		}
		if _, err := s.repo.FindByID(ctx, student.CongregationID, guardian); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrValidation, "guardian not found in congregation")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guardian")
		}
	}
	if group := student.FamilyGroup(); group != "" && s.families != nil {
		if _, err := s.families.FindByID(ctx, student.CongregationID, group); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrValidation, "family group not found in congregation")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load family group")
		}
	}
	return nil
}
