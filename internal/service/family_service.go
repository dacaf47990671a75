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
	appErrors "github.com/noah-isme/sistema-ministerial-api/pkg/errors"
)

type familyRepository interface {
	List(ctx context.Context, congregationID string) ([]models.FamilyGroupDetail, error)
	FindByID(ctx context.Context, congregationID, id string) (*models.FamilyGroup, error)
	Create(ctx context.Context, group *models.FamilyGroup) error
	ReplaceMembers(ctx context.Context, congregationID, groupID string, memberIDs []string) error
	Delete(ctx context.Context, congregationID, id string) error
}

// FamilyService manages family groups used for opposite-gender pairing.
type FamilyService struct {
	repo      familyRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFamilyService constructs the family service.
func NewFamilyService(repo familyRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *FamilyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FamilyService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns every family group of the congregation.
func (s *FamilyService) List(ctx context.Context, congregationID string) ([]models.FamilyGroupDetail, error) {
	groups, err := s.repo.List(ctx, congregationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list family groups")
	}
	return groups, nil
}

// Create registers a family group and attaches the initial members.
func (s *FamilyService) Create(ctx context.Context, congregationID string, req dto.CreateFamilyRequest) (*models.FamilyGroupDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid family payload")
	}
	group := &models.FamilyGroup{CongregationID: congregationID, Name: req.Name}
	if err := s.repo.Create(ctx, group); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "family group already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create family group")
	}
	members := dedupe(req.MemberIDs)
	if len(members) > 0 {
		if err := s.replace(ctx, congregationID, group.ID, members); err != nil {
			return nil, err
		}
	}
	return &models.FamilyGroupDetail{FamilyGroup: *group, MemberIDs: members}, nil
}

// ReplaceMembers sets the group's membership to exactly memberIDs.
func (s *FamilyService) ReplaceMembers(ctx context.Context, congregationID, groupID string, req dto.ReplaceFamilyMembersRequest) (*models.FamilyGroupDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid family members payload")
	}
	group, err := s.repo.FindByID(ctx, congregationID, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "family group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load family group")
	}
	members := dedupe(req.MemberIDs)
	if err := s.replace(ctx, congregationID, groupID, members); err != nil {
		return nil, err
	}
	return &models.FamilyGroupDetail{FamilyGroup: *group, MemberIDs: members}, nil
}

// Delete removes a family group; its members become unrelated.
func (s *FamilyService) Delete(ctx context.Context, congregationID, id string) error {
	if err := s.repo.Delete(ctx, congregationID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "family group not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete family group")
	}
	s.cache.InvalidateStudents(ctx, congregationID)
	return nil
}

func (s *FamilyService) replace(ctx context.Context, congregationID, groupID string, members []string) error {
	if err := s.repo.ReplaceMembers(ctx, congregationID, groupID, members); err != nil {
		if errors.Is(err, repository.ErrUnknownMembers) {
			return appErrors.Clone(appErrors.ErrValidation, "member list contains students outside the congregation")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update family members")
	}
	s.cache.InvalidateStudents(ctx, congregationID)
	s.logger.Info("family members replaced", zap.String("family_group_id", groupID), zap.Int("members", len(members)))
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
