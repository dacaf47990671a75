package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sistema-ministerial-api/internal/dto"
	"github.com/noah-isme/sistema-ministerial-api/internal/models"
	"github.com/noah-isme/sistema-ministerial-api/internal/repository"
	appErrors "github.com/noah-isme/sistema-ministerial-api/pkg/errors"
)

type mockFamilyRepo struct {
	groups   map[string]models.FamilyGroup
	members  map[string][]string
	known    map[string]bool
	replaced int
}

func newMockFamilyRepo(known ...string) *mockFamilyRepo {
	m := &mockFamilyRepo{groups: map[string]models.FamilyGroup{}, members: map[string][]string{}, known: map[string]bool{}}
	for _, id := range known {
		m.known[id] = true
	}
	return m
}

func (m *mockFamilyRepo) List(ctx context.Context, congregationID string) ([]models.FamilyGroupDetail, error) {
	var out []models.FamilyGroupDetail
	for id, g := range m.groups {
		if g.CongregationID == congregationID {
			out = append(out, models.FamilyGroupDetail{FamilyGroup: g, MemberIDs: m.members[id]})
		}
	}
	return out, nil
}

func (m *mockFamilyRepo) FindByID(ctx context.Context, congregationID, id string) (*models.FamilyGroup, error) {
	g, ok := m.groups[id]
	if !ok || g.CongregationID != congregationID {
		return nil, sql.ErrNoRows
	}
	return &g, nil
}

func (m *mockFamilyRepo) Create(ctx context.Context, group *models.FamilyGroup) error {
	group.ID = "fam-" + group.Name
	group.CreatedAt = time.Now()
	m.groups[group.ID] = *group
	return nil
}

func (m *mockFamilyRepo) ReplaceMembers(ctx context.Context, congregationID, groupID string, memberIDs []string) error {
	for _, id := range memberIDs {
		if !m.known[id] {
			return repository.ErrUnknownMembers
		}
	}
	m.replaced++
	m.members[groupID] = memberIDs
	return nil
}

func (m *mockFamilyRepo) Delete(ctx context.Context, congregationID, id string) error {
	if _, ok := m.groups[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.groups, id)
	return nil
}

const (
	memberA = "0b7e6f3c-1c1d-4f59-9f0e-7d7a3b0f2a01"
	memberB = "0b7e6f3c-1c1d-4f59-9f0e-7d7a3b0f2a02"
)

func TestFamilyServiceCreateWithMembers(t *testing.T) {
	repo := newMockFamilyRepo(memberA, memberB)
	cache := newMemoryCache()
	svc := NewFamilyService(repo, NewCacheService(cache, nil, time.Minute, nil, true), nil, nil)

	group, err := svc.Create(context.Background(), "cong-1", dto.CreateFamilyRequest{Name: "Silva", MemberIDs: []string{memberA, memberB, memberA}})
	require.NoError(t, err)
	assert.Equal(t, []string{memberA, memberB}, group.MemberIDs)
	assert.Equal(t, []string{memberA, memberB}, repo.members[group.ID])
	assert.Contains(t, cache.deleted, "students:cong-1")
}

func TestFamilyServiceReplaceUnknownMember(t *testing.T) {
	repo := newMockFamilyRepo(memberA)
	repo.groups["fam-1"] = models.FamilyGroup{ID: "fam-1", CongregationID: "cong-1", Name: "Souza"}
	svc := NewFamilyService(repo, nil, nil, nil)

	_, err := svc.ReplaceMembers(context.Background(), "cong-1", "fam-1", dto.ReplaceFamilyMembersRequest{MemberIDs: []string{memberA, memberB}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.replaced)
}

func TestFamilyServiceReplaceOtherCongregation(t *testing.T) {
	repo := newMockFamilyRepo(memberA)
	repo.groups["fam-1"] = models.FamilyGroup{ID: "fam-1", CongregationID: "cong-2"}
	svc := NewFamilyService(repo, nil, nil, nil)

	_, err := svc.ReplaceMembers(context.Background(), "cong-1", "fam-1", dto.ReplaceFamilyMembersRequest{MemberIDs: []string{memberA}})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFamilyServiceDelete(t *testing.T) {
	repo := newMockFamilyRepo()
	repo.groups["fam-1"] = models.FamilyGroup{ID: "fam-1", CongregationID: "cong-1"}
	svc := NewFamilyService(repo, nil, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "cong-1", "fam-1"))
	err := svc.Delete(context.Background(), "cong-1", "fam-1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFamilyServiceCreateValidation(t *testing.T) {
	svc := NewFamilyService(newMockFamilyRepo(), nil, nil, nil)
	_, err := svc.Create(context.Background(), "cong-1", dto.CreateFamilyRequest{Name: "X", MemberIDs: []string{"not-a-uuid"}})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
