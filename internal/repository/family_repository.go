package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sistema-ministerial-api/internal/models"
)

// ErrUnknownMembers is returned when a member list references students outside the congregation.
var ErrUnknownMembers = errors.New("unknown family members")

// FamilyRepository persists family groups and student membership.
type FamilyRepository struct {
	db *sqlx.DB
}

// NewFamilyRepository constructs a FamilyRepository.
func NewFamilyRepository(db *sqlx.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

type familyMember struct {
	StudentID     string `db:"id"`
	FamilyGroupID string `db:"family_group_id"`
}

// List returns the congregation's family groups with their member ids.
func (r *FamilyRepository) List(ctx context.Context, congregationID string) ([]models.FamilyGroupDetail, error) {
	const groupsQuery = `SELECT id, congregation_id, name, created_at, updated_at FROM family_groups WHERE congregation_id = $1 ORDER BY name ASC`
	var groups []models.FamilyGroup
	if err := r.db.SelectContext(ctx, &groups, groupsQuery, congregationID); err != nil {
		return nil, fmt.Errorf("list family groups: %w", err)
	}

	const membersQuery = `SELECT id, family_group_id FROM students WHERE congregation_id = $1 AND family_group_id IS NOT NULL ORDER BY full_name ASC`
	var members []familyMember
	if err := r.db.SelectContext(ctx, &members, membersQuery, congregationID); err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}

	byGroup := make(map[string][]string, len(groups))
	for _, m := range members {
		byGroup[m.FamilyGroupID] = append(byGroup[m.FamilyGroupID], m.StudentID)
	}
	details := make([]models.FamilyGroupDetail, 0, len(groups))
	for _, g := range groups {
		ids := byGroup[g.ID]
		if ids == nil {
			ids = []string{}
		}
		details = append(details, models.FamilyGroupDetail{FamilyGroup: g, MemberIDs: ids})
	}
	return details, nil
}

// FindByID fetches a family group scoped to a congregation.
func (r *FamilyRepository) FindByID(ctx context.Context, congregationID, id string) (*models.FamilyGroup, error) {
	const query = `SELECT id, congregation_id, name, created_at, updated_at FROM family_groups WHERE congregation_id = $1 AND id = $2`
	var group models.FamilyGroup
	if err := r.db.GetContext(ctx, &group, query, congregationID, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// Create inserts a new family group.
func (r *FamilyRepository) Create(ctx context.Context, group *models.FamilyGroup) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	group.CreatedAt, group.UpdatedAt = now, now
	const query = `INSERT INTO family_groups (id, congregation_id, name, created_at, updated_at) VALUES (:id, :congregation_id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create family group: %w", mapPQError(err))
	}
	return nil
}

// ReplaceMembers detaches the group's current members and attaches memberIDs in one transaction.
// Students already in another group are moved.
func (r *FamilyRepository) ReplaceMembers(ctx context.Context, congregationID, groupID string, memberIDs []string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace members: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `UPDATE students SET family_group_id = NULL, updated_at = $3 WHERE congregation_id = $1 AND family_group_id = $2`, congregationID, groupID, now); err != nil {
		return fmt.Errorf("detach family members: %w", err)
	}
	if len(memberIDs) > 0 {
		result, execErr := tx.ExecContext(ctx, `UPDATE students SET family_group_id = $2, updated_at = $4 WHERE congregation_id = $1 AND id = ANY($3)`, congregationID, groupID, pq.Array(memberIDs), now)
		if execErr != nil {
			err = fmt.Errorf("attach family members: %w", execErr)
			return err
		}
		affected, affErr := result.RowsAffected()
		if affErr != nil {
			err = fmt.Errorf("attach family members rows affected: %w", affErr)
			return err
		}
		if int(affected) != len(memberIDs) {
			err = ErrUnknownMembers
			return err
		}
	}
	if _, err = tx.ExecContext(ctx, `UPDATE family_groups SET updated_at = $2 WHERE id = $1`, groupID, now); err != nil {
		return fmt.Errorf("touch family group: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace members: %w", err)
	}
	return nil
}

// Delete removes a family group. Members are detached by the foreign key.
func (r *FamilyRepository) Delete(ctx context.Context, congregationID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM family_groups WHERE congregation_id = $1 AND id = $2`, congregationID, id)
	if err != nil {
		return fmt.Errorf("delete family group: %w", err)
	}
	return expectAffected(result, "delete family group")
}
