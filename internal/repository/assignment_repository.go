package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sistema-ministerial-api/internal/models"
)

const assignmentColumns = `id, congregation_id, week, part_id, part_type, primary_student_id, assistant_student_id, assistant_pending, state, status, notes, created_at, updated_at`

// AssignmentRepository persists generated and reviewed assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// TryLockWeek takes the transaction-scoped advisory lock for one congregation week.
// It returns false without waiting when another transaction holds it.
func (r *AssignmentRepository) TryLockWeek(ctx context.Context, exec sqlx.ExtContext, congregationID string, week models.Week) (bool, error) {
	var locked bool
	const query = `SELECT pg_try_advisory_xact_lock(hashtext($1 || ':' || $2))`
	if err := sqlx.GetContext(ctx, r.exec(exec), &locked, query, congregationID, week.String()); err != nil {
		return false, fmt.Errorf("lock week: %w", err)
	}
	return locked, nil
}

// ListByWeek returns the week's assignments.
func (r *AssignmentRepository) ListByWeek(ctx context.Context, exec sqlx.ExtContext, congregationID string, week models.Week) ([]models.Assignment, error) {
	query := "SELECT " + assignmentColumns + " FROM assignments WHERE congregation_id = $1 AND week = $2 ORDER BY created_at ASC, id ASC"
	var assignments []models.Assignment
	if err := sqlx.SelectContext(ctx, r.exec(exec), &assignments, query, congregationID, week); err != nil {
		return nil, fmt.Errorf("list week assignments: %w", err)
	}
	return assignments, nil
}

// FindByID fetches one assignment scoped to a congregation.
func (r *AssignmentRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, congregationID, id string) (*models.Assignment, error) {
	query := "SELECT " + assignmentColumns + " FROM assignments WHERE congregation_id = $1 AND id = $2"
	var assignment models.Assignment
	if err := sqlx.GetContext(ctx, r.exec(exec), &assignment, query, congregationID, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// History returns participations in [from, to) as primary or assistant. Cancelled
// designations are not history.
func (r *AssignmentRepository) History(ctx context.Context, congregationID string, from, to models.Week) ([]models.AssignmentHistory, error) {
	const query = `SELECT primary_student_id AS student_id, part_type, week, false AS assistant
FROM assignments
WHERE congregation_id = $1 AND week >= $2 AND week < $3 AND status <> 'cancelado' AND primary_student_id IS NOT NULL
UNION ALL
SELECT assistant_student_id AS student_id, part_type, week, true AS assistant
FROM assignments
WHERE congregation_id = $1 AND week >= $2 AND week < $3 AND status <> 'cancelado' AND assistant_student_id IS NOT NULL`
	var history []models.AssignmentHistory
	if err := r.db.SelectContext(ctx, &history, query, congregationID, from, to); err != nil {
		return nil, fmt.Errorf("load assignment history: %w", err)
	}
	return history, nil
}

// Upsert writes assignments keyed by part. Ids and timestamps are filled in place.
func (r *AssignmentRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, assignments []models.Assignment) error {
	target := r.exec(exec)
	now := time.Now().UTC()
	const query = `INSERT INTO assignments (id, congregation_id, week, part_id, part_type, primary_student_id, assistant_student_id, assistant_pending, state, status, notes, created_at, updated_at)
VALUES (:id, :congregation_id, :week, :part_id, :part_type, :primary_student_id, :assistant_student_id, :assistant_pending, :state, :status, :notes, :created_at, :updated_at)
ON CONFLICT (part_id) DO UPDATE SET
    primary_student_id = EXCLUDED.primary_student_id,
    assistant_student_id = EXCLUDED.assistant_student_id,
    assistant_pending = EXCLUDED.assistant_pending,
    state = EXCLUDED.state,
    status = EXCLUDED.status,
    notes = EXCLUDED.notes,
    updated_at = EXCLUDED.updated_at`
	for i := range assignments {
		a := &assignments[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		a.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, a); err != nil {
			return fmt.Errorf("upsert assignment for part %s: %w", a.PartID, mapPQError(err))
		}
	}
	return nil
}

// Update persists a reviewed assignment.
func (r *AssignmentRepository) Update(ctx context.Context, exec sqlx.ExtContext, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET primary_student_id = :primary_student_id, assistant_student_id = :assistant_student_id,
    assistant_pending = :assistant_pending, state = :state, status = :status, notes = :notes, updated_at = :updated_at
WHERE id = :id AND congregation_id = :congregation_id`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, assignment)
	if err != nil {
		return fmt.Errorf("update assignment: %w", mapPQError(err))
	}
	return expectAffected(result, "update assignment")
}

// DuplicateStudents lists students holding more than one non-cancelled role in the week.
func (r *AssignmentRepository) DuplicateStudents(ctx context.Context, exec sqlx.ExtContext, congregationID string, week models.Week) ([]string, error) {
	const query = `SELECT student_id FROM (
    SELECT primary_student_id AS student_id FROM assignments WHERE congregation_id = $1 AND week = $2 AND status <> 'cancelado'
    UNION ALL
    SELECT assistant_student_id AS student_id FROM assignments WHERE congregation_id = $1 AND week = $2 AND status <> 'cancelado'
) roles WHERE student_id IS NOT NULL GROUP BY student_id HAVING COUNT(*) > 1 ORDER BY student_id`
	var ids []string
	if err := sqlx.SelectContext(ctx, r.exec(exec), &ids, query, congregationID, week); err != nil {
		return nil, fmt.Errorf("check duplicate students: %w", err)
	}
	return ids, nil
}
