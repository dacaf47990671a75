package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sistema-ministerial-api/internal/models"
)

const meetingPartColumns = `id, congregation_id, week, ordinal, section, type, title, duration_minutes, needs_assistant, published, created_at`

// MeetingPartRepository stores weekly meeting programs.
type MeetingPartRepository struct {
	db *sqlx.DB
}

// NewMeetingPartRepository constructs a MeetingPartRepository.
func NewMeetingPartRepository(db *sqlx.DB) *MeetingPartRepository {
	return &MeetingPartRepository{db: db}
}

func (r *MeetingPartRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByWeek returns the week's parts ordered by ordinal.
func (r *MeetingPartRepository) ListByWeek(ctx context.Context, congregationID string, week models.Week) ([]models.MeetingPart, error) {
	query := "SELECT " + meetingPartColumns + " FROM meeting_parts WHERE congregation_id = $1 AND week = $2 ORDER BY ordinal ASC"
	var parts []models.MeetingPart
	if err := r.db.SelectContext(ctx, &parts, query, congregationID, week); err != nil {
		return nil, fmt.Errorf("list meeting parts: %w", err)
	}
	return parts, nil
}

// FindByID fetches one part scoped to a congregation.
func (r *MeetingPartRepository) FindByID(ctx context.Context, congregationID, id string) (*models.MeetingPart, error) {
	query := "SELECT " + meetingPartColumns + " FROM meeting_parts WHERE congregation_id = $1 AND id = $2"
	var part models.MeetingPart
	if err := r.db.GetContext(ctx, &part, query, congregationID, id); err != nil {
		return nil, err
	}
	return &part, nil
}

// CreateBatch inserts a program. Ids and timestamps are filled in place.
func (r *MeetingPartRepository) CreateBatch(ctx context.Context, exec sqlx.ExtContext, parts []models.MeetingPart) error {
	target := r.exec(exec)
	now := time.Now().UTC()
	const query = `INSERT INTO meeting_parts (id, congregation_id, week, ordinal, section, type, title, duration_minutes, needs_assistant, published, created_at)
VALUES (:id, :congregation_id, :week, :ordinal, :section, :type, :title, :duration_minutes, :needs_assistant, :published, :created_at)`
	for i := range parts {
		if parts[i].ID == "" {
			parts[i].ID = uuid.NewString()
		}
		if parts[i].CreatedAt.IsZero() {
			parts[i].CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, parts[i]); err != nil {
			return fmt.Errorf("insert meeting part %d: %w", parts[i].Ordinal, mapPQError(err))
		}
	}
	return nil
}

// Publish marks the week's program as published and returns how many parts changed.
func (r *MeetingPartRepository) Publish(ctx context.Context, congregationID string, week models.Week) (int64, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE meeting_parts SET published = true WHERE congregation_id = $1 AND week = $2 AND published = false`, congregationID, week)
	if err != nil {
		return 0, fmt.Errorf("publish program: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("publish program rows affected: %w", err)
	}
	return affected, nil
}

// DeleteUnpublished removes a week's program unless it has been published.
func (r *MeetingPartRepository) DeleteUnpublished(ctx context.Context, congregationID string, week models.Week) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM meeting_parts WHERE congregation_id = $1 AND week = $2 AND published = false`, congregationID, week)
	if err != nil {
		return 0, fmt.Errorf("delete program: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete program rows affected: %w", err)
	}
	return affected, nil
}
