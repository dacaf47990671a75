package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sistema-ministerial-api/internal/models"
)

func TestAssignmentRepositoryTryLockWeek(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT pg_try_advisory_xact_lock(hashtext($1 || ':' || $2))")).
		WithArgs("cong-1", "2026-10-12").
		WillReturnRows(sqlmock.NewRows([]string{"locked"}).AddRow(false))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	locked, err := repo.TryLockWeek(context.Background(), tx, "cong-1", mustWeek(t, "2026-10-14"))
	require.NoError(t, err)
	assert.False(t, locked)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryHistoryExcludesCancelled(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(`status <> 'cancelado' AND primary_student_id IS NOT NULL\s+UNION ALL`).
		WithArgs("cong-1", "2025-10-13", "2026-10-12").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "part_type", "week", "assistant"}).
			AddRow("s-1", "talk", time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC), false).
			AddRow("s-2", "starting", time.Date(2026, 9, 28, 0, 0, 0, 0, time.UTC), true))

	week := mustWeek(t, "2026-10-12")
	history, err := repo.History(context.Background(), "cong-1", week.Add(-52), week)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.PartTalk, history[0].PartType)
	assert.True(t, history[1].Assistant)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	primary := "s-1"
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (part_id) DO UPDATE SET")).
		WithArgs(sqlmock.AnyArg(), "cong-1", "2026-10-12", "p-1", "starting", primary, nil, true, "FILLED", "designado", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rows := []models.Assignment{{
		CongregationID:   "cong-1",
		Week:             mustWeek(t, "2026-10-12"),
		PartID:           "p-1",
		PartType:         models.PartStarting,
		PrimaryStudentID: &primary,
		AssistantPending: true,
		State:            models.PartStateFilled,
		Status:           models.AssignmentStatusDesignated,
	}}
	require.NoError(t, repo.Upsert(context.Background(), nil, rows))
	assert.NotEmpty(t, rows[0].ID)
	assert.False(t, rows[0].UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDuplicateStudents(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY student_id HAVING COUNT(*) > 1")).
		WithArgs("cong-1", "2026-10-12").
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow("s-9"))

	ids, err := repo.DuplicateStudents(context.Background(), nil, "cong-1", mustWeek(t, "2026-10-12"))
	require.NoError(t, err)
	assert.Equal(t, []string{"s-9"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), nil, &models.Assignment{ID: "a-1", CongregationID: "cong-1"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
