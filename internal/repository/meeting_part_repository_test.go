package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sistema-ministerial-api/internal/models"
)

func mustWeek(t *testing.T, raw string) models.Week {
	t.Helper()
	w, err := models.ParseWeek(raw)
	require.NoError(t, err)
	return w
}

func TestMeetingPartRepositoryListByWeek(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMeetingPartRepository(db)
	week := mustWeek(t, "2026-10-12")

	mock.ExpectQuery(regexp.QuoteMeta("FROM meeting_parts WHERE congregation_id = $1 AND week = $2 ORDER BY ordinal ASC")).
		WithArgs("cong-1", "2026-10-12").
		WillReturnRows(sqlmock.NewRows([]string{"id", "congregation_id", "week", "ordinal", "section", "type", "title", "duration_minutes", "needs_assistant", "published", "created_at"}).
			AddRow("p-1", "cong-1", time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), 1, "treasures", "talk", "Discurso", 10, false, false, time.Now()).
			AddRow("p-2", "cong-1", time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), 4, "ministry", "starting", "Iniciando conversas", 3, true, false, time.Now()))

	parts, err := repo.ListByWeek(context.Background(), "cong-1", week)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.True(t, parts[1].NeedsAssistant)
	assert.Equal(t, "2026-10-12", parts[0].Week.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingPartRepositoryCreateBatchInTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMeetingPartRepository(db)
	week := mustWeek(t, "2026-10-12")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO meeting_parts").
		WithArgs(sqlmock.AnyArg(), "cong-1", "2026-10-12", 1, "treasures", "talk", "Discurso", 10, false, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO meeting_parts").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "meeting_parts_congregation_id_week_ordinal_key"})
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	parts := []models.MeetingPart{
		{CongregationID: "cong-1", Week: week, Ordinal: 1, Section: models.SectionTreasures, Type: models.PartTalk, Title: "Discurso", DurationMinutes: 10},
		{CongregationID: "cong-1", Week: week, Ordinal: 1, Section: models.SectionTreasures, Type: models.PartGems, Title: "Joias", DurationMinutes: 10},
	}
	err = repo.CreateBatch(context.Background(), tx, parts)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NotEmpty(t, parts[0].ID)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingPartRepositoryPublishAndDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMeetingPartRepository(db)
	week := mustWeek(t, "2026-10-12")

	mock.ExpectExec(regexp.QuoteMeta("UPDATE meeting_parts SET published = true")).
		WithArgs("cong-1", "2026-10-12").
		WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM meeting_parts")).
		WithArgs("cong-1", "2026-10-12").
		WillReturnResult(sqlmock.NewResult(0, 0))

	published, err := repo.Publish(context.Background(), "cong-1", week)
	require.NoError(t, err)
	assert.Equal(t, int64(7), published)

	deleted, err := repo.DeleteUnpublished(context.Background(), "cong-1", week)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
