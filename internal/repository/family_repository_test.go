package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyRepositoryListGroupsMembers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFamilyRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM family_groups WHERE congregation_id = $1")).
		WithArgs("cong-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "congregation_id", "name", "created_at", "updated_at"}).
			AddRow("fam-1", "cong-1", "Família Souza", now, now).
			AddRow("fam-2", "cong-1", "Família Lima", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, family_group_id FROM students")).
		WithArgs("cong-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "family_group_id"}).
			AddRow("s-1", "fam-1").
			AddRow("s-2", "fam-1"))

	groups, err := repo.List(context.Background(), "cong-1")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"s-1", "s-2"}, groups[0].MemberIDs)
	assert.Equal(t, []string{}, groups[1].MemberIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFamilyRepositoryReplaceMembers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFamilyRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET family_group_id = NULL")).
		WithArgs("cong-1", "fam-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET family_group_id = $2")).
		WithArgs("cong-1", "fam-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE family_groups SET updated_at")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceMembers(context.Background(), "cong-1", "fam-1", []string{"s-1", "s-2"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFamilyRepositoryReplaceMembersRejectsUnknown(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFamilyRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET family_group_id = NULL")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET family_group_id = $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := repo.ReplaceMembers(context.Background(), "cong-1", "fam-1", []string{"s-1", "other-cong"})
	assert.ErrorIs(t, err, ErrUnknownMembers)
	assert.NoError(t, mock.ExpectationsWereMet())
}
