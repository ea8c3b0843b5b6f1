package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
)

func TestStudentRepositoryCreateAndMove(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	year := "yg-10"
	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), "Ann Lee", "yg-10", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{FullName: "Ann Lee", YearGroupID: &year, Active: true}
	require.NoError(t, repo.Create(context.Background(), student))

	next := "yg-11"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET year_group_id = $2")).
		WithArgs(student.ID, "yg-11", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateYearGroup(context.Background(), student.ID, &next))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT id, full_name, year_group_id, active, created_at, updated_at FROM students").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "year_group_id", "active", "created_at", "updated_at"}).
			AddRow("s1", "Ann Lee", nil, true, time.Now(), time.Now()))

	list, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].YearGroupID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
