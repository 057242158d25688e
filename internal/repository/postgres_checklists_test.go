package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"procureflow-data/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupChecklistsRepo(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresChecklistsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresChecklistsRepository(db)
}

const sampleQuestionsJSON = `[{"id":1,"question":"Is the packaging intact?","questionType":"radio","isRequired":true,"options":[{"key":"yes","value":"Yes"},{"key":"no","value":"No"}]}]`

func checklistRows(checklistID string, version int, questionsJSON string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"checklist_id", "client_id", "title", "version", "questions",
		"is_deleted", "created_by", "created_at", "updated_at",
	}).AddRow(checklistID, "client-1", "Incoming inspection", version, questionsJSON,
		false, "pm-1", now, now)
}

func TestGetChecklist_Success(t *testing.T) {
	db, mock, repo := setupChecklistsRepo(t)
	defer db.Close()

	mock.ExpectQuery(`FROM checklists\s+WHERE checklist_id = \$1 AND is_deleted = FALSE`).
		WithArgs("cl-1").
		WillReturnRows(checklistRows("cl-1", 2, sampleQuestionsJSON))

	checklist, err := repo.GetChecklist(context.Background(), "cl-1")
	require.NoError(t, err)
	assert.Equal(t, 2, checklist.Version)
	require.Len(t, checklist.Questions, 1)
	assert.Equal(t, 1, checklist.Questions[0].ID)
	assert.Equal(t, domain.QuestionTypeRadio, checklist.Questions[0].QuestionType)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// 归档后替换：事务内先写 checklist_versions 快照（更新前的版本号和题目），
// 再更新 checklists 行并把版本号 +1
func TestUpdateWithArchive_ArchivesBeforeBump(t *testing.T) {
	db, mock, repo := setupChecklistsRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT version, questions::text FROM checklists`).
		WithArgs("cl-1").
		WillReturnRows(sqlmock.NewRows([]string{"version", "questions"}).
			AddRow(3, sampleQuestionsJSON))
	mock.ExpectExec(`INSERT INTO checklist_versions`).
		WithArgs(sqlmock.AnyArg(), "cl-1", 3, sampleQuestionsJSON, "pm-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE checklists\s+SET title = \$2, questions = \$3, version = version \+ 1`).
		WithArgs("cl-1", "Incoming inspection v2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM checklists\s+WHERE checklist_id = \$1 AND is_deleted = FALSE`).
		WithArgs("cl-1").
		WillReturnRows(checklistRows("cl-1", 4, sampleQuestionsJSON))

	questions := []domain.Question{{
		ID:           1,
		Question:     "Is the packaging intact?",
		QuestionType: domain.QuestionTypeRadio,
		IsRequired:   true,
		Options: []domain.QuestionOption{
			{Key: "yes", Value: "Yes"},
			{Key: "no", Value: "No"},
		},
	}}
	updated, err := repo.UpdateWithArchive(context.Background(), "cl-1", "Incoming inspection v2", questions, "pm-1")
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Version)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithArchive_NotFoundRollsBack(t *testing.T) {
	db, mock, repo := setupChecklistsRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT version, questions::text FROM checklists`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	updated, err := repo.UpdateWithArchive(context.Background(), "missing", "Title", []domain.Question{{
		ID: 1, Question: "Q", QuestionType: domain.QuestionTypeText,
	}}, "pm-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Nil(t, updated)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVersion_Success(t *testing.T) {
	db, mock, repo := setupChecklistsRepo(t)
	defer db.Close()

	mock.ExpectQuery(`FROM checklist_versions\s+WHERE checklist_id = \$1 AND version = \$2`).
		WithArgs("cl-1", 2).
		WillReturnRows(sqlmock.NewRows([]string{
			"version_id", "checklist_id", "version", "questions", "created_by", "created_at",
		}).AddRow("ver-1", "cl-1", 2, sampleQuestionsJSON, "pm-1", time.Now()))

	cv, err := repo.GetVersion(context.Background(), "cl-1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, cv.Version)
	require.Len(t, cv.Questions, 1)
	assert.Equal(t, "Is the packaging intact?", cv.Questions[0].Question)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListChecklists_TermFilter(t *testing.T) {
	db, mock, repo := setupChecklistsRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM checklists WHERE is_deleted = FALSE AND questions::text ILIKE \$1`).
		WithArgs("%packaging%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM checklists WHERE is_deleted = FALSE AND questions::text ILIKE \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("%packaging%", 10, 0).
		WillReturnRows(checklistRows("cl-1", 1, sampleQuestionsJSON))

	items, total, err := repo.ListChecklists(context.Background(), ChecklistFilters{Term: "packaging"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "cl-1", items[0].ChecklistID)

	assert.NoError(t, mock.ExpectationsWereMet())
}
