package service

import (
	"context"
	"testing"

	"procureflow-data/internal/apperr"
	"procureflow-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type checklistFixture struct {
	svc       ChecklistService
	repo      *fakeChecklistsRepo
	usersRepo *fakeUsersRepo
	cache     *fakeKV
	pm        *domain.User
}

func newChecklistFixture() *checklistFixture {
	usersRepo := newFakeUsersRepo()
	userService := NewUserService(usersRepo, fakeVerifier{}, zap.NewNop())
	repo := newFakeChecklistsRepo()
	cache := newFakeKV()

	pm := activeUser("pm-1", domain.RoleProcurementManager, "pm@example.com", "")
	usersRepo.add(pm)
	usersRepo.add(activeUser("client-1", domain.RoleClient, "client@example.com", ""))

	return &checklistFixture{
		svc:       NewChecklistService(repo, userService, cache, zap.NewNop()),
		repo:      repo,
		usersRepo: usersRepo,
		cache:     cache,
		pm:        pm,
	}
}

func radioQuestion(text string) QuestionInput {
	return QuestionInput{
		Question:     text,
		QuestionType: domain.QuestionTypeRadio,
		IsRequired:   true,
		Options: []domain.QuestionOption{
			{Key: "yes", Value: "Yes"},
			{Key: "no", Value: "No"},
		},
	}
}

func TestCreateChecklist_AssignsSequentialIDs(t *testing.T) {
	f := newChecklistFixture()

	created, err := f.svc.CreateChecklist(context.Background(), f.pm, CreateChecklistRequest{
		ClientID: "client-1",
		Title:    "Incoming inspection",
		Questions: []QuestionInput{
			radioQuestion("Is the packaging intact?"),
			{Question: "Notes", QuestionType: domain.QuestionTypeText},
			{Question: "Photo of the label", QuestionType: domain.QuestionTypeImage},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)
	require.Len(t, created.Questions, 3)
	assert.Equal(t, 1, created.Questions[0].ID)
	assert.Equal(t, 2, created.Questions[1].ID)
	assert.Equal(t, 3, created.Questions[2].ID)
}

func TestCreateChecklist_UnknownClientRejected(t *testing.T) {
	f := newChecklistFixture()

	_, err := f.svc.CreateChecklist(context.Background(), f.pm, CreateChecklistRequest{
		ClientID:  "pm-1", // 不是 client 角色
		Title:     "Bad",
		Questions: []QuestionInput{radioQuestion("Q")},
	})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCreateChecklist_OptionRulesEnforced(t *testing.T) {
	f := newChecklistFixture()

	// 选择类检查项必须带选项
	_, err := f.svc.CreateChecklist(context.Background(), f.pm, CreateChecklistRequest{
		ClientID: "client-1",
		Title:    "Bad",
		Questions: []QuestionInput{{
			Question:     "Pick one",
			QuestionType: domain.QuestionTypeDropdown,
		}},
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	// 文本类检查项不得带选项
	_, err = f.svc.CreateChecklist(context.Background(), f.pm, CreateChecklistRequest{
		ClientID: "client-1",
		Title:    "Bad",
		Questions: []QuestionInput{{
			Question:     "Free text",
			QuestionType: domain.QuestionTypeText,
			Options:      []domain.QuestionOption{{Key: "x", Value: "X"}},
		}},
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

// 更新把更新前的版本归档，版本号 +1，检查项 ID 保持稳定
func TestUpdateChecklist_ArchivesPreviousVersion(t *testing.T) {
	f := newChecklistFixture()

	created, err := f.svc.CreateChecklist(context.Background(), f.pm, CreateChecklistRequest{
		ClientID:  "client-1",
		Title:     "Incoming inspection",
		Questions: []QuestionInput{radioQuestion("Is the packaging intact?")},
	})
	require.NoError(t, err)

	newQuestions := append(created.Questions, domain.Question{
		ID:           2,
		Question:     "Notes",
		QuestionType: domain.QuestionTypeText,
	})
	updated, err := f.svc.UpdateChecklist(context.Background(), f.pm, created.ChecklistID, UpdateChecklistRequest{
		Title:     "Incoming inspection v2",
		Questions: newQuestions,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Len(t, updated.Questions, 2)

	// 归档快照是更新前的内容
	archived := f.repo.versions[created.ChecklistID][1]
	require.NotNil(t, archived)
	assert.Equal(t, 1, archived.Version)
	assert.Len(t, archived.Questions, 1)
}

func TestUpdateChecklist_InvalidQuestionIDs(t *testing.T) {
	f := newChecklistFixture()

	created, err := f.svc.CreateChecklist(context.Background(), f.pm, CreateChecklistRequest{
		ClientID:  "client-1",
		Title:     "Incoming inspection",
		Questions: []QuestionInput{radioQuestion("Q1")},
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateChecklist(context.Background(), f.pm, created.ChecklistID, UpdateChecklistRequest{
		Title: "Bad",
		Questions: []domain.Question{
			{ID: 0, Question: "Q", QuestionType: domain.QuestionTypeText},
		},
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.svc.UpdateChecklist(context.Background(), f.pm, created.ChecklistID, UpdateChecklistRequest{
		Title: "Bad",
		Questions: []domain.Question{
			{ID: 1, Question: "A", QuestionType: domain.QuestionTypeText},
			{ID: 1, Question: "B", QuestionType: domain.QuestionTypeText},
		},
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

// 历史版本读取返回归档的题目集和版本号，第二次读取命中缓存
func TestGetChecklist_HistoricalVersion(t *testing.T) {
	f := newChecklistFixture()

	created, err := f.svc.CreateChecklist(context.Background(), f.pm, CreateChecklistRequest{
		ClientID:  "client-1",
		Title:     "Incoming inspection",
		Questions: []QuestionInput{radioQuestion("Is the packaging intact?")},
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateChecklist(context.Background(), f.pm, created.ChecklistID, UpdateChecklistRequest{
		Title: "v2",
		Questions: append(created.Questions, domain.Question{
			ID: 2, Question: "Notes", QuestionType: domain.QuestionTypeText,
		}),
	})
	require.NoError(t, err)

	version := 1
	got, err := f.svc.GetChecklist(context.Background(), created.ChecklistID, &version)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.Len(t, got.Questions, 1)
	assert.Equal(t, 1, f.repo.getVersionCalls)

	// 版本行不可变，第二次读取不再落库
	got, err = f.svc.GetChecklist(context.Background(), created.ChecklistID, &version)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, 1, f.repo.getVersionCalls)
	assert.Equal(t, 1, f.cache.sets)
}

func TestGetChecklist_CurrentVersionSkipsArchive(t *testing.T) {
	f := newChecklistFixture()

	created, err := f.svc.CreateChecklist(context.Background(), f.pm, CreateChecklistRequest{
		ClientID:  "client-1",
		Title:     "Incoming inspection",
		Questions: []QuestionInput{radioQuestion("Q")},
	})
	require.NoError(t, err)

	version := 1
	got, err := f.svc.GetChecklist(context.Background(), created.ChecklistID, &version)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.Zero(t, f.repo.getVersionCalls)
}

func TestValidateOwnership(t *testing.T) {
	f := newChecklistFixture()

	created, err := f.svc.CreateChecklist(context.Background(), f.pm, CreateChecklistRequest{
		ClientID:  "client-1",
		Title:     "Incoming inspection",
		Questions: []QuestionInput{radioQuestion("Q")},
	})
	require.NoError(t, err)

	assert.NoError(t, f.svc.ValidateOwnership(context.Background(), "client-1", created.ChecklistID))

	err = f.svc.ValidateOwnership(context.Background(), "other-client", created.ChecklistID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
