package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"procureflow-data/internal/apperr"
	"procureflow-data/internal/domain"
	"procureflow-data/internal/models"
	"procureflow-data/internal/repository"
	"procureflow-data/internal/store"

	"go.uber.org/zap"
)

// ChecklistService 检查清单版本管理服务接口
type ChecklistService interface {
	CreateChecklist(ctx context.Context, session *domain.User, req CreateChecklistRequest) (*domain.Checklist, error)
	// UpdateChecklist 归档后替换：先存更新前快照，再应用新题目并把版本 +1
	UpdateChecklist(ctx context.Context, session *domain.User, checklistID string, req UpdateChecklistRequest) (*domain.Checklist, error)
	// GetChecklist version 非 nil 且不等于当前版本时返回历史版本合并结果
	GetChecklist(ctx context.Context, checklistID string, version *int) (*domain.Checklist, error)
	ListChecklists(ctx context.Context, req ListChecklistsRequest) (*ListChecklistsResponse, error)

	// ValidateOwnership checklist 属于指定客户（供订单服务复用）
	ValidateOwnership(ctx context.Context, clientID, checklistID string) error
}

// checklistService 实现
type checklistService struct {
	checklistsRepo repository.ChecklistsRepository
	userService    UserService
	versionCache   store.KV // 历史版本只读缓存，可为 nil
	logger         *zap.Logger
}

// NewChecklistService 创建 ChecklistService 实例
// versionCache 传 nil 时直接读库
func NewChecklistService(checklistsRepo repository.ChecklistsRepository, userService UserService, versionCache store.KV, logger *zap.Logger) ChecklistService {
	return &checklistService{
		checklistsRepo: checklistsRepo,
		userService:    userService,
		versionCache:   versionCache,
		logger:         logger,
	}
}

// ============================================
// Request/Response DTOs
// ============================================

// QuestionInput 检查项输入（ID 由服务端分配，输入中的 ID 被忽略）
type QuestionInput struct {
	Question     string                  `json:"question"`
	QuestionType domain.QuestionType     `json:"questionType"`
	IsRequired   bool                    `json:"isRequired"`
	Options      []domain.QuestionOption `json:"options,omitempty"`
}

// CreateChecklistRequest 创建检查清单请求
type CreateChecklistRequest struct {
	ClientID  string
	Title     string
	Questions []QuestionInput
}

// UpdateChecklistRequest 更新检查清单请求
// Questions 携带已分配的稳定 ID（历史答案可寻址的前提）
type UpdateChecklistRequest struct {
	Title     string
	Questions []domain.Question
}

// ListChecklistsRequest 检查清单列表请求
type ListChecklistsRequest struct {
	ClientID string
	Term     string
	Page     int
	Size     int
}

// ListChecklistsResponse 检查清单列表响应
type ListChecklistsResponse struct {
	Items      []*domain.Checklist `json:"items"`
	Pagination models.Pagination   `json:"pagination"`
}

// ============================================
// 操作实现
// ============================================

// CreateChecklist 创建检查清单
// 检查项按数组位置分配 1 起始的顺序 ID，此后跨版本保持稳定
func (s *checklistService) CreateChecklist(ctx context.Context, session *domain.User, req CreateChecklistRequest) (*domain.Checklist, error) {
	if err := s.userService.ValidateUserRole(ctx, req.ClientID, domain.RoleClient); err != nil {
		return nil, err
	}
	if len(req.Questions) == 0 {
		return nil, apperr.New(apperr.KindValidation, "checklist requires at least one question")
	}

	questions := make([]domain.Question, 0, len(req.Questions))
	for i, in := range req.Questions {
		q := domain.Question{
			ID:           i + 1,
			Question:     in.Question,
			QuestionType: in.QuestionType,
			IsRequired:   in.IsRequired,
			Options:      in.Options,
		}
		if err := validateQuestion(&q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	checklist := &domain.Checklist{
		ClientID:  req.ClientID,
		Title:     req.Title,
		Version:   1,
		Questions: questions,
		CreatedBy: session.UserID,
	}
	checklistID, err := s.checklistsRepo.CreateChecklist(ctx, checklist)
	if err != nil {
		return nil, err
	}

	s.logger.Info("checklist created",
		zap.String("checklist_id", checklistID),
		zap.String("client_id", req.ClientID),
		zap.Int("questions", len(questions)))

	return s.checklistsRepo.GetChecklist(ctx, checklistID)
}

// UpdateChecklist 归档后替换
// 归档与版本递增在 repository 的单事务内完成，并发读不会看到新版本号配旧题目
func (s *checklistService) UpdateChecklist(ctx context.Context, session *domain.User, checklistID string, req UpdateChecklistRequest) (*domain.Checklist, error) {
	if len(req.Questions) == 0 {
		return nil, apperr.New(apperr.KindValidation, "checklist requires at least one question")
	}
	seen := make(map[int]bool, len(req.Questions))
	for i := range req.Questions {
		q := &req.Questions[i]
		if q.ID <= 0 {
			return nil, apperr.New(apperr.KindValidation, "question id must be a positive stable identifier")
		}
		if seen[q.ID] {
			return nil, apperr.Newf(apperr.KindValidation, "duplicate question id: %d", q.ID)
		}
		seen[q.ID] = true
		if err := validateQuestion(q); err != nil {
			return nil, err
		}
	}

	updated, err := s.checklistsRepo.UpdateWithArchive(ctx, checklistID, req.Title, req.Questions, session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "checklist not found")
		}
		return nil, err
	}

	s.logger.Info("checklist updated",
		zap.String("checklist_id", checklistID),
		zap.Int("version", updated.Version))
	return updated, nil
}

// GetChecklist 读取检查清单
// 请求的版本与当前版本不同时，合并历史版本的题目集（历史题目覆盖当前题目）
func (s *checklistService) GetChecklist(ctx context.Context, checklistID string, version *int) (*domain.Checklist, error) {
	checklist, err := s.checklistsRepo.GetChecklist(ctx, checklistID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "checklist not found")
		}
		return nil, err
	}

	if version == nil || *version == checklist.Version {
		return checklist, nil
	}

	historical, err := s.getVersion(ctx, checklistID, *version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound, "checklist version %d not found", *version)
		}
		return nil, err
	}

	merged := *checklist
	merged.Version = historical.Version
	merged.Questions = historical.Questions
	return &merged, nil
}

// getVersion 历史版本读取，缓存命中优先
// 版本行不可变，缓存无一致性问题
func (s *checklistService) getVersion(ctx context.Context, checklistID string, version int) (*domain.ChecklistVersion, error) {
	key := fmt.Sprintf("checklist:%s:version:%d", checklistID, version)

	if s.versionCache != nil {
		if cached, err := s.versionCache.Get(ctx, key); err == nil {
			var cv domain.ChecklistVersion
			if err := json.Unmarshal([]byte(cached), &cv); err == nil {
				return &cv, nil
			}
		} else if err != store.ErrMiss {
			s.logger.Warn("version cache read failed", zap.Error(err))
		}
	}

	cv, err := s.checklistsRepo.GetVersion(ctx, checklistID, version)
	if err != nil {
		return nil, err
	}

	if s.versionCache != nil {
		if encoded, err := json.Marshal(cv); err == nil {
			if err := s.versionCache.Set(ctx, key, string(encoded), 24*time.Hour); err != nil {
				s.logger.Warn("version cache write failed", zap.Error(err))
			}
		}
	}
	return cv, nil
}

// ListChecklists 检查清单列表
func (s *checklistService) ListChecklists(ctx context.Context, req ListChecklistsRequest) (*ListChecklistsResponse, error) {
	if req.ClientID != "" {
		if err := s.userService.ValidateUserRole(ctx, req.ClientID, domain.RoleClient); err != nil {
			return nil, err
		}
	}

	items, total, err := s.checklistsRepo.ListChecklists(ctx, repository.ChecklistFilters{
		ClientID: req.ClientID,
		Term:     req.Term,
	}, req.Page, req.Size)
	if err != nil {
		return nil, err
	}

	return &ListChecklistsResponse{
		Items:      items,
		Pagination: models.NewPagination(req.Page, req.Size, total),
	}, nil
}

// ValidateOwnership checklist 存在、未删除且属于指定客户
func (s *checklistService) ValidateOwnership(ctx context.Context, clientID, checklistID string) error {
	owned, err := s.checklistsRepo.ExistsOwned(ctx, clientID, checklistID)
	if err != nil {
		return err
	}
	if !owned {
		return apperr.New(apperr.KindNotFound, "invalid checklist id provided")
	}
	return nil
}

// validateQuestion 检查项业务规则
// radio/dropdown/checkbox 必须带非空选项集，其余类型禁止带选项
func validateQuestion(q *domain.Question) error {
	if !q.QuestionType.Valid() {
		return apperr.Newf(apperr.KindValidation, "invalid question type: %s", q.QuestionType)
	}
	if q.QuestionType.HasOptions() {
		if len(q.Options) == 0 {
			return apperr.Newf(apperr.KindValidation,
				"question %q of type %s requires options", q.Question, q.QuestionType)
		}
	} else if len(q.Options) > 0 {
		return apperr.Newf(apperr.KindValidation,
			"question %q of type %s must not define options", q.Question, q.QuestionType)
	}
	return nil
}
