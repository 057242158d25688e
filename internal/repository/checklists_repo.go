package repository

import (
	"context"

	"procureflow-data/internal/domain"
)

// ChecklistsRepository 检查清单 Repository 接口
type ChecklistsRepository interface {
	CreateChecklist(ctx context.Context, checklist *domain.Checklist) (string, error)
	// GetChecklist 读取未删除的 checklist，软删除视同不存在
	GetChecklist(ctx context.Context, checklistID string) (*domain.Checklist, error)
	// ExistsOwned checklist 是否存在、未删除且属于指定客户
	ExistsOwned(ctx context.Context, clientID, checklistID string) (bool, error)

	// UpdateWithArchive 归档后替换，单事务执行：
	// 先把更新前的题目集和版本号写入 checklist_versions，再应用新题目并把版本号 +1。
	// 归档快照必须是变更前的状态，顺序不可颠倒。
	UpdateWithArchive(ctx context.Context, checklistID, title string, questions []domain.Question, updatedBy string) (*domain.Checklist, error)

	// GetVersion 读取历史版本快照
	GetVersion(ctx context.Context, checklistID string, version int) (*domain.ChecklistVersion, error)

	ListChecklists(ctx context.Context, filters ChecklistFilters, page, size int) ([]*domain.Checklist, int, error)
}

// ChecklistFilters 检查清单查询过滤器
type ChecklistFilters struct {
	ClientID string
	Term     string // 题目全文模糊搜索
}
