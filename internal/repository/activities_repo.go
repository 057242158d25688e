package repository

import (
	"context"

	"procureflow-data/internal/domain"
)

// ActivitiesRepository 订单活动日志 Repository 接口
// 只追加和分页读取，行从不更新
type ActivitiesRepository interface {
	InsertActivity(ctx context.Context, activity *domain.OrderActivity) error
	// ListActivities 按创建时间倒序分页返回，附带总数
	ListActivities(ctx context.Context, orderID string, page, size int) ([]*domain.OrderActivity, int, error)
}
