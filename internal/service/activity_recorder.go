package service

import (
	"context"
	"time"

	"procureflow-data/internal/domain"
	"procureflow-data/internal/repository"

	"go.uber.org/zap"
)

// ActivityRecorder 订单活动日志异步写入
// fire-and-forget：写入失败只记日志，从不影响触发操作的结果，也不阻塞其响应
type ActivityRecorder struct {
	repo    repository.ActivitiesRepository
	logger  *zap.Logger
	timeout time.Duration
}

// NewActivityRecorder 创建活动日志写入器
func NewActivityRecorder(repo repository.ActivitiesRepository, logger *zap.Logger) *ActivityRecorder {
	return &ActivityRecorder{
		repo:    repo,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// Record 异步追加活动记录
// 使用独立的 background context，调用方断开不影响写入
func (a *ActivityRecorder) Record(orderID, userID, activityType string, detail map[string]any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		err := a.repo.InsertActivity(ctx, &domain.OrderActivity{
			OrderID:      orderID,
			UserID:       userID,
			ActivityType: activityType,
			Detail:       detail,
		})
		if err != nil {
			a.logger.Error("failed to log order activity",
				zap.String("order_id", orderID),
				zap.String("activity_type", activityType),
				zap.Error(err))
		}
	}()
}
