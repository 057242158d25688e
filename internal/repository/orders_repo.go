package repository

import (
	"context"
	"errors"

	"procureflow-data/internal/domain"
)

// ErrOrderCompleted SaveAnswer 事务内发现订单已 completed
var ErrOrderCompleted = errors.New("order already completed")

// OrdersRepository 订单 Repository 接口
type OrdersRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) (string, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	// UpdateOrder 应用补丁，nil 字段不更新
	UpdateOrder(ctx context.Context, orderID string, patch OrderPatch) error

	// GetAnswer 读取订单答卷，不存在返回 sql.ErrNoRows
	GetAnswer(ctx context.Context, orderID string) (*domain.OrderChecklistAnswer, error)

	// SaveAnswer 单事务保存答卷：
	// SELECT ... FOR UPDATE 锁定订单行，复查状态（completed 返回 ErrOrderCompleted），
	// 按 order_id upsert 答卷并把订单状态置为 done，三步同生共死。
	// 返回持久化后的答卷行。
	SaveAnswer(ctx context.Context, answer *domain.OrderChecklistAnswer) (*domain.OrderChecklistAnswer, error)

	ListOrders(ctx context.Context, filters OrderFilters, page, size int) ([]*domain.Order, int, error)
}

// OrderPatch 订单更新补丁
type OrderPatch struct {
	ChecklistID         *string
	ChecklistVersion    *int
	InspectionManagerID *string
	Status              *domain.OrderStatus
}

// OrderFilters 订单查询过滤器
type OrderFilters struct {
	ClientID string
}
