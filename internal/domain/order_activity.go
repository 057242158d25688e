package domain

import "time"

// 活动类型（orders 状态变化的审计种类）
const (
	ActivityOrderCreated       = "ORDER_CREATED"
	ActivityOrderUpdated       = "ORDER_UPDATED"
	ActivityChecklistSubmitted = "CHECKLIST_SUBMITTED"
)

// OrderActivity 订单活动日志（对应 order_activities 表）
// 追加写入，从不更新
type OrderActivity struct {
	ActivityID   string         `db:"activity_id"`
	OrderID      string         `db:"order_id"`
	UserID       string         `db:"user_id"`
	ActivityType string         `db:"activity_type"`
	Detail       map[string]any `db:"detail"` // JSONB，ORDER_UPDATED 时携带 key/old/new
	CreatedAt    time.Time      `db:"created_at"`
}

// ToJSON 转换为 JSON 格式（用于 HTTP 响应）
func (a *OrderActivity) ToJSON() map[string]any {
	return map[string]any{
		"id":           a.ActivityID,
		"orderId":      a.OrderID,
		"userId":       a.UserID,
		"activityType": a.ActivityType,
		"detail":       a.Detail,
		"createdAt":    a.CreatedAt,
	}
}
