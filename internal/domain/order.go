package domain

import (
	"database/sql"
	"time"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusDone       OrderStatus = "done" // 检验经理完成全部检查项后
	OrderStatusCompleted  OrderStatus = "completed"
)

// Valid 状态编码是否合法
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusDone, OrderStatusCompleted:
		return true
	}
	return false
}

// Order 检验订单领域模型（对应 orders 表）
// ChecklistVersion 在挂接 checklist 时固定，后续 checklist 更新不会自动跟进，
// 历史答案校验以该版本为准
type Order struct {
	OrderID  string `db:"order_id"`
	ClientID string `db:"client_id"`

	ChecklistID      sql.NullString `db:"checklist_id"`
	ChecklistVersion int            `db:"checklist_version"`

	ProcurementManagerID sql.NullString `db:"procurement_manager_id"`
	InspectionManagerID  sql.NullString `db:"inspection_manager_id"`

	Status OrderStatus `db:"status"`

	CreatedBy string    `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ToJSON 转换为 JSON 格式（用于 HTTP 响应）
func (o *Order) ToJSON() map[string]any {
	m := map[string]any{
		"id":               o.OrderID,
		"clientId":         o.ClientID,
		"checklistVersion": o.ChecklistVersion,
		"status":           string(o.Status),
		"createdBy":        o.CreatedBy,
		"createdAt":        o.CreatedAt,
		"updatedAt":        o.UpdatedAt,
	}
	if o.ChecklistID.Valid {
		m["checklistId"] = o.ChecklistID.String
	} else {
		m["checklistId"] = nil
	}
	if o.ProcurementManagerID.Valid {
		m["procurementManagerId"] = o.ProcurementManagerID.String
	}
	if o.InspectionManagerID.Valid {
		m["inspectionManagerId"] = o.InspectionManagerID.String
	}
	return m
}
