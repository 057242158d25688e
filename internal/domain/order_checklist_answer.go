package domain

import "time"

// QuestionAnswer 单个检查项的答案
// ID 引用 checklist 固定版本中的检查项，Answer 对带选项的检查项必须是选项 key
type QuestionAnswer struct {
	ID     int    `json:"id"`
	Answer string `json:"answer"`
}

// OrderChecklistAnswer 订单答卷领域模型（对应 order_checklist_answers 表）
// 与订单一对一（order_id 唯一），通过 upsert 创建/整体替换；
// 订单进入 completed 后不再接受 upsert
type OrderChecklistAnswer struct {
	AnswerID         string           `db:"answer_id"`
	OrderID          string           `db:"order_id"`
	ChecklistID      string           `db:"checklist_id"`
	ChecklistVersion int              `db:"checklist_version"`
	Answers          []QuestionAnswer `db:"answers"`
	CreatedBy        string           `db:"created_by"`
	CreatedAt        time.Time        `db:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at"`
}

// ToJSON 转换为 JSON 格式（用于 HTTP 响应）
func (a *OrderChecklistAnswer) ToJSON() map[string]any {
	return map[string]any{
		"id":               a.AnswerID,
		"orderId":          a.OrderID,
		"checklistId":      a.ChecklistID,
		"checklistVersion": a.ChecklistVersion,
		"questions":        a.Answers,
		"createdBy":        a.CreatedBy,
		"createdAt":        a.CreatedAt,
		"updatedAt":        a.UpdatedAt,
	}
}

// AnswerByQuestionID 按检查项 ID 查找答案，找不到返回 nil
func (a *OrderChecklistAnswer) AnswerByQuestionID(id int) *QuestionAnswer {
	for i := range a.Answers {
		if a.Answers[i].ID == id {
			return &a.Answers[i]
		}
	}
	return nil
}
