package domain

import "time"

// QuestionType 检查项类型
type QuestionType string

const (
	QuestionTypeRadio    QuestionType = "radio"    // 单选（yes/no 等）
	QuestionTypeDropdown QuestionType = "dropdown" // 下拉单选
	QuestionTypeCheckbox QuestionType = "checkbox" // 多选
	QuestionTypeText     QuestionType = "text"     // 文本
	QuestionTypeImage    QuestionType = "image"    // 图片证据
)

// Valid 类型编码是否合法
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeRadio, QuestionTypeDropdown, QuestionTypeCheckbox,
		QuestionTypeText, QuestionTypeImage:
		return true
	}
	return false
}

// HasOptions 该类型是否要求选项集
// radio/dropdown/checkbox 必须带非空选项，其余类型禁止带选项
func (t QuestionType) HasOptions() bool {
	switch t {
	case QuestionTypeRadio, QuestionTypeDropdown, QuestionTypeCheckbox:
		return true
	}
	return false
}

// QuestionOption 检查项选项（key 用于答案匹配，value 为显示文本）
type QuestionOption struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Question 检查项
// ID 在 checklist 创建时按数组位置一次性分配（1 起始），跨版本保持稳定、从不复用，
// 这是历史答案可寻址的前提
type Question struct {
	ID           int              `json:"id"`
	Question     string           `json:"question"`
	QuestionType QuestionType     `json:"questionType"`
	IsRequired   bool             `json:"isRequired"`
	Options      []QuestionOption `json:"options,omitempty"`
}

// Checklist 检查清单领域模型（对应 checklists 表，questions 存 JSONB）
type Checklist struct {
	ChecklistID string     `db:"checklist_id"`
	ClientID    string     `db:"client_id"`
	Title       string     `db:"title"`
	Version     int        `db:"version"` // 从 1 起，每次更新 +1
	Questions   []Question `db:"questions"`
	IsDeleted   bool       `db:"is_deleted"`
	CreatedBy   string     `db:"created_by"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// ToJSON 转换为 JSON 格式（用于 HTTP 响应）
func (c *Checklist) ToJSON() map[string]any {
	return map[string]any{
		"id":        c.ChecklistID,
		"clientId":  c.ClientID,
		"title":     c.Title,
		"version":   c.Version,
		"questions": c.Questions,
		"createdBy": c.CreatedBy,
		"createdAt": c.CreatedAt,
		"updatedAt": c.UpdatedAt,
	}
}

// QuestionByID 按检查项 ID 查找，找不到返回 nil
func (c *Checklist) QuestionByID(id int) *Question {
	for i := range c.Questions {
		if c.Questions[i].ID == id {
			return &c.Questions[i]
		}
	}
	return nil
}
