package domain

import "time"

// ChecklistVersion 检查清单历史版本快照（对应 checklist_versions 表）
// 每次 checklist 更新前归档一行，归档的是更新前的题目集，创建后不再修改或删除
type ChecklistVersion struct {
	VersionID   string     `db:"version_id"`
	ChecklistID string     `db:"checklist_id"`
	Version     int        `db:"version"`
	Questions   []Question `db:"questions"`
	CreatedBy   string     `db:"created_by"`
	CreatedAt   time.Time  `db:"created_at"`
}
