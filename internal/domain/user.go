package domain

import (
	"database/sql"
	"time"
)

// User 用户领域模型（对应 users 表）
type User struct {
	// 主键
	UserID string `db:"user_id"`

	// 基本信息
	Name      string `db:"name"`
	Email     string `db:"email"`
	PhoneCode string `db:"phone_code"`
	Phone     string `db:"phone"`

	// 凭证（bcrypt digest，由 auth 包生成/校验）
	PasswordHash string `db:"password_hash"`

	// 角色与上级关系
	Role Role `db:"role"`
	// ProcurementManagerID 采购经理链接（仅 InspectionManager 有值，最多一个上级）
	ProcurementManagerID sql.NullString `db:"procurement_manager_id"`

	// 状态标志
	IsVerified bool `db:"is_verified"`
	IsActive   bool `db:"is_active"`
	IsDeleted  bool `db:"is_deleted"` // 软删除，从不物理删除

	// 审计
	CreatedBy sql.NullString `db:"created_by"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}
