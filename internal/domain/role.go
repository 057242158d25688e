package domain

// Role 用户角色（对应 users.role 列，整数编码）
type Role int

const (
	RoleAdmin              Role = 1
	RoleInspectionManager  Role = 2
	RoleProcurementManager Role = 3
	RoleClient             Role = 4
)

// roleLabels 角色编码 → 显示名称的直接映射表
// 不做反向枚举查找，避免运行时反射
var roleLabels = map[Role]string{
	RoleAdmin:              "ADMIN",
	RoleInspectionManager:  "INSPECTION_MANAGER",
	RoleProcurementManager: "PROCUREMENT_MANAGER",
	RoleClient:             "CLIENT",
}

// Label 返回角色显示名称，未知角色返回 "UNKNOWN"
func (r Role) Label() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return "UNKNOWN"
}

// Valid 角色编码是否合法
func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}
