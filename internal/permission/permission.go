package permission

import "procureflow-data/internal/domain"

// Resource 受权限表管辖的资源
type Resource string

const (
	ResourceUsers      Resource = "users"
	ResourceChecklist  Resource = "checklist"
	ResourceOrders     Resource = "orders"
	ResourceOrderAnswer Resource = "order_checklist_answer"
)

// Action 资源操作
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionView   Action = "view"
)

// ResourcePermission 单个（角色 × 资源）的权限配置
// AllowedRoles 仅对 users.create 生效：被创建/被指派的目标角色必须在集合内
type ResourcePermission struct {
	CanCreate    bool
	CanUpdate    bool
	CanView      bool
	AllowedRoles []domain.Role
}

// Context 授权附加上下文
type Context struct {
	// TargetRole users.create 时被创建用户的目标角色
	TargetRole domain.Role
}

// Table 角色 × 资源 → 权限配置的静态映射
// 进程启动时构造一次，只读传引用，无单例可变状态
type Table map[domain.Role]map[Resource]ResourcePermission

// NewTable 构造权限表
// 表内容是授权核心，任何偏差都是安全缺陷
func NewTable() Table {
	return Table{
		domain.RoleAdmin: {
			ResourceUsers: {
				CanCreate: true, CanUpdate: true, CanView: true,
				AllowedRoles: []domain.Role{
					domain.RoleProcurementManager,
					domain.RoleInspectionManager,
					domain.RoleClient,
				},
			},
			ResourceChecklist:   {CanCreate: false, CanUpdate: false, CanView: true},
			ResourceOrders:      {CanCreate: false, CanUpdate: false, CanView: true},
			ResourceOrderAnswer: {CanCreate: false, CanUpdate: false, CanView: true},
		},
		domain.RoleInspectionManager: {
			ResourceUsers: {
				CanCreate: true, CanUpdate: true, CanView: true,
				AllowedRoles: []domain.Role{
					domain.RoleProcurementManager,
					domain.RoleInspectionManager,
					domain.RoleClient,
				},
			},
			ResourceChecklist:   {CanCreate: false, CanUpdate: false, CanView: true},
			ResourceOrders:      {CanCreate: false, CanUpdate: true, CanView: true},
			ResourceOrderAnswer: {CanCreate: true, CanUpdate: true, CanView: true},
		},
		domain.RoleProcurementManager: {
			ResourceUsers: {
				CanCreate: true, CanUpdate: true, CanView: true,
				AllowedRoles: []domain.Role{
					domain.RoleInspectionManager,
					domain.RoleClient,
				},
			},
			ResourceChecklist:   {CanCreate: true, CanUpdate: true, CanView: true},
			ResourceOrders:      {CanCreate: true, CanUpdate: true, CanView: true},
			ResourceOrderAnswer: {CanCreate: false, CanUpdate: false, CanView: true},
		},
		domain.RoleClient: {
			ResourceUsers: {
				CanCreate: false, CanUpdate: false, CanView: false,
				AllowedRoles: []domain.Role{},
			},
			ResourceChecklist:   {CanCreate: false, CanUpdate: false, CanView: true},
			ResourceOrders:      {CanCreate: false, CanUpdate: false, CanView: true},
			ResourceOrderAnswer: {CanCreate: false, CanUpdate: false, CanView: true},
		},
	}
}

// Authorize 纯函数授权判定：(role, resource, action, ctx) → allow/deny
// 角色或资源缺项按拒绝处理，不是错误
func (t Table) Authorize(role domain.Role, resource Resource, action Action, ctx *Context) bool {
	byResource, ok := t[role]
	if !ok {
		return false
	}
	perm, ok := byResource[resource]
	if !ok {
		return false
	}

	var allowed bool
	switch action {
	case ActionCreate:
		allowed = perm.CanCreate
	case ActionUpdate:
		allowed = perm.CanUpdate
	case ActionView:
		allowed = perm.CanView
	default:
		return false
	}
	if !allowed {
		return false
	}

	// users.create 的附加约束：目标角色必须在调用方的 allowedRoles 集合内
	if resource == ResourceUsers && action == ActionCreate && ctx != nil {
		for _, r := range perm.AllowedRoles {
			if r == ctx.TargetRole {
				return true
			}
		}
		return false
	}

	return true
}
