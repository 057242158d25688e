package permission

import (
	"testing"

	"procureflow-data/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize_PolicyTable(t *testing.T) {
	table := NewTable()

	cases := []struct {
		name     string
		role     domain.Role
		resource Resource
		action   Action
		want     bool
	}{
		{"admin creates users", domain.RoleAdmin, ResourceUsers, ActionCreate, true},
		{"admin cannot create checklist", domain.RoleAdmin, ResourceChecklist, ActionCreate, false},
		{"admin cannot create orders", domain.RoleAdmin, ResourceOrders, ActionCreate, false},
		{"admin views answers", domain.RoleAdmin, ResourceOrderAnswer, ActionView, true},
		{"admin cannot update answers", domain.RoleAdmin, ResourceOrderAnswer, ActionUpdate, false},

		{"inspection manager updates orders", domain.RoleInspectionManager, ResourceOrders, ActionUpdate, true},
		{"inspection manager cannot create orders", domain.RoleInspectionManager, ResourceOrders, ActionCreate, false},
		{"inspection manager submits answers", domain.RoleInspectionManager, ResourceOrderAnswer, ActionUpdate, true},
		{"inspection manager cannot update checklist", domain.RoleInspectionManager, ResourceChecklist, ActionUpdate, false},

		{"procurement manager creates checklist", domain.RoleProcurementManager, ResourceChecklist, ActionCreate, true},
		{"procurement manager creates orders", domain.RoleProcurementManager, ResourceOrders, ActionCreate, true},
		{"procurement manager cannot update answers", domain.RoleProcurementManager, ResourceOrderAnswer, ActionUpdate, false},
		{"procurement manager views answers", domain.RoleProcurementManager, ResourceOrderAnswer, ActionView, true},

		{"client cannot view users", domain.RoleClient, ResourceUsers, ActionView, false},
		{"client views checklist", domain.RoleClient, ResourceChecklist, ActionView, true},
		{"client views orders", domain.RoleClient, ResourceOrders, ActionView, true},
		{"client cannot update orders", domain.RoleClient, ResourceOrders, ActionUpdate, false},
		{"client views answers", domain.RoleClient, ResourceOrderAnswer, ActionView, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, table.Authorize(tc.role, tc.resource, tc.action, nil))
		})
	}
}

// users.create 的附加约束：目标角色必须在调用方的 allowedRoles 集合内
func TestAuthorize_AllowedRolesConstraint(t *testing.T) {
	table := NewTable()

	// 采购经理可以创建检验经理和客户，但不能创建同级采购经理
	assert.True(t, table.Authorize(domain.RoleProcurementManager, ResourceUsers, ActionCreate,
		&Context{TargetRole: domain.RoleInspectionManager}))
	assert.True(t, table.Authorize(domain.RoleProcurementManager, ResourceUsers, ActionCreate,
		&Context{TargetRole: domain.RoleClient}))
	assert.False(t, table.Authorize(domain.RoleProcurementManager, ResourceUsers, ActionCreate,
		&Context{TargetRole: domain.RoleProcurementManager}))

	// 没人能创建 Admin
	for _, role := range []domain.Role{
		domain.RoleAdmin,
		domain.RoleInspectionManager,
		domain.RoleProcurementManager,
		domain.RoleClient,
	} {
		assert.False(t, table.Authorize(role, ResourceUsers, ActionCreate,
			&Context{TargetRole: domain.RoleAdmin}), "role %d must not create admins", role)
	}
}

// 表中缺失的角色/资源/操作一律拒绝
func TestAuthorize_MissingEntriesDeny(t *testing.T) {
	table := NewTable()

	assert.False(t, table.Authorize(domain.Role(99), ResourceOrders, ActionView, nil))
	assert.False(t, table.Authorize(domain.RoleAdmin, Resource("unknown"), ActionView, nil))
	assert.False(t, table.Authorize(domain.RoleAdmin, ResourceOrders, Action("unknown"), nil))
}
