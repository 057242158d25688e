package repository

import (
	"context"
	"database/sql"

	"procureflow-data/internal/domain"
)

// UsersRepository 用户 Repository 接口
// 使用强类型领域模型，不使用 map[string]any
type UsersRepository interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	// GetUserByEmail 按邮箱查找未删除用户（大小写不敏感）
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetUserByPhone 按手机号精确查找未删除用户
	GetUserByPhone(ctx context.Context, phone string) (*domain.User, error)

	// ExistsByEmailOrPhone 未删除用户中邮箱或手机号是否已占用
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)
	// ExistsByRole 未删除用户中是否已存在指定角色（单例角色检查）
	ExistsByRole(ctx context.Context, role domain.Role) (bool, error)
	// ExistsByIDAndRole 指定用户是否存在且属于指定角色（引用校验）
	ExistsByIDAndRole(ctx context.Context, userID string, role domain.Role) (bool, error)

	CreateUser(ctx context.Context, user *domain.User) (string, error)
	// SetProcurementManager 设置/清空检验经理的上级采购经理
	SetProcurementManager(ctx context.Context, userID string, managerID sql.NullString) error
	ListUsers(ctx context.Context, filters UserFilters) ([]*domain.User, error)
}

// UserFilters 用户查询过滤器
type UserFilters struct {
	Role                 domain.Role // 0 表示不过滤
	ProcurementManagerID string      // 仅列出该采购经理的下属
}
