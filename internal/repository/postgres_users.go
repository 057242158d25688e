package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"procureflow-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresUsersRepository 用户 Repository 实现（强类型版本）
type PostgresUsersRepository struct {
	db *sql.DB
}

// NewPostgresUsersRepository 创建用户 Repository
func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

// 确保实现了接口
var _ UsersRepository = (*PostgresUsersRepository)(nil)

const userColumns = `
	user_id::text,
	name,
	email,
	phone_code,
	phone,
	password_hash,
	role,
	procurement_manager_id::text,
	is_verified,
	is_active,
	is_deleted,
	created_by::text,
	created_at,
	updated_at
`

func scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.UserID,
		&user.Name,
		&user.Email,
		&user.PhoneCode,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.ProcurementManagerID,
		&user.IsVerified,
		&user.IsActive,
		&user.IsDeleted,
		&user.CreatedBy,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser 获取用户基本信息
func (r *PostgresUsersRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, sql.ErrNoRows
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1 AND is_deleted = FALSE`
	return scanUser(r.db.QueryRowContext(ctx, query, userID))
}

// GetUserByEmail 按邮箱查找未删除用户（大小写不敏感）
func (r *PostgresUsersRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, sql.ErrNoRows
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) AND is_deleted = FALSE`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetUserByPhone 按手机号精确查找未删除用户
func (r *PostgresUsersRepository) GetUserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	if phone == "" {
		return nil, sql.ErrNoRows
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1 AND is_deleted = FALSE`
	return scanUser(r.db.QueryRowContext(ctx, query, phone))
}

// ExistsByEmailOrPhone 未删除用户中邮箱或手机号是否已占用
func (r *PostgresUsersRepository) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE (LOWER(email) = LOWER($1) OR phone = $2)
			  AND is_deleted = FALSE
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email, phone).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email/phone uniqueness: %w", err)
	}
	return exists, nil
}

// ExistsByRole 未删除用户中是否已存在指定角色
func (r *PostgresUsersRepository) ExistsByRole(ctx context.Context, role domain.Role) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE role = $1 AND is_deleted = FALSE)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, int(role)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check role existence: %w", err)
	}
	return exists, nil
}

// ExistsByIDAndRole 指定用户是否存在且属于指定角色
func (r *PostgresUsersRepository) ExistsByIDAndRole(ctx context.Context, userID string, role domain.Role) (bool, error) {
	if userID == "" {
		return false, nil
	}
	query := `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE user_id = $1 AND role = $2 AND is_deleted = FALSE
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, int(role)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user role: %w", err)
	}
	return exists, nil
}

// CreateUser 创建用户，返回新用户 ID
func (r *PostgresUsersRepository) CreateUser(ctx context.Context, user *domain.User) (string, error) {
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	query := `
		INSERT INTO users (
			user_id, name, email, phone_code, phone, password_hash,
			role, procurement_manager_id, is_verified, is_active, is_deleted, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE, $11)
		RETURNING user_id::text
	`
	var userID string
	err := r.db.QueryRowContext(ctx, query,
		user.UserID,
		user.Name,
		user.Email,
		user.PhoneCode,
		user.Phone,
		user.PasswordHash,
		int(user.Role),
		user.ProcurementManagerID,
		user.IsVerified,
		user.IsActive,
		user.CreatedBy,
	).Scan(&userID)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return userID, nil
}

// SetProcurementManager 设置/清空检验经理的上级采购经理
func (r *PostgresUsersRepository) SetProcurementManager(ctx context.Context, userID string, managerID sql.NullString) error {
	query := `
		UPDATE users SET procurement_manager_id = $2, updated_at = NOW()
		WHERE user_id = $1 AND is_deleted = FALSE
	`
	result, err := r.db.ExecContext(ctx, query, userID, managerID)
	if err != nil {
		return fmt.Errorf("failed to set procurement manager: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListUsers 查询用户列表（创建时间倒序）
func (r *PostgresUsersRepository) ListUsers(ctx context.Context, filters UserFilters) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_deleted = FALSE`
	var args []any
	var conditions []string

	if filters.Role != 0 {
		args = append(args, int(filters.Role))
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if filters.ProcurementManagerID != "" {
		args = append(args, filters.ProcurementManagerID)
		conditions = append(conditions, fmt.Sprintf("procurement_manager_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		err := rows.Scan(
			&user.UserID,
			&user.Name,
			&user.Email,
			&user.PhoneCode,
			&user.Phone,
			&user.PasswordHash,
			&user.Role,
			&user.ProcurementManagerID,
			&user.IsVerified,
			&user.IsActive,
			&user.IsDeleted,
			&user.CreatedBy,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}
