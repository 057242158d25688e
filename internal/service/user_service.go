package service

import (
	"context"
	"database/sql"
	"errors"

	"procureflow-data/internal/apperr"
	"procureflow-data/internal/auth"
	"procureflow-data/internal/domain"
	"procureflow-data/internal/repository"

	"go.uber.org/zap"
)

// UserService 身份与角色目录服务接口
type UserService interface {
	// 自助注册，固定 Admin 角色
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	// 登录：邮箱通道（Admin/Procurement/Client）或手机号通道（仅 InspectionManager）
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	// 受权限表约束的用户创建
	CreateUser(ctx context.Context, session *domain.User, req CreateUserRequest) (*CreateUserResponse, error)
	ListUsers(ctx context.Context, session *domain.User, req ListUsersRequest) (*ListUsersResponse, error)
	// 经理指派（仅 Admin 路由可达）
	AssignManager(ctx context.Context, inspectionManagerID, procurementManagerID string) error
	UnassignManager(ctx context.Context, inspectionManagerID string) error

	// 引用校验（供 order/checklist 服务复用）
	ValidateUserRole(ctx context.Context, userID string, role domain.Role) error
}

// userService 实现
type userService struct {
	usersRepo repository.UsersRepository
	verifier  auth.CredentialVerifier
	logger    *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(usersRepo repository.UsersRepository, verifier auth.CredentialVerifier, logger *zap.Logger) UserService {
	return &userService{
		usersRepo: usersRepo,
		verifier:  verifier,
		logger:    logger,
	}
}

// ============================================
// Request/Response DTOs
// ============================================

// RegisterRequest 管理员自助注册请求
type RegisterRequest struct {
	Name      string
	Email     string
	PhoneCode string
	Phone     string
	Password  string
}

// RegisterResponse 注册响应
type RegisterResponse struct {
	UserID    string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	PhoneCode string `json:"phoneCode"`
	Phone     string `json:"phone"`
}

// LoginRequest 登录请求（Email 和 Phone 二选一）
type LoginRequest struct {
	Email    string
	Phone    string
	Password string
}

// LoginResponse 登录响应
type LoginResponse struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Role   string `json:"role"`
	Token  string `json:"token"`
}

// CreateUserRequest 创建用户请求（调用方角色已通过权限表校验）
type CreateUserRequest struct {
	Name      string
	Email     string
	PhoneCode string
	Phone     string
	Password  string
	Role      domain.Role
}

// CreateUserResponse 创建用户响应
type CreateUserResponse struct {
	UserID               string `json:"id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	PhoneCode            string `json:"phoneCode"`
	Phone                string `json:"phone"`
	ProcurementManagerID string `json:"procurementManagerId,omitempty"`
}

// ListUsersRequest 用户列表请求
type ListUsersRequest struct {
	Role domain.Role // 仅 Admin 可用的角色过滤
}

// UserDTO 用户列表项
type UserDTO struct {
	UserID               string `json:"id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	PhoneCode            string `json:"phoneCode"`
	Phone                string `json:"phone"`
	Role                 string `json:"role"`
	ProcurementManagerID string `json:"procurementManagerId,omitempty"`
}

// ListUsersResponse 用户列表响应
type ListUsersResponse struct {
	Items []*UserDTO `json:"items"`
}

// ============================================
// 操作实现
// ============================================

// Register 管理员自助注册：固定 Admin 角色，自动激活并通过验证
func (s *userService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if err := s.checkEmailPhoneUnique(ctx, req.Email, req.Phone); err != nil {
		return nil, err
	}

	digest, err := s.verifier.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PhoneCode:    req.PhoneCode,
		Phone:        req.Phone,
		PasswordHash: digest,
		Role:         domain.RoleAdmin,
		IsActive:     true,
		IsVerified:   true,
	}
	userID, err := s.usersRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("admin registered", zap.String("user_id", userID))
	return &RegisterResponse{
		UserID:    userID,
		Name:      user.Name,
		Email:     user.Email,
		PhoneCode: user.PhoneCode,
		Phone:     user.Phone,
	}, nil
}

// Login 按通道查找用户并校验口令
// 邮箱通道排除 InspectionManager；手机号通道仅限 InspectionManager
func (s *userService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var user *domain.User
	var err error

	switch {
	case req.Email != "":
		user, err = s.usersRepo.GetUserByEmail(ctx, req.Email)
		if err == nil && user.Role == domain.RoleInspectionManager {
			return nil, apperr.New(apperr.KindUnauthorized, "invalid email provided")
		}
	case req.Phone != "":
		user, err = s.usersRepo.GetUserByPhone(ctx, req.Phone)
		if err == nil && user.Role != domain.RoleInspectionManager {
			return nil, apperr.New(apperr.KindUnauthorized, "invalid phone provided")
		}
	default:
		return nil, apperr.New(apperr.KindValidation, "email or phone is required")
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			channel := "email"
			if req.Phone != "" {
				channel = "phone"
			}
			return nil, apperr.Newf(apperr.KindUnauthorized, "invalid %s provided", channel)
		}
		return nil, err
	}

	if !user.IsVerified {
		return nil, apperr.New(apperr.KindUnauthorized, "user is not verified, please contact administrator")
	}
	if !user.IsActive {
		return nil, apperr.New(apperr.KindUnauthorized, "user is de-activated, please contact administrator")
	}
	if !s.verifier.Verify(req.Password, user.PasswordHash) {
		return nil, apperr.New(apperr.KindUnauthorized, "invalid password provided")
	}

	token, err := s.verifier.Issue(user.UserID)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		UserID: user.UserID,
		Name:   user.Name,
		Email:  user.Email,
		Phone:  user.Phone,
		Role:   user.Role.Label(),
		Token:  token,
	}, nil
}

// CreateUser 创建下属用户
// InspectionManager 是全局单例角色；Admin/ProcurementManager 创建 InspectionManager 时
// 自动把新用户挂到创建者名下
func (s *userService) CreateUser(ctx context.Context, session *domain.User, req CreateUserRequest) (*CreateUserResponse, error) {
	if err := s.checkEmailPhoneUnique(ctx, req.Email, req.Phone); err != nil {
		return nil, err
	}

	if req.Role == domain.RoleInspectionManager {
		exists, err := s.usersRepo.ExistsByRole(ctx, domain.RoleInspectionManager)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperr.New(apperr.KindConflict,
				"an inspection manager is already present in the system, please contact the admin for assistance")
		}
	}

	digest, err := s.verifier.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PhoneCode:    req.PhoneCode,
		Phone:        req.Phone,
		PasswordHash: digest,
		Role:         req.Role,
		IsActive:     true,
		IsVerified:   true,
		CreatedBy:    sql.NullString{String: session.UserID, Valid: true},
	}

	// 采购经理或管理员创建检验经理时，自动指派到创建者名下
	if req.Role == domain.RoleInspectionManager &&
		(session.Role == domain.RoleProcurementManager || session.Role == domain.RoleAdmin) {
		user.ProcurementManagerID = sql.NullString{String: session.UserID, Valid: true}
	}

	userID, err := s.usersRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.String("user_id", userID),
		zap.String("role", req.Role.Label()),
		zap.String("created_by", session.UserID))

	resp := &CreateUserResponse{
		UserID:    userID,
		Name:      user.Name,
		Email:     user.Email,
		PhoneCode: user.PhoneCode,
		Phone:     user.Phone,
	}
	if user.ProcurementManagerID.Valid {
		resp.ProcurementManagerID = user.ProcurementManagerID.String
	}
	return resp, nil
}

// ListUsers 用户列表
// 采购经理只能看到指派给自己的检验经理；Admin 可按角色过滤
func (s *userService) ListUsers(ctx context.Context, session *domain.User, req ListUsersRequest) (*ListUsersResponse, error) {
	filters := repository.UserFilters{}

	if session.Role == domain.RoleProcurementManager {
		filters.ProcurementManagerID = session.UserID
		filters.Role = domain.RoleInspectionManager
	} else if session.Role == domain.RoleAdmin && req.Role != 0 {
		filters.Role = req.Role
	}

	users, err := s.usersRepo.ListUsers(ctx, filters)
	if err != nil {
		return nil, err
	}

	items := make([]*UserDTO, 0, len(users))
	for _, user := range users {
		dto := &UserDTO{
			UserID:    user.UserID,
			Name:      user.Name,
			Email:     user.Email,
			PhoneCode: user.PhoneCode,
			Phone:     user.Phone,
			Role:      user.Role.Label(),
		}
		if user.ProcurementManagerID.Valid {
			dto.ProcurementManagerID = user.ProcurementManagerID.String
		}
		items = append(items, dto)
	}
	return &ListUsersResponse{Items: items}, nil
}

// AssignManager 把检验经理指派给采购经理，两端角色都要校验
func (s *userService) AssignManager(ctx context.Context, inspectionManagerID, procurementManagerID string) error {
	if err := s.ValidateUserRole(ctx, inspectionManagerID, domain.RoleInspectionManager); err != nil {
		return err
	}
	if err := s.ValidateUserRole(ctx, procurementManagerID, domain.RoleProcurementManager); err != nil {
		return err
	}

	err := s.usersRepo.SetProcurementManager(ctx, inspectionManagerID,
		sql.NullString{String: procurementManagerID, Valid: true})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "inspection manager not found")
		}
		return err
	}
	return nil
}

// UnassignManager 解除检验经理的上级指派
func (s *userService) UnassignManager(ctx context.Context, inspectionManagerID string) error {
	if err := s.ValidateUserRole(ctx, inspectionManagerID, domain.RoleInspectionManager); err != nil {
		return err
	}

	err := s.usersRepo.SetProcurementManager(ctx, inspectionManagerID, sql.NullString{})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "inspection manager not found")
		}
		return err
	}
	return nil
}

// ValidateUserRole 引用校验：用户存在、未删除且属于指定角色
func (s *userService) ValidateUserRole(ctx context.Context, userID string, role domain.Role) error {
	exists, err := s.usersRepo.ExistsByIDAndRole(ctx, userID, role)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.Newf(apperr.KindNotFound, "invalid %s id provided", role.Label())
	}
	return nil
}

func (s *userService) checkEmailPhoneUnique(ctx context.Context, email, phone string) error {
	exists, err := s.usersRepo.ExistsByEmailOrPhone(ctx, email, phone)
	if err != nil {
		return err
	}
	if exists {
		return apperr.New(apperr.KindConflict, "user with email/phone already exist")
	}
	return nil
}
