package httpapi

import (
	"net/http"
	"strings"

	"procureflow-data/internal/domain"
	"procureflow-data/internal/permission"
	"procureflow-data/internal/service"

	"go.uber.org/zap"
)

// UserHandler 身份与角色目录 Handler
type UserHandler struct {
	userService service.UserService
	table       permission.Table
	logger      *zap.Logger
}

// NewUserHandler 创建用户 Handler
func NewUserHandler(userService service.UserService, table permission.Table, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		table:       table,
		logger:      logger,
	}
}

// Register 管理员自助注册（白名单路由，无鉴权）
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		PhoneCode string `json:"phoneCode"`
		Phone     string `json:"phone"`
		Password  string `json:"password"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	resp, err := h.userService.Register(r.Context(), service.RegisterRequest{
		Name:      req.Name,
		Email:     req.Email,
		PhoneCode: req.PhoneCode,
		Phone:     req.Phone,
		Password:  req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Login 登录（白名单路由，无鉴权）
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	resp, err := h.userService.Login(r.Context(), service.LoginRequest{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// CreateUser 创建下属用户
// users.create 的附加约束在这里检查：目标角色必须在调用方 allowedRoles 内
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	session := SessionUser(r)

	var req struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		PhoneCode string `json:"phoneCode"`
		Phone     string `json:"phone"`
		Password  string `json:"password"`
		RoleID    int    `json:"roleId"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	targetRole := domain.Role(req.RoleID)
	if !targetRole.Valid() {
		writeJSON(w, http.StatusBadRequest, Fail("invalid role id provided"))
		return
	}
	if !h.table.Authorize(session.Role, permission.ResourceUsers, permission.ActionCreate,
		&permission.Context{TargetRole: targetRole}) {
		writeJSON(w, http.StatusForbidden, Fail("forbidden"))
		return
	}

	resp, err := h.userService.CreateUser(r.Context(), session, service.CreateUserRequest{
		Name:      req.Name,
		Email:     req.Email,
		PhoneCode: req.PhoneCode,
		Phone:     req.Phone,
		Password:  req.Password,
		Role:      targetRole,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// ListUsers 用户列表
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	session := SessionUser(r)

	req := service.ListUsersRequest{}
	if roleID := parseInt(r.URL.Query().Get("roleId"), 0); roleID != 0 {
		req.Role = domain.Role(roleID)
	}

	resp, err := h.userService.ListUsers(r.Context(), session, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp.Items))
}

// AssignManager 指派检验经理的上级采购经理（仅 Admin）
func (h *UserHandler) AssignManager(w http.ResponseWriter, r *http.Request, userID string) {
	session := SessionUser(r)
	if session.Role != domain.RoleAdmin {
		writeJSON(w, http.StatusForbidden, Fail("forbidden"))
		return
	}

	var req struct {
		ProcurementManagerID string `json:"procurementManagerId"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if strings.TrimSpace(req.ProcurementManagerID) == "" {
		writeJSON(w, http.StatusBadRequest, Fail("procurementManagerId is required"))
		return
	}

	if err := h.userService.AssignManager(r.Context(), userID, req.ProcurementManagerID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// UnassignManager 解除检验经理的上级指派（仅 Admin）
func (h *UserHandler) UnassignManager(w http.ResponseWriter, r *http.Request, userID string) {
	session := SessionUser(r)
	if session.Role != domain.RoleAdmin {
		writeJSON(w, http.StatusForbidden, Fail("forbidden"))
		return
	}

	if err := h.userService.UnassignManager(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
