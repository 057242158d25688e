package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"procureflow-data/internal/auth"
	"procureflow-data/internal/domain"
	"procureflow-data/internal/permission"
	"procureflow-data/internal/repository"

	"go.uber.org/zap"
)

type sessionKey struct{}

// SessionUser 从请求上下文取会话用户，auth 中间件之后必定存在
func SessionUser(r *http.Request) *domain.User {
	user, _ := r.Context().Value(sessionKey{}).(*domain.User)
	return user
}

// AuthMiddleware Bearer 令牌校验 + 会话用户装载
type AuthMiddleware struct {
	verifier  auth.CredentialVerifier
	usersRepo repository.UsersRepository
	table     permission.Table
	logger    *zap.Logger
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(verifier auth.CredentialVerifier, usersRepo repository.UsersRepository, table permission.Table, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:  verifier,
		usersRepo: usersRepo,
		table:     table,
		logger:    logger,
	}
}

// Require 校验令牌并装载会话用户
// 用户必须存在、已验证、激活且未删除
func (m *AuthMiddleware) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			writeJSON(w, http.StatusUnauthorized, Fail("access denied"))
			return
		}

		claims, err := m.verifier.Validate(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, Fail("invalid token"))
			return
		}

		user, err := m.usersRepo.GetUser(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				writeJSON(w, http.StatusUnauthorized, Fail("user not found"))
				return
			}
			m.logger.Error("failed to load session user", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, Fail("internal server error"))
			return
		}
		if !user.IsVerified || !user.IsActive {
			writeJSON(w, http.StatusUnauthorized, Fail("user not found"))
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, user)
		next(w, r.WithContext(ctx))
	}
}

// Permit 权限表网关：角色/资源缺项按拒绝处理
func (m *AuthMiddleware) Permit(resource permission.Resource, action permission.Action, next http.HandlerFunc) http.HandlerFunc {
	return m.Require(func(w http.ResponseWriter, r *http.Request) {
		user := SessionUser(r)
		if !m.table.Authorize(user.Role, resource, action, nil) {
			writeJSON(w, http.StatusForbidden, Fail("forbidden"))
			return
		}
		next(w, r)
	})
}
