package httpapi

import (
	"net/http"
	"strings"

	"procureflow-data/internal/permission"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterUserRoutes 注册用户路由
// register/login 是白名单路由，其余经过鉴权与权限表
func (r *Router) RegisterUserRoutes(h *UserHandler, m *AuthMiddleware) {
	r.Handle("/api/v1/users/register", methodOnly(http.MethodPost, h.Register))
	r.Handle("/api/v1/users/login", methodOnly(http.MethodPost, h.Login))

	r.Handle("/api/v1/users", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			// allowedRoles 附加约束在 handler 内检查，这里只做鉴权
			m.Require(h.CreateUser)(w, req)
		case http.MethodGet:
			m.Permit(permission.ResourceUsers, permission.ActionView, h.ListUsers)(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// /api/v1/users/{userId}/assign-manager | unassign-manager
	r.Handle("/api/v1/users/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/users/")
		parts := strings.Split(rest, "/")
		if len(parts) != 2 || parts[0] == "" || req.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		userID := parts[0]
		switch parts[1] {
		case "assign-manager":
			m.Permit(permission.ResourceUsers, permission.ActionUpdate, func(w http.ResponseWriter, req *http.Request) {
				h.AssignManager(w, req, userID)
			})(w, req)
		case "unassign-manager":
			m.Permit(permission.ResourceUsers, permission.ActionUpdate, func(w http.ResponseWriter, req *http.Request) {
				h.UnassignManager(w, req, userID)
			})(w, req)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// RegisterChecklistRoutes 注册检查清单路由
func (r *Router) RegisterChecklistRoutes(h *ChecklistHandler, m *AuthMiddleware) {
	r.Handle("/api/v1/checklists", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			m.Permit(permission.ResourceChecklist, permission.ActionCreate, h.CreateChecklist)(w, req)
		case http.MethodGet:
			m.Permit(permission.ResourceChecklist, permission.ActionView, h.ListChecklists)(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	r.Handle("/api/v1/checklists/", func(w http.ResponseWriter, req *http.Request) {
		checklistID := strings.TrimPrefix(req.URL.Path, "/api/v1/checklists/")
		if checklistID == "" || strings.Contains(checklistID, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch req.Method {
		case http.MethodPut:
			m.Permit(permission.ResourceChecklist, permission.ActionCreate, func(w http.ResponseWriter, req *http.Request) {
				h.UpdateChecklist(w, req, checklistID)
			})(w, req)
		case http.MethodGet:
			m.Permit(permission.ResourceChecklist, permission.ActionView, func(w http.ResponseWriter, req *http.Request) {
				h.GetChecklist(w, req, checklistID)
			})(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// RegisterOrderRoutes 注册订单路由
func (r *Router) RegisterOrderRoutes(h *OrderHandler, m *AuthMiddleware) {
	r.Handle("/api/v1/orders", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			m.Permit(permission.ResourceOrders, permission.ActionCreate, h.CreateOrder)(w, req)
		case http.MethodGet:
			m.Permit(permission.ResourceOrders, permission.ActionView, h.ListOrders)(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// /api/v1/orders/{orderId}[/answer | /activities | /answers/export | /{questionId}/upload]
	r.Handle("/api/v1/orders/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/orders/")
		parts := strings.Split(rest, "/")
		if parts[0] == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		orderID := parts[0]

		switch {
		case len(parts) == 1:
			switch req.Method {
			case http.MethodPatch:
				m.Permit(permission.ResourceOrders, permission.ActionUpdate, func(w http.ResponseWriter, req *http.Request) {
					h.UpdateOrder(w, req, orderID)
				})(w, req)
			case http.MethodGet:
				m.Permit(permission.ResourceOrderAnswer, permission.ActionView, func(w http.ResponseWriter, req *http.Request) {
					h.GetOrder(w, req, orderID)
				})(w, req)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}

		case len(parts) == 2 && parts[1] == "answer" && req.Method == http.MethodPost:
			m.Permit(permission.ResourceOrderAnswer, permission.ActionUpdate, func(w http.ResponseWriter, req *http.Request) {
				h.SubmitAnswers(w, req, orderID)
			})(w, req)

		case len(parts) == 2 && parts[1] == "activities" && req.Method == http.MethodGet:
			m.Permit(permission.ResourceOrders, permission.ActionView, func(w http.ResponseWriter, req *http.Request) {
				h.ListActivities(w, req, orderID)
			})(w, req)

		case len(parts) == 3 && parts[1] == "answers" && parts[2] == "export" && req.Method == http.MethodGet:
			m.Permit(permission.ResourceOrderAnswer, permission.ActionView, func(w http.ResponseWriter, req *http.Request) {
				h.ExportAnswers(w, req, orderID)
			})(w, req)

		case len(parts) == 3 && parts[2] == "upload" && req.Method == http.MethodPost:
			questionID := parseInt(parts[1], 0)
			if questionID <= 0 {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			m.Permit(permission.ResourceOrderAnswer, permission.ActionUpdate, func(w http.ResponseWriter, req *http.Request) {
				h.UploadImage(w, req, orderID, questionID)
			})(w, req)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}
