package httpapi

import (
	"net/http"

	"procureflow-data/internal/domain"
	"procureflow-data/internal/service"

	"go.uber.org/zap"
)

// ChecklistHandler 检查清单 Handler
type ChecklistHandler struct {
	checklistService service.ChecklistService
	defaultPageSize  int
	logger           *zap.Logger
}

// NewChecklistHandler 创建检查清单 Handler
func NewChecklistHandler(checklistService service.ChecklistService, defaultPageSize int, logger *zap.Logger) *ChecklistHandler {
	return &ChecklistHandler{
		checklistService: checklistService,
		defaultPageSize:  defaultPageSize,
		logger:           logger,
	}
}

// CreateChecklist 创建检查清单
func (h *ChecklistHandler) CreateChecklist(w http.ResponseWriter, r *http.Request) {
	session := SessionUser(r)

	var req struct {
		ClientID  string                  `json:"clientId"`
		Title     string                  `json:"title"`
		Questions []service.QuestionInput `json:"questions"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	checklist, err := h.checklistService.CreateChecklist(r.Context(), session, service.CreateChecklistRequest{
		ClientID:  req.ClientID,
		Title:     req.Title,
		Questions: req.Questions,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(checklist.ToJSON()))
}

// UpdateChecklist 更新检查清单（归档旧版本并递增版本号）
func (h *ChecklistHandler) UpdateChecklist(w http.ResponseWriter, r *http.Request, checklistID string) {
	session := SessionUser(r)

	var req struct {
		Title     string            `json:"title"`
		Questions []domain.Question `json:"questions"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	checklist, err := h.checklistService.UpdateChecklist(r.Context(), session, checklistID, service.UpdateChecklistRequest{
		Title:     req.Title,
		Questions: req.Questions,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(checklist.ToJSON()))
}

// ListChecklists 检查清单列表
func (h *ChecklistHandler) ListChecklists(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r, h.defaultPageSize)
	resp, err := h.checklistService.ListChecklists(r.Context(), service.ListChecklistsRequest{
		ClientID: r.URL.Query().Get("clientId"),
		Term:     r.URL.Query().Get("term"),
		Page:     page,
		Size:     size,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(resp.Items))
	for _, checklist := range resp.Items {
		items = append(items, checklist.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items":      items,
		"pagination": resp.Pagination,
	}))
}

// GetChecklist 检查清单详情，可带 version 参数取历史版本
func (h *ChecklistHandler) GetChecklist(w http.ResponseWriter, r *http.Request, checklistID string) {
	var version *int
	if v := parseInt(r.URL.Query().Get("version"), 0); v > 0 {
		version = &v
	}

	checklist, err := h.checklistService.GetChecklist(r.Context(), checklistID, version)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(checklist.ToJSON()))
}
