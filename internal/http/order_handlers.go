package httpapi

import (
	"io"
	"net/http"
	"path/filepath"

	"procureflow-data/internal/blob"
	"procureflow-data/internal/domain"
	"procureflow-data/internal/service"

	"go.uber.org/zap"
)

// OrderHandler 订单工作流 Handler
type OrderHandler struct {
	orderService    service.OrderService
	defaultPageSize int
	logger          *zap.Logger
}

// NewOrderHandler 创建订单 Handler
func NewOrderHandler(orderService service.OrderService, defaultPageSize int, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService:    orderService,
		defaultPageSize: defaultPageSize,
		logger:          logger,
	}
}

// CreateOrder 创建订单
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	session := SessionUser(r)

	var req struct {
		ClientID            string `json:"clientId"`
		ChecklistID         string `json:"checklistId"`
		InspectionManagerID string `json:"inspectionManagerId"`
		Status              string `json:"status"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	order, err := h.orderService.CreateOrder(r.Context(), session, service.CreateOrderRequest{
		ClientID:            req.ClientID,
		ChecklistID:         req.ChecklistID,
		InspectionManagerID: req.InspectionManagerID,
		Status:              domain.OrderStatus(req.Status),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(order.ToJSON()))
}

// ListOrders 订单列表
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	session := SessionUser(r)
	page, size := pageParams(r, h.defaultPageSize)

	resp, err := h.orderService.ListOrders(r.Context(), session, service.ListOrdersRequest{
		ClientID: r.URL.Query().Get("clientId"),
		Page:     page,
		Size:     size,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(resp.Items))
	for _, order := range resp.Items {
		items = append(items, order.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items":      items,
		"pagination": resp.Pagination,
	}))
}

// UpdateOrder 订单补丁（挂接 checklist / 修改状态）
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request, orderID string) {
	session := SessionUser(r)

	var req struct {
		ChecklistID *string `json:"checklistId"`
		Status      *string `json:"status"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	patch := service.UpdateOrderRequest{ChecklistID: req.ChecklistID}
	if req.Status != nil {
		status := domain.OrderStatus(*req.Status)
		patch.Status = &status
	}

	if err := h.orderService.UpdateOrder(r.Context(), session, orderID, patch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// GetOrder 订单详情（合并固定版本 checklist 与已提交答案）
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request, orderID string) {
	resp, err := h.orderService.GetOrderWithChecklist(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"order":     resp.Order.ToJSON(),
		"checklist": resp.Checklist,
	}))
}

// SubmitAnswers 答卷提交
func (h *OrderHandler) SubmitAnswers(w http.ResponseWriter, r *http.Request, orderID string) {
	session := SessionUser(r)

	var req struct {
		Questions []domain.QuestionAnswer `json:"questions"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if len(req.Questions) == 0 {
		writeJSON(w, http.StatusBadRequest, Fail("questions is required"))
		return
	}

	answer, err := h.orderService.SubmitAnswers(r.Context(), session, orderID, service.SubmitAnswersRequest{
		Questions: req.Questions,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(answer.ToJSON()))
}

// UploadImage 图片证据上传
// multipart 字段名 image；载荷大小由 blob 包按 5 MiB 上限校验
func (h *OrderHandler) UploadImage(w http.ResponseWriter, r *http.Request, orderID string, questionID int) {
	session := SessionUser(r)

	if err := r.ParseMultipartForm(blob.MaxImageSize + 1); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid multipart body"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("no image file uploaded"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, blob.MaxImageSize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("failed to read image file"))
		return
	}

	url, err := h.orderService.AttachImage(r.Context(), session, orderID, questionID,
		filepath.Ext(header.Filename), data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"imageUrl": url}))
}

// ListActivities 活动日志分页
func (h *OrderHandler) ListActivities(w http.ResponseWriter, r *http.Request, orderID string) {
	page, size := pageParams(r, h.defaultPageSize)
	resp, err := h.orderService.ListActivities(r.Context(), orderID, page, size)
	if err != nil {
		writeError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(resp.Activities))
	for _, activity := range resp.Activities {
		items = append(items, activity.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items":      items,
		"pagination": resp.Pagination,
	}))
}

// ExportAnswers 答卷 Excel 导出
func (h *OrderHandler) ExportAnswers(w http.ResponseWriter, r *http.Request, orderID string) {
	resp, err := h.orderService.GetOrderWithChecklist(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := GenerateOrderAnswersExport(resp)
	if err != nil {
		h.logger.Error("failed to generate answers export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="order-`+orderID+`-answers.xlsx"`)
	_, _ = w.Write(data)
}
