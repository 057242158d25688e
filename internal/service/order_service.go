package service

import (
	"context"
	"database/sql"
	"errors"

	"procureflow-data/internal/apperr"
	"procureflow-data/internal/blob"
	"procureflow-data/internal/domain"
	"procureflow-data/internal/models"
	"procureflow-data/internal/repository"

	"go.uber.org/zap"
)

// OrderService 订单工作流引擎接口
//
// 两条硬规则：
//  1. 没有答卷的订单不允许转为 completed（PreconditionFailed）
//  2. completed 之后不再接受答卷提交和图片上传（Conflict）
type OrderService interface {
	CreateOrder(ctx context.Context, session *domain.User, req CreateOrderRequest) (*domain.Order, error)
	ListOrders(ctx context.Context, session *domain.User, req ListOrdersRequest) (*ListOrdersResponse, error)
	UpdateOrder(ctx context.Context, session *domain.User, orderID string, req UpdateOrderRequest) error
	// GetOrderWithChecklist 订单 + 固定版本的 checklist + 已提交答案合并视图
	GetOrderWithChecklist(ctx context.Context, orderID string) (*OrderWithChecklistResponse, error)
	// SubmitAnswers 全量校验后单事务 upsert 答卷并把状态置为 done
	SubmitAnswers(ctx context.Context, session *domain.User, orderID string, req SubmitAnswersRequest) (*domain.OrderChecklistAnswer, error)
	// AttachImage 图片证据上传，只返回 URL，不改动订单/答卷状态
	AttachImage(ctx context.Context, session *domain.User, orderID string, questionID int, ext string, data []byte) (string, error)
	ListActivities(ctx context.Context, orderID string, page, size int) (*ListActivitiesResponse, error)
}

// orderService 实现
type orderService struct {
	ordersRepo       repository.OrdersRepository
	activitiesRepo   repository.ActivitiesRepository
	checklistService ChecklistService
	userService      UserService
	blobStore        blob.Store
	recorder         *ActivityRecorder
	logger           *zap.Logger
}

// NewOrderService 创建 OrderService 实例
func NewOrderService(
	ordersRepo repository.OrdersRepository,
	activitiesRepo repository.ActivitiesRepository,
	checklistService ChecklistService,
	userService UserService,
	blobStore blob.Store,
	recorder *ActivityRecorder,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		ordersRepo:       ordersRepo,
		activitiesRepo:   activitiesRepo,
		checklistService: checklistService,
		userService:      userService,
		blobStore:        blobStore,
		recorder:         recorder,
		logger:           logger,
	}
}

// ============================================
// Request/Response DTOs
// ============================================

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	ClientID            string
	ChecklistID         string // 可选
	InspectionManagerID string // 可选
	Status              domain.OrderStatus // 可选，默认 pending
}

// ListOrdersRequest 订单列表请求
type ListOrdersRequest struct {
	ClientID string // Client 会话强制为自身
	Page     int
	Size     int
}

// ListOrdersResponse 订单列表响应
type ListOrdersResponse struct {
	Items      []*domain.Order   `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

// UpdateOrderRequest 订单补丁请求
type UpdateOrderRequest struct {
	ChecklistID *string
	Status      *domain.OrderStatus
}

// AnsweredQuestion 合并视图中的检查项（附已提交答案）
type AnsweredQuestion struct {
	domain.Question
	Answer string `json:"answer,omitempty"`
}

// OrderChecklistView 合并视图中的 checklist
type OrderChecklistView struct {
	ChecklistID string             `json:"checklistId"`
	Title       string             `json:"title"`
	Version     int                `json:"version"`
	Questions   []AnsweredQuestion `json:"questions"`
}

// OrderWithChecklistResponse 订单合并视图
type OrderWithChecklistResponse struct {
	Order     *domain.Order       `json:"order"`
	Checklist *OrderChecklistView `json:"checklist,omitempty"`
}

// SubmitAnswersRequest 答卷提交请求
type SubmitAnswersRequest struct {
	Questions []domain.QuestionAnswer
}

// ListActivitiesResponse 活动日志分页响应
type ListActivitiesResponse struct {
	Activities []*domain.OrderActivity `json:"activities"`
	Pagination models.Pagination       `json:"pagination"`
}

// ============================================
// 操作实现
// ============================================

// CreateOrder 创建订单
// 校验客户角色、可选的检验经理角色、可选的 checklist 归属；
// 挂接 checklist 时把其当前版本固定到订单上；
// 采购经理会话自动成为订单的采购经理
func (s *orderService) CreateOrder(ctx context.Context, session *domain.User, req CreateOrderRequest) (*domain.Order, error) {
	if err := s.userService.ValidateUserRole(ctx, req.ClientID, domain.RoleClient); err != nil {
		return nil, err
	}
	if req.InspectionManagerID != "" {
		if err := s.userService.ValidateUserRole(ctx, req.InspectionManagerID, domain.RoleInspectionManager); err != nil {
			return nil, err
		}
	}

	order := &domain.Order{
		ClientID:  req.ClientID,
		Status:    domain.OrderStatusPending,
		CreatedBy: session.UserID,
	}
	if req.Status != "" {
		if !req.Status.Valid() {
			return nil, apperr.Newf(apperr.KindValidation, "invalid order status: %s", req.Status)
		}
		order.Status = req.Status
	}
	if req.InspectionManagerID != "" {
		order.InspectionManagerID = sql.NullString{String: req.InspectionManagerID, Valid: true}
	}
	if session.Role == domain.RoleProcurementManager {
		order.ProcurementManagerID = sql.NullString{String: session.UserID, Valid: true}
	}

	if req.ChecklistID != "" {
		if err := s.checklistService.ValidateOwnership(ctx, req.ClientID, req.ChecklistID); err != nil {
			return nil, err
		}
		// 挂接即固定版本；checklist 后续更新不会让订单版本自动跟进
		checklist, err := s.checklistService.GetChecklist(ctx, req.ChecklistID, nil)
		if err != nil {
			return nil, err
		}
		order.ChecklistID = sql.NullString{String: req.ChecklistID, Valid: true}
		order.ChecklistVersion = checklist.Version
	}

	orderID, err := s.ordersRepo.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	created, err := s.ordersRepo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(orderID, session.UserID, domain.ActivityOrderCreated, map[string]any{
		"clientId":    req.ClientID,
		"checklistId": req.ChecklistID,
	})
	s.logger.Info("order created",
		zap.String("order_id", orderID),
		zap.String("client_id", req.ClientID))
	return created, nil
}

// ListOrders 订单列表
// Client 会话只能看到自己的订单；显式 clientId 过滤先做角色校验
func (s *orderService) ListOrders(ctx context.Context, session *domain.User, req ListOrdersRequest) (*ListOrdersResponse, error) {
	clientID := req.ClientID
	if session.Role == domain.RoleClient {
		clientID = session.UserID
	} else if clientID != "" {
		if err := s.userService.ValidateUserRole(ctx, clientID, domain.RoleClient); err != nil {
			return nil, err
		}
	}

	items, total, err := s.ordersRepo.ListOrders(ctx, repository.OrderFilters{ClientID: clientID}, req.Page, req.Size)
	if err != nil {
		return nil, err
	}
	return &ListOrdersResponse{
		Items:      items,
		Pagination: models.NewPagination(req.Page, req.Size, total),
	}, nil
}

// UpdateOrder 订单补丁
// completed 前置条件（必须已有答卷）只在这里检查——SubmitAnswers 只会把状态置为
// done，不存在第二个进入 completed 的路径
func (s *orderService) UpdateOrder(ctx context.Context, session *domain.User, orderID string, req UpdateOrderRequest) error {
	order, err := s.ordersRepo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "invalid order id provided")
		}
		return err
	}

	patch := repository.OrderPatch{}
	detail := map[string]any{}

	if req.ChecklistID != nil {
		if err := s.checklistService.ValidateOwnership(ctx, order.ClientID, *req.ChecklistID); err != nil {
			return err
		}
		checklist, err := s.checklistService.GetChecklist(ctx, *req.ChecklistID, nil)
		if err != nil {
			return err
		}
		patch.ChecklistID = req.ChecklistID
		patch.ChecklistVersion = &checklist.Version
		detail["key"] = "checklist"
		if order.ChecklistID.Valid {
			detail["old"] = order.ChecklistID.String
		}
		detail["new"] = *req.ChecklistID
	}

	if req.Status != nil {
		if !req.Status.Valid() {
			return apperr.Newf(apperr.KindValidation, "invalid order status: %s", *req.Status)
		}
		if *req.Status == domain.OrderStatusCompleted {
			if _, err := s.ordersRepo.GetAnswer(ctx, orderID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return apperr.New(apperr.KindPreconditionFailed, "order checklist not done yet")
				}
				return err
			}
		}
		patch.Status = req.Status
		detail["key"] = "status"
		detail["old"] = string(order.Status)
		detail["new"] = string(*req.Status)
	}

	if patch.ChecklistID == nil && patch.Status == nil {
		return apperr.New(apperr.KindValidation, "nothing to update")
	}

	if err := s.ordersRepo.UpdateOrder(ctx, orderID, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "invalid order id provided")
		}
		return err
	}

	s.recorder.Record(orderID, session.UserID, domain.ActivityOrderUpdated, detail)
	return nil
}

// GetOrderWithChecklist 订单合并视图
// checklist 按订单固定版本解析；已提交答案折叠进对应检查项
func (s *orderService) GetOrderWithChecklist(ctx context.Context, orderID string) (*OrderWithChecklistResponse, error) {
	order, err := s.ordersRepo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "invalid order id provided")
		}
		return nil, err
	}

	resp := &OrderWithChecklistResponse{Order: order}
	if !order.ChecklistID.Valid {
		return resp, nil
	}

	checklist, err := s.checklistService.GetChecklist(ctx, order.ChecklistID.String, &order.ChecklistVersion)
	if err != nil {
		return nil, err
	}

	var answer *domain.OrderChecklistAnswer
	if a, err := s.ordersRepo.GetAnswer(ctx, orderID); err == nil {
		answer = a
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	view := &OrderChecklistView{
		ChecklistID: checklist.ChecklistID,
		Title:       checklist.Title,
		Version:     checklist.Version,
		Questions:   make([]AnsweredQuestion, 0, len(checklist.Questions)),
	}
	for _, q := range checklist.Questions {
		aq := AnsweredQuestion{Question: q}
		if answer != nil {
			if a := answer.AnswerByQuestionID(q.ID); a != nil {
				aq.Answer = a.Answer
			}
		}
		view.Questions = append(view.Questions, aq)
	}
	resp.Checklist = view
	return resp, nil
}

// SubmitAnswers 答卷提交
// 校验顺序：订单存在 → 未 completed → 按固定版本解析 checklist →
// 未知检查项 / 缺必答项 / 非法选项 → 单事务 upsert 答卷 + 状态置 done
func (s *orderService) SubmitAnswers(ctx context.Context, session *domain.User, orderID string, req SubmitAnswersRequest) (*domain.OrderChecklistAnswer, error) {
	order, err := s.ordersRepo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "invalid order id provided")
		}
		return nil, err
	}
	if order.Status == domain.OrderStatusCompleted {
		return nil, apperr.New(apperr.KindConflict, "can not update completed order")
	}
	if !order.ChecklistID.Valid {
		return nil, apperr.New(apperr.KindValidation, "this order does not have an associated checklist")
	}

	// 固定版本是版本正确性的关键：永远不用 checklist 的当前版本校验历史订单
	checklist, err := s.checklistService.GetChecklist(ctx, order.ChecklistID.String, &order.ChecklistVersion)
	if err != nil {
		return nil, err
	}

	if err := validateAnswers(checklist, req.Questions); err != nil {
		return nil, err
	}

	saved, err := s.ordersRepo.SaveAnswer(ctx, &domain.OrderChecklistAnswer{
		OrderID:          order.OrderID,
		ChecklistID:      order.ChecklistID.String,
		ChecklistVersion: order.ChecklistVersion,
		Answers:          req.Questions,
		CreatedBy:        session.UserID,
	})
	if err != nil {
		// 事务内的并发复查：锁定后发现已 completed
		if errors.Is(err, repository.ErrOrderCompleted) {
			return nil, apperr.New(apperr.KindConflict, "can not update completed order")
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "invalid order id provided")
		}
		return nil, err
	}

	s.recorder.Record(orderID, session.UserID, domain.ActivityChecklistSubmitted, map[string]any{
		"answered": len(req.Questions),
	})
	s.logger.Info("checklist submitted",
		zap.String("order_id", orderID),
		zap.Int("checklist_version", order.ChecklistVersion))
	return saved, nil
}

// validateAnswers 答卷与固定版本题目集的三步校验
func validateAnswers(checklist *domain.Checklist, answers []domain.QuestionAnswer) error {
	submitted := make(map[int]*domain.QuestionAnswer, len(answers))
	for i := range answers {
		a := &answers[i]
		// 1. 提交的检查项必须在 checklist 内
		if checklist.QuestionByID(a.ID) == nil {
			return apperr.Newf(apperr.KindValidation,
				"invalid questionId provided: %d, it does not exist in the checklist", a.ID)
		}
		submitted[a.ID] = a
	}

	for i := range checklist.Questions {
		q := &checklist.Questions[i]
		answer, ok := submitted[q.ID]
		// 2. 必答项必须有答案
		if q.IsRequired && !ok {
			return apperr.Newf(apperr.KindValidation,
				"missing answer for required question: %q", q.Question)
		}
		// 3. 带选项的检查项答案必须是选项 key 之一
		if ok && len(q.Options) > 0 && answer.Answer != "" {
			valid := false
			for _, opt := range q.Options {
				if opt.Key == answer.Answer {
					valid = true
					break
				}
			}
			if !valid {
				return apperr.Newf(apperr.KindValidation,
					"invalid answer %q for question %q, please provide one of the valid options",
					answer.Answer, q.Question)
			}
		}
	}
	return nil
}

// AttachImage 图片证据上传
// 前置：订单存在、已挂接 checklist、未 completed、目标检查项（按固定版本解析）
// 是 image 类型。上传与答卷提交是两步流程，这里不改动订单/答卷状态。
func (s *orderService) AttachImage(ctx context.Context, session *domain.User, orderID string, questionID int, ext string, data []byte) (string, error) {
	order, err := s.ordersRepo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.New(apperr.KindNotFound, "invalid order id provided")
		}
		return "", err
	}
	if !order.ChecklistID.Valid {
		return "", apperr.New(apperr.KindValidation, "this order does not have an associated checklist")
	}
	if order.Status == domain.OrderStatusCompleted {
		return "", apperr.New(apperr.KindConflict, "this order is already marked as completed, can not upload image now")
	}

	checklist, err := s.checklistService.GetChecklist(ctx, order.ChecklistID.String, &order.ChecklistVersion)
	if err != nil {
		return "", err
	}
	question := checklist.QuestionByID(questionID)
	if question == nil {
		return "", apperr.New(apperr.KindValidation, "invalid question id for the associated checklist")
	}
	if question.QuestionType != domain.QuestionTypeImage {
		return "", apperr.New(apperr.KindValidation, "this question is not of type image")
	}

	url, err := s.blobStore.Store(ctx, orderID, questionID, ext, data)
	if err != nil {
		return "", err
	}

	s.logger.Info("checklist image uploaded",
		zap.String("order_id", orderID),
		zap.Int("question_id", questionID),
		zap.String("user_id", session.UserID))
	return url, nil
}

// ListActivities 活动日志分页（创建时间倒序）
func (s *orderService) ListActivities(ctx context.Context, orderID string, page, size int) (*ListActivitiesResponse, error) {
	activities, total, err := s.activitiesRepo.ListActivities(ctx, orderID, page, size)
	if err != nil {
		return nil, err
	}
	return &ListActivitiesResponse{
		Activities: activities,
		Pagination: models.NewPagination(page, size, total),
	}, nil
}
