package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"procureflow-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresOrdersRepository 订单 Repository 实现（强类型版本）
type PostgresOrdersRepository struct {
	db *sql.DB
}

// NewPostgresOrdersRepository 创建订单 Repository
func NewPostgresOrdersRepository(db *sql.DB) *PostgresOrdersRepository {
	return &PostgresOrdersRepository{db: db}
}

// 确保实现了接口
var _ OrdersRepository = (*PostgresOrdersRepository)(nil)

const orderColumns = `
	order_id::text,
	client_id::text,
	checklist_id::text,
	checklist_version,
	procurement_manager_id::text,
	inspection_manager_id::text,
	status,
	created_by::text,
	created_at,
	updated_at
`

func scanOrderRow(scan func(dest ...any) error) (*domain.Order, error) {
	var order domain.Order
	err := scan(
		&order.OrderID,
		&order.ClientID,
		&order.ChecklistID,
		&order.ChecklistVersion,
		&order.ProcurementManagerID,
		&order.InspectionManagerID,
		&order.Status,
		&order.CreatedBy,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrder 创建订单，返回新订单 ID
func (r *PostgresOrdersRepository) CreateOrder(ctx context.Context, order *domain.Order) (string, error) {
	if order.OrderID == "" {
		order.OrderID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	if order.ChecklistVersion == 0 {
		order.ChecklistVersion = 1
	}
	query := `
		INSERT INTO orders (
			order_id, client_id, checklist_id, checklist_version,
			procurement_manager_id, inspection_manager_id, status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING order_id::text
	`
	var orderID string
	err := r.db.QueryRowContext(ctx, query,
		order.OrderID,
		order.ClientID,
		order.ChecklistID,
		order.ChecklistVersion,
		order.ProcurementManagerID,
		order.InspectionManagerID,
		string(order.Status),
		order.CreatedBy,
	).Scan(&orderID)
	if err != nil {
		return "", fmt.Errorf("failed to create order: %w", err)
	}
	return orderID, nil
}

// GetOrder 获取订单
func (r *PostgresOrdersRepository) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, sql.ErrNoRows
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`
	row := r.db.QueryRowContext(ctx, query, orderID)
	return scanOrderRow(row.Scan)
}

// UpdateOrder 应用补丁，nil 字段不更新
func (r *PostgresOrdersRepository) UpdateOrder(ctx context.Context, orderID string, patch OrderPatch) error {
	sets := []string{"updated_at = NOW()"}
	args := []any{orderID}

	if patch.ChecklistID != nil {
		args = append(args, *patch.ChecklistID)
		sets = append(sets, fmt.Sprintf("checklist_id = $%d", len(args)))
	}
	if patch.ChecklistVersion != nil {
		args = append(args, *patch.ChecklistVersion)
		sets = append(sets, fmt.Sprintf("checklist_version = $%d", len(args)))
	}
	if patch.InspectionManagerID != nil {
		args = append(args, *patch.InspectionManagerID)
		sets = append(sets, fmt.Sprintf("inspection_manager_id = $%d", len(args)))
	}
	if patch.Status != nil {
		args = append(args, string(*patch.Status))
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}

	query := "UPDATE orders SET " + sets[0]
	for _, s := range sets[1:] {
		query += ", " + s
	}
	query += " WHERE order_id = $1"

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
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

const answerColumns = `
	answer_id::text,
	order_id::text,
	checklist_id::text,
	checklist_version,
	answers::text,
	created_by::text,
	created_at,
	updated_at
`

func scanAnswerRow(scan func(dest ...any) error) (*domain.OrderChecklistAnswer, error) {
	var answer domain.OrderChecklistAnswer
	var answersJSON string
	err := scan(
		&answer.AnswerID,
		&answer.OrderID,
		&answer.ChecklistID,
		&answer.ChecklistVersion,
		&answersJSON,
		&answer.CreatedBy,
		&answer.CreatedAt,
		&answer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answersJSON), &answer.Answers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
	}
	return &answer, nil
}

// GetAnswer 读取订单答卷
func (r *PostgresOrdersRepository) GetAnswer(ctx context.Context, orderID string) (*domain.OrderChecklistAnswer, error) {
	if orderID == "" {
		return nil, sql.ErrNoRows
	}
	query := `SELECT ` + answerColumns + ` FROM order_checklist_answers WHERE order_id = $1`
	row := r.db.QueryRowContext(ctx, query, orderID)
	return scanAnswerRow(row.Scan)
}

// SaveAnswer 单事务保存答卷并把订单状态置为 done
// 订单行先 FOR UPDATE 锁定并复查 completed，与 upsert + 状态更新同生共死
func (r *PostgresOrdersRepository) SaveAnswer(ctx context.Context, answer *domain.OrderChecklistAnswer) (*domain.OrderChecklistAnswer, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE order_id = $1 FOR UPDATE`,
		answer.OrderID,
	).Scan(&status)
	if err != nil {
		return nil, err
	}
	if domain.OrderStatus(status) == domain.OrderStatusCompleted {
		return nil, ErrOrderCompleted
	}

	answersJSON, err := json.Marshal(answer.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal answers: %w", err)
	}
	if answer.AnswerID == "" {
		answer.AnswerID = uuid.NewString()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO order_checklist_answers (
			answer_id, order_id, checklist_id, checklist_version, answers, created_by
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_id) DO UPDATE SET
			checklist_id = EXCLUDED.checklist_id,
			checklist_version = EXCLUDED.checklist_version,
			answers = EXCLUDED.answers,
			created_by = EXCLUDED.created_by,
			updated_at = NOW()`,
		answer.AnswerID,
		answer.OrderID,
		answer.ChecklistID,
		answer.ChecklistVersion,
		answersJSON,
		answer.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert answer: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE order_id = $1`,
		answer.OrderID, string(domain.OrderStatusDone),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+answerColumns+` FROM order_checklist_answers WHERE order_id = $1`,
		answer.OrderID,
	)
	saved, err := scanAnswerRow(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to read saved answer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit answer: %w", err)
	}
	return saved, nil
}

// ListOrders 查询订单列表（创建时间倒序）
func (r *PostgresOrdersRepository) ListOrders(ctx context.Context, filters OrderFilters, page, size int) ([]*domain.Order, int, error) {
	where := ""
	var args []any
	if filters.ClientID != "" {
		args = append(args, filters.ClientID)
		where = " WHERE client_id = $1"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	args = append(args, size)
	limitIdx := len(args)
	args = append(args, (page-1)*size)
	offsetIdx := len(args)

	query := `SELECT ` + orderColumns + ` FROM orders` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, limitIdx, offsetIdx)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrderRow(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, total, rows.Err()
}
