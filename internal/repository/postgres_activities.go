package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"procureflow-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresActivitiesRepository 订单活动日志 Repository 实现
type PostgresActivitiesRepository struct {
	db *sql.DB
}

// NewPostgresActivitiesRepository 创建活动日志 Repository
func NewPostgresActivitiesRepository(db *sql.DB) *PostgresActivitiesRepository {
	return &PostgresActivitiesRepository{db: db}
}

// 确保实现了接口
var _ ActivitiesRepository = (*PostgresActivitiesRepository)(nil)

// InsertActivity 追加一条活动记录
func (r *PostgresActivitiesRepository) InsertActivity(ctx context.Context, activity *domain.OrderActivity) error {
	if activity.ActivityID == "" {
		activity.ActivityID = uuid.NewString()
	}
	detailJSON, err := json.Marshal(activity.Detail)
	if err != nil {
		return fmt.Errorf("failed to marshal activity detail: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO order_activities (activity_id, order_id, user_id, activity_type, detail)
		 VALUES ($1, $2, $3, $4, $5)`,
		activity.ActivityID,
		activity.OrderID,
		activity.UserID,
		activity.ActivityType,
		detailJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// ListActivities 按创建时间倒序分页返回，附带总数
func (r *PostgresActivitiesRepository) ListActivities(ctx context.Context, orderID string, page, size int) ([]*domain.OrderActivity, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM order_activities WHERE order_id = $1`, orderID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT
			activity_id::text,
			order_id::text,
			user_id::text,
			activity_type,
			detail::text,
			created_at
		FROM order_activities
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		orderID, size, (page-1)*size,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*domain.OrderActivity
	for rows.Next() {
		var activity domain.OrderActivity
		var detailJSON string
		err := rows.Scan(
			&activity.ActivityID,
			&activity.OrderID,
			&activity.UserID,
			&activity.ActivityType,
			&detailJSON,
			&activity.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan activity: %w", err)
		}
		if detailJSON != "" && detailJSON != "null" {
			if err := json.Unmarshal([]byte(detailJSON), &activity.Detail); err != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal activity detail: %w", err)
			}
		}
		activities = append(activities, &activity)
	}
	return activities, total, rows.Err()
}
