package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"procureflow-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresChecklistsRepository 检查清单 Repository 实现（强类型版本）
type PostgresChecklistsRepository struct {
	db *sql.DB
}

// NewPostgresChecklistsRepository 创建检查清单 Repository
func NewPostgresChecklistsRepository(db *sql.DB) *PostgresChecklistsRepository {
	return &PostgresChecklistsRepository{db: db}
}

// 确保实现了接口
var _ ChecklistsRepository = (*PostgresChecklistsRepository)(nil)

// CreateChecklist 创建检查清单（version = 1）
func (r *PostgresChecklistsRepository) CreateChecklist(ctx context.Context, checklist *domain.Checklist) (string, error) {
	if checklist.ChecklistID == "" {
		checklist.ChecklistID = uuid.NewString()
	}
	questionsJSON, err := json.Marshal(checklist.Questions)
	if err != nil {
		return "", fmt.Errorf("failed to marshal questions: %w", err)
	}

	query := `
		INSERT INTO checklists (checklist_id, client_id, title, version, questions, is_deleted, created_by)
		VALUES ($1, $2, $3, 1, $4, FALSE, $5)
		RETURNING checklist_id::text
	`
	var checklistID string
	err = r.db.QueryRowContext(ctx, query,
		checklist.ChecklistID,
		checklist.ClientID,
		checklist.Title,
		questionsJSON,
		checklist.CreatedBy,
	).Scan(&checklistID)
	if err != nil {
		return "", fmt.Errorf("failed to create checklist: %w", err)
	}
	return checklistID, nil
}

// GetChecklist 读取未删除的 checklist
func (r *PostgresChecklistsRepository) GetChecklist(ctx context.Context, checklistID string) (*domain.Checklist, error) {
	if checklistID == "" {
		return nil, sql.ErrNoRows
	}
	query := `
		SELECT
			checklist_id::text,
			client_id::text,
			title,
			version,
			questions::text,
			is_deleted,
			created_by::text,
			created_at,
			updated_at
		FROM checklists
		WHERE checklist_id = $1 AND is_deleted = FALSE
	`
	return r.scanChecklist(r.db.QueryRowContext(ctx, query, checklistID))
}

func (r *PostgresChecklistsRepository) scanChecklist(row *sql.Row) (*domain.Checklist, error) {
	var checklist domain.Checklist
	var questionsJSON string
	err := row.Scan(
		&checklist.ChecklistID,
		&checklist.ClientID,
		&checklist.Title,
		&checklist.Version,
		&questionsJSON,
		&checklist.IsDeleted,
		&checklist.CreatedBy,
		&checklist.CreatedAt,
		&checklist.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(questionsJSON), &checklist.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	return &checklist, nil
}

// ExistsOwned checklist 是否存在、未删除且属于指定客户
func (r *PostgresChecklistsRepository) ExistsOwned(ctx context.Context, clientID, checklistID string) (bool, error) {
	if clientID == "" || checklistID == "" {
		return false, nil
	}
	query := `
		SELECT EXISTS (
			SELECT 1 FROM checklists
			WHERE checklist_id = $1 AND client_id = $2 AND is_deleted = FALSE
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, checklistID, clientID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check checklist ownership: %w", err)
	}
	return exists, nil
}

// UpdateWithArchive 归档后替换，单事务执行
// 归档行必须捕获更新前的题目集和版本号，然后才应用新状态并把版本号 +1
func (r *PostgresChecklistsRepository) UpdateWithArchive(ctx context.Context, checklistID, title string, questions []domain.Question, updatedBy string) (*domain.Checklist, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 锁定当前行，拿到更新前状态
	var currentVersion int
	var currentQuestions string
	err = tx.QueryRowContext(ctx,
		`SELECT version, questions::text FROM checklists
		 WHERE checklist_id = $1 AND is_deleted = FALSE
		 FOR UPDATE`,
		checklistID,
	).Scan(&currentVersion, &currentQuestions)
	if err != nil {
		return nil, err
	}

	// 第一步：归档更新前的快照
	_, err = tx.ExecContext(ctx,
		`INSERT INTO checklist_versions (version_id, checklist_id, version, questions, created_by)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), checklistID, currentVersion, currentQuestions, updatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to archive checklist version: %w", err)
	}

	// 第二步：应用新题目并递增版本号
	newQuestionsJSON, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal questions: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE checklists
		 SET title = $2, questions = $3, version = version + 1, updated_at = NOW()
		 WHERE checklist_id = $1`,
		checklistID, title, newQuestionsJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update checklist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit checklist update: %w", err)
	}

	return r.GetChecklist(ctx, checklistID)
}

// GetVersion 读取历史版本快照
func (r *PostgresChecklistsRepository) GetVersion(ctx context.Context, checklistID string, version int) (*domain.ChecklistVersion, error) {
	if checklistID == "" {
		return nil, sql.ErrNoRows
	}
	query := `
		SELECT
			version_id::text,
			checklist_id::text,
			version,
			questions::text,
			created_by::text,
			created_at
		FROM checklist_versions
		WHERE checklist_id = $1 AND version = $2
	`
	var cv domain.ChecklistVersion
	var questionsJSON string
	err := r.db.QueryRowContext(ctx, query, checklistID, version).Scan(
		&cv.VersionID,
		&cv.ChecklistID,
		&cv.Version,
		&questionsJSON,
		&cv.CreatedBy,
		&cv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(questionsJSON), &cv.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	return &cv, nil
}

// ListChecklists 查询检查清单列表（创建时间倒序）
func (r *PostgresChecklistsRepository) ListChecklists(ctx context.Context, filters ChecklistFilters, page, size int) ([]*domain.Checklist, int, error) {
	where := ` WHERE is_deleted = FALSE`
	var args []any

	if filters.ClientID != "" {
		args = append(args, filters.ClientID)
		where += fmt.Sprintf(" AND client_id = $%d", len(args))
	}
	if filters.Term != "" {
		args = append(args, "%"+filters.Term+"%")
		where += fmt.Sprintf(" AND questions::text ILIKE $%d", len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM checklists`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count checklists: %w", err)
	}

	args = append(args, size)
	limitIdx := len(args)
	args = append(args, (page-1)*size)
	offsetIdx := len(args)

	query := `
		SELECT
			checklist_id::text,
			client_id::text,
			title,
			version,
			questions::text,
			is_deleted,
			created_by::text,
			created_at,
			updated_at
		FROM checklists` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, limitIdx, offsetIdx)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list checklists: %w", err)
	}
	defer rows.Close()

	var checklists []*domain.Checklist
	for rows.Next() {
		var checklist domain.Checklist
		var questionsJSON string
		err := rows.Scan(
			&checklist.ChecklistID,
			&checklist.ClientID,
			&checklist.Title,
			&checklist.Version,
			&questionsJSON,
			&checklist.IsDeleted,
			&checklist.CreatedBy,
			&checklist.CreatedAt,
			&checklist.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan checklist: %w", err)
		}
		if err := json.Unmarshal([]byte(questionsJSON), &checklist.Questions); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal questions: %w", err)
		}
		checklists = append(checklists, &checklist)
	}
	return checklists, total, rows.Err()
}
