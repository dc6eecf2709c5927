package repositories

import (
	"context"
	"fmt"

	"ddqhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	// CreateBatch inserts questions in a single round trip via pgx.Batch.
	// The import pipeline flushes its staged rows through here.
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Question, error)
	List(ctx context.Context, tenantID uuid.UUID, questionnaireID *uuid.UUID) ([]*models.Question, error)
	SearchText(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]*models.Question, error)
}

type questionRepo struct {
	db Database
}

func NewQuestionRepo(db Database) QuestionRepository {
	return &questionRepo{db: db}
}

const insertQuestionSQL = `
		INSERT INTO questions (id, tenant_id, questionnaire_id, text, category, display_order, is_required, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`

func (r *questionRepo) Create(ctx context.Context, question *models.Question) error {
	_, err := r.db.Exec(ctx, insertQuestionSQL, question.ID, question.TenantID, question.QuestionnaireID, question.Text, question.Category, question.DisplayOrder, question.IsRequired)
	return err
}

func (r *questionRepo) CreateBatch(ctx context.Context, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, q := range questions {
		batch.Queue(insertQuestionSQL, q.ID, q.TenantID, q.QuestionnaireID, q.Text, q.Category, q.DisplayOrder, q.IsRequired)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := range questions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert failed at question %d: %w", i, err)
		}
	}
	return nil
}

func (r *questionRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Question, error) {
	question := &models.Question{}
	query := `
		SELECT id, tenant_id, questionnaire_id, text, category, display_order, is_required, created_at, updated_at
		FROM questions
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&question.ID, &question.TenantID, &question.QuestionnaireID, &question.Text, &question.Category, &question.DisplayOrder, &question.IsRequired, &question.CreatedAt, &question.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return question, nil
}

func (r *questionRepo) List(ctx context.Context, tenantID uuid.UUID, questionnaireID *uuid.UUID) ([]*models.Question, error) {
	query := `
		SELECT id, tenant_id, questionnaire_id, text, category, display_order, is_required, created_at, updated_at
		FROM questions
		WHERE tenant_id = $1
	`
	args := []any{tenantID}
	if questionnaireID != nil {
		query += ` AND questionnaire_id = $2`
		args = append(args, *questionnaireID)
	}
	query += ` ORDER BY display_order`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

func (r *questionRepo) SearchText(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]*models.Question, error) {
	sql := `
		SELECT id, tenant_id, questionnaire_id, text, category, display_order, is_required, created_at, updated_at
		FROM questions
		WHERE tenant_id = $1 AND text ILIKE $2
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, sql, tenantID, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

func scanQuestions(rows pgx.Rows) ([]*models.Question, error) {
	var questions []*models.Question
	for rows.Next() {
		question := &models.Question{}
		if err := rows.Scan(&question.ID, &question.TenantID, &question.QuestionnaireID, &question.Text, &question.Category, &question.DisplayOrder, &question.IsRequired, &question.CreatedAt, &question.UpdatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}
