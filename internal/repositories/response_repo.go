package repositories

import (
	"context"

	"ddqhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ResponseRepository interface {
	List(ctx context.Context, tenantID uuid.UUID, statusFilter *string) ([]*models.Response, error)
	GetByQuestion(ctx context.Context, tenantID, questionID uuid.UUID) (*models.Response, error)
	// Upsert inserts or updates the single response for (tenant, question)
	// in one statement. The unique constraint makes this atomic per call.
	Upsert(ctx context.Context, response *models.Response) error
	SearchAnswers(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]*models.Response, error)
}

type responseRepo struct {
	db Database
}

func NewResponseRepo(db Database) ResponseRepository {
	return &responseRepo{db: db}
}

func (r *responseRepo) List(ctx context.Context, tenantID uuid.UUID, statusFilter *string) ([]*models.Response, error) {
	query := `
		SELECT id, tenant_id, question_id, answer, status, updated_by, updated_at
		FROM responses
		WHERE tenant_id = $1
	`
	args := []any{tenantID}
	if statusFilter != nil {
		query += ` AND status = $2`
		args = append(args, *statusFilter)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResponses(rows)
}

func (r *responseRepo) GetByQuestion(ctx context.Context, tenantID, questionID uuid.UUID) (*models.Response, error) {
	response := &models.Response{}
	query := `
		SELECT id, tenant_id, question_id, answer, status, updated_by, updated_at
		FROM responses
		WHERE tenant_id = $1 AND question_id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, questionID).Scan(&response.ID, &response.TenantID, &response.QuestionID, &response.Answer, &response.Status, &response.UpdatedBy, &response.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (r *responseRepo) Upsert(ctx context.Context, response *models.Response) error {
	query := `
		INSERT INTO responses (id, tenant_id, question_id, answer, status, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (tenant_id, question_id)
		DO UPDATE SET answer = EXCLUDED.answer, status = EXCLUDED.status, updated_by = EXCLUDED.updated_by, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, response.ID, response.TenantID, response.QuestionID, response.Answer, response.Status, response.UpdatedBy)
	return err
}

func (r *responseRepo) SearchAnswers(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]*models.Response, error) {
	sql := `
		SELECT id, tenant_id, question_id, answer, status, updated_by, updated_at
		FROM responses
		WHERE tenant_id = $1 AND answer IS NOT NULL AND answer ILIKE $2
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, sql, tenantID, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResponses(rows)
}

func scanResponses(rows pgx.Rows) ([]*models.Response, error) {
	var responses []*models.Response
	for rows.Next() {
		response := &models.Response{}
		if err := rows.Scan(&response.ID, &response.TenantID, &response.QuestionID, &response.Answer, &response.Status, &response.UpdatedBy, &response.UpdatedAt); err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, rows.Err()
}
