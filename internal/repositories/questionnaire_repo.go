package repositories

import (
	"context"

	"ddqhub/internal/models"

	"github.com/google/uuid"
)

type QuestionnaireRepository interface {
	Create(ctx context.Context, questionnaire *models.Questionnaire) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Questionnaire, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Questionnaire, error)
	// ExistsInTenant is the cheap ownership probe the import pipeline and
	// question creation use before inserting anything under a questionnaire.
	ExistsInTenant(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
}

type questionnaireRepo struct {
	db Database
}

func NewQuestionnaireRepo(db Database) QuestionnaireRepository {
	return &questionnaireRepo{db: db}
}

func (r *questionnaireRepo) Create(ctx context.Context, questionnaire *models.Questionnaire) error {
	query := `
		INSERT INTO questionnaires (id, tenant_id, name, status, version, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, questionnaire.ID, questionnaire.TenantID, questionnaire.Name, questionnaire.Status, questionnaire.Version, questionnaire.CreatedBy)
	return err
}

func (r *questionnaireRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Questionnaire, error) {
	questionnaire := &models.Questionnaire{}
	query := `
		SELECT id, tenant_id, name, status, version, created_by, created_at, updated_at
		FROM questionnaires
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&questionnaire.ID, &questionnaire.TenantID, &questionnaire.Name, &questionnaire.Status, &questionnaire.Version, &questionnaire.CreatedBy, &questionnaire.CreatedAt, &questionnaire.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return questionnaire, nil
}

func (r *questionnaireRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Questionnaire, error) {
	query := `
		SELECT id, tenant_id, name, status, version, created_by, created_at, updated_at
		FROM questionnaires
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questionnaires []*models.Questionnaire
	for rows.Next() {
		questionnaire := &models.Questionnaire{}
		if err := rows.Scan(&questionnaire.ID, &questionnaire.TenantID, &questionnaire.Name, &questionnaire.Status, &questionnaire.Version, &questionnaire.CreatedBy, &questionnaire.CreatedAt, &questionnaire.UpdatedAt); err != nil {
			return nil, err
		}
		questionnaires = append(questionnaires, questionnaire)
	}
	return questionnaires, rows.Err()
}

func (r *questionnaireRepo) ExistsInTenant(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM questionnaires WHERE tenant_id = $1 AND id = $2)`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
