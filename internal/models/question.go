package models

import (
	"time"

	"github.com/google/uuid"
)

type Question struct {
	ID              uuid.UUID `json:"id" db:"id"`
	TenantID        uuid.UUID `json:"tenant_id" db:"tenant_id"`
	QuestionnaireID uuid.UUID `json:"questionnaire_id" db:"questionnaire_id"`
	Text            string    `json:"text" db:"text"`
	Category        *string   `json:"category,omitempty" db:"category"`
	DisplayOrder    *int      `json:"display_order,omitempty" db:"display_order"`
	IsRequired      bool      `json:"is_required" db:"is_required"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
