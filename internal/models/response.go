package models

import (
	"time"

	"github.com/google/uuid"
)

// Response statuses. Exactly one response exists per (tenant, question).
const (
	ResponseDraft    = "draft"
	ResponseFinal    = "final"
	ResponseRejected = "rejected"
)

type Response struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	TenantID   uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	QuestionID uuid.UUID  `json:"question_id" db:"question_id"`
	Answer     *string    `json:"answer,omitempty" db:"answer"`
	Status     string     `json:"status" db:"status"`
	UpdatedBy  *uuid.UUID `json:"updated_by,omitempty" db:"updated_by"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// ValidResponseStatus reports whether status is a known response status.
func ValidResponseStatus(status string) bool {
	switch status {
	case ResponseDraft, ResponseFinal, ResponseRejected:
		return true
	}
	return false
}
