package models

import (
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	OrgName       string     `json:"org_name" db:"org_name"`
	ContractStart time.Time  `json:"contract_start" db:"contract_start"`
	ContractEnd   *time.Time `json:"contract_end,omitempty" db:"contract_end"`
	Status        string     `json:"status" db:"status"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
