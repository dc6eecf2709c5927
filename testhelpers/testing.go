package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"ddqhub/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB creates a pooled connection for integration tests. Tests that
// call it should skip when TEST_DATABASE_URL is not set.
func SetupTestDB(t *testing.T, connString string) *TestDB {
	t.Helper()

	if connString == "" {
		connString = os.Getenv("TEST_DATABASE_URL")
		if connString == "" {
			connString = "host=localhost port=5432 user=postgres password=postgres dbname=ddqhub_test sslmode=disable"
		}
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	return &TestDB{
		Pool: pool,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}
}

// SetupTestTenant creates a tenant with an open-ended contract window
func SetupTestTenant(t *testing.T, db *TestDB) uuid.UUID {
	t.Helper()

	tenantID := uuid.New()
	contractStart := time.Now().Add(-24 * time.Hour)
	contractEnd := time.Now().Add(365 * 24 * time.Hour)
	query := `
		INSERT INTO tenants (id, org_name, contract_start, contract_end, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := db.Pool.Exec(context.Background(), query, tenantID, "Test Tenant", contractStart, contractEnd, "active")
	if err != nil {
		t.Fatalf("Failed to create test tenant: %v", err)
	}

	return tenantID
}

// SetupTestUser creates an active user in the tenant with the given role.
// The password hash corresponds to "test-password".
func SetupTestUser(t *testing.T, db *TestDB, tenantID uuid.UUID, role string) *models.User {
	t.Helper()

	// bcrypt of "test-password", precomputed so the helper stays cheap
	const passwordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

	user := &models.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        uuid.New().String() + "@test.local",
		PasswordHash: passwordHash,
		FirstName:    "Test",
		Role:         role,
		IsActive:     true,
	}

	query := `
		INSERT INTO users (id, tenant_id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := db.Pool.Exec(context.Background(), query,
		user.ID, user.TenantID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Role, user.IsActive)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// SetupTestQuestionnaire creates a draft questionnaire owned by the tenant
func SetupTestQuestionnaire(t *testing.T, db *TestDB, tenantID, createdBy uuid.UUID) uuid.UUID {
	t.Helper()

	questionnaireID := uuid.New()
	query := `
		INSERT INTO questionnaires (id, tenant_id, name, status, version, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := db.Pool.Exec(context.Background(), query, questionnaireID, tenantID, "Test Questionnaire", "draft", 1, createdBy)
	if err != nil {
		t.Fatalf("Failed to create test questionnaire: %v", err)
	}

	return questionnaireID
}

// SetupTestQuestion creates a question under the questionnaire
func SetupTestQuestion(t *testing.T, db *TestDB, tenantID, questionnaireID uuid.UUID, text string) *models.Question {
	t.Helper()

	order := 1
	question := &models.Question{
		ID:              uuid.New(),
		TenantID:        tenantID,
		QuestionnaireID: questionnaireID,
		Text:            text,
		DisplayOrder:    &order,
		IsRequired:      false,
	}

	query := `
		INSERT INTO questions (id, tenant_id, questionnaire_id, text, category, display_order, is_required, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := db.Pool.Exec(context.Background(), query,
		question.ID, question.TenantID, question.QuestionnaireID, question.Text, question.Category, question.DisplayOrder, question.IsRequired)
	if err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}

	return question
}
