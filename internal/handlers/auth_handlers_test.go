package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"ddqhub/internal/models"
	"ddqhub/internal/services"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetActiveByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetQuestionnaireOwned(ctx context.Context, tenantID, questionnaireID uuid.UUID) (bool, bool, error) {
	args := m.Called(ctx, tenantID, questionnaireID)
	return args.Bool(0), args.Bool(1), args.Error(2)
}

func (m *MockCacheService) SetQuestionnaireOwned(ctx context.Context, tenantID, questionnaireID uuid.UUID, owned bool, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, questionnaireID, owned, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type AuthHandlersTestSuite struct {
	suite.Suite
	authSvc  services.AuthService
	userRepo *MockUserRepository
	cacheSvc *MockCacheService
	handlers *AuthHandlers
	echo     *echo.Echo
	userID   uuid.UUID
	tenantID uuid.UUID
	hash     string
}

func (suite *AuthHandlersTestSuite) SetupTest() {
	suite.authSvc = services.NewAuthService(services.TokenConfig{
		Secret:     []byte("handler-test-secret"),
		DefaultTTL: time.Hour,
	})
	suite.userRepo = &MockUserRepository{}
	suite.cacheSvc = &MockCacheService{}
	suite.handlers = NewAuthHandlers(suite.authSvc, suite.userRepo, suite.cacheSvc)
	suite.echo = echo.New()
	suite.userID = uuid.New()
	suite.tenantID = uuid.New()

	hash, err := suite.authSvc.HashPassword("correct-horse")
	assert.NoError(suite.T(), err)
	suite.hash = hash

	suite.userRepo.Test(suite.T())
	suite.cacheSvc.Test(suite.T())
}

func (suite *AuthHandlersTestSuite) TearDownTest() {
	suite.userRepo.AssertExpectations(suite.T())
	suite.cacheSvc.AssertExpectations(suite.T())
}

func TestAuthHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlersTestSuite))
}

func (suite *AuthHandlersTestSuite) activeUser() *models.User {
	return &models.User{
		ID:           suite.userID,
		TenantID:     suite.tenantID,
		Email:        "analyst@acme.test",
		PasswordHash: suite.hash,
		Role:         models.RoleAnalyst,
		IsActive:     true,
	}
}

func (suite *AuthHandlersTestSuite) postLogin(body string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := suite.echo.NewContext(req, rec)
	return rec, suite.handlers.Login(c)
}

func (suite *AuthHandlersTestSuite) TestLogin_Success() {
	suite.cacheSvc.On("IsRateLimited", mock.Anything, "login:analyst@acme.test", loginRateLimit, loginRateWindow).
		Return(false, nil)
	suite.userRepo.On("GetActiveByEmail", mock.Anything, "analyst@acme.test").
		Return(suite.activeUser(), nil)

	rec, err := suite.postLogin(`{"email":"analyst@acme.test","password":"correct-horse"}`)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	var resp TokenResponse
	assert.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(suite.T(), "bearer", resp.TokenType)

	// The issued token must carry the user's tenant and role
	claims, err := suite.authSvc.ValidateToken(context.Background(), resp.AccessToken)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.userID.String(), claims.Subject)
	assert.Equal(suite.T(), suite.tenantID.String(), claims.TenantID)
	assert.Equal(suite.T(), models.RoleAnalyst, claims.Role)
}

func (suite *AuthHandlersTestSuite) TestLogin_WrongPassword() {
	suite.cacheSvc.On("IsRateLimited", mock.Anything, "login:analyst@acme.test", loginRateLimit, loginRateWindow).
		Return(false, nil)
	suite.userRepo.On("GetActiveByEmail", mock.Anything, "analyst@acme.test").
		Return(suite.activeUser(), nil)

	_, err := suite.postLogin(`{"email":"analyst@acme.test","password":"wrong"}`)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), http.StatusUnauthorized, httpErr.Code)
}

func (suite *AuthHandlersTestSuite) TestLogin_UnknownOrInactiveUser() {
	suite.cacheSvc.On("IsRateLimited", mock.Anything, "login:ghost@acme.test", loginRateLimit, loginRateWindow).
		Return(false, nil)
	suite.userRepo.On("GetActiveByEmail", mock.Anything, "ghost@acme.test").
		Return(nil, pgx.ErrNoRows)

	_, err := suite.postLogin(`{"email":"ghost@acme.test","password":"whatever"}`)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), http.StatusUnauthorized, httpErr.Code)
}

func (suite *AuthHandlersTestSuite) TestLogin_MissingFields() {
	_, err := suite.postLogin(`{"email":"","password":""}`)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), http.StatusBadRequest, httpErr.Code)
}

func (suite *AuthHandlersTestSuite) TestLogin_RateLimited() {
	suite.cacheSvc.On("IsRateLimited", mock.Anything, "login:analyst@acme.test", loginRateLimit, loginRateWindow).
		Return(true, nil)

	_, err := suite.postLogin(`{"email":"analyst@acme.test","password":"correct-horse"}`)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), http.StatusTooManyRequests, httpErr.Code)
	suite.userRepo.AssertNotCalled(suite.T(), "GetActiveByEmail", mock.Anything, mock.Anything)
}

func (suite *AuthHandlersTestSuite) TestToken_FormGrant() {
	suite.cacheSvc.On("IsRateLimited", mock.Anything, "login:analyst@acme.test", loginRateLimit, loginRateWindow).
		Return(false, nil)
	suite.userRepo.On("GetActiveByEmail", mock.Anything, "analyst@acme.test").
		Return(suite.activeUser(), nil)

	form := url.Values{}
	form.Set("username", "analyst@acme.test")
	form.Set("password", "correct-horse")

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := suite.echo.NewContext(req, rec)

	err := suite.handlers.Token(c)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	var resp TokenResponse
	assert.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(suite.T(), resp.AccessToken)
	assert.Equal(suite.T(), "bearer", resp.TokenType)
}
