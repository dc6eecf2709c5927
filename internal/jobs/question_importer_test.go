package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"ddqhub/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockQuestionnaireRepository struct {
	mock.Mock
}

func (m *MockQuestionnaireRepository) Create(ctx context.Context, questionnaire *models.Questionnaire) error {
	args := m.Called(ctx, questionnaire)
	return args.Error(0)
}

func (m *MockQuestionnaireRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Questionnaire, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Questionnaire), args.Error(1)
}

func (m *MockQuestionnaireRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Questionnaire, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Questionnaire), args.Error(1)
}

func (m *MockQuestionnaireRepository) ExistsInTenant(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) CreateBatch(ctx context.Context, questions []*models.Question) error {
	args := m.Called(ctx, questions)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Question, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) List(ctx context.Context, tenantID uuid.UUID, questionnaireID *uuid.UUID) ([]*models.Question, error) {
	args := m.Called(ctx, tenantID, questionnaireID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) SearchText(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]*models.Question, error) {
	args := m.Called(ctx, tenantID, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatCSV, DetectFormat("questions.csv", ""))
	assert.Equal(t, FormatJSON, DetectFormat("questions.json", ""))
	assert.Equal(t, FormatJSON, DetectFormat("Questions.JSON", ""))
	assert.Equal(t, FormatJSON, DetectFormat("upload.bin", "application/json; charset=utf-8"))
	assert.Equal(t, FormatCSV, DetectFormat("upload.bin", "text/csv"))
	assert.Equal(t, FormatCSV, DetectFormat("upload.bin", "application/octet-stream"))
}

func TestParseRows_CSV(t *testing.T) {
	qid := uuid.New().String()
	csvData := "questionnaire_id,text,category,is_required,display_order\n" +
		qid + ",Do you encrypt data?,Security,yes,3\n" +
		qid + ",Describe your DR plan,,maybe,abc\n"

	rows, err := ParseRows([]byte(csvData), FormatCSV)
	assert.NoError(t, err)
	assert.Len(t, rows, 2)

	assert.Equal(t, qid, rows[0].QuestionnaireID)
	assert.Equal(t, "Do you encrypt data?", rows[0].Text)
	assert.Equal(t, "Security", *rows[0].Category)
	assert.True(t, *rows[0].IsRequired)
	assert.Equal(t, 3, *rows[0].DisplayOrder)

	// Unrecognized bool token and non-digit order fall back to nil
	assert.Nil(t, rows[1].Category)
	assert.Nil(t, rows[1].IsRequired)
	assert.Nil(t, rows[1].DisplayOrder)
}

func TestParseRows_CSVWithBOM(t *testing.T) {
	qid := uuid.New().String()
	csvData := "\xef\xbb\xbfquestionnaire_id,text\n" + qid + ",Question one\n"

	rows, err := ParseRows([]byte(csvData), FormatCSV)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, qid, rows[0].QuestionnaireID)
	assert.Equal(t, "Question one", rows[0].Text)
}

func TestParseRows_CSVHeaderOnly(t *testing.T) {
	rows, err := ParseRows([]byte("questionnaire_id,text\n"), FormatCSV)
	assert.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseRows_JSON(t *testing.T) {
	qid := uuid.New().String()
	jsonData := `[
		{"questionnaire_id": "` + qid + `", "text": "Question A", "is_required": true, "display_order": 1},
		{"questionnaire_id": "` + qid + `", "text": "Question B", "is_required": "0"}
	]`

	rows, err := ParseRows([]byte(jsonData), FormatJSON)
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.True(t, *rows[0].IsRequired)
	assert.Equal(t, 1, *rows[0].DisplayOrder)
	assert.False(t, *rows[1].IsRequired)
	assert.Nil(t, rows[1].DisplayOrder)
}

func TestParseRows_JSONNotAList(t *testing.T) {
	rows, err := ParseRows([]byte(`{"questionnaire_id": "x"}`), FormatJSON)
	assert.Error(t, err)
	assert.Nil(t, rows)
	assert.Contains(t, err.Error(), "list of objects")
}

func TestParseBoolToken(t *testing.T) {
	truthy := []string{"1", "true", "TRUE", "yes", "Y", " y "}
	for _, tok := range truthy {
		val := parseBoolToken(tok)
		assert.NotNil(t, val, tok)
		assert.True(t, *val, tok)
	}

	falsy := []string{"0", "false", "No", "n"}
	for _, tok := range falsy {
		val := parseBoolToken(tok)
		assert.NotNil(t, val, tok)
		assert.False(t, *val, tok)
	}

	for _, tok := range []string{"", "maybe", "2", "on"} {
		assert.Nil(t, parseBoolToken(tok), tok)
	}
}

func TestParseDigits(t *testing.T) {
	n, ok := parseDigits("42")
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = parseDigits("-1")
	assert.False(t, ok)
	_, ok = parseDigits("3.5")
	assert.False(t, ok)
	_, ok = parseDigits("")
	assert.False(t, ok)
}

type QuestionImporterTestSuite struct {
	suite.Suite
	questionnaireRepo *MockQuestionnaireRepository
	questionRepo      *MockQuestionRepository
	importer          *QuestionImporter
	tenantID          uuid.UUID
	questionnaireID   uuid.UUID
	ctx               context.Context
}

func (suite *QuestionImporterTestSuite) SetupTest() {
	suite.questionnaireRepo = &MockQuestionnaireRepository{}
	suite.questionRepo = &MockQuestionRepository{}
	// No cache wired; the importer must work without one
	suite.importer = NewQuestionImporter(suite.questionnaireRepo, suite.questionRepo, nil)
	suite.tenantID = uuid.New()
	suite.questionnaireID = uuid.New()
	suite.ctx = context.Background()

	suite.questionnaireRepo.Test(suite.T())
	suite.questionRepo.Test(suite.T())
}

func (suite *QuestionImporterTestSuite) TearDownTest() {
	suite.questionnaireRepo.AssertExpectations(suite.T())
	suite.questionRepo.AssertExpectations(suite.T())
}

func TestQuestionImporterTestSuite(t *testing.T) {
	suite.Run(t, new(QuestionImporterTestSuite))
}

func (suite *QuestionImporterTestSuite) TestRun_AllValid() {
	suite.questionnaireRepo.On("ExistsInTenant", suite.ctx, suite.tenantID, suite.questionnaireID).
		Return(true, nil)
	suite.questionRepo.On("CreateBatch", suite.ctx, mock.AnythingOfType("[]*models.Question")).
		Return(nil).Run(func(args mock.Arguments) {
		questions := args.Get(1).([]*models.Question)
		for _, q := range questions {
			assert.Equal(suite.T(), suite.tenantID, q.TenantID)
			assert.Equal(suite.T(), suite.questionnaireID, q.QuestionnaireID)
		}
	})

	rows := []ImportRow{
		{QuestionnaireID: suite.questionnaireID.String(), Text: "Question one"},
		{QuestionnaireID: suite.questionnaireID.String(), Text: "Question two"},
	}

	summary := suite.importer.Run(suite.ctx, suite.tenantID, rows)
	assert.Equal(suite.T(), 2, summary.RowsTotal)
	assert.Equal(suite.T(), 2, summary.RowsOK)
	assert.Equal(suite.T(), 0, summary.RowsFailed)
	assert.Empty(suite.T(), summary.Errors)
}

func (suite *QuestionImporterTestSuite) TestRun_MissingFields() {
	rows := []ImportRow{
		{QuestionnaireID: "", Text: "No questionnaire"},
		{QuestionnaireID: suite.questionnaireID.String(), Text: ""},
	}

	summary := suite.importer.Run(suite.ctx, suite.tenantID, rows)
	assert.Equal(suite.T(), 2, summary.RowsFailed)
	assert.Len(suite.T(), summary.Errors, 2)
	assert.Equal(suite.T(), 1, summary.Errors[0].Row)
	assert.Equal(suite.T(), "Missing questionnaire_id or text", summary.Errors[0].Error)
	assert.Equal(suite.T(), 2, summary.Errors[1].Row)
}

func (suite *QuestionImporterTestSuite) TestRun_InvalidQuestionnaireID() {
	rows := []ImportRow{
		{QuestionnaireID: "not-a-uuid", Text: "Some question"},
	}

	summary := suite.importer.Run(suite.ctx, suite.tenantID, rows)
	assert.Equal(suite.T(), 1, summary.RowsFailed)
	assert.Equal(suite.T(), "Invalid questionnaire_id", summary.Errors[0].Error)
}

func (suite *QuestionImporterTestSuite) TestRun_ForeignQuestionnaire() {
	foreign := uuid.New()
	suite.questionnaireRepo.On("ExistsInTenant", suite.ctx, suite.tenantID, foreign).
		Return(false, nil)

	rows := []ImportRow{
		{QuestionnaireID: foreign.String(), Text: "Sneaky cross-tenant row"},
	}

	summary := suite.importer.Run(suite.ctx, suite.tenantID, rows)
	assert.Equal(suite.T(), 1, summary.RowsFailed)
	assert.Equal(suite.T(), 0, summary.RowsOK)
	assert.Equal(suite.T(), "Questionnaire not found for this tenant", summary.Errors[0].Error)
}

func (suite *QuestionImporterTestSuite) TestRun_MixedValidAndInvalid() {
	suite.questionnaireRepo.On("ExistsInTenant", suite.ctx, suite.tenantID, suite.questionnaireID).
		Return(true, nil)
	suite.questionRepo.On("CreateBatch", suite.ctx, mock.AnythingOfType("[]*models.Question")).
		Return(nil)

	rows := []ImportRow{
		{QuestionnaireID: suite.questionnaireID.String(), Text: "Valid question"},
		{QuestionnaireID: "", Text: "Missing id"},
		{QuestionnaireID: suite.questionnaireID.String(), Text: "Another valid one"},
	}

	summary := suite.importer.Run(suite.ctx, suite.tenantID, rows)
	assert.Equal(suite.T(), 3, summary.RowsTotal)
	assert.Equal(suite.T(), 2, summary.RowsOK)
	assert.Equal(suite.T(), 1, summary.RowsFailed)
	assert.Len(suite.T(), summary.Errors, 1)
	assert.Equal(suite.T(), 2, summary.Errors[0].Row)
}

func (suite *QuestionImporterTestSuite) TestRun_ErrorListTruncated() {
	var rows []ImportRow
	for i := 0; i < models.MaxImportErrors+5; i++ {
		rows = append(rows, ImportRow{QuestionnaireID: "", Text: fmt.Sprintf("Row %d", i)})
	}

	summary := suite.importer.Run(suite.ctx, suite.tenantID, rows)
	assert.Equal(suite.T(), models.MaxImportErrors+5, summary.RowsFailed)
	assert.Len(suite.T(), summary.Errors, models.MaxImportErrors)
	assert.True(suite.T(), summary.ErrorsTruncated)
}

func (suite *QuestionImporterTestSuite) TestRun_BatchFlushEveryHundredRows() {
	suite.questionnaireRepo.On("ExistsInTenant", suite.ctx, suite.tenantID, suite.questionnaireID).
		Return(true, nil)

	var batchSizes []int
	suite.questionRepo.On("CreateBatch", suite.ctx, mock.AnythingOfType("[]*models.Question")).
		Return(nil).Run(func(args mock.Arguments) {
		batchSizes = append(batchSizes, len(args.Get(1).([]*models.Question)))
	})

	var rows []ImportRow
	for i := 0; i < 250; i++ {
		rows = append(rows, ImportRow{
			QuestionnaireID: suite.questionnaireID.String(),
			Text:            fmt.Sprintf("Question %d", i),
		})
	}

	summary := suite.importer.Run(suite.ctx, suite.tenantID, rows)
	assert.Equal(suite.T(), 250, summary.RowsOK)
	assert.Equal(suite.T(), []int{100, 100, 50}, batchSizes)
}

func (suite *QuestionImporterTestSuite) TestRun_BatchFailureMarksBatchRows() {
	suite.questionnaireRepo.On("ExistsInTenant", suite.ctx, suite.tenantID, suite.questionnaireID).
		Return(true, nil)
	suite.questionRepo.On("CreateBatch", suite.ctx, mock.AnythingOfType("[]*models.Question")).
		Return(errors.New("deadlock detected"))

	rows := []ImportRow{
		{QuestionnaireID: suite.questionnaireID.String(), Text: "Question one"},
		{QuestionnaireID: suite.questionnaireID.String(), Text: "Question two"},
	}

	summary := suite.importer.Run(suite.ctx, suite.tenantID, rows)
	assert.Equal(suite.T(), 0, summary.RowsOK)
	assert.Equal(suite.T(), 2, summary.RowsFailed)
	assert.Len(suite.T(), summary.Errors, 1)
	assert.True(suite.T(), strings.Contains(summary.Errors[0].Error, "deadlock detected"))
}
