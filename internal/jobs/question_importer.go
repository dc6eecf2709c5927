package jobs

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ddqhub/internal/caching"
	"ddqhub/internal/models"
	"ddqhub/internal/repositories"

	"github.com/google/uuid"
)

// ImportRow is one normalized row of an uploaded questions file.
// IsRequired is tri-state: nil means the cell held no recognizable token.
type ImportRow struct {
	QuestionnaireID string
	Text            string
	Category        *string
	IsRequired      *bool
	DisplayOrder    *int
}

const (
	FormatCSV  = "csv"
	FormatJSON = "json"

	// importBatchSize bounds each insert batch; staged rows are flushed
	// every N rows and once more at the end.
	importBatchSize = 100

	// questionnaireCacheTTL bounds staleness of the ownership cache used
	// during an import run.
	questionnaireCacheTTL = 5 * time.Minute
)

// DetectFormat picks the payload format: extension first, then a substring
// match on the content type, defaulting to CSV.
func DetectFormat(filename, contentType string) string {
	name := strings.ToLower(filename)
	if strings.HasSuffix(name, ".csv") {
		return FormatCSV
	}
	if strings.HasSuffix(name, ".json") {
		return FormatJSON
	}
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "csv") {
		return FormatCSV
	}
	if strings.Contains(ct, "json") {
		return FormatJSON
	}
	return FormatCSV
}

// ParseRows parses the raw payload in the given format.
func ParseRows(payload []byte, format string) ([]ImportRow, error) {
	if format == FormatJSON {
		return parseJSONRows(payload)
	}
	return parseCSVRows(payload)
}

func parseCSVRows(content []byte) ([]ImportRow, error) {
	// Strip a UTF-8 BOM if the file came out of a spreadsheet export
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %v", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}

	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	var rows []ImportRow
	for _, record := range records[1:] {
		rows = append(rows, normalizeRow(
			field(record, "questionnaire_id"),
			field(record, "text"),
			field(record, "category"),
			field(record, "is_required"),
			field(record, "display_order"),
		))
	}
	return rows, nil
}

func parseJSONRows(content []byte) ([]ImportRow, error) {
	var raw []map[string]any
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("JSON must be a list of objects: %v", err)
	}

	str := func(row map[string]any, key string) string {
		v, ok := row[key]
		if !ok || v == nil {
			return ""
		}
		if s, ok := v.(string); ok {
			return s
		}
		if f, ok := v.(float64); ok && f == float64(int64(f)) {
			return fmt.Sprintf("%d", int64(f))
		}
		if b, ok := v.(bool); ok {
			if b {
				return "true"
			}
			return "false"
		}
		return fmt.Sprint(v)
	}

	var rows []ImportRow
	for _, row := range raw {
		rows = append(rows, normalizeRow(
			str(row, "questionnaire_id"),
			str(row, "text"),
			str(row, "category"),
			str(row, "is_required"),
			str(row, "display_order"),
		))
	}
	return rows, nil
}

func normalizeRow(questionnaireID, text, category, isRequired, displayOrder string) ImportRow {
	row := ImportRow{
		QuestionnaireID: strings.TrimSpace(questionnaireID),
		Text:            strings.TrimSpace(text),
		IsRequired:      parseBoolToken(isRequired),
	}
	if category != "" {
		row.Category = &category
	}
	if order, ok := parseDigits(displayOrder); ok {
		row.DisplayOrder = &order
	}
	return row
}

// parseBoolToken maps a fixed truthy/falsy token set; anything else is nil.
func parseBoolToken(val string) *bool {
	s := strings.ToLower(strings.TrimSpace(val))
	switch s {
	case "1", "true", "yes", "y":
		t := true
		return &t
	case "0", "false", "no", "n":
		f := false
		return &f
	}
	return nil
}

// parseDigits accepts only pure digit strings.
func parseDigits(val string) (int, bool) {
	s := strings.TrimSpace(val)
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// QuestionImporter validates normalized rows against the target tenant and
// inserts them in batches, collecting per-row diagnostics.
type QuestionImporter struct {
	questionnaireRepo repositories.QuestionnaireRepository
	questionRepo      repositories.QuestionRepository
	cacheSvc          caching.CacheService
}

func NewQuestionImporter(questionnaireRepo repositories.QuestionnaireRepository, questionRepo repositories.QuestionRepository, cacheSvc caching.CacheService) *QuestionImporter {
	return &QuestionImporter{
		questionnaireRepo: questionnaireRepo,
		questionRepo:      questionRepo,
		cacheSvc:          cacheSvc,
	}
}

type stagedQuestion struct {
	row      int
	question *models.Question
}

// Run imports rows for the tenant. Row failures never abort the run; a
// failed batch flush fails only that batch's rows. tenant_id on every
// inserted question comes from the caller, never from the file.
func (i *QuestionImporter) Run(ctx context.Context, tenantID uuid.UUID, rows []ImportRow) *models.ImportSummary {
	summary := &models.ImportSummary{
		RowsTotal: len(rows),
		Errors:    []models.ImportRowError{},
	}

	var staged []stagedQuestion
	flush := func() {
		if len(staged) == 0 {
			return
		}
		questions := make([]*models.Question, len(staged))
		for idx, s := range staged {
			questions[idx] = s.question
		}
		if err := i.questionRepo.CreateBatch(ctx, questions); err != nil {
			summary.RowsFailed += len(staged)
			addError(summary, staged[0].row, fmt.Sprintf("batch insert failed: %v", err))
		} else {
			summary.RowsOK += len(staged)
		}
		staged = staged[:0]
	}

	for idx, row := range rows {
		rowNum := idx + 1

		if row.QuestionnaireID == "" || row.Text == "" {
			summary.RowsFailed++
			addError(summary, rowNum, "Missing questionnaire_id or text")
			continue
		}

		questionnaireID, err := uuid.Parse(row.QuestionnaireID)
		if err != nil {
			summary.RowsFailed++
			addError(summary, rowNum, "Invalid questionnaire_id")
			continue
		}

		owned, err := i.questionnaireOwned(ctx, tenantID, questionnaireID)
		if err != nil {
			summary.RowsFailed++
			addError(summary, rowNum, fmt.Sprintf("questionnaire lookup failed: %v", err))
			continue
		}
		if !owned {
			summary.RowsFailed++
			addError(summary, rowNum, "Questionnaire not found for this tenant")
			continue
		}

		isRequired := false
		if row.IsRequired != nil {
			isRequired = *row.IsRequired
		}

		staged = append(staged, stagedQuestion{
			row: rowNum,
			question: &models.Question{
				ID:              uuid.New(),
				TenantID:        tenantID,
				QuestionnaireID: questionnaireID,
				Text:            row.Text,
				Category:        row.Category,
				DisplayOrder:    row.DisplayOrder,
				IsRequired:      isRequired,
			},
		})

		if len(staged) >= importBatchSize {
			flush()
		}
	}
	flush()

	return summary
}

// questionnaireOwned answers the tenant-ownership probe, through the cache
// when one is configured.
func (i *QuestionImporter) questionnaireOwned(ctx context.Context, tenantID, questionnaireID uuid.UUID) (bool, error) {
	if i.cacheSvc != nil {
		if owned, found, err := i.cacheSvc.GetQuestionnaireOwned(ctx, tenantID, questionnaireID); err == nil && found {
			return owned, nil
		}
	}

	owned, err := i.questionnaireRepo.ExistsInTenant(ctx, tenantID, questionnaireID)
	if err != nil {
		return false, err
	}

	if i.cacheSvc != nil {
		// Best effort; a cache write failure never fails the row
		_ = i.cacheSvc.SetQuestionnaireOwned(ctx, tenantID, questionnaireID, owned, questionnaireCacheTTL)
	}
	return owned, nil
}

func addError(summary *models.ImportSummary, row int, message string) {
	if len(summary.Errors) >= models.MaxImportErrors {
		summary.ErrorsTruncated = true
		return
	}
	summary.Errors = append(summary.Errors, models.ImportRowError{Row: row, Error: message})
}
