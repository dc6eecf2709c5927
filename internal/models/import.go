package models

// ImportRowError reports a failure for a single row of a bulk import.
type ImportRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportSummary is the result of a bulk question import. Errors are capped
// at MaxImportErrors entries; ErrorsTruncated marks that more were dropped.
type ImportSummary struct {
	RowsTotal       int              `json:"rows_total"`
	RowsOK          int              `json:"rows_ok"`
	RowsFailed      int              `json:"rows_failed"`
	Errors          []ImportRowError `json:"errors"`
	ErrorsTruncated bool             `json:"errors_truncated,omitempty"`
}

// MaxImportErrors bounds the error sample returned to callers.
const MaxImportErrors = 10
