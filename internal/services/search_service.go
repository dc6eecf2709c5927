package services

import (
	"context"
	"errors"
	"fmt"

	"ddqhub/internal/repositories"

	"github.com/google/uuid"
)

const (
	// MinSearchQueryLen rejects one-character scans up front.
	MinSearchQueryLen = 2
	// SearchLimit caps each source and the combined result.
	SearchLimit = 50
)

// ErrNoMatches is returned when a search finds nothing. Handlers map it to
// 404 rather than an empty list; that behavior is intentional.
var ErrNoMatches = errors.New("no matches found")

// SearchScope selects which sources a search covers.
const (
	ScopeAll       = "all"
	ScopeQuestions = "questions"
	ScopeResponses = "responses"
)

// SearchResult is one hit from either source.
type SearchResult struct {
	Type       string     `json:"type"` // "question" or "response"
	ID         uuid.UUID  `json:"id"`
	Text       string     `json:"text,omitempty"`
	Category   *string    `json:"category,omitempty"`
	QuestionID *uuid.UUID `json:"question_id,omitempty"`
	Answer     *string    `json:"answer,omitempty"`
	Status     string     `json:"status,omitempty"`
}

type SearchService interface {
	Search(ctx context.Context, tenantID uuid.UUID, query, scope string) ([]SearchResult, error)
}

type searchService struct {
	questionRepo repositories.QuestionRepository
	responseRepo repositories.ResponseRepository
}

func NewSearchService(questionRepo repositories.QuestionRepository, responseRepo repositories.ResponseRepository) SearchService {
	return &searchService{
		questionRepo: questionRepo,
		responseRepo: responseRepo,
	}
}

// Search runs a case-insensitive substring match over the caller tenant's
// question texts and/or non-null response answers.
func (s *searchService) Search(ctx context.Context, tenantID uuid.UUID, query, scope string) ([]SearchResult, error) {
	if len(query) < MinSearchQueryLen {
		return nil, fmt.Errorf("search query must be at least %d characters", MinSearchQueryLen)
	}

	switch scope {
	case ScopeAll, ScopeQuestions, ScopeResponses:
	default:
		return nil, fmt.Errorf("invalid scope %q: must be all, questions, or responses", scope)
	}

	var results []SearchResult

	if scope == ScopeAll || scope == ScopeQuestions {
		questions, err := s.questionRepo.SearchText(ctx, tenantID, query, SearchLimit)
		if err != nil {
			return nil, err
		}
		for _, q := range questions {
			results = append(results, SearchResult{
				Type:     "question",
				ID:       q.ID,
				Text:     q.Text,
				Category: q.Category,
			})
		}
	}

	if scope == ScopeAll || scope == ScopeResponses {
		responses, err := s.responseRepo.SearchAnswers(ctx, tenantID, query, SearchLimit)
		if err != nil {
			return nil, err
		}
		for _, r := range responses {
			questionID := r.QuestionID
			results = append(results, SearchResult{
				Type:       "response",
				ID:         r.ID,
				QuestionID: &questionID,
				Answer:     r.Answer,
				Status:     r.Status,
			})
		}
	}

	if len(results) == 0 {
		return nil, ErrNoMatches
	}

	if len(results) > SearchLimit {
		results = results[:SearchLimit]
	}
	return results, nil
}
