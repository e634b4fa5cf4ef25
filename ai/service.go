// Package ai generates debugging feedback, solution explanations, and study
// plans through the Gemini API, and keeps a history of generated sessions.
package ai

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Service renders prompts, calls the generation client, and persists session
// history. History writes are best effort; a failed insert never loses the
// generated text.
type Service struct {
	db     *pgxpool.Pool
	client *Client
	log    *zap.SugaredLogger
}

// NewService creates a new ai Service.
func NewService(db *pgxpool.Pool, client *Client, log *zap.SugaredLogger) *Service {
	return &Service{db: db, client: client, log: log}
}

// DebugAnalysis generates debugging feedback for a piece of code. When
// userID is non-zero the session is stored for history.
func (s *Service) DebugAnalysis(ctx context.Context, userID int, problemStatement, code, language string) (string, error) {
	prompt := renderPrompt(debugPrompt, map[string]string{
		"problemStatement": problemStatement,
		"code":             code,
		"language":         language,
	})

	response, err := s.client.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	if userID != 0 {
		_, err := s.db.Exec(ctx, `
			INSERT INTO debug_sessions (user_id, problem_statement, code, language, ai_response)
			VALUES ($1, $2, $3, $4, $5)`,
			userID, problemStatement, code, language, response)
		if err != nil {
			s.log.Warnw("failed to store debug session", "userId", userID, "error", err)
		}
	}

	return response, nil
}

// ExplainSolution generates an explanation of a solution. When userID is
// non-zero the session is stored for history.
func (s *Service) ExplainSolution(ctx context.Context, userID int, problemStatement, solutionCode, language string) (string, error) {
	prompt := renderPrompt(explainPrompt, map[string]string{
		"problemStatement": problemStatement,
		"code":             solutionCode,
		"language":         language,
	})

	response, err := s.client.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	if userID != 0 {
		_, err := s.db.Exec(ctx, `
			INSERT INTO explain_sessions (user_id, problem_statement, solution_code, language, ai_response)
			VALUES ($1, $2, $3, $4, $5)`,
			userID, problemStatement, solutionCode, language, response)
		if err != nil {
			s.log.Warnw("failed to store explain session", "userId", userID, "error", err)
		}
	}

	return response, nil
}

// GenerateRoutinePlan generates a weekly study plan for the given rating,
// goal, and time budget.
func (s *Service) GenerateRoutinePlan(ctx context.Context, rating int, goal string, hoursPerWeek int) (string, error) {
	prompt := renderPrompt(routinePrompt, map[string]string{
		"rating":       fmt.Sprintf("%d", rating),
		"goal":         goal,
		"hoursPerWeek": fmt.Sprintf("%d", hoursPerWeek),
	})
	return s.client.Generate(ctx, prompt)
}
