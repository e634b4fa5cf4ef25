package routines

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/user/cpassist-go/ai"
	"github.com/user/cpassist-go/apperror"
)

// Service creates and reads study routines. Plan generation goes through the
// ai Service; a generation failure fails the create rather than storing an
// empty routine.
type Service struct {
	db  *pgxpool.Pool
	ai  *ai.Service
	log *zap.SugaredLogger
}

// NewService creates a new routines Service.
func NewService(db *pgxpool.Pool, aiService *ai.Service, log *zap.SugaredLogger) *Service {
	return &Service{db: db, ai: aiService, log: log}
}

const routineColumns = `id, user_id, title, description, created_at, updated_at,
	current_rating, target_rating, study_hours_per_week, contest_participation, answers, routine`

func scanRoutine(row pgx.Row) (*Routine, error) {
	var rt Routine
	var answers, routine []byte
	err := row.Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Title,
		&rt.Description,
		&rt.CreatedAt,
		&rt.UpdatedAt,
		&rt.CurrentRating,
		&rt.TargetRating,
		&rt.StudyHoursPerWeek,
		&rt.ContestParticipation,
		&answers,
		&routine,
	)
	if err != nil {
		return nil, err
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &rt.Answers); err != nil {
			return nil, fmt.Errorf("failed to decode answers: %w", err)
		}
	}
	if len(routine) > 0 {
		if err := json.Unmarshal(routine, &rt.Routine); err != nil {
			return nil, fmt.Errorf("failed to decode routine: %w", err)
		}
	}
	return &rt, nil
}

// Create generates a weekly plan for the questionnaire answers and stores
// the routine.
func (s *Service) Create(ctx context.Context, req *CreateRoutineRequest) (*Routine, error) {
	goal := fmt.Sprintf("reach rating %d", req.TargetRating)
	plan, err := s.ai.GenerateRoutinePlan(ctx, req.CurrentRating, goal, req.StudyHoursPerWeek)
	if err != nil {
		return nil, err
	}

	answers := req.Answers
	if answers == nil {
		answers = map[string]interface{}{}
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, apperror.NewInternalError("failed to encode answers", err)
	}
	routineJSON, err := json.Marshal(map[string]interface{}{"plan": plan})
	if err != nil {
		return nil, apperror.NewInternalError("failed to encode routine", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO study_routines
			(user_id, title, description, current_rating, target_rating,
			 study_hours_per_week, contest_participation, answers, routine)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s`, routineColumns)
	routine, err := scanRoutine(s.db.QueryRow(ctx, query,
		req.UserID, req.Title, req.Description, req.CurrentRating, req.TargetRating,
		req.StudyHoursPerWeek, req.ContestParticipation, answersJSON, routineJSON))
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to store study routine", err)
	}
	return routine, nil
}

// ListByUser returns a user's routines, newest first.
func (s *Service) ListByUser(ctx context.Context, userID int) ([]*Routine, error) {
	query := fmt.Sprintf(`SELECT %s FROM study_routines WHERE user_id = $1 ORDER BY created_at DESC`, routineColumns)
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list study routines", err)
	}
	defer rows.Close()

	routines := []*Routine{}
	for rows.Next() {
		rt, err := scanRoutine(rows)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to scan study routine", err)
		}
		routines = append(routines, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to list study routines", err)
	}
	return routines, nil
}

// Get returns one routine by id.
func (s *Service) Get(ctx context.Context, id int) (*Routine, error) {
	query := fmt.Sprintf(`SELECT %s FROM study_routines WHERE id = $1`, routineColumns)
	routine, err := scanRoutine(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("study routine %d not found", id), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get study routine", err)
	}
	return routine, nil
}

// Delete removes a routine.
func (s *Service) Delete(ctx context.Context, id int) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM study_routines WHERE id = $1`, id)
	if err != nil {
		return apperror.NewDatabaseError("failed to delete study routine", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("study routine %d not found", id), nil)
	}
	return nil
}
