package recommendations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/user/cpassist-go/apperror"
	"github.com/user/cpassist-go/codeforces"
)

// defaultCount is how many problems one generation round produces.
const defaultCount = 5

// ratingWindow is the difficulty band around the user's rating that
// generated recommendations target. Slightly above center pushes practice
// upward.
const (
	ratingBelow = 200
	ratingAbove = 300
)

// unratedDefault stands in for users with no rating yet.
const unratedDefault = 800

// Service generates and persists problem recommendations.
type Service struct {
	db       *pgxpool.Pool
	profiles *codeforces.Service
	client   *codeforces.Client
	log      *zap.SugaredLogger
}

// NewService creates a new recommendations Service.
func NewService(db *pgxpool.Pool, profiles *codeforces.Service, client *codeforces.Client, log *zap.SugaredLogger) *Service {
	return &Service{db: db, profiles: profiles, client: client, log: log}
}

const recommendationColumns = `id, user_id, problem_id, problem_title, problem_url,
	created_at, difficulty, tags, source, status, solved_on`

func scanRecommendation(row pgx.Row) (*Recommendation, error) {
	var rec Recommendation
	var tags []byte
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.ProblemID,
		&rec.ProblemTitle,
		&rec.ProblemURL,
		&rec.CreatedAt,
		&rec.Difficulty,
		&tags,
		&rec.Source,
		&rec.Status,
		&rec.SolvedOn,
	)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &rec.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	return &rec, nil
}

// ListByUser returns a user's recommendations, newest first.
func (s *Service) ListByUser(ctx context.Context, userID int) ([]*Recommendation, error) {
	query := fmt.Sprintf(`SELECT %s FROM problem_recommendations WHERE user_id = $1 ORDER BY created_at DESC`, recommendationColumns)
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list recommendations", err)
	}
	defer rows.Close()

	recs := []*Recommendation{}
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to scan recommendation", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to list recommendations", err)
	}
	return recs, nil
}

// Generate picks problems near the user's rating and stores them as new
// recommendations. Problems already recommended to the user are skipped.
func (s *Service) Generate(ctx context.Context, userID, count int) ([]*Recommendation, error) {
	if count <= 0 {
		count = defaultCount
	}

	rating := unratedDefault
	profile, err := s.profiles.GetProfileByUserID(ctx, userID)
	if err == nil && profile.Rating != nil && *profile.Rating > 0 {
		rating = *profile.Rating
	} else if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}

	problems, err := s.client.FetchProblems(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.existingProblemIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates := make([]codeforces.Problem, 0, len(problems))
	for _, p := range problems {
		if p.Rating < rating-ratingBelow || p.Rating > rating+ratingAbove {
			continue
		}
		if _, seen := existing[p.ID()]; seen {
			continue
		}
		candidates = append(candidates, p)
	}

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > count {
		candidates = candidates[:count]
	}

	recs := make([]*Recommendation, 0, len(candidates))
	for _, p := range candidates {
		rec, err := s.insert(ctx, userID, p)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// UpdateStatus moves a recommendation through its lifecycle. Reaching
// "solved" stamps solved_on.
func (s *Service) UpdateStatus(ctx context.Context, id int, status string) (*Recommendation, error) {
	if !validStatus(status) {
		return nil, apperror.NewValidationError(fmt.Sprintf("invalid status '%s'", status), nil)
	}

	var solvedOn *time.Time
	if status == StatusSolved {
		now := time.Now().UTC()
		solvedOn = &now
	}

	query := fmt.Sprintf(`
		UPDATE problem_recommendations
		SET status = $2, solved_on = COALESCE($3, solved_on)
		WHERE id = $1
		RETURNING %s`, recommendationColumns)
	rec, err := scanRecommendation(s.db.QueryRow(ctx, query, id, status, solvedOn))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("recommendation %d not found", id), nil)
		}
		return nil, apperror.NewDatabaseError("failed to update recommendation", err)
	}
	return rec, nil
}

// Delete removes a recommendation.
func (s *Service) Delete(ctx context.Context, id int) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM problem_recommendations WHERE id = $1`, id)
	if err != nil {
		return apperror.NewDatabaseError("failed to delete recommendation", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("recommendation %d not found", id), nil)
	}
	return nil
}

func (s *Service) existingProblemIDs(ctx context.Context, userID int) (map[string]struct{}, error) {
	rows, err := s.db.Query(ctx, `SELECT problem_id FROM problem_recommendations WHERE user_id = $1`, userID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load existing recommendations", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan recommendation id", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func (s *Service) insert(ctx context.Context, userID int, p codeforces.Problem) (*Recommendation, error) {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return nil, apperror.NewInternalError("failed to encode tags", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO problem_recommendations
			(user_id, problem_id, problem_title, problem_url, difficulty, tags, source, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'codeforces', $7)
		RETURNING %s`, recommendationColumns)
	rec, err := scanRecommendation(s.db.QueryRow(ctx, query,
		userID, p.ID(), p.Name, p.URL(), p.Rating, tags, StatusRecommended))
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to store recommendation", err)
	}
	return rec, nil
}
