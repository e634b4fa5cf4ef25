package codeforces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/cpassist-go/apperror"
)

// Service persists Codeforces profile rows. The update scheduler writes
// snapshots through UpsertSnapshot; REST handlers read through the getters.
type Service struct {
	db *pgxpool.Pool
}

// NewService creates a new codeforces Service.
func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

const profileColumns = `id, user_id, handle, rating, max_rating, rank, last_updated,
	problems_solved, contests_participated, profile_data`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	var profileData []byte
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Handle,
		&p.Rating,
		&p.MaxRating,
		&p.Rank,
		&p.LastUpdated,
		&p.ProblemsSolved,
		&p.ContestsParticipated,
		&profileData,
	)
	if err != nil {
		return nil, err
	}
	if len(profileData) > 0 {
		if err := json.Unmarshal(profileData, &p.ProfileData); err != nil {
			return nil, fmt.Errorf("failed to decode profile data: %w", err)
		}
	}
	return &p, nil
}

// GetProfileByUserID returns the linked profile for a user.
func (s *Service) GetProfileByUserID(ctx context.Context, userID int) (*Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM codeforces_profiles WHERE user_id = $1`, profileColumns)
	profile, err := scanProfile(s.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("no Codeforces profile linked to user %d", userID), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get Codeforces profile", err)
	}
	return profile, nil
}

// GetProfileByHandle returns the profile row for a handle.
func (s *Service) GetProfileByHandle(ctx context.Context, handle string) (*Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM codeforces_profiles WHERE handle = $1`, profileColumns)
	profile, err := scanProfile(s.db.QueryRow(ctx, query, handle))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("no profile for handle '%s'", handle), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get Codeforces profile", err)
	}
	return profile, nil
}

// CreateProfile links a handle to a user. The snapshot fields start empty
// and are filled by the first refresh.
func (s *Service) CreateProfile(ctx context.Context, userID int, handle string) (*Profile, error) {
	query := fmt.Sprintf(`
		INSERT INTO codeforces_profiles (user_id, handle, profile_data)
		VALUES ($1, $2, '{}'::jsonb)
		RETURNING %s`, profileColumns)
	profile, err := scanProfile(s.db.QueryRow(ctx, query, userID, handle))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperror.NewConflictError("user or handle already has a linked profile", nil)
		}
		return nil, apperror.NewDatabaseError("failed to create Codeforces profile", err)
	}
	return profile, nil
}

// UpsertSnapshot stores the latest fetched snapshot for a user. The write is
// unconditional last-write-wins: whatever was fetched most recently replaces
// the stored row, with no concurrency check against other writers.
func (s *Service) UpsertSnapshot(ctx context.Context, userID int, handle string, snap *Snapshot) (*Profile, error) {
	profileData, err := json.Marshal(snap.ProfileData)
	if err != nil {
		return nil, apperror.NewInternalError("failed to encode profile data", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO codeforces_profiles
			(user_id, handle, rating, max_rating, rank, problems_solved, contests_participated, profile_data, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (user_id) DO UPDATE SET
			handle = EXCLUDED.handle,
			rating = EXCLUDED.rating,
			max_rating = EXCLUDED.max_rating,
			rank = EXCLUDED.rank,
			problems_solved = EXCLUDED.problems_solved,
			contests_participated = EXCLUDED.contests_participated,
			profile_data = EXCLUDED.profile_data,
			last_updated = now()
		RETURNING %s`, profileColumns)

	profile, err := scanProfile(s.db.QueryRow(ctx, query,
		userID, handle, snap.Rating, snap.MaxRating, snap.Rank,
		snap.ProblemsSolved, snap.ContestsParticipated, profileData))
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to store profile snapshot", err)
	}
	return profile, nil
}
