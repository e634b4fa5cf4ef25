package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/cpassist-go/apperror"
)

// Service provides user profile operations.
type Service struct {
	db *pgxpool.Pool
}

// NewService creates a new users Service.
func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// GetUserProfile retrieves a user's profile by id.
func (s *Service) GetUserProfile(ctx context.Context, userID int) (*UserProfileResponse, error) {
	query := `
		SELECT id, username, email, display_name, profile_picture, created_at, last_login
		FROM users
		WHERE id = $1
	`
	var resp UserProfileResponse
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&resp.ID,
		&resp.Username,
		&resp.Email,
		&resp.DisplayName,
		&resp.ProfilePicture,
		&resp.CreatedAt,
		&resp.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user with ID %d not found", userID), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user profile", err)
	}
	return &resp, nil
}

// UpdateUserProfile applies a partial update. The SET clause is assembled
// from the fields actually present in the request; an empty request simply
// returns the current profile.
func (s *Service) UpdateUserProfile(ctx context.Context, userID int, req *UpdateUserProfileRequest) (*UserProfileResponse, error) {
	var setClauses []string
	var args []interface{}
	argID := 1

	if req.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argID))
		args = append(args, strings.ToLower(*req.Email))
		argID++
	}
	if req.DisplayName != nil {
		setClauses = append(setClauses, fmt.Sprintf("display_name = $%d", argID))
		args = append(args, *req.DisplayName)
		argID++
	}
	if req.ProfilePicture != nil {
		setClauses = append(setClauses, fmt.Sprintf("profile_picture = $%d", argID))
		args = append(args, *req.ProfilePicture)
		argID++
	}

	if len(setClauses) == 0 {
		return s.GetUserProfile(ctx, userID)
	}

	args = append(args, userID)
	query := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $%d
		RETURNING id, username, email, display_name, profile_picture, created_at, last_login
	`, strings.Join(setClauses, ", "), argID)

	var resp UserProfileResponse
	err := s.db.QueryRow(ctx, query, args...).Scan(
		&resp.ID,
		&resp.Username,
		&resp.Email,
		&resp.DisplayName,
		&resp.ProfilePicture,
		&resp.CreatedAt,
		&resp.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user with ID %d not found", userID), nil)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperror.NewConflictError("email already in use", nil)
		}
		return nil, apperror.NewDatabaseError("failed to update user profile", err)
	}
	return &resp, nil
}
