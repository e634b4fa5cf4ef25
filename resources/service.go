package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/user/cpassist-go/apperror"
)

// Service reads and writes the learning resource catalog.
type Service struct {
	db  *pgxpool.Pool
	log *zap.SugaredLogger
}

// NewService creates a new resources Service.
func NewService(db *pgxpool.Pool, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

const resourceColumns = `id, title, description, url, created_at, resource_type, tags, difficulty, source`

func scanResource(row pgx.Row) (*Resource, error) {
	var res Resource
	var tags []byte
	err := row.Scan(
		&res.ID,
		&res.Title,
		&res.Description,
		&res.URL,
		&res.CreatedAt,
		&res.ResourceType,
		&tags,
		&res.Difficulty,
		&res.Source,
	)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &res.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}
	if res.Tags == nil {
		res.Tags = []string{}
	}
	return &res, nil
}

// List returns catalog entries matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Resource, error) {
	query := fmt.Sprintf(`SELECT %s FROM learning_resources WHERE 1=1`, resourceColumns)
	args := []interface{}{}
	argPos := 1

	if filter.ResourceType != "" {
		query += fmt.Sprintf(" AND resource_type = $%d", argPos)
		args = append(args, filter.ResourceType)
		argPos++
	}
	if filter.Difficulty != "" {
		query += fmt.Sprintf(" AND difficulty = $%d", argPos)
		args = append(args, filter.Difficulty)
		argPos++
	}
	if filter.Tag != "" {
		query += fmt.Sprintf(" AND tags ? $%d", argPos)
		args = append(args, filter.Tag)
		argPos++
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list learning resources", err)
	}
	defer rows.Close()

	resources := []*Resource{}
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to scan learning resource", err)
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to list learning resources", err)
	}
	return resources, nil
}

// Get returns one catalog entry by id.
func (s *Service) Get(ctx context.Context, id int) (*Resource, error) {
	query := fmt.Sprintf(`SELECT %s FROM learning_resources WHERE id = $1`, resourceColumns)
	res, err := scanResource(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("learning resource %d not found", id), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get learning resource", err)
	}
	return res, nil
}

// Create adds a catalog entry.
func (s *Service) Create(ctx context.Context, req *CreateResourceRequest) (*Resource, error) {
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, apperror.NewInternalError("failed to encode tags", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO learning_resources (title, description, url, resource_type, tags, difficulty, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, resourceColumns)
	res, err := scanResource(s.db.QueryRow(ctx, query,
		req.Title, req.Description, req.URL, req.ResourceType, tagsJSON, req.Difficulty, req.Source))
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to store learning resource", err)
	}
	return res, nil
}

// SeedDefaults inserts the starter catalog when the table is empty, so a
// fresh install has something to show.
func (s *Service) SeedDefaults(ctx context.Context) error {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM learning_resources`).Scan(&count); err != nil {
		return apperror.NewDatabaseError("failed to count learning resources", err)
	}
	if count > 0 {
		return nil
	}

	difficulty := func(d string) *string { return &d }
	source := func(s string) *string { return &s }

	defaults := []*CreateResourceRequest{
		{
			Title:        "Competitive Programming Algorithms",
			Description:  "A comprehensive course covering advanced algorithms for competitive programming",
			URL:          "https://example.com/cp-algorithms",
			ResourceType: "course",
			Tags:         []string{"algorithms", "data structures", "competitive programming"},
			Difficulty:   difficulty("intermediate"),
			Source:       source("CP Academy"),
		},
		{
			Title:        "Competitive Programmer's Handbook",
			Description:  "A free book on competitive programming covering the full contest toolkit",
			URL:          "https://cses.fi/book/book.pdf",
			ResourceType: "book",
			Tags:         []string{"algorithms", "reference"},
			Difficulty:   difficulty("beginner"),
			Source:       source("CSES"),
		},
		{
			Title:        "CSES Problem Set",
			Description:  "A curated set of classic problems grouped by technique",
			URL:          "https://cses.fi/problemset/",
			ResourceType: "problemset",
			Tags:         []string{"practice", "classic problems"},
			Difficulty:   difficulty("intermediate"),
			Source:       source("CSES"),
		},
	}

	for _, res := range defaults {
		if _, err := s.Create(ctx, res); err != nil {
			return err
		}
	}
	s.log.Infow("seeded default learning resources", "count", len(defaults))
	return nil
}
