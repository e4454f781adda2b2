package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/bolt-api/internal/database"
	"github.com/dimitrije/bolt-api/internal/models"
	"github.com/jackc/pgx/v5"
)

var ErrTemplateNotFound = errors.New("template not found")

const templateColumns = `id, slug, name, description, category, icon, prompt, tags, difficulty, estimated_time, created_at, updated_at`

type TemplateService struct {
	db *database.DB
}

func NewTemplateService(db *database.DB) *TemplateService {
	return &TemplateService{db: db}
}

// Search matches query against name, description and tags. Empty query and
// category match everything.
func (s *TemplateService) Search(ctx context.Context, query, category string) ([]models.ProjectTemplate, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+templateColumns+`
		FROM project_templates
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%' OR $1 = ANY(tags))
		  AND ($2 = '' OR category = $2)
		ORDER BY name ASC
	`, query, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []models.ProjectTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (s *TemplateService) GetBySlug(ctx context.Context, slug string) (*models.ProjectTemplate, error) {
	t, err := scanTemplate(s.db.Pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM project_templates WHERE slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Seed upserts templates by slug in one transaction and returns how many were
// written.
func (s *TemplateService) Seed(ctx context.Context, templates []models.ProjectTemplate) (int, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, t := range templates {
		_, err := tx.Exec(ctx, `
			INSERT INTO project_templates (slug, name, description, category, icon, prompt, tags, difficulty, estimated_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (slug) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				category = EXCLUDED.category,
				icon = EXCLUDED.icon,
				prompt = EXCLUDED.prompt,
				tags = EXCLUDED.tags,
				difficulty = EXCLUDED.difficulty,
				estimated_time = EXCLUDED.estimated_time,
				updated_at = NOW()
		`, t.Slug, t.Name, t.Description, t.Category, t.Icon, t.Prompt, t.Tags, t.Difficulty, t.EstimatedTime)
		if err != nil {
			return 0, fmt.Errorf("failed to seed template %s: %w", t.Slug, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(templates), nil
}

func scanTemplate(row pgx.Row) (*models.ProjectTemplate, error) {
	var t models.ProjectTemplate
	err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Description, &t.Category, &t.Icon, &t.Prompt,
		&t.Tags, &t.Difficulty, &t.EstimatedTime, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
