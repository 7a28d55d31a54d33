package template

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Repository backed by the given connection pool.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

const allColumns = `id, name, description, category, platform, tags, popularity,
	n8n_template, make_template, required_apis, setup_guide, created_at, updated_at`

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.Category, &t.Platform, &t.Tags, &t.Popularity,
		&t.N8nTemplate, &t.MakeTemplate, &t.RequiredAPIs, &t.SetupGuide, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("scanning template row: %w", err)
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.RequiredAPIs == nil {
		t.RequiredAPIs = []string{}
	}
	return &t, nil
}

// List retrieves catalog entries matching the filter, most popular first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]Template, error) {
	query := fmt.Sprintf(`SELECT %s FROM templates WHERE 1=1`, allColumns)
	var args []any
	argIdx := 1

	if filter.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, filter.Category)
		argIdx++
	}
	if filter.Platform != "" {
		query += fmt.Sprintf(" AND platform = $%d", argIdx)
		args = append(args, filter.Platform)
		argIdx++
	}

	query += " ORDER BY popularity DESC, name ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		var t Template
		err := rows.Scan(
			&t.ID, &t.Name, &t.Description, &t.Category, &t.Platform, &t.Tags, &t.Popularity,
			&t.N8nTemplate, &t.MakeTemplate, &t.RequiredAPIs, &t.SetupGuide, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning template row: %w", err)
		}
		if t.Tags == nil {
			t.Tags = []string{}
		}
		if t.RequiredAPIs == nil {
			t.RequiredAPIs = []string{}
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating template rows: %w", err)
	}

	if templates == nil {
		templates = []Template{}
	}

	return templates, nil
}

// GetByID retrieves a single template by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Template, error) {
	query := fmt.Sprintf(`SELECT %s FROM templates WHERE id = $1`, allColumns)
	return scanTemplate(r.pool.QueryRow(ctx, query, id))
}

// Upsert inserts a seed entry or refreshes an existing one keyed by name.
func (r *PostgresRepository) Upsert(ctx context.Context, t *Template) error {
	query := `
		INSERT INTO templates (name, description, category, platform, tags, popularity,
			n8n_template, make_template, required_apis, setup_guide)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			platform = EXCLUDED.platform,
			tags = EXCLUDED.tags,
			popularity = EXCLUDED.popularity,
			n8n_template = EXCLUDED.n8n_template,
			make_template = EXCLUDED.make_template,
			required_apis = EXCLUDED.required_apis,
			setup_guide = EXCLUDED.setup_guide,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		t.Name, t.Description, t.Category, t.Platform, t.Tags, t.Popularity,
		t.N8nTemplate, t.MakeTemplate, t.RequiredAPIs, t.SetupGuide,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting template: %w", err)
	}

	return nil
}
