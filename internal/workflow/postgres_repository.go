package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

// allColumns is the ordered list of columns scanned from the workflows table.
const allColumns = `w.id, w.created_by, w.name, w.description, w.platform,
	w.n8n_json, w.make_json, w.setup_guide, w.required_apis,
	w.source_type, w.template_id, w.notes, w.is_shared, w.shared_count,
	w.created_at, w.updated_at`

func scanWorkflow(row pgx.Row) (*Workflow, error) {
	var w Workflow
	err := row.Scan(
		&w.ID, &w.CreatedBy, &w.Name, &w.Description, &w.Platform,
		&w.N8nJSON, &w.MakeJSON, &w.SetupGuide, &w.RequiredAPIs,
		&w.SourceType, &w.TemplateID, &w.Notes, &w.IsShared, &w.SharedCount,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("scanning workflow row: %w", err)
	}
	if w.RequiredAPIs == nil {
		w.RequiredAPIs = []string{}
	}
	return &w, nil
}

func scanWorkflows(rows pgx.Rows) ([]Workflow, error) {
	defer rows.Close()

	var workflows []Workflow
	for rows.Next() {
		var w Workflow
		err := rows.Scan(
			&w.ID, &w.CreatedBy, &w.Name, &w.Description, &w.Platform,
			&w.N8nJSON, &w.MakeJSON, &w.SetupGuide, &w.RequiredAPIs,
			&w.SourceType, &w.TemplateID, &w.Notes, &w.IsShared, &w.SharedCount,
			&w.CreatedAt, &w.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning workflow row: %w", err)
		}
		if w.RequiredAPIs == nil {
			w.RequiredAPIs = []string{}
		}
		workflows = append(workflows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating workflow rows: %w", err)
	}

	if workflows == nil {
		workflows = []Workflow{}
	}

	return workflows, nil
}

// Create inserts a new workflow record.
func (r *PostgresRepository) Create(ctx context.Context, w *Workflow) error {
	query := `
		INSERT INTO workflows (created_by, name, description, platform,
			n8n_json, make_json, setup_guide, required_apis,
			source_type, template_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, is_shared, shared_count, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		w.CreatedBy, w.Name, w.Description, w.Platform,
		w.N8nJSON, w.MakeJSON, w.SetupGuide, w.RequiredAPIs,
		w.SourceType, w.TemplateID, w.Notes,
	).Scan(&w.ID, &w.IsShared, &w.SharedCount, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting workflow: %w", err)
	}

	return nil
}

// GetByID retrieves a single workflow by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Workflow, error) {
	query := fmt.Sprintf(`SELECT %s FROM workflows w WHERE w.id = $1`, allColumns)
	return scanWorkflow(r.pool.QueryRow(ctx, query, id))
}

// ListByOwner retrieves the owner's workflows, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerEmail string) ([]Workflow, error) {
	query := fmt.Sprintf(`SELECT %s FROM workflows w WHERE w.created_by = $1 ORDER BY w.created_at DESC`, allColumns)

	rows, err := r.pool.Query(ctx, query, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("listing workflows: %w", err)
	}
	return scanWorkflows(rows)
}

// ListSharedWith retrieves workflows shared with the given email, newest share first.
func (r *PostgresRepository) ListSharedWith(ctx context.Context, email string) ([]Workflow, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM workflows w
		JOIN workflow_shares s ON s.workflow_id = w.id
		WHERE s.shared_with_email = $1
		ORDER BY s.created_at DESC`, allColumns)

	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("listing shared workflows: %w", err)
	}
	return scanWorkflows(rows)
}

// CountByOwner returns the number of workflows owned by the given email.
func (r *PostgresRepository) CountByOwner(ctx context.Context, ownerEmail string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM workflows WHERE created_by = $1`, ownerEmail,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting workflows: %w", err)
	}
	return count, nil
}

// Update modifies non-nil fields on a workflow. Returns the updated workflow.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Workflow, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if fields.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *fields.Name)
		argIdx++
	}
	if fields.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *fields.Description)
		argIdx++
	}
	if fields.Notes != nil {
		setClauses = append(setClauses, fmt.Sprintf("notes = $%d", argIdx))
		args = append(args, *fields.Notes)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE workflows w
		SET %s
		WHERE w.id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, allColumns)

	return scanWorkflow(r.pool.QueryRow(ctx, query, args...))
}

// AdjustShareCount moves shared_count by delta and recomputes is_shared.
func (r *PostgresRepository) AdjustShareCount(ctx context.Context, id uuid.UUID, delta int) error {
	query := `
		UPDATE workflows
		SET shared_count = GREATEST(0, shared_count + $2),
		    is_shared = GREATEST(0, shared_count + $2) > 0,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("adjusting share count: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrWorkflowNotFound
	}

	return nil
}

// Delete removes a workflow by its UUID. Shares cascade at the schema level.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting workflow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrWorkflowNotFound
	}

	return nil
}
