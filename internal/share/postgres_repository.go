package share

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const allColumns = `id, workflow_id, shared_with_email, permission, shared_by_email, created_at`

func scanShare(row pgx.Row) (*Share, error) {
	var s Share
	err := row.Scan(&s.ID, &s.WorkflowID, &s.SharedWithEmail, &s.Permission, &s.SharedByEmail, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShareNotFound
		}
		return nil, fmt.Errorf("scanning share row: %w", err)
	}
	return &s, nil
}

// Create inserts a new share record. The unique index on
// (workflow_id, shared_with_email) backs up the pre-insert existence check.
func (r *PostgresRepository) Create(ctx context.Context, s *Share) error {
	query := `
		INSERT INTO workflow_shares (workflow_id, shared_with_email, permission, shared_by_email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		s.WorkflowID, s.SharedWithEmail, s.Permission, s.SharedByEmail,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyShared
		}
		return fmt.Errorf("inserting share: %w", err)
	}

	return nil
}

// GetByID retrieves a single share by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Share, error) {
	query := fmt.Sprintf(`SELECT %s FROM workflow_shares WHERE id = $1`, allColumns)
	return scanShare(r.pool.QueryRow(ctx, query, id))
}

// ListByWorkflow retrieves all shares for a workflow, oldest first.
func (r *PostgresRepository) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]Share, error) {
	query := fmt.Sprintf(`SELECT %s FROM workflow_shares WHERE workflow_id = $1 ORDER BY created_at ASC`, allColumns)

	rows, err := r.pool.Query(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("listing shares: %w", err)
	}
	defer rows.Close()

	var shares []Share
	for rows.Next() {
		var s Share
		if err := rows.Scan(&s.ID, &s.WorkflowID, &s.SharedWithEmail, &s.Permission, &s.SharedByEmail, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning share row: %w", err)
		}
		shares = append(shares, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating share rows: %w", err)
	}

	if shares == nil {
		shares = []Share{}
	}

	return shares, nil
}

// Find retrieves the share granting workflowID to email.
func (r *PostgresRepository) Find(ctx context.Context, workflowID uuid.UUID, email string) (*Share, error) {
	query := fmt.Sprintf(`SELECT %s FROM workflow_shares WHERE workflow_id = $1 AND shared_with_email = $2`, allColumns)
	return scanShare(r.pool.QueryRow(ctx, query, workflowID, email))
}

// Delete removes a share by its UUID.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM workflow_shares WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting share: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrShareNotFound
	}

	return nil
}
