package user

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// allColumns is the ordered list of columns scanned from the users table.
const allColumns = `id, email, full_name, subscription_tier,
	workflows_generated_this_month, last_reset_date, stripe_customer_id,
	api_key_prefix, api_key_hash, created_at, updated_at, revoked_at`

// scanUser scans a single User from a row.
func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.Tier,
		&u.WorkflowsGeneratedThisMonth, &u.LastResetDate, &u.StripeCustomerID,
		&u.ApiKeyPrefix, &u.ApiKeyHash, &u.CreatedAt, &u.UpdatedAt, &u.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user row: %w", err)
	}
	return &u, nil
}

// Create inserts a new user record.
func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (email, full_name, subscription_tier, api_key_prefix, api_key_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, workflows_generated_this_month, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		u.Email, u.FullName, u.Tier, u.ApiKeyPrefix, u.ApiKeyHash,
	).Scan(&u.ID, &u.WorkflowsGeneratedThisMonth, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// GetByID retrieves a single user by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, allColumns)
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// FindByEmail retrieves a single user by email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, allColumns)
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// FindByKeyPrefix retrieves all non-revoked users whose API key prefix matches.
func (r *PostgresRepository) FindByKeyPrefix(ctx context.Context, prefix string) ([]User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE api_key_prefix = $1 AND revoked_at IS NULL`, allColumns)

	rows, err := r.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("finding users by prefix: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		err := rows.Scan(
			&u.ID, &u.Email, &u.FullName, &u.Tier,
			&u.WorkflowsGeneratedThisMonth, &u.LastResetDate, &u.StripeCustomerID,
			&u.ApiKeyPrefix, &u.ApiKeyHash, &u.CreatedAt, &u.UpdatedAt, &u.RevokedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, nil
}

// SetTier stores the subscription tier and, when provided, the payment
// provider's customer reference. Re-applying the same tier is harmless.
func (r *PostgresRepository) SetTier(ctx context.Context, id uuid.UUID, tier Tier, stripeCustomerID *string) error {
	query := `
		UPDATE users
		SET subscription_tier = $2,
		    stripe_customer_id = COALESCE($3, stripe_customer_id),
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, tier, stripeCustomerID)
	if err != nil {
		return fmt.Errorf("updating subscription tier: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ConsumeGenerationCredit performs the quota check and counter increment in a
// single conditional update so two rapid generations cannot both pass a stale
// check. The month-reset comparison mirrors quota.IsNewMonth: calendar
// month+year equality against the stored reset date.
func (r *PostgresRepository) ConsumeGenerationCredit(ctx context.Context, id uuid.UUID, limit int, now time.Time) (*User, error) {
	query := fmt.Sprintf(`
		UPDATE users
		SET workflows_generated_this_month = CASE
		        WHEN last_reset_date IS NULL
		          OR date_trunc('month', last_reset_date) <> date_trunc('month', $2::date)
		        THEN 1
		        ELSE workflows_generated_this_month + 1
		    END,
		    last_reset_date = $2::date,
		    updated_at = NOW()
		WHERE id = $1
		  AND (subscription_tier = 'premium'
		       OR (CASE
		               WHEN last_reset_date IS NULL
		                 OR date_trunc('month', last_reset_date) <> date_trunc('month', $2::date)
		               THEN 0
		               ELSE workflows_generated_this_month
		           END) < $3)
		RETURNING %s`, allColumns)

	u, err := scanUser(r.pool.QueryRow(ctx, query, id, now, limit))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Distinguish a spent quota from a missing user.
			if _, getErr := r.GetByID(ctx, id); getErr == nil {
				return nil, ErrQuotaExceeded
			}
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("consuming generation credit: %w", err)
	}

	return u, nil
}
