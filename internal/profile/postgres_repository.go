package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool. The original
// filter-then-update-or-create pattern is collapsed into ON CONFLICT upserts
// keyed by user_email.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Repository backed by the given connection pool.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// GetProfile retrieves the onboarding profile for a user.
func (r *PostgresRepository) GetProfile(ctx context.Context, userEmail string) (*Profile, error) {
	query := `
		SELECT id, user_email, role, goals, platform, referral, created_at, updated_at
		FROM user_profiles WHERE user_email = $1`

	var p Profile
	err := r.pool.QueryRow(ctx, query, userEmail).Scan(
		&p.ID, &p.UserEmail, &p.Role, &p.Goals, &p.Platform, &p.Referral, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning profile row: %w", err)
	}
	if p.Goals == nil {
		p.Goals = []string{}
	}
	return &p, nil
}

// UpsertProfile inserts or replaces the onboarding profile for a user.
func (r *PostgresRepository) UpsertProfile(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO user_profiles (user_email, role, goals, platform, referral)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_email) DO UPDATE SET
			role = EXCLUDED.role,
			goals = EXCLUDED.goals,
			platform = EXCLUDED.platform,
			referral = EXCLUDED.referral,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.UserEmail, p.Role, p.Goals, p.Platform, p.Referral,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}

	return nil
}

// GetProgress retrieves the onboarding progress for a user.
func (r *PostgresRepository) GetProgress(ctx context.Context, userEmail string) (*Progress, error) {
	query := `
		SELECT id, user_email, onboarding_completed, completed_steps, created_at, updated_at
		FROM user_progress WHERE user_email = $1`

	var p Progress
	err := r.pool.QueryRow(ctx, query, userEmail).Scan(
		&p.ID, &p.UserEmail, &p.OnboardingCompleted, &p.CompletedSteps, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning progress row: %w", err)
	}
	if p.CompletedSteps == nil {
		p.CompletedSteps = []string{}
	}
	return &p, nil
}

// UpsertProgress inserts or replaces the onboarding progress for a user.
func (r *PostgresRepository) UpsertProgress(ctx context.Context, p *Progress) error {
	query := `
		INSERT INTO user_progress (user_email, onboarding_completed, completed_steps)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_email) DO UPDATE SET
			onboarding_completed = EXCLUDED.onboarding_completed,
			completed_steps = EXCLUDED.completed_steps,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.UserEmail, p.OnboardingCompleted, p.CompletedSteps,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting progress: %w", err)
	}

	return nil
}
