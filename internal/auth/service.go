package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/workflowai/workflowai/internal/user"
)

// ErrInvalidKey is returned when the provided API key does not match any active user.
var ErrInvalidKey = errors.New("invalid or revoked API key")

// Identity is stored in the request context after authentication.
type Identity struct {
	UserID   uuid.UUID
	Email    string
	FullName string
	Tier     user.Tier
}

// Service provides authentication operations.
type Service struct {
	userRepo   user.Repository
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(userRepo user.Repository, bcryptCost int) *Service {
	return &Service{
		userRepo:   userRepo,
		bcryptCost: bcryptCost,
	}
}

// GenerateKey creates a new API key. Returns the raw key, its prefix (first 8 chars),
// and the bcrypt hash. The raw key is: 32 random bytes -> base64url -> prepend "wfai_".
func (s *Service) GenerateKey() (rawKey, prefix, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	rawKey = "wfai_" + base64.RawURLEncoding.EncodeToString(b)
	prefix = rawKey[:8]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(rawKey), s.bcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("hashing key: %w", err)
	}
	hash = string(hashBytes)

	return rawKey, prefix, hash, nil
}

// Register creates a free-tier user for the given email and returns the user
// together with the raw API key, which is only shown once.
func (s *Service) Register(ctx context.Context, email, fullName string) (*user.User, string, error) {
	rawKey, prefix, hash, err := s.GenerateKey()
	if err != nil {
		return nil, "", fmt.Errorf("generating API key: %w", err)
	}

	u := &user.User{
		Email:        email,
		FullName:     fullName,
		Tier:         user.TierFree,
		ApiKeyPrefix: prefix,
		ApiKeyHash:   hash,
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, "", err
	}

	return u, rawKey, nil
}

// Authenticate resolves a raw API key to an Identity. It extracts the prefix,
// looks up candidates, and bcrypt-compares each one.
func (s *Service) Authenticate(ctx context.Context, rawKey string) (*Identity, error) {
	if len(rawKey) < 8 {
		return nil, ErrInvalidKey
	}

	prefix := rawKey[:8]

	candidates, err := s.userRepo.FindByKeyPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("finding users by prefix: %w", err)
	}

	for _, u := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(u.ApiKeyHash), []byte(rawKey)) == nil {
			return &Identity{
				UserID:   u.ID,
				Email:    u.Email,
				FullName: u.FullName,
				Tier:     u.Tier,
			}, nil
		}
	}

	return nil, ErrInvalidKey
}
