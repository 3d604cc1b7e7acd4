package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"nearme/api/logger"
	"nearme/api/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore instance.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// CreateUser inserts a new business owner account.
func (s *UserStore) CreateUser(ctx context.Context, email string, hashedPassword []byte, businessID string) (*models.User, error) {
	user := &models.User{}
	query := `
		INSERT INTO users (email, hashed_password, business_id)
		VALUES ($1, $2, $3)
		RETURNING id, email, business_id, created_at, updated_at;
	`
	err := s.db.QueryRowContext(ctx, query, email, hashedPassword, businessID).Scan(
		&user.ID,
		&user.Email,
		&user.BusinessID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return nil, fmt.Errorf("user with email '%s': %w", email, ErrUserExists)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info("user created", zap.Int("user_id", user.ID), zap.String("business_id", user.BusinessID))
	return user, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, business_id, hashed_password, created_at, updated_at
		FROM users
		WHERE email = $1;
	`
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.BusinessID,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with email '%s': %w", email, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}
