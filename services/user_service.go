package services

import (
	"context"
	"devQuestAPI/internal/apperr"
	"devQuestAPI/internal/types/user"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

// CreateUser inserts a profile row for a freshly synced Clerk user. The
// display name defaults to the email local part when Clerk carries none.
func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	displayName := req.DisplayName
	if displayName == "" {
		displayName = strings.SplitN(req.Email, "@", 2)[0]
	}

	u := &user.User{
		ID:          uuid.New(),
		ClerkID:     req.ClerkID,
		Email:       req.Email,
		DisplayName: displayName,
		Theme:       user.DefaultTheme,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	query := `
	INSERT INTO users (id, clerk_id, email, display_name, theme, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (clerk_id) DO UPDATE SET email = EXCLUDED.email, updated_at = NOW()
	RETURNING id, clerk_id, email, display_name, avatar_url, theme, created_at, updated_at
	`

	err := s.db.QueryRow(
		ctx,
		query,
		u.ID,
		u.ClerkID,
		u.Email,
		u.DisplayName,
		u.Theme,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.DisplayName,
		&u.AvatarURL,
		&u.Theme,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: failed to create user: %v", apperr.ErrPersistence, err)
	}

	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT id, clerk_id, email, display_name, avatar_url, theme, created_at, updated_at
	FROM users
	WHERE clerk_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.DisplayName,
		&u.AvatarURL,
		&u.Theme,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to get user: %v", apperr.ErrPersistence, err)
	}

	return u, nil
}

// UpdateProfileByClerkID partially updates the profile. Empty request fields
// fall back to the stored values, so a failed or partial update never
// corrupts fields the caller did not touch.
func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	if req.Theme != "" && req.Theme != "dark" && req.Theme != "light" {
		return nil, fmt.Errorf("%w: unknown theme %q", apperr.ErrValidation, req.Theme)
	}

	query := `
	UPDATE users
	SET
		display_name = COALESCE(NULLIF($2, ''), display_name),
		theme = COALESCE(NULLIF($3, ''), theme),
		updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING id, clerk_id, email, display_name, avatar_url, theme, created_at, updated_at
	`

	u := &user.User{}
	err := s.db.QueryRow(
		ctx,
		query,
		clerkID,
		req.DisplayName,
		req.Theme,
	).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.DisplayName,
		&u.AvatarURL,
		&u.Theme,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to update profile: %v", apperr.ErrPersistence, err)
	}

	return u, nil
}

// SetAvatarURL stores the public address of the user's avatar object, or
// clears it when url is nil.
func (s *UserService) SetAvatarURL(ctx context.Context, clerkID string, url *string) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET avatar_url = $2, updated_at = NOW() WHERE clerk_id = $1`, clerkID, url)
	if err != nil {
		return fmt.Errorf("%w: failed to set avatar url: %v", apperr.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user", apperr.ErrNotFound)
	}
	return nil
}

// DeleteUserByClerkID removes the user row; tasks, stats and device tokens
// go with it via ON DELETE CASCADE.
func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("%w: failed to delete user: %v", apperr.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user", apperr.ErrNotFound)
	}

	log.Printf("UserService: deleted account for clerk_id %s", clerkID)
	return nil
}

// UpdateUserFromClerk applies a user.updated webhook event. Only identity
// fields owned by Clerk are touched.
func (s *UserService) UpdateUserFromClerk(ctx context.Context, clerkID, email string) error {
	_, err := s.db.Exec(ctx, `
	UPDATE users
	SET email = COALESCE(NULLIF($2, ''), email), updated_at = NOW()
	WHERE clerk_id = $1
	`, clerkID, email)
	if err != nil {
		return fmt.Errorf("%w: failed to sync user: %v", apperr.ErrPersistence, err)
	}
	return nil
}
