package services

import (
	"context"
	"devQuestAPI/internal/apperr"
	"devQuestAPI/internal/progression"
	"devQuestAPI/internal/types/notification"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PushProvider is the transport that actually delivers a push message. It
// returns the tokens the provider reported as no longer registered.
// FCMService satisfies it; tests substitute their own.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []string, title, body string, data map[string]any) ([]string, error)
}

type NotificationService struct {
	db           *pgxpool.Pool
	pushProvider PushProvider
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) SetPushProvider(p PushProvider) {
	s.pushProvider = p
}

// streakMilestones are the streak lengths worth celebrating with a push.
var streakMilestones = map[int]bool{7: true, 30: true, 100: true}

func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, req *notification.RegisterDeviceRequest) error {
	if req.Token == "" {
		return fmt.Errorf("%w: token is required", apperr.ErrValidation)
	}

	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: unknown user", apperr.ErrNotAuthenticated)
		}
		return fmt.Errorf("%w: failed to look up user: %v", apperr.ErrPersistence, err)
	}

	_, err = s.db.Exec(ctx, `
	INSERT INTO device_tokens (id, user_id, token, platform)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id, token) DO UPDATE SET platform = EXCLUDED.platform
	`, uuid.New(), userID, req.Token, req.Platform)
	if err != nil {
		return fmt.Errorf("%w: failed to register device: %v", apperr.ErrPersistence, err)
	}

	return nil
}

// NotifyCompletion fires level-up and streak-milestone pushes after a quest
// completion. Strictly best-effort: every failure is logged and swallowed so
// a push outage can never fail or roll back a completion.
func (s *NotificationService) NotifyCompletion(ctx context.Context, userID uuid.UUID, st progression.State, leveledUp bool) {
	if s.pushProvider == nil {
		return
	}

	title, body := "", ""
	switch {
	case leveledUp:
		title = "Level Up! ⚡"
		body = fmt.Sprintf("You reached level %d. Keep questing!", st.Level)
	case streakMilestones[st.Streak]:
		title = "Streak Milestone! 🔥"
		body = fmt.Sprintf("%d days in a row. Don't break the chain!", st.Streak)
	default:
		return
	}

	tokens, err := s.deviceTokens(ctx, userID)
	if err != nil {
		log.Printf("NotificationService: failed to load device tokens for %s: %v", userID, err)
		return
	}

	data := map[string]any{"level": st.Level, "streak": st.Streak}
	stale, err := s.pushProvider.SendPush(ctx, tokens, title, body, data)
	if err != nil {
		log.Printf("NotificationService: push failed for %s: %v", userID, err)
	}
	if len(stale) > 0 {
		s.pruneTokens(ctx, userID, stale)
	}
}

// pruneTokens drops device tokens the provider reported as unregistered.
// Best-effort, same as the push itself.
func (s *NotificationService) pruneTokens(ctx context.Context, userID uuid.UUID, tokens []string) {
	_, err := s.db.Exec(ctx, `
	DELETE FROM device_tokens
	WHERE user_id = $1 AND token = ANY($2)
	`, userID, tokens)
	if err != nil {
		log.Printf("NotificationService: failed to prune %d stale tokens for %s: %v", len(tokens), userID, err)
		return
	}
	log.Printf("NotificationService: pruned %d stale tokens for %s", len(tokens), userID)
}

func (s *NotificationService) deviceTokens(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.db.Query(ctx, `
	SELECT token
	FROM device_tokens
	WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
