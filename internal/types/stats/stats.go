package stats

import (
	"devQuestAPI/internal/progression"
	"time"

	"github.com/google/uuid"
)

// UserStats is the persisted per-user progression row. It is created lazily
// on a user's first completion and mutated only by the completion workflow.
type UserStats struct {
	UserID        uuid.UUID        `json:"user_id" db:"user_id"`
	XP            int              `json:"xp" db:"xp"`
	Level         int              `json:"level" db:"level"`
	Streak        int              `json:"streak" db:"streak"`
	LastCompleted *progression.Day `json:"last_completed" db:"last_completed"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// Default is what a user without a stats row reads back: nothing accrued,
// level 1. No row is written for it.
func Default(userID uuid.UUID) *UserStats {
	return &UserStats{UserID: userID, XP: 0, Level: 1, Streak: 0}
}

func (s *UserStats) State() *progression.State {
	return &progression.State{
		XP:            s.XP,
		Level:         s.Level,
		Streak:        s.Streak,
		LastCompleted: s.LastCompleted,
	}
}
