package task

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryWork     Category = "Work"
	CategoryDSA      Category = "DSA"
	CategoryPersonal Category = "Personal"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryWork, CategoryDSA, CategoryPersonal:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

type Task struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description" db:"description"`
	Category    Category   `json:"category" db:"category"`
	Status      Status     `json:"status" db:"status"`
	XPReward    int        `json:"xp_reward" db:"xp_reward"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
}

type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Category    Category `json:"category"`
	XPReward    int      `json:"xp_reward"`
}

// View selects a derived slice of the task list. Views are re-derived on
// every request, never cached.
type View string

const (
	ViewAll       View = ""
	ViewPending   View = "pending"
	ViewCompleted View = "completed"
	ViewToday     View = "today"
)
