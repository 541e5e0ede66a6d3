package user

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTheme is what a profile reads back until the user picks one.
const DefaultTheme = "dark"

type User struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ClerkID     string    `json:"clerk_id" db:"clerk_id"`
	Email       string    `json:"email" db:"email"`
	DisplayName string    `json:"display_name" db:"display_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	Theme       string    `json:"theme" db:"theme"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type CreateUserRequest struct {
	ClerkID     string `json:"clerk_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// UpdateProfileRequest carries a partial profile update. Empty fields leave
// the stored values untouched.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
	Theme       string `json:"theme"`
}
