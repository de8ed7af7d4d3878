package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("requested account not found")
var ErrConflict = errors.New("account already exists or conflict")
var ErrUnauthenticated = errors.New("invalid credentials")

// ErrUsernameTaken and ErrEmailTaken wrap ErrConflict so callers can branch
// on the broad class or the specific duplicate field.
var ErrUsernameTaken = fmt.Errorf("username taken: %w", ErrConflict)
var ErrEmailTaken = fmt.Errorf("email taken: %w", ErrConflict)

// Account is the persisted user record. PasswordHash carries json:"-" so the
// hash can never leak through any serialized response.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    *string   `json:"firstName,omitempty"`
	LastName     *string   `json:"lastName,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RegisterParams carries the fields accepted at registration.
type RegisterParams struct {
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	Email     string  `json:"email"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

// LoginRequest represents the login request body. Username doubles as the
// identifier field and is matched against both username and email.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateProfileParams is the partial-update patch: nil fields are left
// untouched, non-nil fields overwrite the stored value.
type UpdateProfileParams struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// ChangePasswordRequest represents the change password request body.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// Response is a generic response for simple success/error messages.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
