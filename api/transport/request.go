package transport

import "github.com/fastygo/accounts/domain"

// SignupRequest requires every key to be present; only the username must be
// non-empty.
type SignupRequest struct {
	Username *string `json:"username" validate:"required,min=1"`
	Password *string `json:"password" validate:"required"`
	Email    *string `json:"email" validate:"required"`
}

// ProfileUpdateRequest carries any subset of the updatable fields.
type ProfileUpdateRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Patch converts the request into a domain patch.
func (r ProfileUpdateRequest) Patch() domain.ProfilePatch {
	return domain.ProfilePatch{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
	}
}

// LoginRequest carries credentials for POST /api/login/.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token for POST /api/token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}
