package domain

import "time"

// Account is a registered user with credentials and an activation flag.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicAccount is the projection exposed over the API.
type PublicAccount struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Public strips credentials and bookkeeping from the account.
func (a *Account) Public() PublicAccount {
	if a == nil {
		return PublicAccount{}
	}
	return PublicAccount{ID: a.ID, Username: a.Username, Email: a.Email}
}

// Activate flips the account to active. It reports false when the account
// was already active.
func (a *Account) Activate() bool {
	if a == nil || a.IsActive {
		return false
	}
	a.IsActive = true
	return true
}

// Touch refreshes UpdatedAt and sets CreatedAt on first write.
func (a *Account) Touch() {
	if a == nil {
		return
	}
	a.UpdatedAt = time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = a.UpdatedAt
	}
}

// ProfilePatch carries the optional members of a profile update. A nil or
// empty member leaves the stored value unchanged.
type ProfilePatch struct {
	Username *string
	Email    *string
	Password *string
}

func (p ProfilePatch) IsEmpty() bool {
	return blank(p.Username) && blank(p.Email) && blank(p.Password)
}

func blank(v *string) bool {
	return v == nil || *v == ""
}
