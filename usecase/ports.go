package usecase

import "context"

// PasswordHasher is the one-way credential transform.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(password, hash string) bool
}

// Signer binds an email address into a tamper-evident token.
type Signer interface {
	Sign(email string) (string, error)
	Unsign(token string) (string, error)
}

// Message is an outbound plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers email synchronously.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}
