package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeInvalid           ErrorCode = "INVALID"
	ErrCodeDuplicateUsername ErrorCode = "DUPLICATE_USERNAME"
	ErrCodeInvalidLink       ErrorCode = "INVALID_LINK"
	ErrCodeAlreadyVerified   ErrorCode = "ALREADY_VERIFIED"
	ErrCodeUnauthenticated   ErrorCode = "UNAUTHENTICATED"
	ErrCodeInternal          ErrorCode = "INTERNAL"
)

// Error represents a domain-level error. Message is safe to show to clients.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches domain errors by code so wrapped sentinels compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

var (
	ErrAccountNotFound = NewError(ErrCodeNotFound, "account not found")
	ErrSessionNotFound = NewError(ErrCodeNotFound, "session not found")
	ErrInvalidPayload  = NewError(ErrCodeInvalid, "Les données envoyées sont invalides.")

	ErrDuplicateUsername = NewError(ErrCodeDuplicateUsername, "Cet utilisateur existe déjà.")
	ErrInvalidLink       = NewError(ErrCodeInvalidLink, "Le lien de vérification est invalide.")
	ErrAlreadyVerified   = NewError(ErrCodeAlreadyVerified, "Votre email est déjà vérifié.")
	ErrUnauthenticated   = NewError(ErrCodeUnauthenticated, "Informations d'authentification non fournies.")
	ErrBadCredentials    = NewError(ErrCodeUnauthenticated, "No active account found with the given credentials")
	ErrTokenInvalid      = NewError(ErrCodeUnauthenticated, "Token is invalid or expired")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// CodeOf returns the code of the first domain error in the chain.
func CodeOf(err error) (ErrorCode, bool) {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code, true
	}
	return "", false
}
