package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const verificationAudience = "email-verification"

// ErrInvalidSignature is returned when a token was not produced by this
// signer's secret or has been altered.
var ErrInvalidSignature = errors.New("invalid signature")

type emailClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Signer binds an email address into a tamper-evident token. Tokens carry no
// expiry.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer keyed by secret, which must not be empty.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("signer: empty secret")
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign returns a verification token carrying email.
func (s *Signer) Sign(email string) (string, error) {
	claims := emailClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience: jwt.ClaimStrings{verificationAudience},
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Unsign returns the email in token, or ErrInvalidSignature.
func (s *Signer) Unsign(token string) (string, error) {
	claims := &emailClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidSignature
	}
	if !claims.VerifyAudience(verificationAudience, true) {
		return "", ErrInvalidSignature
	}
	return claims.Email, nil
}
