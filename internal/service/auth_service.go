package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"quiz-session-backend/internal/config"
	"quiz-session-backend/utilities"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService checks the shared quiz password and issues the access token.
type AuthService interface {
	Login(password string) (string, error)
	// Method names the comparison in use: "bcrypt", "sha256" or "plaintext".
	Method() string
}

// credentialVerifier is one way of comparing a password with the configured secret.
type credentialVerifier interface {
	verify(password string) bool
	name() string
}

type authService struct {
	verifier credentialVerifier
}

// NewAuthService picks exactly one verifier: bcrypt when a bcrypt hash is configured,
// otherwise sha256, and plaintext only when no hash exists and the fallback is enabled.
func NewAuthService(cfg config.AuthenticationConfig) (AuthService, error) {
	switch {
	case cfg.PasswordBcrypt != "":
		if _, err := bcrypt.Cost([]byte(cfg.PasswordBcrypt)); err != nil {
			return nil, errors.New("PASSWORD_BCRYPT is not a bcrypt hash")
		}
		return &authService{verifier: bcryptVerifier{hash: []byte(cfg.PasswordBcrypt)}}, nil
	case cfg.PasswordHash != "":
		want, err := hex.DecodeString(strings.TrimSpace(cfg.PasswordHash))
		if err != nil || len(want) != sha256.Size {
			return nil, errors.New("PASSWORD_HASH is not a sha256 hex digest")
		}
		return &authService{verifier: sha256Verifier{digest: want}}, nil
	case cfg.EnablePlaintextFallback && cfg.PlaintextPassword != "":
		utilities.Warn("no password hash configured, using plaintext comparison")
		return &authService{verifier: plaintextVerifier{password: []byte(cfg.PlaintextPassword)}}, nil
	default:
		return nil, errors.New("no credential configured")
	}
}

func (s *authService) Login(password string) (string, error) {
	if password == "" || !s.verifier.verify(password) {
		return "", ErrInvalidCredentials
	}
	return utilities.GenerateToken()
}

func (s *authService) Method() string {
	return s.verifier.name()
}

type bcryptVerifier struct{ hash []byte }

func (v bcryptVerifier) verify(password string) bool {
	return bcrypt.CompareHashAndPassword(v.hash, []byte(password)) == nil
}

func (bcryptVerifier) name() string { return "bcrypt" }

type sha256Verifier struct{ digest []byte }

func (v sha256Verifier) verify(password string) bool {
	sum := sha256.Sum256([]byte(password))
	return subtle.ConstantTimeCompare(sum[:], v.digest) == 1
}

func (sha256Verifier) name() string { return "sha256" }

type plaintextVerifier struct{ password []byte }

func (v plaintextVerifier) verify(password string) bool {
	return subtle.ConstantTimeCompare([]byte(password), v.password) == 1
}

func (plaintextVerifier) name() string { return "plaintext" }

// Hash256Encode hashes a password using SHA-256 and returns lowercase hex.
func Hash256Encode(password string) string {
	hasher := sha256.New()
	hasher.Write([]byte(password))
	return hex.EncodeToString(hasher.Sum(nil))
}
