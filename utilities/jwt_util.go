package utilities

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	tokenMu     sync.RWMutex
	tokenSecret = []byte(uuid.NewString())
	tokenExpiry = 12 * time.Hour
)

// Claims carries the single "authenticated" flag the quiz needs.
type Claims struct {
	Authenticated bool `json:"authenticated"`
	jwt.RegisteredClaims
}

// ConfigureTokens sets the signing secret and lifetime. An empty secret keeps the
// random per-process secret, which invalidates tokens on restart.
func ConfigureTokens(secret string, expiry time.Duration) {
	tokenMu.Lock()
	defer tokenMu.Unlock()
	if secret != "" {
		tokenSecret = []byte(secret)
	}
	if expiry > 0 {
		tokenExpiry = expiry
	}
}

// GenerateToken issues a signed token marking the bearer as authenticated.
func GenerateToken() (string, error) {
	tokenMu.RLock()
	secret, expiry := tokenSecret, tokenExpiry
	tokenMu.RUnlock()

	now := time.Now()
	claims := &Claims{
		Authenticated: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken verifies the token and extracts claims
func ValidateToken(tokenStr string) (*Claims, error) {
	tokenMu.RLock()
	secret := tokenSecret
	tokenMu.RUnlock()

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token has expired")
		}
		return nil, errors.New("invalid or malformed token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !claims.Authenticated {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
