package gateway

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource yields the bearer token for the next request. An empty token
// means the request is sent without Authorization.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a fixed API token.
type StaticToken string

func (t StaticToken) Token() (string, error) { return strings.TrimSpace(string(t)), nil }

// Claims identifies the console operator to the backend.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// HMACTokenSource mints short-lived HS256 tokens signed with a shared
// secret. A fresh token is issued once the cached one is within a minute of
// expiring.
type HMACTokenSource struct {
	Secret  []byte
	Subject string
	Role    string
	TTL     time.Duration
	Now     func() time.Time

	mu      sync.Mutex
	cached  string
	expires time.Time
}

var ErrNoSecret = errors.New("token secret is empty")

func (s *HMACTokenSource) Token() (string, error) {
	if len(s.Secret) == 0 {
		return "", ErrNoSecret
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	t := now()
	if s.cached != "" && t.Add(time.Minute).Before(s.expires) {
		return s.cached, nil
	}

	ttl := s.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	exp := t.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Subject,
			IssuedAt:  jwt.NewNumericDate(t),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: s.Role,
	})
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", err
	}
	s.cached, s.expires = signed, exp
	return signed, nil
}

// ParseToken verifies a token minted by HMACTokenSource.
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
