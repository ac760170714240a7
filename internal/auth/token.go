package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer   = "mcserverd"
	TokenTTL = 5 * time.Minute
)

var ErrNoToken = errors.New("missing bearer token")

// BridgeClaims identifies a front-end connecting to the bridge.
type BridgeClaims struct {
	jwt.RegisteredClaims
}

// Signer mints and checks HS256 bridge tokens with a shared secret.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

func (s *Signer) Issue(client string) (string, error) {
	now := s.now()
	claims := BridgeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   client,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-30 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign bridge token: %w", err)
	}
	return signed, nil
}

// Verify returns the client name carried by a valid token.
func (s *Signer) Verify(raw string) (string, error) {
	var claims BridgeClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("invalid bridge token: %w", err)
	}
	return claims.Subject, nil
}

// Header returns an Authorization header carrying a fresh token.
func (s *Signer) Header(client string) (http.Header, error) {
	tok, err := s.Issue(client)
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+tok)
	return h, nil
}

// FromRequest verifies the request's bearer token.
func (s *Signer) FromRequest(r *http.Request) (string, error) {
	v := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(v, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", ErrNoToken
	}
	return s.Verify(strings.TrimSpace(raw))
}
