// Package auth verifies caller bearer tokens issued by the platform.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vogiaan1904/sessiongate/config"
	"github.com/vogiaan1904/sessiongate/internal/models"
)

var (
	ErrTokenEmpty               = errors.New("token is empty")
	ErrTokenInvalid             = errors.New("invalid token")
	ErrTokenInvalidClaims       = errors.New("invalid token claims")
	ErrTokenUnexpectedSignature = errors.New("unexpected signing method")
	ErrNoPrincipal              = errors.New("no authenticated principal")
)

// Principal is the authenticated caller. Role is the caller's claim; the
// effective role for a session is decided by lifecycle.ClassifyRole.
type Principal struct {
	UserID string
	Role   models.Role
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Verifier interface {
	Verify(token string) (Principal, error)
}

type jwtVerifier struct {
	secret []byte
	issuer string
}

func NewJWTVerifier(cfg config.JWTConfig) Verifier {
	return &jwtVerifier{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}
}

func (v *jwtVerifier) Verify(token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrTokenEmpty
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenUnexpectedSignature
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return Principal{}, ErrTokenInvalid
	}

	role := models.Role(claims.Role)
	if claims.Subject == "" || !role.IsValid() {
		return Principal{}, ErrTokenInvalidClaims
	}

	return Principal{UserID: claims.Subject, Role: role}, nil
}

// Sign issues an HS256 token for p. Used by tooling and tests.
func Sign(cfg config.JWTConfig, p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenStr, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok {
		return Principal{}, ErrNoPrincipal
	}
	return p, nil
}
