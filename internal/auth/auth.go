// Package auth turns admin bearer tokens into the capability the mapping
// administrator requires.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNotAdmin     = errors.New("not an admin")
	ErrHostNotAllow = errors.New("host not in token scope")
)

// Capability is what an authorized caller may do, scoped to one host.
type Capability struct {
	Host     string
	IsAdmin  bool
	Identity string
}

// Claims carried by admin tokens. An empty Hosts list grants every host.
type Claims struct {
	Email string   `json:"email"`
	Admin bool     `json:"admin"`
	Hosts []string `json:"hosts,omitempty"`
	jwt.RegisteredClaims
}

const issuer = "url-redirector"

type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

func (v *Verifier) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(v.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Claims returns the verified claims of token without checking any host.
func (v *Verifier) Claims(token string) (*Claims, error) {
	return v.parse(token)
}

// Authorize verifies token and returns the capability for host.
func (v *Verifier) Authorize(token, host string) (Capability, error) {
	claims, err := v.parse(token)
	if err != nil {
		return Capability{}, err
	}
	if !claims.Admin {
		return Capability{}, ErrNotAdmin
	}
	if len(claims.Hosts) > 0 && !slices.Contains(claims.Hosts, host) {
		return Capability{}, ErrHostNotAllow
	}
	identity := claims.Email
	if identity == "" {
		identity = claims.Subject
	}
	return Capability{Host: host, IsAdmin: true, Identity: identity}, nil
}

// Issue signs an admin token for email, valid for ttl.
func Issue(secret, email string, hosts []string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("empty signing secret")
	}
	claims := Claims{
		Email: email,
		Admin: true,
		Hosts: hosts,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

type ctxKey struct{}

func WithCapability(ctx context.Context, c Capability) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func FromContext(ctx context.Context) (Capability, bool) {
	c, ok := ctx.Value(ctxKey{}).(Capability)
	return c, ok
}
