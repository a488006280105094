package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"boardify-api/domain"
)

// DefaultTokenTTL is the lifetime of issued access tokens.
const DefaultTokenTTL = 30 * time.Minute

type userLookup interface {
	UserByUsername(ctx context.Context, username string) (domain.User, error)
}

// Auth issues and validates HS256 access tokens whose subject is a username.
type Auth struct {
	Secret []byte
	TTL    time.Duration

	users  userLookup
	parser *jwt.Parser
	now    func() time.Time
}

// NewAuth creates a new Auth instance. A non-positive ttl selects DefaultTokenTTL.
func NewAuth(secret []byte, ttl time.Duration, users userLookup) *Auth {
	if len(secret) == 0 {
		panic("api.NewAuth: empty signing secret")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Auth{
		Secret: secret,
		TTL:    ttl,
		users:  users,
		// exp is checked against a.now below so the clock can be substituted.
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithoutClaimsValidation()),
		now:    time.Now,
	}
}

// IssueToken signs a token for username and reports when it expires.
func (a *Auth) IssueToken(username string) (string, time.Time, error) {
	now := a.now()
	expiresAt := now.Add(a.TTL)
	claims := jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// UserFromAuthHeader resolves the Authorization header to an existing user.
// Every token problem is reported as domain.ErrUnauthenticated.
func (a *Auth) UserFromAuthHeader(ctx context.Context, h string) (domain.User, error) {
	token, err := bearerTokenFromString(h)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	username, err := a.UsernameFromBearer(token)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if a.users == nil {
		return domain.User{}, errors.New("user lookup not configured")
	}
	return a.users.UserByUsername(ctx, username)
}

// UsernameFromBearer verifies a raw token and returns its subject.
func (a *Auth) UsernameFromBearer(token string) (string, error) {
	if token == "" {
		return "", errBadAuthorization
	}
	parsed, err := a.parser.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.Secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	if !claims.VerifyExpiresAt(a.now().Unix(), true) {
		return "", errors.New("token expired")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing sub")
	}
	return sub, nil
}
