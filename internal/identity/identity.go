// Package identity models the session service this core delegates
// authentication to. The wider application owns sign-in; here a bearer token
// either resolves to a user or it does not.
package identity

import (
	"context"
	"errors"
	"strings"
)

var ErrUnauthorized = errors.New("unauthorized")

type User struct {
	ID    string
	Email string
}

// Verifier resolves a session token to the authenticated user.
type Verifier interface {
	Verify(ctx context.Context, token string) (User, error)
}

// StaticVerifier is a fixed token table, seeded from the environment for
// local runs and from test setup elsewhere.
type StaticVerifier struct {
	users map[string]User
}

func NewStaticVerifier() *StaticVerifier {
	return &StaticVerifier{users: make(map[string]User)}
}

// NewStaticVerifierFromEnv parses API_SESSION_TOKENS, a comma-separated list
// of token:userID pairs.
func NewStaticVerifierFromEnv(raw string) *StaticVerifier {
	v := NewStaticVerifier()
	for _, pair := range strings.Split(raw, ",") {
		token, userID, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || token == "" || userID == "" {
			continue
		}
		v.Add(token, User{ID: userID})
	}
	return v
}

func (v *StaticVerifier) Add(token string, user User) {
	v.users[token] = user
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (User, error) {
	user, ok := v.users[strings.TrimSpace(token)]
	if !ok {
		return User{}, ErrUnauthorized
	}
	return user, nil
}

type ctxKey struct{}

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFrom returns the authenticated user, if any.
func UserFrom(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(ctxKey{}).(User)
	return user, ok && user.ID != ""
}
