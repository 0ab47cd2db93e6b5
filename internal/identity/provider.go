package identity

import (
	"context"
	"errors"
)

// ErrInvalidToken reports a missing, malformed, expired or revoked
// credential. Everything else coming out of a Provider is an upstream
// failure.
var ErrInvalidToken = errors.New("invalid token")

// UserInfo is the provider's view of an authenticated user.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Session is the outcome of a successful login or registration.
type Session struct {
	User  UserInfo `json:"user"`
	Token string   `json:"token"`
}

// Provider is the identity collaborator: it validates opaque bearer
// tokens and hands back the user's custom entitlement data. Possibly slow,
// possibly unavailable; never trusted blindly.
type Provider interface {
	Validate(ctx context.Context, token string) (*UserInfo, error)
	CustomData(ctx context.Context, token string) ([]byte, error)
	Login(ctx context.Context, username, password string) (*Session, error)
	Register(ctx context.Context, username, password string) (*Session, error)
}
