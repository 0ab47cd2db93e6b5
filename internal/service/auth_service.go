package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/mionax/starfusion-manager/internal/events"
	"github.com/mionax/starfusion-manager/internal/identity"
)

// AuthService fronts the identity provider for login, registration and
// user lookups, publishing audit events on success.
type AuthService struct {
	provider   identity.Provider
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(provider identity.Provider, dispatcher events.Dispatcher, logger *zap.Logger) *AuthService {
	return &AuthService{provider: provider, dispatcher: dispatcher, logger: logger}
}

// Login authenticates a username/password pair with the identity provider.
func (s *AuthService) Login(ctx context.Context, username, password string) (*identity.Session, error) {
	session, err := s.provider.Login(ctx, username, password)
	if err != nil {
		return nil, mapIdentityError(err)
	}
	_ = s.dispatcher.Publish(ctx, events.New(events.EventUserLoggedIn, session.User.ID, map[string]any{
		"username": session.User.Username,
	}))
	return session, nil
}

// Register creates a provider account and logs the new user in.
func (s *AuthService) Register(ctx context.Context, username, password string) (*identity.Session, error) {
	session, err := s.provider.Register(ctx, username, password)
	if err != nil {
		return nil, mapIdentityError(err)
	}
	_ = s.dispatcher.Publish(ctx, events.New(events.EventUserRegistered, session.User.ID, map[string]any{
		"username": session.User.Username,
	}))
	return session, nil
}

// UserInfo returns the user behind a bearer token.
func (s *AuthService) UserInfo(ctx context.Context, token string) (*identity.UserInfo, error) {
	user, err := s.provider.Validate(ctx, token)
	if err != nil {
		return nil, mapIdentityError(err)
	}
	return user, nil
}
