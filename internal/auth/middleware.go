package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mionax/starfusion-manager/internal/identity"
	apperrors "github.com/mionax/starfusion-manager/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User  *identity.UserInfo
	Token string
}

// Middleware validates bearer tokens against the identity provider and
// loads principals.
type Middleware struct {
	provider identity.Provider
}

// NewMiddleware constructs middleware.
func NewMiddleware(provider identity.Provider) *Middleware {
	return &Middleware{provider: provider}
}

// BearerToken extracts the token from the Authorization header, empty
// when absent or malformed.
func BearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	token := BearerToken(c)
	if token == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	user, err := m.provider.Validate(c.UserContext(), token)
	if err != nil {
		if err == identity.ErrInvalidToken {
			return apperrors.NewUnauthorized("invalid token")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{User: user, Token: token})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
