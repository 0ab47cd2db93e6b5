package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/mionax/starfusion-manager/internal/api/dto"
	"github.com/mionax/starfusion-manager/internal/auth"
	"github.com/mionax/starfusion-manager/internal/identity"
	"github.com/mionax/starfusion-manager/internal/service"
	apperrors "github.com/mionax/starfusion-manager/pkg/util"
)

// UsersHandler exposes auth endpoints proxied to the identity provider.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewMalformedInput("invalid payload")
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	session, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(sessionBody(session))
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewMalformedInput("invalid payload")
	}
	if len(req.Username) < 3 {
		return apperrors.NewValidationError("username must be at least 3 characters", nil)
	}
	if len(req.Password) < 6 {
		return apperrors.NewValidationError("password must be at least 6 characters", nil)
	}

	session, err := h.auth.Register(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(sessionBody(session))
}

// Info handles GET /user/info. A missing token is an anonymous visitor,
// not an error; an invalid token still fails with 401.
func (h *UsersHandler) Info(c *fiber.Ctx) error {
	token := auth.BearerToken(c)
	if token == "" {
		return c.JSON(dto.UserInfoResponse{
			Authenticated: false,
			Message:       "not authenticated",
		})
	}

	user, err := h.auth.UserInfo(c.UserContext(), token)
	if err != nil {
		return err
	}
	return c.JSON(dto.UserInfoResponse{
		Authenticated: true,
		ID:            user.ID,
		Username:      user.Username,
		Nickname:      user.Nickname,
		Avatar:        user.Avatar,
		Email:         user.Email,
		Phone:         user.Phone,
	})
}

func sessionBody(session *identity.Session) fiber.Map {
	return fiber.Map{
		"data": fiber.Map{
			"user": fiber.Map{
				"id":       session.User.ID,
				"username": session.User.Username,
				"nickname": session.User.Nickname,
				"avatar":   session.User.Avatar,
			},
			"token": session.Token,
		},
	}
}
