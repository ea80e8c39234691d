package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/household-ledger/internal/auth"
	"example.com/household-ledger/internal/models"
	"example.com/household-ledger/internal/repository"
)

type AuthHandler struct {
	Users        *repository.UserRepository
	TokenManager *auth.TokenManager
}

// NewAuthHandler создает обработчик авторизации.
func NewAuthHandler(users *repository.UserRepository, manager *auth.TokenManager) *AuthHandler {
	return &AuthHandler{Users: users, TokenManager: manager}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=4"`
}

type AuthUser struct {
	ID                 uuid.UUID `json:"id"`
	Username           string    `json:"username"`
	DisplayName        string    `json:"display_name"`
	IsAdmin            bool      `json:"is_admin"`
	MustChangePassword bool      `json:"must_change_password"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

type UserResponse struct {
	User AuthUser `json:"user"`
}

// Login выполняет вход, ставит cookie сессии и возвращает токен.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))

	user, err := h.Users.GetByUsername(c.Request().Context(), username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return unauthorized(c)
		}
		return serverError(c)
	}

	if err = auth.ComparePassword(user.PasswordHash, req.Password); err != nil {
		return unauthorized(c)
	}

	token, expiresAt, err := h.TokenManager.Issue(user)
	if err != nil {
		return serverError(c)
	}

	h.setSessionCookie(c, token, expiresAt)
	return c.JSON(http.StatusOK, AuthResponse{Token: token, User: toAuthUser(user)})
}

// Logout гасит cookie сессии. Токен не отзывается: срок жизни короткий.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.setSessionCookie(c, "", time.Unix(0, 0))
	return c.NoContent(http.StatusNoContent)
}

// Me возвращает данные текущего пользователя.
func (h *AuthHandler) Me(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	user, err := h.Users.GetByID(c.Request().Context(), actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "user not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, UserResponse{User: toAuthUser(user)})
}

// ChangePassword меняет пароль текущего пользователя, снимает флаг
// обязательной смены и перевыпускает токен.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	user, err := h.Users.GetByID(c.Request().Context(), actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return unauthorized(c)
		}
		return serverError(c)
	}

	if err = auth.ComparePassword(user.PasswordHash, req.CurrentPassword); err != nil {
		return unauthorized(c)
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return serverError(c)
	}

	if err := h.Users.UpdatePassword(c.Request().Context(), user.ID, passwordHash, false); err != nil {
		return serverError(c)
	}
	user.MustChangePassword = false

	token, expiresAt, err := h.TokenManager.Issue(user)
	if err != nil {
		return serverError(c)
	}

	h.setSessionCookie(c, token, expiresAt)
	return c.JSON(http.StatusOK, AuthResponse{Token: token, User: toAuthUser(user)})
}

func (h *AuthHandler) setSessionCookie(c echo.Context, token string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func toAuthUser(user models.User) AuthUser {
	return AuthUser{
		ID:                 user.ID,
		Username:           user.Username,
		DisplayName:        user.DisplayName,
		IsAdmin:            user.IsAdmin,
		MustChangePassword: user.MustChangePassword,
	}
}
