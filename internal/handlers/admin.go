package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/household-ledger/internal/auth"
	"example.com/household-ledger/internal/repository"
)

type AdminHandler struct {
	Users *repository.UserRepository
}

// NewAdminHandler создает обработчик административных операций.
func NewAdminHandler(users *repository.UserRepository) *AdminHandler {
	return &AdminHandler{Users: users}
}

type ResetPasswordRequest struct {
	TemporaryPassword string `json:"temporary_password" validate:"required,min=4"`
}

// ListUsers возвращает всех пользователей, включая администратора.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.Users.ListAll(c.Request().Context())
	if err != nil {
		return serverError(c)
	}

	response := make([]AuthUser, 0, len(users))
	for _, user := range users {
		response = append(response, toAuthUser(user))
	}
	return c.JSON(http.StatusOK, response)
}

// ResetPassword выдает пользователю временный пароль. При следующем входе
// пользователь обязан его сменить.
func (h *AdminHandler) ResetPassword(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	passwordHash, err := auth.HashPassword(req.TemporaryPassword)
	if err != nil {
		return serverError(c)
	}

	if err := h.Users.UpdatePassword(c.Request().Context(), userID, passwordHash, true); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "user not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}
