package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/household-ledger/internal/models"
	"example.com/household-ledger/internal/repository"
)

type CategoryHandler struct {
	Categories *repository.CategoryRepository
}

// NewCategoryHandler создает обработчик справочника категорий.
func NewCategoryHandler(categories *repository.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{Categories: categories}
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Icon string `json:"icon" validate:"max=20"`
}

// List возвращает категории в порядке создания.
func (h *CategoryHandler) List(c echo.Context) error {
	categories, err := h.Categories.List(c.Request().Context())
	if err != nil {
		return serverError(c)
	}
	return c.JSON(http.StatusOK, categories)
}

// Create добавляет категорию. Доступно только администратору.
func (h *CategoryHandler) Create(c echo.Context) error {
	var req CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return badRequest(c, "name is required")
	}

	category := models.Category{ID: uuid.New(), Name: name, Icon: strings.TrimSpace(req.Icon)}
	if err := h.Categories.Create(c.Request().Context(), &category); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return conflict(c, "category already exists")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, category)
}
