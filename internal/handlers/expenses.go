package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/household-ledger/internal/approval"
	"example.com/household-ledger/internal/auth"
	"example.com/household-ledger/internal/models"
	"example.com/household-ledger/internal/notifications"
	"example.com/household-ledger/internal/repository"
)

type ExpenseHandler struct {
	Expenses   *repository.ExpenseRepository
	Categories *repository.CategoryRepository
	Notifier   *notifications.Hub
}

// NewExpenseHandler создает обработчик расходной книги.
func NewExpenseHandler(expenses *repository.ExpenseRepository, categories *repository.CategoryRepository, notifier *notifications.Hub) *ExpenseHandler {
	return &ExpenseHandler{Expenses: expenses, Categories: categories, Notifier: notifier}
}

type CreateExpenseRequest struct {
	CategoryID  string `json:"category_id" validate:"required,uuid"`
	Description string `json:"description" validate:"required,max=200"`
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
	ExpenseDate string `json:"expense_date" validate:"required"`
	IsShared    bool   `json:"is_shared"`
	SplitRatio  *int   `json:"split_ratio"`
}

// List возвращает расходы периода, по умолчанию — текущего месяца.
func (h *ExpenseHandler) List(c echo.Context) error {
	month, year, err := monthYearParams(c)
	if err != nil {
		return err
	}

	expenses, err := h.Expenses.ListByMonth(c.Request().Context(), month, year)
	if err != nil {
		return serverError(c)
	}
	return c.JSON(http.StatusOK, expenses)
}

// Create добавляет расход. Любой новый расход начинает жизнь в pending
// и ждет решения второго участника.
func (h *ExpenseHandler) Create(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateExpenseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return badRequest(c, "invalid category id")
	}

	expenseDate, err := time.Parse("2006-01-02", req.ExpenseDate)
	if err != nil {
		return badRequest(c, "invalid expense date, expected YYYY-MM-DD")
	}

	splitRatio, ok := resolveSplitRatio(req.IsShared, req.SplitRatio)
	if !ok {
		return badRequest(c, "split ratio must be between 1 and 99")
	}

	if _, err := h.Categories.GetByID(c.Request().Context(), categoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "category not found")
		}
		return serverError(c)
	}

	expense := models.Expense{
		ID:           uuid.New(),
		CreatedBy:    actor.ID,
		CategoryID:   categoryID,
		Description:  strings.TrimSpace(req.Description),
		AmountCents:  req.AmountCents,
		ExpenseDate:  expenseDate,
		ExpenseMonth: int(expenseDate.Month()),
		ExpenseYear:  expenseDate.Year(),
		IsShared:     req.IsShared,
		SplitRatio:   splitRatio,
		Status:       models.StatusPending,
	}

	if err := h.Expenses.Create(c.Request().Context(), &expense); err != nil {
		return serverError(c)
	}

	// Перечитываем с джойнами, чтобы отдать имена автора и категории.
	created, err := h.Expenses.GetByID(c.Request().Context(), expense.ID)
	if err != nil {
		return serverError(c)
	}

	h.Notifier.Broadcast(actor.ID, notifications.Event{
		Type: notifications.EventExpensePending,
		Data: created,
	})
	return c.JSON(http.StatusCreated, created)
}

// Update редактирует расход, пока тот ждет решения. Доступно только
// автору; решенная запись неизменяема.
func (h *ExpenseHandler) Update(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	expenseID, err := uuid.Parse(c.Param("expenseId"))
	if err != nil {
		return badRequest(c, "invalid expense id")
	}

	var req CreateExpenseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return badRequest(c, "invalid category id")
	}

	expenseDate, err := time.Parse("2006-01-02", req.ExpenseDate)
	if err != nil {
		return badRequest(c, "invalid expense date, expected YYYY-MM-DD")
	}

	splitRatio, ok := resolveSplitRatio(req.IsShared, req.SplitRatio)
	if !ok {
		return badRequest(c, "split ratio must be between 1 and 99")
	}

	expense, err := h.Expenses.GetByID(c.Request().Context(), expenseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "expense not found")
		}
		return serverError(c)
	}
	if expense.CreatedBy != actor.ID {
		return forbidden(c, "only the creator may edit an expense")
	}

	if _, err := h.Categories.GetByID(c.Request().Context(), categoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "category not found")
		}
		return serverError(c)
	}

	expense.CategoryID = categoryID
	expense.Description = strings.TrimSpace(req.Description)
	expense.AmountCents = req.AmountCents
	expense.ExpenseDate = expenseDate
	expense.ExpenseMonth = int(expenseDate.Month())
	expense.ExpenseYear = expenseDate.Year()
	expense.IsShared = req.IsShared
	expense.SplitRatio = splitRatio

	if err := h.Expenses.UpdatePending(c.Request().Context(), &expense); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "expense not found")
		}
		if errors.Is(err, repository.ErrInvalidState) {
			return conflict(c, "decided expenses cannot be edited")
		}
		return serverError(c)
	}

	updated, err := h.Expenses.GetByID(c.Request().Context(), expenseID)
	if err != nil {
		return serverError(c)
	}

	// Второй участник решает по новым условиям, поэтому уведомляется заново.
	h.Notifier.Broadcast(actor.ID, notifications.Event{
		Type: notifications.EventExpensePending,
		Data: updated,
	})
	return c.JSON(http.StatusOK, updated)
}

// Approve подтверждает расход. Решает второй участник или админ.
func (h *ExpenseHandler) Approve(c echo.Context) error {
	return h.decide(c, h.Expenses.Approve, notifications.EventExpenseApproved)
}

// Reject отклоняет расход.
func (h *ExpenseHandler) Reject(c echo.Context) error {
	return h.decide(c, h.Expenses.Reject, notifications.EventExpenseRejected)
}

// decide выполняет общий переход pending -> approved|rejected: проверка прав,
// условный UPDATE в хранилище, уведомление автора.
func (h *ExpenseHandler) decide(c echo.Context, transition func(ctx context.Context, id, approverID uuid.UUID) error, eventType string) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	expenseID, err := uuid.Parse(c.Param("expenseId"))
	if err != nil {
		return badRequest(c, "invalid expense id")
	}

	expense, err := h.Expenses.GetByID(c.Request().Context(), expenseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "expense not found")
		}
		return serverError(c)
	}

	if err := approval.EnsureCanDecide(&expense, actor); err != nil {
		if errors.Is(err, approval.ErrSelfDecision) {
			return forbidden(c, "creator cannot decide own expense")
		}
		return conflict(c, "expense is already decided")
	}

	if err := transition(c.Request().Context(), expenseID, actor.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "expense not found")
		}
		if errors.Is(err, repository.ErrInvalidState) {
			// Конкурирующее решение прошло первым.
			return conflict(c, "expense is already decided")
		}
		return serverError(c)
	}

	decided, err := h.Expenses.GetByID(c.Request().Context(), expenseID)
	if err != nil {
		return serverError(c)
	}

	h.Notifier.Publish(decided.CreatedBy, notifications.Event{
		Type: eventType,
		Data: decided,
	})
	return c.JSON(http.StatusOK, decided)
}

// Delete удаляет расход. Доступно только автору и только пока запись
// не решена.
func (h *ExpenseHandler) Delete(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	expenseID, err := uuid.Parse(c.Param("expenseId"))
	if err != nil {
		return badRequest(c, "invalid expense id")
	}

	expense, err := h.Expenses.GetByID(c.Request().Context(), expenseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "expense not found")
		}
		return serverError(c)
	}
	if !actor.IsAdmin && expense.CreatedBy != actor.ID {
		return forbidden(c, "only the creator may delete an expense")
	}

	if err := h.Expenses.DeletePending(c.Request().Context(), expenseID, expense.CreatedBy); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "expense not found")
		}
		if errors.Is(err, repository.ErrInvalidState) {
			return conflict(c, "decided expenses cannot be deleted")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}
