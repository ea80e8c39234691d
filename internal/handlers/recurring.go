package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/household-ledger/internal/approval"
	"example.com/household-ledger/internal/auth"
	"example.com/household-ledger/internal/models"
	"example.com/household-ledger/internal/notifications"
	"example.com/household-ledger/internal/recurring"
	"example.com/household-ledger/internal/repository"
)

type RecurringHandler struct {
	Templates    *repository.RecurringRepository
	Categories   *repository.CategoryRepository
	Materializer *recurring.Materializer
	Notifier     *notifications.Hub
}

// NewRecurringHandler создает обработчик шаблонов регулярных расходов.
func NewRecurringHandler(templates *repository.RecurringRepository, categories *repository.CategoryRepository, materializer *recurring.Materializer, notifier *notifications.Hub) *RecurringHandler {
	return &RecurringHandler{
		Templates:    templates,
		Categories:   categories,
		Materializer: materializer,
		Notifier:     notifier,
	}
}

type CreateRecurringRequest struct {
	CategoryID       string               `json:"category_id" validate:"required,uuid"`
	Description      string               `json:"description" validate:"required,max=200"`
	AmountCents      int64                `json:"amount_cents" validate:"omitempty,gt=0"`
	TotalAmountCents *int64               `json:"total_amount_cents"`
	Type             models.RecurringType `json:"type" validate:"required,oneof=recurring installment"`
	InstallmentCount *int                 `json:"installment_count"`
	IsShared         bool                 `json:"is_shared"`
	SplitRatio       *int                 `json:"split_ratio"`
}

type MaterializeRequest struct {
	Month int `json:"month" validate:"omitempty,min=1,max=12"`
	Year  int `json:"year" validate:"omitempty,min=2000,max=2200"`
}

type MaterializeResponse struct {
	Created int `json:"created"`
	Month   int `json:"month"`
	Year    int `json:"year"`
}

// List возвращает все шаблоны, включая деактивированные.
func (h *RecurringHandler) List(c echo.Context) error {
	templates, err := h.Templates.List(c.Request().Context())
	if err != nil {
		return serverError(c)
	}
	return c.JSON(http.StatusOK, templates)
}

// Create добавляет шаблон. Как и расходы, шаблон начинает жизнь в pending
// и материализуется только после подтверждения.
func (h *RecurringHandler) Create(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateRecurringRequest
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

	template := models.RecurringExpense{
		ID:         uuid.New(),
		CreatedBy:  actor.ID,
		CategoryID: categoryID,
		IsActive:   true,
		Status:     models.StatusPending,
	}
	if msg := applyTemplateRequest(&template, req); msg != "" {
		return badRequest(c, msg)
	}

	if _, err := h.Categories.GetByID(c.Request().Context(), categoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "category not found")
		}
		return serverError(c)
	}

	if err := h.Templates.Create(c.Request().Context(), &template); err != nil {
		return serverError(c)
	}

	created, err := h.Templates.GetByID(c.Request().Context(), template.ID)
	if err != nil {
		return serverError(c)
	}

	h.Notifier.Broadcast(actor.ID, notifications.Event{
		Type: notifications.EventRecurringPending,
		Data: created,
	})
	return c.JSON(http.StatusCreated, created)
}

// applyTemplateRequest переносит проверенные поля запроса в шаблон.
// Возвращает текст ошибки валидации или пустую строку. Для рассрочки
// остаток всегда переустанавливается в число долей: неподтвержденный
// шаблон еще ничего не породил.
func applyTemplateRequest(t *models.RecurringExpense, req CreateRecurringRequest) string {
	ratio, ok := resolveSplitRatio(req.IsShared, req.SplitRatio)
	if !ok {
		return "split ratio must be between 1 and 99"
	}

	t.Description = strings.TrimSpace(req.Description)
	t.AmountCents = req.AmountCents
	t.TotalAmountCents = nil
	t.Type = req.Type
	t.InstallmentCount = nil
	t.InstallmentsRemaining = nil
	t.IsShared = req.IsShared
	t.SplitRatio = ratio

	switch req.Type {
	case models.TypeInstallment:
		if req.InstallmentCount == nil || *req.InstallmentCount < 2 {
			return "installment count must be at least 2"
		}
		if req.TotalAmountCents != nil && *req.TotalAmountCents <= 0 {
			return "total amount must be positive"
		}
		if req.TotalAmountCents == nil && req.AmountCents <= 0 {
			return "amount or total amount is required"
		}

		count := *req.InstallmentCount
		remaining := count
		t.InstallmentCount = &count
		t.InstallmentsRemaining = &remaining
		t.TotalAmountCents = req.TotalAmountCents
		if req.AmountCents <= 0 {
			// Сумма доли не задана явно — выводим из общей суммы.
			t.AmountCents = *req.TotalAmountCents / int64(count)
		}
	case models.TypeRecurring:
		if req.AmountCents <= 0 {
			return "amount must be positive"
		}
	}

	return ""
}

// Update редактирует шаблон, пока тот ждет решения. Доступно только
// автору; решенный шаблон неизменяем — подтверждались его условия.
func (h *RecurringHandler) Update(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	templateID, err := uuid.Parse(c.Param("recurringId"))
	if err != nil {
		return badRequest(c, "invalid template id")
	}

	var req CreateRecurringRequest
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

	template, err := h.Templates.GetByID(c.Request().Context(), templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "template not found")
		}
		return serverError(c)
	}
	if template.CreatedBy != actor.ID {
		return forbidden(c, "only the creator may edit a template")
	}

	template.CategoryID = categoryID
	if msg := applyTemplateRequest(&template, req); msg != "" {
		return badRequest(c, msg)
	}

	if _, err := h.Categories.GetByID(c.Request().Context(), categoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "category not found")
		}
		return serverError(c)
	}

	if err := h.Templates.UpdatePending(c.Request().Context(), &template); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "template not found")
		}
		if errors.Is(err, repository.ErrInvalidState) {
			return conflict(c, "decided templates cannot be edited")
		}
		return serverError(c)
	}

	updated, err := h.Templates.GetByID(c.Request().Context(), templateID)
	if err != nil {
		return serverError(c)
	}

	// Второй участник решает по новым условиям, поэтому уведомляется заново.
	h.Notifier.Broadcast(actor.ID, notifications.Event{
		Type: notifications.EventRecurringPending,
		Data: updated,
	})
	return c.JSON(http.StatusOK, updated)
}

// Approve подтверждает шаблон и тем самым разрешает материализацию.
func (h *RecurringHandler) Approve(c echo.Context) error {
	return h.decide(c, h.Templates.Approve)
}

// Reject отклоняет шаблон.
func (h *RecurringHandler) Reject(c echo.Context) error {
	return h.decide(c, h.Templates.Reject)
}

func (h *RecurringHandler) decide(c echo.Context, transition func(ctx context.Context, id, approverID uuid.UUID) error) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	templateID, err := uuid.Parse(c.Param("recurringId"))
	if err != nil {
		return badRequest(c, "invalid template id")
	}

	template, err := h.Templates.GetByID(c.Request().Context(), templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "template not found")
		}
		return serverError(c)
	}

	if err := approval.EnsureCanDecide(&template, actor); err != nil {
		if errors.Is(err, approval.ErrSelfDecision) {
			return forbidden(c, "creator cannot decide own template")
		}
		return conflict(c, "template is already decided")
	}

	if err := transition(c.Request().Context(), templateID, actor.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "template not found")
		}
		if errors.Is(err, repository.ErrInvalidState) {
			return conflict(c, "template is already decided")
		}
		return serverError(c)
	}

	decided, err := h.Templates.GetByID(c.Request().Context(), templateID)
	if err != nil {
		return serverError(c)
	}

	h.Notifier.Publish(decided.CreatedBy, notifications.Event{
		Type: notifications.EventRecurringDecided,
		Data: decided,
	})
	return c.JSON(http.StatusOK, decided)
}

// Deactivate останавливает будущую материализацию шаблона. Уже порожденные
// расходы остаются в книге.
func (h *RecurringHandler) Deactivate(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	templateID, err := uuid.Parse(c.Param("recurringId"))
	if err != nil {
		return badRequest(c, "invalid template id")
	}

	template, err := h.Templates.GetByID(c.Request().Context(), templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "template not found")
		}
		return serverError(c)
	}
	if !actor.IsAdmin && template.CreatedBy != actor.ID {
		return forbidden(c, "only the creator may deactivate a template")
	}

	if err := h.Templates.Deactivate(c.Request().Context(), templateID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "template not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}

// Materialize явно прогоняет материализацию за период. Повторный вызов
// безопасен: за период каждый шаблон порождает не больше одного расхода.
func (h *RecurringHandler) Materialize(c echo.Context) error {
	var req MaterializeRequest
	if err := c.Bind(&req); err != nil && !errors.Is(err, io.EOF) {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	now := time.Now()
	month, year := req.Month, req.Year
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}

	created, err := h.Materializer.Run(c.Request().Context(), month, year)
	if err != nil {
		slog.Error("materialization finished with errors",
			slog.Int("created", created),
			slog.String("error", err.Error()),
		)
		return serverError(c)
	}

	return c.JSON(http.StatusOK, MaterializeResponse{Created: created, Month: month, Year: year})
}
