package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/household-ledger/internal/auth"
	"example.com/household-ledger/internal/notifications"
	"example.com/household-ledger/internal/repository"
	"example.com/household-ledger/internal/settlement"
)

type SettlementHandler struct {
	Settlement *settlement.Service
	Notifier   *notifications.Hub
}

// NewSettlementHandler создает обработчик взаиморасчетов.
func NewSettlementHandler(service *settlement.Service, notifier *notifications.Hub) *SettlementHandler {
	return &SettlementHandler{Settlement: service, Notifier: notifier}
}

type CreatePaymentRequest struct {
	Month       int    `json:"month" validate:"required,min=1,max=12"`
	Year        int    `json:"year" validate:"required,min=2000,max=2200"`
	PayeeID     string `json:"payee_id" validate:"required,uuid"`
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
}

// Summary возвращает сводку взаиморасчетов за месяц. Сводка всегда
// пересчитывается с нуля по текущему состоянию книги.
func (h *SettlementHandler) Summary(c echo.Context) error {
	month, year, err := monthYearParams(c)
	if err != nil {
		return err
	}
	sharedOnly := c.QueryParam("shared_only") == "true"

	summary, err := h.Settlement.Summary(c.Request().Context(), month, year, sharedOnly)
	if err != nil {
		return serverError(c)
	}
	return c.JSON(http.StatusOK, summary)
}

// ListPayments возвращает журнал платежей за месяц.
func (h *SettlementHandler) ListPayments(c echo.Context) error {
	month, year, err := monthYearParams(c)
	if err != nil {
		return err
	}

	payments, err := h.Settlement.Payments(c.Request().Context(), month, year)
	if err != nil {
		return serverError(c)
	}
	return c.JSON(http.StatusOK, payments)
}

// CreatePayment записывает перевод в счет долга. Плательщик — текущий
// пользователь; сервис сверяет пару с вычисленными должником и кредитором.
func (h *SettlementHandler) CreatePayment(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	payeeID, err := uuid.Parse(req.PayeeID)
	if err != nil {
		return badRequest(c, "invalid payee id")
	}

	payment, err := h.Settlement.AddPayment(c.Request().Context(), req.Month, req.Year, actor.ID, payeeID, req.AmountCents)
	if err != nil {
		if errors.Is(err, settlement.ErrInvalidAmount) {
			return badRequest(c, "payment amount must be positive")
		}
		if errors.Is(err, settlement.ErrInvalidParticipants) {
			return forbidden(c, "payment must go from the debtor to the creditor")
		}
		return serverError(c)
	}

	h.Notifier.Publish(payeeID, notifications.Event{
		Type: notifications.EventPaymentRecorded,
		Data: payment,
	})
	return c.JSON(http.StatusCreated, payment)
}

// DeletePayment удаляет запись о платеже. Доступно плательщику и админу.
func (h *SettlementHandler) DeletePayment(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	paymentID, err := uuid.Parse(c.Param("paymentId"))
	if err != nil {
		return badRequest(c, "invalid payment id")
	}

	if err := h.Settlement.DeletePayment(c.Request().Context(), paymentID, actor); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "payment not found")
		}
		if errors.Is(err, settlement.ErrNotPayer) {
			return forbidden(c, "only the payer may delete a payment")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}
