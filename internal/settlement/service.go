package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"example.com/household-ledger/internal/approval"
	"example.com/household-ledger/internal/models"
)

var (
	// ErrInvalidAmount: сумма платежа должна быть строго положительной.
	ErrInvalidAmount = errors.New("payment amount must be positive")
	// ErrInvalidParticipants: пара (плательщик, получатель) не совпадает с
	// вычисленной парой (должник, кредитор) за месяц.
	ErrInvalidParticipants = errors.New("payment participants do not match the settled debtor/creditor pair")
	// ErrNotPayer: удалять платеж может только исходный плательщик или админ.
	ErrNotPayer = errors.New("only the original payer may delete a payment")
)

type UserSource interface {
	ListHousehold(ctx context.Context) ([]models.User, error)
}

type ExpenseSource interface {
	ListApprovedByMonth(ctx context.Context, month, year int) ([]models.Expense, error)
}

type PaymentStore interface {
	ListByMonth(ctx context.Context, month, year int) ([]models.Payment, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.Payment, error)
	Create(ctx context.Context, p *models.Payment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service собирает входы калькулятора из хранилищ и ведет журнал платежей.
type Service struct {
	users    UserSource
	expenses ExpenseSource
	payments PaymentStore
}

// NewService создает сервис взаиморасчетов.
func NewService(users UserSource, expenses ExpenseSource, payments PaymentStore) *Service {
	return &Service{users: users, expenses: expenses, payments: payments}
}

// Summary пересчитывает сводку за месяц с нуля по текущему состоянию книги.
func (s *Service) Summary(ctx context.Context, month, year int, sharedOnly bool) (models.MonthlySummary, error) {
	users, err := s.users.ListHousehold(ctx)
	if err != nil {
		return models.MonthlySummary{}, fmt.Errorf("list household users: %w", err)
	}

	expenses, err := s.expenses.ListApprovedByMonth(ctx, month, year)
	if err != nil {
		return models.MonthlySummary{}, fmt.Errorf("list approved expenses: %w", err)
	}

	payments, err := s.payments.ListByMonth(ctx, month, year)
	if err != nil {
		return models.MonthlySummary{}, fmt.Errorf("list payments: %w", err)
	}

	return Compute(month, year, users, expenses, payments, sharedOnly), nil
}

// Payments возвращает журнал платежей за месяц.
func (s *Service) Payments(ctx context.Context, month, year int) ([]models.Payment, error) {
	return s.payments.ListByMonth(ctx, month, year)
}

// AddPayment записывает перевод в счет долга. Журнал не доверяет вызывающему:
// пара участников сверяется с вычисленной парой должник/кредитор заново.
// Потолок на сумму не ставится — переплата прижимается к нулю при чтении.
func (s *Service) AddPayment(ctx context.Context, month, year int, payerID, payeeID uuid.UUID, amountCents int64) (models.Payment, error) {
	if amountCents <= 0 {
		return models.Payment{}, ErrInvalidAmount
	}
	if payerID == payeeID {
		return models.Payment{}, ErrInvalidParticipants
	}

	summary, err := s.Summary(ctx, month, year, true)
	if err != nil {
		return models.Payment{}, err
	}
	if summary.DebtorID == nil || summary.CreditorID == nil {
		return models.Payment{}, ErrInvalidParticipants
	}
	if payerID != *summary.DebtorID || payeeID != *summary.CreditorID {
		return models.Payment{}, ErrInvalidParticipants
	}

	payment := models.Payment{
		ID:          uuid.New(),
		Month:       month,
		Year:        year,
		PayerID:     payerID,
		PayeeID:     payeeID,
		AmountCents: amountCents,
	}
	if err := s.payments.Create(ctx, &payment); err != nil {
		return models.Payment{}, fmt.Errorf("create payment: %w", err)
	}

	return payment, nil
}

// DeletePayment физически удаляет запись; сводка в следующий раз
// пересчитается по оставшемуся набору, компенсирующих записей нет.
func (s *Service) DeletePayment(ctx context.Context, id uuid.UUID, actor approval.Actor) error {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !actor.IsAdmin && payment.PayerID != actor.ID {
		return ErrNotPayer
	}

	return s.payments.Delete(ctx, id)
}
