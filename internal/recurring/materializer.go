// Package recurring материализует расходы из шаблонов: на каждый не
// покрытый период активный подтвержденный шаблон порождает ровно одну
// запись расхода.
package recurring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"example.com/household-ledger/internal/models"
)

type TemplateStore interface {
	ListActiveApproved(ctx context.Context) ([]models.RecurringExpense, error)
	// ConsumeInstallment атомарно уменьшает остаток и деактивирует шаблон,
	// когда остаток доходит до нуля. Для исчерпанного шаблона — no-op.
	ConsumeInstallment(ctx context.Context, id uuid.UUID) error
}

type InstanceStore interface {
	// InsertMaterialized вставляет порожденный расход; возвращает false,
	// если для пары (шаблон, период) запись уже существует.
	InsertMaterialized(ctx context.Context, e *models.Expense) (bool, error)
}

// Materializer раскрывает шаблоны в датированные расходы за период.
type Materializer struct {
	templates TemplateStore
	expenses  InstanceStore
}

// NewMaterializer создает материализатор над хранилищами шаблонов и расходов.
func NewMaterializer(templates TemplateStore, expenses InstanceStore) *Materializer {
	return &Materializer{templates: templates, expenses: expenses}
}

// BuildInstance строит расход из шаблона для (month, year). Возвращает
// false, если шаблон рассрочки уже исчерпан. Статус нового расхода всегда
// pending: материализация никогда не подтверждает сама себя, запись входит
// в ту же машину подтверждения, что и ручные расходы.
func BuildInstance(tmpl models.RecurringExpense, month, year int) (models.Expense, bool) {
	expenseDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)

	expense := models.Expense{
		ID:                 uuid.New(),
		CreatedBy:          tmpl.CreatedBy,
		CategoryID:         tmpl.CategoryID,
		Description:        tmpl.Description,
		AmountCents:        tmpl.AmountCents,
		ExpenseDate:        expenseDate,
		ExpenseMonth:       month,
		ExpenseYear:        year,
		IsShared:           tmpl.IsShared,
		SplitRatio:         tmpl.SplitRatio,
		RecurringExpenseID: &tmpl.ID,
		Status:             models.StatusPending,
	}

	if tmpl.Type != models.TypeInstallment {
		return expense, true
	}

	if tmpl.InstallmentCount == nil || tmpl.InstallmentsRemaining == nil || *tmpl.InstallmentsRemaining <= 0 {
		return models.Expense{}, false
	}

	count := *tmpl.InstallmentCount
	remaining := *tmpl.InstallmentsRemaining

	no := count - remaining + 1
	expense.IsInstallment = true
	expense.InstallmentNo = &no
	expense.InstallmentTotal = tmpl.InstallmentCount
	expense.AmountCents = installmentAmount(tmpl.AmountCents, tmpl.TotalAmountCents, count, remaining)

	return expense, true
}

// installmentAmount: при заданной общей сумме последняя доля вбирает остаток
// деления, чтобы сумма всех долей сошлась с total до цента.
func installmentAmount(perPeriodCents int64, totalCents *int64, count, remaining int) int64 {
	if totalCents == nil || count <= 0 {
		return perPeriodCents
	}

	per := *totalCents / int64(count)
	if remaining == 1 {
		return *totalCents - per*int64(count-1)
	}
	return per
}

// Run материализует все активные подтвержденные шаблоны для (month, year)
// и возвращает число созданных расходов. Повторный вызов безопасен:
// уникальность по (шаблон, период) обеспечивает хранилище. Сбой одного
// шаблона не прерывает остальные; ошибки собираются и возвращаются разом.
func (m *Materializer) Run(ctx context.Context, month, year int) (int, error) {
	templates, err := m.templates.ListActiveApproved(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active templates: %w", err)
	}

	created := 0
	var errs []error

	for _, tmpl := range templates {
		expense, ok := BuildInstance(tmpl, month, year)
		if !ok {
			// Исчерпанная рассрочка — no-op, не ошибка.
			continue
		}

		inserted, err := m.expenses.InsertMaterialized(ctx, &expense)
		if err != nil {
			errs = append(errs, fmt.Errorf("template %s: insert expense: %w", tmpl.ID, err))
			continue
		}
		if !inserted {
			// Уже материализовано за этот период.
			continue
		}

		if tmpl.Type == models.TypeInstallment {
			if err := m.templates.ConsumeInstallment(ctx, tmpl.ID); err != nil {
				errs = append(errs, fmt.Errorf("template %s: consume installment: %w", tmpl.ID, err))
				continue
			}
		}

		created++
		slog.Info("materialized recurring expense",
			slog.String("template_id", tmpl.ID.String()),
			slog.String("description", tmpl.Description),
			slog.Int64("amount_cents", expense.AmountCents),
			slog.Int("month", month),
			slog.Int("year", year),
		)
	}

	return created, errors.Join(errs...)
}
