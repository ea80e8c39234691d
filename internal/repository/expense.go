package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/household-ledger/internal/models"
)

type ExpenseRepository struct {
	db *pgxpool.Pool
}

// NewExpenseRepository создает репозиторий расходной книги.
func NewExpenseRepository(db *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

const expenseSelect = `
	SELECT e.id, e.created_by, u.display_name, e.category_id, c.name, c.icon,
	       e.description, e.amount_cents, e.expense_date, e.expense_month, e.expense_year,
	       e.is_shared, e.split_ratio, e.is_installment, e.installment_no, e.installment_total,
	       e.recurring_expense_id, e.status, e.approved_by, a.display_name, e.approved_at, e.created_at
	FROM expenses e
	JOIN users u ON u.id = e.created_by
	JOIN categories c ON c.id = e.category_id
	LEFT JOIN users a ON a.id = e.approved_by`

func scanExpense(row pgx.Row) (models.Expense, error) {
	var e models.Expense
	err := row.Scan(
		&e.ID, &e.CreatedBy, &e.CreatorName, &e.CategoryID, &e.CategoryName, &e.CategoryIcon,
		&e.Description, &e.AmountCents, &e.ExpenseDate, &e.ExpenseMonth, &e.ExpenseYear,
		&e.IsShared, &e.SplitRatio, &e.IsInstallment, &e.InstallmentNo, &e.InstallmentTotal,
		&e.RecurringExpenseID, &e.Status, &e.ApprovedBy, &e.ApproverName, &e.ApprovedAt, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return e, ErrNotFound
		}
		return e, err
	}
	return e, nil
}

func (r *ExpenseRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]models.Expense, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]models.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// ListByMonth возвращает все расходы периода независимо от статуса:
// ожидающие решения показываются отдельно, но книгу не искажают.
func (r *ExpenseRepository) ListByMonth(ctx context.Context, month, year int) ([]models.Expense, error) {
	return r.queryExpenses(ctx,
		expenseSelect+`
		WHERE e.expense_month = $1 AND e.expense_year = $2
		ORDER BY e.expense_date DESC, e.created_at DESC`,
		month, year)
}

// ListApprovedByMonth возвращает только подтвержденные расходы периода —
// вход калькулятора взаиморасчетов.
func (r *ExpenseRepository) ListApprovedByMonth(ctx context.Context, month, year int) ([]models.Expense, error) {
	return r.queryExpenses(ctx,
		expenseSelect+`
		WHERE e.expense_month = $1 AND e.expense_year = $2 AND e.status = $3
		ORDER BY e.expense_date, e.created_at`,
		month, year, models.StatusApproved)
}

// GetByID возвращает расход по идентификатору.
func (r *ExpenseRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Expense, error) {
	return scanExpense(r.db.QueryRow(ctx, expenseSelect+` WHERE e.id = $1`, id))
}

// Create добавляет расход, введенный вручную.
func (r *ExpenseRepository) Create(ctx context.Context, e *models.Expense) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO expenses (id, created_by, category_id, description, amount_cents, expense_date,
		                       expense_month, expense_year, is_shared, split_ratio, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING created_at`,
		e.ID, e.CreatedBy, e.CategoryID, e.Description, e.AmountCents, e.ExpenseDate,
		e.ExpenseMonth, e.ExpenseYear, e.IsShared, e.SplitRatio, e.Status,
	).Scan(&e.CreatedAt)
}

// UpdatePending переписывает редактируемые поля расхода, пока запись в
// pending и принадлежит автору. Тот же условный UPDATE, что и у решений:
// запись, успевшая получить решение, редактированию не поддается.
func (r *ExpenseRepository) UpdatePending(ctx context.Context, e *models.Expense) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE expenses
		 SET category_id = $3, description = $4, amount_cents = $5, expense_date = $6,
		     expense_month = $7, expense_year = $8, is_shared = $9, split_ratio = $10
		 WHERE id = $1 AND created_by = $2 AND status = $11`,
		e.ID, e.CreatedBy, e.CategoryID, e.Description, e.AmountCents, e.ExpenseDate,
		e.ExpenseMonth, e.ExpenseYear, e.IsShared, e.SplitRatio, models.StatusPending,
	)
	if err != nil {
		return err
	}
	return r.transitionOutcome(ctx, cmd.RowsAffected(), e.ID)
}

// InsertMaterialized вставляет расход, порожденный шаблоном. Частичный
// уникальный индекс по (recurring_expense_id, expense_month, expense_year)
// делает материализацию идемпотентной: повторная вставка за тот же период
// молча пропускается, возвращается false.
func (r *ExpenseRepository) InsertMaterialized(ctx context.Context, e *models.Expense) (bool, error) {
	cmd, err := r.db.Exec(ctx,
		`INSERT INTO expenses (id, created_by, category_id, description, amount_cents, expense_date,
		                       expense_month, expense_year, is_shared, split_ratio,
		                       is_installment, installment_no, installment_total,
		                       recurring_expense_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (recurring_expense_id, expense_month, expense_year)
		 WHERE recurring_expense_id IS NOT NULL
		 DO NOTHING`,
		e.ID, e.CreatedBy, e.CategoryID, e.Description, e.AmountCents, e.ExpenseDate,
		e.ExpenseMonth, e.ExpenseYear, e.IsShared, e.SplitRatio,
		e.IsInstallment, e.InstallmentNo, e.InstallmentTotal,
		e.RecurringExpenseID, e.Status,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// Approve подтверждает расход одним условным UPDATE: из двух конкурирующих
// решений пройдет ровно одно, второе получит ErrInvalidState.
func (r *ExpenseRepository) Approve(ctx context.Context, id, approverID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE expenses
		 SET status = $3, approved_by = $2, approved_at = NOW()
		 WHERE id = $1 AND status = $4`,
		id, approverID, models.StatusApproved, models.StatusPending,
	)
	if err != nil {
		return err
	}
	return r.transitionOutcome(ctx, cmd.RowsAffected(), id)
}

// Reject отклоняет расход; та же дисциплина условного перехода.
func (r *ExpenseRepository) Reject(ctx context.Context, id, approverID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE expenses
		 SET status = $3, approved_by = $2, approved_at = NOW()
		 WHERE id = $1 AND status = $4`,
		id, approverID, models.StatusRejected, models.StatusPending,
	)
	if err != nil {
		return err
	}
	return r.transitionOutcome(ctx, cmd.RowsAffected(), id)
}

// DeletePending удаляет расход, пока он в pending и принадлежит автору.
// Решенная запись остается в книге навсегда.
func (r *ExpenseRepository) DeletePending(ctx context.Context, id, creatorID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM expenses WHERE id = $1 AND created_by = $2 AND status = $3`,
		id, creatorID, models.StatusPending,
	)
	if err != nil {
		return err
	}
	return r.transitionOutcome(ctx, cmd.RowsAffected(), id)
}

// transitionOutcome различает "запись пропала" и "pending-гард не прошел".
func (r *ExpenseRepository) transitionOutcome(ctx context.Context, affected int64, id uuid.UUID) error {
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM expenses WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrInvalidState
}
