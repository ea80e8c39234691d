package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/household-ledger/internal/models"
)

type RecurringRepository struct {
	db *pgxpool.Pool
}

// NewRecurringRepository создает репозиторий шаблонов.
func NewRecurringRepository(db *pgxpool.Pool) *RecurringRepository {
	return &RecurringRepository{db: db}
}

const recurringSelect = `
	SELECT r.id, r.created_by, u.display_name, r.category_id, c.name, c.icon,
	       r.description, r.amount_cents, r.total_amount_cents, r.type,
	       r.installment_count, r.installments_remaining, r.is_shared, r.split_ratio,
	       r.is_active, r.status, r.approved_by, a.display_name, r.created_at
	FROM recurring_expenses r
	JOIN users u ON u.id = r.created_by
	JOIN categories c ON c.id = r.category_id
	LEFT JOIN users a ON a.id = r.approved_by`

func scanRecurring(row pgx.Row) (models.RecurringExpense, error) {
	var t models.RecurringExpense
	err := row.Scan(
		&t.ID, &t.CreatedBy, &t.CreatorName, &t.CategoryID, &t.CategoryName, &t.CategoryIcon,
		&t.Description, &t.AmountCents, &t.TotalAmountCents, &t.Type,
		&t.InstallmentCount, &t.InstallmentsRemaining, &t.IsShared, &t.SplitRatio,
		&t.IsActive, &t.Status, &t.ApprovedBy, &t.ApproverName, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return t, ErrNotFound
		}
		return t, err
	}
	return t, nil
}

func (r *RecurringRepository) queryTemplates(ctx context.Context, query string, args ...any) ([]models.RecurringExpense, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]models.RecurringExpense, 0)
	for rows.Next() {
		t, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// List возвращает все шаблоны, включая деактивированные: завершенная
// рассрочка остается видимой историей.
func (r *RecurringRepository) List(ctx context.Context) ([]models.RecurringExpense, error) {
	return r.queryTemplates(ctx, recurringSelect+` ORDER BY r.created_at DESC`)
}

// ListActiveApproved возвращает шаблоны, которым разрешено порождать
// расходы: активные и подтвержденные.
func (r *RecurringRepository) ListActiveApproved(ctx context.Context) ([]models.RecurringExpense, error) {
	return r.queryTemplates(ctx,
		recurringSelect+` WHERE r.is_active = TRUE AND r.status = $1 ORDER BY r.created_at`,
		models.StatusApproved)
}

// GetByID возвращает шаблон по идентификатору.
func (r *RecurringRepository) GetByID(ctx context.Context, id uuid.UUID) (models.RecurringExpense, error) {
	return scanRecurring(r.db.QueryRow(ctx, recurringSelect+` WHERE r.id = $1`, id))
}

// Create добавляет шаблон.
func (r *RecurringRepository) Create(ctx context.Context, t *models.RecurringExpense) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO recurring_expenses (id, created_by, category_id, description, amount_cents,
		                                 total_amount_cents, type, installment_count, installments_remaining,
		                                 is_shared, split_ratio, is_active, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING created_at`,
		t.ID, t.CreatedBy, t.CategoryID, t.Description, t.AmountCents,
		t.TotalAmountCents, t.Type, t.InstallmentCount, t.InstallmentsRemaining,
		t.IsShared, t.SplitRatio, t.IsActive, t.Status,
	).Scan(&t.CreatedAt)
}

// UpdatePending переписывает шаблон, пока он в pending и принадлежит
// автору. Неподтвержденный шаблон еще ничего не породил, поэтому остаток
// рассрочки переустанавливается вместе с числом долей.
func (r *RecurringRepository) UpdatePending(ctx context.Context, t *models.RecurringExpense) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE recurring_expenses
		 SET category_id = $3, description = $4, amount_cents = $5, total_amount_cents = $6,
		     type = $7, installment_count = $8, installments_remaining = $9,
		     is_shared = $10, split_ratio = $11
		 WHERE id = $1 AND created_by = $2 AND status = $12`,
		t.ID, t.CreatedBy, t.CategoryID, t.Description, t.AmountCents, t.TotalAmountCents,
		t.Type, t.InstallmentCount, t.InstallmentsRemaining,
		t.IsShared, t.SplitRatio, models.StatusPending,
	)
	if err != nil {
		return err
	}
	return r.transitionOutcome(ctx, cmd.RowsAffected(), t.ID)
}

// Approve подтверждает шаблон условным UPDATE; подтверждение и есть
// разрешение материализатору порождать расходы.
func (r *RecurringRepository) Approve(ctx context.Context, id, approverID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE recurring_expenses
		 SET status = $3, approved_by = $2
		 WHERE id = $1 AND status = $4`,
		id, approverID, models.StatusApproved, models.StatusPending,
	)
	if err != nil {
		return err
	}
	return r.transitionOutcome(ctx, cmd.RowsAffected(), id)
}

// Reject отклоняет шаблон; отклоненный шаблон никогда не материализуется.
func (r *RecurringRepository) Reject(ctx context.Context, id, approverID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE recurring_expenses
		 SET status = $3, approved_by = $2
		 WHERE id = $1 AND status = $4`,
		id, approverID, models.StatusRejected, models.StatusPending,
	)
	if err != nil {
		return err
	}
	return r.transitionOutcome(ctx, cmd.RowsAffected(), id)
}

// Deactivate останавливает будущую материализацию; уже порожденные расходы
// остаются нетронутыми. Допустимо в любом статусе.
func (r *RecurringRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE recurring_expenses SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeInstallment атомарно списывает одну долю рассрочки; на нуле шаблон
// деактивируется тем же UPDATE. Для исчерпанного шаблона — no-op.
func (r *RecurringRepository) ConsumeInstallment(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE recurring_expenses
		 SET installments_remaining = installments_remaining - 1,
		     is_active = (installments_remaining - 1) > 0
		 WHERE id = $1 AND type = $2 AND installments_remaining > 0`,
		id, models.TypeInstallment,
	)
	return err
}

func (r *RecurringRepository) transitionOutcome(ctx context.Context, affected int64, id uuid.UUID) error {
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM recurring_expenses WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrInvalidState
}
