package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/household-ledger/internal/models"
)

type PaymentRepository struct {
	db *pgxpool.Pool
}

// NewPaymentRepository создает репозиторий журнала платежей.
func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentSelect = `
	SELECT p.id, p.month, p.year, p.payer_id, payer.display_name,
	       p.payee_id, payee.display_name, p.amount_cents, p.created_at
	FROM payments p
	JOIN users payer ON payer.id = p.payer_id
	JOIN users payee ON payee.id = p.payee_id`

func scanPayment(row pgx.Row) (models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.Month, &p.Year, &p.PayerID, &p.PayerName,
		&p.PayeeID, &p.PayeeName, &p.AmountCents, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, ErrNotFound
		}
		return p, err
	}
	return p, nil
}

// ListByMonth возвращает платежи месяца, новые первыми.
func (r *PaymentRepository) ListByMonth(ctx context.Context, month, year int) ([]models.Payment, error) {
	rows, err := r.db.Query(ctx,
		paymentSelect+` WHERE p.month = $1 AND p.year = $2 ORDER BY p.created_at DESC`,
		month, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// GetByID возвращает платеж по идентификатору.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, paymentSelect+` WHERE p.id = $1`, id))
}

// Create добавляет запись в журнал.
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO payments (id, month, year, payer_id, payee_id, amount_cents)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		p.ID, p.Month, p.Year, p.PayerID, p.PayeeID, p.AmountCents,
	).Scan(&p.CreatedAt)
}

// Delete физически удаляет платеж.
func (r *PaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
