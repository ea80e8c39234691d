package models

import (
	"time"

	"github.com/google/uuid"
)

type ApprovalStatus string

type RecurringType string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"

	TypeRecurring   RecurringType = "recurring"
	TypeInstallment RecurringType = "installment"
)

type User struct {
	ID                 uuid.UUID `json:"id"`
	Username           string    `json:"username"`
	PasswordHash       string    `json:"-"`
	DisplayName        string    `json:"display_name"`
	IsAdmin            bool      `json:"is_admin"`
	MustChangePassword bool      `json:"must_change_password"`
	CreatedAt          time.Time `json:"created_at"`
}

type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Icon string    `json:"icon"`
}

// Expense — строка расходной книги. Суммы хранятся в центах,
// expense_month/expense_year выводятся из expense_date при создании.
type Expense struct {
	ID                 uuid.UUID      `json:"id"`
	CreatedBy          uuid.UUID      `json:"created_by"`
	CreatorName        string         `json:"creator_name"`
	CategoryID         uuid.UUID      `json:"category_id"`
	CategoryName       string         `json:"category_name"`
	CategoryIcon       string         `json:"category_icon"`
	Description        string         `json:"description"`
	AmountCents        int64          `json:"amount_cents"`
	ExpenseDate        time.Time      `json:"expense_date"`
	ExpenseMonth       int            `json:"expense_month"`
	ExpenseYear        int            `json:"expense_year"`
	IsShared           bool           `json:"is_shared"`
	SplitRatio         int            `json:"split_ratio"`
	IsInstallment      bool           `json:"is_installment"`
	InstallmentNo      *int           `json:"installment_no,omitempty"`
	InstallmentTotal   *int           `json:"installment_total,omitempty"`
	RecurringExpenseID *uuid.UUID     `json:"recurring_expense_id,omitempty"`
	Status             ApprovalStatus `json:"status"`
	ApprovedBy         *uuid.UUID     `json:"approved_by,omitempty"`
	ApproverName       *string        `json:"approver_name,omitempty"`
	ApprovedAt         *time.Time     `json:"approved_at,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
}

// CreatorID реализует approval.Approvable.
func (e *Expense) CreatorID() uuid.UUID { return e.CreatedBy }

// ApprovalState реализует approval.Approvable.
func (e *Expense) ApprovalState() ApprovalStatus { return e.Status }

// RecurringExpense — шаблон регулярного или рассроченного расхода.
// Шаблон никогда не удаляется физически: деактивация сохраняет историю
// уже порожденных расходов.
type RecurringExpense struct {
	ID                    uuid.UUID      `json:"id"`
	CreatedBy             uuid.UUID      `json:"created_by"`
	CreatorName           string         `json:"creator_name"`
	CategoryID            uuid.UUID      `json:"category_id"`
	CategoryName          string         `json:"category_name"`
	CategoryIcon          string         `json:"category_icon"`
	Description           string         `json:"description"`
	AmountCents           int64          `json:"amount_cents"`
	TotalAmountCents      *int64         `json:"total_amount_cents,omitempty"`
	Type                  RecurringType  `json:"type"`
	InstallmentCount      *int           `json:"installment_count,omitempty"`
	InstallmentsRemaining *int           `json:"installments_remaining,omitempty"`
	IsShared              bool           `json:"is_shared"`
	SplitRatio            int            `json:"split_ratio"`
	IsActive              bool           `json:"is_active"`
	Status                ApprovalStatus `json:"status"`
	ApprovedBy            *uuid.UUID     `json:"approved_by,omitempty"`
	ApproverName          *string        `json:"approver_name,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
}

// CreatorID реализует approval.Approvable.
func (r *RecurringExpense) CreatorID() uuid.UUID { return r.CreatedBy }

// ApprovalState реализует approval.Approvable.
func (r *RecurringExpense) ApprovalState() ApprovalStatus { return r.Status }

// Payment — запись о переводе в счет долга за месяц. Журнал только
// пополняется; удаление убирает запись целиком, сводка пересчитывается
// по оставшимся записям.
type Payment struct {
	ID          uuid.UUID `json:"id"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	PayerID     uuid.UUID `json:"payer_id"`
	PayerName   string    `json:"payer_name"`
	PayeeID     uuid.UUID `json:"payee_id"`
	PayeeName   string    `json:"payee_name"`
	AmountCents int64     `json:"amount_cents"`
	CreatedAt   time.Time `json:"created_at"`
}

type UserSummary struct {
	UserID          uuid.UUID `json:"user_id"`
	DisplayName     string    `json:"display_name"`
	TotalPaidCents  int64     `json:"total_paid_cents"`
	TotalShareCents int64     `json:"total_share_cents"`
	BalanceCents    int64     `json:"balance_cents"`
}

type CategorySum struct {
	CategoryID   uuid.UUID `json:"category_id"`
	CategoryName string    `json:"category_name"`
	CategoryIcon string    `json:"category_icon"`
	TotalCents   int64     `json:"total_cents"`
}

// MonthlySummary — чистая проекция за месяц; не персистится и
// пересчитывается на каждый запрос.
type MonthlySummary struct {
	Month               int           `json:"month"`
	Year                int           `json:"year"`
	TotalExpensesCents  int64         `json:"total_expenses_cents"`
	SharedExpensesCents int64         `json:"shared_expenses_cents"`
	UserSummaries       []UserSummary `json:"user_summaries"`
	DebtorID            *uuid.UUID    `json:"debtor_id,omitempty"`
	CreditorID          *uuid.UUID    `json:"creditor_id,omitempty"`
	DebtAmountCents     int64         `json:"debt_amount_cents"`
	TotalPaymentsCents  int64         `json:"total_payments_cents"`
	RemainingDebtCents  int64         `json:"remaining_debt_cents"`
	CategoryBreakdown   []CategorySum `json:"category_breakdown"`
}
