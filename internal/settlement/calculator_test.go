package settlement

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/household-ledger/internal/models"
)

var (
	alice = models.User{ID: uuid.New(), DisplayName: "Alice"}
	bob   = models.User{ID: uuid.New(), DisplayName: "Bob"}
	admin = models.User{ID: uuid.New(), DisplayName: "Admin", IsAdmin: true}

	groceries = uuid.New()
	rent      = uuid.New()
)

func approvedExpense(creator models.User, categoryID uuid.UUID, amountCents int64, shared bool, ratio int) models.Expense {
	return models.Expense{
		ID:           uuid.New(),
		CreatedBy:    creator.ID,
		CategoryID:   categoryID,
		CategoryName: "cat",
		AmountCents:  amountCents,
		ExpenseMonth: 3,
		ExpenseYear:  2025,
		IsShared:     shared,
		SplitRatio:   ratio,
		Status:       models.StatusApproved,
	}
}

func TestSplitShares(t *testing.T) {
	tests := []struct {
		name        string
		amountCents int64
		ratio       int
		wantCreator int64
		wantOther   int64
	}{
		{"even split", 10000, 50, 5000, 5000},
		{"thirty seventy split", 100000, 30, 30000, 70000},
		{"remainder goes to creator", 101, 50, 51, 50},
		{"one percent", 10000, 1, 100, 9900},
		{"ninety nine percent", 10000, 99, 9900, 100},
		{"odd amount odd ratio", 999, 33, 330, 669},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator, other := SplitShares(tt.amountCents, tt.ratio)
			assert.Equal(t, tt.wantCreator, creator)
			assert.Equal(t, tt.wantOther, other)
			// Доли всегда сходятся в исходную сумму с точностью до цента.
			assert.Equal(t, tt.amountCents, creator+other)
		})
	}
}

// TestComputeWorkedExample воспроизводит сценарий: расход 1000.00 с долей
// автора 30% -> доля автора 300.00, второго 700.00, должник — второй.
func TestComputeWorkedExample(t *testing.T) {
	users := []models.User{alice, bob}
	expenses := []models.Expense{approvedExpense(alice, groceries, 100000, true, 30)}

	summary := Compute(3, 2025, users, expenses, nil, false)

	require.Len(t, summary.UserSummaries, 2)
	a, b := summary.UserSummaries[0], summary.UserSummaries[1]

	assert.Equal(t, int64(100000), a.TotalPaidCents)
	assert.Equal(t, int64(30000), a.TotalShareCents)
	assert.Equal(t, int64(70000), a.BalanceCents)
	assert.Equal(t, int64(-70000), b.BalanceCents)

	require.NotNil(t, summary.DebtorID)
	require.NotNil(t, summary.CreditorID)
	assert.Equal(t, bob.ID, *summary.DebtorID)
	assert.Equal(t, alice.ID, *summary.CreditorID)
	assert.Equal(t, int64(70000), summary.DebtAmountCents)
	assert.Equal(t, int64(70000), summary.RemainingDebtCents)
}

// TestComputeBalancesSumToZero: для любого набора общих расходов балансы двух
// участников строго противоположны.
func TestComputeBalancesSumToZero(t *testing.T) {
	users := []models.User{alice, bob}
	expenses := []models.Expense{
		approvedExpense(alice, groceries, 33333, true, 41),
		approvedExpense(bob, rent, 120001, true, 67),
		approvedExpense(alice, groceries, 999, true, 1),
		approvedExpense(bob, groceries, 5000, false, 50),
	}

	summary := Compute(3, 2025, users, expenses, nil, false)

	require.Len(t, summary.UserSummaries, 2)
	a, b := summary.UserSummaries[0], summary.UserSummaries[1]
	assert.Equal(t, int64(0), a.BalanceCents+b.BalanceCents)

	if summary.DebtorID != nil {
		expected := a.BalanceCents
		if expected < 0 {
			expected = -expected
		}
		assert.Equal(t, expected, summary.DebtAmountCents)
	}
}

func TestComputePersonalExpenseDoesNotShiftDebt(t *testing.T) {
	users := []models.User{alice, bob}
	expenses := []models.Expense{approvedExpense(alice, groceries, 45000, false, 50)}

	summary := Compute(3, 2025, users, expenses, nil, false)

	assert.Equal(t, int64(45000), summary.TotalExpensesCents)
	assert.Equal(t, int64(0), summary.SharedExpensesCents)
	assert.Nil(t, summary.DebtorID)
	assert.Nil(t, summary.CreditorID)
	assert.Equal(t, int64(0), summary.DebtAmountCents)
}

func TestComputeExcludesPendingAndRejected(t *testing.T) {
	pending := approvedExpense(alice, groceries, 10000, true, 50)
	pending.Status = models.StatusPending
	rejected := approvedExpense(alice, groceries, 20000, true, 50)
	rejected.Status = models.StatusRejected
	otherMonth := approvedExpense(alice, groceries, 30000, true, 50)
	otherMonth.ExpenseMonth = 2

	summary := Compute(3, 2025, []models.User{alice, bob},
		[]models.Expense{pending, rejected, otherMonth}, nil, false)

	assert.Equal(t, int64(0), summary.TotalExpensesCents)
	assert.Empty(t, summary.CategoryBreakdown)
}

func TestComputeExcludesAdminsFromBalances(t *testing.T) {
	summary := Compute(3, 2025, []models.User{alice, bob, admin},
		[]models.Expense{approvedExpense(alice, groceries, 10000, true, 50)}, nil, false)

	require.Len(t, summary.UserSummaries, 2)
	for _, us := range summary.UserSummaries {
		assert.NotEqual(t, admin.ID, us.UserID)
	}
}

func TestComputePayments(t *testing.T) {
	users := []models.User{alice, bob}
	expenses := []models.Expense{approvedExpense(alice, groceries, 100000, true, 30)}

	payment := func(payer, payee models.User, amount int64) models.Payment {
		return models.Payment{Month: 3, Year: 2025, PayerID: payer.ID, PayeeID: payee.ID, AmountCents: amount}
	}

	t.Run("partial payment reduces remaining debt", func(t *testing.T) {
		summary := Compute(3, 2025, users, expenses, []models.Payment{payment(bob, alice, 30000)}, false)
		assert.Equal(t, int64(30000), summary.TotalPaymentsCents)
		assert.Equal(t, int64(40000), summary.RemainingDebtCents)
	})

	t.Run("overpayment clamps remaining debt to zero", func(t *testing.T) {
		summary := Compute(3, 2025, users, expenses, []models.Payment{payment(bob, alice, 90000)}, false)
		assert.Equal(t, int64(90000), summary.TotalPaymentsCents)
		assert.Equal(t, int64(0), summary.RemainingDebtCents)
	})

	t.Run("reverse-direction transfer is not counted", func(t *testing.T) {
		summary := Compute(3, 2025, users, expenses, []models.Payment{payment(alice, bob, 30000)}, false)
		assert.Equal(t, int64(0), summary.TotalPaymentsCents)
		assert.Equal(t, int64(70000), summary.RemainingDebtCents)
	})
}

func TestComputeEqualBalancesMeanNoDebt(t *testing.T) {
	expenses := []models.Expense{
		approvedExpense(alice, groceries, 40000, true, 50),
		approvedExpense(bob, rent, 40000, true, 50),
	}

	summary := Compute(3, 2025, []models.User{alice, bob}, expenses, nil, false)

	assert.Nil(t, summary.DebtorID)
	assert.Nil(t, summary.CreditorID)
	assert.Equal(t, int64(0), summary.DebtAmountCents)
	assert.Equal(t, int64(0), summary.RemainingDebtCents)
}

func TestComputeSharedOnlyFiltersPersonal(t *testing.T) {
	expenses := []models.Expense{
		approvedExpense(alice, groceries, 40000, true, 50),
		approvedExpense(alice, rent, 25000, false, 50),
	}

	summary := Compute(3, 2025, []models.User{alice, bob}, expenses, nil, true)

	assert.Equal(t, int64(40000), summary.TotalExpensesCents)
	assert.Equal(t, int64(40000), summary.SharedExpensesCents)
	require.Len(t, summary.CategoryBreakdown, 1)
	assert.Equal(t, groceries, summary.CategoryBreakdown[0].CategoryID)
}

func TestComputeCategoryBreakdown(t *testing.T) {
	expenses := []models.Expense{
		approvedExpense(alice, groceries, 10000, true, 50),
		approvedExpense(bob, rent, 90000, true, 50),
		approvedExpense(bob, groceries, 5000, true, 50),
	}

	summary := Compute(3, 2025, []models.User{alice, bob}, expenses, nil, false)

	require.Len(t, summary.CategoryBreakdown, 2)
	assert.Equal(t, groceries, summary.CategoryBreakdown[0].CategoryID)
	assert.Equal(t, int64(15000), summary.CategoryBreakdown[0].TotalCents)
	assert.Equal(t, rent, summary.CategoryBreakdown[1].CategoryID)
	assert.Equal(t, int64(90000), summary.CategoryBreakdown[1].TotalCents)
}
