package recurring

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/household-ledger/internal/models"
)

type fakeTemplates struct {
	items map[uuid.UUID]*models.RecurringExpense
}

func newFakeTemplates(items ...*models.RecurringExpense) *fakeTemplates {
	f := &fakeTemplates{items: make(map[uuid.UUID]*models.RecurringExpense)}
	for _, t := range items {
		f.items[t.ID] = t
	}
	return f
}

func (f *fakeTemplates) ListActiveApproved(context.Context) ([]models.RecurringExpense, error) {
	out := make([]models.RecurringExpense, 0)
	for _, t := range f.items {
		if t.IsActive && t.Status == models.StatusApproved {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTemplates) ConsumeInstallment(_ context.Context, id uuid.UUID) error {
	t, ok := f.items[id]
	if !ok || t.InstallmentsRemaining == nil || *t.InstallmentsRemaining <= 0 {
		return nil
	}
	*t.InstallmentsRemaining--
	if *t.InstallmentsRemaining == 0 {
		t.IsActive = false
	}
	return nil
}

type fakeInstances struct {
	expenses       []models.Expense
	failByTemplate map[uuid.UUID]error
}

func newFakeInstances() *fakeInstances {
	return &fakeInstances{failByTemplate: make(map[uuid.UUID]error)}
}

func (f *fakeInstances) InsertMaterialized(_ context.Context, e *models.Expense) (bool, error) {
	if err, ok := f.failByTemplate[*e.RecurringExpenseID]; ok {
		return false, err
	}
	for _, existing := range f.expenses {
		if existing.RecurringExpenseID != nil && *existing.RecurringExpenseID == *e.RecurringExpenseID &&
			existing.ExpenseMonth == e.ExpenseMonth && existing.ExpenseYear == e.ExpenseYear {
			return false, nil
		}
	}
	f.expenses = append(f.expenses, *e)
	return true, nil
}

func recurringTemplate() *models.RecurringExpense {
	return &models.RecurringExpense{
		ID:          uuid.New(),
		CreatedBy:   uuid.New(),
		CategoryID:  uuid.New(),
		Description: "Rent",
		AmountCents: 150000,
		Type:        models.TypeRecurring,
		IsShared:    true,
		SplitRatio:  50,
		IsActive:    true,
		Status:      models.StatusApproved,
	}
}

func installmentTemplate(count int, totalCents *int64) *models.RecurringExpense {
	remaining := count
	return &models.RecurringExpense{
		ID:                    uuid.New(),
		CreatedBy:             uuid.New(),
		CategoryID:            uuid.New(),
		Description:           "TV in installments",
		AmountCents:           100000,
		TotalAmountCents:      totalCents,
		Type:                  models.TypeInstallment,
		InstallmentCount:      &count,
		InstallmentsRemaining: &remaining,
		IsShared:              true,
		SplitRatio:            50,
		IsActive:              true,
		Status:                models.StatusApproved,
	}
}

func TestBuildInstanceCopiesTemplateAndStaysPending(t *testing.T) {
	tmpl := recurringTemplate()

	expense, ok := BuildInstance(*tmpl, 4, 2025)
	require.True(t, ok)

	assert.Equal(t, tmpl.CreatedBy, expense.CreatedBy)
	assert.Equal(t, tmpl.CategoryID, expense.CategoryID)
	assert.Equal(t, tmpl.Description, expense.Description)
	assert.Equal(t, tmpl.AmountCents, expense.AmountCents)
	assert.Equal(t, tmpl.IsShared, expense.IsShared)
	assert.Equal(t, tmpl.SplitRatio, expense.SplitRatio)
	assert.Equal(t, 4, expense.ExpenseMonth)
	assert.Equal(t, 2025, expense.ExpenseYear)
	require.NotNil(t, expense.RecurringExpenseID)
	assert.Equal(t, tmpl.ID, *expense.RecurringExpenseID)
	// Материализация никогда не подтверждает сама себя.
	assert.Equal(t, models.StatusPending, expense.Status)
	assert.False(t, expense.IsInstallment)
}

func TestBuildInstanceExhaustedInstallment(t *testing.T) {
	tmpl := installmentTemplate(3, nil)
	zero := 0
	tmpl.InstallmentsRemaining = &zero

	_, ok := BuildInstance(*tmpl, 4, 2025)
	assert.False(t, ok)
}

func TestInstallmentAmountRemainderOnFinal(t *testing.T) {
	total := int64(10001) // 100.01 на 3 доли
	tests := []struct {
		remaining int
		want      int64
	}{
		{3, 3333},
		{2, 3333},
		{1, 3335}, // последняя доля вбирает остаток
	}

	for _, tt := range tests {
		got := installmentAmount(0, &total, 3, tt.remaining)
		assert.Equal(t, tt.want, got, "remaining=%d", tt.remaining)
	}
}

func TestMaterializeIdempotentPerPeriod(t *testing.T) {
	tmpl := recurringTemplate()
	templates := newFakeTemplates(tmpl)
	instances := newFakeInstances()
	m := NewMaterializer(templates, instances)

	created, err := m.Run(context.Background(), 4, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	created, err = m.Run(context.Background(), 4, 2025)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Len(t, instances.expenses, 1)

	// Новый период — новая запись.
	created, err = m.Run(context.Background(), 5, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Len(t, instances.expenses, 2)
}

// TestInstallmentLifecycle: шаблон на N долей порождает ровно N расходов с
// возрастающими номерами 1..N и деактивируется сразу после N-й.
func TestInstallmentLifecycle(t *testing.T) {
	total := int64(1200000)
	tmpl := installmentTemplate(12, &total)
	tmpl.AmountCents = 100000
	templates := newFakeTemplates(tmpl)
	instances := newFakeInstances()
	m := NewMaterializer(templates, instances)

	ctx := context.Background()
	for i := 0; i < 12; i++ {
		month := i%12 + 1
		year := 2025 + i/12
		created, err := m.Run(ctx, month, year)
		require.NoError(t, err)
		assert.Equal(t, 1, created, "month %d", month)
	}

	require.Len(t, instances.expenses, 12)
	var sum int64
	for i, e := range instances.expenses {
		require.NotNil(t, e.InstallmentNo)
		assert.Equal(t, i+1, *e.InstallmentNo)
		require.NotNil(t, e.InstallmentTotal)
		assert.Equal(t, 12, *e.InstallmentTotal)
		assert.True(t, e.IsInstallment)
		assert.Equal(t, int64(100000), e.AmountCents)
		sum += e.AmountCents
	}
	assert.Equal(t, total, sum)

	assert.False(t, tmpl.IsActive)
	assert.Equal(t, 0, *tmpl.InstallmentsRemaining)

	// Исчерпанный шаблон больше ничего не порождает.
	created, err := m.Run(ctx, 1, 2026)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Len(t, instances.expenses, 12)
}

func TestMaterializeSkipsInactiveAndUnapproved(t *testing.T) {
	inactive := recurringTemplate()
	inactive.IsActive = false
	pending := recurringTemplate()
	pending.Status = models.StatusPending
	rejected := recurringTemplate()
	rejected.Status = models.StatusRejected

	m := NewMaterializer(newFakeTemplates(inactive, pending, rejected), newFakeInstances())

	created, err := m.Run(context.Background(), 4, 2025)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

// TestMaterializeIsolatesFailures: сбой одного шаблона не прерывает
// материализацию остальных, ошибка возвращается вызывающему.
func TestMaterializeIsolatesFailures(t *testing.T) {
	broken := recurringTemplate()
	healthy := recurringTemplate()

	instances := newFakeInstances()
	insertErr := errors.New("insert failed")
	instances.failByTemplate[broken.ID] = insertErr

	m := NewMaterializer(newFakeTemplates(broken, healthy), instances)

	created, err := m.Run(context.Background(), 4, 2025)
	assert.Equal(t, 1, created)
	require.Error(t, err)
	assert.ErrorIs(t, err, insertErr)
	assert.Contains(t, err.Error(), fmt.Sprintf("template %s", broken.ID))
}
