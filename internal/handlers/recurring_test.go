package handlers

import (
	"testing"

	"example.com/household-ledger/internal/models"
)

// TestApplyTemplateRequestRecurring проверяет перенос полей обычного шаблона.
func TestApplyTemplateRequestRecurring(t *testing.T) {
	template := models.RecurringExpense{Status: models.StatusPending}
	req := CreateRecurringRequest{
		Description: "  Аренда  ",
		AmountCents: 4500000,
		Type:        models.TypeRecurring,
		IsShared:    true,
	}

	if msg := applyTemplateRequest(&template, req); msg != "" {
		t.Fatalf("unexpected validation error: %s", msg)
	}
	if template.Description != "Аренда" {
		t.Fatalf("description not trimmed: %q", template.Description)
	}
	if template.AmountCents != 4500000 || template.SplitRatio != 50 {
		t.Fatalf("unexpected template: %+v", template)
	}
	if template.InstallmentCount != nil || template.InstallmentsRemaining != nil {
		t.Fatal("recurring template must not carry installment bookkeeping")
	}
}

// TestApplyTemplateRequestValidation проверяет отказы по типу шаблона.
func TestApplyTemplateRequestValidation(t *testing.T) {
	count := 1
	total := int64(-100)

	tests := []struct {
		name string
		req  CreateRecurringRequest
	}{
		{"recurring without amount", CreateRecurringRequest{Type: models.TypeRecurring}},
		{"installment with single share", CreateRecurringRequest{Type: models.TypeInstallment, AmountCents: 100, InstallmentCount: &count}},
		{"installment without count", CreateRecurringRequest{Type: models.TypeInstallment, AmountCents: 100}},
		{"installment with negative total", CreateRecurringRequest{Type: models.TypeInstallment, InstallmentCount: ptrInt(6), TotalAmountCents: &total}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var template models.RecurringExpense
			if msg := applyTemplateRequest(&template, tt.req); msg == "" {
				t.Fatal("expected validation error")
			}
		})
	}
}

// TestApplyTemplateRequestInstallmentAmount проверяет вывод суммы доли из
// общей суммы, когда она не задана явно.
func TestApplyTemplateRequestInstallmentAmount(t *testing.T) {
	total := int64(10000)
	template := models.RecurringExpense{}
	req := CreateRecurringRequest{
		Description:      "Ноутбук",
		Type:             models.TypeInstallment,
		InstallmentCount: ptrInt(6),
		TotalAmountCents: &total,
	}

	if msg := applyTemplateRequest(&template, req); msg != "" {
		t.Fatalf("unexpected validation error: %s", msg)
	}
	if template.AmountCents != 1666 {
		t.Fatalf("expected derived share 1666, got %d", template.AmountCents)
	}
	if template.TotalAmountCents == nil || *template.TotalAmountCents != total {
		t.Fatal("total amount not carried over")
	}
}

// TestApplyTemplateRequestResetsRemaining проверяет, что правка шаблона
// переустанавливает остаток рассрочки в новое число долей.
func TestApplyTemplateRequestResetsRemaining(t *testing.T) {
	oldCount, oldRemaining := 12, 7
	template := models.RecurringExpense{
		Status:                models.StatusPending,
		InstallmentCount:      &oldCount,
		InstallmentsRemaining: &oldRemaining,
	}
	req := CreateRecurringRequest{
		Description:      "Диван",
		AmountCents:      2500,
		Type:             models.TypeInstallment,
		InstallmentCount: ptrInt(4),
	}

	if msg := applyTemplateRequest(&template, req); msg != "" {
		t.Fatalf("unexpected validation error: %s", msg)
	}
	if template.InstallmentCount == nil || *template.InstallmentCount != 4 {
		t.Fatalf("installment count not replaced: %+v", template.InstallmentCount)
	}
	if template.InstallmentsRemaining == nil || *template.InstallmentsRemaining != 4 {
		t.Fatalf("remaining must follow the new count, got %+v", template.InstallmentsRemaining)
	}
}

func ptrInt(v int) *int { return &v }
