package approval

import (
	"testing"

	"github.com/google/uuid"

	"example.com/household-ledger/internal/models"
)

// TestEnsureCanDecide проверяет матрицу допуска: автор/второй участник/админ
// против состояний pending/approved/rejected.
func TestEnsureCanDecide(t *testing.T) {
	creator := uuid.New()
	other := uuid.New()
	admin := uuid.New()

	tests := []struct {
		name    string
		status  models.ApprovalStatus
		actor   Actor
		wantErr error
	}{
		{"other user on pending", models.StatusPending, Actor{ID: other}, nil},
		{"admin on pending", models.StatusPending, Actor{ID: admin, IsAdmin: true}, nil},
		{"creator on pending", models.StatusPending, Actor{ID: creator}, ErrSelfDecision},
		{"creator as admin on pending", models.StatusPending, Actor{ID: creator, IsAdmin: true}, nil},
		{"other user on approved", models.StatusApproved, Actor{ID: other}, ErrAlreadyDecided},
		{"other user on rejected", models.StatusRejected, Actor{ID: other}, ErrAlreadyDecided},
		{"admin on approved", models.StatusApproved, Actor{ID: admin, IsAdmin: true}, ErrAlreadyDecided},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expense := &models.Expense{CreatedBy: creator, Status: tt.status}
			if err := EnsureCanDecide(expense, tt.actor); err != tt.wantErr {
				t.Fatalf("expense: got %v, want %v", err, tt.wantErr)
			}

			template := &models.RecurringExpense{CreatedBy: creator, Status: tt.status}
			if err := EnsureCanDecide(template, tt.actor); err != tt.wantErr {
				t.Fatalf("template: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}
