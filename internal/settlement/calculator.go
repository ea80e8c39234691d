// Package settlement считает месячный взаиморасчет между двумя участниками
// домохозяйства: кто сколько заплатил, чья доля какая и кто кому должен.
package settlement

import (
	"github.com/google/uuid"

	"example.com/household-ledger/internal/models"
)

// SplitShares делит сумму общего расхода по split_ratio (доля автора в
// процентах). Доля второго участника усекается вниз, остаток округления
// детерминированно достается автору, поэтому доли всегда сходятся в сумму
// с точностью до цента.
func SplitShares(amountCents int64, splitRatio int) (creatorCents, otherCents int64) {
	otherCents = amountCents * int64(100-splitRatio) / 100
	creatorCents = amountCents - otherCents
	return creatorCents, otherCents
}

// Compute — чистая функция сводки за (month, year). В денежные итоги входят
// только расходы со статусом approved и совпадающим периодом; pending и
// rejected не искажают книгу. Участвуют ровно не-админ пользователи;
// направление долга определено только при двух участниках.
func Compute(month, year int, users []models.User, expenses []models.Expense, payments []models.Payment, sharedOnly bool) models.MonthlySummary {
	summary := models.MonthlySummary{Month: month, Year: year}

	byUser := make(map[uuid.UUID]*models.UserSummary)
	order := make([]uuid.UUID, 0, 2)
	for _, u := range users {
		if u.IsAdmin {
			continue
		}
		byUser[u.ID] = &models.UserSummary{UserID: u.ID, DisplayName: u.DisplayName}
		order = append(order, u.ID)
	}

	byCategory := make(map[uuid.UUID]*models.CategorySum)
	categoryOrder := make([]uuid.UUID, 0)

	for i := range expenses {
		e := &expenses[i]
		if e.Status != models.StatusApproved || e.ExpenseMonth != month || e.ExpenseYear != year {
			continue
		}
		if sharedOnly && !e.IsShared {
			continue
		}

		summary.TotalExpensesCents += e.AmountCents

		cs, ok := byCategory[e.CategoryID]
		if !ok {
			cs = &models.CategorySum{
				CategoryID:   e.CategoryID,
				CategoryName: e.CategoryName,
				CategoryIcon: e.CategoryIcon,
			}
			byCategory[e.CategoryID] = cs
			categoryOrder = append(categoryOrder, e.CategoryID)
		}
		cs.TotalCents += e.AmountCents

		// Автор считается заплатившим всю сумму.
		if us, ok := byUser[e.CreatedBy]; ok {
			us.TotalPaidCents += e.AmountCents
		}

		if !e.IsShared {
			// Личный расход: платит и должен один автор, долг не меняется.
			if us, ok := byUser[e.CreatedBy]; ok {
				us.TotalShareCents += e.AmountCents
			}
			continue
		}

		summary.SharedExpensesCents += e.AmountCents

		creatorShare, otherShare := SplitShares(e.AmountCents, e.SplitRatio)
		if us, ok := byUser[e.CreatedBy]; ok {
			us.TotalShareCents += creatorShare
		}
		for _, id := range order {
			if id != e.CreatedBy {
				byUser[id].TotalShareCents += otherShare
			}
		}
	}

	summary.UserSummaries = make([]models.UserSummary, 0, len(order))
	for _, id := range order {
		us := byUser[id]
		us.BalanceCents = us.TotalPaidCents - us.TotalShareCents
		summary.UserSummaries = append(summary.UserSummaries, *us)
	}

	if len(summary.UserSummaries) == 2 {
		a, b := summary.UserSummaries[0], summary.UserSummaries[1]
		switch {
		case a.BalanceCents > 0 && b.BalanceCents < 0:
			summary.CreditorID = &summary.UserSummaries[0].UserID
			summary.DebtorID = &summary.UserSummaries[1].UserID
			summary.DebtAmountCents = a.BalanceCents
		case b.BalanceCents > 0 && a.BalanceCents < 0:
			summary.CreditorID = &summary.UserSummaries[1].UserID
			summary.DebtorID = &summary.UserSummaries[0].UserID
			summary.DebtAmountCents = b.BalanceCents
		}
	}

	// Засчитываются только переводы должник -> кредитор за этот месяц.
	if summary.DebtorID != nil && summary.CreditorID != nil {
		for _, p := range payments {
			if p.Month != month || p.Year != year {
				continue
			}
			if p.PayerID == *summary.DebtorID && p.PayeeID == *summary.CreditorID {
				summary.TotalPaymentsCents += p.AmountCents
			}
		}
	}

	// Переплата не отклоняется при записи, но при чтении остаток долга
	// прижимается к нулю.
	summary.RemainingDebtCents = summary.DebtAmountCents - summary.TotalPaymentsCents
	if summary.RemainingDebtCents < 0 {
		summary.RemainingDebtCents = 0
	}

	summary.CategoryBreakdown = make([]models.CategorySum, 0, len(categoryOrder))
	for _, id := range categoryOrder {
		summary.CategoryBreakdown = append(summary.CategoryBreakdown, *byCategory[id])
	}

	return summary
}
