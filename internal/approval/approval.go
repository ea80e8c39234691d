// Package approval реализует машину состояний подтверждения, общую для
// расходов и шаблонов: pending -> approved | rejected, оба терминальны.
package approval

import (
	"errors"

	"github.com/google/uuid"

	"example.com/household-ledger/internal/models"
)

var (
	// ErrSelfDecision: автор не может подтвердить или отклонить свою запись.
	ErrSelfDecision = errors.New("creator cannot decide own submission")
	// ErrAlreadyDecided: запись уже покинула состояние pending.
	ErrAlreadyDecided = errors.New("entity is no longer pending")
)

// Actor — аутентифицированный принципал, от имени которого выполняется
// действие. Поставляется слоем аутентификации.
type Actor struct {
	ID          uuid.UUID
	DisplayName string
	IsAdmin     bool
}

// Approvable — общая способность расхода и шаблона проходить подтверждение.
type Approvable interface {
	CreatorID() uuid.UUID
	ApprovalState() models.ApprovalStatus
}

// EnsureCanDecide проверяет, что actor вправе решить судьбу записи:
// решает второй участник или админ, и только пока запись в pending.
// Окончательную гонку закрывает условный UPDATE в хранилище.
func EnsureCanDecide(entity Approvable, actor Actor) error {
	if !actor.IsAdmin && actor.ID == entity.CreatorID() {
		return ErrSelfDecision
	}
	if entity.ApprovalState() != models.StatusPending {
		return ErrAlreadyDecided
	}
	return nil
}
