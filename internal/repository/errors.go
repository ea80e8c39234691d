package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	// ErrInvalidState: переход применен к записи вне pending — в том числе
	// когда конкурирующее решение успело пройти первым.
	ErrInvalidState = errors.New("invalid state transition")
)
