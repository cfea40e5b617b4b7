package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrInvalidQuantity    = errors.New("cantidad inválida")
	ErrReasonRequired     = errors.New("las pérdidas requieren motivo")
	ErrActorRequired      = errors.New("se requiere el solicitante")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrStoreUnavailable   = errors.New("almacenamiento no disponible")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
)

// InsufficientStockError rechaza una salida que excede el saldo actual.
// Lleva el saldo real para que el caller lo muestre sin re-consultar.
type InsufficientStockError struct {
	ItemName string
	Zone     string
	Channel  string
	Balance  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s (zona %s, canal %s): saldo %s",
		e.ItemName, e.Zone, e.Channel, e.Balance)
}

// ExceedsOutstandingError rechaza una devolución+pérdida que excede lo pendiente
// de un préstamo. Lleva el pendiente real para el caller.
type ExceedsOutstandingError struct {
	BorrowID    string
	Outstanding decimal.Decimal
}

func (e *ExceedsOutstandingError) Error() string {
	return fmt.Sprintf("la devolución excede lo pendiente del préstamo %s: pendiente %s",
		e.BorrowID, e.Outstanding)
}
