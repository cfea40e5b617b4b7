package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de inventario (append-only).
const (
	KindReceive = "RECEIVE" // entrada a bodega
	KindConsume = "CONSUME" // salida definitiva
	KindBorrow  = "BORROW"  // préstamo (salida recuperable)
	KindReturn  = "RETURN"  // devolución de un préstamo
	KindLoss    = "LOSS"    // pérdida/daño sobre un préstamo
)

// Estado derivado de un BORROW (propiedad exclusiva del reconciliador).
const (
	BorrowStatusOpen   = "OPEN"
	BorrowStatusClosed = "CLOSED"
)

// Movement representa un hecho inmutable del libro de inventario.
// Go no tiene sum types: los campos por variante (ParentID solo en RETURN/LOSS,
// Reason solo en LOSS, Status solo en BORROW) se hacen cumplir en los casos de uso
// de escritura, no aquí.
type Movement struct {
	ID          string
	Kind        string
	ItemName    string // clave exacta del producto, case-sensitive
	Quantity    decimal.Decimal
	Unit        string // solo informativo, nunca entra en la aritmética
	Zone        string
	Channel     string
	ParentID    string // RETURN/LOSS: ID del BORROW origen
	RequestedBy string // quien solicita/devuelve
	Reason      string // LOSS: motivo obligatorio
	Remark      string
	Images      []string // URLs opacas; el pipeline de imágenes queda fuera de este servicio
	Status      string   // solo BORROW: OPEN | CLOSED
	CreatedAt   time.Time
	CreatedBy   string // UserID autenticado
}

// IsIssuance indica si el movimiento debita stock al crearse.
func (m *Movement) IsIssuance() bool {
	return m.Kind == KindConsume || m.Kind == KindBorrow
}

// ValidKind verifica que el tipo sea uno de los cinco conocidos.
func ValidKind(kind string) bool {
	switch kind {
	case KindReceive, KindConsume, KindBorrow, KindReturn, KindLoss:
		return true
	}
	return false
}
