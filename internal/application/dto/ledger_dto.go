package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiveRequest body para POST /api/ledger/receipts.
type ReceiveRequest struct {
	ItemName string          `json:"item_name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Zone     string          `json:"zone"`
	Channel  string          `json:"channel"`
	Remark   string          `json:"remark,omitempty"`
	Images   []string        `json:"images,omitempty"`
}

// IssuanceRequest body para POST /api/ledger/issuances.
// Kind: CONSUME (salida definitiva) o BORROW (préstamo).
type IssuanceRequest struct {
	ItemName    string          `json:"item_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit,omitempty"`
	Zone        string          `json:"zone"`
	Channel     string          `json:"channel"`
	Kind        string          `json:"kind"`
	RequestedBy string          `json:"requested_by"`
	Remark      string          `json:"remark,omitempty"`
}

// ReturnRequest body para POST /api/ledger/returns.
type ReturnRequest struct {
	BorrowID   string          `json:"borrow_id"`
	ReturnQty  decimal.Decimal `json:"return_qty"`
	LostQty    decimal.Decimal `json:"lost_qty"`
	Reason     string          `json:"reason,omitempty"`
	ReturnedBy string          `json:"returned_by"`
}

// MovementResponse un movimiento del libro.
type MovementResponse struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	ItemName    string          `json:"item_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit,omitempty"`
	Zone        string          `json:"zone,omitempty"`
	Channel     string          `json:"channel,omitempty"`
	ParentID    string          `json:"parent_id,omitempty"`
	RequestedBy string          `json:"requested_by,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	Remark      string          `json:"remark,omitempty"`
	Images      []string        `json:"images,omitempty"`
	Status      string          `json:"status,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CreatedBy   string          `json:"created_by,omitempty"`
}

// ReturnResponse resultado de una devolución aceptada: cero, uno o dos
// movimientos nuevos más la vista fresca del préstamo.
type ReturnResponse struct {
	ReturnMovement *MovementResponse   `json:"return_movement,omitempty"`
	LossMovement   *MovementResponse   `json:"loss_movement,omitempty"`
	Borrow         OutstandingResponse `json:"borrow"`
}

// StockRowResponse una fila del resumen de stock.
type StockRowResponse struct {
	ItemName       string          `json:"item_name"`
	Zone           string          `json:"zone,omitempty"`
	Channel        string          `json:"channel,omitempty"`
	Unit           string          `json:"unit,omitempty"`
	TotalIn        decimal.Decimal `json:"total_in"`
	TotalOut       decimal.Decimal `json:"total_out"`
	Balance        decimal.Decimal `json:"balance"`
	LastInAt       *time.Time      `json:"last_in_at,omitempty"`
	LastOutAt      *time.Time      `json:"last_out_at,omitempty"`
	LastMovementAt time.Time       `json:"last_movement_at"`
}

// OutstandingResponse vista de un préstamo para el flujo de devolución.
type OutstandingResponse struct {
	BorrowID       string          `json:"borrow_id"`
	ItemName       string          `json:"item_name"`
	Zone           string          `json:"zone,omitempty"`
	Channel        string          `json:"channel,omitempty"`
	Unit           string          `json:"unit,omitempty"`
	RequestedBy    string          `json:"requested_by,omitempty"`
	BorrowedAt     time.Time       `json:"borrowed_at"`
	BorrowedQty    decimal.Decimal `json:"borrowed_qty"`
	ReturnedQty    decimal.Decimal `json:"returned_qty"`
	LostQty        decimal.Decimal `json:"lost_qty"`
	OutstandingQty decimal.Decimal `json:"outstanding_qty"`
	Status         string          `json:"status"`
	Anomalous      bool            `json:"anomalous,omitempty"`
}
