package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	appledger "github.com/jhoicas/Almacen-api/internal/application/ledger"
	"github.com/jhoicas/Almacen-api/internal/domain"
)

// LedgerHandler maneja las escrituras del libro de movimientos (protegido):
// entradas, salidas y devoluciones.
type LedgerHandler struct {
	uc *appledger.MovementUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(uc *appledger.MovementUseCase) *LedgerHandler {
	return &LedgerHandler{uc: uc}
}

// RecordReceipt godoc
// @Summary      Registrar entrada a bodega
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveRequest  true  "item_name, quantity, unit, zone, channel"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/ledger/receipts [post]
func (h *LedgerHandler) RecordReceipt(c *fiber.Ctx) error {
	var in dto.ReceiveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.uc.RecordReceive(c.Context(), GetUserID(c), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// RecordIssuance godoc
// @Summary      Registrar salida (CONSUME o BORROW)
// @Description  Valida contra el saldo actual de la celda (artículo, zona, canal).
//
//	Si el saldo no alcanza responde 409 con el saldo verdadero en value.
//
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IssuanceRequest  true  "item_name, quantity, zone, channel, kind, requested_by"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/issuances [post]
func (h *LedgerHandler) RecordIssuance(c *fiber.Ctx) error {
	var in dto.IssuanceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.uc.AcceptIssuance(c.Context(), GetUserID(c), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// RecordReturn godoc
// @Summary      Registrar devolución y/o pérdida de un préstamo
// @Description  Acepta return_qty y lost_qty contra el pendiente fresco del
//
//	préstamo. Si la suma excede el pendiente responde 409 con el pendiente
//	verdadero en value. Cierra el préstamo cuando el pendiente llega a cero.
//
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReturnRequest  true  "borrow_id, return_qty, lost_qty, reason (si hay pérdida), returned_by"
// @Success      201   {object}  dto.ReturnResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/returns [post]
func (h *LedgerHandler) RecordReturn(c *fiber.Ctx) error {
	var in dto.ReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.uc.AcceptReturn(c.Context(), GetUserID(c), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReturnResponse{
		ReturnMovement: toMovementResponse(result.ReturnMovement),
		LossMovement:   toMovementResponse(result.LossMovement),
		Borrow:         toOutstandingResponse(result.Borrow),
	})
}

// writeError traduce la taxonomía de errores de dominio a HTTP. Los errores con
// valor (saldo / pendiente) lo exponen en value para que el cliente corrija sin
// re-consultar.
func (h *LedgerHandler) writeError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: insufficient.Error(),
			Value:   insufficient.Balance.String(),
		})
	}
	var exceeds *domain.ExceedsOutstandingError
	if errors.As(err, &exceeds) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "EXCEEDS_OUTSTANDING",
			Message: exceeds.Error(),
			Value:   exceeds.Outstanding.String(),
		})
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "préstamo no encontrado"})
	case errors.Is(err, domain.ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUANTITY", Message: "cantidad inválida"})
	case errors.Is(err, domain.ErrReasonRequired):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "REASON_REQUIRED", Message: "las pérdidas requieren motivo"})
	case errors.Is(err, domain.ErrActorRequired):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "ACTOR_REQUIRED", Message: "se requiere quién solicita o devuelve"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto de concurrencia, reintente"})
	case errors.Is(err, domain.ErrStoreUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STORE_UNAVAILABLE", Message: "almacenamiento no disponible"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
