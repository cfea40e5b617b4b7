package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/ledger"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// MovementUseCase registra movimientos del libro de inventario de forma
// transaccional: entradas (RECEIVE), salidas (CONSUME/BORROW) y devoluciones
// (RETURN/LOSS). Cada operación valida contra un snapshot fresco leído dentro
// de la misma transacción que escribe, serializada por clave con un advisory
// lock de PostgreSQL.
type MovementUseCase struct {
	txRunner TxRunner
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(txRunner TxRunner) *MovementUseCase {
	return &MovementUseCase{txRunner: txRunner}
}

// ReturnResult resultado de una devolución aceptada.
type ReturnResult struct {
	ReturnMovement *entity.Movement
	LossMovement   *entity.Movement
	Borrow         *ledger.Outstanding
}

// RecordReceive registra una entrada. Zona y canal son obligatorios: sin ellos
// la entrada no es acreditable a ninguna celda de saldo.
func (uc *MovementUseCase) RecordReceive(ctx context.Context, userID string, in dto.ReceiveRequest) (*entity.Movement, error) {
	if in.ItemName == "" || in.Zone == "" || in.Channel == "" {
		return nil, domain.ErrInvalidInput
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}

	mov := &entity.Movement{
		ID:        uuid.New().String(),
		Kind:      entity.KindReceive,
		ItemName:  in.ItemName,
		Quantity:  in.Quantity,
		Unit:      in.Unit,
		Zone:      in.Zone,
		Channel:   in.Channel,
		Remark:    in.Remark,
		Images:    in.Images,
		CreatedAt: time.Now(),
		CreatedBy: userID,
	}
	err := uc.runWithRetry(ctx, func(movRepo repository.MovementRepository) error {
		return movRepo.Create(mov)
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// AcceptIssuance registra una salida (CONSUME o BORROW) si el saldo actual de
// la celda (artículo, zona, canal) cubre la cantidad; si no, rechaza con
// InsufficientStockError llevando el saldo verdadero.
func (uc *MovementUseCase) AcceptIssuance(ctx context.Context, userID string, in dto.IssuanceRequest) (*entity.Movement, error) {
	if in.Kind != entity.KindConsume && in.Kind != entity.KindBorrow {
		return nil, domain.ErrInvalidInput
	}
	if in.ItemName == "" {
		return nil, domain.ErrInvalidInput
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}
	if in.RequestedBy == "" {
		return nil, domain.ErrActorRequired
	}

	mov := &entity.Movement{
		ID:          uuid.New().String(),
		Kind:        in.Kind,
		ItemName:    in.ItemName,
		Quantity:    in.Quantity,
		Unit:        in.Unit,
		Zone:        in.Zone,
		Channel:     in.Channel,
		RequestedBy: in.RequestedBy,
		Remark:      in.Remark,
		CreatedAt:   time.Now(),
		CreatedBy:   userID,
	}
	if in.Kind == entity.KindBorrow {
		mov.Status = entity.BorrowStatusOpen
	}

	err := uc.runWithRetry(ctx, func(movRepo repository.MovementRepository) error {
		// Serializa a los emisores de la misma celda: dos salidas concurrentes no
		// pueden validar ambas contra el mismo snapshot viejo.
		if err := movRepo.LockLedgerKey(balanceLockKey(in.ItemName, in.Zone, in.Channel)); err != nil {
			return err
		}
		records, err := movRepo.ListByItem(in.ItemName)
		if err != nil {
			return err
		}
		balance := decimal.Zero
		key := ledger.Key{ItemName: in.ItemName, Zone: in.Zone, Channel: in.Channel}
		if b, ok := ledger.ComputeBalances(records)[key]; ok {
			balance = b.OnHand
			if mov.Unit == "" {
				mov.Unit = b.Unit
			}
		}
		if balance.LessThan(in.Quantity) {
			return &domain.InsufficientStockError{
				ItemName: in.ItemName,
				Zone:     in.Zone,
				Channel:  in.Channel,
				Balance:  balance,
			}
		}
		return movRepo.Create(mov)
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// AcceptReturn registra la devolución y/o pérdida contra un préstamo.
// Validación en orden, el primer fallo gana: préstamo existe → cantidades no
// negativas y no ambas cero → pérdida con motivo → identidad de quien devuelve
// → devuelto+perdido dentro del pendiente fresco. Crea hasta dos movimientos y
// recalcula el estado del préstamo en la misma transacción.
func (uc *MovementUseCase) AcceptReturn(ctx context.Context, userID string, in dto.ReturnRequest) (*ReturnResult, error) {
	if in.BorrowID == "" {
		return nil, domain.ErrNotFound
	}

	var result *ReturnResult
	err := uc.runWithRetry(ctx, func(movRepo repository.MovementRepository) error {
		if err := movRepo.LockLedgerKey(borrowLockKey(in.BorrowID)); err != nil {
			return err
		}
		borrow, err := movRepo.GetByID(in.BorrowID)
		if err != nil {
			return err
		}
		if borrow == nil || borrow.Kind != entity.KindBorrow {
			return domain.ErrNotFound
		}
		if in.ReturnQty.IsNegative() || in.LostQty.IsNegative() {
			return domain.ErrInvalidQuantity
		}
		if in.ReturnQty.IsZero() && in.LostQty.IsZero() {
			return domain.ErrInvalidQuantity
		}
		if in.LostQty.IsPositive() && in.Reason == "" {
			return domain.ErrReasonRequired
		}
		if in.ReturnedBy == "" {
			return domain.ErrActorRequired
		}

		children, err := movRepo.ListByParent(in.BorrowID)
		if err != nil {
			return err
		}
		// Pendiente fresco, nunca cacheado: es la única fuente de verdad.
		outstanding := ledger.OutstandingFor(borrow, children)
		if in.ReturnQty.Add(in.LostQty).GreaterThan(outstanding.OutstandingQty) {
			return &domain.ExceedsOutstandingError{
				BorrowID:    in.BorrowID,
				Outstanding: outstanding.OutstandingQty,
			}
		}

		now := time.Now()
		result = &ReturnResult{}
		if in.ReturnQty.IsPositive() {
			ret := childMovement(borrow, entity.KindReturn, in.ReturnQty, in.ReturnedBy, "", userID, now)
			if err := movRepo.Create(ret); err != nil {
				return err
			}
			children = append(children, ret)
			result.ReturnMovement = ret
		}
		if in.LostQty.IsPositive() {
			loss := childMovement(borrow, entity.KindLoss, in.LostQty, in.ReturnedBy, in.Reason, userID, now)
			if err := movRepo.Create(loss); err != nil {
				return err
			}
			children = append(children, loss)
			result.LossMovement = loss
		}

		result.Borrow = ledger.OutstandingFor(borrow, children)
		// Cierre monotónico: OPEN -> CLOSED, nunca al revés.
		if result.Borrow.Status == entity.BorrowStatusClosed && borrow.Status != entity.BorrowStatusClosed {
			if err := movRepo.UpdateBorrowStatus(borrow.ID, entity.BorrowStatusClosed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// runWithRetry ejecuta la transacción y reintenta una sola vez ante un
// conflicto de concurrencia; los errores de regla de negocio nunca se reintentan.
func (uc *MovementUseCase) runWithRetry(ctx context.Context, fn func(movRepo repository.MovementRepository) error) error {
	err := uc.txRunner.Run(ctx, fn)
	if errors.Is(err, domain.ErrConflict) {
		err = uc.txRunner.Run(ctx, fn)
	}
	return err
}

// childMovement construye un RETURN o LOSS heredando artículo, ubicación y
// unidad del préstamo origen (la devolución repone la celda original).
func childMovement(borrow *entity.Movement, kind string, qty decimal.Decimal, actor, reason, userID string, now time.Time) *entity.Movement {
	return &entity.Movement{
		ID:          uuid.New().String(),
		Kind:        kind,
		ItemName:    borrow.ItemName,
		Quantity:    qty,
		Unit:        borrow.Unit,
		Zone:        borrow.Zone,
		Channel:     borrow.Channel,
		ParentID:    borrow.ID,
		RequestedBy: actor,
		Reason:      reason,
		CreatedAt:   now,
		CreatedBy:   userID,
	}
}

func balanceLockKey(item, zone, channel string) string {
	return "ledger:" + item + "|" + zone + "|" + channel
}

func borrowLockKey(borrowID string) string {
	return "borrow:" + borrowID
}
