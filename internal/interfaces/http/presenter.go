package http

import (
	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/ledger"
)

// Mapeos entidad/agregado -> DTO de respuesta.

func toMovementResponse(m *entity.Movement) *dto.MovementResponse {
	if m == nil {
		return nil
	}
	return &dto.MovementResponse{
		ID:          m.ID,
		Kind:        m.Kind,
		ItemName:    m.ItemName,
		Quantity:    m.Quantity,
		Unit:        m.Unit,
		Zone:        m.Zone,
		Channel:     m.Channel,
		ParentID:    m.ParentID,
		RequestedBy: m.RequestedBy,
		Reason:      m.Reason,
		Remark:      m.Remark,
		Images:      m.Images,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		CreatedBy:   m.CreatedBy,
	}
}

func toMovementResponses(list []*entity.Movement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, *toMovementResponse(m))
	}
	return out
}

func toStockRow(b *ledger.Balance) dto.StockRowResponse {
	return dto.StockRowResponse{
		ItemName:       b.ItemName,
		Zone:           b.Zone,
		Channel:        b.Channel,
		Unit:           b.Unit,
		TotalIn:        b.TotalIn,
		TotalOut:       b.TotalOut,
		Balance:        b.OnHand,
		LastInAt:       b.LastInAt,
		LastOutAt:      b.LastOutAt,
		LastMovementAt: b.LastMovementAt,
	}
}

func toStockRows(list []*ledger.Balance) []dto.StockRowResponse {
	out := make([]dto.StockRowResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toStockRow(b))
	}
	return out
}

func toOutstandingResponse(o *ledger.Outstanding) dto.OutstandingResponse {
	return dto.OutstandingResponse{
		BorrowID:       o.BorrowID,
		ItemName:       o.ItemName,
		Zone:           o.Zone,
		Channel:        o.Channel,
		Unit:           o.Unit,
		RequestedBy:    o.RequestedBy,
		BorrowedAt:     o.BorrowedAt,
		BorrowedQty:    o.BorrowedQty,
		ReturnedQty:    o.ReturnedQty,
		LostQty:        o.LostQty,
		OutstandingQty: o.OutstandingQty,
		Status:         o.Status,
		Anomalous:      o.Anomalous,
	}
}

func toOutstandingResponses(list []*ledger.Outstanding) []dto.OutstandingResponse {
	out := make([]dto.OutstandingResponse, 0, len(list))
	for _, o := range list {
		out = append(out, toOutstandingResponse(o))
	}
	return out
}
