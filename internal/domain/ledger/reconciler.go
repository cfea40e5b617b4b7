// Package ledger implementa el reconciliador del libro de inventario: funciones
// puras que pliegan la colección de movimientos en (a) saldos por
// (artículo, zona, canal) y (b) pendientes por préstamo. Ningún otro código debe
// re-derivar ni cachear estos agregados.
package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// Key identifica una celda de saldo: artículo + ubicación.
type Key struct {
	ItemName string
	Zone     string
	Channel  string
}

// Balance es el agregado de una celda.
// TotalIn = RECEIVE + RETURN, TotalOut = CONSUME + BORROW,
// OnHand = TotalIn - TotalOut. LOSS es neutro: ya se debitó al prestar.
type Balance struct {
	ItemName       string
	Zone           string
	Channel        string
	Unit           string
	TotalIn        decimal.Decimal
	TotalOut       decimal.Decimal
	OnHand         decimal.Decimal
	LastInAt       *time.Time
	LastOutAt      *time.Time
	LastMovementAt time.Time
}

// Outstanding es la vista de un préstamo: cuánto se prestó, cuánto volvió,
// cuánto se perdió y cuánto sigue pendiente.
type Outstanding struct {
	BorrowID       string
	ItemName       string
	Zone           string
	Channel        string
	Unit           string
	RequestedBy    string
	BorrowedAt     time.Time
	BorrowedQty    decimal.Decimal
	ReturnedQty    decimal.Decimal
	LostQty        decimal.Decimal
	OutstandingQty decimal.Decimal // nunca negativo: ver Anomalous
	Status         string          // OPEN | CLOSED
	// Anomalous marca que devuelto+perdido > prestado: un escritor externo violó
	// la conservación. Se reporta en vez de tragarse el dato.
	Anomalous bool
}

// ComputeBalances pliega un snapshot de movimientos en saldos por celda.
// Es independiente del orden de los registros: los RETURN se atribuyen a la celda
// del BORROW padre (la devolución repone la ubicación original), por eso se indexa
// primero el universo de préstamos.
func ComputeBalances(records []*entity.Movement) map[Key]*Balance {
	borrows := indexBorrows(records)
	out := make(map[Key]*Balance)

	cell := func(k Key, unit string) *Balance {
		b, ok := out[k]
		if !ok {
			b = &Balance{ItemName: k.ItemName, Zone: k.Zone, Channel: k.Channel}
			out[k] = b
		}
		if b.Unit == "" {
			b.Unit = unit
		}
		return b
	}

	for _, m := range records {
		switch m.Kind {
		case entity.KindReceive:
			b := cell(Key{m.ItemName, m.Zone, m.Channel}, m.Unit)
			b.TotalIn = b.TotalIn.Add(m.Quantity)
			b.LastInAt = maxTime(b.LastInAt, m.CreatedAt)
			touch(b, m.CreatedAt)
		case entity.KindConsume, entity.KindBorrow:
			b := cell(Key{m.ItemName, m.Zone, m.Channel}, m.Unit)
			b.TotalOut = b.TotalOut.Add(m.Quantity)
			b.LastOutAt = maxTime(b.LastOutAt, m.CreatedAt)
			touch(b, m.CreatedAt)
		case entity.KindReturn:
			k := Key{m.ItemName, m.Zone, m.Channel}
			unit := m.Unit
			if parent, ok := borrows[m.ParentID]; ok {
				k = Key{parent.ItemName, parent.Zone, parent.Channel}
				unit = parent.Unit
			}
			b := cell(k, unit)
			b.TotalIn = b.TotalIn.Add(m.Quantity)
			b.LastInAt = maxTime(b.LastInAt, m.CreatedAt)
			touch(b, m.CreatedAt)
		case entity.KindLoss:
			// Neutro para el saldo; solo cuenta como actividad de la celda del préstamo.
			if parent, ok := borrows[m.ParentID]; ok {
				b := cell(Key{parent.ItemName, parent.Zone, parent.Channel}, parent.Unit)
				touch(b, m.CreatedAt)
			}
		}
	}

	for _, b := range out {
		b.OnHand = b.TotalIn.Sub(b.TotalOut)
	}
	return out
}

// SortedBalances aplana el mapa de saldos en una lista estable por
// artículo, zona y canal (para listados y el reporte PDF).
func SortedBalances(balances map[Key]*Balance) []*Balance {
	list := make([]*Balance, 0, len(balances))
	for _, b := range balances {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].ItemName != list[j].ItemName {
			return list[i].ItemName < list[j].ItemName
		}
		if list[i].Zone != list[j].Zone {
			return list[i].Zone < list[j].Zone
		}
		return list[i].Channel < list[j].Channel
	})
	return list
}

// ComputeOutstanding pliega el snapshot en la vista por préstamo, ordenada por
// fecha de préstamo descendente (el más reciente primero).
func ComputeOutstanding(records []*entity.Movement) []*Outstanding {
	borrows := indexBorrows(records)
	byID := make(map[string]*Outstanding, len(borrows))
	for id, b := range borrows {
		byID[id] = &Outstanding{
			BorrowID:    id,
			ItemName:    b.ItemName,
			Zone:        b.Zone,
			Channel:     b.Channel,
			Unit:        b.Unit,
			RequestedBy: b.RequestedBy,
			BorrowedAt:  b.CreatedAt,
			BorrowedQty: b.Quantity,
		}
	}
	for _, m := range records {
		o, ok := byID[m.ParentID]
		if !ok {
			continue
		}
		switch m.Kind {
		case entity.KindReturn:
			o.ReturnedQty = o.ReturnedQty.Add(m.Quantity)
		case entity.KindLoss:
			o.LostQty = o.LostQty.Add(m.Quantity)
		}
	}

	list := make([]*Outstanding, 0, len(byID))
	for _, o := range byID {
		settle(o)
		list = append(list, o)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].BorrowedAt.Equal(list[j].BorrowedAt) {
			return list[i].BorrowedAt.After(list[j].BorrowedAt)
		}
		return list[i].BorrowID < list[j].BorrowID
	})
	return list
}

// OutstandingFor calcula la vista de un solo préstamo a partir del préstamo y
// sus hijos (RETURN/LOSS con ParentID == borrow.ID). Es lo que usa AcceptReturn
// para validar contra estado fresco, nunca cacheado.
func OutstandingFor(borrow *entity.Movement, children []*entity.Movement) *Outstanding {
	o := &Outstanding{
		BorrowID:    borrow.ID,
		ItemName:    borrow.ItemName,
		Zone:        borrow.Zone,
		Channel:     borrow.Channel,
		Unit:        borrow.Unit,
		RequestedBy: borrow.RequestedBy,
		BorrowedAt:  borrow.CreatedAt,
		BorrowedQty: borrow.Quantity,
	}
	for _, m := range children {
		if m.ParentID != borrow.ID {
			continue
		}
		switch m.Kind {
		case entity.KindReturn:
			o.ReturnedQty = o.ReturnedQty.Add(m.Quantity)
		case entity.KindLoss:
			o.LostQty = o.LostQty.Add(m.Quantity)
		}
	}
	settle(o)
	return o
}

// settle deriva OutstandingQty, Status y Anomalous a partir de los acumulados.
func settle(o *Outstanding) {
	raw := o.BorrowedQty.Sub(o.ReturnedQty).Sub(o.LostQty)
	if raw.IsNegative() {
		o.Anomalous = true
		o.OutstandingQty = decimal.Zero
	} else {
		o.OutstandingQty = raw
	}
	if o.OutstandingQty.IsZero() {
		o.Status = entity.BorrowStatusClosed
	} else {
		o.Status = entity.BorrowStatusOpen
	}
}

func indexBorrows(records []*entity.Movement) map[string]*entity.Movement {
	idx := make(map[string]*entity.Movement)
	for _, m := range records {
		if m.Kind == entity.KindBorrow {
			idx[m.ID] = m
		}
	}
	return idx
}

func touch(b *Balance, at time.Time) {
	if at.After(b.LastMovementAt) {
		b.LastMovementAt = at
	}
}

func maxTime(cur *time.Time, at time.Time) *time.Time {
	if cur == nil || at.After(*cur) {
		t := at
		return &t
	}
	return cur
}
