package ledger

import (
	"context"
	"strings"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/ledger"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
	"github.com/jhoicas/Almacen-api/internal/domain/similarity"
)

// QueryUseCase vistas de lectura del libro: resumen de stock, préstamos
// pendientes, historial y candidatos a duplicado. Todas re-derivan desde un
// snapshot fresco del repositorio; nada se cachea entre llamadas.
type QueryUseCase struct {
	movRepo repository.MovementRepository
}

// NewQueryUseCase construye el caso de uso de lectura.
func NewQueryUseCase(movRepo repository.MovementRepository) *QueryUseCase {
	return &QueryUseCase{movRepo: movRepo}
}

// StockFilter filtros del resumen de stock.
type StockFilter struct {
	Search      string
	Zone        string
	Channel     string
	IncludeZero bool // incluir celdas con saldo <= 0 (política de presentación)
}

// StockSummary pliega el snapshot completo en filas de saldo ordenadas.
func (uc *QueryUseCase) StockSummary(ctx context.Context, filter StockFilter) ([]*ledger.Balance, error) {
	records, err := uc.movRepo.ListAll()
	if err != nil {
		return nil, err
	}
	rows := ledger.SortedBalances(ledger.ComputeBalances(records))

	out := rows[:0]
	search := strings.ToLower(filter.Search)
	for _, b := range rows {
		if !filter.IncludeZero && !b.OnHand.IsPositive() {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(b.ItemName), search) {
			continue
		}
		if filter.Zone != "" && b.Zone != filter.Zone {
			continue
		}
		if filter.Channel != "" && b.Channel != filter.Channel {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// Outstanding devuelve la vista por préstamo, el más reciente primero.
// Con openOnly se omiten los préstamos ya cerrados.
func (uc *QueryUseCase) Outstanding(ctx context.Context, openOnly bool) ([]*ledger.Outstanding, error) {
	records, err := uc.movRepo.ListAll()
	if err != nil {
		return nil, err
	}
	list := ledger.ComputeOutstanding(records)
	if !openOnly {
		return list, nil
	}
	open := list[:0]
	for _, o := range list {
		if o.Status == entity.BorrowStatusOpen {
			open = append(open, o)
		}
	}
	return open, nil
}

// History lista movimientos paginados con su total (para las páginas de
// historial de entradas/salidas).
func (uc *QueryUseCase) History(ctx context.Context, filter repository.MovementFilter) ([]*entity.Movement, int, error) {
	list, err := uc.movRepo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := uc.movRepo.Count(filter)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// SimilarNames devuelve los nombres de artículo candidatos a duplicado del
// nombre consultado (aviso previo al registro de una entrada).
func (uc *QueryUseCase) SimilarNames(ctx context.Context, name string) ([]string, error) {
	names, err := uc.movRepo.ListItemNames()
	if err != nil {
		return nil, err
	}
	return similarity.Candidates(name, names), nil
}
