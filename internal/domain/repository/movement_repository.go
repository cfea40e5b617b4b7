package repository

import "github.com/jhoicas/Almacen-api/internal/domain/entity"

// MovementFilter filtros de listado del libro de movimientos.
// Search compara contra item_name (ILIKE); Kinds vacío = todos los tipos.
type MovementFilter struct {
	Kinds   []string
	Search  string
	Zone    string
	Channel string
	Limit   int
	Offset  int
}

// MovementRepository define el puerto de persistencia del libro de movimientos (DIP).
// Los registros son append-only: no hay Update ni Delete, con la única excepción del
// campo derivado status de los BORROW, que escribe solo el reconciliador.
type MovementRepository interface {
	Create(movement *entity.Movement) error
	GetByID(id string) (*entity.Movement, error)
	// ListAll devuelve el snapshot completo para los pliegues de saldo.
	ListAll() ([]*entity.Movement, error)
	// ListByItem devuelve todos los movimientos de un artículo (clave exacta).
	ListByItem(itemName string) ([]*entity.Movement, error)
	// ListByParent devuelve los RETURN/LOSS hijos de un préstamo.
	ListByParent(parentID string) ([]*entity.Movement, error)
	List(filter MovementFilter) ([]*entity.Movement, error)
	Count(filter MovementFilter) (int, error)
	// ListItemNames devuelve los nombres de artículo distintos (para duplicados).
	ListItemNames() ([]string, error)
	UpdateBorrowStatus(borrowID, status string) error
	// LockLedgerKey serializa a los escritores de una misma clave del libro
	// (pg_advisory_xact_lock). Solo tiene sentido dentro de una transacción.
	LockLedgerKey(key string) error
}
