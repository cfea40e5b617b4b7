package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, kind, item_name, quantity, unit, zone, channel, parent_id,
	requested_by, reason, remark, images, status, created_at, created_by`

// MovementRepo implementación de MovementRepository sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create persiste un movimiento del libro. La tabla impone CHECK (quantity > 0).
func (r *MovementRepo) Create(m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO movements (id, kind, item_name, quantity, unit, zone, channel, parent_id,
			requested_by, reason, remark, images, status, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.Kind, m.ItemName, m.Quantity, m.Unit, m.Zone, m.Channel,
		nullable(m.ParentID), m.RequestedBy, m.Reason, m.Remark, m.Images,
		nullable(m.Status), m.CreatedAt, nullable(m.CreatedBy),
	)
	if err != nil {
		return mapError(fmt.Errorf("create movement: %w", err))
	}
	return nil
}

// GetByID obtiene un movimiento por ID; nil si no existe.
func (r *MovementRepo) GetByID(id string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(fmt.Errorf("get movement: %w", err))
	}
	return m, nil
}

// ListAll devuelve el snapshot completo del libro para los pliegues de saldo.
func (r *MovementRepo) ListAll() ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements ORDER BY created_at`
	return r.list(query)
}

// ListByItem devuelve los movimientos de un artículo (clave exacta) más los
// RETURN/LOSS cuyos préstamos padre son del artículo.
func (r *MovementRepo) ListByItem(itemName string) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + ` FROM movements
		WHERE item_name = $1
		   OR parent_id IN (SELECT id FROM movements WHERE item_name = $1 AND kind = 'BORROW')
		ORDER BY created_at`
	return r.list(query, itemName)
}

// ListByParent devuelve los hijos (RETURN/LOSS) de un préstamo.
func (r *MovementRepo) ListByParent(parentID string) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE parent_id = $1 ORDER BY created_at`
	return r.list(query, parentID)
}

// List lista movimientos filtrados y paginados, el más reciente primero.
func (r *MovementRepo) List(filter repository.MovementFilter) ([]*entity.Movement, error) {
	where, args := filterClauses(filter)
	query := `SELECT ` + movementColumns + ` FROM movements` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)
	return r.list(query, args...)
}

// Count cuenta los movimientos que cumplen el filtro (para paginación).
func (r *MovementRepo) Count(filter repository.MovementFilter) (int, error) {
	where, args := filterClauses(filter)
	var total int
	err := r.q.QueryRow(context.Background(), `SELECT count(*) FROM movements`+where, args...).Scan(&total)
	if err != nil {
		return 0, mapError(fmt.Errorf("count movements: %w", err))
	}
	return total, nil
}

// ListItemNames devuelve los nombres de artículo distintos del libro.
func (r *MovementRepo) ListItemNames() ([]string, error) {
	rows, err := r.q.Query(context.Background(),
		`SELECT DISTINCT item_name FROM movements WHERE item_name <> '' ORDER BY item_name`)
	if err != nil {
		return nil, mapError(fmt.Errorf("list item names: %w", err))
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan item name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// UpdateBorrowStatus escribe el campo derivado status de un BORROW.
// Único UPDATE permitido sobre la tabla: el libro es append-only.
func (r *MovementRepo) UpdateBorrowStatus(borrowID, status string) error {
	tag, err := r.q.Exec(context.Background(),
		`UPDATE movements SET status = $2 WHERE id = $1 AND kind = 'BORROW'`, borrowID, status)
	if err != nil {
		return mapError(fmt.Errorf("update borrow status: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update borrow status: préstamo %s no encontrado", borrowID)
	}
	return nil
}

// LockLedgerKey toma un advisory lock transaccional sobre la clave del libro.
// Se libera solo al Commit/Rollback; serializa el ciclo leer-validar-escribir
// de los escritores concurrentes de la misma clave.
func (r *MovementRepo) LockLedgerKey(key string) error {
	_, err := r.q.Exec(context.Background(), `SELECT pg_advisory_xact_lock(hashtext($1))`, key)
	if err != nil {
		return mapError(fmt.Errorf("lock ledger key: %w", err))
	}
	return nil
}

func (r *MovementRepo) list(query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, mapError(fmt.Errorf("list movements: %w", err))
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func filterClauses(filter repository.MovementFilter) (string, []any) {
	var conds []string
	var args []any
	pos := 1
	if len(filter.Kinds) > 0 {
		conds = append(conds, fmt.Sprintf("kind = ANY($%d)", pos))
		args = append(args, filter.Kinds)
		pos++
	}
	if filter.Search != "" {
		conds = append(conds, fmt.Sprintf("item_name ILIKE $%d", pos))
		args = append(args, "%"+filter.Search+"%")
		pos++
	}
	if filter.Zone != "" {
		conds = append(conds, fmt.Sprintf("zone = $%d", pos))
		args = append(args, filter.Zone)
		pos++
	}
	if filter.Channel != "" {
		conds = append(conds, fmt.Sprintf("channel = $%d", pos))
		args = append(args, filter.Channel)
		pos++
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovement(row rowScanner) (*entity.Movement, error) {
	var m entity.Movement
	var parentID, status, createdBy *string
	if err := row.Scan(
		&m.ID, &m.Kind, &m.ItemName, &m.Quantity, &m.Unit, &m.Zone, &m.Channel,
		&parentID, &m.RequestedBy, &m.Reason, &m.Remark, &m.Images,
		&status, &m.CreatedAt, &createdBy,
	); err != nil {
		return nil, err
	}
	if parentID != nil {
		m.ParentID = *parentID
	}
	if status != nil {
		m.Status = *status
	}
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	return &m, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
