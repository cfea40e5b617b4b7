package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Almacen-api/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// mapError traduce errores de pgx a errores de dominio:
//   - 40001 (serialization_failure) y 40P01 (deadlock_detected) -> ErrConflict,
//     que el caso de uso reintenta una vez;
//   - fallos de conexión (clase 08) -> ErrStoreUnavailable, reintentable por la
//     capa colaboradora sin cambio de estado.
//
// El resto se devuelve tal cual (ya envuelto por el repo).
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "40001" || pgErr.Code == "40P01":
			return domain.ErrConflict
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08":
			return domain.ErrStoreUnavailable
		}
	}
	if pgconn.Timeout(err) {
		return domain.ErrStoreUnavailable
	}
	return err
}
