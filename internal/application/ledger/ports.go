package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando un
// repositorio de movimientos atado a esa tx. Es la garantía de atomicidad del
// ciclo leer-validar-escribir del reconciliador: junto con el advisory lock por
// clave, cierra la carrera check-then-act entre escritores concurrentes.
type TxRunner interface {
	Run(ctx context.Context, fn func(movRepo repository.MovementRepository) error) error
}

// StockPDFGenerator genera el informe de existencias en PDF.
// Lo implementa infrastructure/pdf con Maroto.
type StockPDFGenerator interface {
	GenerateStockReport(appName string, rows []dto.StockRowResponse, generatedAt time.Time) ([]byte, error)
}
