package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/auth"
	appledger "github.com/jhoicas/Almacen-api/internal/application/ledger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	MovementUC *appledger.MovementUseCase
	QueryUC    *appledger.QueryUseCase
	AuthUC     *auth.AuthUseCase
	PDFGen     appledger.StockPDFGenerator
	AppName    string
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Libro de movimientos: escrituras (protegido)
	ledgerGroup := protected.Group("/ledger")
	ledgerHandler := NewLedgerHandler(deps.MovementUC)
	ledgerGroup.Post("/receipts", ledgerHandler.RecordReceipt)
	ledgerGroup.Post("/issuances", ledgerHandler.RecordIssuance)
	ledgerGroup.Post("/returns", ledgerHandler.RecordReturn)

	// Vistas de lectura (protegido)
	stockHandler := NewStockHandler(deps.QueryUC, deps.PDFGen, deps.AppName)
	ledgerGroup.Get("/outstanding", stockHandler.Outstanding)
	ledgerGroup.Get("/movements", stockHandler.Movements)

	stock := protected.Group("/stock")
	stock.Get("/summary", stockHandler.Summary)
	stock.Get("/summary/pdf", stockHandler.SummaryPDF)

	items := protected.Group("/items")
	items.Get("/similar", stockHandler.SimilarNames)
}
