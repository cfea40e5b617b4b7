package http

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	appledger "github.com/jhoicas/Almacen-api/internal/application/ledger"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// StockHandler maneja las vistas de lectura del libro (protegido): resumen de
// stock, préstamos pendientes, historial y nombres similares.
type StockHandler struct {
	uc      *appledger.QueryUseCase
	pdfGen  appledger.StockPDFGenerator
	appName string
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *appledger.QueryUseCase, pdfGen appledger.StockPDFGenerator, appName string) *StockHandler {
	return &StockHandler{uc: uc, pdfGen: pdfGen, appName: appName}
}

// Summary godoc
// @Summary      Resumen de existencias por (artículo, zona, canal)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        search        query  string  false  "Subcadena del nombre de artículo"
// @Param        zone          query  string  false  "Filtrar por zona"
// @Param        channel       query  string  false  "Filtrar por canal"
// @Param        include_zero  query  bool    false  "Incluir celdas con saldo <= 0"
// @Success      200  {array}   dto.StockRowResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/stock/summary [get]
func (h *StockHandler) Summary(c *fiber.Ctx) error {
	rows, err := h.uc.StockSummary(c.Context(), stockFilterFromQuery(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(toStockRows(rows))
}

// SummaryPDF godoc
// @Summary      Resumen de existencias en PDF
// @Tags         stock
// @Security     Bearer
// @Produce      application/pdf
// @Param        search        query  string  false  "Subcadena del nombre de artículo"
// @Param        zone          query  string  false  "Filtrar por zona"
// @Param        channel       query  string  false  "Filtrar por canal"
// @Param        include_zero  query  bool    false  "Incluir celdas con saldo <= 0"
// @Success      200  {file}    binary
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/stock/summary/pdf [get]
func (h *StockHandler) SummaryPDF(c *fiber.Ctx) error {
	rows, err := h.uc.StockSummary(c.Context(), stockFilterFromQuery(c))
	if err != nil {
		return h.writeError(c, err)
	}
	now := time.Now()
	pdfBytes, err := h.pdfGen.GenerateStockReport(h.appName, toStockRows(rows), now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "PDF_GENERATION", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="existencias-%s.pdf"`, now.Format("2006-01-02")))
	return c.Send(pdfBytes)
}

// Outstanding godoc
// @Summary      Préstamos con su pendiente, el más reciente primero
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        open_only  query  bool  false  "Omitir préstamos ya cerrados"
// @Success      200  {array}   dto.OutstandingResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/ledger/outstanding [get]
func (h *StockHandler) Outstanding(c *fiber.Ctx) error {
	list, err := h.uc.Outstanding(c.Context(), c.QueryBool("open_only"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(toOutstandingResponses(list))
}

// Movements godoc
// @Summary      Historial de movimientos del libro
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        kinds    query  string  false  "Tipos separados por coma (RECEIVE,CONSUME,BORROW,RETURN,LOSS)"
// @Param        search   query  string  false  "Subcadena del nombre de artículo"
// @Param        zone     query  string  false  "Filtrar por zona"
// @Param        channel  query  string  false  "Filtrar por canal"
// @Param        limit    query  int     false  "Tamaño de página (default 20, max 1000)"
// @Param        offset   query  int     false  "Desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/ledger/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()

	filter := repository.MovementFilter{
		Search:  c.Query("search"),
		Zone:    c.Query("zone"),
		Channel: c.Query("channel"),
		Limit:   page.Limit,
		Offset:  page.Offset,
	}
	if kinds := c.Query("kinds"); kinds != "" {
		for _, k := range strings.Split(kinds, ",") {
			if k = strings.TrimSpace(strings.ToUpper(k)); k != "" {
				filter.Kinds = append(filter.Kinds, k)
			}
		}
	}

	list, total, err := h.uc.History(c.Context(), filter)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"movements": toMovementResponses(list),
		"page":      dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	})
}

// SimilarNames godoc
// @Summary      Nombres de artículo candidatos a duplicado
// @Description  Aviso previo a una entrada: nombres ya registrados que tras la
//
//	normalización (mayúsculas, espacios, signos, variantes de pulgada) contienen
//	o están contenidos en el nombre consultado.
//
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        name  query  string  true  "Nombre de artículo a contrastar"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/items/similar [get]
func (h *StockHandler) SimilarNames(c *fiber.Ctx) error {
	name := c.Query("name")
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "name es requerido"})
	}
	candidates, err := h.uc.SimilarNames(c.Context(), name)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"name":       name,
		"candidates": candidates,
	})
}

func (h *StockHandler) writeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STORE_UNAVAILABLE", Message: "almacenamiento no disponible"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func stockFilterFromQuery(c *fiber.Ctx) appledger.StockFilter {
	return appledger.StockFilter{
		Search:      c.Query("search"),
		Zone:        c.Query("zone"),
		Channel:     c.Query("channel"),
		IncludeZero: c.QueryBool("include_zero"),
	}
}
