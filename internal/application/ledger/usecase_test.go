package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	appledger "github.com/jhoicas/Almacen-api/internal/application/ledger"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria: repositorio + tx runner
// ──────────────────────────────────────────────────────────────────────────────

// fakeMovementRepo implementa repository.MovementRepository sobre un slice.
type fakeMovementRepo struct {
	mu      sync.Mutex
	records []*entity.Movement
	locked  []string

	createErr error // inyectar fallo en Create
}

func (r *fakeMovementRepo) Create(m *entity.Movement) error {
	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil // el siguiente intento funciona
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.records = append(r.records, &cp)
	return nil
}

func (r *fakeMovementRepo) GetByID(id string) (*entity.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.records {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeMovementRepo) ListAll() ([]*entity.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.Movement(nil), r.records...), nil
}

func (r *fakeMovementRepo) ListByItem(itemName string) ([]*entity.Movement, error) {
	all, _ := r.ListAll()
	var out []*entity.Movement
	byID := make(map[string]*entity.Movement)
	for _, m := range all {
		byID[m.ID] = m
	}
	for _, m := range all {
		if m.ItemName == itemName {
			out = append(out, m)
			continue
		}
		// hijos cuyo préstamo padre es del artículo
		if p, ok := byID[m.ParentID]; ok && p.ItemName == itemName {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) ListByParent(parentID string) ([]*entity.Movement, error) {
	all, _ := r.ListAll()
	var out []*entity.Movement
	for _, m := range all {
		if m.ParentID == parentID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) List(filter repository.MovementFilter) ([]*entity.Movement, error) {
	return r.ListAll()
}

func (r *fakeMovementRepo) Count(filter repository.MovementFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records), nil
}

func (r *fakeMovementRepo) ListItemNames() ([]string, error) {
	all, _ := r.ListAll()
	var names []string
	seen := make(map[string]struct{})
	for _, m := range all {
		if m.ItemName == "" {
			continue
		}
		if _, ok := seen[m.ItemName]; !ok {
			names = append(names, m.ItemName)
			seen[m.ItemName] = struct{}{}
		}
	}
	return names, nil
}

func (r *fakeMovementRepo) UpdateBorrowStatus(borrowID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.records {
		if m.ID == borrowID {
			m.Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeMovementRepo) LockLedgerKey(key string) error {
	r.locked = append(r.locked, key)
	return nil
}

// fakeTxRunner ejecuta el callback directamente contra el repo en memoria.
type fakeTxRunner struct {
	repo *fakeMovementRepo
	runs int
}

func (tr *fakeTxRunner) Run(_ context.Context, fn func(movRepo repository.MovementRepository) error) error {
	tr.runs++
	return fn(tr.repo)
}

func newFixture() (*appledger.MovementUseCase, *appledger.QueryUseCase, *fakeMovementRepo, *fakeTxRunner) {
	repo := &fakeMovementRepo{}
	tx := &fakeTxRunner{repo: repo}
	return appledger.NewMovementUseCase(tx), appledger.NewQueryUseCase(repo), repo, tx
}

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

const testUser = "u-1"

// receiveAndBorrow deja el escenario base: 10 recibidos, 6 prestados.
func receiveAndBorrow(t *testing.T, movUC *appledger.MovementUseCase) *entity.Movement {
	t.Helper()
	ctx := context.Background()
	_, err := movUC.RecordReceive(ctx, testUser, dto.ReceiveRequest{
		ItemName: "Pipe A", Quantity: qty(10), Unit: "pcs", Zone: "A", Channel: "1",
	})
	require.NoError(t, err)
	borrow, err := movUC.AcceptIssuance(ctx, testUser, dto.IssuanceRequest{
		ItemName: "Pipe A", Quantity: qty(6), Zone: "A", Channel: "1",
		Kind: entity.KindBorrow, RequestedBy: "somsak",
	})
	require.NoError(t, err)
	return borrow
}

// ──────────────────────────────────────────────────────────────────────────────
// RecordReceive
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordReceive_CantidadNoPositivaRechazada(t *testing.T) {
	movUC, _, repo, _ := newFixture()

	_, err := movUC.RecordReceive(context.Background(), testUser, dto.ReceiveRequest{
		ItemName: "Pipe A", Quantity: qty(0), Zone: "A", Channel: "1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Empty(t, repo.records, "no debe crearse ningún registro")
}

func TestRecordReceive_ZonaYCanalObligatorios(t *testing.T) {
	movUC, _, _, _ := newFixture()

	_, err := movUC.RecordReceive(context.Background(), testUser, dto.ReceiveRequest{
		ItemName: "Pipe A", Quantity: qty(5), Zone: "", Channel: "1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Recibir 10 → saldo 10.
func TestRecordReceive_ActualizaSaldo(t *testing.T) {
	movUC, queryUC, _, _ := newFixture()
	ctx := context.Background()

	_, err := movUC.RecordReceive(ctx, testUser, dto.ReceiveRequest{
		ItemName: "Pipe A", Quantity: qty(10), Unit: "pcs", Zone: "A", Channel: "1",
	})
	require.NoError(t, err)

	rows, err := queryUC.StockSummary(ctx, appledger.StockFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].TotalIn.Equal(qty(10)))
	assert.True(t, rows[0].OnHand.Equal(qty(10)))
}

// ──────────────────────────────────────────────────────────────────────────────
// AcceptIssuance
// ──────────────────────────────────────────────────────────────────────────────

// Prestar 6 de 10 → saldo 4, préstamo OPEN por 6.
func TestAcceptIssuance_PrestamoDejaSaldoYPendiente(t *testing.T) {
	movUC, queryUC, _, _ := newFixture()
	ctx := context.Background()
	borrow := receiveAndBorrow(t, movUC)

	assert.Equal(t, entity.BorrowStatusOpen, borrow.Status)

	rows, err := queryUC.StockSummary(ctx, appledger.StockFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].OnHand.Equal(qty(4)), "saldo debe ser 4")

	outstanding, err := queryUC.Outstanding(ctx, true)
	require.NoError(t, err)
	require.Len(t, outstanding, 1)
	assert.True(t, outstanding[0].OutstandingQty.Equal(qty(6)))
	assert.Equal(t, entity.BorrowStatusOpen, outstanding[0].Status)
}

// La salida que excede el saldo se rechaza llevando el saldo real.
func TestAcceptIssuance_StockInsuficienteLlevaSaldo(t *testing.T) {
	movUC, _, repo, _ := newFixture()
	ctx := context.Background()
	receiveAndBorrow(t, movUC) // saldo 4

	before := len(repo.records)
	_, err := movUC.AcceptIssuance(ctx, testUser, dto.IssuanceRequest{
		ItemName: "Pipe A", Quantity: qty(9), Zone: "A", Channel: "1",
		Kind: entity.KindConsume, RequestedBy: "somsak",
	})

	var insuf *domain.InsufficientStockError
	require.ErrorAs(t, err, &insuf)
	assert.True(t, insuf.Balance.Equal(qty(4)), "debe llevar el saldo verdadero (4), fue %s", insuf.Balance)
	assert.Len(t, repo.records, before, "el rechazo no debe crear registros")
}

func TestAcceptIssuance_SolicitanteObligatorio(t *testing.T) {
	movUC, _, _, _ := newFixture()

	_, err := movUC.AcceptIssuance(context.Background(), testUser, dto.IssuanceRequest{
		ItemName: "Pipe A", Quantity: qty(1), Zone: "A", Channel: "1",
		Kind: entity.KindConsume,
	})
	assert.ErrorIs(t, err, domain.ErrActorRequired)
}

func TestAcceptIssuance_TipoInvalidoRechazado(t *testing.T) {
	movUC, _, _, _ := newFixture()

	_, err := movUC.AcceptIssuance(context.Background(), testUser, dto.IssuanceRequest{
		ItemName: "Pipe A", Quantity: qty(1), Zone: "A", Channel: "1",
		Kind: entity.KindReturn, RequestedBy: "somsak",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// La validación se serializa por clave del libro antes de leer el snapshot.
func TestAcceptIssuance_BloqueaClaveDeLaCelda(t *testing.T) {
	movUC, _, repo, _ := newFixture()
	receiveAndBorrow(t, movUC)

	assert.Contains(t, repo.locked, "ledger:Pipe A|A|1")
}

// ──────────────────────────────────────────────────────────────────────────────
// AcceptReturn
// ──────────────────────────────────────────────────────────────────────────────

// Devolver 4 + perder 2 → pendiente 0, CLOSED, saldo 8.
func TestAcceptReturn_DevolucionYPerdidaCierranPrestamo(t *testing.T) {
	movUC, queryUC, repo, _ := newFixture()
	ctx := context.Background()
	borrow := receiveAndBorrow(t, movUC)

	res, err := movUC.AcceptReturn(ctx, testUser, dto.ReturnRequest{
		BorrowID: borrow.ID, ReturnQty: qty(4), LostQty: qty(2),
		Reason: "dañado", ReturnedBy: "somsak",
	})
	require.NoError(t, err)

	require.NotNil(t, res.ReturnMovement)
	require.NotNil(t, res.LossMovement)
	assert.Equal(t, borrow.ID, res.ReturnMovement.ParentID)
	assert.Equal(t, "A", res.ReturnMovement.Zone, "el RETURN hereda la celda del préstamo")
	assert.Equal(t, "dañado", res.LossMovement.Reason)

	assert.True(t, res.Borrow.OutstandingQty.IsZero())
	assert.Equal(t, entity.BorrowStatusClosed, res.Borrow.Status)

	stored, err := repo.GetByID(borrow.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BorrowStatusClosed, stored.Status, "el status persiste en el préstamo")

	// Saldo: 4 tras prestar + 4 devueltos = 8; la pérdida no repone.
	rows, err := queryUC.StockSummary(ctx, appledger.StockFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].OnHand.Equal(qty(8)), "saldo debe ser 8, fue %s", rows[0].OnHand)
}

// Sobre un préstamo cerrado cualquier devolución se rechaza
// con el pendiente real (0) y no crea registros.
func TestAcceptReturn_ExcesoSobrePendienteRechazado(t *testing.T) {
	movUC, _, repo, _ := newFixture()
	ctx := context.Background()
	borrow := receiveAndBorrow(t, movUC)

	_, err := movUC.AcceptReturn(ctx, testUser, dto.ReturnRequest{
		BorrowID: borrow.ID, ReturnQty: qty(4), LostQty: qty(2),
		Reason: "dañado", ReturnedBy: "somsak",
	})
	require.NoError(t, err)

	before := len(repo.records)
	_, err = movUC.AcceptReturn(ctx, testUser, dto.ReturnRequest{
		BorrowID: borrow.ID, ReturnQty: qty(1), ReturnedBy: "somsak",
	})

	var exceeds *domain.ExceedsOutstandingError
	require.ErrorAs(t, err, &exceeds)
	assert.True(t, exceeds.Outstanding.IsZero(), "el pendiente informado debe ser 0")
	assert.Len(t, repo.records, before, "el rechazo no debe crear registros")
}

// Pérdida sin motivo se rechaza con ReasonRequired antes de
// evaluar cantidades contra el pendiente.
func TestAcceptReturn_PerdidaSinMotivoRechazada(t *testing.T) {
	movUC, _, _, _ := newFixture()
	ctx := context.Background()
	borrow := receiveAndBorrow(t, movUC)

	// cerrar el préstamo
	_, err := movUC.AcceptReturn(ctx, testUser, dto.ReturnRequest{
		BorrowID: borrow.ID, ReturnQty: qty(6), ReturnedBy: "somsak",
	})
	require.NoError(t, err)

	// pendiente ya es 0, pero el error vinculante debe ser el motivo faltante
	_, err = movUC.AcceptReturn(ctx, testUser, dto.ReturnRequest{
		BorrowID: borrow.ID, LostQty: qty(3), Reason: "", ReturnedBy: "somsak",
	})
	assert.ErrorIs(t, err, domain.ErrReasonRequired)
}

func TestAcceptReturn_AmbasCantidadesCeroRechazado(t *testing.T) {
	movUC, _, _, _ := newFixture()
	borrow := receiveAndBorrow(t, movUC)

	_, err := movUC.AcceptReturn(context.Background(), testUser, dto.ReturnRequest{
		BorrowID: borrow.ID, ReturnedBy: "somsak",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestAcceptReturn_CantidadNegativaRechazada(t *testing.T) {
	movUC, _, _, _ := newFixture()
	borrow := receiveAndBorrow(t, movUC)

	_, err := movUC.AcceptReturn(context.Background(), testUser, dto.ReturnRequest{
		BorrowID: borrow.ID, ReturnQty: qty(-1), LostQty: qty(2),
		Reason: "x", ReturnedBy: "somsak",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestAcceptReturn_PrestamoInexistente(t *testing.T) {
	movUC, _, _, _ := newFixture()

	_, err := movUC.AcceptReturn(context.Background(), testUser, dto.ReturnRequest{
		BorrowID: "no-existe", ReturnQty: qty(1), ReturnedBy: "somsak",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Un CONSUME no es devolvible: su ID no resuelve a un préstamo.
func TestAcceptReturn_ConsumoNoEsDevolvible(t *testing.T) {
	movUC, _, _, _ := newFixture()
	ctx := context.Background()
	receiveAndBorrow(t, movUC)
	consume, err := movUC.AcceptIssuance(ctx, testUser, dto.IssuanceRequest{
		ItemName: "Pipe A", Quantity: qty(1), Zone: "A", Channel: "1",
		Kind: entity.KindConsume, RequestedBy: "somsak",
	})
	require.NoError(t, err)

	_, err = movUC.AcceptReturn(ctx, testUser, dto.ReturnRequest{
		BorrowID: consume.ID, ReturnQty: qty(1), ReturnedBy: "somsak",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Una devolución parcial deja OPEN; el cierre es monotónico.
func TestAcceptReturn_ParcialQuedaAbierto(t *testing.T) {
	movUC, _, repo, _ := newFixture()
	ctx := context.Background()
	borrow := receiveAndBorrow(t, movUC)

	res, err := movUC.AcceptReturn(ctx, testUser, dto.ReturnRequest{
		BorrowID: borrow.ID, ReturnQty: qty(2), ReturnedBy: "somsak",
	})
	require.NoError(t, err)
	assert.True(t, res.Borrow.OutstandingQty.Equal(qty(4)))
	assert.Equal(t, entity.BorrowStatusOpen, res.Borrow.Status)

	stored, _ := repo.GetByID(borrow.ID)
	assert.Equal(t, entity.BorrowStatusOpen, stored.Status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reintento ante conflicto
// ──────────────────────────────────────────────────────────────────────────────

// Un conflicto de concurrencia se reintenta una sola vez con snapshot fresco.
func TestRecordReceive_ReintentaUnaVezAnteConflicto(t *testing.T) {
	movUC, _, repo, tx := newFixture()
	repo.createErr = domain.ErrConflict

	_, err := movUC.RecordReceive(context.Background(), testUser, dto.ReceiveRequest{
		ItemName: "Pipe A", Quantity: qty(5), Zone: "A", Channel: "1",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, tx.runs, "debe haber exactamente un reintento")
	assert.Len(t, repo.records, 1)
}

// Los errores de regla de negocio nunca se reintentan.
func TestAcceptIssuance_RechazoNoSeReintenta(t *testing.T) {
	movUC, _, _, tx := newFixture()
	receiveAndBorrow(t, movUC)
	runsBefore := tx.runs

	_, err := movUC.AcceptIssuance(context.Background(), testUser, dto.IssuanceRequest{
		ItemName: "Pipe A", Quantity: qty(100), Zone: "A", Channel: "1",
		Kind: entity.KindConsume, RequestedBy: "somsak",
	})
	var insuf *domain.InsufficientStockError
	require.ErrorAs(t, err, &insuf)
	assert.Equal(t, runsBefore+1, tx.runs, "sin reintento para errores de negocio")
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestStockSummary_OcultaSaldosNoPositivosPorDefecto(t *testing.T) {
	movUC, queryUC, _, _ := newFixture()
	ctx := context.Background()
	_, err := movUC.RecordReceive(ctx, testUser, dto.ReceiveRequest{
		ItemName: "Pipe A", Quantity: qty(3), Zone: "A", Channel: "1",
	})
	require.NoError(t, err)
	_, err = movUC.AcceptIssuance(ctx, testUser, dto.IssuanceRequest{
		ItemName: "Pipe A", Quantity: qty(3), Zone: "A", Channel: "1",
		Kind: entity.KindConsume, RequestedBy: "somsak",
	})
	require.NoError(t, err)

	rows, err := queryUC.StockSummary(ctx, appledger.StockFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows, "saldo 0 se oculta por defecto")

	rows, err = queryUC.StockSummary(ctx, appledger.StockFilter{IncludeZero: true})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestOutstanding_SoloAbiertos(t *testing.T) {
	movUC, queryUC, _, _ := newFixture()
	ctx := context.Background()
	borrow := receiveAndBorrow(t, movUC)
	_, err := movUC.AcceptReturn(ctx, testUser, dto.ReturnRequest{
		BorrowID: borrow.ID, ReturnQty: qty(6), ReturnedBy: "somsak",
	})
	require.NoError(t, err)

	all, err := queryUC.Outstanding(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	open, err := queryUC.Outstanding(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestSimilarNames_DetectaDuplicados(t *testing.T) {
	movUC, queryUC, _, _ := newFixture()
	ctx := context.Background()
	_, err := movUC.RecordReceive(ctx, testUser, dto.ReceiveRequest{
		ItemName: `Pipe 2" PVC`, Quantity: qty(1), Zone: "A", Channel: "1",
	})
	require.NoError(t, err)

	got, err := queryUC.SimilarNames(ctx, "pipe 2 inch pvc")
	require.NoError(t, err)
	assert.Equal(t, []string{`Pipe 2" PVC`}, got)
}
