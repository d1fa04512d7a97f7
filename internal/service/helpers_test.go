package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"acopio/internal/dto"
	"acopio/internal/model"
	"acopio/internal/repository"
	"acopio/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type printerFake struct {
	mu       sync.Mutex
	err      error
	impresos []string
}

func (p *printerFake) Imprimir(_ context.Context, c *model.Compra) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.impresos = append(p.impresos, c.NumeroVoucher)
	return nil
}

type identidadFake struct {
	nombre     string
	encontrado bool
	err        error
	llamadas   int
}

func (f *identidadFake) Buscar(_ context.Context, _ string) (string, bool, error) {
	f.llamadas++
	return f.nombre, f.encontrado, f.err
}

type dispatcherFake struct {
	err      error
	sesiones []uuid.UUID
}

func (d *dispatcherFake) EnqueueReporteCierre(_ context.Context, id uuid.UUID) error {
	if d.err != nil {
		return d.err
	}
	d.sesiones = append(d.sesiones, id)
	return nil
}

// ── Entorno ───────────────────────────────────────────────────────────────────

var lima = time.FixedZone("PET", -5*60*60)

// dia returns hh:mm of 2026-03-<d> in the shop timezone.
func dia(d, hh, mm int) time.Time {
	return time.Date(2026, time.March, d, hh, mm, 0, 0, lima)
}

type entorno struct {
	db         *gorm.DB
	reloj      *testutil.Reloj
	cajaRepo   repository.CajaRepository
	movRepo    repository.MovimientoCajaRepository
	caja       CajaService
	compras    CompraService
	prestamos  PrestamoService
	printer    *printerFake
	identidad  *identidadFake
	dispatcher *dispatcherFake
	cafe       *model.Producto
	maiz       *model.Producto
	operador   uuid.UUID
}

func nuevoEntorno(t *testing.T) *entorno {
	t.Helper()
	db := testutil.NewDB(t)
	e := &entorno{
		db:         db,
		reloj:      testutil.NewReloj(dia(10, 8, 0)),
		cajaRepo:   repository.NewCajaRepository(db),
		movRepo:    repository.NewMovimientoCajaRepository(db),
		printer:    &printerFake{},
		identidad:  &identidadFake{nombre: "JUAN PEREZ QUISPE", encontrado: true},
		dispatcher: &dispatcherFake{},
		operador:   uuid.New(),
	}
	opts := []Option{WithClock(e.reloj.Now), WithLocation(lima)}
	proveedorRepo := repository.NewProveedorRepository(db)

	e.caja = NewCajaService(e.cajaRepo, e.movRepo, e.dispatcher, opts...)
	e.compras = NewCompraService(
		repository.NewCompraRepository(db), e.cajaRepo, e.movRepo, proveedorRepo,
		repository.NewProductoRepository(db), repository.NewVoucherRepository(db),
		e.identidad, e.printer, opts...,
	)
	e.prestamos = NewPrestamoService(repository.NewPrestamoRepository(db), proveedorRepo, e.cajaRepo, e.movRepo, opts...)

	e.cafe = testutil.CrearProducto(t, db, "Café pergamino", []string{"humedo", "seco"}, []string{"primera", "segunda"}, true)
	e.maiz = testutil.CrearProducto(t, db, "Maíz amarillo", nil, nil, false)
	return e
}

func (e *entorno) abrir(t *testing.T, inicial string) *dto.SesionCajaResponse {
	t.Helper()
	s, err := e.caja.Abrir(context.Background(), e.operador, dto.AbrirCajaRequest{MontoInicial: dec(inicial)})
	require.NoError(t, err)
	return s
}

// sesion reloads the session row.
func (e *entorno) sesion(t *testing.T, id string) *model.SesionCaja {
	t.Helper()
	s, err := e.cajaRepo.FindSesionByID(context.Background(), nil, uuid.MustParse(id))
	require.NoError(t, err)
	return s
}

// assertBalance checks that the stored expected balance equals the one
// derived from the ledger.
func (e *entorno) assertBalance(t *testing.T, sesionID string, esperado string) {
	t.Helper()
	s := e.sesion(t, sesionID)
	movs, err := e.movRepo.ListBySesion(context.Background(), nil, s.ID)
	require.NoError(t, err)
	assertMonto(t, esperado, s.MontoEsperado)
	assertMonto(t, esperado, CalcularSaldoEsperado(s.MontoInicial, movs))
}

func itemCafe(e *entorno, bruto, descuento, precio string) dto.CompraItemInput {
	return dto.CompraItemInput{
		ProductoID:     e.cafe.ID.String(),
		NivelSecado:    "seco",
		Calidad:        "primera",
		ModoPesaje:     model.ModoPesajeBalanza,
		PesoBruto:      dec(bruto),
		DescuentoPeso:  dec(descuento),
		PrecioUnitario: dec(precio),
	}
}

func itemMaiz(e *entorno, bruto, precio string) dto.CompraItemInput {
	return dto.CompraItemInput{
		ProductoID:     e.maiz.ID.String(),
		ModoPesaje:     model.ModoPesajeBalanza,
		PesoBruto:      dec(bruto),
		DescuentoPeso:  decimal.Zero,
		PrecioUnitario: dec(precio),
	}
}

func compraAnonima(items ...dto.CompraItemInput) dto.RegistrarCompraRequest {
	return dto.RegistrarCompraRequest{Anonimo: true, Items: items}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMonto(t *testing.T, esperado string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, dec(esperado).StringFixed(2), got.StringFixed(2))
}

var errColaborador = errors.New("colaborador no disponible")
