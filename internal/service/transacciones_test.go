package service

import (
	"context"
	"errors"
	"testing"

	"acopio/internal/apierror"
	"acopio/internal/dto"
	"acopio/internal/model"
	"acopio/internal/repository"
	"acopio/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Repositorios que simulan carreras ─────────────────────────────────────────

// voucherFijo hands out the same number every time, like a counter that
// never moves.
type voucherFijo struct {
	repository.VoucherRepository
	sincronizaciones int
}

func (v *voucherFijo) Next(context.Context, *gorm.DB) (int64, error) { return 1, nil }

func (v *voucherFijo) Sincronizar(context.Context, *gorm.DB) error {
	v.sincronizaciones++
	return nil
}

// proveedoresConCarrera misses the first lookup made inside a transaction,
// as if another till created the proveedor between the read and the insert.
type proveedoresConCarrera struct {
	repository.ProveedorRepository
	perdidas int
}

func (p *proveedoresConCarrera) FindByDocumento(ctx context.Context, tx *gorm.DB, documento string) (*model.Proveedor, error) {
	if tx != nil && p.perdidas == 0 {
		p.perdidas++
		return nil, gorm.ErrRecordNotFound
	}
	return p.ProveedorRepository.FindByDocumento(ctx, tx, documento)
}

// cajaSinFecha never finds today's session, so only the UNIQUE(fecha)
// constraint can stop a second opening.
type cajaSinFecha struct {
	repository.CajaRepository
}

func (cajaSinFecha) FindSesionByFecha(context.Context, *gorm.DB, string) (*model.SesionCaja, error) {
	return nil, gorm.ErrRecordNotFound
}

func (e *entorno) compraServiceCon(voucher repository.VoucherRepository, proveedores repository.ProveedorRepository) CompraService {
	if voucher == nil {
		voucher = repository.NewVoucherRepository(e.db)
	}
	if proveedores == nil {
		proveedores = repository.NewProveedorRepository(e.db)
	}
	return NewCompraService(
		repository.NewCompraRepository(e.db), e.cajaRepo, e.movRepo, proveedores,
		repository.NewProductoRepository(e.db), voucher,
		e.identidad, e.printer, WithClock(e.reloj.Now), WithLocation(lima),
	)
}

func (e *entorno) siguienteVoucher(t *testing.T) int64 {
	t.Helper()
	var c model.ContadorVoucher
	require.NoError(t, e.db.First(&c, 1).Error)
	return c.Siguiente
}

func (e *entorno) contarCompras(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.Compra{}).Count(&n).Error)
	return n
}

// ── Voucher ───────────────────────────────────────────────────────────────────

func TestRegistrarCompra_ContadorAtrasadoSeResincroniza(t *testing.T) {
	e := nuevoEntorno(t)
	s := e.abrir(t, "500")

	c, err := e.compras.RegistrarCompra(ctx, e.operador, compraAnonima(itemMaiz(e, "10", "2")))
	require.NoError(t, err)
	require.Equal(t, "00000001", c.NumeroVoucher)

	// counter restored from an older backup
	require.NoError(t, e.db.Model(&model.ContadorVoucher{}).Where("id = ?", 1).Update("siguiente", 1).Error)

	c, err = e.compras.RegistrarCompra(ctx, e.operador, compraAnonima(itemMaiz(e, "10", "2")))
	require.NoError(t, err)
	assert.Equal(t, "00000002", c.NumeroVoucher)
	assert.EqualValues(t, 3, e.siguienteVoucher(t))

	// counter row lost while compras exist
	require.NoError(t, e.db.Where("1 = 1").Delete(&model.ContadorVoucher{}).Error)

	c, err = e.compras.RegistrarCompra(ctx, e.operador, compraAnonima(itemMaiz(e, "10", "2")))
	require.NoError(t, err)
	assert.Equal(t, "00000003", c.NumeroVoucher)
	assert.EqualValues(t, 4, e.siguienteVoucher(t))

	assert.EqualValues(t, 3, e.contarCompras(t))
	e.assertBalance(t, s.ID, "440")
}

func TestRegistrarCompra_ReintentosAgotados(t *testing.T) {
	e := nuevoEntorno(t)
	s := e.abrir(t, "500")
	_, err := e.compras.RegistrarCompra(ctx, e.operador, compraAnonima(itemMaiz(e, "10", "2")))
	require.NoError(t, err)

	voucher := &voucherFijo{VoucherRepository: repository.NewVoucherRepository(e.db)}
	_, err = e.compraServiceCon(voucher, nil).
		RegistrarCompra(ctx, e.operador, compraAnonima(itemMaiz(e, "10", "2")))

	require.ErrorIs(t, err, apierror.ErrConflictoConcurrente)
	assert.Equal(t, maxReintentosTx-1, voucher.sincronizaciones)
	assert.EqualValues(t, 1, e.contarCompras(t))
	e.assertBalance(t, s.ID, "480")
}

// ── Rollback ──────────────────────────────────────────────────────────────────

func TestRegistrarCompra_FallaDentroDeLaTransaccion(t *testing.T) {
	e := nuevoEntorno(t)
	s := e.abrir(t, "100")
	_, err := e.compras.RegistrarCompra(ctx, e.operador, compraAnonima(itemMaiz(e, "10", "2")))
	require.NoError(t, err)

	errDisco := errors.New("disk I/O error")
	const callback = "test:falla_movimientos_caja"
	require.NoError(t, e.db.Callback().Create().Before("gorm:create").Register(callback, func(tx *gorm.DB) {
		if tx.Statement.Table == "movimientos_caja" {
			_ = tx.AddError(errDisco)
		}
	}))

	// voucher allocated and compra inserted before the ledger entry fails
	_, err = e.compras.RegistrarCompra(ctx, e.operador, compraAnonima(itemMaiz(e, "5", "3")))
	require.ErrorIs(t, err, errDisco)

	assert.EqualValues(t, 1, e.contarCompras(t))
	assert.EqualValues(t, 2, e.siguienteVoucher(t))
	e.assertBalance(t, s.ID, "80")
	assert.Len(t, e.printer.impresos, 1)

	require.NoError(t, e.db.Callback().Create().Remove(callback))
	c, err := e.compras.RegistrarCompra(ctx, e.operador, compraAnonima(itemMaiz(e, "5", "3")))
	require.NoError(t, err)
	assert.Equal(t, "00000002", c.NumeroVoucher)
	e.assertBalance(t, s.ID, "65")
}

// ── Claves únicas ─────────────────────────────────────────────────────────────

func TestRegistrarCompra_DocumentoCreadoPorOtraCaja(t *testing.T) {
	e := nuevoEntorno(t)
	s := e.abrir(t, "100")
	existente := testutil.CrearProveedor(t, e.db, "44556677", "ROSA QUISPE MAMANI")

	proveedores := &proveedoresConCarrera{ProveedorRepository: repository.NewProveedorRepository(e.db)}
	nombre := "Rosa Quispe"
	c, err := e.compraServiceCon(nil, proveedores).RegistrarCompra(ctx, e.operador, dto.RegistrarCompraRequest{
		NuevoProveedor: &dto.NuevoProveedorInput{Documento: "44556677", Nombre: &nombre},
		Items:          []dto.CompraItemInput{itemMaiz(e, "10", "2")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, proveedores.perdidas)
	assert.Equal(t, existente.ID.String(), c.ProveedorID)
	assert.Equal(t, "00000001", c.NumeroVoucher, "el intento fallido devuelve su número")

	var n int64
	require.NoError(t, e.db.Model(&model.Proveedor{}).Where("documento = ?", "44556677").Count(&n).Error)
	assert.EqualValues(t, 1, n)
	e.assertBalance(t, s.ID, "80")
}

func TestAbrirCaja_ChoqueDeFechaUnica(t *testing.T) {
	e := nuevoEntorno(t)
	e.abrir(t, "100")

	otraCaja := NewCajaService(cajaSinFecha{e.cajaRepo}, e.movRepo, nil, WithClock(e.reloj.Now), WithLocation(lima))
	_, err := otraCaja.Abrir(ctx, e.operador, dto.AbrirCajaRequest{MontoInicial: dec("50")})
	assert.ErrorIs(t, err, apierror.ErrSesionYaAbiertaHoy)
}
