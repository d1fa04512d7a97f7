package service

import (
	"context"
	"testing"
	"time"

	"acopio/internal/apierror"
	"acopio/internal/dto"
	"acopio/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

// ── Abrir ─────────────────────────────────────────────────────────────────────

func TestAbrirCaja(t *testing.T) {
	e := nuevoEntorno(t)

	s := e.abrir(t, "500")

	assert.Equal(t, model.EstadoAbierta, s.Estado)
	assert.Equal(t, "2026-03-10", s.Fecha)
	assert.Equal(t, e.operador.String(), s.UsuarioID)
	assertMonto(t, "500", s.MontoInicial)
	assertMonto(t, "500", s.MontoEsperado)
	assert.Nil(t, s.MontoContado)
	assert.Empty(t, s.AutoCerradas)
}

func TestAbrirCaja_DosVecesElMismoDia(t *testing.T) {
	e := nuevoEntorno(t)
	e.abrir(t, "500")

	_, err := e.caja.Abrir(ctx, e.operador, dto.AbrirCajaRequest{MontoInicial: dec("100")})
	assert.ErrorIs(t, err, apierror.ErrSesionYaAbiertaHoy)
}

func TestAbrirCaja_MontoNegativo(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.caja.Abrir(ctx, e.operador, dto.AbrirCajaRequest{MontoInicial: dec("-1")})
	assert.ErrorIs(t, err, apierror.ErrMontoInvalido)

	activa, err := e.caja.ObtenerActiva(ctx)
	require.NoError(t, err)
	assert.Nil(t, activa)
}

func TestAbrirCaja_DiaYaCerrado(t *testing.T) {
	e := nuevoEntorno(t)
	e.abrir(t, "500")
	_, err := e.caja.Cerrar(ctx, dto.CerrarCajaRequest{MontoContado: dec("500")})
	require.NoError(t, err)

	// a closed day can only be reopened, never opened again
	_, err = e.caja.Abrir(ctx, e.operador, dto.AbrirCajaRequest{MontoInicial: dec("100")})
	assert.ErrorIs(t, err, apierror.ErrSesionYaAbiertaHoy)
}

func TestAbrirCaja_CierraSesionesViejas(t *testing.T) {
	e := nuevoEntorno(t)
	ayer := e.abrir(t, "100")
	_, err := e.caja.RegistrarMovimiento(ctx, dto.MovimientoManualRequest{
		Tipo: model.TipoInyeccion, Monto: dec("50"), Descripcion: "Fondo adicional",
	})
	require.NoError(t, err)

	e.reloj.Set(dia(11, 7, 30))
	hoy := e.abrir(t, "200")

	assert.Equal(t, []string{"2026-03-10"}, hoy.AutoCerradas)
	vieja := e.sesion(t, ayer.ID)
	assert.Equal(t, model.EstadoCerradaAuto, vieja.Estado)
	require.NotNil(t, vieja.MontoContado)
	require.NotNil(t, vieja.Desvio)
	assertMonto(t, "150", *vieja.MontoContado)
	assertMonto(t, "150", vieja.MontoEsperado)
	assert.True(t, vieja.Desvio.IsZero())
	require.NotNil(t, vieja.ClosedAt)

	activa, err := e.caja.ObtenerActiva(ctx)
	require.NoError(t, err)
	require.NotNil(t, activa)
	assert.Equal(t, hoy.ID, activa.ID)
}

func TestCerrarVencidas(t *testing.T) {
	e := nuevoEntorno(t)
	ayer := e.abrir(t, "80")

	cerradas, err := e.caja.CerrarVencidas(ctx)
	require.NoError(t, err)
	assert.Empty(t, cerradas, "la sesión del día sigue abierta")

	e.reloj.Set(dia(11, 0, 5))
	cerradas, err = e.caja.CerrarVencidas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-10"}, cerradas)
	assert.Equal(t, model.EstadoCerradaAuto, e.sesion(t, ayer.ID).Estado)

	activa, err := e.caja.ObtenerActiva(ctx)
	require.NoError(t, err)
	assert.Nil(t, activa)

	hoy := e.abrir(t, "80")
	assert.Empty(t, hoy.AutoCerradas)
}

// ── Cerrar ────────────────────────────────────────────────────────────────────

func TestCerrarCaja_Desvio(t *testing.T) {
	e := nuevoEntorno(t)
	s := e.abrir(t, "100")
	_, err := e.caja.RegistrarMovimiento(ctx, dto.MovimientoManualRequest{
		Tipo: model.TipoGastoOperativo, Monto: dec("20"), Descripcion: "Sacos de yute",
	})
	require.NoError(t, err)

	obs := "faltan 5 soles"
	rep, err := e.caja.Cerrar(ctx, dto.CerrarCajaRequest{MontoContado: dec("75"), Observaciones: &obs})
	require.NoError(t, err)

	assert.Equal(t, model.EstadoCerradaManual, rep.Sesion.Estado)
	assertMonto(t, "80", rep.Sesion.MontoEsperado)
	require.NotNil(t, rep.Sesion.Desvio)
	assertMonto(t, "-5", *rep.Sesion.Desvio)
	assertMonto(t, "0", rep.TotalIngresos)
	assertMonto(t, "20", rep.TotalEgresos)
	assert.Len(t, rep.Movimientos, 1)
	assert.Empty(t, rep.Advertencias)
	assert.Equal(t, []uuid.UUID{uuid.MustParse(s.ID)}, e.dispatcher.sesiones)

	activa, err := e.caja.ObtenerActiva(ctx)
	require.NoError(t, err)
	assert.Nil(t, activa)
}

func TestCerrarCaja_FallaDespachoReporte(t *testing.T) {
	e := nuevoEntorno(t)
	s := e.abrir(t, "100")
	e.dispatcher.err = errColaborador

	rep, err := e.caja.Cerrar(ctx, dto.CerrarCajaRequest{MontoContado: dec("100")})
	require.NoError(t, err)
	assert.NotEmpty(t, rep.Advertencias)
	// the close is committed regardless
	assert.Equal(t, model.EstadoCerradaManual, e.sesion(t, s.ID).Estado)
}

func TestCerrarCaja_SinSesion(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.caja.Cerrar(ctx, dto.CerrarCajaRequest{MontoContado: dec("1")})
	assert.ErrorIs(t, err, apierror.ErrSinSesionAbierta)
}

func TestCerrarCaja_SesionDeOtroDia(t *testing.T) {
	e := nuevoEntorno(t)
	e.abrir(t, "100")
	e.reloj.Set(dia(11, 9, 0))

	_, err := e.caja.Cerrar(ctx, dto.CerrarCajaRequest{MontoContado: dec("100")})
	assert.ErrorIs(t, err, apierror.ErrSesionOtroDia)
}

// ── Reabrir ───────────────────────────────────────────────────────────────────

func TestReabrirCaja(t *testing.T) {
	e := nuevoEntorno(t)
	s := e.abrir(t, "100")
	_, err := e.caja.Cerrar(ctx, dto.CerrarCajaRequest{MontoContado: dec("90")})
	require.NoError(t, err)

	r, err := e.caja.Reabrir(ctx, uuid.MustParse(s.ID))
	require.NoError(t, err)
	assert.Equal(t, model.EstadoAbierta, r.Estado)
	assert.Nil(t, r.MontoContado)
	assert.Nil(t, r.Desvio)
	assert.Nil(t, r.ClosedAt)

	_, err = e.caja.Reabrir(ctx, uuid.MustParse(s.ID))
	assert.ErrorIs(t, err, apierror.ErrSesionYaAbierta)
}

func TestReabrirCaja_OtroDia(t *testing.T) {
	e := nuevoEntorno(t)
	s := e.abrir(t, "100")
	_, err := e.caja.Cerrar(ctx, dto.CerrarCajaRequest{MontoContado: dec("100")})
	require.NoError(t, err)

	e.reloj.Set(dia(11, 8, 0))
	_, err = e.caja.Reabrir(ctx, uuid.MustParse(s.ID))
	assert.ErrorIs(t, err, apierror.ErrSesionOtroDia)
}

func TestReabrirCaja_NoExiste(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.caja.Reabrir(ctx, uuid.New())
	assert.ErrorIs(t, err, apierror.ErrSesionNoEncontrada)
}

// ── Movimientos manuales ──────────────────────────────────────────────────────

func TestRegistrarMovimiento_SinSesion(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.caja.RegistrarMovimiento(ctx, dto.MovimientoManualRequest{
		Tipo: model.TipoRetiro, Monto: dec("10"), Descripcion: "Retiro",
	})
	assert.ErrorIs(t, err, apierror.ErrSinSesionAbierta)
}

func TestRegistrarMovimiento_IdentidadDeSaldo(t *testing.T) {
	e := nuevoEntorno(t)
	s := e.abrir(t, "1000")

	movs := []dto.MovimientoManualRequest{
		{Tipo: model.TipoInyeccion, Monto: dec("250.50"), Descripcion: "Aporte del dueño"},
		{Tipo: model.TipoRetiro, Monto: dec("100"), Descripcion: "Retiro a banco"},
		{Tipo: model.TipoGastoOperativo, Monto: dec("35.20"), Descripcion: "Combustible"},
		{Tipo: model.TipoVenta, Monto: dec("80"), Descripcion: "Venta de sacos"},
	}
	for _, m := range movs {
		resp, err := e.caja.RegistrarMovimiento(ctx, m)
		require.NoError(t, err)
		assert.Equal(t, model.DireccionDeTipo(m.Tipo), resp.Direccion)
	}

	e.assertBalance(t, s.ID, "1195.30")

	rep, err := e.caja.ObtenerReporte(ctx, uuid.MustParse(s.ID))
	require.NoError(t, err)
	assertMonto(t, "330.50", rep.TotalIngresos)
	assertMonto(t, "135.20", rep.TotalEgresos)
	assert.Len(t, rep.Movimientos, 4)
	tipos := make([]string, 0, len(rep.PorTipo))
	for _, pt := range rep.PorTipo {
		tipos = append(tipos, pt.Tipo)
	}
	assert.Equal(t, []string{model.TipoVenta, model.TipoInyeccion, model.TipoRetiro, model.TipoGastoOperativo}, tipos)
}

func TestRegistrarMovimiento_TipoNoManual(t *testing.T) {
	e := nuevoEntorno(t)
	e.abrir(t, "100")
	_, err := e.caja.RegistrarMovimiento(ctx, dto.MovimientoManualRequest{
		Tipo: model.TipoCompra, Monto: dec("10"), Descripcion: "No permitido",
	})
	assert.ErrorIs(t, err, apierror.ErrTipoMovimiento)

	_, err = e.caja.RegistrarMovimiento(ctx, dto.MovimientoManualRequest{
		Tipo: model.TipoRetiro, Monto: dec("0"), Descripcion: "Sin monto",
	})
	assert.ErrorIs(t, err, apierror.ErrMontoInvalido)
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func TestObtenerReporte_NoExiste(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.caja.ObtenerReporte(ctx, uuid.New())
	assert.ErrorIs(t, err, apierror.ErrSesionNoEncontrada)
}

func TestHistorial(t *testing.T) {
	e := nuevoEntorno(t)
	for d := 10; d <= 12; d++ {
		e.reloj.Set(dia(d, 8, 0))
		e.abrir(t, "100")
		e.reloj.Avanzar(10 * time.Hour)
		_, err := e.caja.Cerrar(ctx, dto.CerrarCajaRequest{MontoContado: dec("100")})
		require.NoError(t, err)
	}

	h, err := e.caja.Historial(ctx, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, h.Total)
	require.Len(t, h.Data, 2)
	assert.Equal(t, "2026-03-12", h.Data[0].Fecha)
	assert.Equal(t, "2026-03-11", h.Data[1].Fecha)

	h, err = e.caja.Historial(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, h.Data, 1)
	assert.Equal(t, "2026-03-10", h.Data[0].Fecha)
}
