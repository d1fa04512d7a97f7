package service

import (
	"context"
	"errors"
	"fmt"

	"acopio/internal/apierror"
	"acopio/internal/dto"
	"acopio/internal/model"
	"acopio/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReporteDispatcher schedules the close report of a session. Delivery is
// best effort and happens after the close has committed.
type ReporteDispatcher interface {
	EnqueueReporteCierre(ctx context.Context, sesionID uuid.UUID) error
}

type CajaService interface {
	Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error)
	Cerrar(ctx context.Context, req dto.CerrarCajaRequest) (*dto.ReporteCajaResponse, error)
	Reabrir(ctx context.Context, sesionID uuid.UUID) (*dto.SesionCajaResponse, error)
	RegistrarMovimiento(ctx context.Context, req dto.MovimientoManualRequest) (*dto.MovimientoCajaResponse, error)
	// ObtenerActiva returns nil without error when no session is open.
	ObtenerActiva(ctx context.Context) (*dto.SesionCajaResponse, error)
	ObtenerReporte(ctx context.Context, sesionID uuid.UUID) (*dto.ReporteCajaResponse, error)
	Historial(ctx context.Context, page, limit int) (*dto.HistorialCajaResponse, error)
	// CerrarVencidas closes every session of a previous day still open and
	// returns their fechas.
	CerrarVencidas(ctx context.Context) ([]string, error)
}

type cajaService struct {
	repo       repository.CajaRepository
	movRepo    repository.MovimientoCajaRepository
	dispatcher ReporteDispatcher
	opt        opciones
}

// NewCajaService builds the session manager. dispatcher may be nil, in which
// case no close report is sent.
func NewCajaService(
	repo repository.CajaRepository,
	movRepo repository.MovimientoCajaRepository,
	dispatcher ReporteDispatcher,
	opts ...Option,
) CajaService {
	return &cajaService{
		repo:       repo,
		movRepo:    movRepo,
		dispatcher: dispatcher,
		opt:        newOpciones(opts),
	}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────
// One session per calendar day. Sessions of previous days left open are
// closed as cerrada_auto (contado = esperado, desvío 0) before today's opens.

func (s *cajaService) Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error) {
	if req.MontoInicial.IsNegative() {
		return nil, fmt.Errorf("%w: monto inicial negativo %s", apierror.ErrMontoInvalido, req.MontoInicial)
	}
	hoy := s.opt.hoy()
	ahora := s.opt.ahora()

	var sesion model.SesionCaja
	var autoCerradas []string
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		_, err := s.repo.FindSesionByFecha(ctx, tx, hoy)
		if err == nil {
			return apierror.ErrSesionYaAbiertaHoy
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("buscar sesión del día: %w", err)
		}

		autoCerradas, err = s.cerrarVencidasTx(ctx, tx, hoy)
		if err != nil {
			return err
		}

		sesion = model.SesionCaja{
			Fecha:         hoy,
			UsuarioID:     usuarioID,
			MontoInicial:  req.MontoInicial,
			MontoEsperado: req.MontoInicial,
			Estado:        model.EstadoAbierta,
			OpenedAt:      ahora,
		}
		if err := s.repo.CreateSesion(ctx, tx, &sesion); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierror.ErrSesionYaAbiertaHoy
			}
			return fmt.Errorf("crear sesión: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, fecha := range autoCerradas {
		log.Warn().Str("fecha", fecha).Msg("sesión de caja de un día anterior cerrada automáticamente")
	}
	log.Info().
		Str("sesion_id", sesion.ID.String()).
		Str("fecha", sesion.Fecha).
		Str("monto_inicial", sesion.MontoInicial.StringFixed(2)).
		Msg("sesión de caja abierta")

	resp := sesionToResponse(&sesion)
	resp.AutoCerradas = autoCerradas
	return &resp, nil
}

// ── CerrarVencidas ────────────────────────────────────────────────────────────
// Run by the midnight scheduler so a forgotten session does not wait for the
// next Abrir to be closed.

func (s *cajaService) CerrarVencidas(ctx context.Context) ([]string, error) {
	hoy := s.opt.hoy()
	var cerradas []string
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		cerradas, err = s.cerrarVencidasTx(ctx, tx, hoy)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, fecha := range cerradas {
		log.Warn().Str("fecha", fecha).Msg("sesión de caja de un día anterior cerrada automáticamente")
	}
	return cerradas, nil
}

func (s *cajaService) cerrarVencidasTx(ctx context.Context, tx *gorm.DB, hoy string) ([]string, error) {
	viejas, err := s.repo.ListSesionesAbiertasAntesDe(ctx, tx, hoy)
	if err != nil {
		return nil, fmt.Errorf("buscar sesiones abiertas anteriores: %w", err)
	}
	var fechas []string
	for i := range viejas {
		if err := s.cerrarAuto(ctx, tx, &viejas[i]); err != nil {
			return nil, err
		}
		fechas = append(fechas, viejas[i].Fecha)
	}
	return fechas, nil
}

func (s *cajaService) cerrarAuto(ctx context.Context, tx *gorm.DB, sesion *model.SesionCaja) error {
	movs, err := s.movRepo.ListBySesion(ctx, tx, sesion.ID)
	if err != nil {
		return fmt.Errorf("leer movimientos de sesión %s: %w", sesion.Fecha, err)
	}
	esperado := CalcularSaldoEsperado(sesion.MontoInicial, movs)
	contado := esperado
	desvio := decimal.Zero
	ahora := s.opt.ahora()

	sesion.MontoEsperado = esperado
	sesion.MontoContado = &contado
	sesion.Desvio = &desvio
	sesion.Estado = model.EstadoCerradaAuto
	sesion.ClosedAt = &ahora
	if err := s.repo.UpdateSesion(ctx, tx, sesion); err != nil {
		return fmt.Errorf("cerrar sesión %s: %w", sesion.Fecha, err)
	}
	return nil
}

// ── Cerrar ────────────────────────────────────────────────────────────────────
// Arqueo: the expected balance is recomputed from the ledger, the counted
// cash is recorded and the desvío is derived from both.

func (s *cajaService) Cerrar(ctx context.Context, req dto.CerrarCajaRequest) (*dto.ReporteCajaResponse, error) {
	hoy := s.opt.hoy()

	var sesion *model.SesionCaja
	var movs []model.MovimientoCaja
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		sesion, err = sesionAbiertaTx(ctx, s.repo, tx)
		if err != nil {
			return err
		}
		if sesion.Fecha != hoy {
			return apierror.ErrSesionOtroDia
		}

		movs, err = s.movRepo.ListBySesion(ctx, tx, sesion.ID)
		if err != nil {
			return fmt.Errorf("leer movimientos: %w", err)
		}
		esperado := CalcularSaldoEsperado(sesion.MontoInicial, movs)
		contado := req.MontoContado
		desvio := CalcularDesvio(contado, esperado)
		ahora := s.opt.ahora()

		sesion.MontoEsperado = esperado
		sesion.MontoContado = &contado
		sesion.Desvio = &desvio
		sesion.Estado = model.EstadoCerradaManual
		sesion.Observaciones = req.Observaciones
		sesion.ClosedAt = &ahora
		return s.repo.UpdateSesion(ctx, tx, sesion)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sesion_id", sesion.ID.String()).
		Str("esperado", sesion.MontoEsperado.StringFixed(2)).
		Str("desvio", sesion.Desvio.StringFixed(2)).
		Msg("sesión de caja cerrada")

	reporte := buildReporte(sesion, movs)
	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueReporteCierre(ctx, sesion.ID); err != nil {
			log.Warn().Err(err).Str("sesion_id", sesion.ID.String()).Msg("no se pudo programar el reporte de cierre")
			reporte.Advertencias = append(reporte.Advertencias, "No se pudo programar el envío del reporte de cierre")
		}
	}
	return reporte, nil
}

// ── Reabrir ───────────────────────────────────────────────────────────────────
// Only today's session can be reopened; the arqueo data is discarded.

func (s *cajaService) Reabrir(ctx context.Context, sesionID uuid.UUID) (*dto.SesionCajaResponse, error) {
	hoy := s.opt.hoy()

	var sesion *model.SesionCaja
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		sesion, err = s.repo.LockSesion(ctx, tx, sesionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.ErrSesionNoEncontrada
		}
		if err != nil {
			return fmt.Errorf("buscar sesión: %w", err)
		}
		if sesion.Fecha != hoy {
			return apierror.ErrSesionOtroDia
		}
		if sesion.Abierta() {
			return apierror.ErrSesionYaAbierta
		}

		sesion.MontoContado = nil
		sesion.Desvio = nil
		sesion.ClosedAt = nil
		sesion.Estado = model.EstadoAbierta
		return s.repo.UpdateSesion(ctx, tx, sesion)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("sesion_id", sesion.ID.String()).Msg("sesión de caja reabierta")
	resp := sesionToResponse(sesion)
	return &resp, nil
}

// ── RegistrarMovimiento ───────────────────────────────────────────────────────
// Manual ingreso / egreso. Movements are immutable once written.

var tiposManuales = map[string]bool{
	model.TipoInyeccion:      true,
	model.TipoRetiro:         true,
	model.TipoGastoOperativo: true,
	model.TipoVenta:          true,
}

func (s *cajaService) RegistrarMovimiento(ctx context.Context, req dto.MovimientoManualRequest) (*dto.MovimientoCajaResponse, error) {
	if !tiposManuales[req.Tipo] {
		return nil, fmt.Errorf("%w: %q", apierror.ErrTipoMovimiento, req.Tipo)
	}

	mov := model.MovimientoCaja{
		Tipo:        req.Tipo,
		Monto:       req.Monto,
		Descripcion: req.Descripcion,
	}
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sesion, err := sesionAbiertaTx(ctx, s.repo, tx)
		if err != nil {
			return err
		}
		return asentarMovimiento(ctx, tx, s.repo, s.movRepo, sesion, &mov)
	})
	if err != nil {
		return nil, err
	}

	resp := movimientoToResponse(&mov)
	return &resp, nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *cajaService) ObtenerActiva(ctx context.Context) (*dto.SesionCajaResponse, error) {
	sesion, err := s.repo.FindSesionAbierta(ctx, nil)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	resp := sesionToResponse(sesion)
	return &resp, nil
}

func (s *cajaService) ObtenerReporte(ctx context.Context, sesionID uuid.UUID) (*dto.ReporteCajaResponse, error) {
	sesion, err := s.repo.FindSesionByID(ctx, nil, sesionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.ErrSesionNoEncontrada
	}
	if err != nil {
		return nil, err
	}
	movs, err := s.movRepo.ListBySesion(ctx, nil, sesionID)
	if err != nil {
		return nil, err
	}
	return buildReporte(sesion, movs), nil
}

func (s *cajaService) Historial(ctx context.Context, page, limit int) (*dto.HistorialCajaResponse, error) {
	sesiones, total, err := s.repo.ListSesiones(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	resp := &dto.HistorialCajaResponse{
		Data:  make([]dto.SesionCajaResponse, 0, len(sesiones)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for i := range sesiones {
		resp.Data = append(resp.Data, sesionToResponse(&sesiones[i]))
	}
	return resp, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

var ordenTipos = []string{
	model.TipoCompra,
	model.TipoVenta,
	model.TipoPrestamo,
	model.TipoPagoPrestamo,
	model.TipoInyeccion,
	model.TipoRetiro,
	model.TipoGastoOperativo,
}

func buildReporte(sesion *model.SesionCaja, movs []model.MovimientoCaja) *dto.ReporteCajaResponse {
	reporte := &dto.ReporteCajaResponse{
		Sesion:        sesionToResponse(sesion),
		TotalIngresos: decimal.Zero,
		TotalEgresos:  decimal.Zero,
		Movimientos:   make([]dto.MovimientoCajaResponse, 0, len(movs)),
	}

	porTipo := make(map[string]*dto.TotalTipoMovimiento)
	for i := range movs {
		m := &movs[i]
		if m.EsIngreso() {
			reporte.TotalIngresos = reporte.TotalIngresos.Add(m.Monto)
		} else {
			reporte.TotalEgresos = reporte.TotalEgresos.Add(m.Monto)
		}
		t, ok := porTipo[m.Tipo]
		if !ok {
			t = &dto.TotalTipoMovimiento{Tipo: m.Tipo, Direccion: m.Direccion, Total: decimal.Zero}
			porTipo[m.Tipo] = t
		}
		t.Cantidad++
		t.Total = t.Total.Add(m.Monto)
		reporte.Movimientos = append(reporte.Movimientos, movimientoToResponse(m))
	}
	for _, tipo := range ordenTipos {
		if t, ok := porTipo[tipo]; ok {
			reporte.PorTipo = append(reporte.PorTipo, *t)
		}
	}
	return reporte
}
