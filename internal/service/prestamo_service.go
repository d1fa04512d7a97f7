package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"acopio/internal/apierror"
	"acopio/internal/dto"
	"acopio/internal/model"
	"acopio/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// PrestamoService keeps the running loan balance of each proveedor. The
// balance cached on the proveedor row is only written here, together with the
// MovimientoPrestamo and the cash movement, in one transaction.
type PrestamoService interface {
	OtorgarPrestamo(ctx context.Context, req dto.MovimientoPrestamoRequest) (*dto.MovimientoPrestamoResponse, error)
	RegistrarPago(ctx context.Context, req dto.MovimientoPrestamoRequest) (*dto.MovimientoPrestamoResponse, error)
	EstadoCuenta(ctx context.Context, proveedorID uuid.UUID) (*dto.EstadoCuentaResponse, error)
}

type prestamoService struct {
	repo          repository.PrestamoRepository
	proveedorRepo repository.ProveedorRepository
	cajaRepo      repository.CajaRepository
	movRepo       repository.MovimientoCajaRepository
	opt           opciones
}

func NewPrestamoService(
	repo repository.PrestamoRepository,
	proveedorRepo repository.ProveedorRepository,
	cajaRepo repository.CajaRepository,
	movRepo repository.MovimientoCajaRepository,
	opts ...Option,
) PrestamoService {
	return &prestamoService{
		repo:          repo,
		proveedorRepo: proveedorRepo,
		cajaRepo:      cajaRepo,
		movRepo:       movRepo,
		opt:           newOpciones(opts),
	}
}

func (s *prestamoService) OtorgarPrestamo(ctx context.Context, req dto.MovimientoPrestamoRequest) (*dto.MovimientoPrestamoResponse, error) {
	return s.registrar(ctx, model.PrestamoOtorgado, req)
}

func (s *prestamoService) RegistrarPago(ctx context.Context, req dto.MovimientoPrestamoRequest) (*dto.MovimientoPrestamoResponse, error) {
	return s.registrar(ctx, model.PrestamoPago, req)
}

// registrar applies a loan (saldo + monto) or a payment (saldo − monto).
// The proveedor row stays locked until commit so concurrent payments
// cannot push the balance below zero.
func (s *prestamoService) registrar(ctx context.Context, tipo string, req dto.MovimientoPrestamoRequest) (*dto.MovimientoPrestamoResponse, error) {
	proveedorID, err := uuid.Parse(req.ProveedorID)
	if err != nil {
		return nil, fmt.Errorf("%w: proveedor_id inválido", apierror.ErrProveedorNoEncontrado)
	}
	if !req.Monto.IsPositive() {
		return nil, fmt.Errorf("%w: el monto de %s debe ser mayor a cero", apierror.ErrMontoInvalido, tipo)
	}

	var mov model.MovimientoPrestamo
	var proveedor *model.Proveedor
	err = runTx(ctx, s.cajaRepo.DB(), func(tx *gorm.DB) error {
		sesion, err := sesionAbiertaTx(ctx, s.cajaRepo, tx)
		if err != nil {
			return err
		}

		proveedor, err = s.proveedorRepo.LockByID(ctx, tx, proveedorID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.ErrProveedorNoEncontrado
		}
		if err != nil {
			return fmt.Errorf("buscar proveedor: %w", err)
		}
		saldo := proveedor.SaldoPrestamo
		tipoCaja := model.TipoPrestamo
		if tipo == model.PrestamoOtorgado {
			if proveedor.EsAnonimo {
				return apierror.ErrProveedorAnonimo
			}
			saldo = saldo.Add(req.Monto)
		} else {
			if !saldo.IsPositive() {
				return apierror.ErrSinSaldoPendiente
			}
			if req.Monto.GreaterThan(saldo) {
				return apierror.ErrPagoExcedeSaldo
			}
			saldo = saldo.Sub(req.Monto)
			tipoCaja = model.TipoPagoPrestamo
		}

		desc := strings.TrimSpace(req.Descripcion)
		if desc == "" {
			desc = descripcionPrestamo(tipo, proveedor.Nombre)
		}
		mov = model.MovimientoPrestamo{
			ProveedorID:  proveedor.ID,
			SesionCajaID: sesion.ID,
			Tipo:         tipo,
			Monto:        req.Monto,
			Saldo:        saldo,
			Descripcion:  desc,
			CreatedAt:    s.opt.ahora(),
		}
		if err := s.repo.Create(ctx, tx, &mov); err != nil {
			return fmt.Errorf("registrar movimiento de préstamo: %w", err)
		}
		if err := s.proveedorRepo.UpdateSaldoPrestamo(ctx, tx, proveedor.ID, saldo); err != nil {
			return fmt.Errorf("actualizar saldo del proveedor: %w", err)
		}
		proveedor.SaldoPrestamo = saldo

		movCaja := model.MovimientoCaja{
			Tipo:         tipoCaja,
			Monto:        req.Monto,
			Descripcion:  desc,
			ReferenciaID: &mov.ID,
		}
		return asentarMovimiento(ctx, tx, s.cajaRepo, s.movRepo, sesion, &movCaja)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("proveedor_id", proveedor.ID.String()).
		Str("tipo", tipo).
		Str("monto", mov.Monto.StringFixed(2)).
		Str("saldo", mov.Saldo.StringFixed(2)).
		Msg("movimiento de préstamo registrado")

	resp := movimientoPrestamoToResponse(&mov)
	return &resp, nil
}

func (s *prestamoService) EstadoCuenta(ctx context.Context, proveedorID uuid.UUID) (*dto.EstadoCuentaResponse, error) {
	proveedor, err := s.proveedorRepo.FindByID(ctx, nil, proveedorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.ErrProveedorNoEncontrado
	}
	if err != nil {
		return nil, err
	}
	movs, err := s.repo.ListByProveedor(ctx, proveedorID)
	if err != nil {
		return nil, err
	}

	resp := &dto.EstadoCuentaResponse{
		Proveedor:   proveedorToResponse(proveedor),
		Saldo:       proveedor.SaldoPrestamo,
		Movimientos: make([]dto.MovimientoPrestamoResponse, 0, len(movs)),
	}
	for i := range movs {
		resp.Movimientos = append(resp.Movimientos, movimientoPrestamoToResponse(&movs[i]))
	}
	return resp, nil
}

func descripcionPrestamo(tipo, proveedor string) string {
	if tipo == model.PrestamoOtorgado {
		return "Préstamo a " + proveedor
	}
	return "Pago de préstamo de " + proveedor
}
