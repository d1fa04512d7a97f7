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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// IdentidadLookup resolves a DNI/RUC to a person or company name.
type IdentidadLookup interface {
	Buscar(ctx context.Context, documento string) (nombre string, encontrado bool, err error)
}

// VoucherPrinter renders the voucher of a committed compra. Items carry
// their Producto and the compra its Proveedor.
type VoucherPrinter interface {
	Imprimir(ctx context.Context, compra *model.Compra) error
}

type CompraService interface {
	RegistrarCompra(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarCompraRequest) (*dto.CompraResponse, error)
	EditarCompra(ctx context.Context, compraID uuid.UUID, req dto.EditarCompraRequest) (*dto.CompraResponse, error)
	ObtenerCompra(ctx context.Context, id uuid.UUID) (*dto.CompraResponse, error)
	ListarPorSesion(ctx context.Context, sesionID uuid.UUID) ([]dto.CompraResponse, error)
	Reimprimir(ctx context.Context, id uuid.UUID) error
}

type compraService struct {
	repo          repository.CompraRepository
	cajaRepo      repository.CajaRepository
	movRepo       repository.MovimientoCajaRepository
	proveedorRepo repository.ProveedorRepository
	productoRepo  repository.ProductoRepository
	voucherRepo   repository.VoucherRepository
	identidad     IdentidadLookup
	printer       VoucherPrinter
	opt           opciones
}

// NewCompraService wires the purchase processor. identidad and printer may be
// nil; the corresponding step is then skipped.
func NewCompraService(
	repo repository.CompraRepository,
	cajaRepo repository.CajaRepository,
	movRepo repository.MovimientoCajaRepository,
	proveedorRepo repository.ProveedorRepository,
	productoRepo repository.ProductoRepository,
	voucherRepo repository.VoucherRepository,
	identidad IdentidadLookup,
	printer VoucherPrinter,
	opts ...Option,
) CompraService {
	return &compraService{
		repo:          repo,
		cajaRepo:      cajaRepo,
		movRepo:       movRepo,
		proveedorRepo: proveedorRepo,
		productoRepo:  productoRepo,
		voucherRepo:   voucherRepo,
		identidad:     identidad,
		printer:       printer,
		opt:           newOpciones(opts),
	}
}

// ── RegistrarCompra ───────────────────────────────────────────────────────────
//   1. An open session is required
//   2. Items are resolved against the product directory and priced (outside TX)
//   3. A new proveedor without name is looked up in the identity service (outside TX)
//   4. BEGIN TX: resolve proveedor, next voucher, insert compra+items,
//      one egreso movement, session expected balance −total
//   5. COMMIT
//   6. Print voucher (failure only produces a warning)

func (s *compraService) RegistrarCompra(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarCompraRequest) (*dto.CompraResponse, error) {
	if _, err := s.cajaRepo.FindSesionAbierta(ctx, nil); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.ErrSinSesionAbierta
		}
		return nil, fmt.Errorf("buscar sesión abierta: %w", err)
	}

	seleccion := 0
	if req.ProveedorID != nil {
		seleccion++
	}
	if req.NuevoProveedor != nil {
		seleccion++
	}
	if req.Anonimo {
		seleccion++
	}
	if seleccion != 1 {
		return nil, apierror.ErrProveedorAmbiguo
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: la compra no tiene ítems", apierror.ErrItemInvalido)
	}

	items := make([]model.CompraItem, len(req.Items))
	for i, in := range req.Items {
		p, err := s.resolverProducto(ctx, nil, in)
		if err != nil {
			return nil, fmt.Errorf("ítem %d: %w", i+1, err)
		}
		items[i].Linea = i + 1
		aplicarItem(&items[i], in, p)
	}
	pesoTotal, total := totalizar(items)
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: el total de la compra debe ser mayor a cero", apierror.ErrItemInvalido)
	}

	var advertencias []string
	var nombreNuevo string
	if req.NuevoProveedor != nil {
		var adv string
		nombreNuevo, adv = s.nombreProveedorNuevo(ctx, req.NuevoProveedor)
		if adv != "" {
			advertencias = append(advertencias, adv)
		}
		if tel := req.NuevoProveedor.Telefono; nombreNuevo != "" && tel != nil && strings.TrimSpace(*tel) != "" {
			normalizado, ok := normalizarTelefono(*tel)
			if !ok {
				advertencias = append(advertencias, "Teléfono no reconocido: se guardó tal como se ingresó")
			}
			np := *req.NuevoProveedor
			np.Telefono = &normalizado
			req.NuevoProveedor = &np
		}
	}

	var compra model.Compra
	var proveedor *model.Proveedor
	// Set when an attempt collided on numero_voucher: the counter is behind
	// the stored vouchers and is moved past them before the next attempt.
	contadorAtrasado := false
	err := runTxReintentando(ctx, s.repo.DB(), "registrar compra", func(tx *gorm.DB) error {
		sesion, err := sesionAbiertaTx(ctx, s.cajaRepo, tx)
		if err != nil {
			return err
		}

		proveedor, err = s.resolverProveedor(ctx, tx, req, nombreNuevo)
		if err != nil {
			return err
		}

		if contadorAtrasado {
			if err := s.voucherRepo.Sincronizar(ctx, tx); err != nil {
				return err
			}
			log.Warn().Msg("contador de vouchers atrasado, resincronizado con las compras existentes")
		}
		n, err := s.voucherRepo.Next(ctx, tx)
		if err != nil {
			return err
		}

		compra = model.Compra{
			NumeroVoucher: FormatearVoucher(n, s.opt.anchoVoucher),
			ProveedorID:   proveedor.ID,
			SesionCajaID:  sesion.ID,
			UsuarioID:     usuarioID,
			PesoTotal:     pesoTotal,
			Total:         total,
			CreatedAt:     s.opt.ahora(),
			Items:         make([]model.CompraItem, len(items)),
		}
		for i := range items {
			compra.Items[i] = items[i]
			compra.Items[i].ID = uuid.Nil
			compra.Items[i].Producto = nil
		}
		if err := s.repo.Create(ctx, tx, &compra); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				contadorAtrasado = true
			}
			return fmt.Errorf("crear compra: %w", err)
		}

		mov := model.MovimientoCaja{
			Tipo:         model.TipoCompra,
			Monto:        total,
			Descripcion:  descripcionCompra(compra.NumeroVoucher, proveedor.Nombre),
			ReferenciaID: &compra.ID,
		}
		return asentarMovimiento(ctx, tx, s.cajaRepo, s.movRepo, sesion, &mov)
	})
	if err != nil {
		return nil, err
	}

	compra.Proveedor = proveedor
	for i := range compra.Items {
		compra.Items[i].Producto = items[i].Producto
	}
	log.Info().
		Str("compra_id", compra.ID.String()).
		Str("voucher", compra.NumeroVoucher).
		Str("total", compra.Total.StringFixed(2)).
		Int("items", len(compra.Items)).
		Msg("compra registrada")

	advertencias = append(advertencias, s.imprimir(ctx, &compra)...)
	resp := compraToResponse(&compra)
	resp.Advertencias = advertencias
	return resp, nil
}

// nombreProveedorNuevo returns the name to use for a proveedor that may have
// to be created. An empty name means the proveedor already exists. The
// second value is a warning for the operator.
func (s *compraService) nombreProveedorNuevo(ctx context.Context, in *dto.NuevoProveedorInput) (string, string) {
	if in.Nombre != nil && strings.TrimSpace(*in.Nombre) != "" {
		return strings.TrimSpace(*in.Nombre), ""
	}
	if _, err := s.proveedorRepo.FindByDocumento(ctx, nil, in.Documento); err == nil {
		return "", ""
	}
	if s.identidad == nil {
		return in.Documento, "Servicio de identidad no configurado: se usó el documento como nombre provisional"
	}
	nombre, encontrado, err := s.identidad.Buscar(ctx, in.Documento)
	if err != nil {
		log.Warn().Err(err).Str("documento", in.Documento).Msg("consulta de identidad fallida")
		return in.Documento, "No se pudo consultar el documento: se usó el documento como nombre provisional"
	}
	if !encontrado || strings.TrimSpace(nombre) == "" {
		return in.Documento, "Documento no encontrado en el servicio de identidad: se usó el documento como nombre provisional"
	}
	return nombre, ""
}

func (s *compraService) resolverProveedor(ctx context.Context, tx *gorm.DB, req dto.RegistrarCompraRequest, nombreNuevo string) (*model.Proveedor, error) {
	switch {
	case req.ProveedorID != nil:
		id, err := uuid.Parse(*req.ProveedorID)
		if err != nil {
			return nil, fmt.Errorf("%w: proveedor_id inválido", apierror.ErrProveedorNoEncontrado)
		}
		return s.proveedorPorID(ctx, tx, id)

	case req.Anonimo:
		p, err := s.proveedorRepo.FindAnonimo(ctx, tx)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("buscar proveedor anónimo: %w", err)
		}
		p = &model.Proveedor{Documento: model.DocumentoAnonimo, Nombre: "Anónimo", EsAnonimo: true, Activo: true}
		if err := s.proveedorRepo.Create(ctx, tx, p); err != nil {
			return nil, fmt.Errorf("crear proveedor anónimo: %w", err)
		}
		return p, nil

	default:
		in := req.NuevoProveedor
		p, err := s.proveedorRepo.FindByDocumento(ctx, tx, in.Documento)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("buscar proveedor por documento: %w", err)
		}
		if nombreNuevo == "" {
			nombreNuevo = in.Documento
		}
		p = &model.Proveedor{
			Documento: in.Documento,
			Nombre:    nombreNuevo,
			Telefono:  in.Telefono,
			Activo:    true,
		}
		if err := s.proveedorRepo.Create(ctx, tx, p); err != nil {
			return nil, fmt.Errorf("crear proveedor: %w", err)
		}
		log.Info().Str("documento", p.Documento).Str("nombre", p.Nombre).Msg("proveedor creado")
		return p, nil
	}
}

func (s *compraService) proveedorPorID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Proveedor, error) {
	p, err := s.proveedorRepo.FindByID(ctx, tx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.ErrProveedorNoEncontrado
	}
	if err != nil {
		return nil, fmt.Errorf("buscar proveedor: %w", err)
	}
	return p, nil
}

// ── EditarCompra ──────────────────────────────────────────────────────────────
// Items are modified in place; none can be added or removed. The single
// compra movement is rewritten and the owning session absorbs the delta,
// even when it is already closed (retroactive adjustment).

func (s *compraService) EditarCompra(ctx context.Context, compraID uuid.UUID, req dto.EditarCompraRequest) (*dto.CompraResponse, error) {
	var nuevoProveedorID *uuid.UUID
	if req.ProveedorID != nil {
		id, err := uuid.Parse(*req.ProveedorID)
		if err != nil {
			return nil, fmt.Errorf("%w: proveedor_id inválido", apierror.ErrProveedorNoEncontrado)
		}
		nuevoProveedorID = &id
	}

	var compra *model.Compra
	var proveedor *model.Proveedor
	var totalAnterior decimal.Decimal
	var retroactivo bool
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		compra, err = s.repo.LockByID(ctx, tx, compraID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.ErrCompraNoEncontrada
		}
		if err != nil {
			return fmt.Errorf("buscar compra: %w", err)
		}

		if s.opt.ventanaEdicionVencida(compra.CreatedAt) {
			return apierror.ErrVentanaEdicionVencida
		}
		if len(req.Items) != len(compra.Items) {
			return apierror.ErrCantidadItemsDistinta
		}

		porID := make(map[uuid.UUID]*model.CompraItem, len(compra.Items))
		for i := range compra.Items {
			porID[compra.Items[i].ID] = &compra.Items[i]
		}
		for _, in := range req.Items {
			id, err := uuid.Parse(in.ID)
			if err != nil {
				return fmt.Errorf("%w: %s", apierror.ErrItemDesconocido, in.ID)
			}
			item, ok := porID[id]
			if !ok {
				return fmt.Errorf("%w: %s", apierror.ErrItemDesconocido, in.ID)
			}
			// each existing line must be edited exactly once
			delete(porID, id)

			p, err := s.resolverProducto(ctx, tx, in.CompraItemInput)
			if err != nil {
				return fmt.Errorf("ítem %d: %w", item.Linea, err)
			}
			aplicarItem(item, in.CompraItemInput, p)
		}

		if nuevoProveedorID != nil {
			compra.ProveedorID = *nuevoProveedorID
		}
		proveedor, err = s.proveedorPorID(ctx, tx, compra.ProveedorID)
		if err != nil {
			return err
		}

		totalAnterior = compra.Total
		compra.PesoTotal, compra.Total = totalizar(compra.Items)
		if !compra.Total.IsPositive() {
			return fmt.Errorf("%w: el total de la compra debe ser mayor a cero", apierror.ErrItemInvalido)
		}

		mov, err := s.movRepo.FindByReferencia(ctx, tx, compra.SesionCajaID, model.TipoCompra, compra.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error().
				Bool("alerta", true).
				Str("compra_id", compra.ID.String()).
				Str("voucher", compra.NumeroVoucher).
				Msg("compra sin movimiento de caja")
			return apierror.ErrMovimientoHuerfano
		}
		if err != nil {
			return fmt.Errorf("buscar movimiento de la compra: %w", err)
		}

		sesion, err := s.cajaRepo.LockSesion(ctx, tx, compra.SesionCajaID)
		if err != nil {
			return fmt.Errorf("buscar sesión de la compra: %w", err)
		}
		retroactivo = !sesion.Abierta()

		desc := descripcionCompra(compra.NumeroVoucher, proveedor.Nombre)
		if err := s.movRepo.UpdateMontoDescripcion(ctx, tx, mov.ID, compra.Total, desc, mov.AjusteRetroactivo || retroactivo); err != nil {
			return fmt.Errorf("actualizar movimiento de la compra: %w", err)
		}

		// compra is an egreso: a higher total leaves less cash in the drawer
		sesion.MontoEsperado = sesion.MontoEsperado.Sub(compra.Total.Sub(totalAnterior))
		if sesion.MontoContado != nil {
			desvio := CalcularDesvio(*sesion.MontoContado, sesion.MontoEsperado)
			sesion.Desvio = &desvio
		}
		if err := s.cajaRepo.UpdateSesion(ctx, tx, sesion); err != nil {
			return fmt.Errorf("actualizar sesión: %w", err)
		}

		ahora := s.opt.ahora()
		compra.Editada = true
		compra.EditadaAt = &ahora
		if retroactivo {
			compra.AjusteRetroactivo = true
		}
		if err := s.repo.UpdateCabecera(ctx, tx, compra); err != nil {
			return fmt.Errorf("actualizar compra: %w", err)
		}
		for i := range compra.Items {
			if err := s.repo.UpdateItem(ctx, tx, &compra.Items[i]); err != nil {
				return fmt.Errorf("actualizar ítem %d: %w", compra.Items[i].Linea, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	compra.Proveedor = proveedor
	ev := log.Info().
		Str("compra_id", compra.ID.String()).
		Str("total_anterior", totalAnterior.StringFixed(2)).
		Str("total", compra.Total.StringFixed(2))
	if retroactivo {
		ev = ev.Bool("ajuste_retroactivo", true)
	}
	ev.Msg("compra editada")

	return compraToResponse(compra), nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *compraService) ObtenerCompra(ctx context.Context, id uuid.UUID) (*dto.CompraResponse, error) {
	compra, err := s.repo.FindByID(ctx, nil, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.ErrCompraNoEncontrada
	}
	if err != nil {
		return nil, err
	}
	return compraToResponse(compra), nil
}

func (s *compraService) ListarPorSesion(ctx context.Context, sesionID uuid.UUID) ([]dto.CompraResponse, error) {
	compras, err := s.repo.ListBySesion(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.CompraResponse, 0, len(compras))
	for i := range compras {
		resp = append(resp, *compraToResponse(&compras[i]))
	}
	return resp, nil
}

// Reimprimir prints the voucher of an existing compra again. Unlike the
// print after registration, a printer failure is returned to the caller.
func (s *compraService) Reimprimir(ctx context.Context, id uuid.UUID) error {
	compra, err := s.repo.FindByID(ctx, nil, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.ErrCompraNoEncontrada
	}
	if err != nil {
		return err
	}
	if s.printer == nil {
		return errors.New("impresora de vouchers no configurada")
	}
	return s.printer.Imprimir(ctx, compra)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *compraService) imprimir(ctx context.Context, compra *model.Compra) []string {
	if s.printer == nil {
		return nil
	}
	if err := s.printer.Imprimir(ctx, compra); err != nil {
		log.Warn().Err(err).Str("voucher", compra.NumeroVoucher).Msg("impresión de voucher fallida")
		return []string{fmt.Sprintf("No se pudo imprimir el voucher %s; la compra quedó registrada", compra.NumeroVoucher)}
	}
	return nil
}

// resolverProducto checks the item against the product directory.
func (s *compraService) resolverProducto(ctx context.Context, tx *gorm.DB, in dto.CompraItemInput) (*model.Producto, error) {
	pid, err := uuid.Parse(in.ProductoID)
	if err != nil {
		return nil, fmt.Errorf("%w: producto_id inválido", apierror.ErrItemInvalido)
	}
	p, err := s.productoRepo.FindByID(ctx, tx, pid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.ErrProductoNoEncontrado
	}
	if err != nil {
		return nil, fmt.Errorf("buscar producto: %w", err)
	}
	if !p.Activo {
		return nil, apierror.ErrProductoNoEncontrado
	}

	switch {
	case !in.PesoBruto.IsPositive():
		return nil, fmt.Errorf("%w: el peso bruto debe ser mayor a cero", apierror.ErrItemInvalido)
	case in.DescuentoPeso.IsNegative():
		return nil, fmt.Errorf("%w: el descuento de peso no puede ser negativo", apierror.ErrItemInvalido)
	case !in.PrecioUnitario.IsPositive():
		return nil, fmt.Errorf("%w: el precio unitario debe ser mayor a cero", apierror.ErrItemInvalido)
	case !p.AceptaNivelSecado(in.NivelSecado):
		return nil, fmt.Errorf("%w: nivel de secado %q no válido para %s", apierror.ErrItemInvalido, in.NivelSecado, p.Nombre)
	case !p.AceptaCalidad(in.Calidad):
		return nil, fmt.Errorf("%w: calidad %q no válida para %s", apierror.ErrItemInvalido, in.Calidad, p.Nombre)
	case !p.AceptaModoPesaje(in.ModoPesaje):
		return nil, fmt.Errorf("%w: modo de pesaje %q no permitido para %s", apierror.ErrItemInvalido, in.ModoPesaje, p.Nombre)
	}
	return p, nil
}

func aplicarItem(item *model.CompraItem, in dto.CompraItemInput, p *model.Producto) {
	item.ProductoID = p.ID
	item.Producto = p
	item.NivelSecado = in.NivelSecado
	item.Calidad = in.Calidad
	item.ModoPesaje = in.ModoPesaje
	item.PesoBruto = in.PesoBruto
	item.DescuentoPeso = in.DescuentoPeso
	item.PrecioUnitario = in.PrecioUnitario
	item.PesoNeto, item.Subtotal = calcularItem(in.PesoBruto, in.DescuentoPeso, in.PrecioUnitario)
}

func totalizar(items []model.CompraItem) (peso, total decimal.Decimal) {
	for _, it := range items {
		peso = peso.Add(it.PesoNeto)
		total = total.Add(it.Subtotal)
	}
	return peso, total
}

func descripcionCompra(voucher, proveedor string) string {
	return fmt.Sprintf("Compra N° %s - %s", voucher, proveedor)
}
