package router

import (
	"context"
	"time"

	"acopio/internal/config"
	"acopio/internal/handler"
	"acopio/internal/infra"
	"acopio/internal/middleware"
	"acopio/internal/repository"
	"acopio/internal/service"
	"acopio/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is the service layer shared by the HTTP router and the worker pool.
type Services struct {
	Auth      service.AuthService
	Caja      service.CajaService
	Compra    service.CompraService
	Prestamo  service.PrestamoService
	Proveedor service.ProveedorService
	Producto  service.ProductoService

	// Collaborators exposed on /health; nil when not configured.
	Identidad *infra.IdentidadClient
	Impresora *infra.VoucherPDFPrinter
}

// NewServices wires repositories, collaborators and services.
// Dependency graph: Service ← Repository ← DB/Redis
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	opts := []service.Option{
		service.WithLocation(loc),
		service.WithVentanaEdicion(cfg.EditWindowDays),
		service.WithAnchoVoucher(cfg.VoucherWidth),
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	cajaRepo := repository.NewCajaRepository(db)
	movRepo := repository.NewMovimientoCajaRepository(db)
	compraRepo := repository.NewCompraRepository(db)
	proveedorRepo := repository.NewProveedorRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	prestamoRepo := repository.NewPrestamoRepository(db)
	voucherRepo := repository.NewVoucherRepository(db)

	// ── Collaborators ────────────────────────────────────────────────────────
	// Interfaces stay nil (not typed-nil) when a collaborator is missing so
	// services can skip the step.
	out := &Services{}
	var identidad service.IdentidadLookup
	if cfg.IdentidadAPIURL != "" {
		out.Identidad = infra.NewIdentidadClient(cfg.IdentidadAPIURL, cfg.IdentidadAPIToken)
		identidad = out.Identidad
		if rdb != nil {
			identidad = infra.NewIdentidadCache(out.Identidad, rdb)
		}
	}
	var printer service.VoucherPrinter
	if cfg.VoucherStoragePath != "" {
		out.Impresora = infra.NewVoucherPDFPrinter(cfg.NombreNegocio, cfg.VoucherStoragePath, loc)
		printer = out.Impresora
	}
	var dispatcher service.ReporteDispatcher
	if rdb != nil {
		dispatcher = worker.NewDispatcher(rdb)
	}

	// ── Services ─────────────────────────────────────────────────────────────
	out.Auth = service.NewAuthService(cfg)
	out.Caja = service.NewCajaService(cajaRepo, movRepo, dispatcher, opts...)
	out.Compra = service.NewCompraService(compraRepo, cajaRepo, movRepo, proveedorRepo, productoRepo, voucherRepo, identidad, printer, opts...)
	out.Prestamo = service.NewPrestamoService(prestamoRepo, proveedorRepo, cajaRepo, movRepo, opts...)
	out.Proveedor = service.NewProveedorService(proveedorRepo, identidad)
	out.Producto = service.NewProductoService(productoRepo, rdb)
	return out, nil
}

// New returns a configured Gin engine serving svc. ctx bounds the background
// cleanup of the in-memory rate limiter counters.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, svc *Services) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.Origins()))
	r.Use(middleware.ErrorHandler())
	global := middleware.NewRateLimiter("global", 1000, time.Minute, rdb) // 1000 req/min per IP
	refresh := middleware.NewRateLimiter("refresh", 10, time.Minute, rdb)
	go global.Purge(ctx, 5*time.Minute)
	go refresh.Purge(ctx, 5*time.Minute)
	r.Use(global.Handler())

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(svc.Auth)
	cajaH := handler.NewCajaHandler(svc.Caja)
	comprasH := handler.NewComprasHandler(svc.Compra)
	prestamosH := handler.NewPrestamosHandler(svc.Prestamo)
	proveedoresH := handler.NewProveedoresHandler(svc.Proveedor)
	productosH := handler.NewProductosHandler(svc.Producto)

	breakers := map[string]handler.Breaker{}
	if svc.Identidad != nil {
		breakers["identidad"] = svc.Identidad
	}
	if svc.Impresora != nil {
		breakers["impresora"] = svc.Impresora
	}

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, breakers))
	r.POST("/v1/auth/refresh", refresh.Handler(), authH.Refresh)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	todos := middleware.RequireRole(service.RolCajero, service.RolAdministrador)
	admin := middleware.RequireRole(service.RolAdministrador)

	v1 := r.Group("/v1", jwtMW)
	{
		v1.GET("/auth/me", todos, authH.Me)
		v1.POST("/auth/tokens", admin, authH.EmitirToken)

		caja := v1.Group("/caja")
		{
			caja.POST("/abrir", todos, cajaH.Abrir)
			caja.POST("/cerrar", todos, cajaH.Cerrar)
			caja.POST("/movimiento", todos, cajaH.RegistrarMovimiento)
			caja.GET("/activa", todos, cajaH.GetActiva)
			caja.GET("/historial", admin, cajaH.Historial)
			caja.GET("/:id/reporte", todos, cajaH.ObtenerReporte)
			caja.GET("/:id/compras", todos, comprasH.ListarPorSesion)
			// Reopening a closed day is an owner decision
			caja.POST("/:id/reabrir", admin, cajaH.Reabrir)
		}

		compras := v1.Group("/compras", todos)
		{
			compras.POST("", comprasH.Registrar)
			compras.GET("/:id", comprasH.ObtenerPorID)
			compras.PUT("/:id", comprasH.Editar)
			compras.POST("/:id/reimprimir", comprasH.Reimprimir)
		}

		prestamos := v1.Group("/prestamos", todos)
		{
			prestamos.POST("", prestamosH.Otorgar)
			prestamos.POST("/pagos", prestamosH.RegistrarPago)
		}

		prov := v1.Group("/proveedores", todos)
		{
			prov.GET("", proveedoresH.Listar)
			prov.GET("/documento/:documento", proveedoresH.ConsultarDocumento)
			prov.GET("/:id", proveedoresH.ObtenerPorID)
			prov.GET("/:id/estado-cuenta", prestamosH.EstadoCuenta)
		}

		v1.GET("/productos", todos, productosH.Listar)

		if rdb != nil {
			v1.GET("/admin/jobs/dlq", admin, handler.ListarDLQ(rdb))
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
