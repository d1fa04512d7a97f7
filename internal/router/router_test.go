package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"acopio/internal/config"
	"acopio/internal/dto"
	"acopio/internal/model"
	"acopio/internal/router"
	"acopio/internal/service"
	"acopio/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

type testEnv struct {
	engine  *gin.Engine
	db      *gorm.DB
	cajero  string
	admin   string
	maiz    *model.Producto
	voucher string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 1,
		JWTRefreshHours:    24,
		Timezone:           "UTC",
		EditWindowDays:     2,
		VoucherWidth:       8,
		NombreNegocio:      "Acopio Test",
		VoucherStoragePath: t.TempDir(),
		CORSOrigins:        "*",
	}
	db := testutil.NewDB(t)

	svc, err := router.NewServices(cfg, db, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cajero, err := svc.Auth.Emitir(ctx, uuid.New(), "Cajero Test", service.RolCajero)
	require.NoError(t, err)
	admin, err := svc.Auth.Emitir(ctx, uuid.New(), "Dueño Test", service.RolAdministrador)
	require.NoError(t, err)

	return &testEnv{
		engine:  router.New(ctx, cfg, db, nil, svc),
		db:      db,
		cajero:  cajero.AccessToken,
		admin:   admin.AccessToken,
		maiz:    testutil.CrearProducto(t, db, "Maíz amarillo", nil, nil, false),
		voucher: cfg.VoucherStoragePath,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func (e *testEnv) compraMaiz(bruto, precio string) map[string]any {
	return map[string]any{
		"anonimo": true,
		"items": []map[string]any{{
			"producto_id":     e.maiz.ID.String(),
			"modo_pesaje":     model.ModoPesajeBalanza,
			"peso_bruto":      bruto,
			"descuento_peso":  "0",
			"precio_unitario": precio,
		}},
	}
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	e := setupTestEnv(t)

	w := e.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		OK            bool              `json:"ok"`
		DB            string            `json:"db"`
		Redis         string            `json:"redis"`
		Colaboradores map[string]string `json:"colaboradores"`
	}
	decodeJSON(t, w, &body)
	assert.True(t, body.OK)
	assert.Equal(t, "connected", body.DB)
	assert.Equal(t, "disabled", body.Redis)
	assert.Equal(t, "closed", body.Colaboradores["impresora"])
	assert.NotContains(t, body.Colaboradores, "identidad")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuth_RequiereToken(t *testing.T) {
	e := setupTestEnv(t)

	w := e.do(t, http.MethodGet, "/v1/caja/activa", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodGet, "/v1/caja/activa", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodGet, "/v1/auth/me", nil, e.cajero)
	require.Equal(t, http.StatusOK, w.Code)
	var me dto.OperadorResponse
	decodeJSON(t, w, &me)
	assert.Equal(t, service.RolCajero, me.Rol)
}

func TestAuth_RolAdministrador(t *testing.T) {
	e := setupTestEnv(t)

	w := e.do(t, http.MethodGet, "/v1/caja/historial", nil, e.cajero)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, "/v1/caja/historial", nil, e.admin)
	assert.Equal(t, http.StatusOK, w.Code)

	req := dto.EmitirTokenRequest{OperadorID: uuid.NewString(), Nombre: "Nuevo Cajero", Rol: service.RolCajero}
	w = e.do(t, http.MethodPost, "/v1/auth/tokens", req, e.cajero)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPost, "/v1/auth/tokens", req, e.admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tok dto.TokenResponse
	decodeJSON(t, w, &tok)
	assert.NotEmpty(t, tok.AccessToken)
	assert.Equal(t, "Nuevo Cajero", tok.Operador.Nombre)

	w = e.do(t, http.MethodPost, "/v1/auth/refresh", dto.RefreshRequest{RefreshToken: tok.RefreshToken}, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestCicloDeCaja(t *testing.T) {
	e := setupTestEnv(t)

	// no session yet
	w := e.do(t, http.MethodPost, "/v1/compras", e.compraMaiz("5", "7"), e.cajero)
	require.Equal(t, http.StatusConflict, w.Code)
	var apiErr struct {
		Detail string `json:"detail"`
		Code   string `json:"code"`
	}
	decodeJSON(t, w, &apiErr)
	assert.Equal(t, "SIN_SESION_ABIERTA", apiErr.Code)

	w = e.do(t, http.MethodPost, "/v1/caja/abrir", map[string]any{"monto_inicial": "100.00"}, e.cajero)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sesion dto.SesionCajaResponse
	decodeJSON(t, w, &sesion)
	assert.Equal(t, model.EstadoAbierta, sesion.Estado)

	w = e.do(t, http.MethodPost, "/v1/caja/abrir", map[string]any{"monto_inicial": "50"}, e.cajero)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, "/v1/compras", e.compraMaiz("5", "7"), e.cajero)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var compra dto.CompraResponse
	decodeJSON(t, w, &compra)
	assert.Equal(t, "00000001", compra.NumeroVoucher)
	assert.True(t, decimal.RequireFromString("35").Equal(compra.Total))
	assert.FileExists(t, e.voucher+"/voucher_00000001.pdf")

	editar := map[string]any{
		"items": []map[string]any{{
			"id":              compra.Items[0].ID,
			"producto_id":     e.maiz.ID.String(),
			"modo_pesaje":     model.ModoPesajeBalanza,
			"peso_bruto":      "6",
			"descuento_peso":  "0",
			"precio_unitario": "7",
		}},
	}
	w = e.do(t, http.MethodPut, "/v1/compras/"+compra.ID, editar, e.cajero)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, "/v1/caja/movimiento", map[string]any{
		"tipo": model.TipoInyeccion, "monto": "20", "descripcion": "sencillo",
	}, e.cajero)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodGet, "/v1/caja/activa", nil, e.cajero)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &sesion)
	assert.Equal(t, "78.00", sesion.MontoEsperado.StringFixed(2))

	w = e.do(t, http.MethodPost, "/v1/caja/cerrar", map[string]any{"monto_contado": "75"}, e.cajero)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cierre dto.ReporteCajaResponse
	decodeJSON(t, w, &cierre)
	require.NotNil(t, cierre.Sesion.Desvio)
	assert.Equal(t, "-3.00", cierre.Sesion.Desvio.StringFixed(2))
	assert.Equal(t, "20.00", cierre.TotalIngresos.StringFixed(2))
	assert.Equal(t, "42.00", cierre.TotalEgresos.StringFixed(2))

	w = e.do(t, http.MethodGet, "/v1/caja/"+sesion.ID+"/compras", nil, e.cajero)
	require.Equal(t, http.StatusOK, w.Code)
	var lista struct {
		Data []dto.CompraResponse `json:"data"`
	}
	decodeJSON(t, w, &lista)
	require.Len(t, lista.Data, 1)
	assert.True(t, lista.Data[0].Editada)
}

func TestCompras_ValidacionYNoEncontrado(t *testing.T) {
	e := setupTestEnv(t)
	w := e.do(t, http.MethodPost, "/v1/caja/abrir", map[string]any{"monto_inicial": "100"}, e.cajero)
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, http.MethodPost, "/v1/compras", map[string]any{"anonimo": true, "items": []any{}}, e.cajero)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(t, http.MethodGet, "/v1/compras/not-a-uuid", nil, e.cajero)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/v1/compras/"+uuid.NewString(), nil, e.cajero)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrestamos_HTTP(t *testing.T) {
	e := setupTestEnv(t)
	p := testutil.CrearProveedor(t, e.db, "40999888", "Elena Ccori")
	w := e.do(t, http.MethodPost, "/v1/caja/abrir", map[string]any{"monto_inicial": "500"}, e.cajero)
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, http.MethodPost, "/v1/prestamos", map[string]any{"proveedor_id": p.ID.String(), "monto": "200"}, e.cajero)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, "/v1/prestamos/pagos", map[string]any{"proveedor_id": p.ID.String(), "monto": "250"}, e.cajero)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodGet, "/v1/proveedores/"+p.ID.String()+"/estado-cuenta", nil, e.cajero)
	require.Equal(t, http.StatusOK, w.Code)
	var ec dto.EstadoCuentaResponse
	decodeJSON(t, w, &ec)
	assert.Equal(t, "200.00", ec.Saldo.StringFixed(2))
	assert.Len(t, ec.Movimientos, 1)
}
