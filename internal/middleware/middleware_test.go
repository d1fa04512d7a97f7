package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"acopio/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secreto = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

func firmar(t *testing.T, tipo, rol string, vence time.Duration) string {
	t.Helper()
	claims := JWTClaims{
		UserID: "b0c9a8f2-4a7e-4f1e-9d51-3f0d6c2a1e11", Username: "Cajero", Rol: rol, Tipo: tipo,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(vence))},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secreto))
	require.NoError(t, err)
	return tok
}

func get(r *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ── Auth ─────────────────────────────────────────────────────────────────────

func TestJWTAuth(t *testing.T) {
	r := gin.New()
	r.GET("/cajero", JWTAuth(secreto), RequireRole("cajero", "administrador"), func(c *gin.Context) {
		c.String(http.StatusOK, GetClaims(c).Rol)
	})
	r.GET("/admin", JWTAuth(secreto), RequireRole("administrador"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	bearer := func(tok string) map[string]string { return map[string]string{"Authorization": "Bearer " + tok} }

	cases := []struct {
		nombre  string
		path    string
		headers map[string]string
		status  int
	}{
		{"sin cabecera", "/cajero", nil, http.StatusUnauthorized},
		{"esquema distinto", "/cajero", map[string]string{"Authorization": "Basic abc"}, http.StatusUnauthorized},
		{"acceso valido", "/cajero", bearer(firmar(t, "access", "cajero", time.Hour)), http.StatusOK},
		{"vencido", "/cajero", bearer(firmar(t, "access", "cajero", -time.Minute)), http.StatusUnauthorized},
		{"refresh no sirve como acceso", "/cajero", bearer(firmar(t, "refresh", "cajero", time.Hour)), http.StatusUnauthorized},
		{"rol insuficiente", "/admin", bearer(firmar(t, "access", "cajero", time.Hour)), http.StatusForbidden},
		{"administrador", "/admin", bearer(firmar(t, "access", "administrador", time.Hour)), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.nombre, func(t *testing.T) {
			assert.Equal(t, tc.status, get(r, tc.path, tc.headers).Code)
		})
	}

	otraClave, err := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{Rol: "cajero", Tipo: "access"}).SignedString([]byte("otra"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/cajero", bearer(otraClave)).Code)
}

// ── ErrorHandler ─────────────────────────────────────────────────────────────

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(), Recovery())
	r.GET("/conflicto", func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("%w: peso negativo", apierror.ErrItemInvalido))
	})
	r.GET("/monto", func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("%w: monto inicial negativo -1", apierror.ErrMontoInvalido))
	})
	r.GET("/reintentos", func(c *gin.Context) { _ = c.Error(apierror.ErrConflictoConcurrente) })
	r.GET("/no-encontrado", func(c *gin.Context) { _ = c.Error(apierror.ErrCompraNoEncontrada) })
	r.GET("/integridad", func(c *gin.Context) { _ = c.Error(apierror.ErrMovimientoHuerfano) })
	r.GET("/interno", func(c *gin.Context) { _ = c.Error(errors.New("pq: connection refused")) })
	r.GET("/panico", func(*gin.Context) { panic("boom") })

	w := get(r, "/conflicto", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"detail":"Ítem de compra inválido: peso negativo","code":"ITEM_INVALIDO"}`, w.Body.String())

	w = get(r, "/monto", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"MONTO_INVALIDO"`)
	assert.Equal(t, http.StatusConflict, get(r, "/reintentos", nil).Code)

	assert.Equal(t, http.StatusNotFound, get(r, "/no-encontrado", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, get(r, "/integridad", nil).Code)

	w = get(r, "/interno", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")

	assert.Equal(t, http.StatusInternalServerError, get(r, "/panico", nil).Code)
}

// ── RequestID / CORS ─────────────────────────────────────────────────────────

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := get(r, "/", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())

	w = get(r, "/", nil)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://caja.example.com"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/", map[string]string{"Origin": "https://caja.example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://caja.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Expose-Headers"))

	w = get(r, "/", map[string]string{"Origin": "https://otro.example.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	// same-host requests carry no Origin and pass untouched
	assert.Equal(t, http.StatusOK, get(r, "/", nil).Code)

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://caja.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORS_CualquierOrigen(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"*"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/", map[string]string{"Origin": "http://localhost:5173"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

// ── RateLimiter ──────────────────────────────────────────────────────────────

func TestRateLimiter_Local(t *testing.T) {
	l := NewRateLimiter("test", 2, time.Minute, nil)
	r := gin.New()
	r.GET("/", l.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "/", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "/", nil).Code)
	w := get(r, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
