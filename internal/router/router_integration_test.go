//go:build integration

package router_test

// Runs the HTTP surface against real Postgres and Redis containers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"acopio/internal/config"
	"acopio/internal/dto"
	"acopio/internal/infra"
	"acopio/internal/model"
	"acopio/internal/router"
	"acopio/internal/service"
	"acopio/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type integrationEnv struct {
	*testEnv
	reportes string
}

func setupIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcPostgres.WithDatabase("acopio_test"),
		tcPostgres.WithUsername("acopio"),
		tcPostgres.WithPassword("acopio"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(context.Background()) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	reportes := t.TempDir()
	cfg := &config.Config{
		Env:                "test",
		DBDriver:           "postgres",
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 1,
		JWTRefreshHours:    24,
		Timezone:           "UTC",
		EditWindowDays:     2,
		VoucherWidth:       8,
		NombreNegocio:      "Acopio E2E",
		VoucherStoragePath: t.TempDir(),
		CORSOrigins:        "*",
	}

	m, err := infra.NewMigrator(cfg.DatabaseURL, "../../migrations")
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	db, err := infra.NewDatabase(cfg)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	require.NoError(t, err)
	require.NotNil(t, rdb)

	svc, err := router.NewServices(cfg, db, rdb)
	require.NoError(t, err)

	pool := worker.NewPool(rdb)
	pool.Register(worker.QueueReporteCierre, worker.JobReporteCierre,
		worker.NewReporteCierreWorker(svc.Caja, infra.NewMailer(cfg), cfg.NombreNegocio, reportes, ""))
	pool.Start(ctx, 1)

	cajero, err := svc.Auth.Emitir(ctx, uuid.New(), "Cajero E2E", service.RolCajero)
	require.NoError(t, err)
	admin, err := svc.Auth.Emitir(ctx, uuid.New(), "Dueño E2E", service.RolAdministrador)
	require.NoError(t, err)

	maiz := &model.Producto{Nombre: "Maíz amarillo", Activo: true}
	require.NoError(t, svc.Producto.Registrar(ctx, maiz))

	return &integrationEnv{
		testEnv: &testEnv{
			engine:  router.New(ctx, cfg, db, rdb, svc),
			db:      db,
			cajero:  cajero.AccessToken,
			admin:   admin.AccessToken,
			maiz:    maiz,
			voucher: cfg.VoucherStoragePath,
		},
		reportes: reportes,
	}
}

func TestIntegration_CicloCompleto(t *testing.T) {
	e := setupIntegrationEnv(t)

	w := e.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"connected"`)

	w = e.do(t, http.MethodPost, "/v1/caja/abrir", map[string]any{"monto_inicial": "100.00"}, e.cajero)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sesion dto.SesionCajaResponse
	decodeJSON(t, w, &sesion)

	var numeros []string
	for i := 0; i < 3; i++ {
		w = e.do(t, http.MethodPost, "/v1/compras", e.compraMaiz("5", "7"), e.cajero)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var c dto.CompraResponse
		decodeJSON(t, w, &c)
		numeros = append(numeros, c.NumeroVoucher)
	}
	assert.Equal(t, []string{"00000001", "00000002", "00000003"}, numeros)

	w = e.do(t, http.MethodPost, "/v1/caja/cerrar", map[string]any{"monto_contado": "-5"}, e.cajero)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(t, http.MethodPost, "/v1/caja/cerrar", map[string]any{"monto_contado": "0"}, e.cajero)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cierre dto.ReporteCajaResponse
	decodeJSON(t, w, &cierre)
	assert.Equal(t, "-5.00", cierre.Sesion.MontoEsperado.StringFixed(2))

	// the close report is rendered by the worker pool
	pdf := filepath.Join(e.reportes, "cierre_"+sesion.Fecha+".pdf")
	require.Eventually(t, func() bool {
		_, err := os.Stat(pdf)
		return err == nil
	}, 15*time.Second, 200*time.Millisecond)

	w = e.do(t, http.MethodGet, "/v1/admin/jobs/dlq", nil, e.admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)
}
