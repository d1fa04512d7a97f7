package worker

// reporte_worker.go
// Processes close-report jobs from QueueReporteCierre: renders the session
// close report as PDF, archives it when a bucket is configured and mails it
// to the owner address.

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"acopio/internal/dto"
	"acopio/internal/infra"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReporteCierrePayload is the job body sent to QueueReporteCierre.
type ReporteCierrePayload struct {
	SesionID string `json:"sesion_id"`
}

// ReporteSource loads the report of a session.
type ReporteSource interface {
	ObtenerReporte(ctx context.Context, sesionID uuid.UUID) (*dto.ReporteCajaResponse, error)
}

// Sender delivers a mail with an optional attachment.
type Sender interface {
	Configurado() bool
	Send(to, subject, body, pdfPath string) error
}

// Archiver keeps a copy of a generated file and returns where it went.
type Archiver interface {
	Archivar(ctx context.Context, key, path string) (string, error)
}

// ReporteCierreWorker renders and mails close reports.
type ReporteCierreWorker struct {
	reportes    ReporteSource
	mailer      Sender
	archiver    Archiver
	negocio     string
	storagePath string
	destino     string
}

func NewReporteCierreWorker(reportes ReporteSource, mailer Sender, negocio, storagePath, destino string) *ReporteCierreWorker {
	return &ReporteCierreWorker{
		reportes:    reportes,
		mailer:      mailer,
		negocio:     negocio,
		storagePath: storagePath,
		destino:     destino,
	}
}

// WithArchiver enables archiving. An archive failure is logged and does not
// fail the job.
func (w *ReporteCierreWorker) WithArchiver(a Archiver) *ReporteCierreWorker {
	w.archiver = a
	return w
}

// Process renders the PDF and, when SMTP and a destination are configured,
// mails it. Unknown sessions are dropped without retry.
func (w *ReporteCierreWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReporteCierrePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("reporte_worker: invalid payload")
		return nil
	}
	sesionID, err := uuid.Parse(payload.SesionID)
	if err != nil {
		log.Error().Str("sesion_id", payload.SesionID).Msg("reporte_worker: invalid sesion_id")
		return nil
	}

	rep, err := w.reportes.ObtenerReporte(ctx, sesionID)
	if err != nil {
		return fmt.Errorf("reporte_worker: load report: %w", err)
	}

	path, err := infra.GenerateReporteCierrePDF(rep, w.negocio, w.storagePath)
	if err != nil {
		return err
	}
	log.Info().Str("sesion_id", payload.SesionID).Str("pdf", path).Msg("reporte_worker: PDF generado")

	if w.archiver != nil {
		key := rep.Sesion.Fecha + "/" + filepath.Base(path)
		if obj, err := w.archiver.Archivar(ctx, key, path); err != nil {
			log.Warn().Err(err).Str("sesion_id", payload.SesionID).Msg("reporte_worker: archivo falló")
		} else {
			log.Info().Str("sesion_id", payload.SesionID).Str("objeto", obj).Msg("reporte_worker: PDF archivado")
		}
	}

	if w.destino == "" || w.mailer == nil || !w.mailer.Configurado() {
		return nil
	}

	subject := fmt.Sprintf("%s - cierre de caja %s", w.negocio, rep.Sesion.Fecha)
	body := resumenCierre(rep)
	if err := w.mailer.Send(w.destino, subject, body, path); err != nil {
		return fmt.Errorf("reporte_worker: send mail: %w", err)
	}
	log.Info().Str("sesion_id", payload.SesionID).Str("to", w.destino).Msg("reporte_worker: reporte enviado")
	return nil
}

func resumenCierre(rep *dto.ReporteCajaResponse) string {
	contado, desvio := "-", "-"
	if rep.Sesion.MontoContado != nil {
		contado = rep.Sesion.MontoContado.StringFixed(2)
	}
	if rep.Sesion.Desvio != nil {
		desvio = rep.Sesion.Desvio.StringFixed(2)
	}
	return fmt.Sprintf(
		"Cierre de caja del %s\n\nMonto inicial: %s\nIngresos: %s\nEgresos: %s\nEsperado: %s\nContado: %s\nDesvío: %s\nMovimientos: %d\n",
		rep.Sesion.Fecha,
		rep.Sesion.MontoInicial.StringFixed(2),
		rep.TotalIngresos.StringFixed(2),
		rep.TotalEgresos.StringFixed(2),
		rep.Sesion.MontoEsperado.StringFixed(2),
		contado, desvio,
		len(rep.Movimientos),
	)
}
