package infra

import (
	"fmt"
	"os"
	"path/filepath"

	"acopio/internal/dto"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateReporteCierrePDF renders the close report of a session on A4:
// balance summary, totals per movement type and the full movement list.
// Output file: storagePath/cierre_{fecha}.pdf.
func GenerateReporteCierrePDF(rep *dto.ReporteCajaResponse, negocio, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("cierre_%s.pdf", rep.Sesion.Fecha))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 8, tr(negocio), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr("Cierre de caja del "+rep.Sesion.Fecha+" ("+rep.Sesion.Estado+")"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Summary ──────────────────────────────────────────────────────────────
	fila := func(etiqueta string, monto *decimal.Decimal) {
		valor := "-"
		if monto != nil {
			valor = "S/ " + monto.StringFixed(2)
		}
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(70, 6, tr(etiqueta), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, valor, "", 1, "R", false, 0, "")
	}
	inicial, esperado := rep.Sesion.MontoInicial, rep.Sesion.MontoEsperado
	ingresos, egresos := rep.TotalIngresos, rep.TotalEgresos
	fila("Monto inicial", &inicial)
	fila("Total ingresos", &ingresos)
	fila("Total egresos", &egresos)
	fila("Monto esperado", &esperado)
	fila("Monto contado", rep.Sesion.MontoContado)
	fila("Desvío", rep.Sesion.Desvio)
	if rep.Sesion.Observaciones != nil && *rep.Sesion.Observaciones != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, tr("Observaciones: "+*rep.Sesion.Observaciones), "", "L", false)
	}
	pdf.Ln(4)

	// ── Totals per type ──────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(60, 6, "Tipo", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 6, tr("Dirección"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 6, "Cantidad", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 6, "Total", "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, t := range rep.PorTipo {
		pdf.CellFormat(60, 6, t.Tipo, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, t.Direccion, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", t.Cantidad), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, t.Total.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// ── Movements ────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(0, 6, "Movimientos", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(35, 5, "Hora", "1", 0, "L", true, 0, "")
	pdf.CellFormat(28, 5, "Tipo", "1", 0, "L", true, 0, "")
	pdf.CellFormat(87, 5, tr("Descripción"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 5, "Monto", "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	for _, m := range rep.Movimientos {
		monto := m.Monto.StringFixed(2)
		if m.Direccion == "egreso" {
			monto = "-" + monto
		}
		desc := m.Descripcion
		if m.AjusteRetroactivo {
			desc += " (ajuste)"
		}
		if len(desc) > 60 {
			desc = desc[:59] + "..."
		}
		pdf.CellFormat(35, 5, m.CreatedAt, "1", 0, "L", false, 0, "")
		pdf.CellFormat(28, 5, m.Tipo, "1", 0, "L", false, 0, "")
		pdf.CellFormat(87, 5, tr(desc), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 5, monto, "1", 1, "R", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
