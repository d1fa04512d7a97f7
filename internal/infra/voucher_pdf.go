package infra

// voucher_pdf.go: purchase voucher rendering with go-pdf/fpdf.
// 80 mm thermal-roll layout: business header, voucher number and date,
// proveedor, one block per weighed item, weight and money totals.
// Output file: storagePath/voucher_{numero}.pdf (reprints overwrite it).

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"acopio/internal/model"

	"github.com/go-pdf/fpdf"
)

const (
	voucherAncho  = 80.0
	voucherMargen = 4.0
)

// GenerateVoucherPDF renders compra and returns the path of the written file.
// compra must have Items (with Producto) and Proveedor loaded.
func GenerateVoucherPDF(compra *model.Compra, negocio, storagePath string, loc *time.Location) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}

	filePath := filepath.Join(storagePath, fmt.Sprintf("voucher_%s.pdf", compra.NumeroVoucher))

	// Height grows with the item count; each item block takes ~14mm.
	alto := 95.0 + float64(len(compra.Items))*14
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: voucherAncho, Ht: alto},
	})
	pdf.SetMargins(voucherMargen, voucherMargen, voucherMargen)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	contentW := voucherAncho - 2*voucherMargen
	separador := func() {
		pdf.Ln(1)
		pdf.Line(voucherMargen, pdf.GetY(), voucherAncho-voucherMargen, pdf.GetY())
		pdf.Ln(2)
	}

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 6, tr(negocio), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 4, tr("Comprobante de compra de producto"), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// ── Voucher info ─────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 5, tr("Voucher N° "+compra.NumeroVoucher), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, compra.CreatedAt.In(loc).Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	if compra.Editada && compra.EditadaAt != nil {
		pdf.CellFormat(contentW, 4, tr("Editada: "+compra.EditadaAt.In(loc).Format("02/01/2006  15:04")), "", 1, "L", false, 0, "")
	}
	if compra.Proveedor != nil {
		pdf.CellFormat(contentW, 4, tr("Proveedor: "+compra.Proveedor.Nombre), "", 1, "L", false, 0, "")
		if !compra.Proveedor.EsAnonimo {
			pdf.CellFormat(contentW, 4, tr("Documento: "+compra.Proveedor.Documento), "", 1, "L", false, 0, "")
		}
	}
	separador()

	// ── Items ────────────────────────────────────────────────────────────────
	colA := contentW * 0.6
	colB := contentW * 0.4
	for _, item := range compra.Items {
		nombre := "Producto"
		if item.Producto != nil {
			nombre = item.Producto.Nombre
		}
		detalle := nombre
		if item.NivelSecado != "" {
			detalle += " / " + item.NivelSecado
		}
		if item.Calidad != "" {
			detalle += " / " + item.Calidad
		}

		pdf.SetFont("Helvetica", "B", 7)
		pdf.CellFormat(contentW, 4, tr(fmt.Sprintf("%d. %s", item.Linea, detalle)), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(colA, 3.5, tr(fmt.Sprintf("Bruto %s kg - Desc. %s kg (%s)",
			item.PesoBruto.StringFixed(2), item.DescuentoPeso.StringFixed(2), item.ModoPesaje)), "", 0, "L", false, 0, "")
		pdf.CellFormat(colB, 3.5, "Neto "+item.PesoNeto.StringFixed(2)+" kg", "", 1, "R", false, 0, "")
		pdf.CellFormat(colA, 3.5, "x S/ "+item.PrecioUnitario.StringFixed(2)+" /kg", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 7)
		pdf.CellFormat(colB, 3.5, "S/ "+item.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
		pdf.Ln(1.5)
	}
	separador()

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(colA, 5, "Peso neto total:", "", 0, "L", false, 0, "")
	pdf.CellFormat(colB, 5, compra.PesoTotal.StringFixed(2)+" kg", "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(colA, 6, "TOTAL PAGADO:", "", 0, "L", false, 0, "")
	pdf.CellFormat(colB, 6, "S/ "+compra.Total.StringFixed(2), "", 1, "R", false, 0, "")

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "______________________", "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 4, tr("Firma del proveedor"), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

// VoucherPDFPrinter prints purchase vouchers as PDF files, the format the
// shop's thermal printer spooler picks up. Rendering goes through a circuit
// breaker so a broken spool directory does not slow every purchase.
type VoucherPDFPrinter struct {
	negocio     string
	storagePath string
	loc         *time.Location
	cb          *CircuitBreaker
}

func NewVoucherPDFPrinter(negocio, storagePath string, loc *time.Location) *VoucherPDFPrinter {
	return &VoucherPDFPrinter{
		negocio:     negocio,
		storagePath: storagePath,
		loc:         loc,
		cb:          NewCircuitBreaker(DefaultCBConfig("impresora")),
	}
}

// Imprimir renders the voucher of compra.
func (p *VoucherPDFPrinter) Imprimir(ctx context.Context, compra *model.Compra) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.cb.Execute(func() error {
		_, err := GenerateVoucherPDF(compra, p.negocio, p.storagePath, p.loc)
		return err
	})
}

// Estado exposes the breaker state for the health endpoint.
func (p *VoucherPDFPrinter) Estado() CBState { return p.cb.State() }
