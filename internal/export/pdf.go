// README: One-page PDF rendering of a quote record.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cotizador/internal/modules/quote"
)

const (
	quoteDateLayout = "2006-01-02 15:04:05"
	lineHeight      = 8.0
)

var money = message.NewPrinter(language.English)

func formatMoney(v float64) string {
	return money.Sprintf("$%.2f", v)
}

// PDFFileName is the download name for a quote document.
func PDFFileName(rec *quote.Record) string {
	return fmt.Sprintf("cotizacion_%s.pdf", rec.ID)
}

// WritePDF renders rec as a single A4 page.
func WritePDF(w io.Writer, rec *quote.Record) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Cotizacion "+string(rec.ID), true)
	pdf.SetCreationDate(rec.CreatedAt)
	pdf.AddPage()
	// Core fonts are cp1252; translate so accented names render.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr("Cotización de Transporte"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	for _, f := range pdfFields(rec) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, lineHeight, tr(f[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, lineHeight, tr(f[1]), "", "L", false)
	}
	return pdf.Output(w)
}

func pdfFields(rec *quote.Record) [][2]string {
	q := rec.Quote
	fields := [][2]string{
		{"Fecha de cotización", rec.CreatedAt.Local().Format(quoteDateLayout)},
		{"Cliente", rec.Client},
		{"Servicio", string(q.Service)},
		{"Origen", rec.Origin.Label()},
		{"Destino", rec.Destination.Label()},
		{"Distancia", fmt.Sprintf("%.2f km", q.DistanceKm)},
		{"Tipo de unidad", q.Unit},
	}
	if q.WeightTons > 0 {
		fields = append(fields, [2]string{"Peso (Ton)", strconv.FormatFloat(q.WeightTons, 'f', -1, 64)})
	}
	if q.VolumeM3 > 0 {
		fields = append(fields, [2]string{"Volumen (m3)", fmt.Sprintf("%.4f", q.VolumeM3)})
	}
	if q.ManeuverCost > 0 {
		fields = append(fields, [2]string{"Maniobras", formatMoney(q.ManeuverCost)})
	}
	fields = append(fields,
		[2]string{"Costo total", formatMoney(q.CostTotal) + " " + q.Currency},
		[2]string{"Detalle", q.Breakdown},
		[2]string{"Observaciones", rec.Observations},
		[2]string{"Fecha de servicio", rec.ServiceDate},
	)
	return fields
}
