// README: Excel workbooks of quote records (single quote, history and the daily log).
package export

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"cotizador/internal/modules/quote"
)

// SheetName is the worksheet every workbook writes to.
const SheetName = "Cotizaciones"

var (
	columnsBefore = []string{
		"Fecha cotización", "Cliente", "Servicio", "Origen", "Destino", "Distancia (km)",
		"Tipo de unidad", "Peso/Vol (Ton)", "Volumen (m3)", "Costo Total MXN",
	}
	columnsAfter = []string{"Observaciones", "Fecha de servicio"}
)

// Columns returns the header row. The breakdown column sits between the total
// and the observations.
func Columns(includeBreakdown bool) []string {
	cols := append([]string(nil), columnsBefore...)
	if includeBreakdown {
		cols = append(cols, "Detalle")
	}
	return append(cols, columnsAfter...)
}

// DailyWorkbookName is the file a day's quotes are appended to.
func DailyWorkbookName(t time.Time) string {
	return "cotizaciones_" + t.Format("2006-01-02") + ".xlsx"
}

// WriteXLSX writes one row per record.
func WriteXLSX(w io.Writer, recs []quote.Record, includeBreakdown bool) error {
	f, err := newWorkbook(includeBreakdown)
	if err != nil {
		return err
	}
	defer f.Close()

	for i := range recs {
		if err := writeRow(f, SheetName, i+2, &recs[i], includeBreakdown); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// AppendXLSXFile appends rec to the workbook at path, creating it with a
// header row if it does not exist. The breakdown column is always included.
func AppendXLSXFile(path string, rec *quote.Record) error {
	f, err := excelize.OpenFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f, err = newWorkbook(true)
		if err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := writeRow(f, sheet, len(rows)+1, rec, true); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func newWorkbook(includeBreakdown bool) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		f.Close()
		return nil, err
	}
	cols := Columns(includeBreakdown)
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		f.Close()
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(cols))
	if err := f.SetColWidth(SheetName, "A", lastCol, 18); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, rec *quote.Record, includeBreakdown bool) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := rowValues(rec, includeBreakdown)
	return f.SetSheetRow(sheet, cell, &values)
}

// rowValues leaves weight and volume blank when they do not apply, the way
// the columns read in the historical workbooks.
func rowValues(rec *quote.Record, includeBreakdown bool) []interface{} {
	q := rec.Quote
	var weight, volume interface{} = "", ""
	if q.WeightTons > 0 {
		weight = q.WeightTons
	}
	if q.VolumeM3 > 0 {
		volume = math.Round(q.VolumeM3*1e4) / 1e4
	}
	values := []interface{}{
		rec.CreatedAt.Local().Format(quoteDateLayout),
		rec.Client,
		string(q.Service),
		rec.Origin.Label(),
		rec.Destination.Label(),
		q.DistanceKm,
		q.Unit,
		weight,
		volume,
		q.CostTotal,
	}
	if includeBreakdown {
		values = append(values, q.Breakdown)
	}
	return append(values, rec.Observations, rec.ServiceDate)
}
