// README: Command-line quoting; prices requests against the CSV catalog and writes the PDF and daily workbook.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cotizador/internal/export"
	"cotizador/internal/modules/geo"
	"cotizador/internal/modules/location"
	"cotizador/internal/modules/pricing"
	"cotizador/internal/modules/quote"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

type options struct {
	catalog string
	rates   string
	policy  string
	outDir  string
	batch   bool
	asJSON  bool
	req     quote.Request
}

func parseFlags(args []string) (options, error) {
	var o options
	var service string
	fs := flag.NewFlagSet("quote", flag.ContinueOnError)
	fs.StringVar(&o.catalog, "catalog", envOrDefault("QUOTE_CATALOG_CSV", "municipios_mexico.csv"), "municipalities CSV")
	fs.StringVar(&o.rates, "rates", os.Getenv("QUOTE_RATES_FILE"), "YAML rate table override")
	fs.StringVar(&o.policy, "policy", envOrDefault("QUOTE_MOVING_POLICY", string(pricing.MovingWeightClass)), "moving policy: weight_class or flat_rate")
	fs.StringVar(&o.outDir, "out", ".", "directory for the PDF and the daily workbook (empty disables files)")
	fs.BoolVar(&o.batch, "batch", false, "read one JSON request per line from stdin")
	fs.BoolVar(&o.asJSON, "json", false, "print records as JSON")

	fs.StringVar(&o.req.Client, "client", "", "client name")
	fs.StringVar(&service, "service", "FTL", "FTL, LTL or MOVING")
	fs.StringVar(&o.req.Origin, "from", "", `origin, "City (State)"`)
	fs.StringVar(&o.req.Destination, "to", "", `destination, "City (State)"`)
	fs.Float64Var(&o.req.WeightTons, "weight", 0, "cargo weight in tons (FTL, MOVING)")
	fs.Float64Var(&o.req.LengthCm, "length", 0, "length in cm (LTL)")
	fs.Float64Var(&o.req.WidthCm, "width", 0, "width in cm (LTL)")
	fs.Float64Var(&o.req.HeightCm, "height", 0, "height in cm (LTL)")
	fs.Float64Var(&o.req.ManeuverCost, "maneuvers", 0, "maneuver surcharge (MOVING)")
	fs.StringVar(&o.req.ServiceDate, "date", "", "service date, YYYY-MM-DD")
	fs.StringVar(&o.req.Observations, "notes", "", "observations")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	o.req.Service = pricing.ServiceType(service)
	return o, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	svc, err := newQuoteService(o)
	if err != nil {
		return err
	}

	reqs := []quote.Request{o.req}
	if o.batch {
		if reqs, err = readBatch(stdin); err != nil {
			return err
		}
	}

	var history quote.History
	for i, req := range reqs {
		rec, err := svc.Create(ctx, req)
		if err != nil {
			if !o.batch {
				return err
			}
			fmt.Fprintf(stdout, "request %d: %v\n", i+1, err)
			continue
		}
		history.Append(*rec)
		if err := printRecord(stdout, rec, o.asJSON); err != nil {
			return err
		}
		if err := writeFiles(o.outDir, rec); err != nil {
			return err
		}
	}

	if o.batch {
		fmt.Fprintf(stdout, "%d quotes, total %.2f MXN\n", history.Len(), history.Total())
	}
	return nil
}

func newQuoteService(o options) (*quote.Service, error) {
	policy, err := pricing.ParseMovingPolicy(o.policy)
	if err != nil {
		return nil, err
	}
	tables := pricing.DefaultTables()
	if o.rates != "" {
		f, err := os.Open(o.rates)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if tables, err = pricing.LoadTables(f); err != nil {
			return nil, err
		}
	}
	engine, err := pricing.NewEngine(tables, pricing.WithMovingPolicy(policy))
	if err != nil {
		return nil, err
	}

	f, err := os.Open(o.catalog)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()
	catalog, err := location.LoadCatalog(f, geo.Mexico)
	if err != nil {
		return nil, err
	}
	resolver := location.NewService(catalog, nil, nil, geo.Mexico)
	return quote.NewService(engine, resolver, nil), nil
}

// readBatch skips blank lines and lines starting with '#'.
func readBatch(r io.Reader) ([]quote.Request, error) {
	var out []quote.Request
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var req quote.Request
		if err := json.Unmarshal([]byte(text), &req); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, req)
	}
	return out, sc.Err()
}

func printRecord(w io.Writer, rec *quote.Record, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	q := rec.Quote
	fmt.Fprintf(w, "Cotización %s\n", rec.ID)
	fmt.Fprintf(w, "  Servicio:   %s\n", q.Service)
	fmt.Fprintf(w, "  Ruta:       %s -> %s\n", rec.Origin.Label(), rec.Destination.Label())
	fmt.Fprintf(w, "  Distancia:  %.2f km\n", q.DistanceKm)
	fmt.Fprintf(w, "  Unidad:     %s\n", q.Unit)
	fmt.Fprintf(w, "  Total:      %.2f %s\n", q.CostTotal, q.Currency)
	fmt.Fprintf(w, "  Detalle:    %s\n", q.Breakdown)
	return nil
}

func writeFiles(dir string, rec *quote.Record) error {
	if dir == "" {
		return nil
	}
	pdfPath := filepath.Join(dir, export.PDFFileName(rec))
	f, err := os.Create(pdfPath)
	if err != nil {
		return err
	}
	if err := export.WritePDF(f, rec); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return export.AppendXLSXFile(filepath.Join(dir, export.DailyWorkbookName(time.Now())), rec)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
