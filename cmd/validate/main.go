// Command validate checks a local CSV file against a catalog dataset's
// schema and normalization rules: required columns, retention after
// normalization, and value ranges. Useful before pointing the service at a
// new data snapshot.
//
// Usage:
//
//	go run ./cmd/validate -dataset marine-protected-areas -csv data/fixtures/marine-protected-areas.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"

	"github.com/vidanagua/marine-indicators-service/internal/catalog"
	"github.com/vidanagua/marine-indicators-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	datasetKey := flag.String("dataset", "", "catalog dataset key to validate against")
	csvPath := flag.String("csv", "", "path to the CSV file to validate")
	flag.Parse()

	if *datasetKey == "" || *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, ok := catalog.Lookup(*datasetKey)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: unknown dataset %q\n", *datasetKey)
		os.Exit(1)
	}

	if code := run(cfg, *csvPath); code != 0 {
		os.Exit(code)
	}
}

func run(cfg domain.DatasetConfig, csvPath string) int {
	header, raws, err := loadCSV(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load csv: %v\n", err)
		return 1
	}

	fmt.Printf("=== Validating %s against %s ===\n\n", csvPath, cfg.Key)
	fmt.Printf("  rows: %d\n\n", len(raws))

	phases := []*phase{
		validateSchema(header, cfg),
		validateNormalization(raws, cfg),
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-32s %s\n", p.name, status)
		for _, e := range p.errors {
			fmt.Printf("    - %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

// validateSchema checks that the CSV carries the Entity and Year columns
// plus every value column the catalog expects.
func validateSchema(header []string, cfg domain.DatasetConfig) *phase {
	p := &phase{name: "schema"}

	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	for _, required := range []string{"Entity", "Year"} {
		if !present[required] {
			p.errorf("missing column %q", required)
		}
	}
	for original := range cfg.Columns {
		if !present[original] {
			p.errorf("missing value column %q", original)
		}
	}
	return p
}

// validateNormalization runs the rows through the service's normalizer and
// reports retention and value spread.
func validateNormalization(raws []map[string]string, cfg domain.DatasetConfig) *phase {
	p := &phase{name: "normalization"}

	kept, droppedEntity, droppedYear := domain.NormalizeRows(raws, cfg)
	fmt.Printf("  kept %d, dropped %d (blank entity), %d (year out of %d-%d)\n\n",
		len(kept), droppedEntity, droppedYear, cfg.MinYear, cfg.MaxYear)

	if len(kept) == 0 {
		p.errorf("no rows retained after normalization")
		return p
	}

	total := len(raws)
	if dropped := total - len(kept); dropped > total/2 {
		p.errorf("more than half the rows dropped (%d of %d)", dropped, total)
	}

	zeros := 0
	for _, r := range kept {
		if r.Value(cfg.Indicator) == 0 {
			zeros++
		}
	}
	if zeros > len(kept)/2 {
		p.errorf("more than half the retained rows have a zero %s value (%d of %d), check the column mapping",
			cfg.Indicator, zeros, len(kept))
	}
	return p
}

func loadCSV(path string) ([]string, []map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("empty csv")
	}

	header := rows[0]
	raws := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		raw := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(row) {
				raw[h] = row[i]
			}
		}
		raws = append(raws, raw)
	}
	return header, raws, nil
}
