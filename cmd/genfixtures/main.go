// Command genfixtures writes synthetic CSV and metadata fixtures for every
// catalog dataset, shaped like the OWID grapher exports the service fetches
// in production. Point DATA_BASE_URL at a static file server over the output
// directory to run the service against the fixtures.
//
// Usage:
//
//	go run ./cmd/genfixtures -out data/fixtures
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/vidanagua/marine-indicators-service/internal/catalog"
	"github.com/vidanagua/marine-indicators-service/internal/domain"
)

// Entities mirror the mix of countries and aggregates in the real exports.
var entities = []struct {
	name string
	code string
}{
	{"Brazil", "BRA"},
	{"Chile", "CHL"},
	{"Portugal", "PRT"},
	{"Mozambique", "MOZ"},
	{"Indonesia", "IDN"},
	{"World", "OWID_WRL"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for fixture files")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	// Fixed seed for reproducible fixtures.
	rng := rand.New(rand.NewSource(14))

	for _, cfg := range catalog.Configs() {
		rows, err := writeCSV(*out, cfg, rng)
		if err != nil {
			return fmt.Errorf("%s: %w", cfg.Key, err)
		}
		if err := writeMetadata(*out, cfg); err != nil {
			return fmt.Errorf("%s: %w", cfg.Key, err)
		}
		log.Printf("%s: %d rows", cfg.Key, rows)
	}
	return nil
}

// writeCSV emits one grapher-style CSV: Entity, Code, Year, then the
// dataset's original value columns.
func writeCSV(dir string, cfg domain.DatasetConfig, rng *rand.Rand) (int, error) {
	cols := originalColumns(cfg)

	f, err := os.Create(filepath.Join(dir, cfg.CSVPath))
	if err != nil {
		return 0, fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"Entity", "Code", "Year"}, cols...)); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	// One observation every other year keeps the fixtures small while still
	// exercising the year range filter.
	firstYear := cfg.MinYear
	lastYear := cfg.MinYear + 20
	if lastYear > cfg.MaxYear {
		lastYear = cfg.MaxYear
	}

	rows := 0
	for ei, e := range entities {
		base := 10 + float64(ei)*7
		for year := firstYear; year <= lastYear; year += 2 {
			row := []string{e.name, e.code, strconv.Itoa(year)}
			for ci := range cols {
				trend := float64(year-firstYear) * 0.4
				jitter := rng.Float64() * 3
				v := base + trend + jitter + float64(ci)*5
				row = append(row, strconv.FormatFloat(v, 'f', 2, 64))
			}
			if err := w.Write(row); err != nil {
				return 0, fmt.Errorf("write row: %w", err)
			}
			rows++
		}
	}

	w.Flush()
	return rows, w.Error()
}

func writeMetadata(dir string, cfg domain.DatasetConfig) error {
	doc := map[string]any{
		"chart": map[string]string{
			"subtitle": cfg.Description,
			"citation": "Fonte sintética para desenvolvimento local",
		},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, cfg.MetadataPath), data, 0o644)
}

// originalColumns returns the source CSV header names in a stable order.
func originalColumns(cfg domain.DatasetConfig) []string {
	cols := make([]string, 0, len(cfg.Columns))
	for original := range cfg.Columns {
		cols = append(cols, original)
	}
	sort.Strings(cols)
	return cols
}
