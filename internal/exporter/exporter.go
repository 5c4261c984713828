// Package exporter renders filtered indicator records for download, as CSV
// or as an Excel workbook.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vidanagua/marine-indicators-service/internal/domain"
)

// Filename builds the download name for an export, stamped with the day of
// the export.
func Filename(datasetKey, ext string, at time.Time) string {
	return fmt.Sprintf("ods14_%s_%s.%s", datasetKey, at.Format("20060102"), ext)
}

// columns returns the value column names in a stable order.
func columns(cfg domain.DatasetConfig) []string {
	cols := make([]string, 0, len(cfg.Columns))
	for _, name := range cfg.Columns {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

// WriteCSV streams records as CSV with an Entity,Year header followed by the
// dataset's value columns.
func WriteCSV(w io.Writer, records []domain.Record, cfg domain.DatasetConfig) error {
	cols := columns(cfg)
	cw := csv.NewWriter(w)

	header := append([]string{"Entity", "Year"}, cols...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(header))
	for _, r := range records {
		row[0] = r.Entity
		row[1] = strconv.Itoa(r.Year)
		for i, col := range cols {
			row[2+i] = strconv.FormatFloat(r.Value(col), 'f', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX renders records as a single-sheet Excel workbook with the same
// column layout as WriteCSV.
func WriteXLSX(w io.Writer, records []domain.Record, cfg domain.DatasetConfig) error {
	cols := columns(cfg)
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := append([]string{"Entity", "Year"}, cols...)
	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for rowIdx, r := range records {
		values := make([]any, 0, len(header))
		values = append(values, r.Entity, r.Year)
		for _, col := range cols {
			values = append(values, r.Value(col))
		}
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
