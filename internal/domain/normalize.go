package domain

import (
	"strconv"
	"strings"
)

// NormalizeRow converts one raw CSV record (header → raw cell text) into a
// typed Record using the dataset's column-rename map. Malformed fields
// degrade to defaults rather than rejecting the row; see the package
// documentation for the conventions. Pure function.
func NormalizeRow(raw map[string]string, cfg DatasetConfig) Record {
	entity := strings.TrimSpace(raw["Entity"])
	if entity == "" {
		entity = UnknownEntity
	}

	values := make(map[string]float64, len(cfg.Columns))
	for original, semantic := range cfg.Columns {
		values[semantic] = parseFloatOrZero(raw[original])
	}

	return Record{
		Entity: entity,
		Year:   parseYearOrZero(raw["Year"]),
		Values: values,
	}
}

// Retained reports whether a normalized record survives loading: the entity
// must not be the sentinel and the year must lie inside the dataset bounds.
func Retained(r Record, cfg DatasetConfig) bool {
	return r.Entity != UnknownEntity && r.Year >= cfg.MinYear && r.Year <= cfg.MaxYear
}

// NormalizeRows normalizes every raw record and drops the ones that fail the
// retention rules. It returns the kept records in input order plus the
// dropped counts by reason, for observability.
func NormalizeRows(raws []map[string]string, cfg DatasetConfig) (kept []Record, droppedEntity, droppedYear int) {
	kept = make([]Record, 0, len(raws))
	for _, raw := range raws {
		rec := NormalizeRow(raw, cfg)
		switch {
		case rec.Entity == UnknownEntity:
			droppedEntity++
		case rec.Year < cfg.MinYear || rec.Year > cfg.MaxYear:
			droppedYear++
		default:
			kept = append(kept, rec)
		}
	}
	return kept, droppedEntity, droppedYear
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseYearOrZero parses an integer year, returning 0 on failure.
func parseYearOrZero(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return y
}
