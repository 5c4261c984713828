package domain

import "sort"

// FilterRange reduces a dataset's records to the inclusive [minYear, maxYear]
// subset and derives the aggregate tables: per-entity averages and per-year
// progress of the main indicator. Inverted bounds are swapped, never treated
// as an empty range. Order of the filtered records is preserved relative to
// the input. Pure and idempotent; the input slice is never mutated.
func FilterRange(data []Record, minYear, maxYear int, cfg DatasetConfig) FilterResult {
	if minYear > maxYear {
		minYear, maxYear = maxYear, minYear
	}

	filtered := make([]Record, 0, len(data))
	for _, r := range data {
		if r.Year >= minYear && r.Year <= maxYear {
			filtered = append(filtered, r)
		}
	}

	return FilterResult{
		MinYear:  minYear,
		MaxYear:  maxYear,
		Records:  filtered,
		Averages: entityAverages(filtered, cfg.Indicator),
		Progress: yearProgress(filtered, cfg.Indicator),
	}
}

// entityAverages computes the arithmetic mean of the main indicator per
// distinct entity.
func entityAverages(records []Record, indicator string) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range records {
		sums[r.Entity] += r.Value(indicator)
		counts[r.Entity]++
	}

	averages := make(map[string]float64, len(sums))
	for entity, sum := range sums {
		averages[entity] = sum / float64(counts[entity])
	}
	return averages
}

// yearProgress computes the arithmetic mean of the main indicator per
// distinct year, ascending.
func yearProgress(records []Record, indicator string) []YearMean {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, r := range records {
		sums[r.Year] += r.Value(indicator)
		counts[r.Year]++
	}

	years := make([]int, 0, len(sums))
	for y := range sums {
		years = append(years, y)
	}
	sort.Ints(years)

	progress := make([]YearMean, 0, len(years))
	for _, y := range years {
		progress = append(progress, YearMean{Year: y, Mean: sums[y] / float64(counts[y])})
	}
	return progress
}
