package domain

import (
	"math"
	"sort"
)

// Summary holds the exploratory statistics of a record set: distinct entity
// count, observed year span, and mean plus sample standard deviation of the
// main indicator.
type Summary struct {
	RecordCount int     `json:"record_count"`
	EntityCount int     `json:"entity_count"`
	FirstYear   int     `json:"first_year"`
	LastYear    int     `json:"last_year"`
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
}

// EntityMean pairs an entity with its mean indicator value.
type EntityMean struct {
	Entity string  `json:"entity"`
	Mean   float64 `json:"mean"`
}

// EntityProgress describes how one entity's indicator changed between its
// first and last observed year.
type EntityProgress struct {
	Entity        string  `json:"entity"`
	FirstYear     int     `json:"first_year"`
	LastYear      int     `json:"last_year"`
	FirstValue    float64 `json:"first_value"`
	LastValue     float64 `json:"last_value"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// RankingEntry is one row of a per-year entity ranking.
type RankingEntry struct {
	Entity string  `json:"entity"`
	Value  float64 `json:"value"`
}

// CorrelationResult is the Pearson correlation of two indicators over the
// (entity, year) pairs present in both datasets.
type CorrelationResult struct {
	Pairs       int     `json:"pairs"`
	Coefficient float64 `json:"coefficient"`
	Strength    string  `json:"strength"`
}

// Correlation strength labels, thresholds on |r|.
const (
	CorrelationStrong   = "forte"
	CorrelationModerate = "moderada"
	CorrelationWeak     = "fraca"
)

// Summarize computes the exploratory statistics over a record set. Standard
// deviation is the sample deviation (n-1 denominator); fewer than two
// records yield 0.
func Summarize(records []Record, cfg DatasetConfig) Summary {
	if len(records) == 0 {
		return Summary{}
	}

	entities := make(map[string]struct{})
	s := Summary{
		RecordCount: len(records),
		FirstYear:   records[0].Year,
		LastYear:    records[0].Year,
	}

	var sum float64
	for _, r := range records {
		entities[r.Entity] = struct{}{}
		if r.Year < s.FirstYear {
			s.FirstYear = r.Year
		}
		if r.Year > s.LastYear {
			s.LastYear = r.Year
		}
		sum += r.Value(cfg.Indicator)
	}
	s.EntityCount = len(entities)
	s.Mean = sum / float64(len(records))

	if len(records) > 1 {
		var ss float64
		for _, r := range records {
			d := r.Value(cfg.Indicator) - s.Mean
			ss += d * d
		}
		s.StdDev = math.Sqrt(ss / float64(len(records)-1))
	}
	return s
}

// TopEntities returns the n entities with the highest mean indicator,
// descending. Ties break alphabetically for deterministic output.
func TopEntities(records []Record, cfg DatasetConfig, n int) []EntityMean {
	means := sortedEntityMeans(records, cfg.Indicator, func(a, b EntityMean) bool {
		if a.Mean != b.Mean {
			return a.Mean > b.Mean
		}
		return a.Entity < b.Entity
	})
	return truncate(means, n)
}

// BottomEntities returns the n entities with the lowest mean indicator,
// ascending.
func BottomEntities(records []Record, cfg DatasetConfig, n int) []EntityMean {
	means := sortedEntityMeans(records, cfg.Indicator, func(a, b EntityMean) bool {
		if a.Mean != b.Mean {
			return a.Mean < b.Mean
		}
		return a.Entity < b.Entity
	})
	return truncate(means, n)
}

// ProgressByEntity computes first-to-last variation for each requested
// entity. A nil or empty entities slice means all entities. Entities with
// fewer than two observations are skipped; output is sorted by entity name.
func ProgressByEntity(records []Record, cfg DatasetConfig, entities []string) []EntityProgress {
	wanted := make(map[string]bool, len(entities))
	for _, e := range entities {
		wanted[e] = true
	}

	byEntity := make(map[string][]Record)
	for _, r := range records {
		if len(wanted) > 0 && !wanted[r.Entity] {
			continue
		}
		byEntity[r.Entity] = append(byEntity[r.Entity], r)
	}

	progress := make([]EntityProgress, 0, len(byEntity))
	for entity, recs := range byEntity {
		if len(recs) < 2 {
			continue
		}
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Year < recs[j].Year })

		first, last := recs[0], recs[len(recs)-1]
		p := EntityProgress{
			Entity:     entity,
			FirstYear:  first.Year,
			LastYear:   last.Year,
			FirstValue: first.Value(cfg.Indicator),
			LastValue:  last.Value(cfg.Indicator),
		}
		p.Change = p.LastValue - p.FirstValue
		if p.FirstValue != 0 {
			p.ChangePercent = p.Change / p.FirstValue * 100
		}
		progress = append(progress, p)
	}

	sort.Slice(progress, func(i, j int) bool { return progress[i].Entity < progress[j].Entity })
	return progress
}

// Ranking returns the entities observed in the given year sorted descending
// by indicator value, at most limit entries.
func Ranking(records []Record, cfg DatasetConfig, year, limit int) []RankingEntry {
	entries := make([]RankingEntry, 0)
	for _, r := range records {
		if r.Year == year {
			entries = append(entries, RankingEntry{Entity: r.Entity, Value: r.Value(cfg.Indicator)})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Entity < entries[j].Entity
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Correlate inner-joins two datasets on (entity, year) and computes the
// Pearson correlation of their main indicators. Fewer than two matched
// pairs, or zero variance on either side, yield a zero coefficient.
func Correlate(first []Record, firstCfg DatasetConfig, second []Record, secondCfg DatasetConfig) CorrelationResult {
	type obsKey struct {
		entity string
		year   int
	}

	secondByKey := make(map[obsKey]float64, len(second))
	for _, r := range second {
		secondByKey[obsKey{r.Entity, r.Year}] = r.Value(secondCfg.Indicator)
	}

	var xs, ys []float64
	for _, r := range first {
		if y, ok := secondByKey[obsKey{r.Entity, r.Year}]; ok {
			xs = append(xs, r.Value(firstCfg.Indicator))
			ys = append(ys, y)
		}
	}

	result := CorrelationResult{Pairs: len(xs), Strength: CorrelationWeak}
	if len(xs) < 2 {
		return result
	}

	result.Coefficient = pearson(xs, ys)
	switch abs := math.Abs(result.Coefficient); {
	case abs > 0.7:
		result.Strength = CorrelationStrong
	case abs > 0.3:
		result.Strength = CorrelationModerate
	}
	return result
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

func sortedEntityMeans(records []Record, indicator string, less func(a, b EntityMean) bool) []EntityMean {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range records {
		sums[r.Entity] += r.Value(indicator)
		counts[r.Entity]++
	}

	means := make([]EntityMean, 0, len(sums))
	for entity, sum := range sums {
		means = append(means, EntityMean{Entity: entity, Mean: sum / float64(counts[entity])})
	}
	sort.Slice(means, func(i, j int) bool { return less(means[i], means[j]) })
	return means
}

func truncate(means []EntityMean, n int) []EntityMean {
	if n > 0 && len(means) > n {
		return means[:n]
	}
	return means
}
