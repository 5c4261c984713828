package domain

// UnknownEntity is the sentinel substituted when a source row has a blank or
// whitespace-only Entity. Records carrying it are never retained past the
// loader.
const UnknownEntity = "Unknown"

// DatasetConfig is the static descriptor of one indicator dataset. Configs
// are defined once at startup and never mutated.
type DatasetConfig struct {
	Key            string            `json:"key"`
	Label          string            `json:"label"`
	CSVPath        string            `json:"csv_path"`
	MetadataPath   string            `json:"metadata_path"`
	Columns        map[string]string `json:"columns"` // original CSV header → semantic field name
	MinYear        int               `json:"min_year"`
	MaxYear        int               `json:"max_year"`
	Indicator      string            `json:"indicator"` // semantic name of the main plotted field
	IndicatorLabel string            `json:"indicator_label"`
	Description    string            `json:"description"` // placeholder until metadata is fetched
}

// Record is one normalized observation: an entity, a year, and one numeric
// value per entry in the dataset's column-rename map.
type Record struct {
	Entity string             `json:"entity"`
	Year   int                `json:"year"`
	Values map[string]float64 `json:"values"`
}

// Value returns the named semantic field, 0 when absent.
func (r Record) Value(field string) float64 {
	return r.Values[field]
}

// Metadata is the citation and description text attached to a dataset,
// fetched once per load. When the metadata resource is unavailable the
// fallback fields are substituted and Fallback records why.
type Metadata struct {
	Description    string `json:"description"`
	Citation       string `json:"citation"`
	Fallback       bool   `json:"fallback"`
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// MetadataDocument is the raw shape of a metadata resource: an OWID-style
// JSON object with an optional nested chart block supplying subtitle and
// citation. Either field may be absent.
type MetadataDocument struct {
	Subtitle string
	Citation string
}

// YearMean is one row of the per-year progress table.
type YearMean struct {
	Year int     `json:"year"`
	Mean float64 `json:"mean"`
}

// FilterResult is the output of the range filter: the in-range records plus
// the derived aggregate tables.
type FilterResult struct {
	MinYear  int                `json:"min_year"`
	MaxYear  int                `json:"max_year"`
	Records  []Record           `json:"records"`
	Averages map[string]float64 `json:"averages"` // entity → mean of the main indicator
	Progress []YearMean         `json:"progress"` // ascending years
}
