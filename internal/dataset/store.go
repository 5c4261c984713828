// Package dataset owns the mutable per-dataset state (loaded records,
// current filter result, load status) and the loader that populates it.
package dataset

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vidanagua/marine-indicators-service/internal/domain"
)

// State is the loading-indicator state of one dataset, observable by the
// front end.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

var (
	// ErrLoadInProgress is returned when a load is triggered for a dataset
	// that is already loading. At most one load per dataset is in flight.
	ErrLoadInProgress = errors.New("dataset load already in progress")

	// ErrNotLoaded is returned by data-dependent operations before a
	// successful load.
	ErrNotLoaded = errors.New("dataset not loaded")
)

// Snapshot is a read-only view of a dataset's state for API listings.
type Snapshot struct {
	Key         string          `json:"key"`
	Label       string          `json:"label"`
	State       State           `json:"state"`
	Error       string          `json:"error,omitempty"`
	RecordCount int             `json:"record_count"`
	LoadedAt    *time.Time      `json:"loaded_at,omitempty"`
	Metadata    domain.Metadata `json:"metadata"`
}

// Dataset owns one dataset's config and mutable state. All mutable fields
// are guarded by mu; the config is immutable.
type Dataset struct {
	config domain.DatasetConfig

	mu       sync.RWMutex
	state    State
	loadErr  string
	metadata domain.Metadata
	data     []domain.Record
	filtered domain.FilterResult
	loadedAt time.Time
}

func newDataset(cfg domain.DatasetConfig) *Dataset {
	return &Dataset{
		config: cfg,
		state:  StateIdle,
		// Placeholder text until the first metadata fetch.
		metadata: domain.Metadata{Description: cfg.Description},
	}
}

// Config returns the immutable dataset descriptor.
func (d *Dataset) Config() domain.DatasetConfig {
	return d.config
}

// State returns the current load state and, for StateFailed, the
// user-visible failure text.
func (d *Dataset) State() (State, string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state, d.loadErr
}

// Metadata returns the current citation/description text.
func (d *Dataset) Metadata() domain.Metadata {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.metadata
}

// Data returns the loaded records. Callers must treat the slice as
// read-only; the domain functions never mutate it.
func (d *Dataset) Data() ([]domain.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.state != StateReady {
		return nil, ErrNotLoaded
	}
	return d.data, nil
}

// ApplyFilter recomputes the dataset's filtered subset for the given year
// range, stores it as the current filter, and returns it.
func (d *Dataset) ApplyFilter(minYear, maxYear int) (domain.FilterResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateReady {
		return domain.FilterResult{}, ErrNotLoaded
	}
	d.filtered = domain.FilterRange(d.data, minYear, maxYear, d.config)
	return d.filtered, nil
}

// Snapshot returns a read-only view for API listings.
func (d *Dataset) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := Snapshot{
		Key:         d.config.Key,
		Label:       d.config.Label,
		State:       d.state,
		Error:       d.loadErr,
		RecordCount: len(d.data),
		Metadata:    d.metadata,
	}
	if !d.loadedAt.IsZero() {
		at := d.loadedAt
		s.LoadedAt = &at
	}
	return s
}

// beginLoad transitions to StateLoading unless a load is already in flight.
func (d *Dataset) beginLoad() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateLoading {
		return false
	}
	d.state = StateLoading
	d.loadErr = ""
	return true
}

// completeLoad replaces the dataset's data wholesale and marks it ready.
func (d *Dataset) completeLoad(meta domain.Metadata, data []domain.Record, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = StateReady
	d.loadErr = ""
	d.metadata = meta
	d.data = data
	d.filtered = domain.FilterResult{}
	d.loadedAt = at
}

// failLoad records the failure text and clears any previously loaded data.
func (d *Dataset) failLoad(reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = StateFailed
	d.loadErr = reason
	d.data = nil
	d.filtered = domain.FilterResult{}
}

// Store holds every dataset keyed by its catalog key. The set of keys is
// fixed at construction; only each dataset's own state mutates afterwards.
type Store struct {
	byKey map[string]*Dataset
	order []string
}

// NewStore creates a store with one empty dataset per config, in catalog
// order.
func NewStore(configs []domain.DatasetConfig) *Store {
	s := &Store{byKey: make(map[string]*Dataset, len(configs))}
	for _, cfg := range configs {
		s.byKey[cfg.Key] = newDataset(cfg)
		s.order = append(s.order, cfg.Key)
	}
	return s
}

// Get returns the dataset for a key.
func (s *Store) Get(key string) (*Dataset, bool) {
	d, ok := s.byKey[key]
	return d, ok
}

// All returns every dataset in catalog order.
func (s *Store) All() []*Dataset {
	out := make([]*Dataset, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byKey[key])
	}
	return out
}

// CheckReadiness returns nil once at least one dataset has loaded
// successfully, or an error describing why the service is not yet ready.
func (s *Store) CheckReadiness(_ context.Context) error {
	for _, d := range s.byKey {
		if state, _ := d.State(); state == StateReady {
			return nil
		}
	}
	return errors.New("no dataset has been loaded yet")
}
