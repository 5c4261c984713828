package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/vidanagua/marine-indicators-service/internal/dataset"
	"github.com/vidanagua/marine-indicators-service/internal/domain"
	"github.com/vidanagua/marine-indicators-service/internal/exporter"
	"github.com/vidanagua/marine-indicators-service/internal/observability"
)

const (
	defaultRankingLimit = 15
	topBottomCount      = 5
)

// Handler serves the dashboard API: dataset listings, load triggers, year
// range filtering, statistics, and exports.
type Handler struct {
	store   *dataset.Store
	loader  *dataset.Loader
	metrics *observability.Metrics
}

// NewHandler creates the dashboard API handler.
func NewHandler(store *dataset.Store, loader *dataset.Loader, metrics *observability.Metrics) *Handler {
	return &Handler{store: store, loader: loader, metrics: metrics}
}

// Routes returns the API router, meant to be mounted under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/datasets", h.listDatasets)
	r.Get("/correlation", h.correlate)

	r.Route("/datasets/{key}", func(r chi.Router) {
		r.Use(h.datasetCtx)
		r.Get("/", h.getDataset)
		r.Post("/load", h.triggerLoad)
		r.Get("/records", h.getRecords)
		r.Get("/summary", h.getSummary)
		r.Get("/ranking", h.getRanking)
		r.Get("/progress", h.getProgress)
		r.Get("/export", h.export)
	})

	return r
}

type ctxKey int

const datasetKey ctxKey = 0

// datasetCtx resolves the {key} URL parameter to a dataset, answering 404
// for keys outside the catalog.
func (h *Handler) datasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		ds, ok := h.store.Get(key)
		if !ok {
			renderError(w, r, http.StatusNotFound, fmt.Sprintf("unknown dataset %q", key))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), datasetKey, ds)))
	})
}

func datasetFromCtx(r *http.Request) *dataset.Dataset {
	return r.Context().Value(datasetKey).(*dataset.Dataset)
}

func (h *Handler) listDatasets(w http.ResponseWriter, r *http.Request) {
	all := h.store.All()
	snaps := make([]dataset.Snapshot, 0, len(all))
	for _, ds := range all {
		snaps = append(snaps, ds.Snapshot())
	}
	render.JSON(w, r, map[string]any{"datasets": snaps})
}

func (h *Handler) getDataset(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, datasetFromCtx(r).Snapshot())
}

// triggerLoad kicks off a background load and answers 202. A load already
// in flight answers 409; a second trigger never cancels or queues.
func (h *Handler) triggerLoad(w http.ResponseWriter, r *http.Request) {
	ds := datasetFromCtx(r)
	if state, _ := ds.State(); state == dataset.StateLoading {
		renderError(w, r, http.StatusConflict, dataset.ErrLoadInProgress.Error())
		return
	}

	h.loader.LoadAsync(ds.Config().Key)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]string{"status": "loading", "dataset": ds.Config().Key})
}

func (h *Handler) getRecords(w http.ResponseWriter, r *http.Request) {
	ds := datasetFromCtx(r)
	cfg := ds.Config()

	minYear, maxYear, err := yearRange(r, cfg)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := ds.ApplyFilter(minYear, maxYear)
	if err != nil {
		renderNotLoaded(w, r, err)
		return
	}

	h.metrics.FilterRequests.WithLabelValues(cfg.Key).Inc()
	render.JSON(w, r, result)
}

func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	ds := datasetFromCtx(r)
	cfg := ds.Config()

	minYear, maxYear, err := yearRange(r, cfg)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	data, err := ds.Data()
	if err != nil {
		renderNotLoaded(w, r, err)
		return
	}
	records := domain.FilterRange(data, minYear, maxYear, cfg).Records

	render.JSON(w, r, map[string]any{
		"summary": domain.Summarize(records, cfg),
		"top":     domain.TopEntities(records, cfg, topBottomCount),
		"bottom":  domain.BottomEntities(records, cfg, topBottomCount),
	})
}

func (h *Handler) getRanking(w http.ResponseWriter, r *http.Request) {
	ds := datasetFromCtx(r)
	data, err := ds.Data()
	if err != nil {
		renderNotLoaded(w, r, err)
		return
	}
	cfg := ds.Config()

	year, err := intParam(r, "year", 0)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if year == 0 {
		year = domain.Summarize(data, cfg).LastYear
	}

	limit, err := intParam(r, "limit", defaultRankingLimit)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	render.JSON(w, r, map[string]any{
		"year":    year,
		"ranking": domain.Ranking(data, cfg, year, limit),
	})
}

func (h *Handler) getProgress(w http.ResponseWriter, r *http.Request) {
	ds := datasetFromCtx(r)
	data, err := ds.Data()
	if err != nil {
		renderNotLoaded(w, r, err)
		return
	}

	var entities []string
	if raw := r.URL.Query().Get("entities"); raw != "" {
		for _, e := range strings.Split(raw, ",") {
			if e = strings.TrimSpace(e); e != "" {
				entities = append(entities, e)
			}
		}
	}

	render.JSON(w, r, map[string]any{
		"progress": domain.ProgressByEntity(data, ds.Config(), entities),
	})
}

// export streams the current year range selection as a CSV or Excel
// download.
func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	ds := datasetFromCtx(r)
	cfg := ds.Config()

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	minYear, maxYear, err := yearRange(r, cfg)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := ds.ApplyFilter(minYear, maxYear)
	if err != nil {
		renderNotLoaded(w, r, err)
		return
	}

	h.metrics.ExportRequests.WithLabelValues(cfg.Key, format).Inc()

	filename := exporter.Filename(cfg.Key, format, dataset.Now())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		err = exporter.WriteCSV(w, result.Records, cfg)
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = exporter.WriteXLSX(w, result.Records, cfg)
	}
	if err != nil {
		// Headers are already on the wire, nothing to render.
		return
	}
}

// correlate joins two loaded datasets on (entity, year) and answers their
// Pearson correlation.
func (h *Handler) correlate(w http.ResponseWriter, r *http.Request) {
	firstKey := r.URL.Query().Get("first")
	secondKey := r.URL.Query().Get("second")
	if firstKey == "" || secondKey == "" {
		renderError(w, r, http.StatusBadRequest, "query parameters first and second are required")
		return
	}

	first, ok := h.store.Get(firstKey)
	if !ok {
		renderError(w, r, http.StatusNotFound, fmt.Sprintf("unknown dataset %q", firstKey))
		return
	}
	second, ok := h.store.Get(secondKey)
	if !ok {
		renderError(w, r, http.StatusNotFound, fmt.Sprintf("unknown dataset %q", secondKey))
		return
	}

	firstData, err := first.Data()
	if err != nil {
		renderNotLoaded(w, r, err)
		return
	}
	secondData, err := second.Data()
	if err != nil {
		renderNotLoaded(w, r, err)
		return
	}

	result := domain.Correlate(firstData, first.Config(), secondData, second.Config())
	render.JSON(w, r, map[string]any{
		"first":       firstKey,
		"second":      secondKey,
		"correlation": result,
	})
}

// yearRange reads the min_year/max_year query parameters, defaulting absent
// ones to the dataset's configured bounds.
func yearRange(r *http.Request, cfg domain.DatasetConfig) (int, int, error) {
	minYear, err := intParam(r, "min_year", cfg.MinYear)
	if err != nil {
		return 0, 0, err
	}
	maxYear, err := intParam(r, "max_year", cfg.MaxYear)
	if err != nil {
		return 0, 0, err
	}
	return minYear, maxYear, nil
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func renderNotLoaded(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, dataset.ErrNotLoaded) {
		renderError(w, r, http.StatusConflict, err.Error())
		return
	}
	renderError(w, r, http.StatusInternalServerError, err.Error())
}

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}
