package api

import (
	"log/slog"
	"mime"
	"net/http"

	"github.com/MikeSquared-Agency/Canopy/internal/cache"
	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
	"github.com/MikeSquared-Agency/Canopy/internal/hermes"
	"github.com/MikeSquared-Agency/Canopy/internal/store"
)

type DatasetsHandler struct {
	store  store.Store
	hermes hermes.Client
	cache  cache.Cache
	logger *slog.Logger
}

func NewDatasetsHandler(s store.Store, h hermes.Client, c cache.Cache, logger *slog.Logger) *DatasetsHandler {
	if c == nil {
		c = cache.NopCache{}
	}
	return &DatasetsHandler{store: s, hermes: h, cache: c, logger: logger}
}

type CreateDatasetRequest struct {
	Name    string           `json:"name"`
	Records []dataset.Record `json:"records"`
}

// Create stores a dataset sent either as JSON or as a text/csv body with
// the name in the query string.
func (h *DatasetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDatasetRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/csv" {
		records, err := dataset.ReadCSV(r.Body)
		if err != nil {
			if isTooLarge(err) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Name = r.URL.Query().Get("name")
		req.Records = records
	} else if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}

	ds := &store.Dataset{Name: req.Name}
	if err := h.store.CreateDataset(r.Context(), ds, req.Records); err != nil {
		writeErr(w, err)
		return
	}
	h.logger.Info("dataset created", "dataset_id", ds.ID, "records", ds.RecordCount)
	publish(r.Context(), h.hermes, h.logger, hermes.SubjectDatasetCreated(ds.ID.String()), hermes.NewDatasetCreatedEvent(ds))

	writeJSON(w, http.StatusCreated, ds)
}

func (h *DatasetsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListDatasets(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	if list == nil {
		list = []*store.Dataset{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *DatasetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "dataset")
	if !ok {
		return
	}
	ds, err := h.store.GetDataset(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if ds == nil {
		writeError(w, http.StatusNotFound, "dataset not found")
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (h *DatasetsHandler) Facets(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "dataset")
	if !ok {
		return
	}
	records, err := h.store.GetDatasetRecords(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if records == nil {
		writeError(w, http.StatusNotFound, "dataset not found")
		return
	}
	writeJSON(w, http.StatusOK, dataset.ComputeFacets(records))
}

// Delete removes a dataset and drops its cached analyses. Stored runs stay.
func (h *DatasetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "dataset")
	if !ok {
		return
	}
	ds, err := h.store.GetDataset(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if ds == nil {
		writeError(w, http.StatusNotFound, "dataset not found")
		return
	}
	if err := h.store.DeleteDataset(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	if err := h.cache.InvalidateDataset(r.Context(), id); err != nil {
		h.logger.Warn("cache invalidation failed", "dataset_id", id, "error", err)
	}
	h.logger.Info("dataset deleted", "dataset_id", id)
	publish(r.Context(), h.hermes, h.logger, hermes.SubjectDatasetDeleted(id.String()), hermes.DatasetDeletedEvent{DatasetID: id.String()})

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
