package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/BathSalt-2/Neur1genesis/internal/engine"
	"github.com/BathSalt-2/Neur1genesis/pkg/errors"
	"github.com/BathSalt-2/Neur1genesis/pkg/models"
)

// Version is the API version string reported by /version.
const Version = "0.1.0"

// IngestRequest is the wire shape of an ingest call. The raw records are
// consumed by the engine within the call and never stored.
type IngestRequest struct {
	Records   []models.Record      `json:"records"`
	Schema    models.DatasetSchema `json:"schema"`
	BudgetKey string               `json:"budget_key,omitempty"`
}

// IngestResponse returns the published dataset handle.
type IngestResponse struct {
	DatasetID string `json:"dataset_id"`
}

// BudgetResponse reports the remaining budget for a key.
type BudgetResponse struct {
	BudgetKey        string  `json:"budget_key"`
	RemainingEpsilon float64 `json:"remaining_epsilon"`
	RemainingDelta   float64 `json:"remaining_delta"`
}

// Handlers holds the HTTP handlers for the engine API.
type Handlers struct {
	engine *engine.Engine
	logger *logrus.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(eng *engine.Engine, logger *logrus.Logger) *Handlers {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handlers{engine: eng, logger: logger}
}

// Ingest handles POST /api/v1/ingest.
func (h *Handlers) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.NewSchemaError(errors.CodeInvalidSchema, "malformed request body"))
		return
	}

	datasetID, err := h.engine.Ingest(r.Context(), req.Records, req.Schema, req.BudgetKey)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, IngestResponse{DatasetID: datasetID})
}

// Synthesize handles POST /api/v1/synthesize.
func (h *Handlers) Synthesize(w http.ResponseWriter, r *http.Request) {
	var req models.SynthesisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.NewSchemaError(errors.CodeInvalidSchema, "malformed request body"))
		return
	}

	resp, err := h.engine.Synthesize(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// RemainingBudget handles GET /api/v1/budget/{key}.
func (h *Handlers) RemainingBudget(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	epsilon, delta := h.engine.RemainingBudget(key)

	h.writeJSON(w, http.StatusOK, BudgetResponse{
		BudgetKey:        key,
		RemainingEpsilon: epsilon,
		RemainingDelta:   delta,
	})
}

// DescribeDataset handles GET /api/v1/datasets/{id}. Metadata only.
func (h *Handlers) DescribeDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.engine.DescribeDataset(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, info)
}

// Status handles GET /api/v1/status.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Status())
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Version handles GET /version.
func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"version": Version})
}

// NotFound is the catch-all handler.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.WithError(err).Error("failed to encode response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.NewInternalError(err.Error())
	}

	h.logger.WithFields(logrus.Fields{
		"type": appErr.Type,
		"code": appErr.Code,
	}).Warn(appErr.Message)

	h.writeJSON(w, appErr.HTTPStatus, map[string]interface{}{"error": appErr})
}
