package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BathSalt-2/Neur1genesis/internal/engine"
	"github.com/BathSalt-2/Neur1genesis/pkg/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	eng, err := engine.New(engine.DefaultConfig(), logger)
	require.NoError(t, err)

	config := DefaultConfig()
	config.EnableMetrics = false
	return NewServer(eng, config, logger)
}

func apiSchema() models.DatasetSchema {
	return models.DatasetSchema{Fields: []models.FieldSchema{
		{Name: "region", Type: models.SemanticTypeCategorical, PrivacyTier: models.PrivacyTierMedium,
			Constraints: map[string]interface{}{"categories": []string{"north", "south"}}},
		{Name: "income", Type: models.SemanticTypeNumerical, PrivacyTier: models.PrivacyTierLow,
			Constraints: map[string]interface{}{"min": 0, "max": 100000}},
	}}
}

func apiBatch(n int) []models.Record {
	batch := make([]models.Record, n)
	for i := range batch {
		batch[i] = models.Record{"region": "north", "income": float64(40000 + i)}
	}
	return batch
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func ingestViaAPI(t *testing.T, srv *Server, n int) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/ingest", IngestRequest{
		Records: apiBatch(n),
		Schema:  apiSchema(),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp IngestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.DatasetID)
	return resp.DatasetID
}

func TestIngestEndpoint(t *testing.T) {
	srv := newTestServer(t)
	id := ingestViaAPI(t, srv, 8)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/datasets/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var info models.DatasetInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, id, info.ID)
	assert.Equal(t, 8, info.RecordCount)
}

func TestIngestRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestRejectsWrongContentType(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", strings.NewReader("field=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestSynthesizeEndpoint(t *testing.T) {
	srv := newTestServer(t)
	ingestViaAPI(t, srv, 8)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/synthesize", models.SynthesisRequest{
		Schema:         apiSchema(),
		NumSamples:     25,
		EpsilonRequest: 0.2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SynthesisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.SyntheticRecords, 25)
	assert.Equal(t, models.GenerationModeDataDriven, resp.GenerationMetadata.Mode)
	assert.Equal(t, 0.2, resp.PrivacyGuarantees.EpsilonSpent)
}

func TestSynthesizeReturns429WhenBudgetExhausted(t *testing.T) {
	srv := newTestServer(t)
	ingestViaAPI(t, srv, 8)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/synthesize", models.SynthesisRequest{
		Schema:         apiSchema(),
		NumSamples:     10,
		EpsilonRequest: 5.0,
	})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestBudgetEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/budget/tenant-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp BudgetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tenant-a", resp.BudgetKey)
	assert.InDelta(t, 1.0, resp.RemainingEpsilon, 1e-9)
	assert.InDelta(t, 1e-5, resp.RemainingDelta, 1e-12)
}

func TestDescribeUnknownDatasetReturns404(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/datasets/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)
	ingestViaAPI(t, srv, 8)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status models.EngineStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 1, status.DatasetCount)
	assert.Equal(t, 5, status.KAnonymity)
}

func TestHealthAndVersion(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/version"} {
		rec := doJSON(t, srv, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), path)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDHeaderIsEchoed(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "fixed-id")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, "fixed-id", rec.Header().Get(requestIDHeader))

	rec = doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestSynthesizeValidatesSchema(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/synthesize", models.SynthesisRequest{
		Schema:     models.DatasetSchema{},
		NumSamples: 10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}
