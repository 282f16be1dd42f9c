package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/BathSalt-2/Neur1genesis/internal/generator"
	"github.com/BathSalt-2/Neur1genesis/internal/observability"
	"github.com/BathSalt-2/Neur1genesis/internal/privacy"
	"github.com/BathSalt-2/Neur1genesis/internal/schema"
	"github.com/BathSalt-2/Neur1genesis/internal/storage"
	"github.com/BathSalt-2/Neur1genesis/internal/validation"
	"github.com/BathSalt-2/Neur1genesis/pkg/errors"
	"github.com/BathSalt-2/Neur1genesis/pkg/models"
)

// Config holds the engine's privacy parameters.
type Config struct {
	// GlobalEpsilon/GlobalDelta are the limits every budget key starts
	// with. Created at engine start, mutated only through reservation.
	GlobalEpsilon float64 `json:"global_epsilon"`
	GlobalDelta   float64 `json:"global_delta"`
	// K is the minimum quasi-identifier group size.
	K int `json:"k"`
	// NoiseEpsilon is the epsilon reserved per Laplace application.
	NoiseEpsilon float64 `json:"noise_epsilon"`
	// Seed drives all randomness; a fixed seed reproduces the pipeline.
	Seed int64 `json:"seed"`
}

// DefaultConfig returns the standard privacy configuration.
func DefaultConfig() Config {
	return Config{
		GlobalEpsilon: 1.0,
		GlobalDelta:   1e-5,
		K:             5,
		NoiseEpsilon:  0.1,
		Seed:          1,
	}
}

// Engine is the privacy-preserving synthetic data engine. It owns the
// shared mutable state (accountant and dataset store) explicitly; callers
// hold a reference and invoke the four operations.
type Engine struct {
	id         string
	config     Config
	registry   *schema.Registry
	accountant *privacy.Accountant
	anonymizer *privacy.Anonymizer
	enforcer   *privacy.Enforcer
	store      *storage.DatasetStore
	generator  *generator.Generator
	validator  *validation.QualityValidator
	metrics    *observability.Metrics
	logger     *logrus.Logger

	mu            sync.Mutex
	requestCount  int
	responseCount int
}

// New creates an engine with its full component graph.
func New(config Config, logger *logrus.Logger) (*Engine, error) {
	if logger == nil {
		logger = logrus.New()
	}
	defaults := DefaultConfig()
	if config.GlobalEpsilon == 0 {
		config.GlobalEpsilon = defaults.GlobalEpsilon
	}
	if config.GlobalDelta == 0 {
		config.GlobalDelta = defaults.GlobalDelta
	}
	if config.K == 0 {
		config.K = defaults.K
	}
	if config.NoiseEpsilon == 0 {
		config.NoiseEpsilon = defaults.NoiseEpsilon
	}
	if config.Seed == 0 {
		config.Seed = defaults.Seed
	}

	accountant, err := privacy.NewAccountant(config.GlobalEpsilon, config.GlobalDelta, logger)
	if err != nil {
		return nil, err
	}

	noise := privacy.NewNoiseSource(config.Seed)
	anonCfg := privacy.DefaultAnonymizerConfig()
	anonCfg.NoiseEpsilon = config.NoiseEpsilon

	e := &Engine{
		id:         uuid.NewString(),
		config:     config,
		registry:   schema.NewRegistry(logger),
		accountant: accountant,
		anonymizer: privacy.NewAnonymizer(anonCfg, accountant, noise, logger),
		enforcer:   privacy.NewEnforcer(config.K, logger),
		store:      storage.NewDatasetStore(logger),
		generator:  generator.NewGenerator(noise, logger),
		validator:  validation.NewQualityValidator(logger),
		metrics:    observability.NewMetrics(),
		logger:     logger,
	}

	logger.WithFields(logrus.Fields{
		"engine_id": e.id,
		"k":         config.K,
		"epsilon":   config.GlobalEpsilon,
		"delta":     config.GlobalDelta,
	}).Info("engine initialized")

	return e, nil
}

// Ingest anonymizes a raw batch under the schema, enforces k-anonymity,
// and publishes the result. The raw batch is consumed within this call
// and never retained; only a one-way integrity hash of it survives. Any
// error aborts the call with nothing published.
func (e *Engine) Ingest(ctx context.Context, raw []models.Record, s models.DatasetSchema, budgetKey string) (string, error) {
	if err := e.registry.Validate(s); err != nil {
		e.metrics.IngestsTotal.WithLabelValues("schema_error").Inc()
		return "", err
	}
	if len(raw) == 0 {
		e.metrics.IngestsTotal.WithLabelValues("schema_error").Inc()
		return "", errors.NewAppError(errors.ErrorTypeSchema, errors.CodeEmptyBatch,
			"ingest requires at least one record")
	}

	e.metrics.BatchSize.Observe(float64(len(raw)))

	// Audit digest of the original batch, computed before the raw values
	// are discarded. One-way only; never used as a lookup key.
	integrityHash, err := hashBatch(raw)
	if err != nil {
		e.metrics.IngestsTotal.WithLabelValues("internal_error").Inc()
		return "", errors.WrapError(err, errors.ErrorTypeInternal, errors.CodeInternalError,
			"failed to compute integrity hash")
	}

	anonymized, err := e.anonymizer.Anonymize(raw, s, budgetKey)
	if err != nil {
		if errors.IsBudgetExhausted(err) {
			e.metrics.BudgetDenialsTotal.Inc()
			e.metrics.IngestsTotal.WithLabelValues("budget_exhausted").Inc()
		} else {
			e.metrics.IngestsTotal.WithLabelValues("schema_error").Inc()
		}
		return "", err
	}

	enforced := e.enforcer.Enforce(anonymized.Records, s)
	if enforced.Suppressed > 0 {
		e.metrics.RecordsSuppressedTotal.Add(float64(enforced.Suppressed))
	}

	dataset := &models.AnonymizedDataset{
		ID:                uuid.NewString(),
		SchemaFingerprint: e.registry.Fingerprint(s),
		Schema:            s,
		Records:           enforced.Records,
		IntegrityHash:     integrityHash,
		PrivacyTier:       effectiveDatasetTier(anonymized.EffectiveTiers),
		CreatedAt:         time.Now().UTC(),
	}

	if err := e.store.Put(dataset); err != nil {
		e.metrics.IngestsTotal.WithLabelValues("internal_error").Inc()
		return "", err
	}

	e.metrics.DatasetsStored.Set(float64(e.store.Count()))
	e.metrics.IngestsTotal.WithLabelValues("ok").Inc()

	e.logger.WithFields(logrus.Fields{
		"dataset_id": dataset.ID,
		"ingested":   len(raw),
		"published":  len(dataset.Records),
		"suppressed": enforced.Suppressed,
		"tier":       dataset.PrivacyTier,
	}).Info("dataset ingested")

	return dataset.ID, nil
}

// Synthesize produces synthetic records for the request. A compatible
// anonymized dataset selects data-driven mode, which reserves the
// request's epsilon/delta before perturbing; otherwise generation is
// schema-only and spends nothing. Errors abort with no partial batch.
func (e *Engine) Synthesize(ctx context.Context, req models.SynthesisRequest) (*models.SynthesisResponse, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.BudgetKey == "" {
		req.BudgetKey = privacy.DefaultBudgetKey
	}

	e.mu.Lock()
	e.requestCount++
	e.mu.Unlock()

	if err := e.registry.Validate(req.Schema); err != nil {
		e.metrics.SynthesesTotal.WithLabelValues("schema_error", "none").Inc()
		return nil, err
	}
	// Reject unfulfillable requests before any budget is reserved; a
	// failed synthesize must leave the accountant untouched.
	if req.NumSamples <= 0 {
		e.metrics.SynthesesTotal.WithLabelValues("generation_error", "none").Inc()
		return nil, errors.NewGenerationError(errors.CodeInvalidSampleSize,
			fmt.Sprintf("num_samples must be positive, got %d", req.NumSamples))
	}

	source := e.store.FindCompatible(req.Schema, e.registry.Fingerprint(req.Schema))
	if source != nil && len(source.Records) == 0 {
		// Fully suppressed datasets carry no usable signal; fall back to
		// schema-only generation without spending budget.
		source = nil
	}

	var epsilonSpent, deltaSpent float64
	if source != nil {
		if err := e.accountant.Reserve(req.BudgetKey, req.EpsilonRequest, req.DeltaRequest); err != nil {
			e.metrics.BudgetDenialsTotal.Inc()
			e.metrics.SynthesesTotal.WithLabelValues("budget_exhausted", "data_driven").Inc()
			return nil, err
		}
		epsilonSpent, deltaSpent = req.EpsilonRequest, req.DeltaRequest
	}

	result, err := e.generator.Generate(req, source)
	if err != nil {
		e.metrics.SynthesesTotal.WithLabelValues("generation_error", "none").Inc()
		return nil, err
	}

	quality := e.validator.Validate(result.Records, req, source)

	response := &models.SynthesisResponse{
		RequestID:        req.ID,
		SyntheticRecords: result.Records,
		QualityMetrics:   quality,
		PrivacyGuarantees: models.PrivacyGuarantees{
			Epsilon:         e.config.GlobalEpsilon,
			Delta:           e.config.GlobalDelta,
			EpsilonSpent:    epsilonSpent,
			DeltaSpent:      deltaSpent,
			KAnonymity:      e.enforcer.K(),
			CompositionRule: privacy.CompositionRuleName,
		},
		GenerationMetadata: models.GenerationMetadata{
			Mode:            result.Mode,
			SourceDatasetID: result.SourceDatasetID,
			NumSamples:      len(result.Records),
			GeneratedAt:     time.Now().UTC(),
		},
		Timestamp: time.Now().UTC(),
	}

	e.mu.Lock()
	e.responseCount++
	e.mu.Unlock()

	e.metrics.SynthesesTotal.WithLabelValues("ok", string(result.Mode)).Inc()

	e.logger.WithFields(logrus.Fields{
		"request_id": req.ID,
		"mode":       result.Mode,
		"samples":    len(result.Records),
	}).Info("synthesis complete")

	return response, nil
}

// RemainingBudget returns the unconsumed epsilon/delta for a budget key.
func (e *Engine) RemainingBudget(key string) (epsilon, delta float64) {
	return e.accountant.Remaining(key)
}

// ResetBudget restores a key's budget to its limits. Administrative only.
func (e *Engine) ResetBudget(key string) {
	e.accountant.Reset(key)
}

// DescribeDataset returns dataset metadata, never record values.
func (e *Engine) DescribeDataset(id string) (*models.DatasetInfo, error) {
	return e.store.Describe(id)
}

// Status returns an operational snapshot of the engine.
func (e *Engine) Status() models.EngineStatus {
	e.mu.Lock()
	requests, responses := e.requestCount, e.responseCount
	e.mu.Unlock()

	epsilon, delta := e.accountant.Remaining(privacy.DefaultBudgetKey)

	return models.EngineStatus{
		EngineID:         e.id,
		DatasetCount:     e.store.Count(),
		RequestCount:     requests,
		ResponseCount:    responses,
		KAnonymity:       e.enforcer.K(),
		NoiseEpsilon:     e.config.NoiseEpsilon,
		CompositionRule:  privacy.CompositionRuleName,
		GlobalEpsilon:    e.config.GlobalEpsilon,
		GlobalDelta:      e.config.GlobalDelta,
		RemainingEpsilon: epsilon,
		RemainingDelta:   delta,
	}
}

// MetricsHandler exposes the engine's Prometheus registry.
func (e *Engine) MetricsHandler() http.Handler {
	return e.metrics.Handler()
}

// hashBatch produces a stable sha256 digest of the raw batch. Map keys
// are sorted by the JSON encoder, so equal batches hash equally.
func hashBatch(batch []models.Record) (string, error) {
	data, err := json.Marshal(batch)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// effectiveDatasetTier derives the dataset tier from what the anonymizer
// actually applied: the strongest tier any field received.
func effectiveDatasetTier(tiers map[string]models.PrivacyTier) models.PrivacyTier {
	tier := models.PrivacyTierLow
	for _, t := range tiers {
		tier = models.MaxTier(tier, t)
	}
	return tier
}
