package models

import (
	"time"
)

// SemanticType classifies the values a field may hold.
type SemanticType string

const (
	SemanticTypeNumerical   SemanticType = "numerical"
	SemanticTypeCategorical SemanticType = "categorical"
	SemanticTypeText        SemanticType = "text"
	SemanticTypeTemporal    SemanticType = "temporal"
	SemanticTypeMixed       SemanticType = "mixed"
)

// IsValid reports whether the semantic type is one of the known variants.
func (t SemanticType) IsValid() bool {
	switch t {
	case SemanticTypeNumerical, SemanticTypeCategorical, SemanticTypeText,
		SemanticTypeTemporal, SemanticTypeMixed:
		return true
	}
	return false
}

// PrivacyTier selects how aggressively a field is anonymized.
type PrivacyTier string

const (
	PrivacyTierLow     PrivacyTier = "low"
	PrivacyTierMedium  PrivacyTier = "medium"
	PrivacyTierHigh    PrivacyTier = "high"
	PrivacyTierMaximum PrivacyTier = "maximum"
)

// IsValid reports whether the privacy tier is one of the known variants.
func (p PrivacyTier) IsValid() bool {
	switch p {
	case PrivacyTierLow, PrivacyTierMedium, PrivacyTierHigh, PrivacyTierMaximum:
		return true
	}
	return false
}

// Rank orders tiers from least (0) to most (3) protective.
func (p PrivacyTier) Rank() int {
	switch p {
	case PrivacyTierMedium:
		return 1
	case PrivacyTierHigh:
		return 2
	case PrivacyTierMaximum:
		return 3
	default:
		return 0
	}
}

// Lower returns the next less protective tier, bottoming out at Low.
func (p PrivacyTier) Lower() PrivacyTier {
	switch p {
	case PrivacyTierMaximum:
		return PrivacyTierHigh
	case PrivacyTierHigh:
		return PrivacyTierMedium
	default:
		return PrivacyTierLow
	}
}

// MaxTier returns the more protective of two tiers.
func MaxTier(a, b PrivacyTier) PrivacyTier {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// FieldSchema describes a single field of a dataset. Immutable once the
// schema it belongs to has been published.
type FieldSchema struct {
	Name        string                 `json:"name"`
	Type        SemanticType           `json:"type"`
	PrivacyTier PrivacyTier            `json:"privacy_tier"`
	Constraints map[string]interface{} `json:"constraints,omitempty"`
}

// NumericRange extracts min/max constraints. Missing bounds fall back to
// [0, 100], matching the generation defaults.
func (f FieldSchema) NumericRange() (min, max float64) {
	min, max = 0, 100
	if v, ok := toFloat(f.Constraints["min"]); ok {
		min = v
	}
	if v, ok := toFloat(f.Constraints["max"]); ok {
		max = v
	}
	return min, max
}

// HasNumericRange reports whether both bounds are declared.
func (f FieldSchema) HasNumericRange() (float64, float64, bool) {
	lo, okLo := toFloat(f.Constraints["min"])
	hi, okHi := toFloat(f.Constraints["max"])
	return lo, hi, okLo && okHi
}

// Categories extracts the allowed category list, if declared.
func (f FieldSchema) Categories() []string {
	raw, ok := f.Constraints["categories"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// BucketWidth extracts the generalization bucket width, defaulting to 10.
func (f FieldSchema) BucketWidth() float64 {
	if v, ok := toFloat(f.Constraints["bucket_width"]); ok && v > 0 {
		return v
	}
	return 10
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	}
	return 0, false
}

// DatasetSchema is an ordered sequence of uniquely named fields.
type DatasetSchema struct {
	Fields []FieldSchema `json:"fields"`
}

// FieldNames returns the field names in declaration order.
func (s DatasetSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field looks a field up by name.
func (s DatasetSchema) Field(name string) (FieldSchema, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// QuasiIdentifiers returns the names of fields whose tier makes them
// quasi-identifying (medium or high).
func (s DatasetSchema) QuasiIdentifiers() []string {
	var qis []string
	for _, f := range s.Fields {
		if f.PrivacyTier == PrivacyTierMedium || f.PrivacyTier == PrivacyTierHigh {
			qis = append(qis, f.Name)
		}
	}
	return qis
}

// Record is a single data row keyed by field name.
type Record map[string]interface{}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// AnonymizedDataset is the only artifact retained after ingestion. It
// never contains raw values; IntegrityHash is a one-way audit digest of
// the original batch and must never be used for lookups.
type AnonymizedDataset struct {
	ID                string        `json:"id"`
	SchemaFingerprint string        `json:"schema_fingerprint"`
	Schema            DatasetSchema `json:"schema"`
	Records           []Record      `json:"records"`
	IntegrityHash     string        `json:"integrity_hash"`
	PrivacyTier       PrivacyTier   `json:"privacy_tier"`
	CreatedAt         time.Time     `json:"created_at"`
}

// DatasetInfo is the metadata-only view exposed by DescribeDataset.
type DatasetInfo struct {
	ID                string      `json:"id"`
	SchemaFingerprint string      `json:"schema_fingerprint"`
	RecordCount       int         `json:"record_count"`
	PrivacyTier       PrivacyTier `json:"privacy_tier"`
	CreatedAt         time.Time   `json:"created_at"`
}

// PrivacyBudget tracks a finite (epsilon, delta) allowance.
type PrivacyBudget struct {
	Epsilon         float64 `json:"epsilon"`
	Delta           float64 `json:"delta"`
	ConsumedEpsilon float64 `json:"consumed_epsilon"`
	ConsumedDelta   float64 `json:"consumed_delta"`
}

// Remaining returns the unconsumed portion of the budget, floored at zero.
func (b PrivacyBudget) Remaining() (epsilon, delta float64) {
	epsilon = b.Epsilon - b.ConsumedEpsilon
	delta = b.Delta - b.ConsumedDelta
	if epsilon < 0 {
		epsilon = 0
	}
	if delta < 0 {
		delta = 0
	}
	return epsilon, delta
}

// SynthesisRequest asks the engine for synthetic records.
type SynthesisRequest struct {
	ID                  string                 `json:"id"`
	Schema              DatasetSchema          `json:"schema"`
	NumSamples          int                    `json:"num_samples"`
	BudgetKey           string                 `json:"budget_key,omitempty"`
	EpsilonRequest      float64                `json:"epsilon_request"`
	DeltaRequest        float64                `json:"delta_request"`
	QualityRequirements map[string]interface{} `json:"quality_requirements,omitempty"`
}

// GenerationMode identifies how a synthetic batch was produced.
type GenerationMode string

const (
	GenerationModeSchemaOnly GenerationMode = "schema_only"
	GenerationModeDataDriven GenerationMode = "data_driven"
)

// FieldStats holds descriptive statistics for one generated field.
type FieldStats struct {
	Mean        float64        `json:"mean,omitempty"`
	Variance    float64        `json:"variance,omitempty"`
	Min         float64        `json:"min,omitempty"`
	Max         float64        `json:"max,omitempty"`
	Frequencies map[string]int `json:"frequencies,omitempty"`
}

// QualityMetrics describes a generated batch. Diagnostic output only; the
// engine always returns the batch and lets the caller judge acceptability.
type QualityMetrics struct {
	Completeness        float64               `json:"completeness"`
	Diversity           float64               `json:"diversity"`
	StatisticalFidelity float64               `json:"statistical_fidelity,omitempty"`
	FieldStats          map[string]FieldStats `json:"field_stats,omitempty"`
}

// PrivacyGuarantees summarizes the protections a batch was produced under.
type PrivacyGuarantees struct {
	Epsilon         float64 `json:"epsilon"`
	Delta           float64 `json:"delta"`
	EpsilonSpent    float64 `json:"epsilon_spent"`
	DeltaSpent      float64 `json:"delta_spent"`
	KAnonymity      int     `json:"k_anonymity"`
	CompositionRule string  `json:"composition_rule"`
}

// GenerationMetadata records how a batch came to be.
type GenerationMetadata struct {
	Mode            GenerationMode `json:"mode"`
	SourceDatasetID string         `json:"source_dataset_id,omitempty"`
	NumSamples      int            `json:"num_samples"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// SynthesisResponse is the immutable result of one synthesis request.
type SynthesisResponse struct {
	RequestID          string             `json:"request_id"`
	SyntheticRecords   []Record           `json:"synthetic_records"`
	QualityMetrics     QualityMetrics     `json:"quality_metrics"`
	PrivacyGuarantees  PrivacyGuarantees  `json:"privacy_guarantees"`
	GenerationMetadata GenerationMetadata `json:"generation_metadata"`
	Timestamp          time.Time          `json:"timestamp"`
}

// EngineStatus is the operational snapshot exposed by the status endpoint.
type EngineStatus struct {
	EngineID         string  `json:"engine_id"`
	DatasetCount     int     `json:"dataset_count"`
	RequestCount     int     `json:"request_count"`
	ResponseCount    int     `json:"response_count"`
	KAnonymity       int     `json:"k_anonymity"`
	NoiseEpsilon     float64 `json:"noise_epsilon"`
	CompositionRule  string  `json:"composition_rule"`
	GlobalEpsilon    float64 `json:"global_epsilon"`
	GlobalDelta      float64 `json:"global_delta"`
	RemainingEpsilon float64 `json:"remaining_epsilon"`
	RemainingDelta   float64 `json:"remaining_delta"`
}
