package privacy

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/BathSalt-2/Neur1genesis/pkg/errors"
	"github.com/BathSalt-2/Neur1genesis/pkg/models"
)

// Sentinel labels used by the maximum privacy tier.
const (
	SentinelCategory = "PRIVATE_CATEGORY"
	SentinelText     = "PRIVATE_TEXT"
	SentinelValue    = "PRIVATE_VALUE"
)

// AnonymizerConfig tunes the per-field transformations.
type AnonymizerConfig struct {
	// NoiseEpsilon is the epsilon reserved per Laplace application and
	// the epsilon the Laplace scales are calibrated against.
	NoiseEpsilon float64 `json:"noise_epsilon"`
	// LowSigma is the Gaussian sigma used by the low tier.
	LowSigma float64 `json:"low_sigma"`
	// TextTruncateLen is how many characters the high tier keeps.
	TextTruncateLen int `json:"text_truncate_len"`
}

// DefaultAnonymizerConfig returns the standard transformation parameters.
func DefaultAnonymizerConfig() AnonymizerConfig {
	return AnonymizerConfig{
		NoiseEpsilon:    0.1,
		LowSigma:        0.1,
		TextTruncateLen: 10,
	}
}

// Anonymizer applies tier-calibrated transformations to raw batches. Raw
// values exist only inside Anonymize; they are never retained or logged.
type Anonymizer struct {
	config     AnonymizerConfig
	accountant *Accountant
	noise      *NoiseSource
	logger     *logrus.Logger
}

// AnonymizationResult is the anonymized batch plus the tier each field
// actually received. A field's effective tier is the weakest tier applied
// to any of its values, so the output never claims protection it did not
// get (budget exhaustion downgrades noisy tiers toward low).
type AnonymizationResult struct {
	Records        []models.Record
	EffectiveTiers map[string]models.PrivacyTier
}

// NewAnonymizer creates an anonymizer bound to an accountant and a seeded
// noise source.
func NewAnonymizer(config AnonymizerConfig, accountant *Accountant, noise *NoiseSource, logger *logrus.Logger) *Anonymizer {
	if config.NoiseEpsilon <= 0 {
		config.NoiseEpsilon = DefaultAnonymizerConfig().NoiseEpsilon
	}
	if config.LowSigma <= 0 {
		config.LowSigma = DefaultAnonymizerConfig().LowSigma
	}
	if config.TextTruncateLen <= 0 {
		config.TextTruncateLen = DefaultAnonymizerConfig().TextTruncateLen
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Anonymizer{
		config:     config,
		accountant: accountant,
		noise:      noise,
		logger:     logger,
	}
}

// Anonymize transforms a raw batch under the schema's privacy tiers,
// reserving budget for every Laplace application. Output has the same
// cardinality as the input; k-anonymity enforcement runs afterwards.
func (a *Anonymizer) Anonymize(batch []models.Record, schema models.DatasetSchema, budgetKey string) (*AnonymizationResult, error) {
	if len(batch) == 0 {
		return nil, errors.NewAppError(errors.ErrorTypeSchema, errors.CodeEmptyBatch,
			"cannot anonymize an empty batch")
	}

	effective := make(map[string]models.PrivacyTier, len(schema.Fields))
	out := make([]models.Record, 0, len(batch))

	for _, record := range batch {
		anonymized := make(models.Record, len(schema.Fields))

		for _, field := range schema.Fields {
			value, present := record[field.Name]
			if !present {
				continue
			}

			result, applied, err := a.anonymizeValue(value, field, budgetKey)
			if err != nil {
				return nil, err
			}
			anonymized[field.Name] = result

			if current, seen := effective[field.Name]; !seen || applied.Rank() < current.Rank() {
				effective[field.Name] = applied
			}
		}

		out = append(out, anonymized)
	}

	a.logger.WithFields(logrus.Fields{
		"records":    len(out),
		"fields":     len(schema.Fields),
		"budget_key": budgetKey,
	}).Info("batch anonymized")

	return &AnonymizationResult{Records: out, EffectiveTiers: effective}, nil
}

// anonymizeValue applies the transformation table for the field's tier.
// If a Laplace reservation fails, the field drops to the next lower tier
// instead of proceeding unprotected at the claimed one.
func (a *Anonymizer) anonymizeValue(value interface{}, field models.FieldSchema, budgetKey string) (interface{}, models.PrivacyTier, error) {
	tier := field.PrivacyTier

	for {
		result, err := a.applyTier(value, field, tier, budgetKey)
		if err == nil {
			return result, tier, nil
		}
		if errors.IsBudgetExhausted(err) && tier != models.PrivacyTierLow {
			tier = tier.Lower()
			continue
		}
		return nil, tier, err
	}
}

func (a *Anonymizer) applyTier(value interface{}, field models.FieldSchema, tier models.PrivacyTier, budgetKey string) (interface{}, error) {
	switch field.Type {
	case models.SemanticTypeNumerical:
		return a.applyNumerical(value, tier, budgetKey)
	case models.SemanticTypeCategorical:
		return applyCategorical(value, tier), nil
	case models.SemanticTypeText:
		return a.applyText(value, tier), nil
	default:
		if tier == models.PrivacyTierMaximum {
			return SentinelValue, nil
		}
		return value, nil
	}
}

func (a *Anonymizer) applyNumerical(value interface{}, tier models.PrivacyTier, budgetKey string) (interface{}, error) {
	v, ok := asFloat(value)
	if !ok {
		if tier == models.PrivacyTierMaximum {
			return SentinelValue, nil
		}
		return value, nil
	}

	eps := a.config.NoiseEpsilon
	switch tier {
	case models.PrivacyTierMedium:
		if err := a.accountant.Reserve(budgetKey, eps, 0); err != nil {
			return nil, err
		}
		return v + a.noise.Laplace(2/eps), nil
	case models.PrivacyTierHigh:
		if err := a.accountant.Reserve(budgetKey, eps, 0); err != nil {
			return nil, err
		}
		return v + a.noise.Laplace(1/eps), nil
	case models.PrivacyTierMaximum:
		if err := a.accountant.Reserve(budgetKey, eps, 0); err != nil {
			return nil, err
		}
		return v + a.noise.Laplace(2/eps)*2, nil
	default:
		return v + a.noise.Gaussian(a.config.LowSigma), nil
	}
}

func applyCategorical(value interface{}, tier models.PrivacyTier) interface{} {
	switch tier {
	case models.PrivacyTierMedium:
		return fmt.Sprintf("GEN_%v", value)
	case models.PrivacyTierHigh:
		return "GENERAL_" + truncateRunes(strings.ToUpper(fmt.Sprintf("%v", value)), 3)
	case models.PrivacyTierMaximum:
		return SentinelCategory
	default:
		return value
	}
}

func (a *Anonymizer) applyText(value interface{}, tier models.PrivacyTier) interface{} {
	switch tier {
	case models.PrivacyTierHigh:
		return truncateRunes(fmt.Sprintf("%v", value), a.config.TextTruncateLen) + "..."
	case models.PrivacyTierMaximum:
		return SentinelText
	default:
		return value
	}
}

// truncateRunes keeps at most n characters, never splitting a multi-byte
// rune.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	}
	return 0, false
}
