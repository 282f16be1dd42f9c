package validation

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/BathSalt-2/Neur1genesis/pkg/models"
)

// QualityValidator computes fidelity, utility, and diversity metrics over
// a generated batch. Metrics are diagnostic output attached to every
// response; the engine never gates a batch on them.
type QualityValidator struct {
	logger *logrus.Logger
}

// NewQualityValidator creates a quality validator.
func NewQualityValidator(logger *logrus.Logger) *QualityValidator {
	if logger == nil {
		logger = logrus.New()
	}
	return &QualityValidator{logger: logger}
}

// Validate computes metrics for a generated batch against its request.
// When source is non-nil (data-driven mode), numeric means are compared
// against the source dataset to produce a statistical fidelity score.
func (v *QualityValidator) Validate(generated []models.Record, req models.SynthesisRequest, source *models.AnonymizedDataset) models.QualityMetrics {
	metrics := models.QualityMetrics{
		Completeness: completeness(len(generated), req.NumSamples),
		Diversity:    diversity(generated),
		FieldStats:   fieldStats(generated, req.Schema),
	}

	if source != nil {
		metrics.StatisticalFidelity = v.fidelity(metrics.FieldStats, source, req.Schema)
	}

	v.logger.WithFields(logrus.Fields{
		"request_id":   req.ID,
		"completeness": metrics.Completeness,
		"diversity":    metrics.Diversity,
	}).Debug("quality metrics computed")

	return metrics
}

func completeness(generated, requested int) float64 {
	if requested <= 0 {
		return 0
	}
	return float64(generated) / float64(requested)
}

// diversity is the ratio of distinct records to total records.
func diversity(records []models.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		seen[fmt.Sprintf("%v", r)] = struct{}{}
	}
	return float64(len(seen)) / float64(len(records))
}

// fieldStats computes per-field descriptive statistics: mean, variance,
// and range for numeric fields, value frequencies for categorical ones.
func fieldStats(records []models.Record, schema models.DatasetSchema) map[string]models.FieldStats {
	stats := make(map[string]models.FieldStats)

	for _, field := range schema.Fields {
		switch field.Type {
		case models.SemanticTypeNumerical:
			if s, ok := numericStats(records, field.Name); ok {
				stats[field.Name] = s
			}
		case models.SemanticTypeCategorical:
			freq := make(map[string]int)
			for _, r := range records {
				if v, present := r[field.Name]; present {
					freq[fmt.Sprintf("%v", v)]++
				}
			}
			if len(freq) > 0 {
				stats[field.Name] = models.FieldStats{Frequencies: freq}
			}
		}
	}

	return stats
}

func numericStats(records []models.Record, name string) (models.FieldStats, bool) {
	var values []float64
	for _, r := range records {
		if v, ok := asFloat(r[name]); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return models.FieldStats{}, false
	}

	min, max := values[0], values[0]
	sum := 0.0
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	return models.FieldStats{Mean: mean, Variance: variance, Min: min, Max: max}, true
}

// fidelity compares generated numeric means against the source dataset.
// Each common field scores 1 - |meanDiff| / max(|sourceMean|, 1), clamped
// to [0, 1]; the result is the average across fields, or 0 when no
// numeric field is comparable.
func (v *QualityValidator) fidelity(generated map[string]models.FieldStats, source *models.AnonymizedDataset, schema models.DatasetSchema) float64 {
	total, count := 0.0, 0

	for _, field := range schema.Fields {
		if field.Type != models.SemanticTypeNumerical {
			continue
		}
		genStats, ok := generated[field.Name]
		if !ok {
			continue
		}
		srcStats, ok := numericStats(source.Records, field.Name)
		if !ok {
			continue
		}

		denom := math.Max(math.Abs(srcStats.Mean), 1)
		score := 1 - math.Abs(genStats.Mean-srcStats.Mean)/denom
		if score < 0 {
			score = 0
		}
		total += score
		count++
	}

	if count == 0 {
		return 0
	}
	return total / float64(count)
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
