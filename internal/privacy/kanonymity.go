package privacy

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/BathSalt-2/Neur1genesis/pkg/models"
)

// GeneralizedCategory replaces categorical values in undersized groups.
const GeneralizedCategory = "GENERAL_CATEGORY"

// Enforcer applies k-anonymity over anonymized records. Records are
// grouped by the joined values of their quasi-identifier fields; groups
// smaller than k get exactly one generalization pass, and groups still
// undersized after regrouping are suppressed. The one-pass bound keeps
// sparse data from driving unbounded generalization.
type Enforcer struct {
	k      int
	logger *logrus.Logger
}

// EnforcementResult reports what survived enforcement.
type EnforcementResult struct {
	Records     []models.Record
	Generalized int
	Suppressed  int
}

// NewEnforcer creates an enforcer with the given minimum group size.
func NewEnforcer(k int, logger *logrus.Logger) *Enforcer {
	if k < 1 {
		k = 1
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Enforcer{k: k, logger: logger}
}

// K returns the enforced minimum group size.
func (e *Enforcer) K() int {
	return e.k
}

// Enforce returns only records belonging to quasi-identifier groups of
// size >= k. Output cardinality never exceeds input cardinality.
func (e *Enforcer) Enforce(records []models.Record, schema models.DatasetSchema) *EnforcementResult {
	if len(records) == 0 {
		return &EnforcementResult{}
	}

	qis := schema.QuasiIdentifiers()

	// Pass 1: generalize members of undersized groups.
	sizes := groupSizes(records, qis)
	staged := make([]models.Record, len(records))
	generalized := 0
	for i, record := range records {
		if sizes[groupKey(record, qis)] >= e.k {
			staged[i] = record
		} else {
			staged[i] = generalizeRecord(record, schema)
			generalized++
		}
	}

	// Pass 2: regroup and suppress anything still undersized.
	sizes = groupSizes(staged, qis)
	kept := make([]models.Record, 0, len(staged))
	suppressed := 0
	for _, record := range staged {
		if sizes[groupKey(record, qis)] >= e.k {
			kept = append(kept, record)
		} else {
			suppressed++
		}
	}

	e.logger.WithFields(logrus.Fields{
		"k":           e.k,
		"input":       len(records),
		"generalized": generalized,
		"suppressed":  suppressed,
		"kept":        len(kept),
	}).Info("k-anonymity enforced")

	return &EnforcementResult{
		Records:     kept,
		Generalized: generalized,
		Suppressed:  suppressed,
	}
}

// Validate reports whether every record belongs to a group of size >= k.
func (e *Enforcer) Validate(records []models.Record, schema models.DatasetSchema) bool {
	sizes := groupSizes(records, schema.QuasiIdentifiers())
	for _, size := range sizes {
		if size > 0 && size < e.k {
			return false
		}
	}
	return true
}

func groupSizes(records []models.Record, qis []string) map[string]int {
	sizes := make(map[string]int)
	for _, record := range records {
		sizes[groupKey(record, qis)]++
	}
	return sizes
}

func groupKey(record models.Record, qis []string) string {
	parts := make([]string, len(qis))
	for i, qi := range qis {
		parts[i] = fmt.Sprintf("%v", record[qi])
	}
	return strings.Join(parts, "|")
}

// generalizeRecord coarsens a record: numerical fields round to the
// field's bucket width, categorical fields collapse to a single label.
func generalizeRecord(record models.Record, schema models.DatasetSchema) models.Record {
	out := record.Clone()

	for _, field := range schema.Fields {
		value, present := out[field.Name]
		if !present {
			continue
		}

		switch field.Type {
		case models.SemanticTypeNumerical:
			if v, ok := asFloat(value); ok {
				bucket := field.BucketWidth()
				out[field.Name] = math.Round(v/bucket) * bucket
			}
		case models.SemanticTypeCategorical:
			out[field.Name] = GeneralizedCategory
		}
	}

	return out
}
