package generator

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/BathSalt-2/Neur1genesis/internal/privacy"
	"github.com/BathSalt-2/Neur1genesis/pkg/errors"
	"github.com/BathSalt-2/Neur1genesis/pkg/models"
)

const (
	// perturbScale sizes the Gaussian perturbation of resampled numeric
	// values relative to the base value's magnitude.
	perturbScale = 0.1
	// resampleProbability is the chance a resampled categorical value is
	// redrawn from the constraint list instead of kept.
	resampleProbability = 0.2
)

// defaultCategories backs categorical generation when a field declares no
// category list.
var defaultCategories = []string{"A", "B", "C"}

// Generator produces synthetic records either purely from schema
// constraints or by resampling and perturbing an anonymized dataset. It
// never models cross-field correlation; that approximation is deliberate.
type Generator struct {
	noise  *privacy.NoiseSource
	logger *logrus.Logger
}

// Result is a generated batch plus how it was produced.
type Result struct {
	Records         []models.Record
	Mode            models.GenerationMode
	SourceDatasetID string
}

// NewGenerator creates a generator drawing from the given noise source.
func NewGenerator(noise *privacy.NoiseSource, logger *logrus.Logger) *Generator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Generator{noise: noise, logger: logger}
}

// Generate produces exactly NumSamples records. A nil source selects
// schema-only mode; otherwise each sample perturbs a record drawn
// uniformly from the source dataset.
func (g *Generator) Generate(req models.SynthesisRequest, source *models.AnonymizedDataset) (*Result, error) {
	if req.NumSamples <= 0 {
		return nil, errors.NewGenerationError(errors.CodeInvalidSampleSize,
			fmt.Sprintf("num_samples must be positive, got %d", req.NumSamples))
	}
	if len(req.Schema.Fields) == 0 {
		return nil, errors.NewGenerationError(errors.CodeNoUsableFields,
			"target schema declares no usable fields")
	}

	if source == nil || len(source.Records) == 0 {
		records := make([]models.Record, req.NumSamples)
		for i := range records {
			records[i] = g.generateFromSchema(req.Schema)
		}
		return &Result{Records: records, Mode: models.GenerationModeSchemaOnly}, nil
	}

	records := make([]models.Record, req.NumSamples)
	for i := range records {
		base := source.Records[g.noise.Intn(len(source.Records))]
		records[i] = g.perturbRecord(base, req.Schema)
	}

	return &Result{
		Records:         records,
		Mode:            models.GenerationModeDataDriven,
		SourceDatasetID: source.ID,
	}, nil
}

// generateFromSchema draws each field independently from its declared
// constraints.
func (g *Generator) generateFromSchema(schema models.DatasetSchema) models.Record {
	record := make(models.Record, len(schema.Fields))
	for _, field := range schema.Fields {
		record[field.Name] = g.generateFieldValue(field)
	}
	return record
}

func (g *Generator) generateFieldValue(field models.FieldSchema) interface{} {
	switch field.Type {
	case models.SemanticTypeNumerical:
		min, max := field.NumericRange()
		if min == max {
			return min
		}
		return g.noise.Uniform(min, max)
	case models.SemanticTypeCategorical:
		return g.pickCategory(field)
	case models.SemanticTypeText:
		return fmt.Sprintf("synthetic_text_%04d", 1000+g.noise.Intn(9000))
	default:
		return fmt.Sprintf("synthetic_value_%d", 1+g.noise.Intn(1000))
	}
}

// perturbRecord builds one sample from a base record: numeric fields get
// magnitude-scaled Gaussian noise, categorical fields are occasionally
// redrawn, everything else is copied. Fields missing from the base fall
// back to schema-only generation.
func (g *Generator) perturbRecord(base models.Record, schema models.DatasetSchema) models.Record {
	record := make(models.Record, len(schema.Fields))

	for _, field := range schema.Fields {
		baseValue, present := base[field.Name]
		if !present {
			record[field.Name] = g.generateFieldValue(field)
			continue
		}

		switch field.Type {
		case models.SemanticTypeNumerical:
			if v, ok := asFloat(baseValue); ok {
				sigma := v * perturbScale
				if sigma < 0 {
					sigma = -sigma
				}
				record[field.Name] = v + g.noise.Gaussian(sigma)
			} else {
				record[field.Name] = baseValue
			}
		case models.SemanticTypeCategorical:
			if g.noise.Float64() < resampleProbability {
				record[field.Name] = g.pickCategory(field)
			} else {
				record[field.Name] = baseValue
			}
		default:
			record[field.Name] = baseValue
		}
	}

	return record
}

func (g *Generator) pickCategory(field models.FieldSchema) string {
	categories := field.Categories()
	if len(categories) == 0 {
		categories = defaultCategories
	}
	return categories[g.noise.Intn(len(categories))]
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
