package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/BathSalt-2/Neur1genesis/pkg/errors"
	"github.com/BathSalt-2/Neur1genesis/pkg/models"
)

// Registry validates dataset schemas and computes their fingerprints.
// This is the only place schema shape is checked; downstream components
// assume a schema that passed Validate.
type Registry struct {
	logger *logrus.Logger
}

// NewRegistry creates a schema registry.
func NewRegistry(logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	return &Registry{logger: logger}
}

// Validate checks field uniqueness, enum well-formedness, and internal
// constraint consistency. Returns a schema error on the first violation.
func (r *Registry) Validate(s models.DatasetSchema) error {
	if len(s.Fields) == 0 {
		return errors.NewSchemaError(errors.CodeInvalidSchema, "schema must declare at least one field")
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return errors.NewSchemaError(errors.CodeInvalidSchema, "field name must not be empty")
		}
		if _, dup := seen[f.Name]; dup {
			return errors.NewSchemaError(errors.CodeDuplicateField,
				fmt.Sprintf("duplicate field name %q", f.Name))
		}
		seen[f.Name] = struct{}{}

		if !f.Type.IsValid() {
			return errors.NewSchemaError(errors.CodeInvalidType,
				fmt.Sprintf("field %q has unknown semantic type %q", f.Name, f.Type))
		}
		if !f.PrivacyTier.IsValid() {
			return errors.NewSchemaError(errors.CodeInvalidTier,
				fmt.Sprintf("field %q has unknown privacy tier %q", f.Name, f.PrivacyTier))
		}

		if err := r.validateConstraints(f); err != nil {
			return err
		}
	}

	return nil
}

func (r *Registry) validateConstraints(f models.FieldSchema) error {
	if lo, hi, ok := f.HasNumericRange(); ok && lo > hi {
		return errors.NewSchemaError(errors.CodeInvalidConstraint,
			fmt.Sprintf("field %q has min %g greater than max %g", f.Name, lo, hi))
	}

	if _, declared := f.Constraints["categories"]; declared {
		if len(f.Categories()) == 0 {
			return errors.NewSchemaError(errors.CodeInvalidConstraint,
				fmt.Sprintf("field %q declares an empty category list", f.Name))
		}
	}

	if raw, declared := f.Constraints["max_length"]; declared {
		switch n := raw.(type) {
		case float64:
			if n <= 0 {
				return errors.NewSchemaError(errors.CodeInvalidConstraint,
					fmt.Sprintf("field %q has non-positive max_length", f.Name))
			}
		case int:
			if n <= 0 {
				return errors.NewSchemaError(errors.CodeInvalidConstraint,
					fmt.Sprintf("field %q has non-positive max_length", f.Name))
			}
		default:
			return errors.NewSchemaError(errors.CodeInvalidConstraint,
				fmt.Sprintf("field %q has non-numeric max_length", f.Name))
		}
	}

	return nil
}

// Fingerprint returns a stable hash of the schema's field definitions.
// It hashes sorted name/type/tier tuples only, never values, so datasets
// can be matched for compatibility without touching their contents.
func (r *Registry) Fingerprint(s models.DatasetSchema) string {
	tuples := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		tuples[i] = fmt.Sprintf("%s|%s|%s", f.Name, f.Type, f.PrivacyTier)
	}
	sort.Strings(tuples)

	sum := sha256.Sum256([]byte(strings.Join(tuples, "\n")))
	return hex.EncodeToString(sum[:])
}
