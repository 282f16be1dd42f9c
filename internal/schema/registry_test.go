package schema

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BathSalt-2/Neur1genesis/pkg/errors"
	"github.com/BathSalt-2/Neur1genesis/pkg/models"
)

func newTestRegistry() *Registry {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewRegistry(logger)
}

func validSchema() models.DatasetSchema {
	return models.DatasetSchema{Fields: []models.FieldSchema{
		{Name: "age", Type: models.SemanticTypeNumerical, PrivacyTier: models.PrivacyTierMedium,
			Constraints: map[string]interface{}{"min": 0, "max": 120}},
		{Name: "region", Type: models.SemanticTypeCategorical, PrivacyTier: models.PrivacyTierHigh,
			Constraints: map[string]interface{}{"categories": []string{"north", "south"}}},
		{Name: "notes", Type: models.SemanticTypeText, PrivacyTier: models.PrivacyTierLow},
	}}
}

func TestValidateAcceptsWellFormedSchema(t *testing.T) {
	require.NoError(t, newTestRegistry().Validate(validSchema()))
}

func TestValidateRejectsEmptySchema(t *testing.T) {
	err := newTestRegistry().Validate(models.DatasetSchema{})
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
}

func TestValidateRejectsDuplicateFieldNames(t *testing.T) {
	s := models.DatasetSchema{Fields: []models.FieldSchema{
		{Name: "age", Type: models.SemanticTypeNumerical, PrivacyTier: models.PrivacyTierLow},
		{Name: "age", Type: models.SemanticTypeText, PrivacyTier: models.PrivacyTierLow},
	}}
	err := newTestRegistry().Validate(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), errors.CodeDuplicateField)
}

func TestValidateRejectsUnknownTypeAndTier(t *testing.T) {
	registry := newTestRegistry()

	badType := models.DatasetSchema{Fields: []models.FieldSchema{
		{Name: "x", Type: "geospatial", PrivacyTier: models.PrivacyTierLow},
	}}
	require.Error(t, registry.Validate(badType))

	badTier := models.DatasetSchema{Fields: []models.FieldSchema{
		{Name: "x", Type: models.SemanticTypeText, PrivacyTier: "extreme"},
	}}
	require.Error(t, registry.Validate(badTier))
}

func TestValidateRejectsInvertedNumericRange(t *testing.T) {
	s := models.DatasetSchema{Fields: []models.FieldSchema{
		{Name: "x", Type: models.SemanticTypeNumerical, PrivacyTier: models.PrivacyTierLow,
			Constraints: map[string]interface{}{"min": 10, "max": 5}},
	}}
	err := newTestRegistry().Validate(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), errors.CodeInvalidConstraint)
}

func TestValidateRejectsEmptyCategoryList(t *testing.T) {
	s := models.DatasetSchema{Fields: []models.FieldSchema{
		{Name: "x", Type: models.SemanticTypeCategorical, PrivacyTier: models.PrivacyTierLow,
			Constraints: map[string]interface{}{"categories": []string{}}},
	}}
	require.Error(t, newTestRegistry().Validate(s))
}

func TestFingerprintIsStableAndOrderIndependent(t *testing.T) {
	registry := newTestRegistry()
	s := validSchema()

	reordered := models.DatasetSchema{Fields: []models.FieldSchema{
		s.Fields[2], s.Fields[0], s.Fields[1],
	}}

	assert.Equal(t, registry.Fingerprint(s), registry.Fingerprint(s))
	assert.Equal(t, registry.Fingerprint(s), registry.Fingerprint(reordered))
}

func TestFingerprintChangesWithTier(t *testing.T) {
	registry := newTestRegistry()
	s := validSchema()

	changed := validSchema()
	changed.Fields[0].PrivacyTier = models.PrivacyTierMaximum

	assert.NotEqual(t, registry.Fingerprint(s), registry.Fingerprint(changed))
}
