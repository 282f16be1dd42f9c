package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BathSalt-2/Neur1genesis/pkg/models"
)

func qiSchema() models.DatasetSchema {
	return models.DatasetSchema{Fields: []models.FieldSchema{
		{Name: "region", Type: models.SemanticTypeCategorical, PrivacyTier: models.PrivacyTierMedium},
		{Name: "age", Type: models.SemanticTypeNumerical, PrivacyTier: models.PrivacyTierHigh},
		{Name: "score", Type: models.SemanticTypeNumerical, PrivacyTier: models.PrivacyTierLow},
	}}
}

func identicalRecords(n int) []models.Record {
	records := make([]models.Record, n)
	for i := range records {
		records[i] = models.Record{"region": "GEN_north", "age": 30.0, "score": float64(i)}
	}
	return records
}

func TestLargeGroupPassesUnchanged(t *testing.T) {
	enforcer := NewEnforcer(5, testLogger())

	records := identicalRecords(6)
	result := enforcer.Enforce(records, qiSchema())

	require.Len(t, result.Records, 6)
	assert.Zero(t, result.Generalized)
	assert.Zero(t, result.Suppressed)
	assert.Equal(t, records, result.Records)
}

func TestSmallGroupIsGeneralizedThenSuppressed(t *testing.T) {
	enforcer := NewEnforcer(5, testLogger())

	// Three identical quasi-identifier signatures cannot reach k=5 even
	// after generalization, so the whole group is dropped.
	result := enforcer.Enforce(identicalRecords(3), qiSchema())

	assert.Empty(t, result.Records)
	assert.Equal(t, 3, result.Generalized)
	assert.Equal(t, 3, result.Suppressed)
}

func TestGeneralizationMergesNearbyGroups(t *testing.T) {
	enforcer := NewEnforcer(4, testLogger())

	// Two undersized groups whose ages round to the same bucket of 10;
	// after one generalization pass they merge into a group of 4.
	records := []models.Record{
		{"region": "a", "age": 29.0},
		{"region": "a", "age": 29.0},
		{"region": "b", "age": 31.0},
		{"region": "b", "age": 31.0},
	}
	result := enforcer.Enforce(records, qiSchema())

	require.Len(t, result.Records, 4)
	assert.Equal(t, 4, result.Generalized)
	assert.Zero(t, result.Suppressed)

	for _, r := range result.Records {
		assert.Equal(t, GeneralizedCategory, r["region"])
		assert.Equal(t, 30.0, r["age"])
	}
}

func TestMixedGroupsKeepLargeSuppressSmall(t *testing.T) {
	enforcer := NewEnforcer(3, testLogger())

	records := append(identicalRecords(3),
		models.Record{"region": "GEN_south", "age": 77.0, "score": 1.0})
	result := enforcer.Enforce(records, qiSchema())

	// The singleton is generalized, fails to merge anywhere, and is
	// suppressed; the group of three survives.
	require.Len(t, result.Records, 3)
	assert.Equal(t, 1, result.Suppressed)
	assert.True(t, enforcer.Validate(result.Records, qiSchema()))
}

func TestOutputNeverExceedsInputCardinality(t *testing.T) {
	enforcer := NewEnforcer(2, testLogger())

	records := []models.Record{
		{"region": "x", "age": 10.0},
		{"region": "y", "age": 80.0},
		{"region": "y", "age": 80.0},
	}
	result := enforcer.Enforce(records, qiSchema())
	assert.LessOrEqual(t, len(result.Records), len(records))
	assert.True(t, enforcer.Validate(result.Records, qiSchema()))
}

func TestEnforceEmptyInput(t *testing.T) {
	enforcer := NewEnforcer(5, testLogger())
	result := enforcer.Enforce(nil, qiSchema())
	assert.Empty(t, result.Records)
}

func TestValidateDetectsUndersizedGroups(t *testing.T) {
	enforcer := NewEnforcer(2, testLogger())

	undersized := []models.Record{{"region": "solo", "age": 40.0}}
	assert.False(t, enforcer.Validate(undersized, qiSchema()))
	assert.True(t, enforcer.Validate(nil, qiSchema()))
}
