package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BathSalt-2/Neur1genesis/pkg/models"
)

func newTestStore() *DatasetStore {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewDatasetStore(logger)
}

func schemaWithFields(names ...string) models.DatasetSchema {
	fields := make([]models.FieldSchema, len(names))
	for i, name := range names {
		fields[i] = models.FieldSchema{
			Name:        name,
			Type:        models.SemanticTypeNumerical,
			PrivacyTier: models.PrivacyTierLow,
		}
	}
	return models.DatasetSchema{Fields: fields}
}

func testDataset(id, fingerprint string, schema models.DatasetSchema) *models.AnonymizedDataset {
	return &models.AnonymizedDataset{
		ID:                id,
		SchemaFingerprint: fingerprint,
		Schema:            schema,
		Records:           []models.Record{{"f0": 1.0}},
		IntegrityHash:     "deadbeef",
		PrivacyTier:       models.PrivacyTierLow,
		CreatedAt:         time.Now().UTC(),
	}
}

func fieldNames(prefix string, n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return names
}

func TestPutAndGet(t *testing.T) {
	store := newTestStore()
	dataset := testDataset("ds-1", "fp-1", schemaWithFields("a", "b"))

	require.NoError(t, store.Put(dataset))

	got, err := store.Get("ds-1")
	require.NoError(t, err)
	assert.Equal(t, dataset, got)
	assert.Equal(t, 1, store.Count())
}

func TestGetUnknownDataset(t *testing.T) {
	_, err := newTestStore().Get("missing")
	assert.Error(t, err)
}

func TestPutIsAppendOnly(t *testing.T) {
	store := newTestStore()
	dataset := testDataset("ds-1", "fp-1", schemaWithFields("a"))

	require.NoError(t, store.Put(dataset))
	assert.Error(t, store.Put(dataset))
}

func TestDescribeReturnsMetadataOnly(t *testing.T) {
	store := newTestStore()
	require.NoError(t, store.Put(testDataset("ds-1", "fp-1", schemaWithFields("a"))))

	info, err := store.Describe("ds-1")
	require.NoError(t, err)
	assert.Equal(t, "ds-1", info.ID)
	assert.Equal(t, "fp-1", info.SchemaFingerprint)
	assert.Equal(t, 1, info.RecordCount)
	assert.Equal(t, models.PrivacyTierLow, info.PrivacyTier)
}

func TestSchemaOverlapRatio(t *testing.T) {
	ten := schemaWithFields(fieldNames("f", 10)...)

	// 8 of 10 shared names: ratio 0.8.
	eightShared := schemaWithFields(append(fieldNames("f", 8), "x1", "x2")...)
	assert.InDelta(t, 0.8, SchemaOverlap(ten, eightShared), 1e-9)

	// 6 of 10 shared names: ratio 0.6.
	sixShared := schemaWithFields(append(fieldNames("f", 6), "x1", "x2", "x3", "x4")...)
	assert.InDelta(t, 0.6, SchemaOverlap(ten, sixShared), 1e-9)
}

func TestFindCompatibleHonorsThreshold(t *testing.T) {
	store := newTestStore()
	stored := schemaWithFields(fieldNames("f", 10)...)
	require.NoError(t, store.Put(testDataset("ds-1", "fp-stored", stored)))

	compatible := schemaWithFields(append(fieldNames("f", 8), "x1", "x2")...)
	assert.NotNil(t, store.FindCompatible(compatible, "fp-other"))

	incompatible := schemaWithFields(append(fieldNames("f", 6), "x1", "x2", "x3", "x4")...)
	assert.Nil(t, store.FindCompatible(incompatible, "fp-other"))
}

func TestFindCompatibleRecencyBeatsExactFingerprint(t *testing.T) {
	store := newTestStore()
	requested := schemaWithFields(fieldNames("f", 10)...)

	// The older dataset matches the request's fingerprint exactly; the
	// newer one shares 8 of 10 field names (ratio 0.8). Both qualify, so
	// the most recent publication must win.
	require.NoError(t, store.Put(testDataset("ds-old", "fp-req", requested)))
	overlapping := schemaWithFields(append(fieldNames("f", 8), "x1", "x2")...)
	require.NoError(t, store.Put(testDataset("ds-new", "fp-other", overlapping)))

	found := store.FindCompatible(requested, "fp-req")
	require.NotNil(t, found)
	assert.Equal(t, "ds-new", found.ID)
}

func TestFindCompatibleMatchesFingerprintBelowOverlapThreshold(t *testing.T) {
	store := newTestStore()

	// Fingerprint equality qualifies a dataset regardless of the overlap
	// ratio computed against the requested schema.
	stored := schemaWithFields("a", "b", "c")
	require.NoError(t, store.Put(testDataset("ds-1", "fp-req", stored)))

	requested := schemaWithFields(fieldNames("q", 10)...)
	found := store.FindCompatible(requested, "fp-req")
	require.NotNil(t, found)
	assert.Equal(t, "ds-1", found.ID)
}

func TestFindCompatibleReturnsMostRecent(t *testing.T) {
	store := newTestStore()
	schema := schemaWithFields("a", "b", "c")

	require.NoError(t, store.Put(testDataset("ds-old", "fp-1", schema)))
	require.NoError(t, store.Put(testDataset("ds-new", "fp-2", schema)))

	// No exact fingerprint match; the overlap scan must pick the most
	// recently published dataset.
	found := store.FindCompatible(schema, "fp-none")
	require.NotNil(t, found)
	assert.Equal(t, "ds-new", found.ID)
}

func TestFindCompatibleEmptyStore(t *testing.T) {
	assert.Nil(t, newTestStore().FindCompatible(schemaWithFields("a"), "fp"))
}
