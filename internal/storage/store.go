package storage

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/BathSalt-2/Neur1genesis/pkg/errors"
	"github.com/BathSalt-2/Neur1genesis/pkg/models"
)

// CompatibilityThreshold is the minimum field-name overlap ratio for two
// schemas to be considered compatible.
const CompatibilityThreshold = 0.7

// DatasetStore is an append-only store of anonymized datasets. Published
// datasets are never mutated. Reads share an RLock; a write holds the
// exclusive lock only long enough to insert the entry.
type DatasetStore struct {
	mu       sync.RWMutex
	datasets map[string]*models.AnonymizedDataset
	order    []string
	logger   *logrus.Logger
}

// NewDatasetStore creates an empty store.
func NewDatasetStore(logger *logrus.Logger) *DatasetStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &DatasetStore{
		datasets: make(map[string]*models.AnonymizedDataset),
		logger:   logger,
	}
}

// Put publishes a dataset. IDs are write-once; republishing is an error.
func (s *DatasetStore) Put(dataset *models.AnonymizedDataset) error {
	if dataset == nil || dataset.ID == "" {
		return errors.NewStorageError(errors.CodeInternalError, "dataset must have an id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.datasets[dataset.ID]; exists {
		return errors.NewStorageError(errors.CodeInternalError,
			"dataset id already published").WithContext("dataset_id", dataset.ID)
	}

	s.datasets[dataset.ID] = dataset
	s.order = append(s.order, dataset.ID)

	s.logger.WithFields(logrus.Fields{
		"dataset_id":  dataset.ID,
		"fingerprint": dataset.SchemaFingerprint,
		"records":     len(dataset.Records),
	}).Info("dataset published")

	return nil
}

// Get returns a dataset by id.
func (s *DatasetStore) Get(id string) (*models.AnonymizedDataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dataset, ok := s.datasets[id]
	if !ok {
		return nil, errors.NewStorageError(errors.CodeDatasetNotFound,
			"dataset not found").WithContext("dataset_id", id)
	}
	return dataset, nil
}

// Describe returns metadata only, never record values.
func (s *DatasetStore) Describe(id string) (*models.DatasetInfo, error) {
	dataset, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return &models.DatasetInfo{
		ID:                dataset.ID,
		SchemaFingerprint: dataset.SchemaFingerprint,
		RecordCount:       len(dataset.Records),
		PrivacyTier:       dataset.PrivacyTier,
		CreatedAt:         dataset.CreatedAt,
	}, nil
}

// FindCompatible returns the most recently published dataset whose schema
// field names overlap the requested schema at or above the threshold, or
// nil when none qualifies. An exact fingerprint match qualifies like any
// other compatible dataset; recency always decides between candidates.
func (s *DatasetStore) FindCompatible(schema models.DatasetSchema, fingerprint string) *models.AnonymizedDataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Scan newest-first so the most recent publication wins.
	for i := len(s.order) - 1; i >= 0; i-- {
		candidate := s.datasets[s.order[i]]
		if candidate.SchemaFingerprint == fingerprint ||
			SchemaOverlap(schema, candidate.Schema) >= CompatibilityThreshold {
			return candidate
		}
	}
	return nil
}

// Count returns the number of published datasets.
func (s *DatasetStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}

// SchemaOverlap computes the field-name overlap ratio between two
// schemas: |common| / max(|a|, |b|).
func SchemaOverlap(a, b models.DatasetSchema) float64 {
	if len(a.Fields) == 0 || len(b.Fields) == 0 {
		return 0
	}

	names := make(map[string]struct{}, len(a.Fields))
	for _, f := range a.Fields {
		names[f.Name] = struct{}{}
	}

	common := 0
	for _, f := range b.Fields {
		if _, ok := names[f.Name]; ok {
			common++
		}
	}

	larger := len(a.Fields)
	if len(b.Fields) > larger {
		larger = len(b.Fields)
	}
	return float64(common) / float64(larger)
}
