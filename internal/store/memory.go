package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
)

// MemoryStore keeps everything in process memory. It backs the server when
// no database is configured and serves as the store in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	datasets map[uuid.UUID]*Dataset
	records  map[uuid.UUID][]dataset.Record
	runs     map[uuid.UUID]*AnalysisRun
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		datasets: make(map[uuid.UUID]*Dataset),
		records:  make(map[uuid.UUID][]dataset.Record),
		runs:     make(map[uuid.UUID]*AnalysisRun),
		now:      time.Now,
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateDataset(ctx context.Context, ds *Dataset, records []dataset.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ds.ID == uuid.Nil {
		ds.ID = uuid.New()
	}
	ds.RecordCount = len(records)
	ds.CreatedAt = s.now().UTC()

	cp := *ds
	s.datasets[ds.ID] = &cp
	s.records[ds.ID] = append([]dataset.Record(nil), records...)
	return nil
}

func (s *MemoryStore) GetDataset(ctx context.Context, id uuid.UUID) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[id]
	if !ok {
		return nil, nil
	}
	cp := *ds
	return &cp, nil
}

func (s *MemoryStore) ListDatasets(ctx context.Context) ([]*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		cp := *ds
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemoryStore) GetDatasetRecords(ctx context.Context, id uuid.UUID) ([]dataset.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return append([]dataset.Record{}, records...), nil
}

func (s *MemoryStore) DeleteDataset(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.datasets, id)
	delete(s.records, id)
	for _, run := range s.runs {
		if run.DatasetID != nil && *run.DatasetID == id {
			run.DatasetID = nil
		}
	}
	return nil
}

func (s *MemoryStore) CreateRun(ctx context.Context, run *AnalysisRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now().UTC()
	}
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *MemoryStore) GetRun(ctx context.Context, id uuid.UUID) (*AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, nil
	}
	cp := *run
	return &cp, nil
}

func (s *MemoryStore) ListRuns(ctx context.Context, filter RunFilter) ([]*AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*AnalysisRun, 0)
	for _, run := range s.runs {
		if filter.DatasetID != nil && (run.DatasetID == nil || *run.DatasetID != *filter.DatasetID) {
			continue
		}
		cp := *run
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*AnalysisRun{}, nil
		}
		out = out[filter.Offset:]
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
