package experiment

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/GravO8/mrs-dl/pkg/contracts/domain"
)

// ErrDuplicateRecord is returned when a (config, fold) pair is recorded twice
var ErrDuplicateRecord = errors.New("performance record already exists")

type recordKey struct {
	config string
	fold   int
}

// Store keeps one performance record per (config, fold). Records are
// write-once and the store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records map[recordKey]domain.PerformanceRecord
	configs []string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{records: make(map[recordKey]domain.PerformanceRecord)}
}

// Add stores rec. A second record for the same (config, fold) is rejected.
func (s *Store) Add(rec domain.PerformanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{config: rec.Config, fold: rec.Fold}
	if _, exists := s.records[key]; exists {
		return fmt.Errorf("%w: %s fold %d", ErrDuplicateRecord, rec.Config, rec.Fold)
	}
	if !s.hasConfig(rec.Config) {
		s.configs = append(s.configs, rec.Config)
	}
	s.records[key] = rec
	return nil
}

func (s *Store) hasConfig(config string) bool {
	for _, c := range s.configs {
		if c == config {
			return true
		}
	}
	return false
}

// Get returns the record of (config, fold)
func (s *Store) Get(config string, fold int) (domain.PerformanceRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordKey{config: config, fold: fold}]
	return rec, ok
}

// Len returns the number of records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Configs returns the recorded configuration names in first-recorded order
func (s *Store) Configs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.configs...)
}

// Records returns every record ordered by config (first-recorded order), then fold
func (s *Store) Records() []domain.PerformanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order := make(map[string]int, len(s.configs))
	for i, c := range s.configs {
		order[c] = i
	}
	out := make([]domain.PerformanceRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Config != out[j].Config {
			return order[out[i].Config] < order[out[j].Config]
		}
		return out[i].Fold < out[j].Fold
	})
	return out
}

// Paired returns, for the folds every one of configs has a record for, the
// named metric per config in fold order. With no configs all recorded
// configurations are paired.
func (s *Store) Paired(metric string, configs ...string) ([]int, map[string][]float64, error) {
	if len(configs) == 0 {
		configs = s.Configs()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int]int)
	for key := range s.records {
		for _, c := range configs {
			if key.config == c {
				counts[key.fold]++
			}
		}
	}
	var folds []int
	for fold, n := range counts {
		if n == len(configs) {
			folds = append(folds, fold)
		}
	}
	sort.Ints(folds)

	values := make(map[string][]float64, len(configs))
	for _, c := range configs {
		series := make([]float64, len(folds))
		for i, fold := range folds {
			v, err := s.records[recordKey{config: c, fold: fold}].Metrics.Value(metric)
			if err != nil {
				return nil, nil, err
			}
			series[i] = v
		}
		values[c] = series
	}
	return folds, values, nil
}
