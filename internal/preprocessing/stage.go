package preprocessing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GravO8/mrs-dl/internal/table"
)

// Stage is one step of the preprocessing chain. Apply takes ownership of the
// table it receives and returns the table the next stage should see; it may be
// the same table mutated in place.
type Stage interface {
	// ID returns the unique identifier for this stage
	ID() string

	// Apply runs the stage, recording row-level degradations on state
	Apply(ctx context.Context, t *table.Table, state *StageState) (*table.Table, error)
}

// StageStatus represents the current status of a stage
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusActive    StageStatus = "active"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
	StageStatusSkipped   StageStatus = "skipped"
)

// StageState represents the runtime state of a stage
type StageState struct {
	mu         sync.RWMutex
	ID         string         `json:"id"`
	Status     StageStatus    `json:"status"`
	StartTime  *time.Time     `json:"start_time,omitempty"`
	EndTime    *time.Time     `json:"end_time,omitempty"`
	RowsIn     int            `json:"rows_in"`
	RowsOut    int            `json:"rows_out"`
	ColumnsIn  int            `json:"columns_in"`
	ColumnsOut int            `json:"columns_out"`
	Message    string         `json:"message,omitempty"`
	Error      error          `json:"error,omitempty"`
	Nullified  map[string]int `json:"nullified,omitempty"`
	Dropped    []string       `json:"dropped,omitempty"`
}

// NewStageState creates a pending stage state
func NewStageState(id string) *StageState {
	return &StageState{
		ID:        id,
		Status:    StageStatusPending,
		Nullified: make(map[string]int),
	}
}

// Start marks the stage as active and records the input shape
func (s *StageState) Start(t *table.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.Status = StageStatusActive
	if t != nil {
		s.RowsIn, s.ColumnsIn = t.NumRows(), t.NumColumns()
	}
}

// Complete marks the stage as completed and records the output shape. A stage
// that skipped itself during Apply stays skipped.
func (s *StageState) Complete(t *table.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	if s.Status != StageStatusSkipped {
		s.Status = StageStatusCompleted
	}
	if t != nil {
		s.RowsOut, s.ColumnsOut = t.NumRows(), t.NumColumns()
	}
}

// Fail marks the stage as failed with the given error
func (s *StageState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StageStatusFailed
	s.Error = err
}

// Skip marks the stage as skipped with the given reason
func (s *StageState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StageStatusSkipped
	s.Message = reason
}

// SetMessage records a human readable summary of the stage outcome
func (s *StageState) SetMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Message = msg
}

// AddNullified counts n observed values of column degraded to Missing
func (s *StageState) AddNullified(column string, n int) {
	if n == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Nullified[column] += n
}

// AddDropped records a column the stage decided not to keep
func (s *StageState) AddDropped(column string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Dropped = append(s.Dropped, column)
}

// NullifiedTotal sums the nullified counts over all columns
func (s *StageState) NullifiedTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, n := range s.Nullified {
		total += n
	}
	return total
}

// NullifiedColumns returns the columns with nullified values, sorted
func (s *StageState) NullifiedColumns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cols := make([]string, 0, len(s.Nullified))
	for col := range s.Nullified {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// Duration returns the duration of the stage execution
func (s *StageState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// Report lists the state of every stage of one run, in execution order
type Report struct {
	Stages []*StageState
}

// Stage returns the state recorded for id
func (r *Report) Stage(id string) (*StageState, bool) {
	for _, s := range r.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Chain is an ordered list of uniquely named stages
type Chain struct {
	stages []Stage
	ids    map[string]bool
}

// NewChain creates an empty chain
func NewChain() *Chain {
	return &Chain{ids: make(map[string]bool)}
}

// Add appends a stage to the chain
func (c *Chain) Add(stage Stage) error {
	if stage == nil {
		return fmt.Errorf("cannot add nil stage")
	}

	id := stage.ID()
	if id == "" {
		return fmt.Errorf("stage ID cannot be empty")
	}
	if c.ids[id] {
		return fmt.Errorf("stage with ID %s already added", id)
	}

	c.ids[id] = true
	c.stages = append(c.stages, stage)
	return nil
}

// IDs returns the stage IDs in execution order
func (c *Chain) IDs() []string {
	ids := make([]string, len(c.stages))
	for i, s := range c.stages {
		ids[i] = s.ID()
	}
	return ids
}
