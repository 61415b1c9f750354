package registry

import (
	"fmt"
	"sort"
	"strconv"

	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/table"
)

// Derived covariate column names
const (
	AgeColumn            = "age"
	TimeSinceOnsetColumn = "time_since_onset"
)

// Interval is an open numeric range: both bounds are excluded
type Interval struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max" validate:"gtfield=Min"`
}

// Contains reports whether v lies strictly between Min and Max
func (i Interval) Contains(v float64) bool {
	return i.Min < v && v < i.Max
}

// Sequence declares a packed boolean sequence column and its expected length
type Sequence struct {
	Column string `yaml:"column" validate:"required"`
	Length int    `yaml:"length" validate:"min=1"`
}

// OutputColumns returns the indicator column names, <column>-1 .. <column>-N
func (s Sequence) OutputColumns() []string {
	out := make([]string, s.Length)
	for i := range out {
		out[i] = IndicatorColumn(s.Column, i+1)
	}
	return out
}

// IndicatorColumn names the decoded indicator for a 1-based sequence position
func IndicatorColumn(base string, position int) string {
	return base + "-" + strconv.Itoa(position)
}

// Validity maps columns to their legal values. A column is either an interval
// column or a set column.
type Validity struct {
	Intervals map[string]Interval
	Sets      map[string][]table.Value
}

// Registry bundles the static lookups the preprocessing pipeline is configured
// with. A Registry is immutable after construction: accessors hand out copies.
type Registry struct {
	stages    map[string][]string
	validity  Validity
	sequences []Sequence
}

// StageColumns resolves a stage name to its column list. Unknown stages are a
// configuration error.
func (r *Registry) StageColumns(stage string) ([]string, error) {
	cols, ok := r.stages[stage]
	if !ok {
		return nil, apperrors.NewConfigError(
			fmt.Sprintf("unknown stage %q, available stages are %v", stage, r.Stages()), nil).
			WithContext("stage", stage)
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out, nil
}

// Stages returns the known stage names, sorted
func (r *Registry) Stages() []string {
	names := make([]string, 0, len(r.stages))
	for name := range r.stages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validity returns a copy of the validity specification
func (r *Registry) Validity() Validity {
	v := Validity{
		Intervals: make(map[string]Interval, len(r.validity.Intervals)),
		Sets:      make(map[string][]table.Value, len(r.validity.Sets)),
	}
	for col, iv := range r.validity.Intervals {
		v.Intervals[col] = iv
	}
	for col, set := range r.validity.Sets {
		cp := make([]table.Value, len(set))
		copy(cp, set)
		v.Sets[col] = cp
	}
	return v
}

// Sequences returns the declared packed sequence columns in declaration order
func (r *Registry) Sequences() []Sequence {
	out := make([]Sequence, len(r.sequences))
	copy(out, r.sequences)
	return out
}

// New builds a registry from explicit tables. Inputs are copied.
func New(stages map[string][]string, validity Validity, sequences []Sequence) *Registry {
	r := &Registry{
		stages:    make(map[string][]string, len(stages)),
		sequences: make([]Sequence, len(sequences)),
	}
	for name, cols := range stages {
		cp := make([]string, len(cols))
		copy(cp, cols)
		r.stages[name] = cp
	}
	copy(r.sequences, sequences)
	r.validity = (&Registry{validity: validity}).Validity()
	return r
}
