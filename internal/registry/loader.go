package registry

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/table"
)

// fileSpec is the on-disk shape of a registry override
type fileSpec struct {
	Stages    map[string][]string `yaml:"stages" validate:"dive,keys,required,endkeys,min=1,dive,required"`
	Intervals map[string]Interval `yaml:"intervals" validate:"dive"`
	Sets      map[string][]string `yaml:"sets" validate:"dive,min=1"`
	Sequences []Sequence          `yaml:"sequences" validate:"dive"`
}

// LoadFile reads a YAML registry override and layers it on top of base.
// Stage, interval and set entries replace the base entry of the same name;
// a non-empty sequences list replaces the base list entirely.
func LoadFile(path string, base *Registry) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("failed to read registry file %s", path), err)
	}
	return Parse(data, base)
}

// Parse decodes a YAML registry override and layers it on top of base
func Parse(data []byte, base *Registry) (*Registry, error) {
	var spec fileSpec
	if err := yaml.UnmarshalStrict(data, &spec); err != nil {
		return nil, apperrors.NewConfigError("failed to parse registry file", err)
	}

	validate := validator.New()
	if err := validate.Struct(spec); err != nil {
		return nil, apperrors.NewConfigError("invalid registry file", err)
	}

	if base == nil {
		base = New(nil, Validity{}, nil)
	}

	stages := make(map[string][]string, len(base.stages)+len(spec.Stages))
	for name, cols := range base.stages {
		stages[name] = cols
	}
	for name, cols := range spec.Stages {
		stages[name] = cols
	}

	validity := base.Validity()
	for col, iv := range spec.Intervals {
		delete(validity.Sets, col)
		validity.Intervals[col] = iv
	}
	for col, raw := range spec.Sets {
		values := make([]table.Value, len(raw))
		for i, s := range raw {
			values[i] = table.String(s)
		}
		delete(validity.Intervals, col)
		validity.Sets[col] = table.InferNumeric(values)
	}

	sequences := base.sequences
	if len(spec.Sequences) > 0 {
		seen := make(map[string]bool, len(spec.Sequences))
		for _, seq := range spec.Sequences {
			if seen[seq.Column] {
				return nil, apperrors.NewConfigError(
					fmt.Sprintf("sequence column %q declared twice", seq.Column), nil)
			}
			seen[seq.Column] = true
		}
		sequences = spec.Sequences
	}

	return New(stages, validity, sequences), nil
}
