package preprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/registry"
	"github.com/GravO8/mrs-dl/internal/table"
)

// SequenceSeparator splits a packed boolean sequence
const SequenceSeparator = ","

// minDistinctWithGaps is the number of distinct observed values an indicator
// column with missing entries needs to be kept
const minDistinctWithGaps = 3

// SequenceDecoder expands packed boolean sequence columns into one 0/1
// indicator column per position
type SequenceDecoder struct {
	logger    *slog.Logger
	sequences []registry.Sequence
	keep      map[string]bool
}

// NewSequenceDecoder creates a decoder for the declared sequences. Only
// sequences with at least one output column in keep are decoded.
func NewSequenceDecoder(logger *slog.Logger, sequences []registry.Sequence, keep []string) *SequenceDecoder {
	if logger == nil {
		logger = slog.Default()
	}
	keepSet := make(map[string]bool, len(keep))
	for _, col := range keep {
		keepSet[col] = true
	}
	seqs := make([]registry.Sequence, len(sequences))
	copy(seqs, sequences)
	return &SequenceDecoder{
		logger:    logger,
		sequences: seqs,
		keep:      keepSet,
	}
}

// ID returns the stage ID
func (d *SequenceDecoder) ID() string { return "decode_sequences" }

// Apply decodes every requested sequence in declaration order
func (d *SequenceDecoder) Apply(ctx context.Context, t *table.Table, state *StageState) (*table.Table, error) {
	decoded, pruned := 0, 0
	for _, seq := range d.sequences {
		if !d.requested(seq) {
			continue
		}
		if !t.Has(seq.Column) {
			return nil, apperrors.NewConfigError(
				fmt.Sprintf("sequence column %s is missing from the table", seq.Column), table.ErrColumnNotFound).
				WithContext("stage", d.ID())
		}

		raw, _ := t.Column(seq.Column)
		indicators, corrupt := DecodeSequence(raw, seq.Length)
		state.AddNullified(seq.Column, corrupt)

		if err := t.DropColumn(seq.Column); err != nil {
			return nil, err
		}

		for i, name := range seq.OutputColumns() {
			if !KeepIndicator(indicators[i]) {
				state.AddDropped(name)
				pruned++
				d.logger.DebugContext(ctx, "Indicator column pruned",
					slog.String("column", name))
				continue
			}
			if err := t.SetColumn(name, indicators[i]); err != nil {
				return nil, err
			}
		}
		decoded++
	}

	if decoded == 0 {
		state.Skip("no packed sequence requested")
	}

	d.logger.DebugContext(ctx, "Sequences decoded",
		slog.Int("decoded", decoded),
		slog.Int("pruned", pruned))

	return t, nil
}

func (d *SequenceDecoder) requested(seq registry.Sequence) bool {
	for _, name := range seq.OutputColumns() {
		if d.keep[name] {
			return true
		}
	}
	return false
}

// DecodeSequence splits each packed cell into length 0/1 values. Cells that are
// missing, "None", or split into the wrong number of tokens yield Missing at
// every position. It returns the indicator columns and the count of non-missing
// cells that were rejected for their length.
func DecodeSequence(raw []table.Value, length int) ([][]table.Value, int) {
	out := make([][]table.Value, length)
	for i := range out {
		out[i] = make([]table.Value, len(raw))
	}

	corrupt := 0
	for row, v := range raw {
		if IsNoneSentinel(v) {
			continue
		}
		tokens := strings.Split(v.String(), SequenceSeparator)
		if len(tokens) != length {
			corrupt++
			continue
		}
		for i, tok := range tokens {
			if ParseBooleanToken(tok) {
				out[i][row] = table.Int(1)
			} else {
				out[i][row] = table.Int(0)
			}
		}
	}
	return out, corrupt
}

// KeepIndicator applies the retention rule: fully observed columns are always
// kept; columns with gaps need at least three distinct observed values.
func KeepIndicator(values []table.Value) bool {
	missing := false
	distinct := make(map[string]struct{})
	for _, v := range values {
		if v.IsMissing() {
			missing = true
			continue
		}
		distinct[v.String()] = struct{}{}
	}
	if !missing {
		return true
	}
	return len(distinct) >= minDistinctWithGaps
}
