package table

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies what a Value holds
type Kind uint8

const (
	KindMissing Kind = iota
	KindString
	KindNumber
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return "missing"
	}
}

// Value is a single cell of a record table. The zero Value is Missing, which is
// distinct from every observed value including false, zero and the empty string.
type Value struct {
	kind Kind
	str  string
	num  float64
}

// Missing returns the explicit "no value" marker
func Missing() Value {
	return Value{}
}

// String wraps a raw string cell
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number wraps a numeric cell. NaN is normalised to Missing so the two never coexist.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Missing()
	}
	return Value{kind: KindNumber, num: f}
}

// Int wraps an integer cell
func Int(i int) Value {
	return Number(float64(i))
}

// Kind returns the value kind
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the value is the Missing marker
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Str returns the raw string for string values
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Float returns the numeric reading of the value. Strings that parse as a
// float count as numeric; everything else reports false.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// String renders the value for CSV output. Missing renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString:
		return v.str
	default:
		return ""
	}
}

// Equal compares two values. Missing only equals Missing; values that both
// read as numbers compare numerically ("1" equals 1), otherwise strings compare exactly.
func (v Value) Equal(o Value) bool {
	if v.IsMissing() || o.IsMissing() {
		return v.IsMissing() && o.IsMissing()
	}
	if a, ok := v.Float(); ok {
		if b, ok := o.Float(); ok {
			return a == b
		}
	}
	return v.String() == o.String()
}

// DefaultMissingMarkers are the raw cell spellings read as Missing. The literal
// "None" is deliberately absent: it is a domain sentinel handled by the coders.
var DefaultMissingMarkers = []string{"", "NaN", "nan", "NA", "N/A", "n/a", "null", "NULL", "<NA>"}

// ParseCell turns a raw text cell into a Value using the given missing markers
func ParseCell(raw string, missingMarkers []string) Value {
	trimmed := strings.TrimSpace(raw)
	for _, marker := range missingMarkers {
		if trimmed == marker {
			return Missing()
		}
	}
	return String(raw)
}

// InferNumeric converts a column to numbers when every observed cell parses as
// a float. Columns with at least one non-numeric observed cell are returned unchanged.
func InferNumeric(values []Value) []Value {
	observed := 0
	for _, v := range values {
		if v.IsMissing() {
			continue
		}
		if _, ok := v.Float(); !ok {
			return values
		}
		observed++
	}
	if observed == 0 {
		return values
	}
	out := make([]Value, len(values))
	for i, v := range values {
		if f, ok := v.Float(); ok {
			out[i] = Number(f)
		}
	}
	return out
}
