package preprocessing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/GravO8/mrs-dl/internal/errors"
	"github.com/GravO8/mrs-dl/internal/table"
)

// ErrMissingValue marks a cell that carries no date: absent, "None" or "0"
var ErrMissingValue = errors.New("missing value")

// Sentinels used by the trial export
const (
	NoneSentinel = "None"
	ZeroSentinel = "0"
	TrueToken    = "true"
)

// dateTimePrefix is the length of "2006-01-02 15:04:05"; anything after it is discarded
const dateTimePrefix = 19

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15",
	"2006-01-02T15",
	"2006-01-02",
}

// IsNoneSentinel reports whether v is Missing or the literal "None"
func IsNoneSentinel(v table.Value) bool {
	if v.IsMissing() {
		return true
	}
	s, ok := v.Str()
	return ok && strings.TrimSpace(s) == NoneSentinel
}

// ParseDate reads an ISO date-time cell. Missing, "None" and "0" return
// ErrMissingValue; fractional seconds and zone suffixes are dropped.
func ParseDate(raw table.Value) (time.Time, error) {
	if IsNoneSentinel(raw) {
		return time.Time{}, ErrMissingValue
	}
	if f, ok := raw.Float(); ok && f == 0 {
		return time.Time{}, ErrMissingValue
	}

	s, ok := raw.Str()
	if !ok {
		return time.Time{}, apperrors.NewParsingError(fmt.Sprintf("date cell %q is not text", raw.String()), nil)
	}
	s = strings.TrimSpace(s)
	if s == ZeroSentinel {
		return time.Time{}, ErrMissingValue
	}
	if len(s) > dateTimePrefix {
		s = s[:dateTimePrefix]
	}

	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, apperrors.NewParsingError(fmt.Sprintf("invalid date %q", s), lastErr)
}

// ParseBooleanToken reports whether token spells "true" once whitespace is
// removed and case folded. Every other token, empty included, is false.
func ParseBooleanToken(token string) bool {
	return strings.ToLower(strings.Join(strings.Fields(token), "")) == TrueToken
}
