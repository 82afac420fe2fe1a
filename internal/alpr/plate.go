package alpr

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// PlateFilter decides which OCR reads look like license plates. Engines that
// return arbitrary text (general purpose OCR) run every read through it.
type PlateFilter struct {
	pattern       *regexp.Regexp
	minConfidence float64
}

func NewPlateFilter(pattern string, minConfidence float64) (*PlateFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "compile plate pattern %q", pattern)
	}
	return &PlateFilter{pattern: re, minConfidence: minConfidence}, nil
}

var plateSeparators = strings.NewReplacer(" ", "", ".", "", "-", "", "\n", "", "\t", "")

// NormalizePlate uppercases text and strips the separators plates are printed with.
func NormalizePlate(text string) string {
	return plateSeparators.Replace(strings.ToUpper(strings.TrimSpace(text)))
}

// Accept reports whether a read is a plate and returns its normalized text.
// confidence is expected in [0,1].
func (f *PlateFilter) Accept(text string, confidence float64) (string, bool) {
	if confidence < f.minConfidence {
		return "", false
	}
	plate := NormalizePlate(text)
	if !strings.ContainsAny(plate, "0123456789") {
		return "", false
	}
	if !f.pattern.MatchString(plate) {
		return "", false
	}
	return plate, true
}

// ClampConfidence forces a score into [0,1].
func ClampConfidence(c float64) float64 {
	switch {
	case c != c: // NaN
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
