package alpr

import (
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/MateuszOrski/ProjektParking/internal/config"
)

func TestPlateFilter(t *testing.T) {
	f, err := NewPlateFilter(config.DefaultPlatePattern, 0.5)
	test.That(t, err, test.ShouldBeNil)

	tests := []struct {
		text       string
		confidence float64
		want       string
		ok         bool
	}{
		{"WA 12345", 0.9, "WA12345", true},
		{"kr-1ab23", 0.8, "KR1AB23", true},
		{"29A-123.45", 0.7, "29A12345", true},
		{"PARKING", 0.99, "", false},
		{"12", 0.99, "", false},
		{"WA 12345", 0.2, "", false},
		{"ABCDEFGHIJK1", 0.9, "", false},
	}
	for _, tt := range tests {
		got, ok := f.Accept(tt.text, tt.confidence)
		test.That(t, ok, test.ShouldEqual, tt.ok)
		test.That(t, got, test.ShouldEqual, tt.want)
	}
}

func TestNewPlateFilterBadPattern(t *testing.T) {
	_, err := NewPlateFilter("([", 0)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "compile plate pattern")
}

func TestClampConfidence(t *testing.T) {
	test.That(t, ClampConfidence(-0.1), test.ShouldEqual, 0.0)
	test.That(t, ClampConfidence(0.42), test.ShouldEqual, 0.42)
	test.That(t, ClampConfidence(97), test.ShouldEqual, 1.0)
	test.That(t, ClampConfidence(math.NaN()), test.ShouldEqual, 0.0)
}
