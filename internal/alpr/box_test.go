package alpr

import (
	"image"
	"math"
	"testing"

	"go.viam.com/test"
)

type methodBoundingBox struct{ r image.Rectangle }

func (d methodBoundingBox) BoundingBox() image.Rectangle { return d.r }

// Exposes both; BoundingBox must win.
type bothAccessors struct {
	Box []float64
}

func (d *bothAccessors) BoundingBox() *image.Rectangle {
	r := image.Rect(1, 2, 3, 4)
	return &r
}

type fieldBox struct {
	Box [4]float32
}

type methodXYXY struct{ v []int }

func (d methodXYXY) XYXY() []int { return d.v }

type unexportedBox struct {
	box []float64 //nolint:unused
}

type noBox struct {
	Score float64
}

type nilBoundingBox struct{}

func (d *nilBoundingBox) BoundingBox() *image.Rectangle { return nil }

func TestExtractBoxFallbackChain(t *testing.T) {
	tests := []struct {
		name      string
		detection any
		want      []float64
	}{
		{"bounding box method", methodBoundingBox{image.Rect(10, 20, 110, 60)}, []float64{10, 20, 110, 60}},
		{"bounding box preferred over box", &bothAccessors{Box: []float64{9, 9, 9, 9}}, []float64{1, 2, 3, 4}},
		{"box field", fieldBox{Box: [4]float32{1.5, 2.5, 3.5, 4.5}}, []float64{1.5, 2.5, 3.5, 4.5}},
		{"box field through pointer", &fieldBox{Box: [4]float32{1, 2, 3, 4}}, []float64{1, 2, 3, 4}},
		{"xyxy method", methodXYXY{[]int{5, 6, 7, 8}}, []float64{5, 6, 7, 8}},
		{"unexported field ignored", unexportedBox{}, []float64{}},
		{"no accessor", noBox{Score: 0.9}, []float64{}},
		{"nil detection", nil, []float64{}},
		{"nil pointer detection", (*fieldBox)(nil), []float64{}},
		{"accessor present but nil", &nilBoundingBox{}, []float64{}},
		{"wrong length", methodXYXY{[]int{1, 2, 3}}, []float64{}},
		{"map detection", map[string]any{"box": []float64{1, 2, 3, 4}}, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractBox(tt.detection)
			test.That(t, got, test.ShouldNotBeNil)
			test.That(t, got, test.ShouldResemble, tt.want)
		})
	}
}

func TestNormalizeBox(t *testing.T) {
	test.That(t, NormalizeBox(image.Rect(0, 0, 5, 5)), test.ShouldResemble, []float64{0, 0, 5, 5})
	test.That(t, NormalizeBox([]any{1, 2.5, uint8(3), int64(4)}), test.ShouldResemble, []float64{1, 2.5, 3, 4})
	test.That(t, NormalizeBox([]any{1, "2", 3, 4}), test.ShouldResemble, []float64{})
	test.That(t, NormalizeBox("1,2,3,4"), test.ShouldResemble, []float64{})
	test.That(t, NormalizeBox([]float64{1, 2, 3, 4, 5}), test.ShouldResemble, []float64{})

	test.That(t, NormalizeBox([]float64{math.NaN(), 1, 2, 3}), test.ShouldResemble, []float64{})
	test.That(t, NormalizeBox([]float64{0, 1, 2, math.Inf(1)}), test.ShouldResemble, []float64{})
	test.That(t, NormalizeBox([]any{0, float32(math.Inf(-1)), 2, 3}), test.ShouldResemble, []float64{})
	test.That(t, NormalizeBox([4]float64{1, math.NaN(), 3, 4}), test.ShouldResemble, []float64{})

	arr := [4]float64{4, 3, 2, 1}
	test.That(t, NormalizeBox(&arr), test.ShouldResemble, []float64{4, 3, 2, 1})

	in := []float64{1, 2, 3, 4}
	out := NormalizeBox(in)
	out[0] = 100
	test.That(t, in[0], test.ShouldEqual, 1.0)
}
