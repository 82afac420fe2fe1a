package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/MateuszOrski/ProjektParking/internal/alpr"
	"github.com/MateuszOrski/ProjektParking/internal/domain"
)

type fakePipeline struct {
	results []alpr.Result
	err     error
	panic   any
	got     image.Image
}

func (f *fakePipeline) Name() string { return "fake" }

func (f *fakePipeline) Predict(_ context.Context, img image.Image) ([]alpr.Result, error) {
	f.got = img
	if f.panic != nil {
		panic(f.panic)
	}
	return f.results, f.err
}

type rectDetection struct{ r image.Rectangle }

func (d rectDetection) BoundingBox() image.Rectangle { return d.r }

type capturePublisher struct {
	events chan domain.RecognitionEvent
	err    error
}

func (c *capturePublisher) Publish(_ context.Context, event domain.RecognitionEvent) error {
	c.events <- event
	return c.err
}

func encodedPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 200, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	test.That(t, png.Encode(&buf, img), test.ShouldBeNil)
	return buf.Bytes()
}

func TestPredictInvalidInput(t *testing.T) {
	s := NewLPRService(&fakePipeline{}, nil, "det", "ocr")
	for _, data := range [][]byte{nil, []byte("definitely not an image"), encodedPNG(t, 4, 4)[:20]} {
		_, err := s.Predict(context.Background(), PredictRequest{Data: data})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeTrue)
	}
}

// withDimensions rewrites the IHDR of an encoded PNG so its header claims
// w x h pixels while the file stays tiny.
func withDimensions(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := append([]byte(nil), data...)
	test.That(t, string(out[12:16]), test.ShouldEqual, "IHDR")
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestPredictRejectsOversizedImage(t *testing.T) {
	p := &fakePipeline{}
	s := NewLPRService(p, nil, "det", "ocr")

	bomb := withDimensions(t, encodedPNG(t, 1, 1), 8000, 8000)
	test.That(t, len(bomb), test.ShouldBeLessThan, 1024)

	_, err := s.Predict(context.Background(), PredictRequest{Data: bomb})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "pixel limit")
	test.That(t, p.got, test.ShouldBeNil)
}

func TestPredictConfiguredPixelLimit(t *testing.T) {
	p := &fakePipeline{}
	s := NewLPRService(p, nil, "det", "ocr").WithMaxImagePixels(100)

	_, err := s.Predict(context.Background(), PredictRequest{Data: encodedPNG(t, 11, 10)})
	test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeTrue)
	test.That(t, p.got, test.ShouldBeNil)

	_, err = s.Predict(context.Background(), PredictRequest{Data: encodedPNG(t, 10, 10)})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.got, test.ShouldNotBeNil)

	s.WithMaxImagePixels(0)
	_, err = s.Predict(context.Background(), PredictRequest{Data: encodedPNG(t, 64, 64)})
	test.That(t, err, test.ShouldBeNil)
}

func TestPredictModelNotLoaded(t *testing.T) {
	s := NewLPRService(nil, nil, "det", "ocr")
	test.That(t, s.Ready(), test.ShouldBeFalse)

	_, err := s.Predict(context.Background(), PredictRequest{Data: encodedPNG(t, 8, 8)})
	test.That(t, errors.Is(err, ErrModelNotLoaded), test.ShouldBeTrue)

	// A bad upload is still reported as bad input.
	_, err = s.Predict(context.Background(), PredictRequest{Data: []byte("junk")})
	test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeTrue)
}

func TestPredictShapesResults(t *testing.T) {
	p := &fakePipeline{results: []alpr.Result{
		{Detection: rectDetection{image.Rect(10, 20, 90, 40)}, OCR: alpr.OCRResult{Text: "WA12345", Confidence: 0.91}},
		{Detection: struct{ XYXY [4]int }{[4]int{1, 2, 3, 4}}, OCR: alpr.OCRResult{Text: "KR1AB23", Confidence: 1.7}},
		{Detection: nil, OCR: alpr.OCRResult{Text: "GD0001", Confidence: -2}},
	}}
	s := NewLPRService(p, nil, "det", "ocr")

	var buf bytes.Buffer
	test.That(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 32, 16)), nil), test.ShouldBeNil)

	resp, err := s.Predict(context.Background(), PredictRequest{Data: buf.Bytes()})
	test.That(t, err, test.ShouldBeNil)
	_, isNRGBA := p.got.(*image.NRGBA)
	test.That(t, isNRGBA, test.ShouldBeTrue)

	test.That(t, resp.Results, test.ShouldResemble, []domain.PlateResult{
		{Plate: "WA12345", Confidence: 0.91, Box: []float64{10, 20, 90, 40}},
		{Plate: "KR1AB23", Confidence: 1, Box: []float64{1, 2, 3, 4}},
		{Plate: "GD0001", Confidence: 0, Box: []float64{}},
	})
}

func TestPredictNoPlates(t *testing.T) {
	s := NewLPRService(&fakePipeline{}, nil, "det", "ocr")
	resp, err := s.Predict(context.Background(), PredictRequest{Data: encodedPNG(t, 16, 16)})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.Results, test.ShouldNotBeNil)
	test.That(t, resp.Results, test.ShouldBeEmpty)
}

func TestPredictPipelineFailure(t *testing.T) {
	s := NewLPRService(&fakePipeline{err: errors.New("CUDA out of memory")}, nil, "det", "ocr")
	_, err := s.Predict(context.Background(), PredictRequest{Data: encodedPNG(t, 16, 16)})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrInvalidInput), test.ShouldBeFalse)
	test.That(t, errors.Is(err, ErrModelNotLoaded), test.ShouldBeFalse)
	test.That(t, err.Error(), test.ShouldContainSubstring, "CUDA out of memory")
}

func TestPredictRecoversPanic(t *testing.T) {
	s := NewLPRService(&fakePipeline{panic: "index out of range"}, nil, "det", "ocr")
	resp, err := s.Predict(context.Background(), PredictRequest{Data: encodedPNG(t, 16, 16)})
	test.That(t, resp, test.ShouldBeNil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "index out of range")
}

func TestPredictPublishesEvent(t *testing.T) {
	pub := &capturePublisher{events: make(chan domain.RecognitionEvent, 1), err: errors.New("queue down")}
	p := &fakePipeline{results: []alpr.Result{
		{Detection: rectDetection{image.Rect(0, 0, 4, 4)}, OCR: alpr.OCRResult{Text: "PO1234A", Confidence: 0.8}},
	}}
	s := NewLPRService(p, pub, "det", "ocr")

	resp, err := s.Predict(context.Background(), PredictRequest{RequestID: "req-1", Filename: "Cars201.png", Data: encodedPNG(t, 16, 16)})
	test.That(t, err, test.ShouldBeNil)

	select {
	case ev := <-pub.events:
		test.That(t, ev.EventID, test.ShouldNotBeEmpty)
		test.That(t, ev.RequestID, test.ShouldEqual, "req-1")
		test.That(t, ev.Filename, test.ShouldEqual, "Cars201.png")
		test.That(t, ev.Engine, test.ShouldEqual, "fake")
		test.That(t, ev.Results, test.ShouldResemble, resp.Results)
	case <-time.After(5 * time.Second):
		t.Fatal("no event published")
	}
}

func TestHealth(t *testing.T) {
	h := NewLPRService(nil, nil, "det", "ocr").Health()
	test.That(t, h, test.ShouldResemble, domain.HealthResponse{
		Status: domain.HealthDegraded, DetectorModel: "det", OCRModel: "ocr",
	})

	h = NewLPRService(&fakePipeline{}, nil, "det", "ocr").Health()
	test.That(t, h.Status, test.ShouldEqual, domain.HealthOK)
	test.That(t, h.ModelLoaded, test.ShouldBeTrue)
	test.That(t, h.Engine, test.ShouldEqual, "fake")
}
