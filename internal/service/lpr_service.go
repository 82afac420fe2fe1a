package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/MateuszOrski/ProjektParking/internal/alpr"
	"github.com/MateuszOrski/ProjektParking/internal/domain"
)

// EventPublisher receives a RecognitionEvent after every successful prediction.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.RecognitionEvent) error
}

type PredictRequest struct {
	RequestID string
	Filename  string
	Data      []byte
}

type LPRService struct {
	pipeline      alpr.Pipeline // nil when the model failed to load
	events        EventPublisher
	detectorModel string
	ocrModel      string
	maxPixels     int64
	now           func() time.Time
}

// NewLPRService wraps a loaded pipeline. pipeline may be nil, in which case
// every prediction fails with ErrModelNotLoaded; events may be nil.
func NewLPRService(pipeline alpr.Pipeline, events EventPublisher, detectorModel, ocrModel string) *LPRService {
	return &LPRService{
		pipeline:      pipeline,
		events:        events,
		detectorModel: detectorModel,
		ocrModel:      ocrModel,
		maxPixels:     DefaultMaxImagePixels,
		now:           time.Now,
	}
}

// WithMaxImagePixels overrides the decoded size limit; n <= 0 disables it.
func (s *LPRService) WithMaxImagePixels(n int64) *LPRService {
	s.maxPixels = n
	return s
}

func (s *LPRService) Ready() bool { return s.pipeline != nil }

func (s *LPRService) Health() domain.HealthResponse {
	h := domain.HealthResponse{
		Status:        domain.HealthDegraded,
		ModelLoaded:   s.Ready(),
		DetectorModel: s.detectorModel,
		OCRModel:      s.ocrModel,
	}
	if s.pipeline != nil {
		h.Status = domain.HealthOK
		h.Engine = s.pipeline.Name()
	}
	return h
}

// Predict decodes the upload, runs the pipeline and shapes its output.
// Errors wrap ErrInvalidInput or ErrModelNotLoaded; any other error, including
// a panic inside the pipeline, is an internal failure.
func (s *LPRService) Predict(ctx context.Context, req PredictRequest) (resp *domain.PredictionResponse, err error) {
	start := s.now()
	logger := log.Ctx(ctx)

	img, err := decodeColorImage(req.Data, s.maxPixels)
	if err != nil {
		return nil, err
	}
	if s.pipeline == nil {
		return nil, errors.WithStack(ErrModelNotLoaded)
	}

	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = errors.Errorf("ALPR pipeline panicked: %v", r)
		}
	}()

	logger.Info().Str("engine", s.pipeline.Name()).Int("width", img.Bounds().Dx()).Int("height", img.Bounds().Dy()).Msg("starting detection")
	detections, err := s.pipeline.Predict(ctx, img)
	if err != nil {
		return nil, errors.Wrap(err, "run ALPR pipeline")
	}
	logger.Info().Int("plates", len(detections)).Msg("detection finished")

	resp = &domain.PredictionResponse{Results: make([]domain.PlateResult, 0, len(detections))}
	for _, d := range detections {
		resp.Results = append(resp.Results, domain.PlateResult{
			Plate:      d.OCR.Text,
			Confidence: alpr.ClampConfidence(d.OCR.Confidence),
			Box:        alpr.ExtractBox(d.Detection),
		})
	}

	s.publish(ctx, req, resp, s.now().Sub(start))
	return resp, nil
}

func (s *LPRService) publish(ctx context.Context, req PredictRequest, resp *domain.PredictionResponse, took time.Duration) {
	if s.events == nil {
		return
	}
	event := domain.RecognitionEvent{
		EventID:          uuid.NewString(),
		RequestID:        req.RequestID,
		Filename:         req.Filename,
		Engine:           s.pipeline.Name(),
		Results:          resp.Results,
		ProcessingTimeMs: took.Milliseconds(),
		Timestamp:        s.now().UTC(),
	}
	// The response must not wait on subscribers.
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := s.events.Publish(ctx, event); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("event_id", event.EventID).Msg("publish recognition event")
		}
	}()
}

// String is used in startup logs.
func (s *LPRService) String() string {
	if s.pipeline == nil {
		return "LPRService(model not loaded)"
	}
	return fmt.Sprintf("LPRService(engine=%s, detector=%s, ocr=%s)", s.pipeline.Name(), s.detectorModel, s.ocrModel)
}
