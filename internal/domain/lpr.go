package domain

import "time"

// PlateResult is one plate read, in detection order.
// Confidence is in [0,1]; Box holds exactly 4 numbers or none.
type PlateResult struct {
	Plate      string    `json:"plate"`
	Confidence float64   `json:"confidence"`
	Box        []float64 `json:"box"`
}

// PredictionResponse is the body of a successful POST /predict.
type PredictionResponse struct {
	Results []PlateResult `json:"results"`
}

// ErrorResponse is the body of every non-200 response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

type HealthStatus string

const (
	HealthOK       HealthStatus = "ok"
	HealthDegraded HealthStatus = "degraded"
)

type HealthResponse struct {
	Status        HealthStatus `json:"status"`
	ModelLoaded   bool         `json:"model_loaded"`
	Engine        string       `json:"engine"`
	DetectorModel string       `json:"detector_model"`
	OCRModel      string       `json:"ocr_model"`
}

// RecognitionEvent is published after every successful prediction, to the
// websocket feed and to the optional SQS queue and IoT topic.
type RecognitionEvent struct {
	EventID          string        `json:"event_id"`
	RequestID        string        `json:"request_id,omitempty"`
	Filename         string        `json:"filename,omitempty"`
	Engine           string        `json:"engine"`
	Results          []PlateResult `json:"results"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
	Timestamp        time.Time     `json:"timestamp"`
}
