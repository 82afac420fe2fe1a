// Package remote forwards images to another ALPR HTTP service that answers with
// the same {"results": [...]} document this service produces, for example the
// fast-alpr container the models were first packaged in.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/MateuszOrski/ProjektParking/internal/alpr"
	"github.com/MateuszOrski/ProjektParking/internal/config"
)

const EngineName = "remote"

func init() {
	alpr.RegisterEngine(EngineName, func(_ context.Context, cfg *config.Config) (alpr.Pipeline, error) {
		if cfg.RemoteALPRURL == "" {
			return nil, errors.New("REMOTE_ALPR_URL is not set")
		}
		return New(cfg.RemoteALPRURL, cfg.DetectorModel, cfg.OCRModel, &http.Client{Timeout: cfg.RemoteALPRTimeout})
	})
}

type Engine struct {
	url           *url.URL
	client        *http.Client
	detectorModel string
	ocrModel      string
}

func New(rawURL, detectorModel, ocrModel string, client *http.Client) (*Engine, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid remote ALPR url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("invalid remote ALPR url %q: scheme must be http or https", rawURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Engine{url: u, client: client, detectorModel: detectorModel, ocrModel: ocrModel}, nil
}

func (e *Engine) Name() string { return EngineName }

// Detection carries the corner coordinates the remote service reported.
type Detection struct {
	xyxy []float64
}

func (d Detection) XYXY() []float64 { return d.xyxy }

type remoteResponse struct {
	Results []struct {
		Plate      string          `json:"plate"`
		Confidence float64         `json:"confidence"`
		Box        json.RawMessage `json:"box"`
	} `json:"results"`
}

func (e *Engine) Predict(ctx context.Context, img image.Image) ([]alpr.Result, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "frame.png")
	if err != nil {
		return nil, errors.Wrap(err, "create form")
	}
	if err = imaging.Encode(part, img, imaging.PNG); err != nil {
		return nil, errors.Wrap(err, "encode image as PNG")
	}
	for field, value := range map[string]string{"detector_model": e.detectorModel, "ocr_model": e.ocrModel} {
		if value == "" {
			continue
		}
		if err = writer.WriteField(field, value); err != nil {
			return nil, errors.Wrapf(err, "write field %s", field)
		}
	}
	if err = writer.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart writer")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())

	response, err := e.client.Do(request)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(response.Body, 4<<10))
		return nil, errors.Errorf("remote ALPR status code: %d, body: %s", response.StatusCode, bytes.TrimSpace(msg))
	}

	var resp remoteResponse
	if err = json.NewDecoder(response.Body).Decode(&resp); err != nil {
		return nil, errors.Wrap(err, "decode response body")
	}

	results := make([]alpr.Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, alpr.Result{
			Detection: Detection{xyxy: decodeBox(r.Box)},
			OCR:       alpr.OCRResult{Text: r.Plate, Confidence: r.Confidence},
		})
	}
	return results, nil
}

// decodeBox accepts a flat [x1,y1,x2,y2] list; null or any other shape means no box.
func decodeBox(raw json.RawMessage) []float64 {
	var box []float64
	if len(raw) == 0 || json.Unmarshal(raw, &box) != nil || len(box) != 4 {
		return nil
	}
	return box
}
