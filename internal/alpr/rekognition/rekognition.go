// Package rekognition reads license plates with AWS Rekognition DetectText.
package rekognition

import (
	"bytes"
	"context"
	"image"
	"math"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/MateuszOrski/ProjektParking/internal/alpr"
	"github.com/MateuszOrski/ProjektParking/internal/config"
)

const EngineName = "rekognition"

// Rekognition rejects image bytes above 5MB.
const maxImageBytes = 5 << 20

func init() {
	alpr.RegisterEngine(EngineName, func(ctx context.Context, cfg *config.Config) (alpr.Pipeline, error) {
		awsCfg, err := config.LoadAWS(ctx, cfg)
		if err != nil {
			return nil, err
		}
		filter, err := alpr.NewPlateFilter(cfg.PlatePattern, cfg.MinConfidence)
		if err != nil {
			return nil, err
		}
		return New(rekognition.NewFromConfig(awsCfg), filter), nil
	})
}

// DetectTextAPI is the part of the Rekognition client the engine uses.
type DetectTextAPI interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

type Engine struct {
	client DetectTextAPI
	filter *alpr.PlateFilter
}

func New(client DetectTextAPI, filter *alpr.PlateFilter) *Engine {
	return &Engine{client: client, filter: filter}
}

func (e *Engine) Name() string { return EngineName }

// Detection is a text line Rekognition located, in pixel coordinates.
type Detection struct {
	rect image.Rectangle
}

func (d Detection) BoundingBox() image.Rectangle { return d.rect }

func (e *Engine) Predict(ctx context.Context, img image.Image) ([]alpr.Result, error) {
	payload, err := encodeJPEG(img, maxImageBytes)
	if err != nil {
		return nil, err
	}

	out, err := e.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: payload},
	})
	if err != nil {
		return nil, errors.Wrap(err, "rekognition DetectText")
	}
	log.Ctx(ctx).Debug().Int("text_detections", len(out.TextDetections)).Msg("rekognition returned text blocks")

	bounds := img.Bounds()
	results := make([]alpr.Result, 0)
	for _, td := range out.TextDetections {
		// Words are repeated inside their lines.
		if td.Type != types.TextTypesLine || td.DetectedText == nil || td.Confidence == nil {
			continue
		}
		conf := alpr.ClampConfidence(float64(*td.Confidence) / 100)
		plate, ok := e.filter.Accept(*td.DetectedText, conf)
		if !ok {
			log.Ctx(ctx).Debug().Str("text", *td.DetectedText).Float64("confidence", conf).Msg("text rejected by plate filter")
			continue
		}
		results = append(results, alpr.Result{
			Detection: Detection{rect: toPixels(td.Geometry, bounds)},
			OCR:       alpr.OCRResult{Text: plate, Confidence: conf},
		})
	}
	return results, nil
}

// encodeJPEG encodes img, halving it until the result fits in maxBytes.
func encodeJPEG(img image.Image, maxBytes int) ([]byte, error) {
	for {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
			return nil, errors.Wrap(err, "encode image as JPEG")
		}
		if buf.Len() <= maxBytes {
			return buf.Bytes(), nil
		}
		// Halve until it fits; plates stay readable well below the upload sizes we accept.
		b := img.Bounds()
		if b.Dx() < 2 || b.Dy() < 2 {
			return nil, errors.Errorf("JPEG of %dx%d image still exceeds %d bytes", b.Dx(), b.Dy(), maxBytes)
		}
		img = imaging.Resize(img, b.Dx()/2, 0, imaging.Lanczos)
	}
}

// toPixels converts Rekognition's ratio-of-image geometry to pixel corners.
func toPixels(g *types.Geometry, bounds image.Rectangle) image.Rectangle {
	if g == nil || g.BoundingBox == nil {
		return image.Rectangle{}
	}
	bb := g.BoundingBox
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	left := float64(aws.ToFloat32(bb.Left)) * w
	top := float64(aws.ToFloat32(bb.Top)) * h
	right := left + float64(aws.ToFloat32(bb.Width))*w
	bottom := top + float64(aws.ToFloat32(bb.Height))*h
	return image.Rect(
		bounds.Min.X+int(math.Round(left)),
		bounds.Min.Y+int(math.Round(top)),
		bounds.Min.X+int(math.Round(right)),
		bounds.Min.Y+int(math.Round(bottom)),
	).Intersect(bounds)
}
