//go:build tesseract

// Package tesseract reads license plates locally with Tesseract through
// gosseract. It needs libtesseract at build and run time, so it is only
// compiled with the "tesseract" build tag.
package tesseract

import (
	"bytes"
	"context"
	"image"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/MateuszOrski/ProjektParking/internal/alpr"
	"github.com/MateuszOrski/ProjektParking/internal/config"
)

const EngineName = "tesseract"

func init() {
	alpr.RegisterEngine(EngineName, func(_ context.Context, cfg *config.Config) (alpr.Pipeline, error) {
		filter, err := alpr.NewPlateFilter(cfg.PlatePattern, cfg.MinConfidence)
		if err != nil {
			return nil, err
		}
		e := New(filter, cfg.TesseractLanguages)
		// Fail at startup, not on the first request, when traineddata is missing.
		if err := e.probe(); err != nil {
			return nil, err
		}
		return e, nil
	})
}

// Engine creates one gosseract client per call; clients are not goroutine safe.
type Engine struct {
	clientFactory func() *gosseract.Client
	filter        *alpr.PlateFilter
	languages     []string
}

func New(filter *alpr.PlateFilter, languages []string) *Engine {
	return &Engine{clientFactory: gosseract.NewClient, filter: filter, languages: languages}
}

func (e *Engine) Name() string { return EngineName }

// Detection is a text line located by Tesseract.
type Detection struct {
	Box image.Rectangle
}

func (e *Engine) newClient() (*gosseract.Client, error) {
	c := e.clientFactory()
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			c.Close()
			return nil, errors.Wrap(err, "set languages")
		}
	}
	if err := c.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		c.Close()
		return nil, errors.Wrap(err, "set page segmentation mode")
	}
	return c, nil
}

func (e *Engine) probe() error {
	c, err := e.newClient()
	if err != nil {
		return err
	}
	defer c.Close()
	blank := imaging.New(32, 32, image.White.C)
	payload, err := encodePNG(blank)
	if err != nil {
		return err
	}
	if err := c.SetImageFromBytes(payload); err != nil {
		return errors.Wrap(err, "set probe image")
	}
	if _, err := c.Text(); err != nil {
		return errors.Wrap(err, "tesseract probe")
	}
	return nil
}

func (e *Engine) Predict(ctx context.Context, img image.Image) ([]alpr.Result, error) {
	c, err := e.newClient()
	if err != nil {
		return nil, err
	}
	defer c.Close()

	payload, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	if err := c.SetImageFromBytes(payload); err != nil {
		return nil, errors.Wrap(err, "set image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, errors.Wrap(err, "recognize text lines")
	}

	offset := img.Bounds().Min
	results := make([]alpr.Result, 0)
	for _, b := range boxes {
		conf := alpr.ClampConfidence(b.Confidence / 100)
		plate, ok := e.filter.Accept(b.Word, conf)
		if !ok {
			log.Ctx(ctx).Debug().Str("text", b.Word).Float64("confidence", conf).Msg("text rejected by plate filter")
			continue
		}
		results = append(results, alpr.Result{
			Detection: Detection{Box: b.Box.Add(offset)},
			OCR:       alpr.OCRResult{Text: plate, Confidence: conf},
		})
	}
	return results, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errors.Wrap(err, "encode image as PNG")
	}
	return buf.Bytes(), nil
}
