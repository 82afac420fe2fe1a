package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/MateuszOrski/ProjektParking/internal/api/middleware"
	"github.com/MateuszOrski/ProjektParking/internal/domain"
	"github.com/MateuszOrski/ProjektParking/internal/service"
)

type LPRHandler struct {
	lprService     *service.LPRService
	maxUploadBytes int64
}

func NewLPRHandler(lprService *service.LPRService, maxUploadBytes int64) *LPRHandler {
	return &LPRHandler{lprService: lprService, maxUploadBytes: maxUploadBytes}
}

// POST /predict
func (h *LPRHandler) Predict(c *gin.Context) {
	ctx := c.Request.Context()
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithDetail(c, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		log.Ctx(ctx).Warn().Err(err).Msg("read file from form")
		abortWithDetail(c, http.StatusUnprocessableEntity, "field 'file' is required")
		return
	}

	f, err := file.Open()
	if err != nil {
		log.Ctx(ctx).Error().Stack().Err(errors.WithStack(err)).Msg("open uploaded file")
		abortWithDetail(c, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		log.Ctx(ctx).Error().Stack().Err(errors.WithStack(err)).Msg("read uploaded file")
		abortWithDetail(c, http.StatusInternalServerError, err.Error())
		return
	}
	log.Ctx(ctx).Info().Str("filename", file.Filename).Int("bytes", len(data)).Msg("received image")

	resp, err := h.lprService.Predict(ctx, service.PredictRequest{
		RequestID: middleware.RequestID(c),
		Filename:  file.Filename,
		Data:      data,
	})
	if err != nil {
		status, detail := errorStatus(err)
		event := log.Ctx(ctx).Error()
		if status < http.StatusInternalServerError {
			event = log.Ctx(ctx).Warn()
		}
		event.Stack().Err(err).Int("status", status).Msg("prediction failed")
		abortWithDetail(c, status, detail)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GET /health
func (h *LPRHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.lprService.Health())
}

// errorStatus maps service failures to a status code and the detail the client sees.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "invalid image file"
	case errors.Is(err, service.ErrModelNotLoaded):
		return http.StatusInternalServerError, "model not loaded"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func abortWithDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, domain.ErrorResponse{Detail: detail})
}
