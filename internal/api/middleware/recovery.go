package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/MateuszOrski/ProjektParking/internal/domain"
)

// Recovery turns a handler panic into a 500 with the usual {"detail"} body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		err := errors.Errorf("panic: %v", recovered)
		log.Ctx(c.Request.Context()).Error().Stack().Err(err).Msg("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, domain.ErrorResponse{Detail: fmt.Sprint(recovered)})
	})
}
