package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/MateuszOrski/ProjektParking/internal/api/handler"
	"github.com/MateuszOrski/ProjektParking/internal/api/middleware"
	"github.com/MateuszOrski/ProjektParking/internal/service"
)

func SetupRouter(lprService *service.LPRService, wsManager *handler.WebSocketManager,
	logger zerolog.Logger, maxUploadBytes int64) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())

	// Keep multipart bodies under the upload limit in memory.
	if maxUploadBytes > 0 {
		r.MaxMultipartMemory = maxUploadBytes
	}

	lprH := handler.NewLPRHandler(lprService, maxUploadBytes)
	r.POST("/predict", lprH.Predict)
	r.GET("/health", lprH.Health)

	if wsManager != nil {
		wsHandler := handler.NewWebSocketHandler(wsManager)
		r.GET("/ws", wsHandler.HandleWebSocket)
	}
	return r
}
