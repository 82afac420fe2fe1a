package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/MateuszOrski/ProjektParking/internal/alpr"
	_ "github.com/MateuszOrski/ProjektParking/internal/alpr/rekognition"
	_ "github.com/MateuszOrski/ProjektParking/internal/alpr/remote"
	"github.com/MateuszOrski/ProjektParking/internal/api"
	"github.com/MateuszOrski/ProjektParking/internal/api/handler"
	"github.com/MateuszOrski/ProjektParking/internal/config"
	"github.com/MateuszOrski/ProjektParking/internal/notify"
	"github.com/MateuszOrski/ProjektParking/internal/service"
)

const publishTimeout = 10 * time.Second

func main() {
	// 1. Load configuration
	cfg := config.Load()
	setupLogger(cfg)
	log.Info().Str("engine", cfg.ALPREngine).Strs("available", alpr.EngineNames()).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Load the ALPR pipeline once. A failure leaves the service running
	// without a model; every prediction then answers 500.
	log.Info().Str("detector_model", cfg.DetectorModel).Str("ocr_model", cfg.OCRModel).Msg("loading model")
	pipeline, err := alpr.Load(ctx, cfg)
	if err != nil {
		log.Error().Stack().Err(err).Msg("CRITICAL: model failed to load")
	} else {
		log.Info().Str("engine", pipeline.Name()).Msg("model loaded")
	}

	// 3. Event fan-out
	wsManager := handler.NewWebSocketManager()
	go wsManager.Start(ctx)

	dispatcher := notify.NewDispatcher(publishTimeout)
	dispatcher.Add("websocket", wsManager)
	addAWSPublishers(ctx, cfg, dispatcher)

	// 4. Service and router
	lprService := service.NewLPRService(pipeline, dispatcher, cfg.DetectorModel, cfg.OCRModel).
		WithMaxImagePixels(cfg.MaxImagePixels)
	log.Info().Stringer("service", lprService).Int("event_sinks", dispatcher.Len()).Msg("service ready")

	router := api.SetupRouter(lprService, wsManager, log.Logger, cfg.MaxUploadBytes)

	// 5. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe")
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shut down")
	}
	log.Info().Msg("server stopped")
}

// addAWSPublishers enables the SQS and IoT sinks that are configured. AWS
// problems only disable the sink; recognition keeps working.
func addAWSPublishers(ctx context.Context, cfg *config.Config, dispatcher *notify.Dispatcher) {
	if cfg.SQSEventQueueURL == "" && cfg.IoTMQTTEndpoint == "" {
		log.Info().Msg("SQS_EVENT_QUEUE_URL and IOT_MQTT_ENDPOINT not set, events go to websocket clients only")
		return
	}
	awsCfg, err := config.LoadAWS(ctx, cfg)
	if err != nil {
		log.Error().Stack().Err(err).Msg("AWS config unavailable, SQS and IoT publishing disabled")
		return
	}
	if cfg.SQSEventQueueURL != "" {
		dispatcher.Add("sqs", notify.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.SQSEventQueueURL))
		log.Info().Str("queue", cfg.SQSEventQueueURL).Msg("publishing recognition events to SQS")
	}
	if cfg.IoTMQTTEndpoint != "" {
		dispatcher.Add("iot", notify.NewIoTPublisher(notify.NewIoTClient(awsCfg, cfg.IoTMQTTEndpoint), cfg.IoTTopic))
		log.Info().Str("topic", cfg.IoTTopic).Msg("publishing recognition events to AWS IoT")
	}
}

func setupLogger(cfg *config.Config) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if level > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
}
