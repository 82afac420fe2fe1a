package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DefaultDetectorModel  = "yolo-v9-t-384-license-plate-end2end"
	DefaultOCRModel       = "global-plates-mobile-vit-v2-model"
	DefaultPlatePattern   = `^[A-Z0-9]{4,10}$`
	DefaultMaxImagePixels = 40_000_000
)

type Config struct {
	ServerPort      string
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
	MaxImagePixels  int64

	ALPREngine    string
	DetectorModel string
	OCRModel      string
	PlatePattern  string
	MinConfidence float64

	AWSRegion string

	RemoteALPRURL     string
	RemoteALPRTimeout time.Duration

	TesseractLanguages []string

	SQSEventQueueURL string
	IoTMQTTEndpoint  string
	IoTTopic         string

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	maxUploadMB := getEnvInt("MAX_UPLOAD_MB", 10)
	remoteTimeout := getEnvInt("REMOTE_ALPR_TIMEOUT_SECONDS", 30)
	shutdownTimeout := getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 10)

	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8000"),
		ShutdownTimeout: time.Duration(shutdownTimeout) * time.Second,
		MaxUploadBytes:  int64(maxUploadMB) << 20,
		MaxImagePixels:  int64(getEnvInt("MAX_IMAGE_PIXELS", DefaultMaxImagePixels)),

		ALPREngine:    getEnv("ALPR_ENGINE", "rekognition"),
		DetectorModel: getEnv("ALPR_DETECTOR_MODEL", DefaultDetectorModel),
		OCRModel:      getEnv("ALPR_OCR_MODEL", DefaultOCRModel),
		PlatePattern:  getEnv("ALPR_PLATE_PATTERN", DefaultPlatePattern),
		MinConfidence: getEnvFloat("ALPR_MIN_CONFIDENCE", 0),

		AWSRegion: getEnv("AWS_REGION", "eu-central-1"),

		RemoteALPRURL:     getEnv("REMOTE_ALPR_URL", ""),
		RemoteALPRTimeout: time.Duration(remoteTimeout) * time.Second,

		TesseractLanguages: splitList(getEnv("TESSERACT_LANGUAGES", "eng")),

		SQSEventQueueURL: getEnv("SQS_EVENT_QUEUE_URL", ""),
		IoTMQTTEndpoint:  getEnv("IOT_MQTT_ENDPOINT", ""),
		IoTTopic:         getEnv("IOT_TOPIC", "alpr/recognitions"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Debug().Str("key", key).Str("default", fallback).Msg("environment variable not set, using default")
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := getEnv(key, strconv.Itoa(fallback))
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		log.Warn().Str("key", key).Str("value", raw).Int("default", fallback).Msg("invalid integer, using default")
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := getEnv(key, strconv.FormatFloat(fallback, 'f', -1, 64))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Float64("default", fallback).Msg("invalid number, using default")
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '+' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
