package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// FutureEventPolicy controls what happens to events whose device-reported
// timestamp lies beyond now + FutureEventMaxSec.
type FutureEventPolicy string

const (
	FuturePolicyDisabled FutureEventPolicy = "disabled"
	FuturePolicyIgnore   FutureEventPolicy = "ignore"
	FuturePolicyTruncate FutureEventPolicy = "truncate"
)

// GeocoderMode controls when the generic reverse geocoder may run on the
// ingestion hot path.
type GeocoderMode string

const (
	GeocoderModeNone    GeocoderMode = "none"
	GeocoderModePartial GeocoderMode = "partial"
	GeocoderModeFull    GeocoderMode = "full"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	StateTTL      time.Duration

	// MQTT
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	// HTTP
	HTTPAddr string

	// Ingestion
	FutureEventPolicy FutureEventPolicy
	FutureEventMaxSec int64
	GeocoderMode      GeocoderMode
	MaxOdometerKM     float64

	// Background enrichment
	EnrichmentWorkers   int
	EnrichmentQueueSize int

	// Application
	LogLevel string
	Timeout  time.Duration
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	stateTTLSec, _ := strconv.Atoi(getEnv("STATE_TTL_SECONDS", "86400"))
	timeoutSec, _ := strconv.Atoi(getEnv("TIMEOUT_SECONDS", "30"))
	futureMaxSec, _ := strconv.ParseInt(getEnv("FUTURE_EVENT_MAX_SECONDS", "86400"), 10, 64)
	maxOdomKM, _ := strconv.ParseFloat(getEnv("MAX_ODOMETER_KM", "1000000"), 64)
	workers, _ := strconv.Atoi(getEnv("ENRICHMENT_WORKERS", "25"))
	queueSize, _ := strconv.Atoi(getEnv("ENRICHMENT_QUEUE_SIZE", "1000"))

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "fleet_track"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		StateTTL:      time.Duration(stateTTLSec) * time.Second,

		MQTTBroker:   getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "fleet-track-server"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		FutureEventPolicy: FutureEventPolicy(getEnv("FUTURE_EVENT_POLICY", string(FuturePolicyDisabled))),
		FutureEventMaxSec: futureMaxSec,
		GeocoderMode:      GeocoderMode(getEnv("GEOCODER_MODE", string(GeocoderModeFull))),
		MaxOdometerKM:     maxOdomKM,

		EnrichmentWorkers:   workers,
		EnrichmentQueueSize: queueSize,

		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timeout:  time.Duration(timeoutSec) * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
