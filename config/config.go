package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
	Business BusinessConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type StoreConfig struct {
	DataDir string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers       []string
	TopicOrder    string
	ConsumerGroup string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
	PrometheusPort string
}

type BusinessConfig struct {
	// Subtotal above which shipping is free, and the flat fee below it.
	ShippingThreshold float64
	ShippingFee       float64

	// Cap on order-number generation attempts before widening randomness.
	OrderNumberMaxAttempts int

	// When true, a failed sales-file write fails the checkout instead of
	// being logged and swallowed.
	RequireDurableOrder bool

	SessionTTLHours int
}

func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	shippingThreshold, _ := strconv.ParseFloat(getEnv("SHIPPING_FREE_THRESHOLD", "100"), 64)
	shippingFee, _ := strconv.ParseFloat(getEnv("SHIPPING_FLAT_FEE", "10"), 64)
	maxAttempts, _ := strconv.Atoi(getEnv("ORDER_NUMBER_MAX_ATTEMPTS", "5"))
	requireDurable, _ := strconv.ParseBool(getEnv("REQUIRE_DURABLE_ORDER", "true"))
	sessionTTL, _ := strconv.Atoi(getEnv("SESSION_TTL_HOURS", "168"))

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Store: StoreConfig{
			DataDir: getEnv("DATA_DIR", "data"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicOrder:    getEnv("KAFKA_TOPIC_ORDER_EVENTS", "order-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "techstore-group"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
			PrometheusPort: getEnv("PROMETHEUS_PORT", "9090"),
		},
		Business: BusinessConfig{
			ShippingThreshold:      shippingThreshold,
			ShippingFee:            shippingFee,
			OrderNumberMaxAttempts: maxAttempts,
			RequireDurableOrder:    requireDurable,
			SessionTTLHours:        sessionTTL,
		},
	}

	log.Printf("Config loaded: env=%s, port=%s, data_dir=%s", cfg.Server.Env, cfg.Server.Port, cfg.Store.DataDir)
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
