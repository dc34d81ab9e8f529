package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	JWTSecret  string

	// Operator chat ids that receive new-order notifications.
	OperatorIDs []int64

	// Pricing knobs.
	DeliveryFee            float64
	FreeDeliveryThreshold  float64
	PremiumDiscountPercent float64

	// Idle timeout for checkout drafts.
	SessionTTL time.Duration
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),
		JWTSecret:  os.Getenv("JWT_SECRET"),

		OperatorIDs: parseIDList(os.Getenv("OPERATOR_IDS")),

		DeliveryFee:            envFloat("DELIVERY_FEE", 150),
		FreeDeliveryThreshold:  envFloat("FREE_DELIVERY_THRESHOLD", 1500),
		PremiumDiscountPercent: envFloat("PREMIUM_DISCOUNT_PERCENT", 10),

		SessionTTL: envDuration("SESSION_TTL", 30*time.Minute),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func envFloat(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v", key, raw, def)
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v", key, raw, def)
		return def
	}
	return v
}

func parseIDList(raw string) []int64 {
	if raw == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("skipping invalid operator id %q", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
