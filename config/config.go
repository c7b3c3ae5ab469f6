package config

import (
	"fmt"
	"os"
)

type Config struct {
	Port             string
	Env              string
	JWTSecret        string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string
	MongoURL         string
	MongoDBName      string
	PayPayAPIKey     string
	PayPayAPISecret  string
	PayPayMerchantID string
	PayPayBaseURL    string
	FrontendURL      string // redirect target after the buyer completes payment
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("APP_ENV", "development"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Tokyo"),
		MongoURL:         getEnv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDBName:      getEnv("MONGO_DB", "shop"),
		PayPayAPIKey:     os.Getenv("PAYPAY_API_KEY"),
		PayPayAPISecret:  os.Getenv("PAYPAY_API_SECRET"),
		PayPayMerchantID: os.Getenv("PAYPAY_MERCHANT_ID"),
		PayPayBaseURL:    getEnv("PAYPAY_BASE_URL", "https://stg-api.sandbox.paypay.ne.jp"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" {
		return nil, fmt.Errorf("missing required Postgres environment variables")
	}
	if cfg.PayPayAPIKey == "" || cfg.PayPayAPISecret == "" || cfg.PayPayMerchantID == "" {
		return nil, fmt.Errorf("missing required PayPay environment variables")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
