package config

import (
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// DefaultAvgConsultationMinutes is used when AVG_CONSULTATION_MINUTES is not set.
const DefaultAvgConsultationMinutes = 15

type Config struct {
	AppEnv     string
	Port       string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	JWTSecret  string

	// AvgConsultationMinutes is the per-patient time budget used for
	// linear wait-time estimation.
	AvgConsultationMinutes int
}

var (
	cfg  *Config
	once sync.Once
)

func LoadConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found. Relying on environment variables.")
		}
		cfg = &Config{
			AppEnv:                 os.Getenv("APP_ENV"),
			Port:                   os.Getenv("PORT"),
			DBUser:                 os.Getenv("DB_USER"),
			DBPassword:             os.Getenv("DB_PASSWORD"),
			DBHost:                 os.Getenv("DB_HOST"),
			DBPort:                 os.Getenv("DB_PORT"),
			DBName:                 os.Getenv("DB_NAME"),
			JWTSecret:              os.Getenv("JWT_SECRET_KEY"),
			AvgConsultationMinutes: envInt("AVG_CONSULTATION_MINUTES", DefaultAvgConsultationMinutes),
		}
		if cfg.Port == "" {
			cfg.Port = "8080"
		}
	})
	return cfg
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return n
}
