package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress   string
	ShutdownTimeout time.Duration

	// Question bank workbook
	BankFile string

	// Result storage: "sqlite" or "minio"
	StorageBackend string
	SQLitePath     string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddress:   mustGetenv("SERVER_ADDRESS"),
		ShutdownTimeout: mustGetDuration("SHUTDOWN_TIMEOUT"),
		BankFile:        getenvDefault("BANK_FILE", "ham.xlsx"),
		StorageBackend:  getenvDefault("STORAGE_BACKEND", "sqlite"),
		SQLitePath:      getenvDefault("SQLITE_PATH", "hamstudy.db"),
		MinioBucket:     getenvDefault("MINIO_BUCKET", "carst"),
		MinioUseSSL:     getenvBool("MINIO_USE_SSL", false),
	}

	if cfg.StorageBackend == "minio" {
		cfg.MinioEndpoint = mustGetenv("MINIO_ENDPOINT")
		cfg.MinioAccessKey = mustGetenv("MINIO_ACCESS_KEY")
		cfg.MinioSecretKey = mustGetenv("MINIO_SECRET_KEY")
	}

	return cfg
}

func mustGetenv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("config: required environment variable %s is not set", k)
	}
	return v
}

func mustGetDuration(k string) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("config: required environment variable %s is not set", k)
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid duration: %v", k, v, err)
	}
	return d
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid boolean: %v", k, v, err)
	}
	return b
}
