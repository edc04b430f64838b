package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Chat     ChatConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	// URL selects the postgres-backed store when set. Empty means the
	// in-memory store, which resets on restart.
	URL string
}

type JWTConfig struct {
	// Secret enables the account endpoints when non-empty. Connections
	// never require a token either way.
	Secret    []byte
	ExpiresIn time.Duration
}

type ChatConfig struct {
	SendBuffer        int
	DefaultMaxMembers int
	HistoryLimit      int
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("PORT", ":8080"),
			ReadTimeout:     getDurationOrDefault("READ_TIMEOUT", "15s"),
			WriteTimeout:    getDurationOrDefault("WRITE_TIMEOUT", "15s"),
			ShutdownTimeout: getDurationOrDefault("SHUTDOWN_TIMEOUT", "10s"),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		JWT: JWTConfig{
			Secret:    []byte(getEnvOrDefault("JWT_SECRET", "")),
			ExpiresIn: getDurationOrDefault("JWT_EXPIRES_IN", "24h"),
		},
		Chat: ChatConfig{
			SendBuffer:        getIntOrDefault("SEND_BUFFER", 256),
			DefaultMaxMembers: getIntOrDefault("DEFAULT_MAX_MEMBERS", 50),
			HistoryLimit:      getIntOrDefault("HISTORY_LIMIT", 100),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key, defaultValue string) time.Duration {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("Invalid duration for %s: %v", key, err)
	}
	return duration
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Invalid integer for %s: %v", key, err)
	}
	return intValue
}
