package postgres

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds PostgreSQL connection configuration and renders it as a
// DSN, since pgxpool.ParseConfig accepts a DSN directly.
type Config struct {
	Host         string
	Port         int
	Database     string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

func NewConfigFromEnv() *Config {
	return &Config{
		Host:         getEnv("DB_HOST", "localhost"),
		Port:         getEnvAsInt("DB_PORT", 5432),
		Database:     getEnv("DB_NAME", "ledger"),
		User:         getEnv("DB_USER", "ledger"),
		Password:     getEnv("DB_PASSWORD", "ledger"),
		SSLMode:      getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
		MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
