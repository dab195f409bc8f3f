package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP_ADDR      string
	DB_DRIVER      string
	DB_HOST        string
	DB_PORT        string
	DB_USER        string
	DB_PASSWORD    string
	DB_NAME        string
	ES_URL         string
	ES_USER        string
	ES_PASSWORD    string
	JWT_SECRET     string
	REFRESH_SECRET string
	KAFKA_ADDRESS  string
	REDIS_ADDR     string
	LOG_LEVEL      string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		HTTP_ADDR:      getenv("HTTP_ADDR", ":8080"),
		DB_DRIVER:      strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DB_HOST:        getenv("DB_HOST", "localhost"),
		DB_PORT:        getenv("DB_PORT", ""),
		DB_USER:        os.Getenv("DB_USER"),
		DB_PASSWORD:    os.Getenv("DB_PASSWORD"),
		DB_NAME:        getenv("DB_NAME", "larabench"),
		ES_URL:         os.Getenv("ES_URL"),
		ES_USER:        os.Getenv("ES_USER"),
		ES_PASSWORD:    os.Getenv("ES_PASSWORD"),
		JWT_SECRET:     os.Getenv("JWT_SECRET"),
		REFRESH_SECRET: os.Getenv("REFRESH_SECRET"),
		KAFKA_ADDRESS:  os.Getenv("KAFKA_ADDRESS"),
		REDIS_ADDR:     os.Getenv("REDIS_ADDR"),
		LOG_LEVEL:      getenv("LOG_LEVEL", "info"),
	}

	if config.DB_PORT == "" {
		switch config.DB_DRIVER {
		case "mysql", "mariadb":
			config.DB_PORT = "3306"
		default:
			config.DB_PORT = "5432"
		}
	}

	return config, nil
}

// DSN builds the connection string for the configured engine. The service is
// used to compare PostgreSQL and MariaDB under the same workload, so the
// driver is picked at runtime.
func (c *Config) DSN() (driver, dsn string, err error) {
	switch c.DB_DRIVER {
	case "postgres", "pgsql":
		return "postgres", fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			c.DB_USER, c.DB_PASSWORD, c.DB_HOST, c.DB_PORT, c.DB_NAME,
		), nil
	case "mysql", "mariadb":
		return "mysql", fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.DB_USER, c.DB_PASSWORD, c.DB_HOST, c.DB_PORT, c.DB_NAME,
		), nil
	default:
		return "", "", fmt.Errorf("unsupported DB_DRIVER %q", c.DB_DRIVER)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
