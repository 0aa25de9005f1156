package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/safarbet/safarbet/internal/pkg/models"
)

// InitConfig loads configuration from an env file (local development) and
// the process environment. Environment variables always win.
func InitConfig(configPath string) *models.Config {
	env := GetEnv("APP_ENV", "local")
	if env == "local" {
		if err := godotenv.Load(configPath); err != nil {
			log.Println("error loading config from file", err)
		}
	}
	return loadConfigFromEnv()
}

func loadConfigFromEnv() *models.Config {
	configs := &models.Config{}

	// App config
	configs.App.Name = GetEnv("APP_NAME", "safarbet-api")
	configs.App.Environment = GetEnv("APP_ENV", "local")
	configs.App.Debug = GetEnvAsBool("APP_DEBUG", true)
	configs.App.Version = GetEnv("APP_VERSION", "")
	configs.App.BaseURL = GetEnv("APP_BASE_URL", "http://localhost:8080")

	// Server config
	configs.Server.Host = GetEnv("SERVER_HOST", "")
	configs.Server.Port = GetEnvAsInt("SERVER_PORT", 8080)
	configs.Server.ReadTimeout = GetEnvAsInt("SERVER_READ_TIMEOUT", 30)
	configs.Server.WriteTimeout = GetEnvAsInt("SERVER_WRITE_TIMEOUT", 30)
	configs.Server.ShutdownTimeout = GetEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 30)

	// Database config
	configs.Database.Host = GetEnv("DB_HOST", "localhost")
	configs.Database.Port = GetEnvAsInt("DB_PORT", 5432)
	configs.Database.Username = GetEnv("DB_USERNAME", "")
	configs.Database.Password = GetEnv("DB_PASSWORD", "")
	configs.Database.Database = GetEnv("DB_DATABASE", "safarbet")
	configs.Database.SSLMode = GetEnv("DB_SSL_MODE", "disable")
	configs.Database.MaxConns = GetEnvAsInt("DB_MAX_CONNS", 10)
	configs.Database.IdleConns = GetEnvAsInt("DB_IDLE_CONNS", 2)

	// Redis config
	configs.Redis.Host = GetEnv("REDIS_HOST", "localhost")
	configs.Redis.Port = GetEnvAsInt("REDIS_PORT", 6379)
	configs.Redis.Password = GetEnv("REDIS_PASSWORD", "")
	configs.Redis.DB = GetEnvAsInt("REDIS_DB", 0)
	configs.Redis.PoolSize = GetEnvAsInt("REDIS_POOL_SIZE", 10)

	// NATS config
	configs.NATS.URL = GetEnv("NATS_URL", "nats://localhost:4222")

	// JWT config
	configs.JWT.Secret = GetEnv("JWT_SECRET", "")
	configs.JWT.Expiration = GetEnvAsInt("JWT_EXPIRATION", 60)
	configs.JWT.Issuer = GetEnv("JWT_ISSUER", "safarbet")

	// Chapa gateway config
	configs.Chapa.APIURL = GetEnv("CHAPA_API_URL", "https://api.chapa.co/v1")
	configs.Chapa.SecretKey = GetEnv("CHAPA_SECRET_KEY", "")
	configs.Chapa.Timeout = GetEnvAsInt("CHAPA_TIMEOUT", 30)

	// Sweeper config
	configs.Sweeper.Schedule = GetEnv("SWEEPER_SCHEDULE", "@every 3m")
	configs.Sweeper.StalenessMinutes = GetEnvAsInt("SWEEPER_STALENESS_MINUTES", 10)
	configs.Sweeper.BatchLimit = GetEnvAsInt("SWEEPER_BATCH_LIMIT", 100)

	// Notification config
	configs.Notification.Subject = GetEnv("NOTIFICATION_SUBJECT", "notifications.payment")
	configs.Notification.QueueGroup = GetEnv("NOTIFICATION_QUEUE_GROUP", "notification-dispatcher")
	configs.Notification.MaxRetries = GetEnvAsInt("NOTIFICATION_MAX_RETRIES", 3)
	configs.Notification.BaseDelaySec = GetEnvAsInt("NOTIFICATION_BASE_DELAY_SEC", 60)
	configs.Notification.FromAddress = GetEnv("NOTIFICATION_FROM_ADDRESS", "bookings@safarbet.example")

	// SMTP config
	configs.SMTP.Host = GetEnv("SMTP_HOST", "localhost")
	configs.SMTP.Port = GetEnvAsInt("SMTP_PORT", 587)
	configs.SMTP.Username = GetEnv("SMTP_USERNAME", "")
	configs.SMTP.Password = GetEnv("SMTP_PASSWORD", "")

	// Logger config
	configs.Logger.Level = GetEnv("LOG_LEVEL", "info")
	configs.Logger.FilePath = GetEnv("LOG_FILE_PATH", "")

	return configs
}

// GetEnv reads an environment variable with a default
func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvAsInt reads an integer environment variable with a default
func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

// GetEnvAsBool reads a boolean environment variable with a default
func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}
