package models

// Config holds all application configuration
type Config struct {
	App          AppConfig
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	NATS         NATSConfig
	JWT          JWTConfig
	Chapa        ChapaConfig
	Sweeper      SweeperConfig
	Notification NotificationConfig
	SMTP         SMTPConfig
	Logger       LoggerConfig
}

// AppConfig holds application metadata configuration
type AppConfig struct {
	Name        string
	Environment string
	Debug       bool
	Version     string
	BaseURL     string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Database  string
	SSLMode   string
	MaxConns  int
	IdleConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL string
}

// JWTConfig holds JWT authentication configuration
type JWTConfig struct {
	Secret     string
	Expiration int // minutes
	Issuer     string
}

// ChapaConfig holds payment gateway configuration
type ChapaConfig struct {
	APIURL    string
	SecretKey string
	Timeout   int // seconds
}

// SweeperConfig holds reconciliation sweep configuration
type SweeperConfig struct {
	Schedule         string // cron spec, e.g. "@every 3m"
	StalenessMinutes int    // pending payments older than this are re-verified
	BatchLimit       int    // max candidates per sweep pass
}

// NotificationConfig holds notification dispatcher configuration
type NotificationConfig struct {
	Subject      string // NATS subject for notification intents
	QueueGroup   string
	MaxRetries   int
	BaseDelaySec int
	FromAddress  string
}

// SMTPConfig holds outbound mail configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level    string
	FilePath string
}
