package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Alerts   AlertsConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	Driver      string
	SQLitePath  string
	AutoMigrate bool
	// ConnectTimeout is how long startup waits for Postgres and Redis.
	ConnectTimeout time.Duration
}

type RedisConfig struct {
	Enabled   bool
	Addr      string
	Password  string
	DB        int
	VenuesTTL time.Duration
	LockTTL   time.Duration
	LockWait  time.Duration
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

// DSN builds a postgres:// connection string.
func (c PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

type AuthConfig struct {
	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int
}

type AlertsConfig struct {
	// RabbitMQURL empty disables operator alerts.
	RabbitMQURL string
	Queue       string
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverHost := os.Getenv("SERVER_HOST")
	if serverHost == "" {
		serverHost = "localhost"
	}

	serverPort, err := envInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: serverHost,
		Port: serverPort,
	}

	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = DriverPostgres
	}

	switch driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return nil, fmt.Errorf("%s: invalid DB_DRIVER %q", op, driver)
	}

	sqlitePath := os.Getenv("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "canteen.db"
	}

	autoMigrate, err := envBool("AUTO_MIGRATE", true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	connectTimeout, err := envDuration("CONNECT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	dbCfg := DBConfig{
		Driver:         driver,
		SQLitePath:     sqlitePath,
		AutoMigrate:    autoMigrate,
		ConnectTimeout: connectTimeout,
	}

	postgresHost := os.Getenv("POSTGRES_HOST")
	if postgresHost == "" {
		postgresHost = "localhost"
	}

	postgresPort, err := envInt("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	postgresDB := os.Getenv("POSTGRES_DB")

	if driver == DriverPostgres {
		if postgresUser == "" {
			return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
		}

		if postgresPassword == "" {
			return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
		}

		if postgresDB == "" {
			return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
		}
	}

	postgresSSLMode := os.Getenv("POSTGRES_SSLMODE")
	if postgresSSLMode == "" {
		postgresSSLMode = "disable"
	}

	postgresCfg := PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     postgresHost,
		Port:     postgresPort,
		SSLMode:  postgresSSLMode,
	}

	redisEnabled, err := envBool("REDIS_ENABLED", false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisDB, err := envInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	venuesTTL, err := envDuration("VENUES_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lockTTL, err := envDuration("CATALOG_LOCK_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lockWait, err := envDuration("CATALOG_LOCK_WAIT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCfg := RedisConfig{
		Enabled:   redisEnabled,
		Addr:      redisAddr,
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        redisDB,
		VenuesTTL: venuesTTL,
		LockTTL:   lockTTL,
		LockWait:  lockWait,
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("%s: missing JWT_SECRET", op)
	}

	jwtTTL, err := envDuration("JWT_TTL", 12*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	bcryptCost, err := envInt("BCRYPT_COST", 10)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	authCfg := AuthConfig{
		JWTSecret:  jwtSecret,
		JWTTTL:     jwtTTL,
		BcryptCost: bcryptCost,
	}

	alertQueue := os.Getenv("ALERT_QUEUE")
	if alertQueue == "" {
		alertQueue = "canteen.cascade.failed"
	}

	alertsCfg := AlertsConfig{
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
		Queue:       alertQueue,
	}

	return &Config{
		Server:   serverCfg,
		DB:       dbCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		Auth:     authCfg,
		Alerts:   alertsCfg,
	}, nil
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func envBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}
