package config // package config loads application configuration from environment variables

import (
	"os" // os provides access to environment variables

	"github.com/joho/godotenv" // godotenv pre-loads a local .env file when present

	"github.com/iliyamo/live-auction/internal/utils"
)

// fatal reports a configuration error and exits; tests replace it.
var fatal = utils.Fatal

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Durations and tunables for the auction engine
// live in AuctionConfig; this struct carries connection level settings only.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	JWTSecret string // secret used to verify access tokens
	AMQPURL   string // broker URL for activity events (optional)
	LogLevel  string // logrus level name
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first; variables
// already present in the environment win.  Required variables are enforced
// by must() and missing values cause the program to exit with a fatal log
// message.
func Load() Config {
	_ = godotenv.Load() // a missing .env is normal outside development
	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"), // empty allowed
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),
		AMQPURL:   AMQPURL(),
		LogLevel:  envStr("LOG_LEVEL", "info"),
	}
}

// AMQPURL returns the broker URL from RABBITMQ_URL or AMQP_URL.  An empty
// string means activity events are written straight to the database.
func AMQPURL() string {
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		return url
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		fatal("missing required env var", map[string]any{"key": key})
	}
	return v
}
