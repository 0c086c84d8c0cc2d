package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	AdminToken        string `mapstructure:"ADMIN_TOKEN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisTaskDB   int    `mapstructure:"REDIS_TASK_DB"`

	// Stripe.
	StripeKey       string `mapstructure:"STRIPE_KEY"`
	StripeReturnURL string `mapstructure:"STRIPE_RETURN_URL"`

	// Scheduling.
	Timezone             string        `mapstructure:"TIMEZONE"`
	BookingHorizonDays   int           `mapstructure:"BOOKING_HORIZON_DAYS"`
	BookingMaxDates      int           `mapstructure:"BOOKING_MAX_DATES"`
	AvailabilityCacheTTL time.Duration `mapstructure:"AVAILABILITY_CACHE_TTL"`

	PaymentSessionCapacity int `mapstructure:"PAYMENT_SESSION_CAPACITY"`

	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
}

var AppConfig Config

func LoadConfig() {
	// A local .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "tutorly")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("ADMIN_TOKEN", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_TASK_DB", 1)
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("STRIPE_RETURN_URL", "")
	viper.SetDefault("TIMEZONE", "UTC")
	viper.SetDefault("BOOKING_HORIZON_DAYS", 30)
	viper.SetDefault("BOOKING_MAX_DATES", 14)
	viper.SetDefault("AVAILABILITY_CACHE_TTL", "5m")
	viper.SetDefault("PAYMENT_SESSION_CAPACITY", 10000)
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
}

// Location resolves TIMEZONE, falling back to UTC.
func Location() *time.Location {
	loc, err := time.LoadLocation(AppConfig.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
