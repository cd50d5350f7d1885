package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `validate:"required,oneof=development stage production"`
	Http Http

	Cors CORS `validate:"required"`

	Auth Auth `validate:"required"`

	Postgres Postgres `validate:"required"`

	Pricing Pricing `validate:"required"`

	Gateways Gateways `validate:"required"`

	Notify Notify `validate:"required"`
}

type Http struct {
	Host string `validate:"required,hostname|ip"`
	Port string `validate:"required,numeric"`
}

type Auth struct {
	JWTSecret string `validate:"required"`
}

type Postgres struct {
	Host     string `validate:"required,hostname|ip"`
	Port     int    `validate:"required,gt=0,lte=65535"`
	DBName   string `validate:"required"`
	User     string `validate:"required"`
	Password string `validate:"required"`

	SSLMode string `validate:"required,oneof=disable require verify-ca verify-full"`

	MaxOpenConns    int           `validate:"gte=1"`
	MaxIdleConns    int           `validate:"gte=0"`
	ConnMaxLifetime time.Duration `validate:"gte=0"`
}

type CORS struct {
	AllowedOrigins []string `validate:"required,min=1,dive,url"`
}

type Pricing struct {
	Currency              string `validate:"required,len=3"`
	FlatShippingFee       int64  `validate:"gte=0"`
	FreeShippingThreshold int64  `validate:"gte=0"`
}

// Gateway holds per-provider credentials. Secret signs outbound requests and
// verifies inbound webhook signatures.
type Gateway struct {
	BaseURL     string `validate:"omitempty,url"`
	Secret      string
	CallbackURL string `validate:"omitempty,url"`
}

type Gateways struct {
	Timeout     time.Duration `validate:"required,gt=0"`
	Paystack    Gateway
	Flutterwave Gateway
	Stripe      Gateway

	// Bank transfer has no remote provider, only account instructions.
	BankName      string
	AccountName   string
	AccountNumber string
}

type Notify struct {
	Brokers []string `validate:"required,min=1,dive,hostname_port"`
	Topic   string   `validate:"required"`

	BatchTimeout time.Duration `validate:"gte=0"`
	WriteTimeout time.Duration `validate:"gte=0"`
}

func New() Config {
	return Config{
		Env: env("ENV", "development"),

		Http: Http{
			Host: env("HOST", "localhost"),
			Port: env("PORT", "8080"),
		},

		Cors: CORS{
			AllowedOrigins: strings.Split(env("ALLOWED_CORS_ORIGINS", "http://localhost:3000"), ","),
		},

		Auth: Auth{
			JWTSecret: env("JWT_SECRET", ""),
		},

		Postgres: Postgres{
			Port:     envInt("POSTGRES_PORT", 5432),
			Host:     env("POSTGRES_HOST", "localhost"),
			DBName:   env("POSTGRES_DB", "storefront"),
			User:     env("POSTGRES_USER", ""),
			Password: env("POSTGRES_PASSWORD", ""),

			SSLMode: env("POSTGRES_SSL_MODE", "disable"),

			MaxOpenConns:    envInt("POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("POSTGRES_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: envDuration("POSTGRES_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Pricing: Pricing{
			Currency:              env("CURRENCY", "NGN"),
			FlatShippingFee:       envInt64("FLAT_SHIPPING_FEE", 2500),
			FreeShippingThreshold: envInt64("FREE_SHIPPING_THRESHOLD", 50000),
		},

		Gateways: Gateways{
			Timeout: envDuration("GATEWAY_TIMEOUT", 10*time.Second),

			Paystack: Gateway{
				BaseURL:     env("PAYSTACK_BASE_URL", "https://api.paystack.co"),
				Secret:      env("PAYSTACK_SECRET_KEY", ""),
				CallbackURL: env("PAYSTACK_CALLBACK_URL", ""),
			},
			Flutterwave: Gateway{
				BaseURL:     env("FLUTTERWAVE_BASE_URL", "https://api.flutterwave.com/v3"),
				Secret:      env("FLUTTERWAVE_SECRET_KEY", ""),
				CallbackURL: env("FLUTTERWAVE_CALLBACK_URL", ""),
			},
			Stripe: Gateway{
				BaseURL: env("STRIPE_BASE_URL", "https://api.stripe.com"),
				Secret:  env("STRIPE_SECRET_KEY", ""),
			},

			BankName:      env("BANK_TRANSFER_BANK", "Demo Bank"),
			AccountName:   env("BANK_TRANSFER_ACCOUNT_NAME", "Storefront Ltd"),
			AccountNumber: env("BANK_TRANSFER_ACCOUNT_NUMBER", "0000000000"),
		},

		Notify: Notify{
			Brokers: strings.Split(env("KAFKA_BROKERS", "localhost:9092"), ","),
			Topic:   env("KAFKA_NOTIFY_TOPIC", "order-notifications"),

			BatchTimeout: envDuration("KAFKA_BATCH_TIMEOUT", 10*time.Millisecond),
			WriteTimeout: envDuration("KAFKA_WRITE_TIMEOUT", 5*time.Second),
		},
	}
}

func (c Config) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

func env(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}
