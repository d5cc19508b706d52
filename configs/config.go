package configs

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	Payment  PaymentConfig
	Breaker  BreakerConfig
	Views    ViewConfig
	LogLevel string
}

type ServerConfig struct {
	Port           string
	Mode           string
	AllowedOrigins []string
}

// Endpoint is one backend route as the storefront addresses it.
type Endpoint struct {
	Method string
	URL    string
}

type BackendConfig struct {
	Timeout        time.Duration
	CartItems      Endpoint
	UpdateCartItem Endpoint
	DeleteCartItem Endpoint
	Payment        Endpoint
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers    []string
	CartTopic  string
	WriteAsync bool
}

type JWTConfig struct {
	SecretKey   string
	ExpiryHours int
	CookieName  string
}

type PaymentConfig struct {
	PublishableKey  string
	CheckoutBaseURL string
}

type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	ConsecutiveFails uint32
}

type ViewConfig struct {
	IdleTTL time.Duration
}

func LoadConfig() *Config {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	backendURL := strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8080"), "/")

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "3000"),
			Mode:           getEnv("GIN_MODE", "debug"),
			AllowedOrigins: getEnvList("ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Backend: BackendConfig{
			Timeout: getEnvDuration("BACKEND_TIMEOUT", 15*time.Second),
			CartItems: Endpoint{
				Method: strings.ToUpper(getEnv("CART_ITEMS_METHOD", "GET")),
				URL:    backendURL + getEnv("CART_ITEMS_PATH", "/api/view-card-product"),
			},
			UpdateCartItem: Endpoint{
				Method: strings.ToUpper(getEnv("UPDATE_CART_ITEM_METHOD", "POST")),
				URL:    backendURL + getEnv("UPDATE_CART_ITEM_PATH", "/api/update-cart-product"),
			},
			DeleteCartItem: Endpoint{
				Method: strings.ToUpper(getEnv("DELETE_CART_ITEM_METHOD", "POST")),
				URL:    backendURL + getEnv("DELETE_CART_ITEM_PATH", "/api/delete-cart-product"),
			},
			Payment: Endpoint{
				Method: strings.ToUpper(getEnv("PAYMENT_METHOD", "POST")),
				URL:    backendURL + getEnv("PAYMENT_PATH", "/api/checkout"),
			},
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:    getEnvList("KAFKA_BROKERS", "localhost:9092"),
			CartTopic:  getEnv("KAFKA_CART_TOPIC", "cart-events"),
			WriteAsync: getEnvBool("KAFKA_WRITE_ASYNC", false),
		},
		JWT: JWTConfig{
			SecretKey:   getEnv("JWT_SECRET", "your-secret-key"),
			ExpiryHours: getEnvInt("JWT_EXPIRY_HOURS", 24),
			CookieName:  getEnv("SESSION_COOKIE", "token"),
		},
		Payment: PaymentConfig{
			PublishableKey:  getEnv("STRIPE_PUBLIC_KEY", ""),
			CheckoutBaseURL: getEnv("STRIPE_CHECKOUT_URL", "https://checkout.stripe.com/c/pay"),
		},
		Breaker: BreakerConfig{
			MaxRequests:      getEnvUint32("BREAKER_MAX_REQUESTS", 1),
			Interval:         getEnvDuration("BREAKER_INTERVAL", time.Minute),
			Timeout:          getEnvDuration("BREAKER_TIMEOUT", 30*time.Second),
			ConsecutiveFails: getEnvUint32("BREAKER_CONSECUTIVE_FAILS", 5),
		},
		Views: ViewConfig{
			IdleTTL: getEnvDuration("VIEW_IDLE_TTL", 30*time.Minute),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvUint32 keeps the default for negative or out-of-range values.
func getEnvUint32(key string, defaultValue uint32) uint32 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseUint(value, 10, 32); err == nil {
			return uint32(n)
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty entries.
func getEnvList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
