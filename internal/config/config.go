package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultScriptURL  = "https://checkout.razorpay.com/v1/checkout.js"
	DefaultStorageDSN = "file:storefront.db?_pragma=busy_timeout(5000)"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	APIURL      string
	HTTPTimeout time.Duration

	StorageDSN  string
	CSRFEnabled bool

	RazorpayKeyID     string
	RazorpayScriptURL string
	StoreName         string
	StoreTagline      string
	StoreLogo         string
	ThemeColor        string
	CheckoutIdleTTL   time.Duration

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string
}

// Load reads .env (when present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		APIURL:      strings.TrimRight(os.Getenv("API_URL"), "/"),
		HTTPTimeout: time.Duration(EnvIntDefault("HTTP_TIMEOUT", 5)) * time.Second,

		StorageDSN:  EnvDefault("STORAGE_DSN", DefaultStorageDSN),
		CSRFEnabled: EnvBoolDefault("CSRF_ENABLED", false),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayScriptURL: EnvDefault("RAZORPAY_SCRIPT_URL", DefaultScriptURL),
		StoreName:         EnvDefault("STORE_NAME", "Nirmal Handloom"),
		StoreTagline:      EnvDefault("STORE_TAGLINE", "Handwoven with care"),
		StoreLogo:         EnvDefault("STORE_LOGO", "/assets/logo.png"),
		ThemeColor:        EnvDefault("THEME_COLOR", "#D4AF37"),
		CheckoutIdleTTL:   time.Duration(EnvIntDefault("CHECKOUT_IDLE_MINUTES", 30)) * time.Minute,

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "product"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvBoolDefault(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
