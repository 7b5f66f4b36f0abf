package config

import (
	"log/slog"
	"os"

	"github.com/inkwear/storefront/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment selects how fulfillment orders are created.
type Environment string

const (
	EnvProduction Environment = "production"
	EnvSandbox    Environment = "sandbox"
)

// Config is an explicit snapshot of everything the orchestration path needs.
// It is built once at startup and passed by parameter so the checkout flow
// never reads ambient state.
type Config struct {
	Environment     Environment
	SkipFulfillment bool

	PaymentBaseURL      string
	PaymentClientID     string
	PaymentClientSecret string

	FulfillmentBaseURL string
	FulfillmentAPIKey  string
}

func MustInit() {
	if err := godotenv.Load("./.env"); err != nil {
		panic("error while loading .env file: " + err.Error())
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/storefront")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		panic("error while reading config file: " + err.Error())
	}
	SetupLogger()
}

func SetupLogger() {
	handler := logger.NewHandler(nil)
	log := slog.New(handler)
	slog.SetDefault(log)
}

// NewConfig builds the runtime config snapshot from viper and the environment.
func NewConfig() *Config {
	env := EnvSandbox
	if viper.GetString("environment") == string(EnvProduction) {
		env = EnvProduction
	}

	return &Config{
		Environment:     env,
		SkipFulfillment: viper.GetBool("fulfillment.skip"),

		PaymentBaseURL:      viper.GetString("payment.base_url"),
		PaymentClientID:     os.Getenv("PAYMENT_CLIENT_ID"),
		PaymentClientSecret: os.Getenv("PAYMENT_CLIENT_SECRET"),

		FulfillmentBaseURL: viper.GetString("fulfillment.base_url"),
		FulfillmentAPIKey:  os.Getenv("FULFILLMENT_API_KEY"),
	}
}
