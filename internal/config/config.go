package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// APIBaseURL is the booking backend; optional with a local default.
	APIBaseURL string `mapstructure:"api_base_url"`
	// VAPIDPublicKey is required for subscribing. Its absence is not a
	// startup failure; Subscribe hard-stops on it instead.
	VAPIDPublicKey    string        `mapstructure:"vapid_public_key"`
	ServiceWorkerPath string        `mapstructure:"service_worker_path"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	// Permission is the simulated prompt answer for the local bridge:
	// granted or denied.
	Permission string `mapstructure:"permission"`
	// ServerPort is used by the stub server only.
	ServerPort string `mapstructure:"server_port"`
}

// Load reads configuration from an optional YAML file, a .env file and the
// environment, and applies fallback defaults.
func Load() *Config {
	// Mirrors the frontend's env file workflow; absence is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	v.BindEnv("api_base_url", "API_BASE_URL")
	v.BindEnv("vapid_public_key", "VAPID_PUBLIC_KEY")
	v.BindEnv("service_worker_path", "SERVICE_WORKER_PATH")
	v.BindEnv("poll_interval", "POLL_INTERVAL")
	v.BindEnv("fetch_timeout", "FETCH_TIMEOUT")
	v.BindEnv("permission", "NOTIFICATION_PERMISSION")
	v.BindEnv("server_port", "SERVER_PORT")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			log.Fatalf("Error reading config file: %v", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	// Fallback defaults
	if config.APIBaseURL == "" {
		config.APIBaseURL = "http://localhost:8000"
	}
	if config.ServiceWorkerPath == "" {
		config.ServiceWorkerPath = "/service-worker.js"
	}
	if config.PollInterval == 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.FetchTimeout == 0 {
		config.FetchTimeout = 10 * time.Second
	}
	if config.Permission == "" {
		config.Permission = "granted"
	}
	if config.ServerPort == "" {
		config.ServerPort = "8000"
	}

	return &config
}
