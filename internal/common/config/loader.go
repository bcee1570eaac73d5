package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	return build(v)
}

func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func build(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env", "../../../.env"}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

func envFallback(dst *string, names ...string) {
	if *dst != "" {
		return
	}
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			*dst = val
			return
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	envFallback(&cfg.Providers.Text.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	envFallback(&cfg.Providers.Image.APIToken, "REPLICATE_API_TOKEN", "IMAGE_API_TOKEN")
	envFallback(&cfg.Providers.Image.ClientID, "IMAGE_CLIENT_ID", "DATACRUNCH_CLIENT_ID")
	envFallback(&cfg.Providers.Image.ClientSecret, "IMAGE_CLIENT_SECRET", "DATACRUNCH_CLIENT_SECRET")

	envFallback(&cfg.Persistence.REST.URL, "SUPABASE_URL")
	envFallback(&cfg.Persistence.REST.APIKey, "SUPABASE_ANON_KEY")
	envFallback(&cfg.Persistence.Sheets.WebhookURL, "SHEETS_WEBHOOK_URL")
	envFallback(&cfg.Persistence.Notify.TopicARN, "NOTIFY_TOPIC_ARN")

	envFallback(&cfg.Database.Postgres.User, "DB_USER")
	envFallback(&cfg.Database.Postgres.Password, "DB_PASSWORD")
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "growth-forecast"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 330000
	}
	if cfg.Server.PipelineBudget == 0 {
		cfg.Server.PipelineBudget = 600000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Redis.RangeTTL == 0 {
		cfg.Database.Redis.RangeTTL = 86400
	}

	text := &cfg.Providers.Text
	if text.Backend == "" {
		text.Backend = "rest"
	}
	if text.BaseURL == "" {
		text.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if text.Model == "" {
		text.Model = "gemini-2.0-flash"
	}
	if text.Timeout == 0 {
		text.Timeout = 30000
	}
	if text.MaxAttempts == 0 {
		text.MaxAttempts = 3
	}
	if text.BaseDelay == 0 {
		text.BaseDelay = 1000
	}

	img := &cfg.Providers.Image
	if img.BaseURL == "" {
		img.BaseURL = "https://api.replicate.com/v1"
	}
	if img.Model == "" {
		img.Model = "black-forest-labs/flux-kontext-pro"
	}
	if img.Auth == "" {
		img.Auth = "token"
	}
	if img.Width == 0 {
		img.Width = 1024
	}
	if img.Height == 0 {
		img.Height = 1024
	}
	if img.Timeout == 0 {
		img.Timeout = 30000
	}
	if img.PollInterval == 0 {
		img.PollInterval = 2000
	}
	if img.MaxPollAttempts == 0 {
		img.MaxPollAttempts = 150
	}
	if img.PlaceholderURL == "" {
		img.PlaceholderURL = "/default-dog.svg"
	}

	if cfg.Persistence.REST.Table == "" {
		cfg.Persistence.REST.Table = "prediction_logs"
	}
	if cfg.Persistence.SQL.Table == "" {
		cfg.Persistence.SQL.Table = cfg.Persistence.REST.Table
	}
	if cfg.Persistence.Timeout == 0 {
		cfg.Persistence.Timeout = 10000
	}

	if cfg.Analytics.Index == "" {
		cfg.Analytics.Index = "growth-forecast-events"
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 600000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	if cfg.Persistence.SQL.Enabled {
		pg := cfg.Database.Postgres
		if pg.Host == "" {
			return fmt.Errorf("database.postgres.host is required when persistence.sql is enabled")
		}
		if pg.Database == "" {
			return fmt.Errorf("database.postgres.database is required when persistence.sql is enabled")
		}
		if pg.User == "" {
			return fmt.Errorf("database.postgres.user is required when persistence.sql is enabled")
		}
	}

	if cfg.Analytics.Enabled && cfg.Database.Elasticsearch.GetURL() == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required when analytics is enabled")
	}

	switch cfg.Providers.Text.Backend {
	case "rest", "genai":
	default:
		return fmt.Errorf("providers.text.backend must be rest or genai, got %q", cfg.Providers.Text.Backend)
	}

	switch cfg.Providers.Image.Auth {
	case "token", "oauth":
	default:
		return fmt.Errorf("providers.image.auth must be token or oauth, got %q", cfg.Providers.Image.Auth)
	}

	switch cfg.Persistence.Notify.Channel {
	case "", "sns", "ses":
	default:
		return fmt.Errorf("persistence.notify.channel must be sns or ses, got %q", cfg.Persistence.Notify.Channel)
	}

	if cfg.Providers.Image.MaxPollAttempts < 1 {
		return fmt.Errorf("providers.image.max_poll_attempts must be positive")
	}

	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       600000,
		MaxRetries:    3,
	}
}

func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
