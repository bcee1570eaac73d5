package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Providers     ProvidersConfig         `mapstructure:"providers"`
	Persistence   PersistenceConfig       `mapstructure:"persistence"`
	Analytics     AnalyticsConfig         `mapstructure:"analytics"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RequestTimeout int      `mapstructure:"request_timeout"` // milliseconds
	PipelineBudget int      `mapstructure:"pipeline_budget"` // milliseconds, whole prediction run
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	RangeTTL int    `mapstructure:"range_ttl"` // seconds
}

type ProvidersConfig struct {
	Text  TextProviderConfig  `mapstructure:"text"`
	Image ImageProviderConfig `mapstructure:"image"`
}

type TextProviderConfig struct {
	Backend        string `mapstructure:"backend"` // rest | genai
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	Timeout        int    `mapstructure:"timeout"` // milliseconds, per attempt
	MaxAttempts    int    `mapstructure:"max_attempts"`
	BaseDelay      int    `mapstructure:"base_delay"` // milliseconds
	RetryTransient bool   `mapstructure:"retry_transient"`
}

type ImageProviderConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	Model           string `mapstructure:"model"`
	Auth            string `mapstructure:"auth"` // token | oauth
	APIToken        string `mapstructure:"api_token"`
	TokenURL        string `mapstructure:"token_url"`
	ClientID        string `mapstructure:"client_id"`
	ClientSecret    string `mapstructure:"client_secret"`
	Width           int    `mapstructure:"width"`
	Height          int    `mapstructure:"height"`
	Timeout         int    `mapstructure:"timeout"`       // milliseconds, per request
	PollInterval    int    `mapstructure:"poll_interval"` // milliseconds
	MaxPollAttempts int    `mapstructure:"max_poll_attempts"`
	PlaceholderURL  string `mapstructure:"placeholder_url"`
	ArchiveBucket   string `mapstructure:"archive_bucket"`
}

// Configured reports whether credentials for the selected auth mode are present.
func (c ImageProviderConfig) Configured() bool {
	if c.Auth == "oauth" {
		return c.ClientID != "" && c.ClientSecret != ""
	}
	return c.APIToken != ""
}

type PersistenceConfig struct {
	REST struct {
		URL    string `mapstructure:"url"`
		APIKey string `mapstructure:"api_key"`
		Table  string `mapstructure:"table"`
	} `mapstructure:"rest"`
	SQL struct {
		Enabled bool   `mapstructure:"enabled"`
		Table   string `mapstructure:"table"`
	} `mapstructure:"sql"`
	Sheets struct {
		WebhookURL string `mapstructure:"webhook_url"`
	} `mapstructure:"sheets"`
	Notify struct {
		Channel   string `mapstructure:"channel"` // sns | ses | empty
		Region    string `mapstructure:"region"`
		TopicARN  string `mapstructure:"topic_arn"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"notify"`
	Timeout int `mapstructure:"timeout"` // milliseconds, per tier attempt
}

type AnalyticsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
