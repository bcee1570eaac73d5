package imagegeneration

import (
	"time"

	"growth-forecast/internal/common/config"
)

type Config struct {
	PollInterval    time.Duration
	MaxPollAttempts int
	CancelTimeout   time.Duration
}

func LoadConfig(image config.ImageProviderConfig) *Config {
	cfg := &Config{
		PollInterval:    time.Duration(image.PollInterval) * time.Millisecond,
		MaxPollAttempts: image.MaxPollAttempts,
		CancelTimeout:   10 * time.Second,
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = 150
	}
	return cfg
}
