package predictgrowth

import (
	"time"

	"growth-forecast/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig reads the job timeout, falling back to five minutes which covers
// the image polling budget.
func LoadConfig(wcfg config.WorkerConfig) *Config {
	timeout := time.Duration(wcfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Config{Timeout: timeout}
}
