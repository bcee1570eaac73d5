package textprediction

import (
	"time"

	"growth-forecast/internal/common/config"
	"growth-forecast/internal/common/retry"
)

type Config struct {
	Retry    retry.Policy
	RangeTTL time.Duration
}

func LoadConfig(text config.TextProviderConfig, redis config.RedisConfig) *Config {
	policy := retry.DefaultPolicy()
	if text.MaxAttempts > 0 {
		policy.MaxAttempts = text.MaxAttempts
	}
	if text.BaseDelay > 0 {
		policy.BaseDelay = config.GetDuration(text.BaseDelay)
	}
	if text.Timeout > 0 {
		policy.AttemptTimeout = config.GetDuration(text.Timeout)
	}
	policy.RetryTransient = text.RetryTransient

	ttl := 24 * time.Hour
	if redis.RangeTTL > 0 {
		ttl = time.Duration(redis.RangeTTL) * time.Second
	}

	return &Config{Retry: policy, RangeTTL: ttl}
}
