package persistence

import (
	"context"
	"fmt"
	"time"

	"growth-forecast/internal/common/errors"
	"growth-forecast/internal/common/logger"
	"growth-forecast/internal/common/metrics"
	"growth-forecast/internal/models"
)

// Strategy is one persistence tier.
type Strategy interface {
	Tier() Tier
	Attempt(ctx context.Context, rec *models.InteractionRecord) (key string, err error)
}

// Updater is implemented by tiers that can patch a record they accepted.
type Updater interface {
	Update(ctx context.Context, key string, patch models.RecordPatch) error
}

// Chain tries each tier in order and always ends at the local store.
type Chain struct {
	tiers   []Strategy
	local   *LocalStore
	timeout time.Duration
	logger  logger.Logger
}

type ChainOption func(*Chain)

// WithAttemptTimeout bounds each remote tier call.
func WithAttemptTimeout(d time.Duration) ChainOption {
	return func(c *Chain) { c.timeout = d }
}

func NewChain(local *LocalStore, log logger.Logger, tiers []Strategy, opts ...ChainOption) *Chain {
	if local == nil {
		local = NewLocalStore()
	}
	c := &Chain{
		tiers:   tiers,
		local:   local,
		timeout: 10 * time.Second,
		logger:  logger.ForComponent(log, "persistence"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Chain) Local() *LocalStore { return c.local }

// Save never fails; the local store is the last resort.
func (c *Chain) Save(ctx context.Context, rec *models.InteractionRecord) RecordID {
	for _, tier := range c.tiers {
		key, err := c.attempt(ctx, tier, rec)
		if err == nil && key != "" {
			metrics.PersistenceWrites.WithLabelValues(string(tier.Tier()), "save", "success").Inc()
			id := RecordID{Tier: tier.Tier(), Key: key}
			c.logger.Info("record saved", map[string]interface{}{"recordId": id.String()})
			return id
		}
		metrics.PersistenceWrites.WithLabelValues(string(tier.Tier()), "save", "failure").Inc()
		if err == nil {
			err = fmt.Errorf("empty record key")
		}
		tierErr := errors.NewPersistenceTierFailedError(string(tier.Tier()), err)
		c.logger.Warn("persistence tier rejected record, trying next", map[string]interface{}{
			"tier":    string(tier.Tier()),
			"code":    string(tierErr.Code),
			"details": tierErr.Details,
		})
	}

	key, _ := c.local.Attempt(ctx, rec)
	metrics.PersistenceWrites.WithLabelValues(string(TierLocal), "save", "success").Inc()
	return RecordID{Tier: TierLocal, Key: key}
}

func (c *Chain) attempt(ctx context.Context, tier Strategy, rec *models.InteractionRecord) (string, error) {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return tier.Attempt(actx, rec)
}

// Update patches the record at the tier that accepted it when that tier supports updates.
// Otherwise, or when the update fails, the patch lands in the local store. The returned id
// names where the patch was applied.
func (c *Chain) Update(ctx context.Context, id RecordID, patch models.RecordPatch) RecordID {
	if id.Tier != TierLocal {
		if u := c.updaterFor(id.Tier); u != nil {
			uctx, cancel := context.WithTimeout(ctx, c.timeout)
			err := u.Update(uctx, id.Key, patch)
			cancel()
			if err == nil {
				metrics.PersistenceWrites.WithLabelValues(string(id.Tier), "update", "success").Inc()
				return id
			}
			metrics.PersistenceWrites.WithLabelValues(string(id.Tier), "update", "failure").Inc()
			c.logger.Warn("record update failed, keeping patch locally", map[string]interface{}{
				"recordId": id.String(),
				"error":    err.Error(),
			})
		}
	}

	c.local.Apply(id, patch)
	metrics.PersistenceWrites.WithLabelValues(string(TierLocal), "update", "success").Inc()
	if id.Tier == TierLocal {
		return id
	}
	return RecordID{Tier: TierLocal, Key: id.String()}
}

func (c *Chain) updaterFor(t Tier) Updater {
	for _, tier := range c.tiers {
		if tier.Tier() != t {
			continue
		}
		if u, ok := tier.(Updater); ok {
			return u
		}
		return nil
	}
	return nil
}
