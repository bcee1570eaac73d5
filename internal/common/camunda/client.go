// Package camunda connects to a Zeebe gateway and runs job workers against it.
package camunda

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"growth-forecast/internal/common/config"
	"growth-forecast/internal/common/logger"
	"growth-forecast/internal/common/retry"
)

// Gateway is the subset of zbc.Client the workers rely on.
type Gateway interface {
	NewJobWorker() worker.JobWorkerBuilderStep1
	Close() error
}

type topologyFunc func(ctx context.Context) (*pb.TopologyResponse, error)

type Client struct {
	gateway  Gateway
	topology topologyFunc
	timeout  time.Duration
	logger   logger.Logger

	mu      sync.Mutex
	workers []worker.JobWorker
}

// Connect dials the gateway and waits for a topology response, retrying while the
// broker is still coming up.
func Connect(ctx context.Context, cfg config.CamundaConfig, log logger.Logger) (*Client, error) {
	zb, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create zeebe client: %w", err)
	}

	c := newClient(zb, func(ctx context.Context) (*pb.TopologyResponse, error) {
		return zb.NewTopologyCommand().Send(ctx)
	}, time.Duration(cfg.RequestTimeout)*time.Millisecond, log)

	policy := retry.Policy{
		MaxAttempts:    10,
		BaseDelay:      time.Second,
		AttemptTimeout: c.timeout,
		Classify:       classifyGatewayError,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			c.logger.Warn("zeebe gateway not ready, retrying", map[string]interface{}{
				"attempt":     attempt,
				"error":       err.Error(),
				"nextRetryIn": wait.String(),
			})
		},
	}
	if _, err := retry.Do(ctx, policy, c.topology); err != nil {
		_ = zb.Close()
		return nil, fmt.Errorf("connect to zeebe broker at %s: %w", cfg.BrokerAddress, err)
	}
	c.logger.Info("zeebe client connected", map[string]interface{}{"gateway": cfg.BrokerAddress})
	return c, nil
}

func newClient(gw Gateway, topology topologyFunc, timeout time.Duration, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		gateway:  gw,
		topology: topology,
		timeout:  timeout,
		logger:   logger.ForComponent(log, "zeebe"),
	}
}

// Ping asks the broker for its topology.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if _, err := c.topology(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// StartWorker opens a job worker for taskType when it is enabled.
func (c *Client) StartWorker(taskType string, wcfg config.WorkerConfig, handler func(worker.JobClient, entities.Job)) bool {
	if !wcfg.Enabled {
		c.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	jw := c.gateway.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	c.mu.Lock()
	c.workers = append(c.workers, jw)
	c.mu.Unlock()

	c.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

// Close stops every worker and then the gateway connection.
func (c *Client) Close() error {
	c.mu.Lock()
	workers := c.workers
	c.workers = nil
	c.mu.Unlock()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	return c.gateway.Close()
}

var retryablePhrases = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"unavailable",
	"unreachable",
	"broken pipe",
}

func classifyGatewayError(err error) retry.Decision {
	msg := strings.ToLower(err.Error())
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return retry.Retry
		}
	}
	return retry.Fail
}
