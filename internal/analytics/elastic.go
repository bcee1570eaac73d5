package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"

	"growth-forecast/internal/common/logger"
)

// ElasticSink indexes one document per event.
type ElasticSink struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticSink(client *elasticsearch.Client, index string, log logger.Logger) *ElasticSink {
	return &ElasticSink{client: client, index: index, logger: logger.ForComponent(log, "analytics")}
}

func (s *ElasticSink) Record(ctx context.Context, e Event) {
	if err := s.send(ctx, e); err != nil {
		s.logger.Warn("analytics event dropped", map[string]interface{}{
			"event": string(e.Name),
			"error": err.Error(),
		})
	}
}

func (s *ElasticSink) send(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("index %s: %s: %s", s.index, res.Status(), msg)
	}
	return nil
}
