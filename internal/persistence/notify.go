package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"growth-forecast/internal/models"
)

// Publisher delivers an opaque message and returns the channel's message id.
// aws.SNSPublisher and aws.SESPublisher implement it.
type Publisher interface {
	Publish(ctx context.Context, subject, body string) (string, error)
}

type NotifyTier struct {
	publisher Publisher
}

func NewNotifyTier(p Publisher) *NotifyTier {
	return &NotifyTier{publisher: p}
}

func (t *NotifyTier) Tier() Tier { return TierNotify }

func (t *NotifyTier) Attempt(ctx context.Context, rec *models.InteractionRecord) (string, error) {
	body, err := json.Marshal(toMap(insertColumns(rec)))
	if err != nil {
		return "", err
	}
	subject := fmt.Sprintf("prediction log: %s (%s)", rec.Subject.BreedLabel(), rec.Subject.OwnerID)
	id, err := t.publisher.Publish(ctx, subject, string(body))
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("notification channel returned no message id")
	}
	return id, nil
}
