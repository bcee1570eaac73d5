package persistence

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"growth-forecast/internal/common/errors"
	httpclient "growth-forecast/internal/common/http"
	"growth-forecast/internal/models"
)

// SheetsTier posts rows to a spreadsheet webhook. The webhook returns no identifier,
// so the tier mints one and any HTTP answer counts as accepted.
type SheetsTier struct {
	webhookURL string
	http       *httpclient.Client
	newID      func() string
}

func NewSheetsTier(webhookURL string, client *httpclient.Client) *SheetsTier {
	if client == nil {
		client = httpclient.NewClient(10 * time.Second)
	}
	return &SheetsTier{webhookURL: webhookURL, http: client, newID: uuid.NewString}
}

func (t *SheetsTier) Tier() Tier { return TierSheets }

func (t *SheetsTier) Attempt(ctx context.Context, rec *models.InteractionRecord) (string, error) {
	if t.webhookURL == "" {
		return "", errors.NewProviderNotConfiguredError(string(TierSheets))
	}
	id := t.newID()
	row := toMap(insertColumns(rec))
	row["id"] = id

	err := t.http.DoJSON(ctx, http.MethodPost, t.webhookURL, nil, row, nil)
	if err != nil && httpclient.StatusCode(err) == 0 {
		return "", err
	}
	return id, nil
}
