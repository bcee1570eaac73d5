package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"growth-forecast/internal/common/errors"
	httpclient "growth-forecast/internal/common/http"
	"growth-forecast/internal/models"
)

// RESTTier writes rows through a PostgREST-compatible endpoint ({base}/rest/v1/{table}).
type RESTTier struct {
	baseURL string
	apiKey  string
	table   string
	http    *httpclient.Client
}

func NewRESTTier(baseURL, apiKey, table string, client *httpclient.Client) *RESTTier {
	if client == nil {
		client = httpclient.NewClient(10 * time.Second)
	}
	return &RESTTier{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		table:   table,
		http:    client,
	}
}

func (t *RESTTier) Tier() Tier { return TierREST }

func (t *RESTTier) headers() map[string]string {
	return map[string]string{
		"apikey":        t.apiKey,
		"Authorization": "Bearer " + t.apiKey,
	}
}

func (t *RESTTier) endpoint() string {
	return fmt.Sprintf("%s/rest/v1/%s", t.baseURL, url.PathEscape(t.table))
}

func (t *RESTTier) Attempt(ctx context.Context, rec *models.InteractionRecord) (string, error) {
	if t.baseURL == "" || t.apiKey == "" {
		return "", errors.NewProviderNotConfiguredError(string(TierREST))
	}
	headers := t.headers()
	headers["Prefer"] = "return=representation"

	var rows []struct {
		ID json.RawMessage `json:"id"`
	}
	if err := t.http.DoJSON(ctx, http.MethodPost, t.endpoint(), headers, toMap(insertColumns(rec)), &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 || len(rows[0].ID) == 0 || string(rows[0].ID) == "null" {
		return "", errors.NewProviderResponseInvalidError(string(TierREST), "insert returned no id")
	}
	return strings.Trim(string(rows[0].ID), `"`), nil
}

func (t *RESTTier) Update(ctx context.Context, key string, patch models.RecordPatch) error {
	cols := patchColumns(patch)
	if len(cols) == 0 {
		return nil
	}
	endpoint := t.endpoint() + "?id=eq." + url.QueryEscape(key)
	return t.http.DoJSON(ctx, http.MethodPatch, endpoint, t.headers(), toMap(cols), nil)
}

// ListQuery selects rows for export. Zero Since means no lower bound.
type ListQuery struct {
	Columns []string
	Since   time.Time
	Limit   int
}

// List reads rows newest first.
func (t *RESTTier) List(ctx context.Context, q ListQuery) ([]map[string]interface{}, error) {
	if t.baseURL == "" || t.apiKey == "" {
		return nil, errors.NewProviderNotConfiguredError(string(TierREST))
	}
	params := url.Values{}
	if len(q.Columns) > 0 {
		params.Set("select", strings.Join(q.Columns, ","))
	}
	params.Set("order", "prediction_started_at.desc")
	if !q.Since.IsZero() {
		params.Set("prediction_started_at", "gte."+q.Since.UTC().Format(time.RFC3339))
	}
	if q.Limit > 0 {
		params.Set("limit", fmt.Sprint(q.Limit))
	}

	var rows []map[string]interface{}
	if err := t.http.DoJSON(ctx, http.MethodGet, t.endpoint()+"?"+params.Encode(), t.headers(), nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
