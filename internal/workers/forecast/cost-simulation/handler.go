package costsimulation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"growth-forecast/internal/common/logger"
	"growth-forecast/internal/common/metrics"
	"growth-forecast/internal/common/structured"
	"growth-forecast/internal/common/validation"
	"growth-forecast/internal/models"
	"growth-forecast/internal/providers/textgen"
)

const TaskType = "cost-simulation"

// Completer sends one prompt through the retrying text provider.
type Completer interface {
	Complete(ctx context.Context, prompt string, sampling textgen.Sampling) (string, error)
}

type Client struct {
	text   Completer
	logger logger.Logger
	now    func() time.Time
}

func NewClient(text Completer, log logger.Logger) *Client {
	return &Client{
		text:   text,
		logger: logger.ForComponent(log, TaskType),
		now:    time.Now,
	}
}

// Simulate never fails and never returns an empty category list.
func (c *Client) Simulate(ctx context.Context, subject models.SubjectProfile, predictedWeight float64) models.CostSimulation {
	text, err := c.text.Complete(ctx, buildCostPrompt(subject, predictedWeight, c.now()), textgen.CostSampling)
	if err != nil {
		c.logger.Error("cost call failed, using reference table", map[string]interface{}{"error": err.Error()})
		return c.fallback(predictedWeight)
	}

	sim, err := parseCostSimulation(text)
	if err != nil {
		c.logger.Warn("cost reply rejected, using reference table", map[string]interface{}{"error": err.Error()})
		return c.fallback(predictedWeight)
	}
	return sim
}

func (c *Client) fallback(predictedWeight float64) models.CostSimulation {
	metrics.FallbacksUsed.WithLabelValues("cost").Inc()
	return ReferenceTable(SizeClassFor(predictedWeight))
}

// wire shape; costs arrive as strings or bare numbers
type rawSimulation struct {
	Categories []struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
		Items       []struct {
			Name string          `json:"name"`
			Cost json.RawMessage `json:"cost"`
		} `json:"items"`
		Total json.RawMessage `json:"total"`
	} `json:"categories"`
}

func parseCostSimulation(text string) (models.CostSimulation, error) {
	obj, err := structured.ExtractFirstObject(text)
	if err != nil {
		return models.CostSimulation{}, err
	}
	if res := validation.CostSimulationSchema.ValidateJSON(obj); !res.Valid {
		return models.CostSimulation{}, fmt.Errorf("unexpected cost shape: %s", res.Summary())
	}

	var raw rawSimulation
	if err := json.Unmarshal(obj, &raw); err != nil {
		return models.CostSimulation{}, err
	}

	sim := models.CostSimulation{Categories: make([]models.CostCategory, 0, len(raw.Categories))}
	for i, rc := range raw.Categories {
		cat := models.CostCategory{
			ID:          rc.ID,
			Title:       strings.TrimSpace(rc.Title),
			Description: rc.Description,
			Icon:        rc.Icon,
			Total:       costString(rc.Total),
		}
		if cat.ID == "" {
			cat.ID = fmt.Sprintf("category-%d", i+1)
		}
		for _, it := range rc.Items {
			cat.Items = append(cat.Items, models.CostItem{Name: it.Name, Cost: costString(it.Cost)})
		}
		sim.Categories = append(sim.Categories, cat)
	}
	return sim, nil
}

func costString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
