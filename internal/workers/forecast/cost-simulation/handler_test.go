package costsimulation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growth-forecast/internal/common/logger"
	"growth-forecast/internal/common/retry"
	"growth-forecast/internal/models"
	"growth-forecast/internal/providers/textgen"
)

type stubCompleter struct {
	text     string
	err      error
	prompt   string
	sampling textgen.Sampling
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string, sampling textgen.Sampling) (string, error) {
	s.prompt = prompt
	s.sampling = sampling
	return s.text, s.err
}

func subject() models.SubjectProfile {
	return models.SubjectProfile{Breed: "Shiba", Sex: models.SexMale, BirthDate: "2024-03-01"}
}

func TestSimulateParsesProviderReply(t *testing.T) {
	stub := &stubCompleter{text: "Here you go:\n```json\n" + `{"categories": [
		{"id": "initial", "title": "Initial", "icon": "home", "items": [{"name": "Crate", "cost": "JPY 10,000"}, {"name": "Leash", "cost": 3000}], "total": "JPY 13,000"},
		{"title": "Monthly", "items": [{"name": "Food", "cost": "JPY 5,000"}]}
	]}` + "\n```"}
	c := NewClient(stub, logger.NewTestLogger(t))

	sim := c.Simulate(context.Background(), subject(), 9.0)

	require.Len(t, sim.Categories, 2)
	assert.False(t, sim.FromFallback)
	assert.Equal(t, "initial", sim.Categories[0].ID)
	assert.Equal(t, "JPY 13,000", sim.Categories[0].Total)
	assert.Equal(t, "3000", sim.Categories[0].Items[1].Cost)
	assert.Equal(t, "category-2", sim.Categories[1].ID)
	assert.Equal(t, textgen.CostSampling, stub.sampling)
	assert.Contains(t, stub.prompt, "Predicted adult weight: 9.0kg")
}

func TestSimulateFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		stub   *stubCompleter
		weight float64
		size   SizeClass
	}{
		{"provider fatal", &stubCompleter{err: &retry.FatalError{Attempts: 3, Cause: errors.New("429")}}, 5.0, SizeSmall},
		{"no object", &stubCompleter{text: "sorry, I cannot help"}, 12.0, SizeMedium},
		{"empty categories", &stubCompleter{text: `{"categories": []}`}, 30.0, SizeLarge},
		{"wrong shape", &stubCompleter{text: `{"categories": [{"name": "x"}]}`}, 8.0, SizeSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.stub, logger.NewTestLogger(t))
			sim := c.Simulate(context.Background(), subject(), tt.weight)

			assert.True(t, sim.FromFallback)
			assert.Equal(t, ReferenceTable(tt.size), sim)
		})
	}
}

func TestSizeClassFor(t *testing.T) {
	assert.Equal(t, SizeSmall, SizeClassFor(9.9))
	assert.Equal(t, SizeMedium, SizeClassFor(10))
	assert.Equal(t, SizeMedium, SizeClassFor(24.9))
	assert.Equal(t, SizeLarge, SizeClassFor(25))
}

func TestReferenceTableIsComplete(t *testing.T) {
	for _, size := range []SizeClass{SizeSmall, SizeMedium, SizeLarge} {
		sim := ReferenceTable(size)
		require.Len(t, sim.Categories, 4, size)
		ids := make([]string, 0, 4)
		for _, cat := range sim.Categories {
			ids = append(ids, cat.ID)
			assert.GreaterOrEqual(t, len(cat.Items), 4, cat.ID)
			assert.LessOrEqual(t, len(cat.Items), 6, cat.ID)
			assert.True(t, strings.HasPrefix(cat.Total, "JPY"), cat.ID)
		}
		assert.Equal(t, []string{"initial", "monthly", "annual", "medical"}, ids)
	}
	assert.NotEqual(t, ReferenceTable(SizeSmall), ReferenceTable(SizeLarge))
}
