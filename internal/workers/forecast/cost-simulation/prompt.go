package costsimulation

import (
	"fmt"
	"strings"
	"time"

	"growth-forecast/internal/models"
)

func buildCostPrompt(s models.SubjectProfile, predictedWeight float64, now time.Time) string {
	return strings.Join([]string{
		"You are a pet care cost advisor in Japan. Estimate the cost of raising the dog below.",
		"",
		fmt.Sprintf("- Breed: %s", s.BreedLabel()),
		fmt.Sprintf("- Sex: %s", s.Sex.English()),
		fmt.Sprintf("- Age: %d months", s.AgeInMonths(now)),
		fmt.Sprintf("- Predicted adult weight: %.1fkg", predictedWeight),
		"",
		"Return exactly four categories with these ids: initial (one-time setup), monthly (recurring),",
		"annual (yearly health care) and medical (irregular treatment). Give each 4 to 6 line items",
		"with a cost range in yen, and a total.",
		"",
		"Reply with JSON only:",
		`{"categories": [{"id": "initial", "title": "...", "description": "...", "icon": "...",`,
		`  "items": [{"name": "...", "cost": "JPY 10,000 - 20,000"}], "total": "JPY ..."}]}`,
	}, "\n")
}
