// Package weightevaluation grades a current weight against an appropriate-weight range.
//
// Grades run from A (most underweight) to E (most overweight); C is ideal.
package weightevaluation

import (
	"fmt"
	"math"

	"growth-forecast/internal/models"
)

const (
	severeLow    = 0.8
	slightLow    = 0.9
	slightHigh   = 1.1
	severeHigh   = 1.2
	closeToIdeal = 0.05
)

// Evaluate is pure: the same inputs always give the same evaluation.
// A non-positive current weight is treated as absent.
func Evaluate(current float64, r models.WeightRange) models.WeightEvaluation {
	if current <= 0 || math.IsNaN(current) {
		return models.WeightEvaluation{
			Category:    models.CategoryIdeal,
			Grade:       models.GradeC,
			Description: "No current weight was provided, so no evaluation was made.",
			Advice:      "Weigh your puppy regularly and share the records with your veterinarian.",
			Range:       r,
		}
	}

	var category models.WeightCategory
	switch {
	case r.Bands != nil:
		category = classifyBands(current, *r.Bands)
	case r.Center > 0:
		category = classifyRatio(current / r.Center)
	default:
		category = models.CategoryIdeal
	}

	return models.WeightEvaluation{
		Category:    category,
		Grade:       models.GradeFor(category),
		Description: describe(category, current, r),
		Advice:      advise(category, r),
		Range:       r,
	}
}

func classifyBands(current float64, b models.BandThresholds) models.WeightCategory {
	switch {
	case current <= b.AMax:
		return models.CategoryUnderweight
	case current >= b.EMin:
		return models.CategoryOverweight
	case within(current, b.B):
		return models.CategorySlightlyUnderweight
	case within(current, b.C):
		return models.CategoryIdeal
	case within(current, b.D):
		return models.CategorySlightlyOverweight
	default:
		// gap between provider bands
		return models.CategoryIdeal
	}
}

func within(v float64, band [2]float64) bool {
	return v >= band[0] && v <= band[1]
}

func classifyRatio(ratio float64) models.WeightCategory {
	switch {
	case ratio < severeLow:
		return models.CategoryUnderweight
	case ratio < slightLow:
		return models.CategorySlightlyUnderweight
	case ratio > severeHigh:
		return models.CategoryOverweight
	case ratio > slightHigh:
		return models.CategorySlightlyOverweight
	default:
		return models.CategoryIdeal
	}
}

func describe(category models.WeightCategory, current float64, r models.WeightRange) string {
	switch category {
	case models.CategoryUnderweight:
		return fmt.Sprintf("%.1fkg is well below the appropriate weight of %.1fkg.", current, r.Center)
	case models.CategorySlightlyUnderweight:
		return fmt.Sprintf("%.1fkg is a little below the appropriate weight of %.1fkg.", current, r.Center)
	case models.CategorySlightlyOverweight:
		return fmt.Sprintf("%.1fkg is a little above the appropriate weight of %.1fkg.", current, r.Center)
	case models.CategoryOverweight:
		return fmt.Sprintf("%.1fkg is well above the appropriate weight of %.1fkg.", current, r.Center)
	}
	if r.Center > 0 && math.Abs(current/r.Center-1) <= closeToIdeal {
		return fmt.Sprintf("%.1fkg is very close to the ideal weight of %.1fkg.", current, r.Center)
	}
	return fmt.Sprintf("%.1fkg is within the ideal range of %.1f-%.1fkg.", current, r.Min, r.Max)
}

func advise(category models.WeightCategory, r models.WeightRange) string {
	switch category {
	case models.CategoryUnderweight:
		return "Please see a veterinarian soon to rule out illness and review the feeding plan."
	case models.CategorySlightlyUnderweight:
		return fmt.Sprintf("Review meal amounts and frequency, aiming gradually for about %.1fkg.", r.Center)
	case models.CategorySlightlyOverweight:
		return "Check treat portions and make sure the puppy gets enough play and exercise."
	case models.CategoryOverweight:
		return "Please consult a veterinarian about a diet and exercise plan before growth is affected."
	default:
		return "Keep up the current feeding and exercise routine and keep tracking weight monthly."
	}
}
