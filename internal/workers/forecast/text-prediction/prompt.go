package textprediction

import (
	"fmt"
	"strings"
	"time"

	"growth-forecast/internal/models"
)

func purchaseSourceLabel(source string) string {
	switch source {
	case "petshop":
		return "pet shop"
	case "breeder":
		return "breeder"
	case "":
		return "unknown"
	default:
		return "other"
	}
}

func verifiedSuffix(verified bool) string {
	if verified {
		return " (measured)"
	}
	return ""
}

func buildPredictionPrompt(s models.SubjectProfile, now time.Time) string {
	parts := []string{
		"You are an experienced veterinarian and dog specialist. Predict the adult size of the puppy below and give practical advice.",
		"",
		"## Puppy",
		fmt.Sprintf("- Breed: %s", s.BreedLabel()),
		fmt.Sprintf("- Sex: %s", s.Sex.English()),
		fmt.Sprintf("- Age: %d months", s.AgeInMonths(now)),
		fmt.Sprintf("- Current weight: %.1fkg%s", s.CurrentWeight, verifiedSuffix(s.CurrentWeightVerified)),
		fmt.Sprintf("- Acquired from: %s", purchaseSourceLabel(s.PurchaseSource)),
		fmt.Sprintf("- Owner has raised a dog before: %s", yesNo(s.HasPurchaseExperience)),
	}
	if s.BirthWeight > 0 {
		parts = append(parts, fmt.Sprintf("- Birth weight: %.2fkg", s.BirthWeight))
	}
	if s.MotherAdultWeight > 0 {
		parts = append(parts, fmt.Sprintf("- Mother's adult weight: %.1fkg%s", s.MotherAdultWeight, verifiedSuffix(s.MotherWeightVerified)))
	}
	if s.FatherAdultWeight > 0 {
		parts = append(parts, fmt.Sprintf("- Father's adult weight: %.1fkg%s", s.FatherAdultWeight, verifiedSuffix(s.FatherWeightVerified)))
	}
	if len(s.PastWeights) > 0 {
		parts = append(parts, "- Past weights:")
		for _, w := range s.PastWeights {
			parts = append(parts, fmt.Sprintf("  %s: %.1fkg", w.Date, w.Weight))
		}
	}

	parts = append(parts,
		"",
		"## Output",
		"Answer with one JSON object and nothing else:",
		`{`,
		`  "predictedWeight": <adult weight, kg, number>,`,
		`  "predictedLength": <adult body length nose to tail base, cm, number>,`,
		`  "predictedHeight": <adult shoulder height, cm, number>,`,
		`  "healthAdvice": "<breed specific health advice>",`,
		`  "trainingAdvice": "<training advice for the current age>",`,
		`  "costAdvice": "<cost notes based on breed and predicted size>"`,
		`}`,
		"",
		"Do not include a body condition score; weight evaluation is computed separately.",
	)
	return strings.Join(parts, "\n")
}

func buildRangePrompt(s models.SubjectProfile, now time.Time) string {
	parts := []string{
		"You are an experienced veterinarian. Give the appropriate body weight range for the dog below at its current age.",
		"",
		"## Dog",
		fmt.Sprintf("- Breed: %s", s.BreedLabel()),
		fmt.Sprintf("- Sex: %s", s.Sex.English()),
		fmt.Sprintf("- Age: %d months", s.AgeInMonths(now)),
	}
	if s.MotherAdultWeight > 0 {
		parts = append(parts, fmt.Sprintf("- Mother's adult weight: %.1fkg", s.MotherAdultWeight))
	}
	if s.FatherAdultWeight > 0 {
		parts = append(parts, fmt.Sprintf("- Father's adult weight: %.1fkg", s.FatherAdultWeight))
	}
	parts = append(parts,
		"",
		"## Output",
		"Answer with one JSON object, numbers in kg without units:",
		`{"min": <low end>, "max": <high end>, "center": <ideal weight>,`,
		` "bands": {"a_max": <clearly underweight at or below>, "b": [<lo>, <hi>], "c": [<lo>, <hi>], "d": [<lo>, <hi>], "e_min": <clearly overweight at or above>}}`,
		"",
		"Use the breed's standard growth curve and sex. Ignore the dog's current weight.",
	)
	return strings.Join(parts, "\n")
}

func yesNo(v string) string {
	if v == "yes" {
		return "yes"
	}
	return "no"
}
