package imageprompt

import (
	"fmt"
	"strings"

	"growth-forecast/internal/models"
)

// Input is everything the composer looks at. Measurements <= 0 are left out.
type Input struct {
	Breed           string
	Sex             models.Sex
	PredictedWeight float64
	PredictedLength float64
	PredictedHeight float64
	Notes           string
	ReferenceImages []string
}

func FromPrediction(s models.SubjectProfile, p models.PredictionRecord) Input {
	in := Input{
		Breed:           s.BreedLabel(),
		Sex:             s.Sex,
		PredictedWeight: p.PredictedWeight,
		PredictedLength: p.PredictedLength,
		PredictedHeight: p.PredictedHeight,
		Notes:           s.Notes,
	}
	if s.ReferenceImage != "" {
		in.ReferenceImages = []string{s.ReferenceImage}
	}
	return in
}

// Compose builds the generation instruction. It does no I/O.
func Compose(in Input) models.ImagePrompt {
	var b strings.Builder
	fmt.Fprintf(&b, "A realistic photo of an adult %s %s dog", in.Sex.English(), strings.TrimSpace(in.Breed))
	if in.PredictedWeight > 0 {
		fmt.Fprintf(&b, " weighing approximately %skg", trimFloat(in.PredictedWeight))
	}

	var dims []string
	if in.PredictedLength > 0 {
		dims = append(dims, fmt.Sprintf("%scm long", trimFloat(in.PredictedLength)))
	}
	if in.PredictedHeight > 0 {
		dims = append(dims, fmt.Sprintf("%scm tall at the shoulder", trimFloat(in.PredictedHeight)))
	}
	if len(dims) > 0 {
		b.WriteString(", about " + strings.Join(dims, " and "))
	}
	b.WriteString(", full body shot, high quality, professional photography.")

	prompt := models.ImagePrompt{}
	if ref := firstReference(in.ReferenceImages); ref != "" {
		prompt.ReferenceImage = ref
		b.WriteString(" Keep the coat color and markings of the dog in the reference image.")
	}
	if notes := strings.TrimSpace(in.Notes); notes != "" {
		b.WriteString(" " + notes)
	}
	prompt.Text = b.String()
	return prompt
}

func firstReference(images []string) string {
	for _, img := range images {
		if img = StripDataURL(strings.TrimSpace(img)); img != "" {
			return img
		}
	}
	return ""
}

// StripDataURL drops a "data:<mime>;base64," prefix if present.
func StripDataURL(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.Index(s, ";base64,"); i >= 0 {
		return s[i+len(";base64,"):]
	}
	return s
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	return strings.TrimSuffix(s, ".0")
}
