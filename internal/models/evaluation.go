package models

type WeightCategory string

const (
	CategoryUnderweight         WeightCategory = "underweight"
	CategorySlightlyUnderweight WeightCategory = "slightly_underweight"
	CategoryIdeal               WeightCategory = "ideal"
	CategorySlightlyOverweight  WeightCategory = "slightly_overweight"
	CategoryOverweight          WeightCategory = "overweight"
)

type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
)

// Categories is ordered from most underweight to most overweight; index i pairs with Grades[i].
var (
	Categories = []WeightCategory{
		CategoryUnderweight,
		CategorySlightlyUnderweight,
		CategoryIdeal,
		CategorySlightlyOverweight,
		CategoryOverweight,
	}
	Grades = []Grade{GradeA, GradeB, GradeC, GradeD, GradeE}
)

func GradeFor(c WeightCategory) Grade {
	for i, cat := range Categories {
		if cat == c {
			return Grades[i]
		}
	}
	return GradeC
}

func CategoryFor(g Grade) WeightCategory {
	for i, gr := range Grades {
		if gr == g {
			return Categories[i]
		}
	}
	return CategoryIdeal
}

// BandThresholds are explicit per-grade limits, when the provider supplies them.
type BandThresholds struct {
	AMax float64    `json:"aMax"`
	B    [2]float64 `json:"b"`
	C    [2]float64 `json:"c"`
	D    [2]float64 `json:"d"`
	EMin float64    `json:"eMin"`
}

type RangeSource string

const (
	RangeFromProvider RangeSource = "provider"
	RangeFromCache    RangeSource = "cache"
	RangeFromFallback RangeSource = "fallback"
)

type WeightRange struct {
	Min    float64         `json:"min"`
	Max    float64         `json:"max"`
	Center float64         `json:"center"`
	Bands  *BandThresholds `json:"bands,omitempty"`
	Source RangeSource     `json:"source,omitempty"`
}

type WeightEvaluation struct {
	Category    WeightCategory `json:"category"`
	Grade       Grade          `json:"grade"`
	Description string         `json:"description"`
	Advice      string         `json:"advice"`
	Range       WeightRange    `json:"appropriateWeightRange"`
}
