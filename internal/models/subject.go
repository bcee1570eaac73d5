package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// English returns the sex as used in prompts; unknown values read as "female".
func (s Sex) English() string {
	if s == SexMale {
		return "male"
	}
	return "female"
}

// ParseSex accepts English and Japanese labels; anything else is returned as-is.
func ParseSex(v string) Sex {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "male", "m", "オス":
		return SexMale
	case "female", "f", "メス":
		return SexFemale
	default:
		return Sex(v)
	}
}

// UnmarshalJSON normalizes the label through ParseSex.
func (s *Sex) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = ParseSex(v)
	return nil
}

type WeightSample struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
}

// SubjectProfile is the submitted description of the puppy. Zero numeric values mean "not provided".
type SubjectProfile struct {
	OwnerID               string         `json:"ownerId"`
	DisplayName           string         `json:"displayName,omitempty"`
	PurchaseSource        string         `json:"purchaseSource,omitempty"`
	HasPurchaseExperience string         `json:"hasPurchaseExperience,omitempty"`
	Breed                 string         `json:"breed"`
	FatherBreed           string         `json:"fatherBreed,omitempty"`
	MotherBreed           string         `json:"motherBreed,omitempty"`
	Sex                   Sex            `json:"gender"`
	BirthDate             string         `json:"birthDate"`
	CurrentWeight         float64        `json:"currentWeight"`
	BirthWeight           float64        `json:"birthWeight,omitempty"`
	PastWeights           []WeightSample `json:"pastWeights,omitempty"`
	MotherAdultWeight     float64        `json:"motherAdultWeight,omitempty"`
	FatherAdultWeight     float64        `json:"fatherAdultWeight,omitempty"`
	CurrentWeightVerified bool           `json:"currentWeightVerified,omitempty"`
	MotherWeightVerified  bool           `json:"motherWeightVerified,omitempty"`
	FatherWeightVerified  bool           `json:"fatherWeightVerified,omitempty"`
	Notes                 string         `json:"notes,omitempty"`
	ReferenceImage        string         `json:"referenceImage,omitempty"`
}

// MissingFields lists required fields that are empty.
func (s SubjectProfile) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(s.Breed) == "" && strings.TrimSpace(s.FatherBreed) == "" {
		missing = append(missing, "breed")
	}
	if s.Sex != SexMale && s.Sex != SexFemale {
		missing = append(missing, "gender")
	}
	if _, err := s.Birth(); err != nil {
		missing = append(missing, "birthDate")
	}
	return missing
}

func (s SubjectProfile) Birth() (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s.BirthDate))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid birthDate %q: %w", s.BirthDate, err)
	}
	return t, nil
}

// AgeInMonths counts whole 30-day months between birth and now. Unparseable dates give 0.
func (s SubjectProfile) AgeInMonths(now time.Time) int {
	birth, err := s.Birth()
	if err != nil {
		return 0
	}
	days := int(now.Sub(birth).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days / 30
}

// BreedLabel is the breed, or "father x mother" for mixes.
func (s SubjectProfile) BreedLabel() string {
	if b := strings.TrimSpace(s.Breed); b != "" {
		return b
	}
	father, mother := strings.TrimSpace(s.FatherBreed), strings.TrimSpace(s.MotherBreed)
	switch {
	case father != "" && mother != "":
		return fmt.Sprintf("%s x %s mix", father, mother)
	case father != "":
		return father + " mix"
	default:
		return mother
	}
}

func (s SubjectProfile) HasCurrentWeight() bool {
	return s.CurrentWeight > 0
}
