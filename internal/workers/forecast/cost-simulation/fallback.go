package costsimulation

import "growth-forecast/internal/models"

type SizeClass string

const (
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
)

func SizeClassFor(predictedWeight float64) SizeClass {
	switch {
	case predictedWeight < 10:
		return SizeSmall
	case predictedWeight < 25:
		return SizeMedium
	default:
		return SizeLarge
	}
}

type tableRow struct {
	small, medium, large string
}

func (r tableRow) pick(size SizeClass) string {
	switch size {
	case SizeSmall:
		return r.small
	case SizeMedium:
		return r.medium
	default:
		return r.large
	}
}

type tableCategory struct {
	id, title, description, icon string
	items                        []tableItem
	total                        tableRow
}

type tableItem struct {
	name string
	cost tableRow
}

func item(name string, cost tableRow) tableItem {
	return tableItem{name, cost}
}

var referenceCategories = []tableCategory{
	{
		id: "initial", title: "Initial costs", icon: "home",
		description: "One-time purchases when the puppy arrives",
		items: []tableItem{
			item("Crate and bed", tableRow{"JPY 8,000 - 15,000", "JPY 12,000 - 25,000", "JPY 20,000 - 40,000"}),
			item("Leash, collar and harness", tableRow{"JPY 3,000 - 6,000", "JPY 4,000 - 8,000", "JPY 5,000 - 10,000"}),
			item("Bowls and toilet supplies", tableRow{"JPY 3,000 - 6,000", "JPY 4,000 - 8,000", "JPY 5,000 - 10,000"}),
			item("Microchip and registration", tableRow{"JPY 5,000 - 10,000", "JPY 5,000 - 10,000", "JPY 5,000 - 10,000"}),
			item("First vaccinations", tableRow{"JPY 10,000 - 20,000", "JPY 10,000 - 20,000", "JPY 12,000 - 22,000"}),
		},
		total: tableRow{"JPY 29,000 - 57,000", "JPY 35,000 - 71,000", "JPY 47,000 - 92,000"},
	},
	{
		id: "monthly", title: "Monthly costs", icon: "calendar",
		description: "Recurring everyday expenses",
		items: []tableItem{
			item("Food", tableRow{"JPY 3,000 - 6,000", "JPY 6,000 - 10,000", "JPY 10,000 - 18,000"}),
			item("Treats and chews", tableRow{"JPY 1,000 - 2,000", "JPY 1,500 - 3,000", "JPY 2,000 - 4,000"}),
			item("Toilet sheets", tableRow{"JPY 1,000 - 2,000", "JPY 1,500 - 2,500", "JPY 2,000 - 3,000"}),
			item("Grooming", tableRow{"JPY 3,000 - 7,000", "JPY 5,000 - 9,000", "JPY 7,000 - 12,000"}),
			item("Pet insurance", tableRow{"JPY 2,000 - 4,000", "JPY 3,000 - 5,000", "JPY 4,000 - 7,000"}),
		},
		total: tableRow{"JPY 10,000 - 21,000", "JPY 17,000 - 29,500", "JPY 25,000 - 44,000"},
	},
	{
		id: "annual", title: "Annual health care", icon: "heart",
		description: "Routine preventive care each year",
		items: []tableItem{
			item("Combination vaccine", tableRow{"JPY 5,000 - 10,000", "JPY 5,000 - 10,000", "JPY 6,000 - 10,000"}),
			item("Rabies vaccine and license", tableRow{"JPY 3,500 - 4,000", "JPY 3,500 - 4,000", "JPY 3,500 - 4,000"}),
			item("Heartworm prevention", tableRow{"JPY 5,000 - 10,000", "JPY 8,000 - 15,000", "JPY 12,000 - 25,000"}),
			item("Flea and tick prevention", tableRow{"JPY 6,000 - 12,000", "JPY 9,000 - 16,000", "JPY 12,000 - 22,000"}),
			item("Health checkup", tableRow{"JPY 5,000 - 15,000", "JPY 5,000 - 15,000", "JPY 6,000 - 18,000"}),
		},
		total: tableRow{"JPY 24,500 - 51,000", "JPY 30,500 - 60,000", "JPY 39,500 - 79,000"},
	},
	{
		id: "medical", title: "Irregular medical costs", icon: "cross",
		description: "Possible one-off treatments to budget for",
		items: []tableItem{
			item("Spay or neuter surgery", tableRow{"JPY 20,000 - 50,000", "JPY 30,000 - 60,000", "JPY 40,000 - 80,000"}),
			item("Digestive upset visit", tableRow{"JPY 5,000 - 15,000", "JPY 5,000 - 15,000", "JPY 6,000 - 18,000"}),
			item("Skin or ear treatment", tableRow{"JPY 5,000 - 20,000", "JPY 5,000 - 20,000", "JPY 6,000 - 25,000"}),
			item("Dental cleaning", tableRow{"JPY 20,000 - 50,000", "JPY 25,000 - 60,000", "JPY 30,000 - 70,000"}),
		},
		total: tableRow{"JPY 50,000 - 135,000", "JPY 65,000 - 155,000", "JPY 82,000 - 193,000"},
	},
}

// ReferenceTable is the built-in cost breakdown for a size class.
func ReferenceTable(size SizeClass) models.CostSimulation {
	sim := models.CostSimulation{FromFallback: true}
	for _, tc := range referenceCategories {
		cat := models.CostCategory{
			ID:          tc.id,
			Title:       tc.title,
			Description: tc.description,
			Icon:        tc.icon,
			Total:       tc.total.pick(size),
		}
		for _, it := range tc.items {
			cat.Items = append(cat.Items, models.CostItem{Name: it.name, Cost: it.cost.pick(size)})
		}
		sim.Categories = append(sim.Categories, cat)
	}
	return sim
}
