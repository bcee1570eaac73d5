package models

type CostItem struct {
	Name string `json:"name"`
	Cost string `json:"cost"`
}

type CostCategory struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Items       []CostItem `json:"items"`
	Total       string     `json:"total,omitempty"`
}

type CostSimulation struct {
	Categories   []CostCategory `json:"categories"`
	FromFallback bool           `json:"fromFallback"`
}
