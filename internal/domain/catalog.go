package domain

// CatalogEntry is one known food with its nutrition per serving
type CatalogEntry struct {
	Name        string   `json:"name" yaml:"name"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Calories    float64  `json:"calories" yaml:"calories"` // kcal per serving
	Protein     float64  `json:"protein" yaml:"protein"`   // grams per serving
	ServingSize string   `json:"serving_size" yaml:"serving_size"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
}

// ParsedItem is a food phrase pulled out of a message, before catalog resolution
type ParsedItem struct {
	Phrase   string `json:"food"`
	Quantity int    `json:"quantity"`
}

// ResolvedItem is a parsed item mapped onto a catalog entry
type ResolvedItem struct {
	Entry    CatalogEntry
	Quantity int
	Phrase   string
	Score    float64
}

// Calories returns the unrounded calories for the item
func (r ResolvedItem) Calories() float64 {
	return r.Entry.Calories * float64(r.Quantity)
}

// Protein returns the unrounded protein for the item
func (r ResolvedItem) Protein() float64 {
	return r.Entry.Protein * float64(r.Quantity)
}

// LineItem is the presentation form of a resolved item, values rounded to one decimal
type LineItem struct {
	Name        string  `json:"name"`
	Quantity    int     `json:"quantity"`
	ServingSize string  `json:"serving_size"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
}
