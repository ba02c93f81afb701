package domain

// SetDetails is the metadata scraped from a set's catalog item page,
// complementing the inventory extracted from its inventory page.
type SetDetails struct {
	SetNumber    string     `json:"set_number"`
	Name         string     `json:"name,omitempty"`
	YearReleased string     `json:"year_released,omitempty"`
	Weight       string     `json:"weight,omitempty"`
	Categories   []Category `json:"categories,omitempty"`
	ImageURL     string     `json:"image_url,omitempty"`
}
