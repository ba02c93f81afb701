package domain

// Category is one element of a catalog breadcrumb, parent-most first.
type Category struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type Part struct {
	ID           string  `json:"id"`
	CanonicalURL string  `json:"canonical_url,omitempty"`
	Name         string  `json:"name"`
	ColorName    string  `json:"color_name,omitempty"`
	ColorID      string  `json:"color_id,omitempty"`
	ImageURL     string  `json:"image_url,omitempty"`
	Quantity     int     `json:"quantity"`
	Section      Section `json:"section"`

	// InventoryURL is set when the part row links its own sub-inventory
	// (multipack accessory bags); Subparts holds the resolved contents.
	InventoryURL string `json:"inventory_url,omitempty"`
	Subparts     []Part `json:"subparts,omitempty"`
}

type Minifigure struct {
	Identifier   string     `json:"identifier"`
	Name         string     `json:"name"`
	Quantity     int        `json:"quantity"`
	ImageURL     string     `json:"image_url,omitempty"`
	CatalogURL   string     `json:"catalog_url,omitempty"`
	InventoryURL string     `json:"inventory_url,omitempty"`
	Categories   []Category `json:"categories,omitempty"`
	Parts        []Part     `json:"parts,omitempty"`
}

// Inventory is the normalized result of one acquisition pass over a set
// inventory page. It is value data: built once, never mutated afterwards.
type Inventory struct {
	SetNumber    string       `json:"set_number"`
	Name         string       `json:"name"`
	ThumbnailURL string       `json:"thumbnail_url,omitempty"`
	Parts        []Part       `json:"parts"`
	Categories   []Category   `json:"categories,omitempty"`
	Minifigures  []Minifigure `json:"minifigures,omitempty"`
}
