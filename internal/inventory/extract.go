// Package inventory extracts a normalized set inventory from the Markdown
// rendering of a catalog inventory page. The extractor is a line-oriented
// state machine over the item table: it tracks the current section
// (regular, counterpart, extra, alternate) and the current item type
// (parts, minifigures) and parses each matching row into a typed record.
package inventory

import (
	"regexp"
	"strconv"
	"strings"

	"bricklink/inventory/internal/domain"
)

const (
	partLinkMarker    = "catalog/catalogitem.page?P="
	minifigLinkMarker = "catalogitem.page?M="
	subInvLinkMarker  = "catalogItemInv.asp?P="
)

// The rendered item table always leads with a bold Image header cell.
var tableHeaderRe = regexp.MustCompile(`\|\s*\*\*Image\*\*`)

// Extract parses the full inventory out of a rendered document: document
// metadata (set name, thumbnail, root categories) plus every part and
// minifigure row of the item table. A row that matches the current item
// type's link pattern but cannot be parsed fails the whole extraction; no
// partial inventory is ever returned.
func Extract(md, setNumber, baseURL string) (*domain.Inventory, error) {
	e := &extractor{baseURL: baseURL}
	return e.extract(md, setNumber)
}

// ExtractParts runs the same table scan in parts-only mode, used for
// minifigure and sub-part inventory pages where no set metadata exists and
// minifigure rows are out of scope.
func ExtractParts(md, baseURL string) ([]domain.Part, error) {
	e := &extractor{baseURL: baseURL, partsOnly: true}
	inv, err := e.extract(md, "")
	if err != nil {
		return nil, err
	}
	return inv.Parts, nil
}

type extractor struct {
	baseURL   string
	partsOnly bool
}

func (e *extractor) extract(md, setNumber string) (*domain.Inventory, error) {
	lines := strings.Split(md, "\n")

	headerIdx := -1
	for i, line := range lines {
		if tableHeaderRe.MatchString(line) {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil, ErrTableNotFound
	}

	inv := &domain.Inventory{SetNumber: setNumber}
	if !e.partsOnly {
		if err := e.scanMetadata(lines, inv); err != nil {
			return nil, err
		}
	}

	section := domain.SectionRegular
	itemType := domain.ItemTypePart

	// Header and separator occupy two lines; item rows follow.
	for _, line := range lines[headerIdx+2:] {
		if !strings.Contains(line, "|") {
			continue
		}
		lower := strings.ToLower(line)

		if s, ok := sectionMarker(line); ok {
			section = s
			continue
		}
		if !strings.Contains(lower, "[catalog]") {
			if strings.Contains(lower, "minifigures:") {
				itemType = domain.ItemTypeMinifig
				continue
			}
			if strings.Contains(lower, "parts:") {
				itemType = domain.ItemTypePart
				continue
			}
		}

		switch itemType {
		case domain.ItemTypePart:
			if !strings.Contains(line, partLinkMarker) {
				continue
			}
			part, err := e.parsePartRow(line, section)
			if err != nil {
				return nil, err
			}
			inv.Parts = append(inv.Parts, *part)

		case domain.ItemTypeMinifig:
			if e.partsOnly {
				continue
			}
			if !strings.Contains(line, minifigLinkMarker) {
				continue
			}
			fig, err := e.parseMinifigRow(line)
			if err != nil {
				return nil, err
			}
			inv.Minifigures = append(inv.Minifigures, *fig)
		}
	}

	return inv, nil
}

// sectionMarker reports whether the line is a section heading row. Cells
// are compared case-insensitively with punctuation and markup stripped, so
// "**Counterpart Items:**" and "Extras:" both register.
func sectionMarker(line string) (domain.Section, bool) {
	if strings.Contains(line, "catalogitem.page") {
		return "", false
	}
	for _, cell := range splitCells(line) {
		norm := normalizeMarker(cell)
		switch {
		case norm == "":
		case strings.HasPrefix(norm, "regular"):
			return domain.SectionRegular, true
		case strings.HasPrefix(norm, "counterpart"):
			return domain.SectionCounterpart, true
		case strings.HasPrefix(norm, "extra"):
			return domain.SectionExtra, true
		case strings.HasPrefix(norm, "alternate"):
			return domain.SectionAlternate, true
		}
	}
	return "", false
}

func splitCells(line string) []string {
	parts := strings.Split(line, "|")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

func normalizeMarker(cell string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(cell) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (e *extractor) parsePartRow(line string, section domain.Section) (*domain.Part, error) {
	cells := splitCells(line)

	catalogIdx := -1
	for i, cell := range cells {
		if strings.Contains(cell, partLinkMarker) {
			catalogIdx = i
			break
		}
	}
	if catalogIdx == -1 {
		return nil, &MalformedRowError{Line: line}
	}
	links := findLinks(cells[catalogIdx])
	if len(links) == 0 || links[0].Text == "" {
		return nil, &MalformedRowError{Line: line}
	}

	part := &domain.Part{
		ID:           links[0].Text,
		CanonicalURL: absolutize(links[0].Href, e.baseURL),
		Section:      section,
	}
	part.ColorID = queryParam(part.CanonicalURL, "idColor")
	part.Name = nameFromRow(line)
	part.Quantity = quantityFromCells(cells)

	if imgs := findImages(line); len(imgs) > 0 {
		part.ImageURL = absolutizeImage(imgs[0].Href)
	}

	desc := descriptionCell(cells, catalogIdx)
	part.ColorName = colorFromDescription(desc, part.Name)

	// An "Inv" link on the row points at a nested multipack inventory.
	for _, l := range findLinks(line) {
		if strings.Contains(l.Href, subInvLinkMarker) {
			part.InventoryURL = absolutize(l.Href, e.baseURL)
			break
		}
	}

	return part, nil
}

func (e *extractor) parseMinifigRow(line string) (*domain.Minifigure, error) {
	cells := splitCells(line)

	catalogIdx := -1
	for i, cell := range cells {
		if strings.Contains(cell, minifigLinkMarker) {
			catalogIdx = i
			break
		}
	}
	if catalogIdx == -1 {
		return nil, &MalformedRowError{Line: line}
	}
	links := findLinks(cells[catalogIdx])
	if len(links) == 0 || links[0].Text == "" {
		return nil, &MalformedRowError{Line: line}
	}

	fig := &domain.Minifigure{
		Identifier: links[0].Text,
		CatalogURL: absolutize(links[0].Href, e.baseURL),
	}
	// The second link of the minifigure cell is its inventory page, used
	// for recursive resolution.
	if len(links) > 1 {
		fig.InventoryURL = absolutize(links[1].Href, e.baseURL)
	}

	fig.Name = nameFromRow(line)
	fig.Quantity = quantityFromCells(cells)

	if imgs := findImages(line); len(imgs) > 0 {
		fig.ImageURL = absolutizeImage(imgs[0].Href)
	}

	for _, cell := range cells {
		if strings.Contains(cell, "[Catalog]") {
			fig.Categories = e.parseCategories(cell)
			break
		}
	}

	return fig, nil
}

// parseCategories reads a breadcrumb cell into an ordered category list,
// parent-most first. The literal Catalog root is skipped and the walk stops
// at item- or set-scoped links, which trail the breadcrumb proper.
func (e *extractor) parseCategories(cell string) []domain.Category {
	var cats []domain.Category
	for _, l := range findLinks(cell) {
		if l.Text == "Catalog" {
			continue
		}
		if strings.Contains(l.Href, "catalogitem.page") ||
			strings.Contains(l.Href, "catalogItemInv.asp") ||
			strings.Contains(l.Href, "in=S") {
			break
		}
		cats = append(cats, domain.Category{
			ID:   queryParam(l.Href, "catString"),
			Name: l.Text,
		})
	}
	return cats
}

// nameFromRow pulls the item name out of the image alt text, which carries
// a "... Name: <name>" suffix on catalog pages.
func nameFromRow(line string) string {
	for _, img := range findImages(line) {
		if idx := strings.Index(img.Text, "Name: "); idx >= 0 {
			return strings.TrimSpace(img.Text[idx+len("Name: "):])
		}
	}
	return ""
}

// quantityFromCells returns the first cell parseable as a non-negative
// integer.
func quantityFromCells(cells []string) int {
	for _, cell := range cells {
		if v, err := strconv.Atoi(strings.TrimSpace(cell)); err == nil && v >= 0 {
			return v
		}
	}
	return 0
}

// descriptionCell picks the free-text cell of a row: the first non-empty
// cell after the catalog-link cell that carries no markdown link, falling
// back to the last non-empty cell.
func descriptionCell(cells []string, catalogIdx int) string {
	for _, cell := range cells[catalogIdx+1:] {
		if cell != "" && len(findLinks(cell)) == 0 && len(findImages(cell)) == 0 {
			return cell
		}
	}
	for i := len(cells) - 1; i >= 0; i-- {
		if i != catalogIdx && cells[i] != "" && len(findImages(cells[i])) == 0 {
			return cells[i]
		}
	}
	return ""
}

// colorFromDescription derives the color name: the description text up to
// the item name, or the whole description when the name is not embedded.
func colorFromDescription(desc, name string) string {
	desc = strings.TrimSpace(strings.Trim(desc, "*"))
	if desc == "" {
		return ""
	}
	if name != "" {
		if idx := strings.Index(desc, name); idx >= 0 {
			return strings.TrimSpace(desc[:idx])
		}
	}
	return desc
}
