package inventory

import (
	"strings"

	"bricklink/inventory/internal/domain"
)

// scanMetadata reads the document-level fields independently of the table
// loop: set name and thumbnail from the first set-identifying image, and
// the root category breadcrumb from the first [Catalog] line.
func (e *extractor) scanMetadata(lines []string, inv *domain.Inventory) error {
	var setImages []mdLink

	for _, line := range lines {
		if inv.Name == "" || inv.ThumbnailURL == "" {
			for _, img := range findImages(line) {
				if !isSetImage(img.Href) {
					continue
				}
				setImages = append(setImages, img)
				if inv.Name == "" {
					if idx := strings.Index(img.Text, "Name: "); idx >= 0 {
						inv.Name = strings.TrimSpace(img.Text[idx+len("Name: "):])
					}
				}
			}
		}
		if len(inv.Categories) == 0 && strings.Contains(line, "[Catalog]") {
			inv.Categories = e.parseCategories(line)
		}
	}

	inv.ThumbnailURL = pickThumbnail(setImages)

	if inv.Name == "" {
		return ErrMissingSetName
	}
	return nil
}

// pickThumbnail prefers a small /S/ image, upgraded to its large /SL/
// variant, over whichever set image came first.
func pickThumbnail(images []mdLink) string {
	for _, img := range images {
		if strings.Contains(img.Href, "/S/") {
			return absolutizeImage(strings.Replace(img.Href, "/S/", "/SL/", 1))
		}
	}
	if len(images) > 0 {
		return absolutizeImage(images[0].Href)
	}
	return ""
}

func isSetImage(src string) bool {
	return strings.Contains(src, "/S/") ||
		strings.Contains(src, "/SN/") ||
		strings.Contains(src, "/SL/")
}
