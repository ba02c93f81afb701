package client

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"bricklink/inventory/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

var (
	yearReleasedRe = regexp.MustCompile(`Years? Released:\s*([0-9\-\s,]+)`)
	weightRe       = regexp.MustCompile(`Weight:\s*([0-9.]+g)`)
	catStringRe    = regexp.MustCompile(`catString=([^&]+)`)
)

// GetSetDetails scrapes the set's catalog item page for metadata that the
// inventory page does not carry: release year, weight and the breadcrumb
// categories.
func (c *brickLinkClient) GetSetDetails(ctx context.Context, setNumber string) (*domain.SetDetails, error) {
	url := fmt.Sprintf("%s/v2/catalog/catalogitem.page?S=%s", c.baseURL, setNumber)

	html, err := c.FetchPage(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HTML for set %s: %w", setNumber, err)
	}

	details, err := c.parseSetDetails(html, setNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to parse set details: %w", err)
	}

	log.Debugf("Fetched details for set %s", setNumber)
	return details, nil
}

func (c *brickLinkClient) parseSetDetails(html, setNumber string) (*domain.SetDetails, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	details := &domain.SetDetails{
		SetNumber: setNumber,
		Name:      strings.TrimSpace(doc.Find("h1").First().Text()),
	}

	itemInfoText := doc.Find("strong:contains('Item Info')").Parent().Text()
	if m := yearReleasedRe.FindStringSubmatch(itemInfoText); len(m) > 1 {
		details.YearReleased = strings.TrimSpace(m[1])
	}
	if m := weightRe.FindStringSubmatch(itemInfoText); len(m) > 1 {
		details.Weight = m[1]
	}

	details.Categories = c.parseBreadcrumb(doc)

	if src, ok := doc.Find("img[class*='ItemImage'], img[src*='ItemImage']").First().Attr("src"); ok {
		if !strings.HasPrefix(src, "http") {
			src = "https:" + src
		}
		details.ImageURL = src
	}

	return details, nil
}

// parseBreadcrumb reads the "Catalog: ..." cell into an ordered category
// list, skipping the catalog root itself.
func (c *brickLinkClient) parseBreadcrumb(doc *goquery.Document) []domain.Category {
	var cats []domain.Category

	doc.Find("td[style*='background-color: #eeeeee'], td[bgcolor='#eeeeee']").EachWithBreak(func(i int, td *goquery.Selection) bool {
		text := strings.TrimSpace(td.Text())
		if !strings.HasPrefix(text, "Catalog:") {
			return true
		}
		td.Find("a[href*='catalogList.asp'], a[href*='catalogTree.asp']").Each(func(j int, link *goquery.Selection) {
			name := strings.TrimSpace(link.Text())
			if name == "" || name == "Catalog" {
				return
			}
			var id string
			if href, ok := link.Attr("href"); ok {
				if m := catStringRe.FindStringSubmatch(href); len(m) > 1 {
					id = m[1]
				}
			}
			cats = append(cats, domain.Category{ID: id, Name: name})
		})
		return false
	})

	return cats
}
