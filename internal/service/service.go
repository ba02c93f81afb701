// Package service runs the acquisition pipeline: fetch a set's inventory
// page, build the document tree, render it to Markdown, extract the typed
// inventory, then concurrently enrich minifigures and nested multipack
// parts with their own inventories.
package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"bricklink/inventory/internal/client"
	"bricklink/inventory/internal/domain"
	"bricklink/inventory/internal/htmldoc"
	"bricklink/inventory/internal/inventory"
	"bricklink/inventory/internal/markdown"
	"bricklink/inventory/internal/queue"
	"bricklink/inventory/internal/repository"
	"bricklink/inventory/internal/state"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Nested inventories (minifigure parts, multipack bags) are shallow in
// practice; the guard only stops pathological link cycles.
const maxNestingDepth = 3

// Labels that name a whole collection root rather than a category.
var rootLabels = map[string]bool{
	"Catalog": true, "Sets": true, "Parts": true,
	"Minifigures": true, "Gear": true, "Books": true,
}

type Service struct {
	repository   repository.InventoryRepository
	client       client.BrickLinkClient
	queue        queue.Queue
	stateManager state.StateManager
	groupName    string
	minIdleTime  time.Duration
}

func NewService(
	repository repository.InventoryRepository,
	client client.BrickLinkClient,
	queue queue.Queue,
	stateManager state.StateManager,
	groupName string,
	minIdleTime int,
) *Service {
	return &Service{
		repository:   repository,
		client:       client,
		queue:        queue,
		stateManager: stateManager,
		groupName:    groupName,
		minIdleTime:  time.Duration(minIdleTime) * time.Second,
	}
}

// AcquireSet runs the full pipeline for one set and returns its normalized
// inventory. Any failure, including in a nested enrichment, fails the
// whole acquisition; no partial inventory escapes.
func (s *Service) AcquireSet(ctx context.Context, setNumber string) (*domain.Inventory, error) {
	pageURL := s.client.InventoryURL(domain.ItemTypeSet, setNumber)

	md, err := s.fetchMarkdown(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	inv, err := inventory.Extract(md, setNumber, s.client.BaseURL())
	if err != nil {
		return nil, err
	}
	inv.Categories = stripRootCategories(inv.Categories)

	inv.Minifigures, err = s.EnrichMinifigures(ctx, inv.Minifigures)
	if err != nil {
		return nil, err
	}

	inv.Parts, err = s.resolveSubparts(ctx, inv.Parts, 1)
	if err != nil {
		return nil, err
	}

	log.Infof("Acquired set %s: %d parts, %d minifigures",
		setNumber, len(inv.Parts), len(inv.Minifigures))
	return inv, nil
}

// EnrichMinifigures resolves each stub's own inventory concurrently.
// Results land at their stub's index, so output order always equals input
// order no matter which fetch finishes first. One failed task fails the
// batch; callers never see a partially enriched list.
func (s *Service) EnrichMinifigures(ctx context.Context, stubs []domain.Minifigure) ([]domain.Minifigure, error) {
	if len(stubs) == 0 {
		return stubs, nil
	}

	results := make([]domain.Minifigure, len(stubs))
	g, ctx := errgroup.WithContext(ctx)

	for i, stub := range stubs {
		i, stub := i, stub
		g.Go(func() error {
			invURL := stub.InventoryURL
			if invURL == "" {
				invURL = s.client.InventoryURL(domain.ItemTypeMinifig, stub.Identifier)
			}

			parts, err := s.fetchParts(ctx, invURL, 1)
			if err != nil {
				return err
			}

			enriched := stub
			enriched.Categories = stripRootCategories(stub.Categories)
			enriched.Parts = parts
			results[i] = enriched
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// resolveSubparts recursively fills Subparts for every part that links a
// nested inventory, with the same index-slotted fan-out as minifigure
// enrichment.
func (s *Service) resolveSubparts(ctx context.Context, parts []domain.Part, depth int) ([]domain.Part, error) {
	if depth > maxNestingDepth {
		return parts, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := range parts {
		if parts[i].InventoryURL == "" {
			continue
		}
		i := i
		g.Go(func() error {
			sub, err := s.fetchParts(ctx, parts[i].InventoryURL, depth+1)
			if err != nil {
				return err
			}
			parts[i].Subparts = sub
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

// fetchParts runs the pipeline in parts-only mode against a nested
// inventory page.
func (s *Service) fetchParts(ctx context.Context, pageURL string, depth int) ([]domain.Part, error) {
	md, err := s.fetchMarkdown(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	parts, err := inventory.ExtractParts(md, s.client.BaseURL())
	if err != nil {
		return nil, err
	}

	return s.resolveSubparts(ctx, parts, depth)
}

func (s *Service) fetchMarkdown(ctx context.Context, pageURL string) (string, error) {
	html, err := s.client.FetchPage(ctx, pageURL)
	if err != nil {
		return "", err
	}

	base, err := url.Parse(s.client.BaseURL())
	if err != nil {
		base = nil
	}

	root, err := htmldoc.Parse(strings.NewReader(html), base)
	if err != nil {
		return "", err
	}

	return markdown.Render(root), nil
}

// stripRootCategories drops leading breadcrumb entries that name the
// catalog or a collection root rather than an actual category.
func stripRootCategories(cats []domain.Category) []domain.Category {
	for len(cats) > 0 && rootLabels[cats[0].Name] {
		cats = cats[1:]
	}
	return cats
}
