package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"bricklink/inventory/internal/config"
	"bricklink/inventory/internal/domain"
	"bricklink/inventory/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// BrickLinkClient fetches catalog pages and raw payloads. Retry policy
// stays with the caller; the client only rotates proxies when the site
// reports its quota exceeded.
type BrickLinkClient interface {
	FetchPage(ctx context.Context, url string) (string, error)
	FetchBytes(ctx context.Context, url string) ([]byte, int, error)
	InventoryURL(itemType domain.ItemType, id string) string
	GetSetDetails(ctx context.Context, setNumber string) (*domain.SetDetails, error)
	BaseURL() string
}

type brickLinkClient struct {
	rl            ratelimit.Limiter
	config        config.BrickLinkConfig
	baseURL       string
	httpClient    *resty.Client
	proxySupplier proxy.ProxySupplier
}

func NewBrickLinkClient(cfg config.BrickLinkConfig, proxySupplier proxy.ProxySupplier) BrickLinkClient {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36").
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5").
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("Using initial proxy: %s", proxyURL)
		}
	}

	rps := cfg.MaxRequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &brickLinkClient{
		rl:            ratelimit.New(rps),
		config:        cfg,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:    client,
		proxySupplier: proxySupplier,
	}
}

func (c *brickLinkClient) BaseURL() string {
	return c.baseURL
}

// InventoryURL builds the inventory page address for an item, e.g.
// /catalogItemInv.asp?S=8480-1 for a set.
func (c *brickLinkClient) InventoryURL(itemType domain.ItemType, id string) string {
	return fmt.Sprintf("%s/catalogItemInv.asp?%s=%s", c.baseURL, itemType, id)
}

// FetchPage retrieves an HTML page as text, taking a rate-limit slot first.
// A "Quota Exceeded" body triggers one proxy rotation and re-fetch.
func (c *brickLinkClient) FetchPage(ctx context.Context, url string) (string, error) {
	c.rl.Take()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(url)

	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	html := resp.String()
	if strings.Contains(html, "Quota Exceeded") {
		log.Warnf("Rate limit exceeded for URL: %s", url)

		if c.proxySupplier != nil {
			if newProxy := c.proxySupplier.Get(); newProxy != "" {
				log.Infof("Switching to proxy %s and retrying", newProxy)
				c.httpClient.SetProxy(newProxy)

				retryResp, retryErr := c.httpClient.R().
					SetContext(ctx).
					Get(url)

				if retryErr == nil && !retryResp.IsError() {
					retryHTML := retryResp.String()
					if !strings.Contains(retryHTML, "Quota Exceeded") {
						return retryHTML, nil
					}
				}
			}
		}
		return "", fmt.Errorf("quota exceeded for URL %s", url)
	}

	return html, nil
}

// FetchBytes issues a plain GET and returns the body and status code. The
// fetch cache sits on top of this and does its own status and body checks.
func (c *brickLinkClient) FetchBytes(ctx context.Context, url string) ([]byte, int, error) {
	c.rl.Take()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(url)

	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, 0, fmt.Errorf("failed to fetch URL: %w", err)
	}

	return resp.Bytes(), resp.StatusCode(), nil
}
