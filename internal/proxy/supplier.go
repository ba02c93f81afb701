package proxy

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// ProxySupplier hands out proxy URLs round-robin. An empty string means no
// proxy is available and the client should connect directly.
type ProxySupplier interface {
	Get() string
}

type proxySupplier struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewProxySupplier validates the configured proxies in parallel against the
// test URL and keeps only the working ones.
func NewProxySupplier(ctx context.Context, proxies []string, testURL string) (ProxySupplier, error) {
	if len(proxies) == 0 {
		return &proxySupplier{}, nil
	}

	log.Infof("Testing %d proxies...", len(proxies))

	validCh := make(chan string, len(proxies))
	semaphore := make(chan struct{}, 50)

	var wg sync.WaitGroup
	for _, proxyURL := range proxies {
		wg.Add(1)
		go func(proxy string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if isProxyValid(ctx, proxy, testURL) {
				validCh <- proxy
			} else {
				log.Infof("Proxy %s is not working, skipping", proxy)
			}
		}(proxyURL)
	}

	wg.Wait()
	close(validCh)

	valid := make([]string, 0, len(proxies))
	for proxy := range validCh {
		valid = append(valid, proxy)
	}

	log.Infof("Proxy supplier ready: %d working out of %d tested", len(valid), len(proxies))

	return &proxySupplier{proxies: valid}, nil
}

func (p *proxySupplier) Get() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxy := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)

	return proxy
}

func isProxyValid(ctx context.Context, proxyURL, testURL string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetProxy(proxyURL).
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})

	resp, err := client.R().
		SetContext(ctx).
		Get(testURL)

	return err == nil && !resp.IsError()
}
