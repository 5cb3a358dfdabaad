package cli

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// httpProbe checks external links with HEAD requests, falling back to GET
// for servers that reject HEAD. Answers are memoised per URL for the
// lifetime of the probe.
type httpProbe struct {
	client *http.Client
	ctx    context.Context

	mu   sync.Mutex
	seen map[string]bool
}

func newHTTPProbe(ctx context.Context, timeout time.Duration) *httpProbe {
	return &httpProbe{
		client: &http.Client{Timeout: timeout},
		ctx:    ctx,
		seen:   make(map[string]bool),
	}
}

// Reachable implements checks.LinkProbe.
func (p *httpProbe) Reachable(rawURL string) bool {
	p.mu.Lock()
	if ok, hit := p.seen[rawURL]; hit {
		p.mu.Unlock()
		return ok
	}
	p.mu.Unlock()

	status := p.do(http.MethodHead, rawURL)
	if status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented {
		status = p.do(http.MethodGet, rawURL)
	}
	ok := status > 0 && status < 400

	p.mu.Lock()
	p.seen[rawURL] = ok
	p.mu.Unlock()
	return ok
}

func (p *httpProbe) do(method, rawURL string) int {
	req, err := http.NewRequestWithContext(p.ctx, method, rawURL, nil)
	if err != nil {
		return 0
	}
	req.Header.Set("User-Agent", "docaudit/"+Version)
	resp, err := p.client.Do(req)
	if err != nil {
		return 0
	}
	resp.Body.Close()
	return resp.StatusCode
}
