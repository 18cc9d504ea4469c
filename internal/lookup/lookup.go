// Package lookup caches reverse-DNS enrichment per client IP. The cache is an
// explicit value scoped to one analyzer run; nothing here is package-global.
package lookup

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// State tags the three outcomes a profile's hostname can be in. Keeping them
// distinct avoids empty-string ambiguity between "never tried" and "tried and
// got nothing".
type State int

const (
	NotAttempted State = iota
	Resolved
	Failed
)

// Result is the cached outcome for one IP.
type Result struct {
	State    State
	Hostname string
}

// Display renders the sentinel the reports print for non-resolved states.
func (r Result) Display() string {
	switch r.State {
	case Resolved:
		return r.Hostname
	case Failed:
		return "null"
	default:
		return "no-lookup"
	}
}

// ResolveFunc performs one PTR lookup. Swapped out in tests.
type ResolveFunc func(ctx context.Context, ip string) ([]string, error)

// Cache deduplicates reverse lookups per IP for the lifetime of one run.
// A failed lookup is recorded as Failed so the same dead IP is never retried.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Result

	flight  singleflight.Group
	resolve ResolveFunc
	timeout time.Duration
}

// New builds a cache around resolve; nil resolve uses net.DefaultResolver.
func New(resolve ResolveFunc, timeout time.Duration) *Cache {
	if resolve == nil {
		resolve = func(ctx context.Context, ip string) ([]string, error) {
			return net.DefaultResolver.LookupAddr(ctx, ip)
		}
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Cache{
		entries: make(map[string]Result),
		resolve: resolve,
		timeout: timeout,
	}
}

// Resolve returns the cached result for ip, performing the lookup on first
// use. Concurrent callers for the same IP share one in-flight lookup; lookups
// for distinct IPs proceed independently. Resolution failure is non-fatal and
// cached as Failed.
func (c *Cache) Resolve(ctx context.Context, ip string) Result {
	c.mu.RLock()
	res, ok := c.entries[ip]
	c.mu.RUnlock()
	if ok {
		return res
	}

	v, _, _ := c.flight.Do(ip, func() (interface{}, error) {
		rCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		res := Result{State: Failed}
		if ptrs, err := c.resolve(rCtx, ip); err == nil {
			if host := firstHost(ptrs); host != "" {
				res = Result{State: Resolved, Hostname: host}
			}
		}

		c.mu.Lock()
		c.entries[ip] = res
		c.mu.Unlock()
		return res, nil
	})
	return v.(Result)
}

// Peek returns the cached result without triggering a lookup. Unknown IPs
// come back as NotAttempted.
func (c *Cache) Peek(ip string) Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[ip]
}

// Len reports how many IPs have a settled result.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ResolveBatch resolves every IP with a bounded worker pool and returns only
// once all lookups have settled. One slow or dead IP never blocks the others,
// and downstream rendering can rely on every result being final.
func (c *Cache) ResolveBatch(ctx context.Context, ips []string, workers int, progress chan<- int) {
	if len(ips) == 0 {
		return
	}
	if workers <= 0 {
		workers = 8
	}
	if workers > len(ips) {
		workers = len(ips)
	}

	jobs := make(chan string, workers*2)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ip := range jobs {
				c.Resolve(ctx, ip)
				if progress != nil {
					progress <- 1
				}
			}
		}()
	}

	for _, ip := range ips {
		jobs <- ip
	}
	close(jobs)
	wg.Wait()
}

// firstHost picks the first non-empty PTR, trimmed of the trailing dot.
func firstHost(ptrs []string) string {
	for _, p := range ptrs {
		p = strings.TrimSuffix(strings.TrimSpace(p), ".")
		if p != "" {
			return p
		}
	}
	return ""
}
