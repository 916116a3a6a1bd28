// Package verify optionally probes selected evidence URLs for
// liveness before they are attached to a candidate. Verification is
// off by default; when enabled it drops dead links but never reorders
// or rescores the surviving ones.
package verify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/evidra/evidra/internal/model"
	"github.com/evidra/evidra/internal/util"
)

const maxRetries = 3

// sleepFunc is the backoff sleep, injectable for tests.
var sleepFunc = time.Sleep

// Result is the liveness probe outcome for one URL.
type Result struct {
	URL        string
	Alive      bool
	StatusCode int
	Error      string
}

// Verifier probes URLs with bounded concurrency.
type Verifier struct {
	httpClient *http.Client
	maxWorkers int
	userAgent  string
	robots     *util.RobotsChecker
}

// NewVerifier builds a verifier. When cfg.RespectRobots is set, URLs
// disallowed by the host's robots.txt are treated as unverifiable and
// kept.
func NewVerifier(cfg model.VerifyConfig, userAgent, httpProxy, httpsProxy string) *Verifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	v := &Verifier{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpProxy, httpsProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		maxWorkers: maxWorkers,
		userAgent:  userAgent,
	}
	if cfg.RespectRobots {
		v.robots = util.NewRobotsChecker(userAgent, timeout)
	}
	return v
}

// FilterAlive probes the evidence list concurrently and returns only
// the URLs that responded, preserving the input order. URLs that cannot
// be probed (robots-disallowed) are kept.
func (v *Verifier) FilterAlive(ctx context.Context, evidence []model.EvidenceURL) []model.EvidenceURL {
	if len(evidence) == 0 {
		return evidence
	}

	alive := make([]bool, len(evidence))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, v.maxWorkers)

	for i, ev := range evidence {
		wg.Add(1)
		go func(idx int, rawURL string) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				alive[idx] = true // cancelled probes keep the URL
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			res := v.probeWithRetry(ctx, rawURL)
			alive[idx] = res.Alive
		}(i, ev.URL)
	}
	wg.Wait()

	kept := make([]model.EvidenceURL, 0, len(evidence))
	for i, ev := range evidence {
		if alive[i] {
			kept = append(kept, ev)
		}
	}
	return kept
}

// Probe issues one HEAD request against the URL.
func (v *Verifier) Probe(ctx context.Context, rawURL string) Result {
	result := Result{URL: rawURL}

	if v.robots != nil {
		if allowed, err := v.robots.CanFetch(ctx, rawURL); err == nil && !allowed {
			result.Alive = true
			result.Error = "robots disallowed, kept unverified"
			return result
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		return result
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	result.Alive = resp.StatusCode >= 200 && resp.StatusCode < 400
	return result
}

func (v *Verifier) probeWithRetry(ctx context.Context, rawURL string) Result {
	var result Result
	for attempt := 0; attempt < maxRetries; attempt++ {
		result = v.Probe(ctx, rawURL)
		if !retryable(result) {
			return result
		}
		if attempt < maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			sleepFunc(backoff)
		}
	}
	return result
}

// retryable reports transient failures worth another attempt.
func retryable(result Result) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == 429 {
		return true
	}
	if result.Error != "" {
		s := strings.ToLower(result.Error)
		return strings.Contains(s, "timeout") ||
			strings.Contains(s, "connection refused") ||
			strings.Contains(s, "connection reset")
	}
	return false
}
