// Package executor performs single browser automation primitives against a
// locally running engine over its remote-debugging endpoint. Every call
// opens a fresh connection, locates the page bound to the session, runs one
// operation, and disconnects.
package executor

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// DefaultTimeoutMs bounds every engine operation unless overridden per call
const DefaultTimeoutMs = 30000.0

// sessionParam is the query parameter a navigate stamps onto the target URL
// so later calls can find the page again by substring match.
const sessionParam = "ba_session"

// hostUIPrefixes mark pages that belong to the engine or desktop shell
// itself and are never adopted by the singleton fallback.
var hostUIPrefixes = []string{
	"devtools://",
	"chrome://",
	"chrome-extension://",
	"edge://",
}

// Executor runs automation primitives against the engine's CDP endpoint
type Executor struct {
	endpoint string
	dataRoot string

	mu sync.Mutex
	pw *playwright.Playwright
}

// New creates an executor for the engine reachable at the given
// remote-debugging endpoint (e.g. http://127.0.0.1:9222). Screenshots are
// persisted under dataRoot.
func New(endpoint, dataRoot string) *Executor {
	return &Executor{
		endpoint: endpoint,
		dataRoot: dataRoot,
	}
}

// driver lazily starts the Playwright driver process. The driver is shared;
// the CDP connection itself is per call.
func (e *Executor) driver() (*playwright.Playwright, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pw != nil {
		return e.pw, nil
	}

	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, NewError(KindNotAvailable, "failed to start playwright driver: %v", err)
	}
	e.pw = pw
	return pw, nil
}

// Shutdown stops the driver process
func (e *Executor) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pw == nil {
		return nil
	}
	err := e.pw.Stop()
	e.pw = nil
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

// withPage connects to the engine, resolves the session's page, runs fn,
// and always disconnects, even when fn fails.
func (e *Executor) withPage(ctx context.Context, sessionID string, fn func(page playwright.Page) error) (info PageInfo, err error) {
	if sessionID == "" {
		return PageInfo{}, badRequest("sessionId is required")
	}
	if err := ctx.Err(); err != nil {
		return PageInfo{}, NewError(KindTimeout, "request cancelled: %v", err)
	}

	pw, err := e.driver()
	if err != nil {
		return PageInfo{}, err
	}

	browser, err := pw.Chromium.ConnectOverCDP(e.endpoint)
	if err != nil {
		return PageInfo{}, NewError(KindNotAvailable, "failed to connect to engine at %s: %v", e.endpoint, err)
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			log.Printf("executor: disconnect failed for %s: %v", sessionID, cerr)
		}
	}()

	page, err := findPage(browser, sessionID)
	if err != nil {
		return PageInfo{}, err
	}

	opErr := fn(page)

	// Resolve page state even after a failed operation; diagnostics want to
	// know where the page ended up.
	info.PageURL = page.URL()
	if title, terr := page.Title(); terr == nil {
		info.PageTitle = title
	}

	if opErr != nil {
		return info, Classify(opErr)
	}
	return info, nil
}

// findPage locates the page bound to a session. Primary strategy: substring
// match of the session id in each open page's URL. Fallback: if exactly one
// non-host-UI page exists, adopt it. Under concurrent navigations against
// the same engine the heuristic can pick the wrong page; that behavior is
// documented, not fixed.
func findPage(browser playwright.Browser, sessionID string) (playwright.Page, error) {
	var candidates []playwright.Page

	for _, bctx := range browser.Contexts() {
		for _, page := range bctx.Pages() {
			u := page.URL()
			if strings.Contains(u, sessionID) {
				return page, nil
			}
			if !isHostUIPage(u) {
				candidates = append(candidates, page)
			}
		}
	}

	if len(candidates) == 1 {
		return candidates[0], nil
	}
	return nil, NewError(KindPageNotFound, "no page found for session %s (%d candidate pages)", sessionID, len(candidates))
}

func isHostUIPage(pageURL string) bool {
	for _, prefix := range hostUIPrefixes {
		if strings.HasPrefix(pageURL, prefix) {
			return true
		}
	}
	return false
}

// TagURL stamps the session id onto the URL as a query parameter
func TagURL(raw, sessionID string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", badRequest("invalid url %q: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", badRequest("url must be http or https, got %q", raw)
	}
	q := u.Query()
	q.Set(sessionParam, sessionID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// timeoutOf applies the per-call default
func timeoutOf(ms float64) float64 {
	if ms > 0 {
		return ms
	}
	return DefaultTimeoutMs
}
