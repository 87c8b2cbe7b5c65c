package executor

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
)

var validScreenshotModes = map[string]bool{
	"viewport": true,
	"fullpage": true,
	"element":  true,
	"region":   true,
}

// MimeTypeForFormat returns image/jpeg for jpeg/jpg, image/png otherwise
func MimeTypeForFormat(format string) string {
	switch format {
	case "jpeg", "jpg":
		return "image/jpeg"
	default:
		return "image/png"
	}
}

// extForFormat is the filename extension matching MimeTypeForFormat
func extForFormat(format string) string {
	if format == "jpeg" || format == "jpg" {
		return "jpg"
	}
	return "png"
}

// Screenshot captures the page and persists the image under the session's
// screenshot directory in the data root. The returned path is always the
// persisted location, relative to the data root.
func (e *Executor) Screenshot(ctx context.Context, params ScreenshotParams) (*ScreenshotResult, error) {
	mode := params.Mode
	if mode == "" {
		mode = "viewport"
	}
	if !validScreenshotModes[mode] {
		return nil, badRequest("invalid mode %q (must be viewport, fullpage, element, or region)", mode)
	}
	if mode == "element" && params.Selector == "" {
		return nil, badRequest("selector is required for element screenshots")
	}
	if mode == "region" && params.Region == nil {
		return nil, badRequest("region is required for region screenshots")
	}

	snapshotID := "snap_" + uuid.New().String()
	relPath := filepath.Join("sessions", params.SessionID, "screenshots", snapshotID+"."+extForFormat(params.Format))
	absPath := filepath.Join(e.dataRoot, relPath)

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, NewError(KindPlaywrightError, "failed to create screenshot directory: %v", err)
	}

	shotType := playwright.ScreenshotTypePng
	if extForFormat(params.Format) == "jpg" {
		shotType = playwright.ScreenshotTypeJpeg
	}

	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		timeout := playwright.Float(timeoutOf(params.TimeoutMs))

		if mode == "element" {
			_, serr := page.Locator(params.Selector).Screenshot(playwright.LocatorScreenshotOptions{
				Path:    playwright.String(absPath),
				Type:    shotType,
				Timeout: timeout,
			})
			return serr
		}

		opts := playwright.PageScreenshotOptions{
			Path:    playwright.String(absPath),
			Type:    shotType,
			Timeout: timeout,
		}
		if mode == "fullpage" {
			opts.FullPage = playwright.Bool(true)
		}
		if mode == "region" {
			opts.Clip = &playwright.Rect{
				X:      params.Region.X,
				Y:      params.Region.Y,
				Width:  params.Region.Width,
				Height: params.Region.Height,
			}
		}
		_, serr := page.Screenshot(opts)
		return serr
	})
	if err != nil {
		return nil, err
	}

	var size int64
	if fi, serr := os.Stat(absPath); serr == nil {
		size = fi.Size()
	}

	return &ScreenshotResult{
		PageInfo:   info,
		SnapshotID: snapshotID,
		Path:       filepath.ToSlash(relPath),
		MimeType:   MimeTypeForFormat(params.Format),
		Size:       size,
	}, nil
}

// EngineVersion connects to the engine and reports its version plus the
// number of open pages. Used by the diagnostics endpoint.
func (e *Executor) EngineVersion(ctx context.Context) (map[string]interface{}, error) {
	pw, err := e.driver()
	if err != nil {
		return nil, err
	}

	browser, err := pw.Chromium.ConnectOverCDP(e.endpoint)
	if err != nil {
		return nil, NewError(KindNotAvailable, "failed to connect to engine at %s: %v", e.endpoint, err)
	}
	defer browser.Close()

	pages := 0
	for _, bctx := range browser.Contexts() {
		pages += len(bctx.Pages())
	}

	return map[string]interface{}{
		"endpoint": e.endpoint,
		"version":  browser.Version(),
		"pages":    pages,
	}, nil
}

// Endpoint reports the configured engine endpoint
func (e *Executor) Endpoint() string {
	return e.endpoint
}
