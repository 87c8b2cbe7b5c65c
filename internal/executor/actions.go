package executor

import (
	"context"

	"github.com/playwright-community/playwright-go"
)

var validWaitUntil = map[string]bool{
	"load":             true,
	"domcontentloaded": true,
	"networkidle":      true,
	"commit":           true,
}

// Navigate loads a URL in the session's page. The session id is stamped
// onto the URL as a query parameter so later calls can find the page again.
func (e *Executor) Navigate(ctx context.Context, params NavigateParams) (*NavigateResult, error) {
	if params.URL == "" {
		return nil, badRequest("url is required")
	}
	waitUntil := params.WaitUntil
	if waitUntil == "" {
		waitUntil = "load"
	}
	if !validWaitUntil[waitUntil] {
		return nil, badRequest("invalid waitUntil %q (must be load, domcontentloaded, networkidle, or commit)", waitUntil)
	}

	tagged, err := TagURL(params.URL, params.SessionID)
	if err != nil {
		return nil, err
	}

	result := &NavigateResult{}
	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		state := playwright.WaitUntilState(waitUntil)
		resp, gotoErr := page.Goto(tagged, playwright.PageGotoOptions{
			WaitUntil: &state,
			Timeout:   playwright.Float(timeoutOf(params.TimeoutMs)),
		})
		if gotoErr != nil {
			return gotoErr
		}
		if resp != nil {
			result.HTTPStatus = resp.Status()
			if kind := ClassifyHTTPStatus(resp.Status()); kind != "" {
				return NewError(kind, "navigation to %s answered %d", params.URL, resp.Status())
			}
		}
		return nil
	})
	result.PageInfo = info
	if err != nil {
		return result, err
	}
	return result, nil
}

// WaitSelector waits for a selector to reach the requested state
func (e *Executor) WaitSelector(ctx context.Context, params WaitParams) (*ActionResult, error) {
	if params.Selector == "" {
		return nil, badRequest("selector is required")
	}
	state := params.State
	if state == "" {
		state = "visible"
	}

	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		st := playwright.WaitForSelectorState(state)
		_, werr := page.WaitForSelector(params.Selector, playwright.PageWaitForSelectorOptions{
			State:   &st,
			Timeout: playwright.Float(timeoutOf(params.TimeoutMs)),
		})
		return werr
	})
	if err != nil {
		return nil, err
	}
	return &ActionResult{PageInfo: info}, nil
}

// WaitText waits for the given text to appear anywhere on the page
func (e *Executor) WaitText(ctx context.Context, params WaitParams) (*ActionResult, error) {
	if params.Text == "" {
		return nil, badRequest("text is required")
	}

	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		st := playwright.WaitForSelectorStateVisible
		_, werr := page.WaitForSelector("text="+params.Text, playwright.PageWaitForSelectorOptions{
			State:   st,
			Timeout: playwright.Float(timeoutOf(params.TimeoutMs)),
		})
		return werr
	})
	if err != nil {
		return nil, err
	}
	return &ActionResult{PageInfo: info}, nil
}

// WaitURL waits for the page URL to match the given pattern (glob)
func (e *Executor) WaitURL(ctx context.Context, params WaitParams) (*ActionResult, error) {
	if params.URL == "" {
		return nil, badRequest("url is required")
	}

	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		return page.WaitForURL(params.URL, playwright.PageWaitForURLOptions{
			Timeout: playwright.Float(timeoutOf(params.TimeoutMs)),
		})
	})
	if err != nil {
		return nil, err
	}
	return &ActionResult{PageInfo: info}, nil
}

var validButtons = map[string]bool{"left": true, "right": true, "middle": true}

// Click clicks the element matching a selector
func (e *Executor) Click(ctx context.Context, params ClickParams) (*ActionResult, error) {
	if params.Selector == "" {
		return nil, badRequest("selector is required")
	}
	if params.Button != "" && !validButtons[params.Button] {
		return nil, badRequest("invalid button %q (must be left, right, or middle)", params.Button)
	}

	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		opts := playwright.PageClickOptions{
			Timeout: playwright.Float(timeoutOf(params.TimeoutMs)),
		}
		if params.Button != "" {
			button := playwright.MouseButton(params.Button)
			opts.Button = &button
		}
		if params.ClickCount > 0 {
			opts.ClickCount = playwright.Int(params.ClickCount)
		}
		return page.Click(params.Selector, opts)
	})
	if err != nil {
		return nil, err
	}
	return &ActionResult{PageInfo: info}, nil
}

// Fill sets an input element's value
func (e *Executor) Fill(ctx context.Context, params FillParams) (*ActionResult, error) {
	if params.Selector == "" {
		return nil, badRequest("selector is required")
	}

	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		return page.Fill(params.Selector, params.Value, playwright.PageFillOptions{
			Timeout: playwright.Float(timeoutOf(params.TimeoutMs)),
		})
	})
	if err != nil {
		return nil, err
	}
	return &ActionResult{PageInfo: info}, nil
}
