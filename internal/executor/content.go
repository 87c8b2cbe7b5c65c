package executor

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// DefaultMaxContentLength caps extracted content unless overridden
const DefaultMaxContentLength = 100000

// MouseClick clicks at page coordinates
func (e *Executor) MouseClick(ctx context.Context, params MouseParams) (*ActionResult, error) {
	if params.Button != "" && !validButtons[params.Button] {
		return nil, badRequest("invalid button %q (must be left, right, or middle)", params.Button)
	}

	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		opts := playwright.MouseClickOptions{}
		if params.Button != "" {
			button := playwright.MouseButton(params.Button)
			opts.Button = &button
		}
		return page.Mouse().Click(params.X, params.Y, opts)
	})
	if err != nil {
		return nil, err
	}
	return &ActionResult{PageInfo: info}, nil
}

// MouseDrag presses at the from-coordinates, moves, and releases at the
// to-coordinates
func (e *Executor) MouseDrag(ctx context.Context, params MouseParams) (*ActionResult, error) {
	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		mouse := page.Mouse()
		if merr := mouse.Move(params.FromX, params.FromY); merr != nil {
			return merr
		}
		if merr := mouse.Down(); merr != nil {
			return merr
		}
		if merr := mouse.Move(params.ToX, params.ToY, playwright.MouseMoveOptions{Steps: playwright.Int(10)}); merr != nil {
			return merr
		}
		return mouse.Up()
	})
	if err != nil {
		return nil, err
	}
	return &ActionResult{PageInfo: info}, nil
}

// ContentHTML extracts the page's (or one element's) HTML
func (e *Executor) ContentHTML(ctx context.Context, params ContentParams) (*ContentResult, error) {
	maxLen := params.MaxLength
	if maxLen <= 0 {
		maxLen = DefaultMaxContentLength
	}

	var content string
	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		var cerr error
		if params.Selector != "" {
			content, cerr = page.Locator(params.Selector).InnerHTML(playwright.LocatorInnerHTMLOptions{
				Timeout: playwright.Float(timeoutOf(params.TimeoutMs)),
			})
		} else {
			content, cerr = page.Content()
		}
		return cerr
	})
	if err != nil {
		return nil, err
	}

	result := &ContentResult{PageInfo: info, Content: content}
	if len(content) > maxLen {
		result.Content = content[:maxLen]
		result.Truncated = true
	}
	return result, nil
}

// ContentText extracts the page's (or one element's) visible text
func (e *Executor) ContentText(ctx context.Context, params ContentParams) (*ContentResult, error) {
	maxLen := params.MaxLength
	if maxLen <= 0 {
		maxLen = DefaultMaxContentLength
	}

	selector := params.Selector
	if selector == "" {
		selector = "body"
	}

	var content string
	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		var cerr error
		content, cerr = page.Locator(selector).InnerText(playwright.LocatorInnerTextOptions{
			Timeout: playwright.Float(timeoutOf(params.TimeoutMs)),
		})
		return cerr
	})
	if err != nil {
		return nil, err
	}

	result := &ContentResult{PageInfo: info, Content: content}
	if len(content) > maxLen {
		result.Content = content[:maxLen]
		result.Truncated = true
	}
	return result, nil
}

const tableScript = `(sel) => {
	const table = document.querySelector(sel);
	if (!table) return null;
	const headers = [...table.querySelectorAll('thead th, tr:first-child th')]
		.map((th) => th.innerText.trim());
	const rows = [];
	for (const tr of table.querySelectorAll('tbody tr, tr')) {
		const cells = [...tr.querySelectorAll('td')].map((td) => td.innerText.trim());
		if (cells.length > 0) rows.push(cells);
	}
	return { headers, rows };
}`

// ContentTable extracts an HTML table as headers plus rows
func (e *Executor) ContentTable(ctx context.Context, params ContentParams) (*TableResult, error) {
	selector := params.Selector
	if selector == "" {
		selector = "table"
	}

	result := &TableResult{Headers: []string{}, Rows: [][]string{}}
	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		raw, everr := page.Evaluate(tableScript, selector)
		if everr != nil {
			return everr
		}
		if raw == nil {
			return NewError(KindPlaywrightError, "no table matches selector %q", selector)
		}

		m, ok := raw.(map[string]interface{})
		if !ok {
			return NewError(KindPlaywrightError, "unexpected table extraction shape %T", raw)
		}
		if hs, ok := m["headers"].([]interface{}); ok {
			for _, h := range hs {
				result.Headers = append(result.Headers, fmt.Sprint(h))
			}
		}
		if rs, ok := m["rows"].([]interface{}); ok {
			for _, r := range rs {
				cells, ok := r.([]interface{})
				if !ok {
					continue
				}
				row := make([]string, 0, len(cells))
				for _, c := range cells {
					row = append(row, fmt.Sprint(c))
				}
				result.Rows = append(result.Rows, row)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.PageInfo = info
	return result, nil
}
