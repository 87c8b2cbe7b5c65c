package executor

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Scroll scrolls the window by pixel deltas
func (e *Executor) Scroll(ctx context.Context, params ScrollParams) (*ActionResult, error) {
	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		_, everr := page.Evaluate(
			"(d) => window.scrollBy(d.x, d.y)",
			map[string]interface{}{"x": params.DeltaX, "y": params.DeltaY},
		)
		return everr
	})
	if err != nil {
		return nil, err
	}
	return &ActionResult{PageInfo: info}, nil
}

// ScrollIntoView scrolls the first element matching the selector into view
func (e *Executor) ScrollIntoView(ctx context.Context, params SelectorParams) (*ActionResult, error) {
	if params.Selector == "" {
		return nil, badRequest("selector is required")
	}

	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		return page.Locator(params.Selector).ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{
			Timeout: playwright.Float(timeoutOf(params.TimeoutMs)),
		})
	})
	if err != nil {
		return nil, err
	}
	return &ActionResult{PageInfo: info}, nil
}

// SetCheckbox checks or unchecks a checkbox
func (e *Executor) SetCheckbox(ctx context.Context, params SetCheckedParams) (*ActionResult, error) {
	if params.Selector == "" {
		return nil, badRequest("selector is required")
	}

	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		return page.Locator(params.Selector).SetChecked(params.Checked, playwright.LocatorSetCheckedOptions{
			Timeout: playwright.Float(timeoutOf(params.TimeoutMs)),
		})
	})
	if err != nil {
		return nil, err
	}
	return &ActionResult{PageInfo: info}, nil
}

// SetRadio selects a radio button. Radios cannot be unchecked directly, so
// checked=false is rejected.
func (e *Executor) SetRadio(ctx context.Context, params SetCheckedParams) (*ActionResult, error) {
	if params.Selector == "" {
		return nil, badRequest("selector is required")
	}
	if !params.Checked {
		return nil, badRequest("a radio button can only be checked, select another radio to clear it")
	}

	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		return page.Locator(params.Selector).Check(playwright.LocatorCheckOptions{
			Timeout: playwright.Float(timeoutOf(params.TimeoutMs)),
		})
	})
	if err != nil {
		return nil, err
	}
	return &ActionResult{PageInfo: info}, nil
}

// SelectOptions selects values in a <select> element
func (e *Executor) SelectOptions(ctx context.Context, params SelectOptionsParams) (*ValueResult, error) {
	if params.Selector == "" {
		return nil, badRequest("selector is required")
	}
	if len(params.Values) == 0 {
		return nil, badRequest("values is required")
	}

	var selected []string
	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		var serr error
		selected, serr = page.Locator(params.Selector).SelectOption(
			playwright.SelectOptionValues{Values: &params.Values},
			playwright.LocatorSelectOptionOptions{Timeout: playwright.Float(timeoutOf(params.TimeoutMs))},
		)
		return serr
	})
	if err != nil {
		return nil, err
	}
	return &ValueResult{PageInfo: info, Value: fmt.Sprintf("%d option(s) selected", len(selected))}, nil
}

// UploadFile attaches local files to a file input
func (e *Executor) UploadFile(ctx context.Context, params UploadFileParams) (*ActionResult, error) {
	if params.Selector == "" {
		return nil, badRequest("selector is required")
	}
	if len(params.Files) == 0 {
		return nil, badRequest("files is required")
	}

	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		return page.Locator(params.Selector).SetInputFiles(params.Files, playwright.LocatorSetInputFilesOptions{
			Timeout: playwright.Float(timeoutOf(params.TimeoutMs)),
		})
	})
	if err != nil {
		return nil, err
	}
	return &ActionResult{PageInfo: info}, nil
}

// IsDisabled reports whether the matched element is disabled
func (e *Executor) IsDisabled(ctx context.Context, params SelectorParams) (*BoolResult, error) {
	if params.Selector == "" {
		return nil, badRequest("selector is required")
	}

	var disabled bool
	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		var derr error
		disabled, derr = page.Locator(params.Selector).IsDisabled()
		return derr
	})
	if err != nil {
		return nil, err
	}
	return &BoolResult{PageInfo: info, Value: disabled}, nil
}

// GetValue reads an input element's current value
func (e *Executor) GetValue(ctx context.Context, params SelectorParams) (*ValueResult, error) {
	if params.Selector == "" {
		return nil, badRequest("selector is required")
	}

	var value string
	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		var verr error
		value, verr = page.Locator(params.Selector).InputValue(playwright.LocatorInputValueOptions{
			Timeout: playwright.Float(timeoutOf(params.TimeoutMs)),
		})
		return verr
	})
	if err != nil {
		return nil, err
	}
	return &ValueResult{PageInfo: info, Value: value}, nil
}

const formDataScript = `(sel) => {
	const form = document.querySelector(sel);
	if (!form) return null;
	const out = {};
	for (const [key, value] of new FormData(form).entries()) {
		out[key] = String(value);
	}
	return out;
}`

// GetFormData reads the current values of every named field in a form
func (e *Executor) GetFormData(ctx context.Context, params SelectorParams) (*FormDataResult, error) {
	if params.Selector == "" {
		return nil, badRequest("selector is required")
	}

	fields := make(map[string]string)
	info, err := e.withPage(ctx, params.SessionID, func(page playwright.Page) error {
		raw, everr := page.Evaluate(formDataScript, params.Selector)
		if everr != nil {
			return everr
		}
		if raw == nil {
			return NewError(KindPlaywrightError, "no form matches selector %q", params.Selector)
		}
		if m, ok := raw.(map[string]interface{}); ok {
			for k, v := range m {
				fields[k] = fmt.Sprint(v)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &FormDataResult{PageInfo: info, Fields: fields}, nil
}
