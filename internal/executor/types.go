package executor

// PageInfo is embedded in every action result: the resolved page URL and
// title after the operation completed.
type PageInfo struct {
	PageURL   string `json:"pageUrl"`
	PageTitle string `json:"pageTitle"`
}

// NavigateParams configures a navigate action
type NavigateParams struct {
	SessionID string  `json:"sessionId"`
	URL       string  `json:"url"`
	WaitUntil string  `json:"waitUntil,omitempty"`
	TimeoutMs float64 `json:"timeoutMs,omitempty"`
	OnTimeout string  `json:"onTimeout,omitempty"`
}

// NavigateResult reports a completed navigation
type NavigateResult struct {
	PageInfo
	HTTPStatus int    `json:"httpStatus,omitempty"`
	SnapshotID string `json:"snapshotId,omitempty"`
}

// WaitParams configures the wait primitives. Selector, Text, or URL is used
// depending on which wait kind is invoked.
type WaitParams struct {
	SessionID string  `json:"sessionId"`
	Selector  string  `json:"selector,omitempty"`
	Text      string  `json:"text,omitempty"`
	URL       string  `json:"url,omitempty"`
	State     string  `json:"state,omitempty"`
	TimeoutMs float64 `json:"timeoutMs,omitempty"`
}

// ClickParams configures a selector click
type ClickParams struct {
	SessionID  string  `json:"sessionId"`
	Selector   string  `json:"selector"`
	Button     string  `json:"button,omitempty"`
	ClickCount int     `json:"clickCount,omitempty"`
	TimeoutMs  float64 `json:"timeoutMs,omitempty"`
}

// FillParams configures a form fill
type FillParams struct {
	SessionID string  `json:"sessionId"`
	Selector  string  `json:"selector"`
	Value     string  `json:"value"`
	TimeoutMs float64 `json:"timeoutMs,omitempty"`
}

// ScrollParams configures window scrolling by pixel deltas
type ScrollParams struct {
	SessionID string  `json:"sessionId"`
	DeltaX    float64 `json:"deltaX,omitempty"`
	DeltaY    float64 `json:"deltaY,omitempty"`
	TimeoutMs float64 `json:"timeoutMs,omitempty"`
}

// SelectorParams is shared by the single-selector DOM primitives
// (scrollIntoView, isDisabled, getValue, getFormData)
type SelectorParams struct {
	SessionID string  `json:"sessionId"`
	Selector  string  `json:"selector"`
	TimeoutMs float64 `json:"timeoutMs,omitempty"`
}

// SetCheckedParams configures dom.setCheckbox and dom.setRadio
type SetCheckedParams struct {
	SessionID string  `json:"sessionId"`
	Selector  string  `json:"selector"`
	Checked   bool    `json:"checked"`
	TimeoutMs float64 `json:"timeoutMs,omitempty"`
}

// SelectOptionsParams configures dom.selectOptions
type SelectOptionsParams struct {
	SessionID string   `json:"sessionId"`
	Selector  string   `json:"selector"`
	Values    []string `json:"values"`
	TimeoutMs float64  `json:"timeoutMs,omitempty"`
}

// UploadFileParams configures dom.uploadFile
type UploadFileParams struct {
	SessionID string   `json:"sessionId"`
	Selector  string   `json:"selector"`
	Files     []string `json:"files"`
	TimeoutMs float64  `json:"timeoutMs,omitempty"`
}

// MouseParams configures the pointer primitives; FromX/FromY/ToX/ToY are
// only used by drag.
type MouseParams struct {
	SessionID string  `json:"sessionId"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	FromX     float64 `json:"fromX,omitempty"`
	FromY     float64 `json:"fromY,omitempty"`
	ToX       float64 `json:"toX,omitempty"`
	ToY       float64 `json:"toY,omitempty"`
	Button    string  `json:"button,omitempty"`
	TimeoutMs float64 `json:"timeoutMs,omitempty"`
}

// ContentParams configures the content extraction actions
type ContentParams struct {
	SessionID string  `json:"sessionId"`
	Selector  string  `json:"selector,omitempty"`
	MaxLength int     `json:"maxLength,omitempty"`
	TimeoutMs float64 `json:"timeoutMs,omitempty"`
}

// ScreenshotParams configures a screenshot capture. Mode is "viewport",
// "fullpage", "element", or "region".
type ScreenshotParams struct {
	SessionID   string  `json:"sessionId"`
	Mode        string  `json:"mode,omitempty"`
	Selector    string  `json:"selector,omitempty"`
	Region      *Region `json:"region,omitempty"`
	Format      string  `json:"format,omitempty"`
	Description string  `json:"description,omitempty"`
	ActionID    string  `json:"actionId,omitempty"`
	TimeoutMs   float64 `json:"timeoutMs,omitempty"`
}

// Region is a pixel rectangle for region screenshots
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ActionResult is the generic result for actions with no extra payload
type ActionResult struct {
	PageInfo
}

// ValueResult carries a single extracted string value
type ValueResult struct {
	PageInfo
	Value string `json:"value"`
}

// BoolResult carries a single extracted boolean
type BoolResult struct {
	PageInfo
	Value bool `json:"value"`
}

// FormDataResult carries the current values of a form's fields
type FormDataResult struct {
	PageInfo
	Fields map[string]string `json:"fields"`
}

// ContentResult carries extracted page content
type ContentResult struct {
	PageInfo
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
}

// TableResult carries rows extracted from an HTML table
type TableResult struct {
	PageInfo
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ScreenshotResult reports a persisted screenshot. Path is the location
// under the data root, never the engine's temporary path.
type ScreenshotResult struct {
	PageInfo
	SnapshotID string `json:"snapshotId"`
	Path       string `json:"path"`
	MimeType   string `json:"mimeType"`
	Size       int64  `json:"size"`
}
