package executor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Kind classifies an automation failure. The control plane maps each kind
// to an HTTP status; the executor never retries on its own.
type Kind string

const (
	KindTimeout             Kind = "TIMEOUT"
	KindAntiBotPage         Kind = "ANTI_BOT_PAGE"
	KindDNSError            Kind = "DNS_ERROR"
	KindTLSError            Kind = "TLS_ERROR"
	KindConnectionError     Kind = "CONNECTION_ERROR"
	KindHTTP4xx             Kind = "HTTP_4XX"
	KindHTTP5xx             Kind = "HTTP_5XX"
	KindUnknownNetworkError Kind = "UNKNOWN_NETWORK_ERROR"
	KindPlaywrightError     Kind = "PLAYWRIGHT_ERROR"
	KindNotAvailable        Kind = "PLAYWRIGHT_NOT_AVAILABLE"
	KindPageNotFound        Kind = "PAGE_NOT_FOUND"
	KindBadRequest          Kind = "BAD_REQUEST"
)

// Error is the discriminated failure variant produced by every executor
// operation and consumed uniformly by the control plane's response mapper.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds an executor error of the given kind
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// badRequest marks a missing or invalid caller-supplied field
func badRequest(format string, args ...interface{}) *Error {
	return NewError(KindBadRequest, format, args...)
}

// Classify wraps an engine failure in a classified Error. Structured hints
// from the Playwright binding are tried first; substring matching on the
// message is the fallback.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var already *Error
	if errors.As(err, &already) {
		return already
	}

	msg := err.Error()

	if errors.Is(err, playwright.ErrTimeout) {
		return &Error{Kind: KindTimeout, Message: msg}
	}

	if kind, ok := classifyMessage(msg); ok {
		return &Error{Kind: kind, Message: msg}
	}

	return &Error{Kind: KindPlaywrightError, Message: msg}
}

// classifyMessage maps well-known Chromium network error strings to a kind
func classifyMessage(msg string) (Kind, bool) {
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out"):
		return KindTimeout, true
	case strings.Contains(msg, "net::ERR_NAME_NOT_RESOLVED"),
		strings.Contains(msg, "net::ERR_NAME_RESOLUTION_FAILED"):
		return KindDNSError, true
	case strings.Contains(msg, "net::ERR_CERT_"),
		strings.Contains(msg, "net::ERR_SSL_"),
		strings.Contains(lower, "certificate"):
		return KindTLSError, true
	case strings.Contains(msg, "net::ERR_CONNECTION_"),
		strings.Contains(msg, "net::ERR_ADDRESS_UNREACHABLE"),
		strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "connection reset"):
		return KindConnectionError, true
	case strings.Contains(msg, "net::ERR_"):
		return KindUnknownNetworkError, true
	}
	return "", false
}

// ClassifyHTTPStatus maps a navigation response status to an error kind,
// or "" when the status is not an error.
func ClassifyHTTPStatus(status int) Kind {
	switch {
	case status == 403 || status == 429:
		// Typical anti-bot interstitials answer with these
		return KindAntiBotPage
	case status >= 500:
		return KindHTTP5xx
	case status >= 400:
		return KindHTTP4xx
	default:
		return ""
	}
}
