package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/shehryarbajwa/browser-agent/internal/executor"
)

// Envelope is the uniform JSON shape of every response
type Envelope struct {
	OK           bool                   `json:"ok"`
	ErrorCode    *string                `json:"errorCode"`
	ErrorMessage *string                `json:"errorMessage"`
	ErrorDetails map[string]interface{} `json:"errorDetails,omitempty"`
	Data         interface{}            `json:"data"`
}

// Client error codes
const (
	codeBadJSON          = "BAD_JSON"
	codeTooLarge         = "REQUEST_ENTITY_TOO_LARGE"
	codeSessionNotFound  = "SESSION_NOT_FOUND"
	codeNotFound         = "NOT_FOUND"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	codeUnauthorized     = "UNAUTHORIZED"
	codeRateLimited      = "RATE_LIMITED"
	codeServiceDisabled  = "SERVICE_DISABLED"
)

// apiError pairs an error code with the HTTP status it maps to
type apiError struct {
	status  int
	code    string
	message string
	details map[string]interface{}
}

func (e *apiError) Error() string { return e.code + ": " + e.message }

func errBadJSON(msg string) *apiError {
	return &apiError{status: http.StatusBadRequest, code: codeBadJSON, message: msg}
}

func errTooLarge() *apiError {
	return &apiError{status: http.StatusRequestEntityTooLarge, code: codeTooLarge, message: "request body too large"}
}

func errSessionNotFound(id string) *apiError {
	return &apiError{status: http.StatusNotFound, code: codeSessionNotFound, message: "session not found: " + id}
}

// statusForKind maps executor error kinds to HTTP statuses
func statusForKind(kind executor.Kind) int {
	switch kind {
	case executor.KindBadRequest:
		return http.StatusBadRequest
	case executor.KindTimeout:
		return http.StatusGatewayTimeout
	case executor.KindAntiBotPage:
		return http.StatusTooManyRequests
	case executor.KindDNSError,
		executor.KindTLSError,
		executor.KindConnectionError,
		executor.KindHTTP4xx,
		executor.KindHTTP5xx,
		executor.KindUnknownNetworkError:
		return http.StatusBadGateway
	default:
		// PLAYWRIGHT_ERROR, PLAYWRIGHT_NOT_AVAILABLE, PAGE_NOT_FOUND
		return http.StatusInternalServerError
	}
}

// writeData answers with a success envelope
func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeEnvelope(w, status, Envelope{OK: true, Data: data})
}

// writeError answers with a failure envelope. Executor errors are mapped by
// kind; apiErrors carry their own status; everything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	var ae *apiError
	if errors.As(err, &ae) {
		code, msg := ae.code, ae.message
		writeEnvelope(w, ae.status, Envelope{ErrorCode: &code, ErrorMessage: &msg, ErrorDetails: ae.details})
		return
	}

	var xe *executor.Error
	if errors.As(err, &xe) {
		code, msg := string(xe.Kind), xe.Message
		writeEnvelope(w, statusForKind(xe.Kind), Envelope{ErrorCode: &code, ErrorMessage: &msg, ErrorDetails: xe.Details})
		return
	}

	code, msg := "INTERNAL", err.Error()
	writeEnvelope(w, http.StatusInternalServerError, Envelope{ErrorCode: &code, ErrorMessage: &msg})
}

func writeCode(w http.ResponseWriter, status int, code, message string) {
	writeEnvelope(w, status, Envelope{ErrorCode: &code, ErrorMessage: &message})
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Printf("api: failed to encode response: %v", err)
	}
}

// decodeJSON reads a size-capped JSON body into dst and, when rawParams is
// non-nil, also captures the raw payload for the audit trail. Failures
// happen before any side effect.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}, rawParams *map[string]interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errTooLarge()
		}
		return errBadJSON("invalid request body: " + err.Error())
	}

	if dst != nil {
		if err := json.Unmarshal(raw, dst); err != nil {
			return errBadJSON("invalid request body: " + err.Error())
		}
	}
	if rawParams != nil {
		params := make(map[string]interface{})
		if err := json.Unmarshal(raw, &params); err == nil {
			*rawParams = params
		}
	}
	return nil
}

// decodeOptionalJSON tolerates an empty body, which several action routes
// accept
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}, rawParams *map[string]interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return decodeJSON(w, r, maxBytes, dst, rawParams)
}
