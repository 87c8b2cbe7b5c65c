package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shehryarbajwa/browser-agent/internal/mockhttp"
)

// PlaywrightSpike handles POST /debug/playwright-spike. It verifies the
// engine binding end to end and reports version diagnostics.
func (h *Handler) PlaywrightSpike(w http.ResponseWriter, r *http.Request) {
	info, err := h.engine.EngineVersion(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, info)
}

// MockHTTP handles POST /debug/mock-http. The request parks until an
// operator resolves it or the bridge's wait bound expires.
func (h *Handler) MockHTTP(w http.ResponseWriter, r *http.Request) {
	var req mockhttp.Request
	if err := decodeJSON(w, r, maxMockBodyBytes, &req, nil); err != nil {
		writeError(w, err)
		return
	}

	resp, err := h.bridge.Park(req)
	if err != nil {
		writeCode(w, http.StatusGatewayTimeout, "TIMEOUT", err.Error())
		return
	}
	writeData(w, http.StatusOK, resp)
}

// MockHTTPPending handles GET /debug/mock-http/pending
func (h *Handler) MockHTTPPending(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]interface{}{
		"pending": h.bridge.Pending(),
	})
}

// MockHTTPRespond handles POST /debug/mock-http/{id}/respond
func (h *Handler) MockHTTPRespond(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var resp mockhttp.Response
	if err := decodeJSON(w, r, maxBodyBytes, &resp, nil); err != nil {
		writeError(w, err)
		return
	}
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}

	if err := h.bridge.Resolve(id, resp); err != nil {
		writeCode(w, http.StatusNotFound, codeNotFound, err.Error())
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"resolved": id})
}
