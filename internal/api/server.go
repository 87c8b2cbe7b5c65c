package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shehryarbajwa/browser-agent/internal/proxy"
	"github.com/shehryarbajwa/browser-agent/internal/ratelimit"
)

// SetupRoutes configures all HTTP routes
func (h *Handler) SetupRoutes(proxyServer *proxy.Server, rateLimiter *ratelimit.Limiter) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods("GET")

	// Session lifecycle
	r.HandleFunc("/sessions", h.CreateSession).Methods("POST", "OPTIONS")
	r.HandleFunc("/sessions", h.ListSessions).Methods("GET")
	r.HandleFunc("/sessions/{id}", h.GetSession).Methods("GET")
	r.HandleFunc("/sessions/{id}", h.DeleteSession).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/sessions/{id}/show", h.ShowSession).Methods("POST", "OPTIONS")
	r.HandleFunc("/sessions/{id}/hide", h.HideSession).Methods("POST", "OPTIONS")

	// Automation actions
	r.HandleFunc("/sessions/{id}/navigate", h.NavigateSession).Methods("POST", "OPTIONS")
	r.HandleFunc("/sessions/{id}/wait/{kind:selector|text|url}", h.WaitSession).Methods("POST", "OPTIONS")
	r.HandleFunc("/sessions/{id}/screenshot", h.ScreenshotSession).Methods("POST", "OPTIONS")
	r.HandleFunc("/sessions/{id}/dom/{action}", h.DOMSession).Methods("POST", "OPTIONS")
	r.HandleFunc("/sessions/{id}/mouse/{action:click|drag}", h.MouseSession).Methods("POST", "OPTIONS")
	r.HandleFunc("/sessions/{id}/content/{kind:html|text|table}", h.ContentSession).Methods("POST", "OPTIONS")

	// Persisted artifacts
	r.HandleFunc("/sessions/{id}/files", h.ListSessionFiles).Methods("GET")
	r.HandleFunc("/files/{fileId}", h.DownloadFile).Methods("GET")

	// Debug endpoints
	r.HandleFunc("/debug/playwright-spike", h.PlaywrightSpike).Methods("POST", "OPTIONS")
	r.HandleFunc("/debug/mock-http", h.MockHTTP).Methods("POST", "OPTIONS")
	r.HandleFunc("/debug/mock-http/pending", h.MockHTTPPending).Methods("GET")
	r.HandleFunc("/debug/mock-http/{id}/respond", h.MockHTTPRespond).Methods("POST", "OPTIONS")
	if proxyServer != nil {
		r.HandleFunc("/debug/cdp", proxyServer.HandleDebugConnection).Methods("GET")
	}

	r.NotFoundHandler = notFoundHandler()
	r.MethodNotAllowedHandler = methodNotAllowedHandler()

	// Outermost first: CORS, then the disabled gate, then auth, then limits
	r.Use(corsMiddleware(h.settings.AllowedOrigin))
	r.Use(disabledGateMiddleware(func() bool { return h.settings.Enabled }))
	r.Use(tokenMiddleware(h.settings.Token))
	if rateLimiter != nil {
		r.Use(rateLimitMiddleware(rateLimiter, h.settings.RateLimitPerHour))
	}

	return r
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCode(w, http.StatusNotFound, codeNotFound, "no route for "+r.URL.Path)
	})
}

func methodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeCode(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, r.Method+" not allowed for "+r.URL.Path)
	})
}
