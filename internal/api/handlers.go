package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/shehryarbajwa/browser-agent/internal/audit"
	"github.com/shehryarbajwa/browser-agent/internal/config"
	"github.com/shehryarbajwa/browser-agent/internal/executor"
	"github.com/shehryarbajwa/browser-agent/internal/mockhttp"
	"github.com/shehryarbajwa/browser-agent/internal/registry"
	"github.com/shehryarbajwa/browser-agent/internal/windows"
	"github.com/shehryarbajwa/browser-agent/pkg/models"
)

// Body size caps. The debug mock endpoint accepts big response templates.
const (
	maxBodyBytes     = 1 << 20
	maxMockBodyBytes = 10 << 20
)

// Automation is the executor surface the control plane dispatches to, one
// function per action kind. Tests substitute a stub.
type Automation interface {
	Navigate(ctx context.Context, params executor.NavigateParams) (*executor.NavigateResult, error)
	WaitSelector(ctx context.Context, params executor.WaitParams) (*executor.ActionResult, error)
	WaitText(ctx context.Context, params executor.WaitParams) (*executor.ActionResult, error)
	WaitURL(ctx context.Context, params executor.WaitParams) (*executor.ActionResult, error)
	Click(ctx context.Context, params executor.ClickParams) (*executor.ActionResult, error)
	Fill(ctx context.Context, params executor.FillParams) (*executor.ActionResult, error)
	Scroll(ctx context.Context, params executor.ScrollParams) (*executor.ActionResult, error)
	ScrollIntoView(ctx context.Context, params executor.SelectorParams) (*executor.ActionResult, error)
	SetCheckbox(ctx context.Context, params executor.SetCheckedParams) (*executor.ActionResult, error)
	SetRadio(ctx context.Context, params executor.SetCheckedParams) (*executor.ActionResult, error)
	SelectOptions(ctx context.Context, params executor.SelectOptionsParams) (*executor.ValueResult, error)
	UploadFile(ctx context.Context, params executor.UploadFileParams) (*executor.ActionResult, error)
	IsDisabled(ctx context.Context, params executor.SelectorParams) (*executor.BoolResult, error)
	GetFormData(ctx context.Context, params executor.SelectorParams) (*executor.FormDataResult, error)
	GetValue(ctx context.Context, params executor.SelectorParams) (*executor.ValueResult, error)
	MouseClick(ctx context.Context, params executor.MouseParams) (*executor.ActionResult, error)
	MouseDrag(ctx context.Context, params executor.MouseParams) (*executor.ActionResult, error)
	ContentHTML(ctx context.Context, params executor.ContentParams) (*executor.ContentResult, error)
	ContentText(ctx context.Context, params executor.ContentParams) (*executor.ContentResult, error)
	ContentTable(ctx context.Context, params executor.ContentParams) (*executor.TableResult, error)
	Screenshot(ctx context.Context, params executor.ScreenshotParams) (*executor.ScreenshotResult, error)
	EngineVersion(ctx context.Context) (map[string]interface{}, error)
}

// Handler holds the control plane's dependencies
type Handler struct {
	settings config.Settings
	registry *registry.Registry
	store    *audit.Store
	engine   Automation
	host     windows.Host
	bridge   *mockhttp.Bridge
	now      func() time.Time
}

// NewHandler wires the control plane
func NewHandler(settings config.Settings, reg *registry.Registry, store *audit.Store, engine Automation, host windows.Host, bridge *mockhttp.Bridge) *Handler {
	if host == nil {
		host = windows.NoopHost{}
	}
	if bridge == nil {
		bridge = mockhttp.NewBridge(0)
	}
	return &Handler{
		settings: settings,
		registry: reg,
		store:    store,
		engine:   engine,
		host:     host,
		bridge:   bridge,
		now:      time.Now,
	}
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": h.registry.Len(),
	})
}

// CreateSession handles POST /sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := decodeOptionalJSON(w, r, maxBodyBytes, &req, nil); err != nil {
		writeError(w, err)
		return
	}

	session := h.registry.Create(req)
	log.Printf("session %s created for client %s", session.ID, session.ClientID)

	created := session.CreatedAt
	h.store.AppendSession(models.SessionRecord{
		SessionID: session.ID,
		Profile:   session.Profile,
		ClientID:  session.ClientID,
		Status:    models.StatusRunning,
		CreatedAt: &created,
	})

	writeData(w, http.StatusCreated, session)
}

// ListSessions handles GET /sessions
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	filter := models.SessionFilter{
		Profile:  r.URL.Query().Get("profile"),
		ClientID: r.URL.Query().Get("clientId"),
		Status:   models.SessionStatus(r.URL.Query().Get("status")),
	}
	writeData(w, http.StatusOK, h.registry.List(filter))
}

// GetSession handles GET /sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	session := h.registry.Get(id)
	if session == nil {
		writeError(w, errSessionNotFound(id))
		return
	}
	writeData(w, http.StatusOK, session)
}

// DeleteSession handles DELETE /sessions/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	closed := h.registry.Close(id)
	if closed == nil {
		writeError(w, errSessionNotFound(id))
		return
	}
	log.Printf("session %s closed", id)

	finished := *closed.ClosedAt
	h.store.AppendSession(models.SessionRecord{
		SessionID:  closed.ID,
		Profile:    closed.Profile,
		ClientID:   closed.ClientID,
		Status:     models.StatusClosed,
		FinishedAt: &finished,
	})

	if closed.WindowID != nil {
		if err := h.host.Close(*closed.WindowID); err != nil {
			log.Printf("window close for %s failed: %v", id, err)
		}
	}

	writeData(w, http.StatusOK, closed)
}

// ShowSession handles POST /sessions/{id}/show
func (h *Handler) ShowSession(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, true)
}

// HideSession handles POST /sessions/{id}/hide
func (h *Handler) HideSession(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, false)
}

func (h *Handler) setVisibility(w http.ResponseWriter, r *http.Request, visible bool) {
	id := mux.Vars(r)["id"]

	session := h.registry.Get(id)
	if session == nil {
		writeError(w, errSessionNotFound(id))
		return
	}

	if visible {
		h.registry.Show(id)
	} else {
		h.registry.Hide(id)
	}

	// Moving the actual window is best-effort; the flag is the contract
	if session.WindowID != nil {
		var err error
		if visible {
			err = h.host.Show(*session.WindowID)
		} else {
			err = h.host.Hide(*session.WindowID)
		}
		if err != nil {
			log.Printf("window visibility change for %s failed: %v", id, err)
		}
	}

	writeData(w, http.StatusOK, h.registry.Get(id))
}
