package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/browser-agent/internal/audit"
	"github.com/shehryarbajwa/browser-agent/internal/config"
	"github.com/shehryarbajwa/browser-agent/internal/executor"
	"github.com/shehryarbajwa/browser-agent/internal/mockhttp"
	"github.com/shehryarbajwa/browser-agent/internal/registry"
	"github.com/shehryarbajwa/browser-agent/pkg/models"
)

// stubEngine satisfies Automation without a browser. Individual calls can
// be overridden per test.
type stubEngine struct {
	navigate   func(params executor.NavigateParams) (*executor.NavigateResult, error)
	screenshot func(params executor.ScreenshotParams) (*executor.ScreenshotResult, error)
}

func okResult() *executor.ActionResult {
	return &executor.ActionResult{PageInfo: executor.PageInfo{PageURL: "https://example.com/", PageTitle: "Example"}}
}

func (s *stubEngine) Navigate(_ context.Context, params executor.NavigateParams) (*executor.NavigateResult, error) {
	if s.navigate != nil {
		return s.navigate(params)
	}
	return &executor.NavigateResult{
		PageInfo:   executor.PageInfo{PageURL: params.URL, PageTitle: "Example"},
		HTTPStatus: 200,
	}, nil
}

func (s *stubEngine) WaitSelector(_ context.Context, _ executor.WaitParams) (*executor.ActionResult, error) {
	return okResult(), nil
}
func (s *stubEngine) WaitText(_ context.Context, _ executor.WaitParams) (*executor.ActionResult, error) {
	return okResult(), nil
}
func (s *stubEngine) WaitURL(_ context.Context, _ executor.WaitParams) (*executor.ActionResult, error) {
	return okResult(), nil
}
func (s *stubEngine) Click(_ context.Context, _ executor.ClickParams) (*executor.ActionResult, error) {
	return okResult(), nil
}
func (s *stubEngine) Fill(_ context.Context, _ executor.FillParams) (*executor.ActionResult, error) {
	return okResult(), nil
}
func (s *stubEngine) Scroll(_ context.Context, _ executor.ScrollParams) (*executor.ActionResult, error) {
	return okResult(), nil
}
func (s *stubEngine) ScrollIntoView(_ context.Context, _ executor.SelectorParams) (*executor.ActionResult, error) {
	return okResult(), nil
}
func (s *stubEngine) SetCheckbox(_ context.Context, _ executor.SetCheckedParams) (*executor.ActionResult, error) {
	return okResult(), nil
}
func (s *stubEngine) SetRadio(_ context.Context, _ executor.SetCheckedParams) (*executor.ActionResult, error) {
	return okResult(), nil
}
func (s *stubEngine) SelectOptions(_ context.Context, _ executor.SelectOptionsParams) (*executor.ValueResult, error) {
	return &executor.ValueResult{PageInfo: okResult().PageInfo}, nil
}
func (s *stubEngine) UploadFile(_ context.Context, _ executor.UploadFileParams) (*executor.ActionResult, error) {
	return okResult(), nil
}
func (s *stubEngine) IsDisabled(_ context.Context, _ executor.SelectorParams) (*executor.BoolResult, error) {
	return &executor.BoolResult{PageInfo: okResult().PageInfo}, nil
}
func (s *stubEngine) GetFormData(_ context.Context, _ executor.SelectorParams) (*executor.FormDataResult, error) {
	return &executor.FormDataResult{PageInfo: okResult().PageInfo, Fields: map[string]string{}}, nil
}
func (s *stubEngine) GetValue(_ context.Context, _ executor.SelectorParams) (*executor.ValueResult, error) {
	return &executor.ValueResult{PageInfo: okResult().PageInfo, Value: "hello"}, nil
}
func (s *stubEngine) MouseClick(_ context.Context, _ executor.MouseParams) (*executor.ActionResult, error) {
	return okResult(), nil
}
func (s *stubEngine) MouseDrag(_ context.Context, _ executor.MouseParams) (*executor.ActionResult, error) {
	return okResult(), nil
}
func (s *stubEngine) ContentHTML(_ context.Context, _ executor.ContentParams) (*executor.ContentResult, error) {
	return &executor.ContentResult{PageInfo: okResult().PageInfo, Content: "<html></html>"}, nil
}
func (s *stubEngine) ContentText(_ context.Context, _ executor.ContentParams) (*executor.ContentResult, error) {
	return &executor.ContentResult{PageInfo: okResult().PageInfo, Content: "hello"}, nil
}
func (s *stubEngine) ContentTable(_ context.Context, _ executor.ContentParams) (*executor.TableResult, error) {
	return &executor.TableResult{PageInfo: okResult().PageInfo}, nil
}
func (s *stubEngine) Screenshot(_ context.Context, params executor.ScreenshotParams) (*executor.ScreenshotResult, error) {
	if s.screenshot != nil {
		return s.screenshot(params)
	}
	return &executor.ScreenshotResult{
		PageInfo:   okResult().PageInfo,
		SnapshotID: "snap_test",
		Path:       "sessions/" + params.SessionID + "/screenshots/snap_test.png",
		MimeType:   "image/png",
		Size:       4,
	}, nil
}
func (s *stubEngine) EngineVersion(_ context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"driver": "stub"}, nil
}

type testServer struct {
	router   *mux.Router
	handler  *Handler
	store    *audit.Store
	registry *registry.Registry
	engine   *stubEngine
	settings config.Settings
}

func newTestServer(t *testing.T, mutate func(*config.Settings)) *testServer {
	t.Helper()

	settings := config.Defaults()
	settings.DataRoot = t.TempDir()
	if mutate != nil {
		mutate(&settings)
	}
	require.NoError(t, settings.EnsureDataRoot())

	store, err := audit.NewStore(settings.DataRoot)
	require.NoError(t, err)

	reg := registry.New()
	engine := &stubEngine{}
	handler := NewHandler(settings, reg, store, engine, nil, mockhttp.NewBridge(2*time.Second))

	return &testServer{
		router:   handler.SetupRoutes(nil, nil),
		handler:  handler,
		store:    store,
		registry: reg,
		engine:   engine,
		settings: settings,
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var env Envelope
	if strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (ts *testServer) createSession(t *testing.T, body string) string {
	t.Helper()

	rec, env := ts.do(t, http.MethodPost, "/sessions", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	data := env.Data.(map[string]interface{})
	return data["id"].(string)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	rec, env := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.OK)
}

func TestHealthDisabled(t *testing.T) {
	ts := newTestServer(t, func(s *config.Settings) { s.Enabled = false })

	rec, env := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotNil(t, env.ErrorCode)
	assert.Equal(t, "SERVICE_DISABLED", *env.ErrorCode)
}

func TestCreateSession(t *testing.T) {
	ts := newTestServer(t, nil)

	rec, env := ts.do(t, http.MethodPost, "/sessions", `{"clientId":"agentA"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, env.OK)

	data := env.Data.(map[string]interface{})
	assert.Equal(t, "running", data["status"])
	assert.Equal(t, "agentA", data["clientId"])
	assert.True(t, data["visible"].(bool))
	assert.Nil(t, data["windowId"])
	assert.True(t, strings.HasPrefix(data["id"].(string), "sess_"))

	records, err := ts.store.ReadSessions(time.Now())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.StatusRunning, records[0].Status)
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSession(t, `{"profile":"shopping"}`)

	rec, env := ts.do(t, http.MethodGet, "/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shopping", env.Data.(map[string]interface{})["profile"])

	rec, env = ts.do(t, http.MethodDelete, "/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "closed", env.Data.(map[string]interface{})["status"])

	rec, env = ts.do(t, http.MethodGet, "/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.ErrorCode)
	assert.Equal(t, "SESSION_NOT_FOUND", *env.ErrorCode)

	// closing again is not an error in the registry, but the route reports
	// the session as gone
	rec, _ = ts.do(t, http.MethodDelete, "/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	records, err := ts.store.ReadSessions(time.Now())
	require.NoError(t, err)
	folded := audit.FoldSessions(records)
	require.Len(t, folded, 1)
	assert.Equal(t, models.StatusClosed, folded[0].Status)
}

func TestListSessionsFilter(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.createSession(t, `{"clientId":"agentA"}`)
	ts.createSession(t, `{"clientId":"agentB"}`)

	rec, env := ts.do(t, http.MethodGet, "/sessions?clientId=agentA", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, env.Data.([]interface{}), 1)
}

func TestCreateSessionBadJSON(t *testing.T) {
	ts := newTestServer(t, nil)

	rec, env := ts.do(t, http.MethodPost, "/sessions", `{"clientId":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.ErrorCode)
	assert.Equal(t, "BAD_JSON", *env.ErrorCode)
}

func TestBodyTooLarge(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSession(t, "")

	huge := fmt.Sprintf(`{"url":"https://example.com/","padding":%q}`, strings.Repeat("x", maxBodyBytes+1))
	rec, env := ts.do(t, http.MethodPost, "/sessions/"+id+"/navigate", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.NotNil(t, env.ErrorCode)
	assert.Equal(t, "REQUEST_ENTITY_TOO_LARGE", *env.ErrorCode)
}

func TestNavigate(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSession(t, "")

	rec, env := ts.do(t, http.MethodPost, "/sessions/"+id+"/navigate", `{"url":"https://example.com/"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.OK)
	assert.Contains(t, env.Data.(map[string]interface{})["pageUrl"], "example.com")

	actions, err := ts.store.ReadActions(time.Now())
	require.NoError(t, err)
	require.Len(t, actions, 1)
	rec0 := actions[0]
	assert.Equal(t, "navigate", rec0.Type)
	assert.Equal(t, models.ActionOK, rec0.Status)
	assert.Equal(t, id, rec0.SessionID)
	require.NotNil(t, rec0.HTTPStatus)
	assert.Equal(t, 200, *rec0.HTTPStatus)
	assert.False(t, rec0.EndAt.Before(rec0.StartAt))
	assert.Equal(t, rec0.EndAt.Sub(rec0.StartAt).Milliseconds(), rec0.DurationMs)
}

func TestNavigateTimeout(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSession(t, "")

	ts.engine.navigate = func(executor.NavigateParams) (*executor.NavigateResult, error) {
		return nil, executor.NewError(executor.KindTimeout, "timeout exceeded while navigating")
	}

	rec, env := ts.do(t, http.MethodPost, "/sessions/"+id+"/navigate", `{"url":"https://slow.example/"}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	require.NotNil(t, env.ErrorCode)
	assert.Equal(t, "TIMEOUT", *env.ErrorCode)

	actions, err := ts.store.ReadActions(time.Now())
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionTimeout, actions[0].Status)
	assert.Equal(t, "TIMEOUT", actions[0].ErrorCode)
}

func TestNavigateTimeoutScreenshotPolicy(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSession(t, "")

	ts.engine.navigate = func(executor.NavigateParams) (*executor.NavigateResult, error) {
		return nil, executor.NewError(executor.KindTimeout, "timeout exceeded while navigating")
	}

	rec, env := ts.do(t, http.MethodPost, "/sessions/"+id+"/navigate",
		`{"url":"https://slow.example/","onTimeout":"screenshot_only"}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	require.NotNil(t, env.ErrorDetails)
	assert.Equal(t, "snap_test", env.ErrorDetails["snapshotId"])

	snaps, err := ts.store.ReadSnapshots(time.Now())
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "snap_test", snaps[0].SnapshotID)
}

func TestActionUnknownSession(t *testing.T) {
	ts := newTestServer(t, nil)

	rec, env := ts.do(t, http.MethodPost, "/sessions/sess_missing/navigate", `{"url":"https://example.com/"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.ErrorCode)
	assert.Equal(t, "SESSION_NOT_FOUND", *env.ErrorCode)
}

func TestUnknownDOMAction(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSession(t, "")

	rec, env := ts.do(t, http.MethodPost, "/sessions/"+id+"/dom/teleport", `{"selector":"#x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.ErrorCode)
	assert.Equal(t, "NOT_FOUND", *env.ErrorCode)
}

func TestDOMActionsRecordVocabulary(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSession(t, "")

	calls := []struct {
		path string
		body string
		want string
	}{
		{"/dom/click", `{"selector":"#go"}`, "click"},
		{"/dom/fill", `{"selector":"#q","value":"tea"}`, "fill"},
		{"/dom/scroll", `{"deltaY":300}`, "dom.scroll"},
		{"/dom/setCheckbox", `{"selector":"#opt","checked":true}`, "dom.setCheckbox"},
		{"/dom/getValue", `{"selector":"#q"}`, "dom.getValue"},
	}
	for _, c := range calls {
		rec, _ := ts.do(t, http.MethodPost, "/sessions/"+id+c.path, c.body)
		require.Equal(t, http.StatusOK, rec.Code, c.path)
	}

	actions, err := ts.store.ReadActions(time.Now())
	require.NoError(t, err)
	require.Len(t, actions, len(calls))
	for i, c := range calls {
		assert.Equal(t, c.want, actions[i].Type)
	}
}

func TestScreenshotPersistsRecords(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSession(t, "")

	rec, env := ts.do(t, http.MethodPost, "/sessions/"+id+"/screenshot", `{"mode":"viewport"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "snap_test", env.Data.(map[string]interface{})["snapshotId"])

	snaps, err := ts.store.ReadSnapshots(time.Now())
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, id, snaps[0].SessionID)

	files, err := ts.store.ReadFiles(time.Now())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "image/png", files[0].MimeType)
	assert.Equal(t, "snap_test.png", files[0].Name)

	actions, err := ts.store.ReadActions(time.Now())
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "snap_test", actions[0].SnapshotID)
}

func TestListAndDownloadFiles(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSession(t, "")

	relPath := "sessions/" + id + "/screenshots/snap_dl.png"
	absPath := filepath.Join(ts.settings.DataRoot, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(absPath), 0o755))
	require.NoError(t, os.WriteFile(absPath, []byte("imagebytes"), 0o644))

	ts.store.AppendFile(models.FileRecord{
		FileID:    "snap_dl",
		SessionID: id,
		Path:      relPath,
		Name:      "snap_dl.png",
		Size:      10,
		MimeType:  "image/png",
		CreatedAt: time.Now(),
	})

	rec, env := ts.do(t, http.MethodGet, "/sessions/"+id+"/files", "")
	require.Equal(t, http.StatusOK, rec.Code)
	files := env.Data.(map[string]interface{})["files"].([]interface{})
	require.Len(t, files, 1)

	req := httptest.NewRequest(http.MethodGet, "/files/snap_dl", nil)
	dl := httptest.NewRecorder()
	ts.router.ServeHTTP(dl, req)
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, "image/png", dl.Header().Get("Content-Type"))
	assert.Equal(t, "imagebytes", dl.Body.String())

	rec, env = ts.do(t, http.MethodGet, "/files/snap_unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.ErrorCode)
	assert.Equal(t, "NOT_FOUND", *env.ErrorCode)
}

func TestTokenMiddleware(t *testing.T) {
	ts := newTestServer(t, func(s *config.Settings) { s.Token = "secret" })

	rec, env := ts.do(t, http.MethodGet, "/sessions", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.ErrorCode)
	assert.Equal(t, "UNAUTHORIZED", *env.ErrorCode)

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	req.Header.Set("Authorization", "Bearer secret")
	ok := httptest.NewRecorder()
	ts.router.ServeHTTP(ok, req)
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, nil)

	rec, env := ts.do(t, http.MethodPut, "/sessions", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.NotNil(t, env.ErrorCode)
	assert.Equal(t, "METHOD_NOT_ALLOWED", *env.ErrorCode)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t, nil)

	rec, env := ts.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.ErrorCode)
	assert.Equal(t, "NOT_FOUND", *env.ErrorCode)
}

func TestShowHideSession(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSession(t, "")

	rec, env := ts.do(t, http.MethodPost, "/sessions/"+id+"/hide", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, env.Data.(map[string]interface{})["visible"].(bool))

	rec, env = ts.do(t, http.MethodPost, "/sessions/"+id+"/show", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Data.(map[string]interface{})["visible"].(bool))
}

func TestMockHTTPBridgeRoundtrip(t *testing.T) {
	ts := newTestServer(t, nil)

	type parkResult struct {
		rec *httptest.ResponseRecorder
		env Envelope
	}
	done := make(chan parkResult, 1)
	go func() {
		rec, env := ts.do(t, http.MethodPost, "/debug/mock-http",
			`{"method":"GET","url":"https://api.example/otp"}`)
		done <- parkResult{rec, env}
	}()

	var pendingID string
	require.Eventually(t, func() bool {
		pending := ts.handler.bridge.Pending()
		if len(pending) == 0 {
			return false
		}
		pendingID = pending[0].ID
		return true
	}, time.Second, 5*time.Millisecond)

	rec, _ := ts.do(t, http.MethodPost, "/debug/mock-http/"+pendingID+"/respond",
		`{"status":200,"body":{"otp":"123456"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	result := <-done
	require.Equal(t, http.StatusOK, result.rec.Code)
	body := result.env.Data.(map[string]interface{})["body"].(map[string]interface{})
	assert.Equal(t, "123456", body["otp"])
}

func TestPlaywrightSpike(t *testing.T) {
	ts := newTestServer(t, nil)

	rec, env := ts.do(t, http.MethodGet, "/debug/mock-http/pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.Data.(map[string]interface{})["pending"])

	rec, env = ts.do(t, http.MethodPost, "/debug/playwright-spike", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stub", env.Data.(map[string]interface{})["driver"])
}
