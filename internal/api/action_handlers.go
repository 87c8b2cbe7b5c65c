package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/shehryarbajwa/browser-agent/internal/executor"
	"github.com/shehryarbajwa/browser-agent/pkg/models"
)

// runAction is the common path for every automation route: resolve the
// session, run one engine call, persist exactly one ActionRecord for the
// attempt, bump lastActiveAt only on success, respond.
func (h *Handler) runAction(w http.ResponseWriter, r *http.Request, actionType string, params map[string]interface{}, fn func() (interface{}, error)) {
	sessionID := mux.Vars(r)["id"]

	if h.registry.Get(sessionID) == nil {
		writeError(w, errSessionNotFound(sessionID))
		return
	}

	startAt := h.now()
	result, err := fn()
	endAt := h.now()

	record := models.ActionRecord{
		ID:         "act_" + uuid.New().String(),
		SessionID:  sessionID,
		Type:       actionType,
		Params:     params,
		StartAt:    startAt,
		EndAt:      endAt,
		DurationMs: endAt.Sub(startAt).Milliseconds(),
		Status:     models.ActionOK,
	}

	if err != nil {
		record.Status = models.ActionFailed
		var xe *executor.Error
		if errors.As(err, &xe) {
			record.ErrorCode = string(xe.Kind)
			if xe.Kind == executor.KindTimeout {
				record.Status = models.ActionTimeout
			}
		}
		record.ErrorMessage = err.Error()
	}

	switch res := result.(type) {
	case *executor.ScreenshotResult:
		if res != nil {
			record.SnapshotID = res.SnapshotID
		}
	case *executor.NavigateResult:
		if res != nil && res.HTTPStatus != 0 {
			status := res.HTTPStatus
			record.HTTPStatus = &status
		}
	}

	h.store.AppendAction(record)

	if err != nil {
		writeError(w, err)
		return
	}

	h.registry.Touch(sessionID)
	writeData(w, http.StatusOK, result)
}

// NavigateSession handles POST /sessions/{id}/navigate
func (h *Handler) NavigateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var params executor.NavigateParams
	var raw map[string]interface{}
	if err := decodeJSON(w, r, maxBodyBytes, &params, &raw); err != nil {
		writeError(w, err)
		return
	}
	params.SessionID = sessionID

	h.runAction(w, r, "navigate", raw, func() (interface{}, error) {
		result, err := h.engine.Navigate(r.Context(), params)
		if err != nil && params.OnTimeout == "screenshot_only" {
			var xe *executor.Error
			if errors.As(err, &xe) && xe.Kind == executor.KindTimeout {
				h.timeoutScreenshot(r, sessionID, xe)
			}
		}
		return result, err
	})
}

// timeoutScreenshot applies the onTimeout=screenshot_only policy: a
// best-effort diagnostic capture whose id rides along in the error details.
func (h *Handler) timeoutScreenshot(r *http.Request, sessionID string, xe *executor.Error) {
	shot, serr := h.engine.Screenshot(r.Context(), executor.ScreenshotParams{
		SessionID:   sessionID,
		Description: "navigate timeout diagnostic",
	})
	if serr != nil {
		log.Printf("timeout screenshot for %s failed: %v", sessionID, serr)
		return
	}
	h.persistScreenshot(sessionID, "", shot, "navigate timeout diagnostic")
	if xe.Details == nil {
		xe.Details = map[string]interface{}{}
	}
	xe.Details["snapshotId"] = shot.SnapshotID
}

// WaitSession handles POST /sessions/{id}/wait/{kind}
func (h *Handler) WaitSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := vars["kind"]

	var params executor.WaitParams
	var raw map[string]interface{}
	if err := decodeJSON(w, r, maxBodyBytes, &params, &raw); err != nil {
		writeError(w, err)
		return
	}
	params.SessionID = vars["id"]

	var fn func() (interface{}, error)
	switch kind {
	case "selector":
		fn = func() (interface{}, error) { return h.engine.WaitSelector(r.Context(), params) }
	case "text":
		fn = func() (interface{}, error) { return h.engine.WaitText(r.Context(), params) }
	case "url":
		fn = func() (interface{}, error) { return h.engine.WaitURL(r.Context(), params) }
	default:
		writeCode(w, http.StatusNotFound, codeNotFound, "unknown wait kind: "+kind)
		return
	}

	h.runAction(w, r, "wait."+kind, raw, fn)
}

// ScreenshotSession handles POST /sessions/{id}/screenshot
func (h *Handler) ScreenshotSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var params executor.ScreenshotParams
	var raw map[string]interface{}
	if err := decodeOptionalJSON(w, r, maxBodyBytes, &params, &raw); err != nil {
		writeError(w, err)
		return
	}
	params.SessionID = sessionID

	h.runAction(w, r, "screenshot", raw, func() (interface{}, error) {
		shot, err := h.engine.Screenshot(r.Context(), params)
		if err != nil {
			return nil, err
		}
		h.persistScreenshot(sessionID, params.ActionID, shot, params.Description)
		return shot, nil
	})
}

// persistScreenshot records the snapshot and file entries for a capture
func (h *Handler) persistScreenshot(sessionID, actionID string, shot *executor.ScreenshotResult, description string) {
	now := h.now()
	h.store.AppendSnapshot(models.SnapshotRecord{
		SnapshotID:  shot.SnapshotID,
		SessionID:   sessionID,
		ActionID:    actionID,
		Path:        shot.Path,
		Description: description,
		CreatedAt:   now,
	})

	name := shot.SnapshotID + ".png"
	if shot.MimeType == "image/jpeg" {
		name = shot.SnapshotID + ".jpg"
	}
	h.store.AppendFile(models.FileRecord{
		FileID:    shot.SnapshotID,
		SessionID: sessionID,
		Path:      shot.Path,
		Name:      name,
		Size:      shot.Size,
		MimeType:  shot.MimeType,
		CreatedAt: now,
	})
}

// DOMSession handles POST /sessions/{id}/dom/{action}
func (h *Handler) DOMSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]
	action := vars["action"]

	var raw map[string]interface{}

	// click and fill sit in the route's action slot but keep their bare
	// names in the audit vocabulary
	actionType := "dom." + action
	if action == "click" || action == "fill" {
		actionType = action
	}

	run := func(decode interface{}, fn func() (interface{}, error)) {
		if err := decodeJSON(w, r, maxBodyBytes, decode, &raw); err != nil {
			writeError(w, err)
			return
		}
		h.runAction(w, r, actionType, raw, fn)
	}

	switch action {
	case "click":
		var params executor.ClickParams
		run(&params, func() (interface{}, error) {
			params.SessionID = sessionID
			return h.engine.Click(r.Context(), params)
		})
	case "fill":
		var params executor.FillParams
		run(&params, func() (interface{}, error) {
			params.SessionID = sessionID
			return h.engine.Fill(r.Context(), params)
		})
	case "scroll":
		var params executor.ScrollParams
		run(&params, func() (interface{}, error) {
			params.SessionID = sessionID
			return h.engine.Scroll(r.Context(), params)
		})
	case "scrollIntoView":
		var params executor.SelectorParams
		run(&params, func() (interface{}, error) {
			params.SessionID = sessionID
			return h.engine.ScrollIntoView(r.Context(), params)
		})
	case "setCheckbox":
		var params executor.SetCheckedParams
		run(&params, func() (interface{}, error) {
			params.SessionID = sessionID
			return h.engine.SetCheckbox(r.Context(), params)
		})
	case "setRadio":
		var params executor.SetCheckedParams
		run(&params, func() (interface{}, error) {
			params.SessionID = sessionID
			return h.engine.SetRadio(r.Context(), params)
		})
	case "selectOptions":
		var params executor.SelectOptionsParams
		run(&params, func() (interface{}, error) {
			params.SessionID = sessionID
			return h.engine.SelectOptions(r.Context(), params)
		})
	case "uploadFile":
		var params executor.UploadFileParams
		run(&params, func() (interface{}, error) {
			params.SessionID = sessionID
			return h.engine.UploadFile(r.Context(), params)
		})
	case "isDisabled":
		var params executor.SelectorParams
		run(&params, func() (interface{}, error) {
			params.SessionID = sessionID
			return h.engine.IsDisabled(r.Context(), params)
		})
	case "getFormData":
		var params executor.SelectorParams
		run(&params, func() (interface{}, error) {
			params.SessionID = sessionID
			return h.engine.GetFormData(r.Context(), params)
		})
	case "getValue":
		var params executor.SelectorParams
		run(&params, func() (interface{}, error) {
			params.SessionID = sessionID
			return h.engine.GetValue(r.Context(), params)
		})
	default:
		writeCode(w, http.StatusNotFound, codeNotFound, "unknown dom action: "+action)
	}
}

// MouseSession handles POST /sessions/{id}/mouse/{action}
func (h *Handler) MouseSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	action := vars["action"]

	var params executor.MouseParams
	var raw map[string]interface{}
	if err := decodeJSON(w, r, maxBodyBytes, &params, &raw); err != nil {
		writeError(w, err)
		return
	}
	params.SessionID = vars["id"]

	switch action {
	case "click":
		h.runAction(w, r, "mouse.click", raw, func() (interface{}, error) {
			return h.engine.MouseClick(r.Context(), params)
		})
	case "drag":
		h.runAction(w, r, "mouse.drag", raw, func() (interface{}, error) {
			return h.engine.MouseDrag(r.Context(), params)
		})
	default:
		writeCode(w, http.StatusNotFound, codeNotFound, "unknown mouse action: "+action)
	}
}

// ContentSession handles POST /sessions/{id}/content/{kind}
func (h *Handler) ContentSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := vars["kind"]

	var params executor.ContentParams
	var raw map[string]interface{}
	if err := decodeOptionalJSON(w, r, maxBodyBytes, &params, &raw); err != nil {
		writeError(w, err)
		return
	}
	params.SessionID = vars["id"]

	switch kind {
	case "html":
		h.runAction(w, r, "content.html", raw, func() (interface{}, error) {
			return h.engine.ContentHTML(r.Context(), params)
		})
	case "text":
		h.runAction(w, r, "content.text", raw, func() (interface{}, error) {
			return h.engine.ContentText(r.Context(), params)
		})
	case "table":
		h.runAction(w, r, "content.table", raw, func() (interface{}, error) {
			return h.engine.ContentTable(r.Context(), params)
		})
	default:
		writeCode(w, http.StatusNotFound, codeNotFound, "unknown content kind: "+kind)
	}
}
