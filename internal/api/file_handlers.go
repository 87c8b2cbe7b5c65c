package api

import (
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shehryarbajwa/browser-agent/pkg/models"
)

// dayParam resolves the optional ?date=YYYY-MM-DD query, defaulting to today.
func (h *Handler) dayParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return h.now(), nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, errBadJSON("invalid date: " + raw)
	}
	return day, nil
}

// ListSessionFiles handles GET /sessions/{id}/files
func (h *Handler) ListSessionFiles(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	day, err := h.dayParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	all, err := h.store.ReadFiles(day)
	if err != nil {
		log.Printf("api: failed to read file records: %v", err)
		all = nil
	}

	files := make([]models.FileRecord, 0)
	for _, rec := range all {
		if rec.SessionID == sessionID {
			files = append(files, rec)
		}
	}

	writeData(w, http.StatusOK, map[string]interface{}{
		"sessionId": sessionID,
		"files":     files,
	})
}

// DownloadFile handles GET /files/{fileId}. The file record is looked up in
// the audit log for the requested day and the artifact streamed from the
// data root.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := mux.Vars(r)["fileId"]

	day, err := h.dayParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := h.store.ReadFiles(day)
	if err != nil {
		log.Printf("api: failed to read file records: %v", err)
	}

	var rec *models.FileRecord
	for i := range records {
		if records[i].FileID == fileID {
			rec = &records[i]
			break
		}
	}
	if rec == nil {
		writeCode(w, http.StatusNotFound, codeNotFound, "file not found: "+fileID)
		return
	}

	path := filepath.Join(h.settings.DataRoot, filepath.FromSlash(rec.Path))
	f, err := os.Open(path)
	if err != nil {
		writeCode(w, http.StatusNotFound, codeNotFound, "file missing on disk: "+fileID)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", rec.MimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+rec.Name+`"`)
	if rec.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(rec.Size, 10))
	}
	if _, err := io.Copy(w, f); err != nil {
		log.Printf("api: failed to stream file %s: %v", fileID, err)
	}
}
