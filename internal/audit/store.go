// Package audit persists the append-only telemetry trail: session lifecycle
// events, action records, snapshots, and file records. Writes are
// append-and-forget; a failed audit write must never fail or block the
// operation that produced it.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shehryarbajwa/browser-agent/pkg/models"
)

// Kind names one of the partitioned record streams
type Kind string

const (
	KindSessions  Kind = "sessions"
	KindActions   Kind = "actions"
	KindSnapshots Kind = "snapshots"
	KindFiles     Kind = "files"
)

// Sink accepts audit records. Implementations must swallow their own
// failures; callers never check for write errors.
type Sink interface {
	AppendSession(rec models.SessionRecord)
	AppendAction(rec models.ActionRecord)
	AppendSnapshot(rec models.SnapshotRecord)
	AppendFile(rec models.FileRecord)
}

// Store is the NDJSON-on-disk Sink. Each kind gets one file per local
// calendar day under <dataRoot>/meta.
type Store struct {
	metaDir string
	now     func() time.Time
	mu      sync.Mutex
}

// NewStore creates the meta directory and returns a store rooted there
func NewStore(dataRoot string) (*Store, error) {
	metaDir := filepath.Join(dataRoot, "meta")
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create meta directory: %w", err)
	}
	return &Store{metaDir: metaDir, now: time.Now}, nil
}

// WithClock injects a time source for tests
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// AppendSession writes one session lifecycle event
func (s *Store) AppendSession(rec models.SessionRecord) { s.append(KindSessions, rec) }

// AppendAction writes one completed action attempt
func (s *Store) AppendAction(rec models.ActionRecord) { s.append(KindActions, rec) }

// AppendSnapshot writes one snapshot record
func (s *Store) AppendSnapshot(rec models.SnapshotRecord) { s.append(KindSnapshots, rec) }

// AppendFile writes one persisted-artifact record
func (s *Store) AppendFile(rec models.FileRecord) { s.append(KindFiles, rec) }

func (s *Store) append(kind Kind, rec interface{}) {
	line, err := json.Marshal(rec)
	if err != nil {
		log.Printf("audit: failed to encode %s record: %v", kind, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.logPath(kind, s.now())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("audit: failed to open %s: %v", path, err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		log.Printf("audit: failed to append to %s: %v", path, err)
	}
}

func (s *Store) logPath(kind Kind, day time.Time) string {
	return filepath.Join(s.metaDir, fmt.Sprintf("%s-%s.ndjson", kind, day.Format("2006-01-02")))
}

// ReadSessions loads one day's session events. A zero day means today.
// Lines that fail to parse are skipped; one bad line never poisons the rest.
func (s *Store) ReadSessions(day time.Time) ([]models.SessionRecord, error) {
	var out []models.SessionRecord
	err := s.readLines(KindSessions, day, func(line []byte) {
		var rec models.SessionRecord
		if json.Unmarshal(line, &rec) == nil {
			out = append(out, rec)
		}
	})
	return out, err
}

// ReadActions loads one day's action records
func (s *Store) ReadActions(day time.Time) ([]models.ActionRecord, error) {
	var out []models.ActionRecord
	err := s.readLines(KindActions, day, func(line []byte) {
		var rec models.ActionRecord
		if json.Unmarshal(line, &rec) == nil {
			out = append(out, rec)
		}
	})
	return out, err
}

// ReadSnapshots loads one day's snapshot records
func (s *Store) ReadSnapshots(day time.Time) ([]models.SnapshotRecord, error) {
	var out []models.SnapshotRecord
	err := s.readLines(KindSnapshots, day, func(line []byte) {
		var rec models.SnapshotRecord
		if json.Unmarshal(line, &rec) == nil {
			out = append(out, rec)
		}
	})
	return out, err
}

// ReadFiles loads one day's file records
func (s *Store) ReadFiles(day time.Time) ([]models.FileRecord, error) {
	var out []models.FileRecord
	err := s.readLines(KindFiles, day, func(line []byte) {
		var rec models.FileRecord
		if json.Unmarshal(line, &rec) == nil {
			out = append(out, rec)
		}
	})
	return out, err
}

func (s *Store) readLines(kind Kind, day time.Time, fn func(line []byte)) error {
	if day.IsZero() {
		day = s.now()
	}

	f, err := os.Open(s.logPath(kind, day))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open %s log: %w", kind, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	// Room for action records carrying large extracted content
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		fn(line)
	}
	return scanner.Err()
}
