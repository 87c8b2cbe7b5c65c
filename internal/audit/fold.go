package audit

import "github.com/shehryarbajwa/browser-agent/pkg/models"

// FoldSessions collapses a stream of session lifecycle events into one
// derived record per session id. Status precedence is closed > running
// regardless of append order; timestamps take the earliest createdAt and the
// latest finishedAt seen; lastError fields keep the latest non-empty value.
func FoldSessions(records []models.SessionRecord) []models.SessionRecord {
	byID := make(map[string]*models.SessionRecord)
	var order []string

	for _, rec := range records {
		cur, ok := byID[rec.SessionID]
		if !ok {
			c := rec
			byID[rec.SessionID] = &c
			order = append(order, rec.SessionID)
			continue
		}

		if statusRank(rec.Status) > statusRank(cur.Status) {
			cur.Status = rec.Status
		}
		if rec.Profile != "" {
			cur.Profile = rec.Profile
		}
		if rec.ClientID != "" {
			cur.ClientID = rec.ClientID
		}
		if rec.CreatedAt != nil && (cur.CreatedAt == nil || rec.CreatedAt.Before(*cur.CreatedAt)) {
			cur.CreatedAt = rec.CreatedAt
		}
		if rec.FinishedAt != nil && (cur.FinishedAt == nil || rec.FinishedAt.After(*cur.FinishedAt)) {
			cur.FinishedAt = rec.FinishedAt
		}
		if rec.LastErrorCode != "" {
			cur.LastErrorCode = rec.LastErrorCode
			cur.LastErrorMessage = rec.LastErrorMessage
		}
	}

	out := make([]models.SessionRecord, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}

// statusRank orders terminal statuses above running. timeout and closed are
// both terminal; the higher of the two seen wins so a close after a timeout
// race still reads as closed.
func statusRank(s models.SessionStatus) int {
	switch s {
	case models.StatusClosed:
		return 3
	case models.StatusTimeout:
		return 2
	case models.StatusRunning:
		return 1
	default:
		return 0
	}
}
