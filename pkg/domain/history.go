package domain

import "time"

// AnonymousUser owns history written without an authenticated identity.
const AnonymousUser = "anonymous"

// HistoryRecord is the persisted form of a terminal SearchResult. Result is
// nil for failed attempts.
type HistoryRecord struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Agent     Agent             `json:"agent"`
	Company   string            `json:"company"`
	Product   string            `json:"product"`
	Status    SearchStatus      `json:"status"`
	Result    *NormalizedResult `json:"result"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// HistoryRecordFor builds the record written when sr reaches a terminal status.
func HistoryRecordFor(sr SearchResult, userID string) HistoryRecord {
	if userID == "" {
		userID = AnonymousUser
	}
	rec := HistoryRecord{
		ID:        sr.ID,
		UserID:    userID,
		Agent:     sr.Agent,
		Company:   sr.Company,
		Product:   sr.Product,
		Status:    sr.Status,
		CreatedAt: sr.Timestamp,
	}
	if sr.Status == StatusSuccess {
		rec.Result = sr.Result
	} else {
		rec.Error = sr.Error
	}
	return rec
}

// SearchResult rebuilds the SearchResult a record was written from.
func (r HistoryRecord) SearchResult() SearchResult {
	return SearchResult{
		ID:        r.ID,
		Timestamp: r.CreatedAt,
		Agent:     r.Agent,
		Company:   r.Company,
		Product:   r.Product,
		Status:    r.Status,
		Result:    r.Result,
		Error:     r.Error,
	}
}
