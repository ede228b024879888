package domain

import (
	"encoding"
	"strings"
	"time"
)

type SearchStatus string

const (
	StatusLoading SearchStatus = "loading"
	StatusSuccess SearchStatus = "success"
	StatusError   SearchStatus = "error"
)

var (
	_ encoding.BinaryMarshaler = SearchStatus("")
	_ encoding.TextMarshaler   = SearchStatus("")
)

func (s SearchStatus) MarshalBinary() ([]byte, error) { return []byte(string(s)), nil }
func (s SearchStatus) MarshalText() ([]byte, error)   { return []byte(string(s)), nil }

// SearchResult is one attempt at producing a report. Result is set only
// when Status is success, Error only when Status is error.
type SearchResult struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Agent     Agent             `json:"agent"`
	Company   string            `json:"company"`
	Product   string            `json:"product"`
	Status    SearchStatus      `json:"status"`
	Result    *NormalizedResult `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func NewSearchResult(id string, ts time.Time, agent Agent, company, product string) SearchResult {
	return SearchResult{
		ID:        id,
		Timestamp: ts,
		Agent:     agent,
		Company:   company,
		Product:   product,
		Status:    StatusLoading,
	}
}

// Succeeded returns a copy moved to success. Terminal results are returned unchanged.
func (s SearchResult) Succeeded(res NormalizedResult) SearchResult {
	if s.Status != StatusLoading {
		return s
	}
	s.Status = StatusSuccess
	s.Result = &res
	s.Error = ""
	return s
}

// Failed returns a copy moved to error. Terminal results are returned unchanged.
func (s SearchResult) Failed(msg string) SearchResult {
	if s.Status != StatusLoading {
		return s
	}
	if strings.TrimSpace(msg) == "" {
		msg = "An unknown error occurred"
	}
	s.Status = StatusError
	s.Result = nil
	s.Error = msg
	return s
}

func (s SearchResult) Terminal() bool {
	return s.Status == StatusSuccess || s.Status == StatusError
}

// ShortError is the first line of Error, used for transient notices.
func (s SearchResult) ShortError() string {
	return FirstLine(s.Error)
}

func FirstLine(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}
	return msg
}

// TaskHandle tracks one in-flight remote task. It is owned by a single poll loop.
type TaskHandle struct {
	RequestID    string `json:"request_id"`
	AttemptsMade int    `json:"attempts_made"`
	MaxAttempts  int    `json:"max_attempts"`
}

// Exhausted reports whether another attempt would exceed the budget.
func (h TaskHandle) Exhausted() bool {
	return h.AttemptsMade > h.MaxAttempts
}

// Notice is a dismissable, human-readable message for the front ends.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Destructive bool   `json:"destructive,omitempty"`
}
