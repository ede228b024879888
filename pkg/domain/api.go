package domain

import (
	"encoding/json"
	"strings"
)

// TaskStatusProcessing is the remote task_status value that keeps a poll loop running.
const TaskStatusProcessing = "processing"

// StartResponse is the agent API reply to POST /agents/{variant}.
type StartResponse struct {
	Success   bool   `json:"success"`
	RequestID string `json:"request_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// StatusResponse is the agent API reply to GET /task/{request_id}. Data is
// kept raw because agents disagree on its shape.
type StatusResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// TaskStatus returns data.task_status when data is an object.
func (r StatusResponse) TaskStatus() string {
	if len(r.Data) == 0 {
		return ""
	}
	var probe struct {
		TaskStatus string `json:"task_status"`
	}
	if err := json.Unmarshal(r.Data, &probe); err != nil {
		return ""
	}
	return probe.TaskStatus
}

func (r StatusResponse) Processing() bool {
	return strings.EqualFold(strings.TrimSpace(r.TaskStatus()), TaskStatusProcessing)
}

// NotFound reports whether a failed status check only means the remote
// registry has not seen the task yet.
func (r StatusResponse) NotFound() bool {
	return !r.Success && strings.Contains(strings.ToLower(r.Message), "not found")
}

// HasData reports whether data carries anything besides JSON null.
func (r StatusResponse) HasData() bool {
	d := strings.TrimSpace(string(r.Data))
	return d != "" && d != "null"
}
