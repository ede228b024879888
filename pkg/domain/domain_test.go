package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestSearchStatusMarshalText(t *testing.T) {
	tests := []struct {
		name   string
		status SearchStatus
		want   string
	}{
		{"loading", StatusLoading, "loading"},
		{"success", StatusSuccess, "success"},
		{"error", StatusError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.status.MarshalText()
			if err != nil {
				t.Fatalf("MarshalText() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("MarshalText() = %v, want %v", string(got), tt.want)
			}
		})
	}
}

func TestSearchResultTransitions(t *testing.T) {
	sr := NewSearchResult("id-1", time.Unix(0, 0).UTC(), AgentSalesContactFinder, "Acme Corp", "Widget X")
	if sr.Status != StatusLoading || sr.Terminal() {
		t.Fatalf("new result should be loading, got %s", sr.Status)
	}

	ok := sr.Succeeded(NormalizedResult{RawMarkdown: "# R", FileOutput: "# R"})
	if ok.Status != StatusSuccess || ok.Result == nil || ok.Error != "" {
		t.Fatalf("unexpected success result: %+v", ok)
	}
	if ok.ID != sr.ID || !ok.Timestamp.Equal(sr.Timestamp) {
		t.Fatal("id and timestamp must be stable across transitions")
	}

	// Terminal results never move backward or sideways.
	again := ok.Failed("boom")
	if again.Status != StatusSuccess || again.Error != "" {
		t.Fatalf("success must not transition to error, got %+v", again)
	}

	failed := sr.Failed("first line\nsecond line")
	if failed.Status != StatusError || failed.Result != nil {
		t.Fatalf("unexpected error result: %+v", failed)
	}
	if failed.ShortError() != "first line" {
		t.Errorf("ShortError() = %q", failed.ShortError())
	}
	if sr.Failed("").Error == "" {
		t.Error("blank failure message should get a default")
	}
}

func TestTaskHandleExhausted(t *testing.T) {
	h := TaskHandle{RequestID: "abc", MaxAttempts: 30}
	h.AttemptsMade = 30
	if h.Exhausted() {
		t.Fatal("attempt 30 is within the budget")
	}
	h.AttemptsMade = 31
	if !h.Exhausted() {
		t.Fatal("attempt 31 exceeds the budget")
	}
}

func TestParseAgent(t *testing.T) {
	tests := []struct {
		in   string
		want Agent
	}{
		{"contract-vista", AgentContractVista},
		{" Deal-Craft ", AgentDealCraft},
		{"lead-genie-score", AgentLeadGenieScore},
		{"Acme Corp", AgentSalesContactFinder},
		{"", AgentSalesContactFinder},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseAgent(tt.in); got != tt.want {
				t.Errorf("ParseAgent(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
	if !AgentSalesContactFinder.Default() || AgentMarketMatch.Default() {
		t.Error("only the sales contact finder is the default agent")
	}
}

func TestStatusResponseHelpers(t *testing.T) {
	processing := StatusResponse{Success: true, Data: json.RawMessage(`{"task_status":"processing"}`)}
	if !processing.Processing() {
		t.Error("expected processing")
	}
	plain := StatusResponse{Success: true, Data: json.RawMessage(`"# just markdown"`)}
	if plain.Processing() || plain.TaskStatus() != "" {
		t.Error("string data has no task status")
	}
	if !plain.HasData() {
		t.Error("string data is data")
	}
	if (StatusResponse{Success: true, Data: json.RawMessage(`null`)}).HasData() {
		t.Error("null data is not data")
	}
	nf := StatusResponse{Success: false, Message: "Task Not Found"}
	if !nf.NotFound() {
		t.Error("expected not found")
	}
	if (StatusResponse{Success: false, Message: "internal error"}).NotFound() {
		t.Error("internal error is not a not-found")
	}
}

func TestNormalizedResultJSON(t *testing.T) {
	conf := 0.9
	r := NormalizedResult{
		RawMarkdown: "# R",
		FileOutput:  "# R",
		Contacts:    []Contact{{Name: "Jane", Title: "CTO", Confidence: &conf}},
		CompanyInfo: &CompanyInfo{Name: "Acme"},
		Extra:       map[string]any{"task_status": "completed", "raw_markdown": "shadowed"},
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal map: %v", err)
	}
	if m["raw_markdown"] != "# R" || m["task_status"] != "completed" {
		t.Fatalf("unexpected top-level fields: %v", m)
	}

	var back NormalizedResult
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.RawMarkdown != "# R" || len(back.Contacts) != 1 || back.CompanyInfo == nil || back.CompanyInfo.Name != "Acme" {
		t.Fatalf("unexpected decoded result: %+v", back)
	}
	if back.Extra["task_status"] != "completed" {
		t.Errorf("extra field lost: %v", back.Extra)
	}
}

func TestStructuredParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  StructuredParams
		wantErr bool
	}{
		{"lead genie ok", LeadGenieScoreParams{Company: "Acme", ProductDescription: "Widget"}, false},
		{"lead genie blank company", LeadGenieScoreParams{Company: "  ", ProductDescription: "Widget"}, true},
		{"brief vista without participants", BriefVistaParams{Company: "Acme", Objective: "Close"}, true},
		{"brief vista ok", BriefVistaParams{Company: "Acme", Objective: "Close", Participants: []string{"Jane"}}, false},
		{"contract vista blank", ContractVistaParams{}, true},
		{"contact vista ok", ContactVistaParams{Name: "Jane", Company: "Acme"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestDecodeParams(t *testing.T) {
	p, err := DecodeParams(AgentLeadGenieScore, json.RawMessage(`{"company":"Acme","product_description":"Widget"}`))
	if err != nil {
		t.Fatalf("DecodeParams: %v", err)
	}
	company, product := p.Subject()
	if company != "Acme" || product != "Widget" {
		t.Errorf("Subject() = %q, %q", company, product)
	}
	p, err = DecodeParams(AgentMarketMatch, json.RawMessage(`{"target_company":"Acme","our_product":"Widget"}`))
	if err != nil {
		t.Fatalf("DecodeParams market-match: %v", err)
	}
	if _, ok := p.(*SalesContactFinderParams); !ok {
		t.Errorf("market-match should decode the default form, got %T", p)
	}
	if _, err := DecodeParams(Agent("nope"), json.RawMessage(`{}`)); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown agent should be a validation error, got %v", err)
	}
	if _, err := DecodeParams(AgentDealCraft, json.RawMessage(`{bad`)); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
