package agentapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

func bodyJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name     string
		company  string
		product  string
		wantPath string
		wantBody string
	}{
		{"default", "Acme Corp", "Widget X", "/agents/sales-contact-finder", `{"target_company":"Acme Corp","our_product":"Widget X"}`},
		{"market match", "market-match", "Widget X", "/agents/market-match", `{"target_company":"market-match","our_product":"Widget X"}`},
		{"contract vista", "contract-vista", "Review clause 4", "/agents/contract-vista", `{"query":"Review clause 4"}`},
		{"deal craft json", "deal-craft", `{"customer_info":{"name":"Acme"}}`, "/agents/deal-craft", `{"customer_info":{"name":"Acme"}}`},
		{"brief vista repaired", "brief-vista", `{company: 'Acme', objective: 'renewal',}`, "/agents/brief-vista", `{"company":"Acme","objective":"renewal"}`},
		{"pdf pitch case insensitive", " PDF-Pitch ", `{"lead_info":{"company":"Acme"}}`, "/agents/pdf-pitch", `{"lead_info":{"company":"Acme"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Route(tt.company, tt.product, quietLogger())
			if l.Path != tt.wantPath {
				t.Fatalf("path = %q, want %q", l.Path, tt.wantPath)
			}
			if got := bodyJSON(t, l.Body); got != tt.wantBody {
				t.Fatalf("body = %s, want %s", got, tt.wantBody)
			}
		})
	}
}

func TestRouteFallsBackToDefaultBody(t *testing.T) {
	tests := []struct {
		name     string
		company  string
		product  string
		wantPath string
		wantBody string
	}{
		{"plain notes", "contact-vista", "just some notes", "/agents/contact-vista", `{"target_company":"contact-vista","our_product":"just some notes"}`},
		{"deal craft notes", "deal-craft", "just some notes", "/agents/deal-craft", `{"target_company":"deal-craft","our_product":"just some notes"}`},
		{"truncated array", "deal-craft", "[1,2", "/agents/deal-craft", `{"target_company":"deal-craft","our_product":"[1,2"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Route(tt.company, tt.product, quietLogger())
			if l.Path != tt.wantPath {
				t.Fatalf("path = %q, want %q", l.Path, tt.wantPath)
			}
			if got := bodyJSON(t, l.Body); got != tt.wantBody {
				t.Fatalf("body = %s, want %s", got, tt.wantBody)
			}
		})
	}
}

func TestParsePayloadLogsReason(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	parsePayload(domain.AgentBriefVista, "brief-vista", "just some notes", logger)

	out := buf.String()
	if !strings.Contains(out, "reason=") || strings.Contains(out, "<nil>") {
		t.Fatalf("warning should carry a reason: %s", out)
	}
}

func TestRouteParams(t *testing.T) {
	l, err := RouteParams(domain.AgentContractVista, domain.ContractVistaParams{Query: "NDA"})
	if err != nil {
		t.Fatalf("RouteParams: %v", err)
	}
	if got := bodyJSON(t, l.Body); got != `{"query":"NDA"}` {
		t.Fatalf("body = %s", got)
	}

	l, err = RouteParams(domain.AgentMarketMatch, domain.SalesContactFinderParams{TargetCompany: "Acme", OurProduct: "Widget"})
	if err != nil {
		t.Fatalf("RouteParams: %v", err)
	}
	if l.Path != "/agents/market-match" || bodyJSON(t, l.Body) != `{"target_company":"Acme","our_product":"Widget"}` {
		t.Fatalf("unexpected launch %+v", l)
	}

	if _, err := RouteParams(domain.AgentLeadGenieScore, domain.LeadGenieScoreParams{Company: "Acme"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := RouteParams(domain.AgentDealCraft, nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for nil params, got %v", err)
	}
}
