package agentapi

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kaptinlin/jsonrepair"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

// Launch is one routed task submission: the agent path and the JSON body.
type Launch struct {
	Agent domain.Agent
	Path  string
	Body  any
}

type targetBody struct {
	TargetCompany string `json:"target_company"`
	OurProduct    string `json:"our_product"`
}

type queryBody struct {
	Query string `json:"query"`
}

func agentPath(a domain.Agent) string {
	return "/agents/" + a.String()
}

// Route maps a free-form submission to its endpoint. company doubles as the
// discriminator; anything unknown goes to the default agent.
func Route(company, product string, logger *slog.Logger) Launch {
	agent := domain.ParseAgent(company)
	l := Launch{Agent: agent, Path: agentPath(agent)}

	switch agent {
	case domain.AgentContractVista:
		l.Body = queryBody{Query: product}
	case domain.AgentDealCraft, domain.AgentBriefVista, domain.AgentContactVista, domain.AgentPDFPitch, domain.AgentLeadGenieScore:
		l.Body = parsePayload(agent, company, product, logger)
	default:
		l.Body = targetBody{TargetCompany: company, OurProduct: product}
	}
	return l
}

// RouteParams routes a structured submission. Params must already be valid.
func RouteParams(agent domain.Agent, params domain.StructuredParams) (Launch, error) {
	if params == nil {
		return Launch{}, fmt.Errorf("%w: missing parameters", domain.ErrValidation)
	}
	if err := params.Validate(); err != nil {
		return Launch{}, err
	}
	if agent == "" {
		agent = domain.AgentSalesContactFinder
	}
	l := Launch{Agent: agent, Path: agentPath(agent)}

	switch agent {
	case domain.AgentContractVista:
		_, product := params.Subject()
		l.Body = queryBody{Query: product}
	case domain.AgentSalesContactFinder, domain.AgentMarketMatch:
		company, product := params.Subject()
		l.Body = targetBody{TargetCompany: company, OurProduct: product}
	default:
		l.Body = params
	}
	return l, nil
}

// parsePayload decodes a JSON-encoded form field, repairing it when needed.
// When neither works the default body is sent with the text as our_product.
func parsePayload(agent domain.Agent, company, raw string, logger *slog.Logger) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	reason := "not an object"
	repaired, err := jsonrepair.JSONRepair(raw)
	if err == nil {
		if err := json.Unmarshal([]byte(repaired), &v); err != nil {
			reason = err.Error()
		} else if _, ok := v.(map[string]any); ok {
			return v
		}
	} else {
		reason = err.Error()
	}
	if logger != nil {
		logger.Warn("agent payload is not JSON; sending it as our_product", "agent", agent.String(), "reason", reason)
	}
	return targetBody{TargetCompany: company, OurProduct: raw}
}
