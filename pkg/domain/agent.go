package domain

import "strings"

// Agent identifies a remote report generator. Its string value is the
// routing discriminator carried in the target company field.
type Agent string

const (
	AgentSalesContactFinder Agent = "sales-contact-finder"
	AgentMarketMatch        Agent = "market-match"
	AgentContractVista      Agent = "contract-vista"
	AgentDealCraft          Agent = "deal-craft"
	AgentBriefVista         Agent = "brief-vista"
	AgentContactVista       Agent = "contact-vista"
	AgentPDFPitch           Agent = "pdf-pitch"
	AgentLeadGenieScore     Agent = "lead-genie-score"
)

var knownAgents = []Agent{
	AgentSalesContactFinder,
	AgentMarketMatch,
	AgentContractVista,
	AgentDealCraft,
	AgentBriefVista,
	AgentContactVista,
	AgentPDFPitch,
	AgentLeadGenieScore,
}

func KnownAgents() []Agent {
	out := make([]Agent, len(knownAgents))
	copy(out, knownAgents)
	return out
}

// ParseAgent maps a discriminator to an Agent. Unknown or empty values
// select the default sales contact finder.
func ParseAgent(discriminator string) Agent {
	d := Agent(strings.ToLower(strings.TrimSpace(discriminator)))
	for _, a := range knownAgents {
		if a == d {
			return a
		}
	}
	return AgentSalesContactFinder
}

func (a Agent) Known() bool {
	for _, k := range knownAgents {
		if k == a {
			return true
		}
	}
	return false
}

// Default reports whether a is the non-specialized agent that gets
// structured extraction during normalization.
func (a Agent) Default() bool {
	return a == "" || a == AgentSalesContactFinder
}

func (a Agent) String() string {
	if a == "" {
		return string(AgentSalesContactFinder)
	}
	return string(a)
}

func (a Agent) MarshalText() ([]byte, error) { return []byte(a.String()), nil }
