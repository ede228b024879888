package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SalesContactFinderParams is the default agent body.
type SalesContactFinderParams struct {
	TargetCompany string `json:"target_company"`
	OurProduct    string `json:"our_product"`
}

type LeadGenieScoreParams struct {
	Company            string `json:"company"`
	ProductName        string `json:"product_name"`
	ProductDescription string `json:"product_description"`
	ICPDescription     string `json:"icp_description"`
	FormResponse       string `json:"form_response"`
}

type DealCraftParams struct {
	CustomerInfo struct {
		Name              string `json:"name"`
		Industry          string `json:"industry"`
		Size              string `json:"size"`
		CurrentChallenges string `json:"current_challenges"`
		BudgetRange       string `json:"budget_range"`
	} `json:"customer_info"`
	CompanyInfo struct {
		Name                string   `json:"name"`
		Products            []string `json:"products"`
		PricingModels       []string `json:"pricing_models"`
		UniqueSellingPoints []string `json:"unique_selling_points"`
	} `json:"company_info"`
}

type BriefVistaParams struct {
	Participants      []string `json:"participants"`
	Company           string   `json:"company"`
	Context           string   `json:"context"`
	Objective         string   `json:"objective"`
	PriorInteractions string   `json:"prior_interactions"`
}

type ContactVistaParams struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Industry    string `json:"industry"`
	LinkedInURL string `json:"linkedin_url"`
	OurProduct  string `json:"our_product"`
}

type PDFPitchParams struct {
	CompanyInfo struct {
		Name            string `json:"name"`
		ProductName     string `json:"product_name"`
		Website         string `json:"website"`
		SalesRepName    string `json:"sales_rep_name"`
		SalesRepContact string `json:"sales_rep_contact"`
	} `json:"company_info"`
	LeadInfo struct {
		Name     string `json:"name"`
		Company  string `json:"company"`
		Industry string `json:"industry"`
	} `json:"lead_info"`
}

type ContractVistaParams struct {
	Query string `json:"query"`
}

// StructuredParams is implemented by every agent-specific form.
type StructuredParams interface {
	// Subject returns the company and product strings recorded on the SearchResult.
	Subject() (company string, product string)
	Validate() error
}

func (p SalesContactFinderParams) Subject() (string, string) {
	return p.TargetCompany, p.OurProduct
}

func (p SalesContactFinderParams) Validate() error {
	return requireFields("company name", p.TargetCompany, "product description", p.OurProduct)
}

func (p LeadGenieScoreParams) Subject() (string, string) {
	return p.Company, p.ProductDescription
}

func (p LeadGenieScoreParams) Validate() error {
	return requireFields("company name", p.Company, "product description", p.ProductDescription)
}

func (p DealCraftParams) Subject() (string, string) {
	return p.CustomerInfo.Name, p.CompanyInfo.Name
}

func (p DealCraftParams) Validate() error {
	return requireFields("customer name", p.CustomerInfo.Name, "company name", p.CompanyInfo.Name)
}

func (p BriefVistaParams) Subject() (string, string) {
	return p.Company, p.Objective
}

func (p BriefVistaParams) Validate() error {
	if err := requireFields("company", p.Company, "objective", p.Objective); err != nil {
		return err
	}
	if len(nonBlank(p.Participants)) == 0 {
		return fmt.Errorf("%w: please provide at least one participant", ErrValidation)
	}
	return nil
}

func (p ContactVistaParams) Subject() (string, string) {
	return p.Name, p.OurProduct
}

func (p ContactVistaParams) Validate() error {
	return requireFields("contact name", p.Name, "company", p.Company)
}

func (p PDFPitchParams) Subject() (string, string) {
	return p.LeadInfo.Company, p.CompanyInfo.ProductName
}

func (p PDFPitchParams) Validate() error {
	return requireFields("lead company", p.LeadInfo.Company, "product name", p.CompanyInfo.ProductName)
}

func (p ContractVistaParams) Subject() (string, string) {
	return string(AgentContractVista), p.Query
}

func (p ContractVistaParams) Validate() error {
	return requireFields("query", p.Query)
}

// DecodeParams decodes a raw JSON form into the params type of the given agent.
func DecodeParams(agent Agent, raw json.RawMessage) (StructuredParams, error) {
	var p StructuredParams
	switch agent {
	case "", AgentSalesContactFinder, AgentMarketMatch:
		p = &SalesContactFinderParams{}
	case AgentLeadGenieScore:
		p = &LeadGenieScoreParams{}
	case AgentDealCraft:
		p = &DealCraftParams{}
	case AgentBriefVista:
		p = &BriefVistaParams{}
	case AgentContactVista:
		p = &ContactVistaParams{}
	case AgentPDFPitch:
		p = &PDFPitchParams{}
	case AgentContractVista:
		p = &ContractVistaParams{}
	default:
		return nil, fmt.Errorf("%w: unknown agent %q", ErrValidation, string(agent))
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("%w: invalid %s params: %v", ErrValidation, agent, err)
	}
	return p, nil
}

func requireFields(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: please provide %s", ErrValidation, strings.Join(missing, " and "))
}

func nonBlank(in []string) []string {
	var out []string
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
