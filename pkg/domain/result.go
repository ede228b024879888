package domain

import (
	"encoding/json"
	"fmt"
)

const (
	NoContentMessage = "# No content available\n\nThe API returned a successful response but no content was found."
	NoDataMessage    = "# No data available\n\nThe API returned a successful response but no data was found."
)

// Contact is one row extracted from a markdown contacts table.
type Contact struct {
	Name            string   `json:"name"`
	Title           string   `json:"title"`
	Email           string   `json:"email,omitempty"`
	Confidence      *float64 `json:"confidence,omitempty"`
	ConfidenceLabel string   `json:"confidence_label,omitempty"`
}

type CompanyInfo struct {
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Size     string `json:"size"`
	Location string `json:"location"`
}

type ProductMatch struct {
	Relevance        float64 `json:"relevance"`
	Department       string  `json:"department"`
	PotentialUseCase string  `json:"potential_use_case"`
}

// NormalizedResult is the stable result contract. RawMarkdown and FileOutput
// are always non-empty after normalization; every other upstream field is
// kept in Extra and written back at the top level on marshal.
type NormalizedResult struct {
	RawMarkdown  string         `json:"raw_markdown"`
	FileOutput   string         `json:"file_output"`
	Contacts     []Contact      `json:"contacts,omitempty"`
	CompanyInfo  *CompanyInfo   `json:"company_info,omitempty"`
	ProductMatch *ProductMatch  `json:"product_match,omitempty"`
	Extra        map[string]any `json:"-"`
}

var reservedResultKeys = map[string]bool{
	"raw_markdown":  true,
	"file_output":   true,
	"contacts":      true,
	"company_info":  true,
	"product_match": true,
}

// Extracted reports whether structured extraction data is attached.
func (r NormalizedResult) Extracted() bool {
	return r.Contacts != nil || r.CompanyInfo != nil || r.ProductMatch != nil
}

func (r NormalizedResult) Map() map[string]any {
	out := make(map[string]any, len(r.Extra)+5)
	for k, v := range r.Extra {
		if !reservedResultKeys[k] {
			out[k] = v
		}
	}
	out["raw_markdown"] = r.RawMarkdown
	out["file_output"] = r.FileOutput
	if r.Contacts != nil {
		out["contacts"] = r.Contacts
	}
	if r.CompanyInfo != nil {
		out["company_info"] = r.CompanyInfo
	}
	if r.ProductMatch != nil {
		out["product_match"] = r.ProductMatch
	}
	return out
}

func (r NormalizedResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

func (r *NormalizedResult) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*r = NormalizedResult{}
	for k, raw := range m {
		var err error
		switch k {
		case "raw_markdown":
			err = json.Unmarshal(raw, &r.RawMarkdown)
		case "file_output":
			err = json.Unmarshal(raw, &r.FileOutput)
		case "contacts":
			err = json.Unmarshal(raw, &r.Contacts)
		case "company_info":
			err = json.Unmarshal(raw, &r.CompanyInfo)
		case "product_match":
			err = json.Unmarshal(raw, &r.ProductMatch)
		default:
			var v any
			err = json.Unmarshal(raw, &v)
			if err == nil {
				if r.Extra == nil {
					r.Extra = map[string]any{}
				}
				r.Extra[k] = v
			}
		}
		if err != nil {
			return fmt.Errorf("result field %s: %w", k, err)
		}
	}
	return nil
}
