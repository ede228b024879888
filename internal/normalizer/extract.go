package normalizer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

// Report patterns produced by the sales contact finder.
var (
	contactsTable  = regexp.MustCompile(`(?s)\|\s*Name\s*\|.*?\n((?:\|.*?\|.*?\n)+)`)
	companyName    = regexp.MustCompile(`(?i)Company Overview[\s\S]*?([\w\s]+) is a`)
	industryRe     = regexp.MustCompile(`(?i)operates primarily in ([^.]+)`)
	workforceRe    = regexp.MustCompile(`(?i)workforce of approximately ([\d,]+) employees`)
	headquarters   = regexp.MustCompile(`(?i)headquartered in ([^,]+)`)
	separatorCells = regexp.MustCompile(`^:?-{3,}:?$`)
)

const (
	placeholderEmailDomain = "@example.com"
	unknownConfidence      = "unknown"
)

var defaultProductMatch = domain.ProductMatch{
	Relevance:        0.85,
	Department:       "Data & AI",
	PotentialUseCase: "Enhancing data analytics capabilities",
}

// extract is best effort: a panic leaves res without extracted fields.
func (n *Normalizer) extract(res *domain.NormalizedResult) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Warn("markdown extraction failed", "err", fmt.Sprint(r))
			res.Contacts, res.CompanyInfo, res.ProductMatch = nil, nil, nil
		}
	}()

	md := res.FileOutput
	res.Contacts = n.contacts(md)
	res.CompanyInfo = &domain.CompanyInfo{
		Name:     firstGroup(companyName, md),
		Industry: firstGroup(industryRe, md),
		Size:     firstGroup(workforceRe, md),
		Location: firstGroup(headquarters, md),
	}
	if n.synthesize {
		pm := defaultProductMatch
		res.ProductMatch = &pm
	}
}

func (n *Normalizer) contacts(md string) []domain.Contact {
	out := []domain.Contact{}
	m := contactsTable.FindStringSubmatch(md + "\n")
	if m == nil {
		return out
	}
	for _, line := range strings.Split(strings.TrimSpace(m[1]), "\n") {
		parts := trimAll(strings.Split(line, "|"))
		if len(parts) < 3 || separatorRow(parts) {
			continue
		}
		c := domain.Contact{Name: parts[0], Title: parts[1]}
		if n.synthesize {
			c.Email = parts[0] + placeholderEmailDomain
			conf := 0.8 + n.float()*0.2
			c.Confidence = &conf
		} else {
			c.ConfidenceLabel = unknownConfidence
		}
		out = append(out, c)
	}
	return out
}

func separatorRow(cells []string) bool {
	for _, c := range cells {
		if !separatorCells.MatchString(c) {
			return false
		}
	}
	return true
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
