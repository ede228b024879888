package normalizer

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

type Options struct {
	// Synthesize enables the placeholder email, the random confidence and the
	// default product match on extracted contacts.
	Synthesize bool
	// Float returns a value in [0, 1). Defaults to a time-seeded source.
	Float func() float64
}

// Normalizer turns the heterogeneous task payloads of the agent API into a
// NormalizedResult. It is safe for concurrent use.
type Normalizer struct {
	synthesize bool
	float      func() float64
	logger     *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	float := opts.Float
	if float == nil {
		var mu sync.Mutex
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		float = func() float64 {
			mu.Lock()
			defer mu.Unlock()
			return rng.Float64()
		}
	}
	return &Normalizer{synthesize: opts.Synthesize, float: float, logger: logger}
}

// Status normalizes a successful status response. A response without data
// yields the no-data placeholder.
func (n *Normalizer) Status(resp domain.StatusResponse, agent domain.Agent) domain.NormalizedResult {
	if !resp.HasData() {
		return domain.NormalizedResult{RawMarkdown: domain.NoDataMessage, FileOutput: domain.NoDataMessage}
	}
	return n.Normalize(resp.Data, agent)
}

// Normalize applies the markdown precedence rules to data and, for the
// default agent, attaches extracted contacts and company details. Applying
// it to its own output returns the same result.
func (n *Normalizer) Normalize(data json.RawMessage, agent domain.Agent) domain.NormalizedResult {
	fields := decodeFields(data)

	raw := stringField(fields, "raw_markdown")
	file := stringField(fields, "file_output")
	switch {
	case raw != "" && file != "":
	case stringField(fields, "result") != "":
		raw = stringField(fields, "result")
		file = raw
	case nestedMarkdown(fields["result"]) != "":
		raw = nestedMarkdown(fields["result"])
		file = raw
	case raw != "":
		file = raw
	case file != "":
		raw = file
	default:
		raw, file = domain.NoContentMessage, domain.NoContentMessage
	}

	res := n.typed(fields)
	res.RawMarkdown = raw
	res.FileOutput = file

	if agent.Default() && !res.Extracted() {
		n.extract(&res)
	}
	return res
}

// decodeFields returns the payload as an object. A bare string is treated
// as {"result": s}; any other non-object value is kept under "result".
func decodeFields(data json.RawMessage) map[string]json.RawMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]json.RawMessage{}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err == nil && fields != nil {
		return fields
	}
	return map[string]json.RawMessage{"result": json.RawMessage(trimmed)}
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// nestedMarkdown reads result.content, then result.markdown.
func nestedMarkdown(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if s := stringField(obj, "content"); s != "" {
		return s
	}
	return stringField(obj, "markdown")
}

// typed decodes the reserved structured fields and keeps the rest as Extra.
// A malformed structured field is kept in Extra under "upstream_<name>".
func (n *Normalizer) typed(fields map[string]json.RawMessage) domain.NormalizedResult {
	var res domain.NormalizedResult
	keep := func(k string, raw json.RawMessage) {
		var v any
		if json.Unmarshal(raw, &v) != nil {
			return
		}
		if res.Extra == nil {
			res.Extra = map[string]any{}
		}
		res.Extra[k] = v
	}
	for k, raw := range fields {
		var target any
		switch k {
		case "raw_markdown", "file_output":
			continue
		case "contacts":
			target = &res.Contacts
		case "company_info":
			target = &res.CompanyInfo
		case "product_match":
			target = &res.ProductMatch
		default:
			keep(k, raw)
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			n.logger.Debug("structured result field kept raw", "field", k, "err", err)
			keep("upstream_"+k, raw)
		}
	}
	return res
}

func trimAll(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
