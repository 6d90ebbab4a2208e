// Package prompt turns a structured submission into the prompt text sent to
// an LLM provider. Everything here is pure: identical inputs produce
// byte-identical output, so generation tasks can be re-dispatched safely and
// unit tests never need a network.
package prompt

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/formsight/formflow/internal/forms"
)

// Variant names a prompt/result pairing generated independently for the same
// submission. Variant names double as result slot names in the store.
type Variant string

const (
	// VariantClient is the client-facing follow-up summary.
	VariantClient Variant = "client"
	// VariantConsulting is the internal consulting briefing.
	VariantConsulting Variant = "consulting"
)

// Variants returns every variant generated per submission, in dispatch order.
func Variants() []Variant {
	return []Variant{VariantClient, VariantConsulting}
}

// FormKind classifies a submission into a template family.
type FormKind string

const (
	// KindFinanceDiagnostic is the CFO diagnostic questionnaire.
	KindFinanceDiagnostic FormKind = "finance_diagnostic"
	// KindGeneric is the fallback for submissions no rule matches.
	KindGeneric FormKind = "generic"
)

// Placeholder tokens used when a field has no label or no answer.
const (
	missingLabel = "(untitled question)"
	missingValue = "(no answer)"

	listSeparator = ", "
)

// Classify maps a submission to exactly one template family. The rule is
// fixed: a field labeled with a finance-diagnostic keyword selects the CFO
// family, otherwise the generic fallback applies. Total by construction.
func Classify(sub forms.Submission) FormKind {
	for _, f := range sub.Fields {
		label := strings.ToLower(f.Label)
		for _, kw := range financeKeywords {
			if strings.Contains(label, kw) {
				return KindFinanceDiagnostic
			}
		}
	}
	return KindGeneric
}

var financeKeywords = []string{"sector", "industry", "erp", "automation"}

// Render builds the finished prompt for one variant: the variant's template
// preamble followed by every field rendered in submission order.
func Render(sub forms.Submission, variant Variant) string {
	var b strings.Builder
	b.WriteString(preamble(Classify(sub), variant))
	b.WriteString("\n\n")
	b.WriteString(RenderResponses(sub))
	return b.String()
}

// RenderResponses renders the field set without a preamble. The same text is
// persisted as the record's human-readable `user_responses`.
func RenderResponses(sub forms.Submission) string {
	var b strings.Builder
	for _, f := range sub.Fields {
		label := f.Label
		if label == "" {
			label = missingLabel
		}
		b.WriteString("Question: ")
		b.WriteString(label)
		b.WriteString("\nAnswer: ")
		b.WriteString(renderValue(f))
		b.WriteString("\n---\n")
	}
	return b.String()
}

// renderValue renders a field value deterministically: nil becomes the
// placeholder token, lists join their elements after option-id resolution,
// scalars render directly.
func renderValue(f forms.Field) string {
	switch v := f.Value.(type) {
	case nil:
		return missingValue
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			s := renderScalar(item)
			if text, ok := f.ResolveOption(s); ok {
				s = text
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, listSeparator)
	case []string:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			s := item
			if text, ok := f.ResolveOption(s); ok {
				s = text
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, listSeparator)
	default:
		return renderScalar(v)
	}
}

// renderScalar formats a single scalar. JSON numbers arrive as float64; the
// -1 precision keeps integral answers free of trailing zeros.
func renderScalar(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
