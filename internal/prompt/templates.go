package prompt

// Template preambles per (form kind, variant). The exact wording is a product
// concern and changes independently of the pipeline; only the structure
// (preamble ++ rendered fields) is load-bearing.

const clientFinancePreamble = `You are a senior financial strategist reviewing a CFO diagnostic questionnaire.
Write a concise, client-facing summary in Markdown: acknowledge the
submission, frame the key challenges as solvable opportunities, and close
with an encouraging call to action. Do not include any meta commentary.

CFO questionnaire responses to analyze:`

const consultingFinancePreamble = `You are a strategic account analyst preparing an internal sales briefing.
From the CFO diagnostic responses below, produce a Markdown briefing for the
consulting team: prospect profile, pain points and hooks, proposed angle, and
recommended next steps. Direct and analytical; no marketing fluff.

CFO questionnaire responses to analyze:`

const clientGenericPreamble = `You are an analyst reviewing a survey response. Write a short, friendly
summary of the answers below in Markdown, highlighting the main themes and a
suggested follow-up. Do not include any meta commentary.

Survey responses to analyze:`

const consultingGenericPreamble = `You are an analyst preparing internal notes on a survey response. Summarize
the answers below in Markdown for the team: notable signals, open questions,
and a recommended follow-up.

Survey responses to analyze:`

// preamble selects the template for a (kind, variant) pair. Unknown variants
// fall back to the client-facing template so classification stays total.
func preamble(kind FormKind, variant Variant) string {
	switch kind {
	case KindFinanceDiagnostic:
		if variant == VariantConsulting {
			return consultingFinancePreamble
		}
		return clientFinancePreamble
	default:
		if variant == VariantConsulting {
			return consultingGenericPreamble
		}
		return clientGenericPreamble
	}
}
