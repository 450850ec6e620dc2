package prompt

import (
	"fmt"
	"strings"
)

// GetSystemPrompt sets the assistant's role and the hard rules shared by both tasks.
func GetSystemPrompt() string {
	return `You explain insurance policies to non-technical readers for a product called PolicyLens.
You must produce one valid JSON object only (no markdown, no commentary, no code fences).

Rules:
- Use only the policy text you are given. Do not infer coverage that is not written down.
- Do not give legal advice and do not guess the reader's situation.
- If something is not stated, say "This is not clearly specified in the policy."
- Surface exclusions, waiting periods, conditional wording ("only if", "subject to",
  "provided that") and claim deadlines prominently.
- Write short, plain sentences. Explain any unavoidable legal term right away.`
}

// GetAnalysisPrompt wraps the policy text with the analysis schema.
func GetAnalysisPrompt(policyText, policyType, question string) string {
	if strings.TrimSpace(policyType) == "" {
		policyType = "General Insurance"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "POLICY TYPE: %s\n\n", policyType)
	fmt.Fprintf(&b, "POLICY TEXT:\n%s\n\n", policyText)
	if q := strings.TrimSpace(question); q != "" {
		fmt.Fprintf(&b, "THE READER ALSO ASKED: %s\nReflect the answer in the summary.\n\n", q)
	}
	b.WriteString(`Respond with JSON per this schema:
{
  "summary": "<2-3 sentence plain-language overview>",
  "riskLevel": "<Low|Medium|High>",
  "riskJustification": "<one sentence>",
  "keyExclusions": ["<string>"],
  "hiddenClauses": ["<conditional clause that could block a claim>"],
  "claimRequirements": ["<what the reader must do to claim>"],
  "waitingPeriods": [{"condition": "<string>", "duration": "<string>"}],
  "conditions": [{"clause": "<string>", "plainLanguage": "<string>", "impact": "<string>"}]
}`)
	return b.String()
}

// GetChatPrompt wraps a follow-up question with the answer schema.
func GetChatPrompt(policyText, question string) string {
	return fmt.Sprintf(`POLICY TEXT:
%s

QUESTION: %s

Answer using only the policy text. Respond with JSON per this schema:
{
  "answer": "<2-3 sentences max>",
  "relevantClauses": ["<exact clause from the policy>"],
  "confidence": "<High if clearly stated|Medium if implied or conditional|Low if unclear>",
  "disclaimer": "<optional warning when conditions apply>"
}`, policyText, question)
}
