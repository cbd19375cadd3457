// Package family defines the closed set of provider families the pool
// manager schedules across, and the per-family defaults the probe engine
// and selector consult.
package family

// Family is an opaque key identifying a backend kind. The request shape and
// health-check defaults for an entry are entirely determined by its family.
type Family string

const (
	GeminiCLIOAuth      Family = "gemini-cli-oauth"
	GeminiAntigravity   Family = "gemini-antigravity"
	OpenAICustom        Family = "openai-custom"
	ClaudeCustom        Family = "claude-custom"
	ClaudeKiroOAuth     Family = "claude-kiro-oauth"
	OpenAIQwenOAuth     Family = "openai-qwen-oauth"
	OpenAIResponsesCustom Family = "openaiResponses-custom"
)

// defaultCheckModel is the model used for a Mode B chat-send probe when an
// entry does not specify checkModelName.
var defaultCheckModel = map[Family]string{
	GeminiCLIOAuth:        "gemini-2.5-flash",
	GeminiAntigravity:     "gemini-2.5-flash",
	OpenAICustom:          "gpt-3.5-turbo",
	ClaudeCustom:          "claude-3-7-sonnet-20250219",
	ClaudeKiroOAuth:       "claude-haiku-4-5",
	OpenAIQwenOAuth:       "qwen3-coder-flash",
	OpenAIResponsesCustom: "gpt-4o-mini",
}

// DefaultCheckModel returns the family's fixed default probe model, and
// whether the family is known.
func DefaultCheckModel(f Family) (string, bool) {
	m, ok := defaultCheckModel[f]
	return m, ok
}

// usageBased is the set of families the health probe engine attempts a
// quota-query (Mode A) probe for before falling back to chat-send (Mode B).
// Currently a single member; it is a set, not a hard-coded equality check,
// so a future family can be added without touching probe logic, but none
// is added speculatively.
var usageBased = map[Family]bool{
	ClaudeKiroOAuth: true,
}

// IsUsageBased reports whether the family is a Mode-A candidate.
func IsUsageBased(f Family) bool {
	return usageBased[f]
}

// IsGemini reports whether the family uses the Gemini "contents" request
// shape for Mode B probes.
func IsGemini(f Family) bool {
	return f == GeminiCLIOAuth || f == GeminiAntigravity
}
