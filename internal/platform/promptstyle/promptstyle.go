package promptstyle

import "strings"

const marker = "BARISTA_PROMPT_STYLE_V1"

type Mode string

const (
	ModeJSON Mode = "json"
	ModeText Mode = "text"
)

// ApplySystem prepends the shared guidance block to a system prompt. Applying it
// twice is a no-op.
func ApplySystem(system string, mode Mode) string {
	base := strings.TrimSpace(system)
	if base == "" {
		return base
	}
	if strings.Contains(base, marker) {
		return base
	}

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou are the ordering assistant of a coffee shop.")
	b.WriteString("\nOnly offer drinks that appear in the menu candidates or the current order.")
	b.WriteString("\nNever state prices or totals that were not given to you.")
	b.WriteString("\nIf the customer is ambiguous, ask one short clarifying question.")
	if mode == ModeJSON {
		b.WriteString("\nReturn a single JSON object that conforms to the schema and contains no extra keys.")
		b.WriteString("\nPut everything the customer should read in the reply field.")
	} else {
		b.WriteString("\nKeep replies to one or two friendly sentences.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return b.String()
}
