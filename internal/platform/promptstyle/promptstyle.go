package promptstyle

import "strings"

const marker = "DOCINTEL_PROMPT_STYLE_V1"

// ApplySystem prepends a short guidance block to system prompts. Applying it twice is a no-op.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" || strings.Contains(base, marker) {
		return base
	}

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou are a careful document analyst.")
	b.WriteString("\nFollow the system and user instructions precisely.")
	b.WriteString("\nUse only the provided document text as grounding; do not invent facts.")
	if strings.EqualFold(strings.TrimSpace(mode), "json") {
		b.WriteString("\nReturn a single JSON object that conforms to the schema and contains no extra keys.")
	} else {
		b.WriteString("\nReturn plain prose without headings or commentary about the task.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return b.String()
}
