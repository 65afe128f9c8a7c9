package resolve

import "strings"

// DedupeTerms removes repeated comma-separated terms from merged prompt text.
// Terms are compared case-insensitively; the first-seen original casing is
// retained. Empty terms are dropped and the survivors re-joined with ", ".
func DedupeTerms(text string) string {
	if text == "" {
		return ""
	}

	seen := make(map[string]struct{})
	var kept []string
	for _, raw := range strings.Split(text, ",") {
		term := strings.TrimSpace(raw)
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, term)
	}
	return strings.Join(kept, ", ")
}
