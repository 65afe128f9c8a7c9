// Package resolve implements recursive subprompt resolution: expanding a
// subprompt's ordered reference list into flat merged positive/negative text,
// with per-path cycle protection and duplicate-term removal.
package resolve

import (
	"strings"

	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

// Resolve computes the fully merged positive/negative text for root against
// the given snapshot. It never fails: dangling and circular references are
// skipped and reported as warnings, so a partially-correct result is always
// returned.
func Resolve(root *models.Subprompt, snap *models.Snapshot) (models.ResolvedText, []models.Warning) {
	if root == nil {
		return models.ResolvedText{}, nil
	}

	r := &resolver{snap: snap, visited: make(map[string]struct{})}
	text := r.resolve(root)

	// Dedup runs once over the complete merged string, not per fragment, so
	// terms shared between a fragment and something it nests collapse exactly
	// once.
	text.Positive = DedupeTerms(text.Positive)
	text.Negative = DedupeTerms(text.Negative)
	return text, r.warnings
}

type resolver struct {
	snap     *models.Snapshot
	visited  map[string]struct{} // IDs on the current path, pushed/popped around recursion
	warnings []models.Warning
}

func (r *resolver) resolve(sp *models.Subprompt) models.ResolvedText {
	// visited tracks the current root-to-node path only. A fragment reachable
	// via two distinct branches (a diamond) resolves independently on each;
	// only a back-edge to an ancestor is a cycle.
	r.visited[sp.ID] = struct{}{}
	defer delete(r.visited, sp.ID)

	var positive, negative []string
	for _, token := range sp.Order {
		switch {
		case token == models.SelfMarker:
			if part := cleanPart(sp.Positive); part != "" {
				positive = append(positive, part)
			}
			if part := cleanPart(sp.Negative); part != "" {
				negative = append(negative, part)
			}

		case strings.TrimSpace(token) == "":
			// Malformed token, nothing to insert.
			continue

		default:
			ref := r.snap.Subprompt(token)
			if ref == nil {
				r.warnings = append(r.warnings, models.DanglingReference(sp.ID, token))
				continue
			}
			if _, onPath := r.visited[ref.ID]; onPath {
				r.warnings = append(r.warnings, models.CircularReference(sp.ID, token))
				continue
			}

			nested := r.resolve(ref)
			if part := cleanPart(nested.Positive); part != "" {
				positive = append(positive, part)
			}
			if part := cleanPart(nested.Negative); part != "" {
				negative = append(negative, part)
			}
		}
	}

	return models.ResolvedText{
		Positive: strings.Join(positive, ", "),
		Negative: strings.Join(negative, ", "),
	}
}

// cleanPart strips surrounding whitespace and stray commas so joining parts
// never produces double commas.
func cleanPart(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), ","))
}
