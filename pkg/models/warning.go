package models

import "fmt"

// WarningKind classifies recoverable conditions surfaced during resolution.
type WarningKind string

const (
	// WarnDanglingReference means an order token named a subprompt ID absent
	// from the snapshot. The token was skipped.
	WarnDanglingReference WarningKind = "dangling_reference"
	// WarnCircularReference means a reference token would revisit an ancestor
	// on the current resolution path. The reference was not followed.
	WarnCircularReference WarningKind = "circular_reference"
)

// Warning describes a recoverable condition encountered while resolving.
// Resolution always returns best-effort text plus a list of these.
type Warning struct {
	Kind        WarningKind `json:"kind"`
	SubpromptID string      `json:"subprompt_id"`
	ReferenceID string      `json:"reference_id"`
	Message     string      `json:"message"`
}

// DanglingReference builds a warning for a stale order token.
func DanglingReference(subpromptID, refID string) Warning {
	return Warning{
		Kind:        WarnDanglingReference,
		SubpromptID: subpromptID,
		ReferenceID: refID,
		Message:     fmt.Sprintf("subprompt %s references unknown subprompt %s", subpromptID, refID),
	}
}

// CircularReference builds a warning for a back-edge to an ancestor.
func CircularReference(subpromptID, refID string) Warning {
	return Warning{
		Kind:        WarnCircularReference,
		SubpromptID: subpromptID,
		ReferenceID: refID,
		Message:     fmt.Sprintf("subprompt %s references ancestor %s, skipping to break the cycle", subpromptID, refID),
	}
}
