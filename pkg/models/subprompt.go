// Package models contains domain models for prompt-companion.
package models

import (
	"fmt"
	"strings"
)

// SelfMarker is the order token meaning "insert this subprompt's own
// positive/negative text at this position".
const SelfMarker = "attached"

// Subprompt is a named, independently stored positive/negative text fragment
// with an ordered reference list.
type Subprompt struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Positive     string   `json:"positive"`
	Negative     string   `json:"negative"`
	TriggerWords []string `json:"trigger_words"`
	// Order controls assembly: each token is either SelfMarker or the ID of
	// another subprompt. Position matters; text is spliced in at the position
	// the token occupies.
	Order    []string `json:"order"`
	FolderID string   `json:"folder_id,omitempty"`
}

// HasSelfMarker reports whether the subprompt's own text participates in
// resolution. The self-marker governs insertion unconditionally: when absent,
// the subprompt contributes only its references.
func (s *Subprompt) HasSelfMarker() bool {
	for _, tok := range s.Order {
		if tok == SelfMarker {
			return true
		}
	}
	return false
}

// References returns the IDs of directly referenced subprompts in order,
// excluding the self-marker.
func (s *Subprompt) References() []string {
	refs := make([]string, 0, len(s.Order))
	for _, tok := range s.Order {
		if tok != SelfMarker && tok != "" {
			refs = append(refs, tok)
		}
	}
	return refs
}

// Validate checks structural requirements that hold for every stored
// subprompt. Resolution tolerates more than this; creation does not.
func (s *Subprompt) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("subprompt name must be a non-empty string")
	}
	markers := 0
	for _, tok := range s.Order {
		if strings.TrimSpace(tok) == "" {
			return fmt.Errorf("order contains an empty token")
		}
		if tok == SelfMarker {
			markers++
		}
	}
	if markers > 1 {
		return fmt.Errorf("order can contain at most one %q marker", SelfMarker)
	}
	return nil
}

// Folder is a purely organizational grouping container for subprompts and
// other folders. It never affects resolution.
type Folder struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

// Validate checks folder structural requirements.
func (f *Folder) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("folder name must be a non-empty string")
	}
	if f.ParentID != "" && f.ParentID == f.ID {
		return fmt.Errorf("folder cannot be its own parent")
	}
	return nil
}
