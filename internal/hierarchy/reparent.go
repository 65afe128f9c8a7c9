package hierarchy

import (
	"fmt"

	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

// CycleError reports a folder move that would make a folder its own ancestor.
type CycleError struct {
	NodeID      string
	NewParentID string
}

func (e *CycleError) Error() string {
	if e.NodeID == e.NewParentID {
		return fmt.Sprintf("folder %s cannot be its own parent", e.NodeID)
	}
	return fmt.Sprintf("folder %s cannot move under its own descendant %s", e.NodeID, e.NewParentID)
}

// ValidateReparent confirms that moving folder nodeID under newParentID keeps
// the folder graph acyclic. An empty newParentID (move to root) is always
// valid. The check walks from newParentID up to the root and rejects the move
// if nodeID appears on the way; it runs before any mutation reaches the
// store, so an invalid move is rejected locally and never partially applied.
func ValidateReparent(nodeID, newParentID string, snap *models.Snapshot) error {
	if newParentID == "" {
		return nil
	}
	if newParentID == nodeID {
		return &CycleError{NodeID: nodeID, NewParentID: newParentID}
	}
	if snap.Folder(newParentID) == nil {
		return fmt.Errorf("target folder %s not found", newParentID)
	}

	visited := make(map[string]struct{})
	for current := snap.Folder(newParentID); current != nil; current = snap.Folder(current.ParentID) {
		if current.ID == nodeID {
			return &CycleError{NodeID: nodeID, NewParentID: newParentID}
		}
		if _, seen := visited[current.ID]; seen {
			return fmt.Errorf("validating move of folder %s: %w", nodeID, ErrIntegrity)
		}
		visited[current.ID] = struct{}{}
		if current.ParentID == "" {
			break
		}
	}
	return nil
}
