package hierarchy

import (
	"fmt"
	"strings"

	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

// ErrIntegrity is returned when a folder's parent chain does not terminate at
// the root, which indicates corrupted data. Callers should fall back to
// treating the folder as root-level.
var ErrIntegrity = fmt.Errorf("folder parent chain does not terminate")

// ComputePath walks the parent chain from the folder to the root, collecting
// names, and joins them root-first with PathSeparator. The walk is bounded by
// a visited set: a revisit is a data-integrity error, never an endless loop.
func ComputePath(folderID string, snap *models.Snapshot) (string, error) {
	folder := snap.Folder(folderID)
	if folder == nil {
		return "", fmt.Errorf("folder %s not found", folderID)
	}

	var names []string
	visited := make(map[string]struct{})
	for current := folder; current != nil; {
		if _, seen := visited[current.ID]; seen {
			return "", fmt.Errorf("computing path for folder %s: %w", folderID, ErrIntegrity)
		}
		visited[current.ID] = struct{}{}
		names = append(names, current.Name)

		if current.ParentID == "" {
			break
		}
		// Missing parent: treat the last known folder as root-level.
		current = snap.Folder(current.ParentID)
	}

	// Reverse into root -> leaf order.
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, PathSeparator), nil
}
