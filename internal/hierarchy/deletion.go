package hierarchy

import (
	"fmt"
	"sort"

	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

// DeletionMode selects what happens to a deleted folder's contents.
type DeletionMode string

const (
	// ModePromote reassigns the folder's direct children to the folder's own
	// parent, flattening one level. This is the non-destructive default.
	ModePromote DeletionMode = "promote"
	// ModeCascade marks every transitively contained subprompt and folder for
	// deletion. Destructive, opt-in.
	ModeCascade DeletionMode = "cascade"
)

// Reparent is one planned parent change.
type Reparent struct {
	ID          string `json:"id"`
	NewParentID string `json:"new_parent_id"`
}

// DeletionPlan is the pure output of PlanFolderDeletion. The caller executes
// it against the store; planning performs no I/O.
type DeletionPlan struct {
	FolderID           string       `json:"folder_id"`
	Mode               DeletionMode `json:"mode"`
	SubpromptReparents []Reparent   `json:"subprompt_reparents,omitempty"`
	FolderReparents    []Reparent   `json:"folder_reparents,omitempty"`
	DeleteSubpromptIDs []string     `json:"delete_subprompt_ids,omitempty"`
	DeleteFolderIDs    []string     `json:"delete_folder_ids,omitempty"`
}

// PlanFolderDeletion computes the store mutations needed to delete a folder.
// In promote mode the folder's direct child subprompts and folders move to
// the deleted folder's own parent. In cascade mode all transitive contents
// are marked for deletion; DeleteFolderIDs lists deepest folders first so a
// caller deleting one-by-one never orphans a child, and the target folder
// itself is always last.
func PlanFolderDeletion(folderID string, mode DeletionMode, snap *models.Snapshot) (*DeletionPlan, error) {
	folder := snap.Folder(folderID)
	if folder == nil {
		return nil, fmt.Errorf("folder %s not found", folderID)
	}

	plan := &DeletionPlan{FolderID: folderID, Mode: mode}

	switch mode {
	case ModePromote:
		for _, sp := range snap.Subprompts {
			if sp.FolderID == folderID {
				plan.SubpromptReparents = append(plan.SubpromptReparents, Reparent{ID: sp.ID, NewParentID: folder.ParentID})
			}
		}
		for _, f := range snap.Folders {
			if f.ParentID == folderID {
				plan.FolderReparents = append(plan.FolderReparents, Reparent{ID: f.ID, NewParentID: folder.ParentID})
			}
		}
		plan.DeleteFolderIDs = []string{folderID}

	case ModeCascade:
		contained := descendants(folderID, snap)
		doomed := make(map[string]struct{}, len(contained)+1)
		doomed[folderID] = struct{}{}
		for _, id := range contained {
			doomed[id] = struct{}{}
		}
		for _, sp := range snap.Subprompts {
			if _, in := doomed[sp.FolderID]; in {
				plan.DeleteSubpromptIDs = append(plan.DeleteSubpromptIDs, sp.ID)
			}
		}
		// Deepest first, target last.
		for i := len(contained) - 1; i >= 0; i-- {
			plan.DeleteFolderIDs = append(plan.DeleteFolderIDs, contained[i])
		}
		plan.DeleteFolderIDs = append(plan.DeleteFolderIDs, folderID)

	default:
		return nil, fmt.Errorf("unknown deletion mode %q", mode)
	}

	sortPlan(plan)
	return plan, nil
}

// descendants returns all folders transitively contained in folderID, in
// breadth-first order. Bounded by a visited set so corrupted parent chains
// cannot loop.
func descendants(folderID string, snap *models.Snapshot) []string {
	children := make(map[string][]string, len(snap.Folders))
	for id, f := range snap.Folders {
		if f.ParentID != "" {
			children[f.ParentID] = append(children[f.ParentID], id)
		}
	}
	for _, ids := range children {
		sort.Strings(ids)
	}

	var out []string
	visited := map[string]struct{}{folderID: {}}
	queue := append([]string(nil), children[folderID]...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		out = append(out, id)
		queue = append(queue, children[id]...)
	}
	return out
}

// sortPlan makes plan contents deterministic for tests and callers; snapshot
// maps iterate in random order.
func sortPlan(plan *DeletionPlan) {
	sort.Slice(plan.SubpromptReparents, func(i, j int) bool {
		return plan.SubpromptReparents[i].ID < plan.SubpromptReparents[j].ID
	})
	sort.Slice(plan.FolderReparents, func(i, j int) bool {
		return plan.FolderReparents[i].ID < plan.FolderReparents[j].ID
	})
	sort.Strings(plan.DeleteSubpromptIDs)
}
