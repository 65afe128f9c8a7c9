package hierarchy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

// Problem describes one structural defect found by CheckIntegrity.
type Problem struct {
	FolderID string `json:"folder_id"`
	Message  string `json:"message"`
}

// CheckIntegrity validates the folder structure and reports defects without
// repairing anything: duplicate sibling names, orphaned parent references,
// and parent cycles.
func CheckIntegrity(snap *models.Snapshot) []Problem {
	var problems []Problem

	// Duplicate names under the same parent. Comparison is case-insensitive,
	// same as sibling-uniqueness enforcement at create/rename time.
	siblings := make(map[string]map[string][]string) // parentID -> lowercased name -> folder IDs
	for id, f := range snap.Folders {
		byName := siblings[f.ParentID]
		if byName == nil {
			byName = make(map[string][]string)
			siblings[f.ParentID] = byName
		}
		key := strings.ToLower(f.Name)
		byName[key] = append(byName[key], id)
	}
	for _, byName := range siblings {
		for _, ids := range byName {
			if len(ids) < 2 {
				continue
			}
			sort.Strings(ids)
			for _, id := range ids {
				problems = append(problems, Problem{
					FolderID: id,
					Message:  fmt.Sprintf("duplicate folder name %q among siblings", snap.Folder(id).Name),
				})
			}
		}
	}

	for id, f := range snap.Folders {
		if f.ParentID != "" && snap.Folder(f.ParentID) == nil {
			problems = append(problems, Problem{
				FolderID: id,
				Message:  fmt.Sprintf("parent folder %s does not exist", f.ParentID),
			})
		}
	}

	for id := range snap.Folders {
		if _, err := ComputePath(id, snap); err != nil {
			problems = append(problems, Problem{
				FolderID: id,
				Message:  "parent chain contains a cycle",
			})
		}
	}

	sort.Slice(problems, func(i, j int) bool {
		if problems[i].FolderID != problems[j].FolderID {
			return problems[i].FolderID < problems[j].FolderID
		}
		return problems[i].Message < problems[j].Message
	})
	return problems
}
