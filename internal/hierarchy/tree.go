// Package hierarchy organizes subprompts and folders into a rooted tree and
// validates structural mutations against the acyclic-tree invariant.
package hierarchy

import (
	"sort"

	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

// PathSeparator joins folder names in display paths.
const PathSeparator = "/"

// TreeNode is one node of the derived tree view. The root sentinel node has
// an empty Folder pointer. The tree is a derived structure of child lists;
// it holds no back-pointers into the snapshot.
type TreeNode struct {
	Folder     *models.Folder    `json:"folder,omitempty"`
	Children   []*TreeNode       `json:"children,omitempty"`
	Subprompts []*models.Subprompt `json:"subprompts,omitempty"`
}

// IsRoot reports whether the node is the root sentinel.
func (n *TreeNode) IsRoot() bool { return n.Folder == nil }

// BuildTree produces a rooted tree from the snapshot's flat collections.
// Folders and subprompts whose declared parent does not exist degrade to the
// root rather than failing, so a damaged library still renders.
func BuildTree(snap *models.Snapshot) *TreeNode {
	root := &TreeNode{}
	nodes := make(map[string]*TreeNode, len(snap.Folders))
	for id, f := range snap.Folders {
		nodes[id] = &TreeNode{Folder: f}
	}

	for id, f := range snap.Folders {
		parent := root
		if f.ParentID != "" {
			if p, ok := nodes[f.ParentID]; ok && f.ParentID != id {
				parent = p
			}
		}
		parent.Children = append(parent.Children, nodes[id])
	}

	// A folder cycle leaves its members parented to each other but detached
	// from the root. Reattach such strays at the root so every folder stays
	// reachable.
	reachable := make(map[string]bool, len(nodes))
	markReachable(root, reachable)
	var strayIDs []string
	for id := range nodes {
		if !reachable[id] {
			strayIDs = append(strayIDs, id)
		}
	}
	sort.Strings(strayIDs)
	for _, id := range strayIDs {
		if !reachable[id] {
			detachChild(nodes, id)
			root.Children = append(root.Children, nodes[id])
			markReachable(nodes[id], reachable)
		}
	}

	for _, sp := range snap.Subprompts {
		parent := root
		if sp.FolderID != "" {
			if p, ok := nodes[sp.FolderID]; ok {
				parent = p
			}
		}
		parent.Subprompts = append(parent.Subprompts, sp)
	}

	sortTree(root)
	return root
}

func markReachable(n *TreeNode, reachable map[string]bool) {
	for _, child := range n.Children {
		if child.Folder != nil && !reachable[child.Folder.ID] {
			reachable[child.Folder.ID] = true
			markReachable(child, reachable)
		}
	}
}

// detachChild removes the node with the given ID from its current parent's
// child list, if any.
func detachChild(nodes map[string]*TreeNode, id string) {
	for _, candidate := range nodes {
		for i, child := range candidate.Children {
			if child.Folder != nil && child.Folder.ID == id {
				candidate.Children = append(candidate.Children[:i], candidate.Children[i+1:]...)
				return
			}
		}
	}
}

// sortTree orders children and subprompt leaves by name for stable rendering.
func sortTree(n *TreeNode) {
	sort.Slice(n.Children, func(i, j int) bool {
		return n.Children[i].Folder.Name < n.Children[j].Folder.Name
	})
	sort.Slice(n.Subprompts, func(i, j int) bool {
		return n.Subprompts[i].Name < n.Subprompts[j].Name
	})
	for _, child := range n.Children {
		sortTree(child)
	}
}
