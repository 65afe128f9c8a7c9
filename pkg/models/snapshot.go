package models

// ResolvedText is the ephemeral output of composition. It is recomputed on
// demand from a snapshot and never persisted.
type ResolvedText struct {
	Positive string `json:"positive"`
	Negative string `json:"negative"`
}

// Snapshot is a consistent read-only view of the full subprompt and folder
// collections. The resolution engine and hierarchy manager only borrow it;
// they never mutate it.
type Snapshot struct {
	Subprompts map[string]*Subprompt
	Folders    map[string]*Folder
}

// NewSnapshot builds a snapshot from flat collections, indexing by ID.
func NewSnapshot(subprompts []*Subprompt, folders []*Folder) *Snapshot {
	snap := &Snapshot{
		Subprompts: make(map[string]*Subprompt, len(subprompts)),
		Folders:    make(map[string]*Folder, len(folders)),
	}
	for _, s := range subprompts {
		snap.Subprompts[s.ID] = s
	}
	for _, f := range folders {
		snap.Folders[f.ID] = f
	}
	return snap
}

// Subprompt returns the subprompt with the given ID, or nil.
func (s *Snapshot) Subprompt(id string) *Subprompt {
	if s == nil {
		return nil
	}
	return s.Subprompts[id]
}

// SubpromptByName returns the first subprompt with the given name
// (case-sensitive exact match), or nil. Names are only unique within a
// folder, so callers that need folder-scoped lookup should filter on
// FolderID themselves.
func (s *Snapshot) SubpromptByName(name string) *Subprompt {
	if s == nil {
		return nil
	}
	for _, sp := range s.Subprompts {
		if sp.Name == name {
			return sp
		}
	}
	return nil
}

// Folder returns the folder with the given ID, or nil.
func (s *Snapshot) Folder(id string) *Folder {
	if s == nil {
		return nil
	}
	return s.Folders[id]
}
