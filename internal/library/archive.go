// Package library handles YAML export and import of the subprompt library.
package library

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

// ArchiveVersion is the current archive format version.
const ArchiveVersion = 1

// FolderEntry is a folder as written to an archive.
type FolderEntry struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	ParentID string `yaml:"parent_id,omitempty"`
}

// SubpromptEntry is a subprompt as written to an archive.
type SubpromptEntry struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Positive     string   `yaml:"positive,omitempty"`
	Negative     string   `yaml:"negative,omitempty"`
	TriggerWords []string `yaml:"trigger_words,omitempty"`
	Order        []string `yaml:"order,omitempty"`
	FolderID     string   `yaml:"folder_id,omitempty"`
}

// Archive is the top-level YAML structure.
type Archive struct {
	Version    int              `yaml:"version"`
	Folders    []FolderEntry    `yaml:"folders,omitempty"`
	Subprompts []SubpromptEntry `yaml:"subprompts,omitempty"`
}

// Export captures the full library state as an archive. Entries are
// sorted by name so repeated exports of the same state are identical.
func Export(snap *models.Snapshot) *Archive {
	a := &Archive{Version: ArchiveVersion}

	for _, f := range snap.Folders {
		a.Folders = append(a.Folders, FolderEntry{
			ID:       f.ID,
			Name:     f.Name,
			ParentID: f.ParentID,
		})
	}
	for _, sp := range snap.Subprompts {
		a.Subprompts = append(a.Subprompts, SubpromptEntry{
			ID:           sp.ID,
			Name:         sp.Name,
			Positive:     sp.Positive,
			Negative:     sp.Negative,
			TriggerWords: sp.TriggerWords,
			Order:        sp.Order,
			FolderID:     sp.FolderID,
		})
	}

	sort.Slice(a.Folders, func(i, j int) bool { return a.Folders[i].Name < a.Folders[j].Name })
	sort.Slice(a.Subprompts, func(i, j int) bool { return a.Subprompts[i].Name < a.Subprompts[j].Name })
	return a
}

// WriteFile marshals the archive to YAML at path.
func (a *Archive) WriteFile(path string) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal archive: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Load reads an archive from the YAML file at path.
func Load(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var a Archive
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse archive: %w", err)
	}
	if a.Version > ArchiveVersion {
		return nil, fmt.Errorf("archive version %d is newer than supported version %d", a.Version, ArchiveVersion)
	}
	return &a, nil
}

// Subprompt converts an archive entry back to a model.
func (e *SubpromptEntry) Subprompt() *models.Subprompt {
	return &models.Subprompt{
		ID:           e.ID,
		Name:         e.Name,
		Positive:     e.Positive,
		Negative:     e.Negative,
		TriggerWords: e.TriggerWords,
		Order:        e.Order,
		FolderID:     e.FolderID,
	}
}

// Folder converts an archive entry back to a model.
func (e *FolderEntry) Folder() *models.Folder {
	return &models.Folder{
		ID:       e.ID,
		Name:     e.Name,
		ParentID: e.ParentID,
	}
}
