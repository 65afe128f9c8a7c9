package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	gormdb "github.com/lukaszraczylo/prompt-companion/internal/db/gorm"
	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

// SubpromptWriter is the subset of the subprompt store the importer needs.
type SubpromptWriter interface {
	Get(ctx context.Context, id string) (*models.Subprompt, error)
	Create(ctx context.Context, sp *models.Subprompt) (*models.Subprompt, error)
	Update(ctx context.Context, sp *models.Subprompt) (*models.Subprompt, error)
}

// FolderWriter is the subset of the folder store the importer needs.
type FolderWriter interface {
	Get(ctx context.Context, id string) (*models.Folder, error)
	Create(ctx context.Context, f *models.Folder) (*models.Folder, error)
	Rename(ctx context.Context, id, name string) (*models.Folder, error)
	Move(ctx context.Context, id, newParentID string) error
}

// ImportStats reports what an import changed.
type ImportStats struct {
	FoldersCreated    int `json:"folders_created"`
	FoldersUpdated    int `json:"folders_updated"`
	SubpromptsCreated int `json:"subprompts_created"`
	SubpromptsUpdated int `json:"subprompts_updated"`
	Skipped           int `json:"skipped"`
}

// Importer merges archives into the stores by ID.
type Importer struct {
	subprompts SubpromptWriter
	folders    FolderWriter
}

// NewImporter builds an Importer over the given stores.
func NewImporter(subprompts SubpromptWriter, folders FolderWriter) *Importer {
	return &Importer{subprompts: subprompts, folders: folders}
}

// Import merges the archive into the library. Entries whose ID already
// exists are updated when overwrite is set and skipped otherwise. Name
// collisions with unrelated existing entries are skipped, not fatal.
func (i *Importer) Import(ctx context.Context, a *Archive, overwrite bool) (*ImportStats, error) {
	stats := &ImportStats{}

	skippedFolders, err := i.importFolders(ctx, a.Folders, overwrite, stats)
	if err != nil {
		return nil, err
	}

	for idx := range a.Subprompts {
		entry := &a.Subprompts[idx]
		if entry.ID == "" {
			return nil, fmt.Errorf("subprompt %q has no id", entry.Name)
		}
		if skippedFolders[entry.FolderID] {
			log.Warn().Str("name", entry.Name).Msg("Skipping subprompt, its folder was skipped")
			stats.Skipped++
			continue
		}

		existing, err := i.subprompts.Get(ctx, entry.ID)
		if err != nil {
			return nil, fmt.Errorf("look up subprompt %s: %w", entry.ID, err)
		}

		switch {
		case existing == nil:
			if _, err := i.subprompts.Create(ctx, entry.Subprompt()); err != nil {
				if errors.Is(err, gormdb.ErrDuplicateName) {
					log.Warn().Str("name", entry.Name).Msg("Skipping subprompt, name taken in target folder")
					stats.Skipped++
					continue
				}
				return nil, fmt.Errorf("create subprompt %q: %w", entry.Name, err)
			}
			stats.SubpromptsCreated++
		case overwrite:
			if _, err := i.subprompts.Update(ctx, entry.Subprompt()); err != nil {
				return nil, fmt.Errorf("update subprompt %q: %w", entry.Name, err)
			}
			stats.SubpromptsUpdated++
		default:
			stats.Skipped++
		}
	}

	log.Info().
		Int("folders_created", stats.FoldersCreated).
		Int("subprompts_created", stats.SubpromptsCreated).
		Int("skipped", stats.Skipped).
		Msg("Library import complete")
	return stats, nil
}

// importFolders creates folders parents-first so parent checks pass. It
// returns the IDs of folders it skipped so their subtrees can be skipped
// too instead of failing against a parent that was never created.
func (i *Importer) importFolders(ctx context.Context, entries []FolderEntry, overwrite bool, stats *ImportStats) (map[string]bool, error) {
	byID := make(map[string]*FolderEntry, len(entries))
	for idx := range entries {
		e := &entries[idx]
		if e.ID == "" {
			return nil, fmt.Errorf("folder %q has no id", e.Name)
		}
		byID[e.ID] = e
	}

	skipped := make(map[string]bool)
	done := make(map[string]bool, len(entries))
	var ensure func(e *FolderEntry, trail map[string]bool) error
	ensure = func(e *FolderEntry, trail map[string]bool) error {
		if done[e.ID] {
			return nil
		}
		if trail[e.ID] {
			return fmt.Errorf("folder archive contains a parent cycle through %q", e.Name)
		}
		trail[e.ID] = true
		defer delete(trail, e.ID)

		if parent, ok := byID[e.ParentID]; ok {
			if err := ensure(parent, trail); err != nil {
				return err
			}
		}
		if skipped[e.ParentID] {
			log.Warn().Str("name", e.Name).Msg("Skipping folder, its parent was skipped")
			stats.Skipped++
			skipped[e.ID] = true
			done[e.ID] = true
			return nil
		}

		existing, err := i.folders.Get(ctx, e.ID)
		if err != nil {
			return fmt.Errorf("look up folder %s: %w", e.ID, err)
		}

		switch {
		case existing == nil:
			if _, err := i.folders.Create(ctx, e.Folder()); err != nil {
				if errors.Is(err, gormdb.ErrDuplicateName) {
					log.Warn().Str("name", e.Name).Msg("Skipping folder, name taken under target parent")
					stats.Skipped++
					skipped[e.ID] = true
					done[e.ID] = true
					return nil
				}
				return fmt.Errorf("create folder %q: %w", e.Name, err)
			}
			stats.FoldersCreated++
		case overwrite:
			changed := false
			if existing.Name != e.Name {
				if _, err := i.folders.Rename(ctx, e.ID, e.Name); err != nil {
					return fmt.Errorf("rename folder %q: %w", e.Name, err)
				}
				changed = true
			}
			if existing.ParentID != e.ParentID {
				if err := i.folders.Move(ctx, e.ID, e.ParentID); err != nil {
					return fmt.Errorf("move folder %q: %w", e.Name, err)
				}
				changed = true
			}
			if changed {
				stats.FoldersUpdated++
			} else {
				stats.Skipped++
			}
		default:
			stats.Skipped++
		}

		done[e.ID] = true
		return nil
	}

	for idx := range entries {
		if err := ensure(&entries[idx], make(map[string]bool)); err != nil {
			return nil, err
		}
	}
	return skipped, nil
}
