package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lukaszraczylo/prompt-companion/internal/hierarchy"
	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

// FolderStore provides folder-related database operations. Structural
// validation (reparent cycles, deletion planning) lives in the hierarchy
// package; the store only persists already-validated mutations.
type FolderStore struct {
	db    *gorm.DB
	store *Store
}

// NewFolderStore creates a new folder store.
func NewFolderStore(store *Store) *FolderStore {
	return &FolderStore{db: store.DB, store: store}
}

// Create stores a new folder. An empty ID gets a generated UUID.
func (s *FolderStore) Create(ctx context.Context, f *models.Folder) (*models.Folder, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.ParentID != "" {
		parent, err := s.Get(ctx, f.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, fmt.Errorf("parent folder %s not found", f.ParentID)
		}
	}
	if err := s.checkSiblingName(ctx, f.Name, f.ParentID, f.ID); err != nil {
		return nil, err
	}

	record := &FolderRecord{ID: f.ID, Name: f.Name, ParentID: f.ParentID}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	return toModelFolder(record), nil
}

// Get retrieves a folder by ID. Returns (nil, nil) when not found.
func (s *FolderStore) Get(ctx context.Context, id string) (*models.Folder, error) {
	var record FolderRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toModelFolder(&record), nil
}

// List retrieves all folders ordered by name.
func (s *FolderStore) List(ctx context.Context) ([]*models.Folder, error) {
	var records []FolderRecord
	if err := s.db.WithContext(ctx).Order("name").Find(&records).Error; err != nil {
		return nil, err
	}
	return toModelFolders(records), nil
}

// Rename changes a folder's display name.
func (s *FolderStore) Rename(ctx context.Context, id, name string) (*models.Folder, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("folder %s not found", id)
	}

	renamed := &models.Folder{ID: id, Name: name, ParentID: existing.ParentID}
	if err := renamed.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkSiblingName(ctx, name, existing.ParentID, id); err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Model(&FolderRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":             name,
			"updated_at":       now.Format(time.RFC3339),
			"updated_at_epoch": now.UnixMilli(),
		}).Error
	if err != nil {
		return nil, fmt.Errorf("rename folder: %w", err)
	}
	return renamed, nil
}

// Move reparents a folder (empty newParentID = root). Callers must have
// validated the move with hierarchy.ValidateReparent against a current
// snapshot; the store repeats no cycle check.
func (s *FolderStore) Move(ctx context.Context, id, newParentID string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("folder %s not found", id)
	}
	if err := s.checkSiblingName(ctx, existing.Name, newParentID, id); err != nil {
		return err
	}

	now := time.Now()
	return s.db.WithContext(ctx).Model(&FolderRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"parent_id":        newParentID,
			"updated_at":       now.Format(time.RFC3339),
			"updated_at_epoch": now.UnixMilli(),
		}).Error
}

// ApplyDeletionPlan executes a hierarchy.DeletionPlan in one transaction:
// reparents first, then deletions, then reference scrubbing for any deleted
// subprompts. Either the whole plan applies or none of it does.
func (s *FolderStore) ApplyDeletionPlan(ctx context.Context, plan *hierarchy.DeletionPlan) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		stamp := map[string]interface{}{
			"updated_at":       now.Format(time.RFC3339),
			"updated_at_epoch": now.UnixMilli(),
		}

		for _, rp := range plan.SubpromptReparents {
			updates := map[string]interface{}{"folder_id": rp.NewParentID}
			for k, v := range stamp {
				updates[k] = v
			}
			err := tx.Model(&SubpromptRecord{}).Where("id = ?", rp.ID).Updates(updates).Error
			if err != nil {
				return fmt.Errorf("reparent subprompt %s: %w", rp.ID, err)
			}
		}

		for _, rp := range plan.FolderReparents {
			updates := map[string]interface{}{"parent_id": rp.NewParentID}
			for k, v := range stamp {
				updates[k] = v
			}
			err := tx.Model(&FolderRecord{}).Where("id = ?", rp.ID).Updates(updates).Error
			if err != nil {
				return fmt.Errorf("reparent folder %s: %w", rp.ID, err)
			}
		}

		if len(plan.DeleteSubpromptIDs) > 0 {
			err := tx.Delete(&SubpromptRecord{}, "id IN ?", plan.DeleteSubpromptIDs).Error
			if err != nil {
				return fmt.Errorf("delete subprompts: %w", err)
			}
			if _, err := scrubReferences(tx, plan.DeleteSubpromptIDs); err != nil {
				return fmt.Errorf("scrub references: %w", err)
			}
		}

		// Plan order is deepest-first, so no delete orphans a child.
		for _, folderID := range plan.DeleteFolderIDs {
			err := tx.Delete(&FolderRecord{}, "id = ?", folderID).Error
			if err != nil {
				return fmt.Errorf("delete folder %s: %w", folderID, err)
			}
		}
		return nil
	})
}

// checkSiblingName enforces folder name uniqueness among siblings,
// case-insensitively.
func (s *FolderStore) checkSiblingName(ctx context.Context, name, parentID, selfID string) error {
	var count int64
	query := s.db.WithContext(ctx).Model(&FolderRecord{}).
		Where("parent_id = ? AND LOWER(name) = LOWER(?)", parentID, name)
	if selfID != "" {
		query = query.Where("id <> ?", selfID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("folder %q: %w", name, ErrDuplicateName)
	}
	return nil
}
