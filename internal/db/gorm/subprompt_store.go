package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

// ErrDuplicateName is returned when a create or rename would produce two
// records with the same name under the same parent.
var ErrDuplicateName = errors.New("name already in use among siblings")

// SubpromptStore provides subprompt-related database operations.
type SubpromptStore struct {
	db    *gorm.DB
	store *Store
}

// NewSubpromptStore creates a new subprompt store.
func NewSubpromptStore(store *Store) *SubpromptStore {
	return &SubpromptStore{db: store.DB, store: store}
}

// Create stores a new subprompt. An empty ID gets a generated UUID.
// Name uniqueness is enforced within the containing folder.
func (s *SubpromptStore) Create(ctx context.Context, sp *models.Subprompt) (*models.Subprompt, error) {
	if err := sp.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkSiblingName(ctx, sp.Name, sp.FolderID, sp.ID); err != nil {
		return nil, err
	}

	record := fromModelSubprompt(sp)
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("create subprompt: %w", err)
	}
	return toModelSubprompt(record), nil
}

// Get retrieves a subprompt by ID. Returns (nil, nil) when not found.
func (s *SubpromptStore) Get(ctx context.Context, id string) (*models.Subprompt, error) {
	var record SubpromptRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toModelSubprompt(&record), nil
}

// GetByName retrieves a subprompt by exact name, optionally scoped to a
// folder. With an empty folderID the first match across folders wins.
// Returns (nil, nil) when not found.
func (s *SubpromptStore) GetByName(ctx context.Context, name, folderID string) (*models.Subprompt, error) {
	query := s.db.WithContext(ctx).Where("name = ?", name)
	if folderID != "" {
		query = query.Where("folder_id = ?", folderID)
	}

	var record SubpromptRecord
	err := query.Order("folder_id").First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toModelSubprompt(&record), nil
}

// List retrieves all subprompts ordered by name.
func (s *SubpromptStore) List(ctx context.Context) ([]*models.Subprompt, error) {
	var records []SubpromptRecord
	if err := s.db.WithContext(ctx).Order("name").Find(&records).Error; err != nil {
		return nil, err
	}
	return toModelSubprompts(records), nil
}

// Update replaces the stored content of a subprompt.
func (s *SubpromptStore) Update(ctx context.Context, sp *models.Subprompt) (*models.Subprompt, error) {
	if err := sp.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, sp.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("subprompt %s not found", sp.ID)
	}
	if err := s.checkSiblingName(ctx, sp.Name, sp.FolderID, sp.ID); err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"name":             sp.Name,
		"folder_id":        sp.FolderID,
		"positive":         sp.Positive,
		"negative":         sp.Negative,
		"trigger_words":    models.JSONStringArray(sp.TriggerWords),
		"order_tokens":     models.JSONStringArray(sp.Order),
		"updated_at":       now.Format(time.RFC3339),
		"updated_at_epoch": now.UnixMilli(),
	}
	err = s.db.WithContext(ctx).Model(&SubpromptRecord{}).
		Where("id = ?", sp.ID).
		Updates(updates).Error
	if err != nil {
		return nil, fmt.Errorf("update subprompt: %w", err)
	}
	return s.Get(ctx, sp.ID)
}

// Move reassigns a subprompt to another folder (empty folderID = root).
func (s *SubpromptStore) Move(ctx context.Context, id, folderID string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("subprompt %s not found", id)
	}
	if err := s.checkSiblingName(ctx, existing.Name, folderID, id); err != nil {
		return err
	}

	now := time.Now()
	return s.db.WithContext(ctx).Model(&SubpromptRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"folder_id":        folderID,
			"updated_at":       now.Format(time.RFC3339),
			"updated_at_epoch": now.UnixMilli(),
		}).Error
}

// Delete removes a subprompt and scrubs its ID from every other subprompt's
// order list, so deletion never leaves dangling references behind. Returns
// the number of referencing subprompts that were cleaned up.
func (s *SubpromptStore) Delete(ctx context.Context, id string) (int, error) {
	scrubbed := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&SubpromptRecord{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("subprompt %s not found", id)
		}

		n, err := scrubReferences(tx, []string{id})
		if err != nil {
			return err
		}
		scrubbed = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return scrubbed, nil
}

// checkSiblingName enforces name uniqueness within a folder. Comparison is
// case-insensitive to match what the tree surface treats as a collision.
func (s *SubpromptStore) checkSiblingName(ctx context.Context, name, folderID, selfID string) error {
	var count int64
	query := s.db.WithContext(ctx).Model(&SubpromptRecord{}).
		Where("folder_id = ? AND LOWER(name) = LOWER(?)", folderID, name)
	if selfID != "" {
		query = query.Where("id <> ?", selfID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("subprompt %q: %w", name, ErrDuplicateName)
	}
	return nil
}

// scrubReferences removes the given IDs from every subprompt's order tokens.
// Runs inside the caller's transaction. Returns how many records changed.
func scrubReferences(tx *gorm.DB, deletedIDs []string) (int, error) {
	doomed := make(map[string]struct{}, len(deletedIDs))
	for _, id := range deletedIDs {
		doomed[id] = struct{}{}
	}

	var records []SubpromptRecord
	if err := tx.Find(&records).Error; err != nil {
		return 0, err
	}

	now := time.Now()
	changed := 0
	for i := range records {
		record := &records[i]
		kept := make(models.JSONStringArray, 0, len(record.OrderTokens))
		for _, tok := range record.OrderTokens {
			if _, gone := doomed[tok]; gone {
				continue
			}
			kept = append(kept, tok)
		}
		if len(kept) == len(record.OrderTokens) {
			continue
		}

		err := tx.Model(&SubpromptRecord{}).
			Where("id = ?", record.ID).
			Updates(map[string]interface{}{
				"order_tokens":     kept,
				"updated_at":       now.Format(time.RFC3339),
				"updated_at_epoch": now.UnixMilli(),
			}).Error
		if err != nil {
			return 0, err
		}
		changed++
	}
	return changed, nil
}
