package gorm

import (
	"context"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

// SnapshotLoader produces consistent read-only snapshots of the full
// subprompt and folder collections. Resolution requires global reachability,
// so both tables are read inside one transaction. Concurrent loads are
// collapsed into a single query via singleflight; callers racing an in-flight
// load share its result.
type SnapshotLoader struct {
	db    *gorm.DB
	group singleflight.Group
}

// NewSnapshotLoader creates a snapshot loader.
func NewSnapshotLoader(store *Store) *SnapshotLoader {
	return &SnapshotLoader{db: store.DB}
}

// LoadSnapshot reads both collections in a single transaction.
func (l *SnapshotLoader) LoadSnapshot(ctx context.Context) (*models.Snapshot, error) {
	v, err, _ := l.group.Do("snapshot", func() (interface{}, error) {
		return l.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Snapshot), nil
}

func (l *SnapshotLoader) load(ctx context.Context) (*models.Snapshot, error) {
	var snap *models.Snapshot
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subRecords []SubpromptRecord
		if err := tx.Find(&subRecords).Error; err != nil {
			return err
		}
		var folderRecords []FolderRecord
		if err := tx.Find(&folderRecords).Error; err != nil {
			return err
		}
		snap = models.NewSnapshot(toModelSubprompts(subRecords), toModelFolders(folderRecords))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
