package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	gormdb "github.com/lukaszraczylo/prompt-companion/internal/db/gorm"
	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

func testStores(t *testing.T) (*gormdb.SubpromptStore, *gormdb.FolderStore, *gormdb.SnapshotLoader, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "companion_library_test_*")
	require.NoError(t, err)

	store, err := gormdb.NewStore(gormdb.Config{
		Path:     filepath.Join(tmpDir, "test.db"),
		MaxConns: 4,
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}
	return gormdb.NewSubpromptStore(store), gormdb.NewFolderStore(store), gormdb.NewSnapshotLoader(store), cleanup
}

func TestExport_Deterministic(t *testing.T) {
	snap := models.NewSnapshot(
		[]*models.Subprompt{
			{ID: "b", Name: "Beta", Positive: "beta"},
			{ID: "a", Name: "Alpha", Positive: "alpha", Order: []string{models.SelfMarker, "b"}},
		},
		[]*models.Folder{
			{ID: "f2", Name: "Second"},
			{ID: "f1", Name: "First"},
		},
	)

	a := Export(snap)
	require.Len(t, a.Subprompts, 2)
	require.Len(t, a.Folders, 2)
	assert.Equal(t, ArchiveVersion, a.Version)
	assert.Equal(t, "Alpha", a.Subprompts[0].Name)
	assert.Equal(t, "Beta", a.Subprompts[1].Name)
	assert.Equal(t, "First", a.Folders[0].Name)
	assert.Equal(t, []string{models.SelfMarker, "b"}, a.Subprompts[0].Order)
}

func TestArchive_RoundTripFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "library.yaml")

	snap := models.NewSnapshot(
		[]*models.Subprompt{
			{ID: "dog", Name: "Dog", Positive: "four legs", Negative: "not a cat",
				TriggerWords: []string{"canine"}, Order: []string{models.SelfMarker}},
		},
		[]*models.Folder{{ID: "chars", Name: "Characters"}},
	)

	require.NoError(t, Export(snap).WriteFile(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Subprompts, 1)
	assert.Equal(t, "Dog", loaded.Subprompts[0].Name)
	assert.Equal(t, "not a cat", loaded.Subprompts[0].Negative)
	assert.Equal(t, []string{"canine"}, loaded.Subprompts[0].TriggerWords)
	require.Len(t, loaded.Folders, 1)
	assert.Equal(t, "Characters", loaded.Folders[0].Name)
}

func TestLoad_NewerVersionRejected(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "future.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 99\n"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestImport_CreatesEverything(t *testing.T) {
	subs, folders, loader, cleanup := testStores(t)
	defer cleanup()
	ctx := context.Background()

	a := &Archive{
		Version: ArchiveVersion,
		Folders: []FolderEntry{
			// Child listed before parent to exercise parents-first ordering.
			{ID: "nintendo", Name: "Nintendo", ParentID: "chars"},
			{ID: "chars", Name: "Characters"},
		},
		Subprompts: []SubpromptEntry{
			{ID: "mario", Name: "Mario", Positive: "red cap", FolderID: "nintendo",
				Order: []string{models.SelfMarker}},
		},
	}

	stats, err := NewImporter(subs, folders).Import(ctx, a, false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FoldersCreated)
	assert.Equal(t, 1, stats.SubpromptsCreated)
	assert.Zero(t, stats.Skipped)

	snap, err := loader.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.Folder("nintendo"))
	assert.Equal(t, "chars", snap.Folder("nintendo").ParentID)
	require.NotNil(t, snap.Subprompt("mario"))
	assert.Equal(t, "nintendo", snap.Subprompt("mario").FolderID)
}

func TestImport_SkipsExistingWithoutOverwrite(t *testing.T) {
	subs, folders, _, cleanup := testStores(t)
	defer cleanup()
	ctx := context.Background()

	_, err := subs.Create(ctx, &models.Subprompt{ID: "dog", Name: "Dog", Positive: "original"})
	require.NoError(t, err)

	a := &Archive{
		Version:    ArchiveVersion,
		Subprompts: []SubpromptEntry{{ID: "dog", Name: "Dog", Positive: "imported"}},
	}

	stats, err := NewImporter(subs, folders).Import(ctx, a, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.SubpromptsUpdated)

	got, err := subs.Get(ctx, "dog")
	require.NoError(t, err)
	assert.Equal(t, "original", got.Positive)
}

func TestImport_OverwriteUpdates(t *testing.T) {
	subs, folders, _, cleanup := testStores(t)
	defer cleanup()
	ctx := context.Background()

	_, err := folders.Create(ctx, &models.Folder{ID: "chars", Name: "Old Name"})
	require.NoError(t, err)
	_, err = subs.Create(ctx, &models.Subprompt{ID: "dog", Name: "Dog", Positive: "original"})
	require.NoError(t, err)

	a := &Archive{
		Version: ArchiveVersion,
		Folders: []FolderEntry{{ID: "chars", Name: "Characters"}},
		Subprompts: []SubpromptEntry{
			{ID: "dog", Name: "Dog", Positive: "imported", TriggerWords: []string{"canine"}},
		},
	}

	stats, err := NewImporter(subs, folders).Import(ctx, a, true)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FoldersUpdated)
	assert.Equal(t, 1, stats.SubpromptsUpdated)

	got, err := subs.Get(ctx, "dog")
	require.NoError(t, err)
	assert.Equal(t, "imported", got.Positive)
	assert.Equal(t, []string{"canine"}, got.TriggerWords)

	f, err := folders.Get(ctx, "chars")
	require.NoError(t, err)
	assert.Equal(t, "Characters", f.Name)
}

func TestImport_NameCollisionSkipped(t *testing.T) {
	subs, folders, _, cleanup := testStores(t)
	defer cleanup()
	ctx := context.Background()

	_, err := subs.Create(ctx, &models.Subprompt{ID: "existing", Name: "Dog"})
	require.NoError(t, err)

	// Different ID, same name in the same (root) folder.
	a := &Archive{
		Version:    ArchiveVersion,
		Subprompts: []SubpromptEntry{{ID: "incoming", Name: "dog"}},
	}

	stats, err := NewImporter(subs, folders).Import(ctx, a, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)

	got, err := subs.Get(ctx, "incoming")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestImport_FolderCollisionSkipsSubtree(t *testing.T) {
	subs, folders, _, cleanup := testStores(t)
	defer cleanup()
	ctx := context.Background()

	_, err := folders.Create(ctx, &models.Folder{ID: "existing", Name: "Characters"})
	require.NoError(t, err)

	// The incoming "characters" folder collides by name, so it and its
	// whole subtree get skipped rather than wedging the import.
	a := &Archive{
		Version: ArchiveVersion,
		Folders: []FolderEntry{
			{ID: "incoming", Name: "characters"},
			{ID: "nested", Name: "Nintendo", ParentID: "incoming"},
		},
		Subprompts: []SubpromptEntry{
			{ID: "mario", Name: "Mario", FolderID: "nested"},
			{ID: "dog", Name: "Dog"},
		},
	}

	stats, err := NewImporter(subs, folders).Import(ctx, a, false)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Skipped)
	assert.Equal(t, 0, stats.FoldersCreated)
	assert.Equal(t, 1, stats.SubpromptsCreated)

	got, err := folders.Get(ctx, "nested")
	require.NoError(t, err)
	assert.Nil(t, got)

	sp, err := subs.Get(ctx, "dog")
	require.NoError(t, err)
	require.NotNil(t, sp, "entries outside the skipped subtree still import")
}

func TestImport_FolderCycleRejected(t *testing.T) {
	subs, folders, _, cleanup := testStores(t)
	defer cleanup()

	a := &Archive{
		Version: ArchiveVersion,
		Folders: []FolderEntry{
			{ID: "a", Name: "A", ParentID: "b"},
			{ID: "b", Name: "B", ParentID: "a"},
		},
	}

	_, err := NewImporter(subs, folders).Import(context.Background(), a, false)
	assert.Error(t, err)
}
