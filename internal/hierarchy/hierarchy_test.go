package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

func testSnapshot() *models.Snapshot {
	folders := []*models.Folder{
		{ID: "f-characters", Name: "Characters"},
		{ID: "f-nintendo", Name: "Nintendo", ParentID: "f-characters"},
		{ID: "f-styles", Name: "Styles"},
	}
	subprompts := []*models.Subprompt{
		{ID: "s-mario", Name: "Mario", FolderID: "f-nintendo"},
		{ID: "s-luigi", Name: "Luigi", FolderID: "f-nintendo"},
		{ID: "s-noir", Name: "Noir", FolderID: "f-styles"},
		{ID: "s-root", Name: "Rootless"},
	}
	return models.NewSnapshot(subprompts, folders)
}

func findChild(t *testing.T, n *TreeNode, name string) *TreeNode {
	t.Helper()
	for _, child := range n.Children {
		if child.Folder.Name == name {
			return child
		}
	}
	t.Fatalf("child folder %q not found", name)
	return nil
}

func TestBuildTree(t *testing.T) {
	root := BuildTree(testSnapshot())

	assert.True(t, root.IsRoot())
	require.Len(t, root.Children, 2)
	assert.Equal(t, "Characters", root.Children[0].Folder.Name)
	assert.Equal(t, "Styles", root.Children[1].Folder.Name)

	require.Len(t, root.Subprompts, 1)
	assert.Equal(t, "Rootless", root.Subprompts[0].Name)

	nintendo := findChild(t, root.Children[0], "Nintendo")
	require.Len(t, nintendo.Subprompts, 2)
	assert.Equal(t, "Luigi", nintendo.Subprompts[0].Name)
	assert.Equal(t, "Mario", nintendo.Subprompts[1].Name)
}

func TestBuildTree_OrphansDegradeToRoot(t *testing.T) {
	folders := []*models.Folder{
		{ID: "f1", Name: "Orphan", ParentID: "gone"},
	}
	subprompts := []*models.Subprompt{
		{ID: "s1", Name: "Stray", FolderID: "also-gone"},
	}

	root := BuildTree(models.NewSnapshot(subprompts, folders))

	require.Len(t, root.Children, 1)
	assert.Equal(t, "Orphan", root.Children[0].Folder.Name)
	require.Len(t, root.Subprompts, 1)
	assert.Equal(t, "Stray", root.Subprompts[0].Name)
}

func TestBuildTree_CycleMembersStayReachable(t *testing.T) {
	folders := []*models.Folder{
		{ID: "f1", Name: "A", ParentID: "f2"},
		{ID: "f2", Name: "B", ParentID: "f1"},
	}

	root := BuildTree(models.NewSnapshot(nil, folders))

	seen := map[string]bool{}
	var walk func(n *TreeNode)
	walk = func(n *TreeNode) {
		for _, child := range n.Children {
			seen[child.Folder.ID] = true
			walk(child)
		}
	}
	walk(root)

	assert.True(t, seen["f1"], "cycle member f1 reachable from root")
	assert.True(t, seen["f2"], "cycle member f2 reachable from root")
}

func TestComputePath(t *testing.T) {
	snap := testSnapshot()

	path, err := ComputePath("f-nintendo", snap)
	require.NoError(t, err)
	assert.Equal(t, "Characters/Nintendo", path)

	path, err = ComputePath("f-styles", snap)
	require.NoError(t, err)
	assert.Equal(t, "Styles", path)
}

func TestComputePath_MissingFolder(t *testing.T) {
	_, err := ComputePath("nope", testSnapshot())
	assert.Error(t, err)
}

func TestComputePath_MissingParentStopsWalk(t *testing.T) {
	folders := []*models.Folder{
		{ID: "f1", Name: "Orphan", ParentID: "gone"},
	}
	path, err := ComputePath("f1", models.NewSnapshot(nil, folders))
	require.NoError(t, err)
	assert.Equal(t, "Orphan", path)
}

func TestComputePath_CycleIsIntegrityError(t *testing.T) {
	folders := []*models.Folder{
		{ID: "f1", Name: "A", ParentID: "f2"},
		{ID: "f2", Name: "B", ParentID: "f1"},
	}

	_, err := ComputePath("f1", models.NewSnapshot(nil, folders))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestValidateReparent(t *testing.T) {
	snap := testSnapshot()

	assert.NoError(t, ValidateReparent("f-styles", "f-nintendo", snap),
		"moving into a previously-unrelated subtree is valid")
	assert.NoError(t, ValidateReparent("f-nintendo", "", snap),
		"moving to root is always valid")

	err := ValidateReparent("f-characters", "f-characters", snap)
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)

	err = ValidateReparent("f-characters", "f-nintendo", snap)
	require.ErrorAs(t, err, &cycleErr,
		"target is a descendant of the moved folder")

	assert.Error(t, ValidateReparent("f-characters", "missing", snap))
}

func TestPlanFolderDeletion_Promote(t *testing.T) {
	snap := testSnapshot()

	plan, err := PlanFolderDeletion("f-nintendo", ModePromote, snap)
	require.NoError(t, err)

	assert.Equal(t, []Reparent{
		{ID: "s-luigi", NewParentID: "f-characters"},
		{ID: "s-mario", NewParentID: "f-characters"},
	}, plan.SubpromptReparents)
	assert.Empty(t, plan.FolderReparents)
	assert.Empty(t, plan.DeleteSubpromptIDs)
	assert.Equal(t, []string{"f-nintendo"}, plan.DeleteFolderIDs)
}

func TestPlanFolderDeletion_PromoteTopLevel(t *testing.T) {
	snap := testSnapshot()

	plan, err := PlanFolderDeletion("f-characters", ModePromote, snap)
	require.NoError(t, err)

	// One level flattens: Nintendo moves to root.
	assert.Equal(t, []Reparent{{ID: "f-nintendo", NewParentID: ""}}, plan.FolderReparents)
	assert.Equal(t, []string{"f-characters"}, plan.DeleteFolderIDs)
}

func TestPlanFolderDeletion_Cascade(t *testing.T) {
	snap := testSnapshot()

	plan, err := PlanFolderDeletion("f-characters", ModeCascade, snap)
	require.NoError(t, err)

	assert.Equal(t, []string{"s-luigi", "s-mario"}, plan.DeleteSubpromptIDs)
	assert.Equal(t, []string{"f-nintendo", "f-characters"}, plan.DeleteFolderIDs,
		"deepest folders first, target last")
	assert.Empty(t, plan.SubpromptReparents)
	assert.Empty(t, plan.FolderReparents)
}

func TestPlanFolderDeletion_UnknownFolder(t *testing.T) {
	_, err := PlanFolderDeletion("missing", ModePromote, testSnapshot())
	assert.Error(t, err)
}

func TestPlanFolderDeletion_UnknownMode(t *testing.T) {
	_, err := PlanFolderDeletion("f-styles", DeletionMode("shred"), testSnapshot())
	assert.Error(t, err)
}

func TestCheckIntegrity(t *testing.T) {
	assert.Empty(t, CheckIntegrity(testSnapshot()))

	folders := []*models.Folder{
		{ID: "f1", Name: "Dup"},
		{ID: "f2", Name: "dup"},
		{ID: "f3", Name: "Orphan", ParentID: "gone"},
		{ID: "f4", Name: "A", ParentID: "f5"},
		{ID: "f5", Name: "B", ParentID: "f4"},
	}

	problems := CheckIntegrity(models.NewSnapshot(nil, folders))
	require.NotEmpty(t, problems)

	byFolder := map[string][]string{}
	for _, p := range problems {
		byFolder[p.FolderID] = append(byFolder[p.FolderID], p.Message)
	}
	assert.Contains(t, byFolder, "f1")
	assert.Contains(t, byFolder, "f2")
	assert.Contains(t, byFolder, "f3")
	assert.Contains(t, byFolder, "f4")
	assert.Contains(t, byFolder, "f5")
}
