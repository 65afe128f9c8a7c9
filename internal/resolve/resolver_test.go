package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

func snapshotOf(subs ...*models.Subprompt) *models.Snapshot {
	return models.NewSnapshot(subs, nil)
}

func TestResolve_SelfOnly(t *testing.T) {
	sp := &models.Subprompt{
		ID:       "dog",
		Name:     "Basic Dog",
		Positive: "four legs, not a cat",
		Order:    []string{models.SelfMarker},
	}

	text, warnings := Resolve(sp, snapshotOf(sp))

	assert.Equal(t, "four legs, not a cat", text.Positive)
	assert.Empty(t, text.Negative)
	assert.Empty(t, warnings)
}

func TestResolve_NestedBeforeSelf(t *testing.T) {
	basic := &models.Subprompt{
		ID:       "basic",
		Name:     "Basic Dog",
		Positive: "four legs, not a cat",
		Order:    []string{models.SelfMarker},
	}
	golden := &models.Subprompt{
		ID:       "golden",
		Name:     "Golden Retriever",
		Positive: "long fur, floppy ears",
		Order:    []string{"basic", models.SelfMarker},
	}

	text, warnings := Resolve(golden, snapshotOf(basic, golden))

	assert.Equal(t, "four legs, not a cat, long fur, floppy ears", text.Positive)
	assert.Empty(t, warnings)
}

func TestResolve_OrderSensitivity(t *testing.T) {
	nested := &models.Subprompt{
		ID:       "b",
		Name:     "B",
		Positive: "quality keywords",
		Order:    []string{models.SelfMarker},
	}
	leading := &models.Subprompt{
		ID:       "a",
		Name:     "A",
		Positive: "my edits",
		Order:    []string{"b", models.SelfMarker},
	}
	trailing := &models.Subprompt{
		ID:       "a2",
		Name:     "A2",
		Positive: "my edits",
		Order:    []string{models.SelfMarker, "b"},
	}

	snap := snapshotOf(nested, leading, trailing)

	first, _ := Resolve(leading, snap)
	second, _ := Resolve(trailing, snap)

	assert.Equal(t, "quality keywords, my edits", first.Positive)
	assert.Equal(t, "my edits, quality keywords", second.Positive)
}

func TestResolve_SelfMarkerAbsent(t *testing.T) {
	nested := &models.Subprompt{
		ID:       "b",
		Name:     "B",
		Positive: "forest",
		Order:    []string{models.SelfMarker},
	}
	// Own text never merges when the marker is absent; the marker governs
	// insertion unconditionally.
	root := &models.Subprompt{
		ID:       "a",
		Name:     "A",
		Positive: "knight",
		Order:    []string{"b"},
	}

	text, warnings := Resolve(root, snapshotOf(nested, root))

	assert.Equal(t, "forest", text.Positive)
	assert.Empty(t, warnings)
}

func TestResolve_DanglingReference(t *testing.T) {
	root := &models.Subprompt{
		ID:       "a",
		Name:     "A",
		Positive: "knight",
		Order:    []string{"ghost", models.SelfMarker},
	}

	text, warnings := Resolve(root, snapshotOf(root))

	assert.Equal(t, "knight", text.Positive)
	require.Len(t, warnings, 1)
	assert.Equal(t, models.WarnDanglingReference, warnings[0].Kind)
	assert.Equal(t, "a", warnings[0].SubpromptID)
	assert.Equal(t, "ghost", warnings[0].ReferenceID)
}

func TestResolve_MutualCycle(t *testing.T) {
	a := &models.Subprompt{
		ID:       "a",
		Name:     "A",
		Positive: "alpha",
		Order:    []string{models.SelfMarker, "b"},
	}
	b := &models.Subprompt{
		ID:       "b",
		Name:     "B",
		Positive: "beta",
		Order:    []string{models.SelfMarker, "a"},
	}

	text, warnings := Resolve(a, snapshotOf(a, b))

	assert.Equal(t, "alpha, beta", text.Positive)
	require.NotEmpty(t, warnings)
	assert.Equal(t, models.WarnCircularReference, warnings[0].Kind)
	assert.Equal(t, "b", warnings[0].SubpromptID)
	assert.Equal(t, "a", warnings[0].ReferenceID)
}

func TestResolve_SelfCycle(t *testing.T) {
	a := &models.Subprompt{
		ID:       "a",
		Name:     "A",
		Positive: "alpha",
		Order:    []string{models.SelfMarker, "a"},
	}

	text, warnings := Resolve(a, snapshotOf(a))

	assert.Equal(t, "alpha", text.Positive)
	require.Len(t, warnings, 1)
	assert.Equal(t, models.WarnCircularReference, warnings[0].Kind)
}

func TestResolve_DiamondIsNotACycle(t *testing.T) {
	d := &models.Subprompt{
		ID:       "d",
		Name:     "D",
		Positive: "shared style",
		Order:    []string{models.SelfMarker},
	}
	b := &models.Subprompt{
		ID:       "b",
		Name:     "B",
		Positive: "left branch",
		Order:    []string{models.SelfMarker, "d"},
	}
	c := &models.Subprompt{
		ID:       "c",
		Name:     "C",
		Positive: "right branch",
		Order:    []string{models.SelfMarker, "d"},
	}
	a := &models.Subprompt{
		ID:    "a",
		Name:  "A",
		Order: []string{"b", "c"},
	}

	text, warnings := Resolve(a, snapshotOf(a, b, c, d))

	assert.Empty(t, warnings, "diamond inclusion must not be treated as circular")
	assert.Equal(t, "left branch, shared style, right branch", text.Positive,
		"shared terms collapse exactly once after dedup")
}

func TestResolve_NegativeChannelIndependent(t *testing.T) {
	b := &models.Subprompt{
		ID:       "b",
		Name:     "B",
		Negative: "low quality, blurry",
		Order:    []string{models.SelfMarker},
	}
	a := &models.Subprompt{
		ID:       "a",
		Name:     "A",
		Positive: "portrait",
		Negative: "blurry",
		Order:    []string{"b", models.SelfMarker},
	}

	text, _ := Resolve(a, snapshotOf(a, b))

	assert.Equal(t, "portrait", text.Positive)
	assert.Equal(t, "low quality, blurry", text.Negative)
}

func TestResolve_StrayCommasAndWhitespace(t *testing.T) {
	b := &models.Subprompt{
		ID:       "b",
		Name:     "B",
		Positive: "  forest, ",
		Order:    []string{models.SelfMarker},
	}
	a := &models.Subprompt{
		ID:       "a",
		Name:     "A",
		Positive: ", knight ",
		Order:    []string{"b", models.SelfMarker},
	}

	text, _ := Resolve(a, snapshotOf(a, b))

	assert.Equal(t, "forest, knight", text.Positive)
}

func TestResolve_NilRoot(t *testing.T) {
	text, warnings := Resolve(nil, snapshotOf())
	assert.Equal(t, models.ResolvedText{}, text)
	assert.Empty(t, warnings)
}

func TestDedupeTerms(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "documented example",
			in:   "dog, golden retriever, dog, long fur",
			want: "dog, golden retriever, long fur",
		},
		{
			name: "case insensitive keeps first casing",
			in:   "Dog, golden retriever, dog",
			want: "Dog, golden retriever",
		},
		{
			name: "drops empty terms",
			in:   "dog, , ,cat",
			want: "dog, cat",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "no duplicates untouched",
			in:   "a, b, c",
			want: "a, b, c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeTerms(tt.in))
		})
	}
}
