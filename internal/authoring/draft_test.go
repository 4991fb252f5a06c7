package authoring

import (
	"fmt"
	"sync"
	"testing"

	"doggodiary/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePreviews hands out cheap handles and counts releases per handle.
type fakePreviews struct {
	mu       sync.Mutex
	staged   int
	releases map[string]int
}

func newFakePreviews() *fakePreviews {
	return &fakePreviews{releases: map[string]int{}}
}

func (f *fakePreviews) Stage(name string, _ []byte) (*Preview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staged++
	id := fmt.Sprintf("preview-%d", f.staged)
	return &Preview{ID: id, Path: id + ".webp"}, nil
}

func (f *fakePreviews) Release(p *Preview) {
	if p == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases[p.ID]++
}

func (f *fakePreviews) releasedOnce(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, n := range f.releases {
		assert.Equalf(t, 1, n, "handle %s released %d times", id, n)
	}
}

func TestBuilder_PageNumbersStayContiguous(t *testing.T) {
	t.Parallel()

	b := NewBuilder(newFakePreviews())
	b.AddPage("one", "", "")
	b.AddPage("two", "", "")
	b.AddPage("three", "", "")

	require.NoError(t, b.RemovePage(1))

	draft := b.Snapshot()
	require.Len(t, draft.Pages, 2)
	assert.Equal(t, 1, draft.Pages[0].PageNum)
	assert.Equal(t, 2, draft.Pages[1].PageNum)
	assert.Equal(t, "one", draft.Pages[0].Heading)
	assert.Equal(t, "three", draft.Pages[1].Heading)
}

func TestBuilder_ImageOrderStaysContiguous(t *testing.T) {
	t.Parallel()

	previews := newFakePreviews()
	b := NewBuilder(previews)
	b.AddPage("p", "", "")
	require.NoError(t, b.AddImage(0, "a.png", []byte("a"), "", ""))
	require.NoError(t, b.AddImage(0, "b.png", []byte("b"), "", ""))
	require.NoError(t, b.AddImage(0, "c.png", []byte("c"), "", ""))

	require.NoError(t, b.RemoveImage(0, 1))

	draft := b.Snapshot()
	images := draft.Pages[0].Images
	require.Len(t, images, 2)
	assert.Equal(t, 1, images[0].Order)
	assert.Equal(t, 2, images[1].Order)
	assert.Equal(t, "a.png", images[0].Filename)
	assert.Equal(t, "c.png", images[1].Filename)

	assert.Len(t, previews.releases, 1)
	previews.releasedOnce(t)
}

func TestBuilder_RemovePageReleasesItsPreviews(t *testing.T) {
	t.Parallel()

	previews := newFakePreviews()
	b := NewBuilder(previews)
	b.AddPage("keep", "", "")
	b.AddPage("drop", "", "")
	require.NoError(t, b.AddImage(1, "a.png", []byte("a"), "", ""))
	require.NoError(t, b.AddImage(1, "b.png", []byte("b"), "", ""))

	require.NoError(t, b.RemovePage(1))

	assert.Len(t, previews.releases, 2)
	previews.releasedOnce(t)
}

func TestBuilder_ReplaceImageFileReleasesOldPreview(t *testing.T) {
	t.Parallel()

	previews := newFakePreviews()
	b := NewBuilder(previews)
	b.AddPage("p", "", "")
	require.NoError(t, b.AddImage(0, "old.png", []byte("old"), "cap", "alt"))

	require.NoError(t, b.ReplaceImageFile(0, 0, "new.png", []byte("new")))

	draft := b.Snapshot()
	assert.Equal(t, "new.png", draft.Pages[0].Images[0].Filename)
	assert.Equal(t, "cap", draft.Pages[0].Images[0].Caption)
	assert.Len(t, previews.releases, 1)
	previews.releasedOnce(t)
}

func TestBuilder_PageLayouts(t *testing.T) {
	t.Parallel()

	b := NewBuilder(newFakePreviews())
	b.AddPage("one", "", "")
	b.AddPage("two", "", "")

	draft := b.Snapshot()
	assert.Equal(t, models.LayoutTitlePage, draft.Pages[0].Layout, "new pages default to the title-page layout")
	assert.Equal(t, models.LayoutTitlePage, draft.Pages[1].Layout)

	require.NoError(t, b.SetPageLayout(1, models.LayoutHorizontalImage))
	assert.Equal(t, models.LayoutHorizontalImage, b.Snapshot().Pages[1].Layout)

	err := b.SetPageLayout(0, "sidebar")
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeValidation))
	require.Error(t, b.SetPageLayout(5, models.LayoutTitlePage))
}

func TestBuilder_TagsUniqueAndOrdered(t *testing.T) {
	t.Parallel()

	b := NewBuilder(newFakePreviews())
	assert.True(t, b.AddTag(" beach "))
	assert.True(t, b.AddTag("walkies"))
	assert.False(t, b.AddTag("Beach"), "case-insensitive duplicate")
	assert.False(t, b.AddTag("  "))

	b.RemoveTag("walkies")
	assert.Equal(t, []string{"beach"}, b.Snapshot().Tags)
}

func TestBuilder_ResetReleasesEverything(t *testing.T) {
	t.Parallel()

	previews := newFakePreviews()
	b := NewBuilder(previews)
	require.NoError(t, b.SetThumbnail("thumb.png", []byte("t"), "alt"))
	b.AddPage("p", "", "")
	require.NoError(t, b.AddImage(0, "a.png", []byte("a"), "", ""))

	b.Reset()
	b.Reset() // second reset must not double-release

	draft := b.Snapshot()
	assert.Empty(t, draft.Pages)
	assert.Nil(t, draft.Thumbnail)
	assert.Len(t, previews.releases, 2)
	previews.releasedOnce(t)
}
