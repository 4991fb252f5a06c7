// Package authoring implements the multi-step post creation workflow:
// a locally-held draft of pages, images, and tags, staged image
// previews, and the final assembly into one atomic create request.
package authoring

import (
	"fmt"
	"strings"
	"sync"

	"doggodiary/internal/models"
	"doggodiary/internal/observability"
)

// DraftImage is a staged page or thumbnail image: raw bytes plus the
// preview handle derived from them. The hosted URL does not exist
// until submission.
type DraftImage struct {
	Filename string
	Content  []byte
	Caption  string
	AltText  string
	Order    int
	Preview  *Preview
}

// DraftPage is one page of the draft. PageNum is maintained contiguous
// from 1 by the builder; Layout defaults to the title-page layout and
// is chosen per page by the author.
type DraftPage struct {
	PageNum  int
	Heading  string
	Subtitle string
	Content  string
	Layout   string
	Images   []DraftImage
}

// Draft is the full authoring state.
type Draft struct {
	Title     string
	Content   string
	Published bool
	Tags      []string
	Thumbnail *DraftImage
	Pages     []DraftPage
}

// Builder mutates a draft while keeping its ordering invariants:
// pageNum runs 1..N with no gaps, image order runs 1..M within each
// page, tags stay unique and ordered.
type Builder struct {
	mu       sync.Mutex
	draft    Draft
	previews PreviewManager
	log      *observability.Logger
}

// NewBuilder returns an empty draft builder.
func NewBuilder(previews PreviewManager) *Builder {
	return &Builder{
		previews: previews,
		log:      observability.Component("authoring"),
	}
}

// SetTitle sets the draft title.
func (b *Builder) SetTitle(title string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draft.Title = strings.TrimSpace(title)
}

// SetContent sets the post-level summary content.
func (b *Builder) SetContent(content string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draft.Content = content
}

// SetPublished marks whether the post goes live on creation.
func (b *Builder) SetPublished(published bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draft.Published = published
}

// AddTag appends a trimmed tag, reporting whether it was added. Empty
// and duplicate tags are skipped.
func (b *Builder) AddTag(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.draft.Tags {
		if strings.EqualFold(t, name) {
			return false
		}
	}
	b.draft.Tags = append(b.draft.Tags, name)
	return true
}

// RemoveTag drops a tag by name, preserving the order of the rest.
func (b *Builder) RemoveTag(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.draft.Tags[:0]
	for _, t := range b.draft.Tags {
		if !strings.EqualFold(t, name) {
			kept = append(kept, t)
		}
	}
	b.draft.Tags = kept
}

// SetThumbnail stages the thumbnail file and its preview, releasing
// any previously staged thumbnail preview.
func (b *Builder) SetThumbnail(filename string, content []byte, altText string) error {
	preview, err := b.previews.Stage(filename, content)
	if err != nil {
		return err
	}
	b.mu.Lock()
	old := b.draft.Thumbnail
	b.draft.Thumbnail = &DraftImage{
		Filename: filename,
		Content:  content,
		AltText:  altText,
		Preview:  preview,
	}
	b.mu.Unlock()
	if old != nil {
		b.previews.Release(old.Preview)
	}
	return nil
}

// ClearThumbnail removes the staged thumbnail and releases its preview.
func (b *Builder) ClearThumbnail() {
	b.mu.Lock()
	old := b.draft.Thumbnail
	b.draft.Thumbnail = nil
	b.mu.Unlock()
	if old != nil {
		b.previews.Release(old.Preview)
	}
}

// AddPage appends a page and returns its index.
func (b *Builder) AddPage(heading, subtitle, content string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draft.Pages = append(b.draft.Pages, DraftPage{
		Heading:  heading,
		Subtitle: subtitle,
		Content:  content,
		Layout:   models.LayoutTitlePage,
	})
	b.renumberLocked()
	return len(b.draft.Pages) - 1
}

// SetPageLayout picks a page's layout.
func (b *Builder) SetPageLayout(index int, layout string) error {
	if layout != models.LayoutTitlePage && layout != models.LayoutHorizontalImage {
		return models.NewValidationError(fmt.Sprintf("unknown layout %q", layout))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.draft.Pages) {
		return models.NewValidationError(fmt.Sprintf("no page at index %d", index))
	}
	b.draft.Pages[index].Layout = layout
	return nil
}

// UpdatePage replaces a page's textual fields.
func (b *Builder) UpdatePage(index int, heading, subtitle, content string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.draft.Pages) {
		return models.NewValidationError(fmt.Sprintf("no page at index %d", index))
	}
	p := &b.draft.Pages[index]
	p.Heading = heading
	p.Subtitle = subtitle
	p.Content = content
	return nil
}

// RemovePage deletes a page, releases the previews of its images, and
// renumbers the remaining pages contiguously.
func (b *Builder) RemovePage(index int) error {
	b.mu.Lock()
	if index < 0 || index >= len(b.draft.Pages) {
		b.mu.Unlock()
		return models.NewValidationError(fmt.Sprintf("no page at index %d", index))
	}
	removed := b.draft.Pages[index]
	b.draft.Pages = append(b.draft.Pages[:index], b.draft.Pages[index+1:]...)
	b.renumberLocked()
	b.mu.Unlock()

	for _, img := range removed.Images {
		b.previews.Release(img.Preview)
	}
	return nil
}

// AddImage stages an image on a page. Order within the page stays
// contiguous.
func (b *Builder) AddImage(pageIndex int, filename string, content []byte, caption, altText string) error {
	preview, err := b.previews.Stage(filename, content)
	if err != nil {
		return err
	}
	b.mu.Lock()
	if pageIndex < 0 || pageIndex >= len(b.draft.Pages) {
		b.mu.Unlock()
		b.previews.Release(preview)
		return models.NewValidationError(fmt.Sprintf("no page at index %d", pageIndex))
	}
	p := &b.draft.Pages[pageIndex]
	p.Images = append(p.Images, DraftImage{
		Filename: filename,
		Content:  content,
		Caption:  caption,
		AltText:  altText,
		Preview:  preview,
	})
	b.renumberLocked()
	b.mu.Unlock()
	return nil
}

// SetImageMeta updates an image's caption and alt text in place.
func (b *Builder) SetImageMeta(pageIndex, imageIndex int, caption, altText string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	img, err := b.imageAtLocked(pageIndex, imageIndex)
	if err != nil {
		return err
	}
	img.Caption = caption
	img.AltText = altText
	return nil
}

// ReplaceImageFile swaps the staged file behind an image, releasing
// the old preview.
func (b *Builder) ReplaceImageFile(pageIndex, imageIndex int, filename string, content []byte) error {
	preview, err := b.previews.Stage(filename, content)
	if err != nil {
		return err
	}
	b.mu.Lock()
	img, err := b.imageAtLocked(pageIndex, imageIndex)
	if err != nil {
		b.mu.Unlock()
		b.previews.Release(preview)
		return err
	}
	old := img.Preview
	img.Filename = filename
	img.Content = content
	img.Preview = preview
	b.mu.Unlock()

	b.previews.Release(old)
	return nil
}

// RemoveImage drops an image from a page, releases its preview, and
// closes the order gap.
func (b *Builder) RemoveImage(pageIndex, imageIndex int) error {
	b.mu.Lock()
	if pageIndex < 0 || pageIndex >= len(b.draft.Pages) {
		b.mu.Unlock()
		return models.NewValidationError(fmt.Sprintf("no page at index %d", pageIndex))
	}
	p := &b.draft.Pages[pageIndex]
	if imageIndex < 0 || imageIndex >= len(p.Images) {
		b.mu.Unlock()
		return models.NewValidationError(fmt.Sprintf("no image at index %d on page %d", imageIndex, pageIndex))
	}
	removed := p.Images[imageIndex]
	p.Images = append(p.Images[:imageIndex], p.Images[imageIndex+1:]...)
	b.renumberLocked()
	b.mu.Unlock()

	b.previews.Release(removed.Preview)
	return nil
}

// Snapshot returns a deep-enough copy of the draft for display: pages
// and images are copied, byte slices and preview handles are shared.
func (b *Builder) Snapshot() Draft {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.copyLocked()
}

// Reset discards the draft and releases every staged preview.
func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetLocked()
}

func (b *Builder) imageAtLocked(pageIndex, imageIndex int) (*DraftImage, error) {
	if pageIndex < 0 || pageIndex >= len(b.draft.Pages) {
		return nil, models.NewValidationError(fmt.Sprintf("no page at index %d", pageIndex))
	}
	p := &b.draft.Pages[pageIndex]
	if imageIndex < 0 || imageIndex >= len(p.Images) {
		return nil, models.NewValidationError(fmt.Sprintf("no image at index %d on page %d", imageIndex, pageIndex))
	}
	return &p.Images[imageIndex], nil
}

// renumberLocked restores the contiguity invariants after any
// structural mutation.
func (b *Builder) renumberLocked() {
	for i := range b.draft.Pages {
		b.draft.Pages[i].PageNum = i + 1
		for j := range b.draft.Pages[i].Images {
			b.draft.Pages[i].Images[j].Order = j + 1
		}
	}
}

func (b *Builder) copyLocked() Draft {
	out := b.draft
	out.Tags = append([]string(nil), b.draft.Tags...)
	out.Pages = make([]DraftPage, len(b.draft.Pages))
	for i, p := range b.draft.Pages {
		cp := p
		cp.Images = append([]DraftImage(nil), p.Images...)
		out.Pages[i] = cp
	}
	if b.draft.Thumbnail != nil {
		t := *b.draft.Thumbnail
		out.Thumbnail = &t
	}
	return out
}
