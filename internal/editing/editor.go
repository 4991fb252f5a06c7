// Package editing holds the in-place editor for an existing post. All
// changes are staged locally and applied as independent requests; the
// local copy only ever reflects what the server acknowledged.
package editing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"doggodiary/internal/api"
	"doggodiary/internal/models"
	"doggodiary/internal/observability"
)

// EditAPI is the slice of the remote API the editor needs.
type EditAPI interface {
	UpdatePage(ctx context.Context, postID, pageID uint, in api.PageContentInput) (*models.Page, error)
	UpdatePostMeta(ctx context.Context, postID uint, in api.PostMetaInput) (*models.Post, error)
	UpdateThumbnail(ctx context.Context, postID uint, filename string, content []byte) (*models.Thumbnail, error)
	UpdatePageImage(ctx context.Context, imageID uint, filename string, content []byte) (*models.PageImage, error)
}

// Result is the outcome of one of the independent requests issued by
// Apply.
type Result struct {
	Operation string
	Err       error
}

type stagedFile struct {
	filename string
	content  []byte
}

// Editor stages edits against one existing post. Failed requests keep
// their staged change so the user can retry; there is no rollback
// across requests.
type Editor struct {
	client EditAPI
	log    *observability.Logger

	mu            sync.Mutex
	post          models.Post
	pendingPages  map[uint]api.PageContentInput
	pendingMeta   *api.PostMetaInput
	pendingThumb  *stagedFile
	pendingImages map[uint]stagedFile
}

// NewEditor wraps an existing post for editing.
func NewEditor(post models.Post, client EditAPI) *Editor {
	return &Editor{
		client:        client,
		log:           observability.Component("editing"),
		post:          post,
		pendingPages:  map[uint]api.PageContentInput{},
		pendingImages: map[uint]stagedFile{},
	}
}

// Post returns the current server-acknowledged state.
func (e *Editor) Post() models.Post {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.post
}

// Dirty reports whether any change is staged.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pendingPages) > 0 || e.pendingMeta != nil ||
		e.pendingThumb != nil || len(e.pendingImages) > 0
}

// BeginPage returns the combined editing surface for a page.
func (e *Editor) BeginPage(index int) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.post.Pages) {
		return "", models.NewValidationError(fmt.Sprintf("no page at index %d", index))
	}
	p := e.post.Pages[index]
	heading, subtitle, content := p.Heading, p.Subtitle, p.Content
	if pending, ok := e.pendingPages[p.ID]; ok {
		heading, subtitle, content = pending.Heading, pending.Subtitle, pending.Content
	}
	return ComposeSurface(heading, subtitle, content), nil
}

// ApplySurface splits the edited surface and stages the page change.
func (e *Editor) ApplySurface(index int, surface string) error {
	heading, subtitle, content, err := SplitSurface(surface)
	if err != nil {
		return models.NewValidationError("Page content could not be parsed")
	}
	return e.EditPage(index, heading, subtitle, content)
}

// EditPage stages new textual content for a page.
func (e *Editor) EditPage(index int, heading, subtitle, content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.post.Pages) {
		return models.NewValidationError(fmt.Sprintf("no page at index %d", index))
	}
	e.pendingPages[e.post.Pages[index].ID] = api.PageContentInput{
		Heading:  heading,
		Subtitle: subtitle,
		Content:  content,
	}
	return nil
}

// SetMeta stages post-level metadata.
func (e *Editor) SetMeta(title string, createdAt time.Time, tags []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingMeta = &api.PostMetaInput{
		Title:     title,
		CreatedAt: createdAt,
		Tags:      append([]string(nil), tags...),
	}
}

// StageThumbnail stages a replacement thumbnail file.
func (e *Editor) StageThumbnail(filename string, content []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingThumb = &stagedFile{filename: filename, content: content}
}

// StagePageImage stages a replacement file for an existing page image.
// Unstaged images keep their current URLs untouched.
func (e *Editor) StagePageImage(imageID uint, filename string, content []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.findImageLocked(imageID) == nil {
		return models.NewValidationError(fmt.Sprintf("no image with id %d", imageID))
	}
	e.pendingImages[imageID] = stagedFile{filename: filename, content: content}
	return nil
}

// Apply sends every staged change as its own request, concurrently.
// Each request succeeds or fails on its own: successes update the
// local post and clear their staged entry, failures leave it staged.
func (e *Editor) Apply(ctx context.Context) []Result {
	e.mu.Lock()
	postID := e.post.ID
	type job struct {
		operation string
		run       func(context.Context) error
	}
	var jobs []job

	for pageID, in := range e.pendingPages {
		pageID, in := pageID, in
		jobs = append(jobs, job{
			operation: fmt.Sprintf("page %d", pageID),
			run: func(ctx context.Context) error {
				page, err := e.client.UpdatePage(ctx, postID, pageID, in)
				if err != nil {
					return err
				}
				e.mu.Lock()
				e.applyPageLocked(*page)
				delete(e.pendingPages, pageID)
				e.mu.Unlock()
				return nil
			},
		})
	}
	if e.pendingMeta != nil {
		in := *e.pendingMeta
		jobs = append(jobs, job{
			operation: "metadata",
			run: func(ctx context.Context) error {
				post, err := e.client.UpdatePostMeta(ctx, postID, in)
				if err != nil {
					return err
				}
				e.mu.Lock()
				e.post.Title = post.Title
				e.post.CreatedAt = post.CreatedAt
				e.post.Tags = post.Tags
				e.pendingMeta = nil
				e.mu.Unlock()
				return nil
			},
		})
	}
	if e.pendingThumb != nil {
		f := *e.pendingThumb
		jobs = append(jobs, job{
			operation: "thumbnail",
			run: func(ctx context.Context) error {
				thumb, err := e.client.UpdateThumbnail(ctx, postID, f.filename, f.content)
				if err != nil {
					return err
				}
				e.mu.Lock()
				e.post.Thumbnail = *thumb
				e.pendingThumb = nil
				e.mu.Unlock()
				return nil
			},
		})
	}
	for imageID, f := range e.pendingImages {
		imageID, f := imageID, f
		jobs = append(jobs, job{
			operation: fmt.Sprintf("image %d", imageID),
			run: func(ctx context.Context) error {
				img, err := e.client.UpdatePageImage(ctx, imageID, f.filename, f.content)
				if err != nil {
					return err
				}
				e.mu.Lock()
				if cur := e.findImageLocked(imageID); cur != nil {
					*cur = *img
				}
				delete(e.pendingImages, imageID)
				e.mu.Unlock()
				return nil
			},
		})
	}
	e.mu.Unlock()

	results := make([]Result, len(jobs))
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		go func(i int, j job) {
			defer wg.Done()
			err := j.run(ctx)
			if err != nil {
				e.log.Warn("edit request failed", "operation", j.operation, "error", err)
			}
			results[i] = Result{Operation: j.operation, Err: err}
		}(i, j)
	}
	wg.Wait()
	return results
}

func (e *Editor) applyPageLocked(page models.Page) {
	for i := range e.post.Pages {
		if e.post.Pages[i].ID == page.ID {
			e.post.Pages[i].Heading = page.Heading
			e.post.Pages[i].Subtitle = page.Subtitle
			e.post.Pages[i].Content = page.Content
			return
		}
	}
}

func (e *Editor) findImageLocked(imageID uint) *models.PageImage {
	for i := range e.post.Pages {
		for j := range e.post.Pages[i].Images {
			if e.post.Pages[i].Images[j].ID == imageID {
				return &e.post.Pages[i].Images[j]
			}
		}
	}
	return nil
}
