package authoring

import (
	"context"

	"doggodiary/internal/api"
	"doggodiary/internal/models"
	"doggodiary/internal/observability"
)

// Uploader is the slice of the remote API the submission needs.
type Uploader interface {
	TempUploadThumbnail(ctx context.Context, filename string, content []byte) (string, error)
	TempUploadPageImage(ctx context.Context, filename string, content []byte) (string, error)
	CreatePost(ctx context.Context, in api.CreatePostInput) (*models.Post, error)
}

// Authorizer answers the identity questions the submission asks.
type Authorizer interface {
	IsAdmin() bool
	UserID() uint
}

// Submit resolves staged files through the temporary-upload endpoints
// and sends one atomic create request. Order is fixed: thumbnail (when
// one is staged), then page images, then create. A thumbnail failure
// aborts everything with the draft intact; a page-image failure drops
// only that image. On success the draft is reset and every preview
// released.
func (b *Builder) Submit(ctx context.Context, up Uploader, auth Authorizer) (*models.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !auth.IsAdmin() {
		return nil, models.NewAuthorizationError("Only admins can create posts")
	}
	authorID := auth.UserID()
	if authorID == 0 {
		return nil, models.NewMissingAuthorError()
	}
	if err := b.validateLocked(); err != nil {
		return nil, err
	}

	thumbnailURL := ""
	if b.draft.Thumbnail != nil {
		url, err := up.TempUploadThumbnail(ctx, b.draft.Thumbnail.Filename, b.draft.Thumbnail.Content)
		if err != nil {
			return nil, models.NewUploadFailedError("thumbnail", err)
		}
		thumbnailURL = url
	}

	pages := make([]api.PageInput, 0, len(b.draft.Pages))
	for _, p := range b.draft.Pages {
		page := api.PageInput{
			PageNum:  p.PageNum,
			Subtitle: p.Subtitle,
			Heading:  p.Heading,
			Content:  p.Content,
			Layout:   p.Layout,
			Images:   make([]api.ImageInput, 0, len(p.Images)),
		}
		for _, img := range p.Images {
			url, err := up.TempUploadPageImage(ctx, img.Filename, img.Content)
			if err != nil {
				observability.TempUploadFailures.WithLabelValues("page_image").Inc()
				b.log.Warn("page image upload failed, continuing without it",
					"page", p.PageNum,
					"filename", img.Filename,
					"error", err,
				)
				continue
			}
			page.Images = append(page.Images, api.ImageInput{
				URL:     url,
				Caption: img.Caption,
				AltText: img.AltText,
				Order:   len(page.Images) + 1,
			})
		}
		pages = append(pages, page)
	}

	post, err := up.CreatePost(ctx, api.CreatePostInput{
		Title:        b.draft.Title,
		AuthorID:     authorID,
		Published:    b.draft.Published,
		Content:      b.draft.Content,
		Tags:         append([]string(nil), b.draft.Tags...),
		ThumbnailURL: thumbnailURL,
		Pages:        pages,
	})
	if err != nil {
		return nil, err
	}

	b.resetLocked()
	return post, nil
}

func (b *Builder) validateLocked() error {
	if b.draft.Title == "" {
		return models.NewValidationError("Title is required")
	}
	if len(b.draft.Pages) == 0 {
		return models.NewValidationError("At least one page is required")
	}
	return nil
}

func (b *Builder) resetLocked() {
	old := b.draft
	b.draft = Draft{}
	if old.Thumbnail != nil {
		b.previews.Release(old.Thumbnail.Preview)
	}
	for _, p := range old.Pages {
		for _, img := range p.Images {
			b.previews.Release(img.Preview)
		}
	}
}
