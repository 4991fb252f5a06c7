package authoring

import (
	"bytes"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"doggodiary/internal/models"
	"doggodiary/internal/observability"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const previewMaxWidth = 480

// Preview is a handle to a downsized local rendition of a staged image.
// Handles are owned by the draft image that staged them and released
// exactly once.
type Preview struct {
	ID   string
	Path string
}

// PreviewManager stages and releases preview files.
type PreviewManager interface {
	Stage(name string, content []byte) (*Preview, error)
	Release(p *Preview)
}

// FilePreviews writes webp preview files under a directory. Release is
// idempotent per handle: a handle released twice deletes nothing the
// second time.
type FilePreviews struct {
	dir string
	log *observability.Logger

	mu     sync.Mutex
	staged map[string]string
}

// NewFilePreviews creates the preview directory if needed.
func NewFilePreviews(dir string) (*FilePreviews, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	return &FilePreviews{
		dir:    dir,
		log:    observability.Component("previews"),
		staged: map[string]string{},
	}, nil
}

// Stage validates the staged bytes as an image, downsizes it, and
// writes a webp preview file.
func (f *FilePreviews) Stage(name string, content []byte) (*Preview, error) {
	if !strings.HasPrefix(http.DetectContentType(content), "image/") {
		return nil, models.NewValidationError("File must be an image")
	}
	src, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("File could not be decoded as an image")
	}

	dst := downsize(src)

	id := uuid.New().String()
	path := filepath.Join(f.dir, id+".webp")
	out, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := webp.Encode(out, dst, &webp.Options{Quality: 80}); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return nil, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	f.mu.Lock()
	f.staged[id] = path
	f.mu.Unlock()

	f.log.Debug("staged preview", "name", name, "path", path)
	return &Preview{ID: id, Path: path}, nil
}

// Release deletes the preview file behind the handle. Unknown or
// already-released handles are a no-op.
func (f *FilePreviews) Release(p *Preview) {
	if p == nil {
		return
	}
	f.mu.Lock()
	path, ok := f.staged[p.ID]
	if ok {
		delete(f.staged, p.ID)
	}
	f.mu.Unlock()
	if !ok {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		f.log.Warn("failed to remove preview file", "path", path, "error", err)
	}
	observability.PreviewsReleased.Inc()
}

func downsize(src image.Image) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() <= previewMaxWidth {
		return src
	}
	height := bounds.Dy() * previewMaxWidth / bounds.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, previewMaxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
