package authoring

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"doggodiary/internal/models"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 10 {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFilePreviews_StageWritesDownsizedWebp(t *testing.T) {
	t.Parallel()

	previews, err := NewFilePreviews(t.TempDir())
	require.NoError(t, err)

	p, err := previews.Stage("big.png", pngBytes(t, 960, 640))
	require.NoError(t, err)
	require.FileExists(t, p.Path)

	f, err := os.Open(p.Path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	decoded, err := webp.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, previewMaxWidth, decoded.Bounds().Dx())
	assert.Equal(t, 320, decoded.Bounds().Dy(), "aspect ratio preserved")
}

func TestFilePreviews_SmallImagesKeepTheirSize(t *testing.T) {
	t.Parallel()

	previews, err := NewFilePreviews(t.TempDir())
	require.NoError(t, err)

	p, err := previews.Stage("small.png", pngBytes(t, 120, 80))
	require.NoError(t, err)

	f, err := os.Open(p.Path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	decoded, err := webp.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 120, decoded.Bounds().Dx())
}

func TestFilePreviews_ReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	previews, err := NewFilePreviews(t.TempDir())
	require.NoError(t, err)

	p, err := previews.Stage("dog.png", pngBytes(t, 100, 100))
	require.NoError(t, err)

	previews.Release(p)
	assert.NoFileExists(t, p.Path)

	previews.Release(p) // must not panic or error on the second call
	previews.Release(nil)
}

func TestFilePreviews_RejectsNonImages(t *testing.T) {
	t.Parallel()

	previews, err := NewFilePreviews(t.TempDir())
	require.NoError(t, err)

	_, err = previews.Stage("notes.txt", []byte("just some text, definitely not pixels"))
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeValidation))
}
