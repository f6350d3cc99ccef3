package imageprocessor_test

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Reakage/internal/pkg/imageprocessor"
	"github.com/ManuelReschke/Reakage/internal/pkg/upload"
)

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: 80, B: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcess_ReencodesAsJPEGWithThumbnail(t *testing.T) {
	photo, err := imageprocessor.Process(pngFixture(t, 640, 480), "leak.png", imageprocessor.DefaultMaxBytes)
	require.NoError(t, err)

	require.True(t, len(photo.JPEG) > 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, photo.JPEG[:2])
	assert.Equal(t, 640, photo.Width)
	assert.Equal(t, 480, photo.Height)

	require.True(t, len(photo.Thumbnail) > 12)
	assert.Equal(t, "RIFF", string(photo.Thumbnail[:4]))
	assert.Equal(t, "WEBP", string(photo.Thumbnail[8:12]))
}

func TestProcess_DownscalesLargePhotos(t *testing.T) {
	photo, err := imageprocessor.Process(pngFixture(t, 3000, 1500), "wide.png", 0)
	require.NoError(t, err)

	assert.Equal(t, imageprocessor.MaxDimension, photo.Width)
	assert.Equal(t, imageprocessor.MaxDimension/2, photo.Height)
}

func TestProcess_Rejections(t *testing.T) {
	fixture := pngFixture(t, 20, 20)

	tests := []struct {
		name     string
		data     []byte
		filename string
		maxBytes int64
		wantErr  error
	}{
		{"empty", nil, "a.png", 0, imageprocessor.ErrEmptyPhoto},
		{"too big", fixture, "a.png", int64(len(fixture) - 1), imageprocessor.ErrPhotoTooBig},
		{"wrong extension", fixture, "a.txt", 0, upload.ErrUnsupportedFormat},
		{"html payload", []byte("<html><body>hi</body></html>"), "a.jpg", 0, upload.ErrHTMLContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			photo, err := imageprocessor.Process(tt.data, tt.filename, tt.maxBytes)
			assert.Nil(t, photo)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMaxBytes(t *testing.T) {
	t.Setenv("PHOTO_MAX_BYTES", "2048")
	assert.Equal(t, int64(2048), imageprocessor.MaxBytes())

	t.Setenv("PHOTO_MAX_BYTES", "-1")
	assert.Equal(t, imageprocessor.DefaultMaxBytes, imageprocessor.MaxBytes())
}

func TestProcess_CorruptJPEG(t *testing.T) {
	_, err := imageprocessor.Process([]byte("\xFF\xD8\xFF\xE0 definitely not a jpeg"), "broken.jpg", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, imageprocessor.ErrUnreadable)
	assert.True(t, imageprocessor.IsRejected(err))
}

func TestIsRejected(t *testing.T) {
	assert.True(t, imageprocessor.IsRejected(imageprocessor.ErrPhotoTooBig))
	assert.True(t, imageprocessor.IsRejected(fmt.Errorf("Submission failed: %w", upload.ErrHTMLContent)))
	assert.False(t, imageprocessor.IsRejected(errors.New("bucket unavailable")))
	assert.False(t, imageprocessor.IsRejected(nil))
}
