package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"

	"github.com/ManuelReschke/Reakage/internal/pkg/env"
	"github.com/ManuelReschke/Reakage/internal/pkg/upload"
)

const (
	// MaxDimension caps the longer edge of a stored photo
	MaxDimension = 2048
	// ThumbnailSize is the width of the list thumbnail
	ThumbnailSize = 320

	JPEGQuality = 85
	WebPQuality = 80

	DefaultMaxBytes int64 = 10 << 20
)

var (
	ErrEmptyPhoto  = errors.New("photo is empty")
	ErrPhotoTooBig = errors.New("photo exceeds the maximum upload size")
	ErrUnreadable  = errors.New("photo could not be decoded")
)

// IsRejected reports whether err means the uploaded file itself is
// unusable, as opposed to a processing or storage failure.
func IsRejected(err error) bool {
	for _, target := range []error{
		ErrEmptyPhoto, ErrPhotoTooBig, ErrUnreadable,
		upload.ErrUnsupportedFormat, upload.ErrHTMLContent, upload.ErrXMLContent, upload.ErrUnsupportedType,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Photo is a normalised report photo ready for upload
type Photo struct {
	JPEG      []byte
	Thumbnail []byte // WebP
	Width     int
	Height    int
	Metadata  Metadata
}

// MaxBytes returns the configured upload limit (PHOTO_MAX_BYTES)
func MaxBytes() int64 {
	n := env.GetEnvInt64("PHOTO_MAX_BYTES", DefaultMaxBytes)
	if n <= 0 {
		return DefaultMaxBytes
	}
	return n
}

// Process validates the raw upload, reads its EXIF data, applies the EXIF
// orientation, re-encodes it as JPEG and renders a WebP thumbnail.
func Process(data []byte, filename string, maxBytes int64) (*Photo, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPhoto
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, ErrPhotoTooBig
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	mime, err := upload.ValidateImageBySniff(filename, head)
	if err != nil {
		return nil, err
	}

	meta := ExtractMetadata(bytes.NewReader(data))

	img, err := decode(data, mime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("error encoding JPEG: %w", err)
	}

	thumb, err := encodeThumbnail(img)
	if err != nil {
		// the list falls back to the full photo
		log.Warnf("[ImageProcessor] Thumbnail generation failed: %v", err)
	}

	return &Photo{
		JPEG:      out.Bytes(),
		Thumbnail: thumb,
		Width:     img.Bounds().Dx(),
		Height:    img.Bounds().Dy(),
		Metadata:  meta,
	}, nil
}

func decode(data []byte, mime string) (image.Image, error) {
	if mime == "image/webp" {
		return webp.Decode(bytes.NewReader(data), &decoder.Options{})
	}
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

func encodeThumbnail(img image.Image) ([]byte, error) {
	thumb := img
	if img.Bounds().Dx() > ThumbnailSize {
		thumb = imaging.Resize(img, ThumbnailSize, 0, imaging.Lanczos)
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, WebPQuality)
	if err != nil {
		return nil, fmt.Errorf("error creating encoder options: %w", err)
	}

	var out bytes.Buffer
	if err := webp.Encode(&out, thumb, options); err != nil {
		return nil, fmt.Errorf("error encoding WebP image: %w", err)
	}
	return out.Bytes(), nil
}
