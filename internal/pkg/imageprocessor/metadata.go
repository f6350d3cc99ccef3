package imageprocessor

import (
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

func init() {
	// Register Nikon and Canon maker notes
	exif.RegisterParsers(mknote.All...)
}

// Metadata holds the EXIF fields a report keeps from its photo
type Metadata struct {
	Latitude    *float64
	Longitude   *float64
	TakenAt     *time.Time
	CameraModel *string
}

// HasLocation reports whether the photo carried GPS coordinates
func (m Metadata) HasLocation() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// ExtractMetadata reads EXIF data from r. Photos without EXIF yield an empty Metadata.
func ExtractMetadata(r io.Reader) Metadata {
	var meta Metadata

	x, err := exif.Decode(r)
	if err != nil {
		log.Debugf("[ImageProcessor] No EXIF data found: %v", err)
		return meta
	}

	if m, err := x.Get(exif.Model); err == nil {
		model := strings.TrimSpace(strings.Trim(m.String(), `"`))
		if model != "" {
			meta.CameraModel = &model
		}
	}

	if dt, err := x.DateTime(); err == nil {
		meta.TakenAt = &dt
	}

	if lat, long, err := x.LatLong(); err == nil {
		meta.Latitude = &lat
		meta.Longitude = &long
	}

	return meta
}
