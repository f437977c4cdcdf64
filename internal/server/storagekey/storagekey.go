// Package storagekey derives object-store keys for gallery photos.
//
// Keys have the form galleries/{galleryID}/{variant}/{date}_{photoID}.{ext}.
// They are pure functions of their inputs; the photo id keeps them unique.
package storagekey

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Variants of a stored photo.
const (
	VariantPhotos     = "photos"
	VariantThumbnails = "thumbnails"
)

// DateLayout is the calendar-date prefix of every photo filename.
const DateLayout = "2006-01-02"

// Keys are the names derived for one photo.
type Keys struct {
	Filename  string
	FullSize  string
	Thumbnail string
}

// GalleryPrefix is the common prefix of every object of a gallery,
// including the trailing slash.
func GalleryPrefix(galleryID int64) string {
	return fmt.Sprintf("galleries/%d/", galleryID)
}

// Key joins a gallery, variant and filename into an object key.
func Key(galleryID int64, variant, filename string) string {
	return GalleryPrefix(galleryID) + variant + "/" + filename
}

// Filename builds "{date}_{photoID}.{ext}". The date is taken in UTC.
// An empty ext yields no trailing dot.
func Filename(date time.Time, photoID int64, ext string) string {
	name := fmt.Sprintf("%s_%d", date.UTC().Format(DateLayout), photoID)
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// Derive returns the filename and both variant keys of a photo.
func Derive(galleryID, photoID int64, date time.Time, ext string) Keys {
	filename := Filename(date, photoID, ext)
	return Keys{
		Filename:  filename,
		FullSize:  Key(galleryID, VariantPhotos, filename),
		Thumbnail: Key(galleryID, VariantThumbnails, filename),
	}
}

// ForPhoto rebuilds the keys of an already named photo.
func ForPhoto(galleryID int64, filename string) Keys {
	return Keys{
		Filename:  filename,
		FullSize:  Key(galleryID, VariantPhotos, filename),
		Thumbnail: Key(galleryID, VariantThumbnails, filename),
	}
}

// Ext returns the lower-cased extension of an uploaded file name without the
// leading dot, or "" when there is none.
func Ext(name string) string {
	ext := path.Ext(strings.ReplaceAll(name, "\\", "/"))
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
