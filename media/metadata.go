package media

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// Extractor reads descriptive metadata out of raw image bytes. It never
// fails: unreadable input yields empty Metadata.
type Extractor interface {
	Extract(data []byte) Metadata
}

// ExifExtractor implements Extractor using goexif
type ExifExtractor struct{}

// NewExifExtractor returns the goexif backed extractor
func NewExifExtractor() ExifExtractor {
	return ExifExtractor{}
}

// Extract decodes EXIF tags from data. Missing tags stay nil; a decode error
// or a panic inside the decoder yields empty Metadata.
func (ExifExtractor) Extract(data []byte) (meta Metadata) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("metadata: EXIF decoder panicked: %v", r)
			meta = Metadata{}
		}
	}()

	exifData, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		// not necessarily a problem, the file might just lack EXIF data
		log.Printf("metadata: No EXIF data found or error decoding EXIF: %v", err)
		return Metadata{}
	}

	meta = Metadata{
		Author:       getString(exifData, exif.Artist),
		CameraMake:   getString(exifData, exif.Make),
		CameraModel:  getString(exifData, exif.Model),
		FocalLength:  getRational(exifData, exif.FocalLength),
		FNumber:      getRational(exifData, exif.FNumber),
		ExposureTime: getShutterSpeed(exifData),
		ISO:          getInt(exifData, exif.ISOSpeedRatings),
	}

	if dt, err := exifData.DateTime(); err == nil {
		taken := dt.UTC()
		meta.TakenAt = &taken
	}

	if lat, long, err := exifData.LatLong(); err == nil {
		meta.Latitude = &lat
		meta.Longitude = &long
	}

	return meta
}

// helper to safely get and convert a rational tag (like FNumber, FocalLength)
func getRational(exifData *exif.Exif, tagName exif.FieldName) *float64 {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		// sometimes stored as Int instead
		valInt, errInt := tag.Int(0)
		if errInt == nil {
			fVal := float64(valInt)
			return &fVal
		}
		return nil
	}
	val := float64(num) / float64(den)
	return &val
}

// helper to safely get and convert an integer tag (like ISO)
func getInt(exifData *exif.Exif, tagName exif.FieldName) *int {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	val, err := tag.Int(0)
	if err != nil {
		return nil
	}
	return &val
}

// helper to safely get a string tag, trimming null terminators
func getString(exifData *exif.Exif, tagName exif.FieldName) *string {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	val, err := tag.StringVal()
	if err != nil {
		return nil
	}
	val = strings.TrimSpace(strings.TrimRight(val, "\x00"))
	if val == "" {
		return nil
	}
	return &val
}

// helper to render the exposure time as "1/125" or "2.5s"
func getShutterSpeed(exifData *exif.Exif) *string {
	tag, err := exifData.Get(exif.ExposureTime)
	if err != nil || tag == nil {
		return nil
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return nil
	}

	if num == 1 && den > 1 {
		s := fmt.Sprintf("1/%d", den)
		return &s
	}

	val := float64(num) / float64(den)
	if val >= 1.0 {
		s := fmt.Sprintf("%.1fs", val)
		return &s
	}
	s := fmt.Sprintf("%.4fs", val)
	return &s
}
