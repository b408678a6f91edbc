// media/types.go
package media

import "time"

// Metadata struct
// Contains the EXIF information extracted from an uploaded photo. Every
// field is optional.
type Metadata struct {
	TakenAt      *time.Time `json:"taken_at,omitempty"` // UTC
	Author       *string    `json:"author,omitempty"`
	CameraMake   *string    `json:"camera_make,omitempty"`
	CameraModel  *string    `json:"camera_model,omitempty"`
	FocalLength  *float64   `json:"focal_length,omitempty"`
	FNumber      *float64   `json:"f_number,omitempty"`
	ExposureTime *string    `json:"exposure_time,omitempty"`
	ISO          *int       `json:"iso,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
}

// HasLocation reports whether GPS coordinates were extracted.
func (m Metadata) HasLocation() bool {
	return m.Latitude != nil && m.Longitude != nil
}
