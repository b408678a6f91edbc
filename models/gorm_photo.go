package models

import "time"

// Photo represents an uploaded photo record in the database using GORM.
// It corresponds to the 'photos' table.
type Photo struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FileName    string    `gorm:"not null" json:"file_name"`
	StorageKey  string    `gorm:"not null;uniqueIndex" json:"storage_key"` // object key in the media store
	URL         string    `gorm:"not null" json:"url"`
	Title       string    `gorm:"not null" json:"title"`
	Description *string   `gorm:"" json:"description,omitempty"`
	UploadDate  time.Time `gorm:"not null" json:"upload_date"`
	DateTaken   time.Time `gorm:"not null;index" json:"date_taken"` // capture time, falls back to upload date

	Author       *string  `gorm:"" json:"author,omitempty"`
	CameraMake   *string  `gorm:"" json:"camera_make,omitempty"`
	CameraModel  *string  `gorm:"" json:"camera_model,omitempty"`
	FocalLength  *float64 `gorm:"" json:"focal_length,omitempty"`  // mm
	FNumber      *float64 `gorm:"" json:"f_number,omitempty"`      // aperture
	ExposureTime *string  `gorm:"" json:"exposure_time,omitempty"` // e.g. "1/125"
	ISO          *int     `gorm:"" json:"iso,omitempty"`

	LocationName *string  `gorm:"" json:"location_name,omitempty"`
	Latitude     *float64 `gorm:"" json:"latitude,omitempty"`
	Longitude    *float64 `gorm:"" json:"longitude,omitempty"`

	// Relationships
	Tags   []Tag    `gorm:"many2many:photo_tags;joinForeignKey:PhotoID;joinReferences:TagName" json:"tags"`
	People []Person `gorm:"many2many:photo_people;joinForeignKey:PhotoID;joinReferences:PersonID" json:"people"`
}

// TableName explicitly sets the table name for GORM.
func (Photo) TableName() string {
	return "photos"
}

// TagNames returns the names of the photo's tags in their loaded order.
func (p Photo) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}
