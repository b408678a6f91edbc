package models

import "time"

// Tag is a free-form label attached to photos. The name is the key and is
// matched exactly, including case.
type Tag struct {
	Name      string    `gorm:"primaryKey;size:100" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// TableName explicitly sets the table name for GORM.
func (Tag) TableName() string {
	return "tags"
}
