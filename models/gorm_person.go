package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// DateLayout is the calendar date format used for birth and death dates.
const DateLayout = "2006-01-02"

// Person represents a member of the family using GORM.
// It corresponds to the 'people' table.
type Person struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName   string          `gorm:"not null;index:idx_people_name,priority:1" json:"first_name"`
	LastName    string          `gorm:"not null;index:idx_people_name,priority:2" json:"last_name"`
	BirthDate   *datatypes.Date `gorm:"index" json:"birth_date"`
	DeathDate   *datatypes.Date `gorm:"index" json:"death_date"`
	Description *string         `gorm:"" json:"description"`
}

// TableName explicitly sets the table name for GORM.
func (Person) TableName() string {
	return "people"
}

// Living reports whether no death date is recorded.
func (p Person) Living() bool {
	return p.DeathDate == nil
}

// MarshalJSON renders dates as YYYY-MM-DD instead of full timestamps.
func (p Person) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          uint    `json:"id"`
		FirstName   string  `json:"first_name"`
		LastName    string  `json:"last_name"`
		BirthDate   *string `json:"birth_date"`
		DeathDate   *string `json:"death_date"`
		Description *string `json:"description"`
	}{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		BirthDate:   FormatDate(p.BirthDate),
		DeathDate:   FormatDate(p.DeathDate),
		Description: p.Description,
	})
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(value string) (datatypes.Date, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}

// FormatDate renders an optional date, nil stays nil.
func FormatDate(d *datatypes.Date) *string {
	if d == nil {
		return nil
	}
	s := time.Time(*d).Format(DateLayout)
	return &s
}
