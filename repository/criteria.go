package repository

import (
	"time"

	"gorm.io/datatypes"
)

// PersonCriteria holds the structured person search parameters. Nil fields
// are not applied; date bounds are inclusive.
type PersonCriteria struct {
	BirthDateStart *datatypes.Date
	BirthDateEnd   *datatypes.Date
	DeathDateStart *datatypes.Date
	DeathDateEnd   *datatypes.Date
	Living         *bool
	RelatedTo      *uint // accepted but not evaluated: relationships are not modelled
}

// PhotoCriteria holds the photo filter parameters. Empty or nil fields are
// not applied; all applied fields must hold (AND).
type PhotoCriteria struct {
	Tags      []string // photo must carry every tag
	People    []uint   // photo must include at least one of these people
	StartDate *time.Time
	EndDate   *time.Time
	Location  string // case-insensitive substring of location_name
}
