package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/jmarc580625/familly-nexus/media"
)

// ServiceContext bundles the process-wide handles the catalog services need.
// It is built once at startup and handed to each service constructor.
type ServiceContext struct {
	DB        *gorm.DB
	Store     media.Store
	Extractor media.Extractor

	// Now returns the current time; tests may pin it.
	Now func() time.Time
}

// NewServiceContext creates a context using the wall clock
func NewServiceContext(db *gorm.DB, store media.Store, extractor media.Extractor) *ServiceContext {
	return &ServiceContext{
		DB:        db,
		Store:     store,
		Extractor: extractor,
		Now:       time.Now,
	}
}

// now returns the current UTC time at the microsecond precision both
// database drivers keep.
func (sc *ServiceContext) now() time.Time {
	clock := sc.Now
	if clock == nil {
		clock = time.Now
	}
	return clock().UTC().Truncate(time.Microsecond)
}
