package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jmarc580625/familly-nexus/database"
	"github.com/jmarc580625/familly-nexus/media"
	"github.com/jmarc580625/familly-nexus/models"
	"github.com/jmarc580625/familly-nexus/repository"
)

// cleanupTimeout bounds the storage delete issued after a failed upload.
const cleanupTimeout = 30 * time.Second

// PhotoCriteria is the photo filter input.
type PhotoCriteria = repository.PhotoCriteria

// Location is a user supplied place for an uploaded photo.
type Location struct {
	Name      string
	Latitude  *float64
	Longitude *float64
}

// UploadMetadata carries the user supplied attributes of an upload. Zero
// values mean "not provided".
type UploadMetadata struct {
	Title       string
	Description string
	Tags        []string
	People      []uint
	Location    *Location
}

// PhotoService implements the photo catalog operations and the upload and
// delete lifecycle across the database and the media store
type PhotoService struct {
	photos    repository.PhotoRepositoryInterface
	tags      repository.TagRepositoryInterface
	store     media.Store
	extractor media.Extractor
	sc        *ServiceContext
}

// NewPhotoService creates a photo service from the shared service context
func NewPhotoService(sc *ServiceContext) *PhotoService {
	return &PhotoService{
		photos:    repository.NewPhotoRepository(sc.DB),
		tags:      repository.NewTagRepository(sc.DB),
		store:     sc.Store,
		extractor: sc.Extractor,
		sc:        sc,
	}
}

// Upload validates and stores the image bytes, then records the photo with
// its tags and people in one transaction. If recording fails the stored
// object is deleted again on a best-effort basis and the recording error is
// returned.
func (s *PhotoService) Upload(ctx context.Context, data []byte, filename string, meta UploadMetadata) (*models.Photo, error) {
	cleanName := media.SanitizeFilename(filename)
	if cleanName == "" || !media.IsAllowedImage(cleanName) {
		return nil, validationError("invalid file type for %q, allowed types: %s", filename, strings.Join(media.AllowedExtensions, ", "))
	}

	extracted := s.extractor.Extract(data)

	key, url, err := s.store.Put(ctx, bytes.NewReader(data), cleanName)
	if err != nil {
		return nil, internalError("failed to store photo", err)
	}

	photo := newPhotoRecord(cleanName, key, url, meta, extracted, s.sc.now())
	if err := s.photos.Create(ctx, photo, normalizeTags(meta.Tags), uniqueIDs(meta.People)); err != nil {
		s.discardObject(ctx, key)
		return nil, internalError("failed to upload photo", err)
	}

	log.Printf("photo service: uploaded photo %d (%s) as %s", photo.ID, cleanName, key)
	return photo, nil
}

// discardObject removes an object whose record could not be written. Failures
// are logged and never replace the original error.
func (s *PhotoService) discardObject(ctx context.Context, key string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("photo service: cleanup of %s panicked: %v", key, r)
		}
	}()

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := s.store.Delete(cleanupCtx, key); err != nil {
		log.Printf("photo service: failed to clean up orphaned object %s: %v", key, err)
		return
	}
	log.Printf("photo service: cleaned up orphaned object %s", key)
}

func newPhotoRecord(filename, key, url string, meta UploadMetadata, extracted media.Metadata, now time.Time) *models.Photo {
	photo := &models.Photo{
		FileName:     filename,
		StorageKey:   key,
		URL:          url,
		Title:        filename,
		UploadDate:   now,
		DateTaken:    now,
		Author:       extracted.Author,
		CameraMake:   extracted.CameraMake,
		CameraModel:  extracted.CameraModel,
		FocalLength:  extracted.FocalLength,
		FNumber:      extracted.FNumber,
		ExposureTime: extracted.ExposureTime,
		ISO:          extracted.ISO,
		Latitude:     extracted.Latitude,
		Longitude:    extracted.Longitude,
	}

	if title := strings.TrimSpace(meta.Title); title != "" {
		photo.Title = title
	}
	if desc := strings.TrimSpace(meta.Description); desc != "" {
		photo.Description = &desc
	}
	if extracted.TakenAt != nil {
		photo.DateTaken = extracted.TakenAt.UTC()
	}

	if loc := meta.Location; loc != nil {
		if name := strings.TrimSpace(loc.Name); name != "" {
			photo.LocationName = &name
		}
		if loc.Latitude != nil && loc.Longitude != nil {
			photo.Latitude = loc.Latitude
			photo.Longitude = loc.Longitude
		}
	}
	return photo
}

// normalizeTags trims names, drops blanks and collapses duplicates while
// keeping the first-seen order.
func normalizeTags(names []string) []string {
	seen := make(map[string]bool, len(names))
	tags := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tags = append(tags, name)
	}
	return tags
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Get returns the photo with its tags and people
func (s *PhotoService) Get(ctx context.Context, id uint) (*models.Photo, error) {
	photo, err := s.photos.GetByID(ctx, id)
	if err != nil {
		return nil, photoLookupError(id, err)
	}
	return photo, nil
}

// Filter returns the photos matching all supplied criteria, newest capture
// first
func (s *PhotoService) Filter(ctx context.Context, criteria PhotoCriteria) ([]models.Photo, error) {
	criteria.Tags = normalizeTags(criteria.Tags)
	criteria.People = uniqueIDs(criteria.People)
	photos, err := s.photos.Filter(ctx, criteria)
	if err != nil {
		return nil, internalError("failed to filter photos", err)
	}
	return photos, nil
}

// FreeTextSearch matches whitespace separated terms against photo text,
// tag names and the names of the people in the photo. A blank query returns
// no results.
func (s *PhotoService) FreeTextSearch(ctx context.Context, query string) ([]models.Photo, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return []models.Photo{}, nil
	}
	photos, err := s.photos.SearchText(ctx, terms, database.SearchResultLimit)
	if err != nil {
		return nil, internalError("failed to search photos", err)
	}
	return photos, nil
}

// Delete removes the stored object and then the record. When the object
// cannot be removed the record is kept so the photo stays reachable.
func (s *PhotoService) Delete(ctx context.Context, id uint) error {
	photo, err := s.photos.GetByID(ctx, id)
	if err != nil {
		return photoLookupError(id, err)
	}

	if err := s.store.Delete(ctx, photo.StorageKey); err != nil {
		return internalError(fmt.Sprintf("failed to delete stored object for photo %d", id), err)
	}

	if err := s.photos.Delete(ctx, id); err != nil {
		return photoLookupError(id, err)
	}
	log.Printf("photo service: deleted photo %d (%s)", id, photo.StorageKey)
	return nil
}

// ListTags returns every tag name in ascending order
func (s *PhotoService) ListTags(ctx context.Context) ([]string, error) {
	names, err := s.tags.ListNames(ctx)
	if err != nil {
		return nil, internalError("failed to list tags", err)
	}
	return names, nil
}

// OpenOriginal streams the stored object of a photo. The caller closes the
// reader.
func (s *PhotoService) OpenOriginal(ctx context.Context, id uint) (io.ReadCloser, *models.Photo, error) {
	photo, err := s.photos.GetByID(ctx, id)
	if err != nil {
		return nil, nil, photoLookupError(id, err)
	}

	rc, err := s.store.Get(ctx, photo.StorageKey)
	if err != nil {
		if errors.Is(err, media.ErrObjectNotFound) {
			return nil, nil, notFoundError("stored object for photo %d not found", id)
		}
		return nil, nil, internalError(fmt.Sprintf("failed to open stored object for photo %d", id), err)
	}
	return rc, photo, nil
}

func photoLookupError(id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError("photo %d not found", id)
	}
	return internalError(fmt.Sprintf("failed to access photo %d", id), err)
}
