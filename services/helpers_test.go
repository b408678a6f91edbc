package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jmarc580625/familly-nexus/database"
	"github.com/jmarc580625/familly-nexus/media"
	"github.com/jmarc580625/familly-nexus/models"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	puts      int
	deleted   []string
	putErr    error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Put(ctx context.Context, data io.Reader, originalFilename string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return "", "", f.putErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", "", err
	}
	key := media.NewObjectKey(originalFilename)
	f.objects[key] = b
	return key, "http://objects.test/" + key, nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[key]
	if !ok {
		return nil, media.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

type fakeExtractor struct {
	meta media.Metadata
}

func (f *fakeExtractor) Extract(data []byte) media.Metadata {
	return f.meta
}

type testEnv struct {
	db        *gorm.DB
	store     *fakeStore
	extractor *fakeExtractor
	people    *PersonService
	photos    *PhotoService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitGormDB(database.DriverSQLite, filepath.Join(t.TempDir(), "catalog.db"), "silent")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	store := newFakeStore()
	extractor := &fakeExtractor{}

	sc := NewServiceContext(db, store, extractor)
	sc.Now = func() time.Time { return fixedNow }

	return &testEnv{
		db:        db,
		store:     store,
		extractor: extractor,
		people:    NewPersonService(sc),
		photos:    NewPhotoService(sc),
	}
}

func (e *testEnv) createPerson(t *testing.T, first, last string, extra PersonFields) *models.Person {
	t.Helper()
	fields := PersonFields{"first_name": first, "last_name": last}
	for k, v := range extra {
		fields[k] = v
	}
	person, err := e.people.Create(context.Background(), fields)
	require.NoError(t, err)
	return person
}

// upload stores a photo whose extracted capture time is takenAt.
func (e *testEnv) upload(t *testing.T, name string, takenAt time.Time, meta UploadMetadata) *models.Photo {
	t.Helper()
	e.extractor.meta = media.Metadata{TakenAt: &takenAt}
	photo, err := e.photos.Upload(context.Background(), []byte("image bytes of "+name), name, meta)
	require.NoError(t, err)
	return photo
}

// failPhotoInserts makes every insert into the photos table fail with err.
func failPhotoInserts(t *testing.T, db *gorm.DB, err error) {
	t.Helper()
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_photo_insert", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "photos" {
			tx.AddError(err)
		}
	}))
}

func photoIDs(photos []models.Photo) []uint {
	ids := make([]uint, 0, len(photos))
	for _, p := range photos {
		ids = append(ids, p.ID)
	}
	return ids
}

func personIDs(people []models.Person) []uint {
	ids := make([]uint, 0, len(people))
	for _, p := range people {
		ids = append(ids, p.ID)
	}
	return ids
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	var se *Error
	require.True(t, errors.As(err, &se), "expected *services.Error, got %T: %v", err, err)
	require.Equal(t, kind, se.Kind, "unexpected kind for %v", err)
}

func ptr[T any](v T) *T { return &v }
