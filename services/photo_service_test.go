package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmarc580625/familly-nexus/database"
	"github.com/jmarc580625/familly-nexus/media"
	"github.com/jmarc580625/familly-nexus/models"
)

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	env := newTestEnv(t)

	for _, name := range []string{"photo.exe", "archive.tar.gz", "noext", "../../.png", ""} {
		_, err := env.photos.Upload(context.Background(), []byte("MZ"), name, UploadMetadata{})
		requireKind(t, err, KindValidation)
	}
	assert.Zero(t, env.store.puts)

	var count int64
	require.NoError(t, env.db.Model(&models.Photo{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUploadRecordsPhoto(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann := env.createPerson(t, "Ann", "Martin", nil)

	photo, err := env.photos.Upload(ctx, []byte("jpeg"), "../holiday pics/Beach Day.JPG", UploadMetadata{
		Description: "sunny",
		Tags:        []string{"beach", " beach ", "", "Summer"},
		People:      []uint{ann.ID, 9999, ann.ID},
	})
	require.NoError(t, err)
	require.NotZero(t, photo.ID)

	assert.Equal(t, "Beach_Day.JPG", photo.FileName)
	assert.Equal(t, "Beach_Day.JPG", photo.Title)
	assert.True(t, strings.HasPrefix(photo.StorageKey, "photos/"))
	assert.True(t, strings.HasSuffix(photo.StorageKey, ".jpg"))
	assert.True(t, env.store.has(photo.StorageKey))
	assert.True(t, fixedNow.Equal(photo.UploadDate))
	assert.True(t, fixedNow.Equal(photo.DateTaken), "date_taken falls back to upload time")

	got, err := env.photos.Get(ctx, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Summer", "beach"}, got.TagNames())
	assert.Equal(t, []uint{ann.ID}, personIDs(got.People))
	require.NotNil(t, got.Description)
	assert.Equal(t, "sunny", *got.Description)
	assert.Equal(t, photo.URL, got.URL)
}

func TestUploadUsesExtractedMetadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	taken := time.Date(1998, 8, 14, 16, 30, 0, 0, time.UTC)
	env.extractor.meta = media.Metadata{
		TakenAt:     &taken,
		CameraMake:  ptr("Canon"),
		ISO:         ptr(200),
		Latitude:    ptr(48.85),
		Longitude:   ptr(2.35),
		FocalLength: ptr(35.0),
	}

	photo, err := env.photos.Upload(ctx, []byte("jpeg"), "wedding.jpeg", UploadMetadata{Title: "Wedding"})
	require.NoError(t, err)

	got, err := env.photos.Get(ctx, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wedding", got.Title)
	assert.True(t, taken.Equal(got.DateTaken))
	assert.Equal(t, "Canon", *got.CameraMake)
	assert.Equal(t, 200, *got.ISO)
	assert.InDelta(t, 48.85, *got.Latitude, 1e-9)
	assert.InDelta(t, 2.35, *got.Longitude, 1e-9)
	assert.Nil(t, got.LocationName)

	withPlace, err := env.photos.Upload(ctx, []byte("jpeg"), "wedding2.jpeg", UploadMetadata{
		Location: &Location{Name: "Lyon", Latitude: ptr(45.76), Longitude: ptr(4.83)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Lyon", *withPlace.LocationName)
	assert.InDelta(t, 45.76, *withPlace.Latitude, 1e-9)
}

func TestUploadCleansUpWhenRecordFails(t *testing.T) {
	env := newTestEnv(t)
	boom := errors.New("disk full")
	failPhotoInserts(t, env.db, boom)

	_, err := env.photos.Upload(context.Background(), []byte("png"), "a.png", UploadMetadata{Tags: []string{"x"}})
	requireKind(t, err, KindInternal)
	assert.True(t, errors.Is(err, boom))

	require.Equal(t, 1, env.store.puts)
	require.Len(t, env.store.deleted, 1)
	assert.False(t, env.store.has(env.store.deleted[0]))

	var photos, tags int64
	require.NoError(t, env.db.Model(&models.Photo{}).Count(&photos).Error)
	require.NoError(t, env.db.Model(&models.Tag{}).Count(&tags).Error)
	assert.Zero(t, photos)
	assert.Zero(t, tags, "tag creation is rolled back with the photo")
}

func TestUploadKeepsOriginalErrorWhenCleanupFails(t *testing.T) {
	env := newTestEnv(t)
	boom := errors.New("constraint violated")
	failPhotoInserts(t, env.db, boom)
	env.store.deleteErr = errors.New("storage offline")

	_, err := env.photos.Upload(context.Background(), []byte("gif"), "a.gif", UploadMetadata{})
	requireKind(t, err, KindInternal)
	assert.True(t, errors.Is(err, boom))
	assert.NotContains(t, err.Error(), "storage offline")
	assert.Len(t, env.store.deleted, 1)
}

func TestUploadStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.putErr = errors.New("bucket missing")

	_, err := env.photos.Upload(context.Background(), []byte("png"), "a.png", UploadMetadata{})
	requireKind(t, err, KindInternal)
	assert.Empty(t, env.store.deleted)
}

func TestDeletePhoto(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann := env.createPerson(t, "Ann", "Martin", nil)
	photo := env.upload(t, "a.jpg", fixedNow, UploadMetadata{Tags: []string{"family"}, People: []uint{ann.ID}})

	require.NoError(t, env.photos.Delete(ctx, photo.ID))
	assert.Equal(t, []string{photo.StorageKey}, env.store.deleted)
	assert.False(t, env.store.has(photo.StorageKey))

	_, err := env.photos.Get(ctx, photo.ID)
	requireKind(t, err, KindNotFound)

	tags, err := env.photos.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"family"}, tags, "tags outlive their photos")

	_, err = env.people.Get(ctx, ann.ID)
	require.NoError(t, err)

	err = env.photos.Delete(ctx, photo.ID)
	requireKind(t, err, KindNotFound)
}

func TestDeletePhotoKeepsRecordWhenStorageFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	photo := env.upload(t, "a.jpg", fixedNow, UploadMetadata{})
	env.store.deleteErr = errors.New("storage offline")

	err := env.photos.Delete(ctx, photo.ID)
	requireKind(t, err, KindInternal)

	got, err := env.photos.Get(ctx, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, photo.StorageKey, got.StorageKey)
}

func TestFilterPhotos(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann := env.createPerson(t, "Ann", "Martin", nil)
	bob := env.createPerson(t, "Bob", "Martin", nil)
	day := func(d int) time.Time { return time.Date(2020, 1, d, 10, 0, 0, 0, time.UTC) }

	p1 := env.upload(t, "1.jpg", day(1), UploadMetadata{Tags: []string{"beach", "summer"}, People: []uint{ann.ID},
		Location: &Location{Name: "Saint-Malo Beach"}})
	p2 := env.upload(t, "2.jpg", day(2), UploadMetadata{Tags: []string{"beach"}, People: []uint{bob.ID}})
	p3 := env.upload(t, "3.jpg", day(3), UploadMetadata{Tags: []string{"summer"}, Location: &Location{Name: "Paris"}})

	all, err := env.photos.Filter(ctx, PhotoCriteria{})
	require.NoError(t, err)
	assert.Equal(t, []uint{p3.ID, p2.ID, p1.ID}, photoIDs(all))

	both, err := env.photos.Filter(ctx, PhotoCriteria{Tags: []string{"beach", "summer"}})
	require.NoError(t, err)
	assert.Equal(t, []uint{p1.ID}, photoIDs(both))

	beach, err := env.photos.Filter(ctx, PhotoCriteria{Tags: []string{"beach", "beach"}})
	require.NoError(t, err)
	assert.Equal(t, []uint{p2.ID, p1.ID}, photoIDs(beach))

	caseSensitive, err := env.photos.Filter(ctx, PhotoCriteria{Tags: []string{"Beach"}})
	require.NoError(t, err)
	assert.Empty(t, caseSensitive)

	anyPerson, err := env.photos.Filter(ctx, PhotoCriteria{People: []uint{ann.ID, bob.ID}})
	require.NoError(t, err)
	assert.Equal(t, []uint{p2.ID, p1.ID}, photoIDs(anyPerson))

	tagAndPerson, err := env.photos.Filter(ctx, PhotoCriteria{Tags: []string{"beach"}, People: []uint{ann.ID}})
	require.NoError(t, err)
	assert.Equal(t, []uint{p1.ID}, photoIDs(tagAndPerson))

	start, end := day(2), day(3)
	inRange, err := env.photos.Filter(ctx, PhotoCriteria{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, []uint{p3.ID, p2.ID}, photoIDs(inRange))

	byLocation, err := env.photos.Filter(ctx, PhotoCriteria{Location: "beach"})
	require.NoError(t, err)
	assert.Equal(t, []uint{p1.ID}, photoIDs(byLocation))

	none, err := env.photos.Filter(ctx, PhotoCriteria{Tags: []string{"winter"}})
	require.NoError(t, err)
	require.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPhotoFreeTextSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann := env.createPerson(t, "Ann", "Dubois", nil)
	day := func(d int) time.Time { return time.Date(2021, 3, d, 9, 0, 0, 0, time.UTC) }

	byTitle := env.upload(t, "1.jpg", day(1), UploadMetadata{Title: "Christmas Dinner"})
	byTag := env.upload(t, "2.jpg", day(2), UploadMetadata{Tags: []string{"Reunion"}})
	byPerson := env.upload(t, "3.jpg", day(3), UploadMetadata{People: []uint{ann.ID}})
	env.upload(t, "4.jpg", day(4), UploadMetadata{Title: "Garden"})

	blank, err := env.photos.FreeTextSearch(ctx, "\t ")
	require.NoError(t, err)
	require.NotNil(t, blank)
	assert.Empty(t, blank)

	titles, err := env.photos.FreeTextSearch(ctx, "CHRISTMAS")
	require.NoError(t, err)
	assert.Equal(t, []uint{byTitle.ID}, photoIDs(titles))

	tags, err := env.photos.FreeTextSearch(ctx, "reunion")
	require.NoError(t, err)
	assert.Equal(t, []uint{byTag.ID}, photoIDs(tags))

	people, err := env.photos.FreeTextSearch(ctx, "dubois")
	require.NoError(t, err)
	assert.Equal(t, []uint{byPerson.ID}, photoIDs(people))

	anyTerm, err := env.photos.FreeTextSearch(ctx, "dubois christmas reunion")
	require.NoError(t, err)
	assert.Equal(t, []uint{byPerson.ID, byTag.ID, byTitle.ID}, photoIDs(anyTerm))
}

func TestListTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	empty, err := env.photos.ListTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	env.upload(t, "1.jpg", fixedNow, UploadMetadata{Tags: []string{"wedding", "alps"}})
	env.upload(t, "2.jpg", fixedNow, UploadMetadata{Tags: []string{"beach", "alps"}})

	tags, err := env.photos.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alps", "beach", "wedding"}, tags)
}

func TestOpenOriginal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	photo := env.upload(t, "1.jpg", fixedNow, UploadMetadata{})

	rc, got, err := env.photos.OpenOriginal(ctx, photo.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "image bytes of 1.jpg", string(data))
	assert.Equal(t, photo.ID, got.ID)

	_, _, err = env.photos.OpenOriginal(ctx, 999)
	requireKind(t, err, KindNotFound)
}

func TestDeletingPersonKeepsPhotos(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann := env.createPerson(t, "Ann", "Martin", nil)
	photo := env.upload(t, "1.jpg", fixedNow, UploadMetadata{People: []uint{ann.ID}})

	require.NoError(t, env.people.Delete(ctx, ann.ID))

	got, err := env.photos.Get(ctx, photo.ID)
	require.NoError(t, err)
	assert.Empty(t, got.People)
}

func TestPhotoSearchAccentedTerms(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	elodie := env.createPerson(t, "Élodie", "Lefèvre", nil)
	taken := time.Date(2019, 12, 25, 18, 0, 0, 0, time.UTC)

	noel := env.upload(t, "noel.jpg", taken, UploadMetadata{
		Title:    "Noël",
		People:   []uint{elodie.ID},
		Location: &Location{Name: "Évian"},
	})
	env.upload(t, "other.jpg", taken.Add(time.Hour), UploadMetadata{Title: "Evian beach"})

	for _, query := range []string{"Noël", "noël", "Évian", "Élodie", "Lefèvre"} {
		found, err := env.photos.FreeTextSearch(ctx, query)
		require.NoError(t, err)
		assert.Equal(t, []uint{noel.ID}, photoIDs(found), "query %q", query)
	}

	for _, location := range []string{"Évian", "ÉVIAN"} {
		filtered, err := env.photos.Filter(ctx, PhotoCriteria{Location: location})
		require.NoError(t, err)
		assert.Equal(t, []uint{noel.ID}, photoIDs(filtered), "location %q", location)
	}
}

func TestPhotoFreeTextSearchIsCapped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	var uploaded []uint
	for i := 0; i < database.SearchResultLimit+5; i++ {
		p := env.upload(t, fmt.Sprintf("%02d.jpg", i), start.Add(time.Duration(i)*time.Hour), UploadMetadata{
			Title: "Holiday",
			Tags:  []string{"holiday"},
		})
		uploaded = append(uploaded, p.ID)
	}

	var want []uint
	for i := len(uploaded) - 1; len(want) < database.SearchResultLimit; i-- {
		want = append(want, uploaded[i])
	}

	found, err := env.photos.FreeTextSearch(ctx, "holiday")
	require.NoError(t, err)
	require.Len(t, found, database.SearchResultLimit)
	assert.Equal(t, want, photoIDs(found), "newest first, each photo once")
}
