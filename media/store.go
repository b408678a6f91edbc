package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrObjectNotFound indicates that no object is stored under the requested key.
var ErrObjectNotFound = errors.New("media.store: object not found")

// Store defines the interface for saving, retrieving, and deleting photo
// objects
type Store interface {
	// Put stores the data under a freshly generated key derived from the
	// original filename and returns the key and its public URL
	Put(ctx context.Context, data io.Reader, originalFilename string) (key string, url string, err error)
	// Get retrieves a reader for a stored object
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes an object; a missing key is not an error
	Delete(ctx context.Context, key string) error
}

// NewObjectKey returns a unique key of the form photos/<uuid><ext>, keeping
// the lower-cased extension of the original filename.
func NewObjectKey(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	return path.Join(ObjectKeyPrefix, uuid.NewString()+ext)
}

// ObjectKeyPrefix is the key namespace photos are stored under.
const ObjectKeyPrefix = "photos"

// LocalStorage implements the Store interface using the local filesystem
type LocalStorage struct {
	basePath  string // absolute path to the MEDIA_STORAGE_PATH
	publicURL string // URL prefix objects are served under
}

// NewLocalStorage creates a new local filesystem store. Objects are served by
// the asset server under publicURL.
func NewLocalStorage(basePath, publicURL string) (*LocalStorage, error) {
	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base storage path '%s': %w", basePath, err)
	}

	if err := os.MkdirAll(absBasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory '%s': %w", absBasePath, err)
	}

	log.Printf("media.store: Initialized LocalStorage at %s", absBasePath)
	return &LocalStorage{
		basePath:  absBasePath,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// BasePath returns the absolute root directory of the store.
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// Put writes data to a new file under the base path
func (ls *LocalStorage) Put(ctx context.Context, data io.Reader, originalFilename string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	key := NewObjectKey(originalFilename)
	fullSavePath, err := ls.GetFullPath(key)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullSavePath), 0755); err != nil {
		return "", "", fmt.Errorf("failed to create directory for '%s': %w", key, err)
	}

	outFile, err := os.Create(fullSavePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create destination file '%s': %w", fullSavePath, err)
	}

	if _, err := io.Copy(outFile, data); err != nil {
		outFile.Close()
		os.Remove(fullSavePath)
		return "", "", fmt.Errorf("failed to write data to '%s': %w", fullSavePath, err)
	}
	if err := outFile.Close(); err != nil {
		os.Remove(fullSavePath)
		return "", "", fmt.Errorf("failed to close '%s': %w", fullSavePath, err)
	}

	log.Printf("media.store: Saved %s as %s", originalFilename, key)
	return key, ls.publicURL + "/" + key, nil
}

// Get opens a stored object for reading
func (ls *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := ls.GetFullPath(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open object '%s': %w", key, err)
	}
	return file, nil
}

// Delete removes an object file
func (ls *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := ls.GetFullPath(key)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) { // Ignore "not exist" errors
		return fmt.Errorf("failed to delete object '%s': %w", key, err)
	}
	if err == nil {
		log.Printf("media.store: Deleted %s", key)
	}
	return nil
}

// GetFullPath calculates the absolute path of a key and performs a security
// check against escaping the base path
func (ls *LocalStorage) GetFullPath(key string) (string, error) {
	cleanKey := filepath.Clean(filepath.FromSlash(key))
	absFullPath, err := filepath.Abs(filepath.Join(ls.basePath, cleanKey))
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", key, err)
	}

	if !strings.HasPrefix(absFullPath, ls.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path: access denied for '%s'", key)
	}
	return absFullPath, nil
}
