package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jmarc580625/familly-nexus/media"
	"github.com/jmarc580625/familly-nexus/realtime"
	"github.com/jmarc580625/familly-nexus/services"
)

// multipartMemory is the part of a multipart upload kept in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

type PhotoHandler struct {
	Service        *services.PhotoService
	Processor      *media.Processor
	Hub            *realtime.Hub
	MaxUploadBytes int64 // 0 disables the limit
}

// uploadMetadata reads the optional form fields of an upload.
func uploadMetadata(form url.Values) (services.UploadMetadata, error) {
	meta := services.UploadMetadata{
		Title:       form.Get("title"),
		Description: form.Get("description"),
		Tags:        listValues(form, "tags"),
	}

	people, err := parseIDList(listValues(form, "people"), "people")
	if err != nil {
		return meta, err
	}
	meta.People = people

	lat, err := parseFloatValue(form.Get("latitude"), "latitude")
	if err != nil {
		return meta, err
	}
	lng, err := parseFloatValue(form.Get("longitude"), "longitude")
	if err != nil {
		return meta, err
	}
	if (lat == nil) != (lng == nil) {
		return meta, errors.New("latitude and longitude must be provided together")
	}
	name := strings.TrimSpace(form.Get("location_name"))
	if name != "" || lat != nil {
		meta.Location = &services.Location{Name: name, Latitude: lat, Longitude: lng}
	}
	return meta, nil
}

func (ph *PhotoHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if ph.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, ph.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteAPIError(w, http.StatusRequestEntityTooLarge, ErrCodeValidation,
				fmt.Sprintf("Upload exceeds the %d byte limit", tooLarge.Limit))
			return
		}
		writeValidationError(w, "Invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeValidationError(w, "No photo provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Printf("Error reading uploaded file %s: %v", header.Filename, err)
		WriteAPIError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to read uploaded file")
		return
	}

	meta, err := uploadMetadata(url.Values(r.MultipartForm.Value))
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	photo, err := ph.Service.Upload(r.Context(), data, header.Filename, meta)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	ph.Hub.Publish(realtime.EventPhoto, photo.ID, realtime.StatusUploaded)
	writeJSON(w, http.StatusCreated, photo)
}

// ListPhotos filters photos by tags[], people[], start_date, end_date and
// location.
func (ph *PhotoHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var criteria services.PhotoCriteria
	var err error
	criteria.Tags = listValues(query, "tags")
	if criteria.People, err = parseIDList(listValues(query, "people"), "people"); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if criteria.StartDate, err = parseTimeParam(query, "start_date"); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if criteria.EndDate, err = parseTimeParam(query, "end_date"); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	criteria.Location = strings.TrimSpace(query.Get("location"))

	photos, err := ph.Service.Filter(r.Context(), criteria)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, photos)
}

func (ph *PhotoHandler) SearchPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := ph.Service.FreeTextSearch(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, photos)
}

func (ph *PhotoHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := ph.Service.ListTags(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (ph *PhotoHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := parseIDParam(r, "photo_id")
	if err != nil {
		writeValidationError(w, "Invalid photo ID format")
		return
	}

	photo, err := ph.Service.Get(r.Context(), photoID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

func (ph *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := parseIDParam(r, "photo_id")
	if err != nil {
		writeValidationError(w, "Invalid photo ID format")
		return
	}

	if err := ph.Service.Delete(r.Context(), photoID); err != nil {
		writeServiceError(w, err)
		return
	}

	ph.Hub.Publish(realtime.EventPhoto, photoID, realtime.StatusDeleted)
	writeJSON(w, http.StatusOK, map[string]uint{"id": photoID})
}

// GetThumbnail renders a JPEG preview of the stored photo.
func (ph *PhotoHandler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	photoID, err := parseIDParam(r, "photo_id")
	if err != nil {
		writeValidationError(w, "Invalid photo ID format")
		return
	}

	original, _, err := ph.Service.OpenOriginal(r.Context(), photoID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer original.Close()

	var buf bytes.Buffer
	if err := ph.Processor.WriteThumbnail(&buf, original); err != nil {
		log.Printf("Error rendering thumbnail for photo %d: %v", photoID, err)
		WriteAPIError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to render thumbnail")
		return
	}

	w.Header().Set("Content-Type", media.ThumbnailContentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Error writing thumbnail for photo %d: %v", photoID, err)
	}
}
