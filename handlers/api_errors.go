package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/jmarc580625/familly-nexus/services"
)

// Error codes carried in the response envelope.
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeInternal   = "INTERNAL_ERROR"
)

// APIErrorDetail describes a failed request.
type APIErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success   bool            `json:"success"`
	Timestamp string          `json:"timestamp"`
	Data      interface{}     `json:"data,omitempty"`
	Error     *APIErrorDetail `json:"error,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, resp APIResponse) {
	resp.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// writeJSON writes a successful response wrapping data.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	writeEnvelope(w, status, APIResponse{Success: true, Data: data})
}

// WriteAPIError writes a failed response with the given HTTP status, code, and message.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, message string) {
	writeEnvelope(w, httpStatus, APIResponse{
		Success: false,
		Error:   &APIErrorDetail{Code: code, Message: message},
	})
}

// writeServiceError maps a service error kind onto the HTTP response.
func writeServiceError(w http.ResponseWriter, err error) {
	switch services.KindOf(err) {
	case services.KindValidation:
		WriteAPIError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case services.KindNotFound:
		WriteAPIError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	default:
		log.Printf("Internal error: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

func writeValidationError(w http.ResponseWriter, message string) {
	WriteAPIError(w, http.StatusBadRequest, ErrCodeValidation, message)
}
