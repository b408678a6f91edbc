package handlers

import (
	"log"
	"net/http"

	"gorm.io/gorm"

	"github.com/jmarc580625/familly-nexus/database"
)

type SystemHandler struct {
	DB *gorm.DB
}

// Health reports whether the catalog database is reachable.
func (sh *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := database.Ping(sh.DB.WithContext(r.Context())); err != nil {
		log.Printf("Health check failed: %v", err)
		WriteAPIError(w, http.StatusServiceUnavailable, ErrCodeInternal, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
