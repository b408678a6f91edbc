package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"github.com/jmarc580625/familly-nexus/media"
	"github.com/jmarc580625/familly-nexus/realtime"
	"github.com/jmarc580625/familly-nexus/services"
)

// RouterDeps holds everything the HTTP API is built from.
type RouterDeps struct {
	DB             *gorm.DB
	People         *services.PersonService
	Photos         *services.PhotoService
	Processor      *media.Processor
	Hub            *realtime.Hub
	AllowedOrigins []string
	MaxUploadBytes int64
	// MediaDir is served under /api/media/* when set (local storage only).
	MediaDir string
}

// NewRouter wires the middleware stack and every /api route.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	personHandler := &PersonHandler{Service: deps.People, Hub: deps.Hub}
	photoHandler := &PhotoHandler{
		Service:        deps.Photos,
		Processor:      deps.Processor,
		Hub:            deps.Hub,
		MaxUploadBytes: deps.MaxUploadBytes,
	}
	systemHandler := &SystemHandler{DB: deps.DB}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", systemHandler.Health)

		r.Route("/persons", func(r chi.Router) {
			r.Post("/", personHandler.CreatePerson)
			r.Get("/", personHandler.ListPeople)
			r.Get("/search", personHandler.SearchPeople)
			r.Route("/{person_id}", func(r chi.Router) {
				r.Get("/", personHandler.GetPerson)
				r.Put("/", personHandler.UpdatePerson)
				r.Delete("/", personHandler.DeletePerson)
			})
		})

		r.Route("/photos", func(r chi.Router) {
			r.Post("/", photoHandler.UploadPhoto)
			r.Get("/", photoHandler.ListPhotos)
			r.Get("/search", photoHandler.SearchPhotos)
			r.Get("/tags", photoHandler.ListTags)
			r.Route("/{photo_id}", func(r chi.Router) {
				r.Get("/", photoHandler.GetPhoto)
				r.Delete("/", photoHandler.DeletePhoto)
				r.Get("/thumbnail", photoHandler.GetThumbnail)
			})
		})

		if deps.MediaDir != "" {
			r.Get("/media/*", AssetServer(deps.MediaDir))
		}
		if deps.Hub != nil {
			r.Get("/ws", deps.Hub.ServeWS)
		}
	})

	return r
}
