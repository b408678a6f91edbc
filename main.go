package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jmarc580625/familly-nexus/config"
	"github.com/jmarc580625/familly-nexus/database"
	"github.com/jmarc580625/familly-nexus/handlers"
	"github.com/jmarc580625/familly-nexus/media"
	"github.com/jmarc580625/familly-nexus/realtime"
	"github.com/jmarc580625/familly-nexus/services"
)

// newStore builds the media store selected by the configuration. The second
// return value is the directory to serve under /api/media, empty for remote
// backends.
func newStore(ctx context.Context, cfg config.Config) (media.Store, string, error) {
	s3cfg := media.S3Config{
		Endpoint:       cfg.S3.Endpoint,
		Region:         cfg.S3.Region,
		AccessKey:      cfg.S3.AccessKey,
		SecretKey:      cfg.S3.SecretKey,
		Bucket:         cfg.S3.Bucket,
		UseSSL:         cfg.S3.UseSSL,
		ForcePathStyle: cfg.S3.ForcePathStyle,
	}

	switch cfg.StorageBackend {
	case config.StorageS3:
		store, err := media.NewS3Storage(ctx, s3cfg)
		return store, "", err
	case config.StorageMinio:
		store, err := media.NewMinioStorage(ctx, s3cfg)
		return store, "", err
	default:
		store, err := media.NewLocalStorage(cfg.MediaStoragePath, cfg.PublicBaseURL+"/api/media")
		if err != nil {
			return nil, "", err
		}
		return store, store.BasePath(), nil
	}
}

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitGormDB(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}

	store, mediaDir, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize media store (%s): %v", cfg.StorageBackend, err)
	}

	sc := services.NewServiceContext(db, store, media.NewExifExtractor())

	hub := realtime.NewHub()
	go hub.Run(ctx)

	router := handlers.NewRouter(handlers.RouterDeps{
		DB:             db,
		People:         services.NewPersonService(sc),
		Photos:         services.NewPhotoService(sc),
		Processor:      media.NewProcessor(cfg.ThumbnailMaxSize),
		Hub:            hub,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		MediaDir:       mediaDir,
	})

	log.Printf("Using database: %s (%s)", cfg.DatabaseTarget(), cfg.DatabaseDriver)
	log.Printf("Using storage backend: %s", cfg.StorageBackend)
	log.Printf("Thumbnail max size (longest side): %dpx", cfg.ThumbnailMaxSize)

	serverAddr := ":" + cfg.Port
	fmt.Printf("Server starting on http://localhost:%s\n", cfg.Port)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}
