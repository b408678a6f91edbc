package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
	StorageMinio = "minio"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	defaultPort             = "8080"
	defaultDatabaseURL      = "familly_nexus.db"
	defaultThumbnailMaxSize = 300
	defaultMaxUploadSizeMB  = 32
)

type Config struct {
	Port string `yaml:"port"`

	// database
	DatabaseDriver string `yaml:"database_driver"`
	DatabaseURL    string `yaml:"database_url"`
	DBLogLevel     string `yaml:"db_log_level"`

	// media storage
	StorageBackend   string `yaml:"storage_backend"`
	MediaStoragePath string `yaml:"media_storage_path"` // local backend root
	PublicBaseURL    string `yaml:"public_base_url"`    // prefix of local object URLs

	S3 S3Config `yaml:"s3"`

	// thumbnail rendering
	ThumbnailMaxSize int `yaml:"thumbnail_max_size"`

	MaxUploadSizeMB    int      `yaml:"max_upload_size_mb"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// S3Config holds the object store settings shared by the s3 and minio backends.
type S3Config struct {
	Endpoint       string `yaml:"endpoint"`
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	Bucket         string `yaml:"bucket"`
	UseSSL         bool   `yaml:"use_ssl"`
	ForcePathStyle bool   `yaml:"force_path_style"`
}

// MaxUploadBytes converts the upload limit to bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadSizeMB) << 20
}

// DatabaseTarget names the database for log lines. Postgres DSNs are reduced
// to host and database name so credentials are never printed.
func (c Config) DatabaseTarget() string {
	if c.DatabaseDriver != DriverPostgres {
		return c.DatabaseURL
	}
	if u, err := url.Parse(c.DatabaseURL); err == nil && u.Host != "" {
		return u.Host + u.Path
	}
	var host, dbname string
	for _, field := range strings.Fields(c.DatabaseURL) {
		if v, ok := strings.CutPrefix(field, "host="); ok {
			host = v
		} else if v, ok := strings.CutPrefix(field, "dbname="); ok {
			dbname = v
		}
	}
	if host == "" {
		return "(postgres)"
	}
	if dbname != "" {
		return host + "/" + dbname
	}
	return host
}

func defaults() Config {
	return Config{
		Port:             defaultPort,
		DatabaseDriver:   DriverSQLite,
		DatabaseURL:      defaultDatabaseURL,
		DBLogLevel:       "warn",
		StorageBackend:   StorageLocal,
		MediaStoragePath: filepath.Join(".", "media_storage"),
		PublicBaseURL:    "http://localhost:" + defaultPort,
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			AccessKey:      "minioadmin",
			SecretKey:      "minioadmin",
			Bucket:         "family-nexus-photos",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		ThumbnailMaxSize:   defaultThumbnailMaxSize,
		MaxUploadSizeMB:    defaultMaxUploadSizeMB,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvBoolOrDefault(envVar string, defaultVal bool) bool {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s'. Using default %t. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvListOrDefault(envVar string, defaultVal []string) []string {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(valStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// loadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current value.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	return nil
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by CONFIG_FILE and finally the environment.
func LoadConfig() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
		log.Printf("Loaded configuration file %s", path)
	}

	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.DatabaseDriver = strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", cfg.DatabaseDriver))
	cfg.DatabaseURL = getEnvOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.DBLogLevel = getEnvOrDefault("DB_LOG_LEVEL", cfg.DBLogLevel)

	cfg.StorageBackend = strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", cfg.StorageBackend))
	cfg.MediaStoragePath = getEnvOrDefault("MEDIA_STORAGE_PATH", cfg.MediaStoragePath)
	cfg.PublicBaseURL = strings.TrimRight(getEnvOrDefault("PUBLIC_BASE_URL", cfg.PublicBaseURL), "/")

	cfg.S3.Endpoint = getEnvOrDefault("S3_ENDPOINT", cfg.S3.Endpoint)
	cfg.S3.Region = getEnvOrDefault("S3_REGION", cfg.S3.Region)
	cfg.S3.AccessKey = getEnvOrDefault("S3_ACCESS_KEY", cfg.S3.AccessKey)
	cfg.S3.SecretKey = getEnvOrDefault("S3_SECRET_KEY", cfg.S3.SecretKey)
	cfg.S3.Bucket = getEnvOrDefault("S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.UseSSL = getEnvBoolOrDefault("S3_USE_SSL", cfg.S3.UseSSL)
	cfg.S3.ForcePathStyle = getEnvBoolOrDefault("S3_FORCE_PATH_STYLE", cfg.S3.ForcePathStyle)

	cfg.ThumbnailMaxSize = getEnvIntOrDefault("THUMBNAIL_MAX_SIZE", cfg.ThumbnailMaxSize)
	cfg.MaxUploadSizeMB = getEnvIntOrDefault("MAX_UPLOAD_SIZE_MB", cfg.MaxUploadSizeMB)
	cfg.CORSAllowedOrigins = getEnvListOrDefault("CORS_ALLOWED_ORIGINS", cfg.CORSAllowedOrigins)

	if cfg.StorageBackend == StorageLocal {
		absMediaStorage, err := filepath.Abs(cfg.MediaStoragePath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", cfg.MediaStoragePath, err)
		}
		cfg.MediaStoragePath = absMediaStorage
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	switch cfg.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER '%s' (expected %s or %s)", cfg.DatabaseDriver, DriverSQLite, DriverPostgres)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}

	switch cfg.StorageBackend {
	case StorageLocal:
	case StorageS3:
		if cfg.S3.Bucket == "" {
			return fmt.Errorf("storage backend '%s' requires S3_BUCKET", cfg.StorageBackend)
		}
	case StorageMinio:
		if cfg.S3.Bucket == "" || cfg.S3.Endpoint == "" {
			return fmt.Errorf("storage backend '%s' requires S3_ENDPOINT and S3_BUCKET", cfg.StorageBackend)
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND '%s' (expected %s, %s or %s)", cfg.StorageBackend, StorageLocal, StorageS3, StorageMinio)
	}

	if cfg.ThumbnailMaxSize <= 0 {
		return fmt.Errorf("thumbnail_max_size must be positive")
	}
	if cfg.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("max_upload_size_mb must be positive")
	}
	return nil
}
