package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided
// via the config file or the environment.
type AppConfig struct {
	AppPort   string
	JWTSecret string
	GinMode   string

	// Admin display names. Any session asserting one of these names gets
	// moderation rights; the names are not authenticated.
	AdminUsers []string

	// Store selection: "memory" (ephemeral, per process) or "mysql".
	StoreDriver string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	// Redis read cache; disabled when RedisHost is empty.
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	AllowedOrigins []string

	// Image blob storage: "local" or "s3". An empty driver disables uploads;
	// posts without images keep working.
	StorageDriver    string
	UploadDir        string
	UploadTTLMinutes int
	S3Endpoint       string
	S3Region         string
	S3AccessKey      string
	S3SecretKey      string
	S3Bucket         string
	S3PublicURL      string

	// Logging configuration
	LogLevel      string
	LogPath       string
	GinPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during
// boot. Precedence: config/config.json -> defaults -> environment overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads the JSON file into cfg if present. Returns an error
// only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw struct {
		AppPort          string   `json:"app_port"`
		JWTSecret        string   `json:"jwt_secret"`
		GinMode          string   `json:"gin_mode"`
		AdminUsers       []string `json:"admin_users"`
		StoreDriver      string   `json:"store_driver"`
		DatabaseURI      string   `json:"database_uri"`
		DBHost           string   `json:"db_host"`
		DBPort           string   `json:"db_port"`
		DBUser           string   `json:"db_user"`
		DBPassword       string   `json:"db_password"`
		DBName           string   `json:"db_name"`
		RedisHost        string   `json:"redis_host"`
		RedisPort        int      `json:"redis_port"`
		RedisDB          int      `json:"redis_db"`
		RedisPassword    string   `json:"redis_password"`
		AllowedOrigins   []string `json:"allowed_origins"`
		StorageDriver    string   `json:"storage_driver"`
		UploadDir        string   `json:"upload_dir"`
		UploadTTLMinutes int      `json:"upload_ttl_minutes"`
		S3Endpoint       string   `json:"s3_endpoint"`
		S3Region         string   `json:"s3_region"`
		S3AccessKey      string   `json:"s3_access_key"`
		S3SecretKey      string   `json:"s3_secret_key"`
		S3Bucket         string   `json:"s3_bucket"`
		S3PublicURL      string   `json:"s3_public_url"`
		LogLevel         string   `json:"log_level"`
		LogPath          string   `json:"log_path"`
		GinPath          string   `json:"gin_path"`
		LogMaxSizeMB     int      `json:"log_max_size_mb"`
		LogMaxBackups    int      `json:"log_max_backups"`
		LogMaxAgeDays    int      `json:"log_max_age_days"`
		LogCompress      bool     `json:"log_compress"`
	}
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	out.AppPort = raw.AppPort
	out.JWTSecret = raw.JWTSecret
	out.GinMode = raw.GinMode
	out.AdminUsers = raw.AdminUsers
	out.StoreDriver = raw.StoreDriver
	out.DatabaseURI = raw.DatabaseURI
	out.DBHost = raw.DBHost
	out.DBPort = raw.DBPort
	out.DBUser = raw.DBUser
	out.DBPassword = raw.DBPassword
	out.DBName = raw.DBName
	out.RedisHost = raw.RedisHost
	out.RedisPort = raw.RedisPort
	out.RedisDB = raw.RedisDB
	out.RedisPassword = raw.RedisPassword
	out.AllowedOrigins = raw.AllowedOrigins
	out.StorageDriver = raw.StorageDriver
	out.UploadDir = raw.UploadDir
	out.UploadTTLMinutes = raw.UploadTTLMinutes
	out.S3Endpoint = raw.S3Endpoint
	out.S3Region = raw.S3Region
	out.S3AccessKey = raw.S3AccessKey
	out.S3SecretKey = raw.S3SecretKey
	out.S3Bucket = raw.S3Bucket
	out.S3PublicURL = raw.S3PublicURL
	out.LogLevel = raw.LogLevel
	out.LogPath = raw.LogPath
	out.GinPath = raw.GinPath
	out.LogMaxSizeMB = raw.LogMaxSizeMB
	out.LogMaxBackups = raw.LogMaxBackups
	out.LogMaxAgeDays = raw.LogMaxAgeDays
	out.LogCompress = raw.LogCompress
	return nil
}

func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if len(c.AdminUsers) == 0 {
		c.AdminUsers = []string{"Arfaa", "Sanny"}
	}
	if c.StoreDriver == "" {
		c.StoreDriver = "memory"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "minifeed"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.StorageDriver == "" {
		c.StorageDriver = "local"
	}
	if c.UploadDir == "" {
		c.UploadDir = filepath.Join(".", "static", "uploads")
	}
	if c.UploadTTLMinutes == 0 {
		c.UploadTTLMinutes = 60
	}
	if c.S3Region == "" {
		c.S3Region = "us-east-1"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("ADMIN_USERS", ""); v != "" {
		c.AdminUsers = readListEnv("ADMIN_USERS", c.AdminUsers)
	}
	if v := getEnv("STORE_DRIVER", ""); v != "" {
		c.StoreDriver = v
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = readListEnv("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	}
	if v := getEnv("STORAGE_DRIVER", ""); v != "" {
		c.StorageDriver = v
	}
	if v := getEnv("UPLOAD_DIR", ""); v != "" {
		c.UploadDir = v
	}
	if v := getEnv("UPLOAD_TTL_MINUTES", ""); v != "" {
		c.UploadTTLMinutes = mustParseInt(v)
	}
	if v := getEnv("S3_ENDPOINT", ""); v != "" {
		c.S3Endpoint = v
	}
	if v := getEnv("S3_REGION", ""); v != "" {
		c.S3Region = v
	}
	if v := getEnv("S3_ACCESS_KEY", ""); v != "" {
		c.S3AccessKey = v
	}
	if v := getEnv("S3_SECRET_KEY", ""); v != "" {
		c.S3SecretKey = v
	}
	if v := getEnv("S3_BUCKET", ""); v != "" {
		c.S3Bucket = v
	}
	if v := getEnv("S3_PUBLIC_URL", ""); v != "" {
		c.S3PublicURL = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
