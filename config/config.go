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
	AppPort            string
	JWTSecret          string
	RateLimitPerMinute int
	AllowedOrigins     []string
	AdminUsernames     []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis for caching and the notification job queue
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// SMTP for reply notification emails
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      bool
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Attachment uploads
	UploadDir       string
	UploadMaxSizeMB int
	// Notification pipeline
	NotifyQueueKey      string
	NotifyDeadLetterKey string
	NotifyMaxAttempts   int
	NotifyBackoffSec    int
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

// loadJSONConfig reads the JSON file into out if present. Returns an error
// only for invalid JSON; a missing file is silently ignored.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if s, ok := m[key].(string); ok {
			return s
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		switch t := m[key].(type) {
		case float64:
			return int(t)
		case int:
			return t
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		if b, ok := m[key].(bool); ok {
			return b
		}
		return false
	}
	getStringSlice := func(m map[string]any, key string) []string {
		arr, ok := m[key].([]any)
		if !ok {
			return nil
		}
		res := make([]string, 0, len(arr))
		for _, it := range arr {
			if s, ok := it.(string); ok {
				res = append(res, s)
			}
		}
		return res
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		if v := getInt(app, "RateLimitPerMinute"); v != 0 {
			out.RateLimitPerMinute = v
		}
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
		if list := getStringSlice(app, "AdminUsernames"); len(list) > 0 {
			out.AdminUsernames = list
		}
	}

	if g, ok := raw["gin"].(map[string]any); ok {
		if v := getString(g, "Mode"); v != "" {
			out.GinMode = v
		}
		if v := getString(g, "LogPath"); v != "" {
			out.GinPath = v
		}
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rds, "RedisHost")
		if v := getInt(rds, "RedisPort"); v != 0 {
			out.RedisPort = v
		}
		if v := getInt(rds, "RedisDB"); v != 0 {
			out.RedisDB = v
		}
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if sm, ok := raw["smtp"].(map[string]any); ok {
		out.SMTPHost = getString(sm, "SMTPHost")
		if v := getInt(sm, "SMTPPort"); v != 0 {
			out.SMTPPort = v
		}
		out.SMTPUsername = getString(sm, "SMTPUsername")
		out.SMTPPassword = getString(sm, "SMTPPassword")
		out.SMTPFrom = getString(sm, "SMTPFrom")
		out.SMTPFromName = getString(sm, "SMTPFromName")
		out.SMTPTLS = getBool(sm, "SMTPTLS")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		if v := getString(lg, "Level"); v != "" {
			out.LogLevel = v
		}
		if v := getString(lg, "Path"); v != "" {
			out.LogPath = v
		}
		if v := getInt(lg, "MaxSizeMB"); v != 0 {
			out.LogMaxSizeMB = v
		}
		if v := getInt(lg, "MaxBackups"); v != 0 {
			out.LogMaxBackups = v
		}
		if v := getInt(lg, "MaxAgeDays"); v != 0 {
			out.LogMaxAgeDays = v
		}
		out.LogCompress = getBool(lg, "Compress")
	}

	if up, ok := raw["uploads"].(map[string]any); ok {
		if v := getString(up, "Dir"); v != "" {
			out.UploadDir = v
		}
		if v := getInt(up, "MaxSizeMB"); v != 0 {
			out.UploadMaxSizeMB = v
		}
	}

	if nt, ok := raw["notify"].(map[string]any); ok {
		if v := getString(nt, "QueueKey"); v != "" {
			out.NotifyQueueKey = v
		}
		if v := getString(nt, "DeadLetterKey"); v != "" {
			out.NotifyDeadLetterKey = v
		}
		if v := getInt(nt, "MaxAttempts"); v != 0 {
			out.NotifyMaxAttempts = v
		}
		if v := getInt(nt, "BackoffSec"); v != 0 {
			out.NotifyBackoffSec = v
		}
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
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
		c.DBName = "comments"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = 587
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
	if c.UploadDir == "" {
		c.UploadDir = filepath.Join(".", "static", "uploads")
	}
	if c.UploadMaxSizeMB == 0 {
		c.UploadMaxSizeMB = 50
	}
	if c.NotifyQueueKey == "" {
		c.NotifyQueueKey = "notify:email:queue"
	}
	if c.NotifyDeadLetterKey == "" {
		c.NotifyDeadLetterKey = "notify:email:dead"
	}
	if c.NotifyMaxAttempts == 0 {
		c.NotifyMaxAttempts = 3
	}
	if c.NotifyBackoffSec == 0 {
		c.NotifyBackoffSec = 2
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			*dst = mustParseInt(v)
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = v == "true"
		}
	}

	setString("APP_PORT", &c.AppPort)
	setString("JWT_SECRET", &c.JWTSecret)
	setString("GIN_MODE", &c.GinMode)
	setString("GIN_PATH", &c.GinPath)
	setInt("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("ADMIN_USERNAMES"); v != "" {
		c.AdminUsernames = splitAndTrim(v)
	}

	setString("DATABASE_URI", &c.DatabaseURI)
	setString("DB_HOST", &c.DBHost)
	setString("DB_PORT", &c.DBPort)
	setString("DB_USER", &c.DBUser)
	setString("DB_PASSWORD", &c.DBPassword)
	setString("DB_NAME", &c.DBName)

	setString("REDIS_HOST", &c.RedisHost)
	setInt("REDIS_PORT", &c.RedisPort)
	setInt("REDIS_DB", &c.RedisDB)
	setString("REDIS_PASSWORD", &c.RedisPassword)

	setString("SMTP_HOST", &c.SMTPHost)
	setInt("SMTP_PORT", &c.SMTPPort)
	setString("SMTP_USERNAME", &c.SMTPUsername)
	setString("SMTP_PASSWORD", &c.SMTPPassword)
	setString("SMTP_FROM", &c.SMTPFrom)
	setString("SMTP_FROM_NAME", &c.SMTPFromName)
	setBool("SMTP_TLS", &c.SMTPTLS)

	setString("LOG_LEVEL", &c.LogLevel)
	setString("LOG_PATH", &c.LogPath)
	setInt("LOG_MAX_SIZE_MB", &c.LogMaxSizeMB)
	setInt("LOG_MAX_BACKUPS", &c.LogMaxBackups)
	setInt("LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays)
	setBool("LOG_COMPRESS", &c.LogCompress)

	setString("UPLOAD_DIR", &c.UploadDir)
	setInt("UPLOAD_MAX_SIZE_MB", &c.UploadMaxSizeMB)

	setString("NOTIFY_QUEUE_KEY", &c.NotifyQueueKey)
	setString("NOTIFY_DEAD_LETTER_KEY", &c.NotifyDeadLetterKey)
	setInt("NOTIFY_MAX_ATTEMPTS", &c.NotifyMaxAttempts)
	setInt("NOTIFY_BACKOFF_SEC", &c.NotifyBackoffSec)
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
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
