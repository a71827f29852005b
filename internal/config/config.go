package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var modelsYAML []byte

// DefaultModel is the embedding model assumed when EMBEDDING_MODEL is unset.
const DefaultModel = "dlib"

type Config struct {
	Storage   StorageConfig
	Database  DatabaseConfig
	Embedding EmbeddingConfig
	Matching  MatchingConfig
	Web       WebConfig
	Log       LogConfig
	Models    ModelsConfig
}

type StorageConfig struct {
	Backend      string // file, sqlite or postgres (default file)
	DataDir      string // base directory for relative file paths (default ".")
	IdentityFile string // gob-encoded identity store (default face_data.gob)
	HistoryFile  string // full attendance history CSV (default attendance.csv)
	TodayFile    string // daily attendance view CSV (default today.csv)
	SQLitePath   string // SQLite database file (default attendance.db)
}

// Path resolves name against DataDir unless it is already absolute.
func (c *StorageConfig) Path(name string) string {
	if filepath.IsAbs(name) || c.DataDir == "" {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 10)
	MaxIdleConns int    // Maximum idle connections (default 2)
}

type EmbeddingConfig struct {
	URL          string // defaults to http://localhost:8000
	Model        string // profile name from models.yaml (default dlib)
	Dim          int    // expected embedding length, 0 disables the check
	MaxImageSize int    // longest side sent to the embedding server (default 1600)
}

type MatchingConfig struct {
	Metric             string  // euclidean or cosine
	EnrollThreshold    float64 // duplicate-face threshold for enrollment
	RecognizeThreshold float64 // recognition threshold for attendance
	Timezone           string  // IANA zone used for attendance dates (default local)
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // CORS origins besides localhost, from WEB_ALLOWED_ORIGINS
}

type LogConfig struct {
	Level  string
	Format string
}

type ModelsConfig struct {
	Models map[string]ModelProfile `yaml:"models"`
}

// ModelProfile describes the distance space of an embedding model.
type ModelProfile struct {
	Metric             string  `yaml:"metric"`
	Dim                int     `yaml:"dim"`
	EnrollThreshold    float64 `yaml:"enroll_threshold"`
	RecognizeThreshold float64 `yaml:"recognize_threshold"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a non-negative float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return f
	}
	return defaultVal
}

// envString returns the env var value or defaultVal when it is unset or empty.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated env var, dropping empty items.
func envList(key string) []string {
	var items []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Load reads the configuration from the environment and the embedded model profiles.
func Load() *Config {
	var models ModelsConfig
	if err := yaml.Unmarshal(modelsYAML, &models); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded models.yaml: " + err.Error())
	}

	cfg := &Config{
		Storage: StorageConfig{
			Backend:      envString("STORAGE_BACKEND", "file"),
			DataDir:      envString("DATA_DIR", "."),
			IdentityFile: envString("IDENTITY_FILE", "face_data.gob"),
			HistoryFile:  envString("ATTENDANCE_FILE", "attendance.csv"),
			TodayFile:    envString("TODAY_FILE", "today.csv"),
			SQLitePath:   envString("SQLITE_PATH", "attendance.db"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 2),
		},
		Embedding: EmbeddingConfig{
			URL:          os.Getenv("EMBEDDING_URL"),
			Model:        envString("EMBEDDING_MODEL", DefaultModel),
			MaxImageSize: envInt("EMBEDDING_MAX_IMAGE_SIZE", 1600),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "console"),
		},
		Models: models,
	}

	profile := cfg.ModelProfile(cfg.Embedding.Model)
	cfg.Embedding.Dim = envInt("EMBEDDING_DIM", profile.Dim)
	cfg.Matching = MatchingConfig{
		Metric:             envString("MATCH_METRIC", profile.Metric),
		EnrollThreshold:    envFloat("ENROLL_THRESHOLD", profile.EnrollThreshold),
		RecognizeThreshold: envFloat("RECOGNIZE_THRESHOLD", profile.RecognizeThreshold),
		Timezone:           os.Getenv("ATTENDANCE_TIMEZONE"),
	}

	return cfg
}

// ModelProfile returns the profile for a model, falling back to the default model.
func (c *Config) ModelProfile(name string) ModelProfile {
	if profile, ok := c.Models.Models[name]; ok {
		return profile
	}
	if profile, ok := c.Models.Models[DefaultModel]; ok {
		return profile
	}
	return ModelProfile{Metric: "euclidean", EnrollThreshold: 0.4, RecognizeThreshold: 0.4}
}
