package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Values come from the environment (optionally seeded from a .env file),
// with defaults suitable for local development.
type Config struct {
	ListenAddr string

	// Audio capture
	FFmpegPath    string // Path to the ffmpeg binary used for microphone capture
	FFplayPath    string // Path to the ffplay binary used for local playback preview
	CaptureDevice string // ALSA/avfoundation device name passed to ffmpeg
	RecordingsDir string // Scratch directory for finished capture files before upload

	// Required songs, in canonical order. Batch submission follows this order,
	// never the order the user happened to record in.
	RequiredSongIDs []string

	// MySQL
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// External analysis service
	AnalysisServiceURL string

	// Auth
	JWTSecret string

	// Logging
	LogLevel  string
	LogOutput string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvList gets a comma-separated environment variable or returns a default list.
func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		FFmpegPath:    getEnv("FFMPEG_PATH", "ffmpeg"),
		FFplayPath:    getEnv("FFPLAY_PATH", "ffplay"),
		CaptureDevice: getEnv("CAPTURE_DEVICE", "default"),
		RecordingsDir: getEnv("RECORDINGS_DIR", "./recordings"),

		RequiredSongIDs: getEnvList("REQUIRED_SONG_IDS", []string{
			"67d06b18000814c6ee7c",
			"67d06c14000fcb6d79d3",
			"67e2bebe0008beaed04b",
		}),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "berkaraoke"),
		DBPassword: getEnv("DB_PASSWORD", "berkaraoke"),
		DBName:     getEnv("DB_NAME", "berkaraoke"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "berkaraoke"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		AnalysisServiceURL: getEnv("ANALYSIS_SERVICE_URL", "http://127.0.0.1:5000"),

		JWTSecret: getEnv("JWT_SECRET", "berkaraoke-dev-secret"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogOutput: getEnv("LOG_OUTPUT", "logs/berkaraoke.log"),
	}
}
