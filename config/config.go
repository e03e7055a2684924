package config

import (
	"os"
	"strconv"
	"strings"
)

// Config carries everything loaded from the environment at startup.
// godotenv is applied by the caller before Load.
type Config struct {
	MongoURI     string
	MongoDB      string
	CohereAPIKey string
	CohereModel  string

	HashnodeToken         string
	HashnodePublicationID string

	S3Bucket       string
	S3Region       string
	S3Prefix       string
	S3UsePathStyle bool
	CoverImageURL  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string

	CronSchedule string
	APIPort      string
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	return Config{
		MongoURI:     GetEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:      GetEnvOrDefault("MONGODB_DATABASE", "blogbot"),
		CohereAPIKey: os.Getenv("COHERE_API_KEY"),
		CohereModel:  GetEnvOrDefault("COHERE_MODEL", "command-r-08-2024"),

		HashnodeToken:         os.Getenv("HASHNODE_TOKEN"),
		HashnodePublicationID: os.Getenv("HASHNODE_PUBLICATION_ID"),

		S3Bucket:       strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region:       strings.TrimSpace(os.Getenv("S3_REGION")),
		S3Prefix:       GetEnvOrDefault("S3_PREFIX", "covers"),
		S3UsePathStyle: GetEnvBool("S3_USE_PATH_STYLE", false),
		CoverImageURL:  os.Getenv("COVER_IMAGE_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASS"),
		RedisDB:       GetEnvInt("REDIS_DB", 0),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   GetEnvOrDefault("KAFKA_TOPIC", "blogbot.events"),

		CronSchedule: GetEnvOrDefault("CRON_SCHEDULE", "0 9 * * *"),
		APIPort:      GetEnvOrDefault("PORT", "8080"),
	}
}

// GetEnvOrDefault returns the env value or a fallback when unset/empty.
func GetEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetEnvInt parses an integer env value, falling back on parse failure.
func GetEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvBool parses a boolean env value, falling back on parse failure.
func GetEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
