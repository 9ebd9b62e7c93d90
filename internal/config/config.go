package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	MigrationsDir   string
	AllowOrigins    []string
	LogstashTCPAddr string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	QueueName     string
	TaskName      string

	UploadDir      string
	MaxUploadBytes int64

	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinIOBucketReports string

	ProgressChunkSize int
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	redisDB := 0
	if v, err := strconv.Atoi(getenv("REDIS_DB", "0")); err == nil && v >= 0 {
		redisDB = v
	}

	maxUpload := int64(50 * 1024 * 1024)
	if v, err := strconv.ParseInt(getenv("MAX_UPLOAD_BYTES", "52428800"), 10, 64); err == nil && v > 0 {
		maxUpload = v
	}

	chunk := 250
	if v, err := strconv.Atoi(getenv("PROGRESS_CHUNK_SIZE", "250")); err == nil && v > 0 {
		chunk = v
	}

	return Config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     must("DATABASE_URL"),
		MigrationsDir:   getenv("MIGRATIONS_DIR", "migrations"),
		AllowOrigins:    splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),

		RedisAddr:     must("REDIS_ADDR"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		QueueName:     getenv("QUEUE_NAME", "celery"),
		TaskName:      getenv("TASK_NAME", "process_listings_report"),

		UploadDir:      getenv("UPLOAD_DIR", "./uploads"),
		MaxUploadBytes: maxUpload,

		MinIOEndpoint:      getenv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:     getenv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:     getenv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:        getenv("MINIO_USE_SSL", "false") == "true",
		MinIOBucketReports: getenv("MINIO_BUCKET_REPORTS", "seller-reports"),

		ProgressChunkSize: chunk,
	}
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
