package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	BlobDriver      string // fs|minio
	BlobBasePath    string // for fs
	MinIOEndpoint   string
	MinIOAccessKey  string
	MinIOSecretKey  string
	MinIOBucket     string
	MinIOUseSSL     bool
	TextbooksPrefix string

	AuthHMACSecret string
	AccessTokenTTL time.Duration // 0 uses the auth service default
	AdminEmail     string // bootstrap admin, created at startup when set
	AdminPassword  string

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	OllamaBaseURL string
	OllamaModel   string
	OllamaTimeout time.Duration

	QuestionBankPath string
	ExamRetention    time.Duration

	AMQPURL      string
	AMQPExchange string
}

// Load reads .env (if present) into the environment, then builds the config.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: .env: %v", err)
	}
	return FromEnv()
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:      mode,
		HTTPAddr:  envOr("HTTP_ADDR", ":8080"),
		PublicURL: os.Getenv("PUBLIC_URL"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		BlobDriver:      envOr("BLOB_DRIVER", "fs"),
		BlobBasePath:    envOr("BLOB_BASE_PATH", "./data"),
		MinIOEndpoint:   envOr("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey:  os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:  os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:     envOr("MINIO_BUCKET", "studyhub"),
		MinIOUseSSL:     envBool("MINIO_USE_SSL", mode == ModeOnline),
		TextbooksPrefix: envOr("TEXTBOOKS_PREFIX", "textbooks"),

		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "dev-secret-change-me"),
		AccessTokenTTL: time.Duration(envInt("ACCESS_TOKEN_TTL_MIN", 0)) * time.Minute,
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://study.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),

		OllamaBaseURL: strings.TrimSuffix(envOr("OLLAMA_BASE_URL", "http://localhost:11434"), "/"),
		OllamaModel:   envOr("OLLAMA_MODEL", "llama3.2"),
		OllamaTimeout: time.Duration(envInt("OLLAMA_TIMEOUT_SEC", 120)) * time.Second,

		QuestionBankPath: os.Getenv("QUESTION_BANK_PATH"),
		ExamRetention:    time.Duration(envInt("EXAM_TTL_MIN", 60)) * time.Minute,

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: envOr("AMQP_EXCHANGE", "studyhub.events"),
	}
}

// CORSOrigins returns the allow-list for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
