package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Server struct {
	Port           string
	Store          string
	MongoURI       string
	MongoDatabase  string
	SecretKey      string
	TokenTTL       time.Duration
	CORSOrigins    []string
	VideoBucket    string
	S3Endpoint     string
	S3Region       string
	S3Key          string
	S3Secret       string
	VideoPublicURL string
	VideoDir       string
	InferenceURL   string
	MaxVideoBytes  int64
}

type Client struct {
	BaseURL         string
	FallbackURL     string
	Timeout         time.Duration
	SessionDir      string
	LenientEnvelope bool
}

// LoadEnv reads a .env file when one exists. A missing file is not an error.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		log.Printf("Error loading .env file: %v", err)
	}
}

func LoadServer() Server {
	LoadEnv()

	return Server{
		Port:           getString("PORT", "8080"),
		Store:          strings.ToLower(getString("STORE", "mongo")),
		MongoURI:       getString("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getString("MONGODB_DATABASE", "golang-rehabdb"),
		SecretKey:      os.Getenv("SECRET_KEY"),
		TokenTTL:       time.Duration(getInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		CORSOrigins:    getList("CORS_ORIGINS", []string{"*"}),
		VideoBucket:    os.Getenv("VIDEO_BUCKET"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3Region:       getString("S3_REGION", "us-east-1"),
		S3Key:          os.Getenv("S3_KEY"),
		S3Secret:       os.Getenv("S3_SECRET"),
		VideoPublicURL: os.Getenv("VIDEO_PUBLIC_URL"),
		VideoDir:       getString("VIDEO_DIR", "videos"),
		InferenceURL:   os.Getenv("INFERENCE_URL"),
		MaxVideoBytes:  int64(getInt("MAX_VIDEO_MB", 50)) << 20,
	}
}

func LoadClient() Client {
	LoadEnv()

	sessionDir := os.Getenv("REHAB_SESSION_DIR")
	if sessionDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			sessionDir = filepath.Join(home, ".rehabtrack")
		} else {
			sessionDir = ".rehabtrack"
		}
	}

	return Client{
		BaseURL:         strings.TrimRight(getString("REHAB_API_URL", "http://localhost:8080/api/v1"), "/"),
		FallbackURL:     strings.TrimRight(os.Getenv("REHAB_FALLBACK_URL"), "/"),
		Timeout:         getDuration("REHAB_TIMEOUT", 10*time.Second),
		SessionDir:      sessionDir,
		LenientEnvelope: getBool("REHAB_LENIENT_ENVELOPE", false),
	}
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

// getDuration accepts Go duration strings ("15s") or a bare number of milliseconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
