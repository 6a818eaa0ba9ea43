package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/alertrelay/internal/domain"
)

const DefaultGraphBase = "https://graph.facebook.com/v18.0"

type Config struct {
	Addr           string // API bind address, e.g. ":5000"
	LogDir         string
	UploadDir      string // recordings are written here while an alert is in flight
	MaxUploadBytes int64
	AllowedOrigins []string

	WhatsApp        domain.Credentials
	GraphBaseURL    string
	ProviderTimeout time.Duration

	TranscodeEnabled bool
	FFmpegPath       string
	TranscodeTimeout time.Duration

	DatabaseURL    string // empty means in-memory history
	HistoryAPIKeys []string

	SendRPM   int // per-IP limit on /send-alert, 0 disables
	SendBurst int
}

func FromEnv() Config {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":5000"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}

	graphBase := strings.TrimRight(os.Getenv("WHATSAPP_API_BASE"), "/")
	if graphBase == "" {
		graphBase = DefaultGraphBase
	}

	ffmpeg := os.Getenv("FFMPEG_PATH")
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}

	transcode, _ := strconv.ParseBool(os.Getenv("TRANSCODE_ENABLED"))

	return Config{
		Addr:           addr,
		LogDir:         logDir,
		UploadDir:      uploadDir,
		MaxUploadBytes: int64(intEnv("MAX_UPLOAD_BYTES", 50<<20, 1)),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),

		WhatsApp: domain.Credentials{
			PhoneNumberID: strings.TrimSpace(os.Getenv("WHATSAPP_PHONE_NUMBER_ID")),
			AccessToken:   strings.TrimSpace(os.Getenv("WHATSAPP_ACCESS_TOKEN")),
			Recipient:     strings.TrimSpace(os.Getenv("WHATSAPP_RECIPIENT_NUMBER")),
		},
		GraphBaseURL:    graphBase,
		ProviderTimeout: msEnv("PROVIDER_TIMEOUT_MS", 15*time.Second),

		TranscodeEnabled: transcode,
		FFmpegPath:       ffmpeg,
		TranscodeTimeout: msEnv("TRANSCODE_TIMEOUT_MS", 30*time.Second),

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		HistoryAPIKeys: splitList(os.Getenv("HISTORY_API_KEYS")),

		SendRPM:   intEnv("SEND_RPM", 30, 0),
		SendBurst: intEnv("SEND_BURST", 10, 1),
	}
}

// intEnv falls back to def when the variable is unset, malformed or below floor.
func intEnv(key string, def, floor int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= floor {
			return n
		}
	}
	return def
}

func msEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
