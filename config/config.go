package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

type Config struct {
	Transport string
	Prefix    string
	LogLevel  string
	OwnerID   string

	DownloadDir string
	TempDir     string

	NexOracleAPI string
	NexOracleKey string
	CobaltAPI    string
	CobaltAPIKey string

	YtdlpPath    string
	YtdlpCookies string

	MaxDownloadBytes int64
	MaxVideoDuration time.Duration

	// Telegram
	BotToken   string
	AppID      int
	AppHash    string
	SessionDir string

	// WhatsApp
	WhatsAppDB string
}

func LoadConfig() *Config {
	return &Config{
		Transport:        strings.ToLower(getEnv("TRANSPORT", DefaultTransport)),
		Prefix:           getEnv("BOT_PREFIX", DefaultPrefix),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		OwnerID:          os.Getenv("OWNER_ID"),
		DownloadDir:      getEnv("DOWNLOAD_DIR", DefaultDownloadDir),
		TempDir:          getEnv("TEMP_DIR", filepath.Join(os.TempDir(), DefaultTempDirName)),
		NexOracleAPI:     getEnv("NEXORACLE_API_URL", DefaultNexOracleAPI),
		NexOracleKey:     GetNexOracleKey(),
		CobaltAPI:        GetCobaltAPI(),
		CobaltAPIKey:     os.Getenv("COBALT_API_KEY"),
		YtdlpPath:        getEnv("YTDLP_PATH", "yt-dlp"),
		YtdlpCookies:     os.Getenv("YTDLP_COOKIES"),
		MaxDownloadBytes: int64(getEnvInt("MAX_DOWNLOAD_MB", DefaultMaxDownloadMB)) * 1024 * 1024,
		MaxVideoDuration: time.Duration(getEnvInt("VIDEO_MAX_DURATION", DefaultMaxVideoSeconds)) * time.Second,
		BotToken:         GetBotToken(),
		AppID:            getEnvInt("APP_ID", 0),
		AppHash:          os.Getenv("APP_HASH"),
		SessionDir:       getEnv("SESSION_DIR", "session"),
		WhatsAppDB:       getEnv("WA_DB", DefaultWhatsAppDB),
	}
}

// Validate checks the settings the selected transport cannot start without.
func (c *Config) Validate() error {
	if c.Prefix == "" {
		return errors.New("BOT_PREFIX must not be empty")
	}
	switch c.Transport {
	case TransportTelegram:
		if c.BotToken == "" {
			return errors.New("BOT_TOKEN is not set")
		}
		if c.AppID == 0 || c.AppHash == "" {
			return errors.New("APP_ID and APP_HASH are required for telegram")
		}
	case TransportWhatsApp:
		if c.WhatsAppDB == "" {
			return errors.New("WA_DB must not be empty")
		}
	default:
		return errors.Errorf("unknown transport %q", c.Transport)
	}
	if c.MaxDownloadBytes <= 0 {
		return errors.New("MAX_DOWNLOAD_MB must be positive")
	}
	return nil
}

func GetBotToken() string {
	return os.Getenv("BOT_TOKEN")
}

func GetCobaltAPI() string {
	cobaltAPI := os.Getenv("COBALT_API")
	if cobaltAPI == "" {
		cobaltAPI = "http://cobalt:9000"
	}
	return cobaltAPI
}

// GetNexOracleKey falls back to the public free key when no key is configured.
func GetNexOracleKey() string {
	return getEnv("NEXORACLE_API_KEY", DefaultNexOracleKey)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
