package config

import "time"

const (
	TransportWhatsApp = "whatsapp"
	TransportTelegram = "telegram"

	DefaultTransport   = TransportWhatsApp
	DefaultPrefix      = "."
	DefaultDownloadDir = "./downloads"
	DefaultTempDirName = "aether-fetch"
	DefaultWhatsAppDB  = "file:aether.db?_foreign_keys=on"

	DefaultNexOracleAPI = "https://api.nexoracle.com/downloader/apk"
	DefaultNexOracleKey = "free_key@maher_apis"

	DefaultMaxDownloadMB   = 200
	DefaultMaxVideoSeconds = 7200
)

const (
	SearchTimeout   = 30 * time.Second
	APITimeout      = 15 * time.Second
	BufferTimeout   = 60 * time.Second
	StreamTimeout   = 10 * time.Minute
	TempFileTTL     = 10 * time.Second
	JanitorInterval = 30 * time.Minute
	JanitorMaxAge   = time.Hour

	DefaultRetryLimit = 2
	DefaultRetryDelay = time.Second

	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120 Safari/537.36"
)
