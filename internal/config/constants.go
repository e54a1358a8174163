package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Request body limits. Avatar uploads get the configured avatar size plus multipart overhead.
const (
	DefaultBodyLimit      = 1 << 20
	MultipartOverhead     = 64 << 10
	MultipartMemoryBuffer = 1 << 20
)

// Login throttling window
const LoginRateWindow = time.Minute

// Credentials
const (
	MinPasswordLength      = 6
	MaxPasswordBytes       = 72
	TemporaryPasswordBytes = 12
	PlaceholderEmailDomain = "temp-client.com"
)
