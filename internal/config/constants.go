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

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Abandonment sweep settings
const (
	FollowUpSweepInterval = 10 * time.Minute
	FollowUpIdleThreshold = 3 * time.Hour
)

// Conversation history fed to the assistant
const (
	HistoryWindow   = 24 * time.Hour
	HistoryMaxTurns = 50
)

// Tenant resolution cache TTL
const TenantCacheTTL = 15 * time.Minute

// Default rate limiting for the webhook route
const DefaultWebhookRateLimitPerMin = 120
