// Package constants defines application-wide constants for timeouts, limits, and durations.
package constants

import "time"

// Time-related constants
const (
	// DefaultTimeout is the default timeout for most operations
	DefaultTimeout = 30 * time.Second

	// WebSocketPingInterval is the interval for WebSocket ping/pong
	WebSocketPingInterval = 60 * time.Second

	// WebSocketWriteTimeout bounds a single frame write to a client
	WebSocketWriteTimeout = 10 * time.Second

	// GracefulShutdownTimeout is the timeout for graceful server shutdown
	GracefulShutdownTimeout = 30 * time.Second
)

// Call lifecycle constants
const (
	// CallRingTimeout is how long an unanswered call may ring before it is swept to missed
	CallRingTimeout = 45 * time.Second

	// CallSweepInterval is how often the background sweeper scans for stale calls
	CallSweepInterval = 10 * time.Second
)

// Presence constants
const (
	// PresenceTTL is the Redis TTL on a user's presence key; heartbeats refresh it
	PresenceTTL = 5 * time.Minute
)

// JWT-related constants
const (
	// AccessTokenExpiry is the default access token lifetime
	AccessTokenExpiry = 15 * time.Minute

	// RefreshTokenExpiry is the default refresh token lifetime
	RefreshTokenExpiry = 30 * 24 * time.Hour
)

// Storage constants
const (
	// PresignedURLExpiry is the validity period for presigned attachment URLs
	PresignedURLExpiry = 15 * time.Minute
)

// Pagination constants
const (
	// DefaultPageSize is the default number of items per page
	DefaultPageSize = 20

	// MaxPageSize is the maximum number of items per page
	MaxPageSize = 100
)
