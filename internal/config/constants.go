package config

import "time"

const (
	// Session name bounds, in characters after trimming
	SessionNameMin = 3
	SessionNameMax = 50

	// Free-text limits, in characters
	DescriptionMaxLen = 100
	PersonNameMaxLen  = 50

	// Telegram limits
	MaxTelegramMessageLen = 4096

	// Pause between broadcast messages
	BroadcastDelay = 50 * time.Millisecond

	// Rate limits (per minute)
	RateLimitRegular = 30
	RateLimitAdmin   = 120

	// Handler timeout for a single update
	RequestTimeout = 30 * time.Second

	// Sessions shown in the list keyboard
	SessionsPerPage = 10

	// Rows shown by list commands before truncation
	ListLimit = 30
)
