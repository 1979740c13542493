package bot

import (
	"time"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Long polling timeout in seconds
	UpdateTimeout int
	// Maximum number of problems shown by /list and /due
	ListLimit int
	// Maximum number of review events shown by /history
	HistoryLimit int
	// Time allowed for a hint request
	HintTimeout time.Duration
	// Time allowed to download and import an uploaded file
	ImportTimeout time.Duration
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		UpdateTimeout: 60,
		ListLimit:     30,
		HistoryLimit:  10,
		HintTimeout:   30 * time.Second,
		ImportTimeout: 2 * time.Minute,
	}
}
