package marketdata

import "time"

// FeedConfig configures one ExchangeFeed. Symbols must be uppercase pairs
// (e.g. "BTCUSDT"); the feed lowercases them itself when building stream
// URLs, per Binance's convention.
type FeedConfig struct {
	Symbols []string

	// DepthLevels selects the depth stream variant: 5, 10, or 20.
	DepthLevels int

	// ReconnectDelay is the fixed delay between reconnect attempts.
	// Exponential backoff is layered on top of this as a multiplier, up to
	// MaxReconnectDelay.
	ReconnectDelay time.Duration

	// MaxReconnectDelay caps the exponential backoff applied on repeated
	// consecutive failures.
	MaxReconnectDelay time.Duration

	// IdleTimeout is the application-level idle timeout enforced on the
	// read loop: if no message arrives within this window, the subscriber
	// forces a reconnect.
	IdleTimeout time.Duration
}

// DefaultFeedConfig returns a FeedConfig for symbols with a fixed 5-second
// base reconnect delay, exponential backoff capped at ~30s, and a
// 30-second idle timeout.
func DefaultFeedConfig(symbols ...string) FeedConfig {
	return FeedConfig{
		Symbols:           symbols,
		DepthLevels:       10,
		ReconnectDelay:    5 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}
