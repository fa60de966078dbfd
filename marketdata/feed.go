package marketdata

import (
	"context"
	"log/slog"
	"math"
	"net/url"
	"os"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/xid"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger replaces the package-level logger used by ExchangeFeed.
func SetLogger(l *slog.Logger) {
	logger = l
}

// ConnectionState is a subscriber's position in the Disconnected ->
// Connecting -> Connected -> (on error) -> Disconnected cycle; cancellation
// drives it to the terminal Closed state.
type ConnectionState int32

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Closed
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// ExchangeFeed runs the ticker and depth subscribers against a Binance-
// compatible combined stream, writing parsed updates into a Store. Both
// subscribers reconnect independently on stream-level failure; a single
// message-level parse error is logged and dropped without tearing down the
// connection.
type ExchangeFeed struct {
	store *Store
	cfg   FeedConfig

	tickerState atomic.Int32
	depthState  atomic.Int32

	dialer *websocket.Dialer
	now    func() time.Time
}

// NewExchangeFeed creates a feed that writes into store using cfg.
func NewExchangeFeed(store *Store, cfg FeedConfig) *ExchangeFeed {
	return &ExchangeFeed{
		store:  store,
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		now:    time.Now,
	}
}

// TickerState returns the ticker subscriber's current connection state.
func (f *ExchangeFeed) TickerState() ConnectionState {
	return ConnectionState(f.tickerState.Load())
}

// DepthState returns the depth subscriber's current connection state.
func (f *ExchangeFeed) DepthState() ConnectionState {
	return ConnectionState(f.depthState.Load())
}

// RunTicker connects to the configured symbols' ticker stream and feeds
// parsed (symbol, last, bid, ask) updates into the store until ctx is
// cancelled. It reconnects on stream-level failure with capped exponential
// backoff and terminates within one suspension cycle of cancellation.
func (f *ExchangeFeed) RunTicker(ctx context.Context) {
	f.run(ctx, &f.tickerState, tickerStreamURL(f.cfg.Symbols), "ticker", func(msg []byte, connID string) {
		symbol, last, bid, ask, err := parseTickerMessage(msg)
		if err != nil {
			logger.Warn("ticker message dropped", "conn_id", connID, "error", err)
			return
		}
		f.store.UpdateTicker(symbol, last, bid, ask, f.now())
	})
}

// RunDepth connects to the configured symbols' depth stream and feeds
// normalized top-N bid/ask levels into the store until ctx is cancelled.
// Reconnect and idle-timeout behavior mirror RunTicker.
func (f *ExchangeFeed) RunDepth(ctx context.Context) {
	f.run(ctx, &f.depthState, depthStreamURL(f.cfg.Symbols, f.cfg.DepthLevels), "depth", func(msg []byte, connID string) {
		symbol, bids, asks, err := parseDepthMessage(msg)
		if err != nil {
			logger.Warn("depth message dropped", "conn_id", connID, "error", err)
			return
		}
		f.store.UpdateDepth(symbol, bids, asks, f.now())
	})
}

// run is the shared reconnect-loop skeleton for both subscribers: dial,
// read until a connection-level error or idle timeout, then back off and
// retry. It terminates as soon as ctx is cancelled.
func (f *ExchangeFeed) run(ctx context.Context, state *atomic.Int32, streamURL, kind string, handle func(msg []byte, connID string)) {
	attempt := 0

	for {
		if ctx.Err() != nil {
			state.Store(int32(Closed))
			return
		}

		state.Store(int32(Connecting))
		connID := xid.New().String()

		conn, _, err := f.dialer.DialContext(ctx, streamURL, nil)
		if err != nil {
			state.Store(int32(Disconnected))
			logger.Error("connect failed", "stream", kind, "conn_id", connID, "url", redactURL(streamURL), "error", err)
			if !f.sleepBackoff(ctx, attempt) {
				state.Store(int32(Closed))
				return
			}
			attempt++
			continue
		}

		logger.Info("connected", "stream", kind, "conn_id", connID)
		state.Store(int32(Connected))
		attempt = 0

		if err := f.readLoop(ctx, conn, connID, handle); err != nil {
			logger.Warn("connection closed", "stream", kind, "conn_id", connID, "error", err)
		}
		_ = conn.Close()
		state.Store(int32(Disconnected))

		if ctx.Err() != nil {
			state.Store(int32(Closed))
			return
		}

		if !f.sleepBackoff(ctx, attempt) {
			state.Store(int32(Closed))
			return
		}
		attempt++
	}
}

// readLoop blocks on ReadMessage, enforcing the configured idle timeout on
// every iteration, until ctx is cancelled or a connection-level error (or
// idle timeout) occurs. Message-level parse errors are handled by handle
// and never break the loop.
func (f *ExchangeFeed) readLoop(ctx context.Context, conn *websocket.Conn, connID string, handle func(msg []byte, connID string)) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		if f.cfg.IdleTimeout > 0 {
			if err := conn.SetReadDeadline(f.now().Add(f.cfg.IdleTimeout)); err != nil {
				return err
			}
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		handle(msg, connID)
	}
}

// sleepBackoff waits ReconnectDelay*2^attempt (capped at MaxReconnectDelay)
// before the next dial attempt, returning false if ctx is cancelled first.
func (f *ExchangeFeed) sleepBackoff(ctx context.Context, attempt int) bool {
	base := f.cfg.ReconnectDelay
	if base <= 0 {
		base = 5 * time.Second
	}
	maxDelay := f.cfg.MaxReconnectDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if delay > maxDelay {
		delay = maxDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	return u.String()
}
