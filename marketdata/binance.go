package marketdata

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	treemap "github.com/igrmk/treemap/v2"
)

// streamEnvelope is Binance's combined-stream wrapper: {"stream": "...",
// "data": {...}}.
type streamEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// tickerPayload carries the fields this feed recognizes from a Binance
// 24hr mini-ticker/ticker message. Unrecognized fields are ignored.
type tickerPayload struct {
	Symbol  string `json:"s"`
	LastPx  string `json:"c"`
	BestBid string `json:"b"`
	BestAsk string `json:"a"`
}

// depthPayload carries a depth-snapshot message: top-of-book first, each
// level a [price, quantity] string pair.
type depthPayload struct {
	Symbol string      `json:"s"`
	Bids   [][2]string `json:"bids"`
	Asks   [][2]string `json:"asks"`
}

func symbolFromStreamName(stream string) string {
	// e.g. "btcusdt@ticker" -> "BTCUSDT"
	idx := strings.IndexByte(stream, '@')
	if idx < 0 {
		return strings.ToUpper(stream)
	}
	return strings.ToUpper(stream[:idx])
}

func parseTickerMessage(raw []byte) (symbol string, last, bid, ask float64, err error) {
	var env streamEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", 0, 0, 0, fmt.Errorf("marketdata: decode ticker envelope: %w", err)
	}

	var payload tickerPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return "", 0, 0, 0, fmt.Errorf("marketdata: decode ticker payload: %w", err)
	}

	symbol = payload.Symbol
	if symbol == "" {
		symbol = symbolFromStreamName(env.Stream)
	}

	last, err = strconv.ParseFloat(payload.LastPx, 64)
	if err != nil {
		return "", 0, 0, 0, fmt.Errorf("marketdata: parse last price %q: %w", payload.LastPx, err)
	}
	bid, err = strconv.ParseFloat(payload.BestBid, 64)
	if err != nil {
		return "", 0, 0, 0, fmt.Errorf("marketdata: parse best bid %q: %w", payload.BestBid, err)
	}
	ask, err = strconv.ParseFloat(payload.BestAsk, 64)
	if err != nil {
		return "", 0, 0, 0, fmt.Errorf("marketdata: parse best ask %q: %w", payload.BestAsk, err)
	}

	return symbol, last, bid, ask, nil
}

// parseDepthMessage decodes a depth-snapshot message and normalizes its
// levels through a treemap so the returned slices are correctly ordered
// (bids descending, asks ascending) even if the exchange ever delivers
// levels out of order.
func parseDepthMessage(raw []byte) (symbol string, bidDepth, askDepth []PriceLevelView, err error) {
	var env streamEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, nil, fmt.Errorf("marketdata: decode depth envelope: %w", err)
	}

	var payload depthPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return "", nil, nil, fmt.Errorf("marketdata: decode depth payload: %w", err)
	}

	symbol = payload.Symbol
	if symbol == "" {
		symbol = symbolFromStreamName(env.Stream)
	}

	bidDepth, err = normalizeLevels(payload.Bids, descending)
	if err != nil {
		return "", nil, nil, err
	}
	askDepth, err = normalizeLevels(payload.Asks, ascending)
	if err != nil {
		return "", nil, nil, err
	}

	return symbol, bidDepth, askDepth, nil
}

func ascending(a, b float64) bool  { return a < b }
func descending(a, b float64) bool { return a > b }

// normalizeLevels inserts each [price, quantity] pair into a treemap keyed
// by price with the given ordering, then reads it back off in order: a
// sorted map guarantees the returned slice is a well-formed depth view
// regardless of wire order.
func normalizeLevels(raw [][2]string, less func(a, b float64) bool) ([]PriceLevelView, error) {
	tm := treemap.NewWithKeyCompare[float64, float64](less)

	for _, pair := range raw {
		price, err := strconv.ParseFloat(pair[0], 64)
		if err != nil {
			return nil, fmt.Errorf("marketdata: parse depth price %q: %w", pair[0], err)
		}
		qty, err := strconv.ParseFloat(pair[1], 64)
		if err != nil {
			return nil, fmt.Errorf("marketdata: parse depth quantity %q: %w", pair[1], err)
		}
		tm.Set(price, qty)
	}

	out := make([]PriceLevelView, 0, tm.Len())
	for it := tm.Iterator(); it.Valid(); it.Next() {
		out = append(out, PriceLevelView{Price: it.Key(), Quantity: it.Value()})
	}
	return out, nil
}

func tickerStreamURL(symbols []string) string {
	return combinedStreamURL(symbols, "@ticker")
}

func depthStreamURL(symbols []string, levels int) string {
	suffix := fmt.Sprintf("@depth%d@100ms", levels)
	return combinedStreamURL(symbols, suffix)
}

func combinedStreamURL(symbols []string, suffix string) string {
	parts := make([]string, len(symbols))
	for i, s := range symbols {
		parts[i] = strings.ToLower(s) + suffix
	}
	return "wss://stream.binance.com:9443/stream?streams=" + strings.Join(parts, "/")
}
