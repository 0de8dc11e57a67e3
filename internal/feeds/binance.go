// Package feeds streams live spot prices for the farmer's watch mode.
package feeds

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const binanceStreamURL = "wss://stream.binance.com:9443/stream"

// Tick is one live price update.
type Tick struct {
	Symbol string
	Price  decimal.Decimal
	At     time.Time
}

type streamEnvelope struct {
	Data struct {
		Symbol string `json:"s"`
		Close  string `json:"c"`
	} `json:"data"`
}

// BinanceStream maintains a miniTicker websocket subscription for a set of
// symbols and caches the latest price per symbol.
type BinanceStream struct {
	symbols []string

	mu      sync.RWMutex
	prices  map[string]decimal.Decimal
	onTick  func(Tick)
	running bool

	stopCh chan struct{}
}

// NewBinanceStream subscribes to symbols like "BTCUSDT".
func NewBinanceStream(symbols ...string) *BinanceStream {
	return &BinanceStream{
		symbols: symbols,
		prices:  make(map[string]decimal.Decimal),
		stopCh:  make(chan struct{}),
	}
}

// OnTick registers a callback invoked for every update. Must be set before
// Start.
func (b *BinanceStream) OnTick(cb func(Tick)) {
	b.onTick = cb
}

// Start launches the read loop with automatic reconnection.
func (b *BinanceStream) Start() error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf("feeds: stream already running")
	}
	b.running = true
	b.mu.Unlock()

	go b.run()
	log.Info().Strs("symbols", b.symbols).Msg("📡 Binance stream starting")
	return nil
}

// Stop terminates the stream.
func (b *BinanceStream) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return
	}
	b.running = false
	close(b.stopCh)
}

// Price returns the latest cached price for a symbol.
func (b *BinanceStream) Price(symbol string) (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.prices[symbol]
	return p, ok
}

func (b *BinanceStream) url() string {
	streams := make([]string, len(b.symbols))
	for i, s := range b.symbols {
		streams[i] = strings.ToLower(s) + "@miniTicker"
	}
	return binanceStreamURL + "?streams=" + strings.Join(streams, "/")
}

func (b *BinanceStream) run() {
	backoff := time.Second
	for {
		select {
		case <-b.stopCh:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(b.url(), nil)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("Binance stream dial failed")
			select {
			case <-time.After(backoff):
			case <-b.stopCh:
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		log.Info().Msg("✅ Binance stream connected")

		b.readLoop(conn)
		conn.Close()
	}
}

func (b *BinanceStream) readLoop(conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-b.stopCh:
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-b.stopCh:
			default:
				log.Warn().Err(err).Msg("Binance stream read error, reconnecting")
			}
			return
		}

		var env streamEnvelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Data.Symbol == "" {
			continue
		}
		price, err := decimal.NewFromString(env.Data.Close)
		if err != nil {
			continue
		}

		tick := Tick{Symbol: env.Data.Symbol, Price: price, At: time.Now()}
		b.mu.Lock()
		b.prices[tick.Symbol] = price
		cb := b.onTick
		b.mu.Unlock()
		if cb != nil {
			cb(tick)
		}
	}
}
