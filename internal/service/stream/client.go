package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"CoinSentry/internal/domain/models"
	drepo "CoinSentry/internal/domain/repository"
	xlogger "CoinSentry/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client implements a MarketStream backed by the Binance combined
// miniTicker WebSocket feed.
type Client struct {
	baseURL        string
	pairs          map[string]string // exchange pair -> asset symbol
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *xlogger.Logger

	conn      *websocket.Conn
	connected bool
}

// New creates a Binance miniTicker stream for the given asset symbols.
// symbolPairs maps asset symbol to exchange pair (BTC -> BTCUSDT).
func New(baseURL string, symbolPairs map[string]string, reconnectDelay, pingInterval time.Duration, log *xlogger.Logger) drepo.MarketStream {
	rev := make(map[string]string, len(symbolPairs))
	for sym, pair := range symbolPairs {
		rev[strings.ToUpper(pair)] = sym
	}
	return &Client{
		baseURL:        baseURL,
		pairs:          rev,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

// Connect establishes the WebSocket connection. Binance bundles the
// subscription into the URL, so Subscribe is a no-op once connected.
func (c *Client) Connect(ctx context.Context) error {
	streams := make([]string, 0, len(c.pairs))
	for pair := range c.pairs {
		streams = append(streams, strings.ToLower(pair)+"@miniTicker")
	}
	u := fmt.Sprintf("%s/stream?streams=%s", c.baseURL, strings.Join(streams, "/"))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("binance stream connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	c.log.Info("binance stream connected", xlogger.Int("streams", len(streams)))
	return nil
}

// Subscribe is satisfied by the combined-stream URL.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("binance stream not connected")
	}
	return nil
}

type miniTicker struct {
	EventTime int64  `json:"E"` // ms
	Symbol    string `json:"s"`
	Close     string `json:"c"`
	Volume    string `json:"q"` // quote asset volume
}

type streamFrame struct {
	Stream string     `json:"stream"`
	Data   miniTicker `json:"data"`
}

// Read streams Tick events and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("binance stream conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("binance stream read: %w", err)
					return
				}
				var f streamFrame
				if err := json.Unmarshal(b, &f); err != nil {
					// ignore non-ticker frames
					continue
				}
				tick := c.toTick(&f.Data)
				if tick == nil {
					continue
				}
				select {
				case ticks <- tick:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

func (c *Client) toTick(m *miniTicker) *models.Tick {
	sym, ok := c.pairs[strings.ToUpper(m.Symbol)]
	if !ok {
		return nil
	}
	price, err := strconv.ParseFloat(m.Close, 64)
	if err != nil || price <= 0 {
		return nil
	}
	vol, _ := strconv.ParseFloat(m.Volume, 64)
	return &models.Tick{
		Symbol:    sym,
		Price:     price,
		Volume:    vol,
		Timestamp: m.EventTime / 1000,
	}
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
