package chainfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ChainPull/internal/domain/models"
	drepo "ChainPull/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a ChainStream backed by the vendor chain WebSocket.
type Client struct {
	apiKey         string
	websocketURL   string
	underlyings    []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new chain-feed ChainStream.
func New(apiKey, websocketURL string, underlyings []string, reconnectDelay, pingInterval time.Duration) drepo.ChainStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		underlyings:    underlyings,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("chainfeed connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("chainfeed: connected")
	return nil
}

// Subscribe subscribes to configured underlyings.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("chainfeed not connected")
	}
	for _, s := range c.underlyings {
		msg := map[string]string{"type": "subscribe", "underlying": s}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
		log.Printf("chainfeed: subscribed %s", s)
	}
	return nil
}

type feedMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Read streams chain rows, spot ticks and errors. The feed multiplexes
// per-strike chain frames and underlying spot frames on one connection.
func (c *Client) Read(ctx context.Context) (<-chan *models.ChainRow, <-chan *models.SpotTick, <-chan error) {
	rows := make(chan *models.ChainRow, 1024)
	spots := make(chan *models.SpotTick, 64)
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
		defer close(rows)
		defer close(spots)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("chainfeed conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("chainfeed read: %w", err)
					return
				}
				var m feedMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-data frames
					continue
				}
				switch m.Type {
				case "chain":
					var batch []*models.ChainRow
					if err := json.Unmarshal(m.Data, &batch); err != nil {
						continue
					}
					for _, r := range batch {
						select {
						case rows <- r:
						default:
							// drop on backpressure
						}
					}
				case "spot":
					var t models.SpotTick
					if err := json.Unmarshal(m.Data, &t); err != nil {
						continue
					}
					select {
					case spots <- &t:
					default:
					}
				}
			}
		}
	}()

	return rows, spots, errs
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
