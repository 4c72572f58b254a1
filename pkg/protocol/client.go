// ABOUTME: WebSocket client for participants joining a hosted session
// ABOUTME: Handles connection, handshake, and message routing
package protocol

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// handshakeTimeout bounds the wait for session/welcome
const handshakeTimeout = 5 * time.Second

// Config holds client configuration
type Config struct {
	HostAddr      string
	ParticipantID string
	Name          string
}

// Client is a participant's connection to a host
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	// Message channels
	Start        chan Start
	Stop         chan Stop
	Finished     chan Finished
	TimeSyncResp chan HostTime

	// Welcome is set once the handshake completes
	Welcome Welcome

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewClient creates a new participant client
func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:       config,
		Start:        make(chan Start, 1),
		Stop:         make(chan Stop, 1),
		Finished:     make(chan Finished, 1),
		TimeSyncResp: make(chan HostTime, 10),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and performs the handshake
func (c *Client) Connect(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: c.config.HostAddr, Path: Path}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake sends participant/hello and waits for session/welcome
func (c *Client) handshake() error {
	hello := Message{
		Type: TypeHello,
		Payload: Hello{
			ParticipantID: c.config.ParticipantID,
			Name:          c.config.Name,
			Version:       Version,
		},
	}

	if err := c.sendJSON(hello); err != nil {
		return fmt.Errorf("failed to send %s: %w", TypeHello, err)
	}

	c.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", TypeWelcome, err)
	}
	c.conn.SetReadDeadline(time.Time{})

	env, err := ParseEnvelope(data)
	if err != nil {
		return err
	}
	if env.Type == TypeError {
		var rejected Error
		env.Decode(&rejected)
		return fmt.Errorf("rejected by host: %s: %s", rejected.Code, rejected.Message)
	}
	if env.Type != TypeWelcome {
		return fmt.Errorf("expected %s, got %s", TypeWelcome, env.Type)
	}
	if err := env.Decode(&c.Welcome); err != nil {
		return err
	}

	log.Printf("Joined session %s: %q by %q", c.Welcome.SessionID, c.Welcome.SongTitle, c.Welcome.SongArtist)
	return nil
}

// sendJSON sends a JSON message
func (c *Client) sendJSON(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer close(c.done)
	defer c.Close()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				log.Printf("Read error: %v", err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			log.Printf("Ignoring WebSocket message type: %d", messageType)
			continue
		}
		c.handleMessage(data)
	}
}

// handleMessage routes one JSON message to its channel
func (c *Client) handleMessage(data []byte) {
	env, err := ParseEnvelope(data)
	if err != nil {
		log.Printf("Failed to parse message: %v", err)
		return
	}

	switch env.Type {
	case TypeHostTime:
		var msg HostTime
		if err := env.Decode(&msg); err != nil {
			log.Printf("%v", err)
			return
		}
		select {
		case c.TimeSyncResp <- msg:
		case <-c.ctx.Done():
		}

	case TypeStart:
		var msg Start
		if err := env.Decode(&msg); err != nil {
			log.Printf("%v", err)
			return
		}
		log.Printf("Session started at origin %dμs", msg.OriginMicros)
		select {
		case c.Start <- msg:
		case <-c.ctx.Done():
		}

	case TypeStop:
		select {
		case c.Stop <- Stop{}:
		case <-c.ctx.Done():
		}

	case TypeFinished:
		select {
		case c.Finished <- Finished{}:
		case <-c.ctx.Done():
		}

	default:
		log.Printf("Unknown message type: %s", env.Type)
	}
}

// SendTimeSync sends a participant/time message
func (c *Client) SendTimeSync(t1 int64) error {
	return c.sendJSON(Message{
		Type:    TypeTime,
		Payload: ParticipantTime{ClientTransmitted: t1},
	})
}

// SendGoodbye sends a participant/goodbye message before disconnecting
func (c *Client) SendGoodbye(reason string) error {
	return c.sendJSON(Message{
		Type:    TypeGoodbye,
		Payload: Goodbye{Reason: reason},
	})
}

// Done is closed when the connection's reader exits
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
