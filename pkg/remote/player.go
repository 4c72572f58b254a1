// ABOUTME: Session player backed by a remote participant connection
// ABOUTME: Translates start and stop calls into protocol messages
package remote

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/singalong-go/pkg/game"
	"github.com/Resonate-Protocol/singalong-go/pkg/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// RemotePlayer is a participant following the session from another machine
type RemotePlayer struct {
	id            string
	participantID string
	name          string
	hub           *Hub
	conn          *websocket.Conn

	sendChan chan protocol.Message
	done     chan struct{}
	flush    chan struct{} // closed when the hub shuts down

	mu             sync.Mutex
	connected      bool
	started        bool
	disconnectOnce sync.Once
	flushOnce      sync.Once
}

func newRemotePlayer(hub *Hub, hello protocol.Hello, conn *websocket.Conn) *RemotePlayer {
	return &RemotePlayer{
		id:            uuid.New().String(),
		participantID: hello.ParticipantID,
		name:          hello.Name,
		hub:           hub,
		conn:          conn,
		sendChan:      make(chan protocol.Message, 32),
		done:          make(chan struct{}),
		flush:         make(chan struct{}),
		connected:     true,
	}
}

// Kind reports the remote variant
func (p *RemotePlayer) Kind() game.Kind {
	return game.KindRemote
}

// ID returns the host-assigned player ID
func (p *RemotePlayer) ID() string {
	return p.id
}

// ParticipantID returns the ID the participant announced
func (p *RemotePlayer) ParticipantID() string {
	return p.participantID
}

// Name returns the participant's display name
func (p *RemotePlayer) Name() string {
	return p.name
}

// Started reports whether the player is between Start and Stop
func (p *RemotePlayer) Started() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

// Start sends session/start with the session's clock origin
func (p *RemotePlayer) Start() error {
	origin, ok := p.hub.config.Session.Origin()
	if !ok {
		return fmt.Errorf("session has not started")
	}

	p.mu.Lock()
	p.started = true
	p.mu.Unlock()

	start := protocol.Start{
		OriginMicros: origin.Microseconds(),
		SongLocation: p.hub.config.Session.SongLocation(),
	}
	return p.send(protocol.TypeStart, start)
}

// Stop sends session/stop
func (p *RemotePlayer) Stop() error {
	p.mu.Lock()
	p.started = false
	p.mu.Unlock()

	return p.send(protocol.TypeStop, protocol.Stop{})
}

// send queues a message for the writer
func (p *RemotePlayer) send(msgType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return fmt.Errorf("participant %s disconnected", p.name)
	}

	select {
	case p.sendChan <- protocol.Message{Type: msgType, Payload: payload}:
		return nil
	default:
		return fmt.Errorf("participant %s send buffer full", p.name)
	}
}

// disconnect stops the writer; later sends fail
func (p *RemotePlayer) disconnect() {
	p.disconnectOnce.Do(func() {
		p.mu.Lock()
		p.connected = false
		p.mu.Unlock()
		close(p.done)
	})
}

// shutdown refuses further sends and asks the writer to flush what is
// queued, then close the connection cleanly
func (p *RemotePlayer) shutdown() {
	p.flushOnce.Do(func() {
		p.mu.Lock()
		p.connected = false
		p.mu.Unlock()
		close(p.flush)
	})
}

// drain writes every queued message, then a close frame
func (p *RemotePlayer) drain() {
	for {
		select {
		case msg := <-p.sendChan:
			if err := p.write(msg); err != nil {
				log.Printf("Error flushing to %s: %v", p.name, err)
				return
			}
		default:
			closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed")
			if err := p.conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeDeadline)); err != nil {
				log.Printf("Error closing %s: %v", p.name, err)
			}
			return
		}
	}
}

func (p *RemotePlayer) write(msg protocol.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return nil
	}
	p.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

// writer sends queued messages and keepalive pings
func (p *RemotePlayer) writer() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-p.sendChan:
			if err := p.write(msg); err != nil {
				log.Printf("Error writing to %s: %v", p.name, err)
				return
			}

		case <-ticker.C:
			if err := p.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}

		case <-p.flush:
			p.drain()
			return

		case <-p.done:
			return
		}
	}
}
