// ABOUTME: WebSocket hub for remote participants
// ABOUTME: Manages participant connections, handshakes, and clock sync replies
package remote

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Resonate-Protocol/singalong-go/pkg/game"
	"github.com/Resonate-Protocol/singalong-go/pkg/protocol"
	"github.com/Resonate-Protocol/singalong-go/pkg/song"
	"github.com/gorilla/websocket"
)

const (
	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
	helloTimeout  = 10 * time.Second
	flushTimeout  = 2 * time.Second
)

// Session is the view of the hosted session the hub needs
type Session interface {
	ID() string
	SongLocation() string
	Song() *song.Song

	// Origin returns the session clock reading recorded at playback start
	Origin() (time.Duration, bool)
}

// Config holds hub configuration
type Config struct {
	Session Session

	// Clock is the session's timing authority; time sync replies and start
	// origins are expressed on it
	Clock game.Clock

	// OnJoin registers a new participant with the session. An error
	// rejects the participant.
	OnJoin func(*RemotePlayer) error
}

// Hub accepts participant connections
type Hub struct {
	config   Config
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	players map[string]*RemotePlayer // by participant ID
	closed  bool
	wg      sync.WaitGroup
}

// NewHub creates a hub for one session
func NewHub(config Config) *Hub {
	return &Hub{
		config: config,
		upgrader: websocket.Upgrader{
			// Participants are CLI clients on the local network and send
			// no Origin header
			CheckOrigin: func(r *http.Request) bool {
				if origin := r.Header.Get("Origin"); origin != "" {
					log.Printf("Warning: accepting WebSocket from origin: %s", origin)
				}
				return true
			},
		},
		players: make(map[string]*RemotePlayer),
	}
}

// ServeHTTP upgrades the request and serves one participant until it
// disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New participant connection from %s", r.RemoteAddr)
	h.handleConnection(conn)
}

// handleConnection manages a participant connection
func (h *Hub) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		log.Printf("Rejecting connection during shutdown")
		return
	}

	hello, err := readHello(conn)
	if err != nil {
		log.Printf("Handshake failed: %v", err)
		return
	}

	log.Printf("Participant hello: %s (ID: %s)", hello.Name, hello.ParticipantID)

	player := newRemotePlayer(h, hello, conn)

	// Check for shutdown and duplicate participant ID and register atomically
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		log.Printf("Rejecting %s during shutdown", hello.Name)
		return
	}
	if existing, exists := h.players[hello.ParticipantID]; exists {
		h.mu.Unlock()
		log.Printf("Participant %s already connected (name: %s), rejecting duplicate", hello.ParticipantID, existing.Name())
		reject(conn, "duplicate_participant", "participant ID already connected")
		return
	}
	h.players[hello.ParticipantID] = player
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	var writerDone chan struct{}
	defer func() {
		h.mu.Lock()
		delete(h.players, hello.ParticipantID)
		h.mu.Unlock()
		player.disconnect()
		if writerDone != nil {
			<-writerDone
		}
		log.Printf("Participant disconnected: %s", player.Name())
	}()

	if h.config.OnJoin != nil {
		if err := h.config.OnJoin(player); err != nil {
			log.Printf("Participant %s rejected: %v", player.Name(), err)
			reject(conn, "session_started", err.Error())
			return
		}
	}

	if err := player.send(protocol.TypeWelcome, h.welcome()); err != nil {
		log.Printf("Error sending welcome: %v", err)
		return
	}

	writerDone = make(chan struct{})
	go func() {
		defer close(writerDone)
		player.writer()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		h.handleMessage(player, data)
	}
}

// readHello waits for participant/hello and validates it
func readHello(conn *websocket.Conn) (protocol.Hello, error) {
	var hello protocol.Hello

	conn.SetReadDeadline(time.Now().Add(helloTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return hello, fmt.Errorf("error reading hello: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	env, err := protocol.ParseEnvelope(data)
	if err != nil {
		return hello, err
	}
	if env.Type != protocol.TypeHello {
		return hello, fmt.Errorf("expected %s, got %s", protocol.TypeHello, env.Type)
	}
	if err := env.Decode(&hello); err != nil {
		return hello, err
	}
	if hello.ParticipantID == "" {
		return hello, fmt.Errorf("hello missing participant ID")
	}
	if hello.Name == "" {
		return hello, fmt.Errorf("hello missing name")
	}
	return hello, nil
}

// reject writes a session/error directly; the writer is not running yet
func reject(conn *websocket.Conn, code, message string) {
	data, err := json.Marshal(protocol.Message{
		Type:    protocol.TypeError,
		Payload: protocol.Error{Code: code, Message: message},
	})
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) welcome() protocol.Welcome {
	w := protocol.Welcome{
		SessionID:    h.config.Session.ID(),
		SongLocation: h.config.Session.SongLocation(),
	}
	if s := h.config.Session.Song(); s != nil {
		w.SongTitle = s.Title
		w.SongArtist = s.Artist
	}
	return w
}

// handleMessage processes messages from participants
func (h *Hub) handleMessage(player *RemotePlayer, data []byte) {
	env, err := protocol.ParseEnvelope(data)
	if err != nil {
		log.Printf("Error parsing message from %s: %v", player.Name(), err)
		return
	}

	switch env.Type {
	case protocol.TypeTime:
		h.handleTimeSync(player, env)
	case protocol.TypeGoodbye:
		var bye protocol.Goodbye
		env.Decode(&bye)
		log.Printf("Participant %s leaving: %s", player.Name(), bye.Reason)
	default:
		log.Printf("Unknown message type: %s", env.Type)
	}
}

// handleTimeSync responds to time synchronization requests
func (h *Hub) handleTimeSync(player *RemotePlayer, env protocol.Envelope) {
	// Capture receive time as early as possible
	received := h.clockMicros()

	var req protocol.ParticipantTime
	if err := env.Decode(&req); err != nil {
		log.Printf("%v", err)
		return
	}

	response := protocol.HostTime{
		ClientTransmitted: req.ClientTransmitted,
		ServerReceived:    received,
		ServerTransmitted: h.clockMicros(),
	}

	if err := player.send(protocol.TypeHostTime, response); err != nil {
		log.Printf("Error sending time to %s: %v", player.Name(), err)
	}
}

// clockMicros returns the session clock in microseconds
func (h *Hub) clockMicros() int64 {
	return h.config.Clock.CurrentTime().Microseconds()
}

// Players returns the connected participants
func (h *Hub) Players() []*RemotePlayer {
	h.mu.RLock()
	defer h.mu.RUnlock()

	players := make([]*RemotePlayer, 0, len(h.players))
	for _, p := range h.players {
		players = append(players, p)
	}
	return players
}

// Finished tells every connected participant that the song ended
func (h *Hub) Finished() {
	for _, p := range h.Players() {
		if err := p.send(protocol.TypeFinished, protocol.Finished{}); err != nil {
			log.Printf("Error sending finished to %s: %v", p.Name(), err)
		}
	}
}

// Close refuses new connections, flushes messages already queued for each
// participant, and then disconnects them
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	players := make([]*RemotePlayer, 0, len(h.players))
	for _, p := range h.players {
		players = append(players, p)
	}
	h.mu.Unlock()

	for _, p := range players {
		p.shutdown()
	}

	flushed := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(flushed)
	}()
	select {
	case <-flushed:
	case <-time.After(flushTimeout):
		log.Printf("Timed out flushing participants")
	}

	for _, p := range players {
		p.conn.Close()
	}
	<-flushed
}
