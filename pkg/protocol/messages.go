// ABOUTME: Singalong protocol message type definitions
// ABOUTME: Defines the envelope and payload structs for every message type
package protocol

import (
	"encoding/json"
	"fmt"
)

// Version is the protocol version sent in participant/hello
const Version = 1

// Path is the HTTP path the host serves the protocol on
const Path = "/singalong"

// Message types
const (
	TypeHello    = "participant/hello"
	TypeGoodbye  = "participant/goodbye"
	TypeTime     = "participant/time"
	TypeWelcome  = "session/welcome"
	TypeHostTime = "session/time"
	TypeStart    = "session/start"
	TypeStop     = "session/stop"
	TypeFinished = "session/finished"
	TypeError    = "session/error"
)

// Message is the top-level wrapper for outgoing protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Envelope is an incoming message with its payload left undecoded
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ParseEnvelope decodes the outer message wrapper
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("invalid message: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("invalid message: missing type")
	}
	return env, nil
}

// Decode unmarshals the payload into v. An absent payload leaves v unchanged.
func (e Envelope) Decode(v interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", e.Type, err)
	}
	return nil
}

// Hello is sent by participants to join a session
type Hello struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Version       int    `json:"version"`
}

// Welcome is the host's response to participant/hello
type Welcome struct {
	SessionID    string `json:"session_id"`
	SongLocation string `json:"song_location"`
	SongTitle    string `json:"song_title,omitempty"`
	SongArtist   string `json:"song_artist,omitempty"`
}

// Goodbye is sent before a participant disconnects
type Goodbye struct {
	Reason string `json:"reason"` // "shutdown", "user_request"
}

// ParticipantTime is sent for clock synchronization
type ParticipantTime struct {
	ClientTransmitted int64 `json:"client_transmitted"` // Participant timestamp in microseconds
}

// HostTime is the response to participant/time. Host timestamps are on
// the session clock.
type HostTime struct {
	ClientTransmitted int64 `json:"client_transmitted"` // Echoed participant timestamp
	ServerReceived    int64 `json:"server_received"`
	ServerTransmitted int64 `json:"server_transmitted"`
}

// Start tells a participant that playback began
type Start struct {
	OriginMicros int64  `json:"origin_us"` // Session clock at playback start
	SongLocation string `json:"song_location"`
}

// Stop tells a participant that its part in the session ended
type Stop struct{}

// Finished tells every participant that the song reached its end
type Finished struct{}

// Error rejects a participant during the handshake
type Error struct {
	Code    string `json:"code"` // "duplicate_participant", "session_started"
	Message string `json:"message"`
}
