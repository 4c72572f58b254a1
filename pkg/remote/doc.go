// ABOUTME: Remote participant package
// ABOUTME: Hosts participants over WebSocket and exposes them as session players
// Package remote lets participants on other machines follow a session.
//
// Hub is an http.Handler that upgrades participant connections, performs
// the handshake, answers clock sync requests, and turns every participant
// into a RemotePlayer. The session starts and stops remote players like any
// other player; each call becomes a protocol message on the wire.
//
// Example:
//
//	hub := remote.NewHub(remote.Config{
//		Session: session,
//		Clock:   engine,
//		OnJoin:  func(p *remote.RemotePlayer) error { return session.AddPlayer(p) },
//	})
//	http.Handle(protocol.Path, hub)
package remote
