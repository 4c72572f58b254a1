// ABOUTME: Singalong wire protocol package
// ABOUTME: Defines protocol messages and the participant WebSocket client
// Package protocol implements the wire protocol between a hosting session
// and remote participants.
//
// Messages are JSON text frames of the form {"type": ..., "payload": ...}.
// A participant opens with participant/hello and the host answers with
// session/welcome; afterwards the host sends session/start, session/stop,
// and session/finished as the session progresses, and answers
// participant/time with session/time for clock synchronization.
//
// Example:
//
//	client := protocol.NewClient(protocol.Config{HostAddr: "192.168.1.10:8928", Name: "Kitchen"})
//	err := client.Connect(ctx)
//	start := <-client.Start
package protocol
