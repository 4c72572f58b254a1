// ABOUTME: mDNS service discovery package
// ABOUTME: Advertise hosted sessions and find them on the local network
// Package discovery provides mDNS discovery for hosted singalong sessions.
//
// A host advertises a _singalong._tcp service carrying the session ID and
// protocol path in its TXT record. Participants browse for the service to
// find a host without typing its address.
//
// Example:
//
//	mgr := discovery.NewManager(discovery.Config{ServiceName: "Living Room", Port: 8928, SessionID: id})
//	err := mgr.Advertise()
//	defer mgr.Stop()
package discovery
