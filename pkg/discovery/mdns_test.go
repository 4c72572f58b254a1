// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests TXT records, browse entry conversion, and deduplication
package discovery

import (
	"context"
	"net"
	"testing"

	"github.com/hashicorp/mdns"
)

func TestTxtRecords(t *testing.T) {
	mgr := NewManager(Config{
		ServiceName: "Living Room",
		Port:        8928,
		SessionID:   "abc",
		Path:        "/singalong",
	})
	defer mgr.Stop()

	txt := mgr.txtRecords()
	if len(txt) != 2 || txt[0] != "path=/singalong" || txt[1] != "session=abc" {
		t.Errorf("unexpected TXT records: %v", txt)
	}
}

func TestHostFromEntry(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       "Living Room._singalong._tcp.local.",
		AddrV4:     net.IPv4(192, 168, 1, 10),
		Port:       8928,
		InfoFields: []string{"path=/singalong", "session=abc", "junk"},
	}

	host := hostFromEntry(entry)
	if host == nil {
		t.Fatal("expected host")
	}

	if host.Name != "Living Room" {
		t.Errorf("expected name 'Living Room', got %q", host.Name)
	}
	if host.Addr() != "192.168.1.10:8928" {
		t.Errorf("unexpected address %s", host.Addr())
	}
	if host.SessionID != "abc" || host.Path != "/singalong" {
		t.Errorf("unexpected TXT values: %+v", host)
	}
}

func TestHostFromEntryWithoutIPv4(t *testing.T) {
	if hostFromEntry(&mdns.ServiceEntry{Name: "x", Port: 1}) != nil {
		t.Error("expected entry without IPv4 to be skipped")
	}
	if hostFromEntry(nil) != nil {
		t.Error("expected nil entry to be skipped")
	}
}

func TestMarkSeen(t *testing.T) {
	mgr := NewManager(Config{})
	defer mgr.Stop()

	host := &HostInfo{Host: "10.0.0.1", Port: 8928, SessionID: "abc"}
	if !mgr.markSeen(host) {
		t.Error("expected first sighting to be new")
	}
	if mgr.markSeen(host) {
		t.Error("expected second sighting to be a duplicate")
	}

	other := &HostInfo{Host: "10.0.0.1", Port: 8928, SessionID: "def"}
	if !mgr.markSeen(other) {
		t.Error("expected a new session on the same host to be new")
	}
}

func TestFindTimesOut(t *testing.T) {
	mgr := NewManager(Config{})
	defer mgr.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := mgr.Find(ctx); err == nil {
		t.Error("expected error when context ends before a host is found")
	}
}
