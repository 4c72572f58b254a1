// ABOUTME: mDNS service discovery for hosted sessions
// ABOUTME: Handles both advertisement (host) and browsing (participant)
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service type for hosted sessions
const ServiceType = "_singalong._tcp"

// retryDelay spaces out queries after a failure
const retryDelay = 3 * time.Second

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	SessionID   string
	Path        string // protocol path advertised in TXT
}

// Manager handles mDNS operations
type Manager struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
	hosts  chan *HostInfo

	mu     sync.Mutex
	server *mdns.Server
	seen   map[string]bool
}

// HostInfo describes a discovered host
type HostInfo struct {
	Name      string
	Host      string
	Port      int
	SessionID string
	Path      string
}

// Addr returns host:port
func (h *HostInfo) Addr() string {
	return net.JoinHostPort(h.Host, fmt.Sprint(h.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config: config,
		ctx:    ctx,
		cancel: cancel,
		hosts:  make(chan *HostInfo, 10),
		seen:   make(map[string]bool),
	}
}

// txtRecords builds the TXT fields for the advertised service
func (m *Manager) txtRecords() []string {
	txt := []string{}
	if m.config.Path != "" {
		txt = append(txt, "path="+m.config.Path)
	}
	if m.config.SessionID != "" {
		txt = append(txt, "session="+m.config.SessionID)
	}
	return txt
}

// Advertise advertises the hosted session via mDNS
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		m.txtRecords(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	m.mu.Lock()
	m.server = server
	m.mu.Unlock()

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for hosts until Stop is called. Each host is reported
// once.
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop continuously browses for hosts
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for entry := range entries {
				host := hostFromEntry(entry)
				if host == nil || !m.markSeen(host) {
					continue
				}

				log.Printf("Discovered host: %s at %s (session %s)", host.Name, host.Addr(), host.SessionID)

				select {
				case m.hosts <- host:
				case <-m.ctx.Done():
				}
			}
		}()

		params := &mdns.QueryParam{
			Service:     ServiceType,
			Domain:      "local",
			Timeout:     3 * time.Second,
			Entries:     entries,
			DisableIPv6: true,
		}

		err := mdns.Query(params)
		close(entries)
		<-done

		if err != nil {
			log.Printf("mDNS query failed: %v", err)
			select {
			case <-time.After(retryDelay):
			case <-m.ctx.Done():
				return
			}
		}
	}
}

// markSeen records a host and reports whether it is new
func (m *Manager) markSeen(h *HostInfo) bool {
	key := h.Addr() + "/" + h.SessionID

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[key] {
		return false
	}
	m.seen[key] = true
	return true
}

// hostFromEntry converts a browse result; entries without an IPv4
// address are skipped
func hostFromEntry(entry *mdns.ServiceEntry) *HostInfo {
	if entry == nil || entry.AddrV4 == nil {
		return nil
	}

	host := &HostInfo{
		Name: strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Host: entry.AddrV4.String(),
		Port: entry.Port,
	}

	for _, field := range entry.InfoFields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "session":
			host.SessionID = value
		case "path":
			host.Path = value
		}
	}

	return host
}

// Hosts returns the channel of discovered hosts
func (m *Manager) Hosts() <-chan *HostInfo {
	return m.hosts
}

// Find browses until the first host is found or ctx ends
func (m *Manager) Find(ctx context.Context) (*HostInfo, error) {
	if err := m.Browse(); err != nil {
		return nil, err
	}

	select {
	case host := <-m.hosts:
		return host, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("no host found: %w", ctx.Err())
	}
}

// Stop stops the discovery manager
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
