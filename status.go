package nwpwifi

import (
	"strconv"

	"github.com/soypat/nwpwifi/nwp"
)

// Status is the station link state driven by NWP events.
type Status uint8

const (
	StatusDisconnected Status = iota
	StatusConnected
	StatusIPAcquired
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnected:
		return "connected"
	case StatusIPAcquired:
		return "got ip"
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

// Status returns the current link state.
func (m *Manager) Status() Status {
	m.evmu.Lock()
	defer m.evmu.Unlock()
	return m.status
}

func (m *Manager) ipInfo() (Status, nwp.IPInfo) {
	m.evmu.Lock()
	defer m.evmu.Unlock()
	return m.status, m.acquired
}

// ConnectedSSID returns the configured SSID while the link is up.
func (m *Manager) ConnectedSSID() (string, bool) {
	if st := m.Status(); st != StatusConnected && st != StatusIPAcquired {
		return "", false
	}
	return m.cfg.ssid, m.cfg.ssid != ""
}

// StationIP returns the station address once one has been acquired.
func (m *Manager) StationIP() (string, bool) {
	return m.acquiredAddr(func(i nwp.IPInfo) nwp.Addr { return i.IP })
}

// StationGateway returns the gateway once an address has been acquired.
func (m *Manager) StationGateway() (string, bool) {
	return m.acquiredAddr(func(i nwp.IPInfo) nwp.Addr { return i.Gateway })
}

// StationDNS returns the DNS server once an address has been acquired.
func (m *Manager) StationDNS() (string, bool) {
	return m.acquiredAddr(func(i nwp.IPInfo) nwp.Addr { return i.DNS })
}

func (m *Manager) acquiredAddr(field func(nwp.IPInfo) nwp.Addr) (string, bool) {
	st, info := m.ipInfo()
	addr := field(info)
	if st != StatusIPAcquired || addr.IsZero() {
		return "", false
	}
	return addr.String(), true
}

// APIP returns the access point address while the radio runs in AP role.
func (m *Manager) APIP() (string, bool) {
	if m.apIP.IsZero() {
		return "", false
	}
	return m.apIP.String(), true
}

// Snapshot is a point-in-time view of the manager suitable for publishing.
type Snapshot struct {
	Role    string `json:"role"`
	Status  string `json:"status"`
	SSID    string `json:"ssid,omitempty"`
	IP      string `json:"ip,omitempty"`
	Gateway string `json:"gw,omitempty"`
	DNS     string `json:"dns,omitempty"`
	APIP    string `json:"ap_ip,omitempty"`
}

// Snapshot returns the current state. Must be called from the main loop.
func (m *Manager) Snapshot() Snapshot {
	st, info := m.ipInfo()
	s := Snapshot{
		Role:   m.role.String(),
		Status: st.String(),
	}
	if st != StatusDisconnected {
		s.SSID = m.cfg.ssid
	}
	if st == StatusIPAcquired {
		if !info.IP.IsZero() {
			s.IP = info.IP.String()
		}
		if !info.Gateway.IsZero() {
			s.Gateway = info.Gateway.String()
		}
		if !info.DNS.IsZero() {
			s.DNS = info.DNS.String()
		}
	}
	s.APIP, _ = m.APIP()
	return s
}

// LastIPInfo returns the most recently acquired station addressing, which may
// be stale if the link has since dropped.
func (m *Manager) LastIPInfo() nwp.IPInfo {
	_, info := m.ipInfo()
	return info
}
