// Package nwp contains definitions shared with the network co-processor (NWP)
// firmware: operating roles, security types, configuration option identifiers
// and the binary layout of asynchronous event frames.
package nwp

import (
	"strconv"
	"time"
)

// Role is the operating role reported by the NWP after a start.
// Values match the identifiers used by the NWP firmware.
type Role int8

const (
	// RoleUnknown means the radio has not been started yet or failed to start.
	RoleUnknown     Role = -1
	RoleStation     Role = 0
	RoleAccessPoint Role = 2
	RoleP2P         Role = 3
)

func (r Role) String() string {
	switch r {
	case RoleUnknown:
		return "unknown"
	case RoleStation:
		return "sta"
	case RoleAccessPoint:
		return "ap"
	case RoleP2P:
		return "p2p"
	}
	return "role(" + strconv.Itoa(int(r)) + ")"
}

// Valid reports whether r is a role the NWP can run in.
func (r Role) Valid() bool { return r >= 0 }

// SecType is the wireless security type.
type SecType uint8

const (
	SecOpen SecType = 0
	SecWEP  SecType = 1
	SecWPA  SecType = 2
)

func (s SecType) String() string {
	switch s {
	case SecOpen:
		return "open"
	case SecWEP:
		return "wep"
	case SecWPA:
		return "wpa"
	}
	return "sec(" + strconv.Itoa(int(s)) + ")"
}

// SecurityFor returns SecWPA for a non-empty passphrase and SecOpen otherwise.
func SecurityFor(pass string) SecType {
	if len(pass) > 0 {
		return SecWPA
	}
	return SecOpen
}

// SecParams are the security parameters of a station connect request.
type SecParams struct {
	Type SecType
	Key  string
}

// APOption identifies an access point parameter set with SetAPOption.
type APOption uint8

const (
	APOptSSID         APOption = 0
	APOptChannel      APOption = 3
	APOptHiddenSSID   APOption = 4
	APOptSecurityType APOption = 6
	APOptPassword     APOption = 7
)

func (o APOption) String() string {
	switch o {
	case APOptSSID:
		return "ssid"
	case APOptChannel:
		return "channel"
	case APOptHiddenSSID:
		return "hidden"
	case APOptSecurityType:
		return "sectype"
	case APOptPassword:
		return "password"
	}
	return "apopt(" + strconv.Itoa(int(o)) + ")"
}

// NetConfig identifies an IP configuration block.
type NetConfig uint8

const (
	NetConfigSTAStatic NetConfig = 4
	NetConfigSTADHCP   NetConfig = 5
	NetConfigAPStatic  NetConfig = 7
)

func (n NetConfig) String() string {
	switch n {
	case NetConfigSTAStatic:
		return "sta-static"
	case NetConfigSTADHCP:
		return "sta-dhcp"
	case NetConfigAPStatic:
		return "ap-static"
	}
	return "netcfg(" + strconv.Itoa(int(n)) + ")"
}

// App identifies a network application hosted by the NWP.
type App uint8

const (
	AppHTTPServer App = 1 << iota
	AppDHCPServer
	AppMDNS
)

func (a App) String() string {
	switch a {
	case AppHTTPServer:
		return "http-server"
	case AppDHCPServer:
		return "dhcp-server"
	case AppMDNS:
		return "mdns"
	}
	return "app(" + strconv.Itoa(int(a)) + ")"
}

// DHCPLeaseTime is the lease time handed out by the NWP DHCP server in AP role.
const DHCPLeaseTime = 900 * time.Second

// DHCPServerOpts configures the NWP DHCP server.
type DHCPServerOpts struct {
	LeaseTime time.Duration
	Start     Addr
	Last      Addr
}

// MaxNetworkEntries is the largest number of entries returned by a single scan.
const MaxNetworkEntries = 20

// NetworkEntry is a network discovered during a scan.
type NetworkEntry struct {
	SSID  string
	BSSID [6]byte
	Sec   SecType
	RSSI  int8
}
