package nwp

import (
	"encoding/binary"
	"strconv"

	"github.com/pkg/errors"
)

// EventType is the type of an NWP async event.
type EventType uint32

// Async event types sent by the NWP firmware.
const (
	evUnknown EventType = 0
	// Station associated with an access point.
	EvConnect EventType = 1
	// Station link lost or disconnect completed.
	EvDisconnect EventType = 2
	// Station acquired an IPv4 address, statically or by DHCP.
	EvIPAcquired EventType = 3
	// DHCP server in AP role leased an address to a client.
	EvIPLeased EventType = 4
	// DHCP server in AP role released a client's lease.
	EvIPReleased EventType = 5
	// A client station associated with our access point.
	EvSTAAdded EventType = 6
	// A client station left our access point.
	EvSTARemoved EventType = 7
	// Scan results are ready.
	EvScanComplete EventType = 8
	// highest val + 1 for range checking.
	evLast EventType = 9
)

func (e EventType) String() string {
	switch e {
	case EvConnect:
		return "CONNECT"
	case EvDisconnect:
		return "DISCONNECT"
	case EvIPAcquired:
		return "IP_ACQUIRED"
	case EvIPLeased:
		return "IP_LEASED"
	case EvIPReleased:
		return "IP_RELEASED"
	case EvSTAAdded:
		return "STA_ADDED"
	case EvSTARemoved:
		return "STA_REMOVED"
	case EvScanComplete:
		return "SCAN_COMPLETE"
	}
	return "EventType(" + strconv.FormatUint(uint64(e), 10) + ")"
}

// Valid reports whether e is a known event type.
func (e EventType) Valid() bool { return e > evUnknown && e < evLast }

// EventFrameLen is the length of an encoded async event frame.
const EventFrameLen = 32

// Event is an async event received from the NWP.
//
// Frame layout:
//
//	0:2   flags
//	2:4   frame length
//	4:8   event type
//	8:12  status
//	12:16 IP address (acquired or leased)
//	16:20 gateway
//	20:24 DNS server
//	24:30 peer MAC address
//	30:32 reserved
type Event struct {
	Flags   uint16
	Type    EventType
	Status  uint32
	Info    IPInfo
	PeerMAC [6]byte
}

var (
	errShortFrame = errors.New("buffer too small for async event frame")
	errFrameLen   = errors.New("async event frame length mismatch")
)

// ParseEvent decodes an async event frame.
func ParseEvent(order binary.ByteOrder, buf []byte) (ev Event, err error) {
	if len(buf) < EventFrameLen {
		return ev, errShortFrame
	}
	if n := order.Uint16(buf[2:]); n != EventFrameLen {
		return ev, errors.Wrapf(errFrameLen, "got %d", n)
	}
	ev.Flags = order.Uint16(buf[0:])
	ev.Type = EventType(order.Uint32(buf[4:]))
	ev.Status = order.Uint32(buf[8:])
	ev.Info.IP = Addr(order.Uint32(buf[12:]))
	ev.Info.Gateway = Addr(order.Uint32(buf[16:]))
	ev.Info.DNS = Addr(order.Uint32(buf[20:]))
	copy(ev.PeerMAC[:], buf[24:30])
	return ev, nil
}

// Put encodes the event into the first EventFrameLen bytes of dst.
func (ev *Event) Put(order binary.ByteOrder, dst []byte) {
	_ = dst[EventFrameLen-1]
	order.PutUint16(dst[0:], ev.Flags)
	order.PutUint16(dst[2:], EventFrameLen)
	order.PutUint32(dst[4:], uint32(ev.Type))
	order.PutUint32(dst[8:], ev.Status)
	order.PutUint32(dst[12:], uint32(ev.Info.IP))
	order.PutUint32(dst[16:], uint32(ev.Info.Gateway))
	order.PutUint32(dst[20:], uint32(ev.Info.DNS))
	copy(dst[24:30], ev.PeerMAC[:])
	dst[30], dst[31] = 0, 0
}

// FrameOrder is the byte order of async event frames on the host interface.
var FrameOrder = binary.LittleEndian
