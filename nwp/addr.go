package nwp

import (
	"net/netip"
	"strconv"

	"github.com/pkg/errors"
)

var errNotIPv4 = errors.New("not a dotted-quad IPv4 address")

// Addr is an IPv4 address in host order: a.b.c.d is a<<24 | b<<16 | c<<8 | d.
// The zero Addr means unset.
type Addr uint32

// ParseAddr parses a dotted-quad IPv4 address such as "192.168.1.1".
func ParseAddr(s string) (Addr, error) {
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return 0, errors.Wrapf(errNotIPv4, "%q", s)
	}
	if !ip.Is4() {
		return 0, errors.Wrapf(errNotIPv4, "%q", s)
	}
	return AddrFrom4(ip.As4()), nil
}

// AddrFrom4 returns the Addr of a 4 byte address in network order.
func AddrFrom4(b [4]byte) Addr {
	return Addr(b[0])<<24 | Addr(b[1])<<16 | Addr(b[2])<<8 | Addr(b[3])
}

// As4 returns the address in network byte order.
func (a Addr) As4() [4]byte {
	return [4]byte{byte(a >> 24), byte(a >> 16), byte(a >> 8), byte(a)}
}

// IsZero reports whether the address is unset.
func (a Addr) IsZero() bool { return a == 0 }

func (a Addr) String() string {
	b := a.As4()
	buf := make([]byte, 0, len("255.255.255.255"))
	for i := range b {
		if i > 0 {
			buf = append(buf, '.')
		}
		buf = strconv.AppendUint(buf, uint64(b[i]), 10)
	}
	return string(buf)
}

// IPv4Config is an IPv4 configuration block as stored by the NWP.
type IPv4Config struct {
	IP      Addr
	Mask    Addr
	Gateway Addr
	DNS     Addr
}

// IsZero reports whether no field of the block is set.
func (c IPv4Config) IsZero() bool { return c == IPv4Config{} }

// IPInfo is the addressing acquired by the station interface.
type IPInfo struct {
	IP      Addr
	Gateway Addr
	DNS     Addr
}
