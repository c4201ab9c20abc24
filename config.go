package nwpwifi

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"github.com/soypat/nwpwifi/nwp"
	"golang.org/x/exp/constraints"
)

// StationConfig configures station role. Static addressing is used when both
// IP and Netmask are set, in which case Gateway is required too.
type StationConfig struct {
	SSID    string `json:"ssid"`
	Pass    string `json:"pass,omitempty"`
	IP      string `json:"ip,omitempty"`
	Netmask string `json:"netmask,omitempty"`
	Gateway string `json:"gw,omitempty"`
}

// APConfig configures access point role. SSID may contain '?' placeholders
// which are replaced with hex digits of the device MAC address.
type APConfig struct {
	SSID      string `json:"ssid"`
	Pass      string `json:"pass,omitempty"`
	Channel   int    `json:"channel"`
	Hidden    bool   `json:"hidden,omitempty"`
	IP        string `json:"ip"`
	Netmask   string `json:"netmask"`
	Gateway   string `json:"gw"`
	DHCPStart string `json:"dhcp_start"`
	DHCPEnd   string `json:"dhcp_end"`
}

// Validator checks setup requests before any state is touched.
type Validator interface {
	ValidateStation(cfg *StationConfig) error
	ValidateAP(cfg *APConfig) error
}

const (
	maxSSIDLen = 32
	minPassLen = 8
	maxPassLen = 63
	maxChannel = 14
)

// DefaultValidator checks lengths, channel range and presence of addressing
// fields. Address syntax is checked later during setup.
type DefaultValidator struct{}

var _ Validator = DefaultValidator{}

func (DefaultValidator) ValidateStation(cfg *StationConfig) error {
	if err := validateCreds(cfg.SSID, cfg.Pass); err != nil {
		return err
	}
	if (cfg.IP == "") != (cfg.Netmask == "") {
		return errors.New("ip and netmask must be set together")
	}
	if cfg.IP != "" && cfg.Gateway == "" {
		return errors.New("gw is required with static ip")
	}
	return nil
}

func (DefaultValidator) ValidateAP(cfg *APConfig) error {
	if err := validateCreds(cfg.SSID, cfg.Pass); err != nil {
		return err
	}
	if !between(cfg.Channel, 1, maxChannel) {
		return errors.Errorf("channel %d out of range 1..%d", cfg.Channel, maxChannel)
	}
	for _, f := range [...]struct{ name, v string }{
		{"ip", cfg.IP}, {"netmask", cfg.Netmask}, {"gw", cfg.Gateway},
		{"dhcp_start", cfg.DHCPStart}, {"dhcp_end", cfg.DHCPEnd},
	} {
		if f.v == "" {
			return errors.Errorf("%s is required", f.name)
		}
	}
	return nil
}

func validateCreds(ssid, pass string) error {
	if !between(len(ssid), 1, maxSSIDLen) {
		return errors.Errorf("ssid length %d out of range 1..%d", len(ssid), maxSSIDLen)
	}
	if pass != "" && !between(len(pass), minPassLen, maxPassLen) {
		return errors.Errorf("pass length %d out of range %d..%d", len(pass), minPassLen, maxPassLen)
	}
	return nil
}

func between[T constraints.Integer](v, lo, hi T) bool { return v >= lo && v <= hi }

// parseIPv4Config parses a static configuration. DNS is left unset.
func parseIPv4Config(ip, mask, gw string) (c nwp.IPv4Config, err error) {
	if c.IP, err = nwp.ParseAddr(ip); err != nil {
		return c, errors.Wrap(err, "ip")
	}
	if c.Mask, err = nwp.ParseAddr(mask); err != nil {
		return c, errors.Wrap(err, "netmask")
	}
	if c.Gateway, err = nwp.ParseAddr(gw); err != nil {
		return c, errors.Wrap(err, "gw")
	}
	return c, nil
}

// ExpandMACPlaceholders replaces the '?' characters of s, right to left, with
// the uppercase hex digits of mac read right to left. s is returned unchanged
// unless it holds an even number of placeholders, at most 12.
func ExpandMACPlaceholders(s string, mac [6]byte) string {
	n := strings.Count(s, "?")
	if n == 0 || n > 2*len(mac) || n%2 != 0 {
		return s
	}
	digits := strings.ToUpper(hex.EncodeToString(mac[:]))
	b := []byte(s)
	j := len(digits) - 1
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == '?' {
			b[i] = digits[j]
			j--
		}
	}
	return string(b)
}
