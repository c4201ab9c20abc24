package nwpwifi

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/soypat/nwpwifi/nwp"
)

// SetupAccessPoint configures and starts access point role with a DHCP
// server. Parameters are applied to the radio one at a time; a failure aborts
// setup and leaves the radio partially configured until the next successful
// setup. A DHCP server that fails to start is logged and not reported.
func (m *Manager) SetupAccessPoint(cfg APConfig) error {
	if err := m.validator.ValidateAP(&cfg); err != nil {
		return withKind(ErrInvalidConfig, err)
	}
	ipcfg, err := parseIPv4Config(cfg.IP, cfg.Netmask, cfg.Gateway)
	if err != nil {
		return withKind(ErrParse, err)
	}
	// Clients get the AP itself as DNS server.
	ipcfg.DNS = ipcfg.Gateway
	var dhcp nwp.DHCPServerOpts
	dhcp.LeaseTime = nwp.DHCPLeaseTime
	if dhcp.Start, err = nwp.ParseAddr(cfg.DHCPStart); err != nil {
		return withKind(ErrParse, errors.Wrap(err, "dhcp_start"))
	}
	if dhcp.Last, err = nwp.ParseAddr(cfg.DHCPEnd); err != nil {
		return withKind(ErrParse, errors.Wrap(err, "dhcp_end"))
	}

	if err = m.setMode(nwp.RoleAccessPoint); err != nil {
		return err
	}
	ssid := cfg.SSID
	if mac, err := m.radio.MACAddress(); err != nil {
		m.warn("ap:mac", errAttr(err))
	} else {
		ssid = ExpandMACPlaceholders(ssid, mac)
	}
	if err = m.setAPOption(nwp.APOptSSID, []byte(ssid)); err != nil {
		return err
	}
	sec := nwp.SecurityFor(cfg.Pass)
	if err = m.setAPOption(nwp.APOptSecurityType, []byte{byte(sec)}); err != nil {
		return err
	}
	if sec == nwp.SecWPA {
		if err = m.setAPOption(nwp.APOptPassword, []byte(cfg.Pass)); err != nil {
			return err
		}
	}
	if err = m.setAPOption(nwp.APOptChannel, []byte{byte(cfg.Channel)}); err != nil {
		return err
	}
	var hidden byte
	if cfg.Hidden {
		hidden = 1
	}
	if err = m.setAPOption(nwp.APOptHiddenSSID, []byte{hidden}); err != nil {
		return err
	}
	if err = m.radio.SetNetConfig(nwp.NetConfigAPStatic, ipcfg); err != nil {
		return errors.Wrap(err, "set ap ip config")
	}
	if err = m.radio.SetDHCPServer(dhcp); err != nil {
		return errors.Wrap(err, "set dhcp server")
	}

	m.cfg.reconnect = false
	_ = m.radio.AppStop(nwp.AppDHCPServer)
	if _, err = m.restartRadio(); err != nil {
		return err
	}
	if err = m.radio.AppStart(nwp.AppDHCPServer); err != nil {
		m.logerr("ap:dhcp-start", errAttr(err))
	}
	if err = m.radio.RxStatStart(); err != nil {
		m.warn("ap:rxstat", errAttr(err))
	}
	m.apIP = ipcfg.IP
	m.info("ap:up", slog.String("ssid", ssid), slog.String("sec", sec.String()),
		slog.Int("channel", cfg.Channel), slog.String("ip", ipcfg.IP.String()))
	return nil
}

func (m *Manager) setAPOption(opt nwp.APOption, v []byte) error {
	if err := m.radio.SetAPOption(opt, v); err != nil {
		return errors.Wrapf(err, "set ap %v", opt)
	}
	return nil
}
