package nwpwifi

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/soypat/nwpwifi/nwp"
)

// SetupStation replaces the station configuration with cfg and starts a
// connection attempt. On a validation or parse error the previous
// configuration is left untouched.
func (m *Manager) SetupStation(cfg StationConfig) error {
	if err := m.validator.ValidateStation(&cfg); err != nil {
		return withKind(ErrInvalidConfig, err)
	}
	next := connConfig{
		ssid: cfg.SSID,
		pass: []byte(cfg.Pass),
	}
	if cfg.IP != "" && cfg.Netmask != "" {
		static, err := parseIPv4Config(cfg.IP, cfg.Netmask, cfg.Gateway)
		if err != nil {
			return withKind(ErrParse, err)
		}
		next.static = static
	}
	m.cfg.clear()
	m.cfg = next
	m.resetLink()
	m.info("sta:setup", slog.String("ssid", cfg.SSID), slog.Bool("static", !next.static.IsZero()))
	return m.Connect()
}

// Connect brings the radio up in station role with the stored configuration
// and issues an asynchronous connect request. A nil error means the attempt
// was accepted; the link is confirmed later by a connect event.
func (m *Manager) Connect() error {
	if m.cfg.ssid == "" {
		return ErrNotConfigured
	}
	switched, err := m.stageStation()
	if err != nil {
		return err
	}
	if m.cfg.static.IsZero() {
		err = m.radio.SetNetConfig(nwp.NetConfigSTADHCP, nwp.IPv4Config{})
	} else {
		err = m.radio.SetNetConfig(nwp.NetConfigSTAStatic, m.cfg.static)
	}
	if err != nil {
		return errors.Wrap(err, "set sta ip config")
	}
	if _, err = m.restartRadio(); err != nil {
		return err
	}
	if switched {
		m.applyScanPolicy()
	}
	pass := string(m.cfg.pass)
	sec := nwp.SecParams{Type: nwp.SecurityFor(pass), Key: pass}
	m.debug("sta:connect", slog.String("ssid", m.cfg.ssid), slog.String("sec", sec.Type.String()))
	if err = m.radio.Connect(m.cfg.ssid, sec); err != nil {
		return errors.Wrapf(err, "connect %q", m.cfg.ssid)
	}
	if err = m.radio.RxStatStart(); err != nil {
		m.warn("sta:rxstat", errAttr(err))
	}
	m.cfg.reconnect = true
	return nil
}

// Disconnect discards the station configuration, disabling reconnect, and
// drops the current link.
func (m *Manager) Disconnect() error {
	m.cfg.clear()
	m.resetLink()
	m.info("sta:disconnect")
	if err := m.radio.Disconnect(); err != nil {
		return errors.Wrap(err, "disconnect")
	}
	return nil
}

// stageStation stages station role if the radio is in any other role. It
// reports whether a switch was staged.
func (m *Manager) stageStation() (bool, error) {
	if m.role == nwp.RoleStation {
		return false, nil
	}
	return true, m.setMode(nwp.RoleStation)
}

// ensureStation puts the radio in station role, restarting it if needed.
func (m *Manager) ensureStation() error {
	switched, err := m.stageStation()
	if err != nil || !switched {
		return err
	}
	if _, err = m.restartRadio(); err != nil {
		return err
	}
	m.applyScanPolicy()
	return nil
}

func (m *Manager) applyScanPolicy() {
	if err := m.radio.SetScanPolicy(m.scanIntvl); err != nil {
		m.warn("sta:scan-policy", errAttr(err))
	}
}
