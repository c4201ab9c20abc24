package nwpwifi

import (
	"log/slog"

	"github.com/soypat/nwpwifi/nwp"
)

// Scan switches the radio to station role if needed, restarting it, and
// reports the SSIDs of up to nwp.MaxNetworkEntries networks in the order the
// radio lists them. cb is called exactly once, with an empty slice if the
// scan failed. A failed scan also returns an error matching ErrScan.
func (m *Manager) Scan(cb func(ssids []string)) error {
	nets, err := m.ScanNetworks()
	ssids := make([]string, 0, len(nets))
	for i := range nets {
		ssids = append(ssids, nets[i].SSID)
	}
	if cb != nil {
		cb(ssids)
	}
	return err
}

// ScanNetworks is like Scan but returns the full network entries. A scan that
// found nothing returns an empty slice and a nil error.
func (m *Manager) ScanNetworks() ([]nwp.NetworkEntry, error) {
	if err := m.ensureStation(); err != nil {
		return nil, withKind(ErrScan, err)
	}
	nets, err := m.radio.NetworkList(nwp.MaxNetworkEntries)
	if err != nil {
		m.warn("scan:failed", errAttr(err))
		return nil, withKind(ErrScan, err)
	}
	if len(nets) > nwp.MaxNetworkEntries {
		nets = nets[:nwp.MaxNetworkEntries]
	}
	m.debug("scan:done", slog.Int("found", len(nets)))
	return nets, nil
}
