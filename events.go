package nwpwifi

import (
	"log/slog"
	"net"

	"github.com/soypat/nwpwifi/nwp"
)

// HandleFrame decodes an NWP async event frame and dispatches it with HandleEvent.
func (m *Manager) HandleFrame(frame []byte) error {
	ev, err := nwp.ParseEvent(nwp.FrameOrder, frame)
	if err != nil {
		m.warn("event:bad-frame", errAttr(err))
		return err
	}
	m.HandleEvent(ev)
	return nil
}

// HandleEvent applies an NWP async event to the connection state. It is safe
// to call from the event-source goroutine: it never blocks and defers the
// OnChange notification, and any reconnect, to the Scheduler.
func (m *Manager) HandleEvent(ev nwp.Event) {
	m.trace("event", slog.String("type", ev.Type.String()), slog.Uint64("status", uint64(ev.Status)))
	switch ev.Type {
	case nwp.EvConnect:
		m.transition(StatusConnected, nil)
	case nwp.EvDisconnect:
		m.transition(StatusDisconnected, nil)
	case nwp.EvIPAcquired:
		info := ev.Info
		m.transition(StatusIPAcquired, &info)
	case nwp.EvIPLeased:
		m.info("ap:ip-leased", slog.String("ip", ev.Info.IP.String()),
			slog.String("mac", net.HardwareAddr(ev.PeerMAC[:]).String()))
	}
}

func (m *Manager) transition(st Status, info *nwp.IPInfo) {
	m.evmu.Lock()
	defer m.evmu.Unlock()
	m.status = st
	if info != nil {
		m.acquired = *info
	}
	m.postNotify(st, true)
}

// resetLink drops the station link state outside of the event flow, as when
// the config is replaced or the NWP restarts. The application is notified if
// the status changed. No reconnect follows.
func (m *Manager) resetLink() {
	m.evmu.Lock()
	defer m.evmu.Unlock()
	m.acquired = nwp.IPInfo{}
	if m.status == StatusDisconnected {
		return
	}
	m.status = StatusDisconnected
	m.postNotify(StatusDisconnected, false)
}

// postNotify is called with evmu held so notifications keep event order.
func (m *Manager) postNotify(st Status, mayReconnect bool) {
	if err := m.sched.Post(func() { m.notify(st, mayReconnect) }); err != nil {
		m.logerr("event:post", slog.String("status", st.String()), errAttr(err))
	}
}

// notify runs on the main loop. On a disconnect event in station role the
// application is notified before the reconnect attempt begins.
func (m *Manager) notify(st Status, mayReconnect bool) {
	if m.onChange != nil {
		m.onChange(st)
	}
	if !mayReconnect || st != StatusDisconnected || m.role != nwp.RoleStation || !m.cfg.reconnect {
		return
	}
	if m.Status() != StatusDisconnected {
		return // Link came back before we ran.
	}
	m.debug("sta:reconnect", slog.String("ssid", m.cfg.ssid))
	if err := m.Connect(); err != nil {
		m.logerr("sta:reconnect-failed", errAttr(err))
	}
}
