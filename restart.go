package nwpwifi

import (
	"log/slog"
	"time"

	"github.com/soypat/nwpwifi/nwp"
)

// restartRadio stops and starts the NWP so that staged role and IP settings
// take effect. The filesystem is locked and flushed for the whole cycle.
// Failure leaves the role unknown and is not retried here.
func (m *Manager) restartRadio() (nwp.Role, error) {
	start := time.Now()
	role, err := m.cycleRadio()
	if m.onRestart != nil {
		m.onRestart()
	}
	if err != nil {
		m.logerr("restart:failed", errAttr(err))
		return role, err
	}
	m.debug("restart:done", slog.String("role", role.String()), slog.Duration("took", time.Since(start)))
	return role, nil
}

func (m *Manager) cycleRadio() (nwp.Role, error) {
	m.fs.Lock()
	defer m.fs.Unlock()
	if err := m.fs.FlushLocked(); err != nil {
		m.warn("restart:fs-flush", errAttr(err))
	}
	// The NWP's built-in HTTP server is never used.
	_ = m.radio.AppStop(nwp.AppHTTPServer)

	m.trace("restart:stop", slog.Duration("settle", m.settle))
	if err := m.radio.Stop(m.settle); err != nil {
		m.warn("restart:stop", errAttr(err))
	}
	// Any station link goes down with the NWP.
	m.resetLink()
	role, err := m.radio.Start()
	if err == nil && !role.Valid() {
		err = nwp.Status("start", int32(role))
	}
	if err != nil {
		m.role = nwp.RoleUnknown
		m.pendingRole = nwp.RoleUnknown
		m.apIP = 0
		return nwp.RoleUnknown, withKind(ErrRadioUnavailable, err)
	}
	m.role = role
	m.pendingRole = role
	if role != nwp.RoleAccessPoint {
		m.apIP = 0
	}
	return role, nil
}
