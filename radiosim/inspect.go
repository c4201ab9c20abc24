package radiosim

import (
	"time"

	"github.com/soypat/nwpwifi/nwp"
)

// Calls returns a copy of the recorded calls.
func (r *Radio) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns how many times op was called.
func (r *Radio) Count(op Op) (n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// ResetCalls forgets recorded calls.
func (r *Radio) ResetCalls() {
	r.mu.Lock()
	r.calls = r.calls[:0]
	r.mu.Unlock()
}

// Role returns the role the radio is running in, or RoleUnknown when stopped.
func (r *Radio) Role() nwp.Role {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return nwp.RoleUnknown
	}
	return r.role
}

// Mode returns the role applied by the next Start.
func (r *Radio) Mode() nwp.Role {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// NetConfig returns the stored IP configuration block.
func (r *Radio) NetConfig(id nwp.NetConfig) (nwp.IPv4Config, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.netcfg[id]
	return c, ok
}

// APOption returns the stored access point parameter.
func (r *Radio) APOption(opt nwp.APOption) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.apopts[opt]
	return v, ok
}

// DHCPServer returns the DHCP server configuration.
func (r *Radio) DHCPServer() nwp.DHCPServerOpts {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dhcp
}

// AppRunning reports whether app is running.
func (r *Radio) AppRunning(app nwp.App) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apps&app != 0
}

// ScanInterval returns the last scan policy interval set.
func (r *Radio) ScanInterval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scanIntvl
}

// LastConnect returns the arguments of the last accepted Connect call.
func (r *Radio) LastConnect() (string, nwp.SecParams) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ssid, r.sec
}
