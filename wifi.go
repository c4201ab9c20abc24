// Package nwpwifi manages the Wi-Fi interface of a device whose radio is a
// network co-processor (NWP). It brings up station or access point role,
// sequences the NWP restarts needed to apply role and IP changes, and tracks
// connection state from the NWP's asynchronous events.
//
// All methods except HandleEvent and HandleFrame must be called from the
// cooperative main loop that drives the Scheduler.
package nwpwifi

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/soypat/nwpwifi/nwp"
)

const (
	// DefaultSettleDelay is how long Stop waits for the NWP to settle. Without
	// it the following Start may hang.
	DefaultSettleDelay = 10 * time.Millisecond
	// DefaultScanInterval is the background scan interval applied after a switch to station role.
	DefaultScanInterval = 15 * time.Second
)

// Radio is the NWP driver. Methods return a *nwp.StatusError on a non-zero
// firmware status.
type Radio interface {
	// SetMode stages the role applied by the next Start.
	SetMode(role nwp.Role) error
	Start() (nwp.Role, error)
	Stop(settle time.Duration) error
	SetNetConfig(id nwp.NetConfig, cfg nwp.IPv4Config) error
	SetAPOption(opt nwp.APOption, value []byte) error
	SetDHCPServer(opts nwp.DHCPServerOpts) error
	AppStart(app nwp.App) error
	AppStop(app nwp.App) error
	// Connect starts an asynchronous connection attempt.
	Connect(ssid string, sec nwp.SecParams) error
	Disconnect() error
	NetworkList(max int) ([]nwp.NetworkEntry, error)
	SetScanPolicy(interval time.Duration) error
	RxStatStart() error
	MACAddress() ([6]byte, error)
}

// FSLocker quiesces the filesystem that shares the bus with the NWP.
type FSLocker interface {
	Lock()
	// FlushLocked writes out pending filesystem data. Called with the lock held.
	FlushLocked() error
	Unlock()
}

// Scheduler runs deferred work on the main loop. Post must never run fn inline.
type Scheduler interface {
	Post(fn func()) error
}

type Config struct {
	Radio     Radio
	Scheduler Scheduler
	// FS is locked and flushed around every radio restart. May be nil.
	FS FSLocker
	// Validator checks setup requests. Defaults to DefaultValidator.
	Validator Validator
	// OnChange is called from the main loop on every status transition.
	OnChange func(Status)
	// OnRestart is called after every radio restart attempt so that users of
	// NWP sockets can reinitialize.
	OnRestart    func()
	Logger       *slog.Logger
	SettleDelay  time.Duration
	ScanInterval time.Duration
}

// Manager owns the connection state of one NWP.
type Manager struct {
	radio     Radio
	sched     Scheduler
	fs        FSLocker
	validator Validator
	onChange  func(Status)
	onRestart func()
	logger    *slog.Logger
	settle    time.Duration
	scanIntvl time.Duration

	role        nwp.Role
	pendingRole nwp.Role
	cfg         connConfig
	apIP        nwp.Addr

	// evmu guards the fields written from event-source context.
	evmu     sync.Mutex
	status   Status
	acquired nwp.IPInfo
}

// connConfig is the station configuration. Zero value means unconfigured.
type connConfig struct {
	ssid      string
	pass      []byte
	static    nwp.IPv4Config
	reconnect bool
}

func (c *connConfig) clear() {
	for i := range c.pass {
		c.pass[i] = 0
	}
	*c = connConfig{}
}

// New returns a Manager in the Disconnected state with an unknown radio role.
func New(cfg Config) (*Manager, error) {
	if cfg.Radio == nil {
		return nil, errors.New("nwpwifi: nil Radio")
	}
	if cfg.Scheduler == nil {
		return nil, errors.New("nwpwifi: nil Scheduler")
	}
	m := &Manager{
		radio:       cfg.Radio,
		sched:       cfg.Scheduler,
		fs:          cfg.FS,
		validator:   cfg.Validator,
		onChange:    cfg.OnChange,
		onRestart:   cfg.OnRestart,
		logger:      cfg.Logger,
		settle:      cfg.SettleDelay,
		scanIntvl:   cfg.ScanInterval,
		role:        nwp.RoleUnknown,
		pendingRole: nwp.RoleUnknown,
	}
	if m.fs == nil {
		m.fs = nopFS{}
	}
	if m.validator == nil {
		m.validator = DefaultValidator{}
	}
	if m.settle <= 0 {
		m.settle = DefaultSettleDelay
	}
	if m.scanIntvl <= 0 {
		m.scanIntvl = DefaultScanInterval
	}
	return m, nil
}

// Role returns the role the radio reported at its last successful restart,
// or nwp.RoleUnknown if it never started or the last restart failed.
func (m *Manager) Role() nwp.Role { return m.role }

// PendingRole returns the role staged for the next restart. It equals Role
// when nothing is staged.
func (m *Manager) PendingRole() nwp.Role { return m.pendingRole }

func (m *Manager) setMode(role nwp.Role) error {
	if err := m.radio.SetMode(role); err != nil {
		return errors.Wrapf(err, "set mode %v", role)
	}
	m.pendingRole = role
	m.debug("mode:staged", slog.String("role", role.String()))
	return nil
}

type nopFS struct{}

func (nopFS) Lock()              {}
func (nopFS) FlushLocked() error { return nil }
func (nopFS) Unlock()            {}
