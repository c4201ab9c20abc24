// Package radiosim implements a simulated network co-processor. It keeps the
// configuration written to it, applies the staged role on Start and delivers
// async event frames from its own goroutine the way a driver interrupt
// handler would.
package radiosim

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/soypat/nwpwifi/nwp"
)

// Op names a Radio method.
type Op string

const (
	OpSetMode       Op = "SetMode"
	OpStart         Op = "Start"
	OpStop          Op = "Stop"
	OpSetNetConfig  Op = "SetNetConfig"
	OpSetAPOption   Op = "SetAPOption"
	OpSetDHCPServer Op = "SetDHCPServer"
	OpAppStart      Op = "AppStart"
	OpAppStop       Op = "AppStop"
	OpConnect       Op = "Connect"
	OpDisconnect    Op = "Disconnect"
	OpNetworkList   Op = "NetworkList"
	OpSetScanPolicy Op = "SetScanPolicy"
	OpRxStatStart   Op = "RxStatStart"
	OpMACAddress    Op = "MACAddress"
)

// Call is a recorded Radio method call with its main argument.
type Call struct {
	Op  Op
	Arg any
}

// ErrClosed is returned by Emit after Close.
var ErrClosed = errors.New("radiosim: closed")

type Config struct {
	MAC [6]byte
	// Networks are returned by NetworkList and decide whether a Connect
	// associates. With AutoAssociate unset no association events are sent.
	Networks []nwp.NetworkEntry
	// InitialRole is the role the radio starts in when no mode was set.
	InitialRole nwp.Role
	// AutoAssociate emits connect and IP acquired events after an accepted
	// Connect to a listed network with matching security.
	AutoAssociate bool
	// Lease is the addressing handed out to the station when DHCP is used.
	Lease nwp.IPInfo
	// Sink receives encoded event frames on the radio's event goroutine.
	Sink   func(frame []byte)
	Logger *slog.Logger
}

// Radio is a simulated NWP. Its methods are safe for concurrent use.
type Radio struct {
	mu        sync.Mutex
	cfg       Config
	mode      nwp.Role
	role      nwp.Role
	running   bool
	linked    bool
	calls     []Call
	fail      map[Op]int32
	netcfg    map[nwp.NetConfig]nwp.IPv4Config
	staDHCP   bool
	apopts    map[nwp.APOption][]byte
	dhcp      nwp.DHCPServerOpts
	nextLease nwp.Addr
	apps      nwp.App
	scanIntvl time.Duration
	ssid      string
	sec       nwp.SecParams

	events  chan nwp.Event
	pending sync.WaitGroup
	cancel  context.CancelFunc
	done    chan struct{}
}

// New returns a stopped radio and starts its event goroutine. Call Close to stop it.
func New(cfg Config) *Radio {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Radio{
		cfg:    cfg,
		mode:   cfg.InitialRole,
		role:   nwp.RoleUnknown,
		fail:   make(map[Op]int32),
		netcfg: make(map[nwp.NetConfig]nwp.IPv4Config),
		apopts: make(map[nwp.APOption][]byte),
		events: make(chan nwp.Event, 16),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go r.eventLoop(ctx)
	return r
}

// Close stops the event goroutine. Events not yet delivered are dropped.
func (r *Radio) Close() error {
	r.cancel()
	<-r.done
	return nil
}

func (r *Radio) eventLoop(ctx context.Context) {
	defer close(r.done)
	var frame [nwp.EventFrameLen]byte
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-r.events:
			ev.Put(nwp.FrameOrder, frame[:])
			if r.cfg.Sink != nil {
				r.cfg.Sink(frame[:])
			}
			r.pending.Done()
		}
	}
}

// Emit queues ev for delivery to the sink. It blocks while the queue is full.
func (r *Radio) Emit(ev nwp.Event) error {
	select {
	case <-r.done:
		return ErrClosed
	default:
	}
	r.pending.Add(1)
	select {
	case r.events <- ev:
		return nil
	case <-r.done:
		r.pending.Done()
		return ErrClosed
	}
}

// Drain waits until every emitted event has been handed to the sink.
func (r *Radio) Drain() { r.pending.Wait() }

// Fail makes op return an NWP status error with code until cleared with a
// zero code. Failing OpStart makes Start report RoleUnknown.
func (r *Radio) Fail(op Op, code int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code == 0 {
		delete(r.fail, op)
		return
	}
	r.fail[op] = code
}

// call records the call and returns the injected failure for op, if any.
// Called with mu held.
func (r *Radio) call(op Op, arg any) error {
	r.calls = append(r.calls, Call{Op: op, Arg: arg})
	if r.cfg.Logger != nil {
		r.cfg.Logger.LogAttrs(context.Background(), slog.LevelDebug-1, "radiosim:call", slog.String("op", string(op)))
	}
	return nwp.Status(string(op), r.fail[op])
}

func (r *Radio) SetMode(role nwp.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.call(OpSetMode, role); err != nil {
		return err
	}
	if !role.Valid() {
		return nwp.Status(string(OpSetMode), -1)
	}
	r.mode = role
	return nil
}

func (r *Radio) Start() (nwp.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.call(OpStart, nil); err != nil {
		r.role = nwp.RoleUnknown
		return nwp.RoleUnknown, err
	}
	r.running = true
	r.role = r.mode
	return r.role, nil
}

func (r *Radio) Stop(settle time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.call(OpStop, settle); err != nil {
		return err
	}
	// The link and hosted apps go down silently with the NWP.
	r.running = false
	r.linked = false
	r.apps = 0
	return nil
}

func (r *Radio) SetNetConfig(id nwp.NetConfig, cfg nwp.IPv4Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.call(OpSetNetConfig, id); err != nil {
		return err
	}
	r.netcfg[id] = cfg
	switch id {
	case nwp.NetConfigSTADHCP:
		r.staDHCP = true
	case nwp.NetConfigSTAStatic:
		r.staDHCP = false
	}
	return nil
}

func (r *Radio) SetAPOption(opt nwp.APOption, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.call(OpSetAPOption, opt); err != nil {
		return err
	}
	r.apopts[opt] = append([]byte(nil), value...)
	return nil
}

func (r *Radio) SetDHCPServer(opts nwp.DHCPServerOpts) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.call(OpSetDHCPServer, opts); err != nil {
		return err
	}
	if opts.Last < opts.Start {
		return nwp.Status(string(OpSetDHCPServer), -2)
	}
	r.dhcp = opts
	r.nextLease = opts.Start
	return nil
}

func (r *Radio) AppStart(app nwp.App) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.call(OpAppStart, app); err != nil {
		return err
	}
	r.apps |= app
	return nil
}

func (r *Radio) AppStop(app nwp.App) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.call(OpAppStop, app); err != nil {
		return err
	}
	r.apps &^= app
	return nil
}

func (r *Radio) Connect(ssid string, sec nwp.SecParams) error {
	r.mu.Lock()
	if err := r.call(OpConnect, ssid); err != nil {
		r.mu.Unlock()
		return err
	}
	r.ssid, r.sec = ssid, sec
	associate := r.cfg.AutoAssociate && r.running && r.role == nwp.RoleStation && r.reachable(ssid, sec)
	var info nwp.IPInfo
	if associate {
		r.linked = true
		info = r.cfg.Lease
		if !r.staDHCP {
			static := r.netcfg[nwp.NetConfigSTAStatic]
			info = nwp.IPInfo{IP: static.IP, Gateway: static.Gateway, DNS: static.DNS}
		}
	}
	r.mu.Unlock()
	if associate {
		r.Emit(nwp.Event{Type: nwp.EvConnect})
		r.Emit(nwp.Event{Type: nwp.EvIPAcquired, Info: info})
	}
	return nil
}

func (r *Radio) reachable(ssid string, sec nwp.SecParams) bool {
	for _, n := range r.cfg.Networks {
		if n.SSID == ssid {
			return n.Sec == sec.Type
		}
	}
	return false
}

func (r *Radio) Disconnect() error {
	r.mu.Lock()
	if err := r.call(OpDisconnect, nil); err != nil {
		r.mu.Unlock()
		return err
	}
	wasLinked := r.linked
	r.linked = false
	r.mu.Unlock()
	if wasLinked {
		r.Emit(nwp.Event{Type: nwp.EvDisconnect})
	}
	return nil
}

// DropLink simulates losing the access point.
func (r *Radio) DropLink() {
	r.mu.Lock()
	r.linked = false
	r.mu.Unlock()
	r.Emit(nwp.Event{Type: nwp.EvDisconnect})
}

// AddClient simulates a station joining the access point and being leased
// the next address of the DHCP range.
func (r *Radio) AddClient(mac [6]byte) (nwp.Addr, error) {
	r.mu.Lock()
	if !r.running || r.role != nwp.RoleAccessPoint || r.apps&nwp.AppDHCPServer == 0 {
		r.mu.Unlock()
		return 0, errors.New("radiosim: dhcp server not running")
	}
	if r.nextLease > r.dhcp.Last {
		r.mu.Unlock()
		return 0, errors.New("radiosim: dhcp range exhausted")
	}
	ip := r.nextLease
	r.nextLease++
	r.mu.Unlock()
	if err := r.Emit(nwp.Event{Type: nwp.EvSTAAdded, PeerMAC: mac}); err != nil {
		return 0, err
	}
	return ip, r.Emit(nwp.Event{Type: nwp.EvIPLeased, Info: nwp.IPInfo{IP: ip}, PeerMAC: mac})
}

func (r *Radio) NetworkList(max int) ([]nwp.NetworkEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.call(OpNetworkList, max); err != nil {
		return nil, err
	}
	if !r.running || r.role != nwp.RoleStation {
		return nil, nwp.Status(string(OpNetworkList), -3)
	}
	n := len(r.cfg.Networks)
	if n > max {
		n = max
	}
	return append([]nwp.NetworkEntry(nil), r.cfg.Networks[:n]...), nil
}

func (r *Radio) SetScanPolicy(interval time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.call(OpSetScanPolicy, interval); err != nil {
		return err
	}
	r.scanIntvl = interval
	return nil
}

func (r *Radio) RxStatStart() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.call(OpRxStatStart, nil)
}

func (r *Radio) MACAddress() ([6]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.call(OpMACAddress, nil); err != nil {
		return [6]byte{}, err
	}
	return r.cfg.MAC, nil
}
