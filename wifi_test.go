package nwpwifi

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/soypat/nwpwifi/loop"
	"github.com/soypat/nwpwifi/nwp"
	"github.com/soypat/nwpwifi/radiosim"
)

var (
	testMAC   = [6]byte{0x02, 0x11, 0x22, 0x33, 0xab, 0xcd}
	testLease = nwp.IPInfo{
		IP:      nwp.AddrFrom4([4]byte{192, 168, 1, 42}),
		Gateway: nwp.AddrFrom4([4]byte{192, 168, 1, 1}),
		DNS:     nwp.AddrFrom4([4]byte{192, 168, 1, 1}),
	}
	testNetworks = []nwp.NetworkEntry{
		{SSID: "Net1", Sec: nwp.SecWPA, RSSI: -40},
		{SSID: "cafe", Sec: nwp.SecOpen, RSSI: -71},
		{SSID: "Net2", Sec: nwp.SecWPA, RSSI: -80},
	}
)

type harness struct {
	t        *testing.T
	radio    *radiosim.Radio
	loop     *loop.Loop
	m        *Manager
	changes  []Status
	restarts int
}

func newHarness(t *testing.T, simcfg radiosim.Config, mod func(*Config)) *harness {
	t.Helper()
	h := &harness{t: t, loop: loop.New(loop.Config{})}
	simcfg.MAC = testMAC
	if simcfg.Networks == nil {
		simcfg.Networks = testNetworks
	}
	if simcfg.Lease == (nwp.IPInfo{}) {
		simcfg.Lease = testLease
	}
	var m *Manager
	simcfg.Sink = func(frame []byte) {
		if err := m.HandleFrame(frame); err != nil {
			t.Error(err)
		}
	}
	h.radio = radiosim.New(simcfg)
	t.Cleanup(func() { h.radio.Close() })
	cfg := Config{
		Radio:     h.radio,
		Scheduler: h.loop,
		OnChange:  func(s Status) { h.changes = append(h.changes, s) },
		OnRestart: func() { h.restarts++ },
	}
	if mod != nil {
		mod(&cfg)
	}
	m, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	h.m = m
	return h
}

// settle delivers pending radio events and runs the main loop until idle.
func (h *harness) settle() {
	for {
		h.radio.Drain()
		if h.loop.RunPending() == 0 {
			return
		}
	}
}

func (h *harness) emit(ev nwp.Event) {
	h.t.Helper()
	if err := h.radio.Emit(ev); err != nil {
		h.t.Fatal(err)
	}
	h.radio.Drain()
}

func (h *harness) wantChanges(want ...Status) {
	h.t.Helper()
	if len(h.changes) != len(want) {
		h.t.Fatalf("want changes %v, got %v", want, h.changes)
	}
	for i := range want {
		if h.changes[i] != want[i] {
			h.t.Fatalf("want changes %v, got %v", want, h.changes)
		}
	}
}

func TestStationStatusSequence(t *testing.T) {
	h := newHarness(t, radiosim.Config{}, nil)
	if err := h.m.SetupStation(StationConfig{SSID: "Net1", Pass: "secret123"}); err != nil {
		t.Fatal(err)
	}
	if h.m.Status() != StatusDisconnected {
		t.Fatal("connect request must not change status")
	}
	h.emit(nwp.Event{Type: nwp.EvConnect})
	if len(h.changes) != 0 {
		t.Fatal("notification ran inline with event")
	}
	h.settle()
	h.wantChanges(StatusConnected)
	h.emit(nwp.Event{Type: nwp.EvIPAcquired, Info: testLease})
	h.settle()
	h.wantChanges(StatusConnected, StatusIPAcquired)
}

func TestSetupStationScenario(t *testing.T) {
	h := newHarness(t, radiosim.Config{InitialRole: nwp.RoleAccessPoint}, nil)
	if err := h.m.SetupStation(StationConfig{SSID: "Net1", Pass: "secret123"}); err != nil {
		t.Fatal(err)
	}
	if n := h.radio.Count(radiosim.OpSetMode); n != 1 {
		t.Fatalf("want 1 mode switch, got %d", n)
	}
	if n := h.radio.Count(radiosim.OpStart); n != 1 || h.restarts != 1 {
		t.Fatalf("want 1 restart, got %d starts %d hooks", n, h.restarts)
	}
	if h.m.Role() != nwp.RoleStation || h.radio.Role() != nwp.RoleStation {
		t.Fatalf("want station role, got %v", h.m.Role())
	}
	ssid, sec := h.radio.LastConnect()
	if ssid != "Net1" || sec.Type != nwp.SecWPA || sec.Key != "secret123" {
		t.Fatalf("unexpected connect %q %+v", ssid, sec)
	}
	if _, ok := h.radio.NetConfig(nwp.NetConfigSTADHCP); !ok {
		t.Fatal("dhcp client not configured")
	}
	if h.radio.ScanInterval() != DefaultScanInterval {
		t.Fatalf("scan policy %v", h.radio.ScanInterval())
	}

	h.emit(nwp.Event{Type: nwp.EvIPAcquired, Info: nwp.IPInfo{
		IP:      nwp.AddrFrom4([4]byte{192, 168, 1, 42}),
		Gateway: nwp.AddrFrom4([4]byte{192, 168, 1, 1}),
	}})
	h.settle()
	if ip, ok := h.m.StationIP(); !ok || ip != "192.168.1.42" {
		t.Fatalf("station ip %q %v", ip, ok)
	}
	if gw, ok := h.m.StationGateway(); !ok || gw != "192.168.1.1" {
		t.Fatalf("gateway %q %v", gw, ok)
	}
	if _, ok := h.m.StationDNS(); ok {
		t.Fatal("zero dns must be reported as unset")
	}
	if h.m.Status() != StatusIPAcquired {
		t.Fatalf("status %v", h.m.Status())
	}
}

func TestStaticStation(t *testing.T) {
	h := newHarness(t, radiosim.Config{AutoAssociate: true}, nil)
	err := h.m.SetupStation(StationConfig{
		SSID: "cafe", IP: "10.1.2.3", Netmask: "255.255.255.0", Gateway: "10.1.2.1",
	})
	if err != nil {
		t.Fatal(err)
	}
	got, ok := h.radio.NetConfig(nwp.NetConfigSTAStatic)
	want := nwp.IPv4Config{
		IP:      nwp.AddrFrom4([4]byte{10, 1, 2, 3}),
		Mask:    nwp.AddrFrom4([4]byte{255, 255, 255, 0}),
		Gateway: nwp.AddrFrom4([4]byte{10, 1, 2, 1}),
	}
	if !ok || got != want {
		t.Fatalf("want static %+v, got %+v", want, got)
	}
	_, sec := h.radio.LastConnect()
	if sec.Type != nwp.SecOpen {
		t.Fatalf("want open security, got %v", sec.Type)
	}
	h.settle()
	if ip, _ := h.m.StationIP(); ip != "10.1.2.3" {
		t.Fatalf("station ip %q", ip)
	}
}

func TestReconnectAfterNotify(t *testing.T) {
	var connectsAtDisconnect = -1
	h := newHarness(t, radiosim.Config{AutoAssociate: true}, nil)
	h.m.onChange = func(s Status) {
		h.changes = append(h.changes, s)
		if s == StatusDisconnected {
			connectsAtDisconnect = h.radio.Count(radiosim.OpConnect)
		}
	}
	if err := h.m.SetupStation(StationConfig{SSID: "Net1", Pass: "secret123"}); err != nil {
		t.Fatal(err)
	}
	h.settle()
	h.wantChanges(StatusConnected, StatusIPAcquired)

	h.radio.DropLink()
	h.settle()
	if connectsAtDisconnect != 1 {
		t.Fatalf("reconnect started before disconnect notification: %d connects", connectsAtDisconnect)
	}
	if n := h.radio.Count(radiosim.OpConnect); n != 2 {
		t.Fatalf("want one reconnect, got %d connects", n)
	}
	h.wantChanges(StatusConnected, StatusIPAcquired, StatusDisconnected, StatusConnected, StatusIPAcquired)
}

func TestSetupStationReplacesLink(t *testing.T) {
	h := newHarness(t, radiosim.Config{AutoAssociate: true}, nil)
	if err := h.m.SetupStation(StationConfig{SSID: "Net1", Pass: "secret123"}); err != nil {
		t.Fatal(err)
	}
	h.settle()
	if err := h.m.SetupStation(StationConfig{SSID: "cafe"}); err != nil {
		t.Fatal(err)
	}
	if h.m.Status() != StatusDisconnected {
		t.Fatalf("status %v after new config", h.m.Status())
	}
	h.settle()
	h.wantChanges(StatusConnected, StatusIPAcquired, StatusDisconnected, StatusConnected, StatusIPAcquired)
	if n := h.radio.Count(radiosim.OpConnect); n != 2 {
		t.Fatalf("want 2 connects, got %d", n)
	}
	if ssid, ok := h.m.ConnectedSSID(); !ok || ssid != "cafe" {
		t.Fatalf("connected ssid %q %v", ssid, ok)
	}
}

func TestAccessPointDropsStationLink(t *testing.T) {
	h := newHarness(t, radiosim.Config{AutoAssociate: true}, nil)
	if err := h.m.SetupStation(StationConfig{SSID: "Net1", Pass: "secret123"}); err != nil {
		t.Fatal(err)
	}
	h.settle()
	if err := h.m.SetupAccessPoint(testAPConfig()); err != nil {
		t.Fatal(err)
	}
	h.settle()
	if h.m.Status() != StatusDisconnected {
		t.Fatalf("status %v in ap role", h.m.Status())
	}
	if _, ok := h.m.ConnectedSSID(); ok {
		t.Fatal("connected ssid reported in ap role")
	}
	if _, ok := h.m.StationIP(); ok {
		t.Fatal("station ip reported in ap role")
	}
	h.wantChanges(StatusConnected, StatusIPAcquired, StatusDisconnected)
	if n := h.radio.Count(radiosim.OpConnect); n != 1 {
		t.Fatalf("reconnect issued in ap role, %d connects", n)
	}
}

func TestNoReconnectAfterDisconnect(t *testing.T) {
	h := newHarness(t, radiosim.Config{AutoAssociate: true}, nil)
	if err := h.m.SetupStation(StationConfig{SSID: "Net1", Pass: "secret123"}); err != nil {
		t.Fatal(err)
	}
	h.settle()
	if err := h.m.Disconnect(); err != nil {
		t.Fatal(err)
	}
	h.settle()
	if n := h.radio.Count(radiosim.OpConnect); n != 1 {
		t.Fatalf("unexpected reconnect, %d connects", n)
	}
	if h.m.Status() != StatusDisconnected {
		t.Fatalf("status %v", h.m.Status())
	}
	if err := h.m.Connect(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
}

func TestConnectedSSID(t *testing.T) {
	h := newHarness(t, radiosim.Config{}, nil)
	if err := h.m.SetupStation(StationConfig{SSID: "Net1", Pass: "secret123"}); err != nil {
		t.Fatal(err)
	}
	check := func(wantOK bool) {
		t.Helper()
		ssid, ok := h.m.ConnectedSSID()
		if ok != wantOK || (ok && ssid != "Net1") {
			t.Fatalf("status %v: got %q %v", h.m.Status(), ssid, ok)
		}
	}
	check(false)
	h.emit(nwp.Event{Type: nwp.EvConnect})
	h.settle()
	check(true)
	h.emit(nwp.Event{Type: nwp.EvIPAcquired, Info: testLease})
	h.settle()
	check(true)
	// Reconnect attempt is accepted but never associates.
	h.emit(nwp.Event{Type: nwp.EvDisconnect})
	h.settle()
	check(false)
	if _, ok := h.m.StationIP(); ok {
		t.Fatal("station ip reported while disconnected")
	}
}

func TestMalformedStaticKeepsConfig(t *testing.T) {
	h := newHarness(t, radiosim.Config{}, nil)
	if err := h.m.SetupStation(StationConfig{SSID: "Net1", Pass: "secret123"}); err != nil {
		t.Fatal(err)
	}
	before := h.radio.Calls()
	err := h.m.SetupStation(StationConfig{
		SSID: "Net2", Pass: "another1", IP: "999.1.1.1", Netmask: "255.255.255.0", Gateway: "10.0.0.1",
	})
	if !errors.Is(err, ErrParse) {
		t.Fatalf("want ErrParse, got %v", err)
	}
	if h.m.cfg.ssid != "Net1" || !bytes.Equal(h.m.cfg.pass, []byte("secret123")) || !h.m.cfg.static.IsZero() {
		t.Fatalf("stored config mutated: %+v", h.m.cfg)
	}
	if len(h.radio.Calls()) != len(before) {
		t.Fatal("radio touched on parse failure")
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	h := newHarness(t, radiosim.Config{}, nil)
	err := h.m.SetupStation(StationConfig{SSID: "Net1", Pass: "short"})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}
	err = h.m.SetupAccessPoint(APConfig{SSID: "ap", Channel: 15})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}
	if n := len(h.radio.Calls()); n != 0 {
		t.Fatalf("radio touched %d times", n)
	}
}

func TestRestartFailure(t *testing.T) {
	h := newHarness(t, radiosim.Config{}, nil)
	h.radio.Fail(radiosim.OpStart, -2018)
	err := h.m.SetupStation(StationConfig{SSID: "Net1", Pass: "secret123"})
	if !errors.Is(err, ErrRadioUnavailable) {
		t.Fatalf("want ErrRadioUnavailable, got %v", err)
	}
	var serr *nwp.StatusError
	if !errors.As(err, &serr) || serr.Code != -2018 {
		t.Fatalf("want wrapped status error, got %v", err)
	}
	if h.m.Role() != nwp.RoleUnknown || h.m.PendingRole() != nwp.RoleUnknown {
		t.Fatalf("role %v pending %v", h.m.Role(), h.m.PendingRole())
	}
	if h.restarts != 1 {
		t.Fatalf("restart hook called %d times", h.restarts)
	}
	if h.radio.Count(radiosim.OpConnect) != 0 {
		t.Fatal("connect issued after failed restart")
	}

	h.radio.Fail(radiosim.OpStart, 0)
	if err := h.m.Connect(); err != nil {
		t.Fatal(err)
	}
	if h.m.Role() != nwp.RoleStation {
		t.Fatalf("role %v", h.m.Role())
	}
}

func TestRadioCommandAborts(t *testing.T) {
	h := newHarness(t, radiosim.Config{}, nil)
	h.radio.Fail(radiosim.OpSetNetConfig, -1)
	err := h.m.SetupStation(StationConfig{SSID: "Net1", Pass: "secret123"})
	var serr *nwp.StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("want status error, got %v", err)
	}
	if h.radio.Count(radiosim.OpStart) != 0 {
		t.Fatal("restart after failed command")
	}
	if h.m.PendingRole() != nwp.RoleStation {
		t.Fatalf("staged role lost: %v", h.m.PendingRole())
	}
}

type recordFS struct {
	radio  *radiosim.Radio
	events []string
}

func (f *recordFS) Lock() {
	f.events = append(f.events, "lock")
}
func (f *recordFS) FlushLocked() error {
	f.events = append(f.events, "flush")
	return nil
}
func (f *recordFS) Unlock() {
	if f.radio.Count(radiosim.OpStart) == 0 {
		f.events = append(f.events, "unlock-before-start")
		return
	}
	f.events = append(f.events, "unlock")
}

func TestRestartHoldsFSLock(t *testing.T) {
	fs := &recordFS{}
	var restartSeen []string
	h := newHarness(t, radiosim.Config{}, func(c *Config) {
		c.FS = fs
		c.OnRestart = func() { restartSeen = append([]string(nil), fs.events...) }
	})
	fs.radio = h.radio
	if err := h.m.SetupStation(StationConfig{SSID: "Net1"}); err != nil {
		t.Fatal(err)
	}
	want := []string{"lock", "flush", "unlock"}
	if len(fs.events) != len(want) {
		t.Fatalf("want %v, got %v", want, fs.events)
	}
	for i := range want {
		if fs.events[i] != want[i] {
			t.Fatalf("want %v, got %v", want, fs.events)
		}
	}
	if len(restartSeen) != len(want) {
		t.Fatalf("restart hook ran before unlock: %v", restartSeen)
	}
	calls := h.radio.Calls()
	var order []radiosim.Op
	for _, c := range calls {
		if c.Op == radiosim.OpAppStop || c.Op == radiosim.OpStop || c.Op == radiosim.OpStart {
			order = append(order, c.Op)
		}
	}
	if len(order) != 3 || order[0] != radiosim.OpAppStop || order[1] != radiosim.OpStop || order[2] != radiosim.OpStart {
		t.Fatalf("restart sequence %v", order)
	}
	if d := calls[indexOf(calls, radiosim.OpStop)].Arg.(time.Duration); d != DefaultSettleDelay {
		t.Fatalf("settle delay %v", d)
	}
}

func indexOf(calls []radiosim.Call, op radiosim.Op) int {
	for i := range calls {
		if calls[i].Op == op {
			return i
		}
	}
	return -1
}

func TestAccessPointSecurity(t *testing.T) {
	for _, tc := range []struct {
		pass    string
		wantSec nwp.SecType
	}{
		{pass: "", wantSec: nwp.SecOpen},
		{pass: "password1", wantSec: nwp.SecWPA},
	} {
		h := newHarness(t, radiosim.Config{}, nil)
		cfg := testAPConfig()
		cfg.Pass = tc.pass
		if err := h.m.SetupAccessPoint(cfg); err != nil {
			t.Fatal(err)
		}
		sec, _ := h.radio.APOption(nwp.APOptSecurityType)
		if len(sec) != 1 || nwp.SecType(sec[0]) != tc.wantSec {
			t.Errorf("pass %q: want sec %v, got %v", tc.pass, tc.wantSec, sec)
		}
		pw, ok := h.radio.APOption(nwp.APOptPassword)
		if ok != (tc.wantSec == nwp.SecWPA) || string(pw) != tc.pass {
			t.Errorf("pass %q: password option %q set=%v", tc.pass, pw, ok)
		}
	}
}

func testAPConfig() APConfig {
	return APConfig{
		SSID:      "device-????",
		Channel:   6,
		Hidden:    true,
		IP:        "192.168.4.1",
		Netmask:   "255.255.255.0",
		Gateway:   "192.168.4.1",
		DHCPStart: "192.168.4.2",
		DHCPEnd:   "192.168.4.20",
	}
}

func TestRestartFailureReleasesFSLock(t *testing.T) {
	fs := &recordFS{}
	var restartSeen []string
	h := newHarness(t, radiosim.Config{}, func(c *Config) {
		c.FS = fs
		c.OnRestart = func() { restartSeen = append([]string(nil), fs.events...) }
	})
	fs.radio = h.radio
	h.radio.Fail(radiosim.OpStart, -1)
	err := h.m.SetupStation(StationConfig{SSID: "Net1"})
	if !errors.Is(err, ErrRadioUnavailable) {
		t.Fatalf("want ErrRadioUnavailable, got %v", err)
	}
	want := []string{"lock", "flush", "unlock"}
	if len(fs.events) != len(want) {
		t.Fatalf("want %v, got %v", want, fs.events)
	}
	for i := range want {
		if fs.events[i] != want[i] {
			t.Fatalf("want %v, got %v", want, fs.events)
		}
	}
	if len(restartSeen) != len(want) {
		t.Fatalf("restart hook ran before unlock: %v", restartSeen)
	}
}

func TestAccessPointSetup(t *testing.T) {
	h := newHarness(t, radiosim.Config{}, nil)
	if err := h.m.SetupAccessPoint(testAPConfig()); err != nil {
		t.Fatal(err)
	}
	if h.m.Role() != nwp.RoleAccessPoint {
		t.Fatalf("role %v", h.m.Role())
	}
	if h.radio.Count(radiosim.OpStart) != 1 {
		t.Fatal("want exactly one restart")
	}
	ssid, _ := h.radio.APOption(nwp.APOptSSID)
	if string(ssid) != "device-ABCD" {
		t.Fatalf("ssid %q", ssid)
	}
	if ch, _ := h.radio.APOption(nwp.APOptChannel); len(ch) != 1 || ch[0] != 6 {
		t.Fatalf("channel %v", ch)
	}
	if hid, _ := h.radio.APOption(nwp.APOptHiddenSSID); len(hid) != 1 || hid[0] != 1 {
		t.Fatalf("hidden %v", hid)
	}
	dhcp := h.radio.DHCPServer()
	if dhcp.LeaseTime != 900*time.Second || dhcp.Start.String() != "192.168.4.2" || dhcp.Last.String() != "192.168.4.20" {
		t.Fatalf("dhcp %+v", dhcp)
	}
	if !h.radio.AppRunning(nwp.AppDHCPServer) {
		t.Fatal("dhcp server not started")
	}
	if ipcfg, ok := h.radio.NetConfig(nwp.NetConfigAPStatic); !ok || ipcfg.DNS.String() != "192.168.4.1" {
		t.Fatalf("ap static config %+v", ipcfg)
	}
	if ip, ok := h.m.APIP(); !ok || ip != "192.168.4.1" {
		t.Fatalf("ap ip %q %v", ip, ok)
	}
	if h.radio.Count(radiosim.OpRxStatStart) != 1 {
		t.Fatal("rx statistics not started")
	}

	// Leases are informational only.
	if _, err := h.radio.AddClient([6]byte{0xaa, 1, 2, 3, 4, 5}); err != nil {
		t.Fatal(err)
	}
	h.radio.Drain()
	h.settle()
	if len(h.changes) != 0 || h.m.Status() != StatusDisconnected {
		t.Fatalf("lease changed state: %v", h.changes)
	}
}

func TestAccessPointDHCPStartFailure(t *testing.T) {
	h := newHarness(t, radiosim.Config{}, nil)
	h.radio.Fail(radiosim.OpAppStart, -6)
	if err := h.m.SetupAccessPoint(testAPConfig()); err != nil {
		t.Fatalf("dhcp start failure must not fail setup: %v", err)
	}
	if h.radio.Count(radiosim.OpRxStatStart) != 1 {
		t.Fatal("rx statistics not started")
	}
}

func TestAccessPointOptionFailureAborts(t *testing.T) {
	h := newHarness(t, radiosim.Config{}, nil)
	h.radio.Fail(radiosim.OpSetAPOption, -1)
	if err := h.m.SetupAccessPoint(testAPConfig()); err == nil {
		t.Fatal("expected error")
	}
	if n := h.radio.Count(radiosim.OpSetAPOption); n != 1 {
		t.Fatalf("setup continued after failure: %d option sets", n)
	}
	if h.radio.Count(radiosim.OpStart) != 0 {
		t.Fatal("restarted after failure")
	}
}

func TestScanFromAccessPoint(t *testing.T) {
	h := newHarness(t, radiosim.Config{}, nil)
	if err := h.m.SetupAccessPoint(testAPConfig()); err != nil {
		t.Fatal(err)
	}
	h.radio.ResetCalls()
	var got []string
	calls := 0
	err := h.m.Scan(func(ssids []string) {
		calls++
		got = ssids
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("callback called %d times", calls)
	}
	want := []string{"Net1", "cafe", "Net2"}
	if len(got) != len(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %v, got %v", want, got)
		}
	}
	rc := h.radio.Calls()
	start, list := indexOf(rc, radiosim.OpStart), indexOf(rc, radiosim.OpNetworkList)
	if indexOf(rc, radiosim.OpSetMode) > start || start < 0 || start > list {
		t.Fatalf("want mode switch and restart before scan, got %v", rc)
	}
	if h.radio.Count(radiosim.OpStart) != 1 {
		t.Fatal("want exactly one restart")
	}
	if _, ok := h.m.APIP(); ok {
		t.Fatal("ap ip reported after leaving ap role")
	}

	// Already in station role: no restart.
	h.radio.ResetCalls()
	h.m.Scan(nil)
	if h.radio.Count(radiosim.OpStart) != 0 {
		t.Fatal("unexpected restart")
	}
}

func TestScanFailure(t *testing.T) {
	h := newHarness(t, radiosim.Config{}, nil)
	h.radio.Fail(radiosim.OpNetworkList, -5)
	calls := 0
	err := h.m.Scan(func(ssids []string) {
		calls++
		if ssids == nil || len(ssids) != 0 {
			t.Errorf("want empty non-nil result, got %v", ssids)
		}
	})
	if !errors.Is(err, ErrScan) {
		t.Fatalf("want ErrScan, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("callback called %d times", calls)
	}
}

func TestScanEmpty(t *testing.T) {
	h := newHarness(t, radiosim.Config{Networks: []nwp.NetworkEntry{}}, nil)
	var got []string
	if err := h.m.Scan(func(s []string) { got = s }); err != nil {
		t.Fatalf("empty scan is not an error: %v", err)
	}
	if len(got) != 0 {
		t.Fatal(got)
	}
}

func TestHandleFrameErrors(t *testing.T) {
	h := newHarness(t, radiosim.Config{}, nil)
	if err := h.m.HandleFrame(make([]byte, 4)); err == nil {
		t.Fatal("expected error on short frame")
	}
	var buf [nwp.EventFrameLen]byte
	ev := nwp.Event{Type: 200}
	ev.Put(nwp.FrameOrder, buf[:])
	if err := h.m.HandleFrame(buf[:]); err != nil {
		t.Fatal(err)
	}
	if h.loop.Pending() != 0 {
		t.Fatal("unknown event scheduled work")
	}
}

func TestPostFailureLogged(t *testing.T) {
	h := newHarness(t, radiosim.Config{}, nil)
	h.m.sched = loop.New(loop.Config{QueueLen: 1})
	h.m.HandleEvent(nwp.Event{Type: nwp.EvConnect})
	h.m.HandleEvent(nwp.Event{Type: nwp.EvIPAcquired, Info: testLease})
	if h.m.Status() != StatusIPAcquired {
		t.Fatal("state must update even if notification is dropped")
	}
}

func TestSnapshot(t *testing.T) {
	h := newHarness(t, radiosim.Config{AutoAssociate: true}, nil)
	if err := h.m.SetupStation(StationConfig{SSID: "Net1", Pass: "secret123"}); err != nil {
		t.Fatal(err)
	}
	h.settle()
	s := h.m.Snapshot()
	want := Snapshot{Role: "sta", Status: "got ip", SSID: "Net1", IP: "192.168.1.42", Gateway: "192.168.1.1", DNS: "192.168.1.1"}
	if s != want {
		t.Fatalf("want %+v, got %+v", want, s)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Config{Scheduler: loop.New(loop.Config{})}); err == nil {
		t.Fatal("expected error for nil radio")
	}
	r := radiosim.New(radiosim.Config{})
	defer r.Close()
	if _, err := New(Config{Radio: r}); err == nil {
		t.Fatal("expected error for nil scheduler")
	}
}
