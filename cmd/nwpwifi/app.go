package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/soypat/nwpwifi"
	"github.com/soypat/nwpwifi/fscoord"
	"github.com/soypat/nwpwifi/loop"
	"github.com/soypat/nwpwifi/mqttstatus"
	"github.com/soypat/nwpwifi/radiosim"
	"github.com/soypat/nwpwifi/store"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const statusFile = "status.json"

// app wires a Manager to a simulated NWP and the persistence and
// publishing collaborators.
type app struct {
	log   *slog.Logger
	radio *radiosim.Radio
	loop  *loop.Loop
	fs    *fscoord.Coordinator
	db    *store.DB
	pub   *mqttstatus.Publisher
	mgr   *nwpwifi.Manager
	// hook is called after every status change has been handled.
	hook func(nwpwifi.Status)
}

func newApp(v *viper.Viper, log *slog.Logger) (_ *app, err error) {
	a := &app{log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()
	a.db, err = store.Open(v.GetString("db.path"))
	if err != nil {
		return nil, err
	}

	var fs afero.Fs = afero.NewMemMapFs()
	if root := v.GetString("fs.root"); root != "" {
		fs = afero.NewBasePathFs(afero.NewOsFs(), root)
	}
	a.fs = fscoord.New(fs, fscoord.Config{Logger: log.With(slog.String("pkg", "fscoord"))})
	a.loop = loop.New(loop.Config{Logger: log})

	mac, err := radioMAC(v)
	if err != nil {
		return nil, err
	}
	nets, err := simNetworks(v)
	if err != nil {
		return nil, err
	}
	lease, err := simLease(v)
	if err != nil {
		return nil, err
	}
	a.radio = radiosim.New(radiosim.Config{
		MAC:           mac,
		Networks:      nets,
		AutoAssociate: v.GetBool("sim.associate"),
		Lease:         lease,
		Sink:          a.handleFrame,
		Logger:        log.With(slog.String("pkg", "radiosim")),
	})

	if broker := v.GetString("mqtt.broker"); broker != "" {
		a.pub, err = mqttstatus.New(mqttstatus.Config{
			Broker:   broker,
			ClientID: v.GetString("mqtt.client_id"),
			Topic:    v.GetString("mqtt.topic"),
			Timeout:  v.GetDuration("mqtt.timeout"),
			Logger:   log,
		})
		if err != nil {
			return nil, err
		}
	}

	a.mgr, err = nwpwifi.New(nwpwifi.Config{
		Radio:        a.radio,
		Scheduler:    a.loop,
		FS:           a.fs,
		OnChange:     a.changed,
		OnRestart:    func() { log.Debug("radio restarted") },
		Logger:       log.With(slog.String("pkg", "nwpwifi")),
		SettleDelay:  v.GetDuration("radio.settle_delay"),
		ScanInterval: v.GetDuration("radio.scan_interval"),
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// handleFrame runs on the radio's event goroutine.
func (a *app) handleFrame(frame []byte) {
	if a.mgr != nil {
		a.mgr.HandleFrame(frame)
	}
}

// changed runs on the main loop.
func (a *app) changed(st nwpwifi.Status) {
	snap := a.mgr.Snapshot()
	a.log.Info("wifi status", slog.String("status", st.String()), slog.String("ssid", snap.SSID), slog.String("ip", snap.IP))
	if payload, err := json.Marshal(snap); err == nil {
		if err := a.fs.WriteFile(statusFile, payload); err != nil {
			a.log.Error("write status", slog.String("err", err.Error()))
		}
	}
	if st == nwpwifi.StatusIPAcquired {
		if err := a.db.SaveIPInfo(a.mgr.LastIPInfo()); err != nil {
			a.log.Error("save ip info", slog.String("err", err.Error()))
		}
	}
	a.publish(snap)
	if a.hook != nil {
		a.hook(st)
	}
}

func (a *app) publish(snap nwpwifi.Snapshot) {
	if a.pub == nil {
		return
	}
	if !a.pub.Connected() {
		if err := a.pub.Connect(context.Background()); err != nil {
			a.log.Warn("mqtt connect", slog.String("err", err.Error()))
			return
		}
	}
	if err := a.pub.Publish(snap); err != nil {
		a.log.Warn("mqtt publish", slog.String("err", err.Error()))
	}
}

// waitStatus runs the main loop until the manager reaches want or timeout elapses.
func (a *app) waitStatus(ctx context.Context, want nwpwifi.Status, timeout time.Duration) error {
	if a.mgr.Status() == want {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	a.hook = func(st nwpwifi.Status) {
		if st == want {
			cancel()
		}
	}
	defer func() { a.hook = nil }()
	err := a.loop.Run(ctx)
	if a.mgr.Status() == want {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Errorf("timed out waiting for %q, status %q", want, a.mgr.Status())
	}
	return err
}

func (a *app) Close() error {
	if a.radio != nil {
		a.radio.Close()
	}
	if a.fs != nil {
		if err := a.fs.Sync(); err != nil {
			a.log.Error("fs sync", slog.String("err", err.Error()))
		}
	}
	if a.pub != nil {
		a.pub.Close()
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
