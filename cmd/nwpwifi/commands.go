package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/soypat/nwpwifi"
	"github.com/soypat/nwpwifi/nwp"
	"github.com/soypat/nwpwifi/store"
	"github.com/spf13/cobra"
)

const connectTimeout = 30 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Bring up the last saved role and keep the connection alive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(v, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		if err = restore(a); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		logger.Info("running", "role", a.mgr.Role().String())
		if err = a.loop.Run(ctx); errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// restore applies the saved role, falling back to the config file.
func restore(a *app) error {
	role, err := a.db.LastRole()
	if errors.Is(err, store.ErrNotFound) {
		role = nwp.RoleStation
		if v.GetBool("wifi.ap.enable") {
			role = nwp.RoleAccessPoint
		}
	} else if err != nil {
		return err
	}
	if role == nwp.RoleAccessPoint {
		cfg, err := a.db.AP()
		if errors.Is(err, store.ErrNotFound) {
			cfg, err = apConfig(v), nil
		}
		if err != nil {
			return err
		}
		return a.mgr.SetupAccessPoint(cfg)
	}
	cfg, err := a.db.Station()
	if errors.Is(err, store.ErrNotFound) {
		cfg, err = stationConfig(v), nil
	}
	if err != nil {
		return err
	}
	return a.mgr.SetupStation(cfg)
}

var staCmd = &cobra.Command{
	Use:   "sta",
	Short: "Connect to a network in station role and save the configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := stationConfig(v)
		a, err := newApp(v, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		if err = a.mgr.SetupStation(cfg); err != nil {
			return err
		}
		if err = a.db.SaveStation(cfg); err != nil {
			return err
		}
		if err = a.waitStatus(cmd.Context(), nwpwifi.StatusIPAcquired, connectTimeout); err != nil {
			return err
		}
		return printJSON(a.mgr.Snapshot())
	},
}

var apCmd = &cobra.Command{
	Use:   "ap",
	Short: "Start access point role and save the configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := apConfig(v)
		a, err := newApp(v, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		if err = a.mgr.SetupAccessPoint(cfg); err != nil {
			return err
		}
		if err = a.db.SaveAP(cfg); err != nil {
			return err
		}
		return printJSON(a.mgr.Snapshot())
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List nearby networks, switching to station role if needed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(v, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		nets, err := a.mgr.ScanNetworks()
		if err != nil {
			return err
		}
		for _, n := range nets {
			fmt.Printf("%-32s %4d dBm  %s\n", n.SSID, n.RSSI, n.Sec)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the saved configuration and last acquired address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(v.GetString("db.path"))
		if err != nil {
			return err
		}
		defer db.Close()
		var out struct {
			Role string `json:"role,omitempty"`
			SSID string `json:"ssid,omitempty"`
			IP   string `json:"last_ip,omitempty"`
			GW   string `json:"last_gw,omitempty"`
		}
		role, err := db.LastRole()
		if errors.Is(err, store.ErrNotFound) {
			return errors.New("no saved configuration")
		} else if err != nil {
			return err
		}
		out.Role = role.String()
		switch role {
		case nwp.RoleAccessPoint:
			cfg, err := db.AP()
			if err != nil {
				return err
			}
			out.SSID = cfg.SSID
		default:
			cfg, err := db.Station()
			if err != nil {
				return err
			}
			out.SSID = cfg.SSID
		}
		if info, err := db.IPInfo(); err == nil {
			out.IP, out.GW = info.IP.String(), info.Gateway.String()
		}
		return printJSON(out)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("nwpwifi", version)
	},
}

func init() {
	f := staCmd.Flags()
	f.String("ssid", "", "network name")
	f.String("pass", "", "WPA passphrase, empty for open networks")
	f.String("ip", "", "static address, DHCP when empty")
	f.String("netmask", "", "static netmask")
	f.String("gw", "", "static gateway")
	for _, k := range []string{"ssid", "pass", "ip", "netmask", "gw"} {
		v.BindPFlag("wifi.sta."+k, f.Lookup(k))
	}

	f = apCmd.Flags()
	f.String("ssid", "", "network name, '?' characters are replaced with MAC address digits")
	f.String("pass", "", "WPA passphrase, empty for an open network")
	f.Int("channel", 0, "channel 1-14")
	f.Bool("hidden", false, "do not broadcast the SSID")
	for _, k := range []string{"ssid", "pass", "channel", "hidden"} {
		v.BindPFlag("wifi.ap."+k, f.Lookup(k))
	}
}

func printJSON(x any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(x)
}
