package main

import (
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/soypat/nwpwifi"
	"github.com/soypat/nwpwifi/nwp"
	"github.com/spf13/viper"
)

var v = viper.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("wifi.sta.ssid", "")
	v.SetDefault("wifi.sta.pass", "")
	v.SetDefault("wifi.sta.ip", "")
	v.SetDefault("wifi.sta.netmask", "")
	v.SetDefault("wifi.sta.gw", "")

	v.SetDefault("wifi.ap.enable", false)
	v.SetDefault("wifi.ap.ssid", "nwpwifi-????")
	v.SetDefault("wifi.ap.pass", "")
	v.SetDefault("wifi.ap.channel", 6)
	v.SetDefault("wifi.ap.hidden", false)
	v.SetDefault("wifi.ap.ip", "192.168.4.1")
	v.SetDefault("wifi.ap.netmask", "255.255.255.0")
	v.SetDefault("wifi.ap.gw", "192.168.4.1")
	v.SetDefault("wifi.ap.dhcp_start", "192.168.4.2")
	v.SetDefault("wifi.ap.dhcp_end", "192.168.4.32")

	v.SetDefault("radio.settle_delay", nwpwifi.DefaultSettleDelay)
	v.SetDefault("radio.scan_interval", nwpwifi.DefaultScanInterval)
	v.SetDefault("radio.mac", "02:00:00:00:00:01")

	v.SetDefault("sim.associate", true)
	v.SetDefault("sim.lease.ip", "192.168.1.100")
	v.SetDefault("sim.lease.gw", "192.168.1.1")
	v.SetDefault("sim.lease.dns", "192.168.1.1")
	v.SetDefault("sim.networks", []map[string]any{})

	v.SetDefault("db.path", "nwpwifi.db")
	v.SetDefault("fs.root", "")

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "nwpwifi")
	v.SetDefault("mqtt.topic", "nwpwifi/status")
	v.SetDefault("mqtt.timeout", 5*time.Second)
}

// loadConfig reads the YAML config file, if any, and NWPWIFI_* environment overrides.
func loadConfig(v *viper.Viper, path string) error {
	setDefaults(v)
	v.SetEnvPrefix("NWPWIFI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		return errors.Wrap(v.ReadInConfig(), "read config")
	}
	v.SetConfigName("nwpwifi")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Wrap(err, "read config")
		}
	}
	return nil
}

func stationConfig(v *viper.Viper) nwpwifi.StationConfig {
	return nwpwifi.StationConfig{
		SSID:    v.GetString("wifi.sta.ssid"),
		Pass:    v.GetString("wifi.sta.pass"),
		IP:      v.GetString("wifi.sta.ip"),
		Netmask: v.GetString("wifi.sta.netmask"),
		Gateway: v.GetString("wifi.sta.gw"),
	}
}

func apConfig(v *viper.Viper) nwpwifi.APConfig {
	return nwpwifi.APConfig{
		SSID:      v.GetString("wifi.ap.ssid"),
		Pass:      v.GetString("wifi.ap.pass"),
		Channel:   v.GetInt("wifi.ap.channel"),
		Hidden:    v.GetBool("wifi.ap.hidden"),
		IP:        v.GetString("wifi.ap.ip"),
		Netmask:   v.GetString("wifi.ap.netmask"),
		Gateway:   v.GetString("wifi.ap.gw"),
		DHCPStart: v.GetString("wifi.ap.dhcp_start"),
		DHCPEnd:   v.GetString("wifi.ap.dhcp_end"),
	}
}

type simNetwork struct {
	SSID string `mapstructure:"ssid"`
	Sec  string `mapstructure:"sec"`
	RSSI int8   `mapstructure:"rssi"`
}

func simNetworks(v *viper.Viper) ([]nwp.NetworkEntry, error) {
	var nets []simNetwork
	if err := v.UnmarshalKey("sim.networks", &nets); err != nil {
		return nil, errors.Wrap(err, "sim.networks")
	}
	entries := make([]nwp.NetworkEntry, 0, len(nets))
	for i, n := range nets {
		e := nwp.NetworkEntry{SSID: n.SSID, RSSI: n.RSSI}
		switch strings.ToLower(n.Sec) {
		case "", "open":
			e.Sec = nwp.SecOpen
		case "wep":
			e.Sec = nwp.SecWEP
		case "wpa", "wpa2":
			e.Sec = nwp.SecWPA
		default:
			return nil, errors.Errorf("sim.networks[%d]: unknown security %q", i, n.Sec)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func simLease(v *viper.Viper) (info nwp.IPInfo, err error) {
	for _, f := range [...]struct {
		key string
		dst *nwp.Addr
	}{{"sim.lease.ip", &info.IP}, {"sim.lease.gw", &info.Gateway}, {"sim.lease.dns", &info.DNS}} {
		if *f.dst, err = nwp.ParseAddr(v.GetString(f.key)); err != nil {
			return info, errors.Wrap(err, f.key)
		}
	}
	return info, nil
}

func radioMAC(v *viper.Viper) (mac [6]byte, err error) {
	hw, err := net.ParseMAC(v.GetString("radio.mac"))
	if err != nil {
		return mac, errors.Wrap(err, "radio.mac")
	}
	if len(hw) != len(mac) {
		return mac, errors.Errorf("radio.mac: want 6 bytes, got %d", len(hw))
	}
	copy(mac[:], hw)
	return mac, nil
}
