// Package store persists the last applied Wi-Fi configuration and the last
// acquired station addressing in a bbolt database so the device can come back
// up in the same role after a reboot.
package store

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/soypat/nwpwifi"
	"github.com/soypat/nwpwifi/nwp"
	"go.etcd.io/bbolt"
)

// ErrNotFound is returned when the requested record was never saved.
var ErrNotFound = errors.New("store: not found")

var (
	wifiBucket = []byte("wifi")

	stationKey = []byte("sta")
	apKey      = []byte("ap")
	roleKey    = []byte("role")
	ipInfoKey  = []byte("ipinfo")
)

// DB is a handle to the configuration database. Saved configs include
// passphrases in clear text; the file is created with mode 0600.
type DB struct {
	*bbolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*DB, error) {
	bdb, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(wifiBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, errors.Wrap(err, "create bucket")
	}
	return &DB{DB: bdb}, nil
}

// SaveStation stores the station configuration and marks station as the role to restore.
func (db *DB) SaveStation(cfg nwpwifi.StationConfig) error {
	return db.saveRole(nwp.RoleStation, stationKey, cfg)
}

// SaveAP stores the access point configuration and marks AP as the role to restore.
func (db *DB) SaveAP(cfg nwpwifi.APConfig) error {
	return db.saveRole(nwp.RoleAccessPoint, apKey, cfg)
}

func (db *DB) Station() (cfg nwpwifi.StationConfig, err error) {
	err = db.getJSON(stationKey, &cfg)
	return cfg, err
}

func (db *DB) AP() (cfg nwpwifi.APConfig, err error) {
	err = db.getJSON(apKey, &cfg)
	return cfg, err
}

// LastRole returns the role of the last saved configuration.
func (db *DB) LastRole() (nwp.Role, error) {
	var role nwp.Role
	err := db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(wifiBucket).Get(roleKey)
		if len(v) != 1 {
			return ErrNotFound
		}
		role = nwp.Role(int8(v[0]))
		return nil
	})
	return role, err
}

// SaveIPInfo stores the last acquired station addressing.
func (db *DB) SaveIPInfo(info nwp.IPInfo) error {
	return db.setJSON(ipInfoKey, ipInfoRecord{
		IP:      info.IP.String(),
		Gateway: info.Gateway.String(),
		DNS:     info.DNS.String(),
	})
}

func (db *DB) IPInfo() (info nwp.IPInfo, err error) {
	var rec ipInfoRecord
	if err = db.getJSON(ipInfoKey, &rec); err != nil {
		return info, err
	}
	for _, f := range [...]struct {
		dst *nwp.Addr
		s   string
	}{{&info.IP, rec.IP}, {&info.Gateway, rec.Gateway}, {&info.DNS, rec.DNS}} {
		if *f.dst, err = nwp.ParseAddr(f.s); err != nil {
			return nwp.IPInfo{}, errors.Wrap(err, "corrupt ip info")
		}
	}
	return info, nil
}

type ipInfoRecord struct {
	IP      string `json:"ip"`
	Gateway string `json:"gw"`
	DNS     string `json:"dns"`
}

func (db *DB) saveRole(role nwp.Role, key []byte, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(wifiBucket)
		if err := b.Put(key, payload); err != nil {
			return err
		}
		return b.Put(roleKey, []byte{byte(role)})
	})
}

func (db *DB) setJSON(key []byte, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(wifiBucket).Put(key, payload)
	})
}

func (db *DB) getJSON(key []byte, v any) error {
	return db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(wifiBucket).Get(key)
		if data == nil || bytes.Equal(data, []byte("null")) {
			return ErrNotFound
		}
		if err := json.Unmarshal(data, v); err != nil {
			return errors.Wrapf(err, "decode %s", key)
		}
		return nil
	})
}
