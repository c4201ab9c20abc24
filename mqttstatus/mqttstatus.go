// Package mqttstatus publishes Wi-Fi state snapshots to an MQTT broker.
package mqttstatus

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/pkg/errors"
	mqtt "github.com/soypat/natiu-mqtt"
	"github.com/soypat/nwpwifi"
)

const (
	defaultTopic   = "nwpwifi/status"
	defaultTimeout = 5 * time.Second
)

var errNotConnected = errors.New("mqttstatus: not connected")

type Config struct {
	// Broker is the host:port of the MQTT broker.
	Broker   string
	ClientID string
	// Topic defaults to "nwpwifi/status".
	Topic string
	// Timeout bounds connect and publish. Defaults to 5s.
	Timeout time.Duration
	// Dial defaults to a net.Dialer.
	Dial   func(ctx context.Context, network, addr string) (net.Conn, error)
	Logger *slog.Logger
}

// Publisher sends a JSON encoded nwpwifi.Snapshot on every call to Publish.
// It is not safe for concurrent use.
type Publisher struct {
	cfg    Config
	client *mqtt.Client
	conn   net.Conn
	flags  mqtt.PacketFlags
	vpub   mqtt.VariablesPublish
	logger *slog.Logger
}

func New(cfg Config) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqttstatus: empty broker address")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("mqttstatus: empty client id")
	}
	if cfg.Topic == "" {
		cfg.Topic = defaultTopic
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Dial == nil {
		var d net.Dialer
		cfg.Dial = d.DialContext
	}
	flags, err := mqtt.NewPublishFlags(mqtt.QoS0, false, true)
	if err != nil {
		return nil, err
	}
	p := &Publisher{
		cfg:    cfg,
		flags:  flags,
		vpub:   mqtt.VariablesPublish{TopicName: []byte(cfg.Topic)},
		logger: cfg.Logger,
		client: mqtt.NewClient(mqtt.ClientConfig{
			Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 512)},
			OnPub: func(_ mqtt.Header, _ mqtt.VariablesPublish, r io.Reader) error {
				// We never subscribe; drain anything the broker sends.
				_, err := io.Copy(io.Discard, r)
				return err
			},
		}),
	}
	return p, nil
}

// Connect dials the broker and performs the MQTT handshake. An existing
// connection is dropped first.
func (p *Publisher) Connect(ctx context.Context) error {
	p.closeConn(errors.New("reconnect"))
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()
	conn, err := p.cfg.Dial(ctx, "tcp", p.cfg.Broker)
	if err != nil {
		return errors.Wrapf(err, "dial %s", p.cfg.Broker)
	}
	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(p.cfg.ClientID))
	if err = p.client.Connect(ctx, conn, &varconn); err != nil {
		conn.Close()
		return errors.Wrap(err, "mqtt connect")
	}
	p.conn = conn
	p.info("mqtt:connected", slog.String("broker", p.cfg.Broker), slog.String("topic", p.cfg.Topic))
	return nil
}

// Connected reports whether the broker session is up.
func (p *Publisher) Connected() bool { return p.conn != nil && p.client.IsConnected() }

// Publish sends s as a retained QoS0 message.
func (p *Publisher) Publish(s nwpwifi.Snapshot) error {
	if !p.Connected() {
		return errNotConnected
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	p.conn.SetWriteDeadline(time.Now().Add(p.cfg.Timeout))
	if err = p.client.PublishPayload(p.flags, p.vpub, payload); err != nil {
		return errors.Wrap(err, "publish")
	}
	p.debug("mqtt:published", slog.String("status", s.Status), slog.Int("len", len(payload)))
	return nil
}

// Close sends DISCONNECT and closes the connection.
func (p *Publisher) Close() error {
	p.closeConn(errors.New("publisher closed"))
	return nil
}

func (p *Publisher) closeConn(reason error) {
	if p.conn == nil {
		return
	}
	p.conn.SetDeadline(time.Now().Add(p.cfg.Timeout))
	if p.client.IsConnected() {
		p.client.Disconnect(reason)
	}
	p.conn.Close()
	p.conn = nil
}

func (p *Publisher) info(msg string, attrs ...slog.Attr) {
	if p.logger != nil {
		p.logger.LogAttrs(context.Background(), slog.LevelInfo, msg, attrs...)
	}
}

func (p *Publisher) debug(msg string, attrs ...slog.Attr) {
	if p.logger != nil {
		p.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
	}
}
