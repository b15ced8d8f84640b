// Package bridge mirrors telemetry onto an MQTT broker and accepts the same
// commands the HTTP surface offers, using the cmnd/tele topic convention
// common to home-automation firmware.
package bridge

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"water_heater"
	"water_heater/internal/logger"
)

// Config is the broker connection block from configs/config.yml.
type Config struct {
	Enabled   bool
	Host      string
	Port      int
	Topic     string // device topic segment, e.g. "boiler"
	Username  string
	Password  string
	KeepAlive int // seconds
}

// Commands are the inbound command callbacks. Malformed payloads are logged
// and ignored; commands never abort anything.
type Commands struct {
	OnSetpoint func(celsius float64)
	OnToggle   func(start bool)
}

const (
	clientID       = "water-heater"
	disconnectWait = 250 // ms
	connectTimeout = 10 * time.Second
)

// Bridge is the broker session.
type Bridge struct {
	client mqtt.Client
	cfg    Config
	cmds   Commands
	log    *logger.Logger
}

// New builds the broker session with a last-will Offline marker, the way
// observers distinguish a dead device from a silent one.
func New(cfg Config, cmds Commands, log *logger.Logger) *Bridge {
	b := &Bridge{cfg: cfg, cmds: cmds, log: log}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetClientID(clientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetKeepAlive(time.Duration(cfg.KeepAlive) * time.Second)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetWill(b.topic("tele", "LWT"), "Offline", 0, true)

	b.client = mqtt.NewClient(opts)
	return b
}

// Connect establishes the session, subscribes to the command topics, and
// marks the device online.
func (b *Bridge) Connect() error {
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	cmnd := b.topic("cmnd", "+")
	if token := b.client.Subscribe(cmnd, 0, b.handleCommand); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", cmnd, token.Error())
	}
	b.client.Publish(b.topic("tele", "LWT"), 0, true, "Online")
	if b.log != nil {
		b.log.Infow("mqtt bridge connected", "broker", b.cfg.Host, "cmnd", cmnd)
	}
	return nil
}

// Close drops the session after flushing in-flight messages.
func (b *Bridge) Close() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Publish(b.topic("tele", "LWT"), 0, true, "Offline")
		b.client.Disconnect(disconnectWait)
	}
}

// Connected reports whether the broker session is up.
func (b *Bridge) Connected() bool {
	return b.client != nil && b.client.IsConnected()
}

// PublishTelemetry mirrors an observer record to tele/<topic>/STATE.
func (b *Bridge) PublishTelemetry(rec water_heater.Telemetry) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	b.client.Publish(b.topic("tele", "STATE"), 0, false, payload)
	return nil
}

func (b *Bridge) topic(prefix, leaf string) string {
	return fmt.Sprintf("%s/%s/%s", prefix, b.cfg.Topic, leaf)
}

// handleCommand dispatches cmnd/<topic>/<command> messages.
func (b *Bridge) handleCommand(_ mqtt.Client, msg mqtt.Message) {
	command := strings.ToLower(msg.Topic()[strings.LastIndex(msg.Topic(), "/")+1:])
	payload := strings.TrimSpace(string(msg.Payload()))

	switch command {
	case "temptargetset":
		v, err := strconv.ParseFloat(payload, 64)
		if err != nil {
			if b.log != nil {
				b.log.Warnw("mqtt setpoint ignored", "payload", payload)
			}
			return
		}
		if b.cmds.OnSetpoint != nil {
			b.cmds.OnSetpoint(v)
		}
	case "toggle":
		switch strings.ToLower(payload) {
		case "start":
			if b.cmds.OnToggle != nil {
				b.cmds.OnToggle(true)
			}
		case "stop":
			if b.cmds.OnToggle != nil {
				b.cmds.OnToggle(false)
			}
		default:
			if b.log != nil {
				b.log.Warnw("mqtt toggle ignored", "payload", payload)
			}
		}
	default:
		if b.log != nil {
			b.log.Debugw("mqtt command unknown", "topic", msg.Topic(), "payload", payload)
		}
	}
}
