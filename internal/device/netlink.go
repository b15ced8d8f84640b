package device

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"water_heater/internal/logger"
)

// NetworkLink abstracts the wireless interface the controller depends on.
// The guardian and the watchdog escalate through it: soft reconnect first,
// hard interface reset when reconnects keep failing.
type NetworkLink interface {
	// Associated reports whether the interface currently holds an association.
	Associated() bool
	// Reconnect force-disassociates and re-issues association with the
	// stored credentials, waiting until ctx expires for success.
	Reconnect(ctx context.Context) error
	// HardReset power-cycles the interface and re-applies static addressing.
	// It clears driver-level lockups a plain reconnect cannot.
	HardReset(ctx context.Context) error
}

// commandRunner executes an external command and returns its combined output.
// Swappable in tests.
type commandRunner func(ctx context.Context, name string, args ...string) (string, error)

func execRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}

const (
	statusTimeout  = 3 * time.Second
	associatePoll  = 500 * time.Millisecond
	linkCyclePause = time.Second
	wpaStateUp     = "wpa_state=COMPLETED"
)

// WPALink drives a wpa_supplicant-managed interface through wpa_cli and ip.
type WPALink struct {
	iface    string
	staticIP string // optional CIDR, re-applied after a hard reset
	run      commandRunner
	log      *logger.Logger
}

// NewWPALink builds a link controller for the given interface. staticIP may
// be empty when the network hands out addresses.
func NewWPALink(iface, staticIP string, log *logger.Logger) *WPALink {
	return &WPALink{iface: iface, staticIP: staticIP, run: execRunner, log: log}
}

func (l *WPALink) wpa(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-i", l.iface}, args...)
	return l.run(ctx, "wpa_cli", full...)
}

// Associated parses wpa_cli status output for a completed association.
func (l *WPALink) Associated() bool {
	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()
	out, err := l.wpa(ctx, "status")
	if err != nil {
		return false
	}
	return strings.Contains(out, wpaStateUp)
}

// Reconnect force-disassociates, re-issues association and polls until ctx
// expires. The bound on the wait belongs to the caller.
func (l *WPALink) Reconnect(ctx context.Context) error {
	if _, err := l.wpa(ctx, "disconnect"); err != nil {
		return fmt.Errorf("wpa_cli disconnect: %w", err)
	}
	if _, err := l.wpa(ctx, "reconnect"); err != nil {
		return fmt.Errorf("wpa_cli reconnect: %w", err)
	}
	for {
		if l.Associated() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for association on %s: %w", l.iface, ctx.Err())
		case <-time.After(associatePoll):
		}
	}
}

// HardReset power-cycles the interface: link down, pause, link up in station
// mode, static addressing re-applied, association re-issued.
func (l *WPALink) HardReset(ctx context.Context) error {
	if _, err := l.run(ctx, "ip", "link", "set", l.iface, "down"); err != nil {
		return fmt.Errorf("link down %s: %w", l.iface, err)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(linkCyclePause):
	}
	if _, err := l.run(ctx, "ip", "link", "set", l.iface, "up"); err != nil {
		return fmt.Errorf("link up %s: %w", l.iface, err)
	}
	if l.staticIP != "" {
		if _, err := l.run(ctx, "ip", "addr", "replace", l.staticIP, "dev", l.iface); err != nil {
			return fmt.Errorf("re-apply address %s: %w", l.staticIP, err)
		}
	}
	if _, err := l.wpa(ctx, "reassociate"); err != nil {
		return fmt.Errorf("wpa_cli reassociate: %w", err)
	}
	if l.log != nil {
		l.log.Infow("network interface hard reset", "iface", l.iface)
	}
	return nil
}
