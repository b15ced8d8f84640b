package device

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestWPALink_Associated(t *testing.T) {
	t.Parallel()

	statusUp := "bssid=aa:bb:cc:dd:ee:ff\nssid=home\nwpa_state=COMPLETED\nip_address=192.168.1.40\n"
	statusScanning := "wpa_state=SCANNING\n"

	cases := []struct {
		name string
		out  string
		err  error
		want bool
	}{
		{"completed association", statusUp, nil, true},
		{"scanning", statusScanning, nil, false},
		{"wpa_cli failure", "", errors.New("no such interface"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := &WPALink{iface: "wlan0", run: func(ctx context.Context, name string, args ...string) (string, error) {
				return tc.out, tc.err
			}}
			if got := l.Associated(); got != tc.want {
				t.Fatalf("Associated = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWPALink_HardReset_ReappliesStaticAddress(t *testing.T) {
	t.Parallel()

	var calls []string
	l := &WPALink{
		iface:    "wlan0",
		staticIP: "192.168.1.40/24",
		run: func(ctx context.Context, name string, args ...string) (string, error) {
			calls = append(calls, name+" "+strings.Join(args, " "))
			return "", nil
		},
	}

	if err := l.HardReset(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(calls) != 4 {
		t.Fatalf("expected 4 commands, got %d: %v", len(calls), calls)
	}
	if calls[0] != "ip link set wlan0 down" || calls[1] != "ip link set wlan0 up" {
		t.Fatalf("link cycle commands wrong: %v", calls[:2])
	}
	if calls[2] != "ip addr replace 192.168.1.40/24 dev wlan0" {
		t.Fatalf("address command wrong: %q", calls[2])
	}
	if calls[3] != "wpa_cli -i wlan0 reassociate" {
		t.Fatalf("reassociate command wrong: %q", calls[3])
	}
}

func TestWPALink_HardReset_SkipsAddressWhenDynamic(t *testing.T) {
	t.Parallel()

	var calls []string
	l := &WPALink{
		iface: "wlan0",
		run: func(ctx context.Context, name string, args ...string) (string, error) {
			calls = append(calls, name)
			return "", nil
		},
	}

	if err := l.HardReset(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range calls {
		if c == "ip addr replace" {
			t.Fatalf("address re-applied without static config")
		}
	}
	if len(calls) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(calls))
	}
}
