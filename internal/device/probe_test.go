package device

import (
	"errors"
	"testing"
)

func TestParseW1Payload(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		raw     string
		want    float64
		wantErr error
	}{
		{
			name: "valid reading",
			raw:  "4b 46 7f ff 0c 10 3f : crc=3f YES\n4b 46 7f ff 0c 10 3f t=23437\n",
			want: 23.437,
		},
		{
			name: "negative reading",
			raw:  "f8 ff 7f ff 0c 10 1c : crc=1c YES\nf8 ff 7f ff 0c 10 1c t=-500\n",
			want: -0.5,
		},
		{
			name:    "crc failure",
			raw:     "4b 46 7f ff 0c 10 3f : crc=3f NO\n4b 46 7f ff 0c 10 3f t=23437\n",
			wantErr: errW1CRC,
		},
		{
			name:    "truncated payload",
			raw:     "4b 46 7f ff 0c 10 3f : crc=3f YES",
			wantErr: errW1Payload,
		},
		{
			name:    "missing temperature field",
			raw:     "4b 46 7f ff 0c 10 3f : crc=3f YES\n4b 46 7f ff 0c 10 3f\n",
			wantErr: errW1Payload,
		},
		{
			name:    "garbage temperature",
			raw:     "4b 46 7f ff 0c 10 3f : crc=3f YES\n4b 46 7f ff 0c 10 3f t=abc\n",
			wantErr: errW1Payload,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseW1Payload([]byte(tc.raw))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("temp = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsFault(t *testing.T) {
	t.Parallel()

	if !IsFault(FaultDisconnectedC) {
		t.Errorf("disconnected sentinel not recognized")
	}
	if !IsFault(FaultPowerOnResetC) {
		t.Errorf("power-on sentinel not recognized")
	}
	if IsFault(38.0) {
		t.Errorf("ordinary reading flagged as fault")
	}
}
