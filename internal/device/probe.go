package device

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Fault sentinels a probe read can yield. Both are treated identically by the
// control loop: the cycle is skipped and neither state nor relay change.
const (
	// FaultDisconnectedC is returned when the bus read or CRC fails.
	FaultDisconnectedC = -127.0
	// FaultPowerOnResetC is the DS18B20 power-on register value; seeing it
	// means the sensor answered before completing a real conversion.
	FaultPowerOnResetC = 85.0
)

// IsFault reports whether a reading is one of the reserved sentinel values.
func IsFault(celsius float64) bool {
	return celsius == FaultDisconnectedC || celsius == FaultPowerOnResetC
}

// TemperatureProbe is the sensor collaborator consumed by the control loop.
type TemperatureProbe interface {
	// RequestConversion asks the sensor to start a temperature conversion.
	RequestConversion()
	// ReadCelsius returns the last converted value, or a fault sentinel.
	ReadCelsius() float64
}

// DS18B20 reads a 1-Wire temperature sensor through the w1 sysfs bus.
type DS18B20 struct {
	busPath string
}

// NewDS18B20 builds a probe for the sensor with the given 1-Wire ID
// (e.g. "28-0316a2d8f3ff").
func NewDS18B20(id string) *DS18B20 {
	return &DS18B20{
		busPath: fmt.Sprintf("/sys/bus/w1/devices/%s/w1_slave", id),
	}
}

// RequestConversion is a no-op: the w1 kernel driver runs the conversion
// synchronously when the slave file is read.
func (p *DS18B20) RequestConversion() {}

// ReadCelsius reads and parses the w1_slave payload. Any bus or format
// failure collapses into the disconnected sentinel.
func (p *DS18B20) ReadCelsius() float64 {
	raw, err := os.ReadFile(p.busPath)
	if err != nil {
		return FaultDisconnectedC
	}
	t, err := parseW1Payload(raw)
	if err != nil {
		return FaultDisconnectedC
	}
	return t
}

var (
	errW1Payload = errors.New("invalid w1_slave payload")
	errW1CRC     = errors.New("w1_slave CRC check failed")
)

// parseW1Payload extracts the milli-Celsius value from the two-line w1_slave
// format:
//
//	4b 46 7f ff 0c 10 3f : crc=3f YES
//	4b 46 7f ff 0c 10 3f t=23437
func parseW1Payload(raw []byte) (float64, error) {
	lines := strings.Split(string(raw), "\n")
	if len(lines) < 2 {
		return 0, errW1Payload
	}
	if !strings.HasSuffix(strings.TrimRight(lines[0], "\r"), "YES") {
		return 0, errW1CRC
	}
	i := strings.LastIndex(lines[1], "t=")
	if i < 0 {
		return 0, errW1Payload
	}
	milli, err := strconv.Atoi(strings.TrimSpace(lines[1][i+2:]))
	if err != nil {
		return 0, errW1Payload
	}
	return float64(milli) / 1000.0, nil
}
