package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bleprobe/bleprobe/internal/device"
	"github.com/bleprobe/bleprobe/internal/testutils"
)

func TestParseScanSeconds(t *testing.T) {
	tests := []struct {
		name        string
		arg         string
		expected    time.Duration
		wantWarning bool
	}{
		{
			name:     "empty argument uses default",
			arg:      "",
			expected: 10 * time.Second,
		},
		{
			name:     "valid seconds",
			arg:      "5",
			expected: 5 * time.Second,
		},
		{
			name:        "non-integer falls back with warning",
			arg:         "abc",
			expected:    10 * time.Second,
			wantWarning: true,
		},
		{
			name:        "fractional falls back with warning",
			arg:         "2.5",
			expected:    10 * time.Second,
			wantWarning: true,
		},
		{
			name:        "zero falls back with warning",
			arg:         "0",
			expected:    10 * time.Second,
			wantWarning: true,
		},
		{
			name:        "negative falls back with warning",
			arg:         "-3",
			expected:    10 * time.Second,
			wantWarning: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			duration, warning := parseScanSeconds(tt.arg, 10*time.Second)

			assert.Equal(t, tt.expected, duration)
			if tt.wantWarning {
				assert.Contains(t, warning, "Invalid scan time")
				assert.Contains(t, warning, "Using default scan time of 10 seconds")
			} else {
				assert.Empty(t, warning)
			}
		})
	}
}

func testDeviceMap() map[string]device.DeviceInfo {
	tx := 4
	return map[string]device.DeviceInfo{
		"AA:BB:CC:DD:EE:FF": &testutils.FakeDevice{
			AddressStr: "AA:BB:CC:DD:EE:FF",
			NameStr:    "Heart Monitor",
		},
		"11:22:33:44:55:66": &fakeInfo{
			FakeDevice: testutils.FakeDevice{
				AddressStr: "11:22:33:44:55:66",
			},
			txPower:  &tx,
			services: []string{"180d", "180f", "1800"},
		},
		"99:88:77:66:55:44": &fakeInfo{
			FakeDevice: testutils.FakeDevice{
				AddressStr: "99:88:77:66:55:44",
				NameStr:    "99:88:77:66:55:44",
			},
			services: []string{"6e400001b5a3f393e0a9e50e24dcca9e"},
		},
	}
}

// fakeInfo augments FakeDevice with advertisement details for display tests.
type fakeInfo struct {
	testutils.FakeDevice
	txPower  *int
	services []string
}

func (f *fakeInfo) TxPower() *int                { return f.txPower }
func (f *fakeInfo) AdvertisedServices() []string { return f.services }

func TestDisplayName(t *testing.T) {
	named := &testutils.FakeDevice{AddressStr: "AA:BB:CC:DD:EE:FF", NameStr: "Heart Monitor"}
	assert.Equal(t, "Heart Monitor", displayName(named))

	unnamed := &testutils.FakeDevice{AddressStr: "AA:BB:CC:DD:EE:FF"}
	assert.Equal(t, "<Unknown>", displayName(unnamed))

	// Nameless devices report their address as the name
	addressEcho := &testutils.FakeDevice{AddressStr: "AA:BB:CC:DD:EE:FF", NameStr: "AA:BB:CC:DD:EE:FF"}
	assert.Equal(t, "<Unknown>", displayName(addressEcho))
}

func TestDisplayDevices(t *testing.T) {
	t.Run("empty map prints not-found message", func(t *testing.T) {
		var buf bytes.Buffer

		err := displayDevices(&buf, nil, "table")

		require.NoError(t, err)
		assert.Equal(t, "No BLE devices found.\n", buf.String())
	})

	t.Run("table lists devices sorted by address", func(t *testing.T) {
		var buf bytes.Buffer

		err := displayDevices(&buf, testDeviceMap(), "table")

		require.NoError(t, err)
		out := buf.String()
		assert.Contains(t, out, "Found 3 BLE device(s):")
		assert.Contains(t, out, "Heart Monitor")
		assert.Contains(t, out, "<Unknown>")
		assert.Contains(t, out, "AA:BB:CC:DD:EE:FF")
		// only the first two services shown, with ellipsis
		assert.Contains(t, out, "180d, 180f...")
		// long UUIDs are truncated in the table
		assert.Contains(t, out, "6e400001")
		assert.NotContains(t, out, "6e400001b5a3f393e0a9e50e24dcca9e")
		// a device whose name is just its address renders as unnamed
		assert.Contains(t, out, "<Unknown> (99:88:77:66:55:44)")
		assert.Contains(t, out, "Additional device information:")
		assert.Contains(t, out, "tx_power: 4 dBm")
		assert.Less(t, bytes.Index(buf.Bytes(), []byte("11:22:33:44:55:66")),
			bytes.Index(buf.Bytes(), []byte("AA:BB:CC:DD:EE:FF")))
	})

	t.Run("json output decodes", func(t *testing.T) {
		var buf bytes.Buffer

		err := displayDevices(&buf, testDeviceMap(), "json")

		require.NoError(t, err)
		var decoded []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Len(t, decoded, 3)
	})

	t.Run("json output for empty map is an empty array", func(t *testing.T) {
		var buf bytes.Buffer

		err := displayDevices(&buf, nil, "json")

		require.NoError(t, err)
		assert.Equal(t, "[]\n", buf.String())
	})
}
