package explorer_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bleprobe/bleprobe/explorer"
	"github.com/bleprobe/bleprobe/internal/device"
	"github.com/bleprobe/bleprobe/internal/testutils"
)

func newTestDevice() (*testutils.FakeDevice, *testutils.FakeCharacteristic, *testutils.FakeCharacteristic) {
	manufacturer := &testutils.FakeCharacteristic{
		UUIDStr:   "2a29",
		Name:      "Manufacturer Name String",
		HandleVal: 11,
		Props:     testutils.FakeProperties("read"),
		ReadData:  []byte("Acme Corp"),
	}
	control := &testutils.FakeCharacteristic{
		UUIDStr:   "ff01",
		HandleVal: 21,
		Props:     testutils.FakeProperties("write", "notify"),
		Descs: []device.Descriptor{
			&testutils.FakeDescriptor{
				UUIDStr:   "2902",
				Name:      "Client Characteristic Configuration",
				HandleVal: 22,
				Data:      []byte{0x00, 0x00},
			},
		},
	}

	dev := &testutils.FakeDevice{
		AddressStr: "AA:BB:CC:DD:EE:FF",
		NameStr:    "Test Device",
		Conn: &testutils.FakeConnection{
			Svcs: []device.Service{
				&testutils.FakeService{
					UUIDStr:   "180a",
					Name:      "Device Information",
					HandleVal: 10,
					Chars:     []device.Characteristic{manufacturer},
				},
				&testutils.FakeService{
					UUIDStr:   "ff00",
					HandleVal: 20,
					Chars:     []device.Characteristic{control},
				},
			},
		},
	}
	return dev, manufacturer, control
}

func TestExplore(t *testing.T) {
	t.Run("builds report in discovery order", func(t *testing.T) {
		dev, _, _ := newTestDevice()

		report, err := explorer.Explore(dev, nil)

		require.NoError(t, err)
		assert.Equal(t, "AA:BB:CC:DD:EE:FF", report.Address)
		assert.Equal(t, "Test Device", report.Name)
		require.Len(t, report.Services, 2)
		assert.Equal(t, "180a", report.Services[0].UUID)
		assert.Equal(t, "Device Information", report.Services[0].Description)
		assert.Equal(t, "ff00", report.Services[1].UUID)
	})

	t.Run("reads readable characteristics", func(t *testing.T) {
		dev, manufacturer, _ := newTestDevice()

		report, err := explorer.Explore(dev, nil)

		require.NoError(t, err)
		char := report.Services[0].Characteristics[0]
		require.NotNil(t, char.Value)
		assert.True(t, char.Value.IsText)
		assert.Equal(t, "Acme Corp", char.Value.Text)
		assert.Equal(t, 1, manufacturer.ReadCalls)
	})

	t.Run("skips reads on non-readable characteristics", func(t *testing.T) {
		dev, _, control := newTestDevice()

		report, err := explorer.Explore(dev, nil)

		require.NoError(t, err)
		char := report.Services[1].Characteristics[0]
		assert.Nil(t, char.Value)
		assert.Empty(t, char.ReadError)
		assert.Equal(t, 0, control.ReadCalls)
		assert.Equal(t, []string{"write", "notify"}, char.Properties)
	})

	t.Run("read failure recorded inline and enumeration continues", func(t *testing.T) {
		dev, manufacturer, _ := newTestDevice()
		manufacturer.ReadErr = errors.New("att error 0x0e")

		report, err := explorer.Explore(dev, nil)

		require.NoError(t, err)
		char := report.Services[0].Characteristics[0]
		assert.Nil(t, char.Value)
		assert.Equal(t, "att error 0x0e", char.ReadError)
		require.Len(t, report.Services, 2)
	})

	t.Run("zero read timeout disables reads", func(t *testing.T) {
		dev, manufacturer, _ := newTestDevice()

		report, err := explorer.Explore(dev, &explorer.Options{ReadTimeout: 0})

		require.NoError(t, err)
		assert.Nil(t, report.Services[0].Characteristics[0].Value)
		assert.Equal(t, 0, manufacturer.ReadCalls)
	})

	t.Run("descriptors excluded by default", func(t *testing.T) {
		dev, _, _ := newTestDevice()

		report, err := explorer.Explore(dev, nil)

		require.NoError(t, err)
		assert.Empty(t, report.Services[1].Characteristics[0].Descriptors)
	})

	t.Run("descriptors included on request", func(t *testing.T) {
		dev, _, _ := newTestDevice()

		report, err := explorer.Explore(dev, &explorer.Options{
			IncludeDescriptors: true,
			ReadTimeout:        time.Second,
		})

		require.NoError(t, err)
		descs := report.Services[1].Characteristics[0].Descriptors
		require.Len(t, descs, 1)
		assert.Equal(t, "2902", descs[0].UUID)
		assert.Equal(t, "Client Characteristic Configuration", descs[0].Description)
		require.NotNil(t, descs[0].Value)
		assert.False(t, descs[0].Value.IsText)
		assert.Equal(t, "00 00", descs[0].Value.Text)
	})

	t.Run("descriptor read error recorded inline", func(t *testing.T) {
		dev, _, control := newTestDevice()
		control.Descs = []device.Descriptor{
			&testutils.FakeDescriptor{
				UUIDStr:   "2902",
				HandleVal: 22,
				ReadErr:   errors.New("read not permitted"),
			},
		}

		report, err := explorer.Explore(dev, &explorer.Options{IncludeDescriptors: true})

		require.NoError(t, err)
		descs := report.Services[1].Characteristics[0].Descriptors
		require.Len(t, descs, 1)
		assert.Nil(t, descs[0].Value)
		assert.Equal(t, "read not permitted", descs[0].ReadError)
	})

	t.Run("fails without a connection", func(t *testing.T) {
		dev := &testutils.FakeDevice{AddressStr: "AA:BB:CC:DD:EE:FF"}

		_, err := explorer.Explore(dev, nil)

		assert.ErrorIs(t, err, device.ErrNotConnected)
	})
}

func TestWriteText(t *testing.T) {
	restore := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = restore }()

	t.Run("renders empty profile", func(t *testing.T) {
		report := &explorer.Report{Address: "AA:BB:CC:DD:EE:FF"}
		var buf bytes.Buffer

		require.NoError(t, report.WriteText(&buf))

		assert.Equal(t, "No services found on this device.\n", buf.String())
	})

	t.Run("renders full profile", func(t *testing.T) {
		dev, _, _ := newTestDevice()
		report, err := explorer.Explore(dev, &explorer.Options{
			IncludeDescriptors: true,
			ReadTimeout:        time.Second,
		})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, report.WriteText(&buf))
		out := buf.String()

		assert.Contains(t, out, "Found 2 service(s):")
		assert.Contains(t, out, "Service: 180a")
		assert.Contains(t, out, "Description: Device Information")
		assert.Contains(t, out, "Characteristics (1):")
		assert.Contains(t, out, "UUID: 2a29")
		assert.Contains(t, out, "Properties: read")
		assert.Contains(t, out, "Value (string): Acme Corp")
		assert.Contains(t, out, "Properties: write, notify")
		assert.Contains(t, out, "Descriptors (1):")
		assert.Contains(t, out, "Value (hex): 00 00")
	})

	t.Run("renders read failure placeholder", func(t *testing.T) {
		dev, manufacturer, _ := newTestDevice()
		manufacturer.ReadErr = errors.New("att error 0x0e")
		report, err := explorer.Explore(dev, nil)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, report.WriteText(&buf))

		assert.Contains(t, buf.String(), "Value: <Could not read - att error 0x0e>")
	})
}

func TestWriteJSON(t *testing.T) {
	dev, _, _ := newTestDevice()
	report, err := explorer.Explore(dev, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf))

	var decoded explorer.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.Address, decoded.Address)
	require.Len(t, decoded.Services, 2)
	assert.Equal(t, "Acme Corp", decoded.Services[0].Characteristics[0].Value.Text)
}
