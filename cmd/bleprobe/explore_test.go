//go:build test

package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/bleprobe/bleprobe/explorer"
	"github.com/bleprobe/bleprobe/internal/device"
	"github.com/bleprobe/bleprobe/internal/devicefactory"
	"github.com/bleprobe/bleprobe/internal/testutils"
)

// ExploreTestSuite provides testify/suite for proper test isolation
type ExploreTestSuite struct {
	suite.Suite

	savedNewDevice func(address string, logger *logrus.Logger) device.Device
	fakeDev        *testutils.FakeDevice

	originalFlags struct {
		exploreDescriptors       bool
		exploreJSON              bool
		exploreReadTimeout       time.Duration
		exploreConnectTimeout    time.Duration
		exploreDescriptorTimeout time.Duration
	}
}

func (suite *ExploreTestSuite) SetupSuite() {
	suite.originalFlags.exploreDescriptors = exploreDescriptors
	suite.originalFlags.exploreJSON = exploreJSON
	suite.originalFlags.exploreReadTimeout = exploreReadTimeout
	suite.originalFlags.exploreConnectTimeout = exploreConnectTimeout
	suite.originalFlags.exploreDescriptorTimeout = exploreDescriptorTimeout
}

func (suite *ExploreTestSuite) TearDownSuite() {
	exploreDescriptors = suite.originalFlags.exploreDescriptors
	exploreJSON = suite.originalFlags.exploreJSON
	exploreReadTimeout = suite.originalFlags.exploreReadTimeout
	exploreConnectTimeout = suite.originalFlags.exploreConnectTimeout
	exploreDescriptorTimeout = suite.originalFlags.exploreDescriptorTimeout
}

func (suite *ExploreTestSuite) SetupTest() {
	exploreDescriptors = false
	exploreJSON = false
	exploreReadTimeout = time.Second
	exploreConnectTimeout = 30 * time.Second
	exploreDescriptorTimeout = 2 * time.Second

	suite.fakeDev = &testutils.FakeDevice{
		AddressStr: testDeviceAddress,
		NameStr:    "Test Device",
		Conn: &testutils.FakeConnection{
			Svcs: []device.Service{
				&testutils.FakeService{
					UUIDStr:   "180a",
					Name:      "Device Information",
					HandleVal: 10,
					Chars: []device.Characteristic{
						&testutils.FakeCharacteristic{
							UUIDStr:   "2a29",
							Name:      "Manufacturer Name String",
							HandleVal: 11,
							Props:     testutils.FakeProperties("read"),
							ReadData:  []byte("Acme Corp"),
						},
					},
				},
			},
		},
	}

	suite.savedNewDevice = devicefactory.NewDevice
	devicefactory.NewDevice = func(address string, logger *logrus.Logger) device.Device {
		return suite.fakeDev
	}
}

func (suite *ExploreTestSuite) TearDownTest() {
	devicefactory.NewDevice = suite.savedNewDevice
}

// captureStdout executes fn while capturing stdout. Stdout is restored even
// if fn panics.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = oldStdout }()

	fn()

	w.Close()
	out, _ := io.ReadAll(r)
	return string(out)
}

func (suite *ExploreTestSuite) TestExploreJSONOutput() {
	exploreJSON = true

	var runErr error
	out := captureStdout(suite.T(), func() {
		runErr = runExplore(exploreCmd, []string{testDeviceAddress})
	})

	suite.NoError(runErr)
	suite.Equal(1, suite.fakeDev.ConnectCalls)
	suite.Equal(1, suite.fakeDev.DisconnectCalls)

	var report explorer.Report
	suite.Require().NoError(json.Unmarshal([]byte(out), &report))
	suite.Equal(testDeviceAddress, report.Address)
	suite.Require().Len(report.Services, 1)
	suite.Equal("180a", report.Services[0].UUID)
	suite.Equal("Acme Corp", report.Services[0].Characteristics[0].Value.Text)
}

func (suite *ExploreTestSuite) TestExploreTextOutput() {
	var runErr error
	out := captureStdout(suite.T(), func() {
		runErr = runExplore(exploreCmd, []string{testDeviceAddress})
	})

	suite.NoError(runErr)
	suite.Contains(out, "BLE Device Connection and Service Explorer")
	suite.Contains(out, "Found 1 service(s):")
	suite.Contains(out, "Device Information")
	suite.Contains(out, "Device exploration completed successfully.")
}

func (suite *ExploreTestSuite) TestConfigFileTimeoutsApplied() {
	path := filepath.Join(suite.T().TempDir(), "config.yaml")
	suite.Require().NoError(os.WriteFile(path,
		[]byte("read_timeout: 7s\nconnect_timeout: 41s\ndescriptor_timeout: 3s\n"), 0o644))

	var runErr error
	captureStdout(suite.T(), func() {
		rootCmd.SetArgs([]string{"explore", "--json", "--config", path, testDeviceAddress})
		runErr = rootCmd.Execute()
	})
	rootCmd.SetArgs(nil)

	suite.NoError(runErr)
	suite.Equal(7*time.Second, exploreReadTimeout)
	suite.Equal(41*time.Second, exploreConnectTimeout)
	suite.Equal(3*time.Second, exploreDescriptorTimeout)
}

func (suite *ExploreTestSuite) TestExploreConnectFailure() {
	suite.fakeDev.ConnectErr = device.ErrBluetoothOff

	var runErr error
	out := captureStdout(suite.T(), func() {
		runErr = runExplore(exploreCmd, []string{testDeviceAddress})
	})

	suite.ErrorIs(runErr, device.ErrBluetoothOff)
	suite.Contains(out, "Device exploration failed.")
}

func (suite *ExploreTestSuite) TestExploreInvalidAddress() {
	var runErr error
	captureStdout(suite.T(), func() {
		runErr = runExplore(exploreCmd, []string{"nope"})
	})

	suite.ErrorIs(runErr, device.ErrInvalidAddress)
	suite.Equal(0, suite.fakeDev.ConnectCalls)
}

func TestExploreTestSuite(t *testing.T) {
	suite.Run(t, new(ExploreTestSuite))
}
