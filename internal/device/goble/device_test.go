package goble_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bleprobe/bleprobe/internal/device/goble"
	"github.com/bleprobe/bleprobe/internal/testutils"
)

func TestBLEDeviceMarshalJSON(t *testing.T) {
	adv := testutils.NewAdvertisementBuilder().
		WithAddress("AA:BB:CC:DD:EE:FF").
		WithName("Heart Monitor").
		WithRSSI(-60).
		WithServices("180d").
		Build()
	dev := goble.NewBLEDeviceFromAdvertisement(adv, logrus.New())

	data, err := json.Marshal(dev)
	require.NoError(t, err)

	var decoded struct {
		Name     string    `json:"name"`
		Address  string    `json:"address"`
		RSSI     int       `json:"rssi"`
		LastSeen time.Time `json:"last_seen"`
		Services []string  `json:"services"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Heart Monitor", decoded.Name)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", decoded.Address)
	assert.Equal(t, -60, decoded.RSSI)
	assert.Equal(t, []string{"180d"}, decoded.Services)
	assert.WithinDuration(t, dev.LastSeen(), decoded.LastSeen, time.Second)
}

func TestBLEDeviceMarshalJSONNameFallback(t *testing.T) {
	adv := testutils.NewAdvertisementBuilder().
		WithAddress("AA:BB:CC:DD:EE:FF").
		Build()
	dev := goble.NewBLEDeviceFromAdvertisement(adv, logrus.New())

	data, err := json.Marshal(dev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", decoded["name"])
}
