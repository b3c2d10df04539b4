// Package devicefactory provides the constructor seams between the abstract
// device interfaces and the go-ble backed implementations. The factories are
// variables so tests can substitute mock devices and adapters.
package devicefactory

import (
	"context"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/bleprobe/bleprobe/internal/device"
	"github.com/bleprobe/bleprobe/internal/device/goble"
)

// bleScanningDevice wraps ble.Device to implement device.ScanningDevice.
type bleScanningDevice struct {
	dev ble.Device
}

func (s *bleScanningDevice) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	bleHandler := func(adv ble.Advertisement) {
		handler(goble.NewBLEAdvertisement(adv))
	}
	if err := s.dev.Scan(ctx, allowDup, bleHandler); err != nil {
		return goble.NormalizeError(err)
	}
	return nil
}

// ScanningDeviceFactory creates a device.ScanningDevice for discovery.
var ScanningDeviceFactory = func() (device.ScanningDevice, error) {
	dev, err := goble.DeviceFactory()
	if err != nil {
		return nil, goble.NormalizeError(err)
	}
	return &bleScanningDevice{dev: dev}, nil
}

// NewDevice creates a device with the given address, ready to connect.
var NewDevice = func(address string, logger *logrus.Logger) device.Device {
	return goble.NewBLEDevice(address, logger)
}

// NewDeviceFromAdvertisement creates a device from a scan advertisement.
var NewDeviceFromAdvertisement = func(adv device.Advertisement, logger *logrus.Logger) device.Device {
	return goble.NewBLEDeviceFromAdvertisement(adv, logger)
}
