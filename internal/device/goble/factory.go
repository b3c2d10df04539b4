package goble

import "github.com/go-ble/ble"

// DeviceFactory creates ble.Device instances. It is a variable so tests can
// install a mock BLE adapter.
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = func() (ble.Device, error) {
	return newDefaultDevice()
}
