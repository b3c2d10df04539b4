//go:build linux

package main

import "github.com/bleprobe/bleprobe/internal/device"

const (
	exampleDeviceAddress = "A5:C2:37:5B:13:BA"
	deviceAddressNote    = "Device address format: XX:XX:XX:XX:XX:XX or XX-XX-XX-XX-XX-XX\n  Use 'bleprobe scan' to discover devices"
)

// validateDeviceAddress checks MAC address format on platforms that expose
// real Bluetooth addresses.
func validateDeviceAddress(address string) (string, error) {
	return device.ValidateAddress(address)
}
