package testutils

import (
	"context"

	"github.com/bleprobe/bleprobe/internal/device"
)

// FakeDevice is a scripted device.Device that counts lifecycle calls so
// tests can assert the connect/disconnect contract.
type FakeDevice struct {
	AddressStr string
	NameStr    string
	Conn       *FakeConnection

	ConnectErr      error
	ConnectCalls    int
	DisconnectCalls int
	connected       bool
}

func (d *FakeDevice) ID() string                    { return d.AddressStr }
func (d *FakeDevice) Name() string                  { return d.NameStr }
func (d *FakeDevice) Address() string               { return d.AddressStr }
func (d *FakeDevice) RSSI() int                     { return 0 }
func (d *FakeDevice) TxPower() *int                 { return nil }
func (d *FakeDevice) IsConnectable() bool           { return true }
func (d *FakeDevice) AdvertisedServices() []string  { return nil }
func (d *FakeDevice) ManufacturerData() []byte      { return nil }
func (d *FakeDevice) ServiceData() map[string][]byte { return nil }
func (d *FakeDevice) Update(adv device.Advertisement) {}

func (d *FakeDevice) Connect(ctx context.Context, opts *device.ConnectOptions) error {
	d.ConnectCalls++
	if d.ConnectErr != nil {
		return d.ConnectErr
	}
	d.connected = true
	return nil
}

func (d *FakeDevice) Disconnect() error {
	d.DisconnectCalls++
	d.connected = false
	return nil
}

func (d *FakeDevice) IsConnected() bool { return d.connected }

func (d *FakeDevice) GetConnection() device.Connection {
	if d.Conn == nil {
		return nil
	}
	return d.Conn
}
