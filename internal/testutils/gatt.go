package testutils

import (
	"time"

	"github.com/bleprobe/bleprobe/internal/device"
	"github.com/bleprobe/bleprobe/internal/device/goble"
	"github.com/go-ble/ble"
)

// FakeProperties builds a device.Properties from a comma-free flag list,
// reusing the production bit-flag mapping.
func FakeProperties(flags ...string) device.Properties {
	var p ble.Property
	for _, f := range flags {
		switch f {
		case "broadcast":
			p |= ble.CharBroadcast
		case "read":
			p |= ble.CharRead
		case "write-without-response":
			p |= ble.CharWriteNR
		case "write":
			p |= ble.CharWrite
		case "notify":
			p |= ble.CharNotify
		case "indicate":
			p |= ble.CharIndicate
		}
	}
	return goble.NewProperties(p)
}

// FakeDescriptor is a scripted device.Descriptor.
type FakeDescriptor struct {
	UUIDStr   string
	Name      string
	HandleVal uint16
	Data      []byte
	ReadErr   error
}

func (d *FakeDescriptor) UUID() string      { return d.UUIDStr }
func (d *FakeDescriptor) KnownName() string { return d.Name }
func (d *FakeDescriptor) Handle() uint16    { return d.HandleVal }
func (d *FakeDescriptor) Value() []byte     { return d.Data }
func (d *FakeDescriptor) ReadError() error  { return d.ReadErr }

// FakeCharacteristic is a scripted device.Characteristic that records writes.
type FakeCharacteristic struct {
	UUIDStr   string
	Name      string
	HandleVal uint16
	Props     device.Properties
	Descs     []device.Descriptor

	ReadData []byte
	ReadErr  error
	WriteErr error

	ReadCalls  int
	WriteCalls [][]byte
}

func (c *FakeCharacteristic) UUID() string                        { return c.UUIDStr }
func (c *FakeCharacteristic) KnownName() string                   { return c.Name }
func (c *FakeCharacteristic) Handle() uint16                      { return c.HandleVal }
func (c *FakeCharacteristic) GetProperties() device.Properties    { return c.Props }
func (c *FakeCharacteristic) GetDescriptors() []device.Descriptor { return c.Descs }

func (c *FakeCharacteristic) Read(timeout time.Duration) ([]byte, error) {
	c.ReadCalls++
	if c.ReadErr != nil {
		return nil, c.ReadErr
	}
	return c.ReadData, nil
}

func (c *FakeCharacteristic) Write(data []byte, withResponse bool, timeout time.Duration) error {
	if c.WriteErr != nil {
		return c.WriteErr
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c.WriteCalls = append(c.WriteCalls, buf)
	return nil
}

// FakeService is a scripted device.Service.
type FakeService struct {
	UUIDStr   string
	Name      string
	HandleVal uint16
	Chars     []device.Characteristic
}

func (s *FakeService) UUID() string      { return s.UUIDStr }
func (s *FakeService) KnownName() string { return s.Name }
func (s *FakeService) Handle() uint16    { return s.HandleVal }
func (s *FakeService) GetCharacteristics() []device.Characteristic {
	return s.Chars
}

// FakeConnection is a scripted device.Connection over FakeServices.
type FakeConnection struct {
	Svcs []device.Service
}

func (c *FakeConnection) Services() []device.Service { return c.Svcs }

func (c *FakeConnection) GetService(uuid string) (device.Service, error) {
	normalized := device.NormalizeUUID(uuid)
	for _, svc := range c.Svcs {
		if device.NormalizeUUID(svc.UUID()) == normalized {
			return svc, nil
		}
	}
	return nil, &device.NotFoundError{Resource: "service", UUIDs: []string{uuid}}
}

func (c *FakeConnection) GetCharacteristic(service, uuid string) (device.Characteristic, error) {
	svc, err := c.GetService(service)
	if err != nil {
		return nil, err
	}
	normalized := device.NormalizeUUID(uuid)
	for _, char := range svc.GetCharacteristics() {
		if device.NormalizeUUID(char.UUID()) == normalized {
			return char, nil
		}
	}
	return nil, &device.NotFoundError{Resource: "characteristic", UUIDs: []string{service, uuid}}
}

func (c *FakeConnection) FindCharacteristic(uuid string) (device.Characteristic, error) {
	normalized := device.NormalizeUUID(uuid)
	for _, svc := range c.Svcs {
		for _, char := range svc.GetCharacteristics() {
			if device.NormalizeUUID(char.UUID()) == normalized {
				return char, nil
			}
		}
	}
	return nil, &device.NotFoundError{Resource: "characteristic", UUIDs: []string{uuid}}
}
