package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NotFoundError reports a missing BLE resource.
type NotFoundError struct {
	Resource string   // "service", "characteristic", "descriptor"
	UUIDs    []string // lookup path, e.g. [serviceUUID] or [serviceUUID, charUUID]
}

func (e *NotFoundError) Error() string {
	if len(e.UUIDs) == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	if len(e.UUIDs) == 1 {
		return fmt.Sprintf("%s %q not found", e.Resource, e.UUIDs[0])
	}
	parent := "service"
	if e.Resource == "descriptor" {
		parent = "characteristic"
	}
	return fmt.Sprintf("%s %q not found in %s %q", e.Resource, e.UUIDs[len(e.UUIDs)-1], parent, e.UUIDs[0])
}

// ConnectionState identifies the kind of connection-state failure.
type ConnectionState string

const (
	NotConnected     ConnectionState = "not_connected"
	AlreadyConnected ConnectionState = "already_connected"
	NotInitialized   ConnectionState = "not_initialized"
	BluetoothOff     ConnectionState = "bluetooth_off"
)

// ConnectionError represents any connection-related problem.
type ConnectionError struct {
	State ConnectionState
	Msg   string
}

func (e *ConnectionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return strings.ReplaceAll(string(e.State), "_", " ")
	}
	return fmt.Sprintf("%s: %s", strings.ReplaceAll(string(e.State), "_", " "), e.Msg)
}

// Is allows errors.Is to compare ConnectionError values by State.
func (e *ConnectionError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*ConnectionError)
	if !ok {
		return false
	}
	return e.State == t.State
}

// Predefined sentinel errors for connection states.
var (
	ErrNotConnected     = &ConnectionError{State: NotConnected}
	ErrAlreadyConnected = &ConnectionError{State: AlreadyConnected}
	ErrNotInitialized   = &ConnectionError{State: NotInitialized}
	ErrBluetoothOff     = &ConnectionError{State: BluetoothOff, Msg: "is Bluetooth turned on?"}
)

// Validation and operation errors.
var (
	ErrInvalidAddress  = errors.New("invalid device address")
	ErrInvalidHexValue = errors.New("invalid hex value")
	ErrTimeout         = errors.New("timeout")
	ErrUnsupported     = errors.New("unsupported")
)

// Advertisement is the advertisement data reported by the BLE stack during a scan.
type Advertisement interface {
	LocalName() string
	ManufacturerData() []byte
	ServiceData() []struct {
		UUID string
		Data []byte
	}
	Services() []string
	TxPowerLevel() int
	Connectable() bool
	RSSI() int
	Addr() string
}

// ScanningDevice is a BLE adapter capable of scanning for advertisements.
type ScanningDevice interface {
	Scan(ctx context.Context, allowDup bool, handler func(Advertisement)) error
}

// DeviceInfo is a read-only snapshot of a discovered device. Optional fields
// are modeled explicitly: TxPower is nil when the advertisement did not carry
// it, Name falls back to the address when the device did not advertise one.
//
//nolint:revive // DeviceInfo name is intentional for clarity when used as a device.DeviceInfo
type DeviceInfo interface {
	ID() string
	Name() string
	Address() string
	RSSI() int
	TxPower() *int
	IsConnectable() bool
	AdvertisedServices() []string
	ManufacturerData() []byte
	ServiceData() map[string][]byte
}

// Device is a BLE peripheral that can be connected to.
type Device interface {
	DeviceInfo

	Connect(ctx context.Context, opts *ConnectOptions) error
	Disconnect() error
	IsConnected() bool
	Update(adv Advertisement)
	GetConnection() Connection
}

// Connection is a live GATT connection.
type Connection interface {
	// Services returns discovered services in the order the stack reported them.
	Services() []Service
	GetService(uuid string) (Service, error)
	GetCharacteristic(service, uuid string) (Characteristic, error)
	// FindCharacteristic searches all services for a characteristic UUID.
	FindCharacteristic(uuid string) (Characteristic, error)
}

// Service represents a GATT service.
type Service interface {
	UUID() string
	KnownName() string
	Handle() uint16
	GetCharacteristics() []Characteristic
}

// CharacteristicInfo represents characteristic metadata.
type CharacteristicInfo interface {
	UUID() string
	KnownName() string
	Handle() uint16
	GetProperties() Properties
	GetDescriptors() []Descriptor
}

// CharacteristicReader provides read operations.
type CharacteristicReader interface {
	Read(timeout time.Duration) ([]byte, error)
}

// CharacteristicWriter provides write operations.
type CharacteristicWriter interface {
	Write(data []byte, withResponse bool, timeout time.Duration) error
}

// Characteristic combines metadata with read/write operations.
type Characteristic interface {
	CharacteristicInfo
	CharacteristicReader
	CharacteristicWriter
}

// Descriptor represents a GATT descriptor. Values are read best-effort during
// discovery; Value returns nil and ReadError the cause when the read failed,
// both are nil when descriptor reads were skipped.
type Descriptor interface {
	UUID() string
	KnownName() string
	Handle() uint16
	Value() []byte
	ReadError() error
}

// Property represents a single BLE characteristic property flag.
type Property interface {
	Value() int
	KnownName() string
}

// Properties is the set of capability flags advertised by a characteristic.
// Accessors return nil for absent properties.
type Properties interface {
	Broadcast() Property
	Read() Property
	Write() Property
	WriteWithoutResponse() Property
	Notify() Property
	Indicate() Property
	AuthenticatedSignedWrites() Property
	ExtendedProperties() Property
}

// PropertyNames returns the human-readable names of the set properties in
// declaration order.
func PropertyNames(p Properties) []string {
	if p == nil {
		return nil
	}
	var names []string
	for _, prop := range []Property{
		p.Broadcast(), p.Read(), p.WriteWithoutResponse(), p.Write(),
		p.Notify(), p.Indicate(), p.AuthenticatedSignedWrites(), p.ExtendedProperties(),
	} {
		if prop != nil {
			names = append(names, prop.KnownName())
		}
	}
	return names
}

// ConnectOptions defines BLE connection options.
type ConnectOptions struct {
	ConnectTimeout        time.Duration
	DescriptorReadTimeout time.Duration // 0 skips descriptor value reads
}
