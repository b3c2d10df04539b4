package goble

import (
	"fmt"
	"time"

	"github.com/go-ble/ble"

	"github.com/bleprobe/bleprobe/internal/bledb"
	"github.com/bleprobe/bleprobe/internal/device"
)

const (
	// DefaultReadTimeout bounds characteristic read operations so an
	// unresponsive peripheral cannot block the caller indefinitely.
	DefaultReadTimeout = 5 * time.Second
)

// BLECharacteristic implements the Characteristic interface over a live
// go-ble characteristic handle.
type BLECharacteristic struct {
	uuid        string
	knownName   string
	handle      uint16
	properties  device.Properties
	descriptors []device.Descriptor
	BLEChar     *ble.Characteristic
	connection  *BLEConnection
}

// NewCharacteristic wraps a discovered ble.Characteristic.
func NewCharacteristic(c *ble.Characteristic, conn *BLEConnection, descriptors []device.Descriptor) *BLECharacteristic {
	rawUUID := c.UUID.String()

	return &BLECharacteristic{
		uuid:        bledb.NormalizeUUID(rawUUID),
		knownName:   bledb.LookupCharacteristic(rawUUID),
		handle:      c.Handle,
		properties:  NewProperties(c.Property),
		descriptors: descriptors,
		BLEChar:     c,
		connection:  conn,
	}
}

func (c *BLECharacteristic) UUID() string {
	return c.uuid
}

func (c *BLECharacteristic) KnownName() string {
	return c.knownName
}

func (c *BLECharacteristic) Handle() uint16 {
	return c.handle
}

func (c *BLECharacteristic) GetProperties() device.Properties {
	return c.properties
}

func (c *BLECharacteristic) GetDescriptors() []device.Descriptor {
	return c.descriptors
}

// Read reads the current value of the characteristic from the device. The
// timeout bounds the whole operation; zero falls back to DefaultReadTimeout.
func (c *BLECharacteristic) Read(timeout time.Duration) ([]byte, error) {
	client, err := c.snapshotClient()
	if err != nil {
		return nil, err
	}
	if timeout == 0 {
		timeout = DefaultReadTimeout
	}

	type readResult struct {
		data []byte
		err  error
	}
	resultCh := make(chan readResult, 1)

	go func() {
		data, err := client.ReadCharacteristic(c.BLEChar)
		resultCh <- readResult{data: data, err: err}
	}()

	select {
	case result := <-resultCh:
		if result.err != nil {
			return nil, fmt.Errorf("failed to read characteristic %s: %w", c.uuid, NormalizeError(result.err))
		}
		return result.data, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w reading characteristic %s after %v", device.ErrTimeout, c.uuid, timeout)
	}
}

// Write issues a single write of data to the characteristic. The payload is
// passed through in one ATT write; there is no chunking, retry, or read-back.
func (c *BLECharacteristic) Write(data []byte, withResponse bool, timeout time.Duration) error {
	client, err := c.snapshotClient()
	if err != nil {
		return err
	}
	if timeout == 0 {
		timeout = DefaultReadTimeout
	}

	// Writes are serialized per connection.
	c.connection.writeMutex.Lock()
	defer c.connection.writeMutex.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- client.WriteCharacteristic(c.BLEChar, data, !withResponse)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to write characteristic %s: %w", c.uuid, NormalizeError(err))
		}
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%w writing characteristic %s after %v", device.ErrTimeout, c.uuid, timeout)
	}
}

// snapshotClient returns the live client under the connection lock.
func (c *BLECharacteristic) snapshotClient() (ble.Client, error) {
	if c.connection == nil {
		return nil, fmt.Errorf("characteristic %s: %w", c.uuid, device.ErrNotInitialized)
	}
	if c.BLEChar == nil {
		return nil, fmt.Errorf("characteristic %s: %w", c.uuid, device.ErrNotInitialized)
	}

	c.connection.connMutex.RLock()
	defer c.connection.connMutex.RUnlock()
	if !c.connection.isConnectedInternal() {
		return nil, fmt.Errorf("characteristic %s: %w", c.uuid, device.ErrNotConnected)
	}
	return c.connection.client, nil
}
