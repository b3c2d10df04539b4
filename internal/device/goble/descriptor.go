package goble

import (
	"fmt"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/bleprobe/bleprobe/internal/bledb"
	"github.com/bleprobe/bleprobe/internal/device"
)

const (
	// DefaultDescriptorReadTimeout bounds descriptor value reads during
	// profile discovery.
	DefaultDescriptorReadTimeout = 2 * time.Second
)

// BLEDescriptor implements the Descriptor interface for GATT descriptors.
// The value is read best-effort at discovery time; a failed read is recorded
// per descriptor and never fails the characteristic.
type BLEDescriptor struct {
	uuid      string
	knownName string
	handle    uint16
	value     []byte
	readErr   error
	BLEDesc   *ble.Descriptor
}

// newDescriptor creates a BLEDescriptor and attempts to read its value.
// A zero timeout skips the read entirely.
func newDescriptor(d *ble.Descriptor, client ble.Client, timeout time.Duration, logger *logrus.Logger) *BLEDescriptor {
	rawUUID := d.UUID.String()

	desc := &BLEDescriptor{
		uuid:      bledb.NormalizeUUID(rawUUID),
		knownName: bledb.LookupDescriptor(rawUUID),
		handle:    d.Handle,
		BLEDesc:   d,
	}

	if timeout == 0 || client == nil {
		return desc
	}

	type readResult struct {
		data []byte
		err  error
	}
	resultCh := make(chan readResult, 1)

	go func() {
		// Discovery may have already cached a value.
		if len(d.Value) > 0 {
			resultCh <- readResult{data: d.Value}
			return
		}
		// On darwin the stack does not populate descriptor handles, so an
		// explicit read is impossible.
		if d.Handle == 0 {
			resultCh <- readResult{err: fmt.Errorf("descriptor handle not available")}
			return
		}
		data, err := client.ReadDescriptor(d)
		resultCh <- readResult{data: data, err: err}
	}()

	select {
	case result := <-resultCh:
		if result.err != nil {
			desc.readErr = NormalizeError(result.err)
			if logger != nil {
				logger.WithFields(logrus.Fields{
					"descriptor_uuid": desc.uuid,
					"error":           result.err,
				}).Debug("Failed to read descriptor value")
			}
			break
		}
		desc.value = result.data
	case <-time.After(timeout):
		desc.readErr = fmt.Errorf("%w reading descriptor %s after %v", device.ErrTimeout, desc.uuid, timeout)
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"descriptor_uuid": desc.uuid,
				"timeout":         timeout,
			}).Debug("Timeout reading descriptor value")
		}
	}

	return desc
}

func (d *BLEDescriptor) UUID() string {
	return d.uuid
}

func (d *BLEDescriptor) KnownName() string {
	return d.knownName
}

func (d *BLEDescriptor) Handle() uint16 {
	return d.handle
}

// Value returns the raw descriptor value bytes, nil if the read failed or was skipped.
func (d *BLEDescriptor) Value() []byte {
	return d.value
}

// ReadError returns the read failure cause, nil on success or when reads were skipped.
func (d *BLEDescriptor) ReadError() error {
	return d.readErr
}
