package goble

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/bleprobe/bleprobe/internal/bledb"
	"github.com/bleprobe/bleprobe/internal/device"
)

const (
	// DefaultConnectTimeout is applied when ConnectOptions carries none.
	DefaultConnectTimeout = 30 * time.Second
)

// BLEConnection represents a live BLE connection. The service table is
// insertion-ordered: Services() enumerates in the order the stack reported
// them during profile discovery.
type BLEConnection struct {
	client      ble.Client
	logger      *logrus.Logger
	writeMutex  sync.Mutex
	connMutex   sync.RWMutex
	isConnected bool

	services *orderedmap.OrderedMap[string, *BLEService]
}

// NewBLEConnection creates a disconnected connection.
func NewBLEConnection(logger *logrus.Logger) *BLEConnection {
	return &BLEConnection{
		services: orderedmap.New[string, *BLEService](),
		logger:   logger,
	}
}

// Connect dials the device, discovers its GATT profile, and populates the
// service table. On discovery failure the half-open link is torn down before
// returning.
func (c *BLEConnection) Connect(ctx context.Context, address string, opts *device.ConnectOptions) error {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if strings.TrimSpace(address) == "" {
		return fmt.Errorf("device address is empty")
	}
	if c.isConnectedInternal() {
		c.logger.WithField("address", address).Warn("Connection attempt while already connected")
		return device.ErrAlreadyConnected
	}

	connectTimeout := opts.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = DefaultConnectTimeout
	}

	c.logger.WithFields(logrus.Fields{
		"address": address,
		"timeout": connectTimeout,
	}).Info("Connecting to BLE device...")

	dev, err := DeviceFactory()
	if err != nil {
		return fmt.Errorf("failed to create BLE device: %w", NormalizeError(err))
	}
	ble.SetDefaultDevice(dev)

	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := ble.Dial(connCtx, ble.NewAddr(address))
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"address": address,
			"error":   err,
		}).Error("Failed to dial BLE device")
		return fmt.Errorf("failed to connect to device %q: %w", address, NormalizeError(err))
	}

	c.logger.WithField("address", address).Debug("Discovering services and characteristics...")
	profile, err := client.DiscoverProfile(true)
	if err != nil {
		if cancelErr := client.CancelConnection(); cancelErr != nil {
			c.logger.WithField("cancel_error", cancelErr).Warn("Failed to cancel connection after discovery failure")
		}
		return fmt.Errorf("failed to discover profile: %w", NormalizeError(err))
	}

	c.populateServices(profile, client, opts.DescriptorReadTimeout)

	c.client = client
	c.isConnected = true

	totalChars := 0
	for pair := c.services.Oldest(); pair != nil; pair = pair.Next() {
		totalChars += pair.Value.characteristics.Len()
	}
	c.logger.WithFields(logrus.Fields{
		"address":         address,
		"services":        c.services.Len(),
		"characteristics": totalChars,
	}).Info("BLE device connected")
	return nil
}

// populateServices fills the ordered service table from a discovered profile.
// Caller holds connMutex.
func (c *BLEConnection) populateServices(profile *ble.Profile, client ble.Client, descTimeout time.Duration) {
	c.services = orderedmap.New[string, *BLEService]()

	for _, bleSvc := range profile.Services {
		svcRawUUID := bleSvc.UUID.String()
		svcUUID := bledb.NormalizeUUID(svcRawUUID)

		svc := &BLEService{
			uuid:            svcUUID,
			knownName:       bledb.LookupService(svcRawUUID),
			handle:          bleSvc.Handle,
			characteristics: orderedmap.New[string, *BLECharacteristic](),
		}
		c.services.Set(svcUUID, svc)

		for _, bleChar := range bleSvc.Characteristics {
			charUUID := bledb.NormalizeUUID(bleChar.UUID.String())
			c.logger.WithFields(logrus.Fields{
				"service_uuid": svcUUID,
				"char_uuid":    charUUID,
			}).Debug("Found characteristic")

			descriptors := make([]device.Descriptor, 0, len(bleChar.Descriptors))
			for _, d := range bleChar.Descriptors {
				descriptors = append(descriptors, newDescriptor(d, client, descTimeout, c.logger))
			}

			svc.characteristics.Set(charUUID, NewCharacteristic(bleChar, c, descriptors))
		}
	}
}

// Disconnect tears down the connection. It is idempotent: a second call on an
// already-disconnected connection is a no-op returning nil.
func (c *BLEConnection) Disconnect() error {
	c.connMutex.Lock()
	if c.client == nil || !c.isConnected {
		c.connMutex.Unlock()
		c.logger.Debug("Disconnect called but already disconnected")
		return nil
	}

	client := c.client
	c.client = nil
	c.isConnected = false
	c.connMutex.Unlock()

	// The link teardown is a network call, kept outside the lock.
	err := client.CancelConnection()
	if err != nil {
		c.logger.WithField("error", err).Warn("BLE device disconnected with errors")
		return NormalizeError(err)
	}
	c.logger.Info("BLE device disconnected")
	return nil
}

// IsConnected returns the connection status.
func (c *BLEConnection) IsConnected() bool {
	c.connMutex.RLock()
	defer c.connMutex.RUnlock()
	return c.isConnectedInternal()
}

// isConnectedInternal checks status without locking; caller holds connMutex.
func (c *BLEConnection) isConnectedInternal() bool {
	return c.client != nil && c.isConnected
}

// Services returns all discovered services in discovery order.
func (c *BLEConnection) Services() []device.Service {
	c.connMutex.RLock()
	defer c.connMutex.RUnlock()

	result := make([]device.Service, 0, c.services.Len())
	for pair := c.services.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value)
	}
	return result
}

// GetService retrieves a service by UUID (normalized for lookup).
func (c *BLEConnection) GetService(uuid string) (device.Service, error) {
	c.connMutex.RLock()
	defer c.connMutex.RUnlock()

	svc, ok := c.services.Get(bledb.NormalizeUUID(uuid))
	if !ok {
		return nil, &device.NotFoundError{Resource: "service", UUIDs: []string{uuid}}
	}
	return svc, nil
}

// GetCharacteristic retrieves a characteristic by service and characteristic
// UUID, both normalized for lookup.
func (c *BLEConnection) GetCharacteristic(service, uuid string) (device.Characteristic, error) {
	c.connMutex.RLock()
	defer c.connMutex.RUnlock()

	svc, ok := c.services.Get(bledb.NormalizeUUID(service))
	if !ok {
		return nil, &device.NotFoundError{Resource: "service", UUIDs: []string{service}}
	}
	char, ok := svc.characteristics.Get(bledb.NormalizeUUID(uuid))
	if !ok {
		return nil, &device.NotFoundError{Resource: "characteristic", UUIDs: []string{service, uuid}}
	}
	return char, nil
}

// FindCharacteristic searches all services for a characteristic UUID.
func (c *BLEConnection) FindCharacteristic(uuid string) (device.Characteristic, error) {
	c.connMutex.RLock()
	defer c.connMutex.RUnlock()

	normalized := bledb.NormalizeUUID(uuid)
	for pair := c.services.Oldest(); pair != nil; pair = pair.Next() {
		if char, ok := pair.Value.characteristics.Get(normalized); ok {
			return char, nil
		}
	}
	return nil, &device.NotFoundError{Resource: "characteristic", UUIDs: []string{uuid}}
}
