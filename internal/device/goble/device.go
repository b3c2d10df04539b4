package goble

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/bleprobe/bleprobe/internal/bledb"
	"github.com/bleprobe/bleprobe/internal/device"
)

// BLEDevice implements the Device interface for BLE peripherals. Scan-time
// advertisement data and the live connection share one instance.
type BLEDevice struct {
	id                 string
	name               string
	address            string
	rssi               int
	txPower            *int
	connectable        bool
	lastSeen           time.Time
	advertisedServices []string
	manufData          []byte
	serviceData        map[string][]byte
	connection         *BLEConnection
	logger             *logrus.Logger
	mu                 sync.RWMutex
}

// NewBLEDevice creates a BLEDevice with a pre-created connection instance.
func NewBLEDevice(address string, logger *logrus.Logger) *BLEDevice {
	if logger == nil {
		logger = logrus.New()
	}

	return &BLEDevice{
		id:                 address,
		address:            address,
		advertisedServices: make([]string, 0),
		serviceData:        make(map[string][]byte),
		lastSeen:           time.Now(),
		connection:         NewBLEConnection(logger),
		logger:             logger,
	}
}

// NewBLEDeviceFromAdvertisement creates a BLEDevice from advertisement data.
func NewBLEDeviceFromAdvertisement(adv device.Advertisement, logger *logrus.Logger) *BLEDevice {
	dev := NewBLEDevice(adv.Addr(), logger)

	dev.name = adv.LocalName()
	dev.rssi = adv.RSSI()
	dev.connectable = adv.Connectable()
	dev.manufData = adv.ManufacturerData()

	for _, uuid := range adv.Services() {
		dev.advertisedServices = append(dev.advertisedServices, bledb.NormalizeUUID(uuid))
	}
	sort.Strings(dev.advertisedServices)

	for _, svcData := range adv.ServiceData() {
		dev.serviceData[bledb.NormalizeUUID(svcData.UUID)] = svcData.Data
	}

	// 127 means TX power not available
	if adv.TxPowerLevel() != 127 {
		txPower := adv.TxPowerLevel()
		dev.txPower = &txPower
	}

	if dev.name == "" {
		dev.name = extractNameFromManufacturerData(adv.ManufacturerData())
	}

	return dev
}

func (d *BLEDevice) ID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.id
}

// Name returns the advertised name, falling back to the address for
// nameless devices.
func (d *BLEDevice) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.name == "" {
		return d.address
	}
	return d.name
}

func (d *BLEDevice) Address() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.address
}

func (d *BLEDevice) RSSI() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rssi
}

func (d *BLEDevice) TxPower() *int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.txPower
}

func (d *BLEDevice) IsConnectable() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connectable
}

func (d *BLEDevice) AdvertisedServices() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.advertisedServices
}

func (d *BLEDevice) ManufacturerData() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.manufData
}

func (d *BLEDevice) ServiceData() map[string][]byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.serviceData
}

// LastSeen returns the time of the most recent advertisement.
func (d *BLEDevice) LastSeen() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastSeen
}

// Connect establishes the BLE connection and discovers the GATT profile.
// After a successful connect the GAP Device Name characteristic (0x2A00) is
// consulted, since it is more authoritative than the advertisement name.
func (d *BLEDevice) Connect(ctx context.Context, opts *device.ConnectOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connection == nil {
		return device.ErrNotInitialized
	}
	if opts == nil {
		opts = &device.ConnectOptions{ConnectTimeout: DefaultConnectTimeout}
	}

	if err := d.connection.Connect(ctx, d.address, opts); err != nil {
		return err
	}

	const (
		gapServiceUUID = "1800"
		deviceNameChar = "2a00"
	)
	if char, err := d.connection.GetCharacteristic(gapServiceUUID, deviceNameChar); err == nil {
		if data, err := char.Read(0); err == nil && len(data) > 0 {
			name := strings.TrimSpace(strings.TrimRight(string(data), "\x00"))
			if isValidDeviceName(name) {
				d.name = name
				d.logger.WithFields(logrus.Fields{
					"address": d.address,
					"name":    name,
				}).Debug("Resolved device name from GAP")
			}
		}
	}

	return nil
}

// Disconnect closes the connection.
func (d *BLEDevice) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connection == nil {
		return device.ErrNotInitialized
	}
	return d.connection.Disconnect()
}

// IsConnected returns connection status.
func (d *BLEDevice) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connection != nil && d.connection.IsConnected()
}

// GetConnection returns the BLE connection interface.
func (d *BLEDevice) GetConnection() device.Connection {
	return d.connection
}

// Update refreshes device information from a new advertisement.
func (d *BLEDevice) Update(adv device.Advertisement) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.rssi = adv.RSSI()
	d.lastSeen = time.Now()

	if name := adv.LocalName(); name != "" {
		d.name = name
	} else if d.name == "" {
		d.name = extractNameFromManufacturerData(adv.ManufacturerData())
	}

	if manufData := adv.ManufacturerData(); len(manufData) > 0 {
		d.manufData = manufData
	}

	needsSort := false
	for _, svc := range adv.Services() {
		normalized := bledb.NormalizeUUID(svc)
		if !containsFold(d.advertisedServices, normalized) {
			d.advertisedServices = append(d.advertisedServices, normalized)
			needsSort = true
		}
	}
	if needsSort {
		sort.Strings(d.advertisedServices)
	}

	for _, svcData := range adv.ServiceData() {
		d.serviceData[bledb.NormalizeUUID(svcData.UUID)] = svcData.Data
	}

	if adv.TxPowerLevel() != 127 {
		txPower := adv.TxPowerLevel()
		d.txPower = &txPower
	}
}

// MarshalJSON renders the discovery snapshot for --format json output.
func (d *BLEDevice) MarshalJSON() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	name := d.name
	if name == "" {
		name = d.address
	}
	return json.Marshal(struct {
		ID               string            `json:"id"`
		Name             string            `json:"name"`
		Address          string            `json:"address"`
		RSSI             int               `json:"rssi"`
		TxPower          *int              `json:"tx_power"`
		Connectable      bool              `json:"connectable"`
		LastSeen         time.Time         `json:"last_seen"`
		Services         []string          `json:"services"`
		ManufacturerData []byte            `json:"manufacturer_data"`
		ServiceData      map[string][]byte `json:"service_data"`
	}{
		ID:               d.id,
		Name:             name,
		Address:          d.address,
		RSSI:             d.rssi,
		TxPower:          d.txPower,
		Connectable:      d.connectable,
		LastSeen:         d.lastSeen,
		Services:         d.advertisedServices,
		ManufacturerData: d.manufData,
		ServiceData:      d.serviceData,
	})
}

// extractNameFromManufacturerData looks for a readable ASCII run; many
// devices embed their name as plain text in manufacturer data.
func extractNameFromManufacturerData(data []byte) string {
	for i := 0; i < len(data); i++ {
		if !isReadableASCII(data[i]) {
			continue
		}
		j := i
		for j < len(data) && j < i+32 && isReadableASCII(data[j]) {
			j++
		}
		name := strings.TrimSpace(string(data[i:j]))
		if isValidDeviceName(name) {
			return name
		}
		i = j
	}
	return ""
}

func isReadableASCII(b byte) bool {
	return b >= 32 && b <= 126
}

// isValidDeviceName filters out short or letterless runs that are almost
// certainly not names.
func isValidDeviceName(name string) bool {
	if len(name) < 3 || len(name) > 32 {
		return false
	}
	for _, r := range name {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
