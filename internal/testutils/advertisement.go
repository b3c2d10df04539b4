// Package testutils provides fake advertisements, GATT object graphs, and
// devices for exercising scan, session, and enumeration logic without a
// radio.
package testutils

import "github.com/bleprobe/bleprobe/internal/device"

// FakeAdvertisement is a scripted device.Advertisement.
type FakeAdvertisement struct {
	Name        string
	Address     string
	Rssi        int
	TxPower     int
	IsConn      bool
	SvcUUIDs    []string
	ManufData   []byte
	SvcData     map[string][]byte
	svcDataKeys []string
}

func (a *FakeAdvertisement) LocalName() string        { return a.Name }
func (a *FakeAdvertisement) ManufacturerData() []byte { return a.ManufData }
func (a *FakeAdvertisement) Services() []string       { return a.SvcUUIDs }
func (a *FakeAdvertisement) TxPowerLevel() int        { return a.TxPower }
func (a *FakeAdvertisement) Connectable() bool        { return a.IsConn }
func (a *FakeAdvertisement) RSSI() int                { return a.Rssi }
func (a *FakeAdvertisement) Addr() string             { return a.Address }

func (a *FakeAdvertisement) ServiceData() []struct {
	UUID string
	Data []byte
} {
	result := make([]struct {
		UUID string
		Data []byte
	}, 0, len(a.SvcData))
	for _, uuid := range a.svcDataKeys {
		result = append(result, struct {
			UUID string
			Data []byte
		}{UUID: uuid, Data: a.SvcData[uuid]})
	}
	return result
}

// AdvertisementBuilder builds FakeAdvertisements fluently.
type AdvertisementBuilder struct {
	adv FakeAdvertisement
}

// NewAdvertisementBuilder returns a builder with sane defaults: connectable,
// -50 dBm, TX power unavailable (127).
func NewAdvertisementBuilder() *AdvertisementBuilder {
	return &AdvertisementBuilder{adv: FakeAdvertisement{
		Rssi:    -50,
		TxPower: 127,
		IsConn:  true,
		SvcData: make(map[string][]byte),
	}}
}

func (b *AdvertisementBuilder) WithName(name string) *AdvertisementBuilder {
	b.adv.Name = name
	return b
}

func (b *AdvertisementBuilder) WithAddress(address string) *AdvertisementBuilder {
	b.adv.Address = address
	return b
}

func (b *AdvertisementBuilder) WithRSSI(rssi int) *AdvertisementBuilder {
	b.adv.Rssi = rssi
	return b
}

func (b *AdvertisementBuilder) WithTxPower(txPower int) *AdvertisementBuilder {
	b.adv.TxPower = txPower
	return b
}

func (b *AdvertisementBuilder) WithConnectable(connectable bool) *AdvertisementBuilder {
	b.adv.IsConn = connectable
	return b
}

func (b *AdvertisementBuilder) WithServices(uuids ...string) *AdvertisementBuilder {
	b.adv.SvcUUIDs = uuids
	return b
}

func (b *AdvertisementBuilder) WithManufacturerData(data []byte) *AdvertisementBuilder {
	b.adv.ManufData = data
	return b
}

func (b *AdvertisementBuilder) WithServiceData(uuid string, data []byte) *AdvertisementBuilder {
	b.adv.SvcData[uuid] = data
	b.adv.svcDataKeys = append(b.adv.svcDataKeys, uuid)
	return b
}

func (b *AdvertisementBuilder) Build() device.Advertisement {
	adv := b.adv
	return &adv
}
