package goble

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/bleprobe/bleprobe/internal/device"
)

// BLEService represents a GATT service and its characteristics. The
// characteristic table is insertion-ordered so enumeration reflects the order
// the stack reported during discovery.
type BLEService struct {
	uuid            string
	knownName       string
	handle          uint16
	characteristics *orderedmap.OrderedMap[string, *BLECharacteristic]
}

func (s *BLEService) UUID() string {
	return s.uuid
}

func (s *BLEService) KnownName() string {
	return s.knownName
}

func (s *BLEService) Handle() uint16 {
	return s.handle
}

func (s *BLEService) GetCharacteristics() []device.Characteristic {
	result := make([]device.Characteristic, 0, s.characteristics.Len())
	for pair := s.characteristics.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value)
	}
	return result
}
