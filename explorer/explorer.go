// Package explorer enumerates the GATT profile of a connected device and
// renders the result as text or JSON.
package explorer

import (
	"time"

	"github.com/bleprobe/bleprobe/internal/device"
)

// Options configures profile enumeration
type Options struct {
	// IncludeDescriptors adds per-characteristic descriptors to the report.
	IncludeDescriptors bool
	// ReadTimeout bounds each characteristic value read. 0 disables reads.
	ReadTimeout time.Duration
}

// DefaultOptions returns enumeration defaults
func DefaultOptions() *Options {
	return &Options{
		ReadTimeout: 5 * time.Second,
	}
}

// Report is the full GATT profile of a device.
type Report struct {
	Address  string          `json:"address"`
	Name     string          `json:"name,omitempty"`
	Services []ServiceReport `json:"services"`
}

// ServiceReport describes one service and its characteristics.
type ServiceReport struct {
	UUID            string                 `json:"uuid"`
	Description     string                 `json:"description,omitempty"`
	Handle          uint16                 `json:"handle"`
	Characteristics []CharacteristicReport `json:"characteristics"`
}

// CharacteristicReport describes one characteristic. Value fields are only
// populated when the characteristic is readable and a read was attempted:
// exactly one of Value/ReadError is set on a readable characteristic.
type CharacteristicReport struct {
	UUID        string             `json:"uuid"`
	Description string             `json:"description,omitempty"`
	Handle      uint16             `json:"handle"`
	Properties  []string           `json:"properties"`
	Value       *Value             `json:"value,omitempty"`
	ReadError   string             `json:"readError,omitempty"`
	Descriptors []DescriptorReport `json:"descriptors,omitempty"`
}

// Value is a rendered characteristic or descriptor value.
type Value struct {
	Text   string `json:"text"`
	IsText bool   `json:"isText"`
	Raw    []byte `json:"raw"`
}

// DescriptorReport describes one descriptor.
type DescriptorReport struct {
	UUID        string `json:"uuid"`
	Description string `json:"description,omitempty"`
	Handle      uint16 `json:"handle"`
	Value       *Value `json:"value,omitempty"`
	ReadError   string `json:"readError,omitempty"`
}

// Explore walks the device's discovered profile in the order the stack
// reported it and builds a Report. Readable characteristics are read
// best-effort: a failed read records the error inline and enumeration
// continues.
func Explore(dev device.Device, opts *Options) (*Report, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	conn := dev.GetConnection()
	if conn == nil {
		return nil, device.ErrNotConnected
	}

	report := &Report{
		Address: dev.Address(),
		Name:    dev.Name(),
	}

	for _, svc := range conn.Services() {
		svcReport := ServiceReport{
			UUID:            svc.UUID(),
			Description:     svc.KnownName(),
			Handle:          svc.Handle(),
			Characteristics: []CharacteristicReport{},
		}

		for _, char := range svc.GetCharacteristics() {
			charReport := CharacteristicReport{
				UUID:        char.UUID(),
				Description: char.KnownName(),
				Handle:      char.Handle(),
				Properties:  device.PropertyNames(char.GetProperties()),
			}

			if isReadable(char) && opts.ReadTimeout > 0 {
				data, err := char.Read(opts.ReadTimeout)
				if err != nil {
					charReport.ReadError = err.Error()
				} else {
					charReport.Value = newValue(data)
				}
			}

			if opts.IncludeDescriptors {
				for _, desc := range char.GetDescriptors() {
					descReport := DescriptorReport{
						UUID:        desc.UUID(),
						Description: desc.KnownName(),
						Handle:      desc.Handle(),
					}
					if err := desc.ReadError(); err != nil {
						descReport.ReadError = err.Error()
					} else if v := desc.Value(); v != nil {
						descReport.Value = newValue(v)
					}
					charReport.Descriptors = append(charReport.Descriptors, descReport)
				}
			}

			svcReport.Characteristics = append(svcReport.Characteristics, charReport)
		}

		report.Services = append(report.Services, svcReport)
	}

	return report, nil
}

func isReadable(char device.Characteristic) bool {
	props := char.GetProperties()
	return props != nil && props.Read() != nil
}

func newValue(data []byte) *Value {
	text, isText := device.FormatValue(data)
	return &Value{Text: text, IsText: isText, Raw: data}
}
