package bledb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUUID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "16-bit UUID",
			input:    "2902",
			expected: "2902",
		},
		{
			name:     "16-bit UUID uppercase",
			input:    "2A37",
			expected: "2a37",
		},
		{
			name:     "16-bit UUID with 0x prefix",
			input:    "0x2902",
			expected: "2902",
		},
		{
			name:     "full SIG base UUID with dashes",
			input:    "00002902-0000-1000-8000-00805f9b34fb",
			expected: "2902",
		},
		{
			name:     "full SIG base UUID without dashes",
			input:    "0000290200001000800000805f9b34fb",
			expected: "2902",
		},
		{
			name:     "full SIG base UUID uppercase",
			input:    "0000180D-0000-1000-8000-00805F9B34FB",
			expected: "180d",
		},
		{
			name:     "custom 128-bit UUID is not shortened",
			input:    "6E400001-B5A3-F393-E0A9-E50E24DCCA9E",
			expected: "6e400001b5a3f393e0a9e50e24dcca9e",
		},
		{
			name:     "custom UUID with SIG-like prefix but wrong suffix",
			input:    "00002902-1234-5678-9abc-def012345678",
			expected: "00002902123456789abcdef012345678",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "32-bit UUID passes through",
			input:    "12345678",
			expected: "12345678",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeUUID(tt.input))
		})
	}
}

func TestNormalizeUUIDs(t *testing.T) {
	in := []string{"0x180F", "00002A37-0000-1000-8000-00805F9B34FB"}
	assert.Equal(t, []string{"180f", "2a37"}, NormalizeUUIDs(in))
}

func TestLookups(t *testing.T) {
	tests := []struct {
		name     string
		lookup   func(string) string
		uuid     string
		expected string
	}{
		{"known service short form", LookupService, "180f", "Battery"},
		{"known service full form", LookupService, "0000180d-0000-1000-8000-00805f9b34fb", "Heart Rate"},
		{"known service uppercase", LookupService, "180A", "Device Information"},
		{"unknown service", LookupService, "ffff", ""},
		{"known characteristic", LookupCharacteristic, "2a19", "Battery Level"},
		{"known characteristic full form", LookupCharacteristic, "00002a00-0000-1000-8000-00805f9b34fb", "Device Name"},
		{"unknown characteristic", LookupCharacteristic, "abcd", ""},
		{"known descriptor", LookupDescriptor, "2902", "Client Characteristic Configuration"},
		{"known descriptor with prefix", LookupDescriptor, "0x2901", "Characteristic User Description"},
		{"unknown descriptor", LookupDescriptor, "2999", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.lookup(tt.uuid))
		})
	}
}
