// Package device defines the Bluetooth Low Energy abstractions used across
// the tool: advertisement and device snapshots produced by scanning, the
// connection/service/characteristic/descriptor hierarchy discovered over
// GATT, and the error taxonomy shared by all operations. Concrete
// implementations backed by the go-ble stack live in the goble subpackage.
package device
