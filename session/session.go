// Package session manages the connect/work/disconnect lifecycle of a BLE
// device interaction.
package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bleprobe/bleprobe/internal/device"
	"github.com/bleprobe/bleprobe/internal/devicefactory"
)

// ProgressCallback is called when the session phase changes
type ProgressCallback func(phase string)

// Options defines options for a device session
type Options struct {
	ConnectTimeout        time.Duration
	DescriptorReadTimeout time.Duration
}

// Callback processes a connected device and produces output of type R
type Callback[R any] func(device.Device) (R, error)

// WithDevice connects to a device, discovers its profile, and executes the
// callback with the connected device. The device lifecycle (connection and
// disconnection) is managed automatically: the device is disconnected exactly
// once after the callback returns, whether it succeeded or not. The callback
// is not invoked when the connection fails.
func WithDevice[R any](ctx context.Context, address string, opts *Options, logger *logrus.Logger, progressCallback ProgressCallback, callback Callback[R]) (R, error) {
	var zero R
	if opts == nil {
		opts = &Options{ConnectTimeout: 30 * time.Second}
	}
	if logger == nil {
		logger = logrus.New()
	}
	if progressCallback == nil {
		progressCallback = func(string) {} // No-op callback
	}

	progressCallback("Connecting")

	dev := devicefactory.NewDevice(address, logger)
	connectOpts := &device.ConnectOptions{
		ConnectTimeout:        opts.ConnectTimeout,
		DescriptorReadTimeout: opts.DescriptorReadTimeout,
	}

	err := dev.Connect(ctx, connectOpts)
	if err != nil {
		progressCallback("Failed")
		return zero, err
	}

	progressCallback("Connected")

	defer func(dev device.Device) {
		if err := dev.Disconnect(); err != nil {
			logger.WithError(err).Error("failed to disconnect device")
		}
	}(dev)

	progressCallback("Processing results")

	return callback(dev)
}
