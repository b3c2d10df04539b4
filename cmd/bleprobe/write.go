package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bleprobe/bleprobe/internal/device"
	"github.com/bleprobe/bleprobe/session"
)

// writeCmd represents the write command
var writeCmd = &cobra.Command{
	Use:   "write <device-address> <characteristic-uuid> <value>",
	Short: "Write a value to a characteristic",
	Long: fmt.Sprintf(`Connects to a BLE device by address and writes a value to the given
characteristic UUID. The value is written as UTF-8 bytes unless --hex is set.

Examples:
  # Write string data
  bleprobe write %s 00002a37-0000-1000-8000-00805f9b34fb "Hello"

  # Write hex data
  bleprobe write %s 00002a37-0000-1000-8000-00805f9b34fb "48656c6c6f" --hex

%s`, exampleDeviceAddress, exampleDeviceAddress, deviceAddressNote),
	Args: cobra.ExactArgs(3),
	RunE: runWrite,
}

var (
	writeHex            bool
	writeNoResponse     bool
	writeVerbose        bool
	writeConnectTimeout time.Duration
	writeTimeout        time.Duration
)

func init() {
	writeCmd.Flags().BoolVar(&writeHex, "hex", false, "Interpret value as a hex string (e.g. 'FF01'); UTF-8 bytes by default")
	writeCmd.Flags().BoolVar(&writeNoResponse, "without-response", false, "Write without response (no ACK); default waits for ACK when available")
	writeCmd.Flags().BoolVar(&writeVerbose, "verbose", false, "Verbose output")
	writeCmd.Flags().DurationVar(&writeConnectTimeout, "connect-timeout", 30*time.Second, "Connection timeout")
	writeCmd.Flags().DurationVar(&writeTimeout, "timeout", 5*time.Second, "Write timeout")
}

func runWrite(cmd *cobra.Command, args []string) error {
	address := args[0]
	charUUID := args[1]
	valueStr := args[2]

	encoding := "utf-8"
	if writeHex {
		encoding = "hex"
	}
	fmt.Printf("Using device address: %s\n", address)
	fmt.Printf("Characteristic UUID: %s\n", charUUID)
	fmt.Printf("Value: %s (%s)\n", valueStr, encoding)

	if _, err := validateDeviceAddress(address); err != nil {
		return err
	}

	if _, err := device.ValidateUUID(charUUID); err != nil {
		return err
	}

	data, err := device.ParsePayload(valueStr, writeHex)
	if err != nil {
		return err
	}

	logger, err := configureLogger(cmd, "verbose")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Config file values apply unless the flag was given explicitly
	if !cmd.Flags().Changed("connect-timeout") {
		writeConnectTimeout = cfg.ConnectTimeout
	}
	if !cmd.Flags().Changed("timeout") {
		writeTimeout = cfg.ReadTimeout
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	opts := &session.Options{
		ConnectTimeout:        writeConnectTimeout,
		DescriptorReadTimeout: 0, // Skip descriptor reads for write operations
	}

	// Cancel on Ctrl+C so the session guard still disconnects
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\nAttempting to connect to %s ...\n", address)

	progress := NewProgressPrinter(fmt.Sprintf("Writing %d bytes to %s on %s", len(data), charUUID, address), "Connecting", "Connected", "Failed")
	progress.Start()
	defer progress.Stop()

	_, err = session.WithDevice(ctx, address, opts, logger, progress.Callback(),
		func(dev device.Device) (struct{}, error) {
			fmt.Printf("Successfully connected to %s\n", address)
			fmt.Printf("Connected at: %s\n", time.Now().Format("2006-01-02 15:04:05"))
			fmt.Printf("Writing to characteristic %s ...\n", charUUID)
			return struct{}{}, writeCharacteristic(dev, charUUID, data)
		})
	if err != nil {
		fmt.Println("\nWrite operation failed.")
		return err
	}

	fmt.Printf("Successfully wrote value to characteristic %s.\n", charUUID)
	fmt.Printf("\nDisconnected from %s\n", address)
	fmt.Println("\nWrite operation completed successfully.")
	return nil
}

// writeCharacteristic resolves the characteristic across all services and
// performs a single write.
func writeCharacteristic(dev device.Device, charUUID string, data []byte) error {
	conn := dev.GetConnection()
	if conn == nil {
		return device.ErrNotConnected
	}

	char, err := conn.FindCharacteristic(charUUID)
	if err != nil {
		return err
	}

	props := char.GetProperties()
	if props == nil {
		return fmt.Errorf("characteristic %s: properties not available", char.UUID())
	}

	canWrite := props.Write() != nil
	canWriteNoResponse := props.WriteWithoutResponse() != nil
	if !canWrite && !canWriteNoResponse {
		return fmt.Errorf("characteristic %s does not support write operations: %w", char.UUID(), device.ErrUnsupported)
	}

	// Default to with-response when supported
	withResponse := !writeNoResponse && canWrite

	if err := char.Write(data, withResponse, writeTimeout); err != nil {
		return fmt.Errorf("failed to write value: %w", err)
	}
	return nil
}
