package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bleprobe/bleprobe/explorer"
	"github.com/bleprobe/bleprobe/internal/device"
	"github.com/bleprobe/bleprobe/session"
)

// exploreCmd represents the explore command
var exploreCmd = &cobra.Command{
	Use:   "explore [device-address]",
	Short: "Explore services and characteristics of a BLE device",
	Long: fmt.Sprintf(`Connects to a BLE device by address and lists its services,
characteristics, and descriptors. Readable characteristic values are read and
displayed when possible.

Example:
  bleprobe explore %s

%s`, exampleDeviceAddress, deviceAddressNote),
	Args: cobra.MaximumNArgs(1),
	RunE: runExplore,
}

var (
	exploreDescriptors       bool
	exploreJSON              bool
	exploreVerbose           bool
	exploreConnectTimeout    time.Duration
	exploreReadTimeout       time.Duration
	exploreDescriptorTimeout time.Duration
)

func init() {
	exploreCmd.Flags().BoolVarP(&exploreDescriptors, "descriptors", "d", false, "Show individual descriptors for each characteristic")
	exploreCmd.Flags().BoolVar(&exploreJSON, "json", false, "Output as JSON")
	exploreCmd.Flags().BoolVar(&exploreVerbose, "verbose", false, "Verbose output")
	exploreCmd.Flags().DurationVar(&exploreConnectTimeout, "connect-timeout", 30*time.Second, "Connection timeout")
	exploreCmd.Flags().DurationVar(&exploreReadTimeout, "read-timeout", 5*time.Second, "Timeout for reading characteristic values (0 to skip reads)")
	exploreCmd.Flags().DurationVar(&exploreDescriptorTimeout, "descriptor-timeout", 2*time.Second, "Timeout for reading descriptor values (0 to skip descriptor reads)")
}

func runExplore(cmd *cobra.Command, args []string) error {
	address := exampleDeviceAddress
	if len(args) > 0 {
		address = args[0]
	}

	if !exploreJSON {
		fmt.Println("BLE Device Connection and Service Explorer")
		fmt.Printf("Started at: %s\n", time.Now().Format("2006-01-02 15:04:05"))
		fmt.Println()
		fmt.Printf("Using device address: %s\n", address)
		if exploreDescriptors {
			fmt.Println("Descriptor display enabled.")
		}
	}

	if _, err := validateDeviceAddress(address); err != nil {
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
		exploreConnectTimeout = cfg.ConnectTimeout
	}
	if !cmd.Flags().Changed("read-timeout") {
		exploreReadTimeout = cfg.ReadTimeout
	}
	if !cmd.Flags().Changed("descriptor-timeout") {
		exploreDescriptorTimeout = cfg.DescriptorTimeout
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	descTimeout := exploreDescriptorTimeout
	if !exploreDescriptors {
		descTimeout = 0 // No descriptor reads when they are not displayed
	}
	opts := &session.Options{
		ConnectTimeout:        exploreConnectTimeout,
		DescriptorReadTimeout: descTimeout,
	}

	// Cancel on Ctrl+C so the session guard still disconnects
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Keep JSON output machine-readable: no progress line, no banners
	var progressCallback session.ProgressCallback
	if !exploreJSON {
		fmt.Printf("\nAttempting to connect to %s ...\n", address)

		progress := NewProgressPrinter(fmt.Sprintf("Exploring device %s", address), "Connecting", "Connected", "Failed")
		progress.Start()
		defer progress.Stop()
		progressCallback = progress.Callback()
	}

	report, err := session.WithDevice(ctx, address, opts, logger, progressCallback,
		func(dev device.Device) (*explorer.Report, error) {
			if !exploreJSON {
				fmt.Printf("Successfully connected to %s\n", address)
				fmt.Printf("Connected at: %s\n", time.Now().Format("2006-01-02 15:04:05"))
				fmt.Println()
			}
			return explorer.Explore(dev, &explorer.Options{
				IncludeDescriptors: exploreDescriptors,
				ReadTimeout:        exploreReadTimeout,
			})
		})
	if err != nil {
		if !exploreJSON {
			fmt.Println("\nDevice exploration failed.")
		}
		return err
	}

	if exploreJSON {
		return report.WriteJSON(os.Stdout)
	}

	if err := report.WriteText(os.Stdout); err != nil {
		return err
	}

	fmt.Printf("\nDisconnected from %s\n", address)
	fmt.Println("\nDevice exploration completed successfully.")
	return nil
}
