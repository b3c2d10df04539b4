package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bleprobe/bleprobe/internal/device"
	"github.com/bleprobe/bleprobe/scanner"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [scan_time_seconds]",
	Short: "Scan for BLE devices",
	Long: `Scan for and display Bluetooth Low Energy devices in the vicinity.

Discovered devices are listed with their names, addresses, RSSI values, and
advertised services. The optional positional argument sets the scan duration
in seconds (default 10).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

var (
	scanFormat      string
	scanServices    []string
	scanAllowList   []string
	scanBlockList   []string
	scanNoDuplicate bool
	scanVerbose     bool
)

func init() {
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "table", "Output format (table, json)")
	scanCmd.Flags().StringSliceVarP(&scanServices, "services", "s", nil, "Filter by service UUIDs")
	scanCmd.Flags().StringSliceVar(&scanAllowList, "allow", nil, "Only show devices with these addresses")
	scanCmd.Flags().StringSliceVar(&scanBlockList, "block", nil, "Hide devices with these addresses")
	scanCmd.Flags().BoolVar(&scanNoDuplicate, "no-duplicates", true, "Filter duplicate advertisements")
	scanCmd.Flags().BoolVar(&scanVerbose, "verbose", false, "Verbose output")
}

// parseScanSeconds converts the positional scan time to a duration. Invalid
// or non-positive values fall back to the default with a warning, mirroring
// the lenient argument handling users expect here.
func parseScanSeconds(arg string, defaultDuration time.Duration) (time.Duration, string) {
	if arg == "" {
		return defaultDuration, ""
	}
	seconds, err := strconv.Atoi(arg)
	if err != nil {
		return defaultDuration, fmt.Sprintf("Invalid scan time: %q is not an integer\nUsing default scan time of %d seconds", arg, int(defaultDuration.Seconds()))
	}
	if seconds <= 0 {
		return defaultDuration, fmt.Sprintf("Invalid scan time: scan time must be positive\nUsing default scan time of %d seconds", int(defaultDuration.Seconds()))
	}
	return time.Duration(seconds) * time.Second, ""
}

func runScan(cmd *cobra.Command, args []string) error {
	logger, err := configureLogger(cmd, "verbose")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Config file format applies unless --format was given explicitly
	if !cmd.Flags().Changed("format") {
		scanFormat = cfg.OutputFormat
	}

	validFormats := []string{"table", "json"}
	isValidFormat := false
	for _, format := range validFormats {
		if scanFormat == format {
			isValidFormat = true
			break
		}
	}
	if !isValidFormat {
		return fmt.Errorf("invalid format '%s': must be one of %v", scanFormat, validFormats)
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	scanArg := ""
	if len(args) > 0 {
		scanArg = args[0]
	}
	duration, warning := parseScanSeconds(scanArg, cfg.ScanTimeout)

	if scanFormat == "table" {
		fmt.Println("BLE Device Scanner")
		fmt.Printf("Scan started at: %s\n", time.Now().Format("2006-01-02 15:04:05"))
		fmt.Println()
		if warning != "" {
			fmt.Println(warning)
		}
	} else if warning != "" {
		fmt.Fprintln(os.Stderr, warning)
	}

	s, err := scanner.NewScanner(logger)
	if err != nil {
		return fmt.Errorf("failed to create BLE scanner: %w", err)
	}

	var serviceUUIDs []string
	if len(scanServices) > 0 {
		serviceUUIDs, err = device.ValidateUUID(scanServices...)
		if err != nil {
			return fmt.Errorf("invalid service UUID: %w", err)
		}
	}

	scanOpts := &scanner.ScanOptions{
		Duration:        duration,
		DuplicateFilter: scanNoDuplicate,
		ServiceUUIDs:    serviceUUIDs,
		AllowList:       scanAllowList,
		BlockList:       scanBlockList,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Listen for Ctrl+C to cancel
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Println("\nScan interrupted by user.")
		cancel()
	}()

	// Keep JSON output machine-readable: no progress line
	var progressCallback scanner.ProgressCallback
	var progress *ProgressPrinter
	if scanFormat == "table" {
		progress = NewCountdownProgressPrinter(
			fmt.Sprintf("Scanning for BLE devices for %d seconds", int(duration.Seconds())),
			"Scanning", duration, "Processing results")
		progress.Start()
		defer progress.Stop()
		progressCallback = progress.Callback()
	}

	devices, err := s.Scan(ctx, scanOpts, progressCallback)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return err
	}

	return displayDevices(os.Stdout, devices, scanFormat)
}

// displayName renders the advertised name. Devices that never advertised one
// report their address as the name, so an address echo counts as unnamed too.
func displayName(dev device.DeviceInfo) string {
	name := dev.Name()
	if name == "" || name == dev.Address() {
		return "<Unknown>"
	}
	return name
}

func displayDevices(w io.Writer, devices map[string]device.DeviceInfo, format string) error {
	devList := make([]device.DeviceInfo, 0, len(devices))
	for _, d := range devices {
		devList = append(devList, d)
	}
	sort.Slice(devList, func(i, j int) bool {
		return devList[i].Address() < devList[j].Address()
	})

	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(devList)
	}

	if len(devList) == 0 {
		_, err := fmt.Fprintln(w, "No BLE devices found.")
		return err
	}

	fmt.Fprintf(w, "Found %d BLE device(s):\n", len(devList))
	fmt.Fprintln(w, strings.Repeat("-", 80))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tADDRESS\tRSSI\tSERVICES")
	for _, dev := range devList {
		name := displayName(dev)
		if len(name) > 25 {
			name = name[:22] + "..."
		}

		services := dev.AdvertisedServices()
		shown := services
		if len(shown) > 2 {
			shown = shown[:2]
		}
		short := make([]string, len(shown))
		for i, uuid := range shown {
			short[i] = device.ShortenUUID(uuid)
		}
		servicesStr := strings.Join(short, ", ")
		if len(services) > 2 {
			servicesStr += "..."
		}

		fmt.Fprintf(tw, "%s\t%s\t%d dBm\t%s\n", name, dev.Address(), dev.RSSI(), servicesStr)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Additional device information:")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	for i, dev := range devList {
		fmt.Fprintf(w, "%d. %s (%s)\n", i+1, displayName(dev), dev.Address())
		if tx := dev.TxPower(); tx != nil {
			fmt.Fprintf(w, "   tx_power: %d dBm\n", *tx)
		}
		fmt.Fprintf(w, "   connectable: %t\n", dev.IsConnectable())
		if md := dev.ManufacturerData(); len(md) > 0 {
			fmt.Fprintf(w, "   manufacturer_data: %s\n", hex.EncodeToString(md))
		}
		for uuid, data := range dev.ServiceData() {
			fmt.Fprintf(w, "   service_data[%s]: %s\n", uuid, hex.EncodeToString(data))
		}
		fmt.Fprintln(w)
	}

	return nil
}
