package explorer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	serviceColor = color.New(color.FgCyan, color.Bold)
	uuidColor    = color.New(color.FgYellow)
	valueColor   = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
)

// WriteJSON renders the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText renders the report as a human-readable profile listing.
func (r *Report) WriteText(w io.Writer) error {
	if len(r.Services) == 0 {
		_, err := fmt.Fprintln(w, "No services found on this device.")
		return err
	}

	fmt.Fprintf(w, "Found %d service(s):\n", len(r.Services))
	fmt.Fprintln(w, strings.Repeat("=", 80))

	for _, svc := range r.Services {
		fmt.Fprintf(w, "\nService: %s\n", serviceColor.Sprint(svc.UUID))
		if svc.Description != "" {
			fmt.Fprintf(w, "Description: %s\n", svc.Description)
		}
		fmt.Fprintf(w, "Handle: %d\n", svc.Handle)

		if len(svc.Characteristics) == 0 {
			fmt.Fprintln(w, "    No characteristics found for this service.")
			fmt.Fprintln(w, strings.Repeat("-", 80))
			continue
		}

		fmt.Fprintf(w, "  Characteristics (%d):\n", len(svc.Characteristics))
		fmt.Fprintln(w, "  "+strings.Repeat("-", 76))

		for _, char := range svc.Characteristics {
			writeCharacteristic(w, char)
		}

		fmt.Fprintln(w, strings.Repeat("-", 80))
	}

	return nil
}

func writeCharacteristic(w io.Writer, char CharacteristicReport) {
	fmt.Fprintf(w, "    UUID: %s\n", uuidColor.Sprint(char.UUID))
	if char.Description != "" {
		fmt.Fprintf(w, "    Description: %s\n", char.Description)
	}
	fmt.Fprintf(w, "    Handle: %d\n", char.Handle)
	fmt.Fprintf(w, "    Properties: %s\n", strings.Join(char.Properties, ", "))

	switch {
	case char.ReadError != "":
		fmt.Fprintf(w, "    Value: %s\n", errorColor.Sprintf("<Could not read - %s>", char.ReadError))
	case char.Value != nil && char.Value.IsText:
		fmt.Fprintf(w, "    Value (string): %s\n", valueColor.Sprint(char.Value.Text))
	case char.Value != nil:
		fmt.Fprintf(w, "    Value (hex): %s\n", valueColor.Sprint(char.Value.Text))
		fmt.Fprintf(w, "    Value (raw bytes): %v\n", char.Value.Raw)
	}

	if len(char.Descriptors) > 0 {
		fmt.Fprintf(w, "    Descriptors (%d):\n", len(char.Descriptors))
		for _, desc := range char.Descriptors {
			writeDescriptor(w, desc)
		}
	}

	fmt.Fprintln(w)
}

func writeDescriptor(w io.Writer, desc DescriptorReport) {
	fmt.Fprintf(w, "      UUID: %s\n", uuidColor.Sprint(desc.UUID))
	if desc.Description != "" {
		fmt.Fprintf(w, "      Description: %s\n", desc.Description)
	}
	fmt.Fprintf(w, "      Handle: %d\n", desc.Handle)

	switch {
	case desc.ReadError != "":
		fmt.Fprintf(w, "      Value: %s\n", errorColor.Sprintf("<Could not read - %s>", desc.ReadError))
	case desc.Value != nil && desc.Value.IsText:
		fmt.Fprintf(w, "      Value (string): %s\n", desc.Value.Text)
	case desc.Value != nil:
		fmt.Fprintf(w, "      Value (hex): %s\n", desc.Value.Text)
	}
}
