package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}
	if cfg == nil {
		cfg = &Config{}
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:            %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Transport:        %s\n", cfg.TransportName())
	fmt.Fprintf(out, "  Listen Address:   %s\n", cfg.ListenAddress())
	fmt.Fprintf(out, "  Request Timeout:  %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Default Days:     %d\n", cfg.DefaultDaysAhead())
	fmt.Fprintf(out, "  Max Concurrency:  %d\n", cfg.MaxConcurrency())
	fmt.Fprintf(out, "  Log File:         %s\n", cfg.LogFilePath())
}
