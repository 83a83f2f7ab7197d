package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports usable as modbus.url rtu:///dev/...",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := serial.GetPortsList()
		if err != nil {
			return fmt.Errorf("list serial ports: %w", err)
		}
		if len(ports) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no serial ports found")
			return nil
		}

		// USB details are optional
		details := map[string]*enumerator.PortDetails{}
		if list, err := enumerator.GetDetailedPortsList(); err == nil {
			for _, d := range list {
				details[d.Name] = d
			}
		}

		for _, p := range ports {
			if d, ok := details[p]; ok && d.IsUSB {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tUSB %s:%s %s\n", p, d.VID, d.PID, d.Product)
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}
