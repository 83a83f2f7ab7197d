package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/berfenger/solarpoll/internal/config"
	"github.com/berfenger/solarpoll/internal/core/registers"

	"github.com/spf13/cobra"
)

var registersCmd = &cobra.Command{
	Use:   "registers",
	Short: "Print the active register table",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		bank, err := registers.LoadOrDefault(cfg.Registers.File)
		if err != nil {
			return err
		}
		thresholds := bank.Table.FlushThresholds(cfg.Poll.Samples)

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s, %d registers\n\n", bank.Manufacturer, bank.Model, len(bank.Table))
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tADDRESS\tENCODING\tMULTIPLIER\tUNIT\tSAMPLES")
		for i, reg := range bank.Table {
			fmt.Fprintf(w, "%s\t%d\t%s\t%g\t%s\t%d\n", reg.Name, reg.Address, reg.Encoding, reg.Multiplier, reg.Unit, thresholds[i])
		}
		return w.Flush()
	},
}
