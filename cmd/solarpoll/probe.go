package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/berfenger/solarpoll/internal/config"
	"github.com/berfenger/solarpoll/internal/core/domain"
	"github.com/berfenger/solarpoll/internal/core/registers"
	"github.com/berfenger/solarpoll/internal/core/service"

	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Read, decode and filter every register once, without publishing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		defer logger.Sync()

		bank, err := registers.LoadOrDefault(cfg.Registers.File)
		if err != nil {
			return err
		}
		reader, err := createReader(cfg, logger, nil)
		if err != nil {
			return err
		}
		if err := reader.Open(); err != nil {
			return err
		}
		defer reader.Close()

		filter := service.DefaultSanityFilter(cfg.Sanity.DischargeClampWatts)
		reader.Settle()

		failures := 0
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tADDRESS\tRAW\tVALUE\tUNIT")
		for _, reg := range bank.Table {
			raw, err := reader.ReadInputRegisters(reg.Address, domain.REGISTER_READ_QUANTITY)
			if err == nil && len(raw) < domain.REGISTER_READ_QUANTITY {
				err = service.ErrShortResponse
			}
			if err != nil {
				failures++
				fmt.Fprintf(w, "%s\t%d\t-\terror: %s\t\n", reg.Name, reg.Address, err)
				continue
			}
			value := filter.Filter(reg.Address, service.DecodeRegister([2]uint16{raw[0], raw[1]}, reg))
			fmt.Fprintf(w, "%s\t%d\t%04x %04x\t%g\t%s\n", reg.Name, reg.Address, raw[0], raw[1], value, reg.Unit)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if failures > 0 {
			return fmt.Errorf("%d of %d registers failed", failures, len(bank.Table))
		}
		return nil
	},
}
