package main

import (
	"fmt"
	"time"

	"github.com/berfenger/solarpoll/internal/config"
	"github.com/berfenger/solarpoll/pkg/growatt_modbus"

	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "solarpoll",
	Short: "Growatt inverter telemetry bridge",
	Long: `solarpoll polls a Growatt inverter over Modbus RTU/TCP and forwards every
register value as InfluxDB line protocol (UDP or HTTP) and to MQTT.

Configuration is read from SOLARPOLL_* environment variables and, optionally,
a yaml file given with --config or CONFIG_FILE.`,
	Version:       versioninfo.Short(),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runDaemon,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "yaml config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(registersCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(portsCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

func newLogger(cfg *config.Config) *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	return zap.Must(zapCfg.Build())
}

func createReader(cfg *config.Config, logger *zap.Logger, instrument []growatt_modbus.ModbusInstrument) (*growatt_modbus.InverterModbusReader, error) {
	reader, err := growatt_modbus.CreateInverterModbusReader(growatt_modbus.ReaderConfig{
		URL:         cfg.Modbus.URL,
		Speed:       cfg.Modbus.Speed,
		DataBits:    cfg.Modbus.DataBits,
		Parity:      cfg.Modbus.Parity,
		StopBits:    cfg.Modbus.StopBits,
		UnitId:      uint8(cfg.Modbus.UnitId),
		Timeout:     time.Duration(cfg.Modbus.TimeoutMillis) * time.Millisecond,
		SettleDelay: time.Duration(cfg.Modbus.SettleMillis) * time.Millisecond,
	}, logger, instrument)
	if err != nil {
		return nil, fmt.Errorf("modbus reader: %w", err)
	}
	return reader, nil
}
