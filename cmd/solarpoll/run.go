package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/berfenger/solarpoll/internal/adapter/sink"
	"github.com/berfenger/solarpoll/internal/adapter/system"
	"github.com/berfenger/solarpoll/internal/config"
	coreactor "github.com/berfenger/solarpoll/internal/core/actor"
	"github.com/berfenger/solarpoll/internal/core/domain"
	"github.com/berfenger/solarpoll/internal/core/port"
	"github.com/berfenger/solarpoll/internal/core/registers"
	"github.com/berfenger/solarpoll/internal/core/service"
	"github.com/berfenger/solarpoll/internal/metrics"
	"github.com/berfenger/solarpoll/internal/server"
	"github.com/berfenger/solarpoll/internal/util/actorutil"
	"github.com/berfenger/solarpoll/pkg/growatt_modbus"

	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the inverter and publish telemetry (default)",
	RunE:  runDaemon,
}

func gracefulShutdown(apiServer *http.Server, notifier *system.SystemdNotifier, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")
	notifier.Stopping()

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func runDaemon(cmd *cobra.Command, args []string) error {

	// load and print config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		slog.Error("config errors", "error", err)
		return err
	}
	slog.Info("Using", "config", cfg.Redacted())

	logger := newLogger(cfg)
	defer logger.Sync()

	bank, err := registers.LoadOrDefault(cfg.Registers.File)
	if err != nil {
		return err
	}
	logger.Info("register table loaded",
		zap.String("model", bank.Model),
		zap.Int("registers", len(bank.Table)),
		zap.String("version", versioninfo.Short()))

	collector := metrics.NewCollector()

	reader, err := createReader(cfg, logger, []growatt_modbus.ModbusInstrument{collector.ModbusInstrument()})
	if err != nil {
		return err
	}
	if err := reader.Open(); err != nil {
		// not fatal, every read retries the link
		logger.Warn("modbus link not available yet", zap.Error(err))
	}

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root
	masterPID := as.NewLocalPID(domain.ACTOR_ID_MASTER)

	device := domain.Device{
		Id:           cfg.DeviceId,
		Name:         cfg.DeviceId,
		Version:      versioninfo.Short(),
		Model:        bank.Model,
		Manufacturer: bank.Manufacturer,
	}
	sinks, closeSinks := createSinks(cfg, device, bank.Table, func(mode domain.InverterMode) {
		ctx.Send(masterPID, domain.SetInverterModeRequest{Mode: mode})
	}, logger)
	if len(sinks) == 0 {
		logger.Warn("no telemetry sink enabled")
	}

	notifier := system.NewSystemdNotifier(logger)
	restarter := system.NewProcessRestarter(logger, notifier)
	network := system.NewInterfaceMonitor(cfg.Network, logger)
	filter := service.DefaultSanityFilter(cfg.Sanity.DischargeClampWatts)

	acquisitionProvider := func() *service.Acquisition {
		return service.NewAcquisition(service.AcquisitionConfig{
			PollInterval:   cfg.Poll.Interval(),
			ReconnectDelay: cfg.Network.ReconnectDelay(),
			FailureCeiling: cfg.Watchdog.FailureCeiling,
			Samples:        cfg.Poll.Samples,
		}, service.AcquisitionDeps{
			Table:     bank.Table,
			Reader:    reader,
			Filter:    filter,
			Sinks:     sinks,
			Network:   network,
			Services:  []port.Serviceable{notifier},
			Restarter: restarter,
			Observer:  collector,
			Logger:    logger,
		})
	}

	props := coreactor.NewMasterProps(func() *coreactor.AcquisitionActor {
		return coreactor.NewAcquisitionActor(cfg.Poll.Tick(), acquisitionProvider, logger)
	}, cfg.HealthStaleAfter(len(bank.Table)), logger)
	pid, err := ctx.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		return fmt.Errorf("spawn master actor: %w", err)
	}

	srv := server.NewServer(*cfg, ctx, pid, collector.Registry())
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, notifier, done)

	if notifier.Ready() {
		logger.Info("service manager notified", zap.Bool("watchdog", notifier.WatchdogEnabled()))
	}

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	// Wait for the graceful shutdown to complete
	<-done

	if err := ctx.PoisonFuture(pid).Wait(); err != nil {
		logger.Warn("master actor did not stop in time", zap.Error(err))
	}
	as.Shutdown()

	closeSinks()
	if err := reader.Close(); err != nil {
		logger.Warn("modbus close", zap.Error(err))
	}
	log.Println("Graceful shutdown complete.")
	return nil
}

func createSinks(cfg *config.Config, device domain.Device, table domain.RegisterTable,
	onMode func(domain.InverterMode), logger *zap.Logger) ([]port.TelemetrySink, func()) {

	var sinks []port.TelemetrySink
	var closers []func()

	if cfg.UDP.Enable {
		udp := sink.NewUDPLineProtocolSink(cfg.DeviceId, cfg.UDP, logger)
		sinks = append(sinks, udp)
		closers = append(closers, func() { _ = udp.Close() })
	}
	if cfg.Influx.Enable {
		influx := sink.NewHTTPLineProtocolSink(cfg.DeviceId, cfg.Influx)
		sinks = append(sinks, influx)
		closers = append(closers, influx.Close)
	}
	if cfg.MQTT.Enable {
		mqtt := sink.NewMQTTSink(cfg, device, table, onMode, logger)
		sinks = append(sinks, mqtt)
		closers = append(closers, mqtt.Close)
	}

	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}
