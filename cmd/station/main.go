// Command station boots one embedded OCPP charge-point core: it loads the
// bootstrap configuration, dials the CSMS, constructs every component
// (C1-C10) through internal/core.New, and drives the cooperative Tick loop
// until interrupted.
//
// Adapted from the teacher's cmd/server/main.go wiring style (flag parsing,
// config load, logger init, graceful shutdown on SIGINT/SIGTERM), narrowed
// from "boot a multi-station control plane backed by MongoDB" to "boot one
// embedded station backed by a flat filesystem".
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruslanhut/ocpp-core/internal/clock"
	"github.com/ruslanhut/ocpp-core/internal/config"
	"github.com/ruslanhut/ocpp-core/internal/core"
	"github.com/ruslanhut/ocpp-core/internal/fsadapter"
	"github.com/ruslanhut/ocpp-core/internal/transaction"
	"github.com/ruslanhut/ocpp-core/internal/transport"
)

const (
	appName    = "ocpp-core"
	appVersion = "0.1.0"
)

func main() {
	configPath := flag.String("conf", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("error loading config: %v", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	logger.Info("starting station",
		slog.String("version", appVersion),
		slog.String("app", appName),
		slog.String("station_id", cfg.Station.ID))

	fs, err := fsadapter.NewLocal(cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}

	bootNr, err := nextBootNr(fs, cfg.Storage.BootCounterFile)
	if err != nil {
		logger.Error("failed to advance boot counter", "error", err)
		os.Exit(1)
	}
	logger.Info("boot counter advanced", "boot_nr", bootNr)

	ws := transport.New(transport.Config{
		URL:                  cfg.CSMS.URL,
		StationID:            cfg.Station.ID,
		ProtocolVersion:      cfg.Station.Protocol,
		ConnectionTimeout:    cfg.CSMS.ConnectionTimeout,
		ReadTimeout:          cfg.CSMS.ReadTimeout,
		WriteTimeout:         cfg.CSMS.WriteTimeout,
		PingInterval:         cfg.CSMS.PingInterval,
		MaxReconnectAttempts: cfg.CSMS.MaxReconnectAttempts,
		ReconnectBackoff:     cfg.CSMS.ReconnectBackoff,
		ReconnectMaxBackoff:  cfg.CSMS.ReconnectMaxBackoff,
		BasicAuthUsername:    cfg.CSMS.BasicAuthUsername,
		BasicAuthPassword:    cfg.CSMS.BasicAuthPassword,
		BearerToken:          cfg.CSMS.BearerToken,
		TLSEnabled:           cfg.CSMS.TLS.Enabled,
		TLSCACert:            cfg.CSMS.TLS.CACert,
		TLSClientCert:        cfg.CSMS.TLS.ClientCert,
		TLSClientKey:         cfg.CSMS.TLS.ClientKey,
		TLSSkipVerify:        cfg.CSMS.TLS.InsecureSkipVerify,
	}, logger)
	if err := ws.Connect(); err != nil {
		logger.Warn("initial CSMS dial failed, will keep retrying", "error", err)
	}

	version := core.VersionV16
	if cfg.Station.Protocol == "2.0.1" {
		version = core.VersionV201
	}

	c, err := core.New(core.Config{
		StationID:            cfg.Station.ID,
		Version:              version,
		ConnectorIDs:         cfg.Station.ConnectorIDs,
		BootNr:               bootNr,
		FS:                   fs,
		Clock:                clock.System{},
		Logger:               logger,
		VariablesFilename:    "cfg-station.jsn",
		AuthListFilename:     "localauth.jsn",
		AuthCacheFilename:    "authcache.jsn",
		AuthCacheCapacity:    8,
		TransactionRingSize:  4,
		ReservationSlots:     8,
		MeteringPeriodic:     60 * time.Second,
		MeteringClockAligned: 0,
		Input:                noSensors,
	}, ws)
	if err != nil {
		logger.Error("failed to construct core", "error", err)
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	logger.Info("station running")
	for {
		select {
		case <-ticker.C:
			c.Tick()
		case <-stop:
			logger.Info("shutting down")
			_ = ws.Close()
			return
		}
	}
}

// noSensors is the default InputFunc wired when no hardware binding is
// supplied: every physical sensor reads undefined, matching spec.md's
// "three optional boolean sensors" with all three left unset until an
// embedding application replaces it with real plug/EV-ready/EVSE-ready
// readings.
func noSensors(int, time.Time) transaction.Input {
	return transaction.Input{}
}

// nextBootNr loads the persisted boot counter, increments it and persists
// the new value, per the GLOSSARY's "Boot number: a counter incremented on
// every start-up" definition. A missing or unreadable counter file starts
// from zero, matching every other component's "corrupt/missing state falls
// back to defaults" recovery rule (spec.md §7.2).
func nextBootNr(fs fsadapter.Adapter, filename string) (uint16, error) {
	var stored struct {
		BootNr uint16 `json:"bootNr"`
	}
	_, _ = fsadapter.LoadJSON(fs, filename, &stored)
	stored.BootNr++
	if err := fsadapter.StoreJSON(fs, filename, stored); err != nil {
		return 0, fmt.Errorf("store boot counter: %w", err)
	}
	return stored.BootNr, nil
}

// initLogger builds the station's structured logger, mirroring the
// teacher's cmd/server/main.go initLogger (slog, level from config) but
// always writing to stdout: the core has no per-station log file rotation
// concern the way the teacher's multi-station server does.
func initLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
