// Lightmount Core - networked light fixture controller
//
// This is the main entry point. It loads configuration, opens the fixture
// store, connects the optional MQTT bus and InfluxDB, restores persisted
// fixtures and serves the REST/WebSocket API until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	_ "github.com/nerrad567/lightmount-core/migrations"

	"github.com/nerrad567/lightmount-core/internal/api"
	"github.com/nerrad567/lightmount-core/internal/bridge"
	"github.com/nerrad567/lightmount-core/internal/device"
	"github.com/nerrad567/lightmount-core/internal/fixture"
	"github.com/nerrad567/lightmount-core/internal/infrastructure/config"
	"github.com/nerrad567/lightmount-core/internal/infrastructure/database"
	"github.com/nerrad567/lightmount-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/lightmount-core/internal/infrastructure/logging"
	"github.com/nerrad567/lightmount-core/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// options are the parsed command line flags.
type options struct {
	configPath  string
	showVersion bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Printf("lightmount %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses args. The config path comes from --config, then
// LIGHTMOUNT_CONFIG, then the default.
func parseFlags(args []string, out io.Writer) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("lightmount", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVarP(&opts.configPath, "config", "c", "", "path to config.yaml (env LIGHTMOUNT_CONFIG)")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.configPath == "" {
		opts.configPath = os.Getenv("LIGHTMOUNT_CONFIG")
	}
	if opts.configPath == "" {
		opts.configPath = defaultConfigPath
	}
	return opts, nil
}

// run is the application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context, opts options) error { //nolint:gocognit,gocyclo // startup wiring: one step per component
	log := logging.Default()
	log.Info("starting Lightmount Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", opts.configPath,
		"site", cfg.Site.ID,
		"level", cfg.Logging.Level,
	)

	// Fixture template and profiles are validated before any I/O.
	template, err := device.TemplateFromConfig(cfg.Fixture)
	if err != nil {
		return fmt.Errorf("building fixture template: %w", err)
	}
	catalog := fixture.DefaultCatalog()
	if cfg.Fixture.ProfilesFile != "" {
		catalog, err = fixture.LoadCatalog(cfg.Fixture.ProfilesFile)
		if err != nil {
			return fmt.Errorf("loading profiles: %w", err)
		}
		log.Info("state profiles loaded", "path", cfg.Fixture.ProfilesFile)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	go hub.Run(ctx)
	observers := []fixture.Observer{hub}

	var (
		mqttClient *mqtt.Client
		mqttBridge *bridge.Bridge
	)
	if cfg.MQTT.Enabled {
		mqttClient, mqttBridge, err = connectMQTT(cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		observers = append(observers, mqttBridge)
	} else {
		log.Info("MQTT disabled")
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB, cfg.Site.ID)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		observers = append(observers, influxClient)
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	board := fixture.NewSwitchboard()
	for _, sw := range cfg.Fixture.Switches {
		board.Add(sw.ID, sw.On)
	}

	regOpts := device.Options{
		Template:       template,
		Catalog:        catalog,
		Switches:       board,
		Observers:      observers,
		RecorderBuffer: cfg.Fixture.RecorderBuffer,
	}
	if mqttBridge != nil {
		regOpts.Collaborators = mqttBridge.Collaborators()
	}
	registry := device.NewRegistry(device.NewSQLiteRepository(db.DB), regOpts)
	registry.SetLogger(log.Component("fixtures"))
	registry.Start()
	defer func() {
		log.Info("flushing fixture history")
		registry.Close()
	}()

	if err := registry.RefreshCache(ctx); err != nil {
		return fmt.Errorf("restoring fixtures: %w", err)
	}
	log.Info("fixture registry ready", "fixtures", registry.Count(), "switches", len(board.List()))

	if mqttBridge != nil {
		if err := mqttBridge.Start(ctx, registry); err != nil {
			return fmt.Errorf("starting MQTT bridge: %w", err)
		}
		defer mqttBridge.Stop()
	}

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log.Component("api"),
		Registry: registry,
		DB:       db,
		MQTT:     mqttClient,
		Hub:      hub,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	// Deferred calls run in reverse: API, bridge, registry, InfluxDB,
	// MQTT, database.
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// connectMQTT connects the broker client and builds the fixture bridge.
func connectMQTT(cfg *config.Config, log *logging.Logger) (*mqtt.Client, *bridge.Bridge, error) {
	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log.Component("mqtt"))
	client.SetOnConnect(func() {
		log.Info("MQTT connection established")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	b, err := bridge.New(bridge.Options{
		Client: client,
		Topics: client.Topics(),
		QoS:    byte(cfg.MQTT.QoS),
	})
	if err != nil {
		client.Close() //nolint:errcheck // already failing
		return nil, nil, fmt.Errorf("creating MQTT bridge: %w", err)
	}
	b.SetLogger(log.Component("bridge"))

	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"prefix", client.Topics().Prefix,
	)
	return client, b, nil
}

// healthCheck verifies all infrastructure connections are healthy.
// MQTT and InfluxDB are skipped when nil.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
