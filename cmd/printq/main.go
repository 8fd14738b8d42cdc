package main

import (
	"fmt"
	"os"

	"github.com/cuemby/printq/pkg/admin"
	"github.com/cuemby/printq/pkg/config"
	"github.com/cuemby/printq/pkg/events"
	"github.com/cuemby/printq/pkg/ipp"
	"github.com/cuemby/printq/pkg/log"
	"github.com/cuemby/printq/pkg/metrics"
	"github.com/cuemby/printq/pkg/process"
	"github.com/cuemby/printq/pkg/reconciler"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// cfg is loaded once per invocation by the root command
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "printq",
	Short: "printq - declarative CUPS queue management",
	Long: `printq converges the printers and classes of a CUPS server towards
the state declared in a YAML manifest.

It drives the stock CUPS tools (ipptool, lpadmin, lpoptions, cupsenable and
friends), so it runs wherever those tools can reach the server.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"printq version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default "+config.DefaultPath+")")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.Bool("log-json", false, "Log in JSON")
	flags.String("server", "", "CUPS server host[:port]")
}

// setup loads the configuration, applies flag overrides and initializes
// logging
func setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		loaded.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-json") {
		loaded.JSONLogs, _ = cmd.Flags().GetBool("log-json")
	}
	if cmd.Flags().Changed("server") {
		loaded.Server, _ = cmd.Flags().GetString("server")
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	log.Init(log.Config{
		Level:      log.ParseLevel(loaded.LogLevel),
		JSONOutput: loaded.JSONLogs,
	})
	metrics.SetVersion(Version)
	cfg = loaded
	return nil
}

// engine holds the wired components shared by the subcommands
type engine struct {
	client     *ipp.Client
	admin      *admin.Admin
	reconciler *reconciler.Reconciler
	broker     *events.Broker
	pass       *reconciler.Pass
	sub        events.Subscriber
}

func newEngine() *engine {
	runner := process.NewExecRunner()
	client := ipp.NewClient(runner, cfg.IPPOptions())
	adm := admin.New(runner, cfg.AdminTools())
	r := reconciler.New(client, adm, cfg.ReconcilerOptions())

	broker := events.NewBroker()
	broker.Start()

	return &engine{
		client:     client,
		admin:      adm,
		reconciler: r,
		broker:     broker,
		pass:       reconciler.NewPass(r, broker),
	}
}

// logEvents logs every event the pass publishes until the broker stops
func (e *engine) logEvents() {
	e.sub = e.broker.Subscribe()
	logger := log.WithComponent("events")
	go func(sub events.Subscriber) {
		for ev := range sub {
			entry := logger.Info()
			if ev.Type == events.EventQueueFailed {
				entry = logger.Warn()
			}
			entry = entry.Str("event", string(ev.Type))
			for k, v := range ev.Metadata {
				entry = entry.Str(k, v)
			}
			entry.Msg(ev.Message)
		}
	}(e.sub)
}

// close delivers pending events and stops the broker
func (e *engine) close() {
	e.broker.Stop()
	if e.sub != nil {
		e.broker.Unsubscribe(e.sub)
	}
}
