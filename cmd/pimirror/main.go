// cmd/pimirror/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tamzrod/revpi/internal/config"
	"github.com/tamzrod/revpi/internal/poller"
	"github.com/tamzrod/revpi/internal/status"
	"github.com/tamzrod/revpi/internal/writer"
	"github.com/tamzrod/revpi/pkg/gen"
	"github.com/tamzrod/revpi/pkg/picontrol"
	"github.com/tamzrod/revpi/pkg/rsc"
)

var rootCmd = &cobra.Command{
	Use:   "pimirror <config.yaml>",
	Short: "mirror process image fields into Modbus memory.",
	Long: `Poll named piControl fields on a fixed interval and write them as
coils and holding registers to one or more Modbus TCP endpoints, with an
optional device status block per unit.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func run(cmd *cobra.Command, args []string) error {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		log.SetLevel(log.DebugLevel)
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(args[0])
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// --------------------
	// Process image + name resolution
	// --------------------

	device := cfg.Mirror.Device
	if device == "" {
		device = picontrol.DefaultDevice
	}

	ch, err := picontrol.Open(device)
	if err != nil {
		return err
	}
	defer ch.Close()

	lookup, err := newLookup(cfg.Mirror.RSC, ch)
	if err != nil {
		return err
	}

	widthOf := func(name string) (uint8, error) {
		d, err := lookup.Resolve(name)
		if err != nil {
			return 0, err
		}
		return uint8(d.Width), nil
	}
	if err := config.ValidateLayout(cfg, widthOf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	config.Normalize(cfg)

	// all units share one channel
	client := poller.Serialized(picontrol.NewAccessor(ch))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Build per-unit pipelines
	// --------------------

	statusEndpoint := cfg.Mirror.StatusMemory.Endpoint

	for _, unit := range cfg.Mirror.Units {
		p, err := poller.Build(unit, lookup, client)
		if err != nil {
			return err
		}

		plan, err := writer.BuildPlan(unit, statusEndpoint)
		if err != nil {
			return fmt.Errorf("writer plan failed (unit=%s): %w", unit.ID, err)
		}

		clients, closeWriters, err := writer.BuildEndpointClients(unit, statusEndpoint)
		if err != nil {
			return fmt.Errorf("writer clients failed (unit=%s): %w", unit.ID, err)
		}
		defer closeWriters()

		out := make(chan poller.PollResult)

		go orchestrate(ctx, unit.ID, out, writer.New(plan, clients), writer.NewDeviceStatusWriter(plan, clients))
		go p.Run(ctx, out)

		log.WithFields(log.Fields{
			"unit":     unit.ID,
			"fields":   len(unit.Fields),
			"targets":  len(unit.Targets),
			"interval": time.Duration(unit.Poll.IntervalMs) * time.Millisecond,
		}).Info("unit started")
	}

	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

// newLookup resolves names from a PiCtory file when one is configured and
// from the driver otherwise.
func newLookup(path string, ch *picontrol.Channel) (picontrol.Lookup, error) {
	if path == "" {
		return picontrol.NewResolver(ch), nil
	}

	r, err := rsc.Load(path)
	if err != nil {
		return nil, err
	}
	fields, err := gen.Plan(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.WithField("fields", len(fields)).Debugf("loaded %s", path)
	return gen.NewTable(nil, fields), nil
}

// orchestrate owns the unit's status state: it delivers poll results,
// feeds the tracker and advances seconds_in_error at 1 Hz.
func orchestrate(ctx context.Context, unitID string, in <-chan poller.PollResult, data writer.Writer, sw writer.StatusWriter) {
	logger := log.WithField("unit", unitID)
	tracker := status.NewTracker()

	writeStatus := func() {
		if sw == nil {
			return
		}
		if err := sw.WriteStatus(tracker.Snapshot()); err != nil {
			logger.WithError(err).Warn("status write failed")
		}
	}

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	// identity re-assert on start
	writeStatus()

	for {
		select {
		case <-ctx.Done():
			return

		case res := <-in:
			if res.Err != nil {
				logger.WithError(res.Err).Debug("poll failed")
			}
			if err := data.Write(res); err != nil {
				logger.WithError(err).Warn("write failed")
			}
			if tracker.Observe(res.Err) {
				writeStatus()
			}

		case <-secTicker.C:
			if tracker.Tick() {
				writeStatus()
			}
		}
	}
}

func main() {
	rootCmd.Flags().BoolP("verbose", "v", false, "debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
