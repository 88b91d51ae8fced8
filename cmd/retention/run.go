package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/retention/config"
	"github.com/sarchlab/retention/datarecording"
	"github.com/sarchlab/retention/mem/dram/protocol"
	"github.com/sarchlab/retention/monitoring"
	"github.com/sarchlab/retention/retention"
	"github.com/sarchlab/retention/retention/report"
	"github.com/sarchlab/retention/sim/timing"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a retention sweep.",
	Long: "`run` builds a rig from the environment, a .env file and the " +
		"flags, runs one sweep and writes the records to stdout.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		openMonitor, _ := cmd.Flags().GetBool("open-monitor")

		err = runSweep(cmd.Context(), cfg, os.Stdout, openMonitor)
		if err != nil {
			return err
		}

		atexit.Exit(0)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}

func addRunFlags(c *cobra.Command) {
	c.Flags().String("env", "", "Load settings from this file instead of .env")
	c.Flags().String("plan", "", "YAML plan file")
	c.Flags().String("timing", "", "Timing preset")
	c.Flags().String("layout", "", "Record layout, compact or verbose")
	c.Flags().Bool("refresh", false, "Refresh the device while it decays")
	c.Flags().String("db", "", "Record results into this SQLite file")
	c.Flags().String("postgres-url", "", "Record results into Postgres")
	c.Flags().String("clickhouse-dsn", "", "Record results into ClickHouse")
	c.Flags().Int("monitor-port", 0, "Serve the monitor on this port")
	c.Flags().Bool("open-monitor", false, "Open the monitor in a browser")
	c.Flags().Bool("trace", false, "Log every event and command")
}

// loadConfig reads the settings and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env")

	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()

	strs := []struct {
		flag string
		dst  *string
	}{
		{"plan", &cfg.PlanFile},
		{"timing", &cfg.TimingPreset},
		{"layout", &cfg.Layout},
		{"db", &cfg.DBPath},
		{"postgres-url", &cfg.PostgresURL},
		{"clickhouse-dsn", &cfg.ClickHouseDSN},
	}
	for _, s := range strs {
		if flags.Changed(s.flag) {
			*s.dst, _ = flags.GetString(s.flag)
		}
	}

	if flags.Changed("refresh") {
		cfg.RefreshDuringDecay, _ = flags.GetBool("refresh")
	}

	if flags.Changed("trace") {
		cfg.Trace, _ = flags.GetBool("trace")
	}

	if flags.Changed("monitor-port") {
		cfg.MonitorPort, _ = flags.GetInt("monitor-port")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

// makeBuilder turns the settings into a rig builder whose records go to out.
func makeBuilder(cfg config.Config, out io.Writer) (retention.Builder, error) {
	tb, err := protocol.LookupPreset(protocol.Preset(cfg.TimingPreset))
	if err != nil {
		return retention.Builder{}, err
	}

	layout, err := report.ParseLayout(cfg.Layout)
	if err != nil {
		return retention.Builder{}, err
	}

	b := retention.MakeBuilder().
		WithControllerFreq(timing.FreqInHz(cfg.ControllerHz)).
		WithSerialClock(timing.FreqInHz(cfg.SerialHz)).
		WithBaud(cfg.Baud).
		WithTiming(tb.Build()).
		WithLayout(layout).
		WithOutput(out).
		WithDeviceRetention(
			timing.VTimeInSec(cfg.ShortestRetention),
			timing.VTimeInSec(cfg.LongestRetention)).
		WithDeviceSeed(cfg.DeviceSeed).
		WithProgressLog(log.New(os.Stderr, "", log.LstdFlags))

	if cfg.RefreshDuringDecay {
		b = b.WithRefreshDuringDecay()
	}

	if cfg.UnresponsiveReads {
		b = b.WithUnresponsiveReads()
	}

	if cfg.Trace {
		b = b.
			WithEventLog(log.New(os.Stderr, "event ", 0)).
			WithCommandLog(log.New(os.Stderr, "cmd ", 0))
	}

	if cfg.PlanFile != "" {
		b, err = withPlanFile(b, cfg)
		if err != nil {
			return retention.Builder{}, err
		}
	}

	return b, nil
}

func withPlanFile(b retention.Builder, cfg config.Config) (retention.Builder, error) {
	pf, err := config.LoadPlanFile(cfg.PlanFile)
	if err != nil {
		return retention.Builder{}, err
	}

	plan, err := pf.Plan(cfg.ControllerHz)
	if err != nil {
		return retention.Builder{}, err
	}

	pattern, err := pf.PatternSource()
	if err != nil {
		return retention.Builder{}, err
	}

	return b.WithPlan(plan).WithPattern(pattern), nil
}

// openRecorder returns nil when the settings name no database.
func openRecorder(
	ctx context.Context,
	cfg config.Config,
) (datarecording.DataRecorder, error) {
	switch {
	case cfg.DBPath != "":
		rec, err := datarecording.Create(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}

		return rec, nil
	case cfg.PostgresURL != "":
		db, err := datarecording.OpenPostgres(ctx, datarecording.PostgresConfig{
			URL:          cfg.PostgresURL,
			PingTimeout:  cfg.DBPingTimeout,
			MaxOpenConns: 4,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}

		return datarecording.NewPostgres(db), nil
	case cfg.ClickHouseDSN != "":
		db, err := datarecording.OpenClickHouse(ctx,
			datarecording.ClickHouseConfig{
				DSN:         cfg.ClickHouseDSN,
				PingTimeout: cfg.DBPingTimeout,
			})
		if err != nil {
			return nil, fmt.Errorf("clickhouse: %w", err)
		}

		return datarecording.NewClickHouse(db), nil
	default:
		return nil, nil
	}
}

func runSweep(
	ctx context.Context,
	cfg config.Config,
	out io.Writer,
	openMonitor bool,
) error {
	b, err := makeBuilder(cfg, out)
	if err != nil {
		return err
	}

	rec, err := openRecorder(ctx, cfg)
	if err != nil {
		return err
	}

	runID := xid.New().String()

	var runRecorder *datarecording.RunRecorder

	if rec != nil {
		b = b.WithAdditionalHooks(datarecording.NewResultRecorder(
			rec, runID, timing.FreqInHz(cfg.ControllerHz)))

		runRecorder = datarecording.NewRunRecorder(rec, runID)
		runRecorder.Start()
		recordSettings(runRecorder, cfg)
	}

	var monitor *monitoring.Monitor

	if cfg.MonitorPort != 0 || openMonitor {
		monitor = monitoring.NewMonitor().WithPortNumber(cfg.MonitorPort)
		b = b.WithAdditionalHooks(monitoring.NewSweepTracker(monitor, "rig"))
	}

	rig, err := b.Build("rig")
	if err != nil {
		return err
	}

	if monitor != nil {
		startMonitor(monitor, rig, openMonitor)
	}

	rig.Start()

	runErr := rig.Run()

	fmt.Fprintf(os.Stderr, "Simulated %.6f s, %d records, %d events\n",
		rig.Now(), rig.Serializer().RecordsLoaded(),
		rig.Engine().EventsHandled())

	if rec != nil {
		runRecorder.Set("Simulated Seconds",
			strconv.FormatFloat(float64(rig.Now()), 'g', -1, 64))
		runRecorder.End()

		if err := rec.Close(); err != nil && runErr == nil {
			runErr = err
		}
	}

	return runErr
}

func recordSettings(r *datarecording.RunRecorder, cfg config.Config) {
	r.Set("Controller Hz", strconv.FormatUint(cfg.ControllerHz, 10))
	r.Set("Serial Hz", strconv.FormatUint(cfg.SerialHz, 10))
	r.Set("Baud", strconv.FormatUint(cfg.Baud, 10))
	r.Set("Timing", cfg.TimingPreset)
	r.Set("Refresh During Decay", strconv.FormatBool(cfg.RefreshDuringDecay))
	r.Set("Layout", cfg.Layout)
	r.Set("Plan", cfg.PlanFile)
	r.Set("Device Seed", strconv.FormatUint(cfg.DeviceSeed, 10))
}

func startMonitor(m *monitoring.Monitor, rig *retention.Rig, open bool) {
	m.RegisterEngine(rig.Engine())
	m.RegisterFrequencyRegistry(rig.Registry())

	for _, c := range rig.Components() {
		m.RegisterComponent(c)
	}

	m.StartServer()

	if open {
		if err := m.OpenInBrowser(); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open the monitor: %v\n", err)
		}
	}
}
