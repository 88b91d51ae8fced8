// Package config collects the settings of a retention run from a .env file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"github.com/sarchlab/retention/mem/dram/protocol"
	"github.com/sarchlab/retention/retention/report"
)

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the settings of one run. Every field has an environment
// variable, listed next to it.
type Config struct {
	ControllerHz uint64 // RETENTION_CONTROLLER_HZ
	SerialHz     uint64 // RETENTION_SERIAL_HZ
	Baud         uint64 // RETENTION_BAUD

	TimingPreset       string // RETENTION_TIMING
	RefreshDuringDecay bool   // RETENTION_REFRESH
	Layout             string // RETENTION_LAYOUT
	PlanFile           string // RETENTION_PLAN

	DeviceSeed        uint64  // RETENTION_DEVICE_SEED
	ShortestRetention float64 // RETENTION_SHORTEST_S
	LongestRetention  float64 // RETENTION_LONGEST_S
	UnresponsiveReads bool    // RETENTION_UNRESPONSIVE_READS

	DBPath        string        // RETENTION_DB
	PostgresURL   string        // RETENTION_POSTGRES_URL
	DBPingTimeout time.Duration // RETENTION_DB_PING_TIMEOUT
	ClickHouseDSN string        // RETENTION_CLICKHOUSE_DSN

	MonitorPort int  // RETENTION_MONITOR_PORT
	Trace       bool // RETENTION_TRACE
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		ControllerHz:      800_000_000,
		SerialHz:          1_843_200,
		Baud:              115200,
		TimingPreset:      string(protocol.PresetDDR3_1600),
		Layout:            "compact",
		DeviceSeed:        1,
		ShortestRetention: 0.064,
		LongestRetention:  64,
		DBPingTimeout:     2 * time.Second,
	}
}

// Load reads envFile, or .env if envFile is empty and .env exists, into the
// environment and builds a validated Config from it. Variables already set
// in the environment win over the file.
func Load(envFile string) (Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return Config{}, err
	}

	cfg, err := FromEnv()
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadEnvFile(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}

		return nil
	}

	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

// FromEnv builds a Config from the environment on top of the defaults.
func FromEnv() (Config, error) {
	def := Default()
	cfg := Config{
		TimingPreset: envString("RETENTION_TIMING", def.TimingPreset),
		Layout:       envString("RETENTION_LAYOUT", def.Layout),
		PlanFile:     envString("RETENTION_PLAN", def.PlanFile),
		DBPath:       envString("RETENTION_DB", def.DBPath),
		PostgresURL:  envString("RETENTION_POSTGRES_URL", def.PostgresURL),
		ClickHouseDSN: envString("RETENTION_CLICKHOUSE_DSN",
			def.ClickHouseDSN),
	}

	var err error

	uints := []struct {
		key string
		dst *uint64
		def uint64
	}{
		{"RETENTION_CONTROLLER_HZ", &cfg.ControllerHz, def.ControllerHz},
		{"RETENTION_SERIAL_HZ", &cfg.SerialHz, def.SerialHz},
		{"RETENTION_BAUD", &cfg.Baud, def.Baud},
		{"RETENTION_DEVICE_SEED", &cfg.DeviceSeed, def.DeviceSeed},
	}
	for _, u := range uints {
		if *u.dst, err = envUint(u.key, u.def); err != nil {
			return Config{}, err
		}
	}

	bools := []struct {
		key string
		dst *bool
		def bool
	}{
		{"RETENTION_REFRESH", &cfg.RefreshDuringDecay, def.RefreshDuringDecay},
		{"RETENTION_UNRESPONSIVE_READS", &cfg.UnresponsiveReads, def.UnresponsiveReads},
		{"RETENTION_TRACE", &cfg.Trace, def.Trace},
	}
	for _, b := range bools {
		if *b.dst, err = envBool(b.key, b.def); err != nil {
			return Config{}, err
		}
	}

	if cfg.ShortestRetention, err = envFloat("RETENTION_SHORTEST_S",
		def.ShortestRetention); err != nil {
		return Config{}, err
	}

	if cfg.LongestRetention, err = envFloat("RETENTION_LONGEST_S",
		def.LongestRetention); err != nil {
		return Config{}, err
	}

	if cfg.DBPingTimeout, err = envDuration(
		"RETENTION_DB_PING_TIMEOUT", def.DBPingTimeout); err != nil {
		return Config{}, err
	}

	if cfg.MonitorPort, err = envInt("RETENTION_MONITOR_PORT",
		def.MonitorPort); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that the settings can build a rig.
func (c Config) Validate() error {
	if c.ControllerHz == 0 || c.SerialHz == 0 {
		return fmt.Errorf("%w: clocks must be positive", ErrInvalid)
	}

	if c.Baud == 0 || c.Baud > c.SerialHz {
		return fmt.Errorf("%w: baud %d with a %d Hz serial clock",
			ErrInvalid, c.Baud, c.SerialHz)
	}

	if _, err := protocol.LookupPreset(protocol.Preset(c.TimingPreset)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if _, err := report.ParseLayout(c.Layout); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if c.ShortestRetention <= 0 || c.LongestRetention < c.ShortestRetention {
		return fmt.Errorf("%w: retention range [%g, %g] s",
			ErrInvalid, c.ShortestRetention, c.LongestRetention)
	}

	if c.databases() > 1 {
		return fmt.Errorf("%w: choose one of a SQLite file, a Postgres URL "+
			"and a ClickHouse DSN", ErrInvalid)
	}

	if c.DBPingTimeout <= 0 {
		return fmt.Errorf("%w: database ping timeout must be positive",
			ErrInvalid)
	}

	if c.MonitorPort < 0 || c.MonitorPort > 65535 {
		return fmt.Errorf("%w: monitor port %d", ErrInvalid, c.MonitorPort)
	}

	return nil
}

func (c Config) databases() int {
	n := 0

	for _, s := range []string{c.DBPath, c.PostgresURL, c.ClickHouseDSN} {
		if s != "" {
			n++
		}
	}

	return n
}
