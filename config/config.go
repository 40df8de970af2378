// Package config loads the settings of the framesync host from .env files
// and FRAMESYNC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sarchlab/framesync/event"
)

// ErrInvalidConfig is returned when a setting cannot be used.
var ErrInvalidConfig = errors.New("config: invalid")

// DefaultEnvFile is loaded when Load is called without files. It is fine for
// it to be missing.
const DefaultEnvFile = ".env"

// Names of the environment variables.
const (
	EnvTargetFPS     = "FRAMESYNC_TARGET_FPS"
	EnvTimeScale     = "FRAMESYNC_TIME_SCALE"
	EnvMaxFrames     = "FRAMESYNC_MAX_FRAMES"
	EnvMonitor       = "FRAMESYNC_MONITOR"
	EnvMonitorPort   = "FRAMESYNC_MONITOR_PORT"
	EnvMonitorAssets = "FRAMESYNC_MONITOR_ASSETS"
	EnvOpenBrowser   = "FRAMESYNC_OPEN_BROWSER"
	EnvRecord        = "FRAMESYNC_RECORD"
	EnvRecordPath    = "FRAMESYNC_RECORD_PATH"
	EnvFailurePolicy = "FRAMESYNC_FAILURE_POLICY"
)

// Config holds the settings of a framesync host.
type Config struct {
	TargetFPS     float64
	TimeScale     float64
	MaxFrames     uint64
	Monitor       bool
	MonitorPort   int
	MonitorAssets string
	OpenBrowser   bool
	Record        bool
	RecordPath    string
	FailurePolicy event.FailurePolicy
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		TargetFPS:     60,
		TimeScale:     1,
		FailurePolicy: event.FailurePolicyIsolate,
	}
}

// Load reads the given .env files, or DefaultEnvFile if none is given, into
// the environment and builds a Config from the environment. Variables that
// are already set are not overridden by the files.
func Load(envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}

	return FromEnv()
}

func loadEnvFiles(envFiles []string) error {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return fmt.Errorf("config: loading %s: %w",
				strings.Join(envFiles, ", "), err)
		}

		return nil
	}

	err := godotenv.Load(DefaultEnvFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: loading %s: %w", DefaultEnvFile, err)
	}

	return nil
}

// FromEnv builds a Config from the FRAMESYNC_* environment variables.
func FromEnv() (Config, error) {
	c := Default()
	p := envParser{}

	p.floatVar(EnvTargetFPS, &c.TargetFPS)
	p.floatVar(EnvTimeScale, &c.TimeScale)
	p.uintVar(EnvMaxFrames, &c.MaxFrames)
	p.boolVar(EnvMonitor, &c.Monitor)
	p.intVar(EnvMonitorPort, &c.MonitorPort)
	p.stringVar(EnvMonitorAssets, &c.MonitorAssets)
	p.boolVar(EnvOpenBrowser, &c.OpenBrowser)
	p.boolVar(EnvRecord, &c.Record)
	p.stringVar(EnvRecordPath, &c.RecordPath)
	p.policyVar(EnvFailurePolicy, &c.FailurePolicy)

	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Validate checks that the settings can be used to build a driver.
func (c Config) Validate() error {
	var errs []error

	if c.TargetFPS <= 0 {
		errs = append(errs,
			fmt.Errorf("%w: target FPS must be positive, got %v",
				ErrInvalidConfig, c.TargetFPS))
	}

	if c.TimeScale < 0 {
		errs = append(errs,
			fmt.Errorf("%w: time scale must not be negative, got %v",
				ErrInvalidConfig, c.TimeScale))
	}

	if c.MonitorPort < 0 || c.MonitorPort > 65535 {
		errs = append(errs,
			fmt.Errorf("%w: monitor port %d out of range",
				ErrInvalidConfig, c.MonitorPort))
	}

	if c.MonitorAssets != "" {
		if info, err := os.Stat(c.MonitorAssets); err != nil || !info.IsDir() {
			errs = append(errs,
				fmt.Errorf("%w: monitor assets %s is not a directory",
					ErrInvalidConfig, c.MonitorAssets))
		}
	}

	return errors.Join(errs...)
}

// ParseFailurePolicy converts "isolate" or "propagate" into a policy.
func ParseFailurePolicy(s string) (event.FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case event.FailurePolicyIsolate.String():
		return event.FailurePolicyIsolate, nil
	case event.FailurePolicyPropagate.String():
		return event.FailurePolicyPropagate, nil
	default:
		return 0, fmt.Errorf("%w: unknown failure policy %q",
			ErrInvalidConfig, s)
	}
}

// envParser reads variables and collects the parse errors.
type envParser struct {
	errs []error
}

func (p *envParser) lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}

	return strings.TrimSpace(v), true
}

func (p *envParser) fail(name string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err))
}

func (p *envParser) floatVar(name string, dst *float64) {
	v, ok := p.lookup(name)
	if !ok {
		return
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(name, err)
		return
	}

	*dst = f
}

func (p *envParser) uintVar(name string, dst *uint64) {
	v, ok := p.lookup(name)
	if !ok {
		return
	}

	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		p.fail(name, err)
		return
	}

	*dst = n
}

func (p *envParser) intVar(name string, dst *int) {
	v, ok := p.lookup(name)
	if !ok {
		return
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(name, err)
		return
	}

	*dst = n
}

func (p *envParser) boolVar(name string, dst *bool) {
	v, ok := p.lookup(name)
	if !ok {
		return
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(name, err)
		return
	}

	*dst = b
}

func (p *envParser) stringVar(name string, dst *string) {
	if v, ok := p.lookup(name); ok {
		*dst = v
	}
}

func (p *envParser) policyVar(name string, dst *event.FailurePolicy) {
	v, ok := p.lookup(name)
	if !ok {
		return
	}

	policy, err := ParseFailurePolicy(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", name, err))
		return
	}

	*dst = policy
}
