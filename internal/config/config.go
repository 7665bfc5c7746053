package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/dockhand/internal/logger"
	"github.com/loykin/dockhand/internal/store"
)

// Config is the daemon's top-level configuration, loadable from a TOML
// file with DOCKHAND_* environment overrides.
type Config struct {
	Server    ServerConfig    `toml:"server" mapstructure:"server"`
	Store     store.Config    `toml:"store" mapstructure:"store"`
	Runner    RunnerConfig    `toml:"runner" mapstructure:"runner"`
	Tracker   TrackerConfig   `toml:"tracker" mapstructure:"tracker"`
	Scheduler SchedulerConfig `toml:"scheduler" mapstructure:"scheduler"`
	Container ContainerConfig `toml:"container" mapstructure:"container"`
	Log       logger.Config   `toml:"log" mapstructure:"log"`
}

type ServerConfig struct {
	Listen string `toml:"listen" mapstructure:"listen"`
}

type RunnerConfig struct {
	BatchSize int           `toml:"batch_size" mapstructure:"batch_size"`
	IdleSleep time.Duration `toml:"idle_sleep" mapstructure:"idle_sleep"`
}

type TrackerConfig struct {
	PollSleep time.Duration `toml:"poll_sleep" mapstructure:"poll_sleep"`
	IdleSleep time.Duration `toml:"idle_sleep" mapstructure:"idle_sleep"`
}

type SchedulerConfig struct {
	Tick       time.Duration `toml:"tick" mapstructure:"tick"`
	EmptySleep time.Duration `toml:"empty_sleep" mapstructure:"empty_sleep"`
}

type ContainerConfig struct {
	Bin         string        `toml:"bin" mapstructure:"bin"`
	StopTimeout time.Duration `toml:"stop_timeout" mapstructure:"stop_timeout"`
}

// Default returns the configuration the daemon runs with when no file is
// given.
func Default() Config {
	return Config{
		Server: ServerConfig{Listen: "0.0.0.0:13939"},
		Store:  store.Config{}.Normalized(),
		Runner: RunnerConfig{
			BatchSize: 5,
			IdleSleep: 10 * time.Second,
		},
		Tracker: TrackerConfig{
			PollSleep: 2 * time.Second,
			IdleSleep: 10 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Tick:       time.Second,
			EmptySleep: 5 * time.Second,
		},
		Container: ContainerConfig{
			Bin:         "docker",
			StopTimeout: 3 * time.Second,
		},
		Log: logger.Config{Level: "info"},
	}
}

// Load reads cfg from path (TOML). An empty path yields defaults with env
// overrides only.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("DOCKHAND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Store = cfg.Store.Normalized()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the invariants the loops depend on.
func (c Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	if c.Runner.BatchSize <= 0 {
		return fmt.Errorf("runner.batch_size must be > 0")
	}
	if c.Runner.IdleSleep <= 0 || c.Tracker.PollSleep <= 0 || c.Tracker.IdleSleep <= 0 {
		return fmt.Errorf("loop sleep intervals must be > 0")
	}
	if c.Scheduler.Tick <= 0 || c.Scheduler.EmptySleep <= 0 {
		return fmt.Errorf("scheduler intervals must be > 0")
	}
	if c.Container.StopTimeout <= 0 {
		return fmt.Errorf("container.stop_timeout must be > 0")
	}
	return nil
}
