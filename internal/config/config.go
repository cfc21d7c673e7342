// Package config loads the engine's runtime configuration: book bounds,
// ring capacities, timer cadence, risk bounds, and log level.
//
// Grounded on abdoElHodaky-tradSys's internal/config/config.go: a
// mapstructure-tagged struct, viper for file+env layering, sane defaults
// set before the file is read so a missing config file still produces a
// runnable engine.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the engine's full runtime configuration.
type Config struct {
	Book struct {
		MinPrice  int64 `mapstructure:"min_price"`
		MaxPrice  int64 `mapstructure:"max_price"`
		MaxOrders int   `mapstructure:"max_orders"`
	} `mapstructure:"book"`

	Ring struct {
		MDCapacity  int `mapstructure:"md_capacity"`
		OutCapacity int `mapstructure:"out_capacity"`
	} `mapstructure:"ring"`

	Timer struct {
		IntervalNS uint64 `mapstructure:"interval_ns"`
	} `mapstructure:"timer"`

	Risk struct {
		MaxAbsPrice int64 `mapstructure:"max_abs_price"`
		MaxAbsQty   int64 `mapstructure:"max_abs_qty"`
	} `mapstructure:"risk"`

	Strategy struct {
		EveryN uint64 `mapstructure:"every_n"`
	} `mapstructure:"strategy"`

	Monitoring struct {
		LogLevel       string `mapstructure:"log_level"`
		PrometheusAddr string `mapstructure:"prometheus_addr"`
	} `mapstructure:"monitoring"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("book.min_price", -100_000)
	v.SetDefault("book.max_price", 100_000)
	v.SetDefault("book.max_orders", 1<<20)

	v.SetDefault("ring.md_capacity", 1<<16)
	v.SetDefault("ring.out_capacity", 1<<12)

	v.SetDefault("timer.interval_ns", uint64(1_000_000)) // 1ms

	v.SetDefault("risk.max_abs_price", 1_000_000)
	v.SetDefault("risk.max_abs_qty", 1_000_000)

	v.SetDefault("strategy.every_n", uint64(100))

	v.SetDefault("monitoring.log_level", "info")
	v.SetDefault("monitoring.prometheus_addr", ":9090")
}

// Load reads configuration from configPath (a directory to search for
// config.yaml) layered under defaults and LOBCORE_-prefixed environment
// overrides. A missing config file is not an error — defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("LOBCORE")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
