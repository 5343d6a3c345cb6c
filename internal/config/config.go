// Package config loads the recognized configuration knobs (database_name,
// router_timeout, channel_name, lock_name) plus the process-model knobs
// (data_dir, nats_url, instance_id): defaults registered first, then
// COORDB_-prefixed environment variables, then an optional config file,
// then explicit flag overrides.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every recognized knob for one context.
type Config struct {
	DataDir       string        `mapstructure:"data_dir"`
	DatabaseName  string        `mapstructure:"database_name"`
	RouterTimeout time.Duration `mapstructure:"router_timeout"`
	ChannelName   string        `mapstructure:"channel_name"`
	LockName      string        `mapstructure:"lock_name"`
	NATSURL       string        `mapstructure:"nats_url"`
	InstanceID    string        `mapstructure:"instance_id"`
}

// Defaults are the recognized knobs' baseline values.
func Defaults() Config {
	return Config{
		DataDir:       ".",
		DatabaseName:  "worker.db",
		RouterTimeout: 5 * time.Second,
		ChannelName:   "sqlite-coordination",
		LockName:      "sqlite-database",
		NATSURL:       "nats://127.0.0.1:4222",
	}
}

// Load builds a Config from defaults, environment, an optional config file,
// and CLI flags already bound to fs, in that increasing order of precedence.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COORDB")
	v.AutomaticEnv()

	def := Defaults()
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("database_name", def.DatabaseName)
	v.SetDefault("router_timeout", def.RouterTimeout)
	v.SetDefault("channel_name", def.ChannelName)
	v.SetDefault("lock_name", def.LockName)
	v.SetDefault("nats_url", def.NATSURL)
	v.SetDefault("instance_id", "")

	v.SetConfigName("coordb")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	// Flags use dashed names (--data-dir) while mapstructure keys are
	// underscored (data_dir), so each is bound individually rather than via
	// the default BindPFlags, which would key on the flag's own name.
	if fs != nil {
		flagsByKey := map[string]string{
			"data_dir":       "data-dir",
			"database_name":  "database-name",
			"router_timeout": "router-timeout",
			"channel_name":   "channel-name",
			"lock_name":      "lock-name",
			"nats_url":       "nats-url",
			"instance_id":    "instance-id",
		}
		for key, flagName := range flagsByKey {
			if flag := fs.Lookup(flagName); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("config: bind flag %s: %w", flagName, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
