package config

// Package config provides a reusable loader for the engine's configuration
// files and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.1.0

import (
	"fmt"

	"github.com/spf13/viper"

	"deployengine/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config represents the unified configuration for an engine node. It
// mirrors the structure of the YAML files under cmd/config.
type Config struct {
	Chain struct {
		ProtocolName string `mapstructure:"protocol_name" json:"protocol_name"`
		GenesisFile  string `mapstructure:"genesis_file" json:"genesis_file"`
	} `mapstructure:"chain" json:"chain"`

	Deploy struct {
		MaxPayment      uint64 `mapstructure:"max_payment" json:"max_payment"`
		ConvRate        uint64 `mapstructure:"conv_rate" json:"conv_rate"`
		UsePaymentCode  bool   `mapstructure:"use_payment_code" json:"use_payment_code"`
		GasCostSchedule string `mapstructure:"gas_cost_schedule" json:"gas_cost_schedule"`
	} `mapstructure:"deploy" json:"deploy"`

	Storage struct {
		WALPath string `mapstructure:"wal_path" json:"wal_path"`
		Prune   bool   `mapstructure:"prune" json:"prune"`
	} `mapstructure:"storage" json:"storage"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up matching process environment variables

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the ENGINE_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("ENGINE_ENV", ""))
}
