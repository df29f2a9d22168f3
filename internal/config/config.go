package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/taxreform/simulator/internal/types"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Rules      RulesConfig
	Simulation SimulationConfig `validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

// RulesConfig points at an optional rule document loaded at start-up
type RulesConfig struct {
	Path string `mapstructure:"path"`
}

type SimulationConfig struct {
	StartYear        int `mapstructure:"start_year" validate:"required,gte=2000"`
	EndYear          int `mapstructure:"end_year" validate:"required,gtefield=StartYear"`
	BatchConcurrency int `mapstructure:"batch_concurrency" validate:"gte=1"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("TAXSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	def := GetDefaultConfig()
	v.SetDefault("deployment.mode", def.Deployment.Mode)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("rules.path", def.Rules.Path)
	v.SetDefault("simulation.start_year", def.Simulation.StartYear)
	v.SetDefault("simulation.end_year", def.Simulation.EndYear)
	v.SetDefault("simulation.batch_concurrency", def.Simulation.BatchConcurrency)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local runs and tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelInfo},
		Simulation: SimulationConfig{
			StartYear:        2026,
			EndYear:          2033,
			BatchConcurrency: 4,
		},
	}
}

// Years returns the configured simulation range, inclusive
func (c SimulationConfig) Years() []int {
	if c.EndYear < c.StartYear {
		return nil
	}
	years := make([]int, 0, c.EndYear-c.StartYear+1)
	for y := c.StartYear; y <= c.EndYear; y++ {
		years = append(years, y)
	}
	return years
}
