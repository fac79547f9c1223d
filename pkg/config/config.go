package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultDialTimeout is the time given to the node to become ready
	// for calls.
	DefaultDialTimeout = 30 * time.Second
	// DefaultNamePrefix is the manifest name prefix used for deployed
	// contract instances.
	DefaultNamePrefix = "extension-e2e"
	// DefaultWeightPerUnit is the GAS (in fractions) burnt by the target
	// contract per unit of complexity.
	DefaultWeightPerUnit = 1
	// DefaultContractSource and DefaultContractConfig point to the target
	// contract of this repository, relative to its root.
	DefaultContractSource = "internal/contracts/extension"
	DefaultContractConfig = "internal/contracts/extension/extension.yml"
	// DefaultMetricsJob is the job name used for pushed metrics.
	DefaultMetricsJob = "contract-harness"
	// DefaultEndpoint is the RPC endpoint of a local single-node privnet.
	DefaultEndpoint = "ws://localhost:30333/ws"
	// DefaultSeed is the well-known WIF of the single-node privnet
	// validator. It's a public fixture, not a secret.
	DefaultSeed = "KxyjQ8eUa4FHt3Gvioyt1Wz29cTUrE4eTqX3yFSk1YFCsPL8uNsY"
)

// Version is the version of the harness, set at build time.
var Version = "dev"

// Config is the top-level harness configuration.
type Config struct {
	Harness HarnessConfiguration `yaml:"Harness"`
	Logger  Logger               `yaml:"Logger"`
	Metrics Metrics              `yaml:"Metrics"`
	Report  Report               `yaml:"Report"`
}

// Default returns configuration with all defaults applied.
func Default() Config {
	return Config{
		Harness: HarnessConfiguration{
			Endpoint:    DefaultEndpoint,
			DialTimeout: DefaultDialTimeout,
			Identity: Identity{
				Seed:      DefaultSeed,
				Committee: true,
			},
			Contract: Contract{
				NamePrefix: DefaultNamePrefix,
			},
			Weight: Weight{
				PerUnit: DefaultWeightPerUnit,
			},
		},
		Logger: Logger{
			LogLevel:    "info",
			LogEncoding: "console",
		},
		Metrics: Metrics{
			Job: DefaultMetricsJob,
		},
		Report: Report{
			Format: ReportJSON,
		},
	}
}

// LoadFile loads config from the provided path. Fields missing from the
// file keep their default values, unknown fields are an error.
func LoadFile(configPath string) (Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config '%s' doesn't exist", configPath)
	}

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return Load(configData)
}

// Load parses the given YAML data on top of default configuration and
// validates the result.
func Load(data []byte) (Config, error) {
	config := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(&config)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("config is invalid: %w", err)
	}
	return config, nil
}

// Validate checks the whole configuration for consistency.
func (c Config) Validate() error {
	if err := c.Harness.Validate(); err != nil {
		return err
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("Logger: %w", err)
	}
	if err := c.Report.Validate(); err != nil {
		return fmt.Errorf("Report: %w", err)
	}
	if c.Metrics.PushGateway != "" && c.Metrics.Job == "" {
		return errors.New("Metrics: empty Job with PushGateway set")
	}
	return nil
}
