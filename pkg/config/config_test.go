package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testConfigPath = "./testdata/harness.test.yml"

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(testConfigPath)
	require.NoError(t, err)

	require.Equal(t, "http://localhost:20331", cfg.Harness.Endpoint)
	require.Equal(t, 5*time.Second, cfg.Harness.DialTimeout)
	require.Equal(t, "extension.nef", cfg.Harness.Contract.NEF)
	require.Equal(t, "extension.manifest.json", cfg.Harness.Contract.Manifest)
	require.Equal(t, int64(3), cfg.Harness.Weight.PerUnit)
	require.True(t, cfg.Harness.Transactions.OnChainFaults)
	require.Equal(t, "debug", cfg.Logger.LogLevel)
	require.Equal(t, ReportYAML, cfg.Report.Format)

	// Defaults are kept for omitted fields.
	require.Equal(t, DefaultSeed, cfg.Harness.Identity.Seed)
	require.Equal(t, DefaultNamePrefix, cfg.Harness.Contract.NamePrefix)
	require.Equal(t, DefaultMetricsJob, cfg.Metrics.Job)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nonexistent.yml"))
	require.ErrorContains(t, err, "doesn't exist")
}

func TestLoadUnknownField(t *testing.T) {
	_, err := Load([]byte(`
Harness:
  Endpoint: ws://localhost:30333/ws
  Unknown: true
`))
	require.Error(t, err)
}

func TestLoadEmpty(t *testing.T) {
	// Default configuration has no contract to deploy.
	_, err := Load(nil)
	require.ErrorContains(t, err, "no Contract specified")
}

func TestLoadSource(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.yml")
	require.NoError(t, os.WriteFile(p, []byte(`
Harness:
  Contract:
    Source: ./contract
    Config: ./contract/extension.yml
`), 0o644))
	cfg, err := LoadFile(p)
	require.NoError(t, err)
	require.Equal(t, DefaultEndpoint, cfg.Harness.Endpoint)
	require.Equal(t, DefaultDialTimeout, cfg.Harness.DialTimeout)
	require.Equal(t, int64(DefaultWeightPerUnit), cfg.Harness.Weight.PerUnit)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Default()
		c.Harness.Contract.Source = "./contract"
		c.Harness.Contract.Config = "./contract/extension.yml"
		return c
	}
	require.NoError(t, valid().Validate())

	testCases := map[string]func(c *Config){
		"empty endpoint":      func(c *Config) { c.Harness.Endpoint = "" },
		"bad scheme":          func(c *Config) { c.Harness.Endpoint = "tcp://localhost:1" },
		"negative timeout":    func(c *Config) { c.Harness.DialTimeout = -time.Second },
		"empty seed":          func(c *Config) { c.Harness.Identity.Seed = "" },
		"zero weight":         func(c *Config) { c.Harness.Weight.PerUnit = 0 },
		"both sources":        func(c *Config) { c.Harness.Contract.NEF = "a.nef" },
		"partial prebuilt":    func(c *Config) { *c = Default(); c.Harness.Contract.NEF = "a.nef" },
		"partial source":      func(c *Config) { c.Harness.Contract.Config = "" },
		"empty name prefix":   func(c *Config) { c.Harness.Contract.NamePrefix = "" },
		"bad log level":       func(c *Config) { c.Logger.LogLevel = "loud" },
		"bad log encoding":    func(c *Config) { c.Logger.LogEncoding = "xml" },
		"bad report format":   func(c *Config) { c.Report.Format = "csv" },
		"gateway without job": func(c *Config) { c.Metrics.PushGateway = "http://pg:9091"; c.Metrics.Job = "" },
	}
	for name, mutate := range testCases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			require.Error(t, c.Validate())
		})
	}
}

func TestUsesWebSocket(t *testing.T) {
	for endpoint, ws := range map[string]bool{
		"ws://localhost:30333/ws":  true,
		"wss://rpc.example.org/ws": true,
		"http://localhost:20331":   false,
		"https://rpc.example.org":  false,
	} {
		actual, err := UsesWebSocket(endpoint)
		require.NoError(t, err, endpoint)
		require.Equal(t, ws, actual, endpoint)
	}

	_, err := UsesWebSocket("tcp://localhost:1")
	require.ErrorContains(t, err, "unsupported endpoint scheme")
	_, err = UsesWebSocket("http://[::1")
	require.Error(t, err)
}
