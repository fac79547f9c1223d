package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// HarnessConfiguration describes the node to work with and the contract
// to deploy there.
type HarnessConfiguration struct {
	// Endpoint is the RPC endpoint of the node. ws:// and wss:// schemes
	// use WebSocket client, http:// and https:// use plain HTTP one.
	Endpoint string `yaml:"Endpoint"`
	// DialTimeout limits the time spent waiting for the node to become
	// ready for calls.
	DialTimeout  time.Duration `yaml:"DialTimeout"`
	Identity     Identity      `yaml:"Identity"`
	Contract     Contract      `yaml:"Contract"`
	Weight       Weight        `yaml:"Weight"`
	Transactions Transactions  `yaml:"Transactions"`
}

// Identity is the calling identity configuration.
type Identity struct {
	// Seed is either a WIF-encoded private key or a BIP-39 mnemonic.
	Seed string `yaml:"Seed"`
	// Committee makes the harness sign with 1-of-1 multisignature account
	// of the derived key, that's the account holding GAS on single-node
	// private networks.
	Committee bool `yaml:"Committee"`
}

// Contract specifies where to get the contract to deploy from. Either a
// prebuilt NEF/manifest pair or Go source (with its YAML config) must be
// given.
type Contract struct {
	NEF        string `yaml:"NEF"`
	Manifest   string `yaml:"Manifest"`
	Source     string `yaml:"Source"`
	Config     string `yaml:"Config"`
	NamePrefix string `yaml:"NamePrefix"`
}

// Weight holds metering fixtures of the target contract.
type Weight struct {
	// PerUnit is the cost charged per unit of weightLinearMethod argument.
	PerUnit int64 `yaml:"PerUnit"`
}

// Transactions tunes state-changing calls.
type Transactions struct {
	// OnChainFaults disables preflight FAULT rejection, so failing
	// transactions are sent and their FAULT is observed on chain.
	OnChainFaults bool `yaml:"OnChainFaults"`
}

// Validate checks HarnessConfiguration for consistency.
func (h HarnessConfiguration) Validate() error {
	if h.Endpoint == "" {
		return errors.New("Harness: empty Endpoint")
	}
	if _, err := UsesWebSocket(h.Endpoint); err != nil {
		return fmt.Errorf("Harness: bad Endpoint: %w", err)
	}
	if h.DialTimeout < 0 {
		return errors.New("Harness: negative DialTimeout")
	}
	if h.Identity.Seed == "" {
		return errors.New("Harness: empty Identity.Seed")
	}
	if h.Weight.PerUnit <= 0 {
		return errors.New("Harness: Weight.PerUnit must be positive")
	}
	return h.Contract.Validate()
}

// Validate checks that exactly one contract source is configured.
func (c Contract) Validate() error {
	var (
		prebuilt = c.NEF != "" || c.Manifest != ""
		source   = c.Source != "" || c.Config != ""
	)
	switch {
	case prebuilt && source:
		return errors.New("Harness: Contract.NEF/Manifest conflict with Contract.Source/Config")
	case prebuilt && (c.NEF == "" || c.Manifest == ""):
		return errors.New("Harness: both Contract.NEF and Contract.Manifest are required")
	case source && (c.Source == "" || c.Config == ""):
		return errors.New("Harness: both Contract.Source and Contract.Config are required")
	case !prebuilt && !source:
		return errors.New("Harness: no Contract specified")
	}
	if c.NamePrefix == "" {
		return errors.New("Harness: empty Contract.NamePrefix")
	}
	return nil
}

// UsesWebSocket tells whether the endpoint requires WebSocket client, ws://
// and wss:// do, http:// and https:// don't. Other schemes are an error.
func UsesWebSocket(endpoint string) (bool, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false, err
	}
	switch u.Scheme {
	case "ws", "wss":
		return true, nil
	case "http", "https":
		return false, nil
	default:
		return false, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
}
