/*
Package contract prepares the target contract for deployment.

Artifacts are either read from NEF and manifest files or compiled from Go
source in-process. Neo contract hash depends on the sender, NEF checksum and
manifest name only, so every deployment takes a new Instance with a unique
manifest name to get a distinct contract address.
*/
package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/compiler"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/prosopo/obce/pkg/config"
	"gopkg.in/yaml.v3"
)

// Artifact is a compiled contract ready to be deployed.
type Artifact struct {
	NEF      *nef.File
	Manifest *manifest.Manifest
}

// Instance is an Artifact with the manifest name set for one particular
// deployment.
type Instance struct {
	NEF      *nef.File
	Manifest *manifest.Manifest
}

// projectConfig is the subset of contract configuration file used to build
// the manifest.
type projectConfig struct {
	Name               string   `yaml:"name"`
	SourceURL          string   `yaml:"sourceurl"`
	SafeMethods        []string `yaml:"safemethods"`
	SupportedStandards []string `yaml:"supportedstandards"`
}

// Load returns an Artifact according to the configuration given, NEF and
// manifest files are read if specified, otherwise the source is compiled.
func Load(cfg config.Contract) (*Artifact, error) {
	if cfg.NEF != "" {
		return LoadFiles(cfg.NEF, cfg.Manifest)
	}
	return Compile(cfg.Source, cfg.Config)
}

// LoadFiles reads NEF and manifest files.
func LoadFiles(nefFile, manifestFile string) (*Artifact, error) {
	if len(nefFile) == 0 {
		return nil, errors.New("no nef file was provided")
	}
	if len(manifestFile) == 0 {
		return nil, errors.New("no manifest file was provided")
	}

	rawNEF, err := os.ReadFile(nefFile)
	if err != nil {
		return nil, fmt.Errorf("can't read NEF file: %w", err)
	}
	nf, err := nef.FileFromBytes(rawNEF)
	if err != nil {
		return nil, fmt.Errorf("can't parse NEF file: %w", err)
	}

	rawManifest, err := os.ReadFile(manifestFile)
	if err != nil {
		return nil, fmt.Errorf("can't read contract manifest: %w", err)
	}
	m := new(manifest.Manifest)
	err = json.Unmarshal(rawManifest, m)
	if err != nil {
		return nil, fmt.Errorf("can't unmarshal manifest: %w", err)
	}
	return &Artifact{NEF: &nf, Manifest: m}, nil
}

// Compile compiles Go contract at srcPath (file or package directory) using
// configuration file at configPath.
func Compile(srcPath, configPath string) (*Artifact, error) {
	rawConf, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("can't read contract config: %w", err)
	}
	var conf projectConfig
	err = yaml.Unmarshal(rawConf, &conf)
	if err != nil {
		return nil, fmt.Errorf("can't parse contract config: %w", err)
	}

	o := &compiler.Options{
		Name:                       conf.Name,
		SourceURL:                  conf.SourceURL,
		SafeMethods:                conf.SafeMethods,
		ContractSupportedStandards: conf.SupportedStandards,
		NoEventsCheck:              true,
		NoPermissionsCheck:         true,
	}
	nf, di, err := compiler.CompileWithOptions(srcPath, nil, o)
	if err != nil {
		return nil, fmt.Errorf("can't compile %s: %w", srcPath, err)
	}
	m, err := compiler.CreateManifest(di, o)
	if err != nil {
		return nil, fmt.Errorf("can't create manifest: %w", err)
	}
	return &Artifact{NEF: nf, Manifest: m}, nil
}

// Instance returns artifact copy with the given manifest name.
func (a *Artifact) Instance(name string) *Instance {
	m := *a.Manifest
	m.Name = name
	return &Instance{NEF: a.NEF, Manifest: &m}
}

// FreshInstance returns artifact copy named prefix-<random UUID>.
func (a *Artifact) FreshInstance(prefix string) *Instance {
	return a.Instance(prefix + "-" + uuid.NewString())
}

// Hash returns the address the instance gets when deployed by sender.
func (i *Instance) Hash(sender util.Uint160) util.Uint160 {
	return state.CreateContractHash(sender, i.NEF.Checksum, i.Manifest.Name)
}

// WriteFiles saves NEF and manifest to the files given.
func (a *Artifact) WriteFiles(nefFile, manifestFile string) error {
	rawNEF, err := a.NEF.Bytes()
	if err != nil {
		return fmt.Errorf("can't serialize NEF: %w", err)
	}
	if err := os.WriteFile(nefFile, rawNEF, 0644); err != nil {
		return fmt.Errorf("can't write NEF file: %w", err)
	}
	rawManifest, err := json.Marshal(a.Manifest)
	if err != nil {
		return fmt.Errorf("can't marshal manifest: %w", err)
	}
	if err := os.WriteFile(manifestFile, rawManifest, 0644); err != nil {
		return fmt.Errorf("can't write manifest file: %w", err)
	}
	return nil
}
