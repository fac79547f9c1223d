/*
Package env prepares an isolated environment for contract calls.

Every environment has its own node connection, calling account and a freshly
deployed contract instance. Environment owns the connection, it must be
released with Close on every path.
*/
package env

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/waiter"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/prosopo/obce/pkg/callresult"
	"github.com/prosopo/obce/pkg/config"
	"github.com/prosopo/obce/pkg/contract"
	"github.com/prosopo/obce/pkg/identity"
	"github.com/prosopo/obce/pkg/rpcclient/extension"
	"go.uber.org/zap"
)

// RPC is the node connection used by the environment.
type RPC interface {
	actor.RPCActor
	waiter.RPCPollingBased

	Close()
}

// Dialer opens a connection to the endpoint given and checks that the node
// is ready to serve requests.
type Dialer func(ctx context.Context, endpoint string, timeout time.Duration) (RPC, error)

// Options are optional Setup parameters.
type Options struct {
	// Dialer is Dial if not set.
	Dialer Dialer
	// Logger is a no-op one if not set.
	Logger *zap.Logger
	// Artifact is loaded (or compiled) according to configuration if not
	// set, it's useful to avoid doing it for every environment.
	Artifact *contract.Artifact
}

// Env is a ready to use environment with the contract deployed.
type Env struct {
	Client   RPC
	Account  *wallet.Account
	Actor    *actor.Actor
	Instance *contract.Instance
	Hash     util.Uint160

	// Query performs test invocations.
	Query *extension.ContractReader
	// Tx sends transactions.
	Tx *extension.Contract

	log       *zap.Logger
	closeOnce sync.Once
}

// Dial connects to the node using WebSocket client for ws:// and wss://
// endpoints and HTTP one otherwise. Connection context is ctx, timeout is
// used for dialing and requests.
func Dial(ctx context.Context, endpoint string, timeout time.Duration) (RPC, error) {
	ws, err := config.UsesWebSocket(endpoint)
	if err != nil {
		return nil, err
	}
	opts := rpcclient.Options{
		DialTimeout:    timeout,
		RequestTimeout: timeout,
	}
	var c interface {
		RPC
		Init() error
	}
	if ws {
		c, err = rpcclient.NewWS(ctx, endpoint, rpcclient.WSOptions{Options: opts})
	} else {
		c, err = rpcclient.New(ctx, endpoint, opts)
	}
	if err != nil {
		return nil, err
	}
	err = c.Init()
	if err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Setup connects to the node, deploys a fresh contract instance and returns
// the environment to work with. It returns *SetupError on failure, no
// connection is left open in this case.
func Setup(ctx context.Context, cfg config.HarnessConfiguration, opts Options) (*Env, error) {
	var (
		log    = opts.Logger
		dialer = opts.Dialer
	)
	if log == nil {
		log = zap.NewNop()
	}
	if dialer == nil {
		dialer = Dial
	}

	artifact := opts.Artifact
	if artifact == nil {
		var err error
		artifact, err = contract.Load(cfg.Contract)
		if err != nil {
			return nil, &SetupError{Stage: StageArtifact, Err: err}
		}
	}

	acc, err := identity.FromSeed(cfg.Identity.Seed, cfg.Identity.Committee)
	if err != nil {
		return nil, &SetupError{Stage: StageIdentity, Err: err}
	}

	c, err := connect(ctx, dialer, cfg.Endpoint, cfg.DialTimeout, log)
	if err != nil {
		return nil, &SetupError{Stage: StageConnect, Err: err}
	}
	e := &Env{
		Client:  c,
		Account: acc,
		log:     log,
	}
	err = e.deploy(cfg, artifact)
	if err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func connect(ctx context.Context, dialer Dialer, endpoint string, timeout time.Duration, log *zap.Logger) (RPC, error) {
	if timeout == 0 {
		timeout = config.DefaultDialTimeout
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = timeout

	readyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var c RPC
	op := func() error {
		var err error
		c, err = dialer(ctx, endpoint, timeout)
		return err
	}
	notify := func(err error, next time.Duration) {
		log.Debug("node is not ready", zap.String("endpoint", endpoint), zap.Duration("retry in", next), zap.Error(err))
	}
	err := backoff.RetryNotify(op, backoff.WithContext(b, readyCtx), notify)
	if err != nil {
		return nil, err
	}
	log.Debug("connected", zap.String("endpoint", endpoint))
	return c, nil
}

func (e *Env) deploy(cfg config.HarnessConfiguration, artifact *contract.Artifact) error {
	var err error
	e.Actor, err = actor.NewSimple(e.Client, e.Account)
	if err != nil {
		return &SetupError{Stage: StageActor, Err: err}
	}

	e.Instance = artifact.FreshInstance(cfg.Contract.NamePrefix)
	e.Hash = e.Instance.Hash(e.Actor.Sender())

	aer, err := e.Actor.Wait(management.New(e.Actor).Deploy(e.Instance.NEF, e.Instance.Manifest, nil))
	if err != nil {
		return &SetupError{Stage: StageDeploy, Err: err}
	}
	if aer.VMState != vmstate.Halt {
		return &SetupError{Stage: StageDeploy, Err: fmt.Errorf("deployment transaction %s failed: %s", aer.Container.StringLE(), aer.FaultException)}
	}
	e.log.Debug("contract deployed",
		zap.String("name", e.Instance.Manifest.Name),
		zap.Stringer("hash", e.Hash),
		zap.Stringer("tx", aer.Container))

	checker := callresult.CheckHalt
	if cfg.Transactions.OnChainFaults {
		checker = callresult.AllowFault
	}
	e.Query = extension.NewReader(e.Actor, e.Hash)
	e.Tx = extension.NewTuned(e.Actor, e.Hash, checker)
	return nil
}

// Close releases the connection, it can safely be called multiple times.
func (e *Env) Close() {
	e.closeOnce.Do(func() {
		e.Client.Close()
		e.log.Debug("connection closed")
	})
}

// Transact awaits the transaction sent (the arguments are the ones returned
// by Env.Tx methods) and converts its execution result into callresult.Result.
// Transactions rejected at test invocation because of FAULT are reported as
// Trap as well.
func (e *Env) Transact(h util.Uint256, vub uint32, err error) (*callresult.Result, error) {
	var te *callresult.TrapError
	if errors.As(err, &te) {
		return &callresult.Result{Kind: callresult.Trap, Exception: te.Exception}, nil
	}
	aer, err := e.Actor.Wait(h, vub, err)
	if err != nil {
		return nil, err
	}
	return callresult.FromExecution(aer)
}
