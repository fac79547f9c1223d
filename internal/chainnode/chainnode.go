/*
Package chainnode serves harness RPC calls from an in-memory single-node
chain. Test invocations are executed by the real VM against the current
chain state and every transaction sent is persisted in a new block
immediately, so there is no network transport and no consensus involved.
*/
package chainnode

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/neotest/chain"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/callflag"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/trigger"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

const (
	// MaxGasInvoke is the GAS limit of test invocations.
	MaxGasInvoke = 50_0000_0000
	// NetworkFee is reported for any transaction, it exceeds the
	// verification cost of a standard or 1-of-1 multisignature witness.
	NetworkFee = 1_0000_0000
	// MillisecondsPerBlock is reported to clients, it only affects polling.
	MillisecondsPerBlock = 20
)

// Chain is a single validator chain, the validator is the committee as well
// and it holds all of the GAS. Its WIF is config.DefaultSeed.
type Chain struct {
	t        testing.TB
	executor *neotest.Executor

	// Blocks are added one by one.
	lock sync.Mutex
}

// Conn is a connection to Chain, it implements env.RPC.
type Conn struct {
	chain  *Chain
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Int32
}

// New creates a running chain, it's stopped when the test finishes.
func New(t testing.TB) *Chain {
	bc, acc := chain.NewSingle(t)
	return &Chain{
		t:        t,
		executor: neotest.NewExecutor(t, bc, acc, acc),
	}
}

// Blockchain returns the underlying chain.
func (c *Chain) Blockchain() *core.Blockchain {
	return c.executor.Chain
}

// Connect returns a new connection to the chain.
func (c *Chain) Connect() *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	return &Conn{
		chain:  c,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context implements the waiter.RPCPollingBased interface.
func (c *Conn) Context() context.Context {
	return c.ctx
}

// Close implements the env.RPC interface, the number of calls is tracked.
func (c *Conn) Close() {
	if c.closed.Add(1) == 1 {
		c.cancel()
	}
}

// Closed returns the number of Close calls made.
func (c *Conn) Closed() int {
	return int(c.closed.Load())
}

// GetVersion implements the actor.RPCActor interface.
func (c *Conn) GetVersion() (*result.Version, error) {
	cfg := c.chain.executor.Chain.GetConfig()
	return &result.Version{
		UserAgent: "/chainnode/",
		Protocol: result.Protocol{
			Network:                     cfg.Magic,
			MillisecondsPerBlock:        MillisecondsPerBlock,
			MaxTraceableBlocks:          cfg.MaxTraceableBlocks,
			MaxValidUntilBlockIncrement: cfg.MaxValidUntilBlockIncrement,
			MaxTransactionsPerBlock:     cfg.MaxTransactionsPerBlock,
			MemoryPoolMaxTransactions:   cfg.MemPoolSize,
			ValidatorsCount:             byte(cfg.ValidatorsCount),
		},
	}, nil
}

// GetBlockCount implements the actor.RPCActor interface.
func (c *Conn) GetBlockCount() (uint32, error) {
	return c.chain.executor.Chain.BlockHeight() + 1, nil
}

// CalculateNetworkFee implements the actor.RPCActor interface.
func (c *Conn) CalculateNetworkFee(tx *transaction.Transaction) (int64, error) {
	return NetworkFee, nil
}

// InvokeContractVerify implements the invoker.RPCInvoke interface.
func (c *Conn) InvokeContractVerify(contract util.Uint160, params []smartcontract.Parameter, signers []transaction.Signer, witnesses ...transaction.Witness) (*result.Invoke, error) {
	return nil, errors.New("not supported")
}

// InvokeFunction implements the invoker.RPCInvoke interface.
func (c *Conn) InvokeFunction(contract util.Uint160, operation string, params []smartcontract.Parameter, signers []transaction.Signer) (*result.Invoke, error) {
	args := make([]any, len(params))
	for i := range params {
		args[i] = &params[i]
	}
	script, err := smartcontract.CreateCallScript(contract, operation, args...)
	if err != nil {
		return nil, fmt.Errorf("can't create invocation script: %w", err)
	}
	return c.InvokeScript(script, signers)
}

// InvokeScript implements the invoker.RPCInvoke interface.
func (c *Conn) InvokeScript(script []byte, signers []transaction.Signer) (*result.Invoke, error) {
	tx := &transaction.Transaction{
		Script:  script,
		Signers: signers,
	}
	if len(tx.Signers) == 0 {
		tx.Signers = []transaction.Signer{{Account: util.Uint160{}, Scopes: transaction.None}}
	}
	ic, err := c.chain.executor.Chain.GetTestVM(trigger.Application, tx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create test VM: %w", err)
	}
	defer ic.Finalize()

	ic.VM.GasLimit = MaxGasInvoke
	ic.VM.LoadScriptWithFlags(script, callflag.All)
	var faultException string
	if err := ic.VM.Run(); err != nil {
		faultException = err.Error()
	}
	return &result.Invoke{
		State:          ic.VM.State().String(),
		GasConsumed:    ic.VM.GasConsumed(),
		Script:         script,
		Stack:          ic.VM.Estack().ToArray(),
		FaultException: faultException,
		Notifications:  ic.Notifications,
	}, nil
}

// SendRawTransaction implements the actor.RPCActor interface. The
// transaction is verified and persisted in a new block.
func (c *Conn) SendRawTransaction(tx *transaction.Transaction) (util.Uint256, error) {
	c.chain.lock.Lock()
	defer c.chain.lock.Unlock()

	if err := c.chain.executor.Chain.VerifyTx(tx); err != nil {
		return util.Uint256{}, fmt.Errorf("transaction is rejected: %w", err)
	}
	c.chain.executor.AddNewBlock(c.chain.t, tx)
	return tx.Hash(), nil
}

// GetApplicationLog implements the waiter.RPCPollingBased interface.
func (c *Conn) GetApplicationLog(hash util.Uint256, trig *trigger.Type) (*result.ApplicationLog, error) {
	t := trigger.All
	if trig != nil {
		t = *trig
	}
	aers, err := c.chain.executor.Chain.GetAppExecResults(hash, t)
	if err != nil {
		return nil, err
	}
	if len(aers) == 0 {
		return nil, errors.New("no execution results")
	}
	l := result.NewApplicationLog(hash, aers, t)
	return &l, nil
}

// TerminateSession implements the invoker.RPCSessions interface.
func (c *Conn) TerminateSession(sessionID uuid.UUID) (bool, error) {
	return false, errors.New("not supported")
}

// TraverseIterator implements the invoker.RPCSessions interface.
func (c *Conn) TraverseIterator(sessionID, iteratorID uuid.UUID, maxItemsCount int) ([]stackitem.Item, error) {
	return nil, errors.New("not supported")
}
