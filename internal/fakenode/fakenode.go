package fakenode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/config/netmode"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/trigger"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
)

// Default gas values reported by FakeNode.
const (
	BaseGas       = 1_0000
	DeployGas     = 10_0000_0000
	NetworkFee    = 10_0000
	WeightPerUnit = 1
)

// Method emulates a contract method, it returns invocation result for the
// given parameters.
type Method func(params []smartcontract.Parameter) *result.Invoke

// FakeNode implements the RPC interface required by the harness, it emulates
// the extension contract without any real VM. Every method is resolved by
// its name irrespective of the contract hash. Test invocation results are
// remembered by the script they return, so that transactions with the same
// script get the same execution result.
type FakeNode struct {
	ctx    context.Context
	cancel context.CancelFunc

	Version       *result.Version
	WeightPerUnit int64
	Methods       map[string]Method

	// Failure injection, errors are returned from corresponding calls if set.
	GetVersionErr   error
	InvokeErr       error
	SendErr         error
	DeployFault     bool
	ApplicationLogF func(h util.Uint256) (*result.ApplicationLog, error)

	closed      atomic.Int32
	deployments atomic.Int32
	blockCount  atomic.Uint32

	lock    sync.Mutex
	scripts map[string]*result.Invoke
	logs    map[util.Uint256]*result.ApplicationLog
	calls   []string
}

// New returns a new FakeNode emulating the extension contract.
func New() *FakeNode {
	ctx, cancel := context.WithCancel(context.Background())
	n := &FakeNode{
		ctx:    ctx,
		cancel: cancel,
		Version: &result.Version{
			UserAgent: "/fakenode/",
			Protocol: result.Protocol{
				Network:                     netmode.UnitTestNet,
				MillisecondsPerBlock:        1,
				ValidatorsCount:             1,
				MaxValidUntilBlockIncrement: 86400,
			},
		},
		WeightPerUnit: WeightPerUnit,
		scripts:       make(map[string]*result.Invoke),
		logs:          make(map[util.Uint256]*result.ApplicationLog),
	}
	n.blockCount.Store(1)
	n.Methods = map[string]Method{
		"successfulMethod": func([]smartcontract.Parameter) *result.Invoke {
			return Halt(BaseGas, tagged(0, stackitem.Null{}))
		},
		"erroneousMethod": func([]smartcontract.Parameter) *result.Invoke {
			return Halt(BaseGas, tagged(1, stackitem.Make(0)))
		},
		"criticallyErroneousMethod": func([]smartcontract.Parameter) *result.Invoke {
			return Fault(BaseGas, `unhandled exception: "critical error"`)
		},
		"multiArgMethod": func(params []smartcontract.Parameter) *result.Invoke {
			args, err := integers(params, 2)
			if err != nil {
				return Fault(BaseGas, err.Error())
			}
			return Halt(BaseGas, tagged(0, stackitem.NewBigInteger(new(big.Int).Add(args[0], args[1]))))
		},
		"weightLinearMethod": func(params []smartcontract.Parameter) *result.Invoke {
			args, err := integers(params, 1)
			if err != nil {
				return Fault(BaseGas, err.Error())
			}
			if args[0].Sign() < 0 {
				return Fault(BaseGas, `unhandled exception: "negative complexity"`)
			}
			return Halt(BaseGas+(args[0].Int64()+1)*n.WeightPerUnit, tagged(0, stackitem.Null{}))
		},
	}
	return n
}

// Halt returns successful invocation result.
func Halt(gas int64, items ...stackitem.Item) *result.Invoke {
	return &result.Invoke{
		State:       vmstate.Halt.String(),
		GasConsumed: gas,
		Stack:       items,
	}
}

// Fault returns failed invocation result.
func Fault(gas int64, exception string) *result.Invoke {
	return &result.Invoke{
		State:          vmstate.Fault.String(),
		GasConsumed:    gas,
		FaultException: exception,
	}
}

func tagged(tag int64, payload stackitem.Item) stackitem.Item {
	return stackitem.NewArray([]stackitem.Item{stackitem.Make(tag), payload})
}

func integers(params []smartcontract.Parameter, n int) ([]*big.Int, error) {
	if len(params) != n {
		return nil, fmt.Errorf("method expects %d parameters, got %d", n, len(params))
	}
	res := make([]*big.Int, n)
	for i := range params {
		v, ok := params[i].Value.(*big.Int)
		if params[i].Type != smartcontract.IntegerType || !ok {
			return nil, fmt.Errorf("parameter %d is not an integer", i)
		}
		res[i] = v
	}
	return res, nil
}

// Context implements the waiter.RPCPollingBased interface.
func (n *FakeNode) Context() context.Context {
	return n.ctx
}

// Close marks the node connection closed, the number of calls is tracked.
func (n *FakeNode) Close() {
	if n.closed.Add(1) == 1 {
		n.cancel()
	}
}

// Closed returns the number of Close calls made.
func (n *FakeNode) Closed() int {
	return int(n.closed.Load())
}

// Deployments returns the number of contract deployments accepted.
func (n *FakeNode) Deployments() int {
	return int(n.deployments.Load())
}

// Calls returns the list of contract methods invoked so far.
func (n *FakeNode) Calls() []string {
	n.lock.Lock()
	defer n.lock.Unlock()
	return append([]string(nil), n.calls...)
}

// GetVersion implements the actor.RPCActor interface.
func (n *FakeNode) GetVersion() (*result.Version, error) {
	if n.GetVersionErr != nil {
		return nil, n.GetVersionErr
	}
	return n.Version, nil
}

// GetBlockCount implements the actor.RPCActor interface.
func (n *FakeNode) GetBlockCount() (uint32, error) {
	return n.blockCount.Load(), nil
}

// CalculateNetworkFee implements the actor.RPCActor interface.
func (n *FakeNode) CalculateNetworkFee(tx *transaction.Transaction) (int64, error) {
	return NetworkFee, nil
}

// InvokeContractVerify implements the invoker.RPCInvoke interface.
func (n *FakeNode) InvokeContractVerify(contract util.Uint160, params []smartcontract.Parameter, signers []transaction.Signer, witnesses ...transaction.Witness) (*result.Invoke, error) {
	return nil, errors.New("not supported")
}

// InvokeFunction implements the invoker.RPCInvoke interface.
func (n *FakeNode) InvokeFunction(contract util.Uint160, operation string, params []smartcontract.Parameter, signers []transaction.Signer) (*result.Invoke, error) {
	if n.InvokeErr != nil {
		return nil, n.InvokeErr
	}
	m, ok := n.Methods[operation]
	if !ok {
		return Fault(BaseGas, fmt.Sprintf("method not found: %s/%d", operation, len(params))), nil
	}
	res := m(params)
	// Unique script per invocation is enough to match transactions.
	res.Script = []byte(fmt.Sprintf("%s:%s:%s", contract.StringLE(), operation, uuid.NewString()))

	n.lock.Lock()
	n.calls = append(n.calls, operation)
	n.scripts[string(res.Script)] = res
	n.lock.Unlock()
	return res, nil
}

// InvokeScript implements the invoker.RPCInvoke interface. Only contract
// deployment scripts are supported.
func (n *FakeNode) InvokeScript(script []byte, signers []transaction.Signer) (*result.Invoke, error) {
	if n.InvokeErr != nil {
		return nil, n.InvokeErr
	}
	if !bytes.Contains(script, management.Hash.BytesBE()) {
		return Fault(BaseGas, "unsupported script"), nil
	}
	res := Halt(DeployGas, stackitem.Null{})
	if n.DeployFault {
		res = Fault(DeployGas, "invalid manifest")
	}
	res.Script = script

	n.lock.Lock()
	n.scripts[string(script)] = res
	n.lock.Unlock()
	return res, nil
}

// SendRawTransaction implements the actor.RPCActor interface. The
// transaction is executed immediately and a new block is emulated.
func (n *FakeNode) SendRawTransaction(tx *transaction.Transaction) (util.Uint256, error) {
	if n.SendErr != nil {
		return util.Uint256{}, n.SendErr
	}
	n.lock.Lock()
	defer n.lock.Unlock()

	inv, ok := n.scripts[string(tx.Script)]
	if !ok {
		return util.Uint256{}, errors.New("unknown script")
	}
	h := tx.Hash()
	exec := state.Execution{
		Trigger:        trigger.Application,
		VMState:        vmstate.Halt,
		GasConsumed:    inv.GasConsumed,
		Stack:          inv.Stack,
		FaultException: inv.FaultException,
	}
	if inv.State != vmstate.Halt.String() {
		exec.VMState = vmstate.Fault
		exec.Stack = nil
	} else if bytes.Contains(tx.Script, management.Hash.BytesBE()) {
		n.deployments.Add(1)
	}
	n.logs[h] = &result.ApplicationLog{
		Container:     h,
		IsTransaction: true,
		Executions:    []state.Execution{exec},
	}
	n.blockCount.Add(1)
	return h, nil
}

// GetApplicationLog implements the waiter.RPCPollingBased interface.
func (n *FakeNode) GetApplicationLog(hash util.Uint256, trig *trigger.Type) (*result.ApplicationLog, error) {
	if n.ApplicationLogF != nil {
		return n.ApplicationLogF(hash)
	}
	n.lock.Lock()
	defer n.lock.Unlock()
	l, ok := n.logs[hash]
	if !ok {
		return nil, errors.New("unknown transaction")
	}
	return l, nil
}

// TerminateSession implements the invoker.RPCSessions interface.
func (n *FakeNode) TerminateSession(sessionID uuid.UUID) (bool, error) {
	return false, errors.New("not supported")
}

// TraverseIterator implements the invoker.RPCSessions interface.
func (n *FakeNode) TraverseIterator(sessionID, iteratorID uuid.UUID, maxItemsCount int) ([]stackitem.Item, error) {
	return nil, errors.New("not supported")
}
