// Package extension contains RPC wrappers for the extension test contract.
//
// Every method of the contract returns a [callresult.Result]-encodable
// [tag, payload] pair or FAULTs, so safe methods return decoded results
// instead of plain values. State-changing methods are filtered through
// a transaction checker given to NewTuned, by default FAULTing invocations
// are rejected with *callresult.TrapError before sending.
package extension

import (
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/prosopo/obce/pkg/callresult"
)

// Contract method names.
const (
	SuccessfulMethodName          = "successfulMethod"
	ErroneousMethodName           = "erroneousMethod"
	CriticallyErroneousMethodName = "criticallyErroneousMethod"
	MultiArgMethodName            = "multiArgMethod"
	WeightLinearMethodName        = "weightLinearMethod"
)

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	MakeTunedCall(contract util.Uint160, method string, attrs []transaction.Attribute, txHook actor.TransactionCheckerModifier, params ...any) (*transaction.Transaction, error)
	MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error)
	SendTunedCall(contract util.Uint160, method string, attrs []transaction.Attribute, txHook actor.TransactionCheckerModifier, params ...any) (util.Uint256, uint32, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	invoker Invoker
	hash    util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader

	actor   Actor
	hash    util.Uint160
	checker actor.TransactionCheckerModifier
}

// NewReader creates an instance of ContractReader using the given contract
// hash and Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using the given contract hash and
// Actor. Transactions FAULTing at test invocation are not sent.
func New(act Actor, hash util.Uint160) *Contract {
	return NewTuned(act, hash, callresult.CheckHalt)
}

// NewTuned is similar to New, but allows to specify the checker applied to
// test invocation results of all transactions created.
func NewTuned(act Actor, hash util.Uint160, checker actor.TransactionCheckerModifier) *Contract {
	if checker == nil {
		checker = callresult.CheckHalt
	}
	return &Contract{ContractReader{act, hash}, act, hash, checker}
}

// Hash returns contract hash.
func (c *ContractReader) Hash() util.Uint160 {
	return c.hash
}

// SuccessfulMethod invokes `successfulMethod` method of contract.
func (c *ContractReader) SuccessfulMethod() (*callresult.Result, error) {
	return callresult.FromInvoke(c.invoker.Call(c.hash, SuccessfulMethodName))
}

// ErroneousMethod invokes `erroneousMethod` method of contract.
func (c *ContractReader) ErroneousMethod() (*callresult.Result, error) {
	return callresult.FromInvoke(c.invoker.Call(c.hash, ErroneousMethodName))
}

// CriticallyErroneousMethod invokes `criticallyErroneousMethod` method of
// contract.
func (c *ContractReader) CriticallyErroneousMethod() (*callresult.Result, error) {
	return callresult.FromInvoke(c.invoker.Call(c.hash, CriticallyErroneousMethodName))
}

// MultiArgMethod invokes `multiArgMethod` method of contract.
func (c *ContractReader) MultiArgMethod(one int64, two int64) (*callresult.Result, error) {
	return callresult.FromInvoke(c.invoker.Call(c.hash, MultiArgMethodName, one, two))
}

// WeightLinearMethod invokes `weightLinearMethod` method of contract.
func (c *ContractReader) WeightLinearMethod(complexity int64) (*callresult.Result, error) {
	return callresult.FromInvoke(c.invoker.Call(c.hash, WeightLinearMethodName, complexity))
}

// SuccessfulMethodTx creates a transaction invoking `successfulMethod` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) SuccessfulMethodTx() (util.Uint256, uint32, error) {
	return c.actor.SendTunedCall(c.hash, SuccessfulMethodName, nil, c.checker)
}

// SuccessfulMethodTransaction creates a transaction invoking `successfulMethod` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) SuccessfulMethodTransaction() (*transaction.Transaction, error) {
	return c.actor.MakeTunedCall(c.hash, SuccessfulMethodName, nil, c.checker)
}

// SuccessfulMethodUnsigned creates a transaction invoking `successfulMethod` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) SuccessfulMethodUnsigned() (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, SuccessfulMethodName, nil)
}

// ErroneousMethodTx creates a transaction invoking `erroneousMethod` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) ErroneousMethodTx() (util.Uint256, uint32, error) {
	return c.actor.SendTunedCall(c.hash, ErroneousMethodName, nil, c.checker)
}

// ErroneousMethodTransaction creates a transaction invoking `erroneousMethod` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) ErroneousMethodTransaction() (*transaction.Transaction, error) {
	return c.actor.MakeTunedCall(c.hash, ErroneousMethodName, nil, c.checker)
}

// ErroneousMethodUnsigned creates a transaction invoking `erroneousMethod` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) ErroneousMethodUnsigned() (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, ErroneousMethodName, nil)
}

// CriticallyErroneousMethodTx creates a transaction invoking `criticallyErroneousMethod` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) CriticallyErroneousMethodTx() (util.Uint256, uint32, error) {
	return c.actor.SendTunedCall(c.hash, CriticallyErroneousMethodName, nil, c.checker)
}

// CriticallyErroneousMethodTransaction creates a transaction invoking `criticallyErroneousMethod` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) CriticallyErroneousMethodTransaction() (*transaction.Transaction, error) {
	return c.actor.MakeTunedCall(c.hash, CriticallyErroneousMethodName, nil, c.checker)
}

// CriticallyErroneousMethodUnsigned creates a transaction invoking `criticallyErroneousMethod` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) CriticallyErroneousMethodUnsigned() (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, CriticallyErroneousMethodName, nil)
}

// MultiArgMethodTx creates a transaction invoking `multiArgMethod` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) MultiArgMethodTx(one int64, two int64) (util.Uint256, uint32, error) {
	return c.actor.SendTunedCall(c.hash, MultiArgMethodName, nil, c.checker, one, two)
}

// MultiArgMethodTransaction creates a transaction invoking `multiArgMethod` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) MultiArgMethodTransaction(one int64, two int64) (*transaction.Transaction, error) {
	return c.actor.MakeTunedCall(c.hash, MultiArgMethodName, nil, c.checker, one, two)
}

// MultiArgMethodUnsigned creates a transaction invoking `multiArgMethod` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) MultiArgMethodUnsigned(one int64, two int64) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, MultiArgMethodName, nil, one, two)
}

// WeightLinearMethodTx creates a transaction invoking `weightLinearMethod` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) WeightLinearMethodTx(complexity int64) (util.Uint256, uint32, error) {
	return c.actor.SendTunedCall(c.hash, WeightLinearMethodName, nil, c.checker, complexity)
}

// WeightLinearMethodTransaction creates a transaction invoking `weightLinearMethod` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) WeightLinearMethodTransaction(complexity int64) (*transaction.Transaction, error) {
	return c.actor.MakeTunedCall(c.hash, WeightLinearMethodName, nil, c.checker, complexity)
}

// WeightLinearMethodUnsigned creates a transaction invoking `weightLinearMethod` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) WeightLinearMethodUnsigned(complexity int64) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, WeightLinearMethodName, nil, complexity)
}
