/*
Package callresult provides tagged results of target contract calls.

Every call ends in one of three ways: Ok (method returned a value), Err
(method returned a typed recoverable error) or Trap (execution FAULTed and
no value was returned at all). Target contract methods return an array of
two items, [tag, payload], where tag 0 means Ok with the payload as value
and tag 1 means Err with the payload as an ErrorCode. Results are decoded
from both test invocations and on-chain executions.
*/
package callresult

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
)

// Kind is the outcome class of a call.
type Kind byte

// Call outcomes.
const (
	Ok Kind = iota
	Err
	Trap
)

// Result tags used by the target contract.
const (
	TagOk  = 0
	TagErr = 1
)

// String implements fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case Ok:
		return "Ok"
	case Err:
		return "Err"
	case Trap:
		return "Trap"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// ErrorCode is the recoverable error enumeration of the target contract.
type ErrorCode int64

// NonCriticalError is the only error code the target contract defines.
const NonCriticalError ErrorCode = 0

// String implements fmt.Stringer interface.
func (c ErrorCode) String() string {
	switch c {
	case NonCriticalError:
		return "NonCriticalError"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int64(c))
	}
}

// Weight is the metered execution cost of a call.
type Weight struct {
	// RefTime is the GAS (in fractions) consumed by the execution.
	RefTime int64
}

// Result is the tagged outcome of a call.
type Result struct {
	Kind Kind
	// Value is set for Ok results only, it can be stackitem.Null.
	Value stackitem.Item
	// Error is set for Err results only.
	Error ErrorCode
	// Exception is the VM fault message, Trap only.
	Exception string
	Weight    Weight
	// Container is the transaction hash for results of transactions.
	Container util.Uint256
}

// ErrMalformed is returned when the result can't be decoded into any of the
// known variants.
var ErrMalformed = errors.New("malformed call result")

// DecodedError is the recoverable error returned by the contract.
type DecodedError struct {
	Code ErrorCode
}

// Error implements the error interface.
func (e *DecodedError) Error() string {
	return "contract returned error: " + e.Code.String()
}

// TrapError is returned when execution FAULTs.
type TrapError struct {
	Exception string
}

// Error implements the error interface.
func (e *TrapError) Error() string {
	return "execution trapped: " + e.Exception
}

// Err returns nil for Ok results, *DecodedError for Err results and
// *TrapError for Trap ones.
func (r *Result) Err() error {
	switch r.Kind {
	case Ok:
		return nil
	case Err:
		return &DecodedError{Code: r.Error}
	default:
		return &TrapError{Exception: r.Exception}
	}
}

// String implements fmt.Stringer interface.
func (r *Result) String() string {
	switch r.Kind {
	case Ok:
		return fmt.Sprintf("Ok(%s), weight %d", itemString(r.Value), r.Weight.RefTime)
	case Err:
		return fmt.Sprintf("Err(%s), weight %d", r.Error, r.Weight.RefTime)
	default:
		return fmt.Sprintf("Trap(%q), weight %d", r.Exception, r.Weight.RefTime)
	}
}

// FromInvoke decodes test invocation result. It's intended to be used as a
// wrapper for functions returning (*result.Invoke, error) pair, an error
// given is returned as is.
func FromInvoke(r *result.Invoke, err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	if r.State != vmstate.Halt.String() {
		return &Result{
			Kind:      Trap,
			Exception: r.FaultException,
			Weight:    Weight{RefTime: r.GasConsumed},
		}, nil
	}
	res, err := fromStack(r.Stack)
	if err != nil {
		return nil, err
	}
	res.Weight = Weight{RefTime: r.GasConsumed}
	return res, nil
}

// FromExecution decodes on-chain execution result of a transaction.
func FromExecution(aer *state.AppExecResult) (*Result, error) {
	if aer == nil {
		return nil, fmt.Errorf("%w: no execution result", ErrMalformed)
	}
	if aer.VMState != vmstate.Halt {
		return &Result{
			Kind:      Trap,
			Exception: aer.FaultException,
			Weight:    Weight{RefTime: aer.GasConsumed},
			Container: aer.Container,
		}, nil
	}
	res, err := fromStack(aer.Stack)
	if err != nil {
		return nil, err
	}
	res.Weight = Weight{RefTime: aer.GasConsumed}
	res.Container = aer.Container
	return res, nil
}

// FromItem decodes a single [tag, payload] item.
func FromItem(itm stackitem.Item) (*Result, error) {
	arr, ok := itm.Value().([]stackitem.Item)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an array", ErrMalformed, itm.Type())
	}
	if len(arr) != 2 {
		return nil, fmt.Errorf("%w: wrong number of elements %d", ErrMalformed, len(arr))
	}
	tag, err := arr[0].TryInteger()
	if err != nil {
		return nil, fmt.Errorf("%w: bad tag: %w", ErrMalformed, err)
	}
	if !tag.IsInt64() {
		return nil, fmt.Errorf("%w: unknown tag %s", ErrMalformed, tag)
	}
	switch tag.Int64() {
	case TagOk:
		return &Result{Kind: Ok, Value: arr[1]}, nil
	case TagErr:
		code, err := decodeErrorCode(arr[1])
		if err != nil {
			return nil, err
		}
		return &Result{Kind: Err, Error: code}, nil
	default:
		return nil, fmt.Errorf("%w: unknown tag %s", ErrMalformed, tag)
	}
}

func fromStack(stack []stackitem.Item) (*Result, error) {
	if len(stack) == 0 {
		return nil, fmt.Errorf("%w: result stack is empty", ErrMalformed)
	}
	if len(stack) > 1 {
		return nil, fmt.Errorf("%w: too many (%d) result items", ErrMalformed, len(stack))
	}
	return FromItem(stack[0])
}

func decodeErrorCode(itm stackitem.Item) (ErrorCode, error) {
	bi, err := itm.TryInteger()
	if err != nil {
		return 0, fmt.Errorf("%w: bad error code: %w", ErrMalformed, err)
	}
	if !bi.IsInt64() {
		return 0, fmt.Errorf("%w: unknown error code %s", ErrMalformed, bi)
	}
	code := ErrorCode(bi.Int64())
	switch code {
	case NonCriticalError:
		return code, nil
	default:
		return 0, fmt.Errorf("%w: unknown error code %d", ErrMalformed, bi.Int64())
	}
}

// CheckHalt is an actor.TransactionCheckerModifier that rejects transactions
// FAULTing at test invocation with *TrapError.
func CheckHalt(r *result.Invoke, t *transaction.Transaction) error {
	if r.State != vmstate.Halt.String() {
		return &TrapError{Exception: r.FaultException}
	}
	return nil
}

// AllowFault is an actor.TransactionCheckerModifier that accepts any test
// invocation result, so FAULTing transactions are sent to the network.
func AllowFault(r *result.Invoke, t *transaction.Transaction) error {
	return nil
}

func itemString(itm stackitem.Item) string {
	if itm == nil {
		return "<nil>"
	}
	switch itm.Type() {
	case stackitem.AnyT:
		return "null"
	case stackitem.IntegerT, stackitem.BooleanT:
		return fmt.Sprint(itm.Value())
	default:
		return itm.Type().String()
	}
}
