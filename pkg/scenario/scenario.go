/*
Package scenario contains contract behaviour scenarios and the runner for
them.

Every scenario run gets its own environment (see package env) with a freshly
deployed contract instance, performs calls and checks their outcomes. The
environment is always closed when the scenario ends, whatever the outcome.
*/
package scenario

import (
	"fmt"
	"math/big"

	"github.com/prosopo/obce/pkg/callresult"
	"github.com/prosopo/obce/pkg/env"
	"go.uber.org/multierr"
)

// Params are the scenario assertion parameters.
type Params struct {
	// WeightPerUnit is the expected weight growth per unit of complexity.
	WeightPerUnit int64
}

// Scenario is a named set of contract calls with assertions over their
// results.
type Scenario struct {
	Name string
	// Call performs contract calls in the environment given.
	Call func(e *env.Env) ([]*callresult.Result, error)
	// Assert checks call results, it's only invoked if Call succeeds.
	Assert func(p Params, res []*callresult.Result) error
}

// MismatchError is returned when a call outcome differs from the expected one.
type MismatchError struct {
	What     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.What, e.Expected, e.Actual)
}

// Names of default scenarios.
const (
	SuccessfulMethodName          = "successful-method"
	ErroneousMethodName           = "erroneous-method"
	CriticallyErroneousMethodName = "critically-erroneous-method"
	MultiArgMethodName            = "multi-arg-method"
	WeightLinearMethodName        = "weight-linear-method"
)

// Default returns all contract scenarios in the order they're run.
func Default() []Scenario {
	return []Scenario{
		{
			Name: SuccessfulMethodName,
			Call: func(e *env.Env) ([]*callresult.Result, error) {
				return single(e.Query.SuccessfulMethod())
			},
			Assert: func(_ Params, res []*callresult.Result) error {
				return expectKind("successfulMethod()", res[0], callresult.Ok)
			},
		},
		{
			Name: ErroneousMethodName,
			Call: func(e *env.Env) ([]*callresult.Result, error) {
				return single(e.Query.ErroneousMethod())
			},
			Assert: func(_ Params, res []*callresult.Result) error {
				const what = "erroneousMethod()"
				if err := expectKind(what, res[0], callresult.Err); err != nil {
					return err
				}
				if res[0].Error != callresult.NonCriticalError {
					return &MismatchError{What: what, Expected: callresult.NonCriticalError.String(), Actual: res[0].Error.String()}
				}
				return nil
			},
		},
		{
			Name: CriticallyErroneousMethodName,
			Call: func(e *env.Env) ([]*callresult.Result, error) {
				return single(e.Transact(e.Tx.CriticallyErroneousMethodTx()))
			},
			Assert: func(_ Params, res []*callresult.Result) error {
				return expectKind("criticallyErroneousMethod() transaction", res[0], callresult.Trap)
			},
		},
		{
			Name: MultiArgMethodName,
			Call: func(e *env.Env) ([]*callresult.Result, error) {
				return single(e.Query.MultiArgMethod(100, 300))
			},
			Assert: func(_ Params, res []*callresult.Result) error {
				return expectInteger("multiArgMethod(100, 300)", res[0], 400)
			},
		},
		{
			Name: WeightLinearMethodName,
			Call: func(e *env.Env) ([]*callresult.Result, error) {
				x, err := e.Query.WeightLinearMethod(1)
				if err != nil {
					return nil, err
				}
				y, err := e.Query.WeightLinearMethod(5)
				if err != nil {
					return nil, err
				}
				return []*callresult.Result{x, y}, nil
			},
			Assert: func(p Params, res []*callresult.Result) error {
				if err := expectKind("weightLinearMethod(1)", res[0], callresult.Ok); err != nil {
					return err
				}
				if err := expectKind("weightLinearMethod(5)", res[1], callresult.Ok); err != nil {
					return err
				}
				var (
					expected = 4 * p.WeightPerUnit
					delta    = res[1].Weight.RefTime - res[0].Weight.RefTime
				)
				if delta != expected {
					return &MismatchError{
						What:     "weightLinearMethod(5) and weightLinearMethod(1) weight delta",
						Expected: fmt.Sprint(expected),
						Actual:   fmt.Sprint(delta),
					}
				}
				return nil
			},
		},
	}
}

func single(r *callresult.Result, err error) ([]*callresult.Result, error) {
	if err != nil {
		return nil, err
	}
	return []*callresult.Result{r}, nil
}

// expectKind checks result kind, Err and Trap results are reported along
// with their own errors so that they can be matched with errors.As.
func expectKind(what string, r *callresult.Result, k callresult.Kind) error {
	if r.Kind == k {
		return nil
	}
	err := error(&MismatchError{What: what, Expected: k.String(), Actual: r.String()})
	if k == callresult.Ok {
		err = multierr.Append(err, r.Err())
	}
	return err
}

func expectInteger(what string, r *callresult.Result, expected int64) error {
	if err := expectKind(what, r, callresult.Ok); err != nil {
		return err
	}
	v, err := r.Value.TryInteger()
	if err != nil || v.Cmp(big.NewInt(expected)) != 0 {
		return &MismatchError{What: what, Expected: fmt.Sprintf("Ok(%d)", expected), Actual: r.String()}
	}
	return nil
}
