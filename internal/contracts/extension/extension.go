/*
Package extension is the contract exercised by the harness.

Every method returns a pair of [tag, payload] where tag is 0 for successful
results (payload is the value then) and 1 for recoverable errors (payload
is the error code). Unrecoverable errors abort the execution.
*/
package extension

import "github.com/nspcc-dev/neo-go/pkg/interop/runtime"

const (
	tagOk  = 0
	tagErr = 1
)

// NonCriticalError is the code of the recoverable error.
const NonCriticalError = 0

// WeightPerUnit is the amount of GAS (in fractions) burnt by WeightLinearMethod
// per unit of complexity.
const WeightPerUnit = 1

// SuccessfulMethod always succeeds returning no value.
func SuccessfulMethod() []any {
	return []any{tagOk, nil}
}

// ErroneousMethod always returns NonCriticalError.
func ErroneousMethod() []any {
	return []any{tagErr, NonCriticalError}
}

// CriticallyErroneousMethod always FAULTs.
func CriticallyErroneousMethod() []any {
	panic("critical error")
}

// MultiArgMethod returns the sum of its arguments.
func MultiArgMethod(one, two int) []any {
	return []any{tagOk, one + two}
}

// WeightLinearMethod burns (complexity+1)*WeightPerUnit GAS, the execution
// path is the same for any non-negative complexity.
func WeightLinearMethod(complexity int) []any {
	if complexity < 0 {
		panic("negative complexity")
	}
	runtime.BurnGas((complexity + 1) * WeightPerUnit)
	return []any{tagOk, nil}
}
