/*
Package cmdargs contains helper functions for positional CLI arguments.
*/
package cmdargs

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli"
)

// EnsureNone returns an error if there are any positional arguments present.
// It can be used to check for them in commands that don't accept arguments.
func EnsureNone(ctx *cli.Context) *cli.ExitError {
	if ctx.Args().Present() {
		return cli.NewExitError("additional arguments given while this command expects none", 1)
	}
	return nil
}

// ParseInts parses all args starting from the given offset as 64-bit
// integers, exactly n of them are expected.
func ParseInts(args []string, n int) ([]int64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d integer arguments, got %d", n, len(args))
	}
	res := make([]int64, 0, n)
	for i, a := range args {
		v, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("argument #%d is not an integer: %w", i, err)
		}
		res = append(res, v)
	}
	return res, nil
}
