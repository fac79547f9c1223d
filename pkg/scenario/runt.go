package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// RunT runs scenarios as subtests of t, every selected scenario run is a
// separate subtest failing with the scenario error. Runner concurrency
// settings are ignored, subtests are run sequentially.
func RunT(t *testing.T, r *Runner, scenarios []Scenario) {
	selected, err := Select(scenarios, r.Include, r.Skip)
	require.NoError(t, err)

	opts := r.prepare()
	for _, j := range r.jobs(selected) {
		t.Run(j.name, func(t *testing.T) {
			o := r.runJob(context.Background(), opts, j)
			require.NoError(t, o.Err(), "last state: %s", o.State)
		})
	}
}
