package scenario

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/prosopo/obce/internal/fakenode"
	"github.com/prosopo/obce/pkg/callresult"
	"github.com/prosopo/obce/pkg/config"
	"github.com/prosopo/obce/pkg/contract"
	"github.com/prosopo/obce/pkg/env"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	extensionSource = "../../internal/contracts/extension"
	extensionConfig = "../../internal/contracts/extension/extension.yml"
)

var (
	artifactOnce sync.Once
	artifact     *contract.Artifact
	artifactErr  error
)

func getArtifact(t *testing.T) *contract.Artifact {
	artifactOnce.Do(func() {
		artifact, artifactErr = contract.Compile(extensionSource, extensionConfig)
	})
	require.NoError(t, artifactErr)
	return artifact
}

// network creates a new fake node for every connection.
type network struct {
	lock  sync.Mutex
	nodes []*fakenode.FakeNode
	tune  func(n *fakenode.FakeNode)
}

func (w *network) dial(ctx context.Context, endpoint string, timeout time.Duration) (env.RPC, error) {
	n := fakenode.New()
	if w.tune != nil {
		w.tune(n)
	}
	w.lock.Lock()
	w.nodes = append(w.nodes, n)
	w.lock.Unlock()
	return n, nil
}

func (w *network) requireClosedOnce(t *testing.T, count int) {
	w.lock.Lock()
	defer w.lock.Unlock()
	require.Equal(t, count, len(w.nodes))
	for i, n := range w.nodes {
		require.Equal(t, 1, n.Closed(), "node %d", i)
	}
}

func testConfig() config.HarnessConfiguration {
	cfg := config.Default().Harness
	cfg.DialTimeout = time.Second
	cfg.Contract.Source = extensionSource
	cfg.Contract.Config = extensionConfig
	return cfg
}

func newTestRunner(t *testing.T, w *network) *Runner {
	return &Runner{
		Config: testConfig(),
		Options: env.Options{
			Dialer:   w.dial,
			Artifact: getArtifact(t),
		},
		Log: zaptest.NewLogger(t),
	}
}

func TestRunDefault(t *testing.T) {
	w := new(network)
	r := newTestRunner(t, w)

	rep, err := r.Run(context.Background(), Default())
	require.NoError(t, err)
	require.NoError(t, rep.Err())
	require.Equal(t, 5, rep.Passed)
	require.Equal(t, 0, rep.Failed)

	names := []string{
		SuccessfulMethodName,
		ErroneousMethodName,
		CriticallyErroneousMethodName,
		MultiArgMethodName,
		WeightLinearMethodName,
	}
	require.Len(t, rep.Scenarios, len(names))
	for i, o := range rep.Scenarios {
		require.Equal(t, names[i], o.Name)
		require.Equal(t, 0, o.Run)
		require.Equal(t, StatusPass, o.Status)
		require.Equal(t, StateClosed, o.State)
		require.Empty(t, o.Error)
	}

	w.requireClosedOnce(t, 5)
	calls := [][]string{
		{"successfulMethod"},
		{"erroneousMethod"},
		{"criticallyErroneousMethod"},
		{"multiArgMethod"},
		{"weightLinearMethod", "weightLinearMethod"},
	}
	for i, n := range w.nodes {
		require.Equal(t, 1, n.Deployments())
		require.Equal(t, calls[i], n.Calls())
	}
}

func TestRunOnChainFaults(t *testing.T) {
	w := new(network)
	r := newTestRunner(t, w)
	r.Config.Transactions.OnChainFaults = true
	r.Include = []string{CriticallyErroneousMethodName}

	rep, err := r.Run(context.Background(), Default())
	require.NoError(t, err)
	require.NoError(t, rep.Err())
	require.Len(t, rep.Scenarios, 1)
	w.requireClosedOnce(t, 1)
}

func TestRunWeightMismatch(t *testing.T) {
	w := new(network)
	r := newTestRunner(t, w)
	r.Config.Weight.PerUnit = 2
	r.Include = []string{WeightLinearMethodName}

	rep, err := r.Run(context.Background(), Default())
	require.NoError(t, err)
	require.Equal(t, 1, rep.Failed)

	o := rep.Scenarios[0]
	require.Equal(t, StatusFail, o.Status)
	require.Equal(t, StateCalled, o.State)
	var me *MismatchError
	require.ErrorAs(t, o.Err(), &me)
	require.Equal(t, "8", me.Expected)
	require.Equal(t, "4", me.Actual)
	w.requireClosedOnce(t, 1)
}

func TestRunUnexpectedKind(t *testing.T) {
	w := &network{tune: func(n *fakenode.FakeNode) {
		n.Methods["successfulMethod"] = func([]smartcontract.Parameter) *result.Invoke {
			return fakenode.Halt(fakenode.BaseGas, stackitem.NewArray([]stackitem.Item{stackitem.Make(1), stackitem.Make(0)}))
		}
		n.Methods["multiArgMethod"] = func([]smartcontract.Parameter) *result.Invoke {
			return fakenode.Fault(fakenode.BaseGas, "boom")
		}
	}}
	r := newTestRunner(t, w)
	r.Include = []string{SuccessfulMethodName, MultiArgMethodName}

	rep, err := r.Run(context.Background(), Default())
	require.NoError(t, err)
	require.Equal(t, 2, rep.Failed)

	var (
		me *MismatchError
		de *callresult.DecodedError
		te *callresult.TrapError
	)
	require.ErrorAs(t, rep.Scenarios[0].Err(), &me)
	require.ErrorAs(t, rep.Scenarios[0].Err(), &de)
	require.Equal(t, callresult.NonCriticalError, de.Code)

	require.ErrorAs(t, rep.Scenarios[1].Err(), &me)
	require.ErrorAs(t, rep.Scenarios[1].Err(), &te)
	require.Equal(t, "boom", te.Exception)
	w.requireClosedOnce(t, 2)
}

func TestRunCallFailure(t *testing.T) {
	w := &network{tune: func(n *fakenode.FakeNode) {
		n.Methods["multiArgMethod"] = func([]smartcontract.Parameter) *result.Invoke {
			return fakenode.Halt(fakenode.BaseGas)
		}
	}}
	r := newTestRunner(t, w)
	r.Include = []string{MultiArgMethodName}

	rep, err := r.Run(context.Background(), Default())
	require.NoError(t, err)
	o := rep.Scenarios[0]
	require.Equal(t, StatusFail, o.Status)
	require.Equal(t, StateDeployed, o.State)
	require.ErrorIs(t, o.Err(), callresult.ErrMalformed)
	require.Contains(t, o.Error, "call failed")
	w.requireClosedOnce(t, 1)
}

func TestRunSetupFailure(t *testing.T) {
	t.Run("deploy", func(t *testing.T) {
		w := &network{tune: func(n *fakenode.FakeNode) {
			n.DeployFault = true
		}}
		r := newTestRunner(t, w)

		rep, err := r.Run(context.Background(), Default())
		require.NoError(t, err)
		require.Equal(t, 5, rep.Failed)
		for _, o := range rep.Scenarios {
			require.ErrorIs(t, o.Err(), env.ErrSetupFailure)
			require.Equal(t, StateConnected, o.State)
		}
		require.ErrorIs(t, rep.Err(), env.ErrSetupFailure)
		w.requireClosedOnce(t, 5)
	})
	t.Run("connect", func(t *testing.T) {
		r := newTestRunner(t, new(network))
		r.Config.DialTimeout = 50 * time.Millisecond
		r.Options.Dialer = func(ctx context.Context, endpoint string, timeout time.Duration) (env.RPC, error) {
			return nil, errors.New("connection refused")
		}
		r.Include = []string{SuccessfulMethodName}

		rep, err := r.Run(context.Background(), Default())
		require.NoError(t, err)
		o := rep.Scenarios[0]
		var se *env.SetupError
		require.ErrorAs(t, o.Err(), &se)
		require.Equal(t, env.StageConnect, se.Stage)
		require.Equal(t, StateUninitialized, o.State)
	})
	t.Run("artifact", func(t *testing.T) {
		w := new(network)
		r := newTestRunner(t, w)
		r.Options.Artifact = nil
		r.Config.Contract.Config = "nonexistent.yml"

		rep, err := r.Run(context.Background(), Default())
		require.NoError(t, err)
		require.Equal(t, 5, rep.Failed)
		for _, o := range rep.Scenarios {
			var se *env.SetupError
			require.ErrorAs(t, o.Err(), &se)
			require.Equal(t, env.StageArtifact, se.Stage)
		}
		w.requireClosedOnce(t, 0)
	})
}

func TestRunPanic(t *testing.T) {
	w := new(network)
	r := newTestRunner(t, w)
	scenarios := []Scenario{
		{
			Name: "call-panic",
			Call: func(e *env.Env) ([]*callresult.Result, error) {
				panic("boom")
			},
		},
		{
			Name: "assert-panic",
			Call: func(e *env.Env) ([]*callresult.Result, error) {
				return single(e.Query.SuccessfulMethod())
			},
			Assert: func(_ Params, res []*callresult.Result) error {
				panic("bang")
			},
		},
	}

	rep, err := r.Run(context.Background(), scenarios)
	require.NoError(t, err)
	require.Equal(t, 2, rep.Failed)
	require.Contains(t, rep.Scenarios[0].Error, "panic caught running scenario: boom")
	require.Equal(t, StateDeployed, rep.Scenarios[0].State)
	require.Contains(t, rep.Scenarios[1].Error, "panic caught running scenario: bang")
	require.Equal(t, StateCalled, rep.Scenarios[1].State)
	w.requireClosedOnce(t, 2)
}

func TestRunRepeatParallel(t *testing.T) {
	w := new(network)
	r := newTestRunner(t, w)
	r.Runs = 2
	r.Parallel = 3

	rep, err := r.Run(context.Background(), Default())
	require.NoError(t, err)
	require.NoError(t, rep.Err())
	require.Len(t, rep.Scenarios, 10)
	require.Equal(t, SuccessfulMethodName+"/0", rep.Scenarios[0].Name)
	require.Equal(t, WeightLinearMethodName+"/1", rep.Scenarios[9].Name)
	require.Equal(t, 1, rep.Scenarios[9].Run)
	w.requireClosedOnce(t, 10)
}

func TestRunBadSelection(t *testing.T) {
	r := newTestRunner(t, new(network))
	r.Include = []string{"method"}
	_, err := r.Run(context.Background(), Default())
	require.ErrorContains(t, err, `no scenarios matching "method"`)
}

func TestSelect(t *testing.T) {
	names := func(s []Scenario) []string {
		var res []string
		for _, sc := range s {
			res = append(res, sc.Name)
		}
		return res
	}
	all := Default()

	s, err := Select(all, nil, nil)
	require.NoError(t, err)
	require.Len(t, s, 5)

	s, err = Select(all, []string{"multi-arg-method"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{MultiArgMethodName}, names(s))

	s, err = Select(all, []string{".*erroneous-method", "successful-method"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{SuccessfulMethodName, ErroneousMethodName, CriticallyErroneousMethodName}, names(s))

	s, err = Select(all, nil, []string{".*erroneous-method"})
	require.NoError(t, err)
	require.Equal(t, []string{SuccessfulMethodName, MultiArgMethodName, WeightLinearMethodName}, names(s))

	// Whole names only.
	_, err = Select(all, []string{"successful"}, nil)
	require.Error(t, err)
	s, err = Select(all, nil, []string{"weight"})
	require.NoError(t, err)
	require.Len(t, s, 5)

	_, err = Select(all, []string{"("}, nil)
	require.ErrorContains(t, err, "bad scenario name regex")
	_, err = Select(all, nil, []string{"["})
	require.Error(t, err)
}

func TestRunT(t *testing.T) {
	w := new(network)
	RunT(t, newTestRunner(t, w), Default())
	w.requireClosedOnce(t, 5)
}
